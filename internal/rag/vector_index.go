package rag

import (
	"math"
	"sync"
)

// VectorIndex holds chunk embeddings per filing. Entries are immutable once
// written; a filing is dropped only through Evict, driven by the store's LRU.
type VectorIndex struct {
	mu      sync.RWMutex
	filings map[string]*vectorEntry
}

type vectorEntry struct {
	order   []string
	vectors map[string][]float32
}

func NewVectorIndex() *VectorIndex {
	return &VectorIndex{
		filings: make(map[string]*vectorEntry),
	}
}

func (v *VectorIndex) Upsert(filingID, chunkID string, vector []float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	entry := v.filings[filingID]
	if entry == nil {
		entry = &vectorEntry{vectors: make(map[string][]float32)}
		v.filings[filingID] = entry
	}
	if _, exists := entry.vectors[chunkID]; !exists {
		entry.order = append(entry.order, chunkID)
	}
	entry.vectors[chunkID] = vector
}

// ScoreAll returns cosine similarity of the query against every chunk of the
// filing, keyed by chunk id. An unindexed filing yields an empty map.
func (v *VectorIndex) ScoreAll(filingID string, query []float32) map[string]float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	entry := v.filings[filingID]
	if entry == nil {
		return map[string]float64{}
	}
	scores := make(map[string]float64, len(entry.order))
	for _, chunkID := range entry.order {
		scores[chunkID] = CosineSimilarity(query, entry.vectors[chunkID])
	}
	return scores
}

func (v *VectorIndex) Has(filingID string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.filings[filingID]
	return ok
}

func (v *VectorIndex) ChunkCount(filingID string) int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	entry := v.filings[filingID]
	if entry == nil {
		return 0
	}
	return len(entry.order)
}

func (v *VectorIndex) Evict(filingID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.filings, filingID)
}

func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
