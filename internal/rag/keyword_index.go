package rag

import (
	"math"
	"sync"
)

const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// KeywordIndex is a per-filing BM25 inverted index. It complements the vector
// index for exact value and term lookups that dense similarity tends to miss.
type KeywordIndex struct {
	mu      sync.RWMutex
	filings map[string]*keywordEntry
}

type keywordEntry struct {
	order       []string
	termFreqs   map[string]map[string]int // chunk id -> term -> count
	docFreqs    map[string]int            // term -> number of chunks containing it
	docLengths  map[string]int
	totalLength int
}

func NewKeywordIndex() *KeywordIndex {
	return &KeywordIndex{
		filings: make(map[string]*keywordEntry),
	}
}

func (k *KeywordIndex) Upsert(filingID, chunkID, text string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	entry := k.filings[filingID]
	if entry == nil {
		entry = &keywordEntry{
			termFreqs:  make(map[string]map[string]int),
			docFreqs:   make(map[string]int),
			docLengths: make(map[string]int),
		}
		k.filings[filingID] = entry
	}
	if old, exists := entry.termFreqs[chunkID]; exists {
		for term := range old {
			entry.docFreqs[term]--
			if entry.docFreqs[term] <= 0 {
				delete(entry.docFreqs, term)
			}
		}
		entry.totalLength -= entry.docLengths[chunkID]
	} else {
		entry.order = append(entry.order, chunkID)
	}

	tokens := Tokenize(text)
	tf := make(map[string]int, len(tokens))
	for _, token := range tokens {
		tf[token]++
	}
	for term := range tf {
		entry.docFreqs[term]++
	}
	entry.termFreqs[chunkID] = tf
	entry.docLengths[chunkID] = len(tokens)
	entry.totalLength += len(tokens)
}

// ScoreAll computes the BM25 score of every chunk of the filing against the
// query terms, keyed by chunk id. An unindexed filing yields an empty map.
func (k *KeywordIndex) ScoreAll(filingID, query string) map[string]float64 {
	k.mu.RLock()
	defer k.mu.RUnlock()
	entry := k.filings[filingID]
	if entry == nil {
		return map[string]float64{}
	}
	scores := make(map[string]float64, len(entry.order))
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		for _, chunkID := range entry.order {
			scores[chunkID] = 0
		}
		return scores
	}
	numDocs := float64(len(entry.order))
	avgLen := float64(entry.totalLength) / math.Max(numDocs, 1)
	for _, chunkID := range entry.order {
		scores[chunkID] = bm25Score(queryTokens, entry, chunkID, numDocs, avgLen)
	}
	return scores
}

func bm25Score(queryTokens []string, entry *keywordEntry, chunkID string, numDocs, avgLen float64) float64 {
	tf := entry.termFreqs[chunkID]
	docLen := float64(entry.docLengths[chunkID])
	score := 0.0
	for _, term := range queryTokens {
		count, ok := tf[term]
		if !ok {
			continue
		}
		df := float64(entry.docFreqs[term])
		idf := math.Log((numDocs-df+0.5)/(df+0.5) + 1)
		numerator := float64(count) * (bm25K1 + 1)
		denominator := float64(count) + bm25K1*(1-bm25B+bm25B*(docLen/avgLen))
		score += idf * (numerator / denominator)
	}
	return score
}

func (k *KeywordIndex) Has(filingID string) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	_, ok := k.filings[filingID]
	return ok
}

func (k *KeywordIndex) Evict(filingID string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.filings, filingID)
}
