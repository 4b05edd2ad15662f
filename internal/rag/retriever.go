package rag

import (
	"context"
	"sort"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/filingchat/internal/ai"
	"github.com/xxxsen/filingchat/internal/model"
)

const normalizeEpsilon = 1e-9

type RetrieverConfig struct {
	TopK           int
	SemanticWeight float64
	KeywordWeight  float64
}

// HybridRetriever ranks a filing's chunks against a question by fusing cosine
// similarity with BM25. Each score set is min-max normalized to [0,1] across
// the candidate set before fusion, raw cosine and raw BM25 are not comparable.
// The 60/40 split keeps exact numeric lookups findable through the keyword
// signal while paraphrased questions ride on semantic recall.
type HybridRetriever struct {
	store    *Store
	vectors  *VectorIndex
	keywords *KeywordIndex
	embedder ai.IEmbedder
	cfg      RetrieverConfig
}

func NewHybridRetriever(store *Store, vectors *VectorIndex, keywords *KeywordIndex, embedder ai.IEmbedder, cfg RetrieverConfig) *HybridRetriever {
	if cfg.TopK <= 0 {
		cfg.TopK = 10
	}
	if cfg.SemanticWeight == 0 && cfg.KeywordWeight == 0 {
		cfg.SemanticWeight = 0.6
		cfg.KeywordWeight = 0.4
	}
	return &HybridRetriever{
		store:    store,
		vectors:  vectors,
		keywords: keywords,
		embedder: embedder,
		cfg:      cfg,
	}
}

func (r *HybridRetriever) Retrieve(ctx context.Context, filingID, question string) ([]model.ScoredChunk, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("filing_id", filingID))
	chunks := r.store.Chunks(filingID)
	if len(chunks) == 0 {
		return nil, nil
	}
	queryVectors, err := r.embedder.Embed(ctx, []string{question}, "RETRIEVAL_QUERY")
	if err != nil {
		logger.Error("query embedding failed", zap.Error(err))
		return nil, err
	}
	if len(queryVectors) == 0 {
		return nil, ai.ErrUnavailable
	}
	queryVector := queryVectors[0]

	semByID := r.vectors.ScoreAll(filingID, queryVector)
	kwByID := r.keywords.ScoreAll(filingID, question)

	semantic := make([]float64, len(chunks))
	keyword := make([]float64, len(chunks))
	for i, chunk := range chunks {
		semantic[i] = semByID[chunk.ID]
		keyword[i] = kwByID[chunk.ID]
	}
	semNorm := minMaxNormalize(semantic)
	kwNorm := minMaxNormalize(keyword)

	scored := make([]model.ScoredChunk, len(chunks))
	for i, chunk := range chunks {
		scored[i] = model.ScoredChunk{
			Chunk:         chunk,
			Score:         r.cfg.SemanticWeight*semNorm[i] + r.cfg.KeywordWeight*kwNorm[i],
			SemanticScore: semantic[i],
			KeywordScore:  keyword[i],
		}
	}
	// Stable order for equal fused scores: earlier element range first.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].StartElement < scored[j].StartElement
	})
	if len(scored) > r.cfg.TopK {
		scored = scored[:r.cfg.TopK]
	}
	logger.Debug("retrieval done",
		zap.Int("candidates", len(chunks)),
		zap.Int("returned", len(scored)),
		zap.Float64("top_score", scored[0].Score),
	)
	return scored, nil
}

// minMaxNormalize rescales scores into [0,1] across the candidate set. A flat
// score set maps to all zeros (epsilon guard).
func minMaxNormalize(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}
	min, max := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	span := max - min + normalizeEpsilon
	result := make([]float64, len(scores))
	for i, s := range scores {
		result[i] = (s - min) / span
	}
	return result
}
