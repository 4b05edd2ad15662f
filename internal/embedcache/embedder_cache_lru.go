package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/filingchat/internal/ai"
)

// WrapLruCacheToEmbedder memoizes single-text embeddings. Question embeddings
// repeat across a conversation, chunk embeddings never do, so only one-element
// calls consult the cache.
func WrapLruCacheToEmbedder(e ai.IEmbedder, size int, ttl time.Duration) ai.IEmbedder {
	if e == nil || size <= 0 || ttl <= 0 {
		return e
	}
	return &lruEmbedder{
		next:  e,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type lruEmbedder struct {
	next  ai.IEmbedder
	cache *expirable.LRU[string, []float32]
}

func (l *lruEmbedder) Embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if l == nil || l.next == nil {
		return nil, nil
	}
	if len(texts) != 1 {
		return l.next.Embed(ctx, texts, taskType)
	}
	cacheKey := buildCacheKey(l.next.ModelName(), taskType, texts[0])
	if cached, ok := l.cache.Get(cacheKey); ok {
		logutil.GetLogger(ctx).Debug("embedding cache hit (lru)", zap.String("task_type", taskType))
		return [][]float32{cloneEmbedding(cached)}, nil
	}
	res, err := l.next.Embed(ctx, texts, taskType)
	if err != nil {
		return nil, err
	}
	if len(res) == 1 {
		l.cache.Add(cacheKey, cloneEmbedding(res[0]))
	}
	return res, nil
}

func (l *lruEmbedder) ModelName() string {
	if l == nil || l.next == nil {
		return ""
	}
	return l.next.ModelName()
}

func buildCacheKey(modelName, taskType, text string) string {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		modelName = "unknown"
	}
	hash := sha256.Sum256([]byte(text))
	return "embed:" + modelName + ":" + taskType + ":" + hex.EncodeToString(hash[:])
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
