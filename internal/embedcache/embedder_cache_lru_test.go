package embedcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	c.calls++
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = []float32{1, 2, 3}
	}
	return result, nil
}

func (c *countingEmbedder) ModelName() string { return "counting" }

func TestLruEmbedder_CachesSingleTextCalls(t *testing.T) {
	inner := &countingEmbedder{}
	embedder := WrapLruCacheToEmbedder(inner, 10, time.Minute)

	first, err := embedder.Embed(context.Background(), []string{"what was revenue"}, "RETRIEVAL_QUERY")
	require.NoError(t, err)
	second, err := embedder.Embed(context.Background(), []string{"what was revenue"}, "RETRIEVAL_QUERY")
	require.NoError(t, err)

	require.Equal(t, 1, inner.calls)
	require.Equal(t, first, second)
}

func TestLruEmbedder_TaskTypeSeparatesEntries(t *testing.T) {
	inner := &countingEmbedder{}
	embedder := WrapLruCacheToEmbedder(inner, 10, time.Minute)

	_, err := embedder.Embed(context.Background(), []string{"same text"}, "RETRIEVAL_QUERY")
	require.NoError(t, err)
	_, err = embedder.Embed(context.Background(), []string{"same text"}, "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)
}

func TestLruEmbedder_BatchCallsBypassCache(t *testing.T) {
	inner := &countingEmbedder{}
	embedder := WrapLruCacheToEmbedder(inner, 10, time.Minute)

	_, err := embedder.Embed(context.Background(), []string{"a", "b"}, "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	_, err = embedder.Embed(context.Background(), []string{"a", "b"}, "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)
}

func TestWrapLruCacheToEmbedder_DisabledPassthrough(t *testing.T) {
	inner := &countingEmbedder{}
	require.Equal(t, inner, WrapLruCacheToEmbedder(inner, 0, time.Minute))
	require.Equal(t, inner, WrapLruCacheToEmbedder(inner, 10, 0))
	require.Nil(t, WrapLruCacheToEmbedder(nil, 10, time.Minute))
}
