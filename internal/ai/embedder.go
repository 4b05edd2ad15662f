package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	embedBatchSize     = 100
	embedMaxAttempts   = 3
	embedRetryBaseWait = 500 * time.Millisecond
)

// BatchEmbedder batches embedding requests and retries transient provider
// failures with exponential backoff. Once a batch exhausts its attempts the
// whole call fails with ErrUnavailable so the caller knows ingestion or
// retrieval cannot proceed.
type BatchEmbedder struct {
	next IEmbedder
}

func NewBatchEmbedder(next IEmbedder) *BatchEmbedder {
	return &BatchEmbedder{next: next}
}

func (b *BatchEmbedder) ModelName() string {
	return b.next.ModelName()
}

func (b *BatchEmbedder) Embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	logger := logutil.GetLogger(ctx)
	result := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := b.embedWithRetry(ctx, texts[start:end], taskType)
		if err != nil {
			logger.Error("embedding batch failed",
				zap.Int("batch_start", start),
				zap.Int("batch_size", end-start),
				zap.Error(err),
			)
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		result = append(result, vectors...)
	}
	return result, nil
}

func (b *BatchEmbedder) embedWithRetry(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt < embedMaxAttempts; attempt++ {
		if attempt > 0 {
			wait := embedRetryBaseWait << (attempt - 1)
			logutil.GetLogger(ctx).Warn("retrying embedding batch",
				zap.Int("attempt", attempt+1),
				zap.Duration("wait", wait),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}
		vectors, err := b.next.Embed(ctx, texts, taskType)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
