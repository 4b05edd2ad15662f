package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/xxxsen/filingchat/internal/ai"
	"github.com/xxxsen/filingchat/internal/fetch"
	"github.com/xxxsen/filingchat/internal/model"
	appErr "github.com/xxxsen/filingchat/internal/pkg/errors"
	"github.com/xxxsen/filingchat/internal/rag"
)

type Config struct {
	ExhibitMaxCount int
	ExhibitTimeout  time.Duration
}

// Orchestrator owns the per-filing ingestion lifecycle: fetch, chunk, embed,
// index. Concurrent first-time questions about one filing coalesce into a
// single ingestion run; every waiter receives the same outcome. A failed
// filing is retried by whichever request arrives next.
type Orchestrator struct {
	fetcher  fetch.Fetcher
	embedder ai.IEmbedder
	chunker  *rag.Chunker
	store    *rag.Store
	vectors  *rag.VectorIndex
	keywords *rag.KeywordIndex
	group    singleflight.Group
	cfg      Config
}

func NewOrchestrator(
	fetcher fetch.Fetcher,
	embedder ai.IEmbedder,
	chunker *rag.Chunker,
	store *rag.Store,
	vectors *rag.VectorIndex,
	keywords *rag.KeywordIndex,
	cfg Config,
) *Orchestrator {
	if cfg.ExhibitMaxCount <= 0 {
		cfg.ExhibitMaxCount = 10
	}
	if cfg.ExhibitTimeout <= 0 {
		cfg.ExhibitTimeout = 15 * time.Second
	}
	return &Orchestrator{
		fetcher:  fetcher,
		embedder: embedder,
		chunker:  chunker,
		store:    store,
		vectors:  vectors,
		keywords: keywords,
		cfg:      cfg,
	}
}

func (o *Orchestrator) Status(filingID string) model.IngestStatus {
	return o.store.Status(filingID)
}

// EnsureReady blocks until the filing is ingested. An abandoned caller stops
// waiting, the ingestion itself keeps running for the other waiters.
func (o *Orchestrator) EnsureReady(ctx context.Context, filingID string) error {
	if state, ok := o.store.State(filingID); ok && state == model.IngestReady {
		return nil
	}
	sourceURL, ok := o.store.SourceURL(filingID)
	if !ok {
		return fmt.Errorf("%w: unknown filing %s, open it first", appErr.ErrFilingNotReady, filingID)
	}
	ch := o.group.DoChan(filingID, func() (interface{}, error) {
		// Detached from the triggering request so a client disconnect does
		// not abort the shared run.
		return nil, o.ingest(context.WithoutCancel(ctx), filingID, sourceURL)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (o *Orchestrator) ingest(ctx context.Context, filingID, sourceURL string) error {
	// Re-check under the flight: a previous waiter batch may have finished
	// the work already.
	if state, ok := o.store.State(filingID); ok && state == model.IngestReady {
		return nil
	}
	logger := logutil.GetLogger(ctx).With(zap.String("filing_id", filingID))
	start := time.Now()
	o.store.SetInProgress(filingID, sourceURL)

	main, ok := o.store.MainDocument(filingID)
	if !ok {
		fetched, err := o.fetcher.FetchDocument(ctx, sourceURL)
		if err != nil {
			logger.Error("main document fetch failed", zap.Error(err))
			o.store.SetFailed(filingID, err)
			return err
		}
		main = fetched
	}

	exhibits, exhibitErrors := o.fetchExhibits(ctx, filingID, sourceURL)
	documents := append([]*model.Document{main}, exhibits...)

	var chunks []model.Chunk
	for _, doc := range documents {
		chunks = append(chunks, o.chunker.Chunk(ctx, doc)...)
	}

	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		texts = append(texts, chunk.Text)
	}
	vectors, err := o.embedder.Embed(ctx, texts, "RETRIEVAL_DOCUMENT")
	if err != nil {
		logger.Error("chunk embedding failed", zap.Int("chunks", len(chunks)), zap.Error(err))
		o.store.SetFailed(filingID, err)
		return fmt.Errorf("%w: %v", appErr.ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(chunks) {
		err := fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(chunks))
		o.store.SetFailed(filingID, err)
		return err
	}

	for i, chunk := range chunks {
		o.vectors.Upsert(filingID, chunk.ID, vectors[i])
		o.keywords.Upsert(filingID, chunk.ID, chunk.Text)
	}
	o.store.SetReady(filingID, documents, chunks, len(exhibits), exhibitErrors)

	logger.Info("filing ingested",
		zap.Int("documents", len(documents)),
		zap.Int("chunks", len(chunks)),
		zap.Int("exhibit_errors", exhibitErrors),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// fetchExhibits pulls up to the configured number of exhibits concurrently,
// each bounded by its own timeout. A failed or timed-out exhibit is logged
// and skipped, it never fails the filing.
func (o *Orchestrator) fetchExhibits(ctx context.Context, filingID, sourceURL string) ([]*model.Document, int) {
	logger := logutil.GetLogger(ctx).With(zap.String("filing_id", filingID))
	listed, err := o.fetcher.ListExhibits(ctx, sourceURL)
	if err != nil {
		logger.Warn("exhibit listing failed, continuing with main document only", zap.Error(err))
		return nil, 0
	}
	if len(listed) > o.cfg.ExhibitMaxCount {
		listed = listed[:o.cfg.ExhibitMaxCount]
	}
	results := make([]*model.Document, len(listed))
	var eg errgroup.Group
	for i, exhibit := range listed {
		eg.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, o.cfg.ExhibitTimeout)
			defer cancel()
			doc, err := o.fetcher.FetchDocument(fetchCtx, exhibit.URL)
			if err != nil {
				logger.Warn("exhibit skipped",
					zap.String("exhibit", exhibit.Name),
					zap.String("url", exhibit.URL),
					zap.Error(err),
				)
				return nil
			}
			doc.Title = exhibit.Name
			results[i] = doc
			return nil
		})
	}
	_ = eg.Wait()

	fetched := make([]*model.Document, 0, len(results))
	for _, doc := range results {
		if doc != nil {
			fetched = append(fetched, doc)
		}
	}
	return fetched, len(listed) - len(fetched)
}
