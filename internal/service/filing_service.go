package service

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/filingchat/internal/fetch"
	"github.com/xxxsen/filingchat/internal/ingest"
	"github.com/xxxsen/filingchat/internal/model"
	appErr "github.com/xxxsen/filingchat/internal/pkg/errors"
	"github.com/xxxsen/filingchat/internal/rag"
)

// FilingInfo is the open-filing result handed back to the caller.
type FilingInfo struct {
	FilingID     string `json:"filing_id"`
	Title        string `json:"title"`
	SourceURL    string `json:"source_url"`
	ElementCount int    `json:"element_count"`
}

type FilingService struct {
	fetcher fetch.Fetcher
	store   *rag.Store
	orch    *ingest.Orchestrator
}

func NewFilingService(fetcher fetch.Fetcher, store *rag.Store, orch *ingest.Orchestrator) *FilingService {
	return &FilingService{fetcher: fetcher, store: store, orch: orch}
}

// Open fetches and registers a filing. Ingestion itself is deferred to the
// first question so opening stays cheap.
func (s *FilingService) Open(ctx context.Context, url string) (*FilingInfo, error) {
	if err := fetch.ValidateURL(url); err != nil {
		return nil, err
	}
	doc, err := s.fetcher.FetchDocument(ctx, url)
	if err != nil {
		return nil, err
	}
	filingID := fetch.FilingID(url)
	s.store.Register(filingID, url, doc)
	logutil.GetLogger(ctx).Info("filing opened",
		zap.String("filing_id", filingID),
		zap.String("url", url),
		zap.Int("elements", len(doc.Elements)),
	)
	return &FilingInfo{
		FilingID:     filingID,
		Title:        doc.Title,
		SourceURL:    url,
		ElementCount: len(doc.Elements),
	}, nil
}

func (s *FilingService) Status(filingID string) model.IngestStatus {
	return s.orch.Status(filingID)
}

func (s *FilingService) Exhibits(ctx context.Context, filingID string) ([]model.Exhibit, error) {
	sourceURL, ok := s.store.SourceURL(filingID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown filing %s", appErr.ErrNotFound, filingID)
	}
	return s.fetcher.ListExhibits(ctx, sourceURL)
}
