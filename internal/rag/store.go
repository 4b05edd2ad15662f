package rag

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/filingchat/internal/model"
)

// FilingEntry is everything the process holds for one filing: the fetched
// documents, the chunk list and the ingestion state. It lives and dies as one
// unit with the filing's entries in both indices.
type FilingEntry struct {
	FilingID      string
	SourceURL     string
	Main          *model.Document
	Documents     map[string]*model.Document
	Chunks        []model.Chunk
	State         model.IngestState
	ErrMsg        string
	ExhibitCount  int
	ExhibitErrors int
}

// Store coordinates the document cache, both indices and the ingestion state
// table behind a single LRU, so an evicted filing disappears from all of them
// together and can only come back through a fresh ingestion.
type Store struct {
	mu       sync.Mutex
	entries  *lru.Cache[string, *FilingEntry]
	urls     map[string]string
	vectors  *VectorIndex
	keywords *KeywordIndex
}

func NewStore(capacity int, vectors *VectorIndex, keywords *KeywordIndex) (*Store, error) {
	store := &Store{
		urls:     make(map[string]string),
		vectors:  vectors,
		keywords: keywords,
	}
	cache, err := lru.NewWithEvict(capacity, func(filingID string, _ *FilingEntry) {
		vectors.Evict(filingID)
		keywords.Evict(filingID)
		logutil.GetLogger(context.Background()).Info("filing evicted (lru)", zap.String("filing_id", filingID))
	})
	if err != nil {
		return nil, err
	}
	store.entries = cache
	return store, nil
}

// Register records a freshly opened filing. Re-registering resets it to
// not_started with the new document.
func (s *Store) Register(filingID, sourceURL string, main *model.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls[filingID] = sourceURL
	s.entries.Add(filingID, &FilingEntry{
		FilingID:  filingID,
		SourceURL: sourceURL,
		Main:      main,
		State:     model.IngestNotStarted,
	})
}

// SourceURL survives eviction so a later question can re-trigger ingestion
// from scratch without the caller re-opening the filing.
func (s *Store) SourceURL(filingID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	url, ok := s.urls[filingID]
	return url, ok
}

func (s *Store) State(filingID string) (model.IngestState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries.Get(filingID)
	if !ok {
		return model.IngestNotStarted, false
	}
	return entry.State, true
}

// SetInProgress moves a filing into in_progress, creating the entry when the
// filing was evicted in the meantime. Only the orchestrator calls this.
func (s *Store) SetInProgress(filingID, sourceURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries.Get(filingID)
	if !ok {
		entry = &FilingEntry{FilingID: filingID, SourceURL: sourceURL}
		s.entries.Add(filingID, entry)
	}
	entry.State = model.IngestInProgress
	entry.ErrMsg = ""
}

func (s *Store) SetReady(filingID string, documents []*model.Document, chunks []model.Chunk, exhibitCount, exhibitErrors int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries.Get(filingID)
	if !ok {
		// Evicted while the ingest was still running. The index entries were
		// already written, so tear them down here to keep both indices in
		// step with the entry cache.
		s.vectors.Evict(filingID)
		s.keywords.Evict(filingID)
		return
	}
	entry.Documents = make(map[string]*model.Document, len(documents))
	for _, doc := range documents {
		entry.Documents[doc.ID] = doc
	}
	if len(documents) > 0 {
		entry.Main = documents[0]
	}
	entry.Chunks = chunks
	entry.ExhibitCount = exhibitCount
	entry.ExhibitErrors = exhibitErrors
	entry.State = model.IngestReady
	entry.ErrMsg = ""
}

func (s *Store) SetFailed(filingID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries.Get(filingID)
	if !ok {
		return
	}
	entry.State = model.IngestFailed
	if err != nil {
		entry.ErrMsg = err.Error()
	}
}

func (s *Store) MainDocument(filingID string) (*model.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries.Get(filingID)
	if !ok || entry.Main == nil {
		return nil, false
	}
	return entry.Main, true
}

func (s *Store) Document(filingID, docID string) (*model.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries.Get(filingID)
	if !ok {
		return nil, false
	}
	doc, ok := entry.Documents[docID]
	return doc, ok
}

// Chunks returns the filing's chunk list in index order. Chunks are immutable
// once ingested, the slice must not be appended to by callers.
func (s *Store) Chunks(filingID string) []model.Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries.Get(filingID)
	if !ok {
		return nil
	}
	return entry.Chunks
}

func (s *Store) Status(filingID string) model.IngestStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries.Get(filingID)
	if !ok {
		return model.IngestStatus{FilingID: filingID, State: model.IngestNotStarted}
	}
	return model.IngestStatus{
		FilingID:      filingID,
		State:         entry.State,
		ChunkCount:    len(entry.Chunks),
		ExhibitCount:  entry.ExhibitCount,
		ExhibitErrors: entry.ExhibitErrors,
		Error:         entry.ErrMsg,
	}
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.Len()
}
