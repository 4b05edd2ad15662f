package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/filingchat/internal/ai"
	"github.com/xxxsen/filingchat/internal/ingest"
	"github.com/xxxsen/filingchat/internal/model"
	appErr "github.com/xxxsen/filingchat/internal/pkg/errors"
	"github.com/xxxsen/filingchat/internal/rag"
)

const noEvidenceAnswer = "I couldn't find relevant information in the filing to answer your question."

type ChatConfig struct {
	MaxHistory      int
	MinWordOverlap  int
	PreviewLength   int
	GenerateTimeout time.Duration
}

// ChatService drives the question answering pipeline: ensure the filing is
// ingested, retrieve evidence, generate a cited answer, then rewrite and
// resolve its citations.
type ChatService struct {
	orch      *ingest.Orchestrator
	retriever *rag.HybridRetriever
	generator ai.IGenerator
	store     *rag.Store
	cfg       ChatConfig
}

func NewChatService(orch *ingest.Orchestrator, retriever *rag.HybridRetriever, generator ai.IGenerator, store *rag.Store, cfg ChatConfig) *ChatService {
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = 8
	}
	if cfg.MinWordOverlap <= 0 {
		cfg.MinWordOverlap = 2
	}
	if cfg.PreviewLength <= 0 {
		cfg.PreviewLength = 150
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = 30 * time.Second
	}
	return &ChatService{
		orch:      orch,
		retriever: retriever,
		generator: generator,
		store:     store,
		cfg:       cfg,
	}
}

func (s *ChatService) AnswerQuestion(ctx context.Context, filingID string, messages []model.ChatMessage) (*model.Answer, error) {
	question, err := validateMessages(filingID, messages)
	if err != nil {
		return nil, err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("filing_id", filingID))

	if err := s.orch.EnsureReady(ctx, filingID); err != nil {
		return nil, err
	}

	chunks, err := s.retriever.Retrieve(ctx, filingID, question)
	if err != nil {
		if errors.Is(err, ai.ErrUnavailable) {
			return nil, fmt.Errorf("%w: %v", appErr.ErrEmbeddingUnavailable, err)
		}
		return nil, err
	}
	if len(chunks) == 0 {
		logger.Warn("no chunks retrieved")
		return &model.Answer{Message: noEvidenceAnswer}, nil
	}

	history := messages[:len(messages)-1]
	if len(history) > s.cfg.MaxHistory {
		history = history[len(history)-s.cfg.MaxHistory:]
	}

	generateCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerateTimeout)
	defer cancel()
	raw, err := s.generator.Generate(generateCtx, BuildAnswerPrompt(chunks, history, question))
	if err != nil {
		logger.Error("generation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", appErr.ErrGenerationFailed, err)
	}
	logger.Info("answer generated", zap.Int("chars", len(raw)))

	return s.mapCitations(filingID, raw, chunks), nil
}

// mapCitations drops uncited evidence, renumbers the surviving markers and
// resolves each citation to its best-matching source element.
func (s *ChatService) mapCitations(filingID, raw string, chunks []model.ScoredChunk) *model.Answer {
	rewritten, citedRanks := FilterAndRenumber(raw, len(chunks))
	sources := make([]model.Source, 0, len(citedRanks))
	for i, rank := range citedRanks {
		chunk := chunks[rank-1]
		citationNum := i + 1
		answerContext := ContextBeforeCitation(rewritten, citationNum)
		doc, _ := s.store.Document(filingID, chunk.DocumentID)
		sources = append(sources, model.Source{
			ID:             chunk.ID,
			CitationNumber: citationNum,
			DocumentID:     chunk.DocumentID,
			Preview:        BestPreview(chunk.Text, answerContext, s.cfg.PreviewLength, s.cfg.MinWordOverlap),
			ElementIndex:   ResolveElementIndex(chunk.Chunk, doc, answerContext, s.cfg.MinWordOverlap),
			Score:          round3(chunk.Score),
		})
	}
	return &model.Answer{
		Message: rewritten,
		Sources: sources,
	}
}

func validateMessages(filingID string, messages []model.ChatMessage) (string, error) {
	if filingID == "" {
		return "", fmt.Errorf("%w: filing id is required", appErr.ErrInvalid)
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: messages cannot be empty", appErr.ErrInvalid)
	}
	last := messages[len(messages)-1]
	if last.Role != model.RoleUser {
		return "", fmt.Errorf("%w: last message must be from user", appErr.ErrInvalid)
	}
	question := strings.TrimSpace(last.Content)
	if question == "" {
		return "", fmt.Errorf("%w: message content cannot be empty", appErr.ErrInvalid)
	}
	return question, nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
