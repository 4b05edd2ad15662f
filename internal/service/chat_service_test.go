package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/filingchat/internal/ingest"
	"github.com/xxxsen/filingchat/internal/model"
	appErr "github.com/xxxsen/filingchat/internal/pkg/errors"
	"github.com/xxxsen/filingchat/internal/rag"
)

type stubFetcher struct {
	doc *model.Document
	err error
}

func (s *stubFetcher) FetchDocument(ctx context.Context, url string) (*model.Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.doc, nil
}

func (s *stubFetcher) ListExhibits(ctx context.Context, filingURL string) ([]model.Exhibit, error) {
	return nil, errors.New("no exhibit index")
}

type stubEmbedder struct{}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = []float32{1, 0}
	}
	return result, nil
}

func (s *stubEmbedder) ModelName() string { return "stub" }

type stubGenerator struct {
	answer string
	err    error
	prompt string
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func newTestChatService(t *testing.T, doc *model.Document, gen *stubGenerator) (*ChatService, *rag.Store) {
	t.Helper()
	vectors := rag.NewVectorIndex()
	keywords := rag.NewKeywordIndex()
	store, err := rag.NewStore(10, vectors, keywords)
	require.NoError(t, err)
	chunker := rag.NewChunker(rag.ChunkerConfig{MaxTokens: 50, HardMaxTokens: 75, OverlapTokens: 5})
	embedder := &stubEmbedder{}
	orch := ingest.NewOrchestrator(&stubFetcher{doc: doc}, embedder, chunker, store, vectors, keywords, ingest.Config{})
	retriever := rag.NewHybridRetriever(store, vectors, keywords, embedder, rag.RetrieverConfig{TopK: 10})
	svc := NewChatService(orch, retriever, gen, store, ChatConfig{
		MaxHistory:      8,
		MinWordOverlap:  2,
		GenerateTimeout: time.Second,
	})
	return svc, store
}

func userQuestion(content string) []model.ChatMessage {
	return []model.ChatMessage{{Role: model.RoleUser, Content: content}}
}

func TestChatService_ValidatesInput(t *testing.T) {
	svc, _ := newTestChatService(t, &model.Document{ID: "d1"}, &stubGenerator{})

	tests := []struct {
		name     string
		filingID string
		messages []model.ChatMessage
	}{
		{name: "empty filing id", filingID: "", messages: userQuestion("question")},
		{name: "no messages", filingID: "f1", messages: nil},
		{name: "last message not from user", filingID: "f1", messages: []model.ChatMessage{{Role: model.RoleAssistant, Content: "hello"}}},
		{name: "blank content", filingID: "f1", messages: userQuestion("   ")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AnswerQuestion(context.Background(), tt.filingID, tt.messages)
			require.ErrorIs(t, err, appErr.ErrInvalid)
		})
	}
}

func TestChatService_UnknownFilingNotReady(t *testing.T) {
	svc, _ := newTestChatService(t, &model.Document{ID: "d1"}, &stubGenerator{})
	_, err := svc.AnswerQuestion(context.Background(), "unknown", userQuestion("what was revenue"))
	require.ErrorIs(t, err, appErr.ErrFilingNotReady)
}

func TestChatService_AnswersWithRenumberedCitations(t *testing.T) {
	doc := &model.Document{
		ID: "d1",
		Elements: []model.Element{
			{Index: 0, Kind: model.ElementHeading, Text: "Item 7. Results of Operations"},
			{Index: 1, Kind: model.ElementParagraph, Text: "Net sales were $391,035 million in fiscal 2024"},
			{Index: 2, Kind: model.ElementParagraph, Text: "Gross margin improved to 46.2 percent this year"},
		},
	}
	gen := &stubGenerator{answer: "Net sales were $391,035 million [1]."}
	svc, store := newTestChatService(t, doc, gen)
	store.Register("f1", "https://www.sec.gov/x", nil)

	answer, err := svc.AnswerQuestion(context.Background(), "f1", userQuestion("what were net sales"))
	require.NoError(t, err)
	require.Equal(t, "Net sales were $391,035 million [1].", answer.Message)
	require.Len(t, answer.Sources, 1)

	source := answer.Sources[0]
	require.Equal(t, 1, source.CitationNumber)
	require.Equal(t, "d1", source.DocumentID)
	require.Equal(t, 1, source.ElementIndex)
	require.NotEmpty(t, source.Preview)
	require.Contains(t, gen.prompt, "[Excerpt 1]")
	require.Contains(t, gen.prompt, "Question: what were net sales")
}

func TestChatService_StripsInvalidCitations(t *testing.T) {
	doc := &model.Document{
		ID:       "d1",
		Elements: []model.Element{{Index: 0, Kind: model.ElementParagraph, Text: "Revenue discussion text here"}},
	}
	gen := &stubGenerator{answer: "Revenue grew [1], see also [7]."}
	svc, store := newTestChatService(t, doc, gen)
	store.Register("f1", "https://www.sec.gov/x", nil)

	answer, err := svc.AnswerQuestion(context.Background(), "f1", userQuestion("did revenue grow"))
	require.NoError(t, err)
	require.Equal(t, "Revenue grew [1], see also .", answer.Message)
	require.Len(t, answer.Sources, 1)
}

func TestChatService_NoEvidenceAnswer(t *testing.T) {
	// a document with no elements produces no chunks
	gen := &stubGenerator{answer: "should never be called"}
	svc, store := newTestChatService(t, &model.Document{ID: "d1"}, gen)
	store.Register("f1", "https://www.sec.gov/x", nil)

	answer, err := svc.AnswerQuestion(context.Background(), "f1", userQuestion("what was revenue"))
	require.NoError(t, err)
	require.Equal(t, noEvidenceAnswer, answer.Message)
	require.Empty(t, answer.Sources)
	require.Empty(t, gen.prompt)
}

func TestChatService_GenerationFailureMapped(t *testing.T) {
	doc := &model.Document{
		ID:       "d1",
		Elements: []model.Element{{Index: 0, Kind: model.ElementParagraph, Text: "some filing text"}},
	}
	gen := &stubGenerator{err: errors.New("model overloaded")}
	svc, store := newTestChatService(t, doc, gen)
	store.Register("f1", "https://www.sec.gov/x", nil)

	_, err := svc.AnswerQuestion(context.Background(), "f1", userQuestion("question"))
	require.ErrorIs(t, err, appErr.ErrGenerationFailed)
}

func TestChatService_HistoryWindowBounded(t *testing.T) {
	doc := &model.Document{
		ID:       "d1",
		Elements: []model.Element{{Index: 0, Kind: model.ElementParagraph, Text: "some filing text"}},
	}
	gen := &stubGenerator{answer: "answer"}
	svc, store := newTestChatService(t, doc, gen)
	store.Register("f1", "https://www.sec.gov/x", nil)

	var messages []model.ChatMessage
	for i := 0; i < 12; i++ {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		messages = append(messages, model.ChatMessage{Role: role, Content: "turn " + strings.Repeat("x", i+1)})
	}
	messages = append(messages, model.ChatMessage{Role: model.RoleUser, Content: "final question"})

	_, err := svc.AnswerQuestion(context.Background(), "f1", messages)
	require.NoError(t, err)

	// only the last 8 history turns survive; the earliest ones are dropped
	require.NotContains(t, gen.prompt, "turn x\n")
	require.Contains(t, gen.prompt, "turn "+strings.Repeat("x", 12))
	require.Contains(t, gen.prompt, "Question: final question")
}
