package rag

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/filingchat/internal/model"
)

var footnoteBodyRe = regexp.MustCompile(`^\(([0-9]{1,2}|[a-z])\)\s`)

type ChunkerConfig struct {
	MaxTokens     int
	HardMaxTokens int
	OverlapTokens int
}

// Chunker splits a document into overlapping, size-bounded chunks. Boundaries
// land only between elements, so a table is never split, and a footnote body
// stays with the element carrying its reference marker. The element ranges of
// consecutive chunks partition the document; the configured token overlap is
// carried in chunk text only.
type Chunker struct {
	cfg ChunkerConfig
}

func NewChunker(cfg ChunkerConfig) *Chunker {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.HardMaxTokens < cfg.MaxTokens {
		cfg.HardMaxTokens = cfg.MaxTokens + cfg.MaxTokens/2
	}
	if cfg.OverlapTokens < 0 || cfg.OverlapTokens >= cfg.MaxTokens {
		cfg.OverlapTokens = cfg.MaxTokens / 5
	}
	return &Chunker{cfg: cfg}
}

func (c *Chunker) Chunk(ctx context.Context, doc *model.Document) []model.Chunk {
	if doc.Empty() {
		return nil
	}
	logger := logutil.GetLogger(ctx).With(zap.String("doc_id", doc.ID))

	var chunks []model.Chunk
	var texts []string
	var carry string
	startIdx := 0
	curTokens := 0
	carryTokens := 0
	hasTable := false

	flush := func(endIdx int) {
		if len(texts) == 0 {
			return
		}
		body := strings.Join(texts, "\n")
		text := body
		if carry != "" {
			text = carry + "\n" + body
		}
		tokenCount := carryTokens + curTokens
		if tokenCount > c.cfg.HardMaxTokens {
			text = truncateTokens(text, c.cfg.HardMaxTokens)
			logger.Warn("chunk truncated to hard max",
				zap.Int("tokens", tokenCount),
				zap.Int("hard_max", c.cfg.HardMaxTokens),
			)
			tokenCount = c.cfg.HardMaxTokens
		}
		chunks = append(chunks, model.Chunk{
			ID:           fmt.Sprintf("%s-chunk-%d", doc.ID, len(chunks)),
			DocumentID:   doc.ID,
			Text:         text,
			StartElement: doc.Elements[startIdx].Index,
			EndElement:   doc.Elements[endIdx].Index,
			TokenCount:   tokenCount,
			HasTable:     hasTable,
		})
		carry, carryTokens = overlapTail(texts, c.cfg.OverlapTokens)
		texts = nil
		curTokens = 0
		hasTable = false
		startIdx = endIdx + 1
	}

	for i, elem := range doc.Elements {
		tokens := EstimateTokens(elem.Text)
		if len(texts) > 0 && carryTokens+curTokens+tokens > c.cfg.MaxTokens && c.canBreakBefore(doc.Elements, i) {
			flush(i - 1)
		}
		texts = append(texts, elem.Text)
		curTokens += tokens
		if elem.Kind == model.ElementTable || elem.Kind == model.ElementTableCell {
			hasTable = true
		}
	}
	flush(len(doc.Elements) - 1)

	logger.Info("document chunked",
		zap.Int("elements", len(doc.Elements)),
		zap.Int("chunks", len(chunks)),
	)
	return chunks
}

// canBreakBefore forbids a boundary that would separate a footnote body from
// the element that references it.
func (c *Chunker) canBreakBefore(elements []model.Element, i int) bool {
	if i <= 0 || i >= len(elements) {
		return true
	}
	match := footnoteBodyRe.FindStringSubmatch(elements[i].Text)
	if match == nil {
		return true
	}
	marker := "(" + match[1] + ")"
	return !strings.Contains(elements[i-1].Text, marker)
}

// overlapTail returns the suffix of the flushed element texts worth roughly
// budget tokens, to be prepended to the next chunk.
func overlapTail(texts []string, budget int) (string, int) {
	if budget <= 0 || len(texts) < 2 {
		return "", 0
	}
	total := 0
	var parts []string
	// Never carry the whole previous chunk, overlap must stay a suffix.
	for i := len(texts) - 1; i > 0; i-- {
		tokens := EstimateTokens(texts[i])
		if total+tokens > budget {
			break
		}
		total += tokens
		parts = append([]string{texts[i]}, parts...)
	}
	if len(parts) == 0 {
		return "", 0
	}
	return strings.Join(parts, "\n"), total
}

func truncateTokens(text string, maxTokens int) string {
	fields := strings.Fields(text)
	if len(fields) <= maxTokens {
		return text
	}
	return strings.Join(fields[:maxTokens], " ")
}
