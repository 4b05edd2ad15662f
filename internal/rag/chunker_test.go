package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/filingchat/internal/model"
)

func makeDoc(texts ...string) *model.Document {
	doc := &model.Document{ID: "doc1", SourceURL: "https://www.sec.gov/x"}
	for i, text := range texts {
		doc.Elements = append(doc.Elements, model.Element{
			Index: i,
			Kind:  model.ElementParagraph,
			Text:  text,
		})
	}
	return doc
}

func TestChunker_EmptyDocument(t *testing.T) {
	chunker := NewChunker(ChunkerConfig{MaxTokens: 10, HardMaxTokens: 20, OverlapTokens: 2})
	require.Nil(t, chunker.Chunk(context.Background(), &model.Document{ID: "empty"}))
	require.Nil(t, chunker.Chunk(context.Background(), nil))
}

func TestChunker_ElementRangesPartitionDocument(t *testing.T) {
	chunker := NewChunker(ChunkerConfig{MaxTokens: 10, HardMaxTokens: 30, OverlapTokens: 2})
	doc := makeDoc(
		"alpha beta gamma delta",
		"epsilon zeta eta theta",
		"iota kappa lambda mu",
		"nu xi omicron pi",
		"rho sigma tau upsilon",
		"phi chi psi omega",
	)
	chunks := chunker.Chunk(context.Background(), doc)
	require.NotEmpty(t, chunks)

	require.Equal(t, 0, chunks[0].StartElement)
	for i := 1; i < len(chunks); i++ {
		require.Equal(t, chunks[i-1].EndElement+1, chunks[i].StartElement)
	}
	require.Equal(t, len(doc.Elements)-1, chunks[len(chunks)-1].EndElement)

	for i, chunk := range chunks {
		require.Equal(t, "doc1", chunk.DocumentID)
		require.Contains(t, chunk.ID, "doc1-chunk-")
		require.LessOrEqual(t, chunk.StartElement, chunk.EndElement, "chunk %d", i)
	}
}

func TestChunker_OverlapCarriedInTextOnly(t *testing.T) {
	chunker := NewChunker(ChunkerConfig{MaxTokens: 3, HardMaxTokens: 10, OverlapTokens: 1})
	doc := makeDoc("alpha", "beta", "gamma", "delta")
	chunks := chunker.Chunk(context.Background(), doc)
	require.Len(t, chunks, 2)

	// element ranges stay disjoint
	require.Equal(t, 0, chunks[0].StartElement)
	require.Equal(t, 2, chunks[0].EndElement)
	require.Equal(t, 3, chunks[1].StartElement)
	require.Equal(t, 3, chunks[1].EndElement)

	// the second chunk's text opens with the tail of the first
	require.True(t, strings.HasPrefix(chunks[1].Text, "gamma\n"))
	require.Contains(t, chunks[1].Text, "delta")
}

func TestChunker_TableStaysAtomic(t *testing.T) {
	chunker := NewChunker(ChunkerConfig{MaxTokens: 5, HardMaxTokens: 40, OverlapTokens: 0})
	table := "Table: Revenue 2023 2022\n  • Net sales: 2023: 391,035; 2022: 394,328\n  • Gross margin: 2023: 180,683"
	doc := &model.Document{
		ID: "doc1",
		Elements: []model.Element{
			{Index: 0, Kind: model.ElementParagraph, Text: "intro text before table"},
			{Index: 1, Kind: model.ElementTable, Text: table},
			{Index: 2, Kind: model.ElementParagraph, Text: "closing text after table"},
		},
	}
	chunks := chunker.Chunk(context.Background(), doc)
	require.Len(t, chunks, 3)
	require.Equal(t, 1, chunks[1].StartElement)
	require.Equal(t, 1, chunks[1].EndElement)
	require.True(t, chunks[1].HasTable)
	require.False(t, chunks[0].HasTable)
	require.Equal(t, table, chunks[1].Text)
}

func TestChunker_FootnoteStaysWithReference(t *testing.T) {
	chunker := NewChunker(ChunkerConfig{MaxTokens: 5, HardMaxTokens: 40, OverlapTokens: 0})
	doc := makeDoc(
		"Revenue grew (1) strongly",
		"(1) Includes deferred revenue adjustments",
	)
	chunks := chunker.Chunk(context.Background(), doc)
	require.Len(t, chunks, 1)
	require.Equal(t, 0, chunks[0].StartElement)
	require.Equal(t, 1, chunks[0].EndElement)
}

func TestChunker_UnreferencedFootnoteCanBreak(t *testing.T) {
	chunker := NewChunker(ChunkerConfig{MaxTokens: 5, HardMaxTokens: 40, OverlapTokens: 0})
	doc := makeDoc(
		"Revenue grew strongly this year",
		"(1) Includes deferred revenue adjustments",
	)
	chunks := chunker.Chunk(context.Background(), doc)
	require.Len(t, chunks, 2)
}

func TestChunker_TruncatesAtHardMax(t *testing.T) {
	chunker := NewChunker(ChunkerConfig{MaxTokens: 5, HardMaxTokens: 8, OverlapTokens: 0})
	doc := makeDoc("one two three four five six seven eight nine ten eleven twelve")
	chunks := chunker.Chunk(context.Background(), doc)
	require.Len(t, chunks, 1)
	require.Equal(t, 8, chunks[0].TokenCount)
	require.Len(t, strings.Fields(chunks[0].Text), 8)
}
