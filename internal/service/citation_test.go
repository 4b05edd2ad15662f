package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/filingchat/internal/model"
)

func TestFilterAndRenumber(t *testing.T) {
	tests := []struct {
		name      string
		answer    string
		retrieved int
		want      string
		wantRanks []int
	}{
		{
			name:      "dense renumber in first appearance order",
			answer:    "Revenue was $391 billion [2]. Margins improved [5]. See revenue detail [2].",
			retrieved: 10,
			want:      "Revenue was $391 billion [1]. Margins improved [2]. See revenue detail [1].",
			wantRanks: []int{2, 5},
		},
		{
			name:      "out of range markers stripped",
			answer:    "Sales fell [1] per guidance [12].",
			retrieved: 3,
			want:      "Sales fell [1] per guidance .",
			wantRanks: []int{1},
		},
		{
			name:      "zero marker stripped",
			answer:    "As stated [0], results varied [3].",
			retrieved: 3,
			want:      "As stated , results varied [1].",
			wantRanks: []int{3},
		},
		{
			name:      "no markers",
			answer:    "The filing does not disclose this.",
			retrieved: 5,
			want:      "The filing does not disclose this.",
			wantRanks: nil,
		},
		{
			name:      "all markers invalid",
			answer:    "Details in [9] and [8].",
			retrieved: 2,
			want:      "Details in  and .",
			wantRanks: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ranks := FilterAndRenumber(tt.answer, tt.retrieved)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.wantRanks, ranks)
		})
	}
}

func TestContextBeforeCitation(t *testing.T) {
	answer := "Net sales for fiscal 2024 were $391,035 million, up 2% from the prior year [1]."
	ctx := ContextBeforeCitation(answer, 1)
	require.Contains(t, ctx, "$391,035 million")
	require.NotContains(t, ctx, "[1]")

	require.Empty(t, ContextBeforeCitation(answer, 2))
}

func TestContextBeforeCitation_LongAnswerBounded(t *testing.T) {
	prefix := ""
	for i := 0; i < 50; i++ {
		prefix += "filler word "
	}
	answer := prefix + "the key figure was $100 [1]"
	ctx := ContextBeforeCitation(answer, 1)
	require.LessOrEqual(t, len(ctx), 100)
	require.Contains(t, ctx, "$100")
}

func TestResolveElementIndex(t *testing.T) {
	doc := &model.Document{
		ID: "d1",
		Elements: []model.Element{
			{Index: 0, Text: "Item 7. Management Discussion"},
			{Index: 1, Text: "Net sales were $391,035 million in fiscal 2024"},
			{Index: 2, Text: "Gross margin improved to 46.2 percent"},
			{Index: 3, Text: "Unrelated governance boilerplate"},
		},
	}
	chunk := model.Chunk{ID: "c0", DocumentID: "d1", StartElement: 0, EndElement: 3}

	t.Run("matches best overlapping element", func(t *testing.T) {
		got := ResolveElementIndex(chunk, doc, "net sales were $391,035 million", 2)
		require.Equal(t, 1, got)
	})

	t.Run("below min overlap falls back to range start", func(t *testing.T) {
		got := ResolveElementIndex(chunk, doc, "completely different topic entirely", 2)
		require.Equal(t, 0, got)
	})

	t.Run("nil document falls back", func(t *testing.T) {
		got := ResolveElementIndex(chunk, nil, "net sales", 2)
		require.Equal(t, 0, got)
	})

	t.Run("elements outside chunk range ignored", func(t *testing.T) {
		narrow := model.Chunk{ID: "c1", DocumentID: "d1", StartElement: 2, EndElement: 3}
		got := ResolveElementIndex(narrow, doc, "net sales were $391,035 million", 2)
		require.Equal(t, 2, got)
	})

	t.Run("tie resolves to lowest index", func(t *testing.T) {
		tieDoc := &model.Document{
			ID: "d2",
			Elements: []model.Element{
				{Index: 0, Text: "deferred revenue adjustments apply"},
				{Index: 1, Text: "deferred revenue adjustments apply"},
			},
		}
		tieChunk := model.Chunk{ID: "c2", DocumentID: "d2", StartElement: 0, EndElement: 1}
		got := ResolveElementIndex(tieChunk, tieDoc, "deferred revenue adjustments", 2)
		require.Equal(t, 0, got)
	})
}

func TestBestPreview(t *testing.T) {
	chunkText := "Item 7 overview of results. Net sales were $391,035 million in fiscal 2024, an increase of two percent. " +
		"Services revenue reached a record high driven by subscription growth across all geographic segments worldwide."

	t.Run("window centers on matching stretch", func(t *testing.T) {
		preview := BestPreview(chunkText, "services revenue reached a record high", 60, 2)
		require.Contains(t, preview, "Services revenue")
		require.True(t, len(preview) <= 60+6) // window plus ellipses
	})

	t.Run("short text returned whole", func(t *testing.T) {
		preview := BestPreview("short chunk", "anything", 150, 2)
		require.Equal(t, "short chunk", preview)
	})

	t.Run("no context falls back to head", func(t *testing.T) {
		preview := BestPreview(chunkText, "", 40, 2)
		require.Equal(t, headPreview(chunkText, 40), preview)
	})
}

func TestPreviewsCutOnRuneBoundaries(t *testing.T) {
	t.Run("head preview near a multibyte character", func(t *testing.T) {
		text := strings.Repeat("x", 149) + "’s quarterly results improved"
		preview := headPreview(text, 150)
		require.True(t, utf8.ValidString(preview))
		require.True(t, strings.HasSuffix(preview, "..."))
	})

	t.Run("window start lands inside a multibyte character", func(t *testing.T) {
		text := strings.Repeat("a", 45) + strings.Repeat("’", 4) +
			" net revenue increased sharply this quarter compared with the prior fiscal " +
			"year across every geographic segment and product category worldwide"
		preview := BestPreview(text, "net revenue increased sharply", 60, 2)
		require.True(t, utf8.ValidString(preview))
		require.Contains(t, preview, "net revenue")
	})

	t.Run("first chars truncation stays valid", func(t *testing.T) {
		text := strings.Repeat("y", 149) + "€1,000 of deferred revenue"
		got := firstChars(text, 150)
		require.True(t, utf8.ValidString(got))
	})

	t.Run("context window start stays valid", func(t *testing.T) {
		answer := strings.Repeat("’", 40) + " revenue grew ten percent [1] overall"
		ctx := ContextBeforeCitation(answer, 1)
		require.True(t, utf8.ValidString(ctx))
		require.Contains(t, ctx, "revenue grew ten percent")
	})
}
