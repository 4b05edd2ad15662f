package rag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeywordIndex_ScoresExactTermMatches(t *testing.T) {
	idx := NewKeywordIndex()
	idx.Upsert("f1", "c1", "net revenue was $391,035 million in fiscal 2024")
	idx.Upsert("f1", "c2", "the company faces competition across all markets")
	idx.Upsert("f1", "c3", "forward looking statements involve risks and uncertainties")

	scores := idx.ScoreAll("f1", "what was net revenue $391,035")
	require.Len(t, scores, 3)
	require.Greater(t, scores["c1"], scores["c2"])
	require.Greater(t, scores["c1"], scores["c3"])
}

func TestKeywordIndex_UnknownFilingYieldsEmpty(t *testing.T) {
	idx := NewKeywordIndex()
	require.Empty(t, idx.ScoreAll("missing", "anything"))
	require.False(t, idx.Has("missing"))
}

func TestKeywordIndex_EmptyQueryYieldsZeroScores(t *testing.T) {
	idx := NewKeywordIndex()
	idx.Upsert("f1", "c1", "some indexed text")
	scores := idx.ScoreAll("f1", "")
	require.Equal(t, map[string]float64{"c1": 0}, scores)
}

func TestKeywordIndex_ReUpsertReplacesChunk(t *testing.T) {
	idx := NewKeywordIndex()
	idx.Upsert("f1", "c1", "gross margin widened")
	idx.Upsert("f1", "c1", "operating expenses declined")

	scores := idx.ScoreAll("f1", "gross margin")
	require.Len(t, scores, 1)
	require.Zero(t, scores["c1"])

	scores = idx.ScoreAll("f1", "operating expenses")
	require.Greater(t, scores["c1"], 0.0)
}

func TestKeywordIndex_EvictRemovesFiling(t *testing.T) {
	idx := NewKeywordIndex()
	idx.Upsert("f1", "c1", "some text")
	require.True(t, idx.Has("f1"))
	idx.Evict("f1")
	require.False(t, idx.Has("f1"))
	require.Empty(t, idx.ScoreAll("f1", "some text"))
}
