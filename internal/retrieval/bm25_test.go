package retrieval

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"The White Rabbit!", []string{"white", "rabbit"}},
		{"“Off with her head!” the Queen shouted.", []string{"head", "queen", "shouted"}},
		{"I don't know", []string{"n't", "know"}},
		{"Alice's cat", []string{"alice", "'s", "cat"}},
		{"CHAPTER I. Down the Rabbit-Hole", []string{"chapter", "rabbit", "hole"}},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Tokenize(tt.in), "Tokenize(%q)", tt.in)
	}
}

func TestScores_MatchesOkapiFormula(t *testing.T) {
	idx := newIndex([][]string{
		{"alice", "rabbit"},
		{"queen", "hearts"},
		{"alice", "queen", "tea"},
	})

	scores := idx.Scores([]string{"rabbit"})
	idf := math.Log(2.5) - math.Log(1.5)
	avgDL := 7.0 / 3.0
	want := idf * (1 * (K1 + 1)) / (1 + K1*(1-B+B*2/avgDL))

	assert.InDelta(t, want, scores[0], 1e-9)
	assert.Zero(t, scores[1])
	assert.Zero(t, scores[2])
}

func TestIDF_NegativeValuesFloored(t *testing.T) {
	idx := newIndex([][]string{
		{"alice", "rabbit"},
		{"alice", "queen"},
		{"alice", "tea"},
		{"hatter"},
		{"dormouse"},
	})
	rare := math.Log(4.5) - math.Log(1.5)
	common := math.Log(2.5) - math.Log(3.5)
	floor := Epsilon * (4*rare + common) / 5

	assert.InDelta(t, rare, idx.idf["rabbit"], 1e-9)
	assert.InDelta(t, floor, idx.idf["alice"], 1e-9)
	assert.Greater(t, idx.idf["alice"], 0.0)
	assert.Less(t, idx.idf["alice"], idx.idf["rabbit"])
}

func TestIDF_FloorFollowsNegativeMean(t *testing.T) {
	idx := newIndex([][]string{
		{"alice", "rabbit"},
		{"alice", "queen"},
		{"alice", "tea"},
	})
	rare := math.Log(2.5) - math.Log(1.5)
	common := math.Log(0.5) - math.Log(3.5)
	floor := Epsilon * (3*rare + common) / 4

	assert.InDelta(t, floor, idx.idf["alice"], 1e-9)
	assert.Less(t, idx.idf["alice"], 0.0, "the floor is a fraction of the mean idf, negative here")
}

func TestQuery_OrderingAndFiltering(t *testing.T) {
	corpus := []string{
		"The Queen of Hearts shouted off with her head",
		"Alice followed the White Rabbit down the hole",
		"The Rabbit looked at his watch; the Rabbit was late",
		"The Mad Hatter poured tea",
		"The Dormouse fell asleep in the teapot",
	}
	idx, err := Build(context.Background(), corpus)
	require.NoError(t, err)
	assert.Equal(t, 5, idx.Len())

	matches := idx.Query("rabbit watch", 5, 0)
	require.Len(t, matches, 2)
	assert.Equal(t, 2, matches[0].ID)
	assert.Equal(t, 1, matches[1].ID)
	assert.Greater(t, matches[0].Score, matches[1].Score)
	assert.Greater(t, matches[1].Score, 0.0)

	assert.Len(t, idx.Query("rabbit watch", 1, 0), 1)
	assert.Empty(t, idx.Query("rabbit watch", 5, 100))
	assert.Empty(t, idx.Query("rabbit", 0, 0))
	assert.Empty(t, idx.Query("cheshire", 5, 0))
}

func TestBuild_EmptyCorpus(t *testing.T) {
	_, err := Build(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyCorpus)
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, []string{"a rabbit", "a queen"})
	assert.ErrorIs(t, err, context.Canceled)
}
