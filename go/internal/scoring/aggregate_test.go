package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpitch/scoreroom/go/internal/criteria"
	"github.com/openpitch/scoreroom/go/internal/room"
)

func TestWeightedScore(t *testing.T) {
	table := criteria.Table{
		{Key: "a", DisplayName: "A", Weight: 0.30},
		{Key: "b", DisplayName: "B", Weight: 0.25},
		{Key: "c", DisplayName: "C", Weight: 0.20},
		{Key: "d", DisplayName: "D", Weight: 0.15},
		{Key: "e", DisplayName: "E", Weight: 0.10},
	}

	tests := []struct {
		name     string
		ratings  room.RatingMap
		expected float64
	}{
		{
			name:     "mixed ratings",
			ratings:  room.RatingMap{"a": 5, "b": 1, "c": 3, "d": 2, "e": 4},
			expected: 3.15,
		},
		{
			name:     "all fives",
			ratings:  room.RatingMap{"a": 5, "b": 5, "c": 5, "d": 5, "e": 5},
			expected: 5.0,
		},
		{
			name:     "all ones",
			ratings:  room.RatingMap{"a": 1, "b": 1, "c": 1, "d": 1, "e": 1},
			expected: 1.0,
		},
		{
			name:     "missing criterion contributes zero",
			ratings:  room.RatingMap{"a": 5},
			expected: 1.5,
		},
		{
			name:     "unknown key ignored",
			ratings:  room.RatingMap{"a": 5, "zzz": 5},
			expected: 1.5,
		},
		{
			name:     "empty ballot",
			ratings:  room.RatingMap{},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, WeightedScore(table, tt.ratings), 1e-9)
		})
	}
}

func TestWeightedScore_DefaultTable(t *testing.T) {
	table := criteria.Default()
	ballot := room.RatingMap{
		"problemFit": 5,
		"aiLeverage": 4,
		"creativity": 3,
		"execution":  5,
		"pitch":      2,
	}
	assert.InDelta(t, 4.05, WeightedScore(table, ballot), 1e-9)
}

func TestCriterionAverages(t *testing.T) {
	table := criteria.Default()

	t.Run("empty round yields zero for every criterion", func(t *testing.T) {
		avgs := CriterionAverages(table, nil)
		require.Len(t, avgs, len(table))
		for _, key := range table.Keys() {
			assert.Zero(t, avgs[key])
		}
	})

	t.Run("single ballot", func(t *testing.T) {
		ballots := map[string]room.RatingMap{
			"v1": {"problemFit": 5, "aiLeverage": 4, "creativity": 3, "execution": 5, "pitch": 2},
		}
		avgs := CriterionAverages(table, ballots)
		assert.InDelta(t, 5.0, avgs["problemFit"], 1e-9)
		assert.InDelta(t, 2.0, avgs["pitch"], 1e-9)
	})

	t.Run("mean over ballots", func(t *testing.T) {
		ballots := map[string]room.RatingMap{
			"v1": {"problemFit": 5, "aiLeverage": 4, "creativity": 3, "execution": 5, "pitch": 2},
			"v2": {"problemFit": 3, "aiLeverage": 2, "creativity": 5, "execution": 1, "pitch": 4},
		}
		avgs := CriterionAverages(table, ballots)
		assert.InDelta(t, 4.0, avgs["problemFit"], 1e-9)
		assert.InDelta(t, 3.0, avgs["aiLeverage"], 1e-9)
		assert.InDelta(t, 4.0, avgs["creativity"], 1e-9)
		assert.InDelta(t, 3.0, avgs["execution"], 1e-9)
		assert.InDelta(t, 3.0, avgs["pitch"], 1e-9)
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		ballots := map[string]room.RatingMap{
			"charlie": {"problemFit": 2, "aiLeverage": 2, "creativity": 2, "execution": 2, "pitch": 2},
			"alice":   {"problemFit": 5, "aiLeverage": 5, "creativity": 5, "execution": 5, "pitch": 5},
			"bob":     {"problemFit": 3, "aiLeverage": 3, "creativity": 3, "execution": 3, "pitch": 3},
		}
		first := CriterionAverages(table, ballots)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, CriterionAverages(table, ballots))
		}
	})
}
