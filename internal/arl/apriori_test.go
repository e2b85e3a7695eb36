package arl

import (
	"context"
	"sort"
	"testing"

	"github.com/Veraticus/the-cart-must-flow/internal/common"
	"github.com/Veraticus/the-cart-must-flow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mine(t *testing.T, m *Matrix, opts MinerOptions) []model.Itemset {
	t.Helper()
	itemsets, err := MineFrequentItemsets(context.Background(), m, opts)
	require.NoError(t, err)
	return itemsets
}

func TestMineFrequentItemsets_Scenario(t *testing.T) {
	itemsets := mine(t, MatrixFromBaskets(scenarioBaskets()), MinerOptions{MinSupport: 0.5})

	require.Len(t, itemsets, 3)
	assert.Equal(t, []string{"a"}, itemsets[0].Items)
	assert.InDelta(t, 0.75, itemsets[0].Support, 1e-12)
	assert.Equal(t, []string{"b"}, itemsets[1].Items)
	assert.InDelta(t, 0.75, itemsets[1].Support, 1e-12)
	assert.Equal(t, []string{"a", "b"}, itemsets[2].Items)
	assert.InDelta(t, 0.5, itemsets[2].Support, 1e-12)
}

func TestMineFrequentItemsets_BoundaryInclusive(t *testing.T) {
	// {a,b} has support exactly 0.5.
	itemsets := mine(t, MatrixFromBaskets(scenarioBaskets()), MinerOptions{MinSupport: 0.5})
	assert.Contains(t, keys(itemsets), "a\x1fb")

	itemsets = mine(t, MatrixFromBaskets(scenarioBaskets()), MinerOptions{MinSupport: 0.5000001})
	assert.NotContains(t, keys(itemsets), "a\x1fb")
}

func TestMineFrequentItemsets_InvalidSupport(t *testing.T) {
	tests := []struct {
		name       string
		minSupport float64
	}{
		{name: "above one", minSupport: 1.5},
		{name: "zero", minSupport: 0},
		{name: "negative", minSupport: -0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			itemsets, err := MineFrequentItemsets(context.Background(), MatrixFromBaskets(scenarioBaskets()),
				MinerOptions{MinSupport: tt.minSupport})
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
			assert.Nil(t, itemsets)
		})
	}
}

func TestMineFrequentItemsets_Empty(t *testing.T) {
	itemsets := mine(t, BuildMatrix(nil), DefaultMinerOptions())
	assert.NotNil(t, itemsets)
	assert.Empty(t, itemsets)
}

func TestMineFrequentItemsets_MatchesBruteForce(t *testing.T) {
	baskets := randomBaskets(120, 7, 7)
	m := MatrixFromBaskets(baskets)
	minSupport := 0.08

	got := keys(mine(t, m, MinerOptions{MinSupport: minSupport}))

	var want []string
	items := m.Items()
	for mask := 1; mask < 1<<len(items); mask++ {
		var subset []string
		for i, item := range items {
			if mask&(1<<i) != 0 {
				subset = append(subset, item)
			}
		}
		if m.Support(subset...) >= minSupport {
			want = append(want, model.ItemsKey(subset))
		}
	}

	sort.Strings(got)
	sort.Strings(want)
	assert.Equal(t, want, got)
}

func TestMineFrequentItemsets_Properties(t *testing.T) {
	m := MatrixFromBaskets(randomBaskets(300, 10, 42))
	minSupport := 0.05
	itemsets := mine(t, m, MinerOptions{MinSupport: minSupport})
	require.NotEmpty(t, itemsets)

	bySupport := make(map[string]float64, len(itemsets))
	seen := make(map[string]bool, len(itemsets))
	for _, set := range itemsets {
		assert.False(t, seen[set.Key()], "duplicate itemset %s", set)
		seen[set.Key()] = true
		bySupport[set.Key()] = set.Support
	}

	for i, set := range itemsets {
		assert.GreaterOrEqual(t, set.Support, minSupport)
		assert.LessOrEqual(t, set.Support, 1.0)
		assert.Equal(t, m.Support(set.Items...), set.Support, "exact support for %s", set)
		assert.True(t, sort.StringsAreSorted(set.Items))

		if i > 0 {
			assert.GreaterOrEqual(t, set.Size(), itemsets[i-1].Size(), "ordered by size")
		}

		// Anti-monotonicity: dropping any item never lowers support.
		if set.Size() < 2 {
			continue
		}
		for skip := range set.Items {
			subset := make([]string, 0, set.Size()-1)
			for j, item := range set.Items {
				if j != skip {
					subset = append(subset, item)
				}
			}
			parent, ok := bySupport[model.ItemsKey(subset)]
			require.True(t, ok, "subset of %s must be frequent", set)
			assert.GreaterOrEqual(t, parent, set.Support)
		}
	}
}

func TestMineFrequentItemsets_WorkersMatchSequential(t *testing.T) {
	m := MatrixFromBaskets(randomBaskets(400, 12, 3))

	sequential := mine(t, m, MinerOptions{MinSupport: 0.03, Workers: 1})
	parallel := mine(t, m, MinerOptions{MinSupport: 0.03, Workers: 4})

	require.NotEmpty(t, sequential)
	assert.Equal(t, sequential, parallel)
}

func TestMineFrequentItemsets_MaxLen(t *testing.T) {
	m := MatrixFromBaskets(randomBaskets(200, 8, 11))

	itemsets := mine(t, m, MinerOptions{MinSupport: 0.02, MaxLen: 2})
	require.NotEmpty(t, itemsets)
	for _, set := range itemsets {
		assert.LessOrEqual(t, set.Size(), 2)
	}
}

func TestMineFrequentItemsets_ReportsLevels(t *testing.T) {
	var levels []LevelStats
	opts := MinerOptions{
		MinSupport: 0.5,
		OnLevel: func(stats LevelStats) {
			levels = append(levels, stats)
		},
	}
	mine(t, MatrixFromBaskets(scenarioBaskets()), opts)

	assert.Equal(t, []LevelStats{
		{Size: 1, Candidates: 2, Frequent: 2},
		{Size: 2, Candidates: 1, Frequent: 1},
		{Size: 3, Candidates: 0, Frequent: 0},
	}, levels)
}

func TestMineFrequentItemsets_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := MineFrequentItemsets(ctx, MatrixFromBaskets(randomBaskets(50, 5, 1)), MinerOptions{MinSupport: 0.1})
	assert.ErrorIs(t, err, context.Canceled)
}

func keys(itemsets []model.Itemset) []string {
	out := make([]string, len(itemsets))
	for i, set := range itemsets {
		out[i] = set.Key()
	}
	return out
}
