package itemcf

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"strings"

	"github.com/Veraticus/the-cart-must-flow/internal/model"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// DefaultRecommendationCount matches the head(10) of the notebook workflow.
const DefaultRecommendationCount = 10

// CorrWith returns the Pearson correlation of every title against title, over the
// users who rated both. Titles sharing fewer than two users, or with no variance
// over the shared users, get NaN.
func (m *Matrix) CorrWith(ctx context.Context, title string) (map[string]float64, error) {
	target, err := m.column(title)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(m.columns))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range m.columns {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			scores[i] = pearson(target, m.columns[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(scores))
	for i, s := range scores {
		out[m.titles[i]] = s
	}
	return out, nil
}

func pearson(a, b column) float64 {
	var x, y []float64
	i, j := 0, 0
	for i < len(a.users) && j < len(b.users) {
		switch {
		case a.users[i] < b.users[j]:
			i++
		case a.users[i] > b.users[j]:
			j++
		default:
			x = append(x, a.values[i])
			y = append(y, b.values[j])
			i++
			j++
		}
	}
	if len(x) < 2 || constant(x) || constant(y) {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

func constant(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}

// Recommend returns the n titles most correlated with title, best first. The
// title itself is included, normally at the top. NaN correlations are skipped.
func (m *Matrix) Recommend(ctx context.Context, title string, n int) ([]model.ScoredTitle, error) {
	if n <= 0 {
		n = DefaultRecommendationCount
	}

	corr, err := m.CorrWith(ctx, title)
	if err != nil {
		return nil, err
	}

	ranked := make([]model.ScoredTitle, 0, len(corr))
	for _, t := range m.titles {
		if s := corr[t]; !math.IsNaN(s) {
			ranked = append(ranked, model.ScoredTitle{Title: t, Score: s})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}

// Search returns the titles containing keyword, case-sensitively, in column order.
func (m *Matrix) Search(keyword string) []string {
	matches := []string{}
	for _, t := range m.titles {
		if strings.Contains(t, keyword) {
			matches = append(matches, t)
		}
	}
	return matches
}

// SampleTitle picks a random title, or "" when the matrix has none.
func (m *Matrix) SampleTitle(rng *rand.Rand) string {
	if len(m.titles) == 0 {
		return ""
	}
	return m.titles[rng.Intn(len(m.titles))]
}
