package arl

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/the-cart-must-flow/internal/common"
	"github.com/Veraticus/the-cart-must-flow/internal/model"
)

// DefaultMinSupport is the support threshold used when none is configured.
const DefaultMinSupport = 0.01

// MinerOptions configures frequent itemset mining.
type MinerOptions struct {
	// OnLevel is called after each itemset size has been counted.
	OnLevel    func(LevelStats)
	MinSupport float64
	// MaxLen caps the itemset size; zero means unbounded.
	MaxLen int
	// Workers counts candidates concurrently when greater than one.
	Workers int
}

// LevelStats summarises one level of the apriori search.
type LevelStats struct {
	Size       int
	Candidates int
	Frequent   int
}

// DefaultMinerOptions returns the options used by the retail pipeline.
func DefaultMinerOptions() MinerOptions {
	return MinerOptions{
		MinSupport: DefaultMinSupport,
		Workers:    1,
	}
}

// Validate rejects thresholds outside (0,1] and negative limits.
func (o MinerOptions) Validate() error {
	if math.IsNaN(o.MinSupport) || o.MinSupport <= 0 || o.MinSupport > 1 {
		return common.InvalidConfigf("min_support must be in (0,1], got %g", o.MinSupport)
	}
	if o.MaxLen < 0 {
		return common.InvalidConfigf("max_len cannot be negative, got %d", o.MaxLen)
	}
	if o.Workers < 0 {
		return common.InvalidConfigf("workers cannot be negative, got %d", o.Workers)
	}
	return nil
}

// candidate is an itemset of column indices with the rows containing it.
type candidate struct {
	items []int
	tids  []int
}

// MineFrequentItemsets returns every itemset whose support is at least opts.MinSupport.
//
// The search is level-wise. Size-k+1 candidates are only formed by extending a
// surviving size-k itemset with a surviving single item that sorts after its last
// item, and a candidate is discarded unless all of its size-k subsets survived.
// Supports come from intersecting transaction id lists.
//
// Results are ordered by size, then by candidate generation order, and are the same
// for any number of workers.
func MineFrequentItemsets(ctx context.Context, m *Matrix, opts MinerOptions) ([]model.Itemset, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	result := []model.Itemset{}
	if m.Len() == 0 {
		return result, nil
	}

	n := float64(m.Len())
	frequent := func(count int) bool {
		return float64(count)/n >= opts.MinSupport
	}

	level := make([]candidate, 0, len(m.items))
	for i := range m.items {
		if frequent(len(m.tidsets[i])) {
			level = append(level, candidate{items: []int{i}, tids: m.tidsets[i]})
		}
	}
	singles := make([]candidate, len(level))
	copy(singles, level)
	opts.report(LevelStats{Size: 1, Candidates: len(m.items), Frequent: len(level)})

	for size := 1; len(level) > 0; size++ {
		result = appendItemsets(result, m, level, n)

		if opts.MaxLen > 0 && size >= opts.MaxLen {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next := extend(level, singles)
		if err := countCandidates(ctx, m, next, opts.Workers); err != nil {
			return nil, err
		}

		survivors := next[:0]
		for _, c := range next {
			if frequent(len(c.tids)) {
				survivors = append(survivors, c)
			}
		}
		opts.report(LevelStats{Size: size + 1, Candidates: len(next), Frequent: len(survivors)})
		level = survivors
	}

	slog.Debug("Mined frequent itemsets",
		"transactions", m.Len(),
		"items", len(m.items),
		"frequent", len(result),
		"min_support", opts.MinSupport)

	return result, nil
}

func (o MinerOptions) report(stats LevelStats) {
	if o.OnLevel != nil {
		o.OnLevel(stats)
	}
}

// extend builds the next level of candidates from the surviving itemsets.
func extend(level, singles []candidate) []candidate {
	seen := make(map[string]struct{}, len(level))
	for _, c := range level {
		seen[indexKey(c.items)] = struct{}{}
	}

	var next []candidate
	subset := make([]int, 0, len(level[0].items))
	for _, parent := range level {
		last := parent.items[len(parent.items)-1]
		for _, single := range singles {
			item := single.items[0]
			if item <= last {
				continue
			}

			items := make([]int, len(parent.items)+1)
			copy(items, parent.items)
			items[len(parent.items)] = item

			if !allSubsetsFrequent(items, seen, subset) {
				continue
			}
			// tids temporarily holds the parent rows; countCandidates narrows them.
			next = append(next, candidate{items: items, tids: parent.tids})
		}
	}
	return next
}

// allSubsetsFrequent checks every subset that drops one of the first len-1 items.
// The subset dropping the last item is the parent and is frequent by construction.
func allSubsetsFrequent(items []int, seen map[string]struct{}, buf []int) bool {
	for skip := 0; skip < len(items)-1; skip++ {
		buf = buf[:0]
		for i, item := range items {
			if i != skip {
				buf = append(buf, item)
			}
		}
		if _, ok := seen[indexKey(buf)]; !ok {
			return false
		}
	}
	return true
}

// countCandidates intersects each candidate's parent rows with its newest item's rows.
func countCandidates(ctx context.Context, m *Matrix, cands []candidate, workers int) error {
	count := func(c *candidate) {
		newest := c.items[len(c.items)-1]
		c.tids = intersect(c.tids, m.tidsets[newest])
	}

	if workers <= 1 || len(cands) < workers {
		for i := range cands {
			count(&cands[i])
		}
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	chunk := (len(cands) + workers - 1) / workers
	for start := 0; start < len(cands); start += chunk {
		end := min(start+chunk, len(cands))
		part := cands[start:end]
		g.Go(func() error {
			for i := range part {
				if i%256 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				count(&part[i])
			}
			return nil
		})
	}
	return g.Wait()
}

func appendItemsets(dst []model.Itemset, m *Matrix, level []candidate, n float64) []model.Itemset {
	for _, c := range level {
		items := make([]string, len(c.items))
		for j, i := range c.items {
			items[j] = m.items[i]
		}
		dst = append(dst, model.Itemset{
			Items:   items,
			Support: float64(len(c.tids)) / n,
		})
	}
	return dst
}

func indexKey(items []int) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(item))
	}
	return b.String()
}
