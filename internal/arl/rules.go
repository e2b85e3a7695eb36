package arl

import (
	"log/slog"
	"math"

	"github.com/Veraticus/the-cart-must-flow/internal/common"
	"github.com/Veraticus/the-cart-must-flow/internal/model"
)

// DefaultMinThreshold is the rule threshold used when none is configured.
const DefaultMinThreshold = 0.01

// RuleOptions configures rule generation.
type RuleOptions struct {
	// OnInvalid receives every split that was excluded because its metrics are undefined.
	OnInvalid    func(*InvalidRuleError)
	Metric       Metric
	MinThreshold float64
}

// DefaultRuleOptions keeps rules whose support is at least 1%.
func DefaultRuleOptions() RuleOptions {
	return RuleOptions{
		Metric:       MetricSupport,
		MinThreshold: DefaultMinThreshold,
	}
}

// Validate rejects unknown metrics and thresholds outside (0,1].
func (o RuleOptions) Validate() error {
	if !o.Metric.Valid() {
		return common.InvalidConfigf("unknown metric %q", o.Metric)
	}
	if math.IsNaN(o.MinThreshold) || o.MinThreshold <= 0 || o.MinThreshold > 1 {
		return common.InvalidConfigf("min_threshold must be in (0,1], got %g", o.MinThreshold)
	}
	return nil
}

// GenerateRules splits every frequent itemset of two or more items into rules.
//
// For each itemset, antecedent sizes run from len-1 down to 1 and antecedents of one
// size are enumerated in lexicographic order of positions; the consequent holds the
// remaining items in itemset order. Subset supports are looked up in itemsets, so the
// collection must be downward closed as produced by MineFrequentItemsets.
func GenerateRules(itemsets []model.Itemset, opts RuleOptions) ([]model.Rule, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	supports := make(map[string]float64, len(itemsets))
	for _, set := range itemsets {
		supports[set.Key()] = set.Support
	}

	rules := []model.Rule{}
	rejected := 0
	for _, set := range itemsets {
		size := set.Size()
		if size < 2 {
			continue
		}
		for k := size - 1; k >= 1; k-- {
			forEachCombination(size, k, func(picked []bool) {
				ante := make([]string, 0, k)
				cons := make([]string, 0, size-k)
				for i, item := range set.Items {
					if picked[i] {
						ante = append(ante, item)
					} else {
						cons = append(cons, item)
					}
				}

				rule, invalid := newRule(ante, cons, set.Support, supports)
				if invalid != nil {
					rejected++
					slog.Warn("Skipping rule", "error", invalid)
					if opts.OnInvalid != nil {
						opts.OnInvalid(invalid)
					}
					return
				}
				if opts.Metric.Value(&rule) >= opts.MinThreshold {
					rules = append(rules, rule)
				}
			})
		}
	}

	slog.Debug("Generated association rules",
		"itemsets", len(itemsets),
		"rules", len(rules),
		"rejected", rejected,
		"metric", opts.Metric,
		"min_threshold", opts.MinThreshold)

	return rules, nil
}

// newRule computes every metric for antecedent → consequent.
func newRule(ante, cons []string, support float64, supports map[string]float64) (model.Rule, *InvalidRuleError) {
	invalid := func(reason string) (model.Rule, *InvalidRuleError) {
		return model.Rule{}, &InvalidRuleError{Antecedents: ante, Consequents: cons, Reason: reason}
	}

	sA, ok := supports[model.ItemsKey(ante)]
	if !ok {
		return invalid("antecedent support unknown")
	}
	sC, ok := supports[model.ItemsKey(cons)]
	if !ok {
		return invalid("consequent support unknown")
	}
	if sA <= 0 {
		return invalid("antecedent support is zero")
	}
	if sC <= 0 {
		return invalid("consequent support is zero")
	}

	confidence := support / sA
	if confidence > 1 {
		return invalid("itemset support exceeds antecedent support")
	}
	lift := confidence / sC

	conviction := math.Inf(1)
	if confidence < 1 {
		conviction = (1 - sC) / (1 - confidence)
	}

	zhang := 0.0
	if den := math.Max(confidence*(1-sC), sC*(1-confidence)); den != 0 {
		zhang = (confidence - sC) / den
	}

	certainty := 0.0
	if sC < 1 {
		certainty = (confidence - sC) / (1 - sC)
	}

	return model.Rule{
		Antecedents:       ante,
		Consequents:       cons,
		AntecedentSupport: sA,
		ConsequentSupport: sC,
		Support:           support,
		Confidence:        confidence,
		Lift:              lift,
		Leverage:          support - sA*sC,
		Conviction:        conviction,
		ZhangsMetric:      zhang,
		Jaccard:           support / (sA + sC - support),
		Certainty:         certainty,
		Kulczynski:        (support/sA + support/sC) / 2,
	}, nil
}

// forEachCombination calls fn with a membership mask for every k-subset of n positions,
// in lexicographic order of the chosen positions.
func forEachCombination(n, k int, fn func(picked []bool)) {
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	picked := make([]bool, n)

	for {
		for i := range picked {
			picked[i] = false
		}
		for _, i := range idx {
			picked[i] = true
		}
		fn(picked)

		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
