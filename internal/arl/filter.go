package arl

import (
	"sort"

	"github.com/Veraticus/the-cart-must-flow/internal/model"
)

// RuleFilter keeps rules strictly above every minimum. Zero fields accept any
// positive value, which every generated rule has.
type RuleFilter struct {
	MinSupport    float64
	MinConfidence float64
	MinLift       float64
}

// Match reports whether a rule passes the filter.
func (f RuleFilter) Match(r *model.Rule) bool {
	return r.Support > f.MinSupport &&
		r.Confidence > f.MinConfidence &&
		r.Lift > f.MinLift
}

// Apply returns the matching rules in their original order.
func (f RuleFilter) Apply(rules []model.Rule) []model.Rule {
	out := make([]model.Rule, 0, len(rules))
	for i := range rules {
		if f.Match(&rules[i]) {
			out = append(out, rules[i])
		}
	}
	return out
}

// ApplyItemsets returns the itemsets with support above MinSupport in their original order.
func (f RuleFilter) ApplyItemsets(itemsets []model.Itemset) []model.Itemset {
	out := make([]model.Itemset, 0, len(itemsets))
	for _, is := range itemsets {
		if is.Support > f.MinSupport {
			out = append(out, is)
		}
	}
	return out
}

// SortRules returns a copy of rules ordered by metric. Ties keep their original order.
func SortRules(rules []model.Rule, metric Metric, descending bool) []model.Rule {
	sorted := make([]model.Rule, len(rules))
	copy(sorted, rules)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := metric.Value(&sorted[i]), metric.Value(&sorted[j])
		if descending {
			return a > b
		}
		return a < b
	})
	return sorted
}

// SortItemsets returns a copy of itemsets ordered by descending support.
func SortItemsets(itemsets []model.Itemset) []model.Itemset {
	sorted := make([]model.Itemset, len(itemsets))
	copy(sorted, itemsets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Support > sorted[j].Support
	})
	return sorted
}
