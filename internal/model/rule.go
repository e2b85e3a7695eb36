package model

import (
	"sort"
	"strings"
)

// Rule is an association rule Antecedents → Consequents split from one frequent itemset.
type Rule struct {
	Antecedents       []string
	Consequents       []string
	AntecedentSupport float64
	ConsequentSupport float64
	Support           float64
	Confidence        float64
	Lift              float64
	Leverage          float64
	// Conviction is +Inf when Confidence is 1.
	Conviction   float64
	ZhangsMetric float64
	Jaccard      float64
	Certainty    float64
	Kulczynski   float64
}

// HasAntecedent reports whether item appears on the left-hand side of the rule.
func (r *Rule) HasAntecedent(item string) bool {
	for _, a := range r.Antecedents {
		if a == item {
			return true
		}
	}
	return false
}

// Items returns the sorted union of antecedents and consequents.
func (r *Rule) Items() []string {
	items := make([]string, 0, len(r.Antecedents)+len(r.Consequents))
	items = append(items, r.Antecedents...)
	items = append(items, r.Consequents...)
	sort.Strings(items)
	return items
}

// String renders the rule as "{a, b} → {c}".
func (r *Rule) String() string {
	return "{" + strings.Join(r.Antecedents, ", ") + "} → {" + strings.Join(r.Consequents, ", ") + "}"
}
