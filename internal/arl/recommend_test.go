package arl

import (
	"testing"

	"github.com/Veraticus/the-cart-must-flow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rule(ante, cons []string, lift float64) model.Rule {
	return model.Rule{Antecedents: ante, Consequents: cons, Lift: lift, Support: 0.1, Confidence: 0.5}
}

func TestRecommend_Scenario(t *testing.T) {
	rules := scenarioRules(t)
	assert.Equal(t, []string{"b"}, Recommend(rules, "a", 1))
	assert.Equal(t, []string{"a"}, Recommend(rules, "b", 1))
}

func TestRecommend(t *testing.T) {
	rules := []model.Rule{
		rule([]string{"22492"}, []string{"22326"}, 3),
		rule([]string{"21086"}, []string{"21094"}, 9),
		rule([]string{"22492", "21086"}, []string{"21080"}, 7),
		rule([]string{"22492"}, []string{"22328"}, 7),
		rule([]string{"22492"}, []string{"22326"}, 5),
	}

	tests := []struct {
		name  string
		item  string
		want  []string
		count int
	}{
		{name: "single best by lift", item: "22492", count: 1, want: []string{"21080"}},
		{name: "ties keep enumeration order", item: "22492", count: 2, want: []string{"21080", "22328"}},
		{name: "duplicates are kept", item: "22492", count: 4, want: []string{"21080", "22328", "22326", "22326"}},
		{name: "count larger than matches", item: "21086", count: 5, want: []string{"21094", "21080"}},
		{name: "unknown item", item: "00000", count: 3, want: []string{}},
		{name: "consequent only item", item: "22326", count: 3, want: []string{}},
		{name: "zero count", item: "22492", count: 0, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recommend(rules, tt.item, tt.count)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), max(tt.count, 0))
		})
	}

	assert.Equal(t, 3.0, rules[0].Lift, "input order is left untouched")
}

func TestRecommend_MultiItemConsequentUsesFirstItem(t *testing.T) {
	rules := []model.Rule{
		rule([]string{"a"}, []string{"b", "c"}, 2),
		rule([]string{"a"}, []string{"c", "d"}, 1.5),
	}

	assert.Equal(t, []string{"b", "c"}, Recommend(rules, "a", 2))
}

func TestRecommend_EmptyRules(t *testing.T) {
	for _, item := range []string{"a", "", "85123A"} {
		got := Recommend(nil, item, 3)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestRecommendDistinct(t *testing.T) {
	rules := []model.Rule{
		rule([]string{"a"}, []string{"b"}, 4),
		rule([]string{"a", "c"}, []string{"b"}, 3),
		rule([]string{"a"}, []string{"d"}, 2),
	}

	assert.Equal(t, []string{"b", "b"}, Recommend(rules, "a", 2))
	assert.Equal(t, []string{"b", "d"}, RecommendDistinct(rules, "a", 2))
	assert.Equal(t, []string{"b", "d"}, RecommendDistinct(rules, "a", 10))
}

func TestRuleFilter(t *testing.T) {
	rules := []model.Rule{
		{Antecedents: []string{"a"}, Consequents: []string{"b"}, Support: 0.06, Confidence: 0.2, Lift: 6},
		{Antecedents: []string{"b"}, Consequents: []string{"a"}, Support: 0.05, Confidence: 0.9, Lift: 6},
		{Antecedents: []string{"c"}, Consequents: []string{"d"}, Support: 0.2, Confidence: 0.1, Lift: 9},
		{Antecedents: []string{"d"}, Consequents: []string{"c"}, Support: 0.2, Confidence: 0.5, Lift: 5},
		{Antecedents: []string{"e"}, Consequents: []string{"f"}, Support: 0.3, Confidence: 0.7, Lift: 8},
	}

	filter := RuleFilter{MinSupport: 0.05, MinConfidence: 0.1, MinLift: 5}
	got := filter.Apply(rules)

	assert.Len(t, got, 2, "comparisons are strict")
	assert.Equal(t, "{a} → {b}", got[0].String())
	assert.Equal(t, "{e} → {f}", got[1].String())

	assert.Len(t, RuleFilter{}.Apply(rules), len(rules))
}

func TestSortRules(t *testing.T) {
	rules := []model.Rule{
		{Antecedents: []string{"a"}, Consequents: []string{"b"}, Confidence: 0.2},
		{Antecedents: []string{"b"}, Consequents: []string{"a"}, Confidence: 0.9},
		{Antecedents: []string{"c"}, Consequents: []string{"d"}, Confidence: 0.2},
	}

	desc := SortRules(rules, MetricConfidence, true)
	assert.Equal(t, []string{"{b} → {a}", "{a} → {b}", "{c} → {d}"}, ruleStrings(desc))

	asc := SortRules(rules, MetricConfidence, false)
	assert.Equal(t, []string{"{a} → {b}", "{c} → {d}", "{b} → {a}"}, ruleStrings(asc))

	assert.Equal(t, "{a} → {b}", rules[0].String(), "input is not reordered")
}

func TestRuleFilter_ApplyItemsets(t *testing.T) {
	itemsets := []model.Itemset{
		model.NewItemset(0.2, "a"),
		model.NewItemset(0.5, "b"),
		model.NewItemset(0.1, "a", "b"),
	}

	kept := RuleFilter{MinSupport: 0.15, MinLift: 100}.ApplyItemsets(itemsets)
	require.Len(t, kept, 2)
	assert.Equal(t, "{a}", kept[0].String())
	assert.Equal(t, "{b}", kept[1].String())

	assert.Len(t, RuleFilter{}.ApplyItemsets(itemsets), 3)
}

func TestSortItemsets(t *testing.T) {
	itemsets := []model.Itemset{
		model.NewItemset(0.2, "a"),
		model.NewItemset(0.5, "b"),
		model.NewItemset(0.2, "a", "b"),
	}
	sorted := SortItemsets(itemsets)
	assert.Equal(t, "{b}", sorted[0].String())
	assert.Equal(t, "{a}", sorted[1].String())
	assert.Equal(t, "{a, b}", sorted[2].String())
}

func ruleStrings(rules []model.Rule) []string {
	out := make([]string, len(rules))
	for i := range rules {
		out[i] = rules[i].String()
	}
	return out
}
