package arl

import "github.com/Veraticus/the-cart-must-flow/internal/model"

// DefaultRecommendationCount is the number of items returned when none is configured.
const DefaultRecommendationCount = 1

// Recommend returns up to count items bought together with item.
//
// Rules are ranked by descending lift, ties keeping their enumeration order. Each rule
// whose antecedents contain item contributes the first item of its consequents. The
// same item may appear more than once; use RecommendDistinct to suppress repeats.
func Recommend(rules []model.Rule, item string, count int) []string {
	return recommend(rules, item, count, false)
}

// RecommendDistinct behaves like Recommend but skips items already recommended.
func RecommendDistinct(rules []model.Rule, item string, count int) []string {
	return recommend(rules, item, count, true)
}

func recommend(rules []model.Rule, item string, count int, distinct bool) []string {
	out := []string{}
	if count <= 0 || len(rules) == 0 {
		return out
	}

	seen := make(map[string]struct{})
	for _, rule := range SortRules(rules, MetricLift, true) {
		if !rule.HasAntecedent(item) || len(rule.Consequents) == 0 {
			continue
		}

		next := rule.Consequents[0]
		if distinct {
			if _, dup := seen[next]; dup {
				continue
			}
			seen[next] = struct{}{}
		}

		out = append(out, next)
		if len(out) == count {
			break
		}
	}
	return out
}
