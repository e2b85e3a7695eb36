package arl

import (
	"fmt"
	"math/rand"
)

// scenarioBaskets is the four-transaction example used throughout the tests.
func scenarioBaskets() map[string][]string {
	return map[string][]string{
		"T1": {"a", "b"},
		"T2": {"a", "b"},
		"T3": {"a"},
		"T4": {"b"},
	}
}

// randomBaskets returns a reproducible set of transactions over a small catalogue.
// Lower-numbered items are more popular so that larger itemsets become frequent.
func randomBaskets(transactions, items int, seed int64) map[string][]string {
	rng := rand.New(rand.NewSource(seed))
	baskets := make(map[string][]string, transactions)
	for t := 0; t < transactions; t++ {
		var basket []string
		for i := 0; i < items; i++ {
			if rng.Float64() < 0.65/float64(i+1)+0.1 {
				basket = append(basket, fmt.Sprintf("item%02d", i))
			}
		}
		baskets[fmt.Sprintf("T%04d", t)] = basket
	}
	return baskets
}
