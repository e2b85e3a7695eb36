// Package arl implements market-basket association rule learning.
//
// A run flows through four stages:
//
//	line items → Matrix → frequent itemsets (apriori) → rules → recommendations
//
// Every stage is a pure function of its inputs. Matrix, itemsets and rules are
// never mutated after they are returned.
package arl
