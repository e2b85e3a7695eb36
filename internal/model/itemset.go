package model

import (
	"sort"
	"strings"
)

// keySeparator joins item identifiers into a map key. Unit separator never appears in item ids.
const keySeparator = "\x1f"

// Itemset is a set of items together with the fraction of transactions containing all of them.
// Items are kept sorted ascending.
type Itemset struct {
	Items   []string
	Support float64
}

// NewItemset builds an itemset from items in any order.
func NewItemset(support float64, items ...string) Itemset {
	sorted := make([]string, len(items))
	copy(sorted, items)
	sort.Strings(sorted)
	return Itemset{Items: sorted, Support: support}
}

// Size returns the number of items in the set.
func (s Itemset) Size() int {
	return len(s.Items)
}

// Key returns a stable identifier for the item combination.
func (s Itemset) Key() string {
	return ItemsKey(s.Items)
}

// Contains reports whether item is a member of the set.
func (s Itemset) Contains(item string) bool {
	i := sort.SearchStrings(s.Items, item)
	return i < len(s.Items) && s.Items[i] == item
}

// String renders the itemset the way it is printed in reports.
func (s Itemset) String() string {
	return "{" + strings.Join(s.Items, ", ") + "}"
}

// ItemsKey returns the map key for a sorted item slice.
func ItemsKey(items []string) string {
	return strings.Join(items, keySeparator)
}
