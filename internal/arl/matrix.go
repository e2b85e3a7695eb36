package arl

import (
	"sort"

	"github.com/Veraticus/the-cart-must-flow/internal/model"
)

// Matrix is the boolean transaction × item incidence matrix.
//
// Rows are the unique transaction ids of the input in ascending order. Columns are
// every item id observed in the input, also ascending. A cell is set when the summed
// quantity of the item within the transaction is positive. Transactions without any
// positive item are kept as empty rows and count towards the support denominator.
type Matrix struct {
	itemIndex    map[string]int
	transactions []string
	items        []string
	// tidsets[i] holds the row indices containing item i, ascending.
	tidsets [][]int
}

// BuildMatrix collapses (transaction, item, quantity) observations into a Matrix.
func BuildMatrix(lines []model.LineItem) *Matrix {
	sums := make(map[string]map[string]float64)
	itemSeen := make(map[string]struct{})

	for _, line := range lines {
		basket, ok := sums[line.TransactionID]
		if !ok {
			basket = make(map[string]float64)
			sums[line.TransactionID] = basket
		}
		basket[line.ItemID] += line.Quantity
		itemSeen[line.ItemID] = struct{}{}
	}

	m := &Matrix{
		transactions: make([]string, 0, len(sums)),
		items:        make([]string, 0, len(itemSeen)),
		itemIndex:    make(map[string]int, len(itemSeen)),
	}
	for tx := range sums {
		m.transactions = append(m.transactions, tx)
	}
	for item := range itemSeen {
		m.items = append(m.items, item)
	}
	sort.Strings(m.transactions)
	sort.Strings(m.items)

	for i, item := range m.items {
		m.itemIndex[item] = i
	}

	m.tidsets = make([][]int, len(m.items))
	for t, tx := range m.transactions {
		for item, qty := range sums[tx] {
			if qty > 0 {
				i := m.itemIndex[item]
				m.tidsets[i] = append(m.tidsets[i], t)
			}
		}
	}

	return m
}

// MatrixFromBaskets builds a Matrix from transaction id → items, one unit per item.
func MatrixFromBaskets(baskets map[string][]string) *Matrix {
	lines := make([]model.LineItem, 0, len(baskets))
	for tx, items := range baskets {
		if len(items) == 0 {
			// A zero-quantity placeholder keeps the empty transaction as a row.
			lines = append(lines, model.LineItem{TransactionID: tx})
			continue
		}
		for _, item := range items {
			lines = append(lines, model.LineItem{TransactionID: tx, ItemID: item, Quantity: 1})
		}
	}

	m := BuildMatrix(lines)
	m.dropItem("")
	return m
}

// dropItem removes the column of an item known to be absent from every row.
func (m *Matrix) dropItem(item string) {
	idx, ok := m.itemIndex[item]
	if !ok || len(m.tidsets[idx]) > 0 {
		return
	}

	m.items = append(m.items[:idx], m.items[idx+1:]...)
	m.tidsets = append(m.tidsets[:idx], m.tidsets[idx+1:]...)
	delete(m.itemIndex, item)
	for i := idx; i < len(m.items); i++ {
		m.itemIndex[m.items[i]] = i
	}
}

// Len returns the number of transactions, including empty ones.
func (m *Matrix) Len() int {
	if m == nil {
		return 0
	}
	return len(m.transactions)
}

// Items returns the column labels in order.
func (m *Matrix) Items() []string {
	out := make([]string, len(m.items))
	copy(out, m.items)
	return out
}

// Count returns the number of transactions containing every given item.
func (m *Matrix) Count(items ...string) int {
	if len(items) == 0 {
		return m.Len()
	}

	var tids []int
	for n, item := range items {
		i, ok := m.itemIndex[item]
		if !ok {
			return 0
		}
		if n == 0 {
			tids = m.tidsets[i]
			continue
		}
		tids = intersect(tids, m.tidsets[i])
		if len(tids) == 0 {
			return 0
		}
	}
	return len(tids)
}

// Support returns the fraction of transactions containing every given item.
func (m *Matrix) Support(items ...string) float64 {
	if m.Len() == 0 {
		return 0
	}
	return float64(m.Count(items...)) / float64(m.Len())
}

// intersect returns the common elements of two ascending slices.
func intersect(a, b []int) []int {
	out := make([]int, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}
