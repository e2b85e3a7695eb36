package arl

import (
	"testing"

	"github.com/Veraticus/the-cart-must-flow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMatrix(t *testing.T) {
	lines := []model.LineItem{
		{TransactionID: "536365", ItemID: "85123A", Quantity: 6},
		{TransactionID: "536365", ItemID: "71053", Quantity: 6},
		{TransactionID: "536365", ItemID: "71053", Quantity: 2},
		{TransactionID: "536366", ItemID: "22633", Quantity: 6},
		{TransactionID: "536366", ItemID: "85123A", Quantity: 4},
		{TransactionID: "536366", ItemID: "85123A", Quantity: -4},
		{TransactionID: "536367", ItemID: "22633", Quantity: 0},
	}

	m := BuildMatrix(lines)

	assert.Equal(t, 3, m.Len())
	assert.Equal(t, []string{"22633", "71053", "85123A"}, m.Items())

	assert.Equal(t, 1, m.Count("71053", "85123A"))
	assert.Equal(t, 1, m.Count("85123A"), "summed quantity of zero is absent")
	assert.Equal(t, 1, m.Count("22633"), "zero quantity does not set a cell")
	assert.Equal(t, 0, m.Count("22633", "85123A"))
	assert.Equal(t, 0, m.Count("unknown"))
	assert.InDelta(t, 1.0/3, m.Support("71053"), 1e-12, "transaction without positive items is kept as an empty row")
}

func TestMatrix_SupportCountsEmptyRows(t *testing.T) {
	m := MatrixFromBaskets(map[string][]string{
		"T1": {"a", "b"},
		"T2": {"a"},
		"T3": {},
		"T4": {},
	})

	require.Equal(t, 4, m.Len())
	assert.Equal(t, []string{"a", "b"}, m.Items())
	assert.InDelta(t, 0.5, m.Support("a"), 1e-12)
	assert.InDelta(t, 0.25, m.Support("a", "b"), 1e-12)
	assert.Equal(t, 0, m.Count("a", "missing"))
	assert.Equal(t, 4, m.Count())
}

func TestMatrix_DeduplicatesItems(t *testing.T) {
	m := MatrixFromBaskets(map[string][]string{
		"T1": {"b", "a", "b", "a"},
	})

	assert.Equal(t, []string{"a", "b"}, m.Items())
	assert.Equal(t, 1, m.Count("a"))
	assert.Equal(t, 1, m.Count("a", "b"))
}

func TestBuildMatrix_Empty(t *testing.T) {
	m := BuildMatrix(nil)
	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.Items())
	assert.Zero(t, m.Support("a"))

	var nilMatrix *Matrix
	assert.Equal(t, 0, nilMatrix.Len())
}

func TestIntersect(t *testing.T) {
	assert.Equal(t, []int{2, 5}, intersect([]int{1, 2, 5, 9}, []int{2, 3, 5}))
	assert.Empty(t, intersect([]int{1, 3}, []int{2, 4}))
	assert.Empty(t, intersect(nil, []int{1}))
}
