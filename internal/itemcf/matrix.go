// Package itemcf recommends movies whose user ratings correlate with a chosen title.
package itemcf

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/Veraticus/the-cart-must-flow/internal/common"
	"github.com/Veraticus/the-cart-must-flow/internal/model"
)

// DefaultMinRatings drops titles rated this many times or fewer.
const DefaultMinRatings = 1000

// column holds one title's mean rating per user, ordered by user row.
type column struct {
	users  []int
	values []float64
}

// Matrix is a sparse user × title pivot of mean ratings.
type Matrix struct {
	titleIndex map[string]int
	titles     []string
	users      []string
	columns    []column
}

// NewUserMovieMatrix joins ratings onto movies, keeps titles with more than
// minRatings rows and pivots the rest by mean rating. A movie without ratings
// still counts as one row, as a left join would produce.
func NewUserMovieMatrix(movies []model.Movie, ratings []model.Rating, minRatings int) (*Matrix, error) {
	if minRatings < 0 {
		return nil, common.InvalidConfigf("min ratings must not be negative, got %d", minRatings)
	}

	byMovie := make(map[string][]model.Rating)
	for _, r := range ratings {
		byMovie[r.MovieID] = append(byMovie[r.MovieID], r)
	}

	rowCount := make(map[string]int)
	titleRatings := make(map[string][]model.Rating)
	for _, m := range movies {
		rs := byMovie[m.ID]
		if len(rs) == 0 {
			rowCount[m.Title]++
			continue
		}
		rowCount[m.Title] += len(rs)
		titleRatings[m.Title] = append(titleRatings[m.Title], rs...)
	}

	titles := make([]string, 0, len(rowCount))
	for title, n := range rowCount {
		if n > minRatings && len(titleRatings[title]) > 0 {
			titles = append(titles, title)
		}
	}
	sort.Strings(titles)

	userSet := make(map[string]struct{})
	for _, title := range titles {
		for _, r := range titleRatings[title] {
			userSet[r.UserID] = struct{}{}
		}
	}
	users := make([]string, 0, len(userSet))
	for u := range userSet {
		users = append(users, u)
	}
	sort.Strings(users)
	userIndex := make(map[string]int, len(users))
	for i, u := range users {
		userIndex[u] = i
	}

	m := &Matrix{
		titleIndex: make(map[string]int, len(titles)),
		titles:     titles,
		users:      users,
		columns:    make([]column, len(titles)),
	}
	for i, title := range titles {
		m.titleIndex[title] = i
		m.columns[i] = pivot(titleRatings[title], userIndex)
	}

	slog.Debug("Built user movie matrix",
		"titles", len(titles),
		"dropped_titles", len(rowCount)-len(titles),
		"users", len(users))
	return m, nil
}

func pivot(ratings []model.Rating, userIndex map[string]int) column {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, r := range ratings {
		u := userIndex[r.UserID]
		sums[u] += r.Value
		counts[u]++
	}

	col := column{users: make([]int, 0, len(sums))}
	for u := range sums {
		col.users = append(col.users, u)
	}
	sort.Ints(col.users)
	col.values = make([]float64, len(col.users))
	for i, u := range col.users {
		col.values[i] = sums[u] / float64(counts[u])
	}
	return col
}

// Titles returns the column titles in sorted order.
func (m *Matrix) Titles() []string {
	return m.titles
}

// Users reports the number of user rows.
func (m *Matrix) Users() int {
	return len(m.users)
}

// Rating returns the mean rating user gave title.
func (m *Matrix) Rating(user, title string) (float64, bool) {
	ti, ok := m.titleIndex[title]
	if !ok {
		return 0, false
	}
	u := sort.SearchStrings(m.users, user)
	if u == len(m.users) || m.users[u] != user {
		return 0, false
	}
	col := m.columns[ti]
	i := sort.SearchInts(col.users, u)
	if i == len(col.users) || col.users[i] != u {
		return 0, false
	}
	return col.values[i], true
}

func (m *Matrix) column(title string) (column, error) {
	ti, ok := m.titleIndex[title]
	if !ok {
		return column{}, fmt.Errorf("%w: title %q", common.ErrNotFound, title)
	}
	return m.columns[ti], nil
}
