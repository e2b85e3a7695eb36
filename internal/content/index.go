package content

import (
	"fmt"
	"sort"

	"github.com/Veraticus/the-cart-must-flow/internal/common"
	"github.com/Veraticus/the-cart-must-flow/internal/model"
)

// DefaultSimilarCount is the number of titles Similar returns when n <= 0.
const DefaultSimilarCount = 10

// Index holds one TF-IDF row per movie overview.
type Index struct {
	vectorizer *Vectorizer
	rows       map[string]int
	titles     []string
	vectors    []Vector
}

// NewIndex fits a vectorizer over the movies' overviews. When a title repeats,
// lookups resolve to its last occurrence.
func NewIndex(movies []model.Movie, opts Options) *Index {
	docs := make([]string, len(movies))
	titles := make([]string, len(movies))
	rows := make(map[string]int, len(movies))
	for i, m := range movies {
		docs[i] = m.Overview
		titles[i] = m.Title
		rows[m.Title] = i
	}

	vectorizer := NewVectorizer(opts)
	return &Index{
		vectorizer: vectorizer,
		rows:       rows,
		titles:     titles,
		vectors:    vectorizer.Fit(docs),
	}
}

// Len reports the number of indexed movies.
func (ix *Index) Len() int {
	return len(ix.vectors)
}

// Vocabulary reports the number of distinct terms.
func (ix *Index) Vocabulary() int {
	return len(ix.vectorizer.Terms())
}

// Has reports whether title is indexed.
func (ix *Index) Has(title string) bool {
	_, ok := ix.rows[title]
	return ok
}

// Similar ranks every movie by cosine similarity to title and returns the n
// titles after the top-ranked one, which is normally the movie itself.
func (ix *Index) Similar(title string, n int) ([]model.ScoredTitle, error) {
	row, ok := ix.rows[title]
	if !ok {
		return nil, fmt.Errorf("%w: title %q", common.ErrNotFound, title)
	}
	if n <= 0 {
		n = DefaultSimilarCount
	}

	target := ix.vectors[row].Dense(len(ix.vectorizer.Terms()))
	scores := make([]float64, len(ix.vectors))
	order := make([]int, len(ix.vectors))
	for i, vec := range ix.vectors {
		scores[i] = vec.Dot(target)
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if len(order) <= 1 {
		return []model.ScoredTitle{}, nil
	}
	order = order[1:]
	if len(order) > n {
		order = order[:n]
	}

	out := make([]model.ScoredTitle, len(order))
	for i, idx := range order {
		out[i] = model.ScoredTitle{Title: ix.titles[idx], Score: scores[idx]}
	}
	return out, nil
}
