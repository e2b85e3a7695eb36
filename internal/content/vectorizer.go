// Package content recommends movies whose overviews read alike, using TF-IDF
// vectors compared by cosine similarity.
package content

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]{2,}`)

// Options controls tokenization.
type Options struct {
	StopWords []string
	Lowercase bool
}

// DefaultOptions lowercases and removes English stop words.
func DefaultOptions() Options {
	return Options{StopWords: englishStopWords, Lowercase: true}
}

// Vector is a sparse L2-normalised row. Indices are ascending.
type Vector struct {
	Indices []int
	Values  []float64
}

// Dot returns the inner product of v with a dense vector.
func (v Vector) Dot(dense []float64) float64 {
	var sum float64
	for i, idx := range v.Indices {
		sum += v.Values[i] * dense[idx]
	}
	return sum
}

// Dense expands v to a slice of length n.
func (v Vector) Dense(n int) []float64 {
	out := make([]float64, n)
	for i, idx := range v.Indices {
		out[idx] = v.Values[i]
	}
	return out
}

// Vectorizer turns documents into TF-IDF vectors over a fitted vocabulary.
type Vectorizer struct {
	stop       map[string]struct{}
	vocabulary map[string]int
	terms      []string
	idf        []float64
	lowercase  bool
}

// NewVectorizer creates an unfitted vectorizer.
func NewVectorizer(opts Options) *Vectorizer {
	stop := make(map[string]struct{}, len(opts.StopWords))
	for _, w := range opts.StopWords {
		stop[w] = struct{}{}
	}
	return &Vectorizer{stop: stop, lowercase: opts.Lowercase}
}

// Tokenize splits a document into terms, dropping stop words.
func (v *Vectorizer) Tokenize(doc string) []string {
	if v.lowercase {
		doc = strings.ToLower(doc)
	}
	raw := tokenPattern.FindAllString(doc, -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if _, skip := v.stop[tok]; !skip {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// Fit learns the vocabulary and smoothed idf weights, and returns the
// vectors of the fitted documents.
func (v *Vectorizer) Fit(documents []string) []Vector {
	tokenized := make([][]string, len(documents))
	df := make(map[string]int)
	for i, doc := range documents {
		tokens := v.Tokenize(doc)
		tokenized[i] = tokens
		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	v.terms = make([]string, 0, len(df))
	for term := range df {
		v.terms = append(v.terms, term)
	}
	sort.Strings(v.terms)

	n := float64(len(documents))
	v.vocabulary = make(map[string]int, len(v.terms))
	v.idf = make([]float64, len(v.terms))
	for i, term := range v.terms {
		v.vocabulary[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	vectors := make([]Vector, len(tokenized))
	for i, tokens := range tokenized {
		vectors[i] = v.vectorize(tokens)
	}
	return vectors
}

// Transform vectorizes a document against the fitted vocabulary. Unknown terms are ignored.
func (v *Vectorizer) Transform(doc string) Vector {
	return v.vectorize(v.Tokenize(doc))
}

// Terms returns the vocabulary in column order.
func (v *Vectorizer) Terms() []string {
	return v.terms
}

// IDF returns the weight of term, or false when it is not in the vocabulary.
func (v *Vectorizer) IDF(term string) (float64, bool) {
	idx, ok := v.vocabulary[term]
	if !ok {
		return 0, false
	}
	return v.idf[idx], true
}

func (v *Vectorizer) vectorize(tokens []string) Vector {
	counts := make(map[int]float64)
	for _, tok := range tokens {
		if idx, ok := v.vocabulary[tok]; ok {
			counts[idx]++
		}
	}

	vec := Vector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		vec.Indices = append(vec.Indices, idx)
	}
	sort.Ints(vec.Indices)
	for _, idx := range vec.Indices {
		vec.Values = append(vec.Values, counts[idx]*v.idf[idx])
	}

	if norm := floats.Norm(vec.Values, 2); norm > 0 {
		floats.Scale(1/norm, vec.Values)
	}
	return vec
}
