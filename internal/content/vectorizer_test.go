package content

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	v := NewVectorizer(DefaultOptions())

	tokens := v.Tokenize("The Matrix: Neo and a world of AI, 1999! x y")
	assert.Equal(t, []string{"matrix", "neo", "world", "ai", "1999"}, tokens)

	raw := NewVectorizer(Options{})
	assert.Equal(t, []string{"The", "cat"}, raw.Tokenize("The cat a"))
}

func TestFitIDFAndNormalisation(t *testing.T) {
	v := NewVectorizer(DefaultOptions())
	vectors := v.Fit([]string{
		"space pirates",
		"space monks",
		"",
	})

	assert.Equal(t, []string{"monks", "pirates", "space"}, v.Terms())

	idf, ok := v.IDF("space")
	require.True(t, ok)
	assert.InDelta(t, math.Log(4.0/3.0)+1, idf, 1e-12)

	idf, ok = v.IDF("pirates")
	require.True(t, ok)
	assert.InDelta(t, math.Log(2)+1, idf, 1e-12)

	_, ok = v.IDF("the")
	assert.False(t, ok)

	for _, vec := range vectors[:2] {
		var sum float64
		for _, x := range vec.Values {
			sum += x * x
		}
		assert.InDelta(t, 1, sum, 1e-12)
	}
	assert.Empty(t, vectors[2].Indices)
}

func TestTransformIgnoresUnknownTerms(t *testing.T) {
	v := NewVectorizer(DefaultOptions())
	v.Fit([]string{"heist crew", "heist vault"})

	vec := v.Transform("unknown heist heist")
	require.Len(t, vec.Indices, 1)
	assert.InDelta(t, 1, vec.Values[0], 1e-12)
}
