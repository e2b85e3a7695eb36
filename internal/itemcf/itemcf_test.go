package itemcf

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/Veraticus/the-cart-must-flow/internal/common"
	"github.com/Veraticus/the-cart-must-flow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rating(user, movie string, value float64) model.Rating {
	return model.Rating{UserID: user, MovieID: movie, Value: value}
}

func fixture(t *testing.T) *Matrix {
	t.Helper()
	movies := []model.Movie{
		{ID: "1", Title: "Matrix, The (1999)"},
		{ID: "2", Title: "Matrix Reloaded, The (2003)"},
		{ID: "3", Title: "Notebook, The (2004)"},
		{ID: "4", Title: "Flat (2001)"},
		{ID: "5", Title: "Rare (1990)"},
		{ID: "6", Title: "Unrated (1980)"},
	}
	ratings := []model.Rating{
		rating("u1", "1", 5), rating("u2", "1", 4), rating("u3", "1", 1), rating("u4", "1", 2),
		rating("u1", "2", 4.5), rating("u2", "2", 4), rating("u3", "2", 1.5), rating("u4", "2", 2),
		rating("u1", "3", 1), rating("u2", "3", 2), rating("u3", "3", 5), rating("u4", "3", 4),
		rating("u1", "4", 3), rating("u2", "4", 3), rating("u3", "4", 3),
		rating("u1", "5", 4), rating("u2", "5", 4),
		// duplicate rating is averaged
		rating("u4", "1", 2),
	}
	m, err := NewUserMovieMatrix(movies, ratings, 2)
	require.NoError(t, err)
	return m
}

func TestNewUserMovieMatrix(t *testing.T) {
	m := fixture(t)

	assert.Equal(t, []string{
		"Flat (2001)",
		"Matrix Reloaded, The (2003)",
		"Matrix, The (1999)",
		"Notebook, The (2004)",
	}, m.Titles())
	assert.Equal(t, 4, m.Users())

	v, ok := m.Rating("u4", "Matrix, The (1999)")
	require.True(t, ok)
	assert.InDelta(t, 2, v, 1e-12)

	_, ok = m.Rating("u4", "Flat (2001)")
	assert.False(t, ok)
	_, ok = m.Rating("u1", "Rare (1990)")
	assert.False(t, ok)
}

func TestNewUserMovieMatrixRejectsNegative(t *testing.T) {
	_, err := NewUserMovieMatrix(nil, nil, -1)
	require.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestCorrWith(t *testing.T) {
	m := fixture(t)

	corr, err := m.CorrWith(context.Background(), "Matrix, The (1999)")
	require.NoError(t, err)

	assert.InDelta(t, 1, corr["Matrix, The (1999)"], 1e-12)
	assert.Greater(t, corr["Matrix Reloaded, The (2003)"], 0.9)
	assert.Less(t, corr["Notebook, The (2004)"], -0.9)
	assert.True(t, math.IsNaN(corr["Flat (2001)"]), "constant ratings have no correlation")

	_, err = m.CorrWith(context.Background(), "Missing (2000)")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestRecommend(t *testing.T) {
	m := fixture(t)

	got, err := m.Recommend(context.Background(), "Matrix, The (1999)", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Matrix, The (1999)", got[0].Title)
	assert.Equal(t, "Matrix Reloaded, The (2003)", got[1].Title)

	got, err = m.Recommend(context.Background(), "Matrix, The (1999)", 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, "Notebook, The (2004)", got[2].Title)
}

func TestRecommendCancelled(t *testing.T) {
	m := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Recommend(ctx, "Matrix, The (1999)", 3)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSearchAndSample(t *testing.T) {
	m := fixture(t)

	assert.Equal(t, []string{"Matrix Reloaded, The (2003)", "Matrix, The (1999)"}, m.Search("Matrix"))
	assert.Empty(t, m.Search("matrix"))

	title := m.SampleTitle(rand.New(rand.NewSource(7)))
	assert.Contains(t, m.Titles(), title)

	empty, err := NewUserMovieMatrix(nil, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, empty.SampleTitle(rand.New(rand.NewSource(1))))
}
