package ingest

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Veraticus/the-cart-must-flow/internal/model"
)

// ReadMovies parses movies_metadata.csv. Only id, title, overview and genres are kept.
func ReadMovies(r io.Reader) ([]model.Movie, error) {
	t, err := newTable(r)
	if err != nil {
		return nil, err
	}

	cols, err := t.require("title", "overview")
	if err != nil {
		return nil, err
	}
	titleCol, overviewCol := cols[0], cols[1]
	idCol := t.optional("id")
	genresCol := t.optional("genres")

	var movies []model.Movie
	for {
		record, err := t.next()
		if errors.Is(err, io.EOF) {
			return movies, nil
		}
		if err != nil {
			return nil, err
		}

		movies = append(movies, model.Movie{
			ID:       field(record, idCol),
			Title:    field(record, titleCol),
			Overview: field(record, overviewCol),
			Genres:   field(record, genresCol),
		})
	}
}

// ReadMovieLensMovies parses MovieLens movie.csv (movieId, title, genres).
func ReadMovieLensMovies(r io.Reader) ([]model.Movie, error) {
	t, err := newTable(r)
	if err != nil {
		return nil, err
	}

	cols, err := t.require("movieId", "title")
	if err != nil {
		return nil, err
	}
	genresCol := t.optional("genres")

	var movies []model.Movie
	for {
		record, err := t.next()
		if errors.Is(err, io.EOF) {
			return movies, nil
		}
		if err != nil {
			return nil, err
		}

		movies = append(movies, model.Movie{
			ID:     field(record, cols[0]),
			Title:  field(record, cols[1]),
			Genres: field(record, genresCol),
		})
	}
}

// ReadRatings parses MovieLens rating.csv (userId, movieId, rating, timestamp).
// Rows whose rating does not parse are skipped.
func ReadRatings(r io.Reader) ([]model.Rating, error) {
	t, err := newTable(r)
	if err != nil {
		return nil, err
	}

	cols, err := t.require("userId", "movieId", "rating")
	if err != nil {
		return nil, err
	}
	tsCol := t.optional("timestamp")

	var ratings []model.Rating
	for {
		record, err := t.next()
		if errors.Is(err, io.EOF) {
			return ratings, nil
		}
		if err != nil {
			return nil, err
		}

		value, err := strconv.ParseFloat(field(record, cols[2]), 64)
		if err != nil {
			continue
		}

		ratings = append(ratings, model.Rating{
			UserID:    field(record, cols[0]),
			MovieID:   field(record, cols[1]),
			Value:     value,
			Timestamp: parseTimestamp(field(record, tsCol)),
		})
	}
}

// parseTimestamp accepts unix seconds or "2006-01-02 15:04:05".
func parseTimestamp(raw string) int64 {
	if raw == "" {
		return 0
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return secs
	}
	if ts, err := time.Parse("2006-01-02 15:04:05", raw); err == nil {
		return ts.Unix()
	}
	return 0
}

// ReadMovieLens parses the MovieLens movie and rating files together.
func ReadMovieLens(movies, ratings io.Reader) ([]model.Movie, []model.Rating, error) {
	m, err := ReadMovieLensMovies(movies)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read movies: %w", err)
	}
	r, err := ReadRatings(ratings)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read ratings: %w", err)
	}
	return m, r, nil
}
