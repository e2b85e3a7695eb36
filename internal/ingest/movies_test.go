package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMovies(t *testing.T) {
	csv := `adult,genres,id,overview,title,vote_count
False,"[{'id': 16, 'name': 'Animation'}]",862,"Led by Woody, Andy's toys live happily.",Toy Story,5415
False,[],8844,,Jumanji,2413
`
	movies, err := ReadMovies(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, movies, 2)

	assert.Equal(t, "862", movies[0].ID)
	assert.Equal(t, "Toy Story", movies[0].Title)
	assert.Equal(t, "Led by Woody, Andy's toys live happily.", movies[0].Overview)
	assert.Contains(t, movies[0].Genres, "Animation")
	assert.Empty(t, movies[1].Overview)
}

func TestReadMovieLens(t *testing.T) {
	movies := "movieId,title,genres\n1,Toy Story (1995),Adventure|Animation\n2,Jumanji (1995),Adventure\n"
	ratings := "userId,movieId,rating,timestamp\n" +
		"1,1,4.0,964982703\n" +
		"1,2,3.5,2005-04-02 23:53:47\n" +
		"2,1,bad,964982703\n"

	m, r, err := ReadMovieLens(strings.NewReader(movies), strings.NewReader(ratings))
	require.NoError(t, err)
	require.Len(t, m, 2)
	require.Len(t, r, 2)

	assert.Equal(t, "Toy Story (1995)", m[0].Title)
	assert.Equal(t, "Adventure|Animation", m[0].Genres)
	assert.Equal(t, int64(964982703), r[0].Timestamp)
	assert.InDelta(t, 3.5, r[1].Value, 1e-9)
	assert.Equal(t, int64(1112486027), r[1].Timestamp)
}

func TestReadMovieLensMissingColumn(t *testing.T) {
	_, _, err := ReadMovieLens(strings.NewReader("title\nx\n"), strings.NewReader("userId,movieId,rating\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "movieId")
}

func TestOpenWithProgress(t *testing.T) {
	ProgressOutput = &strings.Builder{}
	t.Cleanup(func() { ProgressOutput = os.Stderr })

	path := filepath.Join(t.TempDir(), "movie.csv")
	require.NoError(t, os.WriteFile(path, []byte("movieId,title\n1,Heat (1995)\n"), 0600))

	file, err := OpenWithProgress(path, "Reading movies")
	require.NoError(t, err)

	movies, err := ReadMovieLensMovies(file)
	require.NoError(t, err)
	require.NoError(t, file.Close())

	require.Len(t, movies, 1)
	assert.Equal(t, "Heat (1995)", movies[0].Title)

	_, err = OpenWithProgress(filepath.Join(t.TempDir(), "absent.csv"), "Reading")
	require.Error(t, err)
}
