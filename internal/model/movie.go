package model

// Movie is a row of the movie metadata dataset.
type Movie struct {
	ID       string
	Title    string
	Overview string
	Genres   string
}

// Rating is a single user rating of a movie.
type Rating struct {
	UserID  string
	MovieID string
	Value   float64
	// Unix seconds; zero when the source has no timestamp.
	Timestamp int64
}

// ScoredTitle pairs a movie title with a similarity or correlation score.
type ScoredTitle struct {
	Title string
	Score float64
}
