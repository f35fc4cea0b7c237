package models

import (
	"cinescope/proj/internal/domain/fields"
	"time"
)

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Person struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type Provider struct {
	ID  int    `json:"id"`
	URL string `json:"url"`
}

type Image struct {
	ID  int    `json:"id"`
	URL string `json:"url"`
}

type Comment struct {
	ID        int64      `json:"id"`
	Content   string     `json:"content"`
	MovieID   int        `json:"movie_id"`
	UserID    int64      `json:"user_id"`
	Likes     int        `json:"likes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	User      *User      `json:"user,omitempty"`
}

type Movie struct {
	ID              int                 `json:"id"`
	Title           string              `json:"title"`
	Year            int32               `json:"year,omitempty"`
	Runtime         fields.MovieRuntime `json:"run_length,omitempty"`
	ReleaseDate     time.Time           `json:"release_date"`
	Synopsis        string              `json:"synopsis"`
	TrailerURL      string              `json:"trailer_url"`
	IMDBRating      float64             `json:"imdb_rating"`
	PredictedRating float64             `json:"predicted_rating"`
	NumRaters       int                 `json:"num_raters"`
	NumReviews      int                 `json:"num_reviews"`
	Genres          []Genre             `json:"genres"`
	People          []Person            `json:"people"`
	Comments        []Comment           `json:"comments"`
	Providers       []Provider          `json:"providers"`
	Images          []Image             `json:"images"`
}

type WatchlistMovie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Genre       string  `json:"genre"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	Rating      float64 `json:"rating"`
}

type WatchlistEntry struct {
	ID        int64           `json:"id"`
	MovieID   int             `json:"movie_id"`
	UserID    int64           `json:"user_id"`
	CreatedAt time.Time       `json:"created_at"`
	Movie     *WatchlistMovie `json:"movie,omitempty"`
}

type WatchlistStats struct {
	TotalWatchlist int   `json:"total_watchlist"`
	Watched        int   `json:"watched"`
	UserID         int64 `json:"user_id"`
}

type Sentiment struct {
	Text         string  `json:"text"`
	CleanedText  string  `json:"cleaned_text"`
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
	Sentiment    string  `json:"sentiment"`
}
