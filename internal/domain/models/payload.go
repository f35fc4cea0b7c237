package models

import (
	"encoding/json"

	"cinescope/proj/internal/domain/fields"
)

// Raw payload shapes as the backend emits them. Normalization turns
// them into fully-defaulted internal types, so backend schema drift
// stays isolated in this file: absent fields become zero values,
// genres arrive either as objects or bare strings, people either flat
// or nested under a "person" key, and comment text is exposed as
// Content.

type RawUser struct {
	ID        int64            `json:"id"`
	Email     string           `json:"email"`
	Username  string           `json:"username"`
	Avatar    string           `json:"avatar"`
	IsActive  bool             `json:"is_active"`
	CreatedAt fields.Timestamp `json:"created_at"`
}

const defaultAvatar = "/default-avatar.png"

func (r *RawUser) Normalize() *User {
	if r == nil {
		return nil
	}
	avatar := r.Avatar
	if avatar == "" {
		avatar = defaultAvatar
	}
	return &User{
		ID:        r.ID,
		Email:     r.Email,
		Username:  r.Username,
		Avatar:    avatar,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt.Time,
	}
}

type RawComment struct {
	ID        int64             `json:"id"`
	Text      string            `json:"text"`
	Content   string            `json:"content"`
	MovieID   int               `json:"movie_id"`
	UserID    int64             `json:"user_id"`
	Likes     int               `json:"likes"`
	CreatedAt fields.Timestamp  `json:"created_at"`
	UpdatedAt *fields.Timestamp `json:"updated_at"`
	User      *RawUser          `json:"user"`
}

func (r *RawComment) Normalize() *Comment {
	if r == nil {
		return nil
	}
	content := r.Text
	if content == "" {
		content = r.Content
	}
	likes := r.Likes
	if likes < 0 {
		likes = 0
	}
	c := &Comment{
		ID:        r.ID,
		Content:   content,
		MovieID:   r.MovieID,
		UserID:    r.UserID,
		Likes:     likes,
		CreatedAt: r.CreatedAt.Time,
		User:      r.User.Normalize(),
	}
	if r.UpdatedAt != nil && !r.UpdatedAt.IsZero() {
		t := r.UpdatedAt.Time
		c.UpdatedAt = &t
	}
	return c
}

type rawPerson struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Person *struct {
		Name string `json:"name"`
	} `json:"person"`
}

type RawMovie struct {
	ID              int                 `json:"id"`
	Title           string              `json:"title"`
	Year            int32               `json:"year"`
	RunLength       fields.MovieRuntime `json:"run_length"`
	ReleaseDate     fields.Timestamp    `json:"release_date"`
	Synopsis        string              `json:"synopsis"`
	TrailerURL      string              `json:"trailer_url"`
	IMDBRating      float64             `json:"imdb_rating"`
	PredictedRating float64             `json:"predicted_rating"`
	NumRaters       int                 `json:"num_raters"`
	NumReviews      int                 `json:"num_reviews"`
	Genres          []json.RawMessage   `json:"genres"`
	People          []rawPerson         `json:"people"`
	Comments        []RawComment        `json:"comments"`
	Providers       []Provider          `json:"providers"`
	Images          []Image             `json:"images"`
}

func (r *RawMovie) Normalize() *Movie {
	if r == nil {
		return nil
	}
	m := &Movie{
		ID:              r.ID,
		Title:           r.Title,
		Year:            r.Year,
		Runtime:         r.RunLength,
		ReleaseDate:     r.ReleaseDate.Time,
		Synopsis:        r.Synopsis,
		TrailerURL:      r.TrailerURL,
		IMDBRating:      r.IMDBRating,
		PredictedRating: r.PredictedRating,
		NumRaters:       r.NumRaters,
		NumReviews:      r.NumReviews,
		Genres:          make([]Genre, 0, len(r.Genres)),
		People:          make([]Person, 0, len(r.People)),
		Comments:        make([]Comment, 0, len(r.Comments)),
		Providers:       r.Providers,
		Images:          r.Images,
	}
	if m.Providers == nil {
		m.Providers = []Provider{}
	}
	if m.Images == nil {
		m.Images = []Image{}
	}
	for _, raw := range r.Genres {
		var g Genre
		if err := json.Unmarshal(raw, &g); err == nil {
			m.Genres = append(m.Genres, g)
			continue
		}
		var name string
		if err := json.Unmarshal(raw, &name); err == nil && name != "" {
			m.Genres = append(m.Genres, Genre{Name: name})
		}
	}
	for _, p := range r.People {
		name := p.Name
		if name == "" && p.Person != nil {
			name = p.Person.Name
		}
		if name == "" {
			continue
		}
		m.People = append(m.People, Person{Name: name, Role: p.Role})
	}
	for i := range r.Comments {
		if c := r.Comments[i].Normalize(); c != nil {
			m.Comments = append(m.Comments, *c)
		}
	}
	return m
}

// NormalizeMovies maps a raw list payload, dropping null entries.
func NormalizeMovies(raws []RawMovie) []Movie {
	movies := make([]Movie, 0, len(raws))
	for i := range raws {
		if m := raws[i].Normalize(); m != nil {
			movies = append(movies, *m)
		}
	}
	return movies
}

// NormalizeComments maps a raw comment list payload.
func NormalizeComments(raws []RawComment) []Comment {
	comments := make([]Comment, 0, len(raws))
	for i := range raws {
		if c := raws[i].Normalize(); c != nil {
			comments = append(comments, *c)
		}
	}
	return comments
}
