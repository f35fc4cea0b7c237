package movies

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"cinescope/proj/internal/clients/api"
	"cinescope/proj/internal/domain/filters"
	"cinescope/proj/internal/domain/models"
	"cinescope/proj/internal/lib/cache"
)

// Backend is the slice of the API client the catalog needs.
type Backend interface {
	Get(ctx context.Context, path string, dst any) error
	GetQuery(ctx context.Context, path string, query url.Values, dst any) error
}

type Config struct {
	PageSize     int
	RelatedLimit int
}

// Mode says which listing the current result set belongs to.
type Mode string

const (
	ModeFeatured Mode = "featured"
	ModeSearch   Mode = "search"
	ModeGenre    Mode = "genre"
)

// SearchType selects the search endpoint.
type SearchType string

const (
	SearchByTitle    SearchType = "title"
	SearchByDirector SearchType = "director"
	SearchByActor    SearchType = "actor"
)

// QueryState is a snapshot of the active listing: what was asked for,
// which page is loaded, and the accumulated results.
type QueryState struct {
	Mode    Mode
	Query   string
	Type    SearchType
	GenreID int
	Page    int
	HasMore bool
	Results []models.Movie
}

// Catalog orchestrates movie reads: one read-through cache in front of
// the backend, plus a paged listing whose responses are tagged with a
// generation token so answers to superseded queries are discarded
// instead of applied.
type Catalog struct {
	log   *slog.Logger
	api   Backend
	cache *cache.Cache
	cfg   Config

	mu      sync.Mutex
	gen     uint64
	state   QueryState
	lastErr string
}

func New(log *slog.Logger, apiClient Backend, cfg Config) *Catalog {
	return &Catalog{
		log:   log,
		api:   apiClient,
		cache: cache.New(),
		cfg:   cfg,
	}
}

// GetMovieDetails returns the full movie record, cached per id.
// Failures record a message and return nil.
func (c *Catalog) GetMovieDetails(ctx context.Context, id int) *models.Movie {
	const op = "movies.Catalog.GetMovieDetails"

	v, err := c.cache.GetOrFill(ctx, fmt.Sprintf("movie:%d", id), func(ctx context.Context) (any, error) {
		var raw models.RawMovie
		if err := c.api.Get(ctx, fmt.Sprintf("/movies/%d", id), &raw); err != nil {
			return nil, err
		}
		return raw.Normalize(), nil
	})
	if err != nil {
		c.log.With("op", op).Warn("fetch failed", "movie_id", id, "err", err)
		c.setErr(err, "Could not load the movie")
		return nil
	}
	return v.(*models.Movie)
}

// LoadFeatured loads a page of the top-rated listing.
func (c *Catalog) LoadFeatured(ctx context.Context, page int) []models.Movie {
	const op = "movies.Catalog.LoadFeatured"
	g, page := c.beginQuery(QueryState{Mode: ModeFeatured}, page)

	v, err := c.cache.GetOrFill(ctx, fmt.Sprintf("featured:%d", page), func(ctx context.Context) (any, error) {
		query, err := filters.TopRated(page, c.cfg.PageSize).Values()
		if err != nil {
			return nil, err
		}
		var raw []models.RawMovie
		if err := c.api.GetQuery(ctx, "/movies/", query, &raw); err != nil {
			return nil, err
		}
		return models.NormalizeMovies(raw), nil
	})
	if err != nil {
		c.log.With("op", op).Warn("fetch failed", "page", page, "err", err)
		c.setErr(err, "Could not load featured movies")
		return nil
	}
	results := v.([]models.Movie)
	c.apply(g, page, results)
	return results
}

// Search runs a title, director or actor search and installs the
// results as the active listing.
func (c *Catalog) Search(ctx context.Context, query string, typ SearchType, page int) []models.Movie {
	const op = "movies.Catalog.Search"
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	g, page := c.beginQuery(QueryState{Mode: ModeSearch, Query: query, Type: typ}, page)

	params := url.Values{}
	params.Set("limit", fmt.Sprint(c.cfg.PageSize))
	params.Set("offset", fmt.Sprint((page-1)*c.cfg.PageSize))

	var path string
	switch typ {
	case SearchByDirector:
		path = "/movies/by-director/" + url.PathEscape(query)
	case SearchByActor:
		path = "/movies/by-actor/" + url.PathEscape(query)
	default:
		path = "/movies/search/" + url.PathEscape(query)
	}

	var raw []models.RawMovie
	if err := c.api.GetQuery(ctx, path, params, &raw); err != nil {
		c.log.With("op", op).Warn("search failed", "query", query, "type", typ, "err", err)
		c.setErr(err, "Search failed")
		return nil
	}
	results := models.NormalizeMovies(raw)
	c.apply(g, page, results)
	return results
}

// ByGenre loads a page of movies in the given genre, cached per page.
func (c *Catalog) ByGenre(ctx context.Context, genreID, page int) []models.Movie {
	const op = "movies.Catalog.ByGenre"
	g, page := c.beginQuery(QueryState{Mode: ModeGenre, GenreID: genreID}, page)

	v, err := c.cache.GetOrFill(ctx, fmt.Sprintf("genre:%d:%d", genreID, page), func(ctx context.Context) (any, error) {
		query := url.Values{}
		query.Set("limit", fmt.Sprint(c.cfg.PageSize))
		query.Set("offset", fmt.Sprint((page-1)*c.cfg.PageSize))
		var raw []models.RawMovie
		if err := c.api.GetQuery(ctx, fmt.Sprintf("/movies/by-genre/%d", genreID), query, &raw); err != nil {
			return nil, err
		}
		return models.NormalizeMovies(raw), nil
	})
	if err != nil {
		c.log.With("op", op).Warn("fetch failed", "genre_id", genreID, "err", err)
		c.setErr(err, "Could not load movies for this genre")
		return nil
	}
	results := v.([]models.Movie)
	c.apply(g, page, results)
	return results
}

// ByYear filters the listing by release year.
func (c *Catalog) ByYear(ctx context.Context, year int32, page int) []models.Movie {
	const op = "movies.Catalog.ByYear"
	g, page := c.beginQuery(QueryState{Mode: ModeSearch, Query: fmt.Sprint(year), Type: "year"}, page)

	query := url.Values{}
	query.Set("limit", fmt.Sprint(c.cfg.PageSize))
	query.Set("offset", fmt.Sprint((page-1)*c.cfg.PageSize))
	var raw []models.RawMovie
	if err := c.api.GetQuery(ctx, fmt.Sprintf("/movies/by-year/%d", year), query, &raw); err != nil {
		c.log.With("op", op).Warn("fetch failed", "year", year, "err", err)
		c.setErr(err, "Could not load movies for this year")
		return nil
	}
	results := models.NormalizeMovies(raw)
	c.apply(g, page, results)
	return results
}

// Genres returns the genre list, cached for the session.
func (c *Catalog) Genres(ctx context.Context) []models.Genre {
	const op = "movies.Catalog.Genres"

	v, err := c.cache.GetOrFill(ctx, "genres", func(ctx context.Context) (any, error) {
		var genres []models.Genre
		if err := c.api.Get(ctx, "/movies/genres/", &genres); err != nil {
			return nil, err
		}
		return genres, nil
	})
	if err != nil {
		c.log.With("op", op).Warn("fetch failed", "err", err)
		c.setErr(err, "Could not load genres")
		return nil
	}
	return v.([]models.Genre)
}

// Providers returns where the movie can be streamed.
func (c *Catalog) Providers(ctx context.Context, movieID int) []models.Provider {
	const op = "movies.Catalog.Providers"
	var providers []models.Provider
	if err := c.api.Get(ctx, fmt.Sprintf("/movies/%d/providers", movieID), &providers); err != nil {
		c.log.With("op", op).Warn("fetch failed", "movie_id", movieID, "err", err)
		c.setErr(err, "Could not load streaming providers")
		return nil
	}
	return providers
}

// Images returns the movie's image gallery.
func (c *Catalog) Images(ctx context.Context, movieID int) []models.Image {
	const op = "movies.Catalog.Images"
	var images []models.Image
	if err := c.api.Get(ctx, fmt.Sprintf("/movies/%d/images", movieID), &images); err != nil {
		c.log.With("op", op).Warn("fetch failed", "movie_id", movieID, "err", err)
		c.setErr(err, "Could not load images")
		return nil
	}
	return images
}

// relatedStrategy is one way of finding movies similar to the source.
// Strategies run in order until one yields results.
type relatedStrategy func(ctx context.Context, movie *models.Movie) ([]models.Movie, error)

// Related finds movies similar to the given one. It tries genre-id
// lookup, then genre-name search, then falls back to top rated. The
// source movie is excluded and duplicates collapsed.
func (c *Catalog) Related(ctx context.Context, movie *models.Movie) []models.Movie {
	const op = "movies.Catalog.Related"
	if movie == nil {
		return nil
	}

	v, err := c.cache.GetOrFill(ctx, fmt.Sprintf("related:%d", movie.ID), func(ctx context.Context) (any, error) {
		strategies := []relatedStrategy{c.relatedByGenreID, c.relatedByGenreName, c.relatedTopRated}
		var lastErr error
		for _, strategy := range strategies {
			candidates, err := strategy(ctx, movie)
			if err != nil {
				lastErr = err
				continue
			}
			if related := c.pickRelated(movie.ID, candidates); len(related) > 0 {
				return related, nil
			}
		}
		if lastErr != nil {
			return nil, lastErr
		}
		return []models.Movie{}, nil
	})
	if err != nil {
		c.log.With("op", op).Warn("fetch failed", "movie_id", movie.ID, "err", err)
		c.setErr(err, "Could not load related movies")
		return nil
	}
	return v.([]models.Movie)
}

func (c *Catalog) relatedByGenreID(ctx context.Context, movie *models.Movie) ([]models.Movie, error) {
	if len(movie.Genres) == 0 || movie.Genres[0].ID == 0 {
		return nil, nil
	}
	query := url.Values{}
	query.Set("limit", fmt.Sprint(c.cfg.RelatedLimit+1))
	var raw []models.RawMovie
	path := fmt.Sprintf("/movies/by-genre/%d", movie.Genres[0].ID)
	if err := c.api.GetQuery(ctx, path, query, &raw); err != nil {
		return nil, err
	}
	return models.NormalizeMovies(raw), nil
}

func (c *Catalog) relatedByGenreName(ctx context.Context, movie *models.Movie) ([]models.Movie, error) {
	if len(movie.Genres) == 0 || movie.Genres[0].Name == "" {
		return nil, nil
	}
	params := url.Values{}
	params.Set("limit", fmt.Sprint(c.cfg.RelatedLimit+1))
	var raw []models.RawMovie
	path := "/movies/search/" + url.PathEscape(movie.Genres[0].Name)
	if err := c.api.GetQuery(ctx, path, params, &raw); err != nil {
		return nil, err
	}
	return models.NormalizeMovies(raw), nil
}

func (c *Catalog) relatedTopRated(ctx context.Context, _ *models.Movie) ([]models.Movie, error) {
	query, err := filters.TopRated(1, c.cfg.RelatedLimit+1).Values()
	if err != nil {
		return nil, err
	}
	var raw []models.RawMovie
	if err := c.api.GetQuery(ctx, "/movies/", query, &raw); err != nil {
		return nil, err
	}
	return models.NormalizeMovies(raw), nil
}

// pickRelated drops the source movie and duplicates, then caps the
// list at the configured limit.
func (c *Catalog) pickRelated(sourceID int, candidates []models.Movie) []models.Movie {
	seen := map[int]bool{sourceID: true}
	var related []models.Movie
	for _, m := range candidates {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		related = append(related, m)
		if len(related) == c.cfg.RelatedLimit {
			break
		}
	}
	return related
}

// Refresh re-runs the active listing from page one.
func (c *Catalog) Refresh(ctx context.Context) []models.Movie {
	c.mu.Lock()
	st := c.state
	c.mu.Unlock()
	switch st.Mode {
	case ModeSearch:
		return c.Search(ctx, st.Query, st.Type, 1)
	case ModeGenre:
		return c.ByGenre(ctx, st.GenreID, 1)
	default:
		return c.LoadFeatured(ctx, 1)
	}
}

// Query returns a snapshot of the active listing.
func (c *Catalog) Query() QueryState {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state
	st.Results = append([]models.Movie(nil), st.Results...)
	return st
}

// Reset drops every cached entry and the listing state. Called on
// logout.
func (c *Catalog) Reset() {
	c.cache.Clear()
	c.mu.Lock()
	c.gen++
	c.state = QueryState{}
	c.lastErr = ""
	c.mu.Unlock()
}

func (c *Catalog) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Catalog) ClearErr() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = ""
}

// beginQuery stamps a new generation for the request and resets the
// listing when the query parameters changed or the caller starts over
// from page one. Returns the generation to pass to apply.
func (c *Catalog) beginQuery(next QueryState, page int) (uint64, int) {
	if page < 1 {
		page = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	changed := c.state.Mode != next.Mode ||
		c.state.Query != next.Query ||
		c.state.Type != next.Type ||
		c.state.GenreID != next.GenreID
	if changed || page <= 1 {
		next.Page = 0
		next.HasMore = false
		next.Results = nil
		c.state = next
	}
	return c.gen, page
}

// apply installs a page of results unless a newer query has started
// since, in which case the response is stale and dropped.
func (c *Catalog) apply(g uint64, page int, results []models.Movie) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g != c.gen {
		return
	}
	if page <= 1 {
		c.state.Results = append([]models.Movie(nil), results...)
	} else {
		seen := make(map[int]bool, len(c.state.Results))
		for _, m := range c.state.Results {
			seen[m.ID] = true
		}
		for _, m := range results {
			if !seen[m.ID] {
				c.state.Results = append(c.state.Results, m)
			}
		}
	}
	c.state.Page = page
	c.state.HasMore = len(results) == c.cfg.PageSize
	c.lastErr = ""
}

// setErr records a caller-facing message for the failure. Backend
// detail wins over the fallback; cancellations are not user errors.
func (c *Catalog) setErr(err error, fallback string) {
	if errors.Is(err, context.Canceled) {
		return
	}
	msg := fallback
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		msg = apiErr.Detail
	}
	c.mu.Lock()
	c.lastErr = msg
	c.mu.Unlock()
}
