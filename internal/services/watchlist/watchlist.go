package watchlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"cinescope/proj/internal/clients/api"
	"cinescope/proj/internal/domain/models"
)

const loginRequiredMsg = "Please log in to manage your watchlist"

// Backend is the slice of the API client the coordinator needs.
type Backend interface {
	Get(ctx context.Context, path string, dst any) error
	Post(ctx context.Context, path string, body any, dst any) error
	Delete(ctx context.Context, path string, body any, dst any) error
}

// Session answers whether a user is logged in. Mutations are refused
// locally when not, without touching the network.
type Session interface {
	IsAuthenticated() bool
}

// Tasks runs work off the caller's path, for stats refreshes that
// should not block a mutation's result.
type Tasks interface {
	Add(task func())
}

// Coordinator owns the user's watchlist: entries, per-movie membership
// flags and the aggregate stats, kept consistent across mutations.
type Coordinator struct {
	log     *slog.Logger
	api     Backend
	session Session
	tasks   Tasks

	mu      sync.Mutex
	entries []models.WatchlistEntry
	inList  map[int]bool
	stats   *models.WatchlistStats
	lastErr string
}

func New(log *slog.Logger, apiClient Backend, session Session, tasks Tasks) *Coordinator {
	return &Coordinator{
		log:     log,
		api:     apiClient,
		session: session,
		tasks:   tasks,
		inList:  make(map[int]bool),
	}
}

// Load fetches the full watchlist and rebuilds the membership flags.
func (c *Coordinator) Load(ctx context.Context) []models.WatchlistEntry {
	const op = "watchlist.Coordinator.Load"

	if !c.session.IsAuthenticated() {
		c.setErrMsg(loginRequiredMsg)
		return nil
	}
	var entries []models.WatchlistEntry
	if err := c.api.Get(ctx, "/watchlists", &entries); err != nil {
		c.log.With("op", op).Warn("fetch failed", "err", err)
		c.setErr(err, "Could not load your watchlist")
		return nil
	}

	c.mu.Lock()
	c.entries = entries
	c.inList = make(map[int]bool, len(entries))
	for _, e := range entries {
		c.inList[e.MovieID] = true
	}
	c.lastErr = ""
	c.mu.Unlock()
	return entries
}

// Add puts the movie on the watchlist. Adding a movie that is already
// there is not an error: the membership flag is confirmed and the call
// reports success. Reports false only on auth or backend failure.
func (c *Coordinator) Add(ctx context.Context, movieID int) bool {
	const op = "watchlist.Coordinator.Add"
	log := c.log.With("op", op, "movie_id", movieID)

	if !c.session.IsAuthenticated() {
		c.setErrMsg(loginRequiredMsg)
		return false
	}

	var entry models.WatchlistEntry
	err := c.api.Post(ctx, "/watchlists", map[string]int{"movie_id": movieID}, &entry)
	if err != nil {
		if isDuplicate(err) {
			log.Info("already in watchlist")
			c.mu.Lock()
			c.inList[movieID] = true
			c.lastErr = ""
			c.mu.Unlock()
			return true
		}
		log.Warn("add failed", "err", err)
		c.setErr(err, "Could not add the movie to your watchlist")
		return false
	}

	c.mu.Lock()
	c.inList[movieID] = true
	c.entries = append(c.entries, entry)
	c.lastErr = ""
	c.mu.Unlock()

	c.tasks.Add(func() { c.refreshStats(context.Background()) })
	return true
}

// Remove takes the movie off the watchlist and clears its membership
// flag. The backend keys deletion by movie id.
func (c *Coordinator) Remove(ctx context.Context, movieID int) bool {
	const op = "watchlist.Coordinator.Remove"
	log := c.log.With("op", op, "movie_id", movieID)

	if !c.session.IsAuthenticated() {
		c.setErrMsg(loginRequiredMsg)
		return false
	}

	if err := c.api.Delete(ctx, fmt.Sprintf("/watchlists/%d", movieID), nil, nil); err != nil {
		log.Warn("remove failed", "err", err)
		c.setErr(err, "Could not remove the movie from your watchlist")
		return false
	}

	c.mu.Lock()
	kept := c.entries[:0]
	for _, e := range c.entries {
		if e.MovieID == movieID {
			continue
		}
		kept = append(kept, e)
	}
	c.entries = kept
	delete(c.inList, movieID)
	c.lastErr = ""
	c.mu.Unlock()

	c.tasks.Add(func() { c.refreshStats(context.Background()) })
	return true
}

// InWatchlist reports the locally known membership of the movie.
func (c *Coordinator) InWatchlist(movieID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inList[movieID]
}

// Stats returns the last loaded aggregate counts, or nil before the
// first load.
func (c *Coordinator) Stats() *models.WatchlistStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stats == nil {
		return nil
	}
	s := *c.stats
	return &s
}

// LoadStats fetches the aggregate counts synchronously.
func (c *Coordinator) LoadStats(ctx context.Context) *models.WatchlistStats {
	if !c.session.IsAuthenticated() {
		c.setErrMsg(loginRequiredMsg)
		return nil
	}
	c.refreshStats(ctx)
	return c.Stats()
}

func (c *Coordinator) refreshStats(ctx context.Context) {
	const op = "watchlist.Coordinator.refreshStats"
	var stats models.WatchlistStats
	if err := c.api.Get(ctx, "/watchlists/stats", &stats); err != nil {
		c.log.With("op", op).Warn("stats refresh failed", "err", err)
		c.setErr(err, "Could not load watchlist stats")
		return
	}
	c.mu.Lock()
	c.stats = &stats
	c.mu.Unlock()
}

func (c *Coordinator) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Coordinator) ClearErr() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = ""
}

// Reset drops all per-user state. Called on logout.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.inList = make(map[int]bool)
	c.stats = nil
	c.lastErr = ""
}

func (c *Coordinator) setErr(err error, fallback string) {
	if errors.Is(err, context.Canceled) {
		return
	}
	msg := fallback
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		msg = apiErr.Detail
	}
	c.setErrMsg(msg)
}

func (c *Coordinator) setErrMsg(msg string) {
	c.mu.Lock()
	c.lastErr = msg
	c.mu.Unlock()
}

// isDuplicate matches the backend's rejection of a movie that is
// already on the list.
func isDuplicate(err error) bool {
	var apiErr *api.Error
	return errors.As(err, &apiErr) &&
		apiErr.Status == 400 &&
		strings.Contains(strings.ToLower(apiErr.Detail), "already in watchlist")
}
