package watchlist

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinescope/proj/internal/clients/api"
)

type fakeBackend struct {
	responses map[string]string
	errs      map[string]error
	requests  []string
}

func (f *fakeBackend) Get(_ context.Context, path string, dst any) error {
	return f.serve("GET "+path, dst)
}

func (f *fakeBackend) Post(_ context.Context, path string, _ any, dst any) error {
	return f.serve("POST "+path, dst)
}

func (f *fakeBackend) Delete(_ context.Context, path string, _ any, dst any) error {
	return f.serve("DELETE "+path, dst)
}

func (f *fakeBackend) serve(key string, dst any) error {
	f.requests = append(f.requests, key)
	if err, ok := f.errs[key]; ok {
		return err
	}
	body, ok := f.responses[key]
	if !ok {
		return &api.Error{Status: 404, Detail: "no canned response for " + key}
	}
	if dst == nil {
		return nil
	}
	return json.Unmarshal([]byte(body), dst)
}

type fakeSession bool

func (s fakeSession) IsAuthenticated() bool { return bool(s) }

// syncTasks runs every task inline so tests observe the side effects
// immediately.
type syncTasks struct{}

func (syncTasks) Add(task func()) { task() }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(noopWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 4}))
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestAddRequiresLogin(t *testing.T) {
	backend := &fakeBackend{}
	c := New(discardLogger(), backend, fakeSession(false), syncTasks{})

	ok := c.Add(context.Background(), 42)

	assert.False(t, ok)
	assert.Equal(t, "Please log in to manage your watchlist", c.Err())
	assert.Empty(t, backend.requests, "unauthenticated mutation must not reach the network")
}

func TestAddSuccess(t *testing.T) {
	backend := &fakeBackend{responses: map[string]string{
		"POST /watchlists":         `{"id": 10, "movie_id": 42, "user_id": 7}`,
		"GET /watchlists/stats":     `{"total_watchlist": 1, "watched": 0, "user_id": 7}`,
	}}
	c := New(discardLogger(), backend, fakeSession(true), syncTasks{})

	require.True(t, c.Add(context.Background(), 42))
	assert.True(t, c.InWatchlist(42))
	assert.Empty(t, c.Err())

	stats := c.Stats()
	require.NotNil(t, stats, "stats refresh runs after a successful add")
	assert.Equal(t, 1, stats.TotalWatchlist)
}

func TestAddDuplicateIsSuccess(t *testing.T) {
	backend := &fakeBackend{errs: map[string]error{
		"POST /watchlists": &api.Error{Status: 400, Detail: "Movie already in watchlist"},
	}}
	c := New(discardLogger(), backend, fakeSession(true), syncTasks{})

	ok := c.Add(context.Background(), 42)

	assert.True(t, ok, "re-adding a listed movie is not a failure")
	assert.True(t, c.InWatchlist(42))
	assert.Empty(t, c.Err())
}

func TestAddBackendFailure(t *testing.T) {
	backend := &fakeBackend{errs: map[string]error{
		"POST /watchlists": &api.Error{Status: 500, Detail: "Internal server error"},
	}}
	c := New(discardLogger(), backend, fakeSession(true), syncTasks{})

	ok := c.Add(context.Background(), 42)

	assert.False(t, ok)
	assert.False(t, c.InWatchlist(42))
	assert.Equal(t, "Internal server error", c.Err())
}

func TestLoadBuildsMembershipFlags(t *testing.T) {
	backend := &fakeBackend{responses: map[string]string{
		"GET /watchlists": `[
			{"id": 10, "movie_id": 42, "user_id": 7},
			{"id": 11, "movie_id": 43, "user_id": 7, "movie": {"id": 43, "title": "Arrival"}}
		]`,
	}}
	c := New(discardLogger(), backend, fakeSession(true), syncTasks{})

	entries := c.Load(context.Background())

	require.Len(t, entries, 2)
	assert.True(t, c.InWatchlist(42))
	assert.True(t, c.InWatchlist(43))
	assert.False(t, c.InWatchlist(99))
	require.NotNil(t, entries[1].Movie)
	assert.Equal(t, "Arrival", entries[1].Movie.Title)
}

func TestRemoveClearsFlag(t *testing.T) {
	backend := &fakeBackend{responses: map[string]string{
		"GET /watchlists":        `[{"id": 10, "movie_id": 42, "user_id": 7}]`,
		"DELETE /watchlists/42":   `{}`,
		"GET /watchlists/stats":   `{"total_watchlist": 0, "watched": 0, "user_id": 7}`,
	}}
	c := New(discardLogger(), backend, fakeSession(true), syncTasks{})

	c.Load(context.Background())
	require.True(t, c.InWatchlist(42))

	require.True(t, c.Remove(context.Background(), 42))
	assert.False(t, c.InWatchlist(42))
}

func TestResetDropsEverything(t *testing.T) {
	backend := &fakeBackend{responses: map[string]string{
		"GET /watchlists":      `[{"id": 10, "movie_id": 42, "user_id": 7}]`,
		"GET /watchlists/stats": `{"total_watchlist": 1, "watched": 0, "user_id": 7}`,
	}}
	c := New(discardLogger(), backend, fakeSession(true), syncTasks{})

	c.Load(context.Background())
	c.LoadStats(context.Background())

	c.Reset()

	assert.False(t, c.InWatchlist(42))
	assert.Nil(t, c.Stats())
	assert.Empty(t, c.Err())
}
