package comments

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

func (f *fakeBackend) Put(_ context.Context, path string, _ any, dst any) error {
	return f.serve("PUT "+path, dst)
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

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(noopWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 4}))
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestLoadNormalizesTextField(t *testing.T) {
	backend := &fakeBackend{responses: map[string]string{
		"GET /movies/1/comments/": `[
			{"id": 100, "text": "Loved it", "movie_id": 1, "user_id": 7, "likes": 3,
			 "user": {"id": 7, "username": "alice"}},
			{"id": 101, "text": "Not for me", "movie_id": 1, "user_id": 8, "likes": -2}
		]`,
	}}
	c := New(discardLogger(), backend)

	thread := c.Load(context.Background(), 1)

	require.Len(t, thread, 2)
	assert.Equal(t, "Loved it", thread[0].Content, "wire field text maps to Content")
	require.NotNil(t, thread[0].User)
	assert.Equal(t, "alice", thread[0].User.Username)
	assert.Equal(t, 0, thread[1].Likes, "negative like counts clamp to zero")
}

func TestAddPrependsToActiveThread(t *testing.T) {
	backend := &fakeBackend{responses: map[string]string{
		"GET /movies/1/comments/":  `[{"id": 100, "text": "First", "movie_id": 1, "user_id": 8}]`,
		"POST /movies/1/comments/": `{"id": 101, "text": "Great movie", "movie_id": 1, "user_id": 7}`,
	}}
	c := New(discardLogger(), backend)

	c.Load(context.Background(), 1)
	comment := c.Add(context.Background(), 1, "Great movie")

	require.NotNil(t, comment)
	assert.Equal(t, "Great movie", comment.Content)

	thread := c.Comments()
	require.Len(t, thread, 2)
	assert.Equal(t, int64(101), thread[0].ID, "new comment goes first")
}

func TestAddEmptyContentFailsFast(t *testing.T) {
	backend := &fakeBackend{}
	c := New(discardLogger(), backend)

	comment := c.Add(context.Background(), 1, "")

	assert.Nil(t, comment)
	assert.Equal(t, "Comment cannot be empty", c.Err())
	assert.Empty(t, backend.requests)
}

func TestUpdateReplacesInPlace(t *testing.T) {
	backend := &fakeBackend{responses: map[string]string{
		"GET /movies/1/comments/":  `[{"id": 100, "text": "Typo", "movie_id": 1, "user_id": 7}]`,
		"PUT /movies/1/comments/100": `{"id": 100, "text": "Fixed", "movie_id": 1, "user_id": 7}`,
	}}
	c := New(discardLogger(), backend)

	c.Load(context.Background(), 1)
	updated := c.Update(context.Background(), 1, 100, "Fixed")

	require.NotNil(t, updated)
	thread := c.Comments()
	require.Len(t, thread, 1)
	assert.Equal(t, "Fixed", thread[0].Content)
}

func TestDeleteRemovesFromThread(t *testing.T) {
	backend := &fakeBackend{responses: map[string]string{
		"GET /movies/1/comments/":       `[{"id": 100, "text": "Bye", "movie_id": 1, "user_id": 7}]`,
		"DELETE /movies/1/comments/100": `{}`,
	}}
	c := New(discardLogger(), backend)

	c.Load(context.Background(), 1)
	require.True(t, c.Delete(context.Background(), 1, 100))
	assert.Empty(t, c.Comments())
}

func TestLikeInstallsAuthoritativeCount(t *testing.T) {
	backend := &fakeBackend{responses: map[string]string{
		"GET /movies/1/comments/":          `[{"id": 100, "text": "Loved it", "movie_id": 1, "user_id": 7, "likes": 3}]`,
		"POST /movies/1/comments/100/like": `{"id": 100, "text": "Loved it", "movie_id": 1, "user_id": 7, "likes": 4}`,
	}}
	c := New(discardLogger(), backend)

	c.Load(context.Background(), 1)
	liked := c.Like(context.Background(), 1, 100)

	require.NotNil(t, liked)
	assert.Equal(t, 4, liked.Likes)
	assert.Equal(t, 4, c.Comments()[0].Likes)
}

func TestMineAndLiked(t *testing.T) {
	backend := &fakeBackend{responses: map[string]string{
		"GET /movies/comments/users/me/comments": `[{"id": 100, "text": "Mine", "movie_id": 1, "user_id": 7}]`,
		"GET /movies/comments/users/me/likes":    `[{"id": 200, "text": "Theirs", "movie_id": 2, "user_id": 8}]`,
	}}
	c := New(discardLogger(), backend)

	mine := c.Mine(context.Background())
	require.Len(t, mine, 1)
	assert.Equal(t, "Mine", mine[0].Content)

	liked := c.Liked(context.Background())
	require.Len(t, liked, 1)
	assert.Equal(t, "Theirs", liked[0].Content)
}

func TestBackendFailureRecordsDetail(t *testing.T) {
	backend := &fakeBackend{errs: map[string]error{
		"POST /movies/1/comments/": &api.Error{Status: 401, Detail: "Not authenticated"},
	}}
	c := New(discardLogger(), backend)

	comment := c.Add(context.Background(), 1, "Great movie")

	assert.Nil(t, comment)
	assert.Equal(t, "Not authenticated", c.Err())
}
