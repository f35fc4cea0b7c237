package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	token string
	ok    bool
}

func (s staticTokens) Get() (string, bool) { return s.token, s.ok }

func newTestClient(t *testing.T, handler http.HandlerFunc, tokens TokenSource) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	log := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	return New(log, Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, tokens)
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func TestAttachesBearerAndRequestID(t *testing.T) {
	var gotAuth, gotRequestID, gotAccept string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{"ok":true}`))
	}, staticTokens{token: "tok-123", ok: true})

	var dst map[string]bool
	require.NoError(t, client.Get(context.Background(), "/ping", &dst))

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "application/json", gotAccept)
	assert.True(t, dst["ok"])
}

func TestAnonymousRequestHasNoAuthHeader(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}, staticTokens{})

	require.NoError(t, client.Get(context.Background(), "/ping", nil))
	assert.Empty(t, gotAuth)
}

func TestErrorDetailExtraction(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"string detail", `{"detail": "Movie already in watchlist"}`, "Movie already in watchlist"},
		{"list detail", `{"detail": [{"msg": "field required"}, {"msg": "value too short"}]}`, "field required; value too short"},
		{"message key", `{"message": "nope"}`, "nope"},
		{"error key", `{"error": "broken"}`, "broken"},
		{"garbage", `<html>504</html>`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tc.body))
			}, staticTokens{})

			err := client.Get(context.Background(), "/x", nil)
			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
			assert.Equal(t, tc.want, apiErr.Detail)
		})
	}
}

func TestUnauthorizedInvokesHandlerAndMatchesSentinel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "Could not validate credentials"}`))
	}, staticTokens{token: "stale", ok: true})

	notified := 0
	client.OnUnauthorized(func() { notified++ })

	err := client.Get(context.Background(), "/auth/me", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthenticated))
	assert.Equal(t, 1, notified)
}

func TestNotFoundMatchesSentinel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}, staticTokens{})

	err := client.Get(context.Background(), "/movies/999999", nil)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPostFormSendsURLEncodedBody(t *testing.T) {
	var gotContentType, gotUsername string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseForm())
		gotUsername = r.PostFormValue("username")
		w.Write([]byte(`{}`))
	}, staticTokens{})

	form := url.Values{}
	form.Set("username", "alice@example.com")
	form.Set("password", "secret")
	require.NoError(t, client.PostForm(context.Background(), "/auth/token", form, nil))

	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "alice@example.com", gotUsername)
}

func TestEmptyBodyWithDstIsNotAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, staticTokens{})

	var dst map[string]any
	assert.NoError(t, client.Delete(context.Background(), "/watchlists/1", nil, &dst))
	assert.Nil(t, dst)
}

func TestGetQueryAppendsParams(t *testing.T) {
	var gotQuery url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`[]`))
	}, staticTokens{})

	params := url.Values{}
	params.Set("limit", "20")
	params.Set("sort_by", "imdb_rating")
	var dst []any
	require.NoError(t, client.GetQuery(context.Background(), "/movies/", params, &dst))

	assert.Equal(t, "20", gotQuery.Get("limit"))
	assert.Equal(t, "imdb_rating", gotQuery.Get("sort_by"))
}
