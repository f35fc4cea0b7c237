package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// TokenSource supplies the current bearer token. ok is false when the
// session is anonymous or the stored token has expired, in which case
// the request goes out without an Authorization header.
type TokenSource interface {
	Get() (token string, ok bool)
}

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateRps   float64
	RateBurst int
}

// Client is the single outbound HTTP gateway. Every backend request
// goes through do: token attachment, request ids, rate limiting and
// error mapping all live here and nowhere else.
type Client struct {
	log            *slog.Logger
	http           *http.Client
	baseURL        string
	tokens         TokenSource
	limiter        *rate.Limiter
	onUnauthorized func()
}

func New(log *slog.Logger, cfg Config, tokens TokenSource) *Client {
	limit := rate.Inf
	if cfg.RateRps > 0 {
		limit = rate.Limit(cfg.RateRps)
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}
	return &Client{
		log:     log,
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		tokens:  tokens,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// OnUnauthorized registers the single 401 handler. Wiring sets this to
// the session's forced logout, so an expired token anywhere drops the
// whole session to anonymous exactly once per incident.
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

func (c *Client) Get(ctx context.Context, path string, dst any) error {
	return c.do(ctx, http.MethodGet, path, "", nil, dst)
}

// GetQuery issues a GET with the given query parameters appended.
func (c *Client) GetQuery(ctx context.Context, path string, query url.Values, dst any) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, "", nil, dst)
}

func (c *Client) Post(ctx context.Context, path string, body any, dst any) error {
	r, err := encodeJSON(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, "application/json", r, dst)
}

// PostForm issues a POST with a form-urlencoded body. The login
// endpoint is the only caller; everything else speaks JSON.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, dst any) error {
	body := strings.NewReader(form.Encode())
	return c.do(ctx, http.MethodPost, path, "application/x-www-form-urlencoded", body, dst)
}

func (c *Client) Put(ctx context.Context, path string, body any, dst any) error {
	r, err := encodeJSON(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, path, "application/json", r, dst)
}

func (c *Client) Delete(ctx context.Context, path string, body any, dst any) error {
	r, err := encodeJSON(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, path, "application/json", r, dst)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, dst any) error {
	const op = "api.Client.do"
	log := c.log.With("op", op, "method", method, "path", path)

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token, ok := c.tokens.Get(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode, Detail: extractDetail(raw)}
		log.Warn("request failed", "status", resp.StatusCode, "detail", apiErr.Detail)
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return apiErr
	}

	if dst == nil || resp.StatusCode == http.StatusNoContent || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func encodeJSON(body any) (io.Reader, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return bytes.NewReader(data), nil
}

// extractDetail pulls the message out of an error body. The backend
// responds with {"detail": "..."} most of the time, but validation
// errors carry a list of objects and some routes use other keys.
func extractDetail(raw []byte) string {
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	if len(envelope.Detail) > 0 {
		var s string
		if err := json.Unmarshal(envelope.Detail, &s); err == nil {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(envelope.Detail, &items); err == nil && len(items) > 0 {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return envelope.Error
}
