package comments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"cinescope/proj/internal/clients/api"
	"cinescope/proj/internal/domain/models"
)

// Backend is the slice of the API client the coordinator needs.
type Backend interface {
	Get(ctx context.Context, path string, dst any) error
	Post(ctx context.Context, path string, body any, dst any) error
	Put(ctx context.Context, path string, body any, dst any) error
	Delete(ctx context.Context, path string, body any, dst any) error
}

// Coordinator holds the comment thread of one movie at a time and
// keeps the local list in step with every mutation.
type Coordinator struct {
	log *slog.Logger
	api Backend

	mu       sync.Mutex
	movieID  int
	comments []models.Comment
	lastErr  string
}

func New(log *slog.Logger, apiClient Backend) *Coordinator {
	return &Coordinator{log: log, api: apiClient}
}

// Load fetches the thread for the movie and makes it the active one.
func (c *Coordinator) Load(ctx context.Context, movieID int) []models.Comment {
	const op = "comments.Coordinator.Load"

	var raw []models.RawComment
	if err := c.api.Get(ctx, fmt.Sprintf("/movies/%d/comments/", movieID), &raw); err != nil {
		c.log.With("op", op).Warn("fetch failed", "movie_id", movieID, "err", err)
		c.setErr(err, "Could not load comments")
		return nil
	}
	normalized := models.NormalizeComments(raw)

	c.mu.Lock()
	c.movieID = movieID
	c.comments = normalized
	c.lastErr = ""
	c.mu.Unlock()
	return normalized
}

// Add posts a comment and prepends it to the active thread. Returns
// nil when the content is empty or the backend refuses it.
func (c *Coordinator) Add(ctx context.Context, movieID int, content string) *models.Comment {
	const op = "comments.Coordinator.Add"

	if content == "" {
		c.setErrMsg("Comment cannot be empty")
		return nil
	}

	var raw models.RawComment
	body := map[string]any{"text": content, "movie_id": movieID}
	if err := c.api.Post(ctx, fmt.Sprintf("/movies/%d/comments/", movieID), body, &raw); err != nil {
		c.log.With("op", op).Warn("add failed", "movie_id", movieID, "err", err)
		c.setErr(err, "Could not post your comment")
		return nil
	}
	comment := *raw.Normalize()

	c.mu.Lock()
	if c.movieID == movieID {
		c.comments = append([]models.Comment{comment}, c.comments...)
	}
	c.lastErr = ""
	c.mu.Unlock()
	return &comment
}

// Update edits a comment's content in place.
func (c *Coordinator) Update(ctx context.Context, movieID int, commentID int64, content string) *models.Comment {
	const op = "comments.Coordinator.Update"

	if content == "" {
		c.setErrMsg("Comment cannot be empty")
		return nil
	}

	var raw models.RawComment
	body := map[string]string{"text": content}
	if err := c.api.Put(ctx, fmt.Sprintf("/movies/%d/comments/%d", movieID, commentID), body, &raw); err != nil {
		c.log.With("op", op).Warn("update failed", "comment_id", commentID, "err", err)
		c.setErr(err, "Could not update your comment")
		return nil
	}
	comment := *raw.Normalize()

	c.replace(comment)
	return &comment
}

// Delete removes the comment from the backend and the local thread.
func (c *Coordinator) Delete(ctx context.Context, movieID int, commentID int64) bool {
	const op = "comments.Coordinator.Delete"

	if err := c.api.Delete(ctx, fmt.Sprintf("/movies/%d/comments/%d", movieID, commentID), nil, nil); err != nil {
		c.log.With("op", op).Warn("delete failed", "comment_id", commentID, "err", err)
		c.setErr(err, "Could not delete the comment")
		return false
	}

	c.mu.Lock()
	kept := c.comments[:0]
	for _, cm := range c.comments {
		if cm.ID != commentID {
			kept = append(kept, cm)
		}
	}
	c.comments = kept
	c.lastErr = ""
	c.mu.Unlock()
	return true
}

// Like toggles the caller's like and installs the returned comment,
// whose like count is authoritative.
func (c *Coordinator) Like(ctx context.Context, movieID int, commentID int64) *models.Comment {
	const op = "comments.Coordinator.Like"

	var raw models.RawComment
	if err := c.api.Post(ctx, fmt.Sprintf("/movies/%d/comments/%d/like", movieID, commentID), nil, &raw); err != nil {
		c.log.With("op", op).Warn("like failed", "comment_id", commentID, "err", err)
		c.setErr(err, "Could not like the comment")
		return nil
	}
	comment := *raw.Normalize()

	c.replace(comment)
	return &comment
}

// Mine returns every comment the current user has written.
func (c *Coordinator) Mine(ctx context.Context) []models.Comment {
	const op = "comments.Coordinator.Mine"

	var raw []models.RawComment
	if err := c.api.Get(ctx, "/movies/comments/users/me/comments", &raw); err != nil {
		c.log.With("op", op).Warn("fetch failed", "err", err)
		c.setErr(err, "Could not load your comments")
		return nil
	}
	return models.NormalizeComments(raw)
}

// Liked returns every comment the current user has liked.
func (c *Coordinator) Liked(ctx context.Context) []models.Comment {
	const op = "comments.Coordinator.Liked"

	var raw []models.RawComment
	if err := c.api.Get(ctx, "/movies/comments/users/me/likes", &raw); err != nil {
		c.log.With("op", op).Warn("fetch failed", "err", err)
		c.setErr(err, "Could not load your liked comments")
		return nil
	}
	return models.NormalizeComments(raw)
}

// Comments returns a snapshot of the active thread.
func (c *Coordinator) Comments() []models.Comment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Comment(nil), c.comments...)
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

// Reset drops the active thread. Called on logout.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.movieID = 0
	c.comments = nil
	c.lastErr = ""
}

func (c *Coordinator) replace(comment models.Comment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.comments {
		if c.comments[i].ID == comment.ID {
			c.comments[i] = comment
			break
		}
	}
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
