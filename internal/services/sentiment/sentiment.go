package sentiment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cinescope/proj/internal/domain/models"
)

// Backend is the slice of the API client the service needs.
type Backend interface {
	Post(ctx context.Context, path string, body any, dst any) error
}

// Service scores free text against the backend's sentiment model.
type Service struct {
	log *slog.Logger
	api Backend
}

func New(log *slog.Logger, apiClient Backend) *Service {
	return &Service{log: log, api: apiClient}
}

// Analyze returns the polarity and subjectivity scores for the text.
func (s *Service) Analyze(ctx context.Context, text string) (*models.Sentiment, error) {
	const op = "sentiment.Service.Analyze"

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%s: empty text", op)
	}

	var result models.Sentiment
	if err := s.api.Post(ctx, "/sentiment/analyze", map[string]string{"text": text}, &result); err != nil {
		s.log.With("op", op).Warn("analysis failed", "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}
