package sentiment

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	lastPath string
	lastBody any
	response string
	err      error
}

func (f *fakeBackend) Post(_ context.Context, path string, body any, dst any) error {
	f.lastPath = path
	f.lastBody = body
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.response), dst)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(noopWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 4}))
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestAnalyze(t *testing.T) {
	backend := &fakeBackend{response: `{
		"text": "I loved this movie!",
		"cleaned_text": "loved movie",
		"polarity": 0.7,
		"subjectivity": 0.6,
		"sentiment": "positive"
	}`}
	s := New(discardLogger(), backend)

	result, err := s.Analyze(context.Background(), "  I loved this movie!  ")

	require.NoError(t, err)
	assert.Equal(t, "/sentiment/analyze", backend.lastPath)
	assert.Equal(t, map[string]string{"text": "I loved this movie!"}, backend.lastBody)
	assert.Equal(t, "positive", result.Sentiment)
	assert.InDelta(t, 0.7, result.Polarity, 1e-9)
}

func TestAnalyzeEmptyText(t *testing.T) {
	s := New(discardLogger(), &fakeBackend{})
	_, err := s.Analyze(context.Background(), "   ")
	assert.Error(t, err)
}
