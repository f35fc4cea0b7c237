package fields

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MovieRuntime is a movie length in minutes. The backend serializes it
// as a string like "152 min"; some records carry a bare number instead.
type MovieRuntime int32

func (m MovieRuntime) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(fmt.Sprintf("%d min", m))), nil
}

func (m *MovieRuntime) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*m = 0
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		*m = MovieRuntime(n)
		return nil
	}
	unquoted, err := strconv.Unquote(s)
	if err != nil {
		*m = 0
		return nil
	}
	parts := strings.Fields(unquoted)
	if len(parts) == 0 {
		*m = 0
		return nil
	}
	n, err := strconv.ParseInt(parts[0], 10, 32)
	if err != nil {
		*m = 0
		return nil
	}
	*m = MovieRuntime(n)
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999 -0700 MST",
	"2006-01-02",
}

// Timestamp decodes the backend's assorted datetime formats. Values
// that cannot be parsed degrade to the zero time instead of failing
// the whole payload.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		t.Time = time.Time{}
		return nil
	}
	unquoted, err := strconv.Unquote(s)
	if err != nil {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, unquoted); err == nil {
			t.Time = parsed
			return nil
		}
	}
	t.Time = time.Time{}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(t.Format(time.RFC3339))), nil
}
