package fields

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovieRuntimeUnmarshal(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want MovieRuntime
	}{
		{"bare number", `152`, 152},
		{"suffixed string", `"152 min"`, 152},
		{"plain string number", `"90"`, 90},
		{"null", `null`, 0},
		{"unparseable", `"soon"`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var r MovieRuntime
			require.NoError(t, json.Unmarshal([]byte(tc.in), &r))
			assert.Equal(t, tc.want, r)
		})
	}
}

func TestMovieRuntimeMarshal(t *testing.T) {
	out, err := json.Marshal(MovieRuntime(152))
	require.NoError(t, err)
	assert.Equal(t, `"152 min"`, string(out))
}

func TestTimestampUnmarshalLayouts(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339", `"2024-03-01T10:30:00Z"`, time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)},
		{"python naive", `"2024-03-01T10:30:00.123456"`, time.Date(2024, 3, 1, 10, 30, 0, 123456000, time.UTC)},
		{"date only", `"2024-03-01"`, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tc.in), &ts))
			assert.True(t, tc.want.Equal(ts.Time), "got %v", ts.Time)
		})
	}
}

func TestTimestampUnparseableIsZero(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	assert.True(t, ts.IsZero())

	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())
}
