package reservation

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeShowTime(t *testing.T) {
	want := time.Date(2030, 6, 1, 19, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2030-06-01T19:00:00Z", want},
		{"2030-06-01T19:00:00.750Z", want},
		{"2030-06-01T21:00:00+02:00", want},
		{"2030-06-01T14:00:00-05:00", want},
		{"2030-06-01T19:00:00", want},
		{"2030-06-01T19:00", want},
		{"2030-06-01 19:00:00", want},
		{"  2030-06-01 19:00  ", want},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeShowTime(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestNormalizeShowTimeRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "01/06/2030", "2030-13-01T10:00:00Z", "19:00"} {
		_, err := NormalizeShowTime(in)
		assert.ErrorIs(t, err, ErrInvalidArgument, "input %q", in)
	}
}

func TestFormatShowTime(t *testing.T) {
	in := time.Date(2030, 6, 1, 21, 0, 0, 500, time.FixedZone("CEST", 7200))
	assert.Equal(t, "2030-06-01T19:00:00Z", FormatShowTime(in))
}

func TestParseTicketCount(t *testing.T) {
	ok := []struct {
		in   any
		want int64
	}{
		{float64(3), 3},
		{float64(-2), -2},
		{json.Number("7"), 7},
		{"4", 4},
		{" 12 ", 12},
		{5, 5},
	}
	for _, tt := range ok {
		got, err := ParseTicketCount(tt.in)
		require.NoError(t, err, "input %#v", tt.in)
		assert.Equal(t, tt.want, got)
	}

	for _, in := range []any{2.5, "abc", "1.5", nil, true, json.Number("1e400"), []any{1}} {
		_, err := ParseTicketCount(in)
		assert.ErrorIs(t, err, ErrInvalidArgument, "input %#v", in)
	}
}
