package reservation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Layouts accepted for show times, tried in order.  Layouts without a zone
// are read as UTC.
var showTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// NormalizeShowTime parses raw into a UTC instant truncated to the second.
// Inputs carrying an offset are converted to UTC.  Two spellings of the same
// instant therefore normalize to equal values.
func NormalizeShowTime(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: show time is required", ErrInvalidArgument)
	}
	for _, layout := range showTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized show time %q", ErrInvalidArgument, raw)
}

// FormatShowTime renders a show time the way the API returns it.
func FormatShowTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// ParseTicketCount converts a decoded JSON value into a ticket count.  It
// accepts JSON numbers with no fractional part and decimal strings.  Anything
// else, including 2.5, "abc" and values outside int64, is ErrInvalidArgument.
// The sign is not checked here; Reserve rejects counts below one.
func ParseTicketCount(v any) (int64, error) {
	bad := func() (int64, error) {
		return 0, fmt.Errorf("%w: numberOfTickets must be an integer", ErrInvalidArgument)
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint32:
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || n >= math.MaxInt64 || n <= math.MinInt64 {
			return bad()
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return bad()
		}
		return i, nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return bad()
		}
		return i, nil
	}
	return bad()
}
