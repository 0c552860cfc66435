package pkg

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WireLayout is the UTC instant format the location backend expects:
// millisecond precision and a literal Z, never a numeric offset.
const WireLayout = "2006-01-02T15:04:05.000Z"

// ErrInvalidTimestamp is returned when a client timestamp cannot be parsed.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// Accepted client layouts, most specific first. Fractional seconds are
// accepted after the seconds field without being named in the layout.
var clientLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02T15Z07:00",
	"2006-01-02T15",
	"2006-01-02",
}

// NormalizeTimestamp reads s as an ISO-8601 date-time and renders it in
// WireLayout. Inputs without a zone are taken to be in loc.
func NormalizeTimestamp(s string, loc *time.Location) (string, error) {
	t, err := ParseClientTime(s, loc)
	if err != nil {
		return "", err
	}
	return t.UTC().Format(WireLayout), nil
}

// ParseClientTime parses s with the accepted layouts. A space between the
// date and the time is treated like "T".
func ParseClientTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	in := strings.TrimSpace(s)
	if len(in) > 10 && in[10] == ' ' {
		in = in[:10] + "T" + in[11:]
	}
	for _, layout := range clientLayouts {
		if t, err := time.ParseInLocation(layout, in, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

var durationUnits = []struct {
	short string
	size  time.Duration
}{
	{"d", 24 * time.Hour},
	{"h", time.Hour},
	{"m", time.Minute},
	{"s", time.Second},
}

// SmartDurationFormat renders d compactly for access logs: sub-second
// values use a single unit, longer ones the two largest units ("1m5s").
func SmartDurationFormat(d time.Duration) string {
	switch {
	case d == 0:
		return "0"
	case d < time.Microsecond:
		return strconv.FormatInt(d.Nanoseconds(), 10) + "ns"
	case d < time.Millisecond:
		return strconv.FormatInt(d.Microseconds(), 10) + "μs"
	case d < time.Second:
		return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
	}

	var b strings.Builder
	rest, parts := d, 0
	for _, u := range durationUnits {
		if rest < u.size {
			continue
		}
		b.WriteString(strconv.FormatInt(int64(rest/u.size), 10))
		b.WriteString(u.short)
		rest %= u.size
		parts++
		if parts == 2 || rest == 0 {
			break
		}
	}
	return b.String()
}
