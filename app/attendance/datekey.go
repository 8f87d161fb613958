// Package attendance normalizes the date keys attendance records are stored
// under.
package attendance

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// KeyLayout is the layout of a normalized date key.
const KeyLayout = "2006-01-02"

// ErrInvalidDate is returned for input that is not a recognizable date.
var ErrInvalidDate = errors.New("invalid date")

var looseDate = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})$`)

// KeyFor returns the date key of t in loc.
func KeyFor(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(KeyLayout)
}

// DateKey normalizes input to a zero-padded YYYY-MM-DD key. It accepts
// YYYY-M-D with "-" or "/" separators and RFC 3339 timestamps, which are
// converted to loc before formatting. Empty input yields the key of now.
func DateKey(input string, loc *time.Location, now time.Time) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return KeyFor(now, loc), nil
	}

	if m := looseDate.FindStringSubmatch(input); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
		// time.Date normalizes overflow, so 2024-02-30 comes back as March.
		if t.Year() != year || int(t.Month()) != month || t.Day() != day {
			return "", fmt.Errorf("%w: %q", ErrInvalidDate, input)
		}
		return t.Format(KeyLayout), nil
	}

	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return KeyFor(t, loc), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDate, input)
}
