package aggregation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	coreerr "github.com/xcity-lab/telemetry/internal/core/errors"
)

// ErrInvalidQuery marks statistics requests that can never succeed (bad period,
// granularity, or timezone). It unwraps to the shared validation sentinel.
var ErrInvalidQuery = fmt.Errorf("%w: invalid statistics query", coreerr.ErrValidation)

// fixedZonePrefix names locations built from numeric offsets, e.g. "UTC+07:00".
const fixedZonePrefix = "UTC"

// BucketFor truncates t to the start of its hour or local calendar day in loc and
// returns that instant in UTC. Stores and the calendar must both use this mapping.
// Example: BucketFor(08:40+07:00, hour, +07:00) → 01:00Z (local 08:00).
func BucketFor(t time.Time, g Granularity, loc *time.Location) time.Time {
	local := t.In(loc)
	if g == GranularityDay {
		y, m, d := local.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc).UTC()
	}

	// Truncate in local wall-clock seconds so half-hour offsets (+05:30) land on
	// local hour boundaries too.
	_, offset := local.Zone()
	secs := local.Unix() + int64(offset)
	secs -= floorMod(secs, 3600)
	return time.Unix(secs-int64(offset), 0).UTC()
}

func floorMod(a, b int64) int64 {
	return ((a % b) + b) % b
}

// ParseTimezone resolves an IANA name ("Asia/Ho_Chi_Minh"), "UTC"/"Z", or a numeric
// offset ("+07:00", "-0330", "+07").
func ParseTimezone(s string) (*time.Location, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return nil, fmt.Errorf("%w: timezone must not be empty", ErrInvalidQuery)
	case "Z", "UTC", "utc":
		return time.UTC, nil
	}

	if s[0] == '+' || s[0] == '-' {
		offset, err := parseOffset(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		return time.FixedZone(fixedZonePrefix+FormatOffset(offset), offset), nil
	}

	loc, err := time.LoadLocation(s)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidQuery, s)
	}
	return loc, nil
}

func parseOffset(s string) (int, error) {
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	body := strings.ReplaceAll(s[1:], ":", "")

	var hh, mm int
	var err error
	switch len(body) {
	case 2:
		hh, err = strconv.Atoi(body)
	case 4:
		hh, err = strconv.Atoi(body[:2])
		if err == nil {
			mm, err = strconv.Atoi(body[2:])
		}
	default:
		return 0, fmt.Errorf("invalid offset %q", s)
	}
	if err != nil || hh > 14 || mm > 59 {
		return 0, fmt.Errorf("invalid offset %q", s)
	}
	return sign * (hh*3600 + mm*60), nil
}

// FormatOffset renders seconds east of UTC as ±HH:MM.
func FormatOffset(offset int) string {
	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	return fmt.Sprintf("%c%02d:%02d", sign, offset/3600, (offset%3600)/60)
}

// IsFixedOffset reports whether loc was built by ParseTimezone from a numeric
// offset, returning that offset.
func IsFixedOffset(loc *time.Location) (int, bool) {
	name := loc.String()
	if !strings.HasPrefix(name, fixedZonePrefix+"+") && !strings.HasPrefix(name, fixedZonePrefix+"-") {
		return 0, false
	}
	_, offset := time.Unix(0, 0).In(loc).Zone()
	return offset, true
}
