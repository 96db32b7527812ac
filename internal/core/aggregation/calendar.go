package aggregation

import (
	"fmt"
	"time"
)

const (
	dateLayout = "2006-01-02"
	hourLayout = "2006-01-02 15:04:05"
)

// Period is a local calendar range: a whole month when Day is zero, a single
// day otherwise. It is interpreted in the location passed to Generate.
type Period struct {
	Year  int
	Month int
	Day   int
}

// MonthPeriod validates year and month (1-12).
func MonthPeriod(year, month int) (Period, error) {
	if year < 1 || year > 9999 {
		return Period{}, fmt.Errorf("%w: year %d out of range", ErrInvalidQuery, year)
	}
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("%w: month %d out of range (1-12)", ErrInvalidQuery, month)
	}
	return Period{Year: year, Month: month}, nil
}

// DayPeriod parses a YYYY-MM-DD date.
func DayPeriod(date string) (Period, error) {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return Period{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidQuery, date)
	}
	return Period{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
}

func (p Period) String() string {
	if p.Day == 0 {
		return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
	}
	return fmt.Sprintf("%04d-%02d-%02d", p.Year, p.Month, p.Day)
}

// Calendar is the exhaustive, strictly ascending list of bucket keys for one
// query. Keys are UTC instants; [Start, End) covers every key's bucket.
type Calendar struct {
	Granularity Granularity
	Location    *time.Location
	Keys        []time.Time
	Start       time.Time
	End         time.Time
}

// Len returns the number of buckets.
func (c Calendar) Len() int { return len(c.Keys) }

// Label renders a key the way statistics results present it: "YYYY-MM-DD HH:mm:ss"
// for hourly buckets, "YYYY-MM-DD" for daily ones, both in the calendar's location.
func (c Calendar) Label(key time.Time) string {
	if c.Granularity == GranularityHour {
		return key.In(c.Location).Format(hourLayout)
	}
	return key.In(c.Location).Format(dateLayout)
}

// Generate builds the calendar for p. Hourly calendars need a single day and
// always have 24 keys; daily calendars need a whole month and have one key per day.
//
// Hourly keys advance by elapsed hours from local midnight, so a DST day still
// yields 24 distinct ascending instants. On a spring-forward day the last key is
// labelled 00:00 of the next local day (America/New_York 2024-03-10 ends with
// "2024-03-11 00:00:00"). On a fall-back day the repeated hour gets two keys and
// the local 23:00 hour falls outside the range.
func Generate(p Period, g Granularity, loc *time.Location) (Calendar, error) {
	if loc == nil {
		return Calendar{}, fmt.Errorf("%w: timezone is required", ErrInvalidQuery)
	}
	if _, err := MonthPeriod(p.Year, p.Month); err != nil {
		return Calendar{}, err
	}

	cal := Calendar{Granularity: g, Location: loc}
	month := time.Month(p.Month)

	switch g {
	case GranularityHour:
		if p.Day < 1 || p.Day > daysIn(p.Year, month) {
			return Calendar{}, fmt.Errorf("%w: hourly statistics need a single day, got %s", ErrInvalidQuery, p)
		}
		dayStart := time.Date(p.Year, month, p.Day, 0, 0, 0, 0, loc).UTC()
		cal.Keys = make([]time.Time, 24)
		for h := range cal.Keys {
			cal.Keys[h] = dayStart.Add(time.Duration(h) * time.Hour)
		}
		cal.Start = dayStart
		cal.End = cal.Keys[23].Add(time.Hour)

	case GranularityDay:
		if p.Day != 0 {
			return Calendar{}, fmt.Errorf("%w: daily statistics need a whole month, got %s", ErrInvalidQuery, p)
		}
		n := daysIn(p.Year, month)
		cal.Keys = make([]time.Time, n)
		for d := range cal.Keys {
			cal.Keys[d] = time.Date(p.Year, month, d+1, 0, 0, 0, 0, loc).UTC()
		}
		cal.Start = cal.Keys[0]
		cal.End = time.Date(p.Year, month+1, 1, 0, 0, 0, 0, loc).UTC()

	default:
		return Calendar{}, fmt.Errorf("%w: unsupported granularity %q", ErrInvalidQuery, g)
	}
	return cal, nil
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
