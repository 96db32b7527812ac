package aggregation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertStrictlyAscending(t *testing.T, keys []time.Time) {
	t.Helper()
	for i := 1; i < len(keys); i++ {
		if !keys[i].After(keys[i-1]) {
			t.Fatalf("keys[%d]=%v is not after keys[%d]=%v", i, keys[i], i-1, keys[i-1])
		}
	}
}

func TestGenerate_DailyCoversWholeMonth(t *testing.T) {
	hcm, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	require.NoError(t, err)

	tests := []struct {
		year, month int
		want        int
	}{
		{2024, 1, 31},
		{2024, 2, 29}, // leap
		{2023, 2, 28},
		{1900, 2, 28}, // century, not leap
		{2000, 2, 29},
		{2024, 4, 30},
		{2024, 12, 31},
	}

	for _, loc := range []*time.Location{time.UTC, hcm} {
		for _, tt := range tests {
			p, err := MonthPeriod(tt.year, tt.month)
			require.NoError(t, err)

			cal, err := Generate(p, GranularityDay, loc)
			require.NoError(t, err)
			require.Len(t, cal.Keys, tt.want, "%d-%02d in %s", tt.year, tt.month, loc)
			assertStrictlyAscending(t, cal.Keys)

			for i, k := range cal.Keys {
				local := k.In(loc)
				assert.Equal(t, i+1, local.Day())
				assert.Zero(t, local.Hour())
				assert.Equal(t, time.UTC, k.Location())
				assert.Equal(t, BucketFor(k, GranularityDay, loc), k)
			}
			assert.Equal(t, cal.Keys[0], cal.Start)
			assert.Equal(t, 1, cal.End.In(loc).Day())
		}
	}
}

func TestGenerate_HourlyHas24Keys(t *testing.T) {
	plus7, err := ParseTimezone("+07:00")
	require.NoError(t, err)

	p, err := DayPeriod("2024-05-01")
	require.NoError(t, err)

	cal, err := Generate(p, GranularityHour, plus7)
	require.NoError(t, err)
	require.Len(t, cal.Keys, 24)
	assertStrictlyAscending(t, cal.Keys)

	assert.Equal(t, time.Date(2024, 4, 30, 17, 0, 0, 0, time.UTC), cal.Start)
	assert.Equal(t, time.Date(2024, 5, 1, 17, 0, 0, 0, time.UTC), cal.End)
	assert.Equal(t, "2024-05-01 08:00:00", cal.Label(cal.Keys[8]))
	for _, k := range cal.Keys {
		assert.Equal(t, BucketFor(k, GranularityHour, plus7), k)
	}
}

func TestGenerate_HourlyAcrossDSTTransition(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	for _, date := range []string{"2024-03-10", "2024-11-03"} {
		p, err := DayPeriod(date)
		require.NoError(t, err)

		cal, err := Generate(p, GranularityHour, ny)
		require.NoError(t, err)
		require.Len(t, cal.Keys, 24, date)
		assertStrictlyAscending(t, cal.Keys)
		assert.Equal(t, 24*time.Hour, cal.End.Sub(cal.Start))
	}
}

func TestGenerate_HourlyDSTLabels(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	p, err := DayPeriod("2024-03-10")
	require.NoError(t, err)
	cal, err := Generate(p, GranularityHour, ny)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10 00:00:00", cal.Label(cal.Keys[0]))
	assert.Equal(t, "2024-03-10 03:00:00", cal.Label(cal.Keys[2]))
	assert.Equal(t, "2024-03-11 00:00:00", cal.Label(cal.Keys[23]))

	p, err = DayPeriod("2024-11-03")
	require.NoError(t, err)
	cal, err = Generate(p, GranularityHour, ny)
	require.NoError(t, err)
	assert.Equal(t, "2024-11-03 01:00:00", cal.Label(cal.Keys[1]))
	assert.Equal(t, "2024-11-03 01:00:00", cal.Label(cal.Keys[2]))
	assert.Equal(t, "2024-11-03 22:00:00", cal.Label(cal.Keys[23]))
}

func TestGenerate_Labels(t *testing.T) {
	p, err := MonthPeriod(2024, 2)
	require.NoError(t, err)
	cal, err := Generate(p, GranularityDay, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, "2024-02-01", cal.Label(cal.Keys[0]))
	assert.Equal(t, "2024-02-29", cal.Label(cal.Keys[28]))
}

func TestGenerate_RejectsMismatchedPeriods(t *testing.T) {
	day, err := DayPeriod("2024-05-01")
	require.NoError(t, err)
	month, err := MonthPeriod(2024, 5)
	require.NoError(t, err)

	tests := []struct {
		name string
		p    Period
		g    Granularity
		loc  *time.Location
	}{
		{"hourly over a month", month, GranularityHour, time.UTC},
		{"daily over a day", day, GranularityDay, time.UTC},
		{"nil location", day, GranularityHour, nil},
		{"unknown granularity", day, Granularity("week"), time.UTC},
		{"day out of range", Period{Year: 2023, Month: 2, Day: 29}, GranularityHour, time.UTC},
		{"month out of range", Period{Year: 2024, Month: 13}, GranularityDay, time.UTC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tt.p, tt.g, tt.loc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidQuery))
		})
	}
}

func TestPeriodParsing(t *testing.T) {
	_, err := DayPeriod("2024-13-01")
	assert.ErrorIs(t, err, ErrInvalidQuery)
	_, err = DayPeriod("01/05/2024")
	assert.ErrorIs(t, err, ErrInvalidQuery)
	_, err = MonthPeriod(2024, 0)
	assert.ErrorIs(t, err, ErrInvalidQuery)

	p, err := DayPeriod("2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", p.String())
	assert.Equal(t, "2024-05", Period{Year: 2024, Month: 5}.String())
}
