package aggregation

import (
	"fmt"
	"time"

	"github.com/guregu/null"
)

// Supported aggregation operators.
// mean is for intensive quantities (temperature, concentration, speed);
// sum is for extensive ones (vehicle counts).
const (
	OpMean = "mean"
	OpSum  = "sum"
)

// Granularity is the truncation unit that maps an instant to its bucket start.
type Granularity string

const (
	GranularityHour Granularity = "hour"
	GranularityDay  Granularity = "day"
)

// ParseGranularity accepts "hour"/"1h" and "day"/"1d".
func ParseGranularity(s string) (Granularity, error) {
	switch s {
	case "hour", "1h":
		return GranularityHour, nil
	case "day", "1d":
		return GranularityDay, nil
	default:
		return "", fmt.Errorf("%w: unsupported granularity %q (must be hour or day)", ErrInvalidQuery, s)
	}
}

// AggregateRow is one group returned by a store's aggregate query.
// BucketStart is the UTC instant of the truncated bucket; Fields is keyed by field name.
type AggregateRow struct {
	BucketStart time.Time
	Fields      map[string]null.Float
}

// AggregateBucket is one entry of a dense statistics result.
// A bucket with no contributing readings has a nil Fields map.
type AggregateBucket struct {
	Key    time.Time
	Fields map[string]null.Float
}

// Value returns the named aggregate, null when the bucket had no data.
func (b AggregateBucket) Value(field string) null.Float {
	if b.Fields == nil {
		return null.Float{}
	}
	return b.Fields[field]
}
