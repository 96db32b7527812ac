package storage

import (
	"context"
	"fmt"
	"time"

	v1 "github.com/xcity-lab/telemetry/internal/api/v1"
	"github.com/xcity-lab/telemetry/internal/core/aggregation"
	coreerr "github.com/xcity-lab/telemetry/internal/core/errors"
)

// ErrDeviceNotFound is returned by DeviceDirectory.Lookup for unknown ids.
var ErrDeviceNotFound = fmt.Errorf("%w: device", coreerr.ErrNotFound)

// AggregateQuery selects one sensor's readings in [Start, End) and groups them by
// BucketFor(observedAt, Granularity, Location). Fields lists what to reduce and how.
type AggregateQuery struct {
	SensorID    string
	Class       string
	Start       time.Time
	End         time.Time
	Granularity aggregation.Granularity
	Location    *time.Location
	Fields      []aggregation.FieldSpec
}

// ReadingStore is the append-only time-series store.
type ReadingStore interface {
	// Append persists one reading. Readings are never updated or deleted, and
	// duplicates for the same (sensor, instant) are kept.
	Append(ctx context.Context, reading *v1.SensorReading) error

	// Aggregate returns one row per non-empty bucket. BucketStart must be the
	// UTC instant produced by aggregation.BucketFor for the query's granularity
	// and location. Row order is unspecified.
	Aggregate(ctx context.Context, q AggregateQuery) ([]aggregation.AggregateRow, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// Device is registered sensor metadata.
type Device struct {
	ID        string
	Name      string
	Class     string
	CreatedAt time.Time
}

// DeviceDirectory resolves sensor ids to device metadata.
type DeviceDirectory interface {
	Lookup(ctx context.Context, id string) (Device, error)
}

// Unavailable wraps a backend failure so callers can match ErrStoreUnavailable.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, coreerr.ErrStoreUnavailable, err)
}
