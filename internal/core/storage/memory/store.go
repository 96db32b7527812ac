// Package memory provides in-process implementations of the storage ports for
// development and tests. Data is lost on restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/guregu/null"
	"github.com/shopspring/decimal"

	v1 "github.com/xcity-lab/telemetry/internal/api/v1"
	"github.com/xcity-lab/telemetry/internal/core/aggregation"
	"github.com/xcity-lab/telemetry/internal/core/partition"
	"github.com/xcity-lab/telemetry/internal/core/storage"
)

type seriesKey struct {
	sensorID string
	class    string
}

// shard holds the series of the sensors that hash to one partition.
type shard struct {
	mu     sync.RWMutex
	series map[seriesKey][]v1.SensorReading
}

// Store is an append-only reading store that aggregates on read using the same
// BucketFor mapping as the calendar. Series are striped over partition.Count
// shards so writers for different sensors rarely contend.
type Store struct {
	shards [partition.Count]shard
	count  atomic.Int64
}

func NewStore() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i].series = make(map[seriesKey][]v1.SensorReading)
	}
	return s
}

func (s *Store) shardFor(sensorID string) *shard {
	return &s.shards[partition.For(sensorID)]
}

// Append stores a copy of the reading.
func (s *Store) Append(ctx context.Context, reading *v1.SensorReading) error {
	if err := ctx.Err(); err != nil {
		return storage.Unavailable("append reading", err)
	}
	if err := reading.Validate(); err != nil {
		return fmt.Errorf("invalid reading: %w", err)
	}

	cp := *reading
	cp.Fields = append([]v1.FieldValue(nil), reading.Fields...)
	cp.ObservedAt = reading.ObservedAt.UTC()

	key := seriesKey{sensorID: reading.SensorID, class: reading.Class}

	sh := s.shardFor(reading.SensorID)
	sh.mu.Lock()
	sh.series[key] = append(sh.series[key], cp)
	sh.mu.Unlock()
	s.count.Add(1)
	return nil
}

// Aggregate reduces matching readings per bucket. Rows are returned in ascending
// bucket order.
func (s *Store) Aggregate(ctx context.Context, q storage.AggregateQuery) ([]aggregation.AggregateRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.Unavailable("aggregate readings", err)
	}
	if q.Location == nil {
		return nil, fmt.Errorf("aggregate query: location is required")
	}

	reducers := make([]aggregation.Aggregator, len(q.Fields))
	for i, f := range q.Fields {
		agg, ok := aggregation.Operators[f.Operator]
		if !ok {
			return nil, fmt.Errorf("field %q: unsupported operator %q", f.Name, f.Operator)
		}
		reducers[i] = agg
	}

	buckets := make(map[int64][]aggregation.Accumulator)
	starts := make(map[int64]time.Time)

	sh := s.shardFor(q.SensorID)
	sh.mu.RLock()
	for _, r := range sh.series[seriesKey{sensorID: q.SensorID, class: q.Class}] {
		if r.ObservedAt.Before(q.Start) || !r.ObservedAt.Before(q.End) {
			continue
		}
		start := aggregation.BucketFor(r.ObservedAt, q.Granularity, q.Location)
		k := start.UnixNano()
		accs, ok := buckets[k]
		if !ok {
			accs = make([]aggregation.Accumulator, len(q.Fields))
			starts[k] = start
		}
		for i, f := range q.Fields {
			v := r.Value(f.Name)
			if !v.Valid {
				continue
			}
			accs[i] = reducers[i].Apply(accs[i], decimal.NewFromFloat(v.Float64))
		}
		buckets[k] = accs
	}
	sh.mu.RUnlock()

	keys := make([]int64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	rows := make([]aggregation.AggregateRow, 0, len(keys))
	for _, k := range keys {
		fields := make(map[string]null.Float, len(q.Fields))
		for i, f := range q.Fields {
			fields[f.Name] = reducers[i].Result(buckets[k][i])
		}
		rows = append(rows, aggregation.AggregateRow{BucketStart: starts[k], Fields: fields})
	}
	return rows, nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of stored readings.
func (s *Store) Len() int {
	return int(s.count.Load())
}
