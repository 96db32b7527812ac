// Package publish broadcasts freshly ingested readings to live subscribers.
// Every transport is best effort: failures are reported to the caller, which
// logs them and carries on.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	v1 "github.com/xcity-lab/telemetry/internal/api/v1"
	coreerr "github.com/xcity-lab/telemetry/internal/core/errors"
	"github.com/xcity-lab/telemetry/internal/metrics"
)

// Publisher sends one reading to the subscribers of topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, reading *v1.SensorReading) error
}

// Frame is the envelope websocket subscribers receive.
type Frame struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

func encodeReading(reading *v1.SensorReading) ([]byte, error) {
	payload, err := json.Marshal(reading)
	if err != nil {
		return nil, fmt.Errorf("%w: encode reading: %v", coreerr.ErrPublish, err)
	}
	return payload, nil
}

type namedPublisher struct {
	name string
	pub  Publisher
}

// Fanout publishes to every registered transport. One failing transport does
// not stop the others.
type Fanout struct {
	transports []namedPublisher
}

func NewFanout() *Fanout {
	return &Fanout{}
}

// Add registers a transport under a name used in logs and metrics.
func (f *Fanout) Add(name string, p Publisher) {
	f.transports = append(f.transports, namedPublisher{name: name, pub: p})
}

// Len returns the number of registered transports.
func (f *Fanout) Len() int {
	return len(f.transports)
}

// Publish returns an error wrapping coreerr.ErrPublish if any transport failed.
func (f *Fanout) Publish(ctx context.Context, topic string, reading *v1.SensorReading) error {
	var errs []error
	for _, t := range f.transports {
		if err := t.pub.Publish(ctx, topic, reading); err != nil {
			metrics.PublishFailures.WithLabelValues(t.name).Inc()
			slog.Warn("[Publisher] Transport failed",
				"transport", t.name,
				"topic", topic,
				"sensor_id", reading.SensorID,
				"error", err)
			errs = append(errs, fmt.Errorf("%s: %w", t.name, err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", coreerr.ErrPublish, errors.Join(errs...))
}
