package v1

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/guregu/null"
)

// FieldValue is one named measurement of a reading. A null Value means the
// notification did not carry a usable number for that field.
type FieldValue struct {
	Name  string
	Value null.Float
}

// SensorReading is one normalized observation. Readings are append-only.
type SensorReading struct {
	// ID is assigned by the ingestion service before the reading is stored.
	ID string

	// SensorID is the entity id of the notifying sensor (NGSI-LD URN or plain id).
	SensorID string

	// Class is the sensor class name, e.g. "air-quality" or "traffic".
	Class string

	// ObservedAt is the UTC observation instant.
	ObservedAt time.Time

	// ReceivedAt is the server-side receive time (audit only).
	ReceivedAt time.Time

	// DeviceName is filled from the device directory for live payloads. Not persisted.
	DeviceName string

	// Fields has exactly one entry per field of the sensor class, in class order.
	Fields []FieldValue
}

// Value returns the named field, or a null value if the class has no such field.
func (r *SensorReading) Value(name string) null.Float {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return null.Float{}
}

// Validate ensures the reading carries the attributes every store requires.
func (r *SensorReading) Validate() error {
	if r.SensorID == "" {
		return fmt.Errorf("sensorId is required")
	}
	if r.Class == "" {
		return fmt.Errorf("class is required")
	}
	if r.ObservedAt.IsZero() {
		return fmt.Errorf("observedAt is required")
	}
	return nil
}

// MarshalJSON writes the reading as a flat object with fields in class order,
// which is the shape live subscribers receive.
func (r SensorReading) MarshalJSON() ([]byte, error) {
	obj := NewObjectWriter()
	obj.Field("id", r.ID)
	obj.Field("sensorId", r.SensorID)
	obj.Field("type", r.Class)
	obj.Field("observedAt", r.ObservedAt.UTC().Format(time.RFC3339Nano))
	if r.DeviceName != "" {
		obj.Field("deviceName", r.DeviceName)
	}
	for _, f := range r.Fields {
		obj.Field(f.Name, f.Value)
	}
	return obj.Bytes()
}

// ObjectWriter builds a JSON object whose keys keep insertion order.
// Class-driven payloads have a dynamic key set, so a struct can't describe them
// and a map would lose the field order clients chart by.
type ObjectWriter struct {
	buf    bytes.Buffer
	n      int
	err    error
	closed bool
}

// NewObjectWriter starts an empty object.
func NewObjectWriter() *ObjectWriter {
	w := &ObjectWriter{}
	w.buf.WriteByte('{')
	return w
}

// Field appends key: value. The first marshal error is kept and reported by Bytes.
func (w *ObjectWriter) Field(key string, value interface{}) {
	if w.err != nil {
		return
	}
	if w.closed {
		w.err = fmt.Errorf("field %s: object already closed", key)
		return
	}
	k, err := json.Marshal(key)
	if err != nil {
		w.err = err
		return
	}
	v, err := json.Marshal(value)
	if err != nil {
		w.err = fmt.Errorf("marshal %s: %w", key, err)
		return
	}
	if w.n > 0 {
		w.buf.WriteByte(',')
	}
	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(v)
	w.n++
}

// Bytes closes the object and returns it. Later calls return the same object.
func (w *ObjectWriter) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if !w.closed {
		w.buf.WriteByte('}')
		w.closed = true
	}
	return w.buf.Bytes(), nil
}
