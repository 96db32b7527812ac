package ingestion

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/guregu/null"
	"github.com/relvacode/iso8601"

	v1 "github.com/xcity-lab/telemetry/internal/api/v1"
	"github.com/xcity-lab/telemetry/internal/core/aggregation"
	coreerr "github.com/xcity-lab/telemetry/internal/core/errors"
)

const (
	ReasonMissing = "missing"
	ReasonInvalid = "invalid"
)

// NormalizationError reports why a notification could not become a reading.
// It matches coreerr.ErrValidation under errors.Is.
type NormalizationError struct {
	Field  string
	Reason string
	Detail string
}

func (e *NormalizationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %s", e.Reason, e.Field, e.Detail)
	}
	return fmt.Sprintf("%s %s", e.Reason, e.Field)
}

func (e *NormalizationError) Unwrap() error {
	return coreerr.ErrValidation
}

// offsetDateTime requires a time of day followed by Z or a ±hh[:mm] offset.
// iso8601 alone reads zone-less and date-only strings as UTC.
var offsetDateTime = regexp.MustCompile(`[Tt ][0-9:.,]+([Zz]|[+-][0-9]{2}(:?[0-9]{2})?)$`)

func missing(field string) *NormalizationError {
	return &NormalizationError{Field: field, Reason: ReasonMissing}
}

// Normalize turns the first entity of n into a reading of class. It is pure:
// ID and ReceivedAt are left for the caller to assign.
//
// Field values may be bare numbers, numeric strings, or property objects with
// a "value" member. Anything else, or an absent key, yields a null field.
func Normalize(class aggregation.SensorClass, n *v1.Notification) (*v1.SensorReading, error) {
	if n == nil || len(n.Data) == 0 {
		return nil, missing("data")
	}
	entity := n.Data[0]
	if entity == nil {
		return nil, missing("data")
	}

	sensorID, _ := entity["id"].(string)
	sensorID = strings.TrimSpace(sensorID)
	if sensorID == "" {
		return nil, missing("id")
	}

	if strings.TrimSpace(n.NotifiedAt) == "" {
		return nil, missing("notifiedAt")
	}
	notifiedAt := strings.TrimSpace(n.NotifiedAt)
	if !offsetDateTime.MatchString(notifiedAt) {
		return nil, &NormalizationError{Field: "notifiedAt", Reason: ReasonInvalid, Detail: "offset date-time required"}
	}
	observedAt, err := iso8601.ParseString(notifiedAt)
	if err != nil {
		return nil, &NormalizationError{Field: "notifiedAt", Reason: ReasonInvalid, Detail: err.Error()}
	}

	reading := &v1.SensorReading{
		SensorID:   sensorID,
		Class:      class.Name,
		ObservedAt: observedAt.UTC(),
		Fields:     make([]v1.FieldValue, len(class.Fields)),
	}
	for i, f := range class.Fields {
		reading.Fields[i] = v1.FieldValue{Name: f.Name, Value: lookupField(entity, f.Keys)}
	}
	return reading, nil
}

// lookupField returns the first usable value among keys.
func lookupField(entity map[string]interface{}, keys []string) null.Float {
	for _, key := range keys {
		raw, ok := entity[key]
		if !ok {
			continue
		}
		if v := coerce(raw); v.Valid {
			return v
		}
	}
	return null.Float{}
}

func coerce(raw interface{}) null.Float {
	if prop, ok := raw.(map[string]interface{}); ok {
		return aggregation.ExtractNumber(prop["value"])
	}
	return aggregation.ExtractNumber(raw)
}
