package postgres

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/guregu/null"
	"github.com/lib/pq"

	v1 "github.com/xcity-lab/telemetry/internal/api/v1"
	"github.com/xcity-lab/telemetry/internal/core/aggregation"
)

// marshalFields encodes a reading's fields as a flat JSON object. Null fields are
// written as JSON null so ->> yields SQL NULL and the reducers skip them.
func marshalFields(reading *v1.SensorReading) ([]byte, error) {
	fields := make(map[string]null.Float, len(reading.Fields))
	for _, f := range reading.Fields {
		fields[f.Name] = f.Value
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields: %w", err)
	}
	return data, nil
}

// reducerSQL maps an operator to its SQL aggregate. Both skip NULLs and return
// NULL over an all-NULL group, matching the in-process reducers.
func reducerSQL(op string) (string, error) {
	switch op {
	case aggregation.OpMean:
		return "AVG", nil
	case aggregation.OpSum:
		return "SUM", nil
	default:
		return "", fmt.Errorf("unsupported operator %q", op)
	}
}

// buildAggregateQuery renders the select list for the requested fields.
// Field names are validated identifiers and are additionally quoted.
func buildAggregateQuery(fields []aggregation.FieldSpec) (string, error) {
	var cols strings.Builder
	for _, f := range fields {
		fn, err := reducerSQL(f.Operator)
		if err != nil {
			return "", fmt.Errorf("field %q: %w", f.Name, err)
		}
		fmt.Fprintf(&cols, ",\n\t\t\t%s((fields->>%s)::double precision) AS %s",
			fn, pq.QuoteLiteral(f.Name), pq.QuoteIdentifier(f.Name))
	}
	return fmt.Sprintf(queryAggregateTemplate, cols.String()), nil
}

// zoneName converts a location to a name Postgres understands. Numeric offsets
// use the POSIX form, whose sign is inverted: +07:00 becomes "<+07>-07".
func zoneName(loc *time.Location) string {
	if loc == nil || loc == time.UTC {
		return "UTC"
	}
	offset, ok := aggregation.IsFixedOffset(loc)
	if !ok {
		return loc.String()
	}
	if offset == 0 {
		return "UTC"
	}

	abbr := strings.ReplaceAll(aggregation.FormatOffset(offset), ":", "")
	if strings.HasSuffix(abbr, "00") {
		abbr = abbr[:len(abbr)-2]
	}
	posix := aggregation.FormatOffset(-offset)
	if strings.HasSuffix(posix, ":00") {
		posix = posix[:len(posix)-3]
	}
	return "<" + abbr + ">" + posix
}

// truncUnit maps a granularity to a date_trunc unit.
func truncUnit(g aggregation.Granularity) (string, error) {
	switch g {
	case aggregation.GranularityHour:
		return "hour", nil
	case aggregation.GranularityDay:
		return "day", nil
	default:
		return "", fmt.Errorf("unsupported granularity %q", g)
	}
}
