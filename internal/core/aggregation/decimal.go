package aggregation

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/guregu/null"
)

// ExtractNumber coerces a loosely-typed JSON value into a float.
// Returns null if the value is missing, empty, non-finite, or not a recognized numeric type.
// JSON numbers unmarshal to float64 in Go; that's the common path. Numeric strings
// are accepted because some brokers serialize every attribute as text.
func ExtractNumber(v interface{}) null.Float {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case int32:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return null.Float{}
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return null.Float{}
		}
		f = parsed
	default:
		return null.Float{}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return null.Float{}
	}
	return null.FloatFrom(f)
}
