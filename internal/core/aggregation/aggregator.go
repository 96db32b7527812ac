package aggregation

import (
	"github.com/guregu/null"
	"github.com/shopspring/decimal"
)

// Accumulator is the composite state of one field within one bucket.
// Count is the number of contributing (non-null) values.
type Accumulator struct {
	Sum   decimal.Decimal
	Count int64
}

// Aggregator defines the reduce semantics of an aggregation operator.
// To add a new operator: implement this interface and register it in Operators.
type Aggregator interface {
	// Apply folds an incoming value into the accumulator.
	Apply(acc Accumulator, incoming decimal.Decimal) Accumulator

	// Result reduces the accumulator. Zero contributing values yields null, never 0.
	Result(acc Accumulator) null.Float
}

// Operators is the registry of all supported aggregation operators.
var Operators = map[string]Aggregator{
	OpMean: meanAgg{},
	OpSum:  sumAgg{},
}

// ValidOperator reports whether op is a registered aggregation operator.
func ValidOperator(op string) bool {
	_, ok := Operators[op]
	return ok
}

func fold(acc Accumulator, v decimal.Decimal) Accumulator {
	return Accumulator{Sum: acc.Sum.Add(v), Count: acc.Count + 1}
}

// meanAgg is the arithmetic mean over contributing values.
type meanAgg struct{}

func (meanAgg) Apply(acc Accumulator, v decimal.Decimal) Accumulator { return fold(acc, v) }
func (meanAgg) Result(acc Accumulator) null.Float {
	if acc.Count == 0 {
		return null.Float{}
	}
	f, _ := acc.Sum.Div(decimal.NewFromInt(acc.Count)).Float64()
	return null.FloatFrom(f)
}

// sumAgg accumulates the sum of contributing values.
type sumAgg struct{}

func (sumAgg) Apply(acc Accumulator, v decimal.Decimal) Accumulator { return fold(acc, v) }
func (sumAgg) Result(acc Accumulator) null.Float {
	if acc.Count == 0 {
		return null.Float{}
	}
	f, _ := acc.Sum.Float64()
	return null.FloatFrom(f)
}
