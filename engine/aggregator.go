package engine

import (
	"fmt"
	"strings"
)

// ============================================================================
// AGGREGATORS — Sum, Average, Min, Max, Count
// ============================================================================
// One closed set of functions dispatched by a single switch. An Aggregator is
// a short-lived reducer: created per group, fed with Add, read with Result.
// ============================================================================

// AggregateFunc names an aggregate function. The empty value means "none".
type AggregateFunc string

const (
	AggregateNone  AggregateFunc = ""
	AggregateSum   AggregateFunc = "sum"
	AggregateAvg   AggregateFunc = "avg"
	AggregateMin   AggregateFunc = "min"
	AggregateMax   AggregateFunc = "max"
	AggregateCount AggregateFunc = "count"
)

// AggregateFuncs lists the supported functions in display order.
var AggregateFuncs = []AggregateFunc{AggregateSum, AggregateAvg, AggregateMin, AggregateMax, AggregateCount}

// ParseAggregateFunc resolves a function name case-insensitively.
// "average" is accepted as an alias of "avg".
func ParseAggregateFunc(name string) (AggregateFunc, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "average" {
		return AggregateAvg, nil
	}
	for _, fn := range AggregateFuncs {
		if string(fn) == name {
			return fn, nil
		}
	}
	return AggregateNone, fmt.Errorf("%w: aggregator %q", ErrUnknownFunction, name)
}

// Label is the upper-case function name used in field descriptions.
func (fn AggregateFunc) Label() string {
	return strings.ToUpper(string(fn))
}

// Aggregator folds values into a single result.
type Aggregator struct {
	fn       AggregateFunc
	total    float64
	count    int
	extremum Value
}

// NewAggregator returns an initialized aggregator for fn.
func NewAggregator(fn AggregateFunc) *Aggregator {
	a := &Aggregator{fn: fn}
	return a.Init()
}

// Func returns the aggregate function.
func (a *Aggregator) Func() AggregateFunc { return a.fn }

// Init resets the running state.
func (a *Aggregator) Init() *Aggregator {
	a.total = 0
	a.count = 0
	a.extremum = nil
	return a
}

// Add folds one value. Sum and Average ignore non-numeric values, Min and Max
// ignore nulls and values not ordered against the current extremum, Count
// counts every non-null value.
func (a *Aggregator) Add(v Value) *Aggregator {
	switch a.fn {
	case AggregateSum:
		if f, ok := ToFloat(v); ok {
			a.total += f
		}
	case AggregateAvg:
		if f, ok := ToFloat(v); ok {
			a.total += f
			a.count++
		}
	case AggregateMin, AggregateMax:
		if v == nil {
			return a
		}
		if a.extremum == nil {
			a.extremum = normalizeNumber(v)
			return a
		}
		c, ok := compareOrdered(v, a.extremum)
		if !ok {
			return a
		}
		if (a.fn == AggregateMin && c < 0) || (a.fn == AggregateMax && c > 0) {
			a.extremum = normalizeNumber(v)
		}
	case AggregateCount:
		if v != nil {
			a.count++
		}
	}
	return a
}

// AddAll folds every value in order.
func (a *Aggregator) AddAll(values ...Value) *Aggregator {
	for _, v := range values {
		a.Add(v)
	}
	return a
}

// Result returns the aggregate. Average without samples and Min/Max without
// values return nil ("no value").
func (a *Aggregator) Result() Value {
	switch a.fn {
	case AggregateSum:
		return a.total
	case AggregateAvg:
		if a.count == 0 {
			return nil
		}
		return a.total / float64(a.count)
	case AggregateMin, AggregateMax:
		return a.extremum
	case AggregateCount:
		return float64(a.count)
	}
	return nil
}

// normalizeNumber converts any Go numeric type to float64 so cube values
// have a single numeric representation.
func normalizeNumber(v Value) Value {
	if f, ok := ToFloat(v); ok {
		return f
	}
	return v
}
