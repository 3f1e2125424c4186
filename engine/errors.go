package engine

import "errors"

var (
	// ErrFieldNameMismatch is returned when a stored field state is restored
	// onto a field with a different name.
	ErrFieldNameMismatch = errors.New("field name mismatch")

	// ErrUnknownFunction is returned for unknown aggregate, calculation,
	// area or sort order names.
	ErrUnknownFunction = errors.New("unknown function")

	// ErrUnknownField is returned when a calculation references a field
	// index that is not in the model.
	ErrUnknownField = errors.New("unknown field")

	// ErrNoAggregator is returned when a data field has neither an
	// aggregate function nor a calculation.
	ErrNoAggregator = errors.New("data field has no aggregator")

	// ErrCalculationCycle is returned when calculated fields reference each
	// other in a loop.
	ErrCalculationCycle = errors.New("calculation cycle")

	// ErrCalculationDepth is returned when nested calculations exceed the
	// configured depth.
	ErrCalculationDepth = errors.New("calculation depth exceeded")

	// ErrNotCalculated is returned when removing a field that is backed by
	// the data source.
	ErrNotCalculated = errors.New("field is not a calculated field")

	// ErrNotCalculatedYet is returned when results are requested before the
	// first successful Calculate.
	ErrNotCalculatedYet = errors.New("model has not been calculated")
)
