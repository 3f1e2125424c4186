package engine

import (
	"fmt"
	"math"
	"strings"
)

// ============================================================================
// FIELD CALCULATIONS — PercentOf, Subtract, Addition
// ============================================================================
// A calculated field derives its cell value from the aggregated values of two
// other fields in the same cell context. Operands are held as field indices;
// the caller supplies a provider that resolves a field to its value.
// ============================================================================

// CalcFunc names a field calculation.
type CalcFunc string

const (
	CalcNone      CalcFunc = ""
	CalcPercentOf CalcFunc = "percentOf"
	CalcSubtract  CalcFunc = "subtract"
	CalcAddition  CalcFunc = "addition"
)

// CalcFuncs lists the supported calculations in display order.
var CalcFuncs = []CalcFunc{CalcPercentOf, CalcSubtract, CalcAddition}

// percentEpsilon guards PercentOf against division by (almost) zero.
const percentEpsilon = 0.000001

// ParseCalcFunc resolves a calculation name case-insensitively.
func ParseCalcFunc(name string) (CalcFunc, error) {
	trimmed := strings.TrimSpace(name)
	for _, fn := range CalcFuncs {
		if strings.EqualFold(string(fn), trimmed) {
			return fn, nil
		}
	}
	return CalcNone, fmt.Errorf("%w: calculation %q", ErrUnknownFunction, name)
}

// FieldValueProvider returns the value of a field in the current cell context.
type FieldValueProvider func(f *Field) Value

// Calculation is a binary operation over two fields, addressed by index.
type Calculation struct {
	Func CalcFunc `json:"func"`
	A    int      `json:"a"`
	B    int      `json:"b"`
}

// Calculate evaluates the calculation. fields resolves operand indices;
// non-numeric or missing operands count as 0.
func (c *Calculation) Calculate(fields []*Field, provider FieldValueProvider) Value {
	a := operandValue(fields, c.A, provider)
	b := operandValue(fields, c.B, provider)

	switch c.Func {
	case CalcPercentOf:
		if math.Abs(b) > percentEpsilon {
			return 100 * a / b
		}
		return 0.0
	case CalcSubtract:
		return a - b
	case CalcAddition:
		return a + b
	}
	return 0.0
}

func operandValue(fields []*Field, index int, provider FieldValueProvider) float64 {
	if index < 0 || index >= len(fields) || fields[index] == nil {
		return 0
	}
	f, ok := ToFloat(provider(fields[index]))
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Description renders the calculation with its operand descriptions, e.g.
// "% SALES (SUM) of COST (SUM)".
func (c *Calculation) Description(a, b string) string {
	switch c.Func {
	case CalcPercentOf:
		return "% " + a + " of " + b
	case CalcSubtract:
		return a + " - " + b
	case CalcAddition:
		return a + " + " + b
	}
	return string(c.Func)
}
