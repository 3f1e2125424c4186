package engine

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// VALUES — Numeric conversion, equality, ordering, key encoding
// ============================================================================
// Source values arrive as `any`. Numbers of every Go numeric type compare
// numerically; times compare with Equal/Before; values of different kinds
// are never ordered against each other.
// ============================================================================

// ToFloat converts a numeric value to float64. ok is false for nil and
// non-numeric values.
func ToFloat(v Value) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

type valueKind int

const (
	kindNull valueKind = iota
	kindNumber
	kindString
	kindTime
	kindBool
	kindOther
)

func kindOf(v Value) valueKind {
	if v == nil {
		return kindNull
	}
	if _, ok := ToFloat(v); ok {
		return kindNumber
	}
	switch v.(type) {
	case string:
		return kindString
	case time.Time:
		return kindTime
	case bool:
		return kindBool
	}
	return kindOther
}

// ValuesEqual is the equality used for grouping and filtering.
func ValuesEqual(a, b Value) bool {
	ka, kb := kindOf(a), kindOf(b)
	if ka != kb {
		return false
	}
	switch ka {
	case kindNull:
		return true
	case kindNumber:
		fa, _ := ToFloat(a)
		fb, _ := ToFloat(b)
		return fa == fb || (math.IsNaN(fa) && math.IsNaN(fb))
	case kindTime:
		return a.(time.Time).Equal(b.(time.Time))
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// compareOrdered compares two values of the same orderable kind.
// ok is false when the values are not mutually ordered.
func compareOrdered(a, b Value) (int, bool) {
	ka, kb := kindOf(a), kindOf(b)
	if ka != kb {
		return 0, false
	}
	switch ka {
	case kindNumber:
		fa, _ := ToFloat(a)
		fb, _ := ToFloat(b)
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	case kindString:
		return strings.Compare(a.(string), b.(string)), true
	case kindTime:
		ta, tb := a.(time.Time), b.(time.Time)
		switch {
		case ta.Before(tb):
			return -1, true
		case ta.After(tb):
			return 1, true
		}
		return 0, true
	case kindBool:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0, true
		case !ba:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

// sortValues orders distinct values in place according to the sort policy.
//
// Ascending: nulls first, then one group per kind in the order the kind
// first occurred, values ordered inside each group. Descending reverses the
// null position, the group order and the order inside each group. Values
// that are not mutually ordered keep first-occurrence order in both
// directions. Unsorted keeps first-occurrence order.
func sortValues(values []Value, order SortOrder) {
	if order == SortUnsorted || len(values) < 2 {
		return
	}
	descending := order == SortDescending

	firstSeen := make(map[valueKind]int)
	for i, v := range values {
		k := kindOf(v)
		if _, ok := firstSeen[k]; !ok {
			firstSeen[k] = i
		}
	}
	rank := func(k valueKind) int {
		if k == kindNull {
			return -1
		}
		return firstSeen[k]
	}

	less := func(a, b Value) bool {
		ka, kb := kindOf(a), kindOf(b)
		if ka != kb {
			if descending {
				return rank(kb) < rank(ka)
			}
			return rank(ka) < rank(kb)
		}
		c, ok := compareOrdered(a, b)
		if !ok {
			return false
		}
		if descending {
			return c > 0
		}
		return c < 0
	}

	sort.SliceStable(values, func(i, j int) bool {
		return less(values[i], values[j])
	})
}

// encodeKey produces a map key for a Key. Equal keys (per ValuesEqual)
// encode identically and distinct keys never collide.
func encodeKey(k Key) string {
	var b strings.Builder
	for _, v := range k {
		encodeValue(&b, v)
		b.WriteByte(0x1f)
	}
	return b.String()
}

func encodeValue(b *strings.Builder, v Value) {
	switch kindOf(v) {
	case kindNull:
		b.WriteString("n:")
	case kindNumber:
		f, _ := ToFloat(v)
		b.WriteString("f:")
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	case kindString:
		writeSized(b, "s:", v.(string))
	case kindTime:
		b.WriteString("t:")
		b.WriteString(v.(time.Time).UTC().Format(time.RFC3339Nano))
	case kindBool:
		b.WriteString("b:")
		b.WriteString(strconv.FormatBool(v.(bool)))
	default:
		writeSized(b, "o:", fmt.Sprintf("%T:%v", v, v))
	}
}

// writeSized length-prefixes free text so separator bytes inside a value
// cannot end a component early.
func writeSized(b *strings.Builder, tag, s string) {
	b.WriteString(tag)
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteByte(':')
	b.WriteString(s)
}

// pairKey encodes a (row key, column key) pair for the cube.
func pairKey(rowKey, columnKey Key) string {
	return encodeKey(rowKey) + "\x1e" + encodeKey(columnKey)
}
