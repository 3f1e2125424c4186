package engine

import (
	"fmt"
	"strings"
)

// ============================================================================
// PIVOT ENGINE TYPES — Fields, Areas, Keys
// ============================================================================
// A Field describes one column of the data source (or a calculated column)
// and where it participates in the pivot: row grouping, column grouping,
// aggregation, or nowhere.
//
// Dependency: engine imports only google/uuid (calculated field names).
// ============================================================================

// Value is a single scalar read from a DataSource: nil, a number, a string,
// a bool or a time.Time.
type Value = any

// Key is an ordered tuple of field values identifying one row group or one
// column group. The empty Key identifies the single group of an empty area.
type Key []Value

// String renders the key for logs and error messages.
func (k Key) String() string {
	parts := make([]string, len(k))
	for i, v := range k {
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Prefix returns the first n components of the key.
func (k Key) Prefix(n int) Key {
	if n > len(k) {
		n = len(k)
	}
	return k[:n:n]
}

// ============================================================================
// AREA
// ============================================================================

// Area classifies where a field participates in the pivot.
type Area int

const (
	AreaUnused Area = iota
	AreaRow
	AreaColumn
	AreaData
)

var areaNames = map[Area]string{
	AreaUnused: "unused",
	AreaRow:    "row",
	AreaColumn: "column",
	AreaData:   "data",
}

func (a Area) String() string {
	if name, ok := areaNames[a]; ok {
		return name
	}
	return fmt.Sprintf("area(%d)", int(a))
}

// ParseArea converts "row", "column", "data" or "unused" into an Area.
func ParseArea(s string) (Area, error) {
	for a, name := range areaNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return a, nil
		}
	}
	return AreaUnused, fmt.Errorf("%w: area %q", ErrUnknownFunction, s)
}

func (a Area) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Area) UnmarshalText(b []byte) error {
	parsed, err := ParseArea(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ============================================================================
// SORT ORDER
// ============================================================================

// SortOrder controls how the distinct values of a grouping field are ordered
// in the key tree.
type SortOrder int

const (
	SortUnsorted SortOrder = iota
	SortAscending
	SortDescending
)

func (s SortOrder) String() string {
	switch s {
	case SortAscending:
		return "asc"
	case SortDescending:
		return "desc"
	default:
		return "none"
	}
}

// ParseSortOrder accepts "asc", "desc", "none" and their long spellings.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return SortAscending, nil
	case "desc", "descending":
		return SortDescending, nil
	case "none", "unsorted", "":
		return SortUnsorted, nil
	}
	return SortUnsorted, fmt.Errorf("%w: sort order %q", ErrUnknownFunction, s)
}

func (s SortOrder) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *SortOrder) UnmarshalText(b []byte) error {
	parsed, err := ParseSortOrder(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ============================================================================
// FIELD TYPE
// ============================================================================

// FieldType is the declared value type of a field. The engine only uses it to
// decide numeric-ness; loaders use it to convert raw cells.
type FieldType int

const (
	TypeString FieldType = iota
	TypeNumber
	TypeTime
	TypeBool
)

func (t FieldType) String() string {
	switch t {
	case TypeNumber:
		return "number"
	case TypeTime:
		return "time"
	case TypeBool:
		return "bool"
	default:
		return "string"
	}
}

func (t FieldType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *FieldType) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "number":
		*t = TypeNumber
	case "time":
		*t = TypeTime
	case "bool":
		*t = TypeBool
	default:
		*t = TypeString
	}
	return nil
}

// ============================================================================
// FIELD
// ============================================================================

// Field is one pivot field. Fields live in the Model's arena and are
// addressed by Index; calculations reference their operands by index too.
type Field struct {
	Name      string    `json:"name"`
	Index     int       `json:"index"`
	Title     string    `json:"title"`
	Area      Area      `json:"area"`
	AreaIndex int       `json:"areaIndex"`
	Type      FieldType `json:"type"`
	SortOrder SortOrder `json:"sortOrder"`

	// Aggregate is ignored when Calculation is set.
	Aggregate   AggregateFunc `json:"aggregate,omitempty"`
	Calculation *Calculation  `json:"calculation,omitempty"`

	// Synthetic fields have no backing data source column.
	Synthetic bool `json:"synthetic,omitempty"`
}

// IsNumber reports whether the declared type is numeric.
func (f *Field) IsNumber() bool {
	return f.Type == TypeNumber
}

// IsCalculated reports whether cell values come from a Calculation.
func (f *Field) IsCalculated() bool {
	return f.Calculation != nil
}

func (f *Field) String() string {
	return fmt.Sprintf("Field[name=%s, title=%s, area=%s, index=%d, areaIndex=%d]",
		f.Name, f.Title, f.Area, f.Index, f.AreaIndex)
}

// FieldError ties an error to the field that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
