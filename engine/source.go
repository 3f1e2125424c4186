package engine

import "fmt"

// ============================================================================
// DATA SOURCE — Random-Access Cell Interface
// ============================================================================
// The engine never owns consumer data. It reads through this interface.
//
// Implementations:
//   SliceSource    — rows of values (CSV, XLSX, SQL loaders, ad-hoc)
//   DomainSource[T] — reads typed structs via accessor functions (zero-copy)
//
// Implementations must be safe for concurrent reads; the HTTP server shares
// one source between requests.
// ============================================================================

// DataSource provides indexed access to a table of values.
// The engine calls ValueAt in tight loops — keep implementations fast.
type DataSource interface {
	FieldCount() int
	FieldName(field int) string
	FieldType(field int) FieldType
	RowCount() int
	ValueAt(row, field int) Value
}

// ============================================================================
// SLICE SOURCE
// ============================================================================

// SliceSource is an in-memory DataSource over rows of values.
type SliceSource struct {
	names []string
	types []FieldType
	rows  [][]Value
}

// NewSliceSource creates a DataSource. types may be shorter than names
// (missing types default to TypeString); short rows read as nil.
func NewSliceSource(names []string, types []FieldType, rows [][]Value) *SliceSource {
	t := make([]FieldType, len(names))
	copy(t, types)
	return &SliceSource{names: names, types: t, rows: rows}
}

func (s *SliceSource) FieldCount() int { return len(s.names) }

func (s *SliceSource) FieldName(field int) string {
	if field < 0 || field >= len(s.names) {
		return ""
	}
	return s.names[field]
}

func (s *SliceSource) FieldType(field int) FieldType {
	if field < 0 || field >= len(s.types) {
		return TypeString
	}
	return s.types[field]
}

func (s *SliceSource) RowCount() int { return len(s.rows) }

func (s *SliceSource) ValueAt(row, field int) Value {
	if row < 0 || row >= len(s.rows) {
		return nil
	}
	r := s.rows[row]
	if field < 0 || field >= len(r) {
		return nil
	}
	return r[field]
}

// FieldIndex returns the index of the named field, or -1.
func FieldIndex(src DataSource, name string) int {
	for i := 0; i < src.FieldCount(); i++ {
		if src.FieldName(i) == name {
			return i
		}
	}
	return -1
}

// ============================================================================
// DOMAIN ADAPTER — Zero-copy typed struct access
// ============================================================================
//
// Usage:
//
//	adapter := engine.NewDomainAdapter[Sale]().
//	    Column("REGION", engine.TypeString, func(s Sale) engine.Value { return s.Region }).
//	    Column("SALES", engine.TypeNumber, func(s Sale) engine.Value { return s.Amount })
//
//	src := adapter.Bind(sales)
//	model := engine.NewModel(src)
//
// ============================================================================

// DomainAdapter builds a DataSource from typed structs.
// Declare once, bind many times.
type DomainAdapter[T any] struct {
	names []string
	types []FieldType
	cols  []func(T) Value
}

// NewDomainAdapter creates a new adapter for type T.
func NewDomainAdapter[T any]() *DomainAdapter[T] {
	return &DomainAdapter[T]{}
}

// Column registers a column accessor. Registering an existing name replaces
// its accessor and type but keeps its position.
func (a *DomainAdapter[T]) Column(name string, typ FieldType, fn func(T) Value) *DomainAdapter[T] {
	for i, n := range a.names {
		if n == name {
			a.types[i] = typ
			a.cols[i] = fn
			return a
		}
	}
	a.names = append(a.names, name)
	a.types = append(a.types, typ)
	a.cols = append(a.cols, fn)
	return a
}

// Bind creates a DataSource from a data slice. Zero-copy — holds reference.
func (a *DomainAdapter[T]) Bind(data []T) *DomainSource[T] {
	return &DomainSource[T]{data: data, names: a.names, types: a.types, cols: a.cols}
}

// DomainSource reads typed struct fields via registered accessor functions.
type DomainSource[T any] struct {
	data  []T
	names []string
	types []FieldType
	cols  []func(T) Value
}

func (s *DomainSource[T]) FieldCount() int { return len(s.names) }

func (s *DomainSource[T]) FieldName(field int) string {
	if field < 0 || field >= len(s.names) {
		return ""
	}
	return s.names[field]
}

func (s *DomainSource[T]) FieldType(field int) FieldType {
	if field < 0 || field >= len(s.types) {
		return TypeString
	}
	return s.types[field]
}

func (s *DomainSource[T]) RowCount() int { return len(s.data) }

func (s *DomainSource[T]) ValueAt(row, field int) Value {
	if row < 0 || row >= len(s.data) || field < 0 || field >= len(s.cols) {
		return nil
	}
	return s.cols[field](s.data[row])
}

// Describe renders a short summary of a source for logs.
func Describe(src DataSource) string {
	return fmt.Sprintf("%d fields x %d rows", src.FieldCount(), src.RowCount())
}
