package helpers

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/spektr-org/pivot/engine"
)

// ============================================================================
// SQL HELPER — Loads a query result set into an engine.SliceSource
// ============================================================================
// The whole result set is read into memory; the pivot needs random access.
// Column types are inferred from the first non-null value of each column.
// ============================================================================

// RowCursor is the part of *sqlx.Rows the loader needs.
type RowCursor interface {
	Columns() ([]string, error)
	Next() bool
	SliceScan() ([]interface{}, error)
	Err() error
}

// LoadSQL drains the cursor. The caller still owns and closes it.
func LoadSQL(rows RowCursor) (*engine.SliceSource, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var data [][]engine.Value
	for rows.Next() {
		cols, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", len(data), err)
		}
		row := make([]engine.Value, len(names))
		for i := range names {
			if i < len(cols) {
				row[i] = sqlValue(cols[i])
			}
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	types := make([]engine.FieldType, len(names))
	for i := range names {
		types[i] = inferType(data, i)
	}
	return engine.NewSliceSource(names, types, data), nil
}

// QuerySQL runs the query and loads its result set.
func QuerySQL(ctx context.Context, db *sqlx.DB, query string, args ...interface{}) (*engine.SliceSource, error) {
	rows, err := db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	defer rows.Close()
	return LoadSQL(rows)
}

// sqlValue normalizes driver values: byte slices become strings and every
// numeric type becomes float64.
func sqlValue(v interface{}) engine.Value {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(x)
	case time.Time, bool, string:
		return x
	}
	if f, ok := engine.ToFloat(v); ok {
		return f
	}
	return fmt.Sprint(v)
}

func inferType(data [][]engine.Value, col int) engine.FieldType {
	for _, row := range data {
		switch row[col].(type) {
		case nil:
			continue
		case float64:
			return engine.TypeNumber
		case time.Time:
			return engine.TypeTime
		case bool:
			return engine.TypeBool
		default:
			return engine.TypeString
		}
	}
	return engine.TypeString
}
