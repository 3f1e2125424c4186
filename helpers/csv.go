package helpers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spektr-org/pivot/engine"
	"github.com/spektr-org/pivot/schema"
)

// ============================================================================
// CSV HELPER — Parses CSV data into an engine.SliceSource
// ============================================================================
// Consumer reads the CSV from wherever it lives (file, S3, upload).
// This helper converts the raw bytes into typed values using the schema.
// ============================================================================

// ParseCSV parses CSV bytes into a SliceSource. Cells are converted per the
// schema's detected types; columns unknown to the schema stay strings.
func ParseCSV(data []byte, sch *schema.Config) (*engine.SliceSource, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: CSV has no header", schema.ErrNoData)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	var raw [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		raw = append(raw, row)
	}

	return FromRows(headers, raw, sch), nil
}

// ParseCSVAuto discovers the schema from the data, then parses with it.
func ParseCSVAuto(data []byte) (*engine.SliceSource, *schema.Config, error) {
	sch, err := schema.DiscoverFromCSV(data, schema.DiscoverOptions{SampleSize: 0, Source: "CSV"})
	if err != nil {
		return nil, nil, err
	}
	src, err := ParseCSV(data, sch)
	if err != nil {
		return nil, nil, err
	}
	return src, sch, nil
}

// FromRows converts raw string rows into a SliceSource. Short rows read as
// nil in the missing columns.
func FromRows(headers []string, raw [][]string, sch *schema.Config) *engine.SliceSource {
	names := make([]string, len(headers))
	metas := make([]schema.FieldMeta, len(headers))
	types := make([]engine.FieldType, len(headers))
	for i, h := range headers {
		names[i] = strings.TrimSpace(h)
		metas[i] = schema.FieldMeta{Name: names[i], Type: engine.TypeString}
		if sch != nil {
			if meta := sch.Field(names[i]); meta != nil {
				metas[i] = *meta
			}
		}
		types[i] = metas[i].Type
	}

	rows := make([][]engine.Value, 0, len(raw))
	for _, r := range raw {
		row := make([]engine.Value, len(headers))
		for i := range headers {
			if i < len(r) {
				row[i] = ConvertCell(r[i], metas[i])
			}
		}
		rows = append(rows, row)
	}
	return engine.NewSliceSource(names, types, rows)
}

// ConvertCell converts one raw cell to the column's type. Null markers become
// nil; cells that do not parse as the declared type keep their text.
func ConvertCell(s string, meta schema.FieldMeta) engine.Value {
	if schema.IsNull(s) {
		return nil
	}
	s = strings.TrimSpace(s)

	switch meta.Type {
	case engine.TypeNumber:
		if f, ok := schema.ParseNumber(s); ok {
			return f
		}
	case engine.TypeBool:
		if b, ok := schema.ParseBool(s); ok {
			return b
		}
	case engine.TypeTime:
		layouts := []string{time.RFC3339, "2006-01-02"}
		if meta.TimeLayout != "" {
			layouts = append([]string{meta.TimeLayout}, layouts...)
		}
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return s
}
