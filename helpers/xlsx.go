package helpers

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/pivot/engine"
	"github.com/spektr-org/pivot/schema"
)

// ============================================================================
// XLSX HELPER — Reads one worksheet into an engine.SliceSource
// ============================================================================
// The first row is the header. Cells come back as the displayed text and go
// through the same discovery and conversion as CSV.
// ============================================================================

// ParseXLSX opens a workbook and loads a sheet (default: the first sheet).
func ParseXLSX(path, sheet string) (*engine.SliceSource, *schema.Config, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()
	return loadSheet(f, sheet)
}

// ParseXLSXReader is ParseXLSX over an already opened stream.
func ParseXLSXReader(r io.Reader, sheet string) (*engine.SliceSource, *schema.Config, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read Excel data: %w", err)
	}
	defer f.Close()
	return loadSheet(f, sheet)
}

func loadSheet(f *excelize.File, sheet string) (*engine.SliceSource, *schema.Config, error) {
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, nil, fmt.Errorf("sheet %q not found", sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: sheet %s is empty", schema.ErrNoData, sheet)
	}

	headers, data := rows[0], rows[1:]
	sch, err := schema.DiscoverFromRows(headers, data, schema.DiscoverOptions{
		Name:   sheet,
		Source: "XLSX",
	})
	if err != nil {
		return nil, nil, err
	}
	return FromRows(headers, data, sch), sch, nil
}
