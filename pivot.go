// Package pivot is a pivot-table engine: it groups a tabular data source by
// row and column fields and aggregates data fields into a cross-tabulation.
//
// Usage:
//
//	import "github.com/spektr-org/pivot/engine"
//
//	m := engine.NewModel(src, engine.WithGrandTotals(true, true))
//	m.SetArea(m.Field("Region"), engine.AreaRow, 0)
//	m.SetArea(m.Field("Year"), engine.AreaColumn, 0)
//	m.SetArea(m.Field("Amount"), engine.AreaData, 0)
//	if err := m.Calculate(); err != nil { ... }
//	rm, err := m.Render()
//
// Data sources are loaded by the helpers package (CSV, XLSX, SQL), column
// roles are discovered by the schema package, rendered tables are written by
// the export package, and named configurations are kept by storage.
// The engine never calls any external service; all computation is local.
package pivot
