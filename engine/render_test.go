package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// RENDER MODEL TESTS
// ============================================================================

func smallSource() *SliceSource {
	return NewSliceSource(
		[]string{"REGION", "CITY", "YEAR", "SALES", "COST"},
		[]FieldType{TypeString, TypeString, TypeNumber, TypeNumber, TypeNumber},
		[][]Value{
			{"East", "Boston", 2020, 10.0, 4.0},
			{"East", "Boston", 2021, 20.0, 5.0},
			{"East", "NYC", 2020, 30.0, 6.0},
			{"West", "LA", 2021, 40.0, 7.0},
		},
	)
}

func TestRenderZeroColumnFieldsTwoDataFields(t *testing.T) {
	m := NewModel(smallSource())
	m.SetArea(m.Field("REGION"), AreaRow, 0)
	m.SetArea(m.Field("SALES"), AreaData, 0)
	m.SetArea(m.Field("COST"), AreaData, 1)
	require.NoError(t, m.Calculate())

	rm, err := m.Render()
	require.NoError(t, err)

	require.Len(t, rm.HeaderRows, 1)
	header := rm.HeaderRows[0]
	require.Len(t, header.Values, 2)
	assert.Equal(t, "SALES", header.Values[0].Value)
	assert.Equal(t, "COST", header.Values[1].Value)
	assert.Equal(t, CellHeader, header.Values[0].Kind)

	require.Len(t, header.Header, 1)
	assert.Equal(t, "REGION", header.Header[0].Value)

	require.Len(t, rm.DataRows, 2)
	assert.Equal(t, 60.0, rm.DataRows[0].Values[0].Value)
	assert.Equal(t, 15.0, rm.DataRows[0].Values[1].Value)
}

func TestRenderHeaderSpans(t *testing.T) {
	m := NewModel(smallSource(), WithGrandTotals(true, true))
	m.SetArea(m.Field("REGION"), AreaColumn, 0)
	m.SetArea(m.Field("CITY"), AreaColumn, 1)
	m.SetArea(m.Field("YEAR"), AreaRow, 0)
	m.SetArea(m.Field("SALES"), AreaData, 0)
	m.SetArea(m.Field("COST"), AreaData, 1)
	require.NoError(t, m.Calculate())

	rm, err := m.Render()
	require.NoError(t, err)

	// Two column levels plus one row for the data field titles
	require.Len(t, rm.HeaderRows, 3)

	top := rm.HeaderRows[0]
	require.Len(t, top.Values, 2)
	assert.Equal(t, "East", top.Values[0].Value)
	assert.Equal(t, 4, top.Values[0].Colspan) // Boston, NYC × 2 data fields
	assert.Equal(t, "West", top.Values[1].Value)
	assert.Equal(t, 2, top.Values[1].Colspan)
	assert.Equal(t, CellHeaderValue, top.Values[0].Kind)
	assert.Equal(t, "REGION", top.Values[0].Field)

	require.Len(t, top.GrandTotal, 1)
	assert.Equal(t, GrandTotalLabel, top.GrandTotal[0].Value)
	assert.Equal(t, 2, top.GrandTotal[0].Colspan)

	// Row field titles only on the last header row
	assert.Nil(t, top.Header[0].Value)
	assert.Equal(t, "YEAR", rm.HeaderRows[2].Header[0].Value)

	middle := rm.HeaderRows[1]
	require.Len(t, middle.Values, 3)
	for _, c := range middle.Values {
		assert.Equal(t, 2, c.Colspan)
	}
	assert.Nil(t, middle.GrandTotal[0].Value)

	titles := rm.HeaderRows[2]
	assert.Len(t, titles.Values, 6)
	assert.Len(t, titles.GrandTotal, 2)
}

func TestRenderRowSpansAndSeenPaths(t *testing.T) {
	m := NewModel(smallSource())
	m.SetArea(m.Field("REGION"), AreaRow, 0)
	m.SetArea(m.Field("CITY"), AreaRow, 1)
	m.SetArea(m.Field("SALES"), AreaData, 0)
	require.NoError(t, m.Calculate())

	rm, err := m.Render()
	require.NoError(t, err)
	require.Len(t, rm.DataRows, 3)

	first := rm.DataRows[0].Header
	require.Len(t, first, 2)
	assert.Equal(t, "East", first[0].Value)
	assert.Equal(t, 2, first[0].Rowspan)
	assert.Equal(t, CellDataHeader, first[0].Kind)
	assert.Equal(t, "Boston", first[1].Value)

	// East already emitted
	second := rm.DataRows[1].Header
	require.Len(t, second, 1)
	assert.Equal(t, "NYC", second[0].Value)

	third := rm.DataRows[2].Header
	require.Len(t, third, 2)
	assert.Equal(t, "West", third[0].Value)
	assert.Equal(t, 1, third[0].Rowspan)
}

func TestRenderAbsentCellsAreNil(t *testing.T) {
	m := NewModel(smallSource())
	m.SetArea(m.Field("CITY"), AreaRow, 0)
	m.SetArea(m.Field("YEAR"), AreaColumn, 0)
	m.SetArea(m.Field("SALES"), AreaData, 0)
	require.NoError(t, m.Calculate())

	rm, err := m.Render()
	require.NoError(t, err)

	// CITY ascending: Boston, LA, NYC; YEAR: 2020, 2021
	la := rm.DataRows[1]
	require.Equal(t, "LA", la.Header[0].Value)
	assert.True(t, la.Values[0].IsEmpty())
	assert.Equal(t, 40.0, la.Values[1].Value)
}

func TestGrandTotals(t *testing.T) {
	m := NewModel(smallSource(), WithGrandTotals(true, true))
	m.SetArea(m.Field("REGION"), AreaRow, 0)
	m.SetArea(m.Field("YEAR"), AreaColumn, 0)
	m.SetArea(m.Field("SALES"), AreaData, 0)
	m.SetArea(m.Field("COST"), AreaData, 1)
	margin, err := m.AddCalculatedField("Margin", CalcSubtract, m.Field("SALES"), m.Field("COST"))
	require.NoError(t, err)
	require.NoError(t, m.Calculate())

	res := m.Result()
	sales := m.Field("SALES")

	// Row totals equal the sum of the row's cells, absent as 0
	for _, rk := range res.RowKeys() {
		var want float64
		for _, ck := range res.ColumnKeys() {
			if v, ok := res.ValueAt(sales, rk, ck); ok {
				want += v.(float64)
			}
		}
		assert.Equal(t, want, res.GrandTotalForRow(sales, rk))
	}

	assert.Equal(t, 60.0-15.0, res.GrandTotalForRow(margin, Key{"East"}))
	assert.Equal(t, 40.0, res.GrandTotalForColumn(sales, Key{2020}))
	assert.Equal(t, 40.0-10.0, res.GrandTotalForColumn(margin, Key{2020}))
	assert.Equal(t, 100.0, res.GrandTotal(sales))
	assert.Equal(t, 100.0-22.0, res.GrandTotal(margin))

	rm, err := m.Render()
	require.NoError(t, err)
	require.Len(t, rm.GrandTotalRows, 1)
	gt := rm.GrandTotalRows[0]
	assert.Equal(t, GrandTotalLabel, gt.Header[0].Value)
	assert.Equal(t, 1, gt.Header[0].Colspan)
	assert.Len(t, gt.Values, 2*3)
	require.Len(t, gt.GrandTotal, 3)
	assert.True(t, gt.GrandTotal[0].ForRow)
	assert.Equal(t, 100.0, gt.GrandTotal[0].Value)
	assert.False(t, gt.Values[0].ForRow)

	east := rm.DataRows[0]
	require.Len(t, east.GrandTotal, 3)
	assert.Equal(t, 60.0, east.GrandTotal[0].Value)
	assert.Equal(t, CellGrandTotalValue, east.GrandTotal[0].Kind)
}

func TestGrandTotalVisibility(t *testing.T) {
	m := NewModel(smallSource(), WithGrandTotals(true, true))
	m.SetArea(m.Field("REGION"), AreaRow, 0)
	m.SetArea(m.Field("SALES"), AreaData, 0)
	require.NoError(t, m.Calculate())

	// No column fields: no row grand-total column, but a grand-total row
	rm, err := m.Render()
	require.NoError(t, err)
	assert.Empty(t, rm.HeaderRows[0].GrandTotal)
	assert.Empty(t, rm.DataRows[0].GrandTotal)
	require.Len(t, rm.GrandTotalRows, 1)
	assert.Empty(t, rm.GrandTotalRows[0].GrandTotal)

	m.SetArea(m.Field("REGION"), AreaColumn, 0)
	require.NoError(t, m.Calculate())
	rm, err = m.Render()
	require.NoError(t, err)
	assert.Empty(t, rm.GrandTotalRows)
	assert.NotEmpty(t, rm.HeaderRows[0].GrandTotal)

	m.SetGrandTotals(false, false)
	require.NoError(t, m.Calculate())
	rm, err = m.Render()
	require.NoError(t, err)
	assert.Empty(t, rm.HeaderRows[0].GrandTotal)
}

func TestRenderModelJSON(t *testing.T) {
	m := NewModel(smallSource())
	m.SetArea(m.Field("REGION"), AreaRow, 0)
	m.SetArea(m.Field("SALES"), AreaData, 0)
	require.NoError(t, m.Calculate())
	rm, err := m.Render()
	require.NoError(t, err)

	body, err := json.Marshal(rm)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"kind":"dataHeader"`)
	assert.Contains(t, string(body), `"descriptions":{"SALES":"SUM"}`)
	assert.Len(t, rm.AllRows(), len(rm.HeaderRows)+len(rm.DataRows)+len(rm.GrandTotalRows))
}

func TestSeparatorBytesInValuesKeepKeysApart(t *testing.T) {
	src := NewSliceSource(
		[]string{"X", "Y", "V"},
		[]FieldType{TypeString, TypeString, TypeNumber},
		[][]Value{
			{"a\x1fs:b", "c", 1.0},
			{"a", "b\x1fs:c", 10.0},
		},
	)
	m := NewModel(src)
	m.SetArea(m.Field("X"), AreaRow, 0)
	m.SetArea(m.Field("Y"), AreaRow, 1)
	m.SetArea(m.Field("V"), AreaData, 0)
	require.NoError(t, m.Calculate())

	require.Equal(t, []Key{{"a", "b\x1fs:c"}, {"a\x1fs:b", "c"}}, m.RowKeys())

	v, ok := m.ValueAt(m.Field("V"), Key{"a", "b\x1fs:c"}, Key{})
	require.True(t, ok)
	assert.Equal(t, 10.0, v)
	v, ok = m.ValueAt(m.Field("V"), Key{"a\x1fs:b", "c"}, Key{})
	require.True(t, ok)
	assert.Equal(t, 1.0, v)

	rm, err := m.Render()
	require.NoError(t, err)
	require.Len(t, rm.DataRows, 2)
	for _, row := range rm.DataRows {
		assert.Len(t, row.Header, 2)
	}
}
