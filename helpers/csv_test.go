package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/pivot/engine"
	"github.com/spektr-org/pivot/schema"
)

var salesCSV = []byte(`Region,Year,Shipped,Amount,Order Date
East,2020,yes,"1,200.50",2020-03-01
East,2021,no,300,2021-04-15
West,2020,yes,N/A,2020-07-09
West,2021,no,450.25,
`)

func TestParseCSVAuto(t *testing.T) {
	src, sch, err := ParseCSVAuto(salesCSV)
	require.NoError(t, err)
	require.NotNil(t, sch)

	assert.Equal(t, 5, src.FieldCount())
	assert.Equal(t, 4, src.RowCount())
	assert.Equal(t, "Amount", src.FieldName(3))

	assert.Equal(t, engine.TypeNumber, src.FieldType(1))
	assert.Equal(t, engine.TypeBool, src.FieldType(2))
	assert.Equal(t, engine.TypeNumber, src.FieldType(3))
	assert.Equal(t, engine.TypeTime, src.FieldType(4))

	assert.Equal(t, "East", src.ValueAt(0, 0))
	assert.Equal(t, 2020.0, src.ValueAt(0, 1))
	assert.Equal(t, true, src.ValueAt(0, 2))
	assert.Equal(t, 1200.5, src.ValueAt(0, 3))
	assert.Equal(t, time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), src.ValueAt(0, 4))

	// Null markers
	assert.Nil(t, src.ValueAt(2, 3))
	assert.Nil(t, src.ValueAt(3, 4))
}

func TestParseCSVWithSchema(t *testing.T) {
	sch := &schema.Config{Fields: []schema.FieldMeta{
		{Name: "Region", Type: engine.TypeString},
		{Name: "Amount", Type: engine.TypeNumber},
	}}
	src, err := ParseCSV(salesCSV, sch)
	require.NoError(t, err)

	// Year is not in the schema and stays text
	assert.Equal(t, engine.TypeString, src.FieldType(1))
	assert.Equal(t, "2020", src.ValueAt(0, 1))
	assert.Equal(t, 300.0, src.ValueAt(1, 3))
}

func TestParseCSVShortRows(t *testing.T) {
	src, err := ParseCSV([]byte("A,B,C\n1,2\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, "1", src.ValueAt(0, 0))
	assert.Nil(t, src.ValueAt(0, 2))
}

func TestParseCSVEmpty(t *testing.T) {
	_, err := ParseCSV(nil, nil)
	assert.ErrorIs(t, err, schema.ErrNoData)
}

func TestConvertCellKeepsUnparsableText(t *testing.T) {
	assert.Equal(t, "n/k", ConvertCell("n/k", schema.FieldMeta{Type: engine.TypeNumber}))
	assert.Equal(t, "maybe", ConvertCell("maybe", schema.FieldMeta{Type: engine.TypeBool}))

	meta := schema.FieldMeta{Type: engine.TypeTime, TimeLayout: "01/02/2006"}
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), ConvertCell("12/31/2024", meta))
}

func TestParsedSourceFeedsModel(t *testing.T) {
	src, sch, err := ParseCSVAuto(salesCSV)
	require.NoError(t, err)

	m := engine.NewModel(src)
	require.NoError(t, schema.Layout{Rows: []string{"Region"}, Data: []string{"Amount"}}.Apply(m, sch))
	require.NoError(t, m.Calculate())

	v, ok := m.ValueAt(m.Field("Amount"), engine.Key{"East"}, engine.Key{})
	require.True(t, ok)
	assert.InDelta(t, 1500.5, v, 1e-9)

	v, ok = m.ValueAt(m.Field("Amount"), engine.Key{"West"}, engine.Key{})
	require.True(t, ok)
	assert.InDelta(t, 450.25, v, 1e-9)
}
