package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/pivot/engine"
)

func TestParseDataSpec(t *testing.T) {
	tests := []struct {
		spec string
		name string
		fn   engine.AggregateFunc
	}{
		{"Amount", "Amount", engine.AggregateNone},
		{"Amount:avg", "Amount", engine.AggregateAvg},
		{" Amount : COUNT", "Amount", engine.AggregateCount},
		{"ratio:a:b", "ratio:a:b", engine.AggregateNone},
		{"Amount:average", "Amount", engine.AggregateAvg},
	}
	for _, tc := range tests {
		name, fn := parseDataSpec(tc.spec)
		assert.Equal(t, tc.name, name, tc.spec)
		assert.Equal(t, tc.fn, fn, tc.spec)
	}
}

func TestParseCalcSpec(t *testing.T) {
	calc, err := parseCalcSpec("Gross Margin = subtract( Revenue , Cost )")
	require.NoError(t, err)
	assert.Equal(t, calcSpec{title: "Gross Margin", fn: engine.CalcSubtract, a: "Revenue", b: "Cost"}, calc)

	calc, err = parseCalcSpec("Share=percentof(Revenue,Total Revenue)")
	require.NoError(t, err)
	assert.Equal(t, engine.CalcPercentOf, calc.fn)
	assert.Equal(t, "Total Revenue", calc.b)

	_, err = parseCalcSpec("Margin=divide(A,B)")
	assert.ErrorIs(t, err, engine.ErrUnknownFunction)

	_, err = parseCalcSpec("Margin subtract(A,B)")
	assert.Error(t, err)
}

func TestParseSortSpec(t *testing.T) {
	name, order, err := parseSortSpec("Region:desc")
	require.NoError(t, err)
	assert.Equal(t, "Region", name)
	assert.Equal(t, engine.SortDescending, order)

	_, _, err = parseSortSpec("Region")
	assert.Error(t, err)

	_, _, err = parseSortSpec("Region:sideways")
	assert.ErrorIs(t, err, engine.ErrUnknownFunction)
}

func TestParseGrandTotals(t *testing.T) {
	tests := []struct {
		spec        string
		row, column bool
	}{
		{"row", true, false},
		{"column", false, true},
		{"row,column", true, true},
		{"both", true, true},
		{"none", false, false},
	}
	for _, tc := range tests {
		row, column, err := parseGrandTotals(tc.spec)
		require.NoError(t, err, tc.spec)
		assert.Equal(t, tc.row, row, tc.spec)
		assert.Equal(t, tc.column, column, tc.spec)
	}

	_, _, err := parseGrandTotals("diagonal")
	assert.Error(t, err)
}

func TestLayoutFlagsApply(t *testing.T) {
	src := engine.NewSliceSource(
		[]string{"Region", "Revenue", "Cost"},
		[]engine.FieldType{engine.TypeString, engine.TypeNumber, engine.TypeNumber},
		[][]engine.Value{
			{"East", 100.0, 60.0},
			{"West", 80.0, 50.0},
			{"East", 20.0, 10.0},
		},
	)
	m := engine.NewModel(src)
	flags := layoutFlags{
		rows:        []string{"Region"},
		data:        []string{"Revenue", "Cost:max"},
		calcs:       []string{"Margin=subtract(Revenue,Cost)", "Margin Share=percentOf(Margin,Revenue)"},
		sorts:       []string{"Region:desc"},
		grandTotals: "column",
	}
	require.NoError(t, flags.apply(m, nil))

	assert.Equal(t, engine.AggregateSum, m.Field("Revenue").Aggregate)
	assert.Equal(t, engine.AggregateMax, m.Field("Cost").Aggregate)
	assert.Equal(t, engine.SortDescending, m.Field("Region").SortOrder)
	row, column := m.GrandTotals()
	assert.False(t, row)
	assert.True(t, column)

	data := m.FieldsIn(engine.AreaData)
	require.Len(t, data, 4)
	assert.Equal(t, "Margin", data[2].Title)
	assert.Equal(t, "Margin Share", data[3].Title)

	require.NoError(t, m.Calculate())
	assert.Equal(t, []engine.Key{{"West"}, {"East"}}, m.RowKeys())

	v, ok := m.ValueAt(data[2], engine.Key{"East"}, engine.Key{})
	require.True(t, ok)
	assert.InDelta(t, 60.0, v, 1e-9)
}

func TestLayoutFlagsUnknownOperand(t *testing.T) {
	src := engine.NewSliceSource([]string{"A"}, []engine.FieldType{engine.TypeNumber}, [][]engine.Value{{1.0}})
	m := engine.NewModel(src)
	flags := layoutFlags{data: []string{"A"}, calcs: []string{"X=addition(A,Missing)"}}
	assert.ErrorIs(t, flags.apply(m, nil), engine.ErrUnknownField)
}
