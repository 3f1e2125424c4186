package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// KEY TREE TESTS
// ============================================================================

func treeFor(t *testing.T, src DataSource, names ...string) *Tree {
	t.Helper()
	fields := make([]*Field, len(names))
	for i, name := range names {
		idx := FieldIndex(src, name)
		require.GreaterOrEqual(t, idx, 0, name)
		fields[i] = &Field{Name: name, Index: idx, SortOrder: SortAscending}
	}
	return buildTree(src, fields)
}

func TestTreeLeavesAreObservedCombinations(t *testing.T) {
	src := salesSource(100)
	tree := treeFor(t, src, "REGION", "SALESMAN", "YEAR")

	seen := make(map[string]bool)
	for r := 0; r < src.RowCount(); r++ {
		seen[encodeKey(Key{src.ValueAt(r, 0), src.ValueAt(r, 1), src.ValueAt(r, 2)})] = true
	}
	keys := tree.LeafKeys()
	assert.Len(t, keys, len(seen))

	// Cross product would be 3 regions × 6 salesmen × 2 years
	assert.Less(t, len(keys), 3*6*2)
	for _, k := range keys {
		assert.True(t, seen[encodeKey(k)], "unexpected key %v", k)
	}
}

func TestTreeOrderFollowsSortPolicy(t *testing.T) {
	src := NewSliceSource([]string{"V"}, nil, [][]Value{{"b"}, {nil}, {"c"}, {"a"}, {"b"}})

	asc := buildTree(src, []*Field{{Name: "V", Index: 0, SortOrder: SortAscending}})
	assert.Equal(t, []Key{{nil}, {"a"}, {"b"}, {"c"}}, asc.LeafKeys())

	desc := buildTree(src, []*Field{{Name: "V", Index: 0, SortOrder: SortDescending}})
	assert.Equal(t, []Key{{"c"}, {"b"}, {"a"}, {nil}}, desc.LeafKeys())

	none := buildTree(src, []*Field{{Name: "V", Index: 0, SortOrder: SortUnsorted}})
	assert.Equal(t, []Key{{"b"}, {nil}, {"c"}, {"a"}}, none.LeafKeys())
}

func TestTreeNavigation(t *testing.T) {
	src := salesSource(100)
	tree := treeFor(t, src, "REGION", "SALESMAN")

	east := tree.FindNode(Key{"East"})
	require.NotEqual(t, NoNode, east)
	assert.Equal(t, 1, tree.Level(east))
	assert.Equal(t, tree.Root(), tree.Parent(east))
	assert.Equal(t, Key{"East"}, tree.Path(east))
	assert.Equal(t, 2, tree.LeafCount(east))
	assert.False(t, tree.IsLeaf(east))

	smith := tree.FindNode(Key{"East", "Smith"})
	require.NotEqual(t, NoNode, smith)
	assert.True(t, tree.IsLeaf(smith))
	assert.Equal(t, 1, tree.LeafCount(smith))
	assert.Equal(t, "Smith", tree.Value(smith))
	assert.NotEmpty(t, tree.Rows(smith))

	assert.Equal(t, NoNode, tree.FindNode(Key{"East", "Brown"}))
	assert.Equal(t, tree.Root(), tree.FindNode(Key{}))
	assert.Equal(t, 6, tree.LeafCount(tree.Root()))
	assert.Equal(t, 2, tree.Depth())
}

func TestTreeWithoutFieldsHasOneEmptyKey(t *testing.T) {
	tree := buildTree(salesSource(10), nil)
	assert.Equal(t, []Key{{}}, tree.LeafKeys())
	assert.Len(t, tree.Rows(tree.Root()), 10)
}

func TestTreeOverEmptySourceHasNoLeaves(t *testing.T) {
	src := NewSliceSource([]string{"V"}, nil, nil)
	tree := buildTree(src, []*Field{{Name: "V", Index: 0}})
	assert.Empty(t, tree.Leaves())
	assert.Empty(t, tree.LeafKeys())
}

func TestFilterNarrowsRows(t *testing.T) {
	src := salesSource(30)
	rows := ApplyFilter(src, nil, Filter{0: "East"})
	for _, r := range rows {
		assert.Equal(t, "East", src.ValueAt(r, 0))
	}
	assert.Len(t, rows, 10)

	narrowed := ApplyFilter(src, rows, Filter{0: "East", 1: "Smith"})
	assert.Subset(t, rows, narrowed)
	assert.Len(t, ApplyFilter(src, nil, nil), 30)
}
