package engine

// ============================================================================
// KEY TREE — Ordered n-ary grouping tree
// ============================================================================
// Nodes live in an arena and point to their parent by index. The path from
// the root to a node is one grouping key; the leaves enumerate exactly the
// key combinations observed in the source.
//
// The builder narrows the candidate rows per node: each child carries the
// subset of its parent's rows holding the child's value, so no level rescans
// the whole source.
// ============================================================================

// NoNode is returned by lookups that find nothing.
const NoNode = -1

type treeNode struct {
	value    Value
	parent   int
	level    int
	children []int
	rows     []int
}

// Tree is a key tree for one area.
type Tree struct {
	nodes []treeNode
	depth int
}

// buildTree groups rows by fields, level by level, in the order given.
func buildTree(src DataSource, fields []*Field) *Tree {
	t := &Tree{depth: len(fields)}
	t.nodes = append(t.nodes, treeNode{parent: NoNode, rows: allRows(src)})
	t.insertChildren(src, 0, fields)
	return t
}

func (t *Tree) insertChildren(src DataSource, n int, fields []*Field) {
	level := t.nodes[n].level
	if level >= len(fields) {
		return
	}
	field := fields[level]

	// Group the node's rows by the next field, first occurrence order
	var order []Value
	groups := make(map[string][]int)
	for _, r := range t.nodes[n].rows {
		v := src.ValueAt(r, field.Index)
		k := encodeKey(Key{v})
		if _, ok := groups[k]; !ok {
			order = append(order, v)
		}
		groups[k] = append(groups[k], r)
	}

	sortValues(order, field.SortOrder)

	first := len(t.nodes)
	for _, v := range order {
		t.nodes = append(t.nodes, treeNode{
			value:  v,
			parent: n,
			level:  level + 1,
			rows:   groups[encodeKey(Key{v})],
		})
	}
	children := make([]int, len(order))
	for i := range order {
		children[i] = first + i
	}
	t.nodes[n].children = children

	// Interior nodes no longer need their rows
	if level+1 < len(fields) {
		for _, c := range children {
			t.insertChildren(src, c, fields)
		}
	}
	t.nodes[n].rows = nil
}

// Root returns the root node index.
func (t *Tree) Root() int { return 0 }

// Depth is the number of fields the tree groups by.
func (t *Tree) Depth() int { return t.depth }

// Size is the number of nodes, root included.
func (t *Tree) Size() int { return len(t.nodes) }

// Value returns the node's value; the root has none.
func (t *Tree) Value(n int) Value { return t.nodes[n].value }

// Parent returns the parent index, NoNode for the root.
func (t *Tree) Parent(n int) int { return t.nodes[n].parent }

// Level is the depth of the node; the root is level 0.
func (t *Tree) Level(n int) int { return t.nodes[n].level }

// Children returns the ordered child indices.
func (t *Tree) Children(n int) []int { return t.nodes[n].children }

// IsLeaf reports whether the node has no children.
func (t *Tree) IsLeaf(n int) bool { return len(t.nodes[n].children) == 0 }

// Path returns the values from the root down to n.
func (t *Tree) Path(n int) Key {
	path := make(Key, t.nodes[n].level)
	for i := n; t.nodes[i].parent != NoNode; i = t.nodes[i].parent {
		path[t.nodes[i].level-1] = t.nodes[i].value
	}
	return path
}

// Rows returns the source rows grouped under a leaf.
func (t *Tree) Rows(n int) []int { return t.nodes[n].rows }

// Leaves returns every leaf in document order. A tree over zero fields has a
// single leaf, the root, whose key is empty; a tree over an empty source has
// no leaves at all.
func (t *Tree) Leaves() []int {
	if t.depth > 0 && t.IsLeaf(0) {
		return nil
	}
	var leaves []int
	var walk func(n int)
	walk = func(n int) {
		if t.IsLeaf(n) {
			leaves = append(leaves, n)
			return
		}
		for _, c := range t.nodes[n].children {
			walk(c)
		}
	}
	walk(0)
	return leaves
}

// LeafKeys returns the keys of Leaves in the same order.
func (t *Tree) LeafKeys() []Key {
	leaves := t.Leaves()
	keys := make([]Key, len(leaves))
	for i, n := range leaves {
		keys[i] = t.Path(n)
	}
	return keys
}

// FindNode returns the node whose path equals path, or NoNode.
func (t *Tree) FindNode(path Key) int {
	n := 0
	for _, v := range path {
		next := NoNode
		for _, c := range t.nodes[n].children {
			if ValuesEqual(t.nodes[c].value, v) {
				next = c
				break
			}
		}
		if next == NoNode {
			return NoNode
		}
		n = next
	}
	return n
}

// LeafCount returns the number of leaves under n (1 for a leaf).
func (t *Tree) LeafCount(n int) int {
	if t.IsLeaf(n) {
		return 1
	}
	count := 0
	for _, c := range t.nodes[n].children {
		count += t.LeafCount(c)
	}
	return count
}
