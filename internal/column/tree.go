package column

// Tree is the ordered list of root columns.
type Tree struct {
	Columns []Column
	leaves  int
}

// NewTree wraps already-ordered columns and counts their leaves.
func NewTree(cols []Column) Tree {
	return Tree{Columns: cols, leaves: countLeaves(cols)}
}

// LeafCount is the number of leaf columns across all roots.
func (t Tree) LeafCount() int {
	return t.leaves
}

// Len is the number of root columns.
func (t Tree) Len() int {
	return len(t.Columns)
}

// Props returns the root props in order.
func (t Tree) Props() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Prop
	}
	return out
}

// Labels returns the root labels in order.
func (t Tree) Labels() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Label
	}
	return out
}

// Leaves returns the leaf columns in depth-first order.
func (t Tree) Leaves() []Column {
	var out []Column
	var walk func(cols []Column)
	walk = func(cols []Column) {
		for _, c := range cols {
			if c.IsLeaf() {
				out = append(out, c)
				continue
			}
			walk(c.Children)
		}
	}
	walk(t.Columns)
	return out
}

// Find returns the root column with the given prop.
func (t Tree) Find(prop string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Prop == prop {
			return c, true
		}
	}
	return Column{}, false
}

// Filter returns a tree holding the roots for which keep returns true.
func (t Tree) Filter(keep func(Column) bool) Tree {
	var out []Column
	for _, c := range t.Columns {
		if keep(c) {
			out = append(out, c)
		}
	}
	return NewTree(out)
}

// Reorder applies a label sequence reported by a drag adapter: a root
// whose label sits at index i in labels gets order i. The roots are then
// stable-sorted again. The receiver is not modified.
func (t Tree) Reorder(labels []string) Tree {
	cols := make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c.Clone()
	}
	for i := range cols {
		for idx, label := range labels {
			if label == cols[i].Label {
				cols[i].Order = OrderOf(idx)
			}
		}
	}
	sortByOrder(cols)
	return Tree{Columns: cols, leaves: t.leaves}
}

func countLeaves(cols []Column) int {
	n := 0
	for _, c := range cols {
		if c.IsLeaf() {
			n++
			continue
		}
		n += countLeaves(c.Children)
	}
	return n
}
