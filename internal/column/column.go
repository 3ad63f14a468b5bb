// Package column builds the ordered column model of a table.
//
// Columns arrive from two declaration sources: template columns, declared
// inline as attribute bags, and config columns, declared as typed data.
// [Builder.Build] resolves both into one [Tree] of normalized [Column]
// values, assigning default orders and counting leaves for colspan
// arithmetic.
package column

import (
	"strconv"
	"strings"
)

// Row is a single row of table data.
type Row map[string]any

// Type marks structural columns that bypass filtering.
type Type string

const (
	TypeNone      Type = ""
	TypeSelection Type = "selection"
	TypeIndex     Type = "index"
	TypeExpand    Type = "expand"
)

// ParseType converts a declared type string. Unknown values map to TypeNone.
func ParseType(s string) Type {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case TypeSelection:
		return TypeSelection
	case TypeIndex:
		return TypeIndex
	case TypeExpand:
		return TypeExpand
	default:
		return TypeNone
	}
}

// IsStructural reports whether t is selection, index or expand.
func (t Type) IsStructural() bool {
	return t == TypeSelection || t == TypeIndex || t == TypeExpand
}

// Class names applied to header cells. Drag adapters use them to exclude
// columns that cannot be reordered.
const (
	TypeColumnClass     = "tablekit__type-column"
	ChildColumnClass    = "tablekit__column--children"
	ActionColumnClass   = "tablekit__action-column"
	FilterColumnClass   = "tablekit__filter-column"
	DraggableColumnMark = "tablekit__sort-column--dragable"
)

// Column is a normalized column definition.
type Column struct {
	Prop  string `json:"prop,omitempty"`
	Label string `json:"label,omitempty"`

	// Order is assigned during build. Declarations leave it nil to get a
	// default placement.
	Order *int `json:"order,omitempty"`

	Type     Type     `json:"type,omitempty"`
	Children []Column `json:"children,omitempty"`

	LabelClassName string         `json:"labelClassName,omitempty"`
	Attrs          map[string]any `json:"attrs,omitempty"`

	// Render hooks are opaque to the core and passed through to renderers.
	Render       any            `json:"-"`
	RenderHeader any            `json:"-"`
	Slots        map[string]any `json:"-"`
	On           map[string]any `json:"-"`
}

// OrderValue returns the assigned order, or 0 when none is set.
func (c Column) OrderValue() int {
	if c.Order == nil {
		return 0
	}
	return *c.Order
}

// IsLeaf reports whether c has no children.
func (c Column) IsLeaf() bool {
	return len(c.Children) == 0
}

// Filterable reports whether c can appear in the column filter.
func (c Column) Filterable() bool {
	return strings.TrimSpace(c.Label) != ""
}

// Key returns a stable identity for rendering: order, then type, then prop.
func (c Column) Key() string {
	switch {
	case c.Order != nil:
		return strconv.Itoa(*c.Order)
	case c.Type != TypeNone:
		return string(c.Type)
	default:
		return c.Prop
	}
}

// Clone returns a deep copy of c, including children.
func (c Column) Clone() Column {
	out := c
	if c.Order != nil {
		o := *c.Order
		out.Order = &o
	}
	if c.Attrs != nil {
		out.Attrs = make(map[string]any, len(c.Attrs))
		for k, v := range c.Attrs {
			out.Attrs[k] = v
		}
	}
	if c.Children != nil {
		out.Children = make([]Column, len(c.Children))
		for i, ch := range c.Children {
			out.Children[i] = ch.Clone()
		}
	}
	return out
}

// OrderOf returns a pointer to n, for declaring explicit orders.
func OrderOf(n int) *int {
	return &n
}
