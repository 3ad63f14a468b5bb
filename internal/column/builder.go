package column

import (
	"log/slog"
	"sort"
)

// DefaultBaseOrder is the starting value of the default-order counter.
const DefaultBaseOrder = 100

// typeOrderOffset pushes undeclared structural columns ahead of every
// undeclared data column.
const typeOrderOffset = 100000

// Builder merges column sources into a Tree. The default-order counter is
// monotonic for the lifetime of the builder, so repeated builds never hand
// out the same default order twice.
type Builder struct {
	base       int
	filterable bool
	logger     *slog.Logger
}

// BuilderOptions configures a Builder.
type BuilderOptions struct {
	// Filterable enables the unique-prop diagnostic.
	Filterable bool
	Logger     *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(opts BuilderOptions) *Builder {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		base:       DefaultBaseOrder,
		filterable: opts.Filterable,
		logger:     logger,
	}
}

// Build concatenates the template columns and the config columns, assigns
// default orders, counts leaves and stable-sorts the roots by order.
func (b *Builder) Build(tpl TemplateSource, cfg ConfigSource) Tree {
	return b.BuildFrom(tpl, cfg)
}

// BuildFrom is Build over any sequence of sources, merged in argument order.
func (b *Builder) BuildFrom(sources ...Source) Tree {
	var all []Column
	for _, src := range sources {
		if src == nil {
			continue
		}
		all = append(all, src.Normalize()...)
	}

	leaves := 0
	for i := range all {
		leaves += b.assign(&all[i])
	}

	if b.filterable {
		for _, c := range all {
			if c.Prop == "" && c.Type == TypeNone {
				b.logger.Warn("column filter needs a unique prop on every column",
					"label", c.Label,
				)
				break
			}
		}
	}

	sortByOrder(all)
	return Tree{Columns: all, leaves: leaves}
}

// assign gives c and its children default orders and returns c's leaf count.
func (b *Builder) assign(c *Column) int {
	if c.Order == nil {
		b.base++
		if c.Type.IsStructural() {
			c.Order = OrderOf(b.base - typeOrderOffset)
			if c.LabelClassName == "" {
				c.LabelClassName = TypeColumnClass
			}
		} else {
			c.Order = OrderOf(b.base)
		}
	}

	if len(c.Children) == 0 {
		return 1
	}
	n := 0
	for i := range c.Children {
		n += b.assign(&c.Children[i])
	}
	sortByOrder(c.Children)
	return n
}

func sortByOrder(cols []Column) {
	sort.SliceStable(cols, func(i, j int) bool {
		return cols[i].OrderValue() < cols[j].OrderValue()
	})
}
