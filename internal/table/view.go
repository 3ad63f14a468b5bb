package table

import (
	"github.com/JonMunkholm/tablekit/internal/column"
	"github.com/JonMunkholm/tablekit/internal/filter"
	"github.com/JonMunkholm/tablekit/internal/pagination"
	"github.com/JonMunkholm/tablekit/internal/remote"
)

// View is a render-ready snapshot of a table.
type View struct {
	Name    string
	Layout  []string
	Columns []column.Column
	Leaves  []column.Column
	Rows    []column.Row
	// RowKeys holds the selection key of each row in Rows.
	RowKeys []string
	// Offset is the position of Rows[0] in the whole result.
	Offset int

	// ColspanFix is the index of the column merged with the filter column.
	ColspanFix int

	Filter     FilterView
	Pagination PaginationView
	Actions    *ActionView

	Selection []string
	Loading   bool
	Params    remote.Params
	MaxHeight int
}

// FilterView is the column picker.
type FilterView struct {
	Enabled    bool
	Open       bool
	Candidates []column.Column
	Checked    []string
	RowNum     int
	CellSpan   int
	Width      int
	Buttons    []FilterButton
}

// FilterButton is a picker button with its label.
type FilterButton struct {
	Button filter.Button
	Label  string
}

// PaginationView is the pager.
type PaginationView struct {
	Show      bool
	State     pagination.State
	Pages     int
	PageSizes []int
	Layout    string
}

// ActionView is the rendered action column.
type ActionView struct {
	Prop    string
	Label   string
	Width   string
	Buttons []ActionButton
	Render  any
}

// Has reports whether the layout includes section.
func (v View) Has(section string) bool {
	return hasSection(v.Layout, section)
}

// View captures the current state for rendering.
func (t *Table) View() View {
	var (
		pv      PaginationView
		loading bool
		params  remote.Params
	)
	if t.remote != nil {
		pv.State = t.remote.State()
		pv.PageSizes = t.remote.PageSizes()
		pv.Layout = t.remote.Layout()
		loading = t.remote.Loading()
		params = t.remote.Params()
	}

	t.mu.Lock()
	rows := t.visibleRowsLocked()
	if t.page != nil {
		pv.State = t.page.State()
		pv.PageSizes = t.page.PageSizes()
		pv.Layout = t.page.Layout()
	}
	pageable := t.remote != nil || t.page.Enabled()
	pv.Pages = pv.State.TotalPages()
	pv.Show = pageable && hasSection(t.layout, SectionPagination) && pv.State.Total > 0

	keys := make([]string, len(rows))
	for i, row := range rows {
		keys[i] = t.sel.Key(row)
	}
	offset := 0
	if pageable && pv.State.CurrentPage > 1 {
		offset = (pv.State.CurrentPage - 1) * pv.State.PageSize
	}

	visible := t.visibleTreeLocked()
	v := View{
		Name:       t.opts.Name,
		Layout:     append([]string(nil), t.layout...),
		Columns:    visible.Columns,
		Leaves:     visible.Leaves(),
		Rows:       rows,
		RowKeys:    keys,
		Offset:     offset,
		ColspanFix: t.colspanFixLocked(visible),
		Filter:     t.filterViewLocked(),
		Pagination: pv,
		Selection:  t.sel.Keys(),
		Loading:    loading,
		Params:     params,
		MaxHeight:  t.maxHeight,
	}
	if a := t.opts.Actions; a.shown() {
		v.Actions = &ActionView{
			Prop:    t.actionProp,
			Label:   nonEmpty(a.Label, DefaultActionLabel),
			Width:   nonEmpty(a.Width, DefaultActionWidth),
			Buttons: a.Buttons,
			Render:  a.Render,
		}
	}
	t.unlockAndFlush()
	return v
}

// ColspanFix returns the index of the column that spans into the filter
// column: the leaf count with an action column, else one less.
func (t *Table) ColspanFix() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.colspanFixLocked(t.visibleTreeLocked())
}

func (t *Table) colspanFixLocked(visible column.Tree) int {
	if t.opts.Actions.shown() {
		return visible.LeafCount()
	}
	return visible.LeafCount() - 1
}

func (t *Table) filterViewLocked() FilterView {
	f := t.filter
	fv := FilterView{
		Enabled:    f.Enabled(),
		Open:       f.IsOpen(),
		Candidates: f.Candidates(),
		Checked:    f.Checked(),
		RowNum:     f.RowNum(),
		CellSpan:   f.CellSpan(),
		Width:      f.Width(),
	}
	for _, b := range f.Buttons() {
		fv.Buttons = append(fv.Buttons, FilterButton{Button: b, Label: f.ButtonLabel(b)})
	}
	return fv
}

func nonEmpty(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
