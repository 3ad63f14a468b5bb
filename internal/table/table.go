// Package table composes the column model, column filter, pagination or
// remote coordination, and selection into one owning component.
//
// A Table guards its state with a mutex. Events and widget calls made
// while the lock is held are queued and released once it is dropped, so
// subscribers and widgets may call back into the table.
package table

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/JonMunkholm/tablekit/internal/adapter"
	"github.com/JonMunkholm/tablekit/internal/column"
	"github.com/JonMunkholm/tablekit/internal/event"
	"github.com/JonMunkholm/tablekit/internal/filter"
	"github.com/JonMunkholm/tablekit/internal/pagination"
	"github.com/JonMunkholm/tablekit/internal/remote"
	"github.com/JonMunkholm/tablekit/internal/selection"
)

// ColumnOrder is the column-reordered and column-order-committed payload.
type ColumnOrder struct {
	Labels  []string
	Columns []column.Column
}

// Table is safe for concurrent use.
type Table struct {
	opts       Options
	logger     *slog.Logger
	layout     []string
	actionProp string

	// Exactly one of page and remote is set. remote is never called while
	// mu is held.
	remote *remote.Coordinator
	drag   *adapter.Drag
	resize *adapter.Resize
	bus    *event.Bus

	mu         sync.Mutex
	queue      event.Queue
	ops        []func(Widget)
	builder    *column.Builder
	tree       column.Tree
	filter     *filter.State
	page       *pagination.Controller
	sel        *selection.Reconciler
	rows       []column.Row
	remoteRows []column.Row
	widget     Widget
	maxHeight  int
}

// NewLocal creates a table over an in-memory row list.
func NewLocal(opts Options, rows []column.Row) *Table {
	t := newTable(opts)
	t.page = pagination.New(pagination.Options{
		CurrentPage: opts.CurrentPage,
		PageSize:    opts.PageSize,
		PageSizes:   opts.PageSizes,
		Layout:      opts.PaginationLayout,
		Disabled:    opts.Unpaged,
		Logger:      t.logger,
	}, &t.queue)

	t.mu.Lock()
	t.setDataLocked(rows)
	t.queue.Drain()
	t.ops = nil
	t.mu.Unlock()
	return t
}

// NewRemote creates a table whose rows come from a fetcher. Table options
// fill any pagination settings ropts leaves unset.
func NewRemote(opts Options, ropts remote.Options) (*Table, error) {
	t := newTable(opts)

	p := &ropts.Pagination
	if p.PageSize == 0 {
		p.PageSize = opts.PageSize
	}
	if p.CurrentPage == 0 {
		p.CurrentPage = opts.CurrentPage
	}
	if p.PageSizes == nil {
		p.PageSizes = opts.PageSizes
	}
	if p.Layout == "" {
		p.Layout = opts.PaginationLayout
	}
	if ropts.Source == "" {
		ropts.Source = opts.Name
	}
	if ropts.Logger == nil {
		ropts.Logger = t.logger
	}
	var forward event.Emitter = event.EmitterFunc(t.onRemote)
	if ropts.Emitter != nil {
		user := ropts.Emitter
		forward = event.EmitterFunc(func(e event.Event) {
			t.onRemote(e)
			user.Emit(e)
		})
	}
	ropts.Emitter = forward

	c, err := remote.New(ropts)
	if err != nil {
		return nil, fmt.Errorf("new remote table %q: %w", opts.Name, err)
	}
	t.remote = c
	return t, nil
}

func newTable(opts Options) *Table {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Name != "" {
		logger = logger.With("table", opts.Name)
	}
	if opts.Filter.Logger == nil {
		opts.Filter.Logger = logger
	}

	t := &Table{
		opts:    opts,
		logger:  logger,
		layout:  parseLayout(opts.Layout),
		bus:     event.NewBus(),
		builder: column.NewBuilder(column.BuilderOptions{Filterable: opts.Filter.Enabled, Logger: logger}),
	}
	if opts.Actions.shown() {
		t.actionProp = uuid.NewString()
	}
	t.sel = selection.New(opts.RowKey, &t.queue)
	t.sel.Apply(opts.Selection, nil, nil)
	t.tree = t.builder.Build(opts.Template, opts.Columns)
	t.filter = filter.New(t.tree, opts.Filter, &t.queue)

	if opts.DragSortable {
		t.drag = adapter.NewDrag(adapter.DragOptions{
			Exclude: opts.DragExclude,
			OnSort:  t.ColumnsReordered,
		})
		t.drag.Rebind(t.dragLabelsLocked())
	}
	if opts.AutoHeight {
		t.resize = adapter.NewResize(adapter.ResizeOptions{
			FixHeight: opts.FixHeight,
			MinHeight: opts.MinHeight,
			Debounce:  opts.ResizeDebounce,
			OnResize:  t.setMaxHeight,
		})
	}
	return t
}

// Remote reports whether the table is server backed.
func (t *Table) Remote() bool { return t.remote != nil }

// Coordinator returns the remote coordinator, nil for local tables.
func (t *Table) Coordinator() *remote.Coordinator { return t.remote }

// Subscribe registers h for sig.
func (t *Table) Subscribe(sig event.Signal, h event.Handler) func() {
	return t.bus.Subscribe(sig, h)
}

// Attach binds the rendering widget and marks the current selection on it.
func (t *Table) Attach(w Widget) {
	t.mu.Lock()
	t.widget = w
	t.markLocked()
	t.unlockAndFlush()
}

// Close stops the coordinator and adapters.
func (t *Table) Close() {
	if t.remote != nil {
		t.remote.Close()
	}
	if t.resize != nil {
		t.resize.Stop()
	}
}

// SetColumns replaces the declarations and rebuilds the column tree.
func (t *Table) SetColumns(tpl column.TemplateSource, cfg column.ConfigSource) {
	t.mu.Lock()
	t.opts.Template, t.opts.Columns = tpl, cfg
	t.tree = t.builder.Build(tpl, cfg)
	t.filter.Rebuild(t.tree)
	t.rebindDragLocked()
	t.unlockAndFlush()
}

// Columns returns the full ordered tree, hidden columns included.
func (t *Table) Columns() column.Tree {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree
}

// SetData replaces the rows of a local table.
func (t *Table) SetData(rows []column.Row) error {
	if t.remote != nil {
		return fmt.Errorf("set data on remote table %q: rows come from the fetcher", t.opts.Name)
	}
	t.mu.Lock()
	t.setDataLocked(rows)
	t.unlockAndFlush()
	return nil
}

func (t *Table) setDataLocked(rows []column.Row) {
	t.rows = append([]column.Row(nil), rows...)
	t.page.SetTotalFromData(len(t.rows))
	t.markLocked()
}

// Rows returns the rows currently on screen.
func (t *Table) Rows() []column.Row {
	t.mu.Lock()
	rows := t.visibleRowsLocked()
	t.unlockAndFlush()
	return rows
}

// SetSelection adds keys to the selection and marks the visible rows.
func (t *Table) SetSelection(keys []string) {
	t.mu.Lock()
	t.sel.Apply(keys, t.visibleRowsLocked(), widgetOps{t})
	t.unlockAndFlush()
}

// SelectionChanged records the rows the widget reports as selected.
func (t *Table) SelectionChanged(rows []column.Row) {
	t.mu.Lock()
	t.sel.Changed(rows)
	t.unlockAndFlush()
}

// Selection returns the selected keys.
func (t *Table) Selection() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sel.Keys()
}

// SetChecked sets the visible filterable columns.
func (t *Table) SetChecked(props []string) {
	t.withFilter(func(f *filter.State) { f.SetChecked(props) })
}

// SelectAllColumns checks as many filterable columns as allowed.
func (t *Table) SelectAllColumns() {
	t.withFilter((*filter.State).SelectAll)
}

// ResetColumns restores the default column selection.
func (t *Table) ResetColumns() {
	t.withFilter((*filter.State).Reset)
}

// OpenFilter shows the column picker.
func (t *Table) OpenFilter() {
	t.withFilter((*filter.State).Open)
}

// CancelFilter hides the column picker without changes.
func (t *Table) CancelFilter() {
	t.withFilter((*filter.State).Cancel)
}

func (t *Table) withFilter(fn func(*filter.State)) {
	t.mu.Lock()
	before := t.filter.Checked()
	fn(t.filter)
	if !equalStrings(before, t.filter.Checked()) {
		t.rebindDragLocked()
	}
	t.unlockAndFlush()
}

// SetPageSize changes the page size.
func (t *Table) SetPageSize(n int) {
	if t.remote != nil {
		t.remote.SetPageSize(n)
		return
	}
	t.mu.Lock()
	if t.page.SetPageSize(n) {
		t.markLocked()
	}
	t.unlockAndFlush()
}

// SetCurrentPage moves to page p.
func (t *Table) SetCurrentPage(p int) {
	if t.remote != nil {
		t.remote.SetCurrentPage(p)
		return
	}
	t.mu.Lock()
	if t.page.SetCurrentPage(p) {
		t.markLocked()
	}
	t.unlockAndFlush()
}

// PrevClick reports a pager click.
func (t *Table) PrevClick(page int) {
	if t.remote != nil {
		t.remote.PrevClick(page)
		return
	}
	t.mu.Lock()
	t.page.PrevClick(page)
	t.unlockAndFlush()
}

// NextClick reports a pager click.
func (t *Table) NextClick(page int) {
	if t.remote != nil {
		t.remote.NextClick(page)
		return
	}
	t.mu.Lock()
	t.page.NextClick(page)
	t.unlockAndFlush()
}

// PageState returns the pagination state.
func (t *Table) PageState() pagination.State {
	if t.remote != nil {
		return t.remote.State()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.page.State()
}

// DoRequest fetches with extra parameters. Local tables ignore it.
func (t *Table) DoRequest(extra remote.Params) {
	if t.remote != nil {
		t.remote.DoRequest(extra)
	}
}

// Reload re-fetches the current page of a remote table.
func (t *Table) Reload() {
	if t.remote != nil {
		t.remote.Reload()
	}
}

// DropColumn reports a header drag from one draggable index to another.
func (t *Table) DropColumn(from, to int) error {
	if t.drag == nil {
		return fmt.Errorf("drop column: %w", ErrUnsupported)
	}
	return t.drag.Drop(from, to)
}

// ColumnsReordered applies a label sequence from the drag adapter.
func (t *Table) ColumnsReordered(labels []string) {
	t.mu.Lock()
	labels = append([]string(nil), labels...)
	t.queue.Emit(event.Event{Signal: event.ColumnReordered, Payload: ColumnOrder{
		Labels:  labels,
		Columns: t.tree.Columns,
	}})
	t.tree = t.tree.Reorder(labels)
	t.queue.Emit(event.Event{Signal: event.ColumnOrderCommitted, Payload: ColumnOrder{
		Labels:  labels,
		Columns: t.tree.Columns,
	}})
	t.rebindDragLocked()
	t.unlockAndFlush()

	if t.resize != nil {
		t.resize.Recompute()
	}
}

// Viewport reports the viewport geometry to the resize adapter.
func (t *Table) Viewport(innerHeight, offsetTop int) {
	if t.resize != nil {
		t.resize.Viewport(innerHeight, offsetTop)
	}
}

// Measure applies a known viewport geometry without waiting for the
// debounce. Server-side renders use it when the client sent its height.
func (t *Table) Measure(innerHeight, offsetTop int) {
	if t.resize != nil {
		t.resize.Measure(innerHeight, offsetTop)
	}
}

func (t *Table) setMaxHeight(h int) {
	t.mu.Lock()
	changed := h != t.maxHeight
	t.maxHeight = h
	if changed {
		widgetOps{t}.DoLayout()
	}
	t.unlockAndFlush()
}

// TriggerAction runs the handler of action button i for row.
func (t *Table) TriggerAction(i int, row column.Row) error {
	a := t.opts.Actions
	if !a.shown() || i < 0 || i >= len(a.Buttons) {
		return fmt.Errorf("trigger action %d: no such button", i)
	}
	if h := a.Buttons[i].Handler; h != nil {
		h(row)
	}
	return nil
}

// Reset returns to page 1 with the declared page size, clears the widget
// filters, clears the sort unless a default sort is declared, and restores
// the default selection.
func (t *Table) Reset() {
	size := t.opts.PageSize
	if size <= 0 {
		size = pagination.DefaultPageSize
	}

	t.mu.Lock()
	ops := widgetOps{t}
	ops.ClearFilter()
	if s := t.opts.DefaultSort; s != nil {
		ops.Sort(s.Prop, s.Order)
	} else {
		ops.ClearSort()
	}
	if t.remote == nil {
		t.page.Reset(size)
	}
	t.sel.Reset(t.opts.Selection, t.visibleRowsLocked(), ops)
	t.unlockAndFlush()

	if t.remote != nil {
		t.remote.Reset(size)
	}
}

// onRemote receives coordinator events after the coordinator released its
// lock and re-publishes them on the table bus.
func (t *Table) onRemote(e event.Event) {
	t.mu.Lock()
	if dc, ok := e.Payload.(remote.DataChange); ok && e.Signal == event.DataChanged {
		t.remoteRows = dc.Rows
		t.markLocked()
	}
	t.queue.Emit(e)
	t.unlockAndFlush()
}

func (t *Table) visibleRowsLocked() []column.Row {
	if t.page == nil {
		return append([]column.Row(nil), t.remoteRows...)
	}
	return pagination.Slice(t.page, t.rows)
}

func (t *Table) markLocked() {
	if t.widget == nil {
		return
	}
	t.sel.Mark(t.visibleRowsLocked(), widgetOps{t})
}

func (t *Table) visibleTreeLocked() column.Tree {
	return t.filter.Visible(t.tree)
}

// dragLabelsLocked lists the labels of visible data columns in header
// order.
func (t *Table) dragLabelsLocked() []string {
	var labels []string
	for _, c := range t.visibleTreeLocked().Columns {
		if c.Type.IsStructural() || c.Label == "" {
			continue
		}
		labels = append(labels, c.Label)
	}
	return labels
}

func (t *Table) rebindDragLocked() {
	if t.drag != nil {
		t.drag.Rebind(t.dragLabelsLocked())
	}
}

// unlockAndFlush releases mu, then runs queued widget calls and delivers
// queued events.
func (t *Table) unlockAndFlush() {
	evs := t.queue.Drain()
	ops := t.ops
	t.ops = nil
	w := t.widget
	t.mu.Unlock()

	if w != nil {
		for _, op := range ops {
			op(w)
		}
	}
	event.Deliver(t.bus, evs)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
