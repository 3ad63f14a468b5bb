// Package pagination owns the page state of a table: current page, page
// size and total.
//
// Every mutation goes through [Controller]. Operations are idempotent: a
// call that would not change the observable state performs no mutation and
// emits nothing.
package pagination

import (
	"log/slog"
	"strings"

	"github.com/JonMunkholm/tablekit/internal/event"
)

const (
	// DefaultPageSize is used when no page size is declared.
	DefaultPageSize = 10

	// DefaultLayout is the pager layout handed to renderers.
	DefaultLayout = "slot, ->, total, sizes, prev, pager, next, jumper"
)

// DefaultPageSizes are the selectable page sizes.
var DefaultPageSizes = []int{5, 10, 20, 50, 100}

// State is a snapshot of the page state.
type State struct {
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
	Total       int `json:"total"`
}

// TotalPages is ceil(Total / PageSize).
func (s State) TotalPages() int {
	return totalPages(s.Total, s.PageSize)
}

// Change is the pagination-changed payload.
type Change struct {
	PageSize    int `json:"pageSize"`
	CurrentPage int `json:"currentPage"`
}

// Options configures a Controller.
type Options struct {
	CurrentPage int
	PageSize    int
	Total       int

	// PageSizes are the sizes a pager offers. A PageSize outside this list
	// is replaced by PageSizes[0].
	PageSizes []int
	Layout    string

	// Disabled turns pagination off: slices return all data.
	Disabled bool

	Logger *slog.Logger
}

// Controller is the page state machine. It is not safe for concurrent use.
type Controller struct {
	state     State
	enabled   bool
	pageSizes []int
	layout    string
	emit      event.Emitter
	logger    *slog.Logger
}

// New creates a Controller from declared defaults.
func New(opts Options, emit event.Emitter) *Controller {
	if emit == nil {
		emit = event.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		enabled: !opts.Disabled,
		layout:  opts.Layout,
		emit:    emit,
		logger:  logger,
	}
	if strings.TrimSpace(c.layout) == "" {
		c.layout = DefaultLayout
	}
	c.pageSizes = opts.PageSizes
	if len(c.pageSizes) == 0 {
		c.pageSizes = DefaultPageSizes
	}

	size := opts.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if c.enabled && !contains(c.pageSizes, size) {
		logger.Warn("page size is not one of the page sizes, using the first page size",
			"page_size", size,
			"page_sizes", c.pageSizes,
			"using", c.pageSizes[0],
		)
		size = c.pageSizes[0]
	}

	page := opts.CurrentPage
	if page < 1 {
		page = 1
	}
	c.state = State{CurrentPage: page, PageSize: size}
	c.applyTotal(opts.Total, false)
	return c
}

// State returns the current page state.
func (c *Controller) State() State {
	return c.state
}

// CurrentPage returns the current page.
func (c *Controller) CurrentPage() int { return c.state.CurrentPage }

// PageSize returns the page size.
func (c *Controller) PageSize() int { return c.state.PageSize }

// Total returns the total row count.
func (c *Controller) Total() int { return c.state.Total }

// TotalPages returns ceil(total / pageSize).
func (c *Controller) TotalPages() int { return c.state.TotalPages() }

// Enabled reports whether pagination is active.
func (c *Controller) Enabled() bool { return c.enabled }

// PageSizes returns the selectable page sizes.
func (c *Controller) PageSizes() []int {
	out := make([]int, len(c.pageSizes))
	copy(out, c.pageSizes)
	return out
}

// Layout returns the pager layout string.
func (c *Controller) Layout() string { return c.layout }

// SetPageSize changes the page size and clamps the current page down if it
// now lies past the last page. It reports whether the state changed.
func (c *Controller) SetPageSize(n int) bool {
	if n <= 0 || n == c.state.PageSize {
		return false
	}
	c.state.PageSize = n
	pageMoved := c.clampPage()

	c.emit.Emit(event.Event{Signal: event.PageSizeSync, Payload: n})
	c.emit.Emit(event.Event{Signal: event.SizeChanged, Payload: n})
	if pageMoved {
		c.emitPage()
	}
	c.emitChange()
	return true
}

// SetCurrentPage moves to p, clamped into [1, max(1, totalPages)]. It
// reports whether the state changed.
func (c *Controller) SetCurrentPage(p int) bool {
	p = clamp(p, 1, max(1, c.TotalPages()))
	if p == c.state.CurrentPage {
		return false
	}
	c.state.CurrentPage = p
	c.emitPage()
	c.emitChange()
	return true
}

// SetTotal records a new total. A total that yields zero pages marks the
// table empty: total becomes 0, current page 1, and no page events fire.
// Otherwise the current page is clamped down to the last page.
func (c *Controller) SetTotal(t int) {
	c.applyTotal(t, true)
}

// SetTotalFromData sets the total from a local data length. With
// pagination disabled the page size follows that length.
func (c *Controller) SetTotalFromData(n int) {
	if !c.enabled {
		if n > 0 {
			c.state.PageSize = n
		}
		c.state.CurrentPage = 1
	}
	c.applyTotal(n, true)
}

func (c *Controller) applyTotal(t int, notify bool) {
	if t < 0 {
		t = 0
	}
	if totalPages(t, c.state.PageSize) == 0 {
		c.state.Total = 0
		c.state.CurrentPage = 1
		return
	}
	c.state.Total = t
	if c.clampPage() && notify {
		c.emitPage()
		c.emitChange()
	}
}

// Reset returns to page 1 with the given page size (DefaultPageSize when
// size is not positive).
func (c *Controller) Reset(size int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	c.SetPageSize(size)
	c.SetCurrentPage(1)
}

// PrevClick reports a click on the pager's previous button.
func (c *Controller) PrevClick(page int) {
	c.emit.Emit(event.Event{Signal: event.PrevPageClicked, Payload: page})
}

// NextClick reports a click on the pager's next button.
func (c *Controller) NextClick(page int) {
	c.emit.Emit(event.Event{Signal: event.NextPageClicked, Payload: page})
}

// Bounds returns the [from, to) slice bounds of the current page within a
// list of n rows, after clamping the current page to the local page count.
// The second result reports whether the current page had to be corrected.
func (c *Controller) Bounds(n int) (from, to int, corrected bool) {
	if !c.enabled {
		return 0, n, false
	}
	from = (c.state.CurrentPage - 1) * c.state.PageSize
	if from >= n && c.state.CurrentPage > 1 {
		last := max(1, totalPages(n, c.state.PageSize))
		c.logger.Warn("current page beyond local total pages, moving to last page",
			"current_page", c.state.CurrentPage,
			"total_pages", last,
			"rows", n,
			"page_size", c.state.PageSize,
		)
		c.state.CurrentPage = last
		c.emitPage()
		c.emitChange()
		corrected = true
		from = (last - 1) * c.state.PageSize
	}
	to = min(from+c.state.PageSize, n)
	if from > n {
		from = n
	}
	return from, to, corrected
}

// Slice returns the rows of data on the current page. With pagination
// disabled it returns data unmodified.
func Slice[T any](c *Controller, data []T) []T {
	from, to, _ := c.Bounds(len(data))
	return data[from:to]
}

func (c *Controller) clampPage() bool {
	last := max(1, c.TotalPages())
	if c.state.CurrentPage > last {
		c.state.CurrentPage = last
		return true
	}
	return false
}

func (c *Controller) emitPage() {
	c.emit.Emit(event.Event{Signal: event.CurrentPageSync, Payload: c.state.CurrentPage})
	c.emit.Emit(event.Event{Signal: event.CurrentPageChanged, Payload: c.state.CurrentPage})
}

func (c *Controller) emitChange() {
	c.emit.Emit(event.Event{Signal: event.PaginationChanged, Payload: Change{
		PageSize:    c.state.PageSize,
		CurrentPage: c.state.CurrentPage,
	}})
}

func totalPages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func contains(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
