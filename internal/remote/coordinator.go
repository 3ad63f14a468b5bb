// Package remote coordinates server-paginated tables: it merges request
// parameters, coalesces bursts of page changes into one fetch, and drops
// responses that arrive after the page state moved on.
package remote

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/tablekit/internal/column"
	"github.com/JonMunkholm/tablekit/internal/event"
	"github.com/JonMunkholm/tablekit/internal/pagination"
)

// DefaultCoalesceWindow is how long a request waits for further changes
// before it is dispatched.
const DefaultCoalesceWindow = 10 * time.Millisecond

// Envelope is the request captured at dispatch time.
type Envelope struct {
	Seq         uint64
	Gen         uint64
	Source      string
	PageSize    int
	CurrentPage int
	Params      Params
	Intent      Intent
	Started     time.Time
}

// DataChange is the data-changed payload.
type DataChange struct {
	Rows        []column.Row `json:"data"`
	Total       int          `json:"total"`
	PageSize    int          `json:"pageSize"`
	CurrentPage int          `json:"currentPage"`
	Params      Params       `json:"params"`
}

// Observer is notified about every request outcome. Each dispatched
// request ends in exactly one of Applied, Discarded or Failed; requests
// completing after Close count as discarded.
type Observer interface {
	Dispatched(env Envelope)
	Applied(env Envelope, rows int)
	Discarded(env Envelope)
	Failed(env Envelope, err error)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) Dispatched(Envelope)    {}
func (NopObserver) Applied(Envelope, int)  {}
func (NopObserver) Discarded(Envelope)     {}
func (NopObserver) Failed(Envelope, error) {}

// Options configures a Coordinator.
type Options struct {
	// Source names the table in logs and metrics.
	Source  string
	Fetcher Fetcher

	FieldMap FieldMap
	// Params are the base parameters, overridden by instance and extra
	// parameters.
	Params Params

	Pagination     pagination.Options
	CoalesceWindow time.Duration

	// AutoInit issues the first request from New.
	AutoInit bool

	// Emitter receives every event after the coordinator's own subscribers.
	Emitter  event.Emitter
	Observer Observer
	OnError  func(error)
	Logger   *slog.Logger
}

// Coordinator owns the page state of a remote table. It is safe for
// concurrent use; events are delivered after its lock is released.
type Coordinator struct {
	id      string
	source  string
	fetcher Fetcher
	fields  FieldMap
	window  time.Duration
	out     event.Emitter
	obs     Observer
	onError func(error)
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	queue    event.Queue
	bus      *event.Bus
	page     *pagination.Controller
	rows     []column.Row
	base     Params
	instance Params
	extra    Params
	gen      uint64
	seq      uint64
	timer    *time.Timer
	intent   Intent
	inflight int
	loading  bool
	idle     chan struct{}
	closed   bool

	// finishing counts completions still running callbacks.
	finishing int
}

// New creates a Coordinator.
func New(opts Options) (*Coordinator, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("remote: fetcher is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	logger = logger.With("coordinator", id, "source", opts.Source)

	window := opts.CoalesceWindow
	if window <= 0 {
		window = DefaultCoalesceWindow
	}
	obs := opts.Observer
	if obs == nil {
		obs = NopObserver{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		id:      id,
		source:  opts.Source,
		fetcher: opts.Fetcher,
		fields:  opts.FieldMap.Validate(logger),
		window:  window,
		out:     opts.Emitter,
		obs:     obs,
		onError: opts.OnError,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		bus:     event.NewBus(),
		base:    opts.Params.Clone(),
		idle:    closedChan(),
	}

	popts := opts.Pagination
	popts.Disabled = false
	if popts.Logger == nil {
		popts.Logger = logger
	}
	c.page = pagination.New(popts, &c.queue)

	if opts.AutoInit {
		c.Request(nil, IntentInit)
	}
	return c, nil
}

// ID identifies the coordinator in logs.
func (c *Coordinator) ID() string { return c.id }

// Subscribe registers h for sig.
func (c *Coordinator) Subscribe(sig event.Signal, h event.Handler) func() {
	return c.bus.Subscribe(sig, h)
}

// Request schedules a fetch. A non-nil extra replaces the stored extra
// parameters. Calls within the coalescing window collapse into a single
// dispatch carrying the last intent and the final page state.
func (c *Coordinator) Request(extra Params, intent Intent) {
	c.mu.Lock()
	if extra != nil {
		c.extra = extra.Clone()
	}
	c.requestLocked(intent)
	c.unlockAndFlush()
}

// DoRequest stores extra as the extra parameters, nil clearing them, and
// schedules a fetch.
func (c *Coordinator) DoRequest(extra Params) {
	c.mu.Lock()
	c.extra = extra.Clone()
	c.requestLocked(IntentRequest)
	c.unlockAndFlush()
}

// Reload re-fetches the current page with the stored parameters.
func (c *Coordinator) Reload() {
	c.Request(nil, IntentReload)
}

// Reset returns to page 1 with the given page size and re-fetches.
func (c *Coordinator) Reset(pageSize int) {
	c.mu.Lock()
	c.page.Reset(pageSize)
	c.requestLocked(IntentReset)
	c.unlockAndFlush()
}

// SetPageSize changes the page size and re-fetches when it changed.
func (c *Coordinator) SetPageSize(n int) {
	c.mu.Lock()
	if c.page.SetPageSize(n) {
		c.requestLocked(IntentSize)
	}
	c.unlockAndFlush()
}

// SetCurrentPage moves to page p and re-fetches when it changed.
func (c *Coordinator) SetCurrentPage(p int) {
	c.mu.Lock()
	if c.page.SetCurrentPage(p) {
		c.requestLocked(IntentPage)
	}
	c.unlockAndFlush()
}

// PrevClick forwards a pager click.
func (c *Coordinator) PrevClick(page int) {
	c.mu.Lock()
	c.page.PrevClick(page)
	c.unlockAndFlush()
}

// NextClick forwards a pager click.
func (c *Coordinator) NextClick(page int) {
	c.mu.Lock()
	c.page.NextClick(page)
	c.unlockAndFlush()
}

// SetTotal overrides the total.
func (c *Coordinator) SetTotal(t int) {
	c.mu.Lock()
	c.page.SetTotal(t)
	c.unlockAndFlush()
}

// SetParams replaces the instance parameters. It does not fetch.
func (c *Coordinator) SetParams(p Params) {
	c.mu.Lock()
	c.instance = p.Clone()
	c.unlockAndFlush()
}

// Rows returns the rows of the last applied response.
func (c *Coordinator) Rows() []column.Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]column.Row, len(c.rows))
	copy(out, c.rows)
	return out
}

// State returns the page state.
func (c *Coordinator) State() pagination.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page.State()
}

// PageSizes returns the selectable page sizes.
func (c *Coordinator) PageSizes() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page.PageSizes()
}

// Layout returns the pager layout.
func (c *Coordinator) Layout() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page.Layout()
}

// Loading reports whether a fetch is in flight.
func (c *Coordinator) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Params returns the parameters the next dispatch would send.
func (c *Coordinator) Params() Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paramsLocked()
}

// Settle blocks until no request is pending or in flight.
func (c *Coordinator) Settle(ctx context.Context) error {
	for {
		c.mu.Lock()
		ch := c.idle
		busy := c.busyLocked()
		c.mu.Unlock()
		if !busy {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops any pending dispatch and cancels in-flight fetches. Late
// completions are ignored.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if !c.busyLocked() {
		c.markIdleLocked()
	}
	c.mu.Unlock()
	c.cancel()
}

func (c *Coordinator) requestLocked(intent Intent) {
	if c.closed {
		return
	}
	c.gen++
	c.intent = intent
	if c.timer != nil {
		c.timer.Stop()
	}
	c.markBusyLocked()
	gen := c.gen
	c.timer = time.AfterFunc(c.window, func() { c.dispatch(gen) })
}

func (c *Coordinator) dispatch(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		// Superseded; the newer timer dispatches.
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.seq++
	st := c.page.State()
	env := Envelope{
		Seq:         c.seq,
		Gen:         gen,
		Source:      c.source,
		PageSize:    st.PageSize,
		CurrentPage: st.CurrentPage,
		Params:      c.paramsLocked(),
		Intent:      c.intent,
		Started:     time.Now(),
	}
	c.inflight++
	c.loading = true
	c.queue.Emit(event.Event{Signal: event.ParamsSync, Payload: env.Params.Clone()})
	c.unlockAndFlush()

	c.obs.Dispatched(env)
	c.logger.Debug("dispatching fetch",
		"seq", env.Seq,
		"intent", string(env.Intent),
		"page_size", env.PageSize,
		"current_page", env.CurrentPage,
	)

	resp, err := c.fetcher.Fetch(c.ctx, env.Params.Clone(), env.Intent)
	c.complete(env, resp, err)
}

func (c *Coordinator) complete(env Envelope, resp Response, err error) {
	c.mu.Lock()
	c.inflight--
	c.loading = c.inflight > 0
	c.finishing++

	var onError func(error)
	var outcome func()
	switch {
	case c.closed:
		outcome = func() { c.obs.Discarded(env) }
	case err != nil:
		c.logger.Error("fetch failed",
			"seq", env.Seq,
			"intent", string(env.Intent),
			"error", err,
		)
		onError = c.onError
		outcome = func() { c.obs.Failed(env, err) }
	case c.staleLocked(env):
		c.logger.Debug("discarding stale response",
			"seq", env.Seq,
			"page_size", env.PageSize,
			"current_page", env.CurrentPage,
		)
		outcome = func() { c.obs.Discarded(env) }
	default:
		n := c.applyLocked(env, resp)
		outcome = func() { c.obs.Applied(env, n) }
	}
	c.unlockAndFlush()

	if outcome != nil {
		outcome()
	}
	if onError != nil {
		onError(err)
	}

	// Settle returns only once the callbacks above have run.
	c.mu.Lock()
	c.finishing--
	if !c.busyLocked() {
		c.markIdleLocked()
	}
	c.mu.Unlock()
}

func (c *Coordinator) staleLocked(env Envelope) bool {
	st := c.page.State()
	return env.Gen != c.gen || env.PageSize != st.PageSize || env.CurrentPage != st.CurrentPage
}

func (c *Coordinator) applyLocked(env Envelope, resp Response) int {
	rows, total, hasTotal := c.fields.extract(resp)
	wasPage := c.page.CurrentPage()

	c.rows = rows
	if hasTotal {
		c.page.SetTotal(total)
	}

	st := c.page.State()
	out := make([]column.Row, len(rows))
	copy(out, rows)
	c.queue.Emit(event.Event{Signal: event.DataChanged, Payload: DataChange{
		Rows:        out,
		Total:       st.Total,
		PageSize:    st.PageSize,
		CurrentPage: st.CurrentPage,
		Params:      env.Params.Clone(),
	}})

	if len(rows) == 0 && wasPage > 1 {
		c.logger.Info("empty page, moving back",
			"from_page", wasPage,
			"to_page", min(wasPage-1, max(1, st.TotalPages())),
		)
		c.page.SetCurrentPage(wasPage - 1)
		c.requestLocked(IntentCorrection)
	}
	return len(rows)
}

func (c *Coordinator) paramsLocked() Params {
	p := merge(c.base, c.instance, c.extra)
	st := c.page.State()
	if k := c.fields.PageSizeKey(); k != "" {
		p[k] = st.PageSize
	}
	if k := c.fields.CurrentPageKey(); k != "" {
		p[k] = st.CurrentPage
	}
	return p
}

func (c *Coordinator) busyLocked() bool {
	return c.timer != nil || c.inflight > 0 || c.finishing > 0
}

func (c *Coordinator) markBusyLocked() {
	select {
	case <-c.idle:
		c.idle = make(chan struct{})
	default:
	}
}

func (c *Coordinator) markIdleLocked() {
	select {
	case <-c.idle:
	default:
		close(c.idle)
	}
}

// unlockAndFlush releases c.mu and delivers the queued events.
func (c *Coordinator) unlockAndFlush() {
	evs := c.queue.Drain()
	c.mu.Unlock()
	event.Deliver(c.bus, evs)
	if c.out != nil {
		event.Deliver(c.out, evs)
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
