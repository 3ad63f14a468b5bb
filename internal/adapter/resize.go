package adapter

import (
	"sync"
	"time"
)

const (
	DefaultFixHeight      = 100
	DefaultMinHeight      = 100
	DefaultResizeDebounce = 50 * time.Millisecond
)

// ResizeOptions configures a Resize.
type ResizeOptions struct {
	// FixHeight is the height taken by everything but the table body.
	FixHeight int
	MinHeight int
	Debounce  time.Duration

	OnResize func(maxHeight int)
}

// Resize derives the table body's max height from the viewport. It is
// safe for concurrent use.
type Resize struct {
	fix      int
	min      int
	debounce time.Duration
	onResize func(int)

	mu        sync.Mutex
	inner     int
	offsetTop int
	maxHeight int
	timer     *time.Timer
	stopped   bool
}

// NewResize creates a Resize with defaults for unset options.
func NewResize(opts ResizeOptions) *Resize {
	r := &Resize{
		fix:      opts.FixHeight,
		min:      opts.MinHeight,
		debounce: opts.Debounce,
		onResize: opts.OnResize,
	}
	if r.fix <= 0 {
		r.fix = DefaultFixHeight
	}
	if r.min <= 0 {
		r.min = DefaultMinHeight
	}
	if r.debounce <= 0 {
		r.debounce = DefaultResizeDebounce
	}
	return r
}

// Viewport records a new viewport geometry. The height is recomputed once
// the viewport has been quiet for the debounce interval.
func (r *Resize) Viewport(innerHeight, offsetTop int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.inner, r.offsetTop = innerHeight, offsetTop
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, func() { r.Recompute() })
}

// Measure records a viewport geometry and recomputes at once, cancelling
// any pending debounced recompute.
func (r *Resize) Measure(innerHeight, offsetTop int) int {
	r.mu.Lock()
	if !r.stopped {
		r.inner, r.offsetTop = innerHeight, offsetTop
		if r.timer != nil {
			r.timer.Stop()
			r.timer = nil
		}
	}
	r.mu.Unlock()
	return r.Recompute()
}

// Recompute reports the max height for the last viewport immediately.
func (r *Resize) Recompute() int {
	r.mu.Lock()
	if r.stopped {
		h := r.maxHeight
		r.mu.Unlock()
		return h
	}
	h := max(r.inner-r.offsetTop-r.fix, r.min)
	r.maxHeight = h
	fn := r.onResize
	r.mu.Unlock()

	if fn != nil {
		fn(h)
	}
	return h
}

// MaxHeight is the last computed height, 0 before the first computation.
func (r *Resize) MaxHeight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxHeight
}

// Stop cancels a pending recompute. Later viewport reports are ignored.
func (r *Resize) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}
