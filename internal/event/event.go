// Package event provides the typed signal surface shared by the table
// controllers.
//
// Controllers emit into an [Emitter]. The owning component usually hands
// them a [Queue] and flushes it into a [Bus] once its own lock is released,
// so subscribers are free to call back into the component.
package event

import "sync"

// Signal names a public event.
type Signal string

const (
	FilterChanged        Signal = "filter-changed"
	ColumnReordered      Signal = "column-reordered"
	ColumnOrderCommitted Signal = "column-order-committed"
	SelectionChanged     Signal = "selection-changed"
	DataChanged          Signal = "data-changed"
	PaginationChanged    Signal = "pagination-changed"
	SizeChanged          Signal = "size-changed"
	CurrentPageChanged   Signal = "current-page-changed"
	PrevPageClicked      Signal = "prev-page-clicked"
	NextPageClicked      Signal = "next-page-clicked"
	PageSizeSync         Signal = "page-size-sync"
	CurrentPageSync      Signal = "current-page-sync"
	ParamsSync           Signal = "params-sync"
)

// Event is a signal with its payload.
type Event struct {
	Signal  Signal
	Payload any
}

// Emitter receives events from a controller.
type Emitter interface {
	Emit(e Event)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(e Event)

// Emit calls f(e).
func (f EmitterFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Emitter = EmitterFunc(func(Event) {})

// Handler is called for each delivered event.
type Handler func(e Event)

type subscription struct {
	id      uint64
	signal  Signal
	handler Handler
}

// Bus delivers events to subscribers synchronously, in subscription order.
// It is safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers h for sig. The returned function removes the
// subscription and may be called more than once.
func (b *Bus) Subscribe(sig Signal, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, signal: sig, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Emit delivers e to every subscriber of e.Signal.
func (b *Bus) Emit(e Event) {
	b.mu.RLock()
	var handlers []Handler
	for _, s := range b.subs {
		if s.signal == e.Signal {
			handlers = append(handlers, s.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

// Len returns the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// On subscribes a typed handler. Events whose payload is not a T are ignored.
func On[T any](b *Bus, sig Signal, fn func(T)) (unsubscribe func()) {
	return b.Subscribe(sig, func(e Event) {
		if v, ok := e.Payload.(T); ok {
			fn(v)
		}
	})
}

// Queue buffers events until Flush. It is not safe for concurrent use; the
// owner guards it with the same lock that guards the emitting controllers.
type Queue struct {
	pending []Event
}

// Emit appends e to the queue.
func (q *Queue) Emit(e Event) {
	q.pending = append(q.pending, e)
}

// Drain returns the buffered events and empties the queue.
func (q *Queue) Drain() []Event {
	evs := q.pending
	q.pending = nil
	return evs
}

// Deliver sends evs to dst in order.
func Deliver(dst Emitter, evs []Event) {
	for _, e := range evs {
		dst.Emit(e)
	}
}

// Recorder keeps every event it receives. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit records e.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events with sig were recorded.
func (r *Recorder) Count(sig Signal) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Signal == sig {
			n++
		}
	}
	return n
}

// Last returns the most recent event with sig.
func (r *Recorder) Last(sig Signal) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Signal == sig {
			return r.events[i], true
		}
	}
	return Event{}, false
}

// Reset forgets all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
