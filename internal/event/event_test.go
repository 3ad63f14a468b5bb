package event

import "testing"

func TestBus_SubscribeAndEmit(t *testing.T) {
	bus := NewBus()
	var got []any

	bus.Subscribe(SizeChanged, func(e Event) { got = append(got, e.Payload) })
	bus.Subscribe(CurrentPageChanged, func(e Event) { t.Errorf("unexpected delivery of %v", e.Signal) })

	bus.Emit(Event{Signal: SizeChanged, Payload: 20})
	bus.Emit(Event{Signal: SizeChanged, Payload: 50})

	if len(got) != 2 || got[0] != 20 || got[1] != 50 {
		t.Errorf("payloads = %v, want [20 50]", got)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	unsubscribe := bus.Subscribe(DataChanged, func(Event) { calls++ })

	bus.Emit(Event{Signal: DataChanged})
	unsubscribe()
	unsubscribe()
	bus.Emit(Event{Signal: DataChanged})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if bus.Len() != 0 {
		t.Errorf("Len() = %d, want 0", bus.Len())
	}
}

func TestBus_HandlerMayUnsubscribeDuringDelivery(t *testing.T) {
	bus := NewBus()
	var unsubscribe func()
	calls := 0
	unsubscribe = bus.Subscribe(FilterChanged, func(Event) {
		calls++
		unsubscribe()
	})

	bus.Emit(Event{Signal: FilterChanged})
	bus.Emit(Event{Signal: FilterChanged})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestOn_TypedPayload(t *testing.T) {
	bus := NewBus()
	var got []int
	On(bus, CurrentPageChanged, func(p int) { got = append(got, p) })

	bus.Emit(Event{Signal: CurrentPageChanged, Payload: 3})
	bus.Emit(Event{Signal: CurrentPageChanged, Payload: "not an int"})

	if len(got) != 1 || got[0] != 3 {
		t.Errorf("got = %v, want [3]", got)
	}
}

func TestQueue_DrainAndDeliver(t *testing.T) {
	var q Queue
	q.Emit(Event{Signal: SizeChanged, Payload: 1})
	q.Emit(Event{Signal: PaginationChanged, Payload: 2})

	var rec Recorder
	Deliver(&rec, q.Drain())

	if n := len(rec.Events()); n != 2 {
		t.Fatalf("delivered %d events, want 2", n)
	}
	if rest := q.Drain(); len(rest) != 0 {
		t.Errorf("queue not empty after drain: %v", rest)
	}
	if e, ok := rec.Last(PaginationChanged); !ok || e.Payload != 2 {
		t.Errorf("Last(PaginationChanged) = %v, %v", e, ok)
	}
}
