package beapi

import (
	"io"
	"log/slog"
	"slices"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEventsEmitOrder(t *testing.T) {
	e := NewEvents(discardLogger())

	var got []int
	e.AddListener(EventChat, func(any) { got = append(got, 1) })
	e.AddListener(EventChat, func(any) { got = append(got, 2) })
	e.AddListener(EventTick, func(any) { got = append(got, 99) })

	e.Emit(EventChat, nil)
	if !slices.Equal(got, []int{1, 2}) {
		t.Fatalf("unexpected listener calls: %v", got)
	}
}

func TestEventsRemoveListener(t *testing.T) {
	e := NewEvents(discardLogger())

	calls := 0
	id := e.AddListener(EventTick, func(any) { calls++ })
	if !e.RemoveListener(EventTick, id) {
		t.Fatal("expected listener to be removed")
	}
	if e.RemoveListener(EventTick, id) {
		t.Fatal("expected second removal to fail")
	}
	if n := e.ListenerCount(EventTick); n != 0 {
		t.Fatalf("expected no listeners, got %d", n)
	}

	e.Emit(EventTick, TickEvent{})
	if calls != 0 {
		t.Fatal("removed listener was called")
	}
}

func TestEventsRemoveDuringEmit(t *testing.T) {
	e := NewEvents(discardLogger())

	calls := 0
	var second ListenerID
	e.AddListener(EventTick, func(any) {
		e.RemoveListener(EventTick, second)
	})
	second = e.AddListener(EventTick, func(any) { calls++ })

	// The running emit keeps its snapshot.
	e.Emit(EventTick, nil)
	e.Emit(EventTick, nil)
	if calls != 1 {
		t.Fatalf("expected one call, got %d", calls)
	}
}

func TestEventsListenerPanic(t *testing.T) {
	e := NewEvents(discardLogger())

	called := false
	e.AddListener(EventChat, func(any) { panic("bad listener") })
	e.AddListener(EventChat, func(any) { called = true })

	e.Emit(EventChat, nil)
	if !called {
		t.Fatal("expected listener after a panicking one to run")
	}
}

func TestOnTyped(t *testing.T) {
	e := NewEvents(discardLogger())

	var ticks []uint64
	On(e, EventTick, func(ev TickEvent) { ticks = append(ticks, ev.Tick) })

	e.Emit(EventTick, TickEvent{Tick: 7})
	e.Emit(EventTick, "not a tick")
	if !slices.Equal(ticks, []uint64{7}) {
		t.Fatalf("unexpected ticks: %v", ticks)
	}
}
