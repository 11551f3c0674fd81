package events

import (
	"testing"

	"splitpay/core/types"
)

type testEvent struct{ evt *types.Event }

func (e testEvent) EventType() string   { return e.evt.Type }
func (e testEvent) Event() *types.Event { return e.evt }

type bareEvent string

func (b bareEvent) EventType() string { return string(b) }

func TestBufferFlushesInOrder(t *testing.T) {
	var buf Buffer
	rec := &Recorder{}

	buf.Emit(bareEvent("a"))
	buf.Emit(bareEvent("b"))
	buf.Emit(nil)
	if got := rec.Types(); len(got) != 0 {
		t.Fatalf("recorder received events before flush: %v", got)
	}
	buf.Flush(rec)
	got := rec.Types()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected flushed events: %v", got)
	}

	buf.Emit(bareEvent("c"))
	buf.Discard()
	buf.Flush(rec)
	if n := len(rec.Events()); n != 2 {
		t.Fatalf("discarded event was flushed, have %d events", n)
	}
}

func TestMultiEmitterFansOut(t *testing.T) {
	first, second := &Recorder{}, &Recorder{}
	MultiEmitter{first, nil, second}.Emit(bareEvent("x"))
	if len(first.Events()) != 1 || len(second.Events()) != 1 {
		t.Fatalf("expected both recorders to receive the event")
	}
}

func TestRender(t *testing.T) {
	wire := &types.Event{Type: "t", Attributes: map[string]string{"k": "v"}}
	if got := Render(testEvent{evt: wire}); got != wire {
		t.Fatalf("payload event should render its own wire form")
	}
	got := Render(bareEvent("plain"))
	if got.Type != "plain" || len(got.Attributes) != 0 {
		t.Fatalf("unexpected render for bare event: %+v", got)
	}
	if Render(nil) != nil {
		t.Fatalf("nil event should render nil")
	}
}

func hubEvent(kind string) testEvent {
	return testEvent{evt: &types.Event{Type: kind, Attributes: map[string]string{}}}
}

func TestHubFanOutAndDrop(t *testing.T) {
	hub := NewHub()
	all := hub.Subscribe(4)
	only := hub.Subscribe(1, "b")
	if hub.Len() != 2 {
		t.Fatalf("expected 2 subscribers, have %d", hub.Len())
	}

	hub.Emit(hubEvent("a"))
	hub.Emit(hubEvent("b"))
	hub.Emit(hubEvent("b"))

	for _, want := range []string{"a", "b"} {
		if got := (<-all.C()).Type; got != want {
			t.Fatalf("all: want %s, got %s", want, got)
		}
	}
	if got := (<-only.C()).Type; got != "b" {
		t.Fatalf("filtered: want b, got %s", got)
	}
	if only.Dropped() != 1 {
		t.Fatalf("expected one dropped event, have %d", only.Dropped())
	}

	only.Close()
	only.Close()
	if _, open := <-only.C(); open {
		t.Fatalf("closed subscription still open")
	}
	if hub.Len() != 1 {
		t.Fatalf("expected 1 subscriber after close, have %d", hub.Len())
	}
}
