package eventbus

import (
	"testing"
)

type testEvent struct {
	kind string
	n    int
}

func newTestBus() *Bus[string, testEvent] {
	return New(func(e testEvent) string { return e.kind }, nil)
}

func TestPublishFansOutByKey(t *testing.T) {
	bus := newTestBus()

	var a, b, other []int
	bus.Subscribe("draw", func(e testEvent) { a = append(a, e.n) })
	bus.Subscribe("draw", func(e testEvent) { b = append(b, e.n) })
	bus.Subscribe("guess", func(e testEvent) { other = append(other, e.n) })

	bus.Publish(testEvent{kind: "draw", n: 1})
	bus.Publish(testEvent{kind: "draw", n: 2})

	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("expected both draw handlers to see 2 events, got %d and %d", len(a), len(b))
	}
	if len(other) != 0 {
		t.Fatalf("guess handler saw %d events for a different key", len(other))
	}
	if a[0] != 1 || a[1] != 2 {
		t.Fatalf("events out of order: %v", a)
	}
}

func TestLoopClosuresAreDistinctRegistrations(t *testing.T) {
	bus := newTestBus()

	// Closures built from one literal with different captured state must not
	// collapse into one registration.
	counts := make([]int, 2)
	for i := range counts {
		i := i
		bus.Subscribe("draw", func(testEvent) { counts[i]++ })
	}

	bus.Publish(testEvent{kind: "draw"})
	if counts[0] != 1 || counts[1] != 1 {
		t.Fatalf("counts = %v, want each handler fired once", counts)
	}
	if got := bus.SubscriberCount("draw"); got != 2 {
		t.Fatalf("SubscriberCount = %d, want 2", got)
	}
}

func TestUnsubscribeDetachesOnlyItsRegistration(t *testing.T) {
	bus := newTestBus()

	count := 0
	fn := func(testEvent) { count++ }
	unsubFirst := bus.Subscribe("draw", fn)
	bus.Subscribe("draw", fn)

	unsubFirst()
	bus.Publish(testEvent{kind: "draw"})
	if count != 1 {
		t.Fatalf("count = %d after detaching one of two registrations, want 1", count)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	bus := newTestBus()

	count := 0
	unsub := bus.Subscribe("draw", func(testEvent) { count++ })
	unsub()
	unsub()

	bus.Publish(testEvent{kind: "draw"})
	if count != 0 {
		t.Fatalf("handler fired after unsubscribe, count=%d", count)
	}
	if got := bus.SubscriberCount("draw"); got != 0 {
		t.Fatalf("SubscriberCount = %d, want 0", got)
	}
}

func TestUnsubscribeDuringDispatchKeepsInFlightPass(t *testing.T) {
	bus := newTestBus()

	var fired []string
	var unsubSecond func()
	bus.Subscribe("draw", func(testEvent) {
		fired = append(fired, "first")
		unsubSecond()
	})
	unsubSecond = bus.Subscribe("draw", func(testEvent) {
		fired = append(fired, "second")
	})

	bus.Publish(testEvent{kind: "draw"})
	if len(fired) != 2 {
		t.Fatalf("in-flight pass skipped a handler: %v", fired)
	}

	fired = nil
	bus.Publish(testEvent{kind: "draw"})
	if len(fired) != 1 || fired[0] != "first" {
		t.Fatalf("unsubscribed handler still registered: %v", fired)
	}
}

func TestPanickingHandlerDoesNotStopSiblings(t *testing.T) {
	bus := newTestBus()

	var after int
	bus.Subscribe("draw", func(testEvent) { panic("boom") })
	bus.Subscribe("draw", func(e testEvent) { after = e.n })

	bus.Publish(testEvent{kind: "draw", n: 7})
	if after != 7 {
		t.Fatalf("sibling handler did not run after panic, after=%d", after)
	}
}

func TestSubscribeInsideHandlerTakesEffectNextPublish(t *testing.T) {
	bus := newTestBus()

	late := 0
	bus.Subscribe("draw", func(testEvent) {
		bus.Subscribe("draw", func(testEvent) { late++ })
	})

	bus.Publish(testEvent{kind: "draw"})
	if late != 0 {
		t.Fatalf("handler registered mid-dispatch ran in the same pass")
	}
	bus.Publish(testEvent{kind: "draw"})
	if late != 1 {
		t.Fatalf("late handler fired %d times after second publish, want 1", late)
	}
}
