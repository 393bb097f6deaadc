package feed

import (
	"testing"

	"tickfeed/internal/domain"
)

func TestFanOutIsolatesPanickingHandler(t *testing.T) {
	reg := newSubscriberRegistry()
	var secondCalled bool
	reg.add("btc", func(domain.Tick) { panic("careless consumer") })
	reg.add("btc", func(domain.Tick) { secondCalled = true })

	fanOut(domain.Tick{Symbol: "btc", Topic: domain.TopicComposite, Price: 1}, reg.snapshot("btc"))

	if !secondCalled {
		t.Error("second handler not invoked after first panicked")
	}
}

func TestRegistryRemoveIsIdempotent(t *testing.T) {
	reg := newSubscriberRegistry()
	id := reg.add("btc", func(domain.Tick) {})
	reg.remove("btc", id)
	reg.remove("btc", id) // second removal must be a no-op
	if n := reg.count("btc"); n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestRegistrySnapshotUnaffectedByRemoval(t *testing.T) {
	reg := newSubscriberRegistry()
	var calls int
	var unsubID int
	reg.add("btc", func(domain.Tick) {
		calls++
		// a handler unsubscribing another mid-notification must not
		// corrupt the iteration
		reg.remove("btc", unsubID)
	})
	unsubID = reg.add("btc", func(domain.Tick) { calls++ })

	fanOut(domain.Tick{Symbol: "btc"}, reg.snapshot("btc"))

	if calls != 2 {
		t.Errorf("calls = %d, want 2 (snapshot taken before invocation)", calls)
	}
	if n := reg.count("btc"); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestRegistryClear(t *testing.T) {
	reg := newSubscriberRegistry()
	reg.add("btc", func(domain.Tick) {})
	reg.add("eth", func(domain.Tick) {})
	reg.clear()
	if reg.count("btc") != 0 || reg.count("eth") != 0 {
		t.Error("clear left subscribers behind")
	}
}
