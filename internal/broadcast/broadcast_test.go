package broadcast

import (
	"testing"
	"time"

	"clearpoints/internal/events"
)

func TestNewBroadcaster(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus)
	defer b.Stop()
	if b == nil {
		t.Fatal("NewBroadcaster() returned nil")
	}
}

func TestBroadcaster_SubscribeUnsubscribe(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus)
	defer b.Stop()

	ch := b.Subscribe()
	if ch == nil {
		t.Fatal("Subscribe() returned nil")
	}

	b.Mu.Lock()
	if len(b.Clients) != 1 {
		t.Errorf("clients count = %d, want 1", len(b.Clients))
	}
	b.Mu.Unlock()

	b.Unsubscribe(ch)
	// Second unsubscribe must not close twice
	b.Unsubscribe(ch)

	b.Mu.Lock()
	if len(b.Clients) != 0 {
		t.Errorf("clients count after unsubscribe = %d, want 0", len(b.Clients))
	}
	b.Mu.Unlock()
}

func TestBroadcaster_Broadcast(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus)
	defer b.Stop()

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()

	b.Broadcast(events.ChangeEvent{Type: events.ChangeActivated, Value: 2})

	for i, ch := range []chan events.ChangeEvent{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Type != events.ChangeActivated || ev.Value != 2 {
				t.Errorf("ch%d got %+v, want activated 2", i+1, ev)
			}
		case <-time.After(1 * time.Second):
			t.Fatalf("ch%d timed out", i+1)
		}
	}
}

func TestBroadcaster_SkipsFullChannels(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus)
	defer b.Stop()

	b.Subscribe()

	for i := 0; i < 16; i++ {
		b.Broadcast(events.ChangeEvent{Type: events.ChangeTick})
	}

	done := make(chan bool)
	go func() {
		b.Broadcast(events.ChangeEvent{Type: events.ChangeTick})
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Broadcast blocked on full channel")
	}
}

func TestBroadcaster_ForwardsBusEvents(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus)
	defer b.Stop()

	ch := b.Subscribe()

	bus.Publish(events.ChangeEvent{Type: events.ChangeStatus, Status: "cleared"})

	select {
	case ev := <-ch:
		if ev.Type != events.ChangeStatus || ev.Status != "cleared" {
			t.Errorf("got %+v, want cleared status", ev)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for forwarded event")
	}
}

func TestBroadcaster_StopClosesSubscribers(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus)

	ch := b.Subscribe()
	b.Stop()
	b.Stop()

	if _, ok := <-ch; ok {
		t.Error("subscriber channel should be closed after Stop")
	}
	// Unsubscribe after Stop must not panic
	b.Unsubscribe(ch)
}
