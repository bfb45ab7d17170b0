package events

import (
	"testing"
	"time"
)

func TestNewBus(t *testing.T) {
	bus := NewBus()
	if bus == nil {
		t.Fatal("NewBus() returned nil")
	}
	if bus.Changes == nil {
		t.Fatal("Changes channel is nil")
	}
}

func TestBus_SendReceive(t *testing.T) {
	bus := NewBus()
	ev := ChangeEvent{Type: ChangeStatus, Status: "cleared", Generation: 2}

	go bus.Publish(ev)

	select {
	case received := <-bus.Changes:
		if received.Status != "cleared" {
			t.Errorf("received Status = %q, want %q", received.Status, "cleared")
		}
		if received.Generation != 2 {
			t.Errorf("received Generation = %d, want 2", received.Generation)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBus_PublishDropsWhenFull(t *testing.T) {
	bus := NewBus()

	for i := 0; i < cap(bus.Changes); i++ {
		if !bus.Publish(ChangeEvent{Type: ChangeTick}) {
			t.Fatalf("Publish #%d dropped before buffer was full", i)
		}
	}

	// Should not block
	if bus.Publish(ChangeEvent{Type: ChangeTick}) {
		t.Error("Publish on a full buffer should report false")
	}

	for i := 0; i < cap(bus.Changes); i++ {
		<-bus.Changes
	}
}
