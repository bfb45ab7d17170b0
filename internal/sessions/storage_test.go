package sessions

import (
	"sync"
	"testing"
	"time"

	"clearpoints/internal/round"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

func testConfig() round.Config {
	cfg := round.DefaultConfig()
	cfg.TargetCount = 2
	cfg.TickInterval = time.Hour
	return cfg
}

func newTestStore(t *testing.T) (*Store, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	s := NewStore(testConfig(), time.Hour, clock)
	t.Cleanup(s.Close)
	return s, clock
}

func TestNewStore(t *testing.T) {
	s, _ := newTestStore(t)
	if len(s.List()) != 0 {
		t.Error("new store should have no sessions")
	}
}

func TestStore_Create(t *testing.T) {
	s, _ := newTestStore(t)
	sess := s.Create()

	if _, err := uuid.Parse(sess.ID); err != nil {
		t.Errorf("session ID %q is not a uuid: %v", sess.ID, err)
	}
	if sess.Game == nil {
		t.Fatal("session Game should not be nil")
	}
	if sess.Broadcaster == nil {
		t.Error("session Broadcaster should not be nil")
	}
	if sess.Game.Status() != round.StatusIdle {
		t.Errorf("new game status = %v, want idle", sess.Game.Status())
	}
	if sess.Game.TargetCount() != 2 {
		t.Errorf("TargetCount = %d, want 2", sess.Game.TargetCount())
	}
}

func TestStore_Get(t *testing.T) {
	s, _ := newTestStore(t)
	sess := s.Create()

	got := s.Get(sess.ID)
	if got == nil || got.ID != sess.ID {
		t.Fatalf("Get() = %v, want session %s", got, sess.ID)
	}
	if s.Get("missing") != nil {
		t.Error("Get() should return nil for nonexistent session")
	}
}

func TestStore_Delete(t *testing.T) {
	s, _ := newTestStore(t)
	sess := s.Create()
	sess.Game.Start()

	if !s.Delete(sess.ID) {
		t.Fatal("Delete() = false, want true")
	}
	if s.Get(sess.ID) != nil {
		t.Error("session should be deleted")
	}
	if s.Delete(sess.ID) {
		t.Error("second Delete() should report false")
	}

	// The closed controller ignores input.
	gen := sess.Game.Snapshot().Generation
	sess.Game.Restart()
	if sess.Game.Snapshot().Generation != gen {
		t.Error("deleted session's game should ignore restart")
	}
}

func TestStore_SweepStale(t *testing.T) {
	s, clock := newTestStore(t)
	old := s.Create()

	clock.Advance(50 * time.Minute)
	fresh := s.Create()
	clock.Advance(20 * time.Minute)

	// The sweeper ticks every five minutes; wait for a pass at or after 70m.
	deadline := time.Now().Add(2 * time.Second)
	for len(s.List()) != 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	list := s.List()
	if len(list) != 1 {
		t.Fatalf("sessions after sweep = %d, want 1", len(list))
	}
	if list[0].ID != fresh.ID {
		t.Errorf("surviving session = %s, want %s", list[0].ID, fresh.ID)
	}
	if list[0].ID == old.ID {
		t.Error("stale session should be swept")
	}
}

func TestStore_GetKeepsSessionAlive(t *testing.T) {
	s, clock := newTestStore(t)
	sess := s.Create()

	clock.Advance(50 * time.Minute)
	s.Get(sess.ID)
	clock.Advance(50 * time.Minute)

	if n := s.sweep(); n != 0 {
		t.Errorf("sweep() removed %d sessions, want 0", n)
	}
}

func TestStore_Touch(t *testing.T) {
	s, clock := newTestStore(t)
	sess := s.Create()

	for i := 0; i < 7; i++ {
		clock.Advance(10 * time.Minute)
		if !s.Touch(sess.ID) {
			t.Fatalf("Touch() after %d0m = false, want true", i+1)
		}
	}
	if n := s.sweep(); n != 0 {
		t.Errorf("sweep() removed %d sessions, want 0", n)
	}
	if s.Touch("missing") {
		t.Error("Touch() on unknown id = true, want false")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s, _ := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Create()
		}()
	}
	wg.Wait()

	if n := len(s.List()); n != 50 {
		t.Errorf("concurrent creates: got %d sessions, want 50", n)
	}
}

func TestStore_SessionIsolation(t *testing.T) {
	s, _ := newTestStore(t)
	a := s.Create()
	b := s.Create()

	a.Game.Start()
	b.Game.Start()
	a.Game.Activate(2)

	if a.Game.Status() != round.StatusFailed {
		t.Errorf("a status = %v, want failed", a.Game.Status())
	}
	if b.Game.Status() != round.StatusRunning {
		t.Errorf("b status = %v, want running", b.Game.Status())
	}
}

func TestStore_Close(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewStore(testConfig(), time.Hour, clock)
	s.Create()
	s.Create()

	s.Close()
	s.Close()

	if n := len(s.List()); n != 0 {
		t.Errorf("sessions after Close = %d, want 0", n)
	}
}
