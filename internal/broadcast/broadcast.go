package broadcast

import (
	"sync"

	"clearpoints/internal/events"
)

// Broadcaster fans the change events of one bus out to every subscriber.
type Broadcaster struct {
	Mu      sync.Mutex
	Clients map[chan events.ChangeEvent]bool
	done    chan struct{}
	once    sync.Once
}

func NewBroadcaster(bus *events.Bus) *Broadcaster {
	b := &Broadcaster{
		Clients: make(map[chan events.ChangeEvent]bool),
		done:    make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-b.done:
				return
			case ev := <-bus.Changes:
				b.Broadcast(ev)
			}
		}
	}()
	return b
}

func (b *Broadcaster) Subscribe() chan events.ChangeEvent {
	ch := make(chan events.ChangeEvent, 16)
	b.Mu.Lock()
	b.Clients[ch] = true
	b.Mu.Unlock()
	return ch
}

func (b *Broadcaster) Unsubscribe(ch chan events.ChangeEvent) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	if b.Clients[ch] {
		delete(b.Clients, ch)
		close(ch)
	}
}

func (b *Broadcaster) Broadcast(ev events.ChangeEvent) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	for ch := range b.Clients {
		select {
		case ch <- ev:
		default:
			// skip clients with full data channels
		}
	}
}

// Stop ends the fan-out goroutine and closes every subscriber channel.
func (b *Broadcaster) Stop() {
	b.once.Do(func() {
		close(b.done)
		b.Mu.Lock()
		for ch := range b.Clients {
			delete(b.Clients, ch)
			close(ch)
		}
		b.Mu.Unlock()
	})
}
