package events

type ChangeType string

const (
	ChangeConfigured  = ChangeType("configured")
	ChangeStatus      = ChangeType("status")
	ChangeActivated   = ChangeType("activated")
	ChangeRemoved     = ChangeType("removed")
	ChangeTick        = ChangeType("tick")
	ChangeTransitions = ChangeType("transitions")
)

type ChangeEvent struct {
	Type       ChangeType
	Generation uint64
	RoundID    string
	Status     string
	Value      int
}

type Bus struct {
	Changes chan ChangeEvent
}

func NewBus() *Bus {
	return &Bus{
		Changes: make(chan ChangeEvent, 64),
	}
}

// Publish never blocks; it reports false when the buffer is full and the
// event was dropped.
func (b *Bus) Publish(ev ChangeEvent) bool {
	select {
	case b.Changes <- ev:
		return true
	default:
		return false
	}
}
