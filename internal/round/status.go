package round

import "fmt"

type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusCleared
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusCleared:
		return "cleared"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Banner is the headline a renderer shows above the field.
func (s Status) Banner() string {
	switch s {
	case StatusCleared:
		return "ALL CLEARED"
	case StatusFailed:
		return "GAME OVER"
	default:
		return "LET'S PLAY"
	}
}

// Terminal reports whether the round has ended.
func (s Status) Terminal() bool {
	return s == StatusCleared || s == StatusFailed
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = StatusIdle
	case "running":
		*s = StatusRunning
	case "cleared":
		*s = StatusCleared
	case "failed":
		*s = StatusFailed
	default:
		return fmt.Errorf("unknown status %q", text)
	}
	return nil
}
