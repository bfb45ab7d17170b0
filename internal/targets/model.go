package targets

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Target struct {
	Value     int      `json:"value"`
	Position  Position `json:"position"`
	Activated bool     `json:"activated"`
	// Layer is the stacking order: lower values sit above higher ones so the
	// next expected target is never fully covered.
	Layer int `json:"layer"`
}

// Layout describes the playable field. Targets are square.
type Layout struct {
	FieldSize  int
	TargetSize int
}

func DefaultLayout() Layout {
	return Layout{
		FieldSize:  384,
		TargetSize: 42,
	}
}

// Extent is the exclusive upper bound for a target coordinate on either
// axis, keeping the whole target inside the field.
func (l Layout) Extent() float64 {
	e := l.FieldSize - l.TargetSize
	if e < 0 {
		return 0
	}
	return float64(e)
}
