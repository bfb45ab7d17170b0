package targets

import (
	"math/rand"
)

// Set holds the live targets of one round, ordered by value. It is not safe
// for concurrent use; the round controller serializes access.
type Set struct {
	targets []*Target
}

// Generate builds a fresh set of n targets valued 1..n with independent,
// uniformly random positions inside the layout.
func Generate(n int, layout Layout, rng *rand.Rand) *Set {
	if n < 0 {
		n = 0
	}
	extent := layout.Extent()
	s := &Set{targets: make([]*Target, 0, n)}
	for v := 1; v <= n; v++ {
		s.targets = append(s.targets, &Target{
			Value: v,
			Position: Position{
				X: rng.Float64() * extent,
				Y: rng.Float64() * extent,
			},
			Layer: n - v + 1,
		})
	}
	return s
}

func (s *Set) Get(value int) *Target {
	for _, t := range s.targets {
		if t.Value == value {
			return t
		}
	}
	return nil
}

// Pending reports whether value names a live target that has not been
// activated yet.
func (s *Set) Pending(value int) bool {
	t := s.Get(value)
	return t != nil && !t.Activated
}

// Activate marks the target activated. It returns false when the target is
// missing or already activated.
func (s *Set) Activate(value int) bool {
	t := s.Get(value)
	if t == nil || t.Activated {
		return false
	}
	t.Activated = true
	return true
}

// Remove takes the target out of the set and reports whether it was present.
func (s *Set) Remove(value int) bool {
	for i, t := range s.targets {
		if t.Value == value {
			s.targets = append(s.targets[:i], s.targets[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Set) Len() int {
	return len(s.targets)
}

// GetList returns copies of the live targets in ascending value order.
func (s *Set) GetList() []Target {
	list := make([]Target, 0, len(s.targets))
	for _, t := range s.targets {
		list = append(list, *t)
	}
	return list
}
