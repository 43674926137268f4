package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/drape/cloth"
	"github.com/pthm-cable/drape/components"
)

// WindSystem pulses wind sources and gathers them for the bodies.
type WindSystem struct {
	filter ecs.Filter1[components.Wind]
}

// NewWindSystem creates a new wind system.
func NewWindSystem(w *ecs.World) *WindSystem {
	return &WindSystem{
		filter: *ecs.NewFilter1[components.Wind](w),
	}
}

// Update sets every source's current force for scene time t.
func (s *WindSystem) Update(t float64) {
	query := s.filter.Query()
	for query.Next() {
		wind := query.Get()
		wind.Current = wind.Base
		wind.Current.Strength = wind.Strength(t)
	}
}

// Collect appends the current forces to dst.
func (s *WindSystem) Collect(dst []cloth.WindForce) []cloth.WindForce {
	query := s.filter.Query()
	for query.Next() {
		dst = append(dst, query.Get().Current)
	}
	return dst
}
