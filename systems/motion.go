package systems

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/drape/components"
)

// MotionSystem moves kinematic colliders along their sinusoidal paths.
type MotionSystem struct {
	filter ecs.Filter2[components.Collider, components.Motion]
}

// NewMotionSystem creates a new motion system.
func NewMotionSystem(w *ecs.World) *MotionSystem {
	return &MotionSystem{
		filter: *ecs.NewFilter2[components.Collider, components.Motion](w),
	}
}

// Update places every moving collider at its position for scene time t.
func (s *MotionSystem) Update(t float64) {
	query := s.filter.Query()
	for query.Next() {
		col, m := query.Get()
		col.Prim.Position = r3.Add(m.Base, m.Offset(t))
	}
}
