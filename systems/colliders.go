package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/drape/cloth"
	"github.com/pthm-cable/drape/components"
)

// ColliderSystem gathers the scene's collision primitives. Bodies receive a
// fresh copy every frame, so moving colliders are seen as static within an
// update.
type ColliderSystem struct {
	filter ecs.Filter1[components.Collider]
}

// NewColliderSystem creates a new collider system.
func NewColliderSystem(w *ecs.World) *ColliderSystem {
	return &ColliderSystem{
		filter: *ecs.NewFilter1[components.Collider](w),
	}
}

// Collect appends every primitive to dst.
func (s *ColliderSystem) Collect(dst []cloth.CollisionPrimitive) []cloth.CollisionPrimitive {
	query := s.filter.Query()
	for query.Next() {
		dst = append(dst, query.Get().Prim)
	}
	return dst
}
