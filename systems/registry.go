// Package systems contains the ECS systems of the cloth scene and the
// registry of frame phases shown by the perf overlay.
package systems

import (
	"github.com/pthm-cable/drape/cloth"
	"github.com/pthm-cable/drape/telemetry"
)

// SystemInfo describes a frame phase for UI display.
type SystemInfo struct {
	ID          string // Phase name used by the perf collector
	Name        string // Display name
	Description string // What this phase does
	Category    string // Grouping (e.g., "scene", "solver")
}

// SystemRegistry holds metadata about all phases.
// This centralizes naming so the UI and perf tracker stay in sync.
type SystemRegistry struct {
	systems []SystemInfo
	byID    map[string]SystemInfo
}

// NewSystemRegistry creates a registry with all known phases.
func NewSystemRegistry() *SystemRegistry {
	reg := &SystemRegistry{
		byID: make(map[string]SystemInfo),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds the phases in frame order.
func (r *SystemRegistry) registerDefaults() {
	r.Register(SystemInfo{ID: telemetry.PhaseScene, Name: "Scene", Description: "Moves colliders and pulses wind", Category: "scene"})

	r.Register(SystemInfo{ID: cloth.PhaseForces, Name: "Forces", Description: "Gravity, wind and external forces", Category: "solver"})
	r.Register(SystemInfo{ID: cloth.PhaseIntegrate, Name: "Integrate", Description: "Damped Verlet step", Category: "solver"})
	r.Register(SystemInfo{ID: cloth.PhaseSolve, Name: "Constraints", Description: "Iterative constraint relaxation", Category: "solver"})
	r.Register(SystemInfo{ID: cloth.PhaseSelfCollide, Name: "Self Collision", Description: "Separates unlinked particles", Category: "solver"})
	r.Register(SystemInfo{ID: cloth.PhaseCollide, Name: "Collision", Description: "Projects particles out of colliders", Category: "solver"})

	r.Register(SystemInfo{ID: telemetry.PhaseBodies, Name: "Other Bodies", Description: "Waits for secondary cloth bodies", Category: "scene"})
	r.Register(SystemInfo{ID: telemetry.PhaseStream, Name: "Stream", Description: "Broadcasts frames to viewers", Category: "output"})
	r.Register(SystemInfo{ID: telemetry.PhaseTelemetry, Name: "Telemetry", Description: "Stats windows and CSV output", Category: "output"})
}

// Register adds a phase to the registry.
func (r *SystemRegistry) Register(info SystemInfo) {
	r.systems = append(r.systems, info)
	r.byID[info.ID] = info
}

// Get returns phase info by ID.
func (r *SystemRegistry) Get(id string) (SystemInfo, bool) {
	info, ok := r.byID[id]
	return info, ok
}

// GetName returns the display name for a phase ID.
// Falls back to the ID itself if not found.
func (r *SystemRegistry) GetName(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}

// All returns all registered phases.
func (r *SystemRegistry) All() []SystemInfo {
	return r.systems
}

// ByCategory returns phases filtered by category.
func (r *SystemRegistry) ByCategory(category string) []SystemInfo {
	var result []SystemInfo
	for _, info := range r.systems {
		if info.Category == category {
			result = append(result, info)
		}
	}
	return result
}

// IDs returns all phase IDs in registration order.
func (r *SystemRegistry) IDs() []string {
	ids := make([]string, len(r.systems))
	for i, info := range r.systems {
		ids[i] = info.ID
	}
	return ids
}
