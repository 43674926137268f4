package ui

import (
	"slices"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayBodyColors OverlayID = "body_colors"
	OverlayStretch    OverlayID = "stretch"
	OverlayWireframe  OverlayID = "wireframe"
	OverlayPins       OverlayID = "pins"
	OverlayColliders  OverlayID = "colliders"
	OverlayNormals    OverlayID = "normals"
	OverlayWind       OverlayID = "wind"
	OverlayPerf       OverlayID = "perf"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID          OverlayID   // Unique identifier
	Name        string      // Display name
	Description string      // What this overlay shows
	Key         int32       // Keyboard key to toggle (0 = no key)
	KeyLabel    string      // Key label for display (e.g., "S", "V")
	Category    string      // Grouping (e.g., "visual", "debug")
	Exclusive   []OverlayID // Other overlays to disable when this is enabled
	Default     bool        // Enabled at startup
}

// OverlayRegistry holds the overlay descriptors in registration order and
// which of them are switched on.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry returns a registry with the viewer's overlays.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{enabled: make(map[OverlayID]bool)}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds standard overlays.
func (r *OverlayRegistry) registerDefaults() {
	r.Register(OverlayDescriptor{
		ID:          OverlayBodyColors,
		Name:        "Body Colors",
		Description: "Tint each cloth body differently",
		Key:         rl.KeyB,
		KeyLabel:    "B",
		Category:    "visual",
		Exclusive:   []OverlayID{OverlayStretch},
		Default:     true,
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayStretch,
		Name:        "Stretch Colors",
		Description: "Color triangles by edge strain",
		Key:         rl.KeyT,
		KeyLabel:    "T",
		Category:    "visual",
		Exclusive:   []OverlayID{OverlayBodyColors},
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayWireframe,
		Name:        "Wireframe",
		Description: "Draw the particle grid edges",
		Key:         rl.KeyF,
		KeyLabel:    "F",
		Category:    "visual",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayColliders,
		Name:        "Colliders",
		Description: "Draw collision primitives",
		Key:         rl.KeyC,
		KeyLabel:    "C",
		Category:    "visual",
		Default:     true,
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayPins,
		Name:        "Pins",
		Description: "Mark fixed particles",
		Key:         rl.KeyP,
		KeyLabel:    "P",
		Category:    "debug",
		Default:     true,
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayNormals,
		Name:        "Normals",
		Description: "Show vertex normals",
		Key:         rl.KeyN,
		KeyLabel:    "N",
		Category:    "debug",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayWind,
		Name:        "Wind",
		Description: "Show wind direction and current strength",
		Key:         rl.KeyI,
		KeyLabel:    "I",
		Category:    "debug",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayPerf,
		Name:        "Performance",
		Description: "Show frame phase timings",
		Key:         rl.KeyF3,
		KeyLabel:    "F3",
		Category:    "debug",
	})
}

// Register adds an overlay, starting in its Default state.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.enabled[desc.ID] = desc.Default
}

func (r *OverlayRegistry) find(id OverlayID) (OverlayDescriptor, bool) {
	for _, desc := range r.descriptors {
		if desc.ID == id {
			return desc, true
		}
	}
	return OverlayDescriptor{}, false
}

// Toggle flips an overlay and returns its new state. Switching one on turns
// its exclusive partners off.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	desc, ok := r.find(id)
	if !ok {
		return false
	}
	on := !r.enabled[id]
	r.enabled[id] = on
	if on {
		for _, other := range desc.Exclusive {
			r.enabled[other] = false
		}
	}
	return on
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// ByCategory returns overlays filtered by category.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var result []OverlayDescriptor
	for _, desc := range r.descriptors {
		if desc.Category == category {
			result = append(result, desc)
		}
	}
	return result
}

// Categories lists the categories in first-seen order.
func (r *OverlayRegistry) Categories() []string {
	var cats []string
	for _, desc := range r.descriptors {
		if !slices.Contains(cats, desc.Category) {
			cats = append(cats, desc.Category)
		}
	}
	return cats
}

// HandleInput toggles every overlay whose key was pressed this frame.
func (r *OverlayRegistry) HandleInput() {
	for _, desc := range r.descriptors {
		if desc.Key != 0 && rl.IsKeyPressed(desc.Key) {
			r.Toggle(desc.ID)
		}
	}
}
