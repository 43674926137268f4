// Package components defines ECS components for the cloth scene.
package components

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/drape/cloth"
)

// Body is one simulated cloth sheet. The simulator is owned by the entity.
type Body struct {
	Name    string
	Sim     *cloth.Simulator
	Primary bool // Reports phase timing; exactly one body per scene
	Steps   int  // Substeps run by the last update
	Broken  bool // Set when an update produced non-finite positions
}

// Collider is a collision primitive shared by every body in the scene.
type Collider struct {
	Prim cloth.CollisionPrimitive
}

// Motion moves a collider along Axis as Base + Axis*Amplitude*sin(2πFt + Phase).
type Motion struct {
	Base      cloth.Vec3
	Axis      cloth.Vec3
	Amplitude float64
	Frequency float64 // Hz
	Phase     float64 // radians
}

// Offset returns the displacement from Base at scene time t.
func (m *Motion) Offset(t float64) cloth.Vec3 {
	s := m.Amplitude * math.Sin(2*math.Pi*m.Frequency*t+m.Phase)
	return r3.Scale(s, m.Axis)
}

// Wind is a wind source whose strength pulses around Base.Strength.
type Wind struct {
	Base           cloth.WindForce
	PulseAmplitude float64 // Fraction of Base.Strength
	PulseFrequency float64 // Hz
	Current        cloth.WindForce
}

// Strength returns the pulsed strength at scene time t, never negative.
func (w *Wind) Strength(t float64) float64 {
	s := w.Base.Strength * (1 + w.PulseAmplitude*math.Sin(2*math.Pi*w.PulseFrequency*t))
	return math.Max(0, s)
}
