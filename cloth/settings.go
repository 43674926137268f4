package cloth

import (
	"fmt"
	"strings"
)

// Mode selects the execution backend. Only the CPU path is implemented; the
// other modes are accepted and run on the CPU.
type Mode uint8

const (
	ModeCPU Mode = iota
	ModeGPU
	ModeHybrid
)

var modeNames = [...]string{"cpu", "gpu", "hybrid"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", m)
}

// ParseMode converts a mode name (case-insensitive) to a Mode.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(i), nil
		}
	}
	return ModeCPU, fmt.Errorf("%w: unknown simulation mode %q", ErrConfiguration, s)
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// SimulationConfig holds solver and stepping settings.
type SimulationConfig struct {
	TimeStep      float64 `json:"time_step"`      // Fixed substep duration in seconds
	Iterations    int     `json:"iterations"`     // Relaxation passes per substep
	Substeps      int     `json:"substeps"`       // Maximum substeps consumed per Update
	SelfCollision bool    `json:"self_collision"` // Push apart unlinked particle pairs
	// SelfCollisionRadius is the minimum separation for unlinked pairs (0 = half the spacing).
	SelfCollisionRadius float64 `json:"self_collision_radius"`
	Mode                Mode    `json:"mode"`
	Seed                int64   `json:"seed"` // Turbulence noise seed
}

// Material holds the scalar material properties.
type Material struct {
	Stiffness     float64 `json:"stiffness"`      // Structural/shear constraint stiffness in [0,1]
	BendStiffness float64 `json:"bend_stiffness"` // Bend constraint stiffness in [0,1]
	Damping       float64 `json:"damping"`        // Velocity retention per substep in [0,1]
	Friction      float64 `json:"friction"`       // Tangential velocity removed on contact in [0,1]
	Mass          float64 `json:"mass"`           // Mass of each particle
}

// Options configures a Simulator before Initialize.
type Options struct {
	Config   SimulationConfig
	Material Material
	Topology Topology
	Gravity  Vec3
}

// DefaultOptions returns settings suitable for a hanging sheet at 60 updates per second.
func DefaultOptions() Options {
	return Options{
		Config: SimulationConfig{
			TimeStep:   1.0 / 240.0,
			Iterations: 8,
			Substeps:   4,
			Mode:       ModeCPU,
			Seed:       1,
		},
		Material: Material{
			Stiffness:     1.0,
			BendStiffness: 0.3,
			Damping:       0.99,
			Friction:      0.2,
			Mass:          1.0,
		},
		Topology: DefaultTopology(),
		Gravity:  V3(0, -9.81, 0),
	}
}

// Validate reports the first invalid setting.
func (c SimulationConfig) Validate() error {
	if !(c.TimeStep > 0) {
		return fmt.Errorf("%w: time step must be positive, got %g", ErrConfiguration, c.TimeStep)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("%w: iterations must be at least 1, got %d", ErrConfiguration, c.Iterations)
	}
	if c.Substeps < 1 {
		return fmt.Errorf("%w: substeps must be at least 1, got %d", ErrConfiguration, c.Substeps)
	}
	if c.SelfCollisionRadius < 0 {
		return fmt.Errorf("%w: self-collision radius must not be negative", ErrConfiguration)
	}
	if int(c.Mode) >= len(modeNames) {
		return fmt.Errorf("%w: unknown simulation mode %d", ErrConfiguration, c.Mode)
	}
	return nil
}

// Validate reports the first invalid material value.
func (m Material) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"stiffness", m.Stiffness},
		{"bend stiffness", m.BendStiffness},
		{"damping", m.Damping},
		{"friction", m.Friction},
	}
	for _, c := range checks {
		if !(c.value >= 0 && c.value <= 1) {
			return fmt.Errorf("%w: %s must be in [0,1], got %g", ErrConfiguration, c.name, c.value)
		}
	}
	if !(m.Mass > 0) {
		return fmt.Errorf("%w: mass must be positive, got %g", ErrConfiguration, m.Mass)
	}
	return nil
}
