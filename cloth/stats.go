package cloth

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Stats summarizes the most recent Update for debug overlays and telemetry.
// Stretch, energy and speed are only measured while debug draw is enabled.
type Stats struct {
	Substeps        int
	SimTime         float64
	Contacts        int // Particle-primitive contacts resolved during the update
	SelfContacts    int // Particle pairs separated by self-collision
	ParticleCount   int
	ConstraintCount int
	FixedCount      int

	MaxStretch    float64 // Largest |length/rest - 1| over Distance constraints
	MeanStretch   float64
	KineticEnergy float64 // Sum of ½mv² over free particles
	MaxSpeed      float64
	LowestY       float64 // Minimum particle height
}

// Stats returns the statistics recorded by the last Update.
func (s *Simulator) Stats() Stats {
	return s.stats
}

func (s *Simulator) recordStats(steps, contacts, selfContacts int) {
	st := Stats{
		Substeps:        steps,
		SimTime:         s.time,
		Contacts:        contacts,
		SelfContacts:    selfContacts,
		ParticleCount:   len(s.particles),
		ConstraintCount: len(s.constraints),
	}
	for i := range s.particles {
		if s.particles[i].Fixed {
			st.FixedCount++
		}
	}
	if s.debugDraw {
		s.measure(&st)
	}
	s.stats = st
}

// measure fills the stretch and energy fields.
func (s *Simulator) measure(st *Stats) {
	var sum float64
	var n int
	for _, c := range s.constraints {
		if c.Kind != Distance || c.RestLength <= 0 {
			continue
		}
		d := r3.Norm(r3.Sub(s.particles[c.B].Position, s.particles[c.A].Position))
		stretch := math.Abs(d/c.RestLength - 1)
		st.MaxStretch = math.Max(st.MaxStretch, stretch)
		sum += stretch
		n++
	}
	if n > 0 {
		st.MeanStretch = sum / float64(n)
	}

	dt := s.config.TimeStep
	st.LowestY = math.Inf(1)
	for i := range s.particles {
		p := &s.particles[i]
		st.LowestY = math.Min(st.LowestY, p.Position.Y)
		if p.Fixed {
			continue
		}
		speed := r3.Norm(r3.Sub(p.Position, p.PreviousPosition)) / dt
		st.MaxSpeed = math.Max(st.MaxSpeed, speed)
		st.KineticEnergy += 0.5 * p.Mass * speed * speed
	}
}

// LogValue implements slog.LogValuer.
func (st Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("substeps", st.Substeps),
		slog.Float64("sim_time", st.SimTime),
		slog.Int("contacts", st.Contacts),
		slog.Int("self_contacts", st.SelfContacts),
		slog.Int("particles", st.ParticleCount),
		slog.Int("constraints", st.ConstraintCount),
		slog.Float64("max_stretch", st.MaxStretch),
		slog.Float64("mean_stretch", st.MeanStretch),
		slog.Float64("kinetic_energy", st.KineticEnergy),
		slog.Float64("max_speed", st.MaxSpeed),
	)
}
