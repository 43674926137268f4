package cloth

import "gonum.org/v1/gonum/spatial/r3"

// integrate advances every free particle with damped position Verlet:
//
//	next = pos + (pos - prev)*damping + (force/mass)*dt²
//
// Fixed particles keep their position and have prev synchronized to it.
func (s *Simulator) integrate(dt float64) {
	damping := clamp01(s.material.Damping)
	dt2 := dt * dt
	for i := range s.particles {
		p := &s.particles[i]
		if p.Fixed {
			p.PreviousPosition = p.Position
			continue
		}
		vel := r3.Sub(p.Position, p.PreviousPosition)
		next := madd(p.Position, vel, damping)
		next = madd(next, p.Force, dt2/p.Mass)
		p.PreviousPosition = p.Position
		p.Position = next
	}
}
