package cloth

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// WindForce pushes every particle along Direction. Turbulence perturbs both the
// gust strength and the direction with coherent noise sampled at the particle
// position; Frequency sets the spatial and temporal scale of that noise.
type WindForce struct {
	Direction  Vec3    `json:"direction"`
	Strength   float64 `json:"strength"`
	Turbulence float64 `json:"turbulence"`
	Frequency  float64 `json:"frequency"`
}

// DefaultWind returns a light breeze along +X.
func DefaultWind() WindForce {
	return WindForce{Direction: V3(1, 0, 0), Strength: 1, Turbulence: 0.1, Frequency: 1}
}

// accumulateForces zeroes and refills every force accumulator. Positions are not
// touched, so the whole phase reads one consistent state.
func (s *Simulator) accumulateForces() {
	for i := range s.particles {
		p := &s.particles[i]
		p.Force = r3.Scale(p.Mass, s.gravity)
	}

	for _, w := range s.winds {
		if w.Strength == 0 {
			continue
		}
		for i := range s.particles {
			p := &s.particles[i]
			p.Force = r3.Add(p.Force, s.windAt(p.Position, w))
		}
	}

	if s.hasExternal {
		for i := range s.particles {
			p := &s.particles[i]
			p.Force = r3.Add(p.Force, s.external[i])
		}
	}
}

// windAt evaluates one wind source at position p and the current simulated time.
func (s *Simulator) windAt(p Vec3, w WindForce) Vec3 {
	dir := unitOr(w.Direction, V3(1, 0, 0))
	if w.Turbulence == 0 {
		return r3.Scale(w.Strength, dir)
	}

	n := s.noise.sampleVec(r3.Scale(w.Frequency, p), s.time*w.Frequency)
	gust := 1 + w.Turbulence*n.X
	dir = unitOr(r3.Add(dir, r3.Scale(w.Turbulence, V3(n.Y, n.Z, n.X*n.Y))), dir)
	return r3.Scale(w.Strength*gust, dir)
}

// SetGravity sets the gravitational acceleration.
func (s *Simulator) SetGravity(g Vec3) {
	s.gravity = g
}

// Gravity returns the gravitational acceleration.
func (s *Simulator) Gravity() Vec3 {
	return s.gravity
}

// AddWindForce appends a wind source.
func (s *Simulator) AddWindForce(w WindForce) {
	s.winds = append(s.winds, w)
}

// SetWindForces replaces the wind list with a copy of winds.
func (s *Simulator) SetWindForces(winds []WindForce) {
	s.winds = append(s.winds[:0], winds...)
}

// ClearWindForces removes every wind source.
func (s *Simulator) ClearWindForces() {
	s.winds = s.winds[:0]
}

// WindForces returns a copy of the wind list.
func (s *Simulator) WindForces() []WindForce {
	return append([]WindForce(nil), s.winds...)
}

// ApplyForce adds an external force to particle index. It acts during every
// substep of the next Update that runs at least one substep, and is then cleared.
func (s *Simulator) ApplyForce(index int, f Vec3) error {
	if err := s.checkParticle(index); err != nil {
		return err
	}
	s.external[index] = r3.Add(s.external[index], f)
	s.hasExternal = true
	return nil
}

func (s *Simulator) clearExternal() {
	if !s.hasExternal {
		return
	}
	clear(s.external)
	s.hasExternal = false
}

func (s *Simulator) checkParticle(index int) error {
	if !s.initialized() {
		return ErrNotInitialized
	}
	if index < 0 || index >= len(s.particles) {
		return fmt.Errorf("%w: particle %d of %d", ErrIndexOutOfRange, index, len(s.particles))
	}
	return nil
}
