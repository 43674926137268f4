package cloth

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// relax runs the configured number of passes over every constraint in list order.
func (s *Simulator) relax() {
	for iter := 0; iter < s.config.Iterations; iter++ {
		for i := range s.constraints {
			s.relaxConstraint(&s.constraints[i])
		}
	}
}

// relaxConstraint dispatches on the constraint kind.
func (s *Simulator) relaxConstraint(c *Constraint) {
	k := clamp01(c.Stiffness) * clamp01(c.Damping)
	if k == 0 {
		return
	}
	switch c.Kind {
	case Distance, Bend:
		s.solvePair(c.A, c.B, c.RestLength, k, false)
	case Collision:
		s.solvePair(c.A, c.B, c.RestLength, k, true)
	case Volume:
		s.solveArea(c, k)
	case Custom:
		s.solveCustom(c, k)
	}
}

// solvePair moves a and b along their separation so it approaches rest. The
// correction is split by inverse mass, so a fixed particle never moves and a
// heavier particle moves less. With minOnly the pair is only pushed apart.
// Reports whether a correction was applied.
func (s *Simulator) solvePair(a, b int, rest, k float64, minOnly bool) bool {
	pa, pb := &s.particles[a], &s.particles[b]
	wa, wb := pa.InverseMass(), pb.InverseMass()
	wsum := wa + wb
	if wsum == 0 {
		return false
	}

	delta := r3.Sub(pb.Position, pa.Position)
	d := r3.Norm(delta)
	if d < epsilon {
		return false
	}
	if minOnly && d >= rest {
		return false
	}

	scale := (d - rest) / d * k / wsum
	pa.Position = madd(pa.Position, delta, scale*wa)
	pb.Position = madd(pb.Position, delta, -scale*wb)
	return true
}

// solveCustom applies the caller's length error along the separation.
func (s *Simulator) solveCustom(c *Constraint, k float64) {
	if s.custom == nil {
		return
	}
	pa, pb := &s.particles[c.A], &s.particles[c.B]
	wa, wb := pa.InverseMass(), pb.InverseMass()
	wsum := wa + wb
	if wsum == 0 {
		return
	}
	delta := r3.Sub(pb.Position, pa.Position)
	d := r3.Norm(delta)
	if d < epsilon {
		return
	}
	lengthErr := s.custom(*c, delta, d)
	if lengthErr == 0 || math.IsNaN(lengthErr) || math.IsInf(lengthErr, 0) {
		return
	}
	scale := lengthErr / d * k / wsum
	pa.Position = madd(pa.Position, delta, scale*wa)
	pb.Position = madd(pb.Position, delta, -scale*wb)
}

// solveArea scales the cell's corners about their centroid toward the rest area.
// Each corner's share is proportional to its inverse mass relative to the most
// mobile corner, so fixed corners stay put.
func (s *Simulator) solveArea(c *Constraint, k float64) {
	corners := cellCorners(s.width, c.A, c.B)
	area := cellArea(s.particles, s.width, c.A, c.B)
	if area < epsilon || c.RestLength <= 0 {
		return
	}

	var centroid Vec3
	var wmax float64
	for _, i := range corners {
		centroid = r3.Add(centroid, s.particles[i].Position)
		wmax = math.Max(wmax, s.particles[i].InverseMass())
	}
	if wmax == 0 {
		return
	}
	centroid = r3.Scale(0.25, centroid)

	// Area scales with the square of the linear factor.
	grow := math.Sqrt(c.RestLength/area) - 1
	for _, i := range corners {
		p := &s.particles[i]
		share := p.InverseMass() / wmax
		if share == 0 {
			continue
		}
		p.Position = madd(p.Position, r3.Sub(p.Position, centroid), grow*k*share)
	}
}

// pairKey packs an unordered particle pair.
func pairKey(a, b int) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(uint32(a))<<32 | uint64(uint32(b))
}

// rebuildLinked refreshes the set of structurally linked pairs when the constraint
// list has changed.
func (s *Simulator) rebuildLinked() {
	if !s.linkedDirty && s.linked != nil {
		return
	}
	s.linked = make(map[uint64]struct{}, len(s.constraints))
	for _, c := range s.constraints {
		if c.Kind == Distance || c.Kind == Bend {
			s.linked[pairKey(c.A, c.B)] = struct{}{}
		}
	}
	s.linkedDirty = false
}

// selfCollide pushes apart unlinked particle pairs closer than the self-collision
// radius. The hash is rebuilt from scratch on every call. Pairs are visited in
// ascending index order, so the result does not depend on map ordering.
// Returns the number of corrected pairs.
func (s *Simulator) selfCollide() int {
	radius := s.selfCollisionRadius()
	if radius <= 0 {
		return 0
	}
	s.rebuildLinked()

	if s.hash == nil || s.hash.cellSize != radius {
		s.hash = newSpatialHash(radius)
	}
	s.hash.Clear()
	for i := range s.particles {
		s.hash.Insert(i, s.particles[i].Position)
	}

	contacts := 0
	for i := range s.particles {
		s.scratch = s.hash.QueryInto(s.scratch[:0], s.particles[i].Position)
		for _, j := range s.scratch {
			if j <= i {
				continue
			}
			if _, ok := s.linked[pairKey(i, j)]; ok {
				continue
			}
			if s.solvePair(i, j, radius, 1, true) {
				contacts++
			}
		}
	}
	return contacts
}

func (s *Simulator) selfCollisionRadius() float64 {
	if s.config.SelfCollisionRadius > 0 {
		return s.config.SelfCollisionRadius
	}
	return s.spacing * 0.5
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
