package cloth

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// ConstraintKind tags how a constraint is relaxed.
type ConstraintKind uint8

const (
	// Distance keeps two particles at RestLength.
	Distance ConstraintKind = iota
	// Bend is a distance link between particles two apart; it resists folding.
	Bend
	// Volume keeps the area of the grid cell whose diagonal corners are A and B.
	// RestLength holds the rest area.
	Volume
	// Collision keeps two particles at least RestLength apart.
	Collision
	// Custom defers the length error to the simulator's CustomFunc.
	Custom
)

var constraintKindNames = [...]string{"distance", "bend", "volume", "collision", "custom"}

func (k ConstraintKind) String() string {
	if int(k) < len(constraintKindNames) {
		return constraintKindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

func (k ConstraintKind) MarshalText() ([]byte, error) {
	if int(k) >= len(constraintKindNames) {
		return nil, fmt.Errorf("unknown constraint kind %d", k)
	}
	return []byte(k.String()), nil
}

func (k *ConstraintKind) UnmarshalText(b []byte) error {
	for i, name := range constraintKindNames {
		if strings.EqualFold(string(b), name) {
			*k = ConstraintKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown constraint kind %q", b)
}

// Constraint bounds the relative configuration of particles A and B.
type Constraint struct {
	A          int            `json:"a"`
	B          int            `json:"b"`
	Kind       ConstraintKind `json:"kind"`
	RestLength float64        `json:"rest_length"`
	Stiffness  float64        `json:"stiffness"` // Fraction of the error corrected per pass
	Damping    float64        `json:"damping"`   // Fraction of each correction retained
}

// CustomFunc computes the signed length error of a Custom constraint given the
// separation vector from A to B and its length. Positive errors pull the pair
// together, negative errors push it apart. The simulator applies the usual
// mass-weighted correction along the separation.
type CustomFunc func(c Constraint, separation Vec3, length float64) float64

// NewConstraint returns a constraint with full stiffness and damping whose
// rest length is the current distance between a and b.
func (s *Simulator) NewConstraint(kind ConstraintKind, a, b int) (Constraint, error) {
	if err := s.checkParticle(a); err != nil {
		return Constraint{}, err
	}
	if err := s.checkParticle(b); err != nil {
		return Constraint{}, err
	}
	c := Constraint{A: a, B: b, Kind: kind, Stiffness: 1, Damping: 1}
	if kind == Volume {
		if err := s.checkCell(a, b); err != nil {
			return Constraint{}, err
		}
		c.RestLength = cellArea(s.particles, s.width, a, b)
	} else {
		c.RestLength = r3.Norm(r3.Sub(s.particles[b].Position, s.particles[a].Position))
	}
	return c, nil
}

// validateConstraint checks indices and kind against a grid of n particles.
func validateConstraint(c Constraint, n, width int) error {
	if c.A < 0 || c.A >= n || c.B < 0 || c.B >= n {
		return fmt.Errorf("%w: constraint links %d-%d, grid has %d particles", ErrIndexOutOfRange, c.A, c.B, n)
	}
	if int(c.Kind) >= len(constraintKindNames) {
		return fmt.Errorf("%w: unknown constraint kind %d", ErrConfiguration, c.Kind)
	}
	if c.RestLength < 0 || math.IsNaN(c.RestLength) {
		return fmt.Errorf("%w: rest length must not be negative", ErrConfiguration)
	}
	if c.Kind == Volume && !isCellDiagonal(c.A, c.B, n, width) {
		return fmt.Errorf("%w: volume constraint %d-%d is not a cell diagonal", ErrConfiguration, c.A, c.B)
	}
	return nil
}

func (s *Simulator) checkCell(a, b int) error {
	if !isCellDiagonal(a, b, len(s.particles), s.width) {
		return fmt.Errorf("%w: %d-%d is not a cell diagonal", ErrConfiguration, a, b)
	}
	return nil
}

func isCellDiagonal(a, b, n, width int) bool {
	return width > 1 && b == a+width+1 && a%width != width-1 && b < n
}

// cellCorners returns the four corners of the cell with diagonal a-b in winding order.
func cellCorners(width, a, b int) [4]int {
	return [4]int{a, a + 1, b, b - 1}
}

// cellArea is the area of the (possibly non-planar) quad spanned by the cell.
func cellArea(particles []Particle, width, a, b int) float64 {
	c := cellCorners(width, a, b)
	d1 := r3.Sub(particles[c[2]].Position, particles[c[0]].Position)
	d2 := r3.Sub(particles[c[3]].Position, particles[c[1]].Position)
	return 0.5 * r3.Norm(r3.Cross(d1, d2))
}

// AddConstraint appends c after validating its indices.
func (s *Simulator) AddConstraint(c Constraint) error {
	if !s.initialized() {
		return ErrNotInitialized
	}
	if err := validateConstraint(c, len(s.particles), s.width); err != nil {
		return err
	}
	s.constraints = append(s.constraints, c)
	s.linkedDirty = true
	return nil
}

// RemoveConstraint deletes the constraint at index, preserving the order of the rest.
func (s *Simulator) RemoveConstraint(index int) error {
	if index < 0 || index >= len(s.constraints) {
		return fmt.Errorf("%w: constraint %d of %d", ErrIndexOutOfRange, index, len(s.constraints))
	}
	s.constraints = append(s.constraints[:index], s.constraints[index+1:]...)
	s.linkedDirty = true
	return nil
}

// Constraints returns a copy of the constraint list.
func (s *Simulator) Constraints() []Constraint {
	out := make([]Constraint, len(s.constraints))
	copy(out, s.constraints)
	return out
}

// ConstraintCount returns the number of constraints.
func (s *Simulator) ConstraintCount() int {
	return len(s.constraints)
}

// SetCustomFunc installs the correction rule for Custom constraints; nil disables them.
func (s *Simulator) SetCustomFunc(fn CustomFunc) {
	s.custom = fn
}
