package cloth

// Particle is a point mass of the sheet. Velocity is implicit in
// Position - PreviousPosition.
type Particle struct {
	Position         Vec3
	PreviousPosition Vec3
	Force            Vec3 // Accumulated during the current substep
	Mass             float64
	Fixed            bool
	Neighbors        []int // Adjacent particle indices in stencil order
}

// InverseMass returns 0 for fixed particles, 1/Mass otherwise.
func (p *Particle) InverseMass() float64 {
	if p.Fixed || p.Mass <= 0 {
		return 0
	}
	return 1 / p.Mass
}

// RestState is the per-particle state captured at Initialize and restored by Reset.
type RestState struct {
	Position         Vec3 `json:"position"`
	PreviousPosition Vec3 `json:"previous_position"`
}
