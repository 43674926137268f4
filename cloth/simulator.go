// Package cloth implements a position-based cloth simulator: a grid of point
// masses linked by constraints, advanced with damped Verlet integration,
// relaxed iteratively and projected out of static collision primitives.
//
// A Simulator is not safe for concurrent use. Independent simulators share no
// state and may be updated from different goroutines.
package cloth

import (
	"fmt"
	"log/slog"
	"math"
)

// Phase names reported to a PhaseObserver, in pipeline order.
const (
	PhaseForces      = "forces"
	PhaseIntegrate   = "integrate"
	PhaseSolve       = "solve"
	PhaseSelfCollide = "self_collide"
	PhaseCollide     = "collide"
)

// PhaseObserver is notified when each pipeline phase starts.
type PhaseObserver interface {
	StartPhase(name string)
}

// Simulator owns one cloth sheet.
type Simulator struct {
	width, height int
	spacing       float64

	particles   []Particle
	rest        []RestState
	constraints []Constraint
	colliders   []CollisionPrimitive
	winds       []WindForce
	external    []Vec3
	hasExternal bool

	gravity  Vec3
	material Material
	config   SimulationConfig
	topology Topology
	custom   CustomFunc

	noise       *turbulenceField
	hash        *spatialHash
	scratch     []int
	linked      map[uint64]struct{}
	linkedDirty bool

	accumulator float64
	time        float64

	observer   PhaseObserver
	logger     *slog.Logger
	debugDraw  bool
	stats      Stats
	modeWarned bool
}

// New creates an uninitialized simulator. Call Initialize to build the grid.
func New(opts Options) *Simulator {
	return &Simulator{
		gravity:  opts.Gravity,
		material: opts.Material,
		config:   opts.Config,
		topology: opts.Topology,
		noise:    newTurbulenceField(opts.Config.Seed),
		logger:   slog.Default(),
	}
}

// Initialize lays out a width x height grid at spacing and generates its
// constraints. On error the simulator is left uninitialized.
func (s *Simulator) Initialize(width, height int, spacing float64) error {
	s.Shutdown()

	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: grid must be at least 1x1, got %dx%d", ErrConfiguration, width, height)
	}
	if !(spacing > 0) || math.IsInf(spacing, 0) {
		return fmt.Errorf("%w: spacing must be positive, got %g", ErrConfiguration, spacing)
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	if err := s.material.Validate(); err != nil {
		return err
	}
	if err := s.topology.validate(); err != nil {
		return err
	}

	n := width * height
	particles := make([]Particle, n)
	rest := make([]RestState, n)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			pos := s.topology.gridPosition(x, y, spacing)
			particles[i] = Particle{Position: pos, PreviousPosition: pos, Mass: s.material.Mass}
			rest[i] = RestState{Position: pos, PreviousPosition: pos}
		}
	}
	buildNeighbors(particles, width, height, s.topology)

	s.width, s.height, s.spacing = width, height, spacing
	s.particles = particles
	s.rest = rest
	s.constraints = buildConstraints(particles, width, height, s.topology, s.material)
	s.external = make([]Vec3, n)
	s.linkedDirty = true
	s.noise = newTurbulenceField(s.config.Seed)
	return nil
}

// Shutdown releases the grid and constraints. Collision objects, winds and
// settings are kept.
func (s *Simulator) Shutdown() {
	s.width, s.height, s.spacing = 0, 0, 0
	s.particles = nil
	s.rest = nil
	s.constraints = nil
	s.external = nil
	s.hasExternal = false
	s.linked = nil
	s.hash = nil
	s.accumulator = 0
	s.time = 0
	s.stats = Stats{}
}

func (s *Simulator) initialized() bool {
	return len(s.particles) > 0
}

// Initialized reports whether a grid has been built.
func (s *Simulator) Initialized() bool {
	return s.initialized()
}

// Update advances the simulation by elapsed seconds. Time is banked and spent in
// fixed substeps of the configured time step, at most Substeps per call; time
// beyond that cap is dropped. Returns the number of substeps run.
func (s *Simulator) Update(elapsed float64) int {
	if !s.initialized() || !(elapsed > 0) {
		return 0
	}
	s.warnMode()

	dt := s.config.TimeStep
	s.accumulator += elapsed
	steps := int(s.accumulator/dt + 1e-9)
	if steps > s.config.Substeps {
		s.logger.Debug("dropping simulation time",
			"banked", s.accumulator,
			"max_substeps", s.config.Substeps,
			"dropped", s.accumulator-float64(s.config.Substeps)*dt,
		)
		steps = s.config.Substeps
		s.accumulator = float64(steps) * dt
	}

	contacts, selfContacts := 0, 0
	for i := 0; i < steps; i++ {
		c, sc := s.substep(dt)
		contacts += c
		selfContacts += sc
	}
	s.accumulator = math.Max(0, s.accumulator-float64(steps)*dt)

	// Forces queued by ApplyForce wait for an Update that actually steps.
	if steps > 0 {
		s.clearExternal()
		s.recordStats(steps, contacts, selfContacts)
	}
	return steps
}

// Step runs exactly one substep regardless of the accumulator.
func (s *Simulator) Step() {
	if !s.initialized() {
		return
	}
	c, sc := s.substep(s.config.TimeStep)
	s.clearExternal()
	s.recordStats(1, c, sc)
}

// substep runs forces, integration, relaxation and collision once.
func (s *Simulator) substep(dt float64) (contacts, selfContacts int) {
	s.phase(PhaseForces)
	s.accumulateForces()

	s.phase(PhaseIntegrate)
	s.integrate(dt)

	s.phase(PhaseSolve)
	s.relax()

	if s.config.SelfCollision {
		s.phase(PhaseSelfCollide)
		selfContacts = s.selfCollide()
	}

	s.phase(PhaseCollide)
	contacts = s.collide()

	s.time += dt
	return contacts, selfContacts
}

func (s *Simulator) phase(name string) {
	if s.observer != nil {
		s.observer.StartPhase(name)
	}
}

func (s *Simulator) warnMode() {
	if s.config.Mode == ModeCPU || s.modeWarned {
		return
	}
	s.logger.Warn("simulation mode not available, running on cpu", "mode", s.config.Mode.String())
	s.modeWarned = true
}

// Reset restores every particle's position and previous position to the values
// captured by the last Initialize (or Load). Fixed flags, masses and constraints
// are kept; banked time, external forces and simulated time are cleared.
func (s *Simulator) Reset() {
	for i := range s.particles {
		p := &s.particles[i]
		p.Position = s.rest[i].Position
		p.PreviousPosition = s.rest[i].PreviousPosition
		p.Force = Vec3{}
	}
	s.clearExternal()
	s.accumulator = 0
	s.time = 0
	s.stats = Stats{}
}

// Width returns the grid width in particles.
func (s *Simulator) Width() int { return s.width }

// Height returns the grid height in particles.
func (s *Simulator) Height() int { return s.height }

// Spacing returns the rest spacing between adjacent particles.
func (s *Simulator) Spacing() float64 { return s.spacing }

// ParticleCount returns width*height once initialized.
func (s *Simulator) ParticleCount() int { return len(s.particles) }

// Time returns the simulated time since Initialize or Reset.
func (s *Simulator) Time() float64 { return s.time }

// Index returns the particle index of grid cell (x, y).
func (s *Simulator) Index(x, y int) (int, error) {
	if !s.initialized() {
		return 0, ErrNotInitialized
	}
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		return 0, fmt.Errorf("%w: cell (%d,%d) outside %dx%d grid", ErrIndexOutOfRange, x, y, s.width, s.height)
	}
	return y*s.width + x, nil
}

// Particle returns a copy of particle index.
func (s *Simulator) Particle(index int) (Particle, error) {
	if err := s.checkParticle(index); err != nil {
		return Particle{}, err
	}
	p := s.particles[index]
	p.Neighbors = append([]int(nil), p.Neighbors...)
	return p, nil
}

// ParticleAt returns a copy of the particle at grid cell (x, y).
func (s *Simulator) ParticleAt(x, y int) (Particle, error) {
	i, err := s.Index(x, y)
	if err != nil {
		return Particle{}, err
	}
	return s.Particle(i)
}

// PositionsInto appends every particle position to dst in index order and
// returns the extended slice.
func (s *Simulator) PositionsInto(dst []Vec3) []Vec3 {
	for i := range s.particles {
		dst = append(dst, s.particles[i].Position)
	}
	return dst
}

// Positions returns a fresh slice of particle positions in index order.
func (s *Simulator) Positions() []Vec3 {
	return s.PositionsInto(make([]Vec3, 0, len(s.particles)))
}

// SetParticleFixed pins or releases the particle at grid cell (x, y).
func (s *Simulator) SetParticleFixed(x, y int, fixed bool) error {
	i, err := s.Index(x, y)
	if err != nil {
		return err
	}
	return s.SetParticleFixedIndex(i, fixed)
}

// SetParticleFixedIndex pins or releases particle index. A pinned particle loses
// its velocity.
func (s *Simulator) SetParticleFixedIndex(index int, fixed bool) error {
	if err := s.checkParticle(index); err != nil {
		return err
	}
	p := &s.particles[index]
	p.Fixed = fixed
	if fixed {
		p.PreviousPosition = p.Position
	}
	return nil
}

// IsParticleFixed reports whether particle index is pinned.
func (s *Simulator) IsParticleFixed(index int) (bool, error) {
	if err := s.checkParticle(index); err != nil {
		return false, err
	}
	return s.particles[index].Fixed, nil
}

// Pin fixes every listed grid cell.
func (s *Simulator) Pin(cells [][2]int) error {
	for _, c := range cells {
		if _, err := s.Index(c[0], c[1]); err != nil {
			return err
		}
	}
	for _, c := range cells {
		if err := s.SetParticleFixed(c[0], c[1], true); err != nil {
			return err
		}
	}
	return nil
}

func unitCoefficient(name string, v float64) error {
	if !(v >= 0 && v <= 1) {
		return fmt.Errorf("%w: %s must be in [0,1], got %g", ErrConfiguration, name, v)
	}
	return nil
}

// SetStiffness sets the material stiffness and applies it to every Distance
// constraint, including ones added with AddConstraint.
func (s *Simulator) SetStiffness(v float64) error {
	if err := unitCoefficient("stiffness", v); err != nil {
		return err
	}
	s.material.Stiffness = v
	for i := range s.constraints {
		if s.constraints[i].Kind == Distance {
			s.constraints[i].Stiffness = v
		}
	}
	return nil
}

// SetBendStiffness sets the bend stiffness and applies it to every Bend
// constraint, including ones added with AddConstraint.
func (s *Simulator) SetBendStiffness(v float64) error {
	if err := unitCoefficient("bend stiffness", v); err != nil {
		return err
	}
	s.material.BendStiffness = v
	for i := range s.constraints {
		if s.constraints[i].Kind == Bend {
			s.constraints[i].Stiffness = v
		}
	}
	return nil
}

// SetDamping sets the velocity retention used by the integrator.
func (s *Simulator) SetDamping(v float64) error {
	if err := unitCoefficient("damping", v); err != nil {
		return err
	}
	s.material.Damping = v
	return nil
}

// SetFriction sets the tangential velocity fraction removed on contact.
func (s *Simulator) SetFriction(v float64) error {
	if err := unitCoefficient("friction", v); err != nil {
		return err
	}
	s.material.Friction = v
	return nil
}

// SetMass sets the mass of every particle.
func (s *Simulator) SetMass(mass float64) error {
	if !(mass > 0) || math.IsInf(mass, 0) {
		return fmt.Errorf("%w: mass must be positive, got %g", ErrConfiguration, mass)
	}
	s.material.Mass = mass
	for i := range s.particles {
		s.particles[i].Mass = mass
	}
	return nil
}

// Material returns the current material scalars.
func (s *Simulator) Material() Material { return s.material }

// Config returns the current simulation settings.
func (s *Simulator) Config() SimulationConfig { return s.config }

// Topology returns the layout used by Initialize.
func (s *Simulator) Topology() Topology { return s.topology }

// SetTimeStep sets the substep duration. Non-positive values are ignored.
func (s *Simulator) SetTimeStep(step float64) {
	if step > 0 {
		s.config.TimeStep = step
	}
}

// SetIterations sets the relaxation passes per substep (minimum 1).
func (s *Simulator) SetIterations(n int) {
	s.config.Iterations = max(1, n)
}

// SetSubsteps sets the maximum substeps per Update (minimum 1).
func (s *Simulator) SetSubsteps(n int) {
	s.config.Substeps = max(1, n)
}

// EnableSelfCollision toggles the self-collision pass.
func (s *Simulator) EnableSelfCollision(enable bool) {
	s.config.SelfCollision = enable
}

// SetSimulationMode records the execution mode. Non-CPU modes run on the CPU.
func (s *Simulator) SetSimulationMode(m Mode) {
	s.config.Mode = m
	s.modeWarned = false
}

// EnableDebugDraw toggles stretch and energy statistics after each Update.
func (s *Simulator) EnableDebugDraw(enable bool) {
	s.debugDraw = enable
}

// SetObserver installs a phase observer; nil removes it.
func (s *Simulator) SetObserver(o PhaseObserver) {
	s.observer = o
}

// SetLogger replaces the logger used for rare runtime events.
func (s *Simulator) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	s.logger = l
}
