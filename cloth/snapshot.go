package cloth

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete simulator state. Collision objects are per-frame
// inputs and are not part of it.
type Snapshot struct {
	Version int `json:"version"`

	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Spacing float64 `json:"spacing"`

	Particles   []ParticleState `json:"particles"`
	Rest        []RestState     `json:"rest"`
	Constraints []Constraint    `json:"constraints"`

	Config   SimulationConfig `json:"config"`
	Material Material         `json:"material"`
	Topology Topology         `json:"topology"`
	Gravity  Vec3             `json:"gravity"`
	Winds    []WindForce      `json:"winds"`

	Time        float64 `json:"time"`
	Accumulator float64 `json:"accumulator"`
}

// ParticleState is the persisted form of a particle. Neighbors are rebuilt
// from the topology on load.
type ParticleState struct {
	Position         Vec3    `json:"position"`
	PreviousPosition Vec3    `json:"previous_position"`
	Mass             float64 `json:"mass"`
	Fixed            bool    `json:"fixed"`
}

// Capture returns a deep copy of the current state.
func (s *Simulator) Capture() *Snapshot {
	snap := &Snapshot{
		Version:     SnapshotVersion,
		Width:       s.width,
		Height:      s.height,
		Spacing:     s.spacing,
		Particles:   make([]ParticleState, len(s.particles)),
		Rest:        append([]RestState(nil), s.rest...),
		Constraints: s.Constraints(),
		Config:      s.config,
		Material:    s.material,
		Topology:    s.topology,
		Gravity:     s.gravity,
		Winds:       s.WindForces(),
		Time:        s.time,
		Accumulator: s.accumulator,
	}
	for i, p := range s.particles {
		snap.Particles[i] = ParticleState{
			Position:         p.Position,
			PreviousPosition: p.PreviousPosition,
			Mass:             p.Mass,
			Fixed:            p.Fixed,
		}
	}
	return snap
}

// Validate checks that the snapshot describes a consistent simulator.
func (snap *Snapshot) Validate() error {
	if snap.Version != SnapshotVersion {
		return fmt.Errorf("snapshot version %d, want %d", snap.Version, SnapshotVersion)
	}
	if snap.Width <= 0 || snap.Height <= 0 || !(snap.Spacing > 0) {
		return fmt.Errorf("%w: snapshot grid %dx%d spacing %g", ErrConfiguration, snap.Width, snap.Height, snap.Spacing)
	}
	n := snap.Width * snap.Height
	if len(snap.Particles) != n || len(snap.Rest) != n {
		return fmt.Errorf("snapshot has %d particles and %d rest states, want %d", len(snap.Particles), len(snap.Rest), n)
	}
	for i, p := range snap.Particles {
		if !finite(p.Position) || !finite(p.PreviousPosition) || !finite(snap.Rest[i].Position) || !finite(snap.Rest[i].PreviousPosition) {
			return fmt.Errorf("particle %d has a non-finite position", i)
		}
		if !p.Fixed && !(p.Mass > 0) {
			return fmt.Errorf("%w: particle %d mass %g", ErrConfiguration, i, p.Mass)
		}
	}
	for i, c := range snap.Constraints {
		if err := validateConstraint(c, n, snap.Width); err != nil {
			return fmt.Errorf("constraint %d: %w", i, err)
		}
	}
	if err := snap.Config.Validate(); err != nil {
		return err
	}
	if err := snap.Material.Validate(); err != nil {
		return err
	}
	return snap.Topology.validate()
}

// Restore replaces the simulator state with snap. Nothing changes on error.
func (s *Simulator) Restore(snap *Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	n := snap.Width * snap.Height
	particles := make([]Particle, n)
	for i, p := range snap.Particles {
		particles[i] = Particle{
			Position:         p.Position,
			PreviousPosition: p.PreviousPosition,
			Mass:             p.Mass,
			Fixed:            p.Fixed,
		}
	}
	buildNeighbors(particles, snap.Width, snap.Height, snap.Topology)

	s.width, s.height, s.spacing = snap.Width, snap.Height, snap.Spacing
	s.particles = particles
	s.rest = append([]RestState(nil), snap.Rest...)
	s.constraints = append([]Constraint(nil), snap.Constraints...)
	s.config = snap.Config
	s.material = snap.Material
	s.topology = snap.Topology
	s.gravity = snap.Gravity
	s.winds = append([]WindForce(nil), snap.Winds...)
	s.time = snap.Time
	s.accumulator = snap.Accumulator

	s.external = make([]Vec3, n)
	s.hasExternal = false
	s.linked = nil
	s.linkedDirty = true
	s.hash = nil
	s.noise = newTurbulenceField(s.config.Seed)
	s.modeWarned = false
	s.stats = Stats{}
	return nil
}

// SaveToFile writes the state as JSON. The file is written beside path and
// renamed into place, so a failed save never leaves a truncated file at path.
func (s *Simulator) SaveToFile(path string) error {
	if !s.initialized() {
		return fmt.Errorf("%w: %w", ErrIO, ErrNotInitialized)
	}
	data, err := json.MarshalIndent(s.Capture(), "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal snapshot: %w", ErrIO, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create snapshot: %w", ErrIO, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write snapshot: %w", ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: write snapshot: %w", ErrIO, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: write snapshot: %w", ErrIO, err)
	}
	return nil
}

// LoadFromFile reads a snapshot written by SaveToFile. The file is decoded and
// validated in full before any state changes.
func (s *Simulator) LoadFromFile(path string) error {
	snap, err := ReadSnapshot(path)
	if err != nil {
		return err
	}
	if err := s.Restore(snap); err != nil {
		return fmt.Errorf("%w: restore snapshot: %w", ErrIO, err)
	}
	return nil
}

// ReadSnapshot decodes and validates a snapshot file.
func ReadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read snapshot: %w", ErrIO, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: unmarshal snapshot: %w", ErrIO, err)
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return &snap, nil
}

func finite(v Vec3) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
