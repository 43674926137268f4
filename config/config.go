// Package config provides configuration loading and access for the cloth viewer
// and its headless tools.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/drape/cloth"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all configuration parameters.
type Config struct {
	Screen    ScreenConfig     `yaml:"screen"`
	Sim       SimConfig        `yaml:"sim"`
	Grid      GridConfig       `yaml:"grid"`
	Material  MaterialConfig   `yaml:"material"`
	Gravity   Vec3             `yaml:"gravity"`
	Winds     []WindConfig     `yaml:"winds"`
	Anchors   AnchorsConfig    `yaml:"anchors"`
	Colliders []ColliderConfig `yaml:"colliders"`
	Bodies    []BodyConfig     `yaml:"bodies"`
	Telemetry TelemetryConfig  `yaml:"telemetry"`
	Stream    StreamConfig     `yaml:"stream"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// Vec3 is a vector written as a three element YAML sequence.
type Vec3 [3]float64

// Vec converts to the simulator vector type.
func (v Vec3) Vec() cloth.Vec3 {
	return cloth.V3(v[0], v[1], v[2])
}

// FromVec converts a simulator vector.
func FromVec(v cloth.Vec3) Vec3 {
	return Vec3{v.X, v.Y, v.Z}
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	TargetFPS int    `yaml:"target_fps"`
	Title     string `yaml:"title"`
}

// SimConfig holds solver and stepping parameters.
type SimConfig struct {
	TimeStep            float64 `yaml:"time_step"`             // Substep duration in seconds
	Iterations          int     `yaml:"iterations"`            // Relaxation passes per substep
	Substeps            int     `yaml:"substeps"`              // Maximum substeps per frame
	SelfCollision       bool    `yaml:"self_collision"`
	SelfCollisionRadius float64 `yaml:"self_collision_radius"` // 0 = half the grid spacing
	Mode                string  `yaml:"mode"`                  // cpu, gpu or hybrid
	Seed                int64   `yaml:"seed"`
}

// GridConfig holds the sheet layout.
type GridConfig struct {
	Width        int     `yaml:"width"`
	Height       int     `yaml:"height"`
	Spacing      float64 `yaml:"spacing"`
	Preset       string  `yaml:"preset"`       // softbody, hair, fabric, flag or custom
	Connectivity int     `yaml:"connectivity"` // 4 or 8; presets override
	Orientation  string  `yaml:"orientation"`  // vertical or horizontal
	Origin       Vec3    `yaml:"origin"`       // Position of cell (0,0)
	Bend         bool    `yaml:"bend"`
	Volume       bool    `yaml:"volume"`
}

// MaterialConfig holds cloth material scalars.
type MaterialConfig struct {
	Stiffness     float64 `yaml:"stiffness"`
	BendStiffness float64 `yaml:"bend_stiffness"`
	Damping       float64 `yaml:"damping"`
	Friction      float64 `yaml:"friction"`
	Mass          float64 `yaml:"mass"`
}

// WindConfig describes one wind source. The pulse fields modulate strength over
// time in the scene: strength * (1 + pulse_amplitude*sin(2π pulse_frequency t)).
type WindConfig struct {
	Direction      Vec3    `yaml:"direction"`
	Strength       float64 `yaml:"strength"`
	Turbulence     float64 `yaml:"turbulence"`
	Frequency      float64 `yaml:"frequency"`
	PulseAmplitude float64 `yaml:"pulse_amplitude"`
	PulseFrequency float64 `yaml:"pulse_frequency"`
}

// AnchorsConfig selects pinned particles.
type AnchorsConfig struct {
	UsePreset bool     `yaml:"use_preset"` // Pin the preset's default anchors
	Cells     [][2]int `yaml:"cells"`      // Extra (x, y) cells to pin
}

// ColliderConfig describes a collision primitive and its optional motion.
type ColliderConfig struct {
	Kind      string       `yaml:"kind"` // sphere, box, plane or mesh
	Position  Vec3         `yaml:"position"`
	Radius    float64      `yaml:"radius"`    // Sphere
	Extents   Vec3         `yaml:"extents"`   // Box full size
	Axis      Vec3         `yaml:"axis"`      // Box rotation axis
	Angle     float64      `yaml:"angle"`     // Box rotation in degrees
	Normal    Vec3         `yaml:"normal"`    // Plane
	Vertices  []Vec3       `yaml:"vertices"`  // Mesh triangle triples
	Thickness float64      `yaml:"thickness"` // Mesh
	Motion    MotionConfig `yaml:"motion"`
}

// MotionConfig moves a collider sinusoidally along Axis. A zero amplitude keeps it static.
type MotionConfig struct {
	Axis      Vec3    `yaml:"axis"`
	Amplitude float64 `yaml:"amplitude"`
	Frequency float64 `yaml:"frequency"` // Hz
}

// BodyConfig adds a sheet to the scene beside the main one. It shares the
// solver, material and gravity sections; zero fields fall back to the grid
// section.
type BodyConfig struct {
	Name   string `yaml:"name"`
	Preset string `yaml:"preset"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Offset Vec3   `yaml:"offset"` // Added to grid.origin
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`          // Seconds of sim time per stats record
	PerfCollectorWindow int     `yaml:"perf_collector_window"` // Ticks averaged by the perf collector
}

// StreamConfig holds the websocket frame stream settings.
type StreamConfig struct {
	Addr      string `yaml:"addr"`       // Listen address; empty disables streaming
	SendEvery int    `yaml:"send_every"` // Broadcast every Nth tick
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ClothType     cloth.ClothType
	Mode          cloth.Mode
	FrameDT       float64 // 1 / Screen.TargetFPS
	FrameDT32     float32
	ParticleCount int
	StatsTicks    int // Ticks per telemetry window
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. Lists in the user file
// replace the default lists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the embedded configuration.
func Defaults() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	ct, err := cloth.ParseClothType(c.Grid.Preset)
	if err != nil {
		return err
	}
	c.Derived.ClothType = ct

	mode := cloth.ModeCPU
	if c.Sim.Mode != "" {
		if mode, err = cloth.ParseMode(c.Sim.Mode); err != nil {
			return err
		}
	}
	c.Derived.Mode = mode

	if c.Screen.TargetFPS > 0 {
		c.Derived.FrameDT = 1 / float64(c.Screen.TargetFPS)
	}
	c.Derived.FrameDT32 = float32(c.Derived.FrameDT)
	c.Derived.ParticleCount = c.Grid.Width * c.Grid.Height

	c.Derived.StatsTicks = 1
	if c.Derived.FrameDT > 0 && c.Telemetry.StatsWindow > 0 {
		c.Derived.StatsTicks = max(1, int(math.Round(c.Telemetry.StatsWindow/c.Derived.FrameDT)))
	}
	return nil
}

// Validate reports settings a simulator would reject, before anything is built.
func (c *Config) Validate() error {
	if c.Screen.TargetFPS <= 0 {
		return fmt.Errorf("%w: screen.target_fps must be positive", cloth.ErrConfiguration)
	}
	if c.Grid.Width <= 0 || c.Grid.Height <= 0 || !(c.Grid.Spacing > 0) {
		return fmt.Errorf("%w: grid %dx%d spacing %g", cloth.ErrConfiguration, c.Grid.Width, c.Grid.Height, c.Grid.Spacing)
	}
	opts := c.ClothOptions()
	if err := opts.Config.Validate(); err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	if err := opts.Material.Validate(); err != nil {
		return fmt.Errorf("material: %w", err)
	}
	if _, err := c.Primitives(); err != nil {
		return err
	}
	for _, cell := range c.AnchorCells() {
		if cell[0] < 0 || cell[1] < 0 || cell[0] >= c.Grid.Width || cell[1] >= c.Grid.Height {
			return fmt.Errorf("%w: anchor (%d,%d) outside %dx%d grid", cloth.ErrConfiguration, cell[0], cell[1], c.Grid.Width, c.Grid.Height)
		}
	}
	for i := range c.Bodies {
		body, err := c.ForBody(i)
		if err != nil {
			return fmt.Errorf("bodies[%d]: %w", i, err)
		}
		if err := body.Validate(); err != nil {
			return fmt.Errorf("bodies[%d]: %w", i, err)
		}
	}
	return nil
}

// ForBody returns the configuration of extra body i as a standalone config
// without further bodies. Extra bodies use only the preset anchors.
func (c *Config) ForBody(i int) (*Config, error) {
	if i < 0 || i >= len(c.Bodies) {
		return nil, fmt.Errorf("%w: body %d of %d", cloth.ErrConfiguration, i, len(c.Bodies))
	}
	b := c.Bodies[i]
	out := *c
	out.Bodies = nil
	out.Anchors = AnchorsConfig{UsePreset: true}
	if b.Preset != "" {
		out.Grid.Preset = b.Preset
	}
	if b.Width > 0 {
		out.Grid.Width = b.Width
	}
	if b.Height > 0 {
		out.Grid.Height = b.Height
	}
	for k := range out.Grid.Origin {
		out.Grid.Origin[k] += b.Offset[k]
	}
	if err := out.computeDerived(); err != nil {
		return nil, err
	}
	return &out, nil
}

// BodyName returns the display name of extra body i.
func (c *Config) BodyName(i int) string {
	if i >= 0 && i < len(c.Bodies) && c.Bodies[i].Name != "" {
		return c.Bodies[i].Name
	}
	return fmt.Sprintf("body%d", i+1)
}

// ClothOptions converts the sim, grid, material and gravity sections.
func (c *Config) ClothOptions() cloth.Options {
	base := cloth.Topology{
		Connectivity: cloth.Connectivity(c.Grid.Connectivity),
		Orientation:  cloth.Orientation(c.Grid.Orientation),
		Origin:       c.Grid.Origin.Vec(),
		Bend:         c.Grid.Bend,
		Volume:       c.Grid.Volume,
	}
	return cloth.Options{
		Config: cloth.SimulationConfig{
			TimeStep:            c.Sim.TimeStep,
			Iterations:          c.Sim.Iterations,
			Substeps:            c.Sim.Substeps,
			SelfCollision:       c.Sim.SelfCollision,
			SelfCollisionRadius: c.Sim.SelfCollisionRadius,
			Mode:                c.Derived.Mode,
			Seed:                c.Sim.Seed,
		},
		Material: c.Material.Material(),
		Topology: cloth.PresetTopology(c.Derived.ClothType, base),
		Gravity:  c.Gravity.Vec(),
	}
}

// Material converts the material section.
func (m MaterialConfig) Material() cloth.Material {
	return cloth.Material{
		Stiffness:     m.Stiffness,
		BendStiffness: m.BendStiffness,
		Damping:       m.Damping,
		Friction:      m.Friction,
		Mass:          m.Mass,
	}
}

// SetMaterial overwrites the material section.
func (c *Config) SetMaterial(m cloth.Material) {
	c.Material = MaterialConfig{
		Stiffness:     m.Stiffness,
		BendStiffness: m.BendStiffness,
		Damping:       m.Damping,
		Friction:      m.Friction,
		Mass:          m.Mass,
	}
}

// Force converts a wind entry, ignoring the pulse fields.
func (w WindConfig) Force() cloth.WindForce {
	return cloth.WindForce{
		Direction:  w.Direction.Vec(),
		Strength:   w.Strength,
		Turbulence: w.Turbulence,
		Frequency:  w.Frequency,
	}
}

// WindForces converts every wind entry.
func (c *Config) WindForces() []cloth.WindForce {
	out := make([]cloth.WindForce, len(c.Winds))
	for i, w := range c.Winds {
		out[i] = w.Force()
	}
	return out
}

// Primitive converts a collider entry at its rest position.
func (cc ColliderConfig) Primitive() (cloth.CollisionPrimitive, error) {
	kind, err := cloth.ParsePrimitiveKind(cc.Kind)
	if err != nil {
		return cloth.CollisionPrimitive{}, err
	}
	var prim cloth.CollisionPrimitive
	switch kind {
	case cloth.Sphere:
		prim = cloth.NewSphere(cc.Position.Vec(), cc.Radius)
	case cloth.Box:
		prim = cloth.NewBox(cc.Position.Vec(), cc.Extents.Vec())
		prim.Axis = cc.Axis.Vec()
		prim.Angle = cc.Angle * math.Pi / 180
	case cloth.Plane:
		prim = cloth.NewPlane(cc.Position.Vec(), cc.Normal.Vec())
	case cloth.Mesh:
		verts := make([]cloth.Vec3, len(cc.Vertices))
		for i, v := range cc.Vertices {
			verts[i] = v.Vec()
		}
		prim = cloth.NewMesh(cc.Position.Vec(), verts, cc.Thickness)
	}
	prim.Static = cc.Motion.Amplitude == 0
	return prim, prim.Validate()
}

// Primitives converts every collider entry.
func (c *Config) Primitives() ([]cloth.CollisionPrimitive, error) {
	out := make([]cloth.CollisionPrimitive, len(c.Colliders))
	for i, cc := range c.Colliders {
		prim, err := cc.Primitive()
		if err != nil {
			return nil, fmt.Errorf("colliders[%d]: %w", i, err)
		}
		out[i] = prim
	}
	return out, nil
}

// AnchorCells returns the preset anchors (when enabled) followed by the extra cells.
func (c *Config) AnchorCells() [][2]int {
	var cells [][2]int
	if c.Anchors.UsePreset {
		cells = cloth.PresetAnchors(c.Derived.ClothType, c.Grid.Width, c.Grid.Height)
	}
	return append(cells, c.Anchors.Cells...)
}

// NewSimulator builds and initializes a simulator from the configuration,
// including its anchors, winds and static colliders.
func (c *Config) NewSimulator() (*cloth.Simulator, error) {
	sim := cloth.New(c.ClothOptions())
	if err := sim.Initialize(c.Grid.Width, c.Grid.Height, c.Grid.Spacing); err != nil {
		return nil, err
	}
	if err := sim.Pin(c.AnchorCells()); err != nil {
		return nil, err
	}
	sim.SetWindForces(c.WindForces())
	prims, err := c.Primitives()
	if err != nil {
		return nil, err
	}
	if err := sim.SetCollisionObjects(prims); err != nil {
		return nil, err
	}
	return sim, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
