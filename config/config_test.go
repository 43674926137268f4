package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/drape/cloth"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults failed: %v", err)
	}

	if cfg.Derived.ClothType != cloth.Fabric {
		t.Errorf("preset %q, want fabric", cfg.Derived.ClothType)
	}
	if cfg.Derived.Mode != cloth.ModeCPU {
		t.Errorf("mode %v, want cpu", cfg.Derived.Mode)
	}
	if math.Abs(cfg.Derived.FrameDT-1.0/60.0) > 1e-12 {
		t.Errorf("frame dt %g, want 1/60", cfg.Derived.FrameDT)
	}
	if cfg.Derived.StatsTicks != 60 {
		t.Errorf("stats ticks %d, want 60", cfg.Derived.StatsTicks)
	}
	if cfg.Derived.ParticleCount != cfg.Grid.Width*cfg.Grid.Height {
		t.Errorf("particle count %d", cfg.Derived.ParticleCount)
	}

	opts := cfg.ClothOptions()
	if math.Abs(opts.Config.TimeStep-1.0/240.0) > 1e-15 {
		t.Errorf("time step %g, want 1/240", opts.Config.TimeStep)
	}
	if opts.Gravity != cloth.V3(0, -9.81, 0) {
		t.Errorf("gravity %v", opts.Gravity)
	}
	if got := len(cfg.AnchorCells()); got != cfg.Grid.Width {
		t.Errorf("fabric preset pinned %d cells, want the top row", got)
	}
}

func TestLoadMergesUserFile(t *testing.T) {
	path := writeFile(t, `
grid:
  width: 8
  preset: flag
material:
  stiffness: 0.6
winds: []
colliders:
  - kind: box
    position: [0, 1, 0]
    extents: [0.4, 0.4, 0.4]
    axis: [0, 1, 0]
    angle: 90
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Grid.Width != 8 || cfg.Grid.Height != 24 {
		t.Errorf("grid %dx%d, want 8x24 (height from defaults)", cfg.Grid.Width, cfg.Grid.Height)
	}
	if cfg.Material.Stiffness != 0.6 || cfg.Material.Damping != 0.99 {
		t.Errorf("material not merged: %+v", cfg.Material)
	}
	if len(cfg.Winds) != 0 {
		t.Errorf("user list should replace defaults, got %d winds", len(cfg.Winds))
	}

	prims, err := cfg.Primitives()
	if err != nil {
		t.Fatal(err)
	}
	if len(prims) != 1 || prims[0].Kind != cloth.Box {
		t.Fatalf("unexpected colliders %+v", prims)
	}
	if math.Abs(prims[0].Angle-math.Pi/2) > 1e-12 {
		t.Errorf("angle %g rad, want π/2", prims[0].Angle)
	}
	if !prims[0].Static {
		t.Error("collider without motion should be static")
	}

	topo := cfg.ClothOptions().Topology
	if topo.Bend {
		t.Error("flag preset should disable bend links")
	}
	if got := len(cfg.AnchorCells()); got != cfg.Grid.Height {
		t.Errorf("flag pinned %d cells, want the pole column", got)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		sentinel error
	}{
		{"bad yaml", "grid: [", nil},
		{"unknown preset", "grid:\n  preset: tarp\n", cloth.ErrConfiguration},
		{"unknown mode", "sim:\n  mode: quantum\n", cloth.ErrConfiguration},
		{"zero spacing", "grid:\n  spacing: 0\n", cloth.ErrConfiguration},
		{"stiffness above one", "material:\n  stiffness: 1.5\n", cloth.ErrConfiguration},
		{"zero iterations", "sim:\n  iterations: 0\n", cloth.ErrConfiguration},
		{"bad collider", "colliders:\n  - kind: torus\n", cloth.ErrConfiguration},
		{"negative radius", "colliders:\n  - kind: sphere\n    radius: -1\n", cloth.ErrConfiguration},
		{"anchor outside", "anchors:\n  cells: [[99, 0]]\n", cloth.ErrConfiguration},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tc.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.sentinel != nil && !errors.Is(err, tc.sentinel) {
				t.Errorf("expected %v, got %v", tc.sentinel, err)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNewSimulator(t *testing.T) {
	cfg := Defaults()
	sim, err := cfg.NewSimulator()
	if err != nil {
		t.Fatalf("NewSimulator failed: %v", err)
	}
	if sim.ParticleCount() != cfg.Derived.ParticleCount {
		t.Errorf("particles %d, want %d", sim.ParticleCount(), cfg.Derived.ParticleCount)
	}
	if fixed, _ := sim.IsParticleFixed(0); !fixed {
		t.Error("top row should be pinned")
	}
	if len(sim.WindForces()) != len(cfg.Winds) || len(sim.CollisionObjects()) != len(cfg.Colliders) {
		t.Error("winds or colliders missing from the simulator")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Defaults()
	cfg.SetMaterial(cloth.Material{Stiffness: 0.8, BendStiffness: 0.1, Damping: 0.97, Friction: 0.5, Mass: 0.2})
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatal(err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("reloading failed: %v", err)
	}
	if back.Material != cfg.Material {
		t.Errorf("material %+v, want %+v", back.Material, cfg.Material)
	}
	if len(back.Colliders) != len(cfg.Colliders) || back.Grid != cfg.Grid {
		t.Error("written config did not round trip")
	}
}

func TestInitAndCfg(t *testing.T) {
	if err := Init(""); err != nil {
		t.Fatal(err)
	}
	if Cfg().Screen.TargetFPS != 60 {
		t.Errorf("target fps %d", Cfg().Screen.TargetFPS)
	}
}

func TestForBody(t *testing.T) {
	path := writeFile(t, `
bodies:
  - name: banner
    preset: flag
    width: 6
    height: 4
    offset: [2, 0, 0]
  - offset: [-2, 0, 0]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	banner, err := cfg.ForBody(0)
	if err != nil {
		t.Fatal(err)
	}
	if banner.Derived.ClothType != cloth.Flag || banner.Grid.Width != 6 || banner.Derived.ParticleCount != 24 {
		t.Errorf("banner grid %+v derived %+v", banner.Grid, banner.Derived)
	}
	if banner.Grid.Origin[0] != cfg.Grid.Origin[0]+2 {
		t.Errorf("offset not applied: %v", banner.Grid.Origin)
	}
	if len(banner.Bodies) != 0 || len(banner.AnchorCells()) != 4 {
		t.Errorf("banner should pin only its pole column, got %d cells", len(banner.AnchorCells()))
	}
	if cfg.Grid.Origin[0] == banner.Grid.Origin[0] {
		t.Error("ForBody modified the parent config")
	}

	if cfg.BodyName(0) != "banner" || cfg.BodyName(1) != "body2" {
		t.Errorf("names %q %q", cfg.BodyName(0), cfg.BodyName(1))
	}
	if _, err := cfg.ForBody(2); !errors.Is(err, cloth.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}

	if _, err := Load(writeFile(t, "bodies:\n  - preset: tarp\n")); !errors.Is(err, cloth.ErrConfiguration) {
		t.Errorf("bad body preset: %v", err)
	}
}
