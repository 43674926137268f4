package game

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/pthm-cable/drape/cloth"
	"github.com/pthm-cable/drape/components"
	"github.com/pthm-cable/drape/config"
	"github.com/pthm-cable/drape/stream"
	"github.com/pthm-cable/drape/telemetry"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadConfig(t *testing.T, yaml string) *config.Config {
	t.Helper()
	if yaml == "" {
		return config.Defaults()
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func newGame(t *testing.T, cfg *config.Config, opts Options) *Game {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	g, err := New(cfg, opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

type recordingSink struct {
	frames []*stream.Frame
}

func (s *recordingSink) Broadcast(f *stream.Frame) error {
	s.frames = append(s.frames, f)
	return nil
}

func TestNewFromDefaults(t *testing.T) {
	cfg := config.Defaults()
	g := newGame(t, cfg, Options{})

	if g.BodyCount() != 1 || g.WindCount() != 1 || len(g.Colliders()) != 2 {
		t.Fatalf("bodies %d winds %d colliders %d", g.BodyCount(), g.WindCount(), len(g.Colliders()))
	}
	b, err := g.Body(0)
	if err != nil || !b.Primary || b.Name != "main" {
		t.Fatalf("primary body %+v err %v", b, err)
	}
	if g.Primary().ParticleCount() != cfg.Derived.ParticleCount {
		t.Errorf("particles %d", g.Primary().ParticleCount())
	}
	if _, err := g.Body(1); !errors.Is(err, cloth.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestStepMovesColliders(t *testing.T) {
	g := newGame(t, config.Defaults(), Options{})
	start := g.Colliders()[0].Position

	for i := 0; i < 30; i++ {
		g.Step()
	}
	if g.Tick() != 30 {
		t.Errorf("tick %d, want 30", g.Tick())
	}
	if want := 30 * g.Config().Derived.FrameDT; g.Time() < want-1e-9 || g.Time() > want+1e-9 {
		t.Errorf("time %g, want %g", g.Time(), want)
	}

	var moved bool
	for _, prim := range g.Colliders() {
		if prim.Kind == cloth.Sphere {
			moved = prim.Position.Z != start.Z
		}
	}
	if !moved {
		t.Error("kinematic sphere did not move")
	}
	// Bodies see the moved collider.
	objs := g.Primary().CollisionObjects()
	if len(objs) != 2 || objs[0].Position != g.Colliders()[0].Position {
		t.Errorf("body colliders %+v", objs)
	}
	if g.Primary().Time() <= 0 {
		t.Error("primary body did not advance")
	}
}

func TestBodiesAdvanceIndependently(t *testing.T) {
	cfg := loadConfig(t, `
bodies:
  - {name: left, offset: [3, 0, 0], preset: flag, width: 10, height: 6}
  - {name: twin, offset: [3, 0, 0], preset: flag, width: 10, height: 6}
  - {name: rope, offset: [-3, 0, 0], preset: hair, width: 2, height: 12}
`)
	g := newGame(t, cfg, Options{})
	if g.BodyCount() != 4 {
		t.Fatalf("bodies %d, want 4", g.BodyCount())
	}

	for i := 0; i < 40; i++ {
		g.Step()
	}

	left, _ := g.Body(1)
	twin, _ := g.Body(2)
	if !slices.Equal(left.Sim.Positions(), twin.Sim.Positions()) {
		t.Error("identical bodies diverged")
	}
	g.EachBody(func(i int, b *components.Body) {
		if b.Sim.Time() <= 0 || b.Steps == 0 || b.Broken {
			t.Errorf("body %d (%s) time %g steps %d broken %v", i, b.Name, b.Sim.Time(), b.Steps, b.Broken)
		}
	})
}

func TestPause(t *testing.T) {
	g := newGame(t, config.Defaults(), Options{})
	g.SetPaused(true)
	g.Update()
	if g.Tick() != 0 {
		t.Error("Update ran while paused")
	}
	g.Step()
	g.UpdateHeadless()
	if g.Tick() != 2 {
		t.Errorf("tick %d, want 2", g.Tick())
	}
	g.TogglePause()
	g.Update()
	if g.Paused() || g.Tick() != 3 {
		t.Errorf("paused %v tick %d", g.Paused(), g.Tick())
	}
}

func TestTelemetryWindows(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	var windows []telemetry.WindowStats
	g := newGame(t, config.Defaults(), Options{
		OutputDir:     dir,
		StatsCallback: func(ws telemetry.WindowStats) { windows = append(windows, ws) },
	})

	ticks := g.Config().Derived.StatsTicks
	for i := 0; i < 2*ticks; i++ {
		g.Step()
	}
	if len(windows) != 2 {
		t.Fatalf("got %d windows, want 2", len(windows))
	}
	if windows[0].Frames != ticks || windows[0].Particles != g.Primary().ParticleCount() {
		t.Errorf("window %+v", windows[0])
	}
	if !(windows[0].EnergyMean > 0) {
		t.Error("a moving sheet should report kinetic energy")
	}
	last, _ := g.LastStats()
	if last.WindowEndTick != int32(2*ticks) {
		t.Errorf("last window ends at %d", last.WindowEndTick)
	}

	if err := g.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(strings.TrimSpace(string(data)), "\n"); len(lines) != 3 {
		t.Errorf("telemetry.csv has %d lines, want 3", len(lines))
	}
	for _, name := range []string{"perf.csv", "bookmarks.csv", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}
}

func TestBroadcastEveryN(t *testing.T) {
	sink := &recordingSink{}
	cfg := config.Defaults()
	cfg.Stream.SendEvery = 3
	g := newGame(t, cfg, Options{Sink: sink})

	for i := 0; i < 9; i++ {
		g.Step()
	}
	if len(sink.frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(sink.frames))
	}
	f := sink.frames[2]
	if f.Tick != 9 || len(f.Bodies) != 1 || len(f.Colliders) != 2 {
		t.Errorf("frame tick %d bodies %d colliders %d", f.Tick, len(f.Bodies), len(f.Colliders))
	}
	if got := len(f.Bodies[0].Positions); got != 3*g.Primary().ParticleCount() {
		t.Errorf("positions %d", got)
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	cfg := loadConfig(t, "bodies:\n  - {offset: [3, 0, 0], width: 6, height: 6}\n")
	g := newGame(t, cfg, Options{})
	for i := 0; i < 20; i++ {
		g.Step()
	}
	cp := g.Checkpoint(nil)
	want := g.Primary().Positions()

	for i := 0; i < 20; i++ {
		g.Step()
	}
	if err := g.RestoreCheckpoint(cp); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(g.Primary().Positions(), want) {
		t.Error("restore did not bring back the captured pose")
	}

	cp.Bodies = cp.Bodies[:1]
	if err := g.RestoreCheckpoint(cp); !errors.Is(err, cloth.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for a body count mismatch, got %v", err)
	}
}

func TestSaveLoadPrimary(t *testing.T) {
	g := newGame(t, config.Defaults(), Options{})
	for i := 0; i < 10; i++ {
		g.Step()
	}
	path := filepath.Join(t.TempDir(), "cloth.json")
	if err := g.SavePrimary(path); err != nil {
		t.Fatal(err)
	}
	want := g.Primary().Positions()

	g.Reset()
	if g.Time() != 0 {
		t.Errorf("reset scene time %g", g.Time())
	}
	if err := g.LoadPrimary(path); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(g.Primary().Positions(), want) {
		t.Error("load did not restore the saved pose")
	}
	if err := g.LoadPrimary(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, cloth.ErrIO) {
		t.Errorf("expected ErrIO, got %v", err)
	}
}

func TestControls(t *testing.T) {
	g := newGame(t, config.Defaults(), Options{})
	if err := g.SetWindStrength(0, 4); err != nil {
		t.Fatal(err)
	}
	w, _ := g.Wind(0)
	if w.Base.Strength != 4 {
		t.Errorf("wind strength %g", w.Base.Strength)
	}
	if err := g.SetWindStrength(5, 1); !errors.Is(err, cloth.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	g.SetIterations(3)
	g.SetSelfCollision(true)
	cfg := g.Primary().Config()
	if cfg.Iterations != 3 || !cfg.SelfCollision {
		t.Errorf("settings not applied: %+v", cfg)
	}
}

func TestRun(t *testing.T) {
	g := newGame(t, config.Defaults(), Options{})
	if err := g.Run(context.Background(), 12); err != nil {
		t.Fatal(err)
	}
	if g.Tick() != 12 {
		t.Errorf("tick %d, want 12", g.Tick())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := g.Run(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	g := newGame(t, config.Defaults(), Options{})
	g.Step()
	if err := g.Close(); err != nil {
		t.Fatal(err)
	}
	if err := g.Close(); err != nil {
		t.Fatal(err)
	}
	g.Step()
	if g.Tick() != 1 {
		t.Error("Step ran after Close")
	}
}
