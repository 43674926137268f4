// Package game runs the cloth scene: an ECS world of cloth bodies, colliders
// and wind sources advanced one frame at a time, with telemetry and frame
// streaming hooked into the loop.
package game

import (
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/drape/cloth"
	"github.com/pthm-cable/drape/components"
	"github.com/pthm-cable/drape/config"
	"github.com/pthm-cable/drape/stream"
	"github.com/pthm-cable/drape/systems"
	"github.com/pthm-cable/drape/telemetry"
)

// FrameSink receives frames for remote viewers. Broadcast must not block.
type FrameSink interface {
	Broadcast(f *stream.Frame) error
}

// Options holds settings that do not come from the config file.
type Options struct {
	OutputDir string // CSV, config and checkpoint output; empty disables
	LogStats  bool   // Log stats windows and bookmarks
	Sink      FrameSink
	Logger    *slog.Logger

	// StatsCallback, when set, receives every flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the complete scene state.
type Game struct {
	cfg    *config.Config
	logger *slog.Logger
	world  *ecs.World

	bodyMap     *ecs.Map1[components.Body]
	bodyFilter  *ecs.Filter1[components.Body]
	colliderMap *ecs.Map1[components.Collider]
	movingMap   *ecs.Map2[components.Collider, components.Motion]
	windMap     *ecs.Map1[components.Wind]

	motion    *systems.MotionSystem
	winds     *systems.WindSystem
	colliders *systems.ColliderSystem

	bodyEntities []ecs.Entity
	windEntities []ecs.Entity

	// Per-frame scratch
	bodies     []*components.Body
	prims      []cloth.CollisionPrimitive
	forces     []cloth.WindForce
	positions  []cloth.Vec3
	frameStats []cloth.Stats
	frameDT    float64

	parallel *parallelState

	// Telemetry
	perfCollector    *telemetry.PerfCollector
	collector        *telemetry.Collector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	statsCallback    func(telemetry.WindowStats)
	logStats         bool
	lastStats        telemetry.WindowStats
	lastBookmarks    []telemetry.Bookmark

	sink      FrameSink
	sendEvery int32

	// State
	tick   int32
	time   float64
	paused bool
	closed bool
}

// Tick returns the number of frames run.
func (g *Game) Tick() int32 { return g.tick }

// Time returns the scene time in seconds.
func (g *Game) Time() float64 { return g.time }

// Config returns the configuration the scene was built from.
func (g *Game) Config() *config.Config { return g.cfg }

// Paused reports whether Update is suspended.
func (g *Game) Paused() bool { return g.paused }

// SetPaused suspends or resumes Update. Step still runs while paused.
func (g *Game) SetPaused(p bool) { g.paused = p }

// TogglePause flips the paused state.
func (g *Game) TogglePause() { g.paused = !g.paused }

// BodyCount returns the number of cloth bodies.
func (g *Game) BodyCount() int { return len(g.bodyEntities) }

// Body returns the i-th body; body 0 is the primary sheet.
func (g *Game) Body(i int) (*components.Body, error) {
	if i < 0 || i >= len(g.bodyEntities) {
		return nil, fmt.Errorf("%w: body %d of %d", cloth.ErrIndexOutOfRange, i, len(g.bodyEntities))
	}
	return g.bodyMap.Get(g.bodyEntities[i]), nil
}

// Primary returns the primary body's simulator.
func (g *Game) Primary() *cloth.Simulator {
	return g.bodyMap.Get(g.bodyEntities[0]).Sim
}

// EachBody calls fn for every body in creation order.
func (g *Game) EachBody(fn func(i int, b *components.Body)) {
	for i, e := range g.bodyEntities {
		fn(i, g.bodyMap.Get(e))
	}
}

// Colliders returns the collision primitives at their current positions.
func (g *Game) Colliders() []cloth.CollisionPrimitive {
	return g.colliders.Collect(nil)
}

// WindCount returns the number of wind sources.
func (g *Game) WindCount() int { return len(g.windEntities) }

// Wind returns wind source i.
func (g *Game) Wind(i int) (*components.Wind, error) {
	if i < 0 || i >= len(g.windEntities) {
		return nil, fmt.Errorf("%w: wind %d of %d", cloth.ErrIndexOutOfRange, i, len(g.windEntities))
	}
	return g.windMap.Get(g.windEntities[i]), nil
}

// SetWindStrength changes the base strength of wind source i.
func (g *Game) SetWindStrength(i int, strength float64) error {
	w, err := g.Wind(i)
	if err != nil {
		return err
	}
	w.Base.Strength = max(0, strength)
	return nil
}

// SetIterations changes the relaxation passes of every body.
func (g *Game) SetIterations(n int) {
	g.EachBody(func(_ int, b *components.Body) { b.Sim.SetIterations(n) })
}

// SetSelfCollision toggles self-collision on every body.
func (g *Game) SetSelfCollision(enable bool) {
	g.EachBody(func(_ int, b *components.Body) { b.Sim.EnableSelfCollision(enable) })
}

// Perf returns the frame timing collector.
func (g *Game) Perf() *telemetry.PerfCollector { return g.perfCollector }

// LastStats returns the most recent stats window and its bookmarks.
func (g *Game) LastStats() (telemetry.WindowStats, []telemetry.Bookmark) {
	return g.lastStats, g.lastBookmarks
}
