package game

import (
	"github.com/pthm-cable/drape/components"
	"github.com/pthm-cable/drape/stream"
	"github.com/pthm-cable/drape/telemetry"
)

// Update runs one frame unless the scene is paused.
func (g *Game) Update() {
	if g.paused {
		return
	}
	g.Step()
}

// UpdateHeadless runs one frame for headless mode, ignoring pause.
func (g *Game) UpdateHeadless() {
	g.Step()
}

// Step advances the scene by one frame of the configured frame time:
// colliders move and winds pulse, every body receives a copy of the colliders
// and current winds and is updated, then frames are streamed and telemetry
// windows flushed.
func (g *Game) Step() {
	if g.closed {
		return
	}
	dt := g.frameDT
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseScene)
	g.time += dt
	g.motion.Update(g.time)
	g.winds.Update(g.time)
	g.prims = g.colliders.Collect(g.prims[:0])
	g.forces = g.winds.Collect(g.forces[:0])
	g.collectBodies()
	for _, b := range g.bodies {
		b.Sim.SetWindForces(g.forces)
		if err := b.Sim.SetCollisionObjects(g.prims); err != nil {
			g.logger.Error("rejected colliders", "body", b.Name, "error", err)
		}
	}

	g.updateBodies(dt)
	g.tick++
	g.reportBroken()

	g.perfCollector.StartPhase(telemetry.PhaseStream)
	g.broadcast()

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.recordStats()
	g.flushTelemetry()

	g.perfCollector.EndTick()
}

// collectBodies refreshes the per-frame body list. Component pointers are
// valid until the world changes structurally, which never happens mid-frame.
func (g *Game) collectBodies() {
	g.bodies = g.bodies[:0]
	query := g.bodyFilter.Query()
	for query.Next() {
		g.bodies = append(g.bodies, query.Get())
	}
}

func (g *Game) reportBroken() {
	for _, b := range g.bodies {
		if b.Broken && b.Steps > 0 {
			g.logger.Error("body went non-finite and was frozen", "body", b.Name, "tick", g.tick)
			b.Steps = 0
		}
	}
}

// recordStats adds the frame to the stats window, counting only bodies that
// stepped this frame.
func (g *Game) recordStats() {
	g.frameStats = g.frameStats[:0]
	for _, b := range g.bodies {
		if b.Steps > 0 {
			g.frameStats = append(g.frameStats, b.Sim.Stats())
		}
	}
	g.collector.Record(g.frameStats...)
}

// broadcast sends a frame to the sink every sendEvery ticks.
func (g *Game) broadcast() {
	if g.sink == nil || g.tick%g.sendEvery != 0 {
		return
	}
	if err := g.sink.Broadcast(g.Frame()); err != nil {
		g.logger.Warn("frame broadcast failed", "error", err)
	}
}

// Frame builds the viewer frame for the current state.
func (g *Game) Frame() *stream.Frame {
	f := &stream.Frame{Tick: g.tick, Time: g.time, Colliders: g.colliders.Collect(nil)}
	g.EachBody(func(_ int, b *components.Body) {
		g.positions = b.Sim.PositionsInto(g.positions[:0])
		f.Bodies = append(f.Bodies, stream.NewBodyFrame(b.Name, b.Sim.Width(), b.Sim.Height(), g.positions))
	})
	return f
}
