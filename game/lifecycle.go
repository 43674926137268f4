package game

import (
	"context"
	"fmt"

	"github.com/pthm-cable/drape/components"
)

// Reset returns every body to its rest layout and the scene clock to zero.
// Frozen bodies are thawed.
func (g *Game) Reset() {
	g.time = 0
	g.EachBody(func(_ int, b *components.Body) {
		b.Sim.Reset()
		b.Broken = false
		b.Steps = 0
	})
	g.motion.Update(0)
	g.winds.Update(0)
	g.logger.Info("scene reset", "tick", g.tick)
}

// SavePrimary writes the primary body to path in the cloth snapshot format.
func (g *Game) SavePrimary(path string) error {
	if err := g.Primary().SaveToFile(path); err != nil {
		return err
	}
	g.logger.Info("cloth saved", "path", path, "tick", g.tick)
	return nil
}

// LoadPrimary replaces the primary body's state with the snapshot at path.
func (g *Game) LoadPrimary(path string) error {
	if err := g.Primary().LoadFromFile(path); err != nil {
		return err
	}
	g.bodyMap.Get(g.bodyEntities[0]).Broken = false
	g.logger.Info("cloth loaded", "path", path)
	return nil
}

// Run steps the scene headlessly until ctx is done or maxTicks frames have
// run (0 means no limit).
func (g *Game) Run(ctx context.Context, maxTicks int32) error {
	for maxTicks <= 0 || g.tick < maxTicks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		g.UpdateHeadless()
	}
	return nil
}

// Close stops the workers, closes telemetry output and releases every body.
// Calling Close twice is safe.
func (g *Game) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	g.stopParallelWorkers()
	g.shutdownBodies()
	if err := g.outputManager.Close(); err != nil {
		return fmt.Errorf("closing telemetry output: %w", err)
	}
	return nil
}

func (g *Game) shutdownBodies() {
	for _, e := range g.bodyEntities {
		g.bodyMap.Get(e).Sim.Shutdown()
	}
}
