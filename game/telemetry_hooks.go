package game

import (
	"fmt"

	"github.com/pthm-cable/drape/cloth"
	"github.com/pthm-cable/drape/components"
	"github.com/pthm-cable/drape/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick)
	perfStats := g.perfCollector.Stats()
	g.lastStats = stats

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			g.logger.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			g.logger.Error("failed to write perf", "error", err)
		}
	}

	g.lastBookmarks = g.bookmarkDetector.Check(stats)
	for i := range g.lastBookmarks {
		bm := &g.lastBookmarks[i]
		if g.logStats {
			bm.LogBookmark()
		}
		if g.outputManager != nil {
			if err := g.outputManager.WriteBookmark(*bm); err != nil {
				g.logger.Error("failed to write bookmark", "error", err)
			}
			g.saveCheckpoint(bm)
		}
	}
}

// saveCheckpoint writes every body's state into the run's checkpoint directory.
func (g *Game) saveCheckpoint(bookmark *telemetry.Bookmark) {
	path, err := telemetry.SaveCheckpoint(g.Checkpoint(bookmark), g.outputManager.CheckpointDir())
	if err != nil {
		g.logger.Error("failed to save checkpoint", "error", err)
		return
	}
	g.logger.Info("checkpoint saved", "path", path, "tick", g.tick)
}

// Checkpoint captures every body at the current tick.
func (g *Game) Checkpoint(bookmark *telemetry.Bookmark) *telemetry.Checkpoint {
	cp := &telemetry.Checkpoint{Tick: g.tick, Bookmark: bookmark}
	g.EachBody(func(_ int, b *components.Body) {
		cp.Bodies = append(cp.Bodies, b.Sim.Capture())
	})
	return cp
}

// RestoreCheckpoint restores every body from cp. The body count must match;
// on error no body is changed.
func (g *Game) RestoreCheckpoint(cp *telemetry.Checkpoint) error {
	if len(cp.Bodies) != len(g.bodyEntities) {
		return fmt.Errorf("%w: checkpoint has %d bodies, scene has %d", cloth.ErrConfiguration, len(cp.Bodies), len(g.bodyEntities))
	}
	for _, snap := range cp.Bodies {
		if err := snap.Validate(); err != nil {
			return err
		}
	}
	var err error
	g.EachBody(func(i int, b *components.Body) {
		if err == nil {
			err = b.Sim.Restore(cp.Bodies[i])
			b.Broken = false
		}
	})
	return err
}
