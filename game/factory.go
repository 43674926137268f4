package game

import (
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/drape/cloth"
	"github.com/pthm-cable/drape/components"
	"github.com/pthm-cable/drape/config"
	"github.com/pthm-cable/drape/systems"
	"github.com/pthm-cable/drape/telemetry"
)

// bookmarkHistory is the number of stats windows bookmarks compare against.
const bookmarkHistory = 10

// New builds the scene described by cfg: the primary sheet, any extra
// bodies, colliders with their motion and wind sources.
func New(cfg *config.Config, opts Options) (*Game, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	world := ecs.NewWorld()

	g := &Game{
		cfg:         cfg,
		logger:      logger,
		world:       world,
		bodyMap:     ecs.NewMap1[components.Body](world),
		bodyFilter:  ecs.NewFilter1[components.Body](world),
		colliderMap: ecs.NewMap1[components.Collider](world),
		movingMap:   ecs.NewMap2[components.Collider, components.Motion](world),
		windMap:     ecs.NewMap1[components.Wind](world),
		motion:      systems.NewMotionSystem(world),
		winds:       systems.NewWindSystem(world),
		colliders:   systems.NewColliderSystem(world),
		frameDT:     cfg.Derived.FrameDT,

		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		collector:        telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Derived.FrameDT),
		bookmarkDetector: telemetry.NewBookmarkDetector(bookmarkHistory),
		statsCallback:    opts.StatsCallback,
		logStats:         opts.LogStats,
		sink:             opts.Sink,
		sendEvery:        int32(max(1, cfg.Stream.SendEvery)),
	}

	if err := g.spawnBodies(); err != nil {
		return nil, err
	}
	if err := g.spawnColliders(); err != nil {
		return nil, err
	}
	g.spawnWinds()

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		g.shutdownBodies()
		return nil, err
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		g.shutdownBodies()
		return nil, err
	}
	g.outputManager = om

	g.parallel = newParallelState()
	g.logger.Info("scene ready",
		"bodies", len(g.bodyEntities),
		"colliders", len(cfg.Colliders),
		"winds", len(g.windEntities),
		"particles", g.particleCount(),
	)
	return g, nil
}

// spawnBodies creates the primary sheet and one entity per extra body. The
// primary body reports phase timing to the perf collector.
func (g *Game) spawnBodies() error {
	sim, err := g.cfg.NewSimulator()
	if err != nil {
		return fmt.Errorf("primary body: %w", err)
	}
	g.addBody("main", sim, true)

	for i := range g.cfg.Bodies {
		bodyCfg, err := g.cfg.ForBody(i)
		if err != nil {
			g.shutdownBodies()
			return err
		}
		sim, err := bodyCfg.NewSimulator()
		if err != nil {
			g.shutdownBodies()
			return fmt.Errorf("body %s: %w", g.cfg.BodyName(i), err)
		}
		g.addBody(g.cfg.BodyName(i), sim, false)
	}
	return nil
}

func (g *Game) addBody(name string, sim *cloth.Simulator, primary bool) {
	sim.SetLogger(g.logger.With("body", name))
	sim.EnableDebugDraw(true)
	if primary {
		sim.SetObserver(g.perfCollector)
	}
	e := g.bodyMap.NewEntity(&components.Body{Name: name, Sim: sim, Primary: primary})
	g.bodyEntities = append(g.bodyEntities, e)
}

// spawnColliders creates static colliders and kinematic ones with motion.
func (g *Game) spawnColliders() error {
	for i, cc := range g.cfg.Colliders {
		prim, err := cc.Primitive()
		if err != nil {
			g.shutdownBodies()
			return fmt.Errorf("colliders[%d]: %w", i, err)
		}
		col := &components.Collider{Prim: prim}
		if cc.Motion.Amplitude == 0 {
			g.colliderMap.NewEntity(col)
			continue
		}
		g.movingMap.NewEntity(col, &components.Motion{
			Base:      prim.Position,
			Axis:      cc.Motion.Axis.Vec(),
			Amplitude: cc.Motion.Amplitude,
			Frequency: cc.Motion.Frequency,
		})
	}
	return nil
}

func (g *Game) spawnWinds() {
	for _, wc := range g.cfg.Winds {
		force := wc.Force()
		e := g.windMap.NewEntity(&components.Wind{
			Base:           force,
			PulseAmplitude: wc.PulseAmplitude,
			PulseFrequency: wc.PulseFrequency,
			Current:        force,
		})
		g.windEntities = append(g.windEntities, e)
	}
}

func (g *Game) particleCount() int {
	n := 0
	g.EachBody(func(_ int, b *components.Body) { n += b.Sim.ParticleCount() })
	return n
}
