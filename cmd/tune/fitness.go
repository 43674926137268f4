package main

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/drape/config"
	"github.com/pthm-cable/drape/game"
	"github.com/pthm-cable/drape/telemetry"
)

// Objective weights.
const (
	stretchWeight = 2.0  // Per unit of max stretch
	energyWeight  = 50.0 // Per joule of residual kinetic energy per particle
	failedFitness = 1e6  // Runs that fail to build or go non-finite
)

// Result describes one evaluated parameter set.
type Result struct {
	Drop       float64 // Distance from the anchors to the lowest particle
	MaxStretch float64
	Energy     float64 // Kinetic energy per particle in the last window
	Fitness    float64
}

// FitnessEvaluator runs a windless headless scene and scores how close the
// sheet settles to the target drop while staying unstretched and at rest.
type FitnessEvaluator struct {
	params     *ParamVector
	baseConfig *config.Config
	ticks      int32
	targetDrop float64
	logger     *slog.Logger

	mu   sync.Mutex
	last Result
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, baseCfg *config.Config, ticks int32, targetDrop float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		baseConfig: baseCfg,
		ticks:      ticks,
		targetDrop: targetDrop,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Last returns the result of the most recent evaluation.
func (fe *FitnessEvaluator) Last() Result {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}

// Evaluate runs the scene with raw parameter values and returns the fitness
// to minimize.
func (fe *FitnessEvaluator) Evaluate(raw []float64) float64 {
	res := fe.run(raw)
	fe.mu.Lock()
	fe.last = res
	fe.mu.Unlock()
	return res.Fitness
}

func (fe *FitnessEvaluator) run(raw []float64) Result {
	cfg := *fe.baseConfig
	cfg.Winds = nil
	fe.params.ApplyToConfig(&cfg, raw)

	var windows []telemetry.WindowStats
	g, err := game.New(&cfg, game.Options{
		Logger:        fe.logger,
		StatsCallback: func(ws telemetry.WindowStats) { windows = append(windows, ws) },
	})
	if err != nil {
		return Result{Fitness: failedFitness}
	}
	defer g.Close()

	if err := g.Run(context.Background(), fe.ticks); err != nil || len(windows) == 0 {
		return Result{Fitness: failedFitness}
	}
	if b, _ := g.Body(0); b.Broken {
		return Result{Fitness: failedFitness}
	}

	last := windows[len(windows)-1]
	maxStretch := 0.0
	// Only the settled second half counts toward stretch.
	for _, ws := range windows[len(windows)/2:] {
		maxStretch = math.Max(maxStretch, ws.MaxStretch)
	}
	energy := 0.0
	if last.Particles > 0 {
		energy = last.EnergyLast / float64(last.Particles)
	}
	drop := cfg.Grid.Origin[1] - last.LowestY

	res := Result{Drop: drop, MaxStretch: maxStretch, Energy: energy}
	res.Fitness = Score(drop, fe.targetDrop, maxStretch, energy)
	return res
}

// Score combines the relative drop error with penalties for stretch and
// residual motion. Non-finite inputs score as failures.
func Score(drop, target, maxStretch, energy float64) float64 {
	for _, v := range []float64{drop, maxStretch, energy} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return failedFitness
		}
	}
	rel := drop - target
	if target > 0 {
		rel /= target
	}
	return rel*rel + stretchWeight*maxStretch + energyWeight*energy
}
