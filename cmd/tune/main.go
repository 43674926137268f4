// Package main searches for cloth material parameters that make the sheet
// settle to a target drop with minimal stretch, using Nelder-Mead.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/drape/config"
)

// EvalRecord is one row of tune_log.csv.
type EvalRecord struct {
	Eval          int     `csv:"eval"`
	Fitness       float64 `csv:"fitness"`
	Stiffness     float64 `csv:"stiffness"`
	BendStiffness float64 `csv:"bend_stiffness"`
	Damping       float64 `csv:"damping"`
	Drop          float64 `csv:"drop"`
	MaxStretch    float64 `csv:"max_stretch"`
	Energy        float64 `csv:"energy_per_particle"`
}

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	seconds := flag.Float64("seconds", 6, "Simulated seconds per evaluation")
	targetDrop := flag.Float64("target-drop", 0, "Target distance from anchors to lowest particle in meters (0 = rest length)")
	maxEvals := flag.Int("max-evals", 120, "Maximum number of evaluations")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if *outputDir == "" {
		fatal("missing flag", fmt.Errorf("--output is required"))
	}
	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fatal("failed to create output directory", err)
	}

	if err := config.Init(*configPath); err != nil {
		fatal("failed to load config", err)
	}
	baseCfg := config.Cfg()

	target := *targetDrop
	if target <= 0 {
		target = float64(baseCfg.Grid.Height-1) * baseCfg.Grid.Spacing
	}
	ticks := int32(*seconds / baseCfg.Derived.FrameDT)

	params := NewParamVector()
	evaluator := NewFitnessEvaluator(params, baseCfg, ticks, target)

	logPath := filepath.Join(*outputDir, "tune_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		fatal("failed to create log file", err)
	}
	defer logFile.Close()

	evalCount := 0
	bestFitness := failedFitness
	bestParams := params.FromConfig(baseCfg)
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(raw)
			res := evaluator.Last()
			evalCount++
			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = raw
			}

			rec := []EvalRecord{{
				Eval: evalCount, Fitness: fitness,
				Stiffness: raw[0], BendStiffness: raw[1], Damping: raw[2],
				Drop: res.Drop, MaxStretch: res.MaxStretch, Energy: res.Energy,
			}}
			if evalCount == 1 {
				err = gocsv.Marshal(rec, logFile)
			} else {
				err = gocsv.MarshalWithoutHeaders(rec, logFile)
			}
			if err != nil {
				slog.Error("failed to write tune log", "error", err)
			}

			elapsed := time.Since(startTime)
			remaining := time.Duration(*maxEvals-evalCount) * (elapsed / time.Duration(evalCount))
			fmt.Printf("Eval %d/%d: drop=%.3f stretch=%.3f fitness=%.5f (best=%.5f) | elapsed: %s, ETA: %s\n",
				evalCount, *maxEvals, res.Drop, res.MaxStretch, fitness, bestFitness,
				formatDuration(elapsed), formatDuration(remaining))
			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0,
	}
	method := &optimize.NelderMead{}

	fmt.Printf("Starting Nelder-Mead with %d parameters, max_evals=%d, target drop %.3f m, %d ticks per run\n",
		params.Dim(), *maxEvals, target, ticks)

	if _, err := optimize.Minimize(problem, params.Normalize(bestParams), settings, method); err != nil {
		slog.Warn("optimization ended", "error", err)
	}

	fmt.Printf("\nTuning complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best fitness: %.5f\n", bestFitness)
	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Path, bestParams[i])
	}

	bestCfg, err := config.Load(*configPath)
	if err != nil {
		fatal("failed to reload config", err)
	}
	params.ApplyToConfig(bestCfg, bestParams)

	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		fatal("failed to write best config", err)
	}
	fmt.Printf("\nBest config saved to: %s\n", configOutPath)
}
