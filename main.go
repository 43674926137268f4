package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/drape/config"
	"github.com/pthm-cable/drape/game"
	"github.com/pthm-cable/drape/stream"
	"github.com/pthm-cable/drape/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config record and checkpoints")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	loadPath := flag.String("load", "", "Cloth snapshot to load into the main body at startup")
	checkpointPath := flag.String("checkpoint", "", "Scene checkpoint to restore at startup")
	savePath := flag.String("save", "", "Write the main body's snapshot here on exit (and on S in the viewer)")
	streamAddr := flag.String("stream", "", "Listen address for the websocket frame stream (overrides config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *streamAddr != "" {
		cfg.Stream.Addr = *streamAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := game.Options{
		OutputDir: *outputDir,
		LogStats:  *logStats,
		Logger:    logger,
	}

	var hub *stream.Hub
	if cfg.Stream.Addr != "" {
		hub = stream.NewHub(logger.With("component", "stream"))
		opts.Sink = hub
		go func() {
			if err := hub.Serve(ctx, cfg.Stream.Addr); err != nil {
				slog.Error("stream server failed", "error", err)
			}
		}()
	}

	if err := run(ctx, cfg, opts, hub, *headless, int32(*maxTicks), *loadPath, *checkpointPath, *savePath); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts game.Options, hub *stream.Hub, headless bool, maxTicks int32, loadPath, checkpointPath, savePath string) error {
	if !headless {
		// The window must exist before anything uploads to the GPU.
		rl.SetConfigFlags(rl.FlagMsaa4xHint | rl.FlagWindowResizable)
		rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), cfg.Screen.Title)
		defer rl.CloseWindow()
		rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))
	}

	g, err := game.New(cfg, opts)
	if err != nil {
		return err
	}
	defer g.Close()

	if checkpointPath != "" {
		cp, err := telemetry.LoadCheckpoint(checkpointPath)
		if err != nil {
			return err
		}
		if err := g.RestoreCheckpoint(cp); err != nil {
			return err
		}
	}
	if loadPath != "" {
		if err := g.LoadPrimary(loadPath); err != nil {
			return err
		}
	}

	if headless {
		slog.Info("starting headless simulation",
			"max_ticks", maxTicks,
			"bodies", g.BodyCount(),
			"stream", cfg.Stream.Addr,
		)
		err = g.Run(ctx, maxTicks)
		if errors.Is(err, context.Canceled) {
			slog.Info("interrupted", "tick", g.Tick())
			err = nil
		} else if err == nil {
			slog.Info("max ticks reached", "tick", g.Tick())
		}
	} else {
		v := newViewer(g, hub, savePath)
		for !rl.WindowShouldClose() && ctx.Err() == nil {
			v.Update()
			v.Draw()

			if maxTicks > 0 && g.Tick() >= maxTicks {
				break
			}
		}
	}
	if err != nil {
		return err
	}

	if savePath != "" {
		return g.SavePrimary(savePath)
	}
	return nil
}
