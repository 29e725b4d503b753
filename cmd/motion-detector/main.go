package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/nvr-ai/go-motion/capture"
	"github.com/nvr-ai/go-motion/config"
	"github.com/nvr-ai/go-motion/pipeline"
	"github.com/nvr-ai/go-motion/profiler"
)

const windowTitle = "frame"

func main() {
	cfg, err := config.Load(os.Args[1:], ".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "motion-detector: %v\n", err)
		os.Exit(2)
	}

	logger := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      cfg.LogLevel,
			TimeFormat: "15:04:05",
		}),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("motion detector failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	opts := profiler.Options{ReportInterval: cfg.ReportInterval}
	if cfg.ReportInterval == 0 {
		opts.ReportInterval = time.Duration(math.MaxInt64)
	}

	driver, err := pipeline.NewDriver(pipeline.Options{
		Parameters:   cfg.Motion,
		DisplayWidth: cfg.DisplayWidth,
		Logger:       logger,
		Profiler:     profiler.New(opts),
	})
	if err != nil {
		return err
	}
	defer driver.Close()

	var renderer pipeline.Renderer = pipeline.NopRenderer{}
	if cfg.ShowWindow {
		window := pipeline.NewWindowRenderer(windowTitle, cfg.QuitKey)
		defer window.Close()
		renderer = window
	}

	logger.Info("starting motion detector",
		slog.String("source", cfg.Source()),
		slog.Bool("show_window", cfg.ShowWindow),
		slog.String("quit_key", string(cfg.QuitKey)),
	)

	err = driver.Run(ctx, opener(cfg), renderer)
	if cfg.ReportInterval > 0 {
		driver.Profiler().Report(logger)
	}
	return err
}

func opener(cfg config.Config) capture.Opener {
	return func() (capture.Source, error) {
		switch {
		case cfg.VideoPath != "":
			return capture.OpenVideo(cfg.VideoPath)
		case cfg.ImageDir != "":
			return capture.OpenDirectory(cfg.ImageDir)
		default:
			return capture.OpenDevice(cfg.DeviceID)
		}
	}
}
