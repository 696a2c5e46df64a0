package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/saaga0h/jeeves-occupancy/internal/dataset"
	"github.com/saaga0h/jeeves-occupancy/internal/estimator"
	"github.com/saaga0h/jeeves-occupancy/pkg/building"
	"github.com/saaga0h/jeeves-occupancy/pkg/config"
)

func main() {
	// Load configuration with hierarchy: defaults → env → flags
	cfg := config.NewConfig()
	cfg.ServiceName = "occupancy-train"
	cfg.LoadFromEnv()
	cfg.LoadFromFlags()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("Starting occupancy parameter training",
		"service_name", cfg.ServiceName,
		"data_files", cfg.DataFiles,
		"params_source", cfg.ParamsSource,
		"log_level", cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			logger.Info("Shutdown signal received (SIGTERM/SIGINT)")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Training failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	layout, err := loadLayout(cfg.LayoutFile)
	if err != nil {
		return err
	}
	window, err := building.ParseWindow(cfg.WindowStart, cfg.WindowEnd)
	if err != nil {
		return err
	}

	records, err := dataset.NewParser(layout, logger).LoadFiles(cfg.DataFiles...)
	if err != nil {
		return err
	}

	params, err := estimator.NewEstimator(layout, window, logger).Train(records)
	if err != nil {
		return err
	}

	if err := estimator.WriteSummary(os.Stdout, params); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	store, closeStore, err := estimator.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.Save(ctx, params); err != nil {
		return err
	}

	logger.Info("Learned parameters saved", "params_source", cfg.ParamsSource)
	return nil
}

func loadLayout(path string) (*building.Layout, error) {
	if path == "" {
		return building.DefaultLayout(), nil
	}
	return building.LoadLayout(path)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
