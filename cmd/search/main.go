package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saaga0h/jeeves-occupancy/internal/dataset"
	"github.com/saaga0h/jeeves-occupancy/internal/estimator"
	"github.com/saaga0h/jeeves-occupancy/internal/search"
	"github.com/saaga0h/jeeves-occupancy/internal/simulator"
	"github.com/saaga0h/jeeves-occupancy/pkg/building"
	"github.com/saaga0h/jeeves-occupancy/pkg/config"
	"github.com/saaga0h/jeeves-occupancy/pkg/mqtt"
)

func main() {
	// Load configuration with hierarchy: defaults → env → flags
	cfg := config.NewConfig()
	cfg.ServiceName = "occupancy-search"
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

	logger.Info("Starting occupancy parameter search",
		"service_name", cfg.ServiceName,
		"data_files", cfg.DataFiles,
		"grid_file", cfg.GridFile,
		"workers", cfg.SearchWorkers,
		"results_backend", cfg.ResultsBackend,
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
		logger.Error("Search failed", "error", err)
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

	grid := search.DefaultGrid()
	if cfg.GridFile != "" {
		if grid, err = search.LoadGrid(cfg.GridFile); err != nil {
			return err
		}
	}

	store, closeStore, err := estimator.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	params, err := store.Load(ctx)
	closeStore()
	if err != nil {
		return err
	}

	records, err := dataset.NewParser(layout, logger).LoadFiles(cfg.DataFiles...)
	if err != nil {
		return err
	}

	cost := simulator.CostModel{
		LightOnCost:            cfg.LightOnCost,
		MissedOccupancyPenalty: cfg.MissedOccupancyPenalty,
	}
	policyLogger := logger.With("component", "policy")
	driver := search.NewDriver(grid,
		simulator.ReplayFactory(records, cost),
		search.NewPolicyFactory(params, layout, window, policyLogger),
		search.Options{Workers: cfg.SearchWorkers, ProgressEvery: cfg.ProgressEvery},
		logger)

	result, err := driver.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Best parameters: %s\n", result.Best)
	fmt.Printf("Best cost: %g cents\n", result.BestCost)
	fmt.Printf("Cost spread: mean %.1f (sd %.1f), median %g, worst %g cents\n",
		result.Costs.Mean, result.Costs.StdDev, result.Costs.Median, result.Costs.Worst)

	if cfg.ResultsBackend != "" {
		results, closeResults, err := search.OpenResultStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeResults()
		if err := results.Save(ctx, result); err != nil {
			return err
		}
	}

	if cfg.PublishResults {
		client := mqtt.NewClient(cfg, logger)
		connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
		defer connectCancel()
		if err := client.Connect(connectCtx); err != nil {
			return err
		}
		defer client.Disconnect()

		if err := search.NewPublisher(client, logger).PublishBest(result); err != nil {
			return err
		}
	}

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
