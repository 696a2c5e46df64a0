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
	"github.com/saaga0h/jeeves-occupancy/internal/light"
	"github.com/saaga0h/jeeves-occupancy/internal/search"
	"github.com/saaga0h/jeeves-occupancy/internal/simulator"
	"github.com/saaga0h/jeeves-occupancy/pkg/building"
	"github.com/saaga0h/jeeves-occupancy/pkg/config"
	"github.com/saaga0h/jeeves-occupancy/pkg/mqtt"
)

func main() {
	// Load configuration with hierarchy: defaults → env → flags
	cfg := config.NewConfig()
	cfg.ServiceName = "occupancy-replay"
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

	logger.Info("Starting occupancy replay",
		"service_name", cfg.ServiceName,
		"data_files", cfg.DataFiles,
		"publish_actions", cfg.PublishActions,
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
		logger.Error("Replay failed", "error", err)
		os.Exit(1)
	}
}

// publishingPolicy sends every timestep's changed commands before they are priced
type publishingPolicy struct {
	policy    *light.Policy
	publisher *light.CommandPublisher
}

func (p *publishingPolicy) Decide(rec *dataset.Record) (light.Actions, error) {
	decisions, err := p.policy.Evaluate(rec)
	if err != nil {
		return nil, err
	}
	if _, err := p.publisher.Publish(decisions); err != nil {
		return nil, err
	}
	return light.ActionsOf(decisions), nil
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

	weights, err := replayWeights(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if err := weights.Validate(); err != nil {
		logger.Warn("Replaying with an uncalibrated configuration", "error", err)
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

	sim := simulator.NewReplay(records, simulator.CostModel{
		LightOnCost:            cfg.LightOnCost,
		MissedOccupancyPenalty: cfg.MissedOccupancyPenalty,
	})
	policy := light.NewPolicy(params, layout, window, weights, logger)

	var decider simulator.Decider = policy
	if cfg.PublishActions {
		client := mqtt.NewClient(cfg, logger)
		connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
		defer connectCancel()
		if err := client.Connect(connectCtx); err != nil {
			return err
		}
		defer client.Disconnect()

		decider = &publishingPolicy{
			policy:    policy,
			publisher: light.NewCommandPublisher(client, policy.Weights().Threshold, logger),
		}
	}

	out, err := simulator.Run(ctx, sim, decider)
	if err != nil {
		return err
	}

	logger.Info("Replay completed",
		"weights", policy.Weights().String(),
		"steps", out.Steps,
		"total_cost", out.Cost)
	fmt.Printf("Total cost: %g cents over %d timesteps\n", out.Cost, out.Steps)
	return nil
}

// replayWeights returns the configured weights, or the best weights of the
// latest stored search run when requested
func replayWeights(ctx context.Context, cfg *config.Config, logger *slog.Logger) (light.WeightConfiguration, error) {
	if !cfg.UseStoredBest {
		return light.WeightConfiguration{
			DBNPriorWeight:       cfg.DBNPriorWeight,
			FinalPriorWeight:     cfg.FinalPriorWeight,
			FinalPredictedWeight: cfg.FinalPredictedWeight,
			FinalPosteriorWeight: cfg.FinalPosteriorWeight,
			Threshold:            cfg.Threshold,
		}, nil
	}

	results, closeResults, err := search.OpenResultStore(ctx, cfg, logger)
	if err != nil {
		return light.WeightConfiguration{}, err
	}
	defer closeResults()

	best, err := results.LatestBest(ctx)
	if err != nil {
		return light.WeightConfiguration{}, err
	}
	logger.Info("Using stored search result", "run_id", best.RunID, "cost", best.Cost)
	return best.Weights, nil
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
