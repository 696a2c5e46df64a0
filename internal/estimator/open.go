package estimator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saaga0h/jeeves-occupancy/pkg/config"
	"github.com/saaga0h/jeeves-occupancy/pkg/redis"
)

// OpenStore returns the parameter store selected by the configuration and a
// function releasing its connection.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, func() error, error) {
	switch cfg.ParamsSource {
	case "file":
		return NewFileStore(cfg.ParamsDir, logger), func() error { return nil }, nil
	case "redis":
		client := redis.NewClient(cfg, logger)
		if err := client.Ping(ctx); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddress(), err)
		}
		return NewRedisStore(client, logger), client.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown params source %q", cfg.ParamsSource)
}
