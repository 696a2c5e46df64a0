package search

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/saaga0h/jeeves-occupancy/internal/light"
	"github.com/saaga0h/jeeves-occupancy/pkg/mqtt"
)

// BestMessage is the retained announcement of a search's best configuration
type BestMessage struct {
	RunID       string                    `json:"run_id"`
	Weights     light.WeightConfiguration `json:"weights"`
	Cost        float64                   `json:"cost"`
	Evaluated   int                       `json:"evaluated"`
	Skipped     int                       `json:"skipped"`
	CompletedAt string                    `json:"completed_at"`
}

// Publisher announces search results over MQTT
type Publisher struct {
	client mqtt.Client
	logger *slog.Logger
}

// NewPublisher creates a result publisher
func NewPublisher(client mqtt.Client, logger *slog.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: logger,
	}
}

// PublishBest publishes the best configuration as a retained message
func (p *Publisher) PublishBest(r *Result) error {
	msg := BestMessage{
		RunID:       r.RunID.String(),
		Weights:     r.Best,
		Cost:        r.BestCost,
		Evaluated:   r.Evaluated,
		Skipped:     r.Skipped,
		CompletedAt: r.CompletedAt.UTC().Format(time.RFC3339),
	}
	if err := mqtt.PublishJSON(p.client, mqtt.TopicSearchBest, true, msg); err != nil {
		return fmt.Errorf("failed to publish search result: %w", err)
	}

	p.logger.Info("Published best configuration",
		"topic", mqtt.TopicSearchBest,
		"run_id", msg.RunID,
		"cost", msg.Cost)
	return nil
}
