package light

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/saaga0h/jeeves-occupancy/pkg/mqtt"
)

// Command is the payload published for a light
type Command struct {
	Action      Action  `json:"action"`
	Room        string  `json:"room"`
	Probability float64 `json:"probability"`
	Threshold   float64 `json:"threshold"`
	Evidence    bool    `json:"evidence"`
	TimeOfDay   string  `json:"time_of_day"`
}

// CommandPublisher publishes light commands over MQTT. A light's command is
// only sent when its action differs from the last one published.
type CommandPublisher struct {
	client    mqtt.Client
	threshold float64
	logger    *slog.Logger

	mu   sync.Mutex
	last map[string]Action
}

// NewCommandPublisher creates a publisher for decisions taken at the given threshold
func NewCommandPublisher(client mqtt.Client, threshold float64, logger *slog.Logger) *CommandPublisher {
	return &CommandPublisher{
		client:    client,
		threshold: threshold,
		logger:    logger,
		last:      make(map[string]Action),
	}
}

// Publish sends the changed commands of one timestep and returns how many were sent
func (p *CommandPublisher) Publish(decisions []Decision) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sent := 0
	for _, d := range decisions {
		if prev, ok := p.last[d.Light]; ok && prev == d.Action {
			continue
		}

		cmd := Command{
			Action:      d.Action,
			Room:        string(d.Room),
			Probability: d.Final,
			Threshold:   p.threshold,
			Evidence:    d.HasEvidence,
			TimeOfDay:   d.Slot.String(),
		}
		topic := mqtt.LightCommandTopic(d.Light)
		if err := mqtt.PublishJSON(p.client, topic, false, cmd); err != nil {
			return sent, fmt.Errorf("failed to publish command for %s: %w", d.Light, err)
		}

		p.last[d.Light] = d.Action
		sent++
		p.logger.Debug("Published light command",
			"light", d.Light,
			"action", d.Action,
			"probability", d.Final)
	}
	return sent, nil
}
