package mqtt

import (
	"encoding/json"
	"fmt"
)

// PublishJSON marshals v and publishes it with QoS 1
func PublishJSON(c Client, topic string, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message for %s: %w", topic, err)
	}
	return c.Publish(topic, 1, retained, payload)
}
