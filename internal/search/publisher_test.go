package search

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-occupancy/pkg/mqtt"
)

type fakeMQTT struct {
	topic    string
	retained bool
	payload  []byte
}

func (f *fakeMQTT) Connect(ctx context.Context) error { return nil }
func (f *fakeMQTT) Disconnect()                       {}
func (f *fakeMQTT) IsConnected() bool                 { return true }

func (f *fakeMQTT) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.topic = topic
	f.retained = retained
	f.payload = payload
	return nil
}

func TestPublishBest(t *testing.T) {
	client := &fakeMQTT{}
	r := sampleResult(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), 95.5)

	require.NoError(t, NewPublisher(client, testLogger()).PublishBest(r))
	assert.Equal(t, mqtt.TopicSearchBest, client.topic)
	assert.True(t, client.retained)

	var msg BestMessage
	require.NoError(t, json.Unmarshal(client.payload, &msg))
	assert.Equal(t, r.RunID.String(), msg.RunID)
	assert.Equal(t, r.Best, msg.Weights)
	assert.Equal(t, 95.5, msg.Cost)
	assert.Equal(t, "2026-03-02T12:00:00Z", msg.CompletedAt)
}
