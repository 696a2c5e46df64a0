package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type recordingClient struct {
	messages []published
	err      error
}

func (r *recordingClient) Connect(ctx context.Context) error { return nil }
func (r *recordingClient) Disconnect()                       {}
func (r *recordingClient) IsConnected() bool                 { return true }

func (r *recordingClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, published{topic, qos, retained, payload})
	return nil
}

func TestLightCommandTopic(t *testing.T) {
	assert.Equal(t, "automation/command/light/lights12", LightCommandTopic("lights12"))
}

func TestPublishJSON(t *testing.T) {
	c := &recordingClient{}
	require.NoError(t, PublishJSON(c, TopicSearchBest, true, map[string]float64{"threshold": 0.2}))

	require.Len(t, c.messages, 1)
	msg := c.messages[0]
	assert.Equal(t, TopicSearchBest, msg.topic)
	assert.Equal(t, byte(1), msg.qos)
	assert.True(t, msg.retained)

	var got map[string]float64
	require.NoError(t, json.Unmarshal(msg.payload, &got))
	assert.Equal(t, 0.2, got["threshold"])
}

func TestPublishJSONErrors(t *testing.T) {
	c := &recordingClient{err: errors.New("broker gone")}
	err := PublishJSON(c, "t", false, struct{}{})
	assert.ErrorContains(t, err, "broker gone")

	err = PublishJSON(&recordingClient{}, "t", false, make(chan int))
	assert.ErrorContains(t, err, "marshal")
}
