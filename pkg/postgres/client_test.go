package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-occupancy/pkg/config"
)

func TestClientNotConnected(t *testing.T) {
	cfg := config.NewConfig()
	c := NewClient(cfg, nil)

	assert.Nil(t, c.DB())
	assert.NoError(t, c.Disconnect())

	status, err := c.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.Equal(t, "not connected", status.Error)
	assert.Equal(t, cfg.PostgresDB, status.Database)
}

func TestClientImplementsInterface(t *testing.T) {
	var _ Client = NewClient(config.NewConfig(), nil)
}
