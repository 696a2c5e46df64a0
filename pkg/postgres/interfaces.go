package postgres

import (
	"context"
	"database/sql"
)

// Client represents a PostgreSQL connection used by the search result store
type Client interface {
	// Connect opens the pool and verifies the database is reachable
	Connect(ctx context.Context) error

	// Disconnect closes the pool
	Disconnect() error

	// DB returns the pool, nil before Connect
	DB() *sql.DB

	// HealthCheck reports connectivity and the server version
	HealthCheck(ctx context.Context) (*HealthStatus, error)
}
