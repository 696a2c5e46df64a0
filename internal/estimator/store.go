package estimator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/saaga0h/jeeves-occupancy/pkg/redis"
)

// Persisted table names. FileStore appends ".json".
const (
	TablePriors      = "priors"
	TableReliability = "sensor_reliability"
	TableTransitions = "transition_probs"
)

var tables = []string{TablePriors, TableReliability, TableTransitions}

// Store persists learned parameters
type Store interface {
	Save(ctx context.Context, params *Params) error
	Load(ctx context.Context) (*Params, error)
}

// Encode serializes the three parameter tables as JSON documents keyed by table name
func Encode(params *Params) (map[string][]byte, error) {
	docs := make(map[string][]byte, len(tables))

	values := map[string]interface{}{
		TablePriors:      params.Priors,
		TableReliability: params.Reliability,
		TableTransitions: params.Transitions,
	}
	for _, name := range tables {
		data, err := json.MarshalIndent(values[name], "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", name, err)
		}
		docs[name] = data
	}

	return docs, nil
}

// Decode rebuilds parameters from the documents produced by Encode
func Decode(docs map[string][]byte) (*Params, error) {
	params := &Params{}
	targets := map[string]interface{}{
		TablePriors:      &params.Priors,
		TableReliability: &params.Reliability,
		TableTransitions: &params.Transitions,
	}
	for _, name := range tables {
		data, ok := docs[name]
		if !ok {
			return nil, fmt.Errorf("missing parameter table %s", name)
		}
		if err := json.Unmarshal(data, targets[name]); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
	}

	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	return params, nil
}

// FileStore keeps the parameter tables as JSON files in a directory
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileStore creates a file-backed store rooted at dir
func NewFileStore(dir string, logger *slog.Logger) *FileStore {
	return &FileStore{
		dir:    dir,
		logger: logger,
	}
}

func (s *FileStore) path(table string) string {
	return filepath.Join(s.dir, table+".json")
}

// Save writes all tables, replacing existing files
func (s *FileStore) Save(ctx context.Context, params *Params) error {
	docs, err := Encode(params)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create params dir: %w", err)
	}

	for _, name := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		tmp := s.path(name) + ".tmp"
		if err := os.WriteFile(tmp, docs[name], 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		if err := os.Rename(tmp, s.path(name)); err != nil {
			return fmt.Errorf("failed to replace %s: %w", name, err)
		}
	}

	s.logger.Info("Saved learned parameters", "dir", s.dir)
	return nil
}

// Load reads all tables
func (s *FileStore) Load(ctx context.Context) (*Params, error) {
	docs := make(map[string][]byte, len(tables))
	for _, name := range tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(s.path(name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		docs[name] = data
	}

	params, err := Decode(docs)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Loaded learned parameters", "dir", s.dir)
	return params, nil
}

// RedisStore keeps the parameter tables as JSON strings in Redis
type RedisStore struct {
	redis  redis.Client
	logger *slog.Logger
}

// NewRedisStore creates a Redis-backed store
func NewRedisStore(redisClient redis.Client, logger *slog.Logger) *RedisStore {
	return &RedisStore{
		redis:  redisClient,
		logger: logger,
	}
}

// Save writes all tables without expiry
func (s *RedisStore) Save(ctx context.Context, params *Params) error {
	docs, err := Encode(params)
	if err != nil {
		return err
	}

	for _, name := range tables {
		if err := s.redis.Set(ctx, redis.ParamsKey(name), string(docs[name]), 0); err != nil {
			return fmt.Errorf("failed to store %s: %w", name, err)
		}
	}

	s.logger.Info("Saved learned parameters to Redis")
	return nil
}

// Load reads all tables
func (s *RedisStore) Load(ctx context.Context) (*Params, error) {
	docs := make(map[string][]byte, len(tables))
	for _, name := range tables {
		val, err := s.redis.Get(ctx, redis.ParamsKey(name))
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", name, err)
		}
		docs[name] = []byte(val)
	}

	params, err := Decode(docs)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Loaded learned parameters from Redis")
	return params, nil
}
