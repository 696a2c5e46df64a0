package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config holds the configuration for the occupancy tools (train, search, replay)
type Config struct {
	// Service configuration
	ServiceName string
	LogLevel    string

	// Data configuration
	DataFiles    []string
	LayoutFile   string
	WindowStart  string
	WindowEnd    string
	ParamsDir    string
	ParamsSource string // "file" or "redis"

	// Search configuration
	GridFile       string
	SearchWorkers  int
	ProgressEvery  int
	ResultsBackend string // "", "postgres" or "sqlite"
	SQLitePath     string
	PublishResults bool
	PublishActions bool
	UseStoredBest  bool

	// Decision weights used by replay
	DBNPriorWeight       float64
	FinalPriorWeight     float64
	FinalPredictedWeight float64
	FinalPosteriorWeight float64
	Threshold            float64

	// Replay simulator cost model (cents per timestep)
	LightOnCost            float64
	MissedOccupancyPenalty float64

	// MQTT configuration
	MQTTBroker   string
	MQTTPort     int
	MQTTUser     string
	MQTTPassword string
	MQTTClientID string

	// Redis configuration
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// Postgres configuration
	PostgresHost               string
	PostgresPort               int
	PostgresDB                 string
	PostgresUser               string
	PostgresPassword           string
	PostgresSSLMode            string
	PostgresMaxConnections     int
	PostgresMaxIdleConnections int
	PostgresConnMaxLifetime    time.Duration
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		ServiceName:  "occupancy",
		LogLevel:     "info",
		DataFiles:    []string{"data1.csv", "data2.csv"},
		LayoutFile:   "",
		WindowStart:  "08:00",
		WindowEnd:    "18:00",
		ParamsDir:    "params",
		ParamsSource: "file",
		// Search defaults
		GridFile:       "",
		SearchWorkers:  4,
		ProgressEvery:  25,
		ResultsBackend: "",
		SQLitePath:     "search_results.db",
		PublishResults: false,
		PublishActions: false,
		UseStoredBest:  false,
		// Weights found by the reference grid search
		DBNPriorWeight:       0.5,
		FinalPriorWeight:     0.2,
		FinalPredictedWeight: 0.2,
		FinalPosteriorWeight: 0.6,
		Threshold:            0.2,
		// Replay cost model
		LightOnCost:            1.0,
		MissedOccupancyPenalty: 4.0,
		MQTTBroker:             "localhost",
		MQTTPort:               1883,
		MQTTUser:               "",
		MQTTPassword:           "",
		MQTTClientID:           "",
		RedisHost:              "localhost",
		RedisPort:              6379,
		RedisPassword:          "",
		RedisDB:                0,

		PostgresHost:               "localhost",
		PostgresPort:               5432,
		PostgresDB:                 "jeeves",
		PostgresUser:               "jeeves",
		PostgresPassword:           "",
		PostgresSSLMode:            "disable",
		PostgresMaxConnections:     5,
		PostgresMaxIdleConnections: 2,
		PostgresConnMaxLifetime:    30 * time.Minute,
	}
}

// LoadFromEnv loads configuration from environment variables with JEEVES_ prefix.
// A .env file in the working directory is read first if present; real
// environment variables win over it.
func (c *Config) LoadFromEnv() {
	_ = godotenv.Load()

	// Service configuration
	if v := os.Getenv("JEEVES_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("JEEVES_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	// Data configuration
	if v := os.Getenv("JEEVES_DATA_FILES"); v != "" {
		c.DataFiles = splitList(v)
	}
	if v := os.Getenv("JEEVES_LAYOUT_FILE"); v != "" {
		c.LayoutFile = v
	}
	if v := os.Getenv("JEEVES_WINDOW_START"); v != "" {
		c.WindowStart = v
	}
	if v := os.Getenv("JEEVES_WINDOW_END"); v != "" {
		c.WindowEnd = v
	}
	if v := os.Getenv("JEEVES_PARAMS_DIR"); v != "" {
		c.ParamsDir = v
	}
	if v := os.Getenv("JEEVES_PARAMS_SOURCE"); v != "" {
		c.ParamsSource = v
	}

	// Search configuration
	if v := os.Getenv("JEEVES_GRID_FILE"); v != "" {
		c.GridFile = v
	}
	if v := os.Getenv("JEEVES_SEARCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SearchWorkers = n
		}
	}
	if v := os.Getenv("JEEVES_PROGRESS_EVERY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ProgressEvery = n
		}
	}
	if v := os.Getenv("JEEVES_RESULTS_BACKEND"); v != "" {
		c.ResultsBackend = v
	}
	if v := os.Getenv("JEEVES_SQLITE_PATH"); v != "" {
		c.SQLitePath = v
	}
	if v := os.Getenv("JEEVES_PUBLISH_RESULTS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.PublishResults = b
		}
	}
	if v := os.Getenv("JEEVES_PUBLISH_ACTIONS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.PublishActions = b
		}
	}

	if v := os.Getenv("JEEVES_USE_STORED_BEST"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.UseStoredBest = b
		}
	}

	// Decision weights
	c.DBNPriorWeight = envFloat("JEEVES_DBN_PRIOR_WEIGHT", c.DBNPriorWeight)
	c.FinalPriorWeight = envFloat("JEEVES_FINAL_PRIOR_WEIGHT", c.FinalPriorWeight)
	c.FinalPredictedWeight = envFloat("JEEVES_FINAL_PREDICTED_WEIGHT", c.FinalPredictedWeight)
	c.FinalPosteriorWeight = envFloat("JEEVES_FINAL_POSTERIOR_WEIGHT", c.FinalPosteriorWeight)
	c.Threshold = envFloat("JEEVES_THRESHOLD", c.Threshold)

	// Cost model
	c.LightOnCost = envFloat("JEEVES_LIGHT_ON_COST", c.LightOnCost)
	c.MissedOccupancyPenalty = envFloat("JEEVES_MISSED_OCCUPANCY_PENALTY", c.MissedOccupancyPenalty)

	// MQTT configuration
	if v := os.Getenv("JEEVES_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("JEEVES_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.MQTTPort = port
		}
	}
	if v := os.Getenv("JEEVES_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("JEEVES_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}
	if v := os.Getenv("JEEVES_MQTT_CLIENT_ID"); v != "" {
		c.MQTTClientID = v
	}

	// Redis configuration
	if v := os.Getenv("JEEVES_REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	if v := os.Getenv("JEEVES_REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.RedisPort = port
		}
	}
	if v := os.Getenv("JEEVES_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("JEEVES_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.RedisDB = db
		}
	}

	// Postgres configuration
	if v := os.Getenv("JEEVES_POSTGRES_HOST"); v != "" {
		c.PostgresHost = v
	}
	if v := os.Getenv("JEEVES_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.PostgresPort = port
		}
	}
	if v := os.Getenv("JEEVES_POSTGRES_DB"); v != "" {
		c.PostgresDB = v
	}
	if v := os.Getenv("JEEVES_POSTGRES_USER"); v != "" {
		c.PostgresUser = v
	}
	if v := os.Getenv("JEEVES_POSTGRES_PASSWORD"); v != "" {
		c.PostgresPassword = v
	}
	if v := os.Getenv("JEEVES_POSTGRES_SSLMODE"); v != "" {
		c.PostgresSSLMode = v
	}
}

// RegisterFlags binds all configuration values to the given flag set
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	// Service flags
	fs.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")

	// Data flags
	fs.StringSliceVar(&c.DataFiles, "data", c.DataFiles, "Historical log CSV files (comma separated or repeated)")
	fs.StringVar(&c.LayoutFile, "layout", c.LayoutFile, "Building layout YAML file (default: built-in floor plan)")
	fs.StringVar(&c.WindowStart, "window-start", c.WindowStart, "Start of the daily operating window (HH:MM)")
	fs.StringVar(&c.WindowEnd, "window-end", c.WindowEnd, "End of the daily operating window (HH:MM, exclusive)")
	fs.StringVar(&c.ParamsDir, "params-dir", c.ParamsDir, "Directory holding learned parameter files")
	fs.StringVar(&c.ParamsSource, "params-source", c.ParamsSource, "Learned parameter backend (file, redis)")

	// Search flags
	fs.StringVar(&c.GridFile, "grid", c.GridFile, "Search grid YAML file (default: built-in grid)")
	fs.IntVar(&c.SearchWorkers, "workers", c.SearchWorkers, "Number of concurrent grid evaluations")
	fs.IntVar(&c.ProgressEvery, "progress-every", c.ProgressEvery, "Log search progress every N combinations")
	fs.StringVar(&c.ResultsBackend, "results-backend", c.ResultsBackend, "Search result store (postgres, sqlite, empty to disable)")
	fs.StringVar(&c.SQLitePath, "sqlite-path", c.SQLitePath, "SQLite database file for search results")
	fs.BoolVar(&c.PublishResults, "publish-results", c.PublishResults, "Publish the best configuration over MQTT")
	fs.BoolVar(&c.PublishActions, "publish-actions", c.PublishActions, "Publish per-timestep light actions over MQTT")
	fs.BoolVar(&c.UseStoredBest, "use-stored-best", c.UseStoredBest, "Replay with the best weights of the latest stored search run")

	// Weight flags
	fs.Float64Var(&c.DBNPriorWeight, "dbn-prior-weight", c.DBNPriorWeight, "Prior blend weight inside the transition prediction")
	fs.Float64Var(&c.FinalPriorWeight, "final-prior-weight", c.FinalPriorWeight, "Prior weight of the final blend")
	fs.Float64Var(&c.FinalPredictedWeight, "final-predicted-weight", c.FinalPredictedWeight, "Predicted weight of the final blend")
	fs.Float64Var(&c.FinalPosteriorWeight, "final-posterior-weight", c.FinalPosteriorWeight, "Posterior weight of the final blend")
	fs.Float64Var(&c.Threshold, "threshold", c.Threshold, "Final probability at or above which lights turn on")

	// Cost model flags
	fs.Float64Var(&c.LightOnCost, "light-on-cost", c.LightOnCost, "Cost in cents of one light on for one timestep")
	fs.Float64Var(&c.MissedOccupancyPenalty, "missed-occupancy-penalty", c.MissedOccupancyPenalty, "Cost in cents of an occupied room left dark for one timestep")

	// MQTT flags
	fs.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	fs.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	fs.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	fs.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	fs.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")

	// Redis flags
	fs.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	fs.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	fs.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	fs.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	// Postgres flags
	fs.StringVar(&c.PostgresHost, "postgres-host", c.PostgresHost, "Postgres hostname")
	fs.IntVar(&c.PostgresPort, "postgres-port", c.PostgresPort, "Postgres port")
	fs.StringVar(&c.PostgresDB, "postgres-db", c.PostgresDB, "Postgres database name")
	fs.StringVar(&c.PostgresUser, "postgres-user", c.PostgresUser, "Postgres user")
	fs.StringVar(&c.PostgresPassword, "postgres-password", c.PostgresPassword, "Postgres password")
	fs.StringVar(&c.PostgresSSLMode, "postgres-sslmode", c.PostgresSSLMode, "Postgres sslmode")
}

// LoadFromFlags parses command-line flags and overrides config values
func (c *Config) LoadFromFlags() {
	c.RegisterFlags(pflag.CommandLine)
	pflag.Parse()
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	if len(c.DataFiles) == 0 {
		return fmt.Errorf("at least one data file is required")
	}
	switch c.ParamsSource {
	case "file":
		if c.ParamsDir == "" {
			return fmt.Errorf("params dir is required for the file params source")
		}
	case "redis":
	default:
		return fmt.Errorf("invalid params source: %s (must be file or redis)", c.ParamsSource)
	}

	switch c.ResultsBackend {
	case "":
		if c.UseStoredBest {
			return fmt.Errorf("use-stored-best requires a results backend")
		}
	case "postgres":
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required for the sqlite results backend")
		}
	default:
		return fmt.Errorf("invalid results backend: %s (must be postgres, sqlite or empty)", c.ResultsBackend)
	}

	if c.SearchWorkers < 1 {
		return fmt.Errorf("search workers must be at least 1")
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be between 0 and 1")
	}
	if c.DBNPriorWeight < 0 || c.DBNPriorWeight > 1 {
		return fmt.Errorf("dbn prior weight must be between 0 and 1")
	}
	if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
		return fmt.Errorf("MQTT port must be between 1 and 65535")
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		return fmt.Errorf("Redis port must be between 1 and 65535")
	}
	if c.PostgresPort <= 0 || c.PostgresPort > 65535 {
		return fmt.Errorf("Postgres port must be between 1 and 65535")
	}

	return nil
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// PostgresConnectionString returns the lib/pq connection string
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s application_name=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode, c.ServiceName)
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
