package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	platformstrings "fieldsafe/pkg/platform/strings"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Outbox   OutboxConfig   `yaml:"outbox"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	RequestTimeout  time.Duration `yaml:"request_timeout"  env:"SERVER_REQUEST_TIMEOUT"  env-default:"15s"`
}

// StorageConfig selects the persistence backend. The memory backend exists
// for local development and tests; postgres is the production default.
type StorageConfig struct {
	Backend string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"postgres"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	MigrateOnStart  bool          `yaml:"migrate_on_start"   env:"DATABASE_MIGRATE_ON_START"   env-default:"true"`
}

// RedisConfig holds the pub/sub fanout settings for live visit updates.
// Leave URL empty to fan out in-process only.
type RedisConfig struct {
	URL          string        `yaml:"url"            env:"REDIS_URL"`
	PoolSize     int           `yaml:"pool_size"      env:"REDIS_POOL_SIZE"      env-default:"10"`
	MinIdleConns int           `yaml:"min_idle_conns" env:"REDIS_MIN_IDLE_CONNS" env-default:"2"`
	DialTimeout  time.Duration `yaml:"dial_timeout"   env:"REDIS_DIAL_TIMEOUT"   env-default:"5s"`
	ReadTimeout  time.Duration `yaml:"read_timeout"   env:"REDIS_READ_TIMEOUT"   env-default:"3s"`
	WriteTimeout time.Duration `yaml:"write_timeout"  env:"REDIS_WRITE_TIMEOUT"  env-default:"3s"`
}

// KafkaConfig holds event delivery settings. Leave Brokers empty to keep
// events in-process.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic"   env:"KAFKA_TOPIC"   env-default:"fieldsafe.events"`
}

// OutboxConfig holds the delivery worker settings.
type OutboxConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" env:"OUTBOX_POLL_INTERVAL" env-default:"1s"`
	BatchSize    int           `yaml:"batch_size"    env:"OUTBOX_BATCH_SIZE"    env-default:"100"`
}

// AuthConfig holds JWT verification settings.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
	JWTIssuer string `yaml:"jwt_issuer" env:"AUTH_JWT_ISSUER" env-default:"fieldsafe"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// Validate checks cross-field constraints that tag defaults cannot express.
func (c *Config) Validate() error {
	backend := strings.ToLower(c.Storage.Backend)
	if !slices.Contains([]string{"postgres", "memory"}, backend) {
		return fmt.Errorf("storage.backend must be postgres or memory, got %q", c.Storage.Backend)
	}
	c.Storage.Backend = backend

	if backend == "postgres" && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for the postgres backend")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Outbox.BatchSize <= 0 {
		return fmt.Errorf("outbox.batch_size must be positive, got %d", c.Outbox.BatchSize)
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}

	// Env-sourced broker lists tend to carry whitespace and repeats.
	c.Kafka.Brokers = platformstrings.DedupeAndTrim(c.Kafka.Brokers)
	return nil
}

// UsesPostgres reports whether the postgres backend is selected.
func (c *Config) UsesPostgres() bool { return c.Storage.Backend == "postgres" }

// Addr returns the host:port the HTTP server binds to.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
