package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	RepositoryPostgres = "postgres"
	RepositoryMemory   = "memory"

	EventLogRedis = "redis"
	EventLogKafka = "kafka"

	MCPTransportStdio = "stdio"
)

// Config aggregates all runtime settings required by the ledger service.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Repository  RepositoryConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	EventLog    EventLogConfig
	Kafka       KafkaConfig
	JWT         JWTConfig
	Buffer      BufferConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
	MCP         MCPConfig
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxConn      int
}

type RepositoryConfig struct {
	Driver string
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type EventLogConfig struct {
	Driver       string
	StreamPrefix string
	MaxLen       int64
}

type KafkaConfig struct {
	Brokers  []string
	ClientID string
}

// JWTConfig enables bearer authentication on the HTTP API when Secret is set.
type JWTConfig struct {
	Secret string
	Issuer string
}

// BufferConfig controls parking and republishing of events that failed to publish.
type BufferConfig struct {
	Path           string
	RetentionHours int
	SyncInterval   time.Duration
	MaxRetry       int
	BatchSize      int
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

type MCPConfig struct {
	Transport string
}

// Load reads configuration from environment variables (optionally .env)
// and applies defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "portfolio-ledger"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getString("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:      getInt("SERVER_MAX_CONN", 0),
		},
		Repository: RepositoryConfig{
			Driver: strings.ToLower(getString("REPOSITORY_DRIVER", RepositoryPostgres)),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "portfolio"),
			User:            getString("DB_USER", "portfolio"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		EventLog: EventLogConfig{
			Driver:       strings.ToLower(getString("EVENTLOG_DRIVER", EventLogRedis)),
			StreamPrefix: getString("EVENTLOG_STREAM_PREFIX", "transactions"),
			MaxLen:       int64(getInt("EVENTLOG_MAX_LEN", 0)),
		},
		Kafka: KafkaConfig{
			Brokers:  getList("KAFKA_BROKERS", []string{"localhost:9092"}),
			ClientID: getString("KAFKA_CLIENT_ID", "portfolio-ledger"),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: getString("JWT_ISSUER", "portfolio-ledger"),
		},
		Buffer: BufferConfig{
			Path:           getString("BOLTDB_PATH", "./data/unpublished.db"),
			RetentionHours: getInt("BUFFER_RETENTION_HOURS", 24),
			SyncInterval:   getDuration("SYNC_INTERVAL_SECONDS", 30*time.Second),
			MaxRetry:       getInt("MAX_RETRY_ATTEMPTS", 5),
			BatchSize:      getInt("BUFFER_BATCH_SIZE", 100),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
		MCP: MCPConfig{
			Transport: strings.ToLower(getString("MCP_TRANSPORT", MCPTransportStdio)),
		},
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate rejects driver selections the application cannot wire.
func (c *Config) Validate() error {
	switch c.Repository.Driver {
	case RepositoryPostgres, RepositoryMemory:
	default:
		return fmt.Errorf("config: unsupported REPOSITORY_DRIVER %q", c.Repository.Driver)
	}
	switch c.EventLog.Driver {
	case EventLogRedis:
	case EventLogKafka:
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: KAFKA_BROKERS is required for the kafka event log")
		}
	default:
		return fmt.Errorf("config: unsupported EVENTLOG_DRIVER %q", c.EventLog.Driver)
	}
	if c.MCP.Transport != MCPTransportStdio {
		return fmt.Errorf("config: unsupported MCP_TRANSPORT %q", c.MCP.Transport)
	}
	return nil
}

func buildPostgresURL(cfg *Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
