// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Cloud, Analytics, Redis, Kafka, Postgres, Logging, Metrics).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Cloud     CloudConfig     `yaml:"cloud"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// UploadsPerMinute caps document uploads per client IP; 0 disables it.
	UploadsPerMinute int      `yaml:"uploadsPerMinute"`
	CORSOrigins      []string `yaml:"corsOrigins"`
}

// CloudConfig controls where documents are read from, where the rendered
// word cloud is written, and the limits applied to top-K queries.
type CloudConfig struct {
	InputDir     string `yaml:"inputDir"`
	OutputPath   string `yaml:"outputPath"`
	Title        string `yaml:"title"`
	TextPath     string `yaml:"textPath"`
	FilterPath   string `yaml:"filterPath"`
	DefaultWords int    `yaml:"defaultWords"`
	MaxWords     int    `yaml:"maxWords"`
	MinFontSize  int    `yaml:"minFontSize"`
	MaxFontSize  int    `yaml:"maxFontSize"`
}

// AnalyticsConfig holds settings for the analytics service. It shares the
// server timeouts but listens on its own port.
type AnalyticsConfig struct {
	Port             int           `yaml:"port"`
	SnapshotInterval time.Duration `yaml:"snapshotInterval"`
}

// RedisConfig holds Redis connection and report caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds Kafka broker and topic settings for query analytics.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
	BufferSize    int         `yaml:"bufferSize"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	QueryEvents string `yaml:"queryEvents"`
}

// PostgresConfig holds PostgreSQL connection parameters for the cloud archive.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration values that would make queries or
// rendering meaningless.
func (c *Config) Validate() error {
	var errs []error
	if c.Cloud.DefaultWords <= 0 {
		errs = append(errs, fmt.Errorf("cloud.defaultWords must be positive, got %d", c.Cloud.DefaultWords))
	}
	if c.Cloud.MaxWords <= 0 {
		errs = append(errs, fmt.Errorf("cloud.maxWords must be positive, got %d", c.Cloud.MaxWords))
	}
	if c.Analytics.SnapshotInterval <= 0 {
		errs = append(errs, fmt.Errorf("analytics.snapshotInterval must be positive, got %v", c.Analytics.SnapshotInterval))
	}
	if c.Analytics.Port == c.Server.Port {
		errs = append(errs, fmt.Errorf("analytics.port must differ from server.port (%d)", c.Server.Port))
	}
	if c.Cloud.MinFontSize > c.Cloud.MaxFontSize {
		errs = append(errs, fmt.Errorf("cloud.minFontSize (%d) exceeds cloud.maxFontSize (%d)",
			c.Cloud.MinFontSize, c.Cloud.MaxFontSize))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:             8080,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     30 * time.Second,
			ShutdownTimeout:  15 * time.Second,
			UploadsPerMinute: 30,
		},
		Cloud: CloudConfig{
			InputDir:     "input",
			OutputPath:   "output/wordcloud.html",
			Title:        "WordCloudUI",
			DefaultWords: 10,
			MaxWords:     500,
			MinFontSize:  12,
			MaxFontSize:  72,
		},
		Analytics: AnalyticsConfig{
			Port:             8081,
			SnapshotInterval: time.Minute,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 10 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "wordcloud-analytics",
			Topics: KafkaTopics{
				QueryEvents: "wordcloud-query-events",
			},
			BufferSize: 1000,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "wordcloud",
			User:            "wordcloud",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
			WriteTimeout:    5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads WC_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WC_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("WC_ANALYTICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Analytics.Port = port
		}
	}
	if v := os.Getenv("WC_SERVER_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("WC_CLOUD_INPUT_DIR"); v != "" {
		cfg.Cloud.InputDir = v
	}
	if v := os.Getenv("WC_CLOUD_OUTPUT_PATH"); v != "" {
		cfg.Cloud.OutputPath = v
	}
	if v := os.Getenv("WC_CLOUD_TEXT_PATH"); v != "" {
		cfg.Cloud.TextPath = v
	}
	if v := os.Getenv("WC_CLOUD_FILTER_PATH"); v != "" {
		cfg.Cloud.FilterPath = v
	}
	if v := os.Getenv("WC_CLOUD_MAX_WORDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cloud.MaxWords = n
		}
	}
	if v := os.Getenv("WC_REDIS_ENABLED"); v != "" {
		cfg.Redis.Enabled = parseBool(v, cfg.Redis.Enabled)
	}
	if v := os.Getenv("WC_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("WC_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("WC_KAFKA_ENABLED"); v != "" {
		cfg.Kafka.Enabled = parseBool(v, cfg.Kafka.Enabled)
	}
	if v := os.Getenv("WC_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("WC_POSTGRES_ENABLED"); v != "" {
		cfg.Postgres.Enabled = parseBool(v, cfg.Postgres.Enabled)
	}
	if v := os.Getenv("WC_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("WC_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("WC_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("WC_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("WC_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("WC_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("WC_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("WC_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v, cfg.Metrics.Enabled)
	}
}

func parseBool(v string, fallback bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
