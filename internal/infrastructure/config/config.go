package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Ingest    IngestConfig
	AI        AIConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// IngestConfig holds ingestion pipeline configuration
type IngestConfig struct {
	// ProcessingDeadline is the per-message time budget
	ProcessingDeadline time.Duration
	// NotifyGatedOut controls status events for feature-gated messages
	NotifyGatedOut bool
	// DedupeTTL is how long processed event ids are remembered
	DedupeTTL time.Duration
	// AutoApplyEnabled enables automatic persistence of AI suggestions
	AutoApplyEnabled bool
	// AutoApplyMinConfidence is the confidence threshold for auto-apply
	AutoApplyMinConfidence float64
	// ProcessedBy identifies this consumer in outbound status events
	ProcessedBy string
}

// AIConfig holds AI suggestion service settings
type AIConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
}

// Load loads configuration from a TOML file and environment variables.
// Priority (highest to lowest): env vars with CF_ prefix, config.toml,
// built-in defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Missing config file is fine, defaults and env vars apply
	}

	v.SetEnvPrefix("CF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			IdleTimeout:  v.GetDuration("http.idle_timeout"),
		},
		Ingest: IngestConfig{
			ProcessingDeadline:     v.GetDuration("ingest.processing_deadline"),
			NotifyGatedOut:         v.GetBool("ingest.notify_gated_out"),
			DedupeTTL:              v.GetDuration("ingest.dedupe_ttl"),
			AutoApplyEnabled:       v.GetBool("ingest.auto_apply_enabled"),
			AutoApplyMinConfidence: v.GetFloat64("ingest.auto_apply_min_confidence"),
			ProcessedBy:            v.GetString("ingest.processed_by"),
		},
		AI: AIConfig{
			BaseURL: v.GetString("ai.base_url"),
			APIKey:  v.GetString("ai.api_key"),
			Timeout: v.GetDuration("ai.timeout"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills in zero values with sensible defaults
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "journal-ingest"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "comptaflow"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 10
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.Ingest.ProcessingDeadline == 0 {
		cfg.Ingest.ProcessingDeadline = 30 * time.Second
	}
	if cfg.Ingest.DedupeTTL == 0 {
		cfg.Ingest.DedupeTTL = 24 * time.Hour
	}
	if cfg.Ingest.AutoApplyMinConfidence == 0 {
		cfg.Ingest.AutoApplyMinConfidence = 0.7
	}
	if cfg.Ingest.ProcessedBy == "" {
		cfg.Ingest.ProcessedBy = cfg.App.Name
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 20 * time.Second
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
}

// validate checks configuration consistency
func (c *Config) validate() error {
	if c.Ingest.ProcessingDeadline < time.Second {
		return fmt.Errorf("ingest.processing_deadline must be at least 1s, got %s", c.Ingest.ProcessingDeadline)
	}
	if c.Ingest.AutoApplyMinConfidence < 0 || c.Ingest.AutoApplyMinConfidence > 1 {
		return fmt.Errorf("ingest.auto_apply_min_confidence must be within [0,1], got %f", c.Ingest.AutoApplyMinConfidence)
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be within [0,1], got %f", c.Telemetry.SamplingRatio)
	}
	if c.Telemetry.Enabled && c.Telemetry.CollectorEndpoint == "" {
		return fmt.Errorf("telemetry.collector_endpoint is required when telemetry is enabled")
	}
	if c.AI.BaseURL == "" && c.App.Env == "production" {
		return fmt.Errorf("ai.base_url is required in production")
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}
