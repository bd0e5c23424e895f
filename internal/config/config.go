// Package config loads analyzer configuration from file and environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/telhawk-systems/telhawk-analyzer/internal/rules"
)

// Config holds all configuration for the analyzer service.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Datasource DatasourceConfig `mapstructure:"datasource"`
	Blacklist  BlacklistConfig  `mapstructure:"blacklist"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig holds PostgreSQL configuration for the job store.
type DatabaseConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ConnString builds the pgx connection string.
func (p PostgresConfig) ConnString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode,
	)
}

// RedisConfig holds Redis configuration for the progress cache.
type RedisConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

// NATSConfig holds NATS configuration for the alert sink.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
	Enabled       bool   `mapstructure:"enabled"`
}

// StorageConfig holds OpenSearch configuration for the uploaded-data
// store.
type StorageConfig struct {
	URL         string `mapstructure:"url"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	Insecure    bool   `mapstructure:"insecure"`
	IndexPrefix string `mapstructure:"index_prefix"`
	Enabled     bool   `mapstructure:"enabled"`
}

// SchedulerConfig holds worker-pool settings.
type SchedulerConfig struct {
	Workers         int           `mapstructure:"workers"`
	DispatchBackoff time.Duration `mapstructure:"dispatch_backoff"`
}

// DatasourceConfig lists the candidate directories for extraction
// output files.
type DatasourceConfig struct {
	Dirs []string `mapstructure:"dirs"`
}

// BlacklistConfig points to the denylist tables. File takes precedence
// over the inline lists when set.
type BlacklistConfig struct {
	File         string   `mapstructure:"file"`
	Applications []string `mapstructure:"applications"`
	Countries    []string `mapstructure:"countries"`
	UserAgents   []string `mapstructure:"user_agents"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "analyzer")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.database", "analyzer")
	v.SetDefault("database.postgres.sslmode", "disable")

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.enabled", false)

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject_prefix", "analyzer.alerts")
	v.SetDefault("nats.enabled", false)

	v.SetDefault("storage.url", "https://localhost:9200")
	v.SetDefault("storage.username", "admin")
	v.SetDefault("storage.password", "")
	v.SetDefault("storage.insecure", true)
	v.SetDefault("storage.index_prefix", "analyzer-uploads")
	v.SetDefault("storage.enabled", false)

	v.SetDefault("scheduler.workers", 0)
	v.SetDefault("scheduler.dispatch_backoff", "1s")

	v.SetDefault("datasource.dirs", []string{"./data/extractions", "/var/lib/analyzer/extractions"})

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("ANALYZER")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadBlacklist resolves the denylist tables, reading the yaml file when
// one is configured. The result is immutable after load.
func (c *Config) LoadBlacklist() (rules.Blacklist, error) {
	if c.Blacklist.File == "" {
		return rules.Blacklist{
			Applications: c.Blacklist.Applications,
			Countries:    c.Blacklist.Countries,
			UserAgents:   c.Blacklist.UserAgents,
		}, nil
	}

	data, err := os.ReadFile(c.Blacklist.File)
	if err != nil {
		return rules.Blacklist{}, fmt.Errorf("failed to read blacklist file: %w", err)
	}

	var bl rules.Blacklist
	if err := yaml.Unmarshal(data, &bl); err != nil {
		return rules.Blacklist{}, fmt.Errorf("failed to parse blacklist file: %w", err)
	}
	return bl, nil
}
