// Package config loads and validates server configuration from YAML files
// and MDQ_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mdq-screening-server/internal/domain"
)

// Config is the complete server configuration.
type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Screening   ScreeningConfig `mapstructure:"screening"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
}

// DatabaseConfig holds storage settings. Driver selects between the
// PostgreSQL repository and the embedded SQLite store.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// CacheConfig holds the two-tier cache settings. When RedisEnabled is false
// only the in-process LRU tier is used.
type CacheConfig struct {
	RedisEnabled bool          `mapstructure:"redis_enabled"`
	RedisURL     string        `mapstructure:"redis_url"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	LocalSize    int           `mapstructure:"local_size"`
	PoolSize     int           `mapstructure:"pool_size"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
}

// LoggingConfig holds logrus settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ScreeningConfig selects the scoring scheme and bounds history reads.
type ScreeningConfig struct {
	Scheme       string `mapstructure:"scheme"`
	HistoryLimit int    `mapstructure:"history_limit"`
}

// Manager loads configuration via viper and exposes typed accessors.
type Manager struct {
	v      *viper.Viper
	config *Config
}

// NewManager creates a configuration manager and performs the initial load.
func NewManager() (*Manager, error) {
	m := &Manager{v: viper.New()}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

func (m *Manager) loadConfig() error {
	m.v.SetConfigName("config")
	m.v.SetConfigType("yaml")
	m.v.AddConfigPath(".")
	m.v.AddConfigPath("./config")
	m.v.AddConfigPath("/etc/mdq-screening-server/")

	m.v.SetEnvPrefix("MDQ")
	m.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.v.AutomaticEnv()

	m.setDefaults()

	// Config file is optional; defaults and environment variables suffice.
	if err := m.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := m.v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

func (m *Manager) setDefaults() {
	m.v.SetDefault("environment", "development")

	m.v.SetDefault("server.host", "0.0.0.0")
	m.v.SetDefault("server.port", 8080)
	m.v.SetDefault("server.read_timeout", "30s")
	m.v.SetDefault("server.write_timeout", "30s")
	m.v.SetDefault("server.idle_timeout", "120s")
	m.v.SetDefault("server.rate_limit_rps", 20)
	m.v.SetDefault("server.rate_limit_burst", 40)

	m.v.SetDefault("database.driver", "sqlite")
	m.v.SetDefault("database.host", "localhost")
	m.v.SetDefault("database.port", 5432)
	m.v.SetDefault("database.database", "mdq_screening")
	m.v.SetDefault("database.username", "postgres")
	m.v.SetDefault("database.password", "")
	m.v.SetDefault("database.ssl_mode", "disable")
	m.v.SetDefault("database.max_open_conns", 25)
	m.v.SetDefault("database.max_idle_conns", 5)
	m.v.SetDefault("database.conn_max_lifetime", "5m")
	m.v.SetDefault("database.sqlite_path", "mdq_screening.db")
	m.v.SetDefault("database.migrations_path", "migrations")
	m.v.SetDefault("database.auto_migrate", true)

	m.v.SetDefault("cache.redis_enabled", false)
	m.v.SetDefault("cache.redis_url", "redis://localhost:6379")
	m.v.SetDefault("cache.default_ttl", "1h")
	m.v.SetDefault("cache.local_size", 512)
	m.v.SetDefault("cache.pool_size", 10)
	m.v.SetDefault("cache.pool_timeout", "4s")

	m.v.SetDefault("logging.level", "info")
	m.v.SetDefault("logging.format", "json")
	m.v.SetDefault("logging.output", "stdout")

	m.v.SetDefault("screening.scheme", string(domain.BINARY))
	m.v.SetDefault("screening.history_limit", 30)
}

// GetConfig returns the complete configuration.
func (m *Manager) GetConfig() *Config {
	return m.config
}

// GetServerConfig returns server configuration.
func (m *Manager) GetServerConfig() *ServerConfig {
	return &m.config.Server
}

// GetDatabaseConfig returns database configuration.
func (m *Manager) GetDatabaseConfig() *DatabaseConfig {
	return &m.config.Database
}

// GetCacheConfig returns cache configuration.
func (m *Manager) GetCacheConfig() *CacheConfig {
	return &m.config.Cache
}

// GetScreeningConfig returns screening configuration.
func (m *Manager) GetScreeningConfig() *ScreeningConfig {
	return &m.config.Screening
}

// SchemeKind returns the configured scoring scheme kind.
func (m *Manager) SchemeKind() domain.SchemeKind {
	return domain.SchemeKind(m.config.Screening.Scheme)
}

// Reload reloads the configuration from its sources.
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the loaded configuration.
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Server.RateLimitRPS <= 0 {
		return fmt.Errorf("invalid rate limit: %.2f", config.Server.RateLimitRPS)
	}

	switch config.Database.Driver {
	case "postgres":
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if config.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if config.Database.Username == "" {
			return fmt.Errorf("database username is required")
		}
	case "sqlite":
		if config.Database.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", config.Database.Driver)
	}

	if config.Cache.RedisEnabled && config.Cache.RedisURL == "" {
		return fmt.Errorf("redis URL is required when redis is enabled")
	}
	if config.Cache.LocalSize <= 0 {
		return fmt.Errorf("invalid local cache size: %d", config.Cache.LocalSize)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	if _, err := domain.SchemeFor(m.SchemeKind()); err != nil {
		return fmt.Errorf("invalid scoring scheme %q: %w", config.Screening.Scheme, err)
	}
	if config.Screening.HistoryLimit <= 0 {
		return fmt.Errorf("invalid history limit: %d", config.Screening.HistoryLimit)
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string.
func (m *Manager) GetDatabaseConnectionString() string {
	db := m.config.Database
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.Username, db.Password, db.Database, db.SSLMode)
}

// GetRedisConnectionString returns the Redis connection string.
func (m *Manager) GetRedisConnectionString() string {
	return m.config.Cache.RedisURL
}

// IsProduction returns true if running in production mode.
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}

// IsDevelopment returns true if running in development mode.
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Environment)
	return env == "development" || env == "dev" || env == ""
}
