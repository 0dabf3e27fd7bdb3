package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig
	App      AppConfig
	Cache    CacheConfig
	PantryDB PantryDBConfig
	Alerts   AlertConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"pantry-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
	// LegacyShortfall keeps the historical consumption behavior: partial
	// decrements stay committed when a request exceeds total stock.
	LegacyShortfall bool `envconfig:"STOCK_LEGACY_SHORTFALL" default:"false"`
}

// CacheConfig holds advisory-read cache settings. Alert evaluations are
// cached through this layer; a stale read is acceptable there.
type CacheConfig struct {
	Type string        `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis
	TTL  time.Duration `envconfig:"CACHE_TTL" default:"30s"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// PantryDBConfig holds pantry database settings.
type PantryDBConfig struct {
	Type string `envconfig:"PANTRY_DB_TYPE" default:"sqlite"` // sqlite or mysql
	Path string `envconfig:"PANTRY_DB_PATH" default:"./data/pantry.db"`
	// MySQL settings
	Host     string `envconfig:"PANTRY_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"PANTRY_DB_PORT" default:"3306"`
	Name     string `envconfig:"PANTRY_DB_NAME" default:"pantry"`
	User     string `envconfig:"PANTRY_DB_USER" default:"root"`
	Password string `envconfig:"PANTRY_DB_PASS" default:""`
}

// AlertConfig holds alert evaluation settings.
type AlertConfig struct {
	// ExpiryHorizonDays is how far ahead the expiry evaluator looks;
	// a batch expiring exactly on the horizon boundary is included.
	ExpiryHorizonDays int           `envconfig:"ALERT_EXPIRY_HORIZON_DAYS" default:"3"`
	SweepInterval     time.Duration `envconfig:"ALERT_SWEEP_INTERVAL" default:"1h"`
	SweepEnabled      bool          `envconfig:"ALERT_SWEEP_ENABLED" default:"true"`
}

// MySQLDSN returns the MySQL data source name.
func (p *PantryDBConfig) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		p.User, p.Password, p.Host, p.Port, p.Name)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// ExpiryHorizon returns the expiry lookahead as a duration.
func (a *AlertConfig) ExpiryHorizon() time.Duration {
	return time.Duration(a.ExpiryHorizonDays) * 24 * time.Hour
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
