package config

import (
	"fmt"
	"strings"
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
	Server  ServerConfig
	App     AppConfig
	Logging LoggingConfig
	Store   StoreConfig
	Catalog CatalogConfig
	Auth    AuthConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name           string   `envconfig:"APP_NAME" default:"marketplace-bulk-api"`
	Environment    string   `envconfig:"APP_ENV" default:"development"`
	Version        string   `envconfig:"APP_VERSION" default:"1.0.0"`
	APIKeys        []string `envconfig:"APP_API_KEYS"`
	MaxUploadBytes int64    `envconfig:"APP_MAX_UPLOAD_BYTES" default:"10485760"`
	AllowedOrigins []string `envconfig:"APP_ALLOWED_ORIGINS" default:"*"`
}

// LoggingConfig holds log/slog settings.
type LoggingConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"text"`
}

// StoreConfig selects and configures the key-value backend.
type StoreConfig struct {
	Type          string        `envconfig:"STORE_TYPE" default:"sqlite"` // memory, redis, sqlite, mysql, postgres or mongodb
	KeyPrefix     string        `envconfig:"STORE_KEY_PREFIX" default:"marketplace"`
	SweepInterval time.Duration `envconfig:"STORE_SWEEP_INTERVAL" default:"10m"`

	// SQLite settings
	Path string `envconfig:"STORE_SQLITE_PATH" default:"./data/listings.db"`

	// MySQL / PostgreSQL settings
	Host     string `envconfig:"STORE_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"STORE_DB_PORT"`
	Name     string `envconfig:"STORE_DB_NAME" default:"marketplace"`
	User     string `envconfig:"STORE_DB_USER" default:"marketplace"`
	Password string `envconfig:"STORE_DB_PASS" default:""`
	SSLMode  string `envconfig:"STORE_DB_SSLMODE" default:"disable"`

	// Redis settings
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// MongoDB settings
	MongoURI        string `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017"`
	MongoDatabase   string `envconfig:"MONGODB_DATABASE" default:"marketplace"`
	MongoCollection string `envconfig:"MONGODB_COLLECTION" default:"kv_entries"`
}

// CatalogConfig holds Graph API and batching settings.
type CatalogConfig struct {
	BaseURL       string        `envconfig:"CATALOG_BASE_URL" default:"https://graph.facebook.com"`
	APIVersion    string        `envconfig:"CATALOG_API_VERSION" default:"v24.0"`
	MaxItems      int           `envconfig:"CATALOG_MAX_ITEMS" default:"5000"`
	MaxBatchBytes int           `envconfig:"CATALOG_MAX_BATCH_BYTES" default:"31457280"`
	BatchInterval time.Duration `envconfig:"CATALOG_BATCH_INTERVAL" default:"18s"`
	HTTPTimeout   time.Duration `envconfig:"CATALOG_HTTP_TIMEOUT" default:"60s"`
}

// AuthConfig holds OAuth dialog settings.
type AuthConfig struct {
	AppID       string        `envconfig:"FACEBOOK_APP_ID" default:""`
	RedirectURI string        `envconfig:"FACEBOOK_REDIRECT_URI" default:"http://localhost:8080/auth/callback"`
	Scope       string        `envconfig:"FACEBOOK_SCOPE" default:"catalog_management,business_management"`
	DialogURL   string        `envconfig:"FACEBOOK_DIALOG_URL" default:"https://www.facebook.com"`
	StateTTL    time.Duration `envconfig:"AUTH_STATE_TTL" default:"10m"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// PostgresDSN returns the PostgreSQL connection string.
func (s *StoreConfig) PostgresDSN() string {
	port := s.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		s.User, s.Password, s.Host, port, s.Name, s.SSLMode)
}

// MySQLDSN returns the MySQL data source name.
func (s *StoreConfig) MySQLDSN() string {
	port := s.Port
	if port == 0 {
		port = 3306
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		s.User, s.Password, s.Host, port, s.Name)
}

// RedisAddress returns the Redis address in host:port format.
func (s *StoreConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", s.RedisHost, s.RedisPort)
}

var storeTypes = map[string]bool{
	"memory": true, "redis": true, "sqlite": true,
	"mysql": true, "postgres": true, "postgresql": true,
	"mongodb": true, "mongo": true,
}

// Validate checks the loaded values and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !storeTypes[strings.ToLower(c.Store.Type)] {
		errs = append(errs, fmt.Sprintf("STORE_TYPE %q is not supported", c.Store.Type))
	}
	if c.App.MaxUploadBytes <= 0 {
		errs = append(errs, "APP_MAX_UPLOAD_BYTES must be positive")
	}
	if c.Catalog.MaxItems < 1 {
		errs = append(errs, "CATALOG_MAX_ITEMS must be at least 1")
	}
	if c.Catalog.MaxBatchBytes < 1 {
		errs = append(errs, "CATALOG_MAX_BATCH_BYTES must be at least 1")
	}
	if c.Catalog.BatchInterval < 0 {
		errs = append(errs, "CATALOG_BATCH_INTERVAL cannot be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
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
