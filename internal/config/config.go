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
	Server  ServerConfig
	App     AppConfig
	LocalDB LocalDBConfig
	Remote  RemoteConfig
	Cache   CacheConfig
	Events  EventsConfig
	Auth    AuthConfig
	Shell   ShellConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"127.0.0.1"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name           string `envconfig:"APP_NAME" default:"loyalty-wallet"`
	Environment    string `envconfig:"APP_ENV" default:"development"`
	Debug          bool   `envconfig:"APP_DEBUG" default:"false"`
	Version        string `envconfig:"APP_VERSION" default:"1.0.0"`
	DefaultCountry string `envconfig:"APP_DEFAULT_COUNTRY" default:"NL"`
}

// LocalDBConfig holds the on-device card store settings.
type LocalDBConfig struct {
	Path string `envconfig:"LOCAL_DB_PATH" default:"./data/wallet.db"`
}

// RemoteConfig selects and configures the remote card store.
type RemoteConfig struct {
	Type string `envconfig:"REMOTE_TYPE" default:"none"` // none, memory, postgres, mysql, mongodb, rest

	// PostgreSQL / MySQL
	Host     string `envconfig:"REMOTE_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"REMOTE_DB_PORT" default:"5432"`
	Name     string `envconfig:"REMOTE_DB_NAME" default:"wallet"`
	User     string `envconfig:"REMOTE_DB_USER" default:"postgres"`
	Password string `envconfig:"REMOTE_DB_PASS" default:""`
	SSLMode  string `envconfig:"REMOTE_DB_SSLMODE" default:"disable"`

	// MongoDB
	MongoURI        string `envconfig:"MONGODB_URI" default:""`
	MongoDatabase   string `envconfig:"MONGODB_DATABASE" default:"wallet"`
	MongoCollection string `envconfig:"MONGODB_COLLECTION" default:"cards"`

	// Hosted REST backend
	RESTURL        string        `envconfig:"REMOTE_REST_URL" default:""`
	RESTAnonKey    string        `envconfig:"REMOTE_REST_ANON_KEY" default:""`
	RESTServiceKey string        `envconfig:"REMOTE_REST_SERVICE_KEY" default:""` // sent as the bearer token
	RESTTimeout    time.Duration `envconfig:"REMOTE_REST_TIMEOUT" default:"15s"`
}

// CacheConfig holds session and latch cache settings.
type CacheConfig struct {
	Type string `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix     string `envconfig:"CACHE_KEY_PREFIX" default:"wallet:"`
}

// EventsConfig selects the identity and sync event bus.
type EventsConfig struct {
	Type          string `envconfig:"EVENTS_TYPE" default:"local"` // local or nats
	NATSURL       string `envconfig:"NATS_URL" default:"nats://localhost:4222"`
	NATSToken     string `envconfig:"NATS_TOKEN" default:""`
	SubjectPrefix string `envconfig:"NATS_SUBJECT_PREFIX" default:"wallet"`
}

// AuthConfig holds magic link sign-in settings.
type AuthConfig struct {
	LinkBaseURL string        `envconfig:"AUTH_LINK_BASE_URL" default:"http://127.0.0.1:8080/"`
	CodeTTL     time.Duration `envconfig:"AUTH_CODE_TTL" default:"15m"`
	SessionTTL  time.Duration `envconfig:"AUTH_SESSION_TTL" default:"720h"`
	RateLimit   int           `envconfig:"AUTH_RATE_LIMIT" default:"10"` // sign-in requests per minute per IP
	SyncLatch   time.Duration `envconfig:"SYNC_LATCH_TTL" default:"2m"`
}

// ShellConfig holds the offline web shell settings.
type ShellConfig struct {
	CacheVersion string   `envconfig:"SHELL_CACHE_VERSION" default:"v1"`
	StaticDir    string   `envconfig:"SHELL_STATIC_DIR" default:"./static"`
	Assets       []string `envconfig:"SHELL_ASSETS" default:"/,/manifest.json,/service-worker.js,/icons/icon-192.png,/icons/icon-512.png"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresDSN returns the PostgreSQL connection string.
func (r *RemoteConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		r.User, r.Password, r.Host, r.Port, r.Name, r.SSLMode)
}

// MySQLDSN returns the MySQL data source name.
func (r *RemoteConfig) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		r.User, r.Password, r.Host, r.Port, r.Name)
}

// Enabled reports whether a remote store is configured.
func (r *RemoteConfig) Enabled() bool {
	return r.Type != "" && r.Type != "none"
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// Validate checks cross-field constraints that envconfig cannot express.
func (c *Config) Validate() error {
	switch c.Remote.Type {
	case "", "none", "memory", "postgres", "postgresql", "mysql", "mongodb", "mongo":
	case "rest":
		if c.Remote.RESTURL == "" {
			return fmt.Errorf("REMOTE_REST_URL is required when REMOTE_TYPE=rest")
		}
		if c.Remote.RESTServiceKey == "" {
			return fmt.Errorf("REMOTE_REST_SERVICE_KEY is required when REMOTE_TYPE=rest")
		}
	default:
		return fmt.Errorf("unknown REMOTE_TYPE %q", c.Remote.Type)
	}
	if (c.Remote.Type == "mongodb" || c.Remote.Type == "mongo") && c.Remote.MongoURI == "" {
		return fmt.Errorf("MONGODB_URI is required when REMOTE_TYPE=%s", c.Remote.Type)
	}
	if len(c.App.DefaultCountry) != 2 {
		return fmt.Errorf("APP_DEFAULT_COUNTRY must be a 2-letter code, got %q", c.App.DefaultCountry)
	}
	if c.Shell.CacheVersion == "" {
		return fmt.Errorf("SHELL_CACHE_VERSION must not be empty")
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
		return nil, fmt.Errorf("invalid config: %w", err)
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
