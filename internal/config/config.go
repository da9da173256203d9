package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverSQLite   = "sqlite"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	Timezone    string
	HTTP        HTTPConfig
	Storage     StorageConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Session     SessionConfig
	Buffer      BufferConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
	Progress    ProgressConfig
}

type HTTPConfig struct {
	Host          string
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	MaxConn       int
	EnablePprof   bool
	EnableMetrics bool
}

// StorageConfig selects the relational backend for tasks and aggregates.
type StorageConfig struct {
	Driver     string
	SQLitePath string
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
	SlowQuery       time.Duration
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type SessionConfig struct {
	TTL time.Duration
}

// ProgressConfig controls the Redis cache in front of the 7-day window.
type ProgressConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// BufferConfig controls the BoltDB queue of writes made while the store is down.
type BufferConfig struct {
	Path         string
	MaxSize      int
	Retention    time.Duration
	SyncInterval time.Duration
	MaxRetry     int
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

// Load reads configuration from environment variables, optionally seeded from .env.
// Unset variables take their defaults; malformed ones are reported together.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	env := &envReader{}
	cfg := &Config{
		AppName:     env.String("APP_NAME", "questboard"),
		Environment: env.String("APP_ENV", "development"),
		Timezone:    env.String("APP_TIMEZONE", "UTC"),
		HTTP: HTTPConfig{
			Host:          env.String("SERVER_HOST", "0.0.0.0"),
			Port:          env.String("SERVER_PORT", "8080"),
			ReadTimeout:   env.Duration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:  env.Duration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:   env.Duration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:       env.Int("SERVER_MAX_CONN", 0),
			EnablePprof:   env.Bool("SERVER_ENABLE_PPROF", false),
			EnableMetrics: env.Bool("SERVER_ENABLE_METRICS", true),
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(env.String("STORAGE_DRIVER", StorageDriverPostgres)),
			SQLitePath: env.String("SQLITE_PATH", "./data/questboard.db"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            env.String("DB_HOST", "localhost"),
			Port:            env.String("DB_PORT", "5432"),
			Name:            env.String("DB_NAME", "questboard"),
			User:            env.String("DB_USER", "questboard"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    env.Int("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    env.Int("DB_MAX_IDLE_CONNS", 10),
			MaxConnLifetime: env.Duration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         env.String("DB_SSLMODE", "disable"),
			SlowQuery:       env.Duration("DB_SLOW_QUERY", 200*time.Millisecond),
		},
		Redis: RedisConfig{
			URL:      env.String("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       env.Int("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: env.String("JWT_ISSUER", "questboard"),
		},
		Session: SessionConfig{
			TTL: env.Duration("SESSION_TTL", time.Hour),
		},
		Buffer: BufferConfig{
			Path:         env.String("BOLTDB_PATH", "./data/buffer.db"),
			MaxSize:      env.Int("BUFFER_MAX_SIZE", 1_000_000),
			Retention:    time.Duration(env.Int("BUFFER_RETENTION_HOURS", 24)) * time.Hour,
			SyncInterval: env.Duration("SYNC_INTERVAL_SECONDS", 30*time.Second),
			MaxRetry:     env.Int("MAX_RETRY_ATTEMPTS", 3),
		},
		Context: ContextConfig{
			RequestTimeout:  env.Duration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: env.Duration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    strings.ToLower(env.String("LOG_LEVEL", "info")),
			Encoding: strings.ToLower(env.String("LOG_ENCODING", "json")),
		},
		Migrations: MigrationsConfig{
			Enabled: env.Bool("RUN_MIGRATIONS", true),
			Path:    env.String("MIGRATIONS_PATH", "./assets/migrations"),
		},
		Progress: ProgressConfig{
			CacheEnabled: env.Bool("PROGRESS_CACHE_ENABLED", true),
			CacheTTL:     env.Duration("PROGRESS_CACHE_TTL", 5*time.Minute),
		},
	}
	if err := env.Err(); err != nil {
		return nil, err
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = cfg.Database.postgresURL()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with, reporting every problem at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case StorageDriverPostgres:
	case StorageDriverSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.Timezone, err))
	}
	if c.JWT.Secret == "" && c.Environment == "production" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	if c.Buffer.SyncInterval < 0 || c.Buffer.Retention < 0 || c.Buffer.MaxRetry < 0 {
		errs = append(errs, errors.New("buffer intervals and retry counts must not be negative"))
	}
	switch c.Logger.Encoding {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unsupported LOG_ENCODING %q", c.Logger.Encoding))
	}
	return errors.Join(errs...)
}

// Location returns the time zone that defines calendar days for rewards.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return net.JoinHostPort(c.HTTP.Host, c.HTTP.Port)
}

func (d DatabaseConfig) postgresURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// envReader reads typed variables and remembers every value it could not parse.
type envReader struct {
	errs []error
}

func (r *envReader) String(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func (r *envReader) Int(key string, fallback int) int {
	val := r.String(key, "")
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not an integer", key, val))
		return fallback
	}
	return parsed
}

func (r *envReader) Bool(key string, fallback bool) bool {
	val := r.String(key, "")
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not a boolean", key, val))
		return fallback
	}
	return parsed
}

// Duration accepts Go duration syntax or a bare number of seconds.
func (r *envReader) Duration(key string, fallback time.Duration) time.Duration {
	val := r.String(key, "")
	if val == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(val); err == nil {
		return parsed
	}
	if seconds, err := strconv.Atoi(val); err == nil {
		return time.Duration(seconds) * time.Second
	}
	r.errs = append(r.errs, fmt.Errorf("%s: %q is not a duration", key, val))
	return fallback
}

func (r *envReader) Err() error {
	return errors.Join(r.errs...)
}
