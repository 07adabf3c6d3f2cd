// Package config loads server configuration from an optional YAML file with
// environment variables taking precedence. Load collects every problem
// instead of stopping at the first one.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	pstrings "avd/pkg/platform/strings"
)

type Config struct {
	Server    Server
	Database  Database
	Redis     RedisConfig
	Kafka     Kafka
	Auth      Auth
	RateLimit RateLimit
	Audit     Audit
	Log       Log
}

type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Database is optional; an empty URL runs the in-memory stores.
type Database struct {
	URL string
}

// RedisConfig is optional; an empty URL keeps rate limiting in process.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka enables the audit fan-out sink when Brokers is set.
type Kafka struct {
	Brokers []string
	Topic   string
}

type Auth struct {
	JWTSigningKey string
	Issuer        string
	Audience      string
}

type RateLimit struct {
	MaxRequests   int
	Window        time.Duration
	IdleWindows   int
	MaxKeys       int
	SweepInterval time.Duration
}

type Audit struct {
	Timeout time.Duration
}

type Log struct {
	Level  string
	Format string
}

const (
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultKafkaTopic      = "avd.audit"
	DefaultIssuer          = "avd"
	DefaultAudience        = "avd-api"
	DefaultMaxRequests     = 100
	DefaultWindow          = time.Minute
	DefaultIdleWindows     = 2
	DefaultMaxKeys         = 100_000
	DefaultSweepInterval   = time.Minute
	DefaultAuditTimeout    = 2 * time.Second
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"

	// devSigningKey is accepted only when AVD_ENV is not production.
	devSigningKey = "dev-secret-key-change-in-production"
)

var (
	ErrMissingSigningKey = errors.New("AVD_JWT_SIGNING_KEY is required in production")
	ErrInvalidLogLevel   = errors.New("log level must be one of debug, info, warn, error")
	ErrInvalidLogFormat  = errors.New("log format must be json or text")
)

// Load reads path (if not empty) and then the environment.
func Load(path string) (*Config, []error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("load config file %s: %w", path, err)}
		}
	}

	var errs []error
	intVal := func(env, key string, def int) int {
		v, err := envInt(env, k, key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	durVal := func(env, key string, def time.Duration) time.Duration {
		v, err := envDuration(env, k, key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	production := envString("AVD_ENV", k, "env", "development") == "production"

	cfg := &Config{
		Server: Server{
			Addr:            envString("AVD_ADDR", k, "server.addr", DefaultAddr),
			ShutdownTimeout: durVal("AVD_SHUTDOWN_TIMEOUT", "server.shutdown_timeout", DefaultShutdownTimeout),
		},
		Database: Database{
			URL: envString("DATABASE_URL", k, "database.url", ""),
		},
		Redis: RedisConfig{
			URL:          envString("REDIS_URL", k, "redis.url", ""),
			PoolSize:     intVal("REDIS_POOL_SIZE", "redis.pool_size", 10),
			MinIdleConns: intVal("REDIS_MIN_IDLE_CONNS", "redis.min_idle_conns", 2),
			DialTimeout:  durVal("REDIS_DIAL_TIMEOUT", "redis.dial_timeout", 5*time.Second),
			ReadTimeout:  durVal("REDIS_READ_TIMEOUT", "redis.read_timeout", 3*time.Second),
			WriteTimeout: durVal("REDIS_WRITE_TIMEOUT", "redis.write_timeout", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers: envList("KAFKA_BROKERS", k, "kafka.brokers"),
			Topic:   envString("KAFKA_AUDIT_TOPIC", k, "kafka.topic", DefaultKafkaTopic),
		},
		Auth: Auth{
			JWTSigningKey: envString("AVD_JWT_SIGNING_KEY", k, "auth.jwt_signing_key", ""),
			Issuer:        envString("AVD_JWT_ISSUER", k, "auth.issuer", DefaultIssuer),
			Audience:      envString("AVD_JWT_AUDIENCE", k, "auth.audience", DefaultAudience),
		},
		RateLimit: RateLimit{
			MaxRequests:   intVal("AVD_RATELIMIT_MAX_REQUESTS", "ratelimit.max_requests", DefaultMaxRequests),
			Window:        durVal("AVD_RATELIMIT_WINDOW", "ratelimit.window", DefaultWindow),
			IdleWindows:   intVal("AVD_RATELIMIT_IDLE_WINDOWS", "ratelimit.idle_windows", DefaultIdleWindows),
			MaxKeys:       intVal("AVD_RATELIMIT_MAX_KEYS", "ratelimit.max_keys", DefaultMaxKeys),
			SweepInterval: durVal("AVD_RATELIMIT_SWEEP_INTERVAL", "ratelimit.sweep_interval", DefaultSweepInterval),
		},
		Audit: Audit{
			Timeout: durVal("AVD_AUDIT_TIMEOUT", "audit.timeout", DefaultAuditTimeout),
		},
		Log: Log{
			Level:  strings.ToLower(envString("AVD_LOG_LEVEL", k, "log.level", DefaultLogLevel)),
			Format: strings.ToLower(envString("AVD_LOG_FORMAT", k, "log.format", DefaultLogFormat)),
		},
	}

	if cfg.Auth.JWTSigningKey == "" {
		if production {
			errs = append(errs, ErrMissingSigningKey)
		} else {
			cfg.Auth.JWTSigningKey = devSigningKey
		}
	}
	errs = append(errs, cfg.Validate()...)
	return cfg, errs
}

// Validate reports every invalid setting.
func (c *Config) Validate() []error {
	var errs []error
	if c.RateLimit.MaxRequests < 0 {
		errs = append(errs, errors.New("rate limit max requests must not be negative"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate limit window must be positive"))
	}
	if c.RateLimit.IdleWindows < 1 {
		errs = append(errs, errors.New("rate limit idle windows must be at least 1"))
	}
	if c.RateLimit.SweepInterval <= 0 {
		errs = append(errs, errors.New("rate limit sweep interval must be positive"))
	}
	if c.Audit.Timeout <= 0 {
		errs = append(errs, errors.New("audit timeout must be positive"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ErrInvalidLogLevel)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, ErrInvalidLogFormat)
	}
	return errs
}

func envString(env string, k *koanf.Koanf, key, def string) string {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		return v
	}
	if v := k.String(key); v != "" {
		return v
	}
	return def
}

func envInt(env string, k *koanf.Koanf, key string, def int) (int, error) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return def, fmt.Errorf("%s must be an integer: %w", env, err)
		}
		return n, nil
	}
	if k.Exists(key) {
		return k.Int(key), nil
	}
	return def, nil
}

// envDuration accepts Go duration strings ("30s", "2m").
func envDuration(env string, k *koanf.Koanf, key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(env))
	source := env
	if raw == "" && k.Exists(key) {
		raw = k.String(key)
		source = key
	}
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def, fmt.Errorf("%s must be a duration: %w", source, err)
	}
	return d, nil
}

// envList splits a comma-separated variable, falling back to a YAML list.
func envList(env string, k *koanf.Koanf, key string) []string {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		return pstrings.SplitList(v)
	}
	return pstrings.SplitList(k.Strings(key)...)
}
