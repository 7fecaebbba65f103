package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DevJWTSecret is used when AUTH_JWT_SECRET is unset. It is only acceptable outside production.
const DevJWTSecret = "dev-insecure-secret-change-me"

// MinProductionSecretLen is the minimum secret length accepted in production.
const MinProductionSecretLen = 32

// ErrInsecureSecret is returned when production is configured with a missing, default or weak secret.
var ErrInsecureSecret = errors.New("insecure jwt secret for production")

// ErrInvalidCORSOrigin is returned when APP_CORS_ORIGINS holds an entry that is not scheme://host.
var ErrInvalidCORSOrigin = errors.New("invalid cors origin")

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Cache    CacheConfig
	Events   EventsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	// CORSOrigins lists origins allowed to call the API from a browser. Empty allows any.
	CORSOrigins []string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. Several Addrs select cluster mode and a
// MasterName selects sentinel failover; otherwise the first address is a single node.
type RedisConfig struct {
	Addrs      []string
	MasterName string
	Password   string
	DB         int
	PoolSize   int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	DefaultSecret         bool
	AccessTokenTTLMinutes int
	BcryptCost            int
	// SignupRoles restricts the roles a caller may self-assign at registration. Empty allows any.
	SignupRoles []string
}

// CacheConfig controls the Redis event cache.
type CacheConfig struct {
	EventsTTLSeconds int
}

// EventsConfig controls access to the events collection.
type EventsConfig struct {
	// WriteRoles restricts create/update/delete. Empty allows any authenticated caller.
	WriteRoles []string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	secret := os.Getenv("AUTH_JWT_SECRET")
	defaultSecret := secret == "" || secret == DevJWTSecret
	if secret == "" {
		secret = DevJWTSecret
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "event-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "5001"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			CORSOrigins:           getEnvAsList("APP_CORS_ORIGINS"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addrs:      getEnvAsListOr("REDIS_ADDR", []string{"127.0.0.1:6379"}),
			MasterName: os.Getenv("REDIS_MASTER_NAME"),
			Password:   os.Getenv("REDIS_PASSWORD"),
			DB:         redisDB,
			PoolSize:   getEnvAsInt("REDIS_POOL_SIZE", 0),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             secret,
			DefaultSecret:         defaultSecret,
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 10),
			SignupRoles:           getEnvAsList("AUTH_SIGNUP_ROLES"),
		},
		Cache: CacheConfig{
			EventsTTLSeconds: getEnvAsInt("CACHE_EVENTS_TTL_SECONDS", 60),
		},
		Events: EventsConfig{
			WriteRoles: getEnvAsList("EVENTS_WRITE_ROLES"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces settings that must hold before the service starts.
func (c *Config) Validate() error {
	for _, origin := range c.App.CORSOrigins {
		if origin == "*" {
			continue
		}
		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidCORSOrigin, origin)
		}
	}
	if !c.App.IsProduction() {
		return nil
	}
	if c.Auth.DefaultSecret || c.Auth.JWTSecret == "" {
		return fmt.Errorf("%w: AUTH_JWT_SECRET must be set", ErrInsecureSecret)
	}
	if len(c.Auth.JWTSecret) < MinProductionSecretLen {
		return fmt.Errorf("%w: AUTH_JWT_SECRET must be at least %d bytes", ErrInsecureSecret, MinProductionSecretLen)
	}
	return nil
}

// IsProduction reports whether the service runs in a production environment.
func (a AppConfig) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(a.Env))
	return env == "production" || env == "prod"
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the lifetime of issued access tokens.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	if a.AccessTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// EventsTTL returns the cache entry lifetime; zero disables caching.
func (c CacheConfig) EventsTTL() time.Duration {
	if c.EventsTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.EventsTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsListOr(key string, defaultVal []string) []string {
	if out := getEnvAsList(key); len(out) > 0 {
		return out
	}
	return defaultVal
}
