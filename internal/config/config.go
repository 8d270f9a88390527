package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Environment        string
	LogLevel           zerolog.Level
	HTTPAddr           string
	HTTPTimeout        time.Duration
	DatabasePath       string
	SecretKey          string
	AccessTokenTTL     time.Duration
	AllowedHosts       []string
	NearbyStrictErrors bool
	UserStore          string
	UsersTable         string
	DynamoDBEndpoint   string
	AWSEndpoint        string
	RedisAddr          string
	Version            string
}

type Option func(*Config)

// WithEnvironment allows setting the environment
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithLogLevel allows setting the log level
func WithLogLevel(level string) Option {
	return func(c *Config) {
		parsedLevel, err := zerolog.ParseLevel(level)
		if err != nil {
			parsedLevel = zerolog.InfoLevel
		}
		c.LogLevel = parsedLevel
	}
}

// WithHTTPAddr sets the address the API server listens on
func WithHTTPAddr(addr string) Option {
	return func(c *Config) {
		c.HTTPAddr = addr
	}
}

// WithHTTPTimeout sets the read and write timeout of the HTTP server.
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HTTPTimeout = timeout
	}
}

func WithDatabasePath(path string) Option {
	return func(c *Config) {
		c.DatabasePath = path
	}
}

func WithSecretKey(key string) Option {
	return func(c *Config) {
		c.SecretKey = key
	}
}

func WithAccessTokenTTL(ttl time.Duration) Option {
	return func(c *Config) {
		c.AccessTokenTTL = ttl
	}
}

// WithAllowedHosts sets the CORS origins from a comma separated list
func WithAllowedHosts(hosts string) Option {
	return func(c *Config) {
		c.AllowedHosts = splitList(hosts)
	}
}

// WithNearbyStrictErrors makes the nearby endpoint answer 503 instead of an
// empty list when candidate stations cannot be loaded.
func WithNearbyStrictErrors(strict bool) Option {
	return func(c *Config) {
		c.NearbyStrictErrors = strict
	}
}

// WithUserStore selects where accounts live: "sql" or "dynamo"
func WithUserStore(store string) Option {
	return func(c *Config) {
		c.UserStore = strings.ToLower(store)
	}
}

func WithUsersTable(table string) Option {
	return func(c *Config) {
		c.UsersTable = table
	}
}

func WithDynamoDBEndpoint(endpoint string) Option {
	return func(c *Config) {
		c.DynamoDBEndpoint = endpoint
	}
}

func WithAWSEndpoint(endpoint string) Option {
	return func(c *Config) {
		c.AWSEndpoint = endpoint
	}
}

func WithRedisAddr(addr string) Option {
	return func(c *Config) {
		c.RedisAddr = addr
	}
}

func WithVersion(version string) Option {
	return func(c *Config) {
		c.Version = version
	}
}

// New creates a new configuration with default values
func New(opts ...Option) *Config {
	cfg := &Config{
		Environment:    "production",
		LogLevel:       zerolog.InfoLevel,
		HTTPAddr:       ":8000",
		HTTPTimeout:    10 * time.Second,
		DatabasePath:   "data/ev_app.duckdb",
		SecretKey:      "your-secret-key-change-this",
		AccessTokenTTL: 30 * time.Minute,
		AllowedHosts:   []string{"http://localhost:3000"},
		UserStore:      "sql",
		UsersTable:     "ev-users",
		Version:        "1.0.0",
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// IsLocal reports whether the service runs on a developer machine
func (c *Config) IsLocal() bool {
	return c.Environment == "local" || c.Environment == "development"
}

// InitializeLogging sets up logging based on the configuration
func (c *Config) InitializeLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(c.LogLevel)

	// Setup console logger for development environments
	if c.IsLocal() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
		return
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	return New(
		WithEnvironment(getEnvOrDefault("ENV", "production")),
		WithLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
		WithHTTPAddr(getEnvOrDefault("HTTP_ADDR", ":8000")),
		WithHTTPTimeout(getDurationEnvOrDefault("HTTP_TIMEOUT", 10*time.Second)),
		WithDatabasePath(getEnvOrDefault("DATABASE_PATH", "data/ev_app.duckdb")),
		WithSecretKey(getEnvOrDefault("SECRET_KEY", "your-secret-key-change-this")),
		WithAccessTokenTTL(time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30))*time.Minute),
		WithAllowedHosts(getEnvOrDefault("ALLOWED_HOSTS", "http://localhost:3000")),
		WithNearbyStrictErrors(getEnvBool("NEARBY_STRICT_ERRORS", false)),
		WithUserStore(getEnvOrDefault("USER_STORE", "sql")),
		WithUsersTable(getEnvOrDefault("DYNAMODB_USERS_TABLE", "ev-users")),
		WithDynamoDBEndpoint(os.Getenv("DYNAMODB_ENDPOINT")),
		WithAWSEndpoint(os.Getenv("AWS_ENDPOINT_URL")),
		WithRedisAddr(os.Getenv("REDIS_ADDR")),
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultVal int) int {
	if val, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Msg("Invalid integer value in environment variable, using default")
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val, exists := os.LookupEnv(key); exists {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
