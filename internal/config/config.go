package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"

	minJWTSecretLength = 32
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	HTTPPort        string
	StoreBackend    string
	MongoURI        string
	MongoDBName     string
	RedisAddr       string
	RedisPassword   string
	KafkaBrokers    []string
	KafkaTopic      string
	DatabaseURL     string
	JWTSecret       string
	JWTExpiry       time.Duration
	SMTPHost        string
	SMTPPort        string
	SMTPFrom        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AdminEmail      string
	AdminPassword   string
}

// Load reads the configuration from environment variables. Optional
// backends are disabled by leaving their address empty.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:      getEnv("HTTP_PORT", "8080"),
		StoreBackend:  strings.ToLower(getEnv("STORE_BACKEND", BackendMongo)),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:   getEnv("MONGO_DB_NAME", "ec_store"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		KafkaBrokers:  splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "order-events"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		SMTPHost:      getEnv("SMTP_HOST", "localhost"),
		SMTPPort:      getEnv("SMTP_PORT", "1025"),
		SMTPFrom:      getEnv("SMTP_FROM", "noreply@example.com"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	var err error
	if cfg.JWTExpiry, err = getDuration("JWT_EXPIRY", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		return nil, fmt.Errorf("%w: HTTP_PORT %q is not a number", ErrInvalidConfig, cfg.HTTPPort)
	}

	switch cfg.StoreBackend {
	case BackendMongo, BackendMemory:
	default:
		return nil, fmt.Errorf("%w: STORE_BACKEND must be %q or %q, got %q", ErrInvalidConfig, BackendMongo, BackendMemory, cfg.StoreBackend)
	}

	return cfg, nil
}

// ValidateJWT is required by binaries that issue or verify tokens.
func (c *Config) ValidateJWT() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("%w: JWT_SECRET environment variable is required", ErrInvalidConfig)
	}
	if len(c.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("%w: JWT_SECRET must be at least %d characters long", ErrInvalidConfig, minJWTSecretLength)
	}
	return nil
}

func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

func (c *Config) Addr() string { return ":" + c.HTTPPort }

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive duration, got %q", ErrInvalidConfig, key, value)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
