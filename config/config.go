package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	Port               string
	GoEnv              string
	LogLevel           string
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	SessionCookieName  string
	SessionTTL         time.Duration
	RedisAddr          string
	RedisPassword      string
	OTPMode            string
	OTPTTL             time.Duration
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSS3PublicURL     string
	CORSAllowedOrigins []string
}

var current *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			// In production environment variables are set directly
			zlog.Debug().Msg("no .env file found, using system environment variables")
		}
	} else {
		zlog.Info().Str("file", envFile).Msg("loaded configuration")
	}

	cfg := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Port:               getEnv("PORT", "8080"),
		GoEnv:              getEnv("GO_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTIssuer:          getEnv("JWT_ISSUER", "saree-storefront"),
		JWTAudience:        getEnv("JWT_AUDIENCE", "saree-storefront-api"),
		SessionCookieName:  getEnv("SESSION_COOKIE_NAME", "session"),
		SessionTTL:         getDuration("SESSION_TTL", 30*24*time.Hour),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		OTPMode:            strings.ToLower(getEnv("OTP_MODE", "stub")),
		OTPTTL:             getDuration("OTP_TTL", 5*time.Minute),
		AWSRegion:          getEnv("AWS_REGION", "ap-south-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSS3PublicURL:     getEnv("AWS_S3_PUBLIC_URL", ""),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	// Development and test runs fall back to a fixed signing secret
	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = "dev-only-secret-change-me"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	current = cfg
	return cfg, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" && !c.IsTest() {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.OTPMode != "stub" && c.OTPMode != "redis" {
		return fmt.Errorf("OTP_MODE must be 'stub' or 'redis', got %q", c.OTPMode)
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// GetConfig returns the configuration loaded by the last successful Load call
func GetConfig() *Config {
	return current
}

// SetConfig replaces the process-wide configuration (primarily for testing)
func SetConfig(cfg *Config) {
	current = cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		zlog.Warn().Str("key", key).Str("value", raw).Msg("invalid duration, using default")
		return defaultValue
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
