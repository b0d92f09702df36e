package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application level configuration loaded from environment variables.
// It is constructed once in main and passed by reference into every component
// that needs it.
type Config struct {
	ServerPort       string
	DBFile           string
	JWTSecret        string
	JWTAlgorithm     string
	JWTExpiresMin    int
	DSPBaseURL       string
	DSPTimeoutSec    int
	CORSAllowOrigins string
	SwaggerHost      string
}

// Load builds Config from environment with sensible defaults.
func Load() *Config {
	return &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		DBFile:           getEnv("DB_FILE", "dsp.db"),
		JWTSecret:        getEnv("JWT_SECRET", "change-me-in-env"),
		JWTAlgorithm:     getEnv("JWT_ALG", "HS256"),
		JWTExpiresMin:    getEnvInt("JWT_EXPIRES_MIN", 60),
		DSPBaseURL:       getEnv("DSP_INTERNAL_BASE", "http://10.45.30.64"),
		DSPTimeoutSec:    getEnvInt("DSP_TIMEOUT_SEC", 30),
		CORSAllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
		SwaggerHost:      os.Getenv("SWAGGER_HOST"),
	}
}

// JWTExpiry returns the access token lifetime.
func (c *Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpiresMin) * time.Minute
}

// DSPTimeout returns the upstream call deadline.
func (c *Config) DSPTimeout() time.Duration {
	return time.Duration(c.DSPTimeoutSec) * time.Second
}

// AllowOrigins parses the comma-separated CORS origins list.
func (c *Config) AllowOrigins() []string {
	parts := strings.Split(c.CORSAllowOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}
