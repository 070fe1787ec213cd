package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Env          string
	Port         string
	StoreBackend string
	MongoURI     string
	MongoDB      string
	PostgresDSN  string
	StoreTimeout time.Duration
	JWTSecret    string
	CORSOrigins  []string
	LogLevel     string
	LogFormat    string
	PlaygroundOn bool
}

// devSecret is only accepted when APP_ENV=development.
const devSecret = "super-secret-key"

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Env:          getenv("APP_ENV", "production"),
		Port:         getenv("PORT", "8080"),
		StoreBackend: getenv("STORE_BACKEND", "mongo"),
		MongoURI:     getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      getenv("MONGO_DB", "myblogdb"),
		PostgresDSN:  getenv("POSTGRES_DSN", ""),
		StoreTimeout: getduration("STORE_TIMEOUT", 5*time.Second),
		JWTSecret:    getenv("JWT_SECRET", ""),
		CORSOrigins:  splitList(getenv("CORS_ORIGINS", "http://localhost:3000")),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogFormat:    getenv("LOG_FORMAT", "json"),
		PlaygroundOn: getbool("PLAYGROUND", true),
	}
	if cfg.JWTSecret == "" && cfg.Env == "development" {
		cfg.JWTSecret = devSecret
	}
	return cfg
}

// Validate reports configuration that would prevent the server from starting.
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case "mongo":
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo backend"))
		}
	case "postgres":
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required for the postgres backend"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getbool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getduration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
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
