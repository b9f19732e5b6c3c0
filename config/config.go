package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	API     APIConfig
	Session SessionConfig
	Redis   RedisConfig
	App     AppConfig
}

type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

// APIConfig describes the upstream bug-tracker REST API.
type APIConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RateLimit         float64 // requests per second, 0 disables the limiter
	RateBurst         int
	FanOutConcurrency int
}

type SessionConfig struct {
	CookieName   string
	CookieSecure bool
	IdleTTL      time.Duration
}

// RedisConfig is optional. An empty Addr keeps notifications in memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:8080"}),
		},
		API: APIConfig{
			BaseURL:           strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:5000/api"), "/"),
			Timeout:           getEnvAsDuration("API_TIMEOUT", 15*time.Second),
			RateLimit:         getEnvAsFloat("API_RATE_LIMIT", 20),
			RateBurst:         getEnvAsInt("API_RATE_BURST", 40),
			FanOutConcurrency: getEnvAsInt("FANOUT_CONCURRENCY", 8),
		},
		Session: SessionConfig{
			CookieName:   getEnv("SESSION_COOKIE", "token"),
			CookieSecure: getEnvAsBool("COOKIE_SECURE", false),
			IdleTTL:      getEnvAsDuration("SESSION_IDLE_TTL", 2*time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}

	if c.Session.CookieName == "" {
		return fmt.Errorf("SESSION_COOKIE must not be empty")
	}

	if c.API.FanOutConcurrency < 1 {
		return fmt.Errorf("FANOUT_CONCURRENCY must be at least 1")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
