package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Server    ServerConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Env       string
	// host of the web client, used in invitation links
	ApplicationURL string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	URL string
}

type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// RateLimitConfig holds requests per minute.
type RateLimitConfig struct {
	Auth int
	API  int
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "24h"))
	if err != nil {
		return nil, errors.New("invalid JWT_TTL: " + err.Error())
	}

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", ""),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "begreen"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			TTL:    ttl,
		},
		RateLimit: RateLimitConfig{
			Auth: getEnvInt("RATE_LIMIT_AUTH", 20),
			API:  getEnvInt("RATE_LIMIT_API", 300),
		},
		Env:            getEnv("APP_ENV", "development"),
		ApplicationURL: getEnv("APPLICATION_URL", "begreen.software-engineering.education"),
	}

	return config, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		if c.Env != "development" {
			return errors.New("JWT_SECRET must be set outside development")
		}
		c.JWT.Secret = "begreen-development-secret"
	}
	if c.JWT.TTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
