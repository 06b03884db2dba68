package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds application configuration
type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis mirror of consistency records, disabled when the address is empty
	RedisAddress  string
	RedisPassword string
	RedisDatabase int

	// Fare policy YAML, built-in defaults when empty
	FarePolicyFile string

	// Logging
	LogFormat string
	Debug     bool

	// Server
	ServerPort string
}

// Load loads configuration from environment variables
func Load() *Config {
	// Try to load .env file (optional for local development)
	_ = godotenv.Load()

	config := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "trainpass123"),
		DBName:     getEnv("DB_NAME", "trainreservations"),

		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDatabase: getEnvInt("REDIS_DATABASE", 0),

		FarePolicyFile: os.Getenv("FARE_POLICY_FILE"),

		LogFormat: getEnv("LOG_FORMAT", "CONSOLE"),
		Debug:     os.Getenv("DEBUG") == "YES",

		ServerPort: getEnv("SERVER_PORT", "8080"),
	}

	if config.FarePolicyFile == "" {
		log.Info().Msg("FARE_POLICY_FILE not set, using built-in fare policy")
	}
	if config.RedisAddress == "" {
		log.Info().Msg("REDIS_ADDRESS not set, consistency records stay in process")
	}

	return config
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non numeric environment value")
	}
	return defaultValue
}
