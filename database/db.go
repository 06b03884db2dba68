package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"train-reservation/config"
)

var DB *sql.DB

const (
	connectAttempts = 30
	connectInterval = 2 * time.Second
)

// ConnectionString builds the lib/pq DSN from configuration
func ConnectionString(cfg *config.Config) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)
}

// Connect establishes a connection to the PostgreSQL database
func Connect(cfg *config.Config) error {
	var err error
	DB, err = sql.Open("postgres", ConnectionString(cfg))
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}

	// Configure connection pool
	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(5)
	DB.SetConnMaxLifetime(5 * time.Minute)

	// The database container may still be starting, keep pinging for a while
	attempt := 0
	retry := backoff.WithMaxRetries(backoff.NewConstantBackOff(connectInterval), connectAttempts-1)
	err = backoff.Retry(func() error {
		attempt++
		pingErr := DB.Ping()
		if pingErr != nil {
			log.Warn().Err(pingErr).Int("attempt", attempt).Int("max", connectAttempts).Msg("Failed to connect to database")
		}
		return pingErr
	}, retry)
	if err != nil {
		return fmt.Errorf("failed to connect to database after %d attempts: %w", attempt, err)
	}

	log.Info().Str("host", cfg.DBHost).Str("database", cfg.DBName).Msg("Successfully connected to database")
	return nil
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// GetDB returns the database connection
func GetDB() *sql.DB {
	return DB
}
