package database

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// schema is applied in order; every statement is idempotent
var schema = []string{
	`CREATE TABLE IF NOT EXISTS stations (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		city TEXT NOT NULL,
		code TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS trains (
		id SERIAL PRIMARY KEY,
		number TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'Express'
	)`,
	`CREATE TABLE IF NOT EXISTS train_running_days (
		train_id INT NOT NULL REFERENCES trains(id) ON DELETE CASCADE,
		day_of_week SMALLINT NOT NULL CHECK (day_of_week BETWEEN 0 AND 6),
		PRIMARY KEY (train_id, day_of_week)
	)`,
	`CREATE TABLE IF NOT EXISTS train_stops (
		train_id INT NOT NULL REFERENCES trains(id) ON DELETE CASCADE,
		station_id INT NOT NULL REFERENCES stations(id),
		sequence_order INT NOT NULL,
		day_number INT NOT NULL DEFAULT 1 CHECK (day_number >= 1),
		arrival_time TIME,
		departure_time TIME,
		PRIMARY KEY (train_id, sequence_order),
		UNIQUE (train_id, station_id)
	)`,
	`CREATE TABLE IF NOT EXISTS train_class_seats (
		train_id INT NOT NULL REFERENCES trains(id) ON DELETE CASCADE,
		travel_class TEXT NOT NULL,
		total_seats INT NOT NULL CHECK (total_seats >= 0),
		PRIMARY KEY (train_id, travel_class)
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id SERIAL PRIMARY KEY,
		booking_ref TEXT NOT NULL UNIQUE,
		train_id INT NOT NULL REFERENCES trains(id),
		origin_id INT NOT NULL REFERENCES stations(id),
		destination_id INT NOT NULL REFERENCES stations(id),
		travel_date DATE NOT NULL,
		travel_class TEXT NOT NULL,
		passenger_count INT NOT NULL,
		fare_per_passenger NUMERIC(12,4) NOT NULL,
		convenience_fee NUMERIC(12,2) NOT NULL,
		total_amount NUMERIC(12,2) NOT NULL,
		distance_km INT NOT NULL,
		departure_time TEXT NOT NULL,
		arrival_time TEXT NOT NULL,
		duration TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'confirmed',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS bookings_train_date_idx ON bookings (train_id, travel_date, travel_class)`,
	`CREATE TABLE IF NOT EXISTS passengers (
		id SERIAL PRIMARY KEY,
		booking_id INT NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		age INT NOT NULL CHECK (age BETWEEN 1 AND 120),
		gender TEXT NOT NULL,
		seat_number TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id SERIAL PRIMARY KEY,
		booking_id INT NOT NULL UNIQUE REFERENCES bookings(id),
		transaction_id UUID NOT NULL UNIQUE,
		method TEXT NOT NULL,
		amount NUMERIC(12,2) NOT NULL,
		paid_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// RunMigrations ensures all required tables exist
// Note: In production, use a proper migration tool
func RunMigrations(db *sql.DB) error {
	log.Info().Msg("Checking database schema...")

	for i, statement := range schema {
		if _, err := db.Exec(statement); err != nil {
			return fmt.Errorf("schema statement %d failed: %w", i+1, err)
		}
	}

	log.Info().Int("statements", len(schema)).Msg("Database schema is up to date")
	return nil
}
