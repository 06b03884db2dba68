package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"train-reservation/models"
	"train-reservation/pricing"
)

// TrainService reads and maintains stations, trains and their schedules
type TrainService struct {
	db *sql.DB
}

// NewTrainService creates a TrainService on the given connection
func NewTrainService(db *sql.DB) *TrainService {
	return &TrainService{db: db}
}

// SeatCount is the capacity and remaining seats of one class on one date
type SeatCount struct {
	Total     int
	Available int
}

// GetAllStations retrieves all stations for autocomplete
func (s *TrainService) GetAllStations(ctx context.Context) ([]models.Station, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, city, code
		FROM stations
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var station models.Station
		err := rows.Scan(&station.ID, &station.Name, &station.City, &station.Code)
		if err != nil {
			return nil, err
		}
		stations = append(stations, station)
	}

	return stations, rows.Err()
}

// GetStation retrieves a station by ID
func (s *TrainService) GetStation(ctx context.Context, id int) (*models.Station, error) {
	var station models.Station
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, city, code
		FROM stations
		WHERE id = $1
	`, id).Scan(&station.ID, &station.Name, &station.City, &station.Code)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrStationNotFound, id)
		}
		return nil, err
	}
	return &station, nil
}

// FindStationByNameOrCode finds a station by name or code (fuzzy match)
func (s *TrainService) FindStationByNameOrCode(ctx context.Context, query string) (*models.Station, error) {
	// Try exact code match first
	var station models.Station
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, city, code
		FROM stations
		WHERE UPPER(code) = UPPER($1)
	`, query).Scan(&station.ID, &station.Name, &station.City, &station.Code)

	if err == nil {
		return &station, nil
	}

	// Try fuzzy match on name or city, shortest name first so "Delhi" prefers "Delhi" over "Delhi Sarai Rohilla"
	err = s.db.QueryRowContext(ctx, `
		SELECT id, name, city, code
		FROM stations
		WHERE UPPER(name) LIKE UPPER($1) OR UPPER(city) LIKE UPPER($1)
		ORDER BY LENGTH(name), name
		LIMIT 1
	`, "%"+query+"%").Scan(&station.ID, &station.Name, &station.City, &station.Code)

	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStationNotFound, query)
	}

	return &station, nil
}

// GetTrain retrieves a train with its running days and class capacities
func (s *TrainService) GetTrain(ctx context.Context, trainID int) (*models.Train, error) {
	var train models.Train
	var days pq.Int64Array

	err := s.db.QueryRowContext(ctx, `
		SELECT t.id, t.number, t.name, t.type,
			COALESCE(ARRAY(SELECT day_of_week FROM train_running_days WHERE train_id = t.id ORDER BY day_of_week), '{}')
		FROM trains t
		WHERE t.id = $1
	`, trainID).Scan(&train.ID, &train.Number, &train.Name, &train.Type, &days)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrTrainNotFound, trainID)
		}
		return nil, err
	}

	for _, day := range days {
		train.RunningDays = append(train.RunningDays, int(day))
	}

	seats, err := s.classSeats(ctx, trainID)
	if err != nil {
		return nil, err
	}
	train.ClassSeats = seats

	return &train, nil
}

func (s *TrainService) classSeats(ctx context.Context, trainID int) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT travel_class, total_seats
		FROM train_class_seats
		WHERE train_id = $1
	`, trainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make(map[string]int)
	for rows.Next() {
		var class string
		var total int
		if err := rows.Scan(&class, &total); err != nil {
			return nil, err
		}
		seats[class] = total
	}
	return seats, rows.Err()
}

// GetScheduleForTrain loads the ordered stop list of a train
func (s *TrainService) GetScheduleForTrain(ctx context.Context, trainID int) (models.Route, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts.station_id, st.name, ts.sequence_order, ts.day_number, ts.arrival_time, ts.departure_time
		FROM train_stops ts
		JOIN stations st ON st.id = ts.station_id
		WHERE ts.train_id = $1
		ORDER BY ts.sequence_order
	`, trainID)
	if err != nil {
		return models.Route{}, fmt.Errorf("error querying schedule: %w", err)
	}
	defer rows.Close()

	route := models.Route{TrainID: trainID}
	for rows.Next() {
		var stop models.Stop
		err := rows.Scan(&stop.StationID, &stop.StationName, &stop.SequenceOrder, &stop.DayNumber, &stop.ArrivalTime, &stop.DepartureTime)
		if err != nil {
			return models.Route{}, fmt.Errorf("error scanning stop: %w", err)
		}
		route.Stops = append(route.Stops, stop)
	}

	return route, rows.Err()
}

// ReplaceSchedule swaps the stop list of a train in one transaction
func (s *TrainService) ReplaceSchedule(ctx context.Context, route models.Route) error {
	if err := route.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRoute, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM trains WHERE id = $1)`, route.TrainID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %d", ErrTrainNotFound, route.TrainID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM train_stops WHERE train_id = $1`, route.TrainID); err != nil {
		return fmt.Errorf("failed to clear schedule: %w", err)
	}

	for _, stop := range route.Stops {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO train_stops (train_id, station_id, sequence_order, day_number, arrival_time, departure_time)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, route.TrainID, stop.StationID, stop.SequenceOrder, stop.DayNumber, clockValue(stop.ArrivalTime), clockValue(stop.DepartureTime))
		if err != nil {
			return fmt.Errorf("failed to insert stop %d: %w", stop.StationID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schedule: %w", err)
	}

	log.Info().Int("train", route.TrainID).Int("stops", len(route.Stops)).Msg("Schedule replaced")
	return nil
}

// FindTrainsBetween returns trains calling at origin and later at destination that run on the weekday
func (s *TrainService) FindTrainsBetween(ctx context.Context, originID, destinationID, dayOfWeek int) ([]models.Train, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.number, t.name, t.type
		FROM trains t
		JOIN train_stops o ON o.train_id = t.id AND o.station_id = $1
		JOIN train_stops d ON d.train_id = t.id AND d.station_id = $2
		JOIN train_running_days rd ON rd.train_id = t.id AND rd.day_of_week = $3
		WHERE o.sequence_order < d.sequence_order
		ORDER BY t.number
	`, originID, destinationID, dayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("error querying trains: %w", err)
	}
	defer rows.Close()

	var trains []models.Train
	for rows.Next() {
		var train models.Train
		if err := rows.Scan(&train.ID, &train.Number, &train.Name, &train.Type); err != nil {
			return nil, fmt.Errorf("error scanning train: %w", err)
		}
		train.RunningDays = []int{dayOfWeek}
		trains = append(trains, train)
	}

	return trains, rows.Err()
}

// SeatAvailability returns capacity and free seats per class for a travel date
func (s *TrainService) SeatAvailability(ctx context.Context, trainID int, travelDate time.Time) (map[pricing.TravelClass]SeatCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cs.travel_class, cs.total_seats,
			COALESCE((
				SELECT SUM(b.passenger_count)
				FROM bookings b
				WHERE b.train_id = cs.train_id
					AND b.travel_class = cs.travel_class
					AND b.travel_date = $2
					AND b.status != 'cancelled'
			), 0)
		FROM train_class_seats cs
		WHERE cs.train_id = $1
	`, trainID, travelDate.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("error querying seat availability: %w", err)
	}
	defer rows.Close()

	seats := make(map[pricing.TravelClass]SeatCount)
	for rows.Next() {
		var code string
		var total, booked int
		if err := rows.Scan(&code, &total, &booked); err != nil {
			return nil, err
		}
		class, err := pricing.ParseTravelClass(code)
		if err != nil {
			log.Warn().Int("train", trainID).Str("class", code).Msg("Skipping unknown class in seat table")
			continue
		}
		seats[class] = SeatCount{Total: total, Available: max(total-booked, 0)}
	}

	return seats, rows.Err()
}

// clockValue formats a time-of-day for a TIME column, nil stays NULL
func clockValue(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format("15:04:05")
}
