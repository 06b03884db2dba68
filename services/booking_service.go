package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"train-reservation/models"
	"train-reservation/pricing"
)

var validate = validator.New()

// TrainLookup loads trains with their running days and class capacities, and their stations
type TrainLookup interface {
	StationSource
	GetTrain(ctx context.Context, trainID int) (*models.Train, error)
}

// BookingService creates, reads and cancels bookings.
// The amounts of a booking are fixed from the consistency record when it is created.
type BookingService struct {
	db             *sql.DB
	trains         TrainLookup
	quotes         Quoter
	convenienceFee float64
	now            func() time.Time
}

// NewBookingService creates a BookingService
func NewBookingService(db *sql.DB, trains TrainLookup, quotes Quoter, convenienceFee float64) *BookingService {
	return &BookingService{
		db:             db,
		trains:         trains,
		quotes:         quotes,
		convenienceFee: convenienceFee,
		now:            time.Now,
	}
}

// bookingPrice is the money snapshot stored on a booking
type bookingPrice struct {
	FarePerPassenger float64
	ConvenienceFee   float64
	Total            float64
}

// priceBooking computes the booking amounts from the leg's record, rounding once
func priceBooking(record pricing.ConsistencyRecord, class pricing.TravelClass, passengerCount int, convenienceFee float64) (bookingPrice, error) {
	total, err := pricing.TotalAmount(record, class, passengerCount, convenienceFee)
	if err != nil {
		return bookingPrice{}, err
	}
	return bookingPrice{
		FarePerPassenger: record.Fares[class],
		ConvenienceFee:   convenienceFee,
		Total:            total,
	}, nil
}

// CreateBooking creates a new booking with passengers
func (s *BookingService) CreateBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	travelDate, err := parseTravelDate(req.Date, s.now())
	if err != nil {
		return nil, err
	}

	class, err := pricing.ParseTravelClass(req.TravelClass)
	if err != nil {
		return nil, err
	}

	train, err := s.trains.GetTrain(ctx, req.TrainID)
	if err != nil {
		return nil, err
	}
	if !train.RunsOn(int(travelDate.Weekday())) {
		return nil, fmt.Errorf("%w: %s on %s", ErrNotRunning, train.Number, travelDate.Weekday())
	}
	if _, ok := train.ClassSeats[string(class)]; !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrClassNotOffered, class, train.Number)
	}

	origin, err := s.trains.GetStation(ctx, req.OriginID)
	if err != nil {
		return nil, err
	}
	destination, err := s.trains.GetStation(ctx, req.DestinationID)
	if err != nil {
		return nil, err
	}

	record, err := s.quotes.Quote(ctx, req.TrainID, req.OriginID, req.DestinationID)
	if err != nil {
		return nil, err
	}
	// fallback timings are for display only, a leg the schedule cannot answer is never sold
	if record.Fallback {
		return nil, fmt.Errorf("%w: train %s does not run from %s to %s", ErrInvalidRoute, train.Number, origin.Label(), destination.Label())
	}

	price, err := priceBooking(record, class, len(req.Passengers), s.convenienceFee)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock the class row so concurrent bookings see each other's seats
	var totalSeats int
	err = tx.QueryRowContext(ctx, `
		SELECT total_seats
		FROM train_class_seats
		WHERE train_id = $1 AND travel_class = $2
		FOR UPDATE
	`, req.TrainID, string(class)).Scan(&totalSeats)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s on %s", ErrClassNotOffered, class, train.Number)
		}
		return nil, fmt.Errorf("failed to check seat availability: %w", err)
	}

	taken, err := takenSeats(ctx, tx, req.TrainID, string(class), travelDate)
	if err != nil {
		return nil, err
	}

	seatNumbers, err := assignSeats(class, totalSeats, taken, len(req.Passengers))
	if err != nil {
		return nil, err
	}

	bookingRef, err := generateBookingReference(ctx, tx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking reference: %w", err)
	}

	booking := &models.Booking{
		BookingRef:       bookingRef,
		TrainID:          req.TrainID,
		OriginID:         req.OriginID,
		DestinationID:    req.DestinationID,
		TravelDate:       travelDate,
		TravelClass:      string(class),
		PassengerCount:   len(req.Passengers),
		FarePerPassenger: price.FarePerPassenger,
		ConvenienceFee:   price.ConvenienceFee,
		TotalAmount:      price.Total,
		DistanceKm:       record.DistanceKm,
		DepartureTime:    record.DepartureTime,
		ArrivalTime:      record.ArrivalTime,
		Duration:         record.Duration,
		Status:           models.BookingConfirmed,
		Train:            *train,
		Origin:           *origin,
		Destination:      *destination,
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO bookings (
			booking_ref, train_id, origin_id, destination_id, travel_date, travel_class,
			passenger_count, fare_per_passenger, convenience_fee, total_amount,
			distance_km, departure_time, arrival_time, duration, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at
	`, booking.BookingRef, booking.TrainID, booking.OriginID, booking.DestinationID, travelDate.Format("2006-01-02"), booking.TravelClass,
		booking.PassengerCount, booking.FarePerPassenger, booking.ConvenienceFee, booking.TotalAmount,
		booking.DistanceKm, booking.DepartureTime, booking.ArrivalTime, booking.Duration, booking.Status,
	).Scan(&booking.ID, &booking.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	for i, entry := range req.Passengers {
		passenger := models.Passenger{
			BookingID:  booking.ID,
			Name:       entry.Name,
			Age:        entry.Age,
			Gender:     entry.Gender,
			SeatNumber: seatNumbers[i],
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO passengers (booking_id, name, age, gender, seat_number)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, passenger.BookingID, passenger.Name, passenger.Age, passenger.Gender, passenger.SeatNumber).Scan(&passenger.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to add passenger: %w", err)
		}
		booking.Passengers = append(booking.Passengers, passenger)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit booking: %w", err)
	}

	log.Info().
		Str("booking", bookingRef).
		Str("train", train.Number).
		Str("class", booking.TravelClass).
		Int("passengers", booking.PassengerCount).
		Float64("total", booking.TotalAmount).
		Msg("Booking created")

	return booking, nil
}

// takenSeats lists seat numbers held by live bookings of the class on the date
func takenSeats(ctx context.Context, tx *sql.Tx, trainID int, class string, travelDate time.Time) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT p.seat_number
		FROM passengers p
		JOIN bookings b ON b.id = p.booking_id
		WHERE b.train_id = $1
			AND b.travel_class = $2
			AND b.travel_date = $3
			AND b.status != 'cancelled'
			AND p.seat_number IS NOT NULL
	`, trainID, class, travelDate.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to load booked seats: %w", err)
	}
	defer rows.Close()

	var seats []string
	for rows.Next() {
		var seat string
		if err := rows.Scan(&seat); err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}
	return seats, rows.Err()
}

// assignSeats picks the lowest free seat numbers of a coach class, formatted "3A-17"
func assignSeats(class pricing.TravelClass, totalSeats int, taken []string, count int) ([]string, error) {
	used := make(map[int]bool, len(taken))
	prefix := string(class) + "-"
	for _, seat := range taken {
		if n, err := strconv.Atoi(strings.TrimPrefix(seat, prefix)); err == nil {
			used[n] = true
		}
	}

	free := totalSeats - len(used)
	if free < count {
		return nil, fmt.Errorf("%w (need %d, have %d)", ErrInsufficientSeats, count, max(free, 0))
	}

	seats := make([]string, 0, count)
	for n := 1; n <= totalSeats && len(seats) < count; n++ {
		if !used[n] {
			seats = append(seats, fmt.Sprintf("%s%d", prefix, n))
		}
	}
	return seats, nil
}

// GetBooking retrieves a booking by reference
func (s *BookingService) GetBooking(ctx context.Context, bookingRef string) (*models.Booking, error) {
	var booking models.Booking
	var train models.Train
	var origin, destination models.Station

	err := s.db.QueryRowContext(ctx, `
		SELECT
			b.id, b.booking_ref, b.train_id, b.origin_id, b.destination_id,
			b.travel_date, b.travel_class, b.passenger_count,
			b.fare_per_passenger, b.convenience_fee, b.total_amount,
			b.distance_km, b.departure_time, b.arrival_time, b.duration,
			b.status, b.created_at,
			t.id, t.number, t.name, t.type,
			o.id, o.name, o.city, o.code,
			d.id, d.name, d.city, d.code
		FROM bookings b
		JOIN trains t ON b.train_id = t.id
		JOIN stations o ON b.origin_id = o.id
		JOIN stations d ON b.destination_id = d.id
		WHERE b.booking_ref = $1
	`, bookingRef).Scan(
		&booking.ID, &booking.BookingRef, &booking.TrainID, &booking.OriginID, &booking.DestinationID,
		&booking.TravelDate, &booking.TravelClass, &booking.PassengerCount,
		&booking.FarePerPassenger, &booking.ConvenienceFee, &booking.TotalAmount,
		&booking.DistanceKm, &booking.DepartureTime, &booking.ArrivalTime, &booking.Duration,
		&booking.Status, &booking.CreatedAt,
		&train.ID, &train.Number, &train.Name, &train.Type,
		&origin.ID, &origin.Name, &origin.City, &origin.Code,
		&destination.ID, &destination.Name, &destination.City, &destination.Code,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, bookingRef)
		}
		return nil, err
	}

	booking.Train = train
	booking.Origin = origin
	booking.Destination = destination

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, booking_id, name, age, gender, seat_number
		FROM passengers
		WHERE booking_id = $1
		ORDER BY id
	`, booking.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var passenger models.Passenger
		var seatNumber sql.NullString

		err := rows.Scan(
			&passenger.ID, &passenger.BookingID, &passenger.Name,
			&passenger.Age, &passenger.Gender, &seatNumber,
		)
		if err != nil {
			return nil, err
		}
		passenger.SeatNumber = seatNumber.String
		booking.Passengers = append(booking.Passengers, passenger)
	}

	return &booking, rows.Err()
}

// CancelBooking cancels a booking; its seats are released because availability only counts live bookings
func (s *BookingService) CancelBooking(ctx context.Context, bookingRef string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var bookingID, passengerCount int
	var status string
	err = tx.QueryRowContext(ctx, `
		SELECT id, status, passenger_count
		FROM bookings
		WHERE booking_ref = $1
		FOR UPDATE
	`, bookingRef).Scan(&bookingID, &status, &passengerCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrBookingNotFound, bookingRef)
		}
		return err
	}

	if status == models.BookingCancelled {
		return ErrAlreadyCancelled
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE bookings
		SET status = $1
		WHERE id = $2
	`, models.BookingCancelled, bookingID)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cancellation: %w", err)
	}

	log.Info().Str("booking", bookingRef).Str("previous_status", status).Int("seats", passengerCount).Msg("Booking cancelled")
	return nil
}

// generateBookingReference generates a unique booking reference
func generateBookingReference(ctx context.Context, tx *sql.Tx, now time.Time) (string, error) {
	year := now.Year()

	// Get next sequence number for this year
	var count int
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) + 1
		FROM bookings
		WHERE EXTRACT(YEAR FROM created_at) = $1
	`, year).Scan(&count)
	if err != nil {
		return "", err
	}

	bookingRef := formatBookingReference(year, count)

	// Check if it already exists (unlikely but possible with concurrent requests)
	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM bookings WHERE booking_ref = $1)
	`, bookingRef).Scan(&exists)
	if err != nil {
		return "", err
	}

	if exists {
		// Use timestamp-based fallback
		bookingRef = formatBookingReference(year, int(now.UnixNano()%100000))
	}

	return bookingRef, nil
}

// formatBookingReference renders TRN-YYYY-NNNNN
func formatBookingReference(year, sequence int) string {
	return fmt.Sprintf("TRN-%d-%05d", year, sequence)
}
