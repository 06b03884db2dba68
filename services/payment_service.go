package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"train-reservation/models"
	"train-reservation/pricing"
)

// BookingReader loads a booking with its passengers
type BookingReader interface {
	GetBooking(ctx context.Context, bookingRef string) (*models.Booking, error)
}

// PaymentService settles bookings and produces invoices.
// It never recomputes money: the total stored on the booking is charged and printed as is.
type PaymentService struct {
	db       *sql.DB
	bookings BookingReader
}

// NewPaymentService creates a PaymentService
func NewPaymentService(db *sql.DB, bookings BookingReader) *PaymentService {
	return &PaymentService{db: db, bookings: bookings}
}

// checkPayable decides whether a booking in the given state can be paid with the requested amount
func checkPayable(status string, total float64, requested *float64) error {
	switch status {
	case models.BookingCancelled:
		return ErrBookingCancelled
	case models.BookingPaid:
		return ErrAlreadyPaid
	}
	if requested != nil && *requested != total {
		return fmt.Errorf("%w: expected %.2f, got %.2f", ErrAmountMismatch, total, *requested)
	}
	return nil
}

// ConfirmPayment records the payment of a booking's stored total and marks it paid
func (s *PaymentService) ConfirmPayment(ctx context.Context, bookingRef string, req models.PaymentRequest) (*models.Payment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var bookingID int
	var status string
	var total float64
	err = tx.QueryRowContext(ctx, `
		SELECT id, status, total_amount
		FROM bookings
		WHERE booking_ref = $1
		FOR UPDATE
	`, bookingRef).Scan(&bookingID, &status, &total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, bookingRef)
		}
		return nil, err
	}

	if err := checkPayable(status, total, req.Amount); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		BookingRef:    bookingRef,
		TransactionID: uuid.NewString(),
		Method:        req.Method,
		Amount:        total,
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO payments (booking_id, transaction_id, method, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id, paid_at
	`, bookingID, payment.TransactionID, payment.Method, payment.Amount).Scan(&payment.ID, &payment.PaidAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE bookings
		SET status = $1
		WHERE id = $2
	`, models.BookingPaid, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}

	log.Info().
		Str("booking", bookingRef).
		Str("transaction", payment.TransactionID).
		Str("method", payment.Method).
		Float64("amount", payment.Amount).
		Msg("Payment confirmed")

	return payment, nil
}

// GetPayment retrieves the payment of a booking
func (s *PaymentService) GetPayment(ctx context.Context, bookingRef string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id, b.booking_ref, p.transaction_id, p.method, p.amount, p.paid_at
		FROM payments p
		JOIN bookings b ON b.id = p.booking_id
		WHERE b.booking_ref = $1
	`, bookingRef).Scan(&payment.ID, &payment.BookingRef, &payment.TransactionID, &payment.Method, &payment.Amount, &payment.PaidAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrPaymentNotFound, bookingRef)
		}
		return nil, err
	}
	return &payment, nil
}

// GetInvoice builds the invoice of a paid booking
func (s *PaymentService) GetInvoice(ctx context.Context, bookingRef string) (*models.Invoice, error) {
	booking, err := s.bookings.GetBooking(ctx, bookingRef)
	if err != nil {
		return nil, err
	}

	payment, err := s.GetPayment(ctx, bookingRef)
	if err != nil {
		return nil, err
	}

	invoice := buildInvoice(*booking, *payment)
	return &invoice, nil
}

// buildInvoice copies the stored amounts; nothing is recalculated here
func buildInvoice(booking models.Booking, payment models.Payment) models.Invoice {
	passengers := make([]string, 0, len(booking.Passengers))
	for _, p := range booking.Passengers {
		passengers = append(passengers, fmt.Sprintf("%s (%d%s) %s", p.Name, p.Age, p.Gender, p.SeatNumber))
	}

	return models.Invoice{
		BookingRef:       booking.BookingRef,
		TrainNumber:      booking.Train.Number,
		TrainName:        booking.Train.Name,
		Origin:           booking.Origin.Label(),
		Destination:      booking.Destination.Label(),
		TravelDate:       booking.TravelDate.Format("2006-01-02"),
		TravelClass:      classLabel(booking.TravelClass),
		DepartureTime:    booking.DepartureTime,
		ArrivalTime:      booking.ArrivalTime,
		Duration:         booking.Duration,
		DistanceKm:       booking.DistanceKm,
		Passengers:       passengers,
		FarePerPassenger: booking.FarePerPassenger,
		ConvenienceFee:   booking.ConvenienceFee,
		TotalAmount:      booking.TotalAmount,
		TransactionID:    payment.TransactionID,
		PaymentMethod:    payment.Method,
		PaidAt:           payment.PaidAt,
	}
}

func classLabel(code string) string {
	class, err := pricing.ParseTravelClass(code)
	if err != nil {
		return code
	}
	return class.DisplayName()
}
