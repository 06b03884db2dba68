package models

import "time"

// Payment records the settlement of a booking's total amount
type Payment struct {
	ID            int       `json:"id"`
	BookingRef    string    `json:"booking_ref"`
	TransactionID string    `json:"transaction_id"`
	Method        string    `json:"method"`
	Amount        float64   `json:"amount"`
	PaidAt        time.Time `json:"paid_at"`
}

// PaymentRequest confirms payment of a booking.
// Amount is optional; when sent it must equal the booking total exactly.
type PaymentRequest struct {
	Method string   `json:"method" binding:"required,oneof=card upi netbanking wallet"`
	Amount *float64 `json:"amount"`
}

// Invoice is the customer facing summary of a paid booking
type Invoice struct {
	BookingRef       string    `json:"booking_ref"`
	TrainNumber      string    `json:"train_number"`
	TrainName        string    `json:"train_name"`
	Origin           string    `json:"origin"`
	Destination      string    `json:"destination"`
	TravelDate       string    `json:"travel_date"`
	TravelClass      string    `json:"travel_class"`
	DepartureTime    string    `json:"departure_time"`
	ArrivalTime      string    `json:"arrival_time"`
	Duration         string    `json:"duration"`
	DistanceKm       int       `json:"distance_km"`
	Passengers       []string  `json:"passengers"`
	FarePerPassenger float64   `json:"fare_per_passenger"`
	ConvenienceFee   float64   `json:"convenience_fee"`
	TotalAmount      float64   `json:"total_amount"`
	TransactionID    string    `json:"transaction_id"`
	PaymentMethod    string    `json:"payment_method"`
	PaidAt           time.Time `json:"paid_at"`
}
