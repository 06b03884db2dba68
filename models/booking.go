package models

import "time"

// Booking statuses
const (
	BookingConfirmed = "confirmed"
	BookingPaid      = "paid"
	BookingCancelled = "cancelled"
)

// Booking represents a train ticket booking with the amounts fixed at creation time
type Booking struct {
	ID               int       `json:"id"`
	BookingRef       string    `json:"booking_ref"`
	TrainID          int       `json:"train_id"`
	OriginID         int       `json:"origin_id"`
	DestinationID    int       `json:"destination_id"`
	TravelDate       time.Time `json:"travel_date"`
	TravelClass      string    `json:"travel_class"`
	PassengerCount   int       `json:"passenger_count"`
	FarePerPassenger float64   `json:"fare_per_passenger"`
	ConvenienceFee   float64   `json:"convenience_fee"`
	TotalAmount      float64   `json:"total_amount"`
	DistanceKm       int       `json:"distance_km"`
	DepartureTime    string    `json:"departure_time"`
	ArrivalTime      string    `json:"arrival_time"`
	Duration         string    `json:"duration"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`

	// Joined fields
	Train       Train       `json:"train"`
	Origin      Station     `json:"origin"`
	Destination Station     `json:"destination"`
	Passengers  []Passenger `json:"passengers"`
}

// Passenger represents a passenger in a booking
type Passenger struct {
	ID         int    `json:"id"`
	BookingID  int    `json:"booking_id"`
	Name       string `json:"name"`
	Age        int    `json:"age"`
	Gender     string `json:"gender"`
	SeatNumber string `json:"seat_number"`
}

// PassengerEntry is the passenger data collected on the booking form
type PassengerEntry struct {
	Name   string `json:"name" binding:"required,min=2,max=100" validate:"required,min=2,max=100"`
	Age    int    `json:"age" binding:"required,min=1,max=120" validate:"required,min=1,max=120"`
	Gender string `json:"gender" binding:"required,oneof=M F O" validate:"required,oneof=M F O"`
}

// BookingRequest represents a booking creation request
type BookingRequest struct {
	TrainID       int              `json:"train_id" binding:"required,gt=0" validate:"required,gt=0"`
	OriginID      int              `json:"origin_id" binding:"required,gt=0" validate:"required,gt=0"`
	DestinationID int              `json:"destination_id" binding:"required,gt=0,nefield=OriginID" validate:"required,gt=0,nefield=OriginID"`
	Date          string           `json:"date" binding:"required" validate:"required"`
	TravelClass   string           `json:"travel_class" binding:"required" validate:"required"`
	Passengers    []PassengerEntry `json:"passengers" binding:"required,min=1,max=6,dive" validate:"required,min=1,max=6,dive"`
}

// BookingResponse represents a booking creation response
type BookingResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Booking *Booking `json:"booking,omitempty"`
}
