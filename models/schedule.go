package models

// SearchRequest represents a train search query
type SearchRequest struct {
	Origin         string `json:"origin" binding:"required"`
	Destination    string `json:"destination" binding:"required"`
	Date           string `json:"date" binding:"required"`
	TravelClass    string `json:"travel_class"`
	PassengerCount int    `json:"passenger_count" binding:"omitempty,min=1,max=6"`
	TimePreference string `json:"time_preference" binding:"omitempty,oneof=any morning afternoon evening"`
}

// ClassAvailability is the fare and free seats of one class on a given date
type ClassAvailability struct {
	Class          string  `json:"class"`
	Name           string  `json:"name"`
	Fare           float64 `json:"fare"`
	TotalSeats     int     `json:"total_seats"`
	AvailableSeats int     `json:"available_seats"`
}

// SearchResponse represents a train search result with full details.
// Timing and fares come from the consistency record of the leg.
type SearchResponse struct {
	Train         Train               `json:"train"`
	Origin        Station             `json:"origin"`
	Destination   Station             `json:"destination"`
	Date          string              `json:"date"`
	DepartureTime string              `json:"departure_time"`
	ArrivalTime   string              `json:"arrival_time"`
	Duration      string              `json:"duration"`
	DistanceKm    int                 `json:"distance_km"`
	Halts         int                 `json:"halts"`
	Popular       bool                `json:"popular"`
	Classes       []ClassAvailability `json:"classes"`
	// TotalPrice is set when the request names a class
	TotalPrice float64 `json:"total_price,omitempty"`
}
