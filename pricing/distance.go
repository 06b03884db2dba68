package pricing

import (
	"math"

	"train-reservation/models"
)

const (
	DefaultAverageSpeedKmh = 50.0
	DefaultMinimumKm       = 50
	// DefaultFallbackKm is used when the schedule cannot produce a travel time.
	// It is a known approximation, not a measured distance.
	DefaultFallbackKm = 1200
)

// DistanceModel produces a kilometre distance for an origin/destination pair on a route
type DistanceModel interface {
	DistanceBetween(route models.Route, originID, destinationID int) int
}

// TimeDistance derives distance from scheduled travel time at an assumed average speed.
// Stations carry no authoritative coordinates, so time is the only proxy available.
type TimeDistance struct {
	Index           ScheduleIndex
	AverageSpeedKmh float64
	MinimumKm       int
	FallbackKm      int
}

// NewTimeDistance returns a TimeDistance with the default constants
func NewTimeDistance(index ScheduleIndex) *TimeDistance {
	return &TimeDistance{
		Index:           index,
		AverageSpeedKmh: DefaultAverageSpeedKmh,
		MinimumKm:       DefaultMinimumKm,
		FallbackKm:      DefaultFallbackKm,
	}
}

// DistanceBetween never fails: incomplete or malformed schedule data yields FallbackKm
func (d *TimeDistance) DistanceBetween(route models.Route, originID, destinationID int) int {
	elapsed, err := d.Index.ElapsedBetween(route, originID, destinationID)
	if err != nil {
		return d.FallbackKm
	}

	km := int(math.Round(elapsed.Hours() * d.AverageSpeedKmh))
	if km < d.MinimumKm {
		return d.MinimumKm
	}
	return km
}
