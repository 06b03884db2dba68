package models

import (
	"fmt"
	"time"
)

// Stop represents one station visit within a train's route
type Stop struct {
	StationID     int        `json:"station_id" yaml:"station_id" validate:"required,gt=0"`
	StationName   string     `json:"station_name,omitempty" yaml:"station_name"`
	SequenceOrder int        `json:"sequence_order" yaml:"sequence_order" validate:"gte=0"`
	DayNumber     int        `json:"day_number" yaml:"day_number" validate:"gte=1"`
	ArrivalTime   *time.Time `json:"arrival_time,omitempty" yaml:"-"`
	DepartureTime *time.Time `json:"departure_time,omitempty" yaml:"-"`
}

// Route is the ordered stop sequence of one train
type Route struct {
	TrainID int    `json:"train_id"`
	Stops   []Stop `json:"stops"`
}

// Validate checks stop ordering and timing rules of a route
func (r Route) Validate() error {
	if len(r.Stops) < 2 {
		return fmt.Errorf("route must have at least 2 stops, got %d", len(r.Stops))
	}

	seen := make(map[int]bool, len(r.Stops))
	last := len(r.Stops) - 1

	for i, stop := range r.Stops {
		if seen[stop.StationID] {
			return fmt.Errorf("station %d appears more than once", stop.StationID)
		}
		seen[stop.StationID] = true

		if stop.DayNumber < 1 {
			return fmt.Errorf("stop %d: day number must be at least 1", stop.StationID)
		}
		if stop.ArrivalTime == nil && stop.DepartureTime == nil {
			return fmt.Errorf("stop %d: needs an arrival or a departure time", stop.StationID)
		}
		if i == 0 && stop.ArrivalTime != nil {
			return fmt.Errorf("first stop %d cannot have an arrival time", stop.StationID)
		}
		if i == last && stop.DepartureTime != nil {
			return fmt.Errorf("last stop %d cannot have a departure time", stop.StationID)
		}

		if i > 0 {
			prev := r.Stops[i-1]
			if stop.SequenceOrder <= prev.SequenceOrder {
				return fmt.Errorf("stop %d: sequence order %d does not follow %d", stop.StationID, stop.SequenceOrder, prev.SequenceOrder)
			}
			if stop.DayNumber < prev.DayNumber {
				return fmt.Errorf("stop %d: day number %d goes back from %d", stop.StationID, stop.DayNumber, prev.DayNumber)
			}
		}
	}

	return nil
}

// ClockTime builds a time-of-day value in the form the database driver returns for TIME columns
func ClockTime(hour, minute int) *time.Time {
	t := time.Date(0, time.January, 1, hour, minute, 0, 0, time.UTC)
	return &t
}

// ParseClock parses an "HH:MM" string into a time-of-day value
func ParseClock(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("15:04", value)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q: %w", value, err)
	}
	return &t, nil
}
