package models

// Train represents a train and the classes it carries
type Train struct {
	ID          int            `json:"id"`
	Number      string         `json:"number"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	RunningDays []int          `json:"running_days"`
	ClassSeats  map[string]int `json:"class_seats,omitempty"`
}

// RunsOn reports whether the train departs on the given weekday (0 = Sunday)
func (t Train) RunsOn(dayOfWeek int) bool {
	for _, day := range t.RunningDays {
		if day == dayOfWeek {
			return true
		}
	}
	return false
}

// StopInput is one stop of a fleet management route update
type StopInput struct {
	StationID     int    `json:"station_id" yaml:"station_id" binding:"required,gt=0" validate:"required,gt=0"`
	StationName   string `json:"station_name" yaml:"station_name"`
	SequenceOrder int    `json:"sequence_order" yaml:"sequence_order" binding:"gte=0" validate:"gte=0"`
	DayNumber     int    `json:"day_number" yaml:"day_number" binding:"required,gte=1" validate:"required,gte=1"`
	ArrivalTime   string `json:"arrival_time" yaml:"arrival_time" binding:"omitempty,datetime=15:04" validate:"omitempty,datetime=15:04"`
	DepartureTime string `json:"departure_time" yaml:"departure_time" binding:"omitempty,datetime=15:04" validate:"omitempty,datetime=15:04"`
}

// RouteUpdateRequest replaces the stop list of a train
type RouteUpdateRequest struct {
	Stops []StopInput `json:"stops" binding:"required,min=2,dive"`
}

// ToRoute converts stop inputs into a route, parsing "HH:MM" times.
// A zero sequence order takes the stop's position in the list.
func ToRoute(trainID int, inputs []StopInput) (Route, error) {
	route := Route{TrainID: trainID, Stops: make([]Stop, 0, len(inputs))}

	for i, in := range inputs {
		arrival, err := ParseClock(in.ArrivalTime)
		if err != nil {
			return Route{}, err
		}
		departure, err := ParseClock(in.DepartureTime)
		if err != nil {
			return Route{}, err
		}

		sequence := in.SequenceOrder
		if sequence == 0 {
			sequence = i + 1
		}

		route.Stops = append(route.Stops, Stop{
			StationID:     in.StationID,
			StationName:   in.StationName,
			SequenceOrder: sequence,
			DayNumber:     in.DayNumber,
			ArrivalTime:   arrival,
			DepartureTime: departure,
		})
	}

	return route, nil
}
