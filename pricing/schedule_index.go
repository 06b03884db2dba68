package pricing

import (
	"fmt"
	"time"

	"train-reservation/models"
)

// ScheduleIndex answers timing and ordering queries over one train's route
type ScheduleIndex interface {
	DepartureTimeAt(route models.Route, stationID int) (time.Time, error)
	ArrivalTimeAt(route models.Route, stationID int) (time.Time, error)
	ElapsedBetween(route models.Route, originID, destinationID int) (time.Duration, error)
	HaltsBetween(route models.Route, originID, destinationID int) (int, error)
}

// StopIndex is the ScheduleIndex over the stop records of a route.
// It holds no state; every call reads the route it is given.
type StopIndex struct{}

// DepartureTimeAt returns the departure time at a station.
// A terminus has no departure, so its arrival time is returned instead.
func (StopIndex) DepartureTimeAt(route models.Route, stationID int) (time.Time, error) {
	stop, _, err := findStop(route, stationID)
	if err != nil {
		return time.Time{}, err
	}
	return departureOf(stop), nil
}

// ArrivalTimeAt returns the arrival time at a station, falling back to the departure at the origin stop
func (StopIndex) ArrivalTimeAt(route models.Route, stationID int) (time.Time, error) {
	stop, _, err := findStop(route, stationID)
	if err != nil {
		return time.Time{}, err
	}
	return arrivalOf(stop), nil
}

// ElapsedBetween returns the travel time from the departure at the origin to the arrival at the destination
func (StopIndex) ElapsedBetween(route models.Route, originID, destinationID int) (time.Duration, error) {
	origin, destination, err := orderedPair(route, originID, destinationID)
	if err != nil {
		return 0, err
	}

	start := dayOffset(origin.DayNumber) + clockOffset(departureOf(origin))
	end := dayOffset(destination.DayNumber) + clockOffset(arrivalOf(destination))

	if end < start {
		return 0, &InvalidRouteError{
			TrainID:     route.TrainID,
			Origin:      originID,
			Destination: destinationID,
			Reason:      "arrival is earlier than departure",
		}
	}

	return end - start, nil
}

// HaltsBetween counts the stops strictly between origin and destination
func (StopIndex) HaltsBetween(route models.Route, originID, destinationID int) (int, error) {
	origin, destination, err := orderedPair(route, originID, destinationID)
	if err != nil {
		return 0, err
	}

	halts := 0
	for _, stop := range route.Stops {
		if stop.SequenceOrder > origin.SequenceOrder && stop.SequenceOrder < destination.SequenceOrder {
			halts++
		}
	}
	return halts, nil
}

func findStop(route models.Route, stationID int) (models.Stop, int, error) {
	for i, stop := range route.Stops {
		if stop.StationID == stationID {
			return stop, i, nil
		}
	}
	return models.Stop{}, -1, &NotFoundError{TrainID: route.TrainID, StationID: stationID}
}

// orderedPair resolves both stations and checks the destination lies after the origin
func orderedPair(route models.Route, originID, destinationID int) (models.Stop, models.Stop, error) {
	origin, _, err := findStop(route, originID)
	if err != nil {
		return models.Stop{}, models.Stop{}, &InvalidRouteError{
			TrainID: route.TrainID, Origin: originID, Destination: destinationID,
			Reason: "origin is not on the route",
		}
	}

	destination, _, err := findStop(route, destinationID)
	if err != nil {
		return models.Stop{}, models.Stop{}, &InvalidRouteError{
			TrainID: route.TrainID, Origin: originID, Destination: destinationID,
			Reason: "destination is not on the route",
		}
	}

	if destination.SequenceOrder <= origin.SequenceOrder {
		return models.Stop{}, models.Stop{}, &InvalidRouteError{
			TrainID: route.TrainID, Origin: originID, Destination: destinationID,
			Reason: "destination does not come after origin",
		}
	}

	return origin, destination, nil
}

func departureOf(stop models.Stop) time.Time {
	if stop.DepartureTime != nil {
		return *stop.DepartureTime
	}
	if stop.ArrivalTime != nil {
		return *stop.ArrivalTime
	}
	return time.Time{}
}

func arrivalOf(stop models.Stop) time.Time {
	if stop.ArrivalTime != nil {
		return *stop.ArrivalTime
	}
	if stop.DepartureTime != nil {
		return *stop.DepartureTime
	}
	return time.Time{}
}

func dayOffset(day int) time.Duration {
	return time.Duration(day) * 24 * time.Hour
}

func clockOffset(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}

// FormatDuration renders an elapsed time as "Xh Ym"
func FormatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
