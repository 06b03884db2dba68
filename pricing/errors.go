package pricing

import "fmt"

// NotFoundError is returned when a station is not part of a train's route
type NotFoundError struct {
	TrainID   int
	StationID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("station %d not found on route of train %d", e.StationID, e.TrainID)
}

// InvalidRouteError is returned when the destination cannot be reached going forward from the origin
type InvalidRouteError struct {
	TrainID     int
	Origin      int
	Destination int
	Reason      string
}

func (e *InvalidRouteError) Error() string {
	return fmt.Sprintf("invalid route %d -> %d on train %d: %s", e.Origin, e.Destination, e.TrainID, e.Reason)
}

// ConfigurationError means the fare table itself is incomplete or inconsistent
type ConfigurationError struct {
	Class  TravelClass
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Class == "" {
		return fmt.Sprintf("fare configuration: %s", e.Reason)
	}
	return fmt.Sprintf("fare configuration for class %s: %s", e.Class, e.Reason)
}
