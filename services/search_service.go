package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"train-reservation/models"
	"train-reservation/pricing"
)

const (
	// MaxAdvanceDays is how far ahead a journey can be searched or booked
	MaxAdvanceDays = 90

	searchWorkers = 8
)

// TrainCatalog is the train and seat data search needs
type TrainCatalog interface {
	FindStationByNameOrCode(ctx context.Context, query string) (*models.Station, error)
	FindTrainsBetween(ctx context.Context, originID, destinationID, dayOfWeek int) ([]models.Train, error)
	SeatAvailability(ctx context.Context, trainID int, travelDate time.Time) (map[pricing.TravelClass]SeatCount, error)
}

// Quoter returns the consistency record of a leg
type Quoter interface {
	Quote(ctx context.Context, trainID, originID, destinationID int) (pricing.ConsistencyRecord, error)
}

// SearchService finds trains between two stations and prices them through the quote service
type SearchService struct {
	trains         TrainCatalog
	quotes         Quoter
	convenienceFee float64
	now            func() time.Time
}

// NewSearchService creates a SearchService
func NewSearchService(trains TrainCatalog, quotes Quoter, convenienceFee float64) *SearchService {
	return &SearchService{
		trains:         trains,
		quotes:         quotes,
		convenienceFee: convenienceFee,
		now:            time.Now,
	}
}

// SearchTrains searches for available trains based on criteria
func (s *SearchService) SearchTrains(ctx context.Context, req models.SearchRequest) ([]models.SearchResponse, error) {
	origin, err := s.trains.FindStationByNameOrCode(ctx, req.Origin)
	if err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	destination, err := s.trains.FindStationByNameOrCode(ctx, req.Destination)
	if err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}
	if origin.ID == destination.ID {
		return nil, fmt.Errorf("%w: origin and destination are the same station", ErrInvalidRoute)
	}

	travelDate, err := parseTravelDate(req.Date, s.now())
	if err != nil {
		return nil, err
	}

	var class pricing.TravelClass
	if req.TravelClass != "" {
		class, err = pricing.ParseTravelClass(req.TravelClass)
		if err != nil {
			return nil, err
		}
	}
	if req.PassengerCount < 1 {
		req.PassengerCount = 1
	}

	trains, err := s.trains.FindTrainsBetween(ctx, origin.ID, destination.ID, int(travelDate.Weekday()))
	if err != nil {
		return nil, err
	}

	p := pool.NewWithResults[*models.SearchResponse]().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(searchWorkers)

	for _, train := range trains {
		train := train
		p.Go(func(ctx context.Context) (*models.SearchResponse, error) {
			return s.evaluate(ctx, train, *origin, *destination, travelDate, class, req)
		})
	}

	evaluated, err := p.Wait()
	if err != nil {
		return nil, err
	}

	results := make([]models.SearchResponse, 0, len(evaluated))
	for _, result := range evaluated {
		if result != nil {
			results = append(results, *result)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].DepartureTime != results[j].DepartureTime {
			return results[i].DepartureTime < results[j].DepartureTime
		}
		return results[i].Train.Number < results[j].Train.Number
	})

	log.Debug().
		Str("origin", origin.Code).
		Str("destination", destination.Code).
		Str("date", req.Date).
		Int("candidates", len(trains)).
		Int("results", len(results)).
		Msg("Search completed")

	return results, nil
}

// evaluate prices one candidate train; a nil result means the train is filtered out
func (s *SearchService) evaluate(ctx context.Context, train models.Train, origin, destination models.Station, travelDate time.Time, class pricing.TravelClass, req models.SearchRequest) (*models.SearchResponse, error) {
	record, err := s.quotes.Quote(ctx, train.ID, origin.ID, destination.ID)
	if err != nil {
		return nil, fmt.Errorf("train %s: %w", train.Number, err)
	}

	if !matchesTimePreference(record.DepartureTime, req.TimePreference) {
		return nil, nil
	}

	seats, err := s.trains.SeatAvailability(ctx, train.ID, travelDate)
	if err != nil {
		return nil, fmt.Errorf("train %s: %w", train.Number, err)
	}

	result := &models.SearchResponse{
		Train:         train,
		Origin:        origin,
		Destination:   destination,
		Date:          travelDate.Format("2006-01-02"),
		DepartureTime: record.DepartureTime,
		ArrivalTime:   record.ArrivalTime,
		Duration:      record.Duration,
		DistanceKm:    record.DistanceKm,
		Halts:         record.Halts,
		Popular:       record.Popular,
		Classes:       classAvailability(record.Fares, seats),
	}

	if class == "" {
		return result, nil
	}

	count, offered := seats[class]
	if !offered || count.Available < req.PassengerCount {
		return nil, nil
	}
	result.TotalPrice, err = pricing.TotalAmount(record, class, req.PassengerCount, s.convenienceFee)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// classAvailability lists the classes a train carries, cheapest first
func classAvailability(fares pricing.Fares, seats map[pricing.TravelClass]SeatCount) []models.ClassAvailability {
	classes := make([]models.ClassAvailability, 0, len(seats))
	for _, quote := range fares.Quotes() {
		count, ok := seats[quote.Class]
		if !ok {
			continue
		}
		classes = append(classes, models.ClassAvailability{
			Class:          string(quote.Class),
			Name:           quote.Name,
			Fare:           quote.Amount,
			TotalSeats:     count.Total,
			AvailableSeats: count.Available,
		})
	}
	return classes
}

// parseTravelDate accepts a YYYY-MM-DD date between today and MaxAdvanceDays ahead
func parseTravelDate(value string, now time.Time) (time.Time, error) {
	travelDate, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, value)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if travelDate.Before(today) {
		return time.Time{}, fmt.Errorf("%w: cannot book trains in the past", ErrInvalidDate)
	}
	if travelDate.After(today.AddDate(0, 0, MaxAdvanceDays)) {
		return time.Time{}, fmt.Errorf("%w: cannot book trains more than %d days in advance", ErrInvalidDate, MaxAdvanceDays)
	}

	return travelDate, nil
}

// matchesTimePreference buckets an "HH:MM" departure into morning, afternoon or evening
func matchesTimePreference(departure, preference string) bool {
	switch preference {
	case "morning":
		return departure >= "06:00" && departure < "12:00"
	case "afternoon":
		return departure >= "12:00" && departure < "18:00"
	case "evening":
		return departure >= "18:00"
	default:
		return true
	}
}
