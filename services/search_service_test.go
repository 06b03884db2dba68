package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"train-reservation/models"
	"train-reservation/pricing"
)

// monday is the clock used by date dependent tests
var monday = time.Date(2026, time.October, 19, 9, 30, 0, 0, time.UTC)

type fakeCatalog struct {
	trains []models.Train
	seats  map[int]map[pricing.TravelClass]SeatCount
}

func (f *fakeCatalog) FindStationByNameOrCode(ctx context.Context, query string) (*models.Station, error) {
	for _, station := range testStations {
		if strings.EqualFold(station.Code, query) || strings.Contains(strings.ToLower(station.Name), strings.ToLower(query)) {
			station := station
			return &station, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrStationNotFound, query)
}

func (f *fakeCatalog) FindTrainsBetween(ctx context.Context, originID, destinationID, dayOfWeek int) ([]models.Train, error) {
	var trains []models.Train
	for _, train := range f.trains {
		if train.RunsOn(dayOfWeek) {
			trains = append(trains, train)
		}
	}
	return trains, nil
}

func (f *fakeCatalog) SeatAvailability(ctx context.Context, trainID int, travelDate time.Time) (map[pricing.TravelClass]SeatCount, error) {
	return f.seats[trainID], nil
}

// newTestSearch has two Monday trains: the Rajdhani leaves at 06:00, the Duronto at 16:30
func newTestSearch() *SearchService {
	duronto := models.Route{
		TrainID: 12267,
		Stops: []models.Stop{
			{StationID: 1, SequenceOrder: 1, DayNumber: 1, DepartureTime: models.ClockTime(16, 30)},
			{StationID: 3, SequenceOrder: 2, DayNumber: 2, ArrivalTime: models.ClockTime(8, 30)},
		},
	}
	schedules := &fakeSchedules{routes: map[int]models.Route{12951: delhiMumbai(), 12267: duronto}}
	quotes := NewQuoteService(newEngineCache(), schedules, fakeStations{}, nil)

	catalog := &fakeCatalog{
		trains: []models.Train{
			{ID: 12267, Number: "12267", Name: "Duronto Express", RunningDays: []int{1, 4}},
			{ID: 12951, Number: "12951", Name: "Mumbai Rajdhani", RunningDays: []int{1, 2, 3, 4, 5}},
		},
		seats: map[int]map[pricing.TravelClass]SeatCount{
			12951: {
				pricing.ClassThreeTier: {Total: 64, Available: 10},
				pricing.ClassTwoTier:   {Total: 48, Available: 0},
			},
			12267: {
				pricing.ClassSleeper:   {Total: 72, Available: 72},
				pricing.ClassThreeTier: {Total: 64, Available: 1},
			},
		},
	}

	search := NewSearchService(catalog, quotes, pricing.DefaultConvenienceFee)
	search.now = func() time.Time { return monday }
	return search
}

func TestSearchTrainsOrdersByDeparture(t *testing.T) {
	search := newTestSearch()

	results, err := search.SearchTrains(context.Background(), models.SearchRequest{
		Origin:      "NDLS",
		Destination: "Mumbai",
		Date:        "2026-10-26",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Train.Number != "12951" || results[1].Train.Number != "12267" {
		t.Errorf("unexpected order: %s, %s", results[0].Train.Number, results[1].Train.Number)
	}

	rajdhani := results[0]
	if rajdhani.DistanceKm != 350 || rajdhani.Duration != "7h 0m" || rajdhani.Halts != 1 {
		t.Errorf("unexpected leg data: %+v", rajdhani)
	}
	if len(rajdhani.Classes) != 2 || rajdhani.Classes[0].Class != "3A" {
		t.Fatalf("expected 3A then 2A, got %+v", rajdhani.Classes)
	}
	if rajdhani.Classes[0].Fare != 483 {
		t.Errorf("expected surged 3A fare 483, got %v", rajdhani.Classes[0].Fare)
	}
	if rajdhani.TotalPrice != 0 {
		t.Error("total price must be empty when no class was requested")
	}
}

func TestSearchTrainsWithClassPricesTotal(t *testing.T) {
	search := newTestSearch()

	results, err := search.SearchTrains(context.Background(), models.SearchRequest{
		Origin:         "New Delhi",
		Destination:    "MMCT",
		Date:           "2026-10-26",
		TravelClass:    "AC 3-Tier",
		PassengerCount: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// the Duronto has a single 3A seat left
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].TotalPrice != 986.00 {
		t.Errorf("expected 986.00, got %v", results[0].TotalPrice)
	}
}

func TestSearchTrainsFilters(t *testing.T) {
	tests := []struct {
		name     string
		req      models.SearchRequest
		expected []string
	}{
		{
			name:     "afternoon departures",
			req:      models.SearchRequest{Origin: "NDLS", Destination: "MMCT", Date: "2026-10-26", TimePreference: "afternoon"},
			expected: []string{"12267"},
		},
		{
			name:     "morning departures",
			req:      models.SearchRequest{Origin: "NDLS", Destination: "MMCT", Date: "2026-10-26", TimePreference: "morning"},
			expected: []string{"12951"},
		},
		{
			name:     "only the Rajdhani runs on Tuesday",
			req:      models.SearchRequest{Origin: "NDLS", Destination: "MMCT", Date: "2026-10-20"},
			expected: []string{"12951"},
		},
		{
			name:     "no sleeper on the Rajdhani",
			req:      models.SearchRequest{Origin: "NDLS", Destination: "MMCT", Date: "2026-10-26", TravelClass: "SL"},
			expected: []string{"12267"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := newTestSearch().SearchTrains(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var numbers []string
			for _, r := range results {
				numbers = append(numbers, r.Train.Number)
			}
			if strings.Join(numbers, ",") != strings.Join(tt.expected, ",") {
				t.Errorf("expected %v, got %v", tt.expected, numbers)
			}
		})
	}
}

func TestSearchTrainsRejects(t *testing.T) {
	tests := []struct {
		name string
		req  models.SearchRequest
		err  error
	}{
		{name: "unknown origin", req: models.SearchRequest{Origin: "XYZ", Destination: "MMCT", Date: "2026-10-26"}, err: ErrStationNotFound},
		{name: "same station", req: models.SearchRequest{Origin: "NDLS", Destination: "New Delhi", Date: "2026-10-26"}, err: ErrInvalidRoute},
		{name: "past date", req: models.SearchRequest{Origin: "NDLS", Destination: "MMCT", Date: "2026-10-18"}, err: ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestSearch().SearchTrains(context.Background(), tt.req)
			if !errors.Is(err, tt.err) {
				t.Errorf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestParseTravelDate(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{value: "2026-10-19", valid: true},
		{value: "2027-01-17", valid: true},
		{value: "2027-01-18", valid: false},
		{value: "2026-10-18", valid: false},
		{value: "19/10/2026", valid: false},
		{value: "", valid: false},
	}

	for _, tt := range tests {
		_, err := parseTravelDate(tt.value, monday)
		if tt.valid && err != nil {
			t.Errorf("%q: unexpected error %v", tt.value, err)
		}
		if !tt.valid && !errors.Is(err, ErrInvalidDate) {
			t.Errorf("%q: expected ErrInvalidDate, got %v", tt.value, err)
		}
	}
}

func TestMatchesTimePreference(t *testing.T) {
	tests := []struct {
		departure  string
		preference string
		expected   bool
	}{
		{departure: "06:00", preference: "morning", expected: true},
		{departure: "05:59", preference: "morning", expected: false},
		{departure: "12:00", preference: "afternoon", expected: true},
		{departure: "18:00", preference: "afternoon", expected: false},
		{departure: "23:45", preference: "evening", expected: true},
		{departure: "03:00", preference: "any", expected: true},
		{departure: "03:00", preference: "", expected: true},
	}

	for _, tt := range tests {
		if got := matchesTimePreference(tt.departure, tt.preference); got != tt.expected {
			t.Errorf("%s/%s: expected %v, got %v", tt.departure, tt.preference, tt.expected, got)
		}
	}
}
