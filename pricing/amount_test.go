package pricing

import (
	"errors"
	"testing"
)

func TestTotalAmountPopularThreeTier(t *testing.T) {
	cache := NewCache(StopIndex{}, NewTimeDistance(StopIndex{}), DefaultFarePolicy())

	record, err := cache.GetOrCompute(12951, delhiMumbai(), 1, 3, "New Delhi", "Mumbai Central")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	total, err := TotalAmount(record, ClassThreeTier, 2, DefaultConvenienceFee)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 986.00 {
		t.Errorf("expected 986.00, got %v", total)
	}

	// a later read of the same leg must reproduce the amount exactly
	again, _ := cache.GetOrCompute(12951, delhiMumbai(), 1, 3, "New Delhi", "Mumbai Central")
	totalAgain, _ := TotalAmount(again, ClassThreeTier, 2, DefaultConvenienceFee)
	if totalAgain != total {
		t.Errorf("amount drifted: %v then %v", total, totalAgain)
	}
}

func TestTotalAmountValidation(t *testing.T) {
	record := ConsistencyRecord{Fares: Fares{ClassSleeper: 100}}

	if _, err := TotalAmount(record, ClassSleeper, 0, DefaultConvenienceFee); err == nil {
		t.Error("expected error for zero passengers")
	}

	_, err := TotalAmount(record, ClassFirstClass, 1, DefaultConvenienceFee)
	var configErr *ConfigurationError
	if !errors.As(err, &configErr) {
		t.Errorf("expected ConfigurationError for missing class fare, got %v", err)
	}

	if _, err := TotalAmount(record, TravelClass("GN"), 1, DefaultConvenienceFee); !errors.Is(err, ErrUnknownClass) {
		t.Errorf("expected ErrUnknownClass, got %v", err)
	}
}

func TestTotalAmountRoundsHalfUp(t *testing.T) {
	tests := []struct {
		name       string
		fare       float64
		passengers int
		fee        float64
		expected   float64
	}{
		{name: "paise exact", fare: 483, passengers: 2, fee: 20, expected: 986},
		{name: "half paisa rounds up", fare: 10, passengers: 1, fee: 0.005, expected: 10.01},
		{name: "below half rounds down", fare: 10, passengers: 1, fee: 0.004, expected: 10},
		{name: "binary tenths add up", fare: 0.1, passengers: 3, fee: 0, expected: 0.3},
		{name: "three passengers", fare: 252.52, passengers: 3, fee: 20, expected: 777.56},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := ConsistencyRecord{Fares: Fares{ClassSleeper: tt.fare}}
			got, err := TotalAmount(record, ClassSleeper, tt.passengers, tt.fee)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
