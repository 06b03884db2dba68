package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultConvenienceFee is charged once per booking regardless of passenger count
const DefaultConvenienceFee = 20.0

// TotalAmount is the amount charged for a booking: passengers times the class fare plus the fee.
// The sum is taken in decimal and rounded half-up to two decimals.
func TotalAmount(record ConsistencyRecord, class TravelClass, passengerCount int, convenienceFee float64) (float64, error) {
	if passengerCount < 1 {
		return 0, fmt.Errorf("passenger count must be at least 1, got %d", passengerCount)
	}

	if !class.Valid() {
		return 0, fmt.Errorf("%w: %s", ErrUnknownClass, class)
	}

	fare, ok := record.Fares[class]
	if !ok {
		return 0, &ConfigurationError{Class: class, Reason: "no fare in consistency record"}
	}

	total := decimal.NewFromInt(int64(passengerCount)).
		Mul(decimal.NewFromFloat(fare)).
		Add(decimal.NewFromFloat(convenienceFee))
	return toRupees(total.Round(2)), nil
}
