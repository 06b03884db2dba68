package pricing

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ClassRate holds the fare constants of one travel class
type ClassRate struct {
	RatePerKm       float64
	MinimumFare     float64
	SurgeMultiplier float64
}

// RoutePair is one entry of the popular route list, matched as case-insensitive substrings
type RoutePair struct {
	Origin      string
	Destination string
}

// Pricer maps a distance to fares for every class
type Pricer interface {
	IsPopularRoute(originName, destinationName string) bool
	QuoteAllClasses(distanceKm int, popular bool) (Fares, error)
}

// FarePolicy prices a leg from its distance, applying surge on popular routes
type FarePolicy struct {
	rates   map[TravelClass]ClassRate
	popular []RoutePair
}

// DefaultClassRates are the fare constants used when no policy file is configured
func DefaultClassRates() map[TravelClass]ClassRate {
	return map[TravelClass]ClassRate{
		ClassSleeper:    {RatePerKm: 0.60, MinimumFare: 100, SurgeMultiplier: 1.20},
		ClassThreeTier:  {RatePerKm: 1.20, MinimumFare: 300, SurgeMultiplier: 1.15},
		ClassTwoTier:    {RatePerKm: 1.80, MinimumFare: 500, SurgeMultiplier: 1.10},
		ClassFirstClass: {RatePerKm: 3.00, MinimumFare: 800, SurgeMultiplier: 1.05},
	}
}

// DefaultPopularRoutes is the allow-list of surge routes used when no policy file is configured
func DefaultPopularRoutes() []RoutePair {
	return []RoutePair{
		{Origin: "Delhi", Destination: "Mumbai"},
		{Origin: "Bangalore", Destination: "Chennai"},
		{Origin: "Kolkata", Destination: "Delhi"},
	}
}

// NewFarePolicy validates the rate table and returns a policy.
// Rates and minimums must rise with the class tier and surge multipliers must fall,
// otherwise a cheaper class could cost more than a dearer one. Every surge must add at least a paisa.
func NewFarePolicy(rates map[TravelClass]ClassRate, popular []RoutePair) (*FarePolicy, error) {
	table := make(map[TravelClass]ClassRate, len(AllClasses))

	var previous *ClassRate
	for _, class := range AllClasses {
		rate, ok := rates[class]
		if !ok {
			return nil, &ConfigurationError{Class: class, Reason: "no rate configured"}
		}
		if rate.RatePerKm <= 0 || rate.MinimumFare <= 0 {
			return nil, &ConfigurationError{Class: class, Reason: "rate and minimum fare must be positive"}
		}
		if rate.SurgeMultiplier <= 1 {
			return nil, &ConfigurationError{Class: class, Reason: "surge multiplier must be above 1"}
		}
		surcharge := decimal.NewFromFloat(rate.MinimumFare).Mul(decimal.NewFromFloat(rate.SurgeMultiplier).Sub(decimal.NewFromInt(1)))
		if surcharge.LessThan(decimal.New(1, -2)) {
			return nil, &ConfigurationError{Class: class, Reason: "surge multiplier is too small to raise the minimum fare"}
		}
		if previous != nil {
			if rate.RatePerKm <= previous.RatePerKm || rate.MinimumFare <= previous.MinimumFare {
				return nil, &ConfigurationError{Class: class, Reason: "rate and minimum fare must be higher than the tier below"}
			}
			if rate.SurgeMultiplier >= previous.SurgeMultiplier {
				return nil, &ConfigurationError{Class: class, Reason: "surge multiplier must be below the tier below"}
			}
			// surged fares keep their order only if the tier gap outweighs the surge gap
			gap := math.Min(rate.RatePerKm/previous.RatePerKm, rate.MinimumFare/previous.MinimumFare)
			if gap*rate.SurgeMultiplier <= previous.SurgeMultiplier {
				return nil, &ConfigurationError{Class: class, Reason: "surged fare would not exceed the tier below"}
			}
		}
		table[class] = rate
		r := rate
		previous = &r
	}

	pairs := make([]RoutePair, 0, len(popular))
	for _, pair := range popular {
		origin := strings.ToLower(strings.TrimSpace(pair.Origin))
		destination := strings.ToLower(strings.TrimSpace(pair.Destination))
		if origin == "" || destination == "" {
			return nil, &ConfigurationError{Reason: "popular route entries need an origin and a destination"}
		}
		pairs = append(pairs, RoutePair{Origin: origin, Destination: destination})
	}

	return &FarePolicy{rates: table, popular: pairs}, nil
}

// DefaultFarePolicy returns the policy built from the default constants
func DefaultFarePolicy() *FarePolicy {
	policy, err := NewFarePolicy(DefaultClassRates(), DefaultPopularRoutes())
	if err != nil {
		panic(err)
	}
	return policy
}

// Rate returns the configured constants of a class
func (p *FarePolicy) Rate(class TravelClass) (ClassRate, error) {
	rate, ok := p.rates[class]
	if !ok {
		return ClassRate{}, &ConfigurationError{Class: class, Reason: "no rate configured"}
	}
	return rate, nil
}

// BaseFare is the larger of the class minimum and distance times the class rate, in whole paise
func (p *FarePolicy) BaseFare(class TravelClass, distanceKm int) (float64, error) {
	base, err := p.baseFare(class, distanceKm)
	if err != nil {
		return 0, err
	}
	return toRupees(base), nil
}

func (p *FarePolicy) baseFare(class TravelClass, distanceKm int) (decimal.Decimal, error) {
	rate, err := p.Rate(class)
	if err != nil {
		return decimal.Zero, err
	}
	perKm := decimal.NewFromInt(int64(distanceKm)).Mul(decimal.NewFromFloat(rate.RatePerKm))
	return decimal.Max(decimal.NewFromFloat(rate.MinimumFare), perKm).Round(2), nil
}

// IsPopularRoute matches the allow-list in either direction
func (p *FarePolicy) IsPopularRoute(originName, destinationName string) bool {
	origin := strings.ToLower(originName)
	destination := strings.ToLower(destinationName)
	if origin == "" || destination == "" {
		return false
	}

	for _, pair := range p.popular {
		if strings.Contains(origin, pair.Origin) && strings.Contains(destination, pair.Destination) {
			return true
		}
		if strings.Contains(origin, pair.Destination) && strings.Contains(destination, pair.Origin) {
			return true
		}
	}
	return false
}

// SurgedFare applies the class surge multiplier on popular routes.
// The product is taken in decimal and kept to whole paise, so 420 x 1.15 is exactly 483.
func (p *FarePolicy) SurgedFare(class TravelClass, distanceKm int, popular bool) (float64, error) {
	base, err := p.baseFare(class, distanceKm)
	if err != nil {
		return 0, err
	}
	if !popular {
		return toRupees(base), nil
	}
	return toRupees(base.Mul(decimal.NewFromFloat(p.rates[class].SurgeMultiplier)).Round(2)), nil
}

// toRupees converts a paise-exact amount to the float64 carried in records and JSON
func toRupees(amount decimal.Decimal) float64 {
	return amount.InexactFloat64()
}

// QuoteAllClasses prices every class in one go; classes are never quoted on their own later
func (p *FarePolicy) QuoteAllClasses(distanceKm int, popular bool) (Fares, error) {
	fares := make(Fares, len(AllClasses))
	for _, class := range AllClasses {
		amount, err := p.SurgedFare(class, distanceKm, popular)
		if err != nil {
			return nil, err
		}
		fares[class] = amount
	}
	return fares, nil
}

// Fares maps each class to its per-passenger fare
type Fares map[TravelClass]float64

// FareQuote is the fare of one class
type FareQuote struct {
	Class  TravelClass `json:"class"`
	Name   string      `json:"name"`
	Amount float64     `json:"amount"`
}

// Quotes lists the fares from the cheapest tier up
func (f Fares) Quotes() []FareQuote {
	quotes := make([]FareQuote, 0, len(f))
	for _, class := range AllClasses {
		if amount, ok := f[class]; ok {
			quotes = append(quotes, FareQuote{Class: class, Name: class.DisplayName(), Amount: amount})
		}
	}
	return quotes
}

func (f Fares) clone() Fares {
	out := make(Fares, len(f))
	for class, amount := range f {
		out[class] = amount
	}
	return out
}

// String is used in log lines
func (f Fares) String() string {
	parts := make([]string, 0, len(f))
	for _, q := range f.Quotes() {
		parts = append(parts, fmt.Sprintf("%s=%.2f", q.Class, q.Amount))
	}
	return strings.Join(parts, " ")
}
