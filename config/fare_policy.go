package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"train-reservation/pricing"
)

// ClassRateConfig is the YAML form of one class's fare constants
type ClassRateConfig struct {
	RatePerKm       float64 `yaml:"rate_per_km" validate:"gt=0"`
	MinimumFare     float64 `yaml:"minimum_fare" validate:"gt=0"`
	SurgeMultiplier float64 `yaml:"surge_multiplier" validate:"gt=1"`
}

// PopularRouteConfig is one surge route, matched as substrings of station names
type PopularRouteConfig struct {
	Origin      string `yaml:"origin" validate:"required"`
	Destination string `yaml:"destination" validate:"required"`
}

// DistanceConfig controls the time based distance estimate
type DistanceConfig struct {
	AverageSpeedKmh float64 `yaml:"average_speed_kmh" validate:"gt=0"`
	MinimumKm       int     `yaml:"minimum_km" validate:"gt=1"`
	FallbackKm      int     `yaml:"fallback_km" validate:"gt=1"`
}

// FarePolicyConfig is the root of the fare policy file
type FarePolicyConfig struct {
	Classes        map[string]ClassRateConfig `yaml:"classes" validate:"required,dive"`
	PopularRoutes  []PopularRouteConfig       `yaml:"popular_routes" validate:"dive"`
	Distance       DistanceConfig             `yaml:"distance"`
	ConvenienceFee float64                    `yaml:"convenience_fee" validate:"gte=0"`
}

// DefaultFarePolicyConfig mirrors the built-in pricing constants
func DefaultFarePolicyConfig() FarePolicyConfig {
	cfg := FarePolicyConfig{
		Classes: make(map[string]ClassRateConfig),
		Distance: DistanceConfig{
			AverageSpeedKmh: pricing.DefaultAverageSpeedKmh,
			MinimumKm:       pricing.DefaultMinimumKm,
			FallbackKm:      pricing.DefaultFallbackKm,
		},
		ConvenienceFee: pricing.DefaultConvenienceFee,
	}

	for class, rate := range pricing.DefaultClassRates() {
		cfg.Classes[string(class)] = ClassRateConfig{
			RatePerKm:       rate.RatePerKm,
			MinimumFare:     rate.MinimumFare,
			SurgeMultiplier: rate.SurgeMultiplier,
		}
	}
	for _, pair := range pricing.DefaultPopularRoutes() {
		cfg.PopularRoutes = append(cfg.PopularRoutes, PopularRouteConfig{Origin: pair.Origin, Destination: pair.Destination})
	}

	return cfg
}

// LoadFarePolicy reads a fare policy file over the defaults; an empty path returns the defaults.
// Keys left out of the file keep their default value.
func LoadFarePolicy(path string) (FarePolicyConfig, error) {
	cfg := DefaultFarePolicyConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return FarePolicyConfig{}, fmt.Errorf("error reading fare policy: %w", err)
	}

	// a classes section replaces the default table as a whole, so display names and codes cannot collide
	var shape struct {
		Classes map[string]ClassRateConfig `yaml:"classes"`
	}
	if err := yaml.Unmarshal(data, &shape); err != nil {
		return FarePolicyConfig{}, fmt.Errorf("error parsing fare policy: %w", err)
	}
	if len(shape.Classes) > 0 {
		cfg.Classes = nil
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return FarePolicyConfig{}, fmt.Errorf("error parsing fare policy: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return FarePolicyConfig{}, fmt.Errorf("invalid fare policy: %w", err)
	}

	return cfg, nil
}

// Engine is the set of pricing components built from a policy
type Engine struct {
	Policy         *pricing.FarePolicy
	Distance       *pricing.TimeDistance
	Cache          *pricing.Cache
	ConvenienceFee float64
}

// Build turns the configuration into pricing components.
// Class keys may be codes or display names; each class must appear exactly once.
func (c FarePolicyConfig) Build() (*Engine, error) {
	rates := make(map[pricing.TravelClass]pricing.ClassRate, len(c.Classes))
	for name, rate := range c.Classes {
		class, err := pricing.ParseTravelClass(name)
		if err != nil {
			return nil, &pricing.ConfigurationError{Reason: err.Error()}
		}
		if _, dup := rates[class]; dup {
			return nil, &pricing.ConfigurationError{Class: class, Reason: "configured more than once"}
		}
		rates[class] = pricing.ClassRate{
			RatePerKm:       rate.RatePerKm,
			MinimumFare:     rate.MinimumFare,
			SurgeMultiplier: rate.SurgeMultiplier,
		}
	}

	popular := make([]pricing.RoutePair, 0, len(c.PopularRoutes))
	for _, route := range c.PopularRoutes {
		popular = append(popular, pricing.RoutePair{Origin: route.Origin, Destination: route.Destination})
	}

	policy, err := pricing.NewFarePolicy(rates, popular)
	if err != nil {
		return nil, err
	}

	index := pricing.StopIndex{}
	distance := &pricing.TimeDistance{
		Index:           index,
		AverageSpeedKmh: c.Distance.AverageSpeedKmh,
		MinimumKm:       c.Distance.MinimumKm,
		FallbackKm:      c.Distance.FallbackKm,
	}

	return &Engine{
		Policy:         policy,
		Distance:       distance,
		Cache:          pricing.NewCache(index, distance, policy),
		ConvenienceFee: c.ConvenienceFee,
	}, nil
}
