package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"train-reservation/pricing"
)

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fare_policy.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write policy file: %v", err)
	}
	return path
}

func TestLoadFarePolicy_Defaults(t *testing.T) {
	cfg, err := LoadFarePolicy("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	engine, err := cfg.Build()
	if err != nil {
		t.Fatalf("default policy should build: %v", err)
	}

	if engine.ConvenienceFee != pricing.DefaultConvenienceFee {
		t.Errorf("expected fee %.2f, got %.2f", pricing.DefaultConvenienceFee, engine.ConvenienceFee)
	}
	if engine.Distance.FallbackKm != pricing.DefaultFallbackKm {
		t.Errorf("expected fallback %d, got %d", pricing.DefaultFallbackKm, engine.Distance.FallbackKm)
	}
	if !engine.Policy.IsPopularRoute("Kolkata Howrah", "New Delhi") {
		t.Error("default popular routes should be loaded")
	}
}

func TestLoadFarePolicy_OverridesFromFile(t *testing.T) {
	path := writePolicy(t, `
classes:
  "Sleeper (SL)":   {rate_per_km: 0.5, minimum_fare: 90, surge_multiplier: 1.25}
  "AC 3 Tier (3A)": {rate_per_km: 1.1, minimum_fare: 280, surge_multiplier: 1.15}
  "2A":             {rate_per_km: 1.7, minimum_fare: 480, surge_multiplier: 1.10}
  "1A":             {rate_per_km: 2.9, minimum_fare: 790, surge_multiplier: 1.05}
popular_routes:
  - origin: Pune
    destination: Mumbai
distance:
  average_speed_kmh: 60
convenience_fee: 25
`)

	cfg, err := LoadFarePolicy(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	engine, err := cfg.Build()
	if err != nil {
		t.Fatalf("policy should build: %v", err)
	}

	fare, _ := engine.Policy.BaseFare(pricing.ClassSleeper, 1000)
	if fare != 500 {
		t.Errorf("expected SL base fare 500, got %.2f", fare)
	}
	if engine.ConvenienceFee != 25 {
		t.Errorf("expected fee 25, got %.2f", engine.ConvenienceFee)
	}
	if engine.Distance.AverageSpeedKmh != 60 {
		t.Errorf("expected 60 km/h, got %.1f", engine.Distance.AverageSpeedKmh)
	}
	if engine.Distance.MinimumKm != pricing.DefaultMinimumKm {
		t.Errorf("unset distance keys should keep defaults, got minimum %d", engine.Distance.MinimumKm)
	}
	if engine.Policy.IsPopularRoute("New Delhi", "Mumbai Central") {
		t.Error("popular routes from the file replace the defaults")
	}
	if !engine.Policy.IsPopularRoute("Mumbai CST", "Pune Junction") {
		t.Error("Pune - Mumbai should be popular in both directions")
	}
}

func TestLoadFarePolicy_MissingFile(t *testing.T) {
	if _, err := LoadFarePolicy(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("expected error for missing policy file")
	}
}

func TestLoadFarePolicy_InvalidYAML(t *testing.T) {
	path := writePolicy(t, "classes: [[[")
	if _, err := LoadFarePolicy(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFarePolicy_ValidationFailure(t *testing.T) {
	path := writePolicy(t, `
classes:
  SL: {rate_per_km: 0.6, minimum_fare: 100, surge_multiplier: 0.8}
  3A: {rate_per_km: 1.2, minimum_fare: 300, surge_multiplier: 1.15}
  2A: {rate_per_km: 1.8, minimum_fare: 500, surge_multiplier: 1.10}
  1A: {rate_per_km: 3.0, minimum_fare: 800, surge_multiplier: 1.05}
`)
	if _, err := LoadFarePolicy(path); err == nil {
		t.Error("expected validation error for surge below 1")
	}
}

func TestLoadFarePolicy_SurgeOfOneRejected(t *testing.T) {
	path := writePolicy(t, `
classes:
  SL: {rate_per_km: 0.6, minimum_fare: 100, surge_multiplier: 1.2}
  3A: {rate_per_km: 1.2, minimum_fare: 300, surge_multiplier: 1.15}
  2A: {rate_per_km: 1.8, minimum_fare: 500, surge_multiplier: 1.10}
  1A: {rate_per_km: 3.0, minimum_fare: 800, surge_multiplier: 1}
`)
	if _, err := LoadFarePolicy(path); err == nil {
		t.Error("expected validation error for a surge multiplier of 1")
	}
}

func TestBuild_RejectsInconsistentTable(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing class",
			content: `
classes:
  SL: {rate_per_km: 0.6, minimum_fare: 100, surge_multiplier: 1.2}
  3A: {rate_per_km: 1.2, minimum_fare: 300, surge_multiplier: 1.15}
  1A: {rate_per_km: 3.0, minimum_fare: 800, surge_multiplier: 1.05}
`,
		},
		{
			name: "cheaper higher tier",
			content: `
classes:
  SL: {rate_per_km: 0.6, minimum_fare: 100, surge_multiplier: 1.2}
  3A: {rate_per_km: 1.2, minimum_fare: 300, surge_multiplier: 1.15}
  2A: {rate_per_km: 1.0, minimum_fare: 500, surge_multiplier: 1.10}
  1A: {rate_per_km: 3.0, minimum_fare: 800, surge_multiplier: 1.05}
`,
		},
		{
			name: "equal surge on adjacent tiers",
			content: `
classes:
  SL: {rate_per_km: 0.6, minimum_fare: 100, surge_multiplier: 1.2}
  3A: {rate_per_km: 1.2, minimum_fare: 300, surge_multiplier: 1.15}
  2A: {rate_per_km: 1.8, minimum_fare: 500, surge_multiplier: 1.15}
  1A: {rate_per_km: 3.0, minimum_fare: 800, surge_multiplier: 1.05}
`,
		},
		{
			name: "class listed twice",
			content: `
classes:
  SL: {rate_per_km: 0.6, minimum_fare: 100, surge_multiplier: 1.2}
  Sleeper: {rate_per_km: 0.6, minimum_fare: 100, surge_multiplier: 1.2}
  3A: {rate_per_km: 1.2, minimum_fare: 300, surge_multiplier: 1.15}
  2A: {rate_per_km: 1.8, minimum_fare: 500, surge_multiplier: 1.10}
  1A: {rate_per_km: 3.0, minimum_fare: 800, surge_multiplier: 1.05}
`,
		},
		{
			name: "unknown class",
			content: `
classes:
  CC: {rate_per_km: 0.6, minimum_fare: 100, surge_multiplier: 1.2}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFarePolicy(writePolicy(t, tt.content))
			if err != nil {
				t.Fatalf("file should load, got %v", err)
			}

			_, err = cfg.Build()
			var configErr *pricing.ConfigurationError
			if !errors.As(err, &configErr) {
				t.Errorf("expected ConfigurationError, got %v", err)
			}
		})
	}
}
