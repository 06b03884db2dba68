package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"train-reservation/handlers"
)

const delhiMumbaiYAML = `
train_id: 12951
stops:
  - station_id: 1
    station_name: New Delhi
    day_number: 1
    departure_time: "06:00"
  - station_id: 2
    station_name: Agra Cantt
    day_number: 1
    arrival_time: "08:00"
    departure_time: "08:10"
  - station_id: 3
    station_name: Mumbai Central
    day_number: 1
    arrival_time: "13:00"
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestRunQuote(t *testing.T) {
	var out bytes.Buffer

	err := runQuote(&out, quoteOptions{
		RoutePath:     writeTemp(t, "route.yaml", delhiMumbaiYAML),
		OriginID:      1,
		DestinationID: 3,
		Class:         "3A",
		Passengers:    2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"New Delhi -> Mumbai Central",
		"Departs 06:00, arrives 13:00, 7h 0m, 1 halts, 350 km",
		"AC 3-Tier (3A)",
		"483.00",
		"986.00",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunQuoteDebugDump(t *testing.T) {
	var out bytes.Buffer

	err := runQuote(&out, quoteOptions{
		RoutePath:     writeTemp(t, "route.yaml", delhiMumbaiYAML),
		OriginID:      1,
		DestinationID: 2,
		Class:         "SL",
		Passengers:    1,
		Debug:         true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "DistanceKm:") {
		t.Errorf("expected record dump, got:\n%s", out.String())
	}
}

func TestRunQuoteWithPolicyFile(t *testing.T) {
	var out bytes.Buffer

	policy := writeTemp(t, "policy.yaml", "convenience_fee: 0\npopular_routes: []\n")
	err := runQuote(&out, quoteOptions{
		RoutePath:     writeTemp(t, "route.yaml", delhiMumbaiYAML),
		PolicyPath:    policy,
		OriginID:      1,
		DestinationID: 3,
		Class:         "3A",
		Passengers:    2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 2 x 420.00 without surge or fee
	if !strings.Contains(out.String(), "840.00") {
		t.Errorf("expected unsurged total 840.00:\n%s", out.String())
	}
}

func TestRunQuoteRejects(t *testing.T) {
	tests := []struct {
		name  string
		route string
		class string
	}{
		{name: "one stop", route: "train_id: 1\nstops:\n  - station_id: 1\n    day_number: 1\n    departure_time: \"06:00\"\n", class: "3A"},
		{name: "bad clock", route: strings.Replace(delhiMumbaiYAML, `"13:00"`, `"1pm"`, 1), class: "3A"},
		{name: "unknown class", route: delhiMumbaiYAML, class: "EC"},
		{name: "not yaml", route: "stops: [", class: "3A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runQuote(&bytes.Buffer{}, quoteOptions{
				RoutePath:     writeTemp(t, "route.yaml", tt.route),
				OriginID:      1,
				DestinationID: 3,
				Class:         tt.class,
				Passengers:    1,
			})
			if err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestSetupRouterHealth(t *testing.T) {
	router := setupRouter(handlers.NewHandler(nil, nil, nil, nil, nil, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "healthy") {
		t.Errorf("unexpected health response %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
