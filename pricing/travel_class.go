package pricing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownClass is returned for class strings that match no known class
var ErrUnknownClass = errors.New("unknown travel class")

// TravelClass is a fare and service tier
type TravelClass string

const (
	ClassSleeper    TravelClass = "SL"
	ClassThreeTier  TravelClass = "3A"
	ClassTwoTier    TravelClass = "2A"
	ClassFirstClass TravelClass = "1A"
)

// AllClasses lists every class from the cheapest tier to the most expensive
var AllClasses = []TravelClass{ClassSleeper, ClassThreeTier, ClassTwoTier, ClassFirstClass}

var classNames = map[TravelClass]string{
	ClassSleeper:    "Sleeper (SL)",
	ClassThreeTier:  "AC 3-Tier (3A)",
	ClassTwoTier:    "AC 2-Tier (2A)",
	ClassFirstClass: "First AC (1A)",
}

// display names seen in the booking forms, normalised by normaliseClassName
var classAliases = map[string]TravelClass{
	"sl":           ClassSleeper,
	"sleeper":      ClassSleeper,
	"sleeperclass": ClassSleeper,
	"3a":           ClassThreeTier,
	"ac3tier":      ClassThreeTier,
	"3tierac":      ClassThreeTier,
	"thirdac":      ClassThreeTier,
	"2a":           ClassTwoTier,
	"ac2tier":      ClassTwoTier,
	"2tierac":      ClassTwoTier,
	"secondac":     ClassTwoTier,
	"1a":           ClassFirstClass,
	"ac1tier":      ClassFirstClass,
	"firstac":      ClassFirstClass,
	"acfirstclass": ClassFirstClass,
	"firstclass":   ClassFirstClass,
}

// ParseTravelClass converts a class code or any accepted display string into a TravelClass.
// A code in parentheses, as in "AC 3 Tier (3A)", wins over the surrounding text.
func ParseTravelClass(value string) (TravelClass, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return "", fmt.Errorf("%w: empty value", ErrUnknownClass)
	}

	if open := strings.LastIndex(raw, "("); open >= 0 {
		if end := strings.Index(raw[open:], ")"); end > 0 {
			if class, ok := classAliases[normaliseClassName(raw[open+1:open+end])]; ok {
				return class, nil
			}
		}
	}

	if class, ok := classAliases[normaliseClassName(raw)]; ok {
		return class, nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnknownClass, value)
}

// DisplayName returns the label shown to customers
func (c TravelClass) DisplayName() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return string(c)
}

// Valid reports whether c is one of the known classes
func (c TravelClass) Valid() bool {
	_, ok := classNames[c]
	return ok
}

func normaliseClassName(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(value) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
