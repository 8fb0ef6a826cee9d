// Package estimate computes rental price estimates for the calculator.
//
// The calculation is a fixed heuristic: living area times a per-zone price per
// square meter, plus a bonus for furnished homes, widened into a range and
// rounded to multiples of 50.
package estimate

import (
	"fmt"
	"math"

	"rentdesk/server/config"
)

const (
	// BasePrice is the historical floor of the calculator. The floors applied to
	// the range are MinRentFloor and MaxRentFloor.
	BasePrice = 1500

	DefaultSizeSqm    = 80
	DefaultBedrooms   = 2
	DefaultMultiplier = 22
	FurnishedBonus    = 300

	MinRentFloor = 1500
	MaxRentFloor = 2000

	BaseDaysToLet = 21
	MinDaysToLet  = 7

	roundTo = 50
)

// ZoneMultipliers maps a zone key to its price per square meter
var ZoneMultipliers = map[string]int{
	"amsterdam-centrum": 30,
	"amsterdam-west":    25,
	"amsterdam-zuid":    28,
	"amsterdam-oost":    24,
	"amsterdam-noord":   20,
	"amstelveen":        22,
	"other":             20,
}

// fastLettingZones let four days faster than elsewhere
var fastLettingZones = map[string]bool{
	"amsterdam-centrum": true,
	"amsterdam-zuid":    true,
}

// Attributes describes the property entered in the calculator
type Attributes struct {
	CityZone  string `json:"city_zone"`
	SizeSqm   int    `json:"size_sqm"`
	Bedrooms  int    `json:"bedrooms"`
	Furnished bool   `json:"furnished"`
}

// RentEstimate is the calculator output
type RentEstimate struct {
	MinRent            int `json:"min_rent"`
	MaxRent            int `json:"max_rent"`
	EstimatedDaysToLet int `json:"estimated_days_to_let"`
}

// String formats the range the way it is stored on a lead
func (e RentEstimate) String() string {
	return fmt.Sprintf("€%d - €%d", e.MinRent, e.MaxRent)
}

// Multiplier returns the price per square meter for a zone
func Multiplier(zone string) int {
	if m, ok := ZoneMultipliers[config.NormalizeZone(zone)]; ok {
		return m
	}
	return DefaultMultiplier
}

// Calculate computes the rent range and expected days to let. It never fails:
// a size that is not positive is replaced by DefaultSizeSqm.
func Calculate(attrs Attributes) RentEstimate {
	size := attrs.SizeSqm
	if size <= 0 {
		size = DefaultSizeSqm
	}
	zone := config.NormalizeZone(attrs.CityZone)

	bonus := 0
	if attrs.Furnished {
		bonus = FurnishedBonus
	}
	base := float64(size*Multiplier(zone) + bonus)

	minRent := roundToStep(base * 0.9 / roundTo)
	maxRent := roundToStep(base * 1.1 / roundTo)

	days := BaseDaysToLet
	if attrs.Furnished {
		days -= 5
	}
	if fastLettingZones[zone] {
		days -= 4
	}

	return RentEstimate{
		MinRent:            max(minRent, MinRentFloor),
		MaxRent:            max(maxRent, MaxRentFloor),
		EstimatedDaysToLet: max(days, MinDaysToLet),
	}
}

// math.Round rounds halves away from zero, which for the non-negative values
// here is round-half-up.
func roundToStep(steps float64) int {
	return int(math.Round(steps)) * roundTo
}
