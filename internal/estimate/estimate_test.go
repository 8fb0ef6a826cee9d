package estimate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name     string
		attrs    Attributes
		expected RentEstimate
	}{
		{
			name:     "Centrum unfurnished 80 sqm",
			attrs:    Attributes{CityZone: "amsterdam-centrum", SizeSqm: 80},
			expected: RentEstimate{MinRent: 2150, MaxRent: 2650, EstimatedDaysToLet: 17},
		},
		{
			name:     "Small furnished home hits both floors",
			attrs:    Attributes{CityZone: "other", SizeSqm: 40, Furnished: true},
			expected: RentEstimate{MinRent: 1500, MaxRent: 2000, EstimatedDaysToLet: 16},
		},
		{
			name:     "Half step on the minimum rounds up",
			attrs:    Attributes{CityZone: "amsterdam-west", SizeSqm: 110},
			expected: RentEstimate{MinRent: 2500, MaxRent: 3050, EstimatedDaysToLet: 21},
		},
		{
			name:     "Zuid furnished",
			attrs:    Attributes{CityZone: "amsterdam-zuid", SizeSqm: 100, Furnished: true},
			expected: RentEstimate{MinRent: 2800, MaxRent: 3400, EstimatedDaysToLet: 12},
		},
		{
			name:     "Unknown zone uses the default multiplier",
			attrs:    Attributes{CityZone: "haarlem", SizeSqm: 100},
			expected: RentEstimate{MinRent: 2000, MaxRent: 2400, EstimatedDaysToLet: 21},
		},
		{
			name:     "Missing size uses the default",
			attrs:    Attributes{CityZone: "amsterdam-oost"},
			expected: RentEstimate{MinRent: 1750, MaxRent: 2100, EstimatedDaysToLet: 21},
		},
		{
			name:     "Display name is normalized",
			attrs:    Attributes{CityZone: " Amsterdam Centrum ", SizeSqm: 80},
			expected: RentEstimate{MinRent: 2150, MaxRent: 2650, EstimatedDaysToLet: 17},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Calculate(tt.attrs))
		})
	}
}

func TestCalculateInvariants(t *testing.T) {
	zones := append(keys(ZoneMultipliers), "", "unknown-zone")

	for _, zone := range zones {
		for size := 1; size <= 400; size += 3 {
			for _, furnished := range []bool{false, true} {
				attrs := Attributes{CityZone: zone, SizeSqm: size, Furnished: furnished}
				est := Calculate(attrs)

				assert.GreaterOrEqual(t, est.MaxRent, est.MinRent, "max below min for %+v", attrs)
				assert.GreaterOrEqual(t, est.MinRent, MinRentFloor)
				assert.GreaterOrEqual(t, est.MaxRent, MaxRentFloor)
				assert.GreaterOrEqual(t, est.EstimatedDaysToLet, MinDaysToLet)
				assert.Zero(t, est.MinRent%50)
				assert.Zero(t, est.MaxRent%50)
				assert.Equal(t, est, Calculate(attrs), "recomputation differs for %+v", attrs)
			}

			unfurnished := Calculate(Attributes{CityZone: zone, SizeSqm: size})
			furnished := Calculate(Attributes{CityZone: zone, SizeSqm: size, Furnished: true})
			assert.LessOrEqual(t, furnished.EstimatedDaysToLet, unfurnished.EstimatedDaysToLet)
		}
	}
}

func TestMultiplier(t *testing.T) {
	assert.Equal(t, 30, Multiplier("amsterdam-centrum"))
	assert.Equal(t, 20, Multiplier("other"))
	assert.Equal(t, DefaultMultiplier, Multiplier("rotterdam"))
	assert.Equal(t, DefaultMultiplier, Multiplier(""))
}

func TestRentEstimateString(t *testing.T) {
	est := RentEstimate{MinRent: 2150, MaxRent: 2650}
	assert.Equal(t, "€2150 - €2650", est.String())
}

func TestParseAttributes(t *testing.T) {
	tests := []struct {
		name     string
		size     string
		bedrooms string
		wantSize int
		wantBeds int
	}{
		{name: "Plain numbers", size: "95", bedrooms: "3", wantSize: 95, wantBeds: 3},
		{name: "Empty input", size: "", bedrooms: "", wantSize: DefaultSizeSqm, wantBeds: DefaultBedrooms},
		{name: "Non numeric", size: "large", bedrooms: "many", wantSize: DefaultSizeSqm, wantBeds: DefaultBedrooms},
		{name: "Unit suffix", size: "85m2", bedrooms: "2 rooms", wantSize: 85, wantBeds: 2},
		{name: "Decimal", size: "72.5", bedrooms: "1", wantSize: 72, wantBeds: 1},
		{name: "Zero", size: "0", bedrooms: "0", wantSize: DefaultSizeSqm, wantBeds: DefaultBedrooms},
		{name: "Negative", size: "-40", bedrooms: "-1", wantSize: DefaultSizeSqm, wantBeds: DefaultBedrooms},
		{name: "Huge", size: "99999999999", bedrooms: "2", wantSize: DefaultSizeSqm, wantBeds: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := ParseAttributes("amsterdam-west", tt.size, tt.bedrooms, true)
			assert.Equal(t, tt.wantSize, attrs.SizeSqm)
			assert.Equal(t, tt.wantBeds, attrs.Bedrooms)
			assert.Equal(t, "amsterdam-west", attrs.CityZone)
			assert.True(t, attrs.Furnished)
		})
	}
}

func keys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
