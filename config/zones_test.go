package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetZoneKeys(t *testing.T) {
	keys := GetZoneKeys()

	assert.Len(t, keys, len(SupportedZones))
	assert.Contains(t, keys, "amsterdam-centrum")
	assert.Contains(t, keys, DefaultZoneKey)
}

func TestGetZoneByKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Exact key", input: "amsterdam-zuid", expected: "amsterdam-zuid"},
		{name: "Display name", input: "Amsterdam Noord", expected: "amsterdam-noord"},
		{name: "Unknown zone", input: "Utrecht", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zone := GetZoneByKey(tt.input)
			if tt.expected == "" {
				assert.Nil(t, zone)
				return
			}
			if assert.NotNil(t, zone) {
				assert.Equal(t, tt.expected, zone.Key)
				assert.Len(t, zone.Center, 2)
			}
		})
	}
}

func TestNormalizeZone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Simple name", input: "Amstelveen", expected: "amstelveen"},
		{name: "Name with spaces", input: "Amsterdam Centrum", expected: "amsterdam-centrum"},
		{name: "Surrounding whitespace", input: "  amsterdam-west ", expected: "amsterdam-west"},
		{name: "Apostrophe", input: "'s-Graveland", expected: "s-graveland"},
		{name: "Multiple spaces", input: "Amsterdam   Oost", expected: "amsterdam-oost"},
		{name: "Already normalized", input: "other", expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeZone(tt.input)
			assert.Equal(t, tt.expected, result,
				"NormalizeZone(%q) = %q, want %q", tt.input, result, tt.expected)
		})
	}
}
