package config

import "strings"

// Zone represents a pricing zone shown on the website
type Zone struct {
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	Center    []float64 `json:"center"`
	ZoomLevel int       `json:"zoom_level"`
}

// DefaultZoneKey is used for addresses outside every named zone
const DefaultZoneKey = "other"

// SupportedZones is the zone catalogue, in display order
var SupportedZones = []Zone{
	{Key: "amsterdam-centrum", Name: "Amsterdam Centrum", Center: []float64{52.3728, 4.8936}, ZoomLevel: 14},
	{Key: "amsterdam-west", Name: "Amsterdam West", Center: []float64{52.3740, 4.8570}, ZoomLevel: 14},
	{Key: "amsterdam-zuid", Name: "Amsterdam Zuid", Center: []float64{52.3470, 4.8720}, ZoomLevel: 14},
	{Key: "amsterdam-oost", Name: "Amsterdam Oost", Center: []float64{52.3600, 4.9300}, ZoomLevel: 14},
	{Key: "amsterdam-noord", Name: "Amsterdam Noord", Center: []float64{52.3950, 4.9200}, ZoomLevel: 13},
	{Key: "amstelveen", Name: "Amstelveen", Center: []float64{52.3020, 4.8580}, ZoomLevel: 13},
	{Key: DefaultZoneKey, Name: "Other", Center: []float64{52.3676, 4.9041}, ZoomLevel: 11},
}

// GetZoneKeys returns the keys of all supported zones
func GetZoneKeys() []string {
	keys := make([]string, len(SupportedZones))
	for i, zone := range SupportedZones {
		keys[i] = zone.Key
	}
	return keys
}

// GetZoneByKey returns a zone by key, or nil when unknown
func GetZoneByKey(key string) *Zone {
	key = NormalizeZone(key)
	for _, zone := range SupportedZones {
		if zone.Key == key {
			z := zone
			return &z
		}
	}
	return nil
}

// NormalizeZone turns user input like "Amsterdam Centrum" into a zone key
func NormalizeZone(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "'", "")
	return strings.Join(strings.Fields(name), "-")
}
