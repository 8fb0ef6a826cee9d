package geometry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/server/config"
)

func TestLocate(t *testing.T) {
	tests := []struct {
		name string
		lat  float64
		lng  float64
		want string
	}{
		{name: "Dam Square", lat: 52.3731, lng: 4.8926, want: "amsterdam-centrum"},
		{name: "Vondelpark", lat: 52.3580, lng: 4.8686, want: "amsterdam-zuid"},
		{name: "Albert Cuyp Market", lat: 52.3555, lng: 4.8935, want: "amsterdam-zuid"},
		{name: "Bos en Lommer", lat: 52.3790, lng: 4.8480, want: "amsterdam-west"},
		{name: "Oosterpark", lat: 52.3600, lng: 4.9200, want: "amsterdam-oost"},
		{name: "NDSM wharf", lat: 52.4010, lng: 4.8920, want: "amsterdam-noord"},
		{name: "Amstelveen Stadshart", lat: 52.3030, lng: 4.8600, want: "amstelveen"},
		{name: "Haarlem", lat: 52.3874, lng: 4.6462, want: config.DefaultZoneKey},
		{name: "Null island", lat: 0, lng: 0, want: config.DefaultZoneKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Locate(tt.lat, tt.lng))
		})
	}
}

func TestZonePolygonsAreKnownZones(t *testing.T) {
	for _, zone := range ZonePolygons() {
		require.NotNil(t, config.GetZoneByKey(zone.Key), zone.Key)
		ring := zone.Polygon[0]
		assert.True(t, ring.Closed(), zone.Key)
		assert.GreaterOrEqual(t, len(ring), 4, zone.Key)
	}
}

func TestFeatureCollection(t *testing.T) {
	fc := FeatureCollection()
	require.Len(t, fc.Features, len(ZonePolygons()))

	first := fc.Features[0]
	assert.Equal(t, "amsterdam-centrum", first.Properties["key"])
	assert.Equal(t, "Amsterdam Centrum", first.Properties["name"])
	assert.Equal(t, 30, first.Properties["multiplier"])

	data, err := json.Marshal(fc)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "FeatureCollection", decoded["type"])
}
