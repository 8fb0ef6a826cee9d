// Package geometry maps coordinates onto pricing zones.
package geometry

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"rentdesk/server/config"
	"rentdesk/server/internal/estimate"
)

// ZonePolygon is the approximate outline of a pricing zone
type ZonePolygon struct {
	Key     string
	Polygon orb.Polygon
}

// Outlines are coarse and overlap at the edges; Locate returns the first
// match, so more specific zones come first.
var zonePolygons = []ZonePolygon{
	{
		Key: "amsterdam-centrum",
		Polygon: orb.Polygon{{
			{4.872, 52.366}, {4.885, 52.360}, {4.905, 52.358}, {4.925, 52.363},
			{4.925, 52.378}, {4.905, 52.385}, {4.885, 52.385}, {4.872, 52.378},
			{4.872, 52.366},
		}},
	},
	{
		Key: "amsterdam-noord",
		Polygon: orb.Polygon{{
			{4.870, 52.388}, {4.990, 52.388}, {4.990, 52.430}, {4.870, 52.430}, {4.870, 52.388},
		}},
	},
	{
		Key: "amsterdam-zuid",
		Polygon: orb.Polygon{{
			{4.830, 52.325}, {4.905, 52.325}, {4.905, 52.360}, {4.830, 52.360}, {4.830, 52.325},
		}},
	},
	{
		Key: "amsterdam-west",
		Polygon: orb.Polygon{{
			{4.790, 52.360}, {4.872, 52.360}, {4.872, 52.395}, {4.790, 52.395}, {4.790, 52.360},
		}},
	},
	{
		Key: "amsterdam-oost",
		Polygon: orb.Polygon{{
			{4.905, 52.340}, {4.990, 52.340}, {4.990, 52.380}, {4.905, 52.380}, {4.905, 52.340},
		}},
	},
	{
		Key: "amstelveen",
		Polygon: orb.Polygon{{
			{4.820, 52.275}, {4.900, 52.275}, {4.900, 52.325}, {4.820, 52.325}, {4.820, 52.275},
		}},
	},
}

// Locate returns the key of the zone containing the point, or
// config.DefaultZoneKey when it lies outside every zone.
func Locate(lat, lng float64) string {
	point := orb.Point{lng, lat}
	for _, zone := range zonePolygons {
		if !zone.Polygon.Bound().Contains(point) {
			continue
		}
		if planar.PolygonContains(zone.Polygon, point) {
			return zone.Key
		}
	}
	return config.DefaultZoneKey
}

// ZonePolygons returns a copy of the zone outlines in lookup order
func ZonePolygons() []ZonePolygon {
	out := make([]ZonePolygon, len(zonePolygons))
	copy(out, zonePolygons)
	return out
}

// FeatureCollection renders the zone outlines for the website map
func FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, zone := range zonePolygons {
		feature := geojson.NewFeature(zone.Polygon)
		feature.Properties = geojson.Properties{
			"key":        zone.Key,
			"multiplier": estimate.Multiplier(zone.Key),
		}
		if z := config.GetZoneByKey(zone.Key); z != nil {
			feature.Properties["name"] = z.Name
			feature.Properties["zoom_level"] = z.ZoomLevel
		}
		fc.Append(feature)
	}
	return fc
}
