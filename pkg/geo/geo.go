// Package geo holds the great-circle math used to rank stations by distance.
package geo

import "math"

const EarthRadiusKm = 6371.0

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func toRad(deg float64) float64 {
	return deg * (math.Pi / 180)
}

// HaversineKm returns the great-circle distance between two lat/lon points in kilometres.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func (p Point) DistanceKm(other Point) float64 {
	return HaversineKm(p.Lat, p.Lon, other.Lat, other.Lon)
}

// Valid reports whether the point lies within the lat/lon value ranges.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180 &&
		!math.IsNaN(p.Lat) && !math.IsNaN(p.Lon)
}
