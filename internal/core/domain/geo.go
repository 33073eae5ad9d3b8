package domain

import (
	"math"
	"sort"
)

const (
	earthRadiusKm = 6371.0
	// kmPerDegreeLat approximates one degree of latitude anywhere on the
	// globe; longitude degrees shrink with cos(lat).
	kmPerDegreeLat = 111.32
)

// BoundingBox is the coarse rectangular pre-filter sent upstream to bound the
// number of state vectors returned. It is a superset of the circular area:
// the exact haversine check happens afterwards.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// NewBoundingBox converts a center point and radius into a bounding box.
func NewBoundingBox(lat, lon, radiusKm float64) BoundingBox {
	latDelta := radiusKm / kmPerDegreeLat
	lonDelta := radiusKm / (kmPerDegreeLat * math.Cos(lat*math.Pi/180))
	return BoundingBox{
		MinLat: lat - latDelta,
		MaxLat: lat + latDelta,
		MinLon: lon - lonDelta,
		MaxLon: lon + lonDelta,
	}
}

// Haversine returns the great-circle distance in kilometers between two
// points given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// FilterByRadius drops positions farther than radiusKm from the center
// (filtering on the unrounded distance, boundary included), stamps each
// survivor with its distance rounded to one decimal for display, and returns
// them sorted nearest-first. An empty result is not an error.
func FilterByRadius(centerLat, centerLon, radiusKm float64, positions []Position) []Position {
	out := make([]Position, 0, len(positions))
	for _, p := range positions {
		d := Haversine(centerLat, centerLon, p.Latitude, p.Longitude)
		if d > radiusKm {
			continue
		}
		p.DistanceKm = math.Round(d*10) / 10
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out
}

// ValidateQuery checks the geographic query parameters against their allowed
// ranges.
func ValidateQuery(lat, lon, radiusKm float64) error {
	if lat < -90 || lat > 90 {
		return ErrInvalidLatitude
	}
	if lon < -180 || lon > 180 {
		return ErrInvalidLongitude
	}
	if radiusKm < 1 || radiusKm > 100 {
		return ErrInvalidRadius
	}
	return nil
}
