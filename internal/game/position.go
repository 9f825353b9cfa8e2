package game

import "math"

const earthRadiusMeters = 6371000

// Position is a point on the globe in decimal degrees.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Distance returns the great-circle distance to other in meters.
func (p Position) Distance(other Position) float64 {
	lat1 := p.Latitude * math.Pi / 180
	lat2 := other.Latitude * math.Pi / 180
	dLat := (other.Latitude - p.Latitude) * math.Pi / 180
	dLng := (other.Longitude - p.Longitude) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	a := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng

	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// IsZero reports whether the position is the zero value. The null island
// coordinate is not a playable location, so the zero value doubles as
// "no position supplied".
func (p Position) IsZero() bool {
	return p.Latitude == 0 && p.Longitude == 0
}
