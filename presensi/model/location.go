package model

import (
	"fmt"
	"math"
)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate reports InvalidLocation unless both coordinates are finite and
// inside the WGS84 ranges.
func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || math.IsInf(l.Latitude, 0) ||
		math.IsNaN(l.Longitude) || math.IsInf(l.Longitude, 0) {
		return NewError(KindInvalidLocation, "latitude and longitude must be finite numbers")
	}
	if l.Latitude < -90 || l.Latitude > 90 {
		return NewError(KindInvalidLocation, fmt.Sprintf("latitude %v is outside -90..90", l.Latitude))
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return NewError(KindInvalidLocation, fmt.Sprintf("longitude %v is outside -180..180", l.Longitude))
	}
	return nil
}

func (l Location) String() string {
	return fmt.Sprintf("%.6f,%.6f", l.Latitude, l.Longitude)
}
