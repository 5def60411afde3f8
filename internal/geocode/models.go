package geocode

import "errors"

// Geocoding errors.
var (
	ErrCityNotFound = errors.New("city not found")
	ErrEmptyQuery   = errors.New("empty city query")
)

// Location is a resolved place. It is immutable once produced and is
// re-resolved on every search rather than cached.
type Location struct {
	// Name is the canonical city name as reported by the provider.
	Name string

	// Country is the country name for the matched place.
	Country string

	// Coordinates in decimal degrees.
	Latitude  float64
	Longitude float64
}
