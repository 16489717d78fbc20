package domain

// Immutable geographic coordinates in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Return coordinates as [lat, lon] for map rendering collaborators.
func (c Coordinates) LatLonPair() [2]float64 { return [2]float64{c.Lat, c.Lon} }

// Valid reports whether c lies within the WGS84 latitude/longitude range.
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}
