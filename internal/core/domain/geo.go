package domain

import "fmt"

// Coordinate represents a geographic coordinate (WGS 84).
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewCoordinate validates lat/lon ranges and returns the point.
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	c := Coordinate{Lat: lat, Lon: lon}
	if !c.Valid() {
		return Coordinate{}, fmt.Errorf("%w: lat=%f lon=%f", ErrInvalidCoordinate, lat, lon)
	}
	return c, nil
}

// Valid reports whether the coordinate lies within WGS 84 bounds.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// GeocodedPlace is an address resolved by a geocoder.
type GeocodedPlace struct {
	Location    Coordinate `json:"location"`
	DisplayName string     `json:"display_name"`
}

// RouteGeometry is a path returned by a routing engine.
type RouteGeometry struct {
	Coordinates []Coordinate `json:"coordinates"`
	Distance    float64      `json:"distance_m"` // meters
	Duration    float64      `json:"duration_s"` // seconds
}

// Validate checks the polyline shape invariants.
func (g *RouteGeometry) Validate() error {
	if len(g.Coordinates) < 2 {
		return fmt.Errorf("%w: geometry has %d points", ErrNoRoute, len(g.Coordinates))
	}
	if g.Distance < 0 || g.Duration < 0 {
		return fmt.Errorf("%w: negative distance or duration", ErrNoRoute)
	}
	return nil
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}
