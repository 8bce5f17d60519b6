package domain

import (
	"strings"
	"time"
)

// Category is a kind of safety-relevant point of interest.
type Category string

const (
	CategoryPolice      Category = "police"
	CategoryHospital    Category = "hospital"
	CategoryFireStation Category = "fire_station"
	CategoryBusStation  Category = "bus_station"
	CategorySchool      Category = "school"
	CategoryStreetLamp  Category = "street_lamp"
)

// Label returns the category as shown to users ("fire station").
func (c Category) Label() string {
	return strings.ReplaceAll(string(c), "_", " ")
}

// DefaultPOIName is used when a POI carries no name tag.
const DefaultPOIName = "Unknown Location"

// POI is a raw point of interest returned by a POI provider.
type POI struct {
	Category Category   `json:"category"`
	Name     *string    `json:"name,omitempty"`
	Location Coordinate `json:"location"`
}

// DisplayName returns the POI name or DefaultPOIName when absent.
func (p POI) DisplayName() string {
	if p.Name == nil || *p.Name == "" {
		return DefaultPOIName
	}
	return *p.Name
}

// SafetyPoint is a POI annotated with its distance from a reference point.
type SafetyPoint struct {
	Category Category   `json:"category"`
	Type     string     `json:"type"`
	Name     string     `json:"name"`
	Location Coordinate `json:"location"`
	Distance float64    `json:"distance_m"`
}

// RouteKind identifies how a candidate route was generated.
type RouteKind string

const (
	RouteDirect RouteKind = "direct"
	RouteVia1   RouteKind = "via_waypoint_1"
	RouteVia2   RouteKind = "via_waypoint_2"
)

// ScoredRoute is a candidate route with its safety evaluation.
type ScoredRoute struct {
	Kind        RouteKind     `json:"kind"`
	Geometry    RouteGeometry `json:"geometry"`
	SafetyScore int           `json:"safety_score"`
	DistanceKm  string        `json:"distance_km"` // two decimals, e.g. "3.00"
	DurationMin int           `json:"duration_min"`
	Rank        int           `json:"rank"` // 1 = safest
	Safest      bool          `json:"safest"`
}

// RouteSelection is the result of the route-selection pipeline.
type RouteSelection struct {
	Routes        []ScoredRoute `json:"routes"`
	SelectedIndex int           `json:"selected_index"`
}

// Selected returns the safest route.
func (s *RouteSelection) Selected() *ScoredRoute {
	if s == nil || s.SelectedIndex < 0 || s.SelectedIndex >= len(s.Routes) {
		return nil
	}
	return &s.Routes[s.SelectedIndex]
}

// Weather is a current weather summary.
type Weather struct {
	Temperature int    `json:"temperature_c"`
	Condition   string `json:"condition"`
}

// HistoryEntry records a past navigation search.
type HistoryEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	CreatedAt   time.Time `json:"created_at"`
}

// Navigation is the full answer to a navigation request.
type Navigation struct {
	RunID        int64          `json:"run_id"`
	Source       GeocodedPlace  `json:"source"`
	Destination  GeocodedPlace  `json:"destination"`
	Selection    RouteSelection `json:"selection"`
	Weather      *Weather       `json:"weather,omitempty"`
	SafetyPoints []SafetyPoint  `json:"safety_points"`
	StreetLights []Coordinate   `json:"street_lights"`
}

// NavigationEvent is published after a navigation completes.
type NavigationEvent struct {
	UserID        string    `json:"user_id,omitempty"`
	RunID         int64     `json:"run_id"`
	Source        string    `json:"source"`
	Destination   string    `json:"destination"`
	Routes        int       `json:"routes"`
	SelectedIndex int       `json:"selected_index"`
	SafetyScore   int       `json:"safety_score"`
	Time          time.Time `json:"time"`
}
