package ports

import (
	"context"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

// Router requests a drivable path through an ordered list of waypoints.
// Implementations return domain.ErrNoRoute when the engine answered without a path.
type Router interface {
	Route(ctx context.Context, waypoints []domain.Coordinate) (*domain.RouteGeometry, error)
}

// POIFilter selects one POI category within a radius of the query center.
type POIFilter struct {
	Category     domain.Category
	RadiusMeters float64
}

// POIProvider searches points of interest around a coordinate.
// All filters are answered by a single provider round trip.
type POIProvider interface {
	Search(ctx context.Context, center domain.Coordinate, filters []POIFilter) ([]domain.POI, error)
}

// Geocoder resolves free-text addresses.
// Implementations return domain.ErrAddressNotFound on zero results.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*domain.GeocodedPlace, error)
}

// WeatherProvider reports current conditions at a point.
type WeatherProvider interface {
	CurrentWeather(ctx context.Context, point domain.Coordinate) (*domain.Weather, error)
}

// HistoryRecorder durably records a navigation search, possibly asynchronously.
type HistoryRecorder interface {
	Record(ctx context.Context, entry *domain.HistoryEntry) error
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishNavigation(ctx context.Context, event *domain.NavigationEvent) error
}

// RunStore tracks the latest navigation run per user so stale runs can be discarded.
type RunStore interface {
	// Next allocates a new run ID for the user, superseding earlier ones.
	Next(ctx context.Context, userID string) (int64, error)
	// Current returns the latest run ID allocated for the user.
	Current(ctx context.Context, userID string) (int64, error)
}
