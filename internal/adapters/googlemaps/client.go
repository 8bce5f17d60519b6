package googlemaps

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	maps "googlemaps.github.io/maps"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/pkg/metrics"
)

// Client implements ports.Router and ports.Geocoder with the Google Maps
// Directions and Geocoding APIs.
type Client struct {
	maps *maps.Client
}

// Option customises the underlying maps client.
type Option = maps.ClientOption

// WithBaseURL points the client at a different API host.
func WithBaseURL(url string) Option {
	return maps.WithBaseURL(url)
}

// NewClient creates a Google Maps client.
func NewClient(apiKey string, timeout time.Duration, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("google maps api key is required")
	}
	opts = append([]Option{maps.WithAPIKey(apiKey)}, opts...)
	if timeout > 0 {
		opts = append(opts, maps.WithHTTPClient(&http.Client{Timeout: timeout}))
	}
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("maps.NewClient: %w", err)
	}
	return &Client{maps: client}, nil
}

// Route asks Directions for a driving route through waypoints in order.
func (c *Client) Route(ctx context.Context, waypoints []domain.Coordinate) (geom *domain.RouteGeometry, err error) {
	defer metrics.ObserveProvider("google_directions", time.Now(), &err)

	if len(waypoints) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 waypoints, got %d", domain.ErrInvalidInput, len(waypoints))
	}

	dr := &maps.DirectionsRequest{
		Origin:      latLng(waypoints[0]),
		Destination: latLng(waypoints[len(waypoints)-1]),
		Mode:        maps.TravelModeDriving,
	}
	for _, w := range waypoints[1 : len(waypoints)-1] {
		dr.Waypoints = append(dr.Waypoints, latLng(w))
	}

	routes, _, err := c.maps.Directions(ctx, dr)
	if err != nil {
		if isZeroResults(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrNoRoute, err)
		}
		return nil, fmt.Errorf("%w: directions: %w", domain.ErrProvider, err)
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("%w: directions returned no routes", domain.ErrNoRoute)
	}

	best := routes[0]
	points, err := best.OverviewPolyline.Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: decode overview polyline: %w", domain.ErrProvider, err)
	}

	geom = &domain.RouteGeometry{Coordinates: make([]domain.Coordinate, 0, len(points))}
	for _, p := range points {
		geom.Coordinates = append(geom.Coordinates, domain.Coordinate{Lat: p.Lat, Lon: p.Lng})
	}
	for _, leg := range best.Legs {
		geom.Distance += float64(leg.Distance.Meters)
		geom.Duration += leg.Duration.Seconds()
	}
	return geom, nil
}

// Geocode resolves address with the Geocoding API.
func (c *Client) Geocode(ctx context.Context, address string) (place *domain.GeocodedPlace, err error) {
	defer metrics.ObserveProvider("google_geocoding", time.Now(), &err)

	results, err := c.maps.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		if isZeroResults(err) {
			return nil, domain.ErrAddressNotFound
		}
		return nil, fmt.Errorf("%w: geocode: %w", domain.ErrProvider, err)
	}
	if len(results) == 0 {
		return nil, domain.ErrAddressNotFound
	}

	loc := results[0].Geometry.Location
	return &domain.GeocodedPlace{
		Location:    domain.Coordinate{Lat: loc.Lat, Lon: loc.Lng},
		DisplayName: results[0].FormattedAddress,
	}, nil
}

func latLng(c domain.Coordinate) string {
	return fmt.Sprintf("%f,%f", c.Lat, c.Lon)
}

func isZeroResults(err error) bool {
	return strings.Contains(err.Error(), "ZERO_RESULTS") || strings.Contains(err.Error(), "NOT_FOUND")
}
