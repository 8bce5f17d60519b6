package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/twpayne/go-polyline"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/pkg/metrics"
)

// DefaultBaseURL is the public OSRM demo server.
const DefaultBaseURL = "https://router.project-osrm.org"

// HTTPDoer is the subset of *http.Client used by Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements ports.Router against the OSRM HTTP API.
type Client struct {
	baseURL    string
	profile    string
	httpClient HTTPDoer
}

// NewClient creates an OSRM client using the driving profile.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTPDoer(baseURL, &http.Client{Timeout: timeout})
}

// NewClientWithHTTPDoer creates a client with a custom transport.
func NewClientWithHTTPDoer(baseURL string, doer HTTPDoer) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		profile:    "driving",
		httpClient: doer,
	}
}

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Geometry string  `json:"geometry"`
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// Route returns the first route OSRM proposes through waypoints, in order.
func (c *Client) Route(ctx context.Context, waypoints []domain.Coordinate) (geom *domain.RouteGeometry, err error) {
	defer metrics.ObserveProvider("osrm", time.Now(), &err)

	if len(waypoints) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 waypoints, got %d", domain.ErrInvalidInput, len(waypoints))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.routeURL(waypoints), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: osrm: %w", domain.ErrProvider, err)
	}
	defer resp.Body.Close()

	// OSRM reports NoRoute and friends as 400 with a JSON body.
	if resp.StatusCode >= 500 || (resp.StatusCode >= 300 && resp.StatusCode != http.StatusBadRequest) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: osrm status %d: %s", domain.ErrProvider, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var response routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("%w: decode osrm response: %w", domain.ErrProvider, err)
	}
	if response.Code != "Ok" || len(response.Routes) == 0 {
		return nil, fmt.Errorf("%w: osrm code %s: %s", domain.ErrNoRoute, response.Code, response.Message)
	}

	best := response.Routes[0]
	coords, _, err := polyline.DecodeCoords([]byte(best.Geometry))
	if err != nil {
		return nil, fmt.Errorf("%w: decode polyline: %w", domain.ErrProvider, err)
	}

	geom = &domain.RouteGeometry{
		Coordinates: make([]domain.Coordinate, 0, len(coords)),
		Distance:    best.Distance,
		Duration:    best.Duration,
	}
	for _, ll := range coords {
		geom.Coordinates = append(geom.Coordinates, domain.Coordinate{Lat: ll[0], Lon: ll[1]})
	}
	return geom, nil
}

// routeURL formats waypoints as lon,lat pairs joined by semicolons.
func (c *Client) routeURL(waypoints []domain.Coordinate) string {
	parts := make([]string, len(waypoints))
	for i, w := range waypoints {
		parts[i] = fmt.Sprintf("%.6f,%.6f", w.Lon, w.Lat)
	}
	return fmt.Sprintf("%s/route/v1/%s/%s?overview=full&geometries=polyline",
		c.baseURL, c.profile, strings.Join(parts, ";"))
}
