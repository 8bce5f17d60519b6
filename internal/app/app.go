// Package app builds the navigation services from configuration. It is
// shared by the API server and the plan CLI.
package app

import (
	"fmt"
	"time"

	"github.com/samirrijal/saferoute/internal/adapters/googlemaps"
	"github.com/samirrijal/saferoute/internal/adapters/nominatim"
	"github.com/samirrijal/saferoute/internal/adapters/openmeteo"
	"github.com/samirrijal/saferoute/internal/adapters/osrm"
	"github.com/samirrijal/saferoute/internal/adapters/overpass"
	"github.com/samirrijal/saferoute/internal/core/ports"
	"github.com/samirrijal/saferoute/internal/core/usecases"
	"github.com/samirrijal/saferoute/internal/pkg/config"
)

// Providers are the external map services.
type Providers struct {
	Router   ports.Router
	Geocoder ports.Geocoder
	POIs     ports.POIProvider
	Weather  ports.WeatherProvider
}

// NewProviders connects the providers selected by cfg. Google routing also
// supplies geocoding; otherwise OSRM and Nominatim are used.
func NewProviders(cfg config.ProvidersConfig) (*Providers, error) {
	p := &Providers{
		POIs:    overpass.NewClient(cfg.OverpassURL, cfg.OverpassParallel, cfg.Timeout),
		Weather: openmeteo.NewClient(cfg.OpenMeteoURL, cfg.Timeout),
	}

	switch cfg.Routing {
	case "google":
		gm, err := googlemaps.NewClient(cfg.GoogleAPIKey, cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("google maps: %w", err)
		}
		p.Router, p.Geocoder = gm, gm
	case "osrm":
		p.Router = osrm.NewClient(cfg.OSRMURL, cfg.Timeout)
		p.Geocoder = nominatim.NewClient(cfg.NominatimURL, cfg.UserAgent, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown routing provider %q", cfg.Routing)
	}
	return p, nil
}

// Services are the use cases behind the API.
type Services struct {
	Navigation *usecases.NavigationService
	Routes     *usecases.RouteService
	Nearby     *usecases.NearbyService
	Weather    *usecases.WeatherService
	History    *usecases.HistoryService
}

// Options carries the optional collaborators of the navigation flow.
// A nil Recorder records history synchronously through History.
type Options struct {
	History  ports.HistoryRepository
	Recorder ports.HistoryRecorder
	Events   ports.EventPublisher
	Runs     ports.RunStore
}

// NewServices wires use cases on top of p.
func NewServices(cfg *config.Config, p *Providers, opts Options) *Services {
	timeout := cfg.Providers.Timeout

	scorer := usecases.NewSafetyScorer(p.POIs, usecases.ScoringConfig{
		Samples:         cfg.Scoring.Samples,
		EmergencyRadius: cfg.Scoring.EmergencyRadius,
		LampRadius:      cfg.Scoring.LampRadius,
		Timeout:         timeout,
	})
	routes := usecases.NewRouteService(p.Router, scorer, timeout)
	nearby := usecases.NewNearbyService(p.POIs, usecases.NearbyConfig{
		Radius:       cfg.Nearby.Radius,
		Limit:        cfg.Nearby.Limit,
		LightsRadius: cfg.Nearby.LightsRadius,
		Timeout:      timeout,
	})
	weather := usecases.NewWeatherService(p.Weather, timeout)

	s := &Services{
		Routes:  routes,
		Nearby:  nearby,
		Weather: weather,
	}

	var recorder ports.HistoryRecorder
	if opts.History != nil {
		s.History = usecases.NewHistoryService(opts.History)
		recorder = s.History
	}
	if opts.Recorder != nil {
		recorder = opts.Recorder
	}

	s.Navigation = usecases.NewNavigationService(usecases.NavigationDeps{
		Geocoder: p.Geocoder,
		Routes:   routes,
		Nearby:   nearby,
		Weather:  weather,
		History:  recorder,
		Events:   opts.Events,
		Runs:     usecases.NewRunTracker(opts.Runs),
		Timeout:  timeout,
	})
	return s
}

// RequestTimeout is the overall navigation deadline.
func RequestTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Server.RequestTimeout) * time.Second
}
