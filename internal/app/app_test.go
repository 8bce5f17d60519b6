package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/saferoute/internal/adapters/googlemaps"
	"github.com/samirrijal/saferoute/internal/adapters/nominatim"
	"github.com/samirrijal/saferoute/internal/adapters/osrm"
	"github.com/samirrijal/saferoute/internal/pkg/config"
)

func providersConfig(routing string) config.ProvidersConfig {
	return config.ProvidersConfig{
		Routing:          routing,
		OSRMURL:          "http://osrm.local",
		NominatimURL:     "http://nominatim.local",
		UserAgent:        "saferoute-test",
		OverpassURL:      "http://overpass.local/api/interpreter",
		OverpassParallel: 1,
		OpenMeteoURL:     "http://meteo.local",
		Timeout:          time.Second,
	}
}

func TestNewProviders_OSRM(t *testing.T) {
	p, err := NewProviders(providersConfig("osrm"))
	require.NoError(t, err)

	assert.IsType(t, &osrm.Client{}, p.Router)
	assert.IsType(t, &nominatim.Client{}, p.Geocoder)
	assert.NotNil(t, p.POIs)
	assert.NotNil(t, p.Weather)
}

func TestNewProviders_GoogleServesBoth(t *testing.T) {
	cfg := providersConfig("google")
	cfg.GoogleAPIKey = "test-key"

	p, err := NewProviders(cfg)
	require.NoError(t, err)

	assert.IsType(t, &googlemaps.Client{}, p.Router)
	assert.Same(t, p.Router, p.Geocoder)
}

func TestNewProviders_Errors(t *testing.T) {
	_, err := NewProviders(providersConfig("google"))
	assert.Error(t, err, "google without an api key")

	_, err = NewProviders(providersConfig("mapquest"))
	assert.Error(t, err)
}

func TestNewServices_WithoutHistory(t *testing.T) {
	p, err := NewProviders(providersConfig("osrm"))
	require.NoError(t, err)

	cfg := &config.Config{Providers: providersConfig("osrm")}
	cfg.Scoring.Samples = 5
	cfg.Nearby.Limit = 5

	s := NewServices(cfg, p, Options{})
	assert.NotNil(t, s.Navigation)
	assert.NotNil(t, s.Routes)
	assert.Nil(t, s.History)
}
