package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
	"github.com/samirrijal/saferoute/internal/pkg/geospatial"
	"github.com/samirrijal/saferoute/internal/pkg/logging"
	"github.com/samirrijal/saferoute/internal/pkg/metrics"
)

// ScoringConfig tunes route sampling.
type ScoringConfig struct {
	Samples         int
	EmergencyRadius float64       // police, hospital, fire station
	LampRadius      float64       // street lamps
	Timeout         time.Duration // per POI query
}

// DefaultScoringConfig returns 5 samples, 500 m emergency and 800 m lamp radii.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Samples:         5,
		EmergencyRadius: 500,
		LampRadius:      800,
		Timeout:         10 * time.Second,
	}
}

// SafetyScorer counts safety POIs near evenly spaced samples of a route.
type SafetyScorer struct {
	pois ports.POIProvider
	cfg  ScoringConfig
}

// NewSafetyScorer creates a new SafetyScorer.
func NewSafetyScorer(pois ports.POIProvider, cfg ScoringConfig) *SafetyScorer {
	if cfg.Samples <= 0 {
		cfg.Samples = DefaultScoringConfig().Samples
	}
	return &SafetyScorer{pois: pois, cfg: cfg}
}

func (s *SafetyScorer) filters() []ports.POIFilter {
	return []ports.POIFilter{
		{Category: domain.CategoryPolice, RadiusMeters: s.cfg.EmergencyRadius},
		{Category: domain.CategoryHospital, RadiusMeters: s.cfg.EmergencyRadius},
		{Category: domain.CategoryFireStation, RadiusMeters: s.cfg.EmergencyRadius},
		{Category: domain.CategoryStreetLamp, RadiusMeters: s.cfg.LampRadius},
	}
}

// Score returns the total number of qualifying POIs found across all samples.
// Each matching element weighs 1. A failed sample contributes 0.
func (s *SafetyScorer) Score(ctx context.Context, route *domain.RouteGeometry) int {
	if route == nil || len(route.Coordinates) == 0 {
		return 0
	}

	indices := geospatial.SampleIndices(len(route.Coordinates), s.cfg.Samples)
	counts := make([]int, len(indices))
	filters := s.filters()

	var wg sync.WaitGroup
	for i, idx := range indices {
		wg.Add(1)
		go func(i int, point domain.Coordinate) {
			defer wg.Done()
			counts[i] = s.sample(ctx, point, filters)
		}(i, route.Coordinates[idx])
	}
	wg.Wait()

	total := 0
	for _, n := range counts {
		total += n
	}
	metrics.RouteSafetyScore.Observe(float64(total))
	return total
}

func (s *SafetyScorer) sample(ctx context.Context, point domain.Coordinate, filters []ports.POIFilter) int {
	found, ok := attempt(ctx, s.cfg.Timeout, func(ctx context.Context) ([]domain.POI, error) {
		return s.pois.Search(ctx, point, filters)
	}, func(err error) {
		metrics.SampleFailures.Inc()
		logging.FromContext(ctx).Warn("safety sample failed", "point", point.String(), "error", err)
	})
	if !ok {
		return 0
	}
	return len(found)
}
