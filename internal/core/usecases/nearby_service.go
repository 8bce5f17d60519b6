package usecases

import (
	"context"
	"sort"
	"time"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
	"github.com/samirrijal/saferoute/internal/pkg/geospatial"
	"github.com/samirrijal/saferoute/internal/pkg/logging"
)

// NearbyConfig tunes destination-only POI lookups.
type NearbyConfig struct {
	Radius       float64
	Limit        int
	LightsRadius float64
	Timeout      time.Duration
}

// DefaultNearbyConfig returns a 1500 m radius, 5 results and a 1000 m lamp radius.
func DefaultNearbyConfig() NearbyConfig {
	return NearbyConfig{
		Radius:       1500,
		Limit:        5,
		LightsRadius: 1000,
		Timeout:      10 * time.Second,
	}
}

// summaryCategories are shown to the user; they do not affect scoring.
var summaryCategories = []domain.Category{
	domain.CategoryPolice,
	domain.CategoryHospital,
	domain.CategoryFireStation,
	domain.CategoryBusStation,
	domain.CategorySchool,
}

// NearbyService answers "what is around this point" queries.
type NearbyService struct {
	pois ports.POIProvider
	cfg  NearbyConfig
}

// NewNearbyService creates a new NearbyService.
func NewNearbyService(pois ports.POIProvider, cfg NearbyConfig) *NearbyService {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultNearbyConfig().Limit
	}
	return &NearbyService{pois: pois, cfg: cfg}
}

// Summary returns the closest safety POIs to point, nearest first.
// Provider failures yield an empty list.
func (s *NearbyService) Summary(ctx context.Context, point domain.Coordinate) []domain.SafetyPoint {
	filters := make([]ports.POIFilter, len(summaryCategories))
	for i, c := range summaryCategories {
		filters[i] = ports.POIFilter{Category: c, RadiusMeters: s.cfg.Radius}
	}

	found, ok := attempt(ctx, s.cfg.Timeout, func(ctx context.Context) ([]domain.POI, error) {
		return s.pois.Search(ctx, point, filters)
	}, func(err error) {
		logging.FromContext(ctx).Warn("nearby safety lookup failed", "point", point.String(), "error", err)
	})
	if !ok || len(found) == 0 {
		return []domain.SafetyPoint{}
	}

	points := make([]domain.SafetyPoint, 0, len(found))
	for _, poi := range found {
		points = append(points, domain.SafetyPoint{
			Category: poi.Category,
			Type:     poi.Category.Label(),
			Name:     poi.DisplayName(),
			Location: poi.Location,
			Distance: geospatial.Distance(point, poi.Location),
		})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Distance < points[j].Distance
	})
	if len(points) > s.cfg.Limit {
		points = points[:s.cfg.Limit]
	}
	return points
}

// StreetLights returns street lamp positions around point.
func (s *NearbyService) StreetLights(ctx context.Context, point domain.Coordinate) []domain.Coordinate {
	filters := []ports.POIFilter{{Category: domain.CategoryStreetLamp, RadiusMeters: s.cfg.LightsRadius}}

	found, ok := attempt(ctx, s.cfg.Timeout, func(ctx context.Context) ([]domain.POI, error) {
		return s.pois.Search(ctx, point, filters)
	}, func(err error) {
		logging.FromContext(ctx).Warn("street light lookup failed", "point", point.String(), "error", err)
	})
	if !ok {
		return []domain.Coordinate{}
	}

	lights := make([]domain.Coordinate, 0, len(found))
	for _, poi := range found {
		lights = append(lights, poi.Location)
	}
	return lights
}
