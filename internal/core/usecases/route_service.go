package usecases

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
	"github.com/samirrijal/saferoute/internal/pkg/geospatial"
	"github.com/samirrijal/saferoute/internal/pkg/logging"
	"github.com/samirrijal/saferoute/internal/pkg/metrics"
)

var tracer = otel.Tracer("github.com/samirrijal/saferoute/internal/core/usecases")

// RouteService builds and ranks candidate routes between two points.
type RouteService struct {
	router  ports.Router
	scorer  *SafetyScorer
	timeout time.Duration
}

// NewRouteService creates a new RouteService. timeout bounds each routing call.
func NewRouteService(router ports.Router, scorer *SafetyScorer, timeout time.Duration) *RouteService {
	return &RouteService{router: router, scorer: scorer, timeout: timeout}
}

type candidate struct {
	kind     domain.RouteKind
	geometry *domain.RouteGeometry
}

// Build requests the direct route plus two via-waypoint alternates, scores
// each one and marks the safest. Only a direct-route failure is fatal.
func (s *RouteService) Build(ctx context.Context, src, dest domain.Coordinate) (*domain.RouteSelection, error) {
	ctx, span := tracer.Start(ctx, "RouteService.Build")
	defer span.End()

	w1, w2 := geospatial.WaypointOffsets(src, dest)
	paths := []struct {
		kind      domain.RouteKind
		waypoints []domain.Coordinate
	}{
		{domain.RouteDirect, []domain.Coordinate{src, dest}},
		{domain.RouteVia1, []domain.Coordinate{src, w1, dest}},
		{domain.RouteVia2, []domain.Coordinate{src, w2, dest}},
	}

	found := make([]*domain.RouteGeometry, len(paths))
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		geom, err := s.route(gctx, paths[0].waypoints)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrNoRouteFound, err)
		}
		found[0] = geom
		return nil
	})
	for i := 1; i < len(paths); i++ {
		g.Go(func() error {
			kind := paths[i].kind
			found[i], _ = attempt(gctx, 0, func(ctx context.Context) (*domain.RouteGeometry, error) {
				return s.route(ctx, paths[i].waypoints)
			}, func(err error) {
				metrics.AlternateRouteFailures.WithLabelValues(string(kind)).Inc()
				logging.FromContext(ctx).Warn("alternate route unavailable", "kind", kind, "error", err)
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	var candidates []candidate
	for i, geom := range found {
		if geom == nil {
			continue
		}
		metrics.RoutesGenerated.WithLabelValues(string(paths[i].kind)).Inc()
		candidates = append(candidates, candidate{kind: paths[i].kind, geometry: geom})
	}

	routes := s.scoreAll(ctx, candidates)
	selected := SelectSafest(scoresOf(routes))
	annotate(routes, selected)

	span.SetAttributes(
		attribute.Int("routes", len(routes)),
		attribute.Int("selected_index", selected),
		attribute.Int("safety_score", routes[selected].SafetyScore),
	)
	return &domain.RouteSelection{Routes: routes, SelectedIndex: selected}, nil
}

func (s *RouteService) route(ctx context.Context, waypoints []domain.Coordinate) (*domain.RouteGeometry, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	geom, err := s.router.Route(ctx, waypoints)
	if err != nil {
		return nil, err
	}
	if geom == nil {
		return nil, domain.ErrNoRoute
	}
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	return geom, nil
}

func (s *RouteService) scoreAll(ctx context.Context, candidates []candidate) []domain.ScoredRoute {
	routes := make([]domain.ScoredRoute, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range candidates {
		g.Go(func() error {
			routes[i] = domain.ScoredRoute{
				Kind:        c.kind,
				Geometry:    *c.geometry,
				SafetyScore: s.scorer.Score(gctx, c.geometry),
				DistanceKm:  strconv.FormatFloat(c.geometry.Distance/1000, 'f', 2, 64),
				DurationMin: int(math.Round(c.geometry.Duration / 60)),
			}
			return nil
		})
	}
	_ = g.Wait()
	return routes
}

// SelectSafest returns the index of the highest score. Ties keep the
// earliest index; an empty slice yields -1.
func SelectSafest(scores []int) int {
	if len(scores) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return best
}

func scoresOf(routes []domain.ScoredRoute) []int {
	out := make([]int, len(routes))
	for i, r := range routes {
		out[i] = r.SafetyScore
	}
	return out
}

// annotate sets Rank (1 = safest, ties by generation order) and Safest.
func annotate(routes []domain.ScoredRoute, selected int) {
	order := make([]int, len(routes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return routes[order[a]].SafetyScore > routes[order[b]].SafetyScore
	})
	for rank, idx := range order {
		routes[idx].Rank = rank + 1
	}
	if selected >= 0 {
		routes[selected].Safest = true
	}
}
