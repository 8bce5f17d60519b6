package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
	"github.com/samirrijal/saferoute/internal/pkg/logging"
	"github.com/samirrijal/saferoute/internal/pkg/metrics"
)

// NavigationService answers a full navigation request: geocoding, safest
// route selection and destination context.
type NavigationService struct {
	geocoder ports.Geocoder
	routes   *RouteService
	nearby   *NearbyService
	weather  *WeatherService
	history  ports.HistoryRecorder
	events   ports.EventPublisher
	runs     *RunTracker
	timeout  time.Duration
}

// NavigationDeps groups the collaborators of NavigationService.
// History, Events and Runs are optional.
type NavigationDeps struct {
	Geocoder ports.Geocoder
	Routes   *RouteService
	Nearby   *NearbyService
	Weather  *WeatherService
	History  ports.HistoryRecorder
	Events   ports.EventPublisher
	Runs     *RunTracker
	Timeout  time.Duration // per geocoding call
}

// NewNavigationService creates a new NavigationService.
func NewNavigationService(deps NavigationDeps) *NavigationService {
	runs := deps.Runs
	if runs == nil {
		runs = NewRunTracker(nil)
	}
	return &NavigationService{
		geocoder: deps.Geocoder,
		routes:   deps.Routes,
		nearby:   deps.Nearby,
		weather:  deps.Weather,
		history:  deps.History,
		events:   deps.Events,
		runs:     runs,
		timeout:  deps.Timeout,
	}
}

// Navigate resolves both addresses, selects the safest route and gathers
// weather, nearby safety points and street lights at the destination.
// A newer Navigate call for the same user makes this one return ErrSuperseded.
func (s *NavigationService) Navigate(ctx context.Context, userID, source, destination string) (nav *domain.Navigation, err error) {
	source, destination = strings.TrimSpace(source), strings.TrimSpace(destination)
	if source == "" || destination == "" {
		return nil, fmt.Errorf("%w: source and destination are required", domain.ErrInvalidInput)
	}

	ctx, span := tracer.Start(ctx, "NavigationService.Navigate")
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.NavigationDuration.WithLabelValues(outcome(err)).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
		}
	}()

	runCtx, run, finish := s.runs.Begin(ctx, userID)
	defer finish()
	span.SetAttributes(attribute.Int64("run_id", run.ID))

	stale := func(err error) error {
		if !s.runs.Current(ctx, run) {
			return domain.ErrSuperseded
		}
		return err
	}

	src, err := s.geocode(runCtx, "source", source)
	if err != nil {
		return nil, stale(err)
	}
	dst, err := s.geocode(runCtx, "destination", destination)
	if err != nil {
		return nil, stale(err)
	}

	selection, err := s.routes.Build(runCtx, src.Location, dst.Location)
	if err != nil {
		return nil, stale(err)
	}

	nav = &domain.Navigation{
		RunID:       run.ID,
		Source:      *src,
		Destination: *dst,
		Selection:   *selection,
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		w, err := s.weather.Current(runCtx, dst.Location)
		if err != nil {
			logging.FromContext(ctx).Warn("weather unavailable", "error", err)
			return
		}
		nav.Weather = w
	}()
	go func() {
		defer wg.Done()
		nav.SafetyPoints = s.nearby.Summary(runCtx, dst.Location)
	}()
	go func() {
		defer wg.Done()
		nav.StreetLights = s.nearby.StreetLights(runCtx, dst.Location)
	}()
	wg.Wait()

	if !s.runs.Current(ctx, run) {
		return nil, domain.ErrSuperseded
	}

	s.recordHistory(runCtx, userID, src.DisplayName, dst.DisplayName)
	s.publish(runCtx, userID, nav)
	return nav, nil
}

func (s *NavigationService) geocode(ctx context.Context, role, address string) (*domain.GeocodedPlace, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	place, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("geocode %s %q: %w", role, address, err)
	}
	if place == nil {
		return nil, fmt.Errorf("geocode %s %q: %w", role, address, domain.ErrAddressNotFound)
	}
	return place, nil
}

func (s *NavigationService) recordHistory(ctx context.Context, userID, source, destination string) {
	if s.history == nil || userID == "" {
		return
	}
	entry := &domain.HistoryEntry{
		UserID:      userID,
		Source:      source,
		Destination: destination,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.history.Record(ctx, entry); err != nil {
		logging.FromContext(ctx).Warn("save history failed", "user_id", userID, "error", err)
	}
}

func (s *NavigationService) publish(ctx context.Context, userID string, nav *domain.Navigation) {
	if s.events == nil {
		return
	}
	safest := nav.Selection.Selected()
	event := &domain.NavigationEvent{
		UserID:        userID,
		RunID:         nav.RunID,
		Source:        nav.Source.DisplayName,
		Destination:   nav.Destination.DisplayName,
		Routes:        len(nav.Selection.Routes),
		SelectedIndex: nav.Selection.SelectedIndex,
		Time:          time.Now().UTC(),
	}
	if safest != nil {
		event.SafetyScore = safest.SafetyScore
	}
	if err := s.events.PublishNavigation(ctx, event); err != nil {
		logging.FromContext(ctx).Warn("publish navigation event failed", "error", err)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrAddressNotFound):
		return "address_not_found"
	case errors.Is(err, domain.ErrNoRouteFound):
		return "no_route_found"
	case errors.Is(err, domain.ErrSuperseded):
		return "superseded"
	default:
		return "error"
	}
}
