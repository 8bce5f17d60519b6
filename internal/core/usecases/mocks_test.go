package usecases_test

import (
	"context"
	"sync"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
)

// --- Mock Router ---

type mockRouter struct {
	routeFn func(ctx context.Context, waypoints []domain.Coordinate) (*domain.RouteGeometry, error)
}

func (m *mockRouter) Route(ctx context.Context, waypoints []domain.Coordinate) (*domain.RouteGeometry, error) {
	if m.routeFn != nil {
		return m.routeFn(ctx, waypoints)
	}
	return nil, domain.ErrNoRoute
}

// --- Mock POIProvider ---

type mockPOIProvider struct {
	mu       sync.Mutex
	calls    []domain.Coordinate
	filters  [][]ports.POIFilter
	searchFn func(ctx context.Context, center domain.Coordinate, filters []ports.POIFilter) ([]domain.POI, error)
}

func (m *mockPOIProvider) Search(ctx context.Context, center domain.Coordinate, filters []ports.POIFilter) ([]domain.POI, error) {
	m.mu.Lock()
	m.calls = append(m.calls, center)
	m.filters = append(m.filters, filters)
	m.mu.Unlock()
	if m.searchFn != nil {
		return m.searchFn(ctx, center, filters)
	}
	return nil, nil
}

func (m *mockPOIProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// --- Mock Geocoder ---

type mockGeocoder struct {
	geocodeFn func(ctx context.Context, address string) (*domain.GeocodedPlace, error)
}

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (*domain.GeocodedPlace, error) {
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, address)
	}
	return nil, domain.ErrAddressNotFound
}

// --- Mock WeatherProvider ---

type mockWeather struct {
	currentFn func(ctx context.Context, point domain.Coordinate) (*domain.Weather, error)
}

func (m *mockWeather) CurrentWeather(ctx context.Context, point domain.Coordinate) (*domain.Weather, error) {
	if m.currentFn != nil {
		return m.currentFn(ctx, point)
	}
	return &domain.Weather{Temperature: 28, Condition: "Clear"}, nil
}

// --- Mock HistoryRepository ---

type mockHistoryRepo struct {
	mu         sync.Mutex
	entries    []domain.HistoryEntry
	insertErr  error
	listByUser func(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error)
}

func (m *mockHistoryRepo) Insert(ctx context.Context, entry *domain.HistoryEntry) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockHistoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error) {
	if m.listByUser != nil {
		return m.listByUser(ctx, userID, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.HistoryEntry
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.NavigationEvent
}

func (m *mockPublisher) PublishNavigation(ctx context.Context, event *domain.NavigationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *event)
	return nil
}

// --- Mock RunStore ---

type mockRunStore struct {
	mu     sync.Mutex
	latest map[string]int64
	err    error
}

func (m *mockRunStore) Next(ctx context.Context, userID string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latest == nil {
		m.latest = make(map[string]int64)
	}
	m.latest[userID]++
	return m.latest[userID], nil
}

func (m *mockRunStore) Current(ctx context.Context, userID string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest[userID], nil
}

// bump simulates another instance starting a run.
func (m *mockRunStore) bump(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest[userID]++
}

// line builds an n-point geometry starting at lat, stepping north.
func line(lat, lon float64, n int, distance, duration float64) *domain.RouteGeometry {
	coords := make([]domain.Coordinate, n)
	for i := range coords {
		coords[i] = domain.Coordinate{Lat: lat + float64(i)*0.001, Lon: lon}
	}
	return &domain.RouteGeometry{Coordinates: coords, Distance: distance, Duration: duration}
}

func pois(n int, category domain.Category) []domain.POI {
	out := make([]domain.POI, n)
	for i := range out {
		out[i] = domain.POI{Category: category}
	}
	return out
}
