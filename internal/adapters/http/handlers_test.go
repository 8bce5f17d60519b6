package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/saferoute/internal/adapters/http"
	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
	"github.com/samirrijal/saferoute/internal/core/usecases"
)

// ---- Mock providers ----

var (
	charminar = domain.Coordinate{Lat: 17.3616, Lon: 78.4747}
	hitech    = domain.Coordinate{Lat: 17.4474, Lon: 78.3762}
)

type mockGeocoder struct {
	geocodeFn func(ctx context.Context, address string) (*domain.GeocodedPlace, error)
}

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (*domain.GeocodedPlace, error) {
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, address)
	}
	switch address {
	case "Charminar":
		return &domain.GeocodedPlace{Location: charminar, DisplayName: "Charminar, Hyderabad"}, nil
	case "Hitech City":
		return &domain.GeocodedPlace{Location: hitech, DisplayName: "HITEC City, Hyderabad"}, nil
	}
	return nil, domain.ErrAddressNotFound
}

type mockRouter struct {
	routeFn func(ctx context.Context, waypoints []domain.Coordinate) (*domain.RouteGeometry, error)
}

func (m *mockRouter) Route(ctx context.Context, waypoints []domain.Coordinate) (*domain.RouteGeometry, error) {
	if m.routeFn != nil {
		return m.routeFn(ctx, waypoints)
	}
	return &domain.RouteGeometry{Coordinates: waypoints, Distance: 3000, Duration: 420}, nil
}

type mockPOIProvider struct {
	searchFn func(ctx context.Context, center domain.Coordinate, filters []ports.POIFilter) ([]domain.POI, error)
}

func (m *mockPOIProvider) Search(ctx context.Context, center domain.Coordinate, filters []ports.POIFilter) ([]domain.POI, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, center, filters)
	}
	return nil, nil
}

type mockWeather struct {
	currentFn func(ctx context.Context, point domain.Coordinate) (*domain.Weather, error)
}

func (m *mockWeather) CurrentWeather(ctx context.Context, point domain.Coordinate) (*domain.Weather, error) {
	if m.currentFn != nil {
		return m.currentFn(ctx, point)
	}
	return &domain.Weather{Temperature: 28, Condition: "Clear"}, nil
}

type mockHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
}

func (m *mockHistoryRepo) Insert(ctx context.Context, e *domain.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = fmt.Sprintf("%d", len(m.entries)+1)
	m.entries = append(m.entries, *e)
	return nil
}

func (m *mockHistoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.HistoryEntry{}
	for _, e := range m.entries {
		if e.UserID == userID && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

// ---- Test helpers ----

type fixture struct {
	geocoder *mockGeocoder
	router   *mockRouter
	pois     *mockPOIProvider
	weather  *mockWeather
	history  *mockHistoryRepo
}

func newFixture() *fixture {
	return &fixture{
		geocoder: &mockGeocoder{},
		router:   &mockRouter{},
		pois:     &mockPOIProvider{},
		weather:  &mockWeather{},
		history:  &mockHistoryRepo{},
	}
}

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(f *fixture, opts ...func(*handler.Dependencies)) *handler.Dependencies {
	scorer := usecases.NewSafetyScorer(f.pois, usecases.DefaultScoringConfig())
	routes := usecases.NewRouteService(f.router, scorer, 0)
	nearby := usecases.NewNearbyService(f.pois, usecases.DefaultNearbyConfig())
	weather := usecases.NewWeatherService(f.weather, 0)
	history := usecases.NewHistoryService(f.history)

	d := &handler.Dependencies{
		Navigation: usecases.NewNavigationService(usecases.NavigationDeps{
			Geocoder: f.geocoder,
			Routes:   routes,
			Nearby:   nearby,
			Weather:  weather,
			History:  history,
		}),
		Routes:  routes,
		Nearby:  nearby,
		Weather: weather,
		History: history,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func decodeError(t *testing.T, body io.Reader) handler.APIError {
	t.Helper()
	var apiErr handler.APIError
	if err := json.Unmarshal(readBody(t, body), &apiErr); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return apiErr
}

// ---- Navigation handler tests ----

func TestNavigate_Success(t *testing.T) {
	f := newFixture()
	f.pois.searchFn = func(ctx context.Context, center domain.Coordinate, filters []ports.POIFilter) ([]domain.POI, error) {
		if len(filters) == 1 && filters[0].Category == domain.CategoryStreetLamp {
			return []domain.POI{
				{Category: domain.CategoryStreetLamp, Location: center},
				{Category: domain.CategoryStreetLamp, Location: center},
			}, nil
		}
		return nil, nil
	}
	app := setupApp(makeDeps(f))

	req := httptest.NewRequest("GET", "/v1/navigate?from=Charminar&to=Hitech+City", nil)
	req.Header.Set("X-User-ID", "u1")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "private, no-store" {
		t.Errorf("expected private, no-store, got %q", cc)
	}

	var result struct {
		Source struct {
			DisplayName string `json:"display_name"`
		} `json:"source"`
		Selection        domain.RouteSelection `json:"selection"`
		Weather          *domain.Weather       `json:"weather"`
		StreetLightCount int                   `json:"street_light_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Source.DisplayName != "Charminar, Hyderabad" {
		t.Errorf("expected source display name, got %q", result.Source.DisplayName)
	}
	if len(result.Selection.Routes) != 3 {
		t.Errorf("expected 3 routes, got %d", len(result.Selection.Routes))
	}
	if result.Weather == nil || result.Weather.Condition != "Clear" {
		t.Errorf("expected Clear weather, got %+v", result.Weather)
	}
	if result.StreetLightCount != 2 {
		t.Errorf("expected 2 street lights, got %d", result.StreetLightCount)
	}

	entries, _ := f.history.ListByUser(context.Background(), "u1", 10)
	if len(entries) != 1 || entries[0].Source != "Charminar, Hyderabad" {
		t.Errorf("expected one recorded search, got %+v", entries)
	}
}

func TestNavigate_MissingParams(t *testing.T) {
	app := setupApp(makeDeps(newFixture()))

	tests := []string{
		"/v1/navigate",
		"/v1/navigate?from=Charminar",
		"/v1/navigate?to=Hitech+City",
		"/v1/navigate?from=+&to=Hitech+City",
	}
	for _, url := range tests {
		req := httptest.NewRequest("GET", url, nil)
		resp, _ := app.Test(req, -1)
		if resp.StatusCode != 400 {
			t.Errorf("%s: expected 400, got %d", url, resp.StatusCode)
		}
	}
}

func TestNavigate_AddressNotFound(t *testing.T) {
	app := setupApp(makeDeps(newFixture()))

	req := httptest.NewRequest("GET", "/v1/navigate?from=Atlantis&to=Hitech+City", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if apiErr := decodeError(t, resp.Body); apiErr.Code != "address_not_found" {
		t.Errorf("expected address_not_found, got %q", apiErr.Code)
	}
}

func TestNavigate_NoRoute(t *testing.T) {
	f := newFixture()
	f.router.routeFn = func(ctx context.Context, waypoints []domain.Coordinate) (*domain.RouteGeometry, error) {
		return nil, domain.ErrNoRoute
	}
	app := setupApp(makeDeps(f))

	req := httptest.NewRequest("GET", "/v1/navigate?from=Charminar&to=Hitech+City", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if apiErr := decodeError(t, resp.Body); apiErr.Code != "no_route_found" {
		t.Errorf("expected no_route_found, got %q", apiErr.Code)
	}
}

// ---- Route handler tests ----

func TestSafestRoute_Success(t *testing.T) {
	app := setupApp(makeDeps(newFixture()))

	req := httptest.NewRequest("GET", "/v1/routes/safest?src_lat=17.3616&src_lon=78.4747&dst_lat=17.4474&dst_lon=78.3762", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var sel domain.RouteSelection
	if err := json.NewDecoder(resp.Body).Decode(&sel); err != nil {
		t.Fatal(err)
	}
	if len(sel.Routes) != 3 {
		t.Fatalf("expected 3 routes, got %d", len(sel.Routes))
	}
	if !sel.Routes[sel.SelectedIndex].Safest {
		t.Error("expected selected route to be marked safest")
	}
	if sel.Routes[0].DistanceKm != "3.00" || sel.Routes[0].DurationMin != 7 {
		t.Errorf("unexpected direct route summary: %+v", sel.Routes[0])
	}
}

func TestSafestRoute_BadCoordinates(t *testing.T) {
	app := setupApp(makeDeps(newFixture()))

	tests := []string{
		"/v1/routes/safest?src_lat=17.36&src_lon=78.47",
		"/v1/routes/safest?src_lat=abc&src_lon=78.47&dst_lat=17.44&dst_lon=78.37",
		"/v1/routes/safest?src_lat=95&src_lon=78.47&dst_lat=17.44&dst_lon=78.37",
	}
	for _, url := range tests {
		req := httptest.NewRequest("GET", url, nil)
		resp, _ := app.Test(req, -1)
		if resp.StatusCode != 400 {
			t.Errorf("%s: expected 400, got %d", url, resp.StatusCode)
		}
	}
}

// ---- Safety handler tests ----

func TestNearbySafety_Success(t *testing.T) {
	f := newFixture()
	f.pois.searchFn = func(ctx context.Context, center domain.Coordinate, filters []ports.POIFilter) ([]domain.POI, error) {
		return []domain.POI{
			{Category: domain.CategoryHospital, Location: domain.Coordinate{Lat: center.Lat + 0.002, Lon: center.Lon}},
			{Category: domain.CategoryPolice, Location: domain.Coordinate{Lat: center.Lat + 0.001, Lon: center.Lon}},
		}, nil
	}
	app := setupApp(makeDeps(f))

	req := httptest.NewRequest("GET", "/v1/safety/nearby?lat=17.3616&lon=78.4747", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=600" {
		t.Errorf("expected public, max-age=600, got %q", cc)
	}

	var points []domain.SafetyPoint
	if err := json.NewDecoder(resp.Body).Decode(&points); err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Type != "police" || points[0].Name != domain.DefaultPOIName {
		t.Errorf("expected nearest unnamed police first, got %+v", points[0])
	}
}

func TestNearbySafety_ProviderDownReturnsEmpty(t *testing.T) {
	f := newFixture()
	f.pois.searchFn = func(ctx context.Context, center domain.Coordinate, filters []ports.POIFilter) ([]domain.POI, error) {
		return nil, fmt.Errorf("%w: overpass busy", domain.ErrProvider)
	}
	app := setupApp(makeDeps(f))

	req := httptest.NewRequest("GET", "/v1/safety/nearby?lat=17.3616&lon=78.4747", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body := strings.TrimSpace(string(readBody(t, resp.Body))); body != "[]" {
		t.Errorf("expected empty list, got %s", body)
	}
}

func TestStreetLights_Count(t *testing.T) {
	f := newFixture()
	f.pois.searchFn = func(ctx context.Context, center domain.Coordinate, filters []ports.POIFilter) ([]domain.POI, error) {
		return []domain.POI{
			{Category: domain.CategoryStreetLamp, Location: center},
			{Category: domain.CategoryStreetLamp, Location: center},
			{Category: domain.CategoryStreetLamp, Location: center},
		}, nil
	}
	app := setupApp(makeDeps(f))

	req := httptest.NewRequest("GET", "/v1/safety/lights?lat=17.3616&lon=78.4747", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Count  int                 `json:"count"`
		Lights []domain.Coordinate `json:"lights"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Count != 3 || len(result.Lights) != 3 {
		t.Errorf("expected 3 lights, got count=%d len=%d", result.Count, len(result.Lights))
	}
}

// ---- Weather handler tests ----

func TestWeather_Success(t *testing.T) {
	app := setupApp(makeDeps(newFixture()))

	req := httptest.NewRequest("GET", "/v1/weather?lat=17.3616&lon=78.4747", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var w domain.Weather
	json.NewDecoder(resp.Body).Decode(&w)
	if w.Temperature != 28 || w.Condition != "Clear" {
		t.Errorf("unexpected weather %+v", w)
	}
}

func TestWeather_ProviderError(t *testing.T) {
	f := newFixture()
	f.weather.currentFn = func(ctx context.Context, point domain.Coordinate) (*domain.Weather, error) {
		return nil, fmt.Errorf("%w: open-meteo: status 503", domain.ErrProvider)
	}
	app := setupApp(makeDeps(f))

	req := httptest.NewRequest("GET", "/v1/weather?lat=17.3616&lon=78.4747", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 502 {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	if apiErr := decodeError(t, resp.Body); apiErr.Code != "provider_error" {
		t.Errorf("expected provider_error, got %q", apiErr.Code)
	}
}

// ---- History handler tests ----

func TestAddHistory_RequiresUser(t *testing.T) {
	app := setupApp(makeDeps(newFixture()))

	req := httptest.NewRequest("POST", "/v1/history", strings.NewReader(`{"source":"A","destination":"B"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAddHistory_Created(t *testing.T) {
	f := newFixture()
	app := setupApp(makeDeps(f))

	body, _ := json.Marshal(map[string]string{"source": " Charminar ", "destination": "Hitech City"})
	req := httptest.NewRequest("POST", "/v1/history", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "u1")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var entry domain.HistoryEntry
	json.NewDecoder(resp.Body).Decode(&entry)
	if entry.ID == "" || entry.Source != "Charminar" || entry.UserID != "u1" {
		t.Errorf("unexpected entry %+v", entry)
	}
}

func TestAddHistory_MissingFields(t *testing.T) {
	app := setupApp(makeDeps(newFixture()))

	req := httptest.NewRequest("POST", "/v1/history", strings.NewReader(`{"source":"Charminar"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "u1")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListHistory_Pagination(t *testing.T) {
	f := newFixture()
	for i := 0; i < 5; i++ {
		f.history.Insert(context.Background(), &domain.HistoryEntry{
			UserID:      "u1",
			Source:      fmt.Sprintf("from %d", i),
			Destination: "to",
			CreatedAt:   time.Now(),
		})
	}
	f.history.Insert(context.Background(), &domain.HistoryEntry{UserID: "u2", Source: "x", Destination: "y"})
	app := setupApp(makeDeps(f))

	req := httptest.NewRequest("GET", "/v1/history?offset=2&limit=2", nil)
	req.Header.Set("X-User-ID", "u1")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	link := resp.Header.Get("Link")
	if !strings.Contains(link, `rel="next"`) || !strings.Contains(link, `rel="prev"`) {
		t.Errorf("expected prev and next links, got %s", link)
	}

	var result struct {
		Data       []domain.HistoryEntry `json:"data"`
		Pagination struct {
			Offset int `json:"offset"`
			Limit  int `json:"limit"`
			Total  int `json:"total"`
		} `json:"pagination"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Pagination.Total != 5 {
		t.Errorf("expected total 5, got %d", result.Pagination.Total)
	}
	if len(result.Data) != 2 || result.Data[0].Source != "from 2" {
		t.Errorf("expected entries 2 and 3, got %+v", result.Data)
	}
}

func TestListHistory_RequiresUser(t *testing.T) {
	app := setupApp(makeDeps(newFixture()))

	req := httptest.NewRequest("GET", "/v1/history", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

// ---- System handler tests ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps(newFixture()))

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "healthy" {
		t.Errorf("expected healthy, got %v", body["status"])
	}
}

func TestReady_NoDB(t *testing.T) {
	app := setupApp(makeDeps(newFixture()))

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503 when DB is nil, got %d", resp.StatusCode)
	}
}

type failingPinger struct{}

func (failingPinger) Ping(ctx context.Context) error { return fmt.Errorf("connection refused") }

func TestReady_RunStoreDown(t *testing.T) {
	app := setupApp(makeDeps(newFixture(), func(d *handler.Dependencies) {
		d.Runs = failingPinger{}
	}))

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)

	var body struct {
		Checks map[string]string `json:"checks"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	if !strings.HasPrefix(body.Checks["run_store"], "error:") {
		t.Errorf("expected run_store error, got %q", body.Checks["run_store"])
	}
}

func TestAPIVersionHeader(t *testing.T) {
	app := setupApp(makeDeps(newFixture()))

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if v := resp.Header.Get("X-API-Version"); v != "1.0.0" {
		t.Errorf("expected X-API-Version 1.0.0, got %q", v)
	}
}

func TestETag_NotModified(t *testing.T) {
	app := setupApp(makeDeps(newFixture()))

	req := httptest.NewRequest("GET", "/v1/weather?lat=17.3616&lon=78.4747", nil)
	resp, _ := app.Test(req, -1)
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	req = httptest.NewRequest("GET", "/v1/weather?lat=17.3616&lon=78.4747", nil)
	req.Header.Set("If-None-Match", etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}

func TestETag_SkipsNoStore(t *testing.T) {
	app := setupApp(makeDeps(newFixture()))

	req := httptest.NewRequest("GET", "/v1/navigate?from=Charminar&to=Hitech+City", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if etag := resp.Header.Get("ETag"); etag != "" {
		t.Errorf("expected no ETag on no-store response, got %q", etag)
	}
}

func TestErrorResponse_CarriesRequestID(t *testing.T) {
	app := setupApp(makeDeps(newFixture()))

	req := httptest.NewRequest("GET", "/v1/weather", nil)
	resp, _ := app.Test(req, -1)
	apiErr := decodeError(t, resp.Body)
	if apiErr.RequestID == "" {
		t.Error("expected request_id in error body")
	}
	if apiErr.RequestID != resp.Header.Get("X-Request-ID") {
		t.Errorf("request_id %q does not match header %q", apiErr.RequestID, resp.Header.Get("X-Request-ID"))
	}
}

func TestWebSocket_NotConfigured(t *testing.T) {
	app := setupApp(makeDeps(newFixture()))

	req := httptest.NewRequest("GET", "/ws", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 503 {
		t.Errorf("expected 503 without an event stream, got %d", resp.StatusCode)
	}
}

// TestAccessLogMiddleware verifies structured access logging is emitted.
func TestAccessLogMiddleware(t *testing.T) {
	app := fiber.New()

	app.Use(handler.AccessLogMiddleware())

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "test-req-123")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "ok") {
		t.Errorf("expected response body to contain 'ok', got %s", string(body))
	}
}
