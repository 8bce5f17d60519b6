package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/pkg/metrics"
)

// DefaultBaseURL is the public Open-Meteo forecast API.
const DefaultBaseURL = "https://api.open-meteo.com"

// Client implements ports.WeatherProvider using Open-Meteo. No API key is needed.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Open-Meteo client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// forecastResponse is the subset of /v1/forecast used here.
type forecastResponse struct {
	CurrentWeather *struct {
		Temperature float64 `json:"temperature"`
		WeatherCode int     `json:"weathercode"`
	} `json:"current_weather"`
}

// CurrentWeather returns the rounded temperature and a coarse condition at point.
func (c *Client) CurrentWeather(ctx context.Context, point domain.Coordinate) (w *domain.Weather, err error) {
	defer metrics.ObserveProvider("open_meteo", time.Now(), &err)

	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.6f", point.Lat))
	params.Set("longitude", fmt.Sprintf("%.6f", point.Lon))
	params.Set("current_weather", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/forecast?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: open-meteo: %w", domain.ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: open-meteo status %d: %s", domain.ErrProvider, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var response forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("%w: decode open-meteo response: %w", domain.ErrProvider, err)
	}
	if response.CurrentWeather == nil {
		return nil, fmt.Errorf("%w: open-meteo response has no current_weather", domain.ErrProvider)
	}

	return &domain.Weather{
		Temperature: int(math.Round(response.CurrentWeather.Temperature)),
		Condition:   condition(response.CurrentWeather.WeatherCode),
	}, nil
}

// condition maps a WMO weather code to the two labels shown to users.
func condition(code int) string {
	if code == 0 {
		return "Clear"
	}
	return "Cloudy"
}
