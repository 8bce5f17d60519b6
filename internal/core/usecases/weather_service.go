package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
)

// WeatherService reports current weather at a point.
type WeatherService struct {
	provider ports.WeatherProvider
	timeout  time.Duration
}

// NewWeatherService creates a new WeatherService.
func NewWeatherService(provider ports.WeatherProvider, timeout time.Duration) *WeatherService {
	return &WeatherService{provider: provider, timeout: timeout}
}

// Current returns the current weather at point.
func (s *WeatherService) Current(ctx context.Context, point domain.Coordinate) (*domain.Weather, error) {
	if !point.Valid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidCoordinate, point)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	w, err := s.provider.CurrentWeather(ctx, point)
	if err != nil {
		return nil, fmt.Errorf("current weather: %w", err)
	}
	return w, nil
}
