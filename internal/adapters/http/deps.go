package http

import (
	"context"
	"time"

	"github.com/samirrijal/saferoute/internal/adapters/postgres"
	"github.com/samirrijal/saferoute/internal/core/usecases"
)

// EventStream relays broker messages to WebSocket clients.
type EventStream interface {
	Subscribe(subject string, fn func(data []byte)) (unsubscribe func(), err error)
	IsConnected() bool
}

// Pinger is a dependency with a connectivity check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Navigation *usecases.NavigationService
	Routes     *usecases.RouteService
	Nearby     *usecases.NearbyService
	Weather    *usecases.WeatherService
	History    *usecases.HistoryService
	Events     EventStream
	DB         *postgres.DB
	Runs       Pinger
	// NavigateTimeout bounds /v1/navigate; other endpoints use 15s.
	NavigateTimeout time.Duration
}
