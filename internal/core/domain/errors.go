package domain

import "errors"

var (
	// ErrAddressNotFound is returned when geocoding yields no results.
	ErrAddressNotFound = errors.New("address not found")

	// ErrNoRouteFound is returned when the mandatory direct route is unavailable.
	ErrNoRouteFound = errors.New("no route found")

	// ErrNoRoute is returned by routers that answered but found no path.
	ErrNoRoute = errors.New("routing engine returned no route")

	// ErrSuperseded is returned when a newer navigation run replaced this one.
	ErrSuperseded = errors.New("navigation superseded by a newer request")

	ErrInvalidCoordinate = errors.New("invalid coordinate")

	ErrInvalidInput = errors.New("invalid input")

	// ErrProvider wraps transport or protocol failures from external services.
	ErrProvider = errors.New("provider error")
)
