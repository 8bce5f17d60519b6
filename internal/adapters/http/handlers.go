package http

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

// userIDHeader identifies the caller. Anonymous requests omit it.
const userIDHeader = "X-User-ID"

// historyScanLimit bounds how many history entries one page request reads.
const historyScanLimit = 500

func userID(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Get(userIDHeader))
}

// queryCoordinate parses a required lat/lon pair from the query string.
func queryCoordinate(c *fiber.Ctx, latKey, lonKey string) (domain.Coordinate, error) {
	rawLat, rawLon := c.Query(latKey), c.Query(lonKey)
	if rawLat == "" || rawLon == "" {
		return domain.Coordinate{}, fmt.Errorf("%s and %s are required", latKey, lonKey)
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%s must be a number", latKey)
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%s must be a number", lonKey)
	}
	return domain.NewCoordinate(lat, lon)
}

// navigationResponse adds the street light count to a navigation result.
type navigationResponse struct {
	*domain.Navigation
	StreetLightCount int `json:"street_light_count"`
}

// NavigateHandler resolves two addresses and returns scored routes,
// weather, and nearby safety information at the destination.
func NavigateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from := strings.TrimSpace(c.Query("from"))
		to := strings.TrimSpace(c.Query("to"))
		if from == "" || to == "" {
			return errBadRequest(c, "from and to query parameters are required")
		}
		if len(from) > 200 || len(to) > 200 {
			return errBadRequest(c, "address too long (max 200 characters)")
		}

		nav, err := deps.Navigation.Navigate(c.UserContext(), userID(c), from, to)
		if err != nil {
			return errFromDomain(c, err)
		}

		return c.JSON(navigationResponse{Navigation: nav, StreetLightCount: len(nav.StreetLights)})
	}
}

// SafestRouteHandler scores candidate routes between two coordinates.
func SafestRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		src, err := queryCoordinate(c, "src_lat", "src_lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		dest, err := queryCoordinate(c, "dst_lat", "dst_lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		selection, err := deps.Routes.Build(c.UserContext(), src, dest)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(selection)
	}
}

// NearbySafetyHandler returns the closest safety facilities to a point.
func NearbySafetyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		point, err := queryCoordinate(c, "lat", "lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(deps.Nearby.Summary(c.UserContext(), point))
	}
}

// StreetLightsHandler returns street lamp positions around a point.
func StreetLightsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		point, err := queryCoordinate(c, "lat", "lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		lights := deps.Nearby.StreetLights(c.UserContext(), point)
		return c.JSON(fiber.Map{
			"count":  len(lights),
			"lights": lights,
		})
	}
}

// WeatherHandler returns current conditions at a point.
func WeatherHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		point, err := queryCoordinate(c, "lat", "lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		weather, err := deps.Weather.Current(c.UserContext(), point)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(weather)
	}
}

type historyRequest struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// AddHistoryHandler stores a search for the calling user.
func AddHistoryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid := userID(c)
		if uid == "" {
			return errUnauthorized(c, userIDHeader+" header is required")
		}

		var req historyRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		entry, err := deps.History.Add(c.UserContext(), uid, req.Source, req.Destination)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(entry)
	}
}

// ListHistoryHandler returns the calling user's searches, oldest first.
func ListHistoryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid := userID(c)
		if uid == "" {
			return errUnauthorized(c, userIDHeader+" header is required")
		}

		entries, err := deps.History.List(c.UserContext(), uid, historyScanLimit)
		if err != nil {
			return errFromDomain(c, err)
		}

		offset, limit := pageParams(c)
		pg := Pagination{Offset: offset, Limit: limit, Total: len(entries)}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page(entries, offset, limit), Pagination: pg})
	}
}
