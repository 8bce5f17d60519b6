package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

type gqlUserKey struct{}

func gqlUser(ctx context.Context) string {
	uid, _ := ctx.Value(gqlUserKey{}).(string)
	return uid
}

// coordinateArgs builds a non-null lat/lon argument pair.
func coordinateArgs(latKey, lonKey string) graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		latKey: &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		lonKey: &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
	}
}

func argCoordinate(p graphql.ResolveParams, latKey, lonKey string) (domain.Coordinate, error) {
	return domain.NewCoordinate(p.Args[latKey].(float64), p.Args[lonKey].(float64))
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"location":     &graphql.Field{Type: coordinateType},
			"display_name": &graphql.Field{Type: graphql.String},
		},
	})

	geometryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RouteGeometry",
		Fields: graphql.Fields{
			"coordinates": &graphql.Field{Type: graphql.NewList(coordinateType)},
			"distance_m":  &graphql.Field{Type: graphql.Float},
			"duration_s":  &graphql.Field{Type: graphql.Float},
		},
	})

	scoredRouteType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ScoredRoute",
		Fields: graphql.Fields{
			"kind": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return string(p.Source.(domain.ScoredRoute).Kind), nil
				},
			},
			"geometry":     &graphql.Field{Type: geometryType},
			"safety_score": &graphql.Field{Type: graphql.Int},
			"distance_km":  &graphql.Field{Type: graphql.String},
			"duration_min": &graphql.Field{Type: graphql.Int},
			"rank":         &graphql.Field{Type: graphql.Int},
			"safest":       &graphql.Field{Type: graphql.Boolean},
		},
	})

	selectionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RouteSelection",
		Fields: graphql.Fields{
			"routes":         &graphql.Field{Type: graphql.NewList(scoredRouteType)},
			"selected_index": &graphql.Field{Type: graphql.Int},
		},
	})

	safetyPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SafetyPoint",
		Fields: graphql.Fields{
			"category": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return string(p.Source.(domain.SafetyPoint).Category), nil
				},
			},
			"type":       &graphql.Field{Type: graphql.String},
			"name":       &graphql.Field{Type: graphql.String},
			"location":   &graphql.Field{Type: coordinateType},
			"distance_m": &graphql.Field{Type: graphql.Float},
		},
	})

	weatherType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Weather",
		Fields: graphql.Fields{
			"temperature_c": &graphql.Field{Type: graphql.Int},
			"condition":     &graphql.Field{Type: graphql.String},
		},
	})

	historyType := graphql.NewObject(graphql.ObjectConfig{
		Name: "HistoryEntry",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"user_id":     &graphql.Field{Type: graphql.String},
			"source":      &graphql.Field{Type: graphql.String},
			"destination": &graphql.Field{Type: graphql.String},
			"created_at":  &graphql.Field{Type: graphql.DateTime},
		},
	})

	navigationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Navigation",
		Fields: graphql.Fields{
			"run_id":        &graphql.Field{Type: graphql.Int},
			"source":        &graphql.Field{Type: placeType},
			"destination":   &graphql.Field{Type: placeType},
			"selection":     &graphql.Field{Type: selectionType},
			"weather":       &graphql.Field{Type: weatherType},
			"safety_points": &graphql.Field{Type: graphql.NewList(safetyPointType)},
			"street_lights": &graphql.Field{Type: graphql.NewList(coordinateType)},
			"street_light_count": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return len(p.Source.(*domain.Navigation).StreetLights), nil
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"safestRoute": &graphql.Field{
				Type:        selectionType,
				Description: "Score candidate routes between two points",
				Args: graphql.FieldConfigArgument{
					"srcLat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"srcLon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"dstLat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"dstLon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					src, err := argCoordinate(p, "srcLat", "srcLon")
					if err != nil {
						return nil, err
					}
					dest, err := argCoordinate(p, "dstLat", "dstLon")
					if err != nil {
						return nil, err
					}
					return deps.Routes.Build(p.Context, src, dest)
				},
			},
			"nearbySafety": &graphql.Field{
				Type:        graphql.NewList(safetyPointType),
				Description: "Closest police stations, hospitals, and other safety facilities",
				Args:        coordinateArgs("lat", "lon"),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					point, err := argCoordinate(p, "lat", "lon")
					if err != nil {
						return nil, err
					}
					return deps.Nearby.Summary(p.Context, point), nil
				},
			},
			"streetLights": &graphql.Field{
				Type:        graphql.NewList(coordinateType),
				Description: "Street lamp positions around a point",
				Args:        coordinateArgs("lat", "lon"),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					point, err := argCoordinate(p, "lat", "lon")
					if err != nil {
						return nil, err
					}
					return deps.Nearby.StreetLights(p.Context, point), nil
				},
			},
			"weather": &graphql.Field{
				Type:        weatherType,
				Description: "Current weather at a point",
				Args:        coordinateArgs("lat", "lon"),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					point, err := argCoordinate(p, "lat", "lon")
					if err != nil {
						return nil, err
					}
					return deps.Weather.Current(p.Context, point)
				},
			},
			"history": &graphql.Field{
				Type:        graphql.NewList(historyType),
				Description: "The caller's past searches, oldest first (requires X-User-ID)",
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 100},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					limit := p.Args["limit"].(int)
					return deps.History.List(p.Context, gqlUser(p.Context), limit)
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"navigate": &graphql.Field{
				Type:        navigationType,
				Description: "Plan a navigation between two addresses",
				Args: graphql.FieldConfigArgument{
					"from": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"to":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Navigation.Navigate(p.Context, gqlUser(p.Context),
						p.Args["from"].(string), p.Args["to"].(string))
				},
			},
			"addHistory": &graphql.Field{
				Type:        historyType,
				Description: "Store a search for the caller (requires X-User-ID)",
				Args: graphql.FieldConfigArgument{
					"source":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"destination": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					uid := gqlUser(p.Context)
					if uid == "" {
						return nil, errors.New(userIDHeader + " header is required")
					}
					return deps.History.Add(p.Context, uid,
						p.Args["source"].(string), p.Args["destination"].(string))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        context.WithValue(c.UserContext(), gqlUserKey{}, userID(c)),
		})

		return c.JSON(result)
	}
}
