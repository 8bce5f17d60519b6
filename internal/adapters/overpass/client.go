package overpass

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/serjvanilla/go-overpass"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
	"github.com/samirrijal/saferoute/internal/pkg/geospatial"
	"github.com/samirrijal/saferoute/internal/pkg/metrics"
)

// DefaultEndpoint is the public Overpass interpreter.
const DefaultEndpoint = "https://overpass-api.de/api/interpreter"

// tagKeys maps each category to the OSM tag it is stored under.
var tagKeys = map[domain.Category]string{
	domain.CategoryPolice:      "amenity",
	domain.CategoryHospital:    "amenity",
	domain.CategoryFireStation: "amenity",
	domain.CategoryBusStation:  "amenity",
	domain.CategorySchool:      "amenity",
	domain.CategoryStreetLamp:  "highway",
}

// Client implements ports.POIProvider on top of the Overpass API.
type Client struct {
	client  *overpass.Client
	timeout time.Duration
}

// NewClient creates an Overpass client. maxParallel bounds concurrent
// queries against the endpoint.
func NewClient(endpoint string, maxParallel int, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if maxParallel <= 0 {
		maxParallel = 2
	}
	httpClient := &http.Client{
		Timeout: timeout,
	}
	client := overpass.NewWithSettings(endpoint, maxParallel, httpClient)
	return &Client{
		client:  &client,
		timeout: timeout,
	}
}

// Search returns every node or way matching one of filters around center.
func (c *Client) Search(ctx context.Context, center domain.Coordinate, filters []ports.POIFilter) (pois []domain.POI, err error) {
	defer metrics.ObserveProvider("overpass", time.Now(), &err)

	if len(filters) == 0 {
		return nil, nil
	}
	query, err := BuildQuery(center, filters)
	if err != nil {
		return nil, err
	}

	result, err := c.executeQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: overpass: %w", domain.ErrProvider, err)
	}
	return convertToPOIs(result, filters), nil
}

// BuildQuery renders an Overpass QL union for filters around center. The
// global bbox covers the widest radius so the server can prune before the
// around filters run. Ways are returned with inline geometry; recursing into
// member nodes would replace tagged nodes with bare copies.
func BuildQuery(center domain.Coordinate, filters []ports.POIFilter) (string, error) {
	var widest float64
	for _, f := range filters {
		if _, ok := tagKeys[f.Category]; !ok {
			return "", fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, f.Category)
		}
		widest = math.Max(widest, f.RadiusMeters)
	}
	box := geospatial.BoundingBox(center, widest)

	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][bbox:%.6f,%.6f,%.6f,%.6f];\n(\n", box.MinLat, box.MinLon, box.MaxLat, box.MaxLon)
	for _, f := range filters {
		key := tagKeys[f.Category]
		around := fmt.Sprintf("(around:%.0f,%.6f,%.6f)", f.RadiusMeters, center.Lat, center.Lon)
		fmt.Fprintf(&b, "  node[%q=%q]%s;\n", key, string(f.Category), around)
		if f.Category != domain.CategoryStreetLamp {
			fmt.Fprintf(&b, "  way[%q=%q]%s;\n", key, string(f.Category), around)
		}
	}
	b.WriteString(");\nout geom;\n")
	return b.String(), nil
}

// executeQuery runs query, giving up when ctx ends. The library call itself
// is not cancellable and is bounded by the HTTP client timeout.
func (c *Client) executeQuery(ctx context.Context, query string) (*overpass.Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	type response struct {
		result overpass.Result
		err    error
	}
	done := make(chan response, 1)
	go func() {
		result, err := c.client.Query(query)
		done <- response{result: result, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("overpass query failed: %w", r.err)
		}
		return &r.result, nil
	}
}

// convertToPOIs keeps tagged elements matching a requested category.
// Member node placeholders of ways carry no tags and are skipped.
func convertToPOIs(result *overpass.Result, filters []ports.POIFilter) []domain.POI {
	wanted := make(map[domain.Category]bool, len(filters))
	for _, f := range filters {
		wanted[f.Category] = true
	}

	var pois []domain.POI
	nodeIDs := make([]int64, 0, len(result.Nodes))
	for id := range result.Nodes {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Slice(nodeIDs, func(i, j int) bool { return nodeIDs[i] < nodeIDs[j] })
	for _, id := range nodeIDs {
		node := result.Nodes[id]
		category, ok := categorize(node.Tags, wanted)
		if !ok {
			continue
		}
		pois = append(pois, domain.POI{
			Category: category,
			Name:     name(node.Tags),
			Location: domain.Coordinate{Lat: node.Lat, Lon: node.Lon},
		})
	}

	wayIDs := make([]int64, 0, len(result.Ways))
	for id := range result.Ways {
		wayIDs = append(wayIDs, id)
	}
	sort.Slice(wayIDs, func(i, j int) bool { return wayIDs[i] < wayIDs[j] })
	for _, id := range wayIDs {
		way := result.Ways[id]
		category, ok := categorize(way.Tags, wanted)
		if !ok {
			continue
		}
		pois = append(pois, domain.POI{
			Category: category,
			Name:     name(way.Tags),
			Location: centroid(way),
		})
	}
	return pois
}

// centroid places a way at the mean of its geometry, falling back to the
// centre of its bounds and then to its resolved member nodes.
func centroid(way *overpass.Way) domain.Coordinate {
	var c domain.Coordinate
	switch {
	case len(way.Geometry) > 0:
		for _, p := range way.Geometry {
			c.Lat += p.Lat
			c.Lon += p.Lon
		}
		c.Lat /= float64(len(way.Geometry))
		c.Lon /= float64(len(way.Geometry))
	case way.Bounds != nil:
		c.Lat = (way.Bounds.Min.Lat + way.Bounds.Max.Lat) / 2
		c.Lon = (way.Bounds.Min.Lon + way.Bounds.Max.Lon) / 2
	case len(way.Nodes) > 0:
		for _, n := range way.Nodes {
			c.Lat += n.Lat
			c.Lon += n.Lon
		}
		c.Lat /= float64(len(way.Nodes))
		c.Lon /= float64(len(way.Nodes))
	}
	return c
}

func categorize(tags map[string]string, wanted map[domain.Category]bool) (domain.Category, bool) {
	if c := domain.Category(tags["amenity"]); wanted[c] && tagKeys[c] == "amenity" {
		return c, true
	}
	if c := domain.Category(tags["highway"]); wanted[c] && tagKeys[c] == "highway" {
		return c, true
	}
	return "", false
}

func name(tags map[string]string) *string {
	n, ok := tags["name"]
	if !ok {
		return nil
	}
	return &n
}
