package geospatial

import "github.com/samirrijal/saferoute/internal/core/domain"

// offsetFactor is the share of the src→dest vector used as perpendicular offset.
const offsetFactor = 0.1

// WaypointOffsets returns two via-points on either side of the midpoint of
// src→dest, displaced perpendicular to the travel vector. The points are a
// heuristic nudge for the router; they may fall off-road.
func WaypointOffsets(src, dest domain.Coordinate) (domain.Coordinate, domain.Coordinate) {
	latDiff := dest.Lat - src.Lat
	lonDiff := dest.Lon - src.Lon

	midLat := src.Lat + 0.5*latDiff
	midLon := src.Lon + 0.5*lonDiff

	w1 := domain.Coordinate{
		Lat: midLat + offsetFactor*lonDiff,
		Lon: midLon - offsetFactor*latDiff,
	}
	w2 := domain.Coordinate{
		Lat: midLat - offsetFactor*lonDiff,
		Lon: midLon + offsetFactor*latDiff,
	}
	return w1, w2
}

// SampleIndices returns n indices evenly spread over a sequence of length size,
// index_i = floor(size / n * i).
func SampleIndices(size, n int) []int {
	if size <= 0 || n <= 0 {
		return nil
	}
	out := make([]int, n)
	step := float64(size) / float64(n)
	for i := range out {
		out[i] = int(step * float64(i))
	}
	return out
}
