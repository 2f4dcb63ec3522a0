package geo

import (
	"sort"

	orbgeo "github.com/paulmach/orb/geo"
)

// DistanceMeters is the haversine distance between two coordinates.
func DistanceMeters(a, b GeoCoordinate) float64 {
	return orbgeo.DistanceHaversine(a.Point(), b.Point())
}

// Located is anything that has been placed on the map.
type Located interface {
	Location() GeoCoordinate
}

// WithinRadius keeps the items within radius meters of origin, nearest first.
// The input slice is not modified.
func WithinRadius[T Located](items []T, origin GeoCoordinate, radius float64) []T {
	type ranked struct {
		item T
		dist float64
	}

	kept := make([]ranked, 0, len(items))
	for _, it := range items {
		d := DistanceMeters(origin, it.Location())
		if d <= radius {
			kept = append(kept, ranked{item: it, dist: d})
		}
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].dist < kept[j].dist })

	out := make([]T, 0, len(kept))
	for _, k := range kept {
		out = append(out, k.item)
	}
	return out
}
