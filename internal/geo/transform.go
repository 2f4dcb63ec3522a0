package geo

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// PlanarCoordinate is an EPSG:5174 easting/northing pair in meters, as it
// arrives from the store registry.
type PlanarCoordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GeoCoordinate is a WGS84 latitude/longitude pair in degrees.
type GeoCoordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point returns the coordinate as an orb point (lng, lat order).
func (g GeoCoordinate) Point() orb.Point {
	return orb.Point{g.Lng, g.Lat}
}

// Result is the outcome of a conversion. Defaulted is set when the input was
// unusable and Coordinate holds DefaultCoordinate instead of a projected value.
type Result struct {
	Coordinate GeoCoordinate
	Defaulted  bool
}

// Seoul city hall. Used whenever the input cannot be projected.
var DefaultCoordinate = GeoCoordinate{Lat: 37.5665, Lng: 126.978}

// Empirical offsets measured against surveyed store locations. They correct
// the systematic shift between this projection and the map provider's tiles.
const (
	LatBiasCorrection = 0.002747
	LngBiasCorrection = 0.00079
)

// KoreaBounds is the box every returned coordinate is clamped into.
var KoreaBounds = orb.Bound{
	Min: orb.Point{124, 33},
	Max: orb.Point{132, 43},
}

// Inputs that already look like degrees. Some registry rows carry WGS84
// values in the planar columns.
var geographicInput = orb.Bound{
	Min: orb.Point{100, 30},
	Max: orb.Point{140, 45},
}

// Plausible planar extent of the Korean central belt grid.
var planarInput = orb.Bound{
	Min: orb.Point{50000, 0},
	Max: orb.Point{350000, 700000},
}

// ToGeo converts a planar coordinate. It never fails.
func ToGeo(p PlanarCoordinate) GeoCoordinate {
	return Convert(p).Coordinate
}

// ToGeoString converts raw registry columns. Values that do not parse as
// numbers yield DefaultCoordinate.
func ToGeoString(x, y string) GeoCoordinate {
	return ConvertString(x, y).Coordinate
}

// ConvertString is ToGeoString with the defaulted flag.
func ConvertString(x, y string) Result {
	return Convert(PlanarCoordinate{X: parseFloat(x), Y: parseFloat(y)})
}

// Convert projects p into WGS84 and reports whether the default was used.
func Convert(p PlanarCoordinate) (res Result) {
	defer func() {
		if recover() != nil {
			res = defaulted()
		}
	}()

	if !isFinite(p.X) || !isFinite(p.Y) {
		return defaulted()
	}

	in := orb.Point{p.X, p.Y}
	if geographicInput.Contains(in) {
		return Result{Coordinate: clamp(GeoCoordinate{Lat: p.Y, Lng: p.X})}
	}
	if !planarInput.Contains(in) {
		return defaulted()
	}

	g := inverseProjection(p)
	if !isFinite(g.Lat) || !isFinite(g.Lng) {
		return defaulted()
	}

	g.Lat += LatBiasCorrection
	g.Lng += LngBiasCorrection

	return Result{Coordinate: clamp(g)}
}

// InBounds reports whether g lies inside KoreaBounds.
func InBounds(g GeoCoordinate) bool {
	return KoreaBounds.Contains(g.Point())
}

func defaulted() Result {
	return Result{Coordinate: DefaultCoordinate, Defaulted: true}
}

func clamp(g GeoCoordinate) GeoCoordinate {
	return GeoCoordinate{
		Lat: math.Min(math.Max(g.Lat, KoreaBounds.Min.Lat()), KoreaBounds.Max.Lat()),
		Lng: math.Min(math.Max(g.Lng, KoreaBounds.Min.Lon()), KoreaBounds.Max.Lon()),
	}
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
