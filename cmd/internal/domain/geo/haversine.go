package geo

import "math"

const EarthRadiusKm = 6371.0

type Point struct {
	Lat float64
	Lng float64
}

// DistanceKm is the great-circle distance between two coordinates in degrees.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	// Rounding can push a slightly past 1 for antipodal points.
	a = math.Min(1, math.Max(0, a))
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func Distance(a, b Point) float64 {
	return DistanceKm(a.Lat, a.Lng, b.Lat, b.Lng)
}

// BoundingBox is the lat/lng window enclosing every point within radiusKm
// of the center. Used as a cheap SQL prefilter before the exact check.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

func NewBoundingBox(center Point, radiusKm float64) BoundingBox {
	dLat := radiusKm / EarthRadiusKm * 180 / math.Pi

	cosLat := math.Cos(toRadians(center.Lat))
	dLng := 180.0
	if cosLat > 1e-9 {
		dLng = math.Min(180, dLat/cosLat)
	}

	return BoundingBox{
		MinLat: math.Max(-90, center.Lat-dLat),
		MaxLat: math.Min(90, center.Lat+dLat),
		MinLng: center.Lng - dLng,
		MaxLng: center.Lng + dLng,
	}
}

// CrossesAntimeridian reports whether the longitude window wraps past ±180.
func (b BoundingBox) CrossesAntimeridian() bool {
	return b.MinLng < -180 || b.MaxLng > 180
}

func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180 &&
		!math.IsNaN(lat) && !math.IsNaN(lng)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
