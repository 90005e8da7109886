package spatial

import (
	"github.com/golang/geo/s2"
	"github.com/jengzang/popquery-backend-go/internal/models"
)

// CellGeometry is the on-the-ground size of a grid cell
type CellGeometry struct {
	AreaKm2      float64
	DensityPerKm float64
	WidthKm      float64 // along the southern edge
	HeightKm     float64 // along the western edge
}

// RectArea returns the spherical area in km² enclosed by r's latitude and
// longitude bounds.
func RectArea(r models.Rectangle) float64 {
	lo := s2.LatLngFromDegrees(r.Bottom, r.Left)
	hi := s2.LatLngFromDegrees(r.Top, r.Right)
	rect := s2.RectFromLatLng(lo).AddPoint(hi)
	return rect.Area() * EarthRadiusKm * EarthRadiusKm
}

// Density returns people per km², or 0 for a degenerate area
func Density(population int64, areaKm2 float64) float64 {
	if areaKm2 <= 0 {
		return 0
	}
	return float64(population) / areaKm2
}

// Measure computes the geometry of a populated cell rectangle
func Measure(r models.Rectangle) CellGeometry {
	area := RectArea(r)
	return CellGeometry{
		AreaKm2:      area,
		DensityPerKm: Density(r.Population, area),
		WidthKm:      HaversineDistance(r.Bottom, r.Left, r.Bottom, r.Right) / 1000,
		HeightKm:     HaversineDistance(r.Bottom, r.Left, r.Top, r.Left) / 1000,
	}
}
