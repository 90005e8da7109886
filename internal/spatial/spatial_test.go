package spatial

import (
	"math"
	"testing"

	"github.com/jengzang/popquery-backend-go/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance(t *testing.T) {
	// One degree of longitude on the equator.
	d := HaversineDistance(0, 0, 0, 1)
	assert.InDelta(t, 2*math.Pi*EarthRadiusMeters/360, d, 1)
	assert.Zero(t, HaversineDistance(47.6, -122.3, 47.6, -122.3))
}

func TestRectArea(t *testing.T) {
	r := models.NewRectangle(-120, -110, 40, 30)
	lat1, lat2 := 30*math.Pi/180, 40*math.Pi/180
	want := EarthRadiusKm * EarthRadiusKm * (10 * math.Pi / 180) * (math.Sin(lat2) - math.Sin(lat1))
	assert.InEpsilon(t, want, RectArea(r), 1e-6)

	assert.Zero(t, RectArea(models.NewRectangle(5, 5, 10, 0)))
}

func TestDensity(t *testing.T) {
	assert.Equal(t, 2.5, Density(10, 4))
	assert.Zero(t, Density(10, 0))
}

func TestMeasure(t *testing.T) {
	r := models.NewRectangle(0, 1, 1, 0)
	r.AddPopulation(1000)
	g := Measure(r)
	assert.InDelta(t, 111.2, g.WidthKm, 0.1)
	assert.InDelta(t, 111.2, g.HeightKm, 0.1)
	assert.InEpsilon(t, g.AreaKm2*g.DensityPerKm, 1000, 1e-9)
}
