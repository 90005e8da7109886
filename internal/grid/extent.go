package grid

import (
	"github.com/golang/geo/r1"
	"github.com/jengzang/popquery-backend-go/internal/models"
)

// Extent is the bounding box of a set of records. The zero-record extent is
// empty and acts as the identity for Union.
type Extent struct {
	Lat r1.Interval
	Lon r1.Interval
}

// EmptyExtent returns an extent containing no points
func EmptyExtent() Extent {
	return Extent{Lat: r1.EmptyInterval(), Lon: r1.EmptyInterval()}
}

// IsEmpty reports whether the extent contains no points
func (e Extent) IsEmpty() bool {
	return e.Lat.IsEmpty() || e.Lon.IsEmpty()
}

// AddPoint returns the extent grown to include (lat, lon)
func (e Extent) AddPoint(lat, lon float64) Extent {
	return Extent{Lat: e.Lat.AddPoint(lat), Lon: e.Lon.AddPoint(lon)}
}

// Union returns the smallest extent containing both e and o
func (e Extent) Union(o Extent) Extent {
	return Extent{Lat: e.Lat.Union(o.Lat), Lon: e.Lon.Union(o.Lon)}
}

// Bounds returns the extent as a rectangle; the empty extent maps to the zero
// rectangle.
func (e Extent) Bounds() models.Rectangle {
	if e.IsEmpty() {
		return models.Rectangle{}
	}
	return models.NewRectangle(e.Lon.Lo, e.Lon.Hi, e.Lat.Hi, e.Lat.Lo)
}

// ReduceExtentSequential computes the extent of records with a single scan
func ReduceExtentSequential(records []models.CensusRecord) Extent {
	return scanExtent(records, 0, len(records))
}

// ReduceExtent computes the extent of records with a fork-join reduction.
// Ranges of at most cutoff records are scanned sequentially; the result is
// independent of cutoff.
func ReduceExtent(records []models.CensusRecord, cutoff int) Extent {
	if len(records) == 0 {
		return EmptyExtent()
	}
	return divide(0, len(records), cutoff,
		func(lo, hi int) Extent {
			return scanExtent(records, lo, hi)
		},
		Extent.Union,
	)
}

func scanExtent(records []models.CensusRecord, lo, hi int) Extent {
	e := EmptyExtent()
	for i := lo; i < hi; i++ {
		e = e.AddPoint(records[i].Latitude, records[i].Longitude)
	}
	return e
}
