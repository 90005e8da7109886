package grid

import (
	"errors"
	"fmt"

	"github.com/jengzang/popquery-backend-go/internal/models"
)

// ErrInvalidQuery is returned for query bounds outside the grid or inverted
var ErrInvalidQuery = errors.New("grid: invalid query")

// Validate checks 1 <= west <= east <= cols and 1 <= south <= north <= rows
func Validate(q models.QueryRect, rows, cols int) error {
	if q.West < 1 || q.West > cols || q.East < q.West || q.East > cols ||
		q.South < 1 || q.South > rows || q.North < q.South || q.North > rows {
		return fmt.Errorf("%w: want 1 <= west <= east <= %d and 1 <= south <= north <= %d, got west=%d south=%d east=%d north=%d",
			ErrInvalidQuery, cols, rows, q.West, q.South, q.East, q.North)
	}
	return nil
}

// RangeSum returns the population inside a validated query using the
// inclusion-exclusion of four summed-area corners.
func RangeSum(s SummedArea, q models.QueryRect) int64 {
	w, sth, e, n := q.West-1, q.South-1, q.East-1, q.North-1
	return s.At(n, e) - s.At(n, w-1) - s.At(sth-1, e) + s.At(sth-1, w-1)
}

// Percentage returns count as a percentage of total, or 0 when total is 0
func Percentage(count, total int64) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(count) / float64(total)
}

// Region is the area covered by a block of cells. South/West edges are
// inclusive; North/East edges are inclusive only when they are the edge of
// the whole grid.
type Region struct {
	Bounds      models.Rectangle
	ClosedNorth bool
	ClosedEast  bool
}

// RegionFor returns the region covered by a validated query over cells
func RegionFor(c Cells, q models.QueryRect) Region {
	sw := c[q.South-1][q.West-1]
	ne := c[q.North-1][q.East-1]
	return Region{
		Bounds:      sw.Encompass(ne),
		ClosedNorth: q.North == c.Rows(),
		ClosedEast:  q.East == c.Cols(),
	}
}

// Contains reports whether (lat, lon) lies inside the region
func (r Region) Contains(lat, lon float64) bool {
	b := r.Bounds
	if lat < b.Bottom || lon < b.Left {
		return false
	}
	if lat > b.Top || (lat == b.Top && !r.ClosedNorth) {
		return false
	}
	if lon > b.Right || (lon == b.Right && !r.ClosedEast) {
		return false
	}
	return true
}

func scanRange(records []models.CensusRecord, r Region, lo, hi int) int64 {
	var n int64
	for i := lo; i < hi; i++ {
		if r.Contains(records[i].Latitude, records[i].Longitude) {
			n += records[i].Population
		}
	}
	return n
}

// Scan sums the population of records inside r with a linear pass
func Scan(records []models.CensusRecord, r Region) int64 {
	return scanRange(records, r, 0, len(records))
}

// ScanParallel is Scan as a fork-join reduction
func ScanParallel(records []models.CensusRecord, r Region, cutoff int) int64 {
	if len(records) == 0 {
		return 0
	}
	return divide(0, len(records), cutoff,
		func(lo, hi int) int64 { return scanRange(records, r, lo, hi) },
		func(a, b int64) int64 { return a + b },
	)
}
