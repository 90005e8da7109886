package grid

import (
	"context"
	"math"
	"runtime"
	"sync/atomic"

	"github.com/jengzang/popquery-backend-go/internal/models"
	"golang.org/x/sync/errgroup"
)

// Counts holds a population total per cell, indexed [row][col]
type Counts [][]int64

// NewCounts allocates a zeroed rows x cols grid
func NewCounts(rows, cols int) Counts {
	c := make(Counts, rows)
	for i := range c {
		c[i] = make([]int64, cols)
	}
	return c
}

func (c Counts) Rows() int { return len(c) }

func (c Counts) Cols() int {
	if len(c) == 0 {
		return 0
	}
	return len(c[0])
}

// add sums o into c elementwise
func (c Counts) add(o Counts) Counts {
	for i := range c {
		row, other := c[i], o[i]
		for j := range row {
			row[j] += other[j]
		}
	}
	return c
}

// index returns the band of n over [start, end] holding v. Band i is
// [edge(i), edge(i+1)) with the last band closed, where the edges are the
// ones band computes. The floor estimate is corrected against those edges
// so binning and boundary scans agree on points lying exactly on an edge.
// A zero step has every point on the upper edge, so it maps to the last band.
func index(v, start, end, step float64, n int) int {
	if step <= 0 {
		return n - 1
	}
	i := int(math.Floor((v - start) / step))
	i = max(0, min(i, n-1))
	for i > 0 {
		if lo, _ := band(start, end, step, i, n); v >= lo {
			break
		}
		i--
	}
	for i < n-1 {
		if _, hi := band(start, end, step, i, n); v < hi {
			break
		}
		i++
	}
	return i
}

func (l layout) locate(lat, lon float64) (int, int) {
	if l.ext.IsEmpty() {
		return 0, 0
	}
	row := index(lat, l.ext.Lat.Lo, l.ext.Lat.Hi, l.latStep, l.rows)
	col := index(lon, l.ext.Lon.Lo, l.ext.Lon.Hi, l.lonStep, l.cols)
	return row, col
}

// Locate returns the 0-based (row, col) of the cell holding (lat, lon).
// Points outside the extent are clamped to the nearest cell.
func Locate(ext Extent, rows, cols int, lat, lon float64) (int, int) {
	return newLayout(ext, rows, cols).locate(lat, lon)
}

func binRange(c Counts, records []models.CensusRecord, ext Extent, lo, hi int) {
	l := newLayout(ext, c.Rows(), c.Cols())
	for i := lo; i < hi; i++ {
		r := records[i]
		row, col := l.locate(r.Latitude, r.Longitude)
		c[row][col] += r.Population
	}
}

// Bin accumulates every record's population into its cell
func Bin(records []models.CensusRecord, ext Extent, rows, cols int) (Counts, error) {
	if err := checkDimensions(rows, cols); err != nil {
		return nil, err
	}
	c := NewCounts(rows, cols)
	binRange(c, records, ext, 0, len(records))
	return c, nil
}

// BinParallel bins records by fork-join over the input. Each leaf fills a
// private grid and grids are summed after every join, so no cell is written
// by two goroutines.
func BinParallel(records []models.CensusRecord, ext Extent, rows, cols, cutoff int) (Counts, error) {
	if err := checkDimensions(rows, cols); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return NewCounts(rows, cols), nil
	}
	return divide(0, len(records), cutoff,
		func(lo, hi int) Counts {
			c := NewCounts(rows, cols)
			binRange(c, records, ext, lo, hi)
			return c
		},
		Counts.add,
	), nil
}

// BinAtomic bins records with workers goroutines sharing a single grid.
// Cells are updated with atomic adds. workers <= 0 uses GOMAXPROCS.
func BinAtomic(ctx context.Context, records []models.CensusRecord, ext Extent, rows, cols, workers int) (Counts, error) {
	if err := checkDimensions(rows, cols); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	c := NewCounts(rows, cols)
	chunk := (len(records) + workers - 1) / workers
	if chunk == 0 {
		return c, nil
	}

	l := newLayout(ext, rows, cols)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < len(records); lo += chunk {
		lo, hi := lo, min(lo+chunk, len(records))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				r := records[i]
				row, col := l.locate(r.Latitude, r.Longitude)
				atomic.AddInt64(&c[row][col], r.Population)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return c, nil
}
