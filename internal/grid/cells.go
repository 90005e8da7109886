package grid

import (
	"errors"
	"fmt"

	"github.com/jengzang/popquery-backend-go/internal/models"
)

// ErrInvalidDimensions is returned when a grid is requested with a
// non-positive number of rows or columns.
var ErrInvalidDimensions = errors.New("grid: rows and cols must be positive")

// Cells holds the boundary rectangle of every grid cell, indexed [row][col]
type Cells [][]models.Rectangle

// Rows returns the number of latitude bands
func (c Cells) Rows() int { return len(c) }

// Cols returns the number of longitude bands
func (c Cells) Cols() int {
	if len(c) == 0 {
		return 0
	}
	return len(c[0])
}

func checkDimensions(rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("%w (got rows=%d, cols=%d)", ErrInvalidDimensions, rows, cols)
	}
	return nil
}

// layout caches the band widths of one grid so every cell is derived from
// the same two divisions.
type layout struct {
	ext        Extent
	rows, cols int
	latStep    float64
	lonStep    float64
}

func newLayout(ext Extent, rows, cols int) layout {
	l := layout{ext: ext, rows: rows, cols: cols}
	if !ext.IsEmpty() {
		l.latStep = ext.Lat.Length() / float64(rows)
		l.lonStep = ext.Lon.Length() / float64(cols)
	}
	return l
}

// band returns the edges of band i out of n over [start, end]. The last band
// ends exactly on end.
func band(start, end, step float64, i, n int) (float64, float64) {
	lo := start + step*float64(i)
	if i == n-1 {
		return lo, end
	}
	return lo, start + step*float64(i+1)
}

func (l layout) cell(row, col int) models.Rectangle {
	if l.ext.IsEmpty() {
		return models.Rectangle{}
	}
	bottom, top := band(l.ext.Lat.Lo, l.ext.Lat.Hi, l.latStep, row, l.rows)
	left, right := band(l.ext.Lon.Lo, l.ext.Lon.Hi, l.lonStep, col, l.cols)
	return models.NewRectangle(left, right, top, bottom)
}

// CellAt returns the boundary of the 0-based cell (row, col)
func CellAt(ext Extent, rows, cols, row, col int) (models.Rectangle, error) {
	if err := checkDimensions(rows, cols); err != nil {
		return models.Rectangle{}, err
	}
	if row < 0 || row >= rows || col < 0 || col >= cols {
		return models.Rectangle{}, fmt.Errorf("grid: cell (%d, %d) outside %dx%d grid", row, col, rows, cols)
	}
	return newLayout(ext, rows, cols).cell(row, col), nil
}

func allocCells(rows, cols int) Cells {
	c := make(Cells, rows)
	for i := range c {
		c[i] = make([]models.Rectangle, cols)
	}
	return c
}

// BuildCells partitions ext into rows x cols equal cells
func BuildCells(ext Extent, rows, cols int) (Cells, error) {
	if err := checkDimensions(rows, cols); err != nil {
		return nil, err
	}
	l := newLayout(ext, rows, cols)
	c := allocCells(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			c[i][j] = l.cell(i, j)
		}
	}
	return c, nil
}

// BuildCellsParallel is BuildCells with the columns split by fork-join down
// to single columns. Each task writes only its own column.
func BuildCellsParallel(ext Extent, rows, cols int) (Cells, error) {
	if err := checkDimensions(rows, cols); err != nil {
		return nil, err
	}
	l := newLayout(ext, rows, cols)
	c := allocCells(rows, cols)
	divide(0, cols, 1,
		func(lo, hi int) struct{} {
			for j := lo; j < hi; j++ {
				for i := 0; i < rows; i++ {
					c[i][j] = l.cell(i, j)
				}
			}
			return struct{}{}
		},
		func(struct{}, struct{}) struct{} { return struct{}{} },
	)
	return c, nil
}
