package grid

// SummedArea is a summed-area table: At(i, j) is the population of all cells
// in rows 0..i and columns 0..j.
type SummedArea struct {
	t Counts
}

// PrefixSum transforms c in place into its summed-area table, row-major so
// that the top and left neighbours of every cell are already final.
func PrefixSum(c Counts) SummedArea {
	for i := range c {
		for j := range c[i] {
			if i > 0 {
				c[i][j] += c[i-1][j]
			}
			if j > 0 {
				c[i][j] += c[i][j-1]
			}
			if i > 0 && j > 0 {
				c[i][j] -= c[i-1][j-1]
			}
		}
	}
	return SummedArea{t: c}
}

// PrefixSumParallel computes the same table as PrefixSum in two separable
// passes: a running sum along every row, then along every column. Rows (and
// then columns) are independent and processed by fork-join.
func PrefixSumParallel(c Counts) SummedArea {
	rows, cols := c.Rows(), c.Cols()
	none := func(struct{}, struct{}) struct{} { return struct{}{} }

	divide(0, rows, 1, func(lo, hi int) struct{} {
		for i := lo; i < hi; i++ {
			row := c[i]
			for j := 1; j < cols; j++ {
				row[j] += row[j-1]
			}
		}
		return struct{}{}
	}, none)

	divide(0, cols, 1, func(lo, hi int) struct{} {
		for j := lo; j < hi; j++ {
			for i := 1; i < rows; i++ {
				c[i][j] += c[i-1][j]
			}
		}
		return struct{}{}
	}, none)

	return SummedArea{t: c}
}

func (s SummedArea) Rows() int { return s.t.Rows() }
func (s SummedArea) Cols() int { return s.t.Cols() }

// At returns the table value at (row, col), treating any negative index as
// the empty prefix.
func (s SummedArea) At(row, col int) int64 {
	if row < 0 || col < 0 {
		return 0
	}
	return s.t[row][col]
}

// Total returns the population of the whole grid
func (s SummedArea) Total() int64 {
	return s.At(s.Rows()-1, s.Cols()-1)
}

// Sum returns the population of the 0-based inclusive block
// rows r0..r1, columns c0..c1.
func (s SummedArea) Sum(r0, c0, r1, c1 int) int64 {
	return s.At(r1, c1) - s.At(r1, c0-1) - s.At(r0-1, c1) + s.At(r0-1, c0-1)
}
