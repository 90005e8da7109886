package grid_test

import (
	"testing"

	"github.com/jengzang/popquery-backend-go/internal/grid"
	"github.com/jengzang/popquery-backend-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bruteForce(c grid.Counts, q models.QueryRect) int64 {
	var n int64
	for i := q.South - 1; i < q.North; i++ {
		for j := q.West - 1; j < q.East; j++ {
			n += c[i][j]
		}
	}
	return n
}

func clone(c grid.Counts) grid.Counts {
	o := grid.NewCounts(c.Rows(), c.Cols())
	for i := range c {
		copy(o[i], c[i])
	}
	return o
}

func allQueries(rows, cols int) []models.QueryRect {
	var qs []models.QueryRect
	for s := 1; s <= rows; s++ {
		for n := s; n <= rows; n++ {
			for w := 1; w <= cols; w++ {
				for e := w; e <= cols; e++ {
					qs = append(qs, models.QueryRect{West: w, South: s, East: e, North: n})
				}
			}
		}
	}
	return qs
}

func TestPrefixSumExample(t *testing.T) {
	sa := grid.PrefixSum(grid.Counts{{100, 50}, {200, 0}})
	assert.Equal(t, int64(100), sa.At(0, 0))
	assert.Equal(t, int64(150), sa.At(0, 1))
	assert.Equal(t, int64(300), sa.At(1, 0))
	assert.Equal(t, int64(350), sa.At(1, 1))
	assert.Equal(t, int64(350), sa.Total())
	assert.Zero(t, sa.At(-1, 1))
	assert.Zero(t, sa.At(1, -1))

	assert.Equal(t, int64(100), grid.RangeSum(sa, models.QueryRect{West: 1, South: 1, East: 1, North: 1}))
	assert.Equal(t, int64(350), grid.RangeSum(sa, models.QueryRect{West: 1, South: 1, East: 2, North: 2}))
	assert.Equal(t, int64(50), grid.RangeSum(sa, models.QueryRect{West: 2, South: 1, East: 2, North: 1}))
	assert.Equal(t, int64(200), grid.RangeSum(sa, models.QueryRect{West: 1, South: 2, East: 2, North: 2}))
	assert.Zero(t, grid.RangeSum(sa, models.QueryRect{West: 2, South: 2, East: 2, North: 2}))
}

func TestRangeSumMatchesBruteForce(t *testing.T) {
	records := randomRecords(3000, 11)
	ext := grid.ReduceExtentSequential(records)
	for _, dims := range [][2]int{{1, 1}, {1, 6}, {5, 1}, {7, 5}} {
		rows, cols := dims[0], dims[1]
		raw, err := grid.Bin(records, ext, rows, cols)
		require.NoError(t, err)
		sa := grid.PrefixSum(clone(raw))

		for _, q := range allQueries(rows, cols) {
			require.Equal(t, bruteForce(raw, q), grid.RangeSum(sa, q), "query %+v", q)
		}
		assert.Equal(t, bruteForce(raw, models.QueryRect{West: 1, South: 1, East: cols, North: rows}), sa.Total())
	}
}

func TestPrefixSumMonotonic(t *testing.T) {
	records := randomRecords(2000, 13)
	raw, err := grid.Bin(records, grid.ReduceExtentSequential(records), 9, 6)
	require.NoError(t, err)
	sa := grid.PrefixSum(raw)
	for i := 0; i < sa.Rows(); i++ {
		for j := 0; j < sa.Cols(); j++ {
			assert.GreaterOrEqual(t, sa.At(i, j), sa.At(i-1, j))
			assert.GreaterOrEqual(t, sa.At(i, j), sa.At(i, j-1))
		}
	}
}

func TestPrefixSumParallelMatches(t *testing.T) {
	records := randomRecords(5000, 17)
	ext := grid.ReduceExtentSequential(records)
	for _, dims := range [][2]int{{1, 1}, {1, 8}, {8, 1}, {31, 17}} {
		raw, err := grid.Bin(records, ext, dims[0], dims[1])
		require.NoError(t, err)
		seq := grid.PrefixSum(clone(raw))
		par := grid.PrefixSumParallel(clone(raw))
		assert.Equal(t, seq, par, "dims=%v", dims)
	}
}
