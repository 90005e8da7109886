package engine

import (
	"context"
	"runtime"

	"github.com/jengzang/popquery-backend-go/internal/grid"
	"github.com/jengzang/popquery-backend-go/internal/models"
)

// Index answers validated queries for one preprocessing run
type Index interface {
	Count(q models.QueryRect) int64
}

// Input is everything a strategy needs to build an Index
type Input struct {
	Records []models.CensusRecord
	Rows    int
	Cols    int
	Cutoff  int // fork-join sequential cutoff
	Workers int // worker goroutines for partitioned variants
}

// Strategy builds the extent and query index for one variant
type Strategy interface {
	Build(ctx context.Context, in Input) (grid.Extent, Index, error)
}

// StrategyFunc adapts a function to Strategy
type StrategyFunc func(ctx context.Context, in Input) (grid.Extent, Index, error)

func (f StrategyFunc) Build(ctx context.Context, in Input) (grid.Extent, Index, error) {
	return f(ctx, in)
}

// StrategyRegistry maps variants to their strategies
var StrategyRegistry = make(map[Variant]Strategy)

// RegisterStrategy registers the strategy for a variant
func RegisterStrategy(v Variant, s Strategy) {
	StrategyRegistry[v] = s
}

// GetStrategy returns the strategy for a variant, or nil
func GetStrategy(v Variant) Strategy {
	return StrategyRegistry[v]
}

func init() {
	RegisterStrategy(VariantSimple, StrategyFunc(buildSimple))
	RegisterStrategy(VariantSimpleParallel, StrategyFunc(buildSimpleParallel))
	RegisterStrategy(VariantSmart, StrategyFunc(buildSmart))
	RegisterStrategy(VariantSmartParallel, StrategyFunc(buildSmartParallel))
	RegisterStrategy(VariantSmartLocked, StrategyFunc(buildSmartLocked))
}

// scanIndex answers queries by scanning every record against the cell
// boundaries of the query block.
type scanIndex struct {
	records  []models.CensusRecord
	cells    grid.Cells
	parallel bool
	cutoff   int
}

func (s *scanIndex) Count(q models.QueryRect) int64 {
	r := grid.RegionFor(s.cells, q)
	if s.parallel {
		return grid.ScanParallel(s.records, r, s.cutoff)
	}
	return grid.Scan(s.records, r)
}

// summedIndex answers queries from a summed-area table
type summedIndex struct {
	table grid.SummedArea
}

func (s *summedIndex) Count(q models.QueryRect) int64 {
	return grid.RangeSum(s.table, q)
}

// buildSimple scans the records once per query
// Variant: 逐条扫描 (Simple)
func buildSimple(ctx context.Context, in Input) (grid.Extent, Index, error) {
	ext := grid.ReduceExtentSequential(in.Records)
	cells, err := grid.BuildCells(ext, in.Rows, in.Cols)
	if err != nil {
		return ext, nil, err
	}
	return ext, &scanIndex{records: in.Records, cells: cells}, nil
}

// buildSimpleParallel forks the extent, grid and scan
// Variant: 并行扫描 (Simple Parallel)
func buildSimpleParallel(ctx context.Context, in Input) (grid.Extent, Index, error) {
	ext := grid.ReduceExtent(in.Records, in.Cutoff)
	if err := ctx.Err(); err != nil {
		return ext, nil, err
	}
	cells, err := grid.BuildCellsParallel(ext, in.Rows, in.Cols)
	if err != nil {
		return ext, nil, err
	}
	return ext, &scanIndex{records: in.Records, cells: cells, parallel: true, cutoff: in.Cutoff}, nil
}

// buildSmart bins once and answers from a summed-area table
// Variant: 前缀和 (Smart)
func buildSmart(ctx context.Context, in Input) (grid.Extent, Index, error) {
	ext := grid.ReduceExtentSequential(in.Records)
	counts, err := grid.Bin(in.Records, ext, in.Rows, in.Cols)
	if err != nil {
		return ext, nil, err
	}
	if err := ctx.Err(); err != nil {
		return ext, nil, err
	}
	return ext, &summedIndex{table: grid.PrefixSum(counts)}, nil
}

// buildSmartParallel bins into private grids and merges them
// Variant: 并行前缀和 (Smart Parallel)
func buildSmartParallel(ctx context.Context, in Input) (grid.Extent, Index, error) {
	ext := grid.ReduceExtent(in.Records, in.Cutoff)
	if err := ctx.Err(); err != nil {
		return ext, nil, err
	}
	counts, err := grid.BinParallel(in.Records, ext, in.Rows, in.Cols, binCutoff(len(in.Records), in.Cutoff))
	if err != nil {
		return ext, nil, err
	}
	if err := ctx.Err(); err != nil {
		return ext, nil, err
	}
	return ext, &summedIndex{table: grid.PrefixSum(counts)}, nil
}

// buildSmartLocked bins into one shared grid with atomic adds
// Variant: 原子累加 (Smart Locked)
func buildSmartLocked(ctx context.Context, in Input) (grid.Extent, Index, error) {
	ext := grid.ReduceExtent(in.Records, in.Cutoff)
	counts, err := grid.BinAtomic(ctx, in.Records, ext, in.Rows, in.Cols, in.Workers)
	if err != nil {
		return ext, nil, err
	}
	return ext, &summedIndex{table: grid.PrefixSumParallel(counts)}, nil
}

// binCutoff bounds the number of private grids BinParallel allocates to a
// small multiple of the available processors.
func binCutoff(n, cutoff int) int {
	return max(cutoff, n/(4*runtime.GOMAXPROCS(0))+1)
}
