package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jengzang/popquery-backend-go/internal/census"
	"github.com/jengzang/popquery-backend-go/internal/grid"
	"github.com/jengzang/popquery-backend-go/internal/metrics"
	"github.com/jengzang/popquery-backend-go/internal/models"
	"go.uber.org/zap"
)

// ErrNotPreprocessed is returned by queries issued before the first
// successful Preprocess.
var ErrNotPreprocessed = errors.New("engine: grid has not been preprocessed")

// ErrGridTooLarge is returned by Grid when the current grid has more cells
// than the caller allows.
var ErrGridTooLarge = errors.New("engine: grid has too many cells")

type options struct {
	cutoff    int
	workers   int
	cacheSize int
	logger    *zap.Logger
	metrics   *metrics.Collector
}

// Option configures an Engine
type Option func(*options)

// WithCutoff sets the fork-join sequential cutoff
func WithCutoff(n int) Option {
	return func(o *options) { o.cutoff = n }
}

// WithWorkers sets the goroutine count for the partitioned variant
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithCacheSize enables an LRU cache of query results per preprocessing run
func WithCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(o *options) { o.metrics = m }
}

// snapshot is the immutable result of one preprocessing run
type snapshot struct {
	variant    Variant
	rows, cols int
	extent     grid.Extent
	index      Index
	cache      *lru.Cache[models.QueryRect, models.QueryResult]
	elapsed    time.Duration
}

// Engine answers population queries over a census Store. Preprocess may be
// called again at any time with new dimensions or a new variant; queries
// always see a complete snapshot.
type Engine struct {
	store *census.Store
	opts  options
	log   *zap.Logger

	mu      sync.RWMutex
	current *snapshot
}

// New creates an Engine over store
func New(store *census.Store, opts ...Option) *Engine {
	o := options{cutoff: grid.DefaultCutoff}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	o.metrics.SetRecords(store.Len())
	return &Engine{
		store: store,
		opts:  o,
		log:   o.logger.Named("engine"),
	}
}

// Store returns the census data the engine was built over
func (e *Engine) Store() *census.Store {
	return e.store
}

// Preprocess builds the query index for a rows x cols grid with the given
// variant. On error the previous index stays in place.
func (e *Engine) Preprocess(ctx context.Context, rows, cols int, variant Variant) error {
	start := time.Now()
	snap, err := e.build(ctx, rows, cols, variant)
	elapsed := time.Since(start)
	e.opts.metrics.ObservePreprocess(string(variant), rows, cols, elapsed, err)
	if err != nil {
		e.log.Warn("preprocess failed",
			zap.String("variant", string(variant)),
			zap.Int("rows", rows),
			zap.Int("cols", cols),
			zap.Error(err))
		return err
	}
	snap.elapsed = elapsed

	e.mu.Lock()
	e.current = snap
	e.mu.Unlock()

	e.log.Info("preprocess complete",
		zap.String("variant", string(variant)),
		zap.String("name", variant.Name()),
		zap.Int("rows", rows),
		zap.Int("cols", cols),
		zap.Int("records", e.store.Len()),
		zap.Duration("elapsed", elapsed))
	return nil
}

func (e *Engine) build(ctx context.Context, rows, cols int, variant Variant) (*snapshot, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w (got rows=%d, cols=%d)", grid.ErrInvalidDimensions, rows, cols)
	}
	strategy := GetStrategy(variant)
	if strategy == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownVariant, variant)
	}

	ext, index, err := strategy.Build(ctx, Input{
		Records: e.store.Records(),
		Rows:    rows,
		Cols:    cols,
		Cutoff:  e.opts.cutoff,
		Workers: e.opts.workers,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: preprocess %s: %w", variant, err)
	}

	snap := &snapshot{variant: variant, rows: rows, cols: cols, extent: ext, index: index}
	if e.opts.cacheSize > 0 {
		snap.cache, err = lru.New[models.QueryRect, models.QueryResult](e.opts.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("engine: failed to create query cache: %w", err)
		}
	}
	return snap, nil
}

func (e *Engine) load() (*snapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.current == nil {
		return nil, ErrNotPreprocessed
	}
	return e.current, nil
}

// Query returns the population inside q and its share of the total
// population. Invalid bounds return an error wrapping grid.ErrInvalidQuery
// and leave the engine untouched.
func (e *Engine) Query(q models.QueryRect) (models.QueryResult, error) {
	snap, err := e.load()
	if err != nil {
		return models.QueryResult{}, err
	}
	if err := grid.Validate(q, snap.rows, snap.cols); err != nil {
		e.opts.metrics.ObserveQuery(string(snap.variant), err)
		return models.QueryResult{}, err
	}

	if snap.cache != nil {
		if res, ok := snap.cache.Get(q); ok {
			e.opts.metrics.CacheHit()
			e.opts.metrics.ObserveQuery(string(snap.variant), nil)
			return res, nil
		}
	}

	count := snap.index.Count(q)
	res := models.QueryResult{
		Population: count,
		Percentage: grid.Percentage(count, e.store.TotalPopulation()),
	}
	if snap.cache != nil {
		snap.cache.Add(q, res)
	}
	e.opts.metrics.ObserveQuery(string(snap.variant), nil)
	return res, nil
}

// Cell returns the boundary and population of the 1-based cell (row, col)
func (e *Engine) Cell(row, col int) (models.Rectangle, error) {
	snap, err := e.load()
	if err != nil {
		return models.Rectangle{}, err
	}
	q := models.QueryRect{West: col, South: row, East: col, North: row}
	if err := grid.Validate(q, snap.rows, snap.cols); err != nil {
		return models.Rectangle{}, err
	}
	rect, err := grid.CellAt(snap.extent, snap.rows, snap.cols, row-1, col-1)
	if err != nil {
		return models.Rectangle{}, err
	}
	rect.AddPopulation(snap.index.Count(q))
	return rect, nil
}

// Info describes the current preprocessing state
func (e *Engine) Info() (models.GridInfo, error) {
	snap, err := e.load()
	if err != nil {
		return models.GridInfo{}, err
	}
	return e.info(snap), nil
}

func (e *Engine) info(snap *snapshot) models.GridInfo {
	b := snap.extent.Bounds()
	return models.GridInfo{
		Rows:            snap.rows,
		Cols:            snap.cols,
		Variant:         string(snap.variant),
		MinLat:          b.Bottom,
		MaxLat:          b.Top,
		MinLon:          b.Left,
		MaxLon:          b.Right,
		Records:         e.store.Len(),
		TotalPopulation: e.store.TotalPopulation(),
		PreprocessMs:    snap.elapsed.Milliseconds(),
	}
}

// Grid returns the current grid state together with every cell and its
// population. Info and cells always come from the same preprocessing run,
// even while Preprocess runs concurrently. Grids of more than maxCells cells
// are rejected with ErrGridTooLarge; maxCells <= 0 means no limit.
func (e *Engine) Grid(maxCells int) (models.GridInfo, grid.Cells, error) {
	snap, err := e.load()
	if err != nil {
		return models.GridInfo{}, nil, err
	}
	if maxCells > 0 && snap.rows*snap.cols > maxCells {
		return models.GridInfo{}, nil, fmt.Errorf("%w: %dx%d exceeds %d", ErrGridTooLarge, snap.rows, snap.cols, maxCells)
	}
	cells, err := grid.BuildCells(snap.extent, snap.rows, snap.cols)
	if err != nil {
		return models.GridInfo{}, nil, err
	}
	counts, err := grid.Bin(e.store.Records(), snap.extent, snap.rows, snap.cols)
	if err != nil {
		return models.GridInfo{}, nil, err
	}
	for i, row := range cells {
		for j := range row {
			row[j].AddPopulation(counts[i][j])
		}
	}
	return e.info(snap), cells, nil
}
