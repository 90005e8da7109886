package service

import (
	"context"

	"github.com/jengzang/popquery-backend-go/internal/engine"
	"github.com/jengzang/popquery-backend-go/internal/grid"
	"github.com/jengzang/popquery-backend-go/internal/models"
	"github.com/jengzang/popquery-backend-go/internal/spatial"
	"github.com/jengzang/popquery-backend-go/internal/stats"
)

// PopulationService handles business logic for population queries
type PopulationService struct {
	engine *engine.Engine
}

// NewPopulationService creates a new population service
func NewPopulationService(e *engine.Engine) *PopulationService {
	return &PopulationService{engine: e}
}

// Preprocess rebuilds the grid and returns the new grid summary
func (s *PopulationService) Preprocess(ctx context.Context, req models.PreprocessRequest) (models.GridInfo, error) {
	v, err := engine.ParseVariant(req.Variant)
	if err != nil {
		return models.GridInfo{}, err
	}
	if err := s.engine.Preprocess(ctx, req.Rows, req.Cols, v); err != nil {
		return models.GridInfo{}, err
	}
	return s.engine.Info()
}

// Info returns the current grid summary
func (s *PopulationService) Info() (models.GridInfo, error) {
	return s.engine.Info()
}

// Query answers a population query over grid cells
func (s *PopulationService) Query(q models.QueryRect) (models.QueryResult, error) {
	return s.engine.Query(q)
}

// Cell returns one grid cell with its area and density
func (s *PopulationService) Cell(row, col int) (*models.GridCell, error) {
	rect, err := s.engine.Cell(row, col)
	if err != nil {
		return nil, err
	}
	cell := s.describe(row, col, rect)
	return &cell, nil
}

func (s *PopulationService) describe(row, col int, rect models.Rectangle) models.GridCell {
	geo := spatial.Measure(rect)
	return models.GridCell{
		Row:          row,
		Col:          col,
		Bounds:       rect,
		AreaKm2:      geo.AreaKm2,
		WidthKm:      geo.WidthKm,
		HeightKm:     geo.HeightKm,
		DensityPerKm: geo.DensityPerKm,
		Percentage:   grid.Percentage(rect.Population, s.engine.Store().TotalPopulation()),
	}
}

// gridCells returns the current grid info and every cell, south to north, taken
// from a single preprocessing run
func (s *PopulationService) gridCells(maxCells int) (models.GridInfo, []models.GridCell, error) {
	info, rects, err := s.engine.Grid(maxCells)
	if err != nil {
		return models.GridInfo{}, nil, err
	}
	cells := make([]models.GridCell, 0, info.Rows*info.Cols)
	for i, row := range rects {
		for j, rect := range row {
			cells = append(cells, s.describe(i+1, j+1, rect))
		}
	}
	return info, cells, nil
}

// Cells returns every cell of the current grid, south to north. Grids of
// more than maxCells cells are rejected; maxCells <= 0 means no limit.
func (s *PopulationService) Cells(maxCells int) ([]models.GridCell, error) {
	_, cells, err := s.gridCells(maxCells)
	return cells, err
}

// Summary describes the distribution of population over the grid cells
// and reports the most densely populated cell. maxCells bounds the grid as
// in Cells.
func (s *PopulationService) Summary(maxCells int) (*models.GridSummary, error) {
	info, cells, err := s.gridCells(maxCells)
	if err != nil {
		return nil, err
	}

	flat := make([]int64, 0, len(cells))
	var densest *models.GridCell
	for i := range cells {
		c := &cells[i]
		flat = append(flat, c.Bounds.Population)
		if c.Bounds.Population == 0 {
			continue
		}
		if densest == nil || c.DensityPerKm > densest.DensityPerKm {
			densest = c
		}
	}

	return &models.GridSummary{
		Grid:         info,
		Distribution: stats.Summarize(flat),
		Densest:      densest,
	}, nil
}
