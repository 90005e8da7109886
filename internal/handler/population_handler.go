package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/popquery-backend-go/internal/engine"
	"github.com/jengzang/popquery-backend-go/internal/grid"
	"github.com/jengzang/popquery-backend-go/internal/models"
	"github.com/jengzang/popquery-backend-go/internal/service"
	"github.com/jengzang/popquery-backend-go/pkg/response"
)

// maxListedCells bounds the grids GET /api/v1/grid/cells and /summary walk
const maxListedCells = 10000

// PopulationHandler handles HTTP requests for the population grid
type PopulationHandler struct {
	service *service.PopulationService
}

// NewPopulationHandler creates a new population handler
func NewPopulationHandler(service *service.PopulationService) *PopulationHandler {
	return &PopulationHandler{service: service}
}

// writeError maps engine and grid errors onto HTTP status codes
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrNotPreprocessed):
		response.Conflict(c, "Grid has not been preprocessed", err)
	case errors.Is(err, grid.ErrInvalidQuery),
		errors.Is(err, grid.ErrInvalidDimensions),
		errors.Is(err, engine.ErrUnknownVariant):
		response.BadRequest(c, "Invalid request", err)
	default:
		response.InternalError(c, "Internal error", err)
	}
}

// GetGrid handles GET /api/v1/grid
func (h *PopulationHandler) GetGrid(c *gin.Context) {
	info, err := h.service.Info()
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, info)
}

// Preprocess handles POST /api/v1/grid/preprocess
func (h *PopulationHandler) Preprocess(c *gin.Context) {
	var req models.PreprocessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}

	info, err := h.service.Preprocess(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, info)
}

// GetPopulation handles GET /api/v1/population
func (h *PopulationHandler) GetPopulation(c *gin.Context) {
	var q models.QueryRect
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return
	}

	res, err := h.service.Query(q)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, res)
}

// GetCell handles GET /api/v1/grid/cells/:row/:col
func (h *PopulationHandler) GetCell(c *gin.Context) {
	row, err := strconv.Atoi(c.Param("row"))
	if err != nil {
		response.BadRequest(c, "Invalid row", err)
		return
	}
	col, err := strconv.Atoi(c.Param("col"))
	if err != nil {
		response.BadRequest(c, "Invalid col", err)
		return
	}

	cell, err := h.service.Cell(row, col)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, cell)
}

// GetCells handles GET /api/v1/grid/cells
func (h *PopulationHandler) GetCells(c *gin.Context) {
	cells, err := h.service.Cells(maxListedCells)
	if errors.Is(err, engine.ErrGridTooLarge) {
		response.BadRequest(c, "Grid too large to list; request cells individually", err)
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{
		"data":  cells,
		"count": len(cells),
	})
}

// GetSummary handles GET /api/v1/grid/summary
func (h *PopulationHandler) GetSummary(c *gin.Context) {
	summary, err := h.service.Summary(maxListedCells)
	if errors.Is(err, engine.ErrGridTooLarge) {
		response.BadRequest(c, "Grid too large to summarize", err)
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, summary)
}
