package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/popquery-backend-go/internal/repository"
	"github.com/jengzang/popquery-backend-go/internal/service"
	"github.com/jengzang/popquery-backend-go/pkg/response"
)

// DatasetHandler handles HTTP requests for stored datasets
type DatasetHandler struct {
	service *service.DatasetService
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(service *service.DatasetService) *DatasetHandler {
	return &DatasetHandler{service: service}
}

// ListDatasets handles GET /api/v1/datasets
func (h *DatasetHandler) ListDatasets(c *gin.Context) {
	datasets, err := h.service.List(c.Request.Context())
	if err != nil {
		response.InternalError(c, "Failed to list datasets", err)
		return
	}
	response.Success(c, gin.H{
		"data":  datasets,
		"count": len(datasets),
	})
}

// GetDataset handles GET /api/v1/datasets/:name
func (h *DatasetHandler) GetDataset(c *gin.Context) {
	dataset, err := h.service.Get(c.Request.Context(), c.Param("name"))
	if errors.Is(err, repository.ErrDatasetNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to get dataset", err)
		return
	}
	response.Success(c, dataset)
}
