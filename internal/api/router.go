package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/popquery-backend-go/internal/config"
	"github.com/jengzang/popquery-backend-go/internal/engine"
	"github.com/jengzang/popquery-backend-go/internal/handler"
	"github.com/jengzang/popquery-backend-go/internal/middleware"
	"github.com/jengzang/popquery-backend-go/internal/repository"
	"github.com/jengzang/popquery-backend-go/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps 路由依赖
type Deps struct {
	Config   *config.Config
	Engine   *engine.Engine
	Gatherer prometheus.Gatherer          // nil 时不暴露 /metrics
	Repo     *repository.CensusRepository // nil 时不暴露 /datasets
	Logger   *zap.Logger
}

// SetupRouter 设置路由
func SetupRouter(ctx context.Context, d Deps) *gin.Engine {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Population query API is running",
		})
	})

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	populationHandler := handler.NewPopulationHandler(service.NewPopulationService(d.Engine))

	// API 路由组
	api := r.Group("/api/v1")
	// The limiter's cleanup goroutine stops when ctx is done.
	api.Use(middleware.RateLimit(ctx, d.Config.RateLimit, time.Minute))
	{
		// 网格相关接口
		gridGroup := api.Group("/grid")
		{
			gridGroup.GET("", populationHandler.GetGrid)
			gridGroup.POST("/preprocess", middleware.Auth(d.Config.JWTSecret), populationHandler.Preprocess)
			gridGroup.GET("/summary", populationHandler.GetSummary)
			gridGroup.GET("/cells", populationHandler.GetCells)
			gridGroup.GET("/cells/:row/:col", populationHandler.GetCell)
		}

		// 人口查询接口
		api.GET("/population", populationHandler.GetPopulation)

		// 数据集接口
		if d.Repo != nil {
			datasetHandler := handler.NewDatasetHandler(service.NewDatasetService(d.Repo))
			api.GET("/datasets", datasetHandler.ListDatasets)
			api.GET("/datasets/:name", datasetHandler.GetDataset)
		}
	}

	return r
}
