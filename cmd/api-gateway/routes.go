package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/hall-matrix-api/internal/handler"
	"github.com/noah-isme/hall-matrix-api/internal/middleware"
	"github.com/noah-isme/hall-matrix-api/internal/models"
	"github.com/noah-isme/hall-matrix-api/pkg/config"
	"github.com/noah-isme/hall-matrix-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/hall-matrix-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/hall-matrix-api/pkg/middleware/requestid"
)

type routeDeps struct {
	auth        middleware.TokenValidator
	metrics     middleware.RequestObserver
	allocations *handler.AllocationHandler
	reference   *handler.ReferenceHandler
	metricsAPI  *handler.MetricsHandler
	health      *handler.HealthHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", deps.health.Health)
	r.GET("/ready", deps.health.Ready)
	r.GET("/metrics", deps.metricsAPI.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(deps.auth))

	readers := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleStaff)
	admins := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)

	allocations := api.Group("/allocations")
	allocations.POST("/generate", admins, deps.allocations.Generate)
	allocations.GET("", readers, deps.allocations.List)
	allocations.GET("/runs", readers, deps.allocations.Runs)

	api.GET("/students", readers, deps.reference.Students)
	api.GET("/halls", readers, deps.reference.Halls)
	api.GET("/subjects", readers, deps.reference.Subjects)
	api.GET("/invigilators", readers, deps.reference.Invigilators)

	api.GET("/system/metrics", admins, deps.metricsAPI.Summary)

	return r
}
