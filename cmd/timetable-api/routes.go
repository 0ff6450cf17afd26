package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, app *application, logr *zap.Logger) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(app.metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", app.ops.Health)
	r.GET("/ready", app.ops.Ready)
	r.GET("/metrics", app.ops.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	years := r.Group(cfg.APIPrefix + "/academic-years/:yearId")
	{
		years.PUT("/timing-config", app.timing.SaveConfig)
		years.GET("/timing-config", app.timing.GetConfig)
		years.GET("/slots", app.timing.ListSlots)
		years.GET("/conflicts", app.table.Conflicts)

		classes := years.Group("/classes/:classId/timetable")
		classes.PUT("", app.table.SaveEntries)
		classes.GET("", app.table.GetEntries)
		classes.GET("/grid", app.table.Grid)
		classes.GET("/completion", app.table.Completion)
		if cfg.Timetable.ExportEnabled {
			classes.GET("/export", app.table.Export)
		}

		sessions := years.Group("/extra-sessions")
		sessions.POST("", app.sessions.Create)
		sessions.GET("", app.sessions.List)
		sessions.DELETE("/:id", app.sessions.Delete)
	}

	return r
}
