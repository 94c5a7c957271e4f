package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dpr/internal/server/handlers"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Dashboard    *handlers.DashboardHandler
	Reports      *handlers.ReportHandler
	Export       *handlers.ExportHandler
	Distribution *handlers.DistributionHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/catalog", h.Dashboard.Catalog)
		api.GET("/dashboard", h.Dashboard.Dashboard)
		api.GET("/dashboard/monthly", h.Dashboard.Monthly)

		api.POST("/reports", h.Reports.Save)
		api.GET("/reports/:site", h.Reports.Recent)
		api.GET("/reports/:site/:date", h.Reports.Get)
		api.DELETE("/reports/:site/:date", h.Reports.Delete)
		api.GET("/sites/:site/summary", h.Reports.Summary)

		api.GET("/export", h.Export.Download)

		api.POST("/distribution/daily", h.Distribution.TriggerDaily)
		api.POST("/distribution/test", h.Distribution.TestEmail)
		api.GET("/distribution/logs", h.Distribution.Logs)

		api.GET("/recipients", h.Distribution.ListRecipients)
		api.PUT("/recipients", h.Distribution.UpsertRecipient)
		api.DELETE("/recipients/:email", h.Distribution.DeactivateRecipient)
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
