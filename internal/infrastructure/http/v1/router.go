package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jczaplew/gl-js-offline/internal/infrastructure/http/v1/handler"
	"github.com/jczaplew/gl-js-offline/pkg/logger"
	"github.com/jczaplew/gl-js-offline/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(handler *handler.Handler, l logger.Logger, telemetryEnabled bool) *gin.Engine {
	r := gin.Default()

	r.Use(gin.Recovery())

	if telemetryEnabled {
		r.Use(telemetry.GinMiddleware("gl-js-offline"))
	}

	r.Use(ginZapLogger(l))

	api := r.Group("/api")
	v1 := api.Group("/v1")

	v1.GET("/healthz", handler.Healthz)

	v1.POST("/packs", handler.CreatePack)
	v1.POST("/packs/estimate", handler.Estimate)
	v1.GET("/packs", handler.ListPacks)
	v1.GET("/packs/:name", handler.GetPack)
	v1.POST("/packs/:name/abort", handler.AbortPack)
	v1.DELETE("/packs/:name", handler.DeletePack)
	v1.DELETE("/packs", handler.DeleteAll)

	v1.GET("/tile/:source/:z/:x/:y", handler.Tile)

	// Prometheus metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func ginZapLogger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		end := time.Now()
		latency := end.Sub(start)

		l.Info("request",
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
			"latency", latency,
			"size", c.Writer.Size(),
		)
	}
}
