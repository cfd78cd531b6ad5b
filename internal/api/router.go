package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"FXInsight/internal/dashboard"
	"FXInsight/internal/fairvalue"
	"FXInsight/internal/model"
)

// Dashboard is what the HTTP surface needs from the pipeline service.
type Dashboard interface {
	Snapshot(ctx context.Context, q dashboard.Query) (*dashboard.View, error)
	Market(ctx context.Context) (*model.SourceResult, error)
	Refresh(ctx context.Context) (*model.SourceResult, error)
	Models() *fairvalue.Registry
}

// Handler serves the JSON API consumed by the charting front end.
type Handler struct {
	svc Dashboard
	log zerolog.Logger
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(svc Dashboard, log zerolog.Logger) *gin.Engine {
	h := &Handler{svc: svc, log: log.With().Str("component", "api").Logger()}

	r := gin.New()
	r.Use(gin.Recovery(), h.accessLog())

	r.GET("/healthz", h.Health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/market", h.GetMarket)
		v1.GET("/models", h.ListModels)
		v1.GET("/models/:version/factors", h.GetFactors)
		v1.GET("/snapshot", h.GetSnapshot)
		v1.POST("/refresh", h.PostRefresh)
	}
	return r
}

func (h *Handler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
