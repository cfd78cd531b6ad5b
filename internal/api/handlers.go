package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"FXInsight/internal/collector"
	"FXInsight/internal/dashboard"
	"FXInsight/internal/fairvalue"
	"FXInsight/internal/forecast"
	"FXInsight/internal/model"
)

// Query parameters of /snapshot that are not factor keys.
var reservedParams = map[string]bool{
	"model":   true,
	"policy":  true,
	"horizon": true,
	"seed":    true,
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) GetMarket(c *gin.Context) {
	res, err := h.svc.Market(c.Request.Context())
	if err != nil || res.Empty() {
		h.writeError(c, err, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) PostRefresh(c *gin.Context) {
	res, err := h.svc.Refresh(c.Request.Context())
	if err != nil || res.Empty() {
		h.writeError(c, err, res)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"source_label": res.SourceLabel,
		"is_synthetic": res.IsSynthetic,
		"latest_price": res.LatestPrice,
		"latest_date":  res.LatestDate,
		"points":       res.Series.Len(),
		"attempts":     res.Attempts,
	})
}

type modelInfo struct {
	Version     string  `json:"version"`
	Description string  `json:"description"`
	Method      string  `json:"method"`
	Base        float64 `json:"base"`
	Factors     int     `json:"factors"`
}

func (h *Handler) ListModels(c *gin.Context) {
	reg := h.svc.Models()
	versions := reg.Versions()
	out := make([]modelInfo, 0, len(versions))
	for _, v := range versions {
		m, err := reg.Get(v)
		if err != nil {
			continue
		}
		out = append(out, modelInfo{
			Version:     m.Version,
			Description: m.Description,
			Method:      fairvalue.Method,
			Base:        m.Base,
			Factors:     len(m.Factors),
		})
	}
	c.JSON(http.StatusOK, gin.H{"default": reg.Default(), "models": out})
}

func (h *Handler) GetFactors(c *gin.Context) {
	m, err := h.svc.Models().Get(c.Param("version"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"version": m.Version, "factors": m.Factors})
}

func (h *Handler) GetSnapshot(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := h.svc.Snapshot(c.Request.Context(), q)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, view)
}

// parseQuery reads presentation parameters and treats every other parameter
// as a factor value. Unknown factor keys are rejected by the model.
func parseQuery(c *gin.Context) (dashboard.Query, error) {
	q := dashboard.Query{Model: c.Query("model")}

	if s := c.Query("policy"); s != "" {
		p, err := forecast.ParsePolicy(s)
		if err != nil {
			return q, err
		}
		q.Policy = p
	}
	if s := c.Query("horizon"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > forecast.MaxHorizon {
			return q, fmt.Errorf("horizon must be an integer between 1 and %d, got %q", forecast.MaxHorizon, s)
		}
		q.Horizon = n
	}
	if s := c.Query("seed"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return q, fmt.Errorf("seed must be an unsigned integer, got %q", s)
		}
		q.Seed = n
	}

	for key, values := range c.Request.URL.Query() {
		if reservedParams[key] || len(values) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(values[len(values)-1], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return q, fmt.Errorf("factor %q must be a finite number, got %q", key, values[len(values)-1])
		}
		if q.Inputs == nil {
			q.Inputs = make(fairvalue.Inputs)
		}
		q.Inputs[key] = v
	}
	return q, nil
}

// writeError maps pipeline errors onto status codes. A nil error with an
// empty result is treated as unavailable data.
func (h *Handler) writeError(c *gin.Context, err error, res *model.SourceResult) {
	switch {
	case errors.Is(err, dashboard.ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err == nil || errors.Is(err, collector.ErrNoData):
		body := gin.H{"error": collector.ErrNoData.Error()}
		if res != nil {
			body["attempts"] = res.Attempts
		}
		c.JSON(http.StatusServiceUnavailable, body)
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
