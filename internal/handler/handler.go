// Package handler holds the operational endpoints and helpers shared by
// the feature handlers in its subpackages.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/abdulhamidalthaljy/CareConnect/pkg/errors"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/httputil"
)

// Pinger reports whether a backing service is reachable.
type Pinger func(ctx context.Context) error

type Handler struct {
	checks   map[string]Pinger
	gatherer prometheus.Gatherer
}

func NewHandler(gatherer prometheus.Gatherer, checks map[string]Pinger) *Handler {
	return &Handler{checks: checks, gatherer: gatherer}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/", h.Welcome)

	health := r.Group("/health")
	{
		health.GET("/live", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
	}
	r.GET("/metrics", h.MetricsHandler)
}

func (h *Handler) Welcome(c *gin.Context) {
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{
		"name":    "CareConnect",
		"message": "Welcome to CareConnect",
	})
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive", "time": time.Now().UTC()})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, ping := range h.checks {
		if ping == nil {
			continue
		}
		if err := ping(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "failed": failed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "time": time.Now().UTC()})
}

func (h *Handler) MetricsHandler(c *gin.Context) {
	promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}).ServeHTTP(c.Writer, c.Request)
}

// Bind binds the request into obj; on failure the error is left for the
// validation middleware to render and false is returned.
func Bind(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBind(obj); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return false
	}
	return true
}

// ParamID parses a positive integer path parameter, answering 404 when it
// is malformed.
func ParamID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		httputil.RespondWithError(c, apperrors.NewNotFound(name, err))
		return 0, false
	}
	return id, true
}

// WantsHTML reports whether the client is a browser navigating the site.
func WantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), gin.MIMEHTML)
}
