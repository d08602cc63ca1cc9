package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stockbox/backend/internal/domain"
	"github.com/stockbox/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	pipeline  *usecase.PipelineService
	inventory *usecase.InventoryService
}

// NewHandler creates a new HTTP handler. Either service may be nil; its
// endpoints then answer 503.
func NewHandler(pipeline *usecase.PipelineService, inventory *usecase.InventoryService) *Handler {
	return &Handler{
		pipeline:  pipeline,
		inventory: inventory,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "stockbox-backend",
		"version": "1.0.0",
	})
}

func (h *Handler) pipelineReady(c *gin.Context) bool {
	if h.pipeline == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pipeline service not configured"})
		return false
	}
	return true
}

func (h *Handler) inventoryReady(c *gin.Context) bool {
	if h.inventory == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "inventory service not configured"})
		return false
	}
	return true
}

// respondError maps a usecase error onto a status code and error body.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}
	if raw := domain.RawOutput(err); raw != "" {
		body["raw_output"] = raw
	}
	if status >= http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrListNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyResult):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrMissingAPIKey):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrExhaustedRetries),
		errors.Is(err, domain.ErrFatalCall),
		errors.Is(err, domain.ErrTransient),
		errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// listIDParam parses the :id path parameter.
func listIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "list id must be a positive integer"})
		return 0, false
	}
	return id, true
}
