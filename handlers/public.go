package handlers

import (
	"context"
	"net/http"
	"time"

	"kredit-api/repository"
	"kredit-api/services"

	"github.com/gin-gonic/gin"
)

type PublicHandler struct {
	apps  *services.ApplicationService
	store repository.Pinger
}

func NewPublicHandler(apps *services.ApplicationService, store repository.Pinger) *PublicHandler {
	return &PublicHandler{apps: apps, store: store}
}

// Health reports liveness and whether the store answers
func (h *PublicHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "Vehicle Credit Application API",
			"error":   "store unreachable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "Vehicle Credit Application API",
		"version": "1.0.0",
	})
}

// Welcome lists the entry points of the API
func (h *PublicHandler) Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Vehicle Credit Application API",
		"docs":    "/api/workflow",
		"health":  "/health",
		"roles":   []string{"consumer", "marketing", "marketing_supervisor", "backoffice_admin"},
	})
}

// GetWorkflowInfo returns the status pipeline and who may move it
func (h *PublicHandler) GetWorkflowInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"workflow": h.apps.DescribeWorkflow()})
}

// NotFound answers unmatched routes
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
}
