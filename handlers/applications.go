package handlers

import (
	"net/http"

	"kredit-api/middleware"
	"kredit-api/models"
	"kredit-api/services"
	"kredit-api/statemachine"

	"github.com/gin-gonic/gin"
)

type ApplicationHandler struct {
	apps *services.ApplicationService
}

func NewApplicationHandler(apps *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{apps: apps}
}

// Create submits a new credit application (consumers only)
func (h *ApplicationHandler) Create(c *gin.Context) {
	actor := middleware.GetActor(c)
	if err := h.apps.Allow(actor, statemachine.OpCreate); err != nil {
		respondError(c, err)
		return
	}

	var in services.ApplicationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}

	app, err := h.apps.Create(c.Request.Context(), actor, &in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "application submitted",
		"application": app,
	})
}

// List returns the caller's visible applications, optionally by status
func (h *ApplicationHandler) List(c *gin.Context) {
	status := models.ApplicationStatus(c.Query("status"))
	apps, err := h.apps.List(c.Request.Context(), middleware.GetActor(c), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":        len(apps),
		"applications": apps,
	})
}

// Get returns one application with its owner
func (h *ApplicationHandler) Get(c *gin.Context) {
	app, err := h.apps.Get(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"application": app})
}

// UpdateStatus moves an application through the workflow (staff only)
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	actor := middleware.GetActor(c)
	if err := h.apps.Allow(actor, statemachine.OpUpdateStatus); err != nil {
		respondError(c, err)
		return
	}

	var req services.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	app, err := h.apps.UpdateStatus(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "status updated to " + string(app.Status),
		"application": app,
	})
}

// Stats counts applications per status within the caller's scope
func (h *ApplicationHandler) Stats(c *gin.Context) {
	stats, err := h.apps.Stats(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
