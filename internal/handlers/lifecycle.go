package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskbridge-backend/internal/models"
	"taskbridge-backend/internal/services"
	"taskbridge-backend/internal/supabase"
)

type LifecycleHandler struct {
	dbClient  *supabase.DatabaseClient
	lifecycle *services.LifecycleService
}

func NewLifecycleHandler(dbClient *supabase.DatabaseClient, lifecycle *services.LifecycleService) *LifecycleHandler {
	return &LifecycleHandler{
		dbClient:  dbClient,
		lifecycle: lifecycle,
	}
}

func (h *LifecycleHandler) Transition(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, ok := projectIDParam(c)
	if !ok {
		return
	}

	project, err := h.dbClient.GetProject(c.Request.Context(), projectID, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "project not found",
			Message: err.Error(),
		})
		return
	}

	var req models.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
		return
	}

	event, err := h.lifecycle.Transition(c.Request.Context(), project, req.ToStatus, req.Notes)
	if err != nil {
		h.writeLifecycleError(c, err)
		return
	}

	c.JSON(http.StatusOK, eventResponse(event))
}

func (h *LifecycleHandler) Quote(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, ok := projectIDParam(c)
	if !ok {
		return
	}

	project, err := h.dbClient.GetProject(c.Request.Context(), projectID, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "project not found",
			Message: err.Error(),
		})
		return
	}

	var req models.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
		return
	}

	event, err := h.lifecycle.Quote(c.Request.Context(), project, req.AmountCents, req.Notes)
	if err != nil {
		h.writeLifecycleError(c, err)
		return
	}

	c.JSON(http.StatusOK, eventResponse(event))
}

func (h *LifecycleHandler) writeLifecycleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error:   "transition not allowed",
			Message: err.Error(),
		})
	case errors.Is(err, supabase.ErrStatusConflict):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "project status changed, refresh and retry",
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to update project status",
			Message: err.Error(),
		})
	}
}

func eventResponse(event *models.TimelineEvent) models.TimelineEventResponse {
	response := models.TimelineEventResponse{
		ID:        event.ID.String(),
		Kind:      event.Kind,
		CreatedAt: event.CreatedAt,
	}
	if event.FromStatus.Valid {
		response.FromStatus = event.FromStatus.String
	}
	if event.ToStatus.Valid {
		response.ToStatus = event.ToStatus.String
	}
	if event.AmountCents.Valid {
		response.AmountCents = event.AmountCents.Int64
	}
	if event.Notes.Valid {
		response.Notes = event.Notes.String
	}
	return response
}
