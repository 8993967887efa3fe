package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskbridge-backend/internal/feed"
	"taskbridge-backend/internal/models"
	"taskbridge-backend/internal/services"
	"taskbridge-backend/internal/supabase"
)

type FeedHandler struct {
	dbClient      *supabase.DatabaseClient
	storageClient *supabase.StorageClient
	feedService   *services.FeedService
}

func NewFeedHandler(dbClient *supabase.DatabaseClient, storageClient *supabase.StorageClient, feedService *services.FeedService) *FeedHandler {
	return &FeedHandler{
		dbClient:      dbClient,
		storageClient: storageClient,
		feedService:   feedService,
	}
}

func (h *FeedHandler) GetFeed(c *gin.Context) {
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

	entries, step, err := h.feedService.BuildFeed(c.Request.Context(), project)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to build feed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.FeedResponse{
		ProjectID:  project.ID.String(),
		Entries:    h.feedEntries(entries),
		StepIndex:  step.Index,
		TotalSteps: step.Total,
	})
}

func (h *FeedHandler) GetProgress(c *gin.Context) {
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

	step, err := h.feedService.Progress(c.Request.Context(), project)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to resolve progress",
			Message: err.Error(),
		})
		return
	}

	s, _ := h.feedService.Taxonomy().StatusFor(project.Status)
	c.JSON(http.StatusOK, models.ProgressResponse{
		ProjectID:  project.ID.String(),
		Status:     project.Status,
		Label:      s.DisplayLabel,
		StepIndex:  step.Index,
		TotalSteps: step.Total,
	})
}

func (h *FeedHandler) GetTimeline(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, ok := projectIDParam(c)
	if !ok {
		return
	}

	if _, err := h.dbClient.GetProject(c.Request.Context(), projectID, userID); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "project not found",
			Message: err.Error(),
		})
		return
	}

	events, err := h.feedService.Events(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list timeline events",
			Message: err.Error(),
		})
		return
	}

	response := models.TimelineResponse{
		Events: make([]models.TimelineEventResponse, len(events)),
	}
	for i := range events {
		response.Events[i] = eventResponse(&events[i])
	}

	c.JSON(http.StatusOK, response)
}

func (h *FeedHandler) feedEntries(entries []feed.Entry) []models.FeedEntryResponse {
	out := make([]models.FeedEntryResponse, len(entries))
	for i, entry := range entries {
		resp := models.FeedEntryResponse{
			Kind:      string(entry.Kind),
			Timestamp: entry.Timestamp,
		}
		switch entry.Kind {
		case feed.KindMessage:
			msg := models.MessageResponse{
				ID:        entry.Message.ID.String(),
				ProjectID: entry.Message.ProjectID.String(),
				SenderID:  entry.Message.SenderID.String(),
				Content:   entry.Message.Content,
				CreatedAt: entry.Message.CreatedAt,
			}
			if entry.Message.AttachmentPath.Valid {
				msg.AttachmentURL = h.storageClient.GetPublicURL(entry.Message.AttachmentPath.String)
			}
			resp.Message = &msg
		case feed.KindEvent:
			ev := eventResponse(entry.Event)
			resp.Event = &ev
			resp.Label = entry.Hint.Label
			resp.Emphasis = string(entry.Hint.Emphasis)
		}
		out[i] = resp
	}
	return out
}
