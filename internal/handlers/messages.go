package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskbridge-backend/internal/chat"
	"taskbridge-backend/internal/models"
	"taskbridge-backend/internal/policy"
	"taskbridge-backend/internal/supabase"
)

type MessagesHandler struct {
	dbClient      *supabase.DatabaseClient
	storageClient *supabase.StorageClient
	transport     chat.Transport
}

func NewMessagesHandler(dbClient *supabase.DatabaseClient, storageClient *supabase.StorageClient, transport chat.Transport) *MessagesHandler {
	return &MessagesHandler{
		dbClient:      dbClient,
		storageClient: storageClient,
		transport:     transport,
	}
}

func (h *MessagesHandler) ListMessages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, ok := projectIDParam(c)
	if !ok {
		return
	}

	// Membership check; rely on the scoped lookup like every other route.
	if _, err := h.dbClient.GetProject(c.Request.Context(), projectID, userID); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "project not found",
			Message: err.Error(),
		})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 200 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = parsed
	}

	page, err := h.transport.FetchPage(c.Request.Context(), projectID, c.Query("cursor"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list messages",
			Message: err.Error(),
		})
		return
	}

	response := models.MessagePageResponse{
		Messages:   make([]models.MessageResponse, len(page.Messages)),
		NextCursor: page.NextCursor,
	}
	for i, msg := range page.Messages {
		response.Messages[i] = h.messageResponse(&msg)
	}

	c.JSON(http.StatusOK, response)
}

func (h *MessagesHandler) SendMessage(c *gin.Context) {
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

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
		return
	}

	msg, err := h.transport.Send(c.Request.Context(), projectID, userID, req.Content, req.AttachmentPath)
	if err != nil {
		var violation *policy.Violation
		if errors.As(err, &violation) {
			c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
				Error:   "message blocked by content policy",
				Message: string(violation.Reason),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to send message",
			Message: err.Error(),
		})
		return
	}

	// Connected feed streams hear about the message through the transport's
	// subscriber registry; nothing more to announce here.
	c.JSON(http.StatusOK, h.messageResponse(msg))
}

func (h *MessagesHandler) messageResponse(msg *models.ChatMessage) models.MessageResponse {
	response := models.MessageResponse{
		ID:        msg.ID.String(),
		ProjectID: msg.ProjectID.String(),
		SenderID:  msg.SenderID.String(),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
	if msg.AttachmentPath.Valid {
		response.AttachmentURL = h.storageClient.GetPublicURL(msg.AttachmentPath.String)
	}
	return response
}
