package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskbridge-backend/internal/models"
	"taskbridge-backend/internal/supabase"
)

const maxAttachmentSize = 25 << 20 // 25 MB

type AttachmentsHandler struct {
	dbClient      *supabase.DatabaseClient
	storageClient *supabase.StorageClient
}

func NewAttachmentsHandler(dbClient *supabase.DatabaseClient, storageClient *supabase.StorageClient) *AttachmentsHandler {
	return &AttachmentsHandler{
		dbClient:      dbClient,
		storageClient: storageClient,
	}
}

// Upload stores a file the caller can then reference from a chat message via
// attachment_path.
func (h *AttachmentsHandler) Upload(c *gin.Context) {
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

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "missing file",
			Message: err.Error(),
		})
		return
	}
	if fileHeader.Size > maxAttachmentSize {
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: "file too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to read file",
			Message: err.Error(),
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to read file",
			Message: err.Error(),
		})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	storagePath, publicURL, err := h.storageClient.UploadAttachment(projectID, fileHeader.Filename, contentType, data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to upload attachment",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attachment_path": storagePath,
		"attachment_url":  publicURL,
	})
}
