package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskbridge-backend/internal/models"
	"taskbridge-backend/internal/services"
	"taskbridge-backend/internal/status"
	"taskbridge-backend/internal/supabase"
)

type ProjectsHandler struct {
	dbClient      *supabase.DatabaseClient
	storageClient *supabase.StorageClient
	feedService   *services.FeedService
	tax           *status.Taxonomy
}

func NewProjectsHandler(dbClient *supabase.DatabaseClient, storageClient *supabase.StorageClient, feedService *services.FeedService, tax *status.Taxonomy) *ProjectsHandler {
	return &ProjectsHandler{
		dbClient:      dbClient,
		storageClient: storageClient,
		feedService:   feedService,
		tax:           tax,
	}
}

func (h *ProjectsHandler) CreateProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
		return
	}

	project, err := h.dbClient.CreateProject(c.Request.Context(), userID, req.Title, req.Metadata)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to create project",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, h.projectResponse(c, project))
}

func (h *ProjectsHandler) ListProjects(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projects, err := h.dbClient.ListProjects(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list projects",
			Message: err.Error(),
		})
		return
	}

	summaries := make([]models.ProjectSummary, len(projects))
	for i, p := range projects {
		s, _ := h.tax.StatusFor(p.Status)
		summaries[i] = models.ProjectSummary{
			ID:          p.ID.String(),
			Title:       p.Title,
			Status:      p.Status,
			StatusLabel: s.DisplayLabel,
			UpdatedAt:   p.UpdatedAt,
		}
	}

	c.JSON(http.StatusOK, models.ProjectListResponse{Projects: summaries})
}

func (h *ProjectsHandler) GetProject(c *gin.Context) {
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

	c.JSON(http.StatusOK, h.projectResponse(c, project))
}

func (h *ProjectsHandler) DeleteProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, ok := projectIDParam(c)
	if !ok {
		return
	}

	// The ownership-scoped delete doubles as the authorization check, so it
	// must succeed before any storage cleanup runs.
	if err := h.dbClient.DeleteProject(c.Request.Context(), projectID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to delete project",
			Message: err.Error(),
		})
		return
	}

	// Cleanup is best-effort; orphaned files under the project prefix can be
	// swept again later.
	if err := h.storageClient.DeleteProjectAttachments(projectID); err != nil {
		log.Printf("projects: attachment cleanup failed for project %s: %v", projectID, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "project deleted successfully"})
}

func (h *ProjectsHandler) projectResponse(c *gin.Context, project *models.Project) models.ProjectResponse {
	s, _ := h.tax.StatusFor(project.Status)

	step, err := h.feedService.Progress(c.Request.Context(), project)
	if err != nil {
		// Progress is presentational; fall back to the direct resolve.
		step = h.tax.Resolve(project.Status)
	}

	metadata, err := project.MetadataMap()
	if err != nil {
		// Malformed stored metadata renders as empty rather than failing
		// the whole response.
		log.Printf("projects: malformed metadata for project %s: %v", project.ID, err)
	}

	response := models.ProjectResponse{
		ID:          project.ID.String(),
		Title:       project.Title,
		Status:      project.Status,
		StatusLabel: s.DisplayLabel,
		StepIndex:   step.Index,
		TotalSteps:  step.Total,
		Metadata:    metadata,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}

	if project.DoerID.Valid {
		response.DoerID = project.DoerID.UUID.String()
	}
	if project.SupervisorID.Valid {
		response.SupervisorID = project.SupervisorID.UUID.String()
	}

	return response
}
