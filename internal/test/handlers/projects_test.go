package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"taskbridge-backend/internal/handlers"
	"taskbridge-backend/internal/middleware"
)

// The nil clients prove parameter validation rejects the request before any
// database or storage call.
func deleteRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewProjectsHandler(nil, nil, nil, nil)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, uuid.NewString())
	})
	router.DELETE("/projects/:project_id", handler.DeleteProject)
	return router
}

func TestDeleteProjectRejectsInvalidProjectID(t *testing.T) {
	router := deleteRouter()

	req, _ := http.NewRequest("DELETE", "/projects/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid project id")
}

func TestDeleteProjectRequiresAuthenticatedUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewProjectsHandler(nil, nil, nil, nil)

	router := gin.New()
	router.DELETE("/projects/:project_id", handler.DeleteProject)

	req, _ := http.NewRequest("DELETE", "/projects/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
