package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/projectnav/navigator/internal/middleware"
	"github.com/projectnav/navigator/internal/services"
	"github.com/projectnav/navigator/pkg/logger"
	"github.com/projectnav/navigator/pkg/response"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{
		projectService: services.NewProjectService(db),
	}
}

func projectID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return 0, false
	}
	return uint(id), true
}

// List returns the caller's projects
// GET /projects
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projectService.List(middleware.GetUserID(c))
	if err != nil {
		logger.Error().Err(err).Msg("project list failed")
		response.Error(c, err)
		return
	}

	c.JSON(200, projects)
}

// GetByID returns a single owned project
// GET /projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	project, err := h.projectService.Get(middleware.GetUserID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(200, project)
}

// Create creates a new project
// POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Create(middleware.GetUserID(c), &req)
	if err != nil {
		logger.Error().Err(err).Msg("project create failed")
		response.Error(c, err)
		return
	}

	c.JSON(201, project)
}

// Update merges fields into a project
// PUT /projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Update(middleware.GetUserID(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(200, project)
}

// Delete removes a project and everything attached to it
// DELETE /projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	if err := h.projectService.Delete(middleware.GetUserID(c), id); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(200, gin.H{"message": "project deleted successfully"})
}

// AddTask appends one task to a project
// POST /projects/:id/tasks
func (h *ProjectHandler) AddTask(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	var req services.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.projectService.AddTask(middleware.GetUserID(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(201, task)
}
