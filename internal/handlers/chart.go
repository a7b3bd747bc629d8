package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/projectnav/navigator/internal/middleware"
	"github.com/projectnav/navigator/internal/services"
	"github.com/projectnav/navigator/pkg/response"
	"gorm.io/gorm"
)

type ChartHandler struct {
	projectService *services.ProjectService
	chartService   *services.ChartService
}

func NewChartHandler(db *gorm.DB) *ChartHandler {
	return &ChartHandler{
		projectService: services.NewProjectService(db),
		chartService:   services.NewChartService(),
	}
}

type ganttRequest struct {
	ProjectID uint                  `json:"projectId" binding:"required"`
	Filters   services.GanttFilters `json:"filters"`
}

type wbsRequest struct {
	ProjectID uint `json:"projectId" binding:"required"`
}

// Gantt derives the Gantt view-model for a project
// POST /generate-gantt
func (h *ChartHandler) Gantt(c *gin.Context) {
	var req ganttRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.GetOwned(middleware.GetUserID(c), req.ProjectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(200, gin.H{"ganttData": h.chartService.Gantt(project, req.Filters)})
}

// WBS derives the work breakdown structure for a project
// POST /generate-wbs
func (h *ChartHandler) WBS(c *gin.Context) {
	var req wbsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.GetOwned(middleware.GetUserID(c), req.ProjectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	nodes, info := h.chartService.WBS(project)
	c.JSON(200, gin.H{"wbsData": nodes, "projectInfo": info})
}
