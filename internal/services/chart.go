package services

import (
	"fmt"
	"time"

	"github.com/projectnav/navigator/internal/models"
)

const dateLayout = "2006-01-02"

// GanttFilters narrows the Gantt projection. Phase is an exact label match;
// Sprint is "current" or "next", a 14-day window anchored to the start of
// the current calendar week.
type GanttFilters struct {
	Phase  string `json:"phase"`
	Sprint string `json:"sprint"`
}

// GanttItem is one bar of the Gantt view-model: a synthetic per-phase group
// or a task leaf with a 1-day span ending at its due date.
type GanttItem struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Start        string   `json:"start"`
	End          string   `json:"end"`
	Progress     int      `json:"progress"`
	Type         string   `json:"type"` // group, task
	Parent       string   `json:"parent,omitempty"`
	Dependencies []string `json:"dependencies"`
}

// WBSNode is one entry of the flat parent-pointer work breakdown structure.
type WBSNode struct {
	ID           string  `json:"id"`
	Parent       *string `json:"parent"` // nil for the root
	Text         string  `json:"text"`
	Type         string  `json:"type"` // project, phase, task
	Status       string  `json:"status,omitempty"`
	Progress     int     `json:"progress"`
	WorkEstimate float64 `json:"workEstimate"`
	DueDate      string  `json:"dueDate,omitempty"`
	WBSNumber    string  `json:"wbsNumber"`
	Level        int     `json:"level"`
}

// WBSProjectInfo summarizes the project alongside the WBS node list.
type WBSProjectInfo struct {
	Name              string               `json:"name"`
	CurrentPhase      models.Phase         `json:"currentPhase"`
	Status            models.ProjectStatus `json:"status"`
	TotalTasks        int                  `json:"totalTasks"`
	CompletedTasks    int                  `json:"completedTasks"`
	TotalWorkEstimate float64              `json:"totalWorkEstimate"`
	Progress          int                  `json:"progress"`
}

// ChartService derives read-only chart view-models from project state. Both
// projections are pure functions of the project passed in; nothing is
// persisted.
type ChartService struct {
	now func() time.Time
}

func NewChartService() *ChartService {
	return &ChartService{now: time.Now}
}

// Gantt groups the project's tasks by phase. Each populated phase becomes a
// group node spanning the min/max due dates of its tasks; each task becomes
// a leaf ending at its due date. Tasks without a due date are treated as due
// today.
func (s *ChartService) Gantt(project *models.Project, filters GanttFilters) []GanttItem {
	sprintFrom, sprintTo, sprintActive := s.sprintWindow(filters.Sprint)

	byPhase := make(map[models.Phase][]models.Task)
	for _, task := range project.Tasks {
		if filters.Phase != "" && string(task.Phase) != filters.Phase {
			continue
		}
		due := s.taskDue(task)
		if sprintActive && (due.Before(sprintFrom) || !due.Before(sprintTo)) {
			continue
		}
		byPhase[task.Phase] = append(byPhase[task.Phase], task)
	}

	items := []GanttItem{}
	for _, phase := range models.CanonicalPhases() {
		tasks := byPhase[phase]
		if len(tasks) == 0 {
			continue
		}

		minDue := s.taskDue(tasks[0])
		maxDue := minDue
		for _, task := range tasks[1:] {
			due := s.taskDue(task)
			if due.Before(minDue) {
				minDue = due
			}
			if due.After(maxDue) {
				maxDue = due
			}
		}

		groupID := fmt.Sprintf("phase-%s", phase)
		items = append(items, GanttItem{
			ID:           groupID,
			Name:         string(phase),
			Start:        minDue.Format(dateLayout),
			End:          maxDue.Format(dateLayout),
			Progress:     phaseProgress(tasks),
			Type:         "group",
			Dependencies: []string{},
		})

		for _, task := range tasks {
			due := s.taskDue(task)
			items = append(items, GanttItem{
				ID:           fmt.Sprintf("task-%d", task.ID),
				Name:         task.Title,
				Start:        due.AddDate(0, 0, -1).Format(dateLayout),
				End:          due.Format(dateLayout),
				Progress:     taskProgress(task.Status),
				Type:         "task",
				Parent:       groupID,
				Dependencies: []string{},
			})
		}
	}

	return items
}

// WBS emits the flat parent-pointer breakdown: synthetic project root, all
// four phases in canonical order, then each phase's tasks in storage order.
func (s *ChartService) WBS(project *models.Project) ([]WBSNode, WBSProjectInfo) {
	completed := 0
	totalEstimate := 0.0
	for _, task := range project.Tasks {
		if task.Status == models.TaskDone {
			completed++
		}
		totalEstimate += task.WorkEstimate
	}

	overall := 0
	if len(project.Tasks) > 0 {
		overall = completed * 100 / len(project.Tasks)
	}

	rootID := "project"
	nodes := []WBSNode{{
		ID:           rootID,
		Parent:       nil,
		Text:         project.Name,
		Type:         "project",
		Progress:     overall,
		WorkEstimate: totalEstimate,
		WBSNumber:    "1",
		Level:        0,
	}}

	for i, phase := range models.CanonicalPhases() {
		phaseID := fmt.Sprintf("phase-%s", phase)
		phaseNumber := fmt.Sprintf("1.%d", i+1)

		var tasks []models.Task
		phaseEstimate := 0.0
		for _, task := range project.Tasks {
			if task.Phase == phase {
				tasks = append(tasks, task)
				phaseEstimate += task.WorkEstimate
			}
		}

		parent := rootID
		nodes = append(nodes, WBSNode{
			ID:           phaseID,
			Parent:       &parent,
			Text:         string(phase),
			Type:         "phase",
			Progress:     phaseProgress(tasks),
			WorkEstimate: phaseEstimate,
			WBSNumber:    phaseNumber,
			Level:        1,
		})

		for j, task := range tasks {
			phaseParent := phaseID
			node := WBSNode{
				ID:           fmt.Sprintf("task-%d", task.ID),
				Parent:       &phaseParent,
				Text:         task.Title,
				Type:         "task",
				Status:       string(task.Status),
				Progress:     taskProgress(task.Status),
				WorkEstimate: task.WorkEstimate,
				WBSNumber:    fmt.Sprintf("%s.%d", phaseNumber, j+1),
				Level:        2,
			}
			if task.DueDate != nil {
				node.DueDate = task.DueDate.Format(dateLayout)
			}
			nodes = append(nodes, node)
		}
	}

	info := WBSProjectInfo{
		Name:              project.Name,
		CurrentPhase:      project.CurrentPhase,
		Status:            project.Status,
		TotalTasks:        len(project.Tasks),
		CompletedTasks:    completed,
		TotalWorkEstimate: totalEstimate,
		Progress:          overall,
	}

	return nodes, info
}

// sprintWindow resolves "current"/"next" into a half-open 14-day window
// anchored to the start (Sunday) of the current calendar week.
func (s *ChartService) sprintWindow(sprint string) (time.Time, time.Time, bool) {
	if sprint != "current" && sprint != "next" {
		return time.Time{}, time.Time{}, false
	}

	now := s.now()
	weekStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, -int(now.Weekday()))

	from := weekStart
	if sprint == "next" {
		from = weekStart.AddDate(0, 0, 14)
	}
	return from, from.AddDate(0, 0, 14), true
}

func (s *ChartService) taskDue(task models.Task) time.Time {
	if task.DueDate != nil {
		return *task.DueDate
	}
	return s.now()
}

// taskProgress maps task status onto a deterministic progress value.
func taskProgress(status models.TaskStatus) int {
	switch status {
	case models.TaskDone:
		return 100
	case models.TaskInProgress:
		return 50
	default:
		return 0
	}
}

func phaseProgress(tasks []models.Task) int {
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for _, task := range tasks {
		if task.Status == models.TaskDone {
			done++
		}
	}
	return done * 100 / len(tasks)
}
