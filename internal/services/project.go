package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/projectnav/navigator/internal/metrics"
	"github.com/projectnav/navigator/internal/models"
	"github.com/projectnav/navigator/pkg/response"
	"gorm.io/gorm"
)

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Name         string        `json:"name"`
	Description  *string       `json:"description"`
	CurrentPhase string        `json:"currentPhase" binding:"omitempty,oneof=Planning Execution Monitoring Closure"`
	Status       string        `json:"status" binding:"omitempty,oneof='On Track' 'At Risk' 'Off Track' Completed"`
	Tasks        []TaskRequest `json:"tasks"` // non-nil replaces the whole task sequence
}

type TaskRequest struct {
	Title        string  `json:"title"`
	Name         string  `json:"name"` // legacy alias for title
	Description  string  `json:"description"`
	Status       string  `json:"status" binding:"omitempty,oneof='To Do' 'In Progress' Done"`
	DueDate      string  `json:"dueDate"`
	AssignedTo   string  `json:"assignedTo"`
	WorkEstimate float64 `json:"workEstimate"`
	Phase        string  `json:"phase" binding:"omitempty,oneof=Planning Execution Monitoring Closure"`
}

// ProjectView is the API shape of a project: phase details keyed by phase,
// tasks and documents in storage order.
type ProjectView struct {
	ID           uint                                 `json:"id"`
	Name         string                               `json:"name"`
	Description  string                               `json:"description"`
	CurrentPhase models.Phase                         `json:"currentPhase"`
	Status       models.ProjectStatus                 `json:"status"`
	PhaseDetails map[models.Phase]*models.PhaseDetail `json:"phaseDetails"`
	Tasks        []models.Task                        `json:"tasks"`
	Documents    []models.Document                    `json:"documents"`
	CreatedAt    time.Time                            `json:"createdAt"`
}

// Create makes a new project owned by ownerID, starting in Planning with a
// full set of phase detail blocks.
func (s *ProjectService) Create(ownerID uint, req *CreateProjectRequest) (*ProjectView, error) {
	now := time.Now()
	project := models.Project{
		OwnerID:      ownerID,
		Name:         req.Name,
		Description:  req.Description,
		CurrentPhase: models.PhasePlanning,
		Status:       models.StatusOnTrack,
	}
	for _, phase := range models.CanonicalPhases() {
		detail := models.PhaseDetail{Phase: phase}
		if phase == models.PhasePlanning {
			detail.StartDate = &now
		}
		project.PhaseDetails = append(project.PhaseDetails, detail)
	}

	if err := s.db.Create(&project).Error; err != nil {
		return nil, response.NewInternalError(err)
	}

	return s.toView(&project), nil
}

// List returns all projects owned by ownerID, oldest first.
func (s *ProjectService) List(ownerID uint) ([]*ProjectView, error) {
	var projects []models.Project
	if err := s.db.
		Preload("PhaseDetails").
		Preload("Tasks", func(db *gorm.DB) *gorm.DB { return db.Order("tasks.id ASC") }).
		Preload("Documents").
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Find(&projects).Error; err != nil {
		return nil, response.NewInternalError(err)
	}

	views := make([]*ProjectView, 0, len(projects))
	for i := range projects {
		views = append(views, s.toView(&projects[i]))
	}
	return views, nil
}

// Get returns a single owned project. Projects owned by other users look
// exactly like missing ones.
func (s *ProjectService) Get(ownerID, projectID uint) (*ProjectView, error) {
	project, err := s.GetOwned(ownerID, projectID)
	if err != nil {
		return nil, err
	}
	return s.toView(project), nil
}

// GetOwned loads a project with its associations, scoped to the owner.
func (s *ProjectService) GetOwned(ownerID, projectID uint) (*models.Project, error) {
	var project models.Project
	err := s.db.
		Preload("PhaseDetails").
		Preload("Tasks", func(db *gorm.DB) *gorm.DB { return db.Order("tasks.id ASC") }).
		Preload("Documents").
		Where("id = ? AND owner_id = ?", projectID, ownerID).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, response.NewInternalError(err)
	}

	if err := s.ensurePhaseDetails(&project); err != nil {
		return nil, err
	}
	return &project, nil
}

// Update merges the provided fields into the project. A non-nil Tasks slice
// replaces the whole task sequence; this is the only way to remove tasks
// short of deleting the project.
func (s *ProjectService) Update(ownerID, projectID uint, req *UpdateProjectRequest) (*ProjectView, error) {
	project, err := s.GetOwned(ownerID, projectID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.CurrentPhase != "" {
		updates["current_phase"] = req.CurrentPhase
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(project).Updates(updates).Error; err != nil {
				return err
			}
		}

		if req.Tasks != nil {
			if err := tx.Where("project_id = ?", project.ID).Delete(&models.Task{}).Error; err != nil {
				return err
			}
			tasks := buildTasks(project, req.Tasks)
			if len(tasks) > 0 {
				if err := tx.Create(&tasks).Error; err != nil {
					return err
				}
				metrics.TasksAdded.WithLabelValues("update").Add(float64(len(tasks)))
			}
		}
		return nil
	})
	if err != nil {
		return nil, response.NewInternalError(err)
	}

	return s.Get(ownerID, projectID)
}

// Delete removes the project and cascades to its tasks, documents, phase
// details and chat transcript.
func (s *ProjectService) Delete(ownerID, projectID uint) error {
	project, err := s.GetOwned(ownerID, projectID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Document{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.PhaseDetail{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Delete(project).Error
	})
	if err != nil {
		return response.NewInternalError(err)
	}
	return nil
}

// AddTask appends a single task via the direct API path.
func (s *ProjectService) AddTask(ownerID, projectID uint, req *TaskRequest) (*models.Task, error) {
	project, err := s.GetOwned(ownerID, projectID)
	if err != nil {
		return nil, err
	}

	tasks := buildTasks(project, []TaskRequest{*req})
	if err := s.db.Create(&tasks).Error; err != nil {
		return nil, response.NewInternalError(err)
	}
	metrics.TasksAdded.WithLabelValues("api").Inc()
	return &tasks[0], nil
}

// AppendTasks bulk-appends already-normalized tasks in one create. Used by
// the chat orchestrator.
func (s *ProjectService) AppendTasks(projectID uint, tasks []models.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	for i := range tasks {
		tasks[i].ID = 0
		tasks[i].ProjectID = projectID
	}
	if err := s.db.Create(&tasks).Error; err != nil {
		return response.NewInternalError(err)
	}
	metrics.TasksAdded.WithLabelValues("chat").Add(float64(len(tasks)))
	return nil
}

// ensurePhaseDetails lazily creates the missing per-phase blocks so that a
// project always exposes exactly one entry per canonical phase.
func (s *ProjectService) ensurePhaseDetails(project *models.Project) error {
	existing := make(map[models.Phase]bool, len(project.PhaseDetails))
	for _, d := range project.PhaseDetails {
		existing[d.Phase] = true
	}

	var missing []models.PhaseDetail
	for _, phase := range models.CanonicalPhases() {
		if !existing[phase] {
			missing = append(missing, models.PhaseDetail{ProjectID: project.ID, Phase: phase})
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if err := s.db.Create(&missing).Error; err != nil {
		return response.NewInternalError(err)
	}
	project.PhaseDetails = append(project.PhaseDetails, missing...)
	return nil
}

func (s *ProjectService) toView(project *models.Project) *ProjectView {
	details := make(map[models.Phase]*models.PhaseDetail, len(project.PhaseDetails))
	for i := range project.PhaseDetails {
		d := &project.PhaseDetails[i]
		details[d.Phase] = d
	}

	tasks := project.Tasks
	if tasks == nil {
		tasks = []models.Task{}
	}
	documents := project.Documents
	if documents == nil {
		documents = []models.Document{}
	}

	return &ProjectView{
		ID:           project.ID,
		Name:         project.Name,
		Description:  project.Description,
		CurrentPhase: project.CurrentPhase,
		Status:       project.Status,
		PhaseDetails: details,
		Tasks:        tasks,
		Documents:    documents,
		CreatedAt:    project.CreatedAt,
	}
}

// buildTasks converts task requests into rows, defaulting phase to the
// project's current phase and guaranteeing non-empty titles.
func buildTasks(project *models.Project, reqs []TaskRequest) []models.Task {
	tasks := make([]models.Task, 0, len(reqs))
	untitled := 0
	for _, r := range reqs {
		title := firstNonEmpty(strings.TrimSpace(r.Title), strings.TrimSpace(r.Name))
		if title == "" {
			untitled++
			title = fmt.Sprintf("Untitled Task %d", untitled)
		}

		status := models.TaskToDo
		if r.Status != "" {
			status = models.TaskStatus(r.Status)
		}

		phase := project.CurrentPhase
		if models.ValidPhase(r.Phase) {
			phase = models.Phase(r.Phase)
		}

		tasks = append(tasks, models.Task{
			ProjectID:    project.ID,
			Title:        title,
			Description:  r.Description,
			Status:       status,
			DueDate:      ParseDueDate(r.DueDate),
			AssignedTo:   r.AssignedTo,
			WorkEstimate: r.WorkEstimate,
			Phase:        phase,
		})
	}
	return tasks
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ParseDueDate accepts the date formats seen in client payloads and LLM
// output. Returns nil for anything unparseable.
func ParseDueDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
