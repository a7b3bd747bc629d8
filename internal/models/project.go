package models

import "time"

// Phase is one of the four fixed project lifecycle stages.
type Phase string

const (
	PhasePlanning   Phase = "Planning"
	PhaseExecution  Phase = "Execution"
	PhaseMonitoring Phase = "Monitoring"
	PhaseClosure    Phase = "Closure"
)

// CanonicalPhases returns the phases in lifecycle order.
func CanonicalPhases() []Phase {
	return []Phase{PhasePlanning, PhaseExecution, PhaseMonitoring, PhaseClosure}
}

// ValidPhase reports whether s is one of the four canonical phase labels.
func ValidPhase(s string) bool {
	switch Phase(s) {
	case PhasePlanning, PhaseExecution, PhaseMonitoring, PhaseClosure:
		return true
	}
	return false
}

// ProjectStatus is the coarse health indicator of a project.
type ProjectStatus string

const (
	StatusOnTrack   ProjectStatus = "On Track"
	StatusAtRisk    ProjectStatus = "At Risk"
	StatusOffTrack  ProjectStatus = "Off Track"
	StatusCompleted ProjectStatus = "Completed"
)

// TaskStatus is the completion state of a single task.
type TaskStatus string

const (
	TaskToDo       TaskStatus = "To Do"
	TaskInProgress TaskStatus = "In Progress"
	TaskDone       TaskStatus = "Done"
)

// Project is the unit of ownership and contention. Every read and write is
// scoped by OwnerID; cross-owner access behaves as if the project does not
// exist.
type Project struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	OwnerID      uint          `gorm:"index;not null" json:"-"`
	Name         string        `gorm:"size:200;not null" json:"name"`
	Description  string        `gorm:"type:text" json:"description"`
	CurrentPhase Phase         `gorm:"size:20;not null;default:Planning" json:"currentPhase"`
	Status       ProjectStatus `gorm:"size:20;not null;default:'On Track'" json:"status"`
	PhaseDetails []PhaseDetail `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Tasks        []Task        `gorm:"constraint:OnDelete:CASCADE" json:"tasks"`
	Documents    []Document    `gorm:"constraint:OnDelete:CASCADE" json:"documents"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"-"`
}

func (Project) TableName() string { return "projects" }

// PhaseDetail is the per-phase bookkeeping block. Each project holds exactly
// one row per canonical phase, created lazily on first read.
type PhaseDetail struct {
	ID        uint       `gorm:"primaryKey" json:"-"`
	ProjectID uint       `gorm:"uniqueIndex:idx_project_phase;not null" json:"-"`
	Phase     Phase      `gorm:"uniqueIndex:idx_project_phase;size:20;not null" json:"phase"`
	Completed bool       `gorm:"default:false" json:"completed"`
	StartDate *time.Time `json:"startDate"`
	Notes     string     `gorm:"type:text" json:"notes"`
}

func (PhaseDetail) TableName() string { return "phase_details" }

// Task belongs to a project and a phase. Tasks are only removed by whole
// project deletion or by overwriting the task sequence in a project update;
// there is no single-task delete path.
type Task struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ProjectID    uint       `gorm:"index;not null" json:"-"`
	Title        string     `gorm:"size:200;not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	Status       TaskStatus `gorm:"size:20;not null;default:'To Do'" json:"status"`
	DueDate      *time.Time `json:"dueDate"`
	AssignedTo   string     `gorm:"size:100" json:"assignedTo"`
	WorkEstimate float64    `json:"workEstimate"` // hours
	Phase        Phase      `gorm:"size:20;not null" json:"phase"`
	CreatedAt    time.Time  `json:"-"`
}

func (Task) TableName() string { return "tasks" }

// Document is an ingested artifact (PDF excerpt) attached to a project phase.
type Document struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"index;not null" json:"-"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Phase     Phase     `gorm:"size:20;not null" json:"phase"`
	Excerpt   string    `gorm:"type:text" json:"excerpt"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Document) TableName() string { return "documents" }
