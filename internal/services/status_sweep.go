package services

import (
	"time"

	"github.com/projectnav/navigator/internal/models"
	"github.com/projectnav/navigator/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// StatusSweeper periodically recomputes each project's status from its
// tasks. Completed projects are left alone.
type StatusSweeper struct {
	db        *gorm.DB
	scheduler *cron.Cron
	now       func() time.Time
}

func NewStatusSweeper(db *gorm.DB) *StatusSweeper {
	return &StatusSweeper{db: db, now: time.Now}
}

// Start schedules the sweep with the given cron spec (e.g. "@hourly").
func (s *StatusSweeper) Start(spec string) error {
	s.scheduler = cron.New()
	if _, err := s.scheduler.AddFunc(spec, func() {
		if err := s.SweepAll(); err != nil {
			logger.Error().Err(err).Msg("status sweep failed")
		}
	}); err != nil {
		return err
	}
	s.scheduler.Start()
	logger.Info().Str("spec", spec).Msg("status sweep scheduler started")
	return nil
}

// Stop halts the scheduler.
func (s *StatusSweeper) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// SweepAll recomputes the status of every non-completed project.
func (s *StatusSweeper) SweepAll() error {
	var projects []models.Project
	if err := s.db.
		Preload("Tasks").
		Where("status <> ?", models.StatusCompleted).
		Find(&projects).Error; err != nil {
		return err
	}

	for i := range projects {
		project := &projects[i]
		status := s.Classify(project.Tasks)
		if status == project.Status {
			continue
		}
		if err := s.db.Model(project).Update("status", status).Error; err != nil {
			return err
		}
		logger.Info().
			Uint("project_id", project.ID).
			Str("status", string(status)).
			Msg("project status updated by sweep")
	}
	return nil
}

// Classify derives a project status from its task list: everything done is
// Completed; half or more of the dated tasks overdue is Off Track; any
// overdue task is At Risk; otherwise On Track. Projects without tasks stay
// On Track.
func (s *StatusSweeper) Classify(tasks []models.Task) models.ProjectStatus {
	if len(tasks) == 0 {
		return models.StatusOnTrack
	}

	now := s.now()
	done := 0
	dated := 0
	overdue := 0
	for _, task := range tasks {
		if task.Status == models.TaskDone {
			done++
			continue
		}
		if task.DueDate == nil {
			continue
		}
		dated++
		if task.DueDate.Before(now) {
			overdue++
		}
	}

	switch {
	case done == len(tasks):
		return models.StatusCompleted
	case dated > 0 && overdue*2 >= dated:
		return models.StatusOffTrack
	case overdue > 0:
		return models.StatusAtRisk
	default:
		return models.StatusOnTrack
	}
}
