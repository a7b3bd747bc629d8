package services

import (
	"time"

	"github.com/projectnav/navigator/internal/metrics"
	"github.com/projectnav/navigator/internal/models"
	"github.com/projectnav/navigator/pkg/logger"
	"github.com/projectnav/navigator/pkg/response"
	"gorm.io/gorm"
)

// PhaseService is the project lifecycle state machine:
// Planning → Execution → Monitoring → Closure.
type PhaseService struct {
	db *gorm.DB
}

func NewPhaseService(db *gorm.DB) *PhaseService {
	return &PhaseService{db: db}
}

// Transition moves the project to newPhase in a single transaction: the
// current phase's detail block is marked completed, the new phase's start
// date is set, and currentPhase is updated. An unrecognized phase label is
// silently ignored rather than rejected.
func (s *PhaseService) Transition(project *models.Project, newPhase string) error {
	if !models.ValidPhase(newPhase) {
		logger.Warn().
			Uint("project_id", project.ID).
			Str("phase", newPhase).
			Msg("ignoring transition to unknown phase")
		return nil
	}

	target := models.Phase(newPhase)
	now := time.Now()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PhaseDetail{}).
			Where("project_id = ? AND phase = ?", project.ID, project.CurrentPhase).
			Update("completed", true).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.PhaseDetail{}).
			Where("project_id = ? AND phase = ?", project.ID, target).
			Update("start_date", now).Error; err != nil {
			return err
		}

		return tx.Model(&models.Project{}).
			Where("id = ?", project.ID).
			Update("current_phase", target).Error
	})
	if err != nil {
		return response.NewInternalError(err)
	}

	project.CurrentPhase = target
	metrics.PhaseTransitions.Inc()

	logger.Info().
		Uint("project_id", project.ID).
		Str("phase", newPhase).
		Msg("phase transition applied")
	return nil
}
