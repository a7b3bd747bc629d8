package services

import (
	"testing"

	"github.com/projectnav/navigator/internal/models"
)

func TestTransition_Valid(t *testing.T) {
	db := newTestDB(t)
	view := createTestProject(t, db, 1, "Lifecycle")

	var project models.Project
	db.Preload("PhaseDetails").First(&project, view.ID)

	svc := NewPhaseService(db)
	if err := svc.Transition(&project, "Execution"); err != nil {
		t.Fatalf("Transition() error = %v", err)
	}

	var updated models.Project
	db.Preload("PhaseDetails").First(&updated, view.ID)

	if updated.CurrentPhase != models.PhaseExecution {
		t.Errorf("currentPhase = %q, expected Execution", updated.CurrentPhase)
	}

	completed := 0
	for _, d := range updated.PhaseDetails {
		switch d.Phase {
		case models.PhasePlanning:
			if !d.Completed {
				t.Error("Planning detail should be marked completed")
			}
		case models.PhaseExecution:
			if d.StartDate == nil {
				t.Error("Execution detail should have a start date")
			}
			if d.Completed {
				t.Error("Execution detail should not be completed")
			}
		}
		if d.Completed {
			completed++
		}
	}
	if completed != 1 {
		t.Errorf("exactly one phase should be completed, got %d", completed)
	}
}

func TestTransition_UnknownLabelIsNoOp(t *testing.T) {
	db := newTestDB(t)
	view := createTestProject(t, db, 1, "Lifecycle")

	var project models.Project
	db.Preload("PhaseDetails").First(&project, view.ID)

	svc := NewPhaseService(db)
	if err := svc.Transition(&project, "Retrospective"); err != nil {
		t.Fatalf("unknown label must be a silent no-op, got error %v", err)
	}

	var updated models.Project
	db.Preload("PhaseDetails").First(&updated, view.ID)

	if updated.CurrentPhase != models.PhasePlanning {
		t.Errorf("currentPhase = %q, expected unchanged Planning", updated.CurrentPhase)
	}
	for _, d := range updated.PhaseDetails {
		if d.Completed {
			t.Errorf("no phase should be completed after a no-op, %s is", d.Phase)
		}
	}
}

func TestTransition_FullLifecycle(t *testing.T) {
	db := newTestDB(t)
	view := createTestProject(t, db, 1, "Lifecycle")

	var project models.Project
	db.Preload("PhaseDetails").First(&project, view.ID)

	svc := NewPhaseService(db)
	for _, phase := range []string{"Execution", "Monitoring", "Closure"} {
		if err := svc.Transition(&project, phase); err != nil {
			t.Fatalf("Transition(%s) error = %v", phase, err)
		}
	}

	var updated models.Project
	db.Preload("PhaseDetails").First(&updated, view.ID)

	if updated.CurrentPhase != models.PhaseClosure {
		t.Errorf("currentPhase = %q, expected Closure", updated.CurrentPhase)
	}
	for _, d := range updated.PhaseDetails {
		if d.Phase == models.PhaseClosure {
			if d.Completed {
				t.Error("Closure should not be completed")
			}
			continue
		}
		if !d.Completed {
			t.Errorf("%s should be completed after the full lifecycle", d.Phase)
		}
	}
}

func TestValidPhase(t *testing.T) {
	valid := []string{"Planning", "Execution", "Monitoring", "Closure"}
	for _, p := range valid {
		if !models.ValidPhase(p) {
			t.Errorf("ValidPhase(%q) = false, expected true", p)
		}
	}

	invalid := []string{"", "planning", "Done", "Closure "}
	for _, p := range invalid {
		if models.ValidPhase(p) {
			t.Errorf("ValidPhase(%q) = true, expected false", p)
		}
	}
}
