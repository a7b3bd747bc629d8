package services

import (
	"errors"
	"testing"
	"time"

	"github.com/projectnav/navigator/internal/models"
	"github.com/projectnav/navigator/pkg/response"
)

func TestCreateProject_Defaults(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db)

	view, err := svc.Create(1, &CreateProjectRequest{Name: "Launch", Description: "Q3 launch"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if view.CurrentPhase != models.PhasePlanning {
		t.Errorf("currentPhase = %q, expected Planning", view.CurrentPhase)
	}
	if view.Status != models.StatusOnTrack {
		t.Errorf("status = %q, expected On Track", view.Status)
	}
	if len(view.PhaseDetails) != 4 {
		t.Fatalf("expected 4 phase details, got %d", len(view.PhaseDetails))
	}
	for _, phase := range models.CanonicalPhases() {
		detail, ok := view.PhaseDetails[phase]
		if !ok {
			t.Fatalf("missing phase detail for %s", phase)
		}
		if detail.Completed {
			t.Errorf("%s should start incomplete", phase)
		}
		if phase == models.PhasePlanning && detail.StartDate == nil {
			t.Error("Planning should start with a start date")
		}
		if phase != models.PhasePlanning && detail.StartDate != nil {
			t.Errorf("%s should not have a start date yet", phase)
		}
	}
	if len(view.Tasks) != 0 {
		t.Errorf("new project should have no tasks, got %d", len(view.Tasks))
	}
}

func TestOwnershipIsolation(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db)
	view := createTestProject(t, db, 1, "Private")

	assertNotFound := func(t *testing.T, err error) {
		t.Helper()
		if err == nil {
			t.Fatal("expected not-found error, got nil")
		}
		var appErr *response.AppError
		if !errors.As(err, &appErr) || appErr.HTTPStatus != 404 {
			t.Fatalf("expected 404 AppError, got %v", err)
		}
	}

	_, err := svc.Get(2, view.ID)
	assertNotFound(t, err)

	_, err = svc.Update(2, view.ID, &UpdateProjectRequest{Name: "Hijacked"})
	assertNotFound(t, err)

	err = svc.Delete(2, view.ID)
	assertNotFound(t, err)

	_, err = svc.AddTask(2, view.ID, &TaskRequest{Title: "Sneak"})
	assertNotFound(t, err)

	// The owner still sees the project untouched.
	got, err := svc.Get(1, view.ID)
	if err != nil {
		t.Fatalf("owner Get() error = %v", err)
	}
	if got.Name != "Private" {
		t.Errorf("name = %q, expected Private", got.Name)
	}
}

func TestListScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db)
	createTestProject(t, db, 1, "Mine A")
	createTestProject(t, db, 1, "Mine B")
	createTestProject(t, db, 2, "Theirs")

	views, err := svc.List(1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(views))
	}
	if views[0].Name != "Mine A" || views[1].Name != "Mine B" {
		t.Errorf("expected creation order, got %q then %q", views[0].Name, views[1].Name)
	}
}

func TestUpdateProject_FieldMerge(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db)
	view := createTestProject(t, db, 1, "Before")

	desc := "after description"
	got, err := svc.Update(1, view.ID, &UpdateProjectRequest{
		Name:        "After",
		Description: &desc,
		Status:      "At Risk",
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if got.Name != "After" {
		t.Errorf("name = %q, expected After", got.Name)
	}
	if got.Description != desc {
		t.Errorf("description = %q, expected %q", got.Description, desc)
	}
	if got.Status != models.StatusAtRisk {
		t.Errorf("status = %q, expected At Risk", got.Status)
	}
	if got.CurrentPhase != models.PhasePlanning {
		t.Errorf("untouched currentPhase = %q, expected Planning", got.CurrentPhase)
	}
}

func TestUpdateProject_TasksReplaceSequence(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db)
	view := createTestProject(t, db, 1, "Tasks")

	if _, err := svc.AddTask(1, view.ID, &TaskRequest{Title: "Old task"}); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}

	got, err := svc.Update(1, view.ID, &UpdateProjectRequest{
		Tasks: []TaskRequest{
			{Title: "New one", Status: "In Progress", Phase: "Execution"},
			{Name: "New two"},
		},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if len(got.Tasks) != 2 {
		t.Fatalf("expected the task sequence to be replaced, got %d tasks", len(got.Tasks))
	}
	if got.Tasks[0].Title != "New one" || got.Tasks[0].Status != models.TaskInProgress {
		t.Errorf("first task = %q [%s]", got.Tasks[0].Title, got.Tasks[0].Status)
	}
	if got.Tasks[0].Phase != models.PhaseExecution {
		t.Errorf("first task phase = %q, expected Execution", got.Tasks[0].Phase)
	}
	if got.Tasks[1].Title != "New two" {
		t.Errorf("second task title = %q, expected the name alias to apply", got.Tasks[1].Title)
	}
	if got.Tasks[1].Phase != models.PhasePlanning {
		t.Errorf("second task phase = %q, expected the current phase default", got.Tasks[1].Phase)
	}
}

func TestUpdateProject_UntitledTaskDefaults(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db)
	view := createTestProject(t, db, 1, "Untitled")

	got, err := svc.Update(1, view.ID, &UpdateProjectRequest{
		Tasks: []TaskRequest{{Description: "no title"}, {Title: "   "}, {Title: "Real"}},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if len(got.Tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(got.Tasks))
	}
	if got.Tasks[0].Title != "Untitled Task 1" {
		t.Errorf("first title = %q, expected Untitled Task 1", got.Tasks[0].Title)
	}
	if got.Tasks[1].Title != "Untitled Task 2" {
		t.Errorf("second title = %q, expected Untitled Task 2", got.Tasks[1].Title)
	}
	if got.Tasks[2].Title != "Real" {
		t.Errorf("third title = %q, expected Real", got.Tasks[2].Title)
	}
}

func TestDeleteProject_Cascades(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db)
	view := createTestProject(t, db, 1, "Doomed")

	if _, err := svc.AddTask(1, view.ID, &TaskRequest{Title: "Task"}); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	db.Create(&models.Document{ProjectID: view.ID, Name: "charter.pdf", Phase: models.PhasePlanning})
	db.Create(&models.ChatMessage{OwnerID: 1, ProjectID: view.ID, Message: "hello", IsUser: true})

	if err := svc.Delete(1, view.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	for name, model := range map[string]interface{}{
		"projects":      &models.Project{},
		"tasks":         &models.Task{},
		"documents":     &models.Document{},
		"phase details": &models.PhaseDetail{},
		"chat messages": &models.ChatMessage{},
	} {
		var count int64
		db.Model(model).Count(&count)
		if count != 0 {
			t.Errorf("%s remaining after delete: %d", name, count)
		}
	}
}

func TestAddTaskRoundTrip(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db)
	view := createTestProject(t, db, 1, "Round trip")

	task, err := svc.AddTask(1, view.ID, &TaskRequest{
		Title:        "Write charter",
		Description:  "First draft",
		Status:       "In Progress",
		DueDate:      "2025-07-01",
		AssignedTo:   "dana",
		WorkEstimate: 6,
		Phase:        "Execution",
	})
	if err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}

	got, err := svc.Get(1, view.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.Tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(got.Tasks))
	}

	stored := got.Tasks[0]
	if stored.ID != task.ID {
		t.Errorf("stored id = %d, expected %d", stored.ID, task.ID)
	}
	if stored.Title != "Write charter" || stored.Description != "First draft" {
		t.Errorf("unexpected stored task %+v", stored)
	}
	if stored.Status != models.TaskInProgress || stored.Phase != models.PhaseExecution {
		t.Errorf("status/phase = %s/%s", stored.Status, stored.Phase)
	}
	if stored.AssignedTo != "dana" || stored.WorkEstimate != 6 {
		t.Errorf("assignedTo/workEstimate = %q/%v", stored.AssignedTo, stored.WorkEstimate)
	}
	if stored.DueDate == nil || !stored.DueDate.Equal(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("dueDate = %v, expected 2025-07-01", stored.DueDate)
	}
}

func TestEnsurePhaseDetails_LazyCreation(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db)
	view := createTestProject(t, db, 1, "Sparse")

	// Simulate a row created before one of the phases existed.
	db.Where("project_id = ? AND phase = ?", view.ID, models.PhaseClosure).Delete(&models.PhaseDetail{})

	got, err := svc.Get(1, view.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	detail, ok := got.PhaseDetails[models.PhaseClosure]
	if !ok || detail == nil {
		t.Fatal("Closure detail should be recreated on read")
	}
	if detail.Completed || detail.StartDate != nil {
		t.Errorf("recreated detail should be blank, got %+v", detail)
	}
}

func TestParseDueDate(t *testing.T) {
	tests := []struct {
		input string
		want  *time.Time
	}{
		{"", nil},
		{"not-a-date", nil},
		{"2025-13-40", nil},
		{"2025-06-10", timePtr(time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))},
		{"2025-06-10T15:04:05Z", timePtr(time.Date(2025, 6, 10, 15, 4, 5, 0, time.UTC))},
	}
	for _, tt := range tests {
		got := ParseDueDate(tt.input)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("ParseDueDate(%q) = %v, expected nil", tt.input, got)
		case tt.want != nil && (got == nil || !got.Equal(*tt.want)):
			t.Errorf("ParseDueDate(%q) = %v, expected %v", tt.input, got, tt.want)
		}
	}
}

func timePtr(t time.Time) *time.Time { return &t }
