package services

import (
	"testing"

	"github.com/projectnav/navigator/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.PhaseDetail{},
		&models.Task{},
		&models.Document{},
		&models.ChatMessage{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// createTestProject makes a project for ownerID with default phase details.
func createTestProject(t *testing.T, db *gorm.DB, ownerID uint, name string) *ProjectView {
	t.Helper()

	view, err := NewProjectService(db).Create(ownerID, &CreateProjectRequest{Name: name})
	if err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}
	return view
}
