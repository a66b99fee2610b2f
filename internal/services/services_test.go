package services_test

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/models"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/services"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Board{},
		&models.Column{},
		&models.Item{},
		&models.Relationship{},
		&models.ItemRelationship{},
		&models.Automation{},
		&models.AutomationLog{},
		&models.BoardViewPreference{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

// makeBoard creates a board with the given columns and returns the board and
// the created columns keyed by name.
func makeBoard(t *testing.T, db *gorm.DB, name string, columns ...services.ColumnInput) (*models.Board, map[string]*models.Column) {
	t.Helper()
	boards := &services.BoardService{DB: db}
	board, err := boards.CreateBoard(name, "")
	if err != nil {
		t.Fatalf("Failed to create board %s: %v", name, err)
	}
	byName := make(map[string]*models.Column, len(columns))
	for _, input := range columns {
		col, err := boards.AddColumn(board.BoardID, input)
		if err != nil {
			t.Fatalf("Failed to add column %s: %v", input.Name, err)
		}
		byName[input.Name] = col
	}
	return board, byName
}
