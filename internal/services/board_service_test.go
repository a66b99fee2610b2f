package services_test

import (
	"testing"

	"github.com/nivcomp/attentive-customer-compass-sub000/internal/models"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/services"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/types"
)

// TestAddColumnPositions verifies columns append at the end of the board
// when no position is given.
func TestAddColumnPositions(t *testing.T) {
	db := setupTestDB(t)
	boards := &services.BoardService{DB: db}

	board, _ := makeBoard(t, db, "Contacts",
		services.ColumnInput{Name: "Name", ColumnType: "text"},
		services.ColumnInput{Name: "Age", ColumnType: "number"},
	)

	cols, err := boards.ListColumns(board.BoardID)
	if err != nil {
		t.Fatalf("ListColumns failed: %v", err)
	}
	if len(cols) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(cols))
	}
	if cols[0].Name != "Name" || cols[1].Name != "Age" {
		t.Fatalf("columns out of order: %s, %s", cols[0].Name, cols[1].Name)
	}
	if cols[1].Position != cols[0].Position+1 {
		t.Fatalf("expected consecutive positions, got %d and %d", cols[0].Position, cols[1].Position)
	}
}

// TestAddColumnValidation verifies schema violations are rejected with the
// right kinds.
func TestAddColumnValidation(t *testing.T) {
	db := setupTestDB(t)
	boards := &services.BoardService{DB: db}
	board, _ := makeBoard(t, db, "Deals")

	_, err := boards.AddColumn(board.BoardID, services.ColumnInput{Name: "Stage", ColumnType: "dropdown"})
	if !types.IsKind(err, types.KindInvalidSchema) {
		t.Fatalf("unknown type accepted: %v", err)
	}

	_, err = boards.AddColumn(board.BoardID, services.ColumnInput{Name: "Stage", ColumnType: "status"})
	if !types.IsKind(err, types.KindInvalidSchema) {
		t.Fatalf("status without options accepted: %v", err)
	}

	_, err = boards.AddColumn(board.BoardID, services.ColumnInput{
		Name: "Owner", ColumnType: "board_link", LinkedBoardID: strPtr("missing-board"),
	})
	if !types.IsKind(err, types.KindInvalidSchema) {
		t.Fatalf("board_link to missing board accepted: %v", err)
	}

	_, err = boards.AddColumn("missing-board", services.ColumnInput{Name: "X", ColumnType: "text"})
	if !types.IsKind(err, types.KindUnknownBoard) {
		t.Fatalf("column on missing board accepted: %v", err)
	}
}

// TestUpdateColumnRevalidates verifies a patched definition is checked as a
// whole.
func TestUpdateColumnRevalidates(t *testing.T) {
	db := setupTestDB(t)
	boards := &services.BoardService{DB: db}
	board, cols := makeBoard(t, db, "Deals",
		services.ColumnInput{Name: "Stage", ColumnType: "single_select", Options: []string{"new", "won"}},
	)

	// Retyping to text while options remain is fine; options are ignored on
	// text. Retyping with a rule that does not apply is not.
	_, err := boards.UpdateColumn(board.BoardID, cols["Stage"].ColumnID, services.ColumnInput{
		ColumnType:      "single_select",
		ValidationRules: map[string]interface{}{"min": 1},
	})
	if !types.IsKind(err, types.KindInvalidSchema) {
		t.Fatalf("inapplicable rule accepted on update: %v", err)
	}

	got, err := boards.UpdateColumn(board.BoardID, cols["Stage"].ColumnID, services.ColumnInput{
		Name: "Pipeline Stage",
	})
	if err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if got.Name != "Pipeline Stage" {
		t.Fatalf("rename not applied: %s", got.Name)
	}
}

// TestDeleteColumnLeavesItemData verifies dropping a column keeps the
// orphaned keys in existing items.
func TestDeleteColumnLeavesItemData(t *testing.T) {
	db := setupTestDB(t)
	boards := &services.BoardService{DB: db}
	items := &services.ItemService{DB: db}
	board, cols := makeBoard(t, db, "Contacts",
		services.ColumnInput{Name: "Name", ColumnType: "text"},
		services.ColumnInput{Name: "Notes", ColumnType: "text"},
	)

	item, err := items.CreateItem(board.BoardID, map[string]interface{}{
		cols["Name"].ColumnID:  "Ada",
		cols["Notes"].ColumnID: "first contact",
	})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	if err := boards.DeleteColumn(board.BoardID, cols["Notes"].ColumnID); err != nil {
		t.Fatalf("DeleteColumn failed: %v", err)
	}

	got, err := items.GetItem(item.ItemID)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if got.Data.Map()[cols["Notes"].ColumnID] != "first contact" {
		t.Fatal("orphaned key dropped from item data")
	}
}

// TestDeleteBoardCascades verifies deleting a board removes its columns,
// items, automations with logs, link rows and relationship definitions on
// either side, while the other board's own rows survive.
func TestDeleteBoardCascades(t *testing.T) {
	db := setupTestDB(t)
	boards := &services.BoardService{DB: db}
	items := &services.ItemService{DB: db}
	rels := &services.RelationshipService{DB: db}
	engine := &services.AutomationEngine{DB: db, Items: items, Relationships: rels}
	prefs := &services.PreferenceService{DB: db}

	companies, compCols := makeBoard(t, db, "Companies",
		services.ColumnInput{Name: "Name", ColumnType: "text"},
	)
	contacts, contCols := makeBoard(t, db, "Contacts",
		services.ColumnInput{Name: "Name", ColumnType: "text"},
	)

	company, err := items.CreateItem(companies.BoardID, map[string]interface{}{compCols["Name"].ColumnID: "Acme"})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	contact, err := items.CreateItem(contacts.BoardID, map[string]interface{}{contCols["Name"].ColumnID: "Ada"})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	rel, err := rels.CreateRelationship(contacts.BoardID, companies.BoardID, models.RelationshipManyToMany, "Company", "Contacts")
	if err != nil {
		t.Fatalf("CreateRelationship failed: %v", err)
	}
	if _, err := rels.LinkItems(rel.RelationshipID, contact.ItemID, company.ItemID); err != nil {
		t.Fatalf("LinkItems failed: %v", err)
	}

	if _, err := engine.CreateAutomation(companies.BoardID, services.AutomationInput{
		Name:        "on create",
		TriggerType: models.TriggerRecordCreated,
		ActionType:  models.ActionUpdateField,
		ActionConfig: map[string]interface{}{
			"column_id": compCols["Name"].ColumnID,
			"value":     "touched",
		},
	}); err != nil {
		t.Fatalf("CreateAutomation failed: %v", err)
	}

	if _, err := prefs.SavePreference("user-1", companies.BoardID, map[string]interface{}{"view": "kanban"}); err != nil {
		t.Fatalf("SavePreference failed: %v", err)
	}

	if err := boards.DeleteBoard(companies.BoardID); err != nil {
		t.Fatalf("DeleteBoard failed: %v", err)
	}

	if _, err := boards.GetBoard(companies.BoardID); !types.IsKind(err, types.KindUnknownBoard) {
		t.Fatalf("deleted board still loads: %v", err)
	}
	for model, what := range map[interface{}]string{
		&models.Column{}:              "columns",
		&models.Item{}:                "items",
		&models.Automation{}:          "automations",
		&models.BoardViewPreference{}: "preferences",
	} {
		var count int64
		if err := db.Model(model).Where("board_id = ?", companies.BoardID).Count(&count).Error; err != nil {
			t.Fatalf("count %s: %v", what, err)
		}
		if count != 0 {
			t.Errorf("%d %s survived board deletion", count, what)
		}
	}
	var linkCount int64
	if err := db.Model(&models.ItemRelationship{}).Count(&linkCount).Error; err != nil {
		t.Fatalf("count links: %v", err)
	}
	if linkCount != 0 {
		t.Errorf("%d link rows survived board deletion", linkCount)
	}
	var relCount int64
	if err := db.Model(&models.Relationship{}).Count(&relCount).Error; err != nil {
		t.Fatalf("count relationships: %v", err)
	}
	if relCount != 0 {
		t.Errorf("%d relationship definitions survived board deletion", relCount)
	}

	// The other board and its item are untouched.
	if _, err := boards.GetBoard(contacts.BoardID); err != nil {
		t.Fatalf("surviving board lost: %v", err)
	}
	if _, err := items.GetItem(contact.ItemID); err != nil {
		t.Fatalf("surviving item lost: %v", err)
	}
}
