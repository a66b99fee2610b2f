package services_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nivcomp/attentive-customer-compass-sub000/internal/events"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/models"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/notify"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/services"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/types"
	"gorm.io/gorm"
)

// stubCollaborator records task and notification payloads, optionally
// failing.
type stubCollaborator struct {
	mu            sync.Mutex
	tasks         []notify.TaskPayload
	notifications []notify.NotificationPayload
	fail          bool
}

func (s *stubCollaborator) CreateTask(payload notify.TaskPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return fmt.Errorf("task service unavailable")
	}
	s.tasks = append(s.tasks, payload)
	return nil
}

func (s *stubCollaborator) SendNotification(payload notify.NotificationPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return fmt.Errorf("notify service unavailable")
	}
	s.notifications = append(s.notifications, payload)
	return nil
}

// engineFixture wires a full synchronous pipeline: item service publishing
// to a dispatcher the engine subscribes to.
func engineFixture(t *testing.T) (*gorm.DB, *services.ItemService, *services.AutomationEngine, *stubCollaborator) {
	t.Helper()
	db := setupTestDB(t)
	bus := events.NewDispatcher()
	items := &services.ItemService{DB: db, Bus: bus}
	rels := &services.RelationshipService{DB: db}
	collab := &stubCollaborator{}
	engine := &services.AutomationEngine{
		DB:            db,
		Items:         items,
		Relationships: rels,
		Tasks:         collab,
		Notifier:      collab,
	}
	bus.Subscribe(engine)
	return db, items, engine, collab
}

func countLogs(t *testing.T, db *gorm.DB, automationID string) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.AutomationLog{}).Where("automation_id = ?", automationID).Count(&count).Error; err != nil {
		t.Fatalf("count logs: %v", err)
	}
	return count
}

// TestAutomationInputValidation covers the trigger/action shape checks.
func TestAutomationInputValidation(t *testing.T) {
	db, _, engine, _ := engineFixture(t)
	board, _ := makeBoard(t, db, "Deals")

	tests := []struct {
		name  string
		input services.AutomationInput
	}{
		{"missing name", services.AutomationInput{TriggerType: "record_created", ActionType: "create_task"}},
		{"unknown trigger", services.AutomationInput{Name: "x", TriggerType: "on_delete", ActionType: "create_task"}},
		{"unknown action", services.AutomationInput{Name: "x", TriggerType: "record_created", ActionType: "email"}},
		{"field_changed without column", services.AutomationInput{Name: "x", TriggerType: "field_changed", ActionType: "create_task"}},
		{"date_reached without column", services.AutomationInput{Name: "x", TriggerType: "date_reached", ActionType: "create_task"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := engine.CreateAutomation(board.BoardID, tt.input); !types.IsKind(err, types.KindInvalidSchema) {
				t.Fatalf("invalid input accepted: %v", err)
			}
		})
	}

	if _, err := engine.CreateAutomation("missing-board", services.AutomationInput{
		Name: "x", TriggerType: "record_created", ActionType: "create_task",
	}); !types.IsKind(err, types.KindUnknownBoard) {
		t.Fatalf("automation on missing board accepted: %v", err)
	}
}

// TestFieldChangedUpdatesField runs the classic pipeline: a status flip
// fires an automation that stamps another column, writes a success log, and
// does not re-trigger automations off its own write.
func TestFieldChangedUpdatesField(t *testing.T) {
	db, items, engine, _ := engineFixture(t)
	board, cols := makeBoard(t, db, "Deals",
		services.ColumnInput{Name: "Stage", ColumnType: "single_select", Options: []string{"new", "won"}},
		services.ColumnInput{Name: "Closed At", ColumnType: "text"},
	)
	stageID := cols["Stage"].ColumnID
	closedID := cols["Closed At"].ColumnID

	stamper, err := engine.CreateAutomation(board.BoardID, services.AutomationInput{
		Name:          "stamp close",
		TriggerType:   models.TriggerFieldChanged,
		TriggerConfig: map[string]interface{}{"column_id": stageID},
		ConditionConfig: map[string]interface{}{
			"column_id": stageID, "comparison": "equals", "value": "won",
		},
		ActionType:   models.ActionUpdateField,
		ActionConfig: map[string]interface{}{"column_id": closedID, "value": "{{now}}"},
	})
	if err != nil {
		t.Fatalf("CreateAutomation failed: %v", err)
	}

	// A second automation watching the stamped column must not fire off the
	// system write.
	watcher, err := engine.CreateAutomation(board.BoardID, services.AutomationInput{
		Name:          "watch close",
		TriggerType:   models.TriggerFieldChanged,
		TriggerConfig: map[string]interface{}{"column_id": closedID},
		ActionType:    models.ActionCreateTask,
		ActionConfig:  map[string]interface{}{"title": "closed"},
	})
	if err != nil {
		t.Fatalf("CreateAutomation failed: %v", err)
	}

	item, err := items.CreateItem(board.BoardID, map[string]interface{}{stageID: "new"})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if _, err := items.UpdateItem(item.ItemID, map[string]interface{}{stageID: "won"}); err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}

	got, err := items.GetItem(item.ItemID)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	stamped, _ := got.Data.Map()[closedID].(string)
	if stamped == "" {
		t.Fatal("automation did not stamp the close column")
	}
	if _, err := time.Parse(time.RFC3339, stamped); err != nil {
		t.Fatalf("{{now}} not expanded to a timestamp: %q", stamped)
	}

	if n := countLogs(t, db, stamper.AutomationID); n != 1 {
		t.Fatalf("expected 1 success log, got %d", n)
	}
	if n := countLogs(t, db, watcher.AutomationID); n != 0 {
		t.Fatalf("automation cascaded: watcher has %d logs", n)
	}

	var logRow models.AutomationLog
	if err := db.Where("automation_id = ?", stamper.AutomationID).First(&logRow).Error; err != nil {
		t.Fatalf("load log: %v", err)
	}
	if logRow.Status != models.LogStatusSuccess || logRow.TriggeredByID != item.ItemID {
		t.Fatalf("unexpected log row: %+v", logRow)
	}
}

// TestConditionFalseWritesNoLog verifies a matched automation whose
// condition evaluates false leaves no trace.
func TestConditionFalseWritesNoLog(t *testing.T) {
	db, items, engine, _ := engineFixture(t)
	board, cols := makeBoard(t, db, "Deals",
		services.ColumnInput{Name: "Amount", ColumnType: "number"},
	)
	amountID := cols["Amount"].ColumnID

	automation, err := engine.CreateAutomation(board.BoardID, services.AutomationInput{
		Name:        "big deals",
		TriggerType: models.TriggerRecordCreated,
		ConditionConfig: map[string]interface{}{
			"column_id": amountID, "comparison": "greater_than", "value": 1000,
		},
		ActionType:   models.ActionCreateTask,
		ActionConfig: map[string]interface{}{"title": "review {{item." + amountID + "}}"},
	})
	if err != nil {
		t.Fatalf("CreateAutomation failed: %v", err)
	}

	if _, err := items.CreateItem(board.BoardID, map[string]interface{}{amountID: 50}); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if n := countLogs(t, db, automation.AutomationID); n != 0 {
		t.Fatalf("condition-false run logged: %d rows", n)
	}

	if _, err := items.CreateItem(board.BoardID, map[string]interface{}{amountID: 5000}); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if n := countLogs(t, db, automation.AutomationID); n != 1 {
		t.Fatalf("condition-true run not logged: %d rows", n)
	}
}

// TestActionFailureIsLoggedAndIsolated verifies a failing collaborator
// yields a failure log without failing the originating mutation.
func TestActionFailureIsLoggedAndIsolated(t *testing.T) {
	db, items, engine, collab := engineFixture(t)
	collab.fail = true
	board, cols := makeBoard(t, db, "Deals",
		services.ColumnInput{Name: "Name", ColumnType: "text"},
	)

	automation, err := engine.CreateAutomation(board.BoardID, services.AutomationInput{
		Name:         "notify",
		TriggerType:  models.TriggerRecordCreated,
		ActionType:   models.ActionSendNotification,
		ActionConfig: map[string]interface{}{"message": "new deal {{item." + cols["Name"].ColumnID + "}}"},
	})
	if err != nil {
		t.Fatalf("CreateAutomation failed: %v", err)
	}

	// The create itself succeeds even though the action fails.
	if _, err := items.CreateItem(board.BoardID, map[string]interface{}{cols["Name"].ColumnID: "Acme"}); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	var logRow models.AutomationLog
	if err := db.Where("automation_id = ?", automation.AutomationID).First(&logRow).Error; err != nil {
		t.Fatalf("load log: %v", err)
	}
	if logRow.Status != models.LogStatusFailure || logRow.ErrorMessage == "" {
		t.Fatalf("expected failure log with message, got %+v", logRow)
	}
}

// TestCreateRecordAction verifies the cross-board create with field mapping
// and defaults, and that the created record does not re-trigger.
func TestCreateRecordAction(t *testing.T) {
	db, items, engine, _ := engineFixture(t)
	deals, dealCols := makeBoard(t, db, "Deals",
		services.ColumnInput{Name: "Name", ColumnType: "text"},
	)
	tasks, taskCols := makeBoard(t, db, "Tasks",
		services.ColumnInput{Name: "Title", ColumnType: "text"},
		services.ColumnInput{Name: "Kind", ColumnType: "text"},
	)

	// An automation on the target board that would fire on organic creates.
	echo, err := engine.CreateAutomation(tasks.BoardID, services.AutomationInput{
		Name:         "echo",
		TriggerType:  models.TriggerRecordCreated,
		ActionType:   models.ActionCreateTask,
		ActionConfig: map[string]interface{}{"title": "echo"},
	})
	if err != nil {
		t.Fatalf("CreateAutomation failed: %v", err)
	}

	if _, err := engine.CreateAutomation(deals.BoardID, services.AutomationInput{
		Name:        "spawn follow-up",
		TriggerType: models.TriggerRecordCreated,
		ActionType:  models.ActionCreateRecord,
		ActionConfig: map[string]interface{}{
			"target_board_id": tasks.BoardID,
			"field_mapping":   map[string]interface{}{dealCols["Name"].ColumnID: taskCols["Title"].ColumnID},
			"defaults":        map[string]interface{}{taskCols["Kind"].ColumnID: "follow-up"},
		},
	}); err != nil {
		t.Fatalf("CreateAutomation failed: %v", err)
	}

	if _, err := items.CreateItem(deals.BoardID, map[string]interface{}{dealCols["Name"].ColumnID: "Acme renewal"}); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	created, err := items.ListItems(tasks.BoardID)
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected 1 spawned item, got %d", len(created))
	}
	data := created[0].Data.Map()
	if data[taskCols["Title"].ColumnID] != "Acme renewal" {
		t.Fatalf("field mapping not applied: %#v", data)
	}
	if data[taskCols["Kind"].ColumnID] != "follow-up" {
		t.Fatalf("defaults not applied: %#v", data)
	}

	// The spawned record was a system write; the target-board automation
	// stays quiet.
	if n := countLogs(t, db, echo.AutomationID); n != 0 {
		t.Fatalf("system create re-triggered automations: %d logs", n)
	}
}

// TestRunDateScan verifies the sweep fires once per (automation, item)
// crossing, honors offset_days, and skips already-succeeded pairs on
// re-scan.
func TestRunDateScan(t *testing.T) {
	db, items, engine, collab := engineFixture(t)
	board, cols := makeBoard(t, db, "Renewals",
		services.ColumnInput{Name: "Renews On", ColumnType: "date"},
	)
	dateID := cols["Renews On"].ColumnID

	automation, err := engine.CreateAutomation(board.BoardID, services.AutomationInput{
		Name:        "renewal warning",
		TriggerType: models.TriggerDateReached,
		TriggerConfig: map[string]interface{}{
			"date_column_id": dateID,
			"offset_days":    -7,
		},
		ActionType:   models.ActionCreateTask,
		ActionConfig: map[string]interface{}{"title": "renew soon"},
	})
	if err != nil {
		t.Fatalf("CreateAutomation failed: %v", err)
	}

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	if _, err := items.CreateItem(board.BoardID, map[string]interface{}{dateID: "2026-09-01"}); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if _, err := items.CreateItem(board.BoardID, map[string]interface{}{dateID: "2026-12-25"}); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if _, err := items.CreateItem(board.BoardID, nil); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	fired, err := engine.RunDateScan(now)
	if err != nil {
		t.Fatalf("RunDateScan failed: %v", err)
	}
	// Only the 2026-09-01 item crossed now-7d; the December one and the
	// dateless one did not.
	if fired != 1 {
		t.Fatalf("expected 1 firing, got %d", fired)
	}
	if len(collab.tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(collab.tasks))
	}
	if n := countLogs(t, db, automation.AutomationID); n != 1 {
		t.Fatalf("expected 1 log, got %d", n)
	}

	// Scanning again fires nothing for the already-succeeded pair.
	fired, err = engine.RunDateScan(now.Add(24 * time.Hour))
	if err != nil {
		t.Fatalf("RunDateScan failed: %v", err)
	}
	if fired != 0 {
		t.Fatalf("re-scan re-fired %d times", fired)
	}
}

// TestUpdateAutomationTogglesActive verifies a deactivated rule stops
// firing.
func TestUpdateAutomationTogglesActive(t *testing.T) {
	db, items, engine, _ := engineFixture(t)
	board, cols := makeBoard(t, db, "Deals",
		services.ColumnInput{Name: "Name", ColumnType: "text"},
	)

	automation, err := engine.CreateAutomation(board.BoardID, services.AutomationInput{
		Name:         "on create",
		TriggerType:  models.TriggerRecordCreated,
		ActionType:   models.ActionCreateTask,
		ActionConfig: map[string]interface{}{"title": "new"},
	})
	if err != nil {
		t.Fatalf("CreateAutomation failed: %v", err)
	}

	if _, err := engine.UpdateAutomation(automation.AutomationID, services.AutomationInput{
		IsActive: boolPtr(false),
	}); err != nil {
		t.Fatalf("UpdateAutomation failed: %v", err)
	}

	if _, err := items.CreateItem(board.BoardID, map[string]interface{}{cols["Name"].ColumnID: "Acme"}); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if n := countLogs(t, db, automation.AutomationID); n != 0 {
		t.Fatalf("inactive automation fired: %d logs", n)
	}
}

// TestUpdateAutomationRejectsCorruptTriggerConfig verifies a rule whose
// stored trigger_config no longer parses cannot be re-saved untouched.
func TestUpdateAutomationRejectsCorruptTriggerConfig(t *testing.T) {
	db, _, engine, _ := engineFixture(t)
	board, _ := makeBoard(t, db, "Deals",
		services.ColumnInput{Name: "Name", ColumnType: "text"},
	)

	automation, err := engine.CreateAutomation(board.BoardID, services.AutomationInput{
		Name:         "on create",
		TriggerType:  models.TriggerRecordCreated,
		ActionType:   models.ActionCreateTask,
		ActionConfig: map[string]interface{}{"title": "new"},
	})
	if err != nil {
		t.Fatalf("CreateAutomation failed: %v", err)
	}

	if err := db.Model(&models.Automation{}).
		Where("automation_id = ?", automation.AutomationID).
		Update("trigger_config", "{not json").Error; err != nil {
		t.Fatalf("corrupting trigger_config failed: %v", err)
	}

	if _, err := engine.UpdateAutomation(automation.AutomationID, services.AutomationInput{
		Description: "renamed",
	}); !types.IsKind(err, types.KindInvalidSchema) {
		t.Fatalf("corrupt trigger_config accepted: %v", err)
	}
}

// TestDeleteAutomationRemovesLogs verifies log rows go with the rule.
func TestDeleteAutomationRemovesLogs(t *testing.T) {
	db, items, engine, _ := engineFixture(t)
	board, cols := makeBoard(t, db, "Deals",
		services.ColumnInput{Name: "Name", ColumnType: "text"},
	)

	automation, err := engine.CreateAutomation(board.BoardID, services.AutomationInput{
		Name:         "on create",
		TriggerType:  models.TriggerRecordCreated,
		ActionType:   models.ActionCreateTask,
		ActionConfig: map[string]interface{}{"title": "new"},
	})
	if err != nil {
		t.Fatalf("CreateAutomation failed: %v", err)
	}
	if _, err := items.CreateItem(board.BoardID, map[string]interface{}{cols["Name"].ColumnID: "Acme"}); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if n := countLogs(t, db, automation.AutomationID); n != 1 {
		t.Fatalf("expected 1 log, got %d", n)
	}

	if err := engine.DeleteAutomation(automation.AutomationID); err != nil {
		t.Fatalf("DeleteAutomation failed: %v", err)
	}
	if n := countLogs(t, db, automation.AutomationID); n != 0 {
		t.Fatalf("logs survived automation deletion: %d", n)
	}
	if _, err := engine.ListLogs(automation.AutomationID); !types.IsKind(err, types.KindNotFound) {
		t.Fatalf("logs of deleted automation still list: %v", err)
	}
}
