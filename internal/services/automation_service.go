package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/events"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/models"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/notify"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/types"
	"gorm.io/gorm"
	"gorm.io/hints"
)

// AutomationEngine matches item lifecycle events against a board's active
// automations, evaluates conditions, executes actions, and logs every
// attempted execution. It subscribes to the event dispatcher; mutations it
// performs itself are flagged system-originated and skipped on re-entry, so
// automations never cascade.
type AutomationEngine struct {
	DB            *gorm.DB
	Items         *ItemService
	Relationships *RelationshipService
	Tasks         notify.TaskCreator
	Notifier      notify.NotificationSender
}

// AutomationInput is the request shape for creating or updating an
// automation.
type AutomationInput struct {
	Name            string                 `json:"name"`
	Description     string                 `json:"description,omitempty"`
	TriggerType     string                 `json:"trigger_type"`
	TriggerConfig   map[string]interface{} `json:"trigger_config,omitempty"`
	ConditionConfig map[string]interface{} `json:"condition_config,omitempty"`
	ActionType      string                 `json:"action_type"`
	ActionConfig    map[string]interface{} `json:"action_config,omitempty"`
	IsActive        *bool                  `json:"is_active,omitempty"`
}

// triggerConfig is the decoded shape of Automation.TriggerConfig.
type triggerConfig struct {
	ColumnID     string `json:"column_id,omitempty"`      // field_changed
	DateColumnID string `json:"date_column_id,omitempty"` // date_reached
	OffsetDays   int    `json:"offset_days,omitempty"`    // date_reached, may be negative
}

// CreateAutomation validates and persists a rule on a board.
func (e *AutomationEngine) CreateAutomation(boardID string, input AutomationInput) (*models.Automation, error) {
	var count int64
	if err := e.DB.Model(&models.Board{}).Where("board_id = ?", boardID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, types.NewEngineError(types.KindUnknownBoard, "board %s not found", boardID)
	}
	if err := validateAutomationInput(&input); err != nil {
		return nil, err
	}

	automation := &models.Automation{
		AutomationID: uuid.NewString(),
		BoardID:      boardID,
		Name:         input.Name,
		Description:  input.Description,
		TriggerType:  input.TriggerType,
		ActionType:   input.ActionType,
		IsActive:     true,
	}
	if input.IsActive != nil {
		automation.IsActive = *input.IsActive
	}
	if len(input.TriggerConfig) > 0 {
		automation.TriggerConfig = models.NewJSON(input.TriggerConfig)
	}
	if len(input.ConditionConfig) > 0 {
		automation.ConditionConfig = models.NewJSON(input.ConditionConfig)
	}
	if len(input.ActionConfig) > 0 {
		automation.ActionConfig = models.NewJSON(input.ActionConfig)
	}
	if err := e.DB.Create(automation).Error; err != nil {
		return nil, err
	}
	return automation, nil
}

// GetAutomation loads one automation.
func (e *AutomationEngine) GetAutomation(automationID string) (*models.Automation, error) {
	var automation models.Automation
	err := e.DB.Where("automation_id = ?", automationID).First(&automation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewEngineError(types.KindNotFound, "automation %s not found", automationID)
		}
		return nil, err
	}
	return &automation, nil
}

// ListAutomations returns all of a board's automations, active or not.
func (e *AutomationEngine) ListAutomations(boardID string) ([]models.Automation, error) {
	var automations []models.Automation
	err := e.DB.Where("board_id = ?", boardID).Order("created_at ASC").Find(&automations).Error
	if err != nil {
		return nil, err
	}
	return automations, nil
}

// UpdateAutomation patches a rule. Empty strings / nil maps leave the
// corresponding field untouched.
func (e *AutomationEngine) UpdateAutomation(automationID string, input AutomationInput) (*models.Automation, error) {
	automation, err := e.GetAutomation(automationID)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		automation.Name = input.Name
	}
	if input.Description != "" {
		automation.Description = input.Description
	}
	if input.TriggerType != "" {
		automation.TriggerType = input.TriggerType
	}
	if input.ActionType != "" {
		automation.ActionType = input.ActionType
	}
	if input.TriggerConfig != nil {
		automation.TriggerConfig = models.NewJSON(input.TriggerConfig)
	}
	if input.ConditionConfig != nil {
		automation.ConditionConfig = models.NewJSON(input.ConditionConfig)
	}
	if input.ActionConfig != nil {
		automation.ActionConfig = models.NewJSON(input.ActionConfig)
	}
	if input.IsActive != nil {
		automation.IsActive = *input.IsActive
	}

	check := AutomationInput{
		Name:        automation.Name,
		TriggerType: automation.TriggerType,
		ActionType:  automation.ActionType,
	}
	if err := automation.TriggerConfig.Decode(&check.TriggerConfig); err != nil {
		return nil, types.NewEngineError(types.KindInvalidSchema,
			"stored trigger_config is not valid JSON: %v", err)
	}
	if err := validateAutomationInput(&check); err != nil {
		return nil, err
	}

	if err := e.DB.Save(automation).Error; err != nil {
		return nil, err
	}
	return automation, nil
}

// DeleteAutomation removes a rule and its execution logs.
func (e *AutomationEngine) DeleteAutomation(automationID string) error {
	automation, err := e.GetAutomation(automationID)
	if err != nil {
		return err
	}
	return e.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("automation_id = ?", automationID).
			Delete(&models.AutomationLog{}).Error; err != nil {
			return err
		}
		return tx.Delete(automation).Error
	})
}

// ListLogs returns an automation's execution history, newest first.
func (e *AutomationEngine) ListLogs(automationID string) ([]models.AutomationLog, error) {
	if _, err := e.GetAutomation(automationID); err != nil {
		return nil, err
	}
	query := e.DB.Where("automation_id = ?", automationID)
	if e.DB.Dialector.Name() == "mysql" {
		query = query.Clauses(hints.UseIndex("idx_automation_logs_automation"))
	}
	var logs []models.AutomationLog
	if err := query.Order("executed_at DESC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// HandleEvent implements events.Handler. System-originated events (caused
// by automation actions) are dropped here, bounding action recursion to a
// single level. One automation failing never blocks its siblings and never
// surfaces to the mutation that published the event.
func (e *AutomationEngine) HandleEvent(evt events.Event) error {
	if evt.System {
		return nil
	}

	var automations []models.Automation
	err := e.DB.Where("board_id = ? AND trigger_type = ? AND is_active = ?",
		evt.BoardID, string(evt.Kind), true).
		Order("created_at ASC").Find(&automations).Error
	if err != nil {
		return fmt.Errorf("loading automations for board %s: %w", evt.BoardID, err)
	}

	for i := range automations {
		e.runAutomation(&automations[i], evt)
	}
	return nil
}

// runAutomation takes one matched automation through condition evaluation,
// action execution, and logging. Condition-false matches write no log row;
// every attempted execution writes exactly one.
func (e *AutomationEngine) runAutomation(automation *models.Automation, evt events.Event) {
	if automation.TriggerType == models.TriggerFieldChanged {
		var tc triggerConfig
		if err := automation.TriggerConfig.Decode(&tc); err != nil || tc.ColumnID != evt.ColumnID {
			return
		}
	}

	ok, err := e.evaluateCondition(automation.ConditionConfig, evt.After)
	if err != nil {
		// A malformed condition is an execution failure worth a log row, not
		// a silent skip.
		e.writeLog(automation, evt, fmt.Errorf("condition: %w", err))
		return
	}
	if !ok {
		return
	}

	e.writeLog(automation, evt, e.executeAction(automation, evt))
}

func (e *AutomationEngine) writeLog(automation *models.Automation, evt events.Event, actionErr error) {
	logRow := models.AutomationLog{
		LogID:           uuid.NewString(),
		AutomationID:    automation.AutomationID,
		TriggeredByType: string(evt.Kind),
		TriggeredByID:   evt.ItemID,
		Status:          models.LogStatusSuccess,
		ExecutedAt:      time.Now().UTC(),
	}
	if actionErr != nil {
		logRow.Status = models.LogStatusFailure
		logRow.ErrorMessage = actionErr.Error()
	}
	if err := e.DB.Create(&logRow).Error; err != nil {
		log.Printf("failed to write automation log for %s: %v", automation.AutomationID, err)
	}
}

// RunDateScan is the entry point for the external scheduler: it walks every
// active date_reached automation, finds items whose configured date column
// crossed the offset relative to now, and runs the pipeline with a
// synthesized date_reached event. A (automation, item) pair that already has
// a success log is skipped, so repeated scans fire once per crossing.
// Returns the number of executions attempted.
func (e *AutomationEngine) RunDateScan(now time.Time) (int, error) {
	var automations []models.Automation
	err := e.DB.Where("trigger_type = ? AND is_active = ?", models.TriggerDateReached, true).
		Find(&automations).Error
	if err != nil {
		return 0, err
	}

	fired := 0
	for i := range automations {
		automation := &automations[i]
		var tc triggerConfig
		if err := automation.TriggerConfig.Decode(&tc); err != nil || tc.DateColumnID == "" {
			continue
		}

		var items []models.Item
		if err := e.DB.Where("board_id = ?", automation.BoardID).Find(&items).Error; err != nil {
			return fired, err
		}
		for j := range items {
			item := &items[j]
			data := item.Data.Map()
			due, ok := parseDateValue(data[tc.DateColumnID])
			if !ok {
				continue
			}
			if now.Before(due.AddDate(0, 0, tc.OffsetDays)) {
				continue
			}

			var count int64
			if err := e.DB.Model(&models.AutomationLog{}).
				Where("automation_id = ? AND triggered_by_id = ? AND triggered_by_type = ? AND status = ?",
					automation.AutomationID, item.ItemID, models.TriggerDateReached, models.LogStatusSuccess).
				Count(&count).Error; err != nil {
				return fired, err
			}
			if count > 0 {
				continue
			}

			evt := events.Event{
				Kind:       events.DateReached,
				BoardID:    automation.BoardID,
				ItemID:     item.ItemID,
				ColumnID:   tc.DateColumnID,
				After:      data,
				OccurredAt: now,
			}
			e.runAutomation(automation, evt)
			fired++
		}
	}
	return fired, nil
}

func validateAutomationInput(input *AutomationInput) error {
	if input.Name == "" {
		return types.NewEngineError(types.KindInvalidSchema, "automation name is required")
	}
	switch input.TriggerType {
	case models.TriggerRecordCreated, models.TriggerRecordUpdated:
	case models.TriggerFieldChanged:
		if input.TriggerConfig["column_id"] == nil || input.TriggerConfig["column_id"] == "" {
			return types.NewEngineError(types.KindInvalidSchema,
				"field_changed trigger requires trigger_config.column_id")
		}
	case models.TriggerDateReached:
		if input.TriggerConfig["date_column_id"] == nil || input.TriggerConfig["date_column_id"] == "" {
			return types.NewEngineError(types.KindInvalidSchema,
				"date_reached trigger requires trigger_config.date_column_id")
		}
	default:
		return types.NewEngineError(types.KindInvalidSchema,
			"unknown trigger type %q", input.TriggerType)
	}
	switch input.ActionType {
	case models.ActionUpdateField, models.ActionCreateRecord,
		models.ActionCreateTask, models.ActionSendNotification:
	default:
		return types.NewEngineError(types.KindInvalidSchema,
			"unknown action type %q", input.ActionType)
	}
	return nil
}

func parseDateValue(value interface{}) (time.Time, bool) {
	s, ok := value.(string)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
