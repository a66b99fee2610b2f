package models

import (
	"time"
)

// Automation trigger type values.
const (
	TriggerRecordCreated = "record_created"
	TriggerRecordUpdated = "record_updated"
	TriggerFieldChanged  = "field_changed"
	TriggerDateReached   = "date_reached"
)

// Automation action type values.
const (
	ActionUpdateField      = "update_field"
	ActionCreateRecord     = "create_record"
	ActionCreateTask       = "create_task"
	ActionSendNotification = "send_notification"
)

// Automation log status values.
const (
	LogStatusSuccess = "success"
	LogStatusFailure = "failure"
)

// Automation is a reactive rule scoped to one board: a trigger, an optional
// condition tree over item field values, and one action. Inactive
// automations are retained but never matched.
type Automation struct {
	AutomationID    string    `gorm:"type:char(36);primaryKey" json:"automation_id"`
	BoardID         string    `gorm:"type:char(36);not null;index" json:"board_id"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	Description     string    `gorm:"size:1024" json:"description"`
	TriggerType     string    `gorm:"size:32;not null" json:"trigger_type"`
	TriggerConfig   JSON      `json:"trigger_config,omitempty"`
	ConditionConfig JSON      `json:"condition_config,omitempty"`
	ActionType      string    `gorm:"size:32;not null" json:"action_type"`
	ActionConfig    JSON      `json:"action_config,omitempty"`
	IsActive        bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AutomationLog is an immutable execution record, one row per attempted
// action execution. Never updated after creation.
type AutomationLog struct {
	LogID           string    `gorm:"type:char(36);primaryKey" json:"log_id"`
	AutomationID    string    `gorm:"type:char(36);not null;index:idx_automation_logs_automation" json:"automation_id"`
	TriggeredByType string    `gorm:"size:32;not null" json:"triggered_by_type"`
	TriggeredByID   string    `gorm:"type:char(36);not null;index" json:"triggered_by_id"`
	Status          string    `gorm:"size:16;not null" json:"status"`
	ErrorMessage    string    `gorm:"size:1024" json:"error_message,omitempty"`
	ExecutedAt      time.Time `gorm:"not null" json:"executed_at"`
}

// TableName overrides the table name for Automation
func (Automation) TableName() string {
	return "board_automations"
}

// TableName overrides the table name for AutomationLog
func (AutomationLog) TableName() string {
	return "automation_logs"
}
