package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/nivcomp/attentive-customer-compass-sub000/internal/events"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/models"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/notify"
)

// actionConfig is the decoded shape of Automation.ActionConfig. Which
// fields matter depends on the action type.
type actionConfig struct {
	// update_field
	ColumnID string      `json:"column_id,omitempty"`
	Value    interface{} `json:"value,omitempty"`

	// create_record
	TargetBoardID string                 `json:"target_board_id,omitempty"`
	FieldMapping  map[string]string      `json:"field_mapping,omitempty"`
	Defaults      map[string]interface{} `json:"defaults,omitempty"`

	// create_task
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"due_date,omitempty"`

	// send_notification
	Channel   string `json:"channel,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Message   string `json:"message,omitempty"`
}

// executeAction dispatches one action for a matched, condition-true
// automation. Mutations go back through the item service flagged
// system-originated so they cannot re-trigger automations. Collaborator
// errors come back as action failures; the caller logs them.
func (e *AutomationEngine) executeAction(automation *models.Automation, evt events.Event) error {
	var cfg actionConfig
	if err := automation.ActionConfig.Decode(&cfg); err != nil {
		return fmt.Errorf("action_config is not valid: %w", err)
	}

	switch automation.ActionType {
	case models.ActionUpdateField:
		return e.actionUpdateField(&cfg, evt)
	case models.ActionCreateRecord:
		return e.actionCreateRecord(&cfg, evt)
	case models.ActionCreateTask:
		return e.actionCreateTask(&cfg, evt)
	case models.ActionSendNotification:
		return e.actionSendNotification(&cfg, evt)
	}
	return fmt.Errorf("unknown action type %q", automation.ActionType)
}

func (e *AutomationEngine) actionUpdateField(cfg *actionConfig, evt events.Event) error {
	if cfg.ColumnID == "" {
		return fmt.Errorf("update_field requires action_config.column_id")
	}
	value := cfg.Value
	if s, ok := value.(string); ok {
		value = expandTemplate(s, evt)
	}
	_, err := e.Items.updateItem(evt.ItemID, map[string]interface{}{cfg.ColumnID: value}, true)
	return err
}

func (e *AutomationEngine) actionCreateRecord(cfg *actionConfig, evt events.Event) error {
	boardID := cfg.TargetBoardID
	if boardID == "" {
		boardID = evt.BoardID
	}
	data := make(map[string]interface{}, len(cfg.FieldMapping)+len(cfg.Defaults))
	for dstColumn, value := range cfg.Defaults {
		if s, ok := value.(string); ok {
			data[dstColumn] = expandTemplate(s, evt)
			continue
		}
		data[dstColumn] = value
	}
	for srcColumn, dstColumn := range cfg.FieldMapping {
		if v, ok := evt.After[srcColumn]; ok {
			data[dstColumn] = v
		}
	}
	_, err := e.Items.createItem(boardID, data, true)
	return err
}

func (e *AutomationEngine) actionCreateTask(cfg *actionConfig, evt events.Event) error {
	if e.Tasks == nil {
		return fmt.Errorf("no task collaborator configured")
	}
	return e.Tasks.CreateTask(notify.TaskPayload{
		Title:       expandTemplate(cfg.Title, evt),
		Description: expandTemplate(cfg.Description, evt),
		DueDate:     expandTemplate(cfg.DueDate, evt),
		BoardID:     evt.BoardID,
		ItemID:      evt.ItemID,
	})
}

func (e *AutomationEngine) actionSendNotification(cfg *actionConfig, evt events.Event) error {
	if e.Notifier == nil {
		return fmt.Errorf("no notification collaborator configured")
	}
	return e.Notifier.SendNotification(notify.NotificationPayload{
		Channel:   cfg.Channel,
		Recipient: cfg.Recipient,
		Message:   expandTemplate(cfg.Message, evt),
		BoardID:   evt.BoardID,
		ItemID:    evt.ItemID,
	})
}

// expandTemplate substitutes {{now}} with the current UTC time and
// {{item.<column_id>}} with the triggering item's post-event field value.
func expandTemplate(s string, evt events.Event) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	out := strings.ReplaceAll(s, "{{now}}", time.Now().UTC().Format(time.RFC3339))
	for {
		start := strings.Index(out, "{{item.")
		if start < 0 {
			break
		}
		end := strings.Index(out[start:], "}}")
		if end < 0 {
			break
		}
		end += start
		columnID := out[start+len("{{item.") : end]
		value := ""
		if v, ok := evt.After[columnID]; ok && v != nil {
			value = fmt.Sprintf("%v", v)
		}
		out = out[:start] + value + out[end+2:]
	}
	return out
}
