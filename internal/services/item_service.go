package services

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/events"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/models"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/schema"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/types"
	"gorm.io/gorm"
)

// ItemService is the single entry point for item mutation. Every write is
// validated against the board's current schema, persisted, and then
// published on the event bus. Events go out only after the write committed;
// with Async unset the originating call returns after all subscribers ran.
type ItemService struct {
	DB    *gorm.DB
	Bus   *events.Dispatcher
	Async bool
}

// CreateItem validates data against the board schema and persists a new
// item. Required columns must carry a non-empty valid value. Keys that do
// not map to a current column pass through unvalidated (schema drift is
// tolerated, not repaired).
func (s *ItemService) CreateItem(boardID string, data map[string]interface{}) (*models.Item, error) {
	return s.createItem(boardID, data, false)
}

func (s *ItemService) createItem(boardID string, data map[string]interface{}, system bool) (*models.Item, error) {
	columns, err := s.boardColumns(boardID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]interface{}{}
	}

	for i := range columns {
		col := &columns[i]
		if !col.IsRequired {
			continue
		}
		value, ok := data[col.ColumnID]
		if !ok || isEmptyFieldValue(value) {
			return nil, types.NewColumnError(types.KindMissingRequiredField, col.ColumnID,
				"column %q is required", col.Name)
		}
	}

	normalized := make(map[string]interface{}, len(data))
	byID := columnsByID(columns)
	for key, value := range data {
		col, known := byID[key]
		if !known {
			normalized[key] = value
			continue
		}
		v, err := schema.ValidateValue(col, value)
		if err != nil {
			return nil, err
		}
		normalized[key] = v
	}

	item := &models.Item{
		ItemID:  uuid.NewString(),
		BoardID: boardID,
		Data:    models.NewJSON(normalized),
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var maxPos *int
		row := tx.Model(&models.Item{}).Where("board_id = ?", boardID).
			Select("MAX(position)").Row()
		if err := row.Scan(&maxPos); err == nil && maxPos != nil {
			item.Position = *maxPos + 1
		}
		return tx.Create(item).Error
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.Event{
		Kind:    events.RecordCreated,
		BoardID: boardID,
		ItemID:  item.ItemID,
		After:   normalized,
		System:  system,
	})
	return item, nil
}

// GetItem loads one item.
func (s *ItemService) GetItem(itemID string) (*models.Item, error) {
	var item models.Item
	err := s.DB.Where("item_id = ?", itemID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewEngineError(types.KindNotFound, "item %s not found", itemID)
		}
		return nil, err
	}
	return &item, nil
}

// ListItems returns a board's items in position order.
func (s *ItemService) ListItems(boardID string) ([]models.Item, error) {
	if _, err := s.boardColumns(boardID); err != nil {
		return nil, err
	}
	var items []models.Item
	err := s.DB.Where("board_id = ?", boardID).Order("position ASC").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateItem merges partial over the item's data and persists the result.
// Only the keys present in partial are re-validated; untouched fields are
// not, so a rule tightened after creation does not invalidate old data. A
// nil value clears the key (rejected for required columns). One
// record_updated event and one field_changed event per changed column are
// published after the write.
func (s *ItemService) UpdateItem(itemID string, partial map[string]interface{}) (*models.Item, error) {
	return s.updateItem(itemID, partial, false)
}

func (s *ItemService) updateItem(itemID string, partial map[string]interface{}, system bool) (*models.Item, error) {
	item, err := s.GetItem(itemID)
	if err != nil {
		return nil, err
	}
	columns, err := s.boardColumns(item.BoardID)
	if err != nil {
		return nil, err
	}
	byID := columnsByID(columns)

	before := item.Data.Map()
	after := make(map[string]interface{}, len(before)+len(partial))
	for k, v := range before {
		after[k] = v
	}

	var changed []string
	for key, value := range partial {
		col, known := byID[key]

		if value == nil {
			if known && col.IsRequired {
				return nil, types.NewColumnError(types.KindMissingRequiredField, key,
					"column %q is required", col.Name)
			}
			if _, had := after[key]; had {
				delete(after, key)
				changed = append(changed, key)
			}
			continue
		}

		normalized := value
		if known {
			normalized, err = schema.ValidateValue(col, value)
			if err != nil {
				return nil, err
			}
		}
		if prev, had := after[key]; !had || !sameFieldValue(prev, normalized) {
			changed = append(changed, key)
		}
		after[key] = normalized
	}

	if len(changed) == 0 {
		return item, nil
	}

	item.Data = models.NewJSON(after)
	if err := s.DB.Model(item).Update("data", item.Data).Error; err != nil {
		return nil, err
	}

	s.publish(events.Event{
		Kind:    events.RecordUpdated,
		BoardID: item.BoardID,
		ItemID:  item.ItemID,
		Before:  before,
		After:   after,
		System:  system,
	})
	for _, columnID := range changed {
		s.publish(events.Event{
			Kind:     events.FieldChanged,
			BoardID:  item.BoardID,
			ItemID:   item.ItemID,
			ColumnID: columnID,
			Before:   before,
			After:    after,
			System:   system,
		})
	}
	return item, nil
}

// DeleteItem removes the item and every link row referencing it on either
// side, in one transaction.
func (s *ItemService) DeleteItem(itemID string) error {
	item, err := s.GetItem(itemID)
	if err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("source_item_id = ? OR target_item_id = ?", itemID, itemID).
			Delete(&models.ItemRelationship{}).Error; err != nil {
			return err
		}
		return tx.Delete(item).Error
	})
}

func (s *ItemService) publish(evt events.Event) {
	if s.Bus == nil {
		return
	}
	if s.Async {
		s.Bus.PublishAsync(evt)
		return
	}
	s.Bus.Publish(evt)
}

func (s *ItemService) boardColumns(boardID string) ([]models.Column, error) {
	var count int64
	if err := s.DB.Model(&models.Board{}).Where("board_id = ?", boardID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, types.NewEngineError(types.KindUnknownBoard, "board %s not found", boardID)
	}
	var cols []models.Column
	if err := s.DB.Where("board_id = ?", boardID).Order("position ASC").Find(&cols).Error; err != nil {
		return nil, err
	}
	return cols, nil
}

func columnsByID(columns []models.Column) map[string]*models.Column {
	byID := make(map[string]*models.Column, len(columns))
	for i := range columns {
		byID[columns[i].ColumnID] = &columns[i]
	}
	return byID
}

// isEmptyFieldValue treats "", empty lists, and nil as absent for the
// required-column check.
func isEmptyFieldValue(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []interface{}:
		return len(v) == 0
	case []string:
		return len(v) == 0
	}
	return false
}

// sameFieldValue compares two field values after JSON-shaped normalization.
func sameFieldValue(a, b interface{}) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	// Numeric values may arrive as int on one side and float64 from a JSON
	// round trip on the other.
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}
