package services

import (
	"errors"

	"github.com/google/uuid"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/models"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/schema"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/types"
	"gorm.io/gorm"
)

// BoardService owns board and column (schema-authoring) operations.
type BoardService struct {
	DB *gorm.DB
}

// ColumnInput is the request shape for creating or updating a column.
type ColumnInput struct {
	Name            string                 `json:"name"`
	ColumnType      string                 `json:"column_type"`
	Position        *int                   `json:"position,omitempty"`
	IsRequired      *bool                  `json:"is_required,omitempty"`
	Options         []string               `json:"options,omitempty"`
	ValidationRules map[string]interface{} `json:"validation_rules,omitempty"`
	DisplaySettings map[string]interface{} `json:"display_settings,omitempty"`
	LinkedBoardID   *string                `json:"linked_board_id,omitempty"`
}

// CreateBoard creates an empty board.
func (s *BoardService) CreateBoard(name, description string) (*models.Board, error) {
	board := &models.Board{
		BoardID:     uuid.NewString(),
		Name:        name,
		Description: description,
	}
	if err := s.DB.Create(board).Error; err != nil {
		return nil, err
	}
	return board, nil
}

// GetBoard loads a board with its columns in position order.
func (s *BoardService) GetBoard(boardID string) (*models.Board, error) {
	var board models.Board
	err := s.DB.Preload("Columns", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("board_id = ?", boardID).First(&board).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewEngineError(types.KindUnknownBoard, "board %s not found", boardID)
		}
		return nil, err
	}
	return &board, nil
}

// ListBoards returns all boards without columns.
func (s *BoardService) ListBoards() ([]models.Board, error) {
	var boards []models.Board
	if err := s.DB.Order("created_at ASC").Find(&boards).Error; err != nil {
		return nil, err
	}
	return boards, nil
}

// UpdateBoard patches name/description. Nil fields are left untouched.
func (s *BoardService) UpdateBoard(boardID string, name, description *string) (*models.Board, error) {
	board, err := s.GetBoard(boardID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if name != nil {
		updates["name"] = *name
	}
	if description != nil {
		updates["description"] = *description
	}
	if len(updates) > 0 {
		if err := s.DB.Model(board).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return board, nil
}

// DeleteBoard removes a board and everything it owns: columns, items, link
// rows and relationship definitions touching the board (either side), and
// the board's automations with their logs. One transaction, all or nothing.
func (s *BoardService) DeleteBoard(boardID string) error {
	if _, err := s.GetBoard(boardID); err != nil {
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		var relationshipIDs []string
		if err := tx.Model(&models.Relationship{}).
			Where("source_board_id = ? OR target_board_id = ?", boardID, boardID).
			Pluck("relationship_id", &relationshipIDs).Error; err != nil {
			return err
		}

		if len(relationshipIDs) > 0 {
			if err := tx.Where("relationship_id IN ?", relationshipIDs).
				Delete(&models.ItemRelationship{}).Error; err != nil {
				return err
			}
			if err := tx.Where("relationship_id IN ?", relationshipIDs).
				Delete(&models.Relationship{}).Error; err != nil {
				return err
			}
		}

		// Items of this board may also be linked through relationships whose
		// boards survive (a self-link on another board cannot reach them, but
		// a link row referencing a deleted item must not remain).
		var itemIDs []string
		if err := tx.Model(&models.Item{}).Where("board_id = ?", boardID).
			Pluck("item_id", &itemIDs).Error; err != nil {
			return err
		}
		if len(itemIDs) > 0 {
			if err := tx.Where("source_item_id IN ? OR target_item_id IN ?", itemIDs, itemIDs).
				Delete(&models.ItemRelationship{}).Error; err != nil {
				return err
			}
		}

		var automationIDs []string
		if err := tx.Model(&models.Automation{}).Where("board_id = ?", boardID).
			Pluck("automation_id", &automationIDs).Error; err != nil {
			return err
		}
		if len(automationIDs) > 0 {
			if err := tx.Where("automation_id IN ?", automationIDs).
				Delete(&models.AutomationLog{}).Error; err != nil {
				return err
			}
			if err := tx.Where("automation_id IN ?", automationIDs).
				Delete(&models.Automation{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("board_id = ?", boardID).Delete(&models.Item{}).Error; err != nil {
			return err
		}
		if err := tx.Where("board_id = ?", boardID).Delete(&models.Column{}).Error; err != nil {
			return err
		}
		if err := tx.Where("board_id = ?", boardID).Delete(&models.BoardViewPreference{}).Error; err != nil {
			return err
		}
		return tx.Where("board_id = ?", boardID).Delete(&models.Board{}).Error
	})
}

// AddColumn appends a typed column to the board's schema. The definition is
// validated (capability matrix, options, rules) and, for board_link columns,
// the linked board must exist. Position defaults to the end of the board.
func (s *BoardService) AddColumn(boardID string, input ColumnInput) (*models.Column, error) {
	if _, err := s.GetBoard(boardID); err != nil {
		return nil, err
	}

	col := &models.Column{
		ColumnID:      uuid.NewString(),
		BoardID:       boardID,
		Name:          input.Name,
		ColumnType:    input.ColumnType,
		LinkedBoardID: input.LinkedBoardID,
	}
	if input.IsRequired != nil {
		col.IsRequired = *input.IsRequired
	}
	if len(input.Options) > 0 {
		col.Options = models.NewJSON(input.Options)
	}
	if len(input.ValidationRules) > 0 {
		col.ValidationRules = models.NewJSON(input.ValidationRules)
	}
	if len(input.DisplaySettings) > 0 {
		col.DisplaySettings = models.NewJSON(input.DisplaySettings)
	}

	if err := schema.ValidateColumnDefinition(col); err != nil {
		return nil, err
	}
	if col.LinkedBoardID != nil && *col.LinkedBoardID != "" {
		var count int64
		if err := s.DB.Model(&models.Board{}).
			Where("board_id = ?", *col.LinkedBoardID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, types.NewColumnError(types.KindInvalidSchema, col.ColumnID,
				"linked board %s does not exist", *col.LinkedBoardID)
		}
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if input.Position != nil {
			col.Position = *input.Position
		} else {
			var maxPos *int
			row := tx.Model(&models.Column{}).Where("board_id = ?", boardID).
				Select("MAX(position)").Row()
			if err := row.Scan(&maxPos); err == nil && maxPos != nil {
				col.Position = *maxPos + 1
			}
		}
		return tx.Create(col).Error
	})
	if err != nil {
		return nil, err
	}
	return col, nil
}

// UpdateColumn patches a column definition and re-validates the result.
// Retyping a column does not rewrite existing item data; items conform to
// the schema current at their own write time.
func (s *BoardService) UpdateColumn(boardID, columnID string, input ColumnInput) (*models.Column, error) {
	col, err := s.getColumn(boardID, columnID)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		col.Name = input.Name
	}
	if input.ColumnType != "" {
		col.ColumnType = input.ColumnType
	}
	if input.Position != nil {
		col.Position = *input.Position
	}
	if input.IsRequired != nil {
		col.IsRequired = *input.IsRequired
	}
	if input.Options != nil {
		col.Options = models.NewJSON(input.Options)
	}
	if input.ValidationRules != nil {
		col.ValidationRules = models.NewJSON(input.ValidationRules)
	}
	if input.DisplaySettings != nil {
		col.DisplaySettings = models.NewJSON(input.DisplaySettings)
	}
	if input.LinkedBoardID != nil {
		col.LinkedBoardID = input.LinkedBoardID
	}

	if err := schema.ValidateColumnDefinition(col); err != nil {
		return nil, err
	}
	if col.LinkedBoardID != nil && *col.LinkedBoardID != "" {
		var count int64
		if err := s.DB.Model(&models.Board{}).
			Where("board_id = ?", *col.LinkedBoardID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, types.NewColumnError(types.KindInvalidSchema, col.ColumnID,
				"linked board %s does not exist", *col.LinkedBoardID)
		}
	}

	if err := s.DB.Save(col).Error; err != nil {
		return nil, err
	}
	return col, nil
}

// DeleteColumn removes a column definition. Existing item data keyed by the
// column id is left in place; orphaned keys are tolerated on read.
func (s *BoardService) DeleteColumn(boardID, columnID string) error {
	col, err := s.getColumn(boardID, columnID)
	if err != nil {
		return err
	}
	return s.DB.Delete(col).Error
}

// ListColumns returns the board's columns in position order.
func (s *BoardService) ListColumns(boardID string) ([]models.Column, error) {
	if _, err := s.GetBoard(boardID); err != nil {
		return nil, err
	}
	var cols []models.Column
	err := s.DB.Where("board_id = ?", boardID).Order("position ASC").Find(&cols).Error
	if err != nil {
		return nil, err
	}
	return cols, nil
}

func (s *BoardService) getColumn(boardID, columnID string) (*models.Column, error) {
	var col models.Column
	err := s.DB.Where("board_id = ? AND column_id = ?", boardID, columnID).First(&col).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewEngineError(types.KindNotFound, "column %s not found on board %s", columnID, boardID)
		}
		return nil, err
	}
	return &col, nil
}
