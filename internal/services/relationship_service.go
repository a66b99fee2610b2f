package services

import (
	"errors"

	"github.com/google/uuid"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/models"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RelationshipService manages relationship definitions between boards and
// the link rows between items, enforcing cardinality at link time.
type RelationshipService struct {
	DB *gorm.DB
}

// CreateRelationship declares a typed link between two boards. Both boards
// must exist (self-links are allowed) and the field labels must not collide
// with any relationship field already surfaced on the same board.
func (s *RelationshipService) CreateRelationship(sourceBoardID, targetBoardID, relType, sourceFieldName, targetFieldName string) (*models.Relationship, error) {
	switch relType {
	case models.RelationshipOneToOne, models.RelationshipOneToMany, models.RelationshipManyToMany:
	default:
		return nil, types.NewEngineError(types.KindInvalidSchema,
			"unknown relationship type %q", relType)
	}

	for _, boardID := range []string{sourceBoardID, targetBoardID} {
		var count int64
		if err := s.DB.Model(&models.Board{}).Where("board_id = ?", boardID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, types.NewEngineError(types.KindUnknownBoard, "board %s not found", boardID)
		}
	}

	if err := s.checkFieldName(sourceBoardID, sourceFieldName); err != nil {
		return nil, err
	}
	if err := s.checkFieldName(targetBoardID, targetFieldName); err != nil {
		return nil, err
	}

	rel := &models.Relationship{
		RelationshipID:   uuid.NewString(),
		SourceBoardID:    sourceBoardID,
		TargetBoardID:    targetBoardID,
		RelationshipType: relType,
		SourceFieldName:  sourceFieldName,
		TargetFieldName:  targetFieldName,
	}
	if err := s.DB.Create(rel).Error; err != nil {
		return nil, err
	}
	return rel, nil
}

// GetRelationship loads one relationship definition.
func (s *RelationshipService) GetRelationship(relationshipID string) (*models.Relationship, error) {
	var rel models.Relationship
	err := s.DB.Where("relationship_id = ?", relationshipID).First(&rel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewEngineError(types.KindUnknownRelationship,
				"relationship %s not found", relationshipID)
		}
		return nil, err
	}
	return &rel, nil
}

// ListRelationships returns relationships touching the board on either side.
func (s *RelationshipService) ListRelationships(boardID string) ([]models.Relationship, error) {
	var rels []models.Relationship
	err := s.DB.Where("source_board_id = ? OR target_board_id = ?", boardID, boardID).
		Order("created_at ASC").Find(&rels).Error
	if err != nil {
		return nil, err
	}
	return rels, nil
}

// DeleteRelationship removes the definition and all its link rows.
func (s *RelationshipService) DeleteRelationship(relationshipID string) error {
	rel, err := s.GetRelationship(relationshipID)
	if err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("relationship_id = ?", relationshipID).
			Delete(&models.ItemRelationship{}).Error; err != nil {
			return err
		}
		return tx.Delete(rel).Error
	})
}

// LinkItems creates one link row under a relationship. Both items must
// belong to the boards the relationship declares, and the relationship's
// cardinality must hold. The existence check and the insert run in one
// transaction with the relationship row locked, so two concurrent links on
// a one_to_one relationship cannot both pass the check.
func (s *RelationshipService) LinkItems(relationshipID, sourceItemID, targetItemID string) (*models.ItemRelationship, error) {
	var link *models.ItemRelationship
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var rel models.Relationship
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("relationship_id = ?", relationshipID).First(&rel).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.NewEngineError(types.KindUnknownRelationship,
					"relationship %s not found", relationshipID)
			}
			return err
		}

		source, err := loadItem(tx, sourceItemID)
		if err != nil {
			return err
		}
		target, err := loadItem(tx, targetItemID)
		if err != nil {
			return err
		}
		if source.BoardID != rel.SourceBoardID {
			return types.NewEngineError(types.KindBoardMismatch,
				"item %s belongs to board %s, relationship expects source board %s",
				sourceItemID, source.BoardID, rel.SourceBoardID)
		}
		if target.BoardID != rel.TargetBoardID {
			return types.NewEngineError(types.KindBoardMismatch,
				"item %s belongs to board %s, relationship expects target board %s",
				targetItemID, target.BoardID, rel.TargetBoardID)
		}

		switch rel.RelationshipType {
		case models.RelationshipOneToOne:
			var existing models.ItemRelationship
			err := tx.Where("relationship_id = ? AND (source_item_id = ? OR target_item_id = ?)",
				relationshipID, sourceItemID, targetItemID).First(&existing).Error
			if err == nil {
				return types.NewEngineError(types.KindCardinalityViolation,
					"one_to_one relationship already has link %s (%s -> %s)",
					existing.ItemRelationshipID, existing.SourceItemID, existing.TargetItemID)
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		case models.RelationshipOneToMany:
			// The "one" side is the target: many sources may point at one
			// target item, so only the target is checked.
			var existing models.ItemRelationship
			err := tx.Where("relationship_id = ? AND target_item_id = ?",
				relationshipID, targetItemID).First(&existing).Error
			if err == nil {
				return types.NewEngineError(types.KindCardinalityViolation,
					"target already linked by %s (%s -> %s)",
					existing.ItemRelationshipID, existing.SourceItemID, existing.TargetItemID)
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		case models.RelationshipManyToMany:
			// No cardinality restriction.
		}

		link = &models.ItemRelationship{
			ItemRelationshipID: uuid.NewString(),
			RelationshipID:     relationshipID,
			SourceItemID:       sourceItemID,
			TargetItemID:       targetItemID,
		}
		return tx.Create(link).Error
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

// UnlinkItems removes one link row. Removing an absent link is a no-op
// success so concurrent unlink retries stay simple.
func (s *RelationshipService) UnlinkItems(itemRelationshipID string) error {
	return s.DB.Where("item_relationship_id = ?", itemRelationshipID).
		Delete(&models.ItemRelationship{}).Error
}

// ListLinkedItems returns the counterpart items linked to itemID under a
// relationship, direction-aware: when the item sits on the source board the
// targets come back, and vice versa. On a self-link both directions are
// collected. Results follow link creation order.
func (s *RelationshipService) ListLinkedItems(itemID, relationshipID string) ([]models.Item, error) {
	rel, err := s.GetRelationship(relationshipID)
	if err != nil {
		return nil, err
	}
	item, err := loadItem(s.DB, itemID)
	if err != nil {
		return nil, err
	}

	var counterpartIDs []string
	if item.BoardID == rel.SourceBoardID {
		var links []models.ItemRelationship
		if err := s.DB.Where("relationship_id = ? AND source_item_id = ?", relationshipID, itemID).
			Order("created_at ASC").Find(&links).Error; err != nil {
			return nil, err
		}
		for _, l := range links {
			counterpartIDs = append(counterpartIDs, l.TargetItemID)
		}
	}
	if item.BoardID == rel.TargetBoardID {
		var links []models.ItemRelationship
		if err := s.DB.Where("relationship_id = ? AND target_item_id = ?", relationshipID, itemID).
			Order("created_at ASC").Find(&links).Error; err != nil {
			return nil, err
		}
		for _, l := range links {
			counterpartIDs = append(counterpartIDs, l.SourceItemID)
		}
	}
	if item.BoardID != rel.SourceBoardID && item.BoardID != rel.TargetBoardID {
		return nil, types.NewEngineError(types.KindBoardMismatch,
			"item %s does not belong to either side of relationship %s", itemID, relationshipID)
	}

	if len(counterpartIDs) == 0 {
		return []models.Item{}, nil
	}
	var items []models.Item
	if err := s.DB.Where("item_id IN ?", counterpartIDs).Find(&items).Error; err != nil {
		return nil, err
	}
	// Restore link order; IN queries do not preserve it.
	byID := make(map[string]models.Item, len(items))
	for _, it := range items {
		byID[it.ItemID] = it
	}
	ordered := make([]models.Item, 0, len(counterpartIDs))
	for _, id := range counterpartIDs {
		if it, ok := byID[id]; ok {
			ordered = append(ordered, it)
		}
	}
	return ordered, nil
}

func (s *RelationshipService) checkFieldName(boardID, fieldName string) error {
	var count int64
	err := s.DB.Model(&models.Relationship{}).
		Where("(source_board_id = ? AND source_field_name = ?) OR (target_board_id = ? AND target_field_name = ?)",
			boardID, fieldName, boardID, fieldName).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return types.NewEngineError(types.KindDuplicateFieldName,
			"field name %q already denotes a relationship field on board %s", fieldName, boardID)
	}
	return nil
}

func loadItem(db *gorm.DB, itemID string) (*models.Item, error) {
	var item models.Item
	err := db.Where("item_id = ?", itemID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewEngineError(types.KindNotFound, "item %s not found", itemID)
		}
		return nil, err
	}
	return &item, nil
}
