package models

import (
	"time"
)

// Relationship type values.
const (
	RelationshipOneToOne   = "one_to_one"
	RelationshipOneToMany  = "one_to_many"
	RelationshipManyToMany = "many_to_many"
)

// Relationship is a declared typed link between two boards. Field names are
// the human labels surfaced on each side; they must be unique per board
// across relationships. Self-links (source board == target board) are
// permitted.
type Relationship struct {
	RelationshipID   string    `gorm:"type:char(36);primaryKey" json:"relationship_id"`
	SourceBoardID    string    `gorm:"type:char(36);not null;index" json:"source_board_id"`
	TargetBoardID    string    `gorm:"type:char(36);not null;index" json:"target_board_id"`
	RelationshipType string    `gorm:"size:32;not null" json:"relationship_type"`
	SourceFieldName  string    `gorm:"size:255;not null" json:"source_field_name"`
	TargetFieldName  string    `gorm:"size:255;not null" json:"target_field_name"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ItemRelationship is one concrete link instance between two items under a
// Relationship. Cardinality is enforced by the relationship service, under
// the same transaction as the insert.
type ItemRelationship struct {
	ItemRelationshipID string    `gorm:"type:char(36);primaryKey" json:"item_relationship_id"`
	RelationshipID     string    `gorm:"type:char(36);not null;index:idx_item_rel_relationship" json:"relationship_id"`
	SourceItemID       string    `gorm:"type:char(36);not null;index:idx_item_rel_source" json:"source_item_id"`
	TargetItemID       string    `gorm:"type:char(36);not null;index:idx_item_rel_target" json:"target_item_id"`
	CreatedAt          time.Time `json:"created_at"`
}

// TableName overrides the table name for Relationship
func (Relationship) TableName() string {
	return "board_relationships"
}

// TableName overrides the table name for ItemRelationship
func (ItemRelationship) TableName() string {
	return "item_relationships"
}
