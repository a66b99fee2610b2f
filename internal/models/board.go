package models

import (
	"time"
)

// Board is a user-defined table. Its columns collectively define the schema
// that items are validated against at write time.
type Board struct {
	BoardID     string    `gorm:"type:char(36);primaryKey" json:"board_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"size:1024" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Columns []Column `gorm:"foreignKey:BoardID;references:BoardID" json:"columns,omitempty"`
}

// Column is one typed field in a board's schema.
//
// Options applies to single_select/multi_select/status, ValidationRules to
// text/number, LinkedBoardID to board_link only. DisplaySettings is
// presentation state carried for the frontend, never validated.
type Column struct {
	ColumnID        string    `gorm:"type:char(36);primaryKey" json:"column_id"`
	BoardID         string    `gorm:"type:char(36);not null;index:idx_columns_board_position,unique,priority:1" json:"board_id"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	ColumnType      string    `gorm:"size:32;not null" json:"column_type"`
	Position        int       `gorm:"not null;index:idx_columns_board_position,unique,priority:2" json:"position"`
	IsRequired      bool      `gorm:"not null;default:false" json:"is_required"`
	Options         JSON      `json:"options,omitempty"`
	ValidationRules JSON      `json:"validation_rules,omitempty"`
	DisplaySettings JSON      `json:"display_settings,omitempty"`
	LinkedBoardID   *string   `gorm:"type:char(36)" json:"linked_board_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName overrides the table name for Board
func (Board) TableName() string {
	return "boards"
}

// TableName overrides the table name for Column
func (Column) TableName() string {
	return "board_columns"
}
