package models

import (
	"time"
)

// Item is one record belonging to a board. Data maps column id to a value
// whose shape depends on the column type. Items are validated against the
// schema current at write time only; keys for columns that were deleted
// later are tolerated on read, not purged.
type Item struct {
	ItemID    string    `gorm:"type:char(36);primaryKey" json:"item_id"`
	BoardID   string    `gorm:"type:char(36);not null;index" json:"board_id"`
	Data      JSON      `json:"data"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name for Item
func (Item) TableName() string {
	return "board_items"
}
