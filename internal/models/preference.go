package models

import (
	"time"
)

// BoardViewPreference holds per-user view state for a board (sorting,
// visible columns, layout). Loaded and saved explicitly, never ambient.
type BoardViewPreference struct {
	PreferenceID string    `gorm:"type:char(36);primaryKey" json:"preference_id"`
	UserID       string    `gorm:"type:char(36);not null;index:idx_pref_user_board,unique,priority:1" json:"user_id"`
	BoardID      string    `gorm:"type:char(36);not null;index:idx_pref_user_board,unique,priority:2" json:"board_id"`
	Settings     JSON      `json:"settings"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName overrides the table name for BoardViewPreference
func (BoardViewPreference) TableName() string {
	return "board_view_preferences"
}
