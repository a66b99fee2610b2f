package services

import (
	"errors"

	"github.com/google/uuid"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/models"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/types"
	"gorm.io/gorm"
)

// PreferenceService stores per-user board view state explicitly, keyed by
// (user, board). There is no ambient fallback; a user without a saved
// preference gets NotFound and the frontend applies its defaults.
type PreferenceService struct {
	DB *gorm.DB
}

// GetPreference loads the view preference for a user on a board.
func (s *PreferenceService) GetPreference(userID, boardID string) (*models.BoardViewPreference, error) {
	var pref models.BoardViewPreference
	err := s.DB.Where("user_id = ? AND board_id = ?", userID, boardID).First(&pref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewEngineError(types.KindNotFound,
				"no view preference for user %s on board %s", userID, boardID)
		}
		return nil, err
	}
	return &pref, nil
}

// SavePreference upserts the view preference for a user on a board.
func (s *PreferenceService) SavePreference(userID, boardID string, settings map[string]interface{}) (*models.BoardViewPreference, error) {
	var count int64
	if err := s.DB.Model(&models.Board{}).Where("board_id = ?", boardID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, types.NewEngineError(types.KindUnknownBoard, "board %s not found", boardID)
	}

	var pref models.BoardViewPreference
	err := s.DB.Where("user_id = ? AND board_id = ?", userID, boardID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		pref = models.BoardViewPreference{
			PreferenceID: uuid.NewString(),
			UserID:       userID,
			BoardID:      boardID,
			Settings:     models.NewJSON(settings),
		}
		if err := s.DB.Create(&pref).Error; err != nil {
			return nil, err
		}
		return &pref, nil
	}
	if err != nil {
		return nil, err
	}

	pref.Settings = models.NewJSON(settings)
	if err := s.DB.Model(&pref).Update("settings", pref.Settings).Error; err != nil {
		return nil, err
	}
	return &pref, nil
}
