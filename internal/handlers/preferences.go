package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/services"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/types"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/utils"
)

// PreferenceHandler handles per-user board view preference routes
type PreferenceHandler struct {
	Preferences *services.PreferenceService
}

// GetPreference handles GET /api/boards/:board/preferences
// @Summary Get the calling user's view preference for a board
// @Tags Preferences
// @Produce json
// @Param board path string true "Board ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /boards/{board}/preferences [get]
func (h *PreferenceHandler) GetPreference(c *fiber.Ctx) error {
	userID := sessionUserID(c)
	if userID == "" {
		return utils.ErrorResponse(c, "No user in session", fiber.StatusForbidden, "preferences.authorization")
	}
	pref, err := h.Preferences.GetPreference(userID, c.Params("board"))
	if err != nil {
		if types.IsKind(err, types.KindNotFound) {
			// No saved preference is a normal state; the frontend applies
			// its defaults.
			return c.SendStatus(fiber.StatusNoContent)
		}
		return utils.EngineErrorResponse(c, err, "getPreference")
	}
	return utils.OKResponse(c, pref)
}

// SavePreference handles PUT /api/boards/:board/preferences
// @Summary Save the calling user's view preference for a board
// @Tags Preferences
// @Accept json
// @Produce json
// @Param board path string true "Board ID"
// @Param body body object true "View settings"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /boards/{board}/preferences [put]
func (h *PreferenceHandler) SavePreference(c *fiber.Ctx) error {
	userID := sessionUserID(c)
	if userID == "" {
		return utils.ErrorResponse(c, "No user in session", fiber.StatusForbidden, "preferences.authorization")
	}
	var body struct {
		Settings map[string]interface{} `json:"settings"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "preferences.validation.input")
	}
	pref, err := h.Preferences.SavePreference(userID, c.Params("board"), body.Settings)
	if err != nil {
		return utils.EngineErrorResponse(c, err, "savePreference")
	}
	return utils.OKResponse(c, pref)
}
