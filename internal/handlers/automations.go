package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/services"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/utils"
)

// AutomationHandler handles automation rule and log routes
type AutomationHandler struct {
	Engine *services.AutomationEngine
}

// CreateAutomation handles POST /api/boards/:board/automations
// @Summary Create an automation rule on a board
// @Tags Automations
// @Accept json
// @Produce json
// @Param board path string true "Board ID"
// @Param body body object true "Automation definition"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /boards/{board}/automations [post]
func (h *AutomationHandler) CreateAutomation(c *fiber.Ctx) error {
	var input services.AutomationInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "automations.validation.input")
	}
	automation, err := h.Engine.CreateAutomation(c.Params("board"), input)
	if err != nil {
		return utils.EngineErrorResponse(c, err, "createAutomation")
	}
	return utils.CreatedResponse(c, automation)
}

// ListAutomations handles GET /api/boards/:board/automations
// @Summary List a board's automations
// @Tags Automations
// @Produce json
// @Param board path string true "Board ID"
// @Success 200 {array} map[string]interface{}
// @Router /boards/{board}/automations [get]
func (h *AutomationHandler) ListAutomations(c *fiber.Ctx) error {
	automations, err := h.Engine.ListAutomations(c.Params("board"))
	if err != nil {
		return utils.EngineErrorResponse(c, err, "listAutomations")
	}
	return utils.OKResponse(c, automations)
}

// GetAutomation handles GET /api/automations/:automation
// @Summary Get one automation
// @Tags Automations
// @Produce json
// @Param automation path string true "Automation ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /automations/{automation} [get]
func (h *AutomationHandler) GetAutomation(c *fiber.Ctx) error {
	automation, err := h.Engine.GetAutomation(c.Params("automation"))
	if err != nil {
		return utils.EngineErrorResponse(c, err, "getAutomation")
	}
	return utils.OKResponse(c, automation)
}

// UpdateAutomation handles PATCH /api/automations/:automation
// @Summary Update an automation (including toggling is_active)
// @Tags Automations
// @Accept json
// @Produce json
// @Param automation path string true "Automation ID"
// @Param body body object true "Fields to update"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /automations/{automation} [patch]
func (h *AutomationHandler) UpdateAutomation(c *fiber.Ctx) error {
	var input services.AutomationInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "automations.validation.input")
	}
	automation, err := h.Engine.UpdateAutomation(c.Params("automation"), input)
	if err != nil {
		return utils.EngineErrorResponse(c, err, "updateAutomation")
	}
	return utils.OKResponse(c, automation)
}

// DeleteAutomation handles DELETE /api/automations/:automation
// @Summary Delete an automation and its logs
// @Tags Automations
// @Produce json
// @Param automation path string true "Automation ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /automations/{automation} [delete]
func (h *AutomationHandler) DeleteAutomation(c *fiber.Ctx) error {
	if err := h.Engine.DeleteAutomation(c.Params("automation")); err != nil {
		return utils.EngineErrorResponse(c, err, "deleteAutomation")
	}
	return utils.DeletedResponse(c)
}

// ListLogs handles GET /api/automations/:automation/logs
// @Summary List an automation's execution log, newest first
// @Tags Automations
// @Produce json
// @Param automation path string true "Automation ID"
// @Success 200 {array} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /automations/{automation}/logs [get]
func (h *AutomationHandler) ListLogs(c *fiber.Ctx) error {
	logs, err := h.Engine.ListLogs(c.Params("automation"))
	if err != nil {
		return utils.EngineErrorResponse(c, err, "listAutomationLogs")
	}
	return utils.OKResponse(c, logs)
}

// RunDateScan handles POST /api/automations/scan
// @Summary Run the date_reached trigger scan
// @Description Invoked by the external scheduler; fires matured date triggers once per crossing
// @Tags Automations
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /automations/scan [post]
func (h *AutomationHandler) RunDateScan(c *fiber.Ctx) error {
	fired, err := h.Engine.RunDateScan(time.Now().UTC())
	if err != nil {
		return utils.EngineErrorResponse(c, err, "runDateScan")
	}
	return utils.OKResponse(c, fiber.Map{
		"ok":        true,
		"fired":     fired,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
