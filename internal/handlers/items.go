package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/services"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/utils"
)

// ItemHandler handles item (record) routes
type ItemHandler struct {
	Items *services.ItemService
}

// CreateItem handles POST /api/boards/:board/items
// @Summary Create an item on a board
// @Description Data is validated against the board's current schema; required columns must be present
// @Tags Items
// @Accept json
// @Produce json
// @Param board path string true "Board ID"
// @Param body body object true "Item data keyed by column id"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /boards/{board}/items [post]
func (h *ItemHandler) CreateItem(c *fiber.Ctx) error {
	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "items.validation.input")
	}
	item, err := h.Items.CreateItem(c.Params("board"), body.Data)
	if err != nil {
		return utils.EngineErrorResponse(c, err, "createItem")
	}
	return utils.CreatedResponse(c, item)
}

// ListItems handles GET /api/boards/:board/items
// @Summary List a board's items in position order
// @Tags Items
// @Produce json
// @Param board path string true "Board ID"
// @Success 200 {array} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /boards/{board}/items [get]
func (h *ItemHandler) ListItems(c *fiber.Ctx) error {
	items, err := h.Items.ListItems(c.Params("board"))
	if err != nil {
		return utils.EngineErrorResponse(c, err, "listItems")
	}
	return utils.OKResponse(c, items)
}

// GetItem handles GET /api/items/:item
// @Summary Get one item
// @Tags Items
// @Produce json
// @Param item path string true "Item ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /items/{item} [get]
func (h *ItemHandler) GetItem(c *fiber.Ctx) error {
	item, err := h.Items.GetItem(c.Params("item"))
	if err != nil {
		return utils.EngineErrorResponse(c, err, "getItem")
	}
	return utils.OKResponse(c, item)
}

// UpdateItem handles PATCH /api/items/:item
// @Summary Update item fields
// @Description Merges the given fields over the item's data; only changed keys are re-validated
// @Tags Items
// @Accept json
// @Produce json
// @Param item path string true "Item ID"
// @Param body body object true "Partial item data keyed by column id"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /items/{item} [patch]
func (h *ItemHandler) UpdateItem(c *fiber.Ctx) error {
	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "items.validation.input")
	}
	if len(body.Data) == 0 {
		return utils.ErrorResponse(c, "No fields to update", fiber.StatusBadRequest, "items.validation.input")
	}
	item, err := h.Items.UpdateItem(c.Params("item"), body.Data)
	if err != nil {
		return utils.EngineErrorResponse(c, err, "updateItem")
	}
	return utils.OKResponse(c, item)
}

// DeleteItem handles DELETE /api/items/:item
// @Summary Delete an item
// @Description Also removes every link row referencing the item
// @Tags Items
// @Produce json
// @Param item path string true "Item ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /items/{item} [delete]
func (h *ItemHandler) DeleteItem(c *fiber.Ctx) error {
	if err := h.Items.DeleteItem(c.Params("item")); err != nil {
		return utils.EngineErrorResponse(c, err, "deleteItem")
	}
	return utils.DeletedResponse(c)
}
