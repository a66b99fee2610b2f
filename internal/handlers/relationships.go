package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/services"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/utils"
)

// RelationshipHandler handles relationship definition and item link routes
type RelationshipHandler struct {
	Relationships *services.RelationshipService
}

// CreateRelationship handles POST /api/relationships
// @Summary Declare a typed link between two boards
// @Tags Relationships
// @Accept json
// @Produce json
// @Param body body object true "Relationship definition"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /relationships [post]
func (h *RelationshipHandler) CreateRelationship(c *fiber.Ctx) error {
	var body struct {
		SourceBoardID    string `json:"source_board_id"`
		TargetBoardID    string `json:"target_board_id"`
		RelationshipType string `json:"relationship_type"`
		SourceFieldName  string `json:"source_field_name"`
		TargetFieldName  string `json:"target_field_name"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "relationships.validation.input")
	}
	rel, err := h.Relationships.CreateRelationship(
		body.SourceBoardID, body.TargetBoardID, body.RelationshipType,
		body.SourceFieldName, body.TargetFieldName)
	if err != nil {
		return utils.EngineErrorResponse(c, err, "createRelationship")
	}
	return utils.CreatedResponse(c, rel)
}

// ListRelationships handles GET /api/boards/:board/relationships
// @Summary List relationships touching a board on either side
// @Tags Relationships
// @Produce json
// @Param board path string true "Board ID"
// @Success 200 {array} map[string]interface{}
// @Router /boards/{board}/relationships [get]
func (h *RelationshipHandler) ListRelationships(c *fiber.Ctx) error {
	rels, err := h.Relationships.ListRelationships(c.Params("board"))
	if err != nil {
		return utils.EngineErrorResponse(c, err, "listRelationships")
	}
	return utils.OKResponse(c, rels)
}

// DeleteRelationship handles DELETE /api/relationships/:relationship
// @Summary Delete a relationship definition and all its links
// @Tags Relationships
// @Produce json
// @Param relationship path string true "Relationship ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /relationships/{relationship} [delete]
func (h *RelationshipHandler) DeleteRelationship(c *fiber.Ctx) error {
	if err := h.Relationships.DeleteRelationship(c.Params("relationship")); err != nil {
		return utils.EngineErrorResponse(c, err, "deleteRelationship")
	}
	return utils.DeletedResponse(c)
}

// LinkItems handles POST /api/relationships/:relationship/links
// @Summary Link two items under a relationship
// @Description Enforces the relationship's cardinality atomically with the insert
// @Tags Relationships
// @Accept json
// @Produce json
// @Param relationship path string true "Relationship ID"
// @Param body body object true "Source and target item ids"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /relationships/{relationship}/links [post]
func (h *RelationshipHandler) LinkItems(c *fiber.Ctx) error {
	var body struct {
		SourceItemID string `json:"source_item_id"`
		TargetItemID string `json:"target_item_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "relationships.validation.input")
	}
	link, err := h.Relationships.LinkItems(c.Params("relationship"), body.SourceItemID, body.TargetItemID)
	if err != nil {
		return utils.EngineErrorResponse(c, err, "linkItems")
	}
	return utils.CreatedResponse(c, link)
}

// UnlinkItems handles DELETE /api/links/:link
// @Summary Remove one item link
// @Description Removing an absent link is a no-op success
// @Tags Relationships
// @Produce json
// @Param link path string true "ItemRelationship ID"
// @Success 200 {object} map[string]interface{}
// @Router /links/{link} [delete]
func (h *RelationshipHandler) UnlinkItems(c *fiber.Ctx) error {
	if err := h.Relationships.UnlinkItems(c.Params("link")); err != nil {
		return utils.EngineErrorResponse(c, err, "unlinkItems")
	}
	return utils.DeletedResponse(c)
}

// ListLinkedItems handles GET /api/items/:item/links/:relationship
// @Summary List counterpart items linked to an item under a relationship
// @Tags Relationships
// @Produce json
// @Param item path string true "Item ID"
// @Param relationship path string true "Relationship ID"
// @Success 200 {array} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /items/{item}/links/{relationship} [get]
func (h *RelationshipHandler) ListLinkedItems(c *fiber.Ctx) error {
	items, err := h.Relationships.ListLinkedItems(c.Params("item"), c.Params("relationship"))
	if err != nil {
		return utils.EngineErrorResponse(c, err, "listLinkedItems")
	}
	return utils.OKResponse(c, items)
}
