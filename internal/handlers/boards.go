package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/services"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/types"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/utils"
)

// BoardHandler handles board and column (schema authoring) routes
type BoardHandler struct {
	Boards *services.BoardService
}

// CreateBoard handles POST /api/boards
// @Summary Create a board
// @Description Create a board, optionally with an initial set of columns
// @Tags Boards
// @Accept json
// @Produce json
// @Param body body object true "Board definition"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /boards [post]
func (h *BoardHandler) CreateBoard(c *fiber.Ctx) error {
	var body struct {
		Name        string                               `json:"name"`
		Description string                               `json:"description"`
		Columns     types.FlexList[services.ColumnInput] `json:"columns"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "boards.validation.input")
	}
	if body.Name == "" {
		return utils.ErrorResponse(c, "Board name is required", fiber.StatusBadRequest, "boards.validation.input")
	}

	board, err := h.Boards.CreateBoard(body.Name, body.Description)
	if err != nil {
		return utils.EngineErrorResponse(c, err, "createBoard")
	}

	for _, col := range body.Columns.Slice() {
		if _, err := h.Boards.AddColumn(board.BoardID, col); err != nil {
			// The board was created; surface the column failure so the
			// caller can fix the definition and retry the column alone.
			return utils.EngineErrorResponse(c, err, "createBoard.column")
		}
	}

	created, err := h.Boards.GetBoard(board.BoardID)
	if err != nil {
		return utils.EngineErrorResponse(c, err, "createBoard")
	}
	return utils.CreatedResponse(c, created)
}

// ListBoards handles GET /api/boards
// @Summary List boards
// @Tags Boards
// @Produce json
// @Success 200 {array} map[string]interface{}
// @Router /boards [get]
func (h *BoardHandler) ListBoards(c *fiber.Ctx) error {
	boards, err := h.Boards.ListBoards()
	if err != nil {
		return utils.EngineErrorResponse(c, err, "listBoards")
	}
	return utils.OKResponse(c, boards)
}

// GetBoard handles GET /api/boards/:board
// @Summary Get a board with its columns
// @Tags Boards
// @Produce json
// @Param board path string true "Board ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /boards/{board} [get]
func (h *BoardHandler) GetBoard(c *fiber.Ctx) error {
	board, err := h.Boards.GetBoard(c.Params("board"))
	if err != nil {
		return utils.EngineErrorResponse(c, err, "getBoard")
	}
	return utils.OKResponse(c, board)
}

// UpdateBoard handles PATCH /api/boards/:board
// @Summary Update board name/description
// @Tags Boards
// @Accept json
// @Produce json
// @Param board path string true "Board ID"
// @Param body body object true "Fields to update"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /boards/{board} [patch]
func (h *BoardHandler) UpdateBoard(c *fiber.Ctx) error {
	var body struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "boards.validation.input")
	}
	board, err := h.Boards.UpdateBoard(c.Params("board"), body.Name, body.Description)
	if err != nil {
		return utils.EngineErrorResponse(c, err, "updateBoard")
	}
	return utils.OKResponse(c, board)
}

// DeleteBoard handles DELETE /api/boards/:board
// @Summary Delete a board and everything it owns
// @Description Cascades to columns, items, relationships touching the board, and automations
// @Tags Boards
// @Produce json
// @Param board path string true "Board ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /boards/{board} [delete]
func (h *BoardHandler) DeleteBoard(c *fiber.Ctx) error {
	if err := h.Boards.DeleteBoard(c.Params("board")); err != nil {
		return utils.EngineErrorResponse(c, err, "deleteBoard")
	}
	return utils.DeletedResponse(c)
}

// ListColumns handles GET /api/boards/:board/columns
// @Summary List a board's columns in position order
// @Tags Columns
// @Produce json
// @Param board path string true "Board ID"
// @Success 200 {array} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /boards/{board}/columns [get]
func (h *BoardHandler) ListColumns(c *fiber.Ctx) error {
	cols, err := h.Boards.ListColumns(c.Params("board"))
	if err != nil {
		return utils.EngineErrorResponse(c, err, "listColumns")
	}
	return utils.OKResponse(c, cols)
}

// AddColumn handles POST /api/boards/:board/columns
// @Summary Add a column to a board's schema
// @Tags Columns
// @Accept json
// @Produce json
// @Param board path string true "Board ID"
// @Param body body object true "Column definition"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /boards/{board}/columns [post]
func (h *BoardHandler) AddColumn(c *fiber.Ctx) error {
	var input services.ColumnInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "boards.validation.input")
	}
	if input.Name == "" || input.ColumnType == "" {
		return utils.ErrorResponse(c, "Column name and column_type are required", fiber.StatusBadRequest, "boards.validation.input")
	}
	col, err := h.Boards.AddColumn(c.Params("board"), input)
	if err != nil {
		return utils.EngineErrorResponse(c, err, "addColumn")
	}
	return utils.CreatedResponse(c, col)
}

// UpdateColumn handles PATCH /api/boards/:board/columns/:column
// @Summary Update a column definition
// @Description Retyping does not rewrite existing item data
// @Tags Columns
// @Accept json
// @Produce json
// @Param board path string true "Board ID"
// @Param column path string true "Column ID"
// @Param body body object true "Fields to update"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /boards/{board}/columns/{column} [patch]
func (h *BoardHandler) UpdateColumn(c *fiber.Ctx) error {
	var input services.ColumnInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "boards.validation.input")
	}
	col, err := h.Boards.UpdateColumn(c.Params("board"), c.Params("column"), input)
	if err != nil {
		return utils.EngineErrorResponse(c, err, "updateColumn")
	}
	return utils.OKResponse(c, col)
}

// DeleteColumn handles DELETE /api/boards/:board/columns/:column
// @Summary Delete a column definition
// @Description Existing item values under the column id are kept, not purged
// @Tags Columns
// @Produce json
// @Param board path string true "Board ID"
// @Param column path string true "Column ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /boards/{board}/columns/{column} [delete]
func (h *BoardHandler) DeleteColumn(c *fiber.Ctx) error {
	if err := h.Boards.DeleteColumn(c.Params("board"), c.Params("column")); err != nil {
		return utils.EngineErrorResponse(c, err, "deleteColumn")
	}
	return utils.DeletedResponse(c)
}
