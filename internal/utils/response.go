package utils

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/types"
)

// ErrorResponse sends a standard error response
func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}

// NotFoundResponse sends a 404 not found response
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"status":    fiber.StatusNotFound,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
	})
}

// EngineErrorResponse maps a classified engine error to an HTTP response:
// validation failures are 400 with the offending column, reference failures
// 404, invariant conflicts 409. Unclassified errors fall through to 500.
func EngineErrorResponse(c *fiber.Ctx, err error, errorType string) error {
	var ee *types.EngineError
	if !errors.As(err, &ee) {
		return ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, errorType)
	}

	status := fiber.StatusInternalServerError
	switch ee.Kind {
	case types.KindInvalidSchema, types.KindInvalidValue, types.KindMissingRequiredField:
		status = fiber.StatusBadRequest
	case types.KindNotFound, types.KindUnknownBoard, types.KindUnknownRelationship:
		status = fiber.StatusNotFound
	case types.KindCardinalityViolation, types.KindDuplicateFieldName, types.KindBoardMismatch:
		status = fiber.StatusConflict
	}

	body := fiber.Map{
		"status":    status,
		"message":   ee.Message,
		"ok":        false,
		"kind":      ee.Kind,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	}
	if ee.Column != "" {
		body["column"] = ee.Column
	}
	return c.Status(status).JSON(body)
}

// CreatedResponse sends a 201 with the created entity
func CreatedResponse(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(data)
}

// OKResponse sends a 200 with the entity
func OKResponse(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(data)
}

// DeletedResponse sends a 200 acknowledging a deletion
func DeletedResponse(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":   "Deleted",
		"ok":        true,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ErrorResponseStruct defines the schema for error responses
type ErrorResponseStruct struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Ok        bool   `json:"ok"`
	Kind      string `json:"kind,omitempty"`
	Column    string `json:"column,omitempty"`
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
	Type      string `json:"type,omitempty"`
}
