package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures so handlers can map them to HTTP
// statuses without string matching.
type ErrorKind string

const (
	KindInvalidSchema        ErrorKind = "invalid_schema"
	KindInvalidValue         ErrorKind = "invalid_value"
	KindMissingRequiredField ErrorKind = "missing_required_field"
	KindNotFound             ErrorKind = "not_found"
	KindUnknownBoard         ErrorKind = "unknown_board"
	KindUnknownRelationship  ErrorKind = "unknown_relationship"
	KindCardinalityViolation ErrorKind = "cardinality_violation"
	KindDuplicateFieldName   ErrorKind = "duplicate_field_name"
	KindBoardMismatch        ErrorKind = "board_mismatch"
)

// EngineError is a classified engine failure. Column carries the offending
// column id for validation errors so the frontend can surface a field-level
// message; it is empty otherwise.
type EngineError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Column  string    `json:"column,omitempty"`
}

func (e *EngineError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: column %s: %s", e.Kind, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewEngineError builds a classified error without column context.
func NewEngineError(kind ErrorKind, format string, args ...interface{}) *EngineError {
	return &EngineError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewColumnError builds a classified error attributed to one column.
func NewColumnError(kind ErrorKind, columnID, format string, args ...interface{}) *EngineError {
	return &EngineError{Kind: kind, Column: columnID, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from err, or "" when err is not an
// EngineError.
func KindOf(err error) ErrorKind {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// CustomError is the fiber-facing error raised by middleware; the global
// error handler serializes it directly.
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}
