package schema

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/nivcomp/attentive-customer-compass-sub000/internal/models"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/types"
)

// ValidationRules is the decoded shape of Column.ValidationRules. Pointer
// fields distinguish "absent" from zero.
type ValidationRules struct {
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Pattern   *string  `json:"pattern,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
}

// dateLayouts accepted for date column values, tried in order.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// ValidateColumnDefinition checks a column definition for schema violations:
// unknown column type, empty option lists on option-bearing types,
// validation rule keys that do not apply to the type, and board_link columns
// without a linked board (or a linked board on any other type). Existence of
// the linked board is the caller's check; this function is persistence-free.
func ValidateColumnDefinition(col *models.Column) error {
	if !IsValidColumnType(col.ColumnType) {
		return types.NewColumnError(types.KindInvalidSchema, col.ColumnID,
			"unknown column type %q", col.ColumnType)
	}
	ct := ColumnType(col.ColumnType)

	if ct.HasOptions() && len(col.Options.StringSlice()) == 0 {
		return types.NewColumnError(types.KindInvalidSchema, col.ColumnID,
			"column type %s requires a non-empty options list", ct)
	}

	if ct == ColumnBoardLink {
		if col.LinkedBoardID == nil || *col.LinkedBoardID == "" {
			return types.NewColumnError(types.KindInvalidSchema, col.ColumnID,
				"board_link column requires linked_board_id")
		}
	} else if col.LinkedBoardID != nil && *col.LinkedBoardID != "" {
		return types.NewColumnError(types.KindInvalidSchema, col.ColumnID,
			"linked_board_id is only valid on board_link columns")
	}

	if !col.ValidationRules.IsEmpty() {
		var keys map[string]json.RawMessage
		if err := col.ValidationRules.Decode(&keys); err != nil {
			return types.NewColumnError(types.KindInvalidSchema, col.ColumnID,
				"validation_rules is not a JSON object")
		}
		for key := range keys {
			if !RuleKeyAllowed(ct, key) {
				return types.NewColumnError(types.KindInvalidSchema, col.ColumnID,
					"validation rule %q does not apply to column type %s", key, ct)
			}
		}
		var rules ValidationRules
		if err := col.ValidationRules.Decode(&rules); err != nil {
			return types.NewColumnError(types.KindInvalidSchema, col.ColumnID,
				"validation_rules: %v", err)
		}
		if rules.Pattern != nil {
			if _, err := regexp.Compile(*rules.Pattern); err != nil {
				return types.NewColumnError(types.KindInvalidSchema, col.ColumnID,
					"invalid pattern: %v", err)
			}
		}
	}

	return nil
}

// ValidateValue checks value against the column's type and validation rules
// and returns the normalized value (numbers coerce to float64, multi_select
// to []string). Presence of required columns is the item service's check,
// not this function's.
func ValidateValue(col *models.Column, value interface{}) (interface{}, error) {
	if value == nil {
		return nil, types.NewColumnError(types.KindInvalidValue, col.ColumnID,
			"column %q: value is null", col.Name)
	}

	var rules ValidationRules
	if err := col.ValidationRules.Decode(&rules); err != nil {
		return nil, types.NewColumnError(types.KindInvalidSchema, col.ColumnID,
			"column %q: validation_rules: %v", col.Name, err)
	}

	switch ColumnType(col.ColumnType) {
	case ColumnText:
		return validateText(col, value, &rules)
	case ColumnNumber:
		return validateNumber(col, value, &rules)
	case ColumnDate:
		return validateDate(col, value)
	case ColumnSingleSelect, ColumnStatus:
		return validateOption(col, value)
	case ColumnMultiSelect:
		return validateOptionList(col, value)
	case ColumnFile, ColumnImage:
		return validateReference(col, value)
	case ColumnBoardLink:
		return validateItemReference(col, value)
	}

	return nil, types.NewColumnError(types.KindInvalidSchema, col.ColumnID,
		"unknown column type %q", col.ColumnType)
}

func validateText(col *models.Column, value interface{}, rules *ValidationRules) (interface{}, error) {
	s, ok := value.(string)
	if !ok {
		return nil, typeMismatch(col, "a string", value)
	}
	if rules.MinLength != nil && len([]rune(s)) < *rules.MinLength {
		return nil, types.NewColumnError(types.KindInvalidValue, col.ColumnID,
			"column %q: value shorter than minLength %d", col.Name, *rules.MinLength)
	}
	if rules.MaxLength != nil && len([]rune(s)) > *rules.MaxLength {
		return nil, types.NewColumnError(types.KindInvalidValue, col.ColumnID,
			"column %q: value exceeds maxLength %d", col.Name, *rules.MaxLength)
	}
	if rules.Pattern != nil {
		re, err := regexp.Compile(*rules.Pattern)
		if err != nil {
			return nil, types.NewColumnError(types.KindInvalidSchema, col.ColumnID,
				"column %q: invalid pattern: %v", col.Name, err)
		}
		if !re.MatchString(s) {
			return nil, types.NewColumnError(types.KindInvalidValue, col.ColumnID,
				"column %q: value does not match pattern %s", col.Name, *rules.Pattern)
		}
	}
	return s, nil
}

func validateNumber(col *models.Column, value interface{}, rules *ValidationRules) (interface{}, error) {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, typeMismatch(col, "a number", value)
		}
		n = f
	default:
		return nil, typeMismatch(col, "a number", value)
	}
	// Boundaries are inclusive on both ends.
	if rules.Min != nil && n < *rules.Min {
		return nil, types.NewColumnError(types.KindInvalidValue, col.ColumnID,
			"column %q: value %v below min %v", col.Name, n, *rules.Min)
	}
	if rules.Max != nil && n > *rules.Max {
		return nil, types.NewColumnError(types.KindInvalidValue, col.ColumnID,
			"column %q: value %v above max %v", col.Name, n, *rules.Max)
	}
	return n, nil
}

func validateDate(col *models.Column, value interface{}) (interface{}, error) {
	s, ok := value.(string)
	if !ok {
		return nil, typeMismatch(col, "an ISO date string", value)
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return s, nil
		}
	}
	return nil, types.NewColumnError(types.KindInvalidValue, col.ColumnID,
		"column %q: %q is not an ISO date", col.Name, s)
}

func validateOption(col *models.Column, value interface{}) (interface{}, error) {
	s, ok := value.(string)
	if !ok {
		return nil, typeMismatch(col, "an option string", value)
	}
	if !containsString(col.Options.StringSlice(), s) {
		return nil, types.NewColumnError(types.KindInvalidValue, col.ColumnID,
			"column %q: %q is not in options", col.Name, s)
	}
	return s, nil
}

func validateOptionList(col *models.Column, value interface{}) (interface{}, error) {
	list, err := toStringSlice(value)
	if err != nil {
		return nil, typeMismatch(col, "a list of option strings", value)
	}
	options := col.Options.StringSlice()
	for _, s := range list {
		if !containsString(options, s) {
			return nil, types.NewColumnError(types.KindInvalidValue, col.ColumnID,
				"column %q: %q is not in options", col.Name, s)
		}
	}
	return list, nil
}

// File and image values are opaque references; only presence is checked.
func validateReference(col *models.Column, value interface{}) (interface{}, error) {
	if s, ok := value.(string); ok {
		if s == "" {
			return nil, types.NewColumnError(types.KindInvalidValue, col.ColumnID,
				"column %q: empty reference", col.Name)
		}
		return s, nil
	}
	if m, ok := value.(map[string]interface{}); ok && len(m) > 0 {
		return m, nil
	}
	return nil, typeMismatch(col, "a reference", value)
}

func validateItemReference(col *models.Column, value interface{}) (interface{}, error) {
	if s, ok := value.(string); ok {
		if s == "" {
			return nil, types.NewColumnError(types.KindInvalidValue, col.ColumnID,
				"column %q: empty item reference", col.Name)
		}
		return s, nil
	}
	if list, err := toStringSlice(value); err == nil {
		return list, nil
	}
	return nil, typeMismatch(col, "an item id or list of item ids", value)
}

func typeMismatch(col *models.Column, want string, got interface{}) error {
	return types.NewColumnError(types.KindInvalidValue, col.ColumnID,
		"column %q: expected %s, got %T", col.Name, want, got)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func toStringSlice(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("element %v is not a string", e)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("not a list")
}
