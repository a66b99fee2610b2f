package schema

// ColumnType is the closed set of column types a board schema can use.
// Validation switches over this set exhaustively; adding a type means
// extending every switch, which the tests cover.
type ColumnType string

const (
	ColumnText         ColumnType = "text"
	ColumnNumber       ColumnType = "number"
	ColumnDate         ColumnType = "date"
	ColumnSingleSelect ColumnType = "single_select"
	ColumnMultiSelect  ColumnType = "multi_select"
	ColumnStatus       ColumnType = "status"
	ColumnFile         ColumnType = "file"
	ColumnImage        ColumnType = "image"
	ColumnBoardLink    ColumnType = "board_link"
)

// AllColumnTypes lists every supported column type in a stable order.
var AllColumnTypes = []ColumnType{
	ColumnText,
	ColumnNumber,
	ColumnDate,
	ColumnSingleSelect,
	ColumnMultiSelect,
	ColumnStatus,
	ColumnFile,
	ColumnImage,
	ColumnBoardLink,
}

// IsValidColumnType reports whether t names a supported column type.
func IsValidColumnType(t string) bool {
	switch ColumnType(t) {
	case ColumnText, ColumnNumber, ColumnDate, ColumnSingleSelect,
		ColumnMultiSelect, ColumnStatus, ColumnFile, ColumnImage, ColumnBoardLink:
		return true
	}
	return false
}

// HasOptions reports whether the type carries an allowed-option list.
func (t ColumnType) HasOptions() bool {
	switch t {
	case ColumnSingleSelect, ColumnMultiSelect, ColumnStatus:
		return true
	}
	return false
}

// IsListValued reports whether values of this type are lists.
func (t ColumnType) IsListValued() bool {
	return t == ColumnMultiSelect
}

// AllowedRuleKeys is the capability matrix: which validation_rules keys apply
// to each column type. Types absent from the map accept no rules at all.
var AllowedRuleKeys = map[ColumnType][]string{
	ColumnText:   {"minLength", "maxLength", "pattern"},
	ColumnNumber: {"min", "max"},
}

// RuleKeyAllowed reports whether a validation_rules key applies to t.
func RuleKeyAllowed(t ColumnType, key string) bool {
	for _, k := range AllowedRuleKeys[t] {
		if k == key {
			return true
		}
	}
	return false
}
