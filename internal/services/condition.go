package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/nivcomp/attentive-customer-compass-sub000/internal/models"
)

// conditionNode is one node of the condition tree: either a group (Operator
// and/or over Conditions) or a leaf comparison against one column value.
type conditionNode struct {
	Operator   string          `json:"operator,omitempty"`
	Conditions []conditionNode `json:"conditions,omitempty"`

	ColumnID   string      `json:"column_id,omitempty"`
	Comparison string      `json:"comparison,omitempty"`
	Value      interface{} `json:"value,omitempty"`
}

// evaluateCondition applies the automation's condition tree to the
// post-event item data. An absent or empty condition always evaluates true.
func (e *AutomationEngine) evaluateCondition(config models.JSON, data map[string]interface{}) (bool, error) {
	if config.IsEmpty() {
		return true, nil
	}
	var root conditionNode
	if err := config.Decode(&root); err != nil {
		return false, fmt.Errorf("condition_config is not valid: %w", err)
	}
	return evalNode(&root, data)
}

func evalNode(node *conditionNode, data map[string]interface{}) (bool, error) {
	if len(node.Conditions) > 0 {
		op := node.Operator
		if op == "" {
			op = "and"
		}
		switch op {
		case "and":
			for i := range node.Conditions {
				ok, err := evalNode(&node.Conditions[i], data)
				if err != nil || !ok {
					return false, err
				}
			}
			return true, nil
		case "or":
			for i := range node.Conditions {
				ok, err := evalNode(&node.Conditions[i], data)
				if err != nil {
					return false, err
				}
				if ok {
					return true, nil
				}
			}
			return false, nil
		default:
			return false, fmt.Errorf("unknown group operator %q", op)
		}
	}

	if node.ColumnID == "" {
		return false, fmt.Errorf("condition leaf has no column_id")
	}
	return evalLeaf(node, data[node.ColumnID])
}

func evalLeaf(node *conditionNode, actual interface{}) (bool, error) {
	switch node.Comparison {
	case "equals", "":
		return looseEqual(actual, node.Value), nil
	case "not_equals":
		return !looseEqual(actual, node.Value), nil
	case "greater_than":
		return numericCompare(actual, node.Value, func(a, b float64) bool { return a > b })
	case "less_than":
		return numericCompare(actual, node.Value, func(a, b float64) bool { return a < b })
	case "contains":
		return containsValue(actual, node.Value), nil
	}
	return false, fmt.Errorf("unknown comparison %q", node.Comparison)
}

// looseEqual compares across the numeric representations JSON round trips
// produce (int vs float64) and falls back to string equality.
func looseEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func numericCompare(a, b interface{}, cmp func(a, b float64) bool) (bool, error) {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return cmp(af, bf), nil
	}
	// Dates and plain strings compare lexically, which matches ISO dates.
	as, aok2 := a.(string)
	bs, bok2 := b.(string)
	if aok2 && bok2 {
		return cmp(float64(strings.Compare(as, bs)), 0), nil
	}
	return false, fmt.Errorf("cannot order %T against %T", a, b)
}

// containsValue checks list membership for list fields and substring match
// for text fields.
func containsValue(actual, want interface{}) bool {
	switch v := actual.(type) {
	case []interface{}:
		for _, e := range v {
			if looseEqual(e, want) {
				return true
			}
		}
		return false
	case []string:
		for _, e := range v {
			if looseEqual(e, want) {
				return true
			}
		}
		return false
	case string:
		return strings.Contains(v, fmt.Sprintf("%v", want))
	}
	return false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
