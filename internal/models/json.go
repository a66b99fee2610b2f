package models

import (
	"database/sql/driver"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// JSON wraps gorm.io/datatypes.JSON so the column type can be mapped per
// database driver. MSSQL has no native 'json' type, so it falls back to
// NVARCHAR(MAX).
type JSON struct {
	datatypes.JSON
}

// Value promotes the embedded JSON's Value method
func (j JSON) Value() (driver.Value, error) {
	return j.JSON.Value()
}

// Scan promotes the embedded JSON's Scan method
func (j *JSON) Scan(value interface{}) error {
	return j.JSON.Scan(value)
}

// GormDBDataType selects the column data type for each database driver.
func (JSON) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "JSON"
	case "postgres":
		return "JSONB"
	case "sqlserver", "mssql":
		return "NVARCHAR(MAX)"
	case "sqlite":
		return "JSON"
	}
	return "TEXT"
}

// NewJSON marshals v into a JSON column value. Marshal errors produce an
// empty value; callers hand in values that came from parsed request bodies,
// which always marshal.
func NewJSON(v interface{}) JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return JSON{}
	}
	return JSON{datatypes.JSON(raw)}
}

// Map unmarshals the column value into a map keyed by column id. A NULL or
// empty column yields an empty map, not nil.
func (j JSON) Map() map[string]interface{} {
	out := make(map[string]interface{})
	if len(j.JSON) == 0 {
		return out
	}
	_ = json.Unmarshal(j.JSON, &out)
	return out
}

// StringSlice unmarshals the column value into a list of strings (select
// option lists). Invalid or empty values yield nil.
func (j JSON) StringSlice() []string {
	if len(j.JSON) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(j.JSON, &out); err != nil {
		return nil
	}
	return out
}

// Decode unmarshals the column value into out.
func (j JSON) Decode(out interface{}) error {
	if len(j.JSON) == 0 {
		return nil
	}
	return json.Unmarshal(j.JSON, out)
}

// IsEmpty reports whether the column holds no usable JSON value.
func (j JSON) IsEmpty() bool {
	s := string(j.JSON)
	return s == "" || s == "null" || s == "{}" || s == "[]"
}
