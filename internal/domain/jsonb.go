package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONBMap is a custom type for handling JSONB data in PostgreSQL.
// It implements sql.Scanner and driver.Valuer so free-form metadata
// round-trips between map[string]any and a JSONB column.
type JSONBMap map[string]any

// Scan implements the sql.Scanner interface.
func (j *JSONBMap) Scan(value any) error {
	if value == nil {
		*j = nil
		return nil
	}

	data, err := jsonbBytes(value)
	if err != nil {
		return err
	}

	if len(data) == 0 {
		*j = JSONBMap{}
		return nil
	}

	return json.Unmarshal(data, j)
}

// Value implements the driver.Valuer interface.
func (j JSONBMap) Value() (driver.Value, error) {
	if len(j) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface for a JSONB scores column.
func (s *AuditScores) Scan(value any) error {
	if value == nil {
		return nil
	}

	data, err := jsonbBytes(value)
	if err != nil {
		return err
	}

	if len(data) == 0 {
		return nil
	}

	return json.Unmarshal(data, s)
}

// Value implements the driver.Valuer interface for a JSONB scores column.
func (s *AuditScores) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan implements the sql.Scanner interface for a JSONB facts column.
func (f *PageFacts) Scan(value any) error {
	if value == nil {
		return nil
	}

	data, err := jsonbBytes(value)
	if err != nil {
		return err
	}

	if len(data) == 0 {
		return nil
	}

	return json.Unmarshal(data, f)
}

// Value implements the driver.Valuer interface for a JSONB facts column.
func (f PageFacts) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// jsonbBytes normalizes the raw driver value of a JSONB column.
func jsonbBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, errors.New("unsupported type for JSONB column")
	}
}
