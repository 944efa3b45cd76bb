package model

import (
	"fmt"
	"strings"
)

// ComparatorType selects how two values of a field are compared.
type ComparatorType string

const (
	ComparatorString  ComparatorType = "String"
	ComparatorExact   ComparatorType = "Exact"
	ComparatorText    ComparatorType = "Text"
	ComparatorNumeric ComparatorType = "Numeric"
)

func (c ComparatorType) Valid() bool {
	switch c {
	case ComparatorString, ComparatorExact, ComparatorText, ComparatorNumeric:
		return true
	}
	return false
}

// FieldSpec configures one field the similarity model inspects.
type FieldSpec struct {
	Field      string         `json:"field" toml:"field"`
	Type       ComparatorType `json:"type" toml:"type"`
	HasMissing bool           `json:"has_missing,omitempty" toml:"has_missing"`
}

// ValidateFields checks a field list once, before any model is built.
func ValidateFields(fields []FieldSpec) error {
	if len(fields) == 0 {
		return fmt.Errorf("%w: no fields configured", ErrInvalidFieldSpec)
	}
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		name := strings.TrimSpace(f.Field)
		if name == "" {
			return fmt.Errorf("%w: field %d has no name", ErrInvalidFieldSpec, i)
		}
		if seen[name] {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidFieldSpec, name)
		}
		seen[name] = true
		if !f.Type.Valid() {
			return fmt.Errorf("%w: field %q has unknown comparator %q", ErrInvalidFieldSpec, name, f.Type)
		}
	}
	return nil
}
