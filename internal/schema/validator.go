package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Validator checks a data map against a JSON schema document. Partial mode
// checks only fields present in the data, ignoring schema-level "required"
// constraints for absent fields; update-style operations use it.
type Validator interface {
	Validate(schemaJSON string, data map[string]any, partial bool) ValidationResult
}

// JSONValidator is the standard Validator over the JSON-schema-like dialect
// used by tool types: type/properties/required/additionalProperties, field
// level enum/minLength/maxLength/minimum/maximum, plus the systemManaged
// extension flag marking fields AI-issued commands must never set.
type JSONValidator struct {
	// FieldName maps a raw field name to its human-readable label for error
	// messages. Optional; raw names are used when nil.
	FieldName func(string) string
}

// NewJSONValidator creates a validator using the registry's field labels.
func NewJSONValidator(reg Registry) *JSONValidator {
	v := &JSONValidator{}
	if reg != nil {
		v.FieldName = reg.FormFieldName
	}
	return v
}

type schemaDoc struct {
	Type                 string                 `json:"type"`
	Properties           map[string]schemaProp  `json:"properties"`
	Required             []string               `json:"required"`
	AdditionalProperties *bool                  `json:"additionalProperties"`
}

type schemaProp struct {
	Type          string   `json:"type"`
	Description   string   `json:"description"`
	Enum          []any    `json:"enum"`
	MinLength     *int     `json:"minLength"`
	MaxLength     *int     `json:"maxLength"`
	Minimum       *float64 `json:"minimum"`
	Maximum       *float64 `json:"maximum"`
	SystemManaged bool     `json:"systemManaged"`
}

// Validate implements Validator.
func (v *JSONValidator) Validate(schemaJSON string, data map[string]any, partial bool) ValidationResult {
	var doc schemaDoc
	if err := json.Unmarshal([]byte(schemaJSON), &doc); err != nil {
		return Error(fmt.Sprintf("invalid schema: %v", err))
	}

	if !partial {
		for _, field := range doc.Required {
			if _, ok := data[field]; !ok {
				return Error(fmt.Sprintf("missing required field '%s'", v.label(field)))
			}
		}
	}

	for field, value := range data {
		prop, known := doc.Properties[field]
		if !known {
			if doc.AdditionalProperties != nil && !*doc.AdditionalProperties {
				return Error(fmt.Sprintf("unknown field '%s'", v.label(field)))
			}
			continue
		}
		if prop.SystemManaged {
			return Error(fmt.Sprintf("field '%s' is system managed and cannot be set", v.label(field)))
		}
		if res := v.checkValue(field, prop, value); !res.Valid {
			return res
		}
	}

	return Success()
}

func (v *JSONValidator) checkValue(field string, prop schemaProp, value any) ValidationResult {
	label := v.label(field)

	if value == nil {
		return Success()
	}

	switch prop.Type {
	case "string":
		s, ok := value.(string)
		if !ok {
			return Error(fmt.Sprintf("field '%s' must be a string", label))
		}
		if prop.MinLength != nil && len(s) < *prop.MinLength {
			return Error(fmt.Sprintf("field '%s' must be at least %d characters", label, *prop.MinLength))
		}
		if prop.MaxLength != nil && len(s) > *prop.MaxLength {
			return Error(fmt.Sprintf("field '%s' must be at most %d characters", label, *prop.MaxLength))
		}
		if len(prop.Enum) > 0 && !enumContains(prop.Enum, s) {
			return Error(fmt.Sprintf("field '%s' must be one of %s", label, enumList(prop.Enum)))
		}
	case "number", "integer":
		n, ok := asNumber(value)
		if !ok {
			return Error(fmt.Sprintf("field '%s' must be a number", label))
		}
		if prop.Type == "integer" && n != float64(int64(n)) {
			return Error(fmt.Sprintf("field '%s' must be an integer", label))
		}
		if prop.Minimum != nil && n < *prop.Minimum {
			return Error(fmt.Sprintf("field '%s' must be at least %v", label, *prop.Minimum))
		}
		if prop.Maximum != nil && n > *prop.Maximum {
			return Error(fmt.Sprintf("field '%s' must be at most %v", label, *prop.Maximum))
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return Error(fmt.Sprintf("field '%s' must be a boolean", label))
		}
	case "array":
		if _, ok := value.([]any); !ok {
			return Error(fmt.Sprintf("field '%s' must be an array", label))
		}
	case "object":
		if _, ok := value.(map[string]any); !ok {
			return Error(fmt.Sprintf("field '%s' must be an object", label))
		}
	}

	return Success()
}

func (v *JSONValidator) label(field string) string {
	if v.FieldName != nil {
		return v.FieldName(field)
	}
	return field
}

func asNumber(value any) (float64, bool) {
	switch n := value.(type) {
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
	default:
		return 0, false
	}
}

func enumContains(enum []any, s string) bool {
	for _, e := range enum {
		if es, ok := e.(string); ok && es == s {
			return true
		}
	}
	return false
}

func enumList(enum []any) string {
	parts := make([]string, 0, len(enum))
	for _, e := range enum {
		parts = append(parts, fmt.Sprintf("%v", e))
	}
	return strings.Join(parts, ", ")
}
