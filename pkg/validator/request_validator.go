package validator

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FieldType names the JSON shape a request field must have.
type FieldType string

const (
	FieldTypeString      FieldType = "STRING"
	FieldTypeInteger     FieldType = "INTEGER"
	FieldTypeBoolean     FieldType = "BOOLEAN"
	FieldTypeTimestamp   FieldType = "TIMESTAMP"
	FieldTypeStringArray FieldType = "STRING_ARRAY"
)

// RequestValidator validates decoded JSON request bodies against field definitions
type RequestValidator struct {
	timeLayouts []string
}

// NewRequestValidator creates a validator accepting RFC3339 timestamps and
// the additional layouts given.
func NewRequestValidator(timeLayouts ...string) *RequestValidator {
	return &RequestValidator{timeLayouts: append([]string{time.RFC3339Nano, time.RFC3339}, timeLayouts...)}
}

// FieldDefinition represents a field definition for validation
type FieldDefinition struct {
	Type     FieldType
	Required bool
	// Min and Max bound integer values when set.
	Min *int64
	Max *int64
	// NotBlank rejects strings that are empty after trimming.
	NotBlank bool
	// OneOf restricts strings to the listed values when non-empty.
	OneOf []string
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// ValidationResult represents the result of validation
type ValidationResult struct {
	IsValid bool              `json:"is_valid"`
	Errors  []ValidationError `json:"errors"`
}

// Error joins the messages of all validation errors.
func (r ValidationResult) Error() string {
	messages := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		messages[i] = e.Message
	}
	return strings.Join(messages, "; ")
}

// Int64 returns a pointer to v for use as a Min or Max bound.
func Int64(v int64) *int64 {
	return &v
}

// ValidateProperties validates request properties against field definitions.
// Errors are reported in field name order.
func (rv *RequestValidator) ValidateProperties(properties map[string]any, fieldDefinitions map[string]FieldDefinition) ValidationResult {
	result := ValidationResult{
		IsValid: true,
		Errors:  []ValidationError{},
	}
	fail := func(field, message string, value any) {
		result.IsValid = false
		result.Errors = append(result.Errors, ValidationError{Field: field, Message: message, Value: value})
	}

	names := make([]string, 0, len(fieldDefinitions))
	for name := range fieldDefinitions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, fieldName := range names {
		fieldDef := fieldDefinitions[fieldName]
		value, exists := properties[fieldName]

		if !exists || value == nil {
			if fieldDef.Required {
				fail(fieldName, fmt.Sprintf("required field '%s' is missing", fieldName), nil)
			}
			continue
		}

		if err := rv.validateFieldType(fieldName, value, fieldDef.Type); err != nil {
			fail(fieldName, err.Error(), value)
			continue
		}

		if err := rv.validateRules(fieldName, value, fieldDef); err != nil {
			fail(fieldName, err.Error(), value)
		}
	}

	unknown := []string{}
	for propertyName := range properties {
		if _, exists := fieldDefinitions[propertyName]; !exists {
			unknown = append(unknown, propertyName)
		}
	}
	sort.Strings(unknown)
	for _, propertyName := range unknown {
		fail(propertyName, fmt.Sprintf("property '%s' is not supported", propertyName), properties[propertyName])
	}

	return result
}

// validateFieldType validates the type of a field value
func (rv *RequestValidator) validateFieldType(fieldName string, value any, expectedType FieldType) error {
	switch expectedType {
	case FieldTypeString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("field '%s' must be a string, got %T", fieldName, value)
		}
	case FieldTypeInteger:
		if _, ok := toInt64(value); !ok {
			return fmt.Errorf("field '%s' must be an integer, got %v", fieldName, value)
		}
	case FieldTypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("field '%s' must be a boolean, got %T", fieldName, value)
		}
	case FieldTypeTimestamp:
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("field '%s' must be a timestamp string, got %T", fieldName, value)
		}
		if _, err := rv.ParseTimestamp(str); err != nil {
			return fmt.Errorf("field '%s' %v", fieldName, err)
		}
	case FieldTypeStringArray:
		values, ok := value.([]any)
		if !ok {
			return fmt.Errorf("field '%s' must be an array of strings, got %T", fieldName, value)
		}
		for _, item := range values {
			if _, ok := item.(string); !ok {
				return fmt.Errorf("field '%s' values must be strings, got %T", fieldName, item)
			}
		}
	default:
		return fmt.Errorf("unknown field type: %s", expectedType)
	}
	return nil
}

func (rv *RequestValidator) validateRules(fieldName string, value any, def FieldDefinition) error {
	if n, ok := toInt64(value); ok && def.Type == FieldTypeInteger {
		if def.Min != nil && n < *def.Min {
			return fmt.Errorf("field '%s' value %d is less than minimum %d", fieldName, n, *def.Min)
		}
		if def.Max != nil && n > *def.Max {
			return fmt.Errorf("field '%s' value %d is greater than maximum %d", fieldName, n, *def.Max)
		}
	}

	if str, ok := value.(string); ok {
		if def.NotBlank && strings.TrimSpace(str) == "" {
			return fmt.Errorf("field '%s' must not be blank", fieldName)
		}
		if len(def.OneOf) > 0 && !slices.Contains(def.OneOf, str) {
			return fmt.Errorf("field '%s' must be one of %v, got '%s'", fieldName, def.OneOf, str)
		}
	}
	return nil
}

// ParseTimestamp parses raw with the validator's layouts in order.
func (rv *RequestValidator) ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range rv.timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("must be a valid timestamp, got '%s'", raw)
}

// toInt64 accepts the integral numeric forms a JSON decoder produces.
func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		n, err := strconv.ParseInt(string(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
