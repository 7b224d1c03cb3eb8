package venmo

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// SafeGet walks path through nested objects. Any absent or null segment, or a
// non-object intermediate, yields a MissingPathError naming operation and path.
func SafeGet(document any, path []string, operation string) (any, error) {
	current := document
	for _, key := range path {
		object, ok := asObject(current)
		if !ok {
			return nil, newMissingPathError(operation, path)
		}
		value, exists := object[key]
		if !exists || value == nil {
			return nil, newMissingPathError(operation, path)
		}
		current = value
	}
	if current == nil {
		return nil, newMissingPathError(operation, path)
	}
	return current, nil
}

// SafeGetString is SafeGet for string or numeric leaves rendered as text.
func SafeGetString(document any, path []string, operation string) (string, error) {
	value, err := SafeGet(document, path, operation)
	if err != nil {
		return "", err
	}
	switch typed := value.(type) {
	case string:
		return typed, nil
	case json.Number:
		return typed.String(), nil
	case float64:
		return decimal.NewFromFloat(typed).String(), nil
	default:
		return "", WrapError(errorOperationClient, errorSubjectResponse, errorCodeUnexpectedType,
			fmt.Errorf("%s: %s holds %T", operation, formatPath(path), value))
	}
}

// SafeGetDecimal is SafeGet for numeric leaves.
func SafeGetDecimal(document any, path []string, operation string) (decimal.Decimal, error) {
	text, err := SafeGetString(document, path, operation)
	if err != nil {
		return decimal.Decimal{}, err
	}
	parsed, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, WrapError(errorOperationClient, errorSubjectResponse, errorCodeUnexpectedType,
			fmt.Errorf("%s: %s: %w", operation, formatPath(path), err))
	}
	return parsed, nil
}

func asObject(value any) (map[string]any, bool) {
	switch typed := value.(type) {
	case Document:
		return typed, true
	case map[string]any:
		return typed, true
	default:
		return nil, false
	}
}

func newMissingPathError(operation string, path []string) error {
	copied := make([]string, len(path))
	copy(copied, path)
	return &MissingPathError{Operation: operation, Path: copied}
}
