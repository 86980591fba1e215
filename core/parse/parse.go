package parse

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ParseStringAs decodes content into T.
//
// Empty content and a bare "null" yield the zero value, so a tool whose
// arguments are all optional can be called without arguments. When T is a
// string kind and content is not a JSON string literal, content is returned
// verbatim.
//
// Example:
//
//	type args struct {
//	    URL string `json:"url"`
//	}
//
//	a, err := ParseStringAs[args](`{url: 'example.com'}`) // repaired
func ParseStringAs[T any](content string) (T, error) {
	var result T

	trimmed := strings.TrimSpace(content)
	if trimmed == "" || trimmed == "null" {
		return result, nil
	}

	if reflect.TypeFor[T]().Kind() == reflect.String && !strings.HasPrefix(trimmed, `"`) {
		reflect.ValueOf(&result).Elem().SetString(content)
		return result, nil
	}

	err := json.Unmarshal([]byte(trimmed), &result)
	if err == nil {
		return result, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(trimmed)
	if repairErr != nil {
		var zero T
		return zero, fmt.Errorf("failed to unmarshal arguments as %T and failed to repair JSON: unmarshal error: %w, repair error: %v", zero, err, repairErr)
	}

	var repairedResult T
	err = json.Unmarshal([]byte(repaired), &repairedResult)
	if err == nil {
		return repairedResult, nil
	}

	// Clients that confuse the schema with the data send {"type":..., "value":...} per field.
	if unwrapped, unwrapErr := unwrapSchemaValues(repaired); unwrapErr == nil {
		var unwrappedResult T
		if json.Unmarshal([]byte(unwrapped), &unwrappedResult) == nil {
			return unwrappedResult, nil
		}
	}

	var zero T
	return zero, fmt.Errorf("failed to unmarshal repaired arguments as %T: %w (repaired: %s)", zero, err, repaired)
}

// unwrapSchemaValues replaces every {"type": X, "value": Y} object with Y.
//
//	{"url": {"type": "string", "value": "example.com"}}  ->  {"url":"example.com"}
func unwrapSchemaValues(jsonStr string) (string, error) {
	var data any
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return "", err
	}

	unwrapped, err := json.Marshal(unwrap(data))
	if err != nil {
		return "", err
	}
	return string(unwrapped), nil
}

func unwrap(data any) any {
	switch v := data.(type) {
	case map[string]any:
		if _, hasType := v["type"]; hasType {
			if value, hasValue := v["value"]; hasValue && len(v) == 2 {
				return unwrap(value)
			}
		}
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[key] = unwrap(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = unwrap(val)
		}
		return out
	default:
		return data
	}
}
