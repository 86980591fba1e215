package jsonschema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Schema is the subset of JSON Schema used to describe tool arguments and results.
type Schema struct {
	// Type is the JSON type ("object", "array", "string", "integer", ...)
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Required    []string `json:"required,omitempty"`
	// Properties of an object schema, keyed by JSON field name
	Properties map[string]*Schema `json:"properties,omitempty"`
	// Items describes array elements
	Items *Schema `json:"items,omitempty"`
	// AdditionalProperties describes map values
	AdditionalProperties any `json:"additionalProperties,omitempty"`
	// Default value advertised to the caller
	Default any `json:"default,omitempty"`
	// Enum lists the allowed values
	Enum    []any    `json:"enum,omitempty"`
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`
	// Ref points into Defs for recursive types
	Ref  string             `json:"$ref,omitempty"`
	Defs map[string]*Schema `json:"$defs,omitempty"`
}

// GenerateJSONSchema builds the schema for T.
// It fails when a jsonschema tag cannot be applied to its field, e.g. an enum
// value that does not parse as the field's type.
func GenerateJSONSchema[T any]() (*Schema, error) {
	g := &generator{
		visited: make(map[reflect.Type]string),
		defs:    make(map[string]*Schema),
	}

	schema, err := g.schemaFor(reflect.TypeFor[T](), true)
	if err != nil {
		return nil, err
	}

	if len(g.defs) > 0 {
		schema.Defs = g.defs
	}
	return schema, nil
}

// MustGenerateJSONSchema is like GenerateJSONSchema but panics on error.
// It is meant for package-level tool construction where the input type is static.
func MustGenerateJSONSchema[T any]() *Schema {
	schema, err := GenerateJSONSchema[T]()
	if err != nil {
		panic(fmt.Sprintf("jsonschema: %v", err))
	}
	return schema
}

// generator carries the state of one schema generation.
type generator struct {
	visited map[reflect.Type]string // struct type -> definition name
	defs    map[string]*Schema
}

func (g *generator) schemaFor(t reflect.Type, isRoot bool) (*Schema, error) {
	switch t.Kind() {
	case reflect.Ptr:
		return g.schemaFor(t.Elem(), isRoot)
	case reflect.String:
		return &Schema{Type: "string"}, nil
	case reflect.Bool:
		return &Schema{Type: "boolean"}, nil
	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}, nil
	case reflect.Slice, reflect.Array:
		items, err := g.schemaFor(t.Elem(), false)
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "array", Items: items}, nil
	case reflect.Map:
		values, err := g.schemaFor(t.Elem(), false)
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "object", AdditionalProperties: values}, nil
	case reflect.Struct:
		return g.structSchema(t, isRoot)
	default:
		return &Schema{Type: "object"}, nil
	}
}

// structSchema inlines non-recursive structs. Recursive ones are stored in
// defs and referenced, except at the root where the full schema is returned.
func (g *generator) structSchema(t reflect.Type, isRoot bool) (*Schema, error) {
	if defName, seen := g.visited[t]; seen {
		return &Schema{Ref: "#/$defs/" + defName}, nil
	}

	recursive := refersTo(t, t, make(map[reflect.Type]bool))
	defName := definitionName(t)
	if recursive {
		g.visited[t] = defName
	}

	schema := &Schema{Type: "object", Properties: make(map[string]*Schema)}
	var required []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty, skip := jsonFieldName(field)
		if skip {
			continue
		}

		fieldSchema, err := g.schemaFor(field.Type, false)
		if err != nil {
			return nil, err
		}

		requiredByTag := false
		if fieldSchema.Ref == "" {
			requiredByTag, err = applyTag(field.Type, field.Tag.Get("jsonschema"), fieldSchema)
			if err != nil {
				return nil, fmt.Errorf("field %s.%s: %w", t.Name(), field.Name, err)
			}
		}
		schema.Properties[name] = fieldSchema

		if requiredByTag || (field.Type.Kind() != reflect.Ptr && !omitEmpty) {
			required = append(required, name)
		}
	}
	schema.Required = required

	if !recursive {
		return schema, nil
	}

	// The root gets $defs attached later, so the definition must be a separate value.
	def := *schema
	g.defs[defName] = &def
	if isRoot {
		return schema, nil
	}
	return &Schema{Ref: "#/$defs/" + defName}, nil
}

// jsonFieldName resolves the property name from the json tag.
func jsonFieldName(field reflect.StructField) (name string, omitEmpty bool, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name = field.Name
	if tag == "" {
		return name, false, false
	}
	tagName, opts, _ := strings.Cut(tag, ",")
	if tagName != "" {
		name = tagName
	}
	return name, strings.Contains(opts, "omitempty"), false
}

// refersTo reports whether target is reachable from the fields of current.
func refersTo(target, current reflect.Type, visited map[reflect.Type]bool) bool {
	if visited[current] {
		return false
	}
	visited[current] = true

	switch current.Kind() {
	case reflect.Struct:
		for i := 0; i < current.NumField(); i++ {
			field := current.Field(i)
			if !field.IsExported() {
				continue
			}
			if elemRefersTo(target, field.Type, visited) {
				return true
			}
		}
	case reflect.Ptr, reflect.Slice, reflect.Array, reflect.Map:
		return elemRefersTo(target, current.Elem(), visited)
	}
	return false
}

func elemRefersTo(target, t reflect.Type, visited map[reflect.Type]bool) bool {
	for t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice || t.Kind() == reflect.Array || t.Kind() == reflect.Map {
		t = t.Elem()
	}
	if t == target {
		return true
	}
	return t.Kind() == reflect.Struct && refersTo(target, t, visited)
}

func definitionName(t reflect.Type) string {
	if t.Name() != "" {
		return strings.ToLower(t.Name())
	}
	return "anonymousStruct"
}

// applyTag applies a jsonschema struct tag to schema and reports whether the
// tag marks the field as required.
//
// Supported items, separated by commas:
//
//	description=text
//	enum=a,enum=b        (converted to the field's type)
//	default=value        (converted to the field's type)
//	minimum=n,maximum=n
//	required
//
// Descriptions cannot contain commas.
func applyTag(fieldType reflect.Type, tag string, schema *Schema) (bool, error) {
	if tag == "" {
		return false, nil
	}

	required := false
	for _, item := range strings.Split(tag, ",") {
		key, value, hasValue := strings.Cut(item, "=")
		if !hasValue {
			if key == "required" {
				required = true
			}
			continue
		}

		switch key {
		case "description":
			schema.Description = value
		case "enum":
			v, err := convertTagValue(fieldType, value)
			if err != nil {
				return false, fmt.Errorf("enum: %w", err)
			}
			schema.Enum = append(schema.Enum, v)
		case "default":
			v, err := convertTagValue(fieldType, value)
			if err != nil {
				return false, fmt.Errorf("default: %w", err)
			}
			schema.Default = v
		case "minimum", "maximum":
			n, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return false, fmt.Errorf("%s %q is not a number: %w", key, value, err)
			}
			if key == "minimum" {
				schema.Minimum = &n
			} else {
				schema.Maximum = &n
			}
		}
	}

	return required, nil
}

func convertTagValue(fieldType reflect.Type, value string) (any, error) {
	for fieldType.Kind() == reflect.Ptr {
		fieldType = fieldType.Elem()
	}

	switch fieldType.Kind() {
	case reflect.String:
		return value, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q as integer: %w", value, err)
		}
		return v, nil
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q as number: %w", value, err)
		}
		return v, nil
	case reflect.Bool:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("parse %q as bool: %w", value, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported field type %v", fieldType)
	}
}

// JSON returns the compact JSON encoding of the schema.
func (s *Schema) JSON() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema to JSON: %w", err)
	}
	return data, nil
}

// String returns the JSON representation of the schema.
func (s *Schema) String() string {
	data, err := s.JSON()
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(data)
}
