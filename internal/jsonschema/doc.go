// Package jsonschema derives JSON Schema documents from Go types by reflection.
//
// Tool inputs are plain structs; [GenerateJSONSchema] turns such a struct into
// the schema advertised to MCP clients. Field names follow the json tag, and a
// jsonschema tag adds description, enum, default, minimum, maximum and required
// settings. Recursive types are emitted once under $defs and referenced with $ref.
package jsonschema
