// Package parse decodes tool arguments sent by MCP clients.
//
// Arguments usually arrive as well-formed JSON, but model-driven clients
// sometimes send single quotes, trailing commas, unquoted keys or schema-style
// {"type": ..., "value": ...} envelopes. [ParseStringAs] tries a strict decode
// first, then repairs the text with jsonrepair, then unwraps envelopes, and
// only then gives up with an error that carries both attempts.
package parse
