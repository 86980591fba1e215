// Package cost describes the price and expected behaviour of a tool call.
//
// [ToolMetrics] is attached to a tool at construction time and reported on
// the tool's execution span.
package cost
