// Package tool provides the types used to define and dispatch the tools
// exposed by tablescrape.
//
// A tool wraps a typed Go function together with its name, description and
// auto-derived JSON schemas, so that a transport such as the MCP server can
// advertise it and invoke it with JSON arguments. The main entry point is
// [NewTool]; the option functions [WithDescription] and [WithMetrics] allow
// further configuration.
//
// The [Catalog] type offers a thread-safe registry for managing collections of
// tools; use [NewCatalog] or [NewCatalogWithTools] to create one.
package tool
