// Package utils holds small helpers shared by the tools and the CLI:
// [CloseWithLog] for deferred closes, [TruncateString] for log-safe previews
// and [JSONToString] for rendering values that cannot fail to print.
package utils
