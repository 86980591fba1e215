package utils

import (
	"io"
	"log/slog"
)

// CloseWithLog closes c and logs a failure at WARN. Meant for defer, where the
// close error must not replace the function's own result.
func CloseWithLog(c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		slog.Warn("failed to close resource", "error", err.Error())
	}
}
