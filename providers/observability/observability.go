package observability

import (
	"context"
	"log/slog"
	"time"
)

// Attribute is one key/value annotation on a log line, span or metric
// sample. Keys should come from the Attr* constants in semconv.go.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute             { return Attribute{Key: key, Value: value} }
func Int(key string, value int) Attribute            { return Attribute{Key: key, Value: value} }
func Int64(key string, value int64) Attribute        { return Attribute{Key: key, Value: value} }
func Duration(key string, d time.Duration) Attribute { return Attribute{Key: key, Value: d} }

// Error records err under the "error" key. A nil error yields an empty message.
func Error(err error) Attribute {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Attribute{Key: "error", Value: msg}
}

// Slog converts the attribute for a log/slog handler.
func (a Attribute) Slog() slog.Attr {
	return slog.Any(a.Key, a.Value)
}

// StatusCode is the outcome stamped on a span before it ends.
type StatusCode int

const (
	StatusUnset StatusCode = iota
	StatusOK
	StatusError
)

func (c StatusCode) String() string {
	switch c {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	default:
		return "unset"
	}
}

// Provider bundles the three signals a tool call or page fetch can emit.
// The slog subpackage is the only implementation; tests use stubs.
type Provider interface {
	Tracer
	Metrics
	Logger
}

// Tracer opens spans around tool executions and HTTP fetches.
type Tracer interface {
	StartSpan(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Span is a timed unit of work. End must be called exactly once.
type Span interface {
	End()
	SetAttributes(attrs ...Attribute)
	SetStatus(code StatusCode, description string)
	RecordError(err error)
	AddEvent(name string, attrs ...Attribute)
}

// Metrics hands out named instruments; asking twice for a name returns the same one.
type Metrics interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

type Counter interface {
	Add(ctx context.Context, value int64, attrs ...Attribute)
}

type Histogram interface {
	Record(ctx context.Context, value float64, attrs ...Attribute)
}

// Logger writes leveled structured records. Trace sits below Debug.
type Logger interface {
	Trace(ctx context.Context, msg string, attrs ...Attribute)
	Debug(ctx context.Context, msg string, attrs ...Attribute)
	Info(ctx context.Context, msg string, attrs ...Attribute)
	Warn(ctx context.Context, msg string, attrs ...Attribute)
	Error(ctx context.Context, msg string, attrs ...Attribute)
}
