package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leofalp/tablescrape/core/cost"
	"github.com/leofalp/tablescrape/core/parse"
	"github.com/leofalp/tablescrape/internal/jsonschema"
	"github.com/leofalp/tablescrape/internal/utils"
	"github.com/leofalp/tablescrape/providers/observability"
)

// Tool binds a name and description to a strongly-typed Go function. JSON
// schemas for the input I and output O are derived by reflection.
// Use [NewTool] to construct one.
type Tool[I, O any] struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	Output      *jsonschema.Schema
	Function    func(ctx context.Context, input I) (O, error)
	// Metrics contains optional cost and performance metrics for this tool.
	Metrics *cost.ToolMetrics
}

// returnsMedia reports whether O is [Media].
func (t *Tool[I, O]) returnsMedia() bool {
	var zero O
	_, ok := any(zero).(Media)
	return ok
}

// ToolDescription is what a transport needs to advertise a tool.
type ToolDescription struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	Metrics     *cost.ToolMetrics
	// MediaOutput is set when Call renders a JSON-encoded [Media].
	MediaOutput bool
}

// GenericTool abstracts over the type parameters of [Tool] so that tools can
// be stored in a [Catalog] and dispatched by name.
type GenericTool interface {
	// ToolInfo returns the name, description and parameter schema of the tool.
	ToolInfo() ToolDescription

	// Call runs the tool with JSON-encoded input. String outputs are returned
	// verbatim; any other output is JSON-encoded.
	Call(ctx context.Context, inputJson string) (string, error)

	// GetMetrics returns the tool's metrics, or nil.
	GetMetrics() *cost.ToolMetrics
}

// funcToolOptions holds optional configuration for a tool created via [NewTool].
type funcToolOptions struct {
	Description string
	Metrics     *cost.ToolMetrics
}

// WithDescription sets the description surfaced to MCP clients.
func WithDescription(description string) func(tool *funcToolOptions) {
	return func(s *funcToolOptions) {
		s.Description = description
	}
}

// WithMetrics sets the cost and quality metrics of the tool.
func WithMetrics(toolMetrics cost.ToolMetrics) func(tool *funcToolOptions) {
	return func(s *funcToolOptions) {
		s.Metrics = &toolMetrics
	}
}

// NewTool constructs a [Tool] with the given name and handler.
// It panics if I or O carry an invalid jsonschema tag, which is a programming error.
//
// Example:
//
//	extractTool := tool.NewTool("extract_competition_table", extractor.Run,
//	    tool.WithDescription("Extracts an HTML table as CSV or JSON."),
//	)
func NewTool[I, O any](name string, function func(ctx context.Context, input I) (O, error), options ...func(tool *funcToolOptions)) *Tool[I, O] {
	toolOptions := &funcToolOptions{}
	for _, option := range options {
		option(toolOptions)
	}

	return &Tool[I, O]{
		Name:        name,
		Description: toolOptions.Description,
		Parameters:  jsonschema.MustGenerateJSONSchema[I](),
		Output:      jsonschema.MustGenerateJSONSchema[O](),
		Function:    function,
		Metrics:     toolOptions.Metrics,
	}
}

// ToolInfo returns the [ToolDescription] of the tool.
func (t *Tool[I, O]) ToolInfo() ToolDescription {
	return ToolDescription{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
		Metrics:     t.Metrics,
		MediaOutput: t.returnsMedia(),
	}
}

// Call decodes inputJson into I, runs the function and renders the output.
// Span events are emitted at the start and end of execution when a span is
// present in ctx.
func (t *Tool[I, O]) Call(ctx context.Context, inputJson string) (string, error) {
	span := observability.SpanFromContext(ctx)
	if span != nil {
		span.AddEvent(observability.EventToolExecutionStart,
			observability.String(observability.AttrToolName, t.Name),
			observability.String(observability.AttrToolInput, inputJson),
		)
		defer span.AddEvent(observability.EventToolExecutionEnd)
	}

	start := time.Now()

	parsedInput, err := parse.ParseStringAs[I](inputJson)
	if err != nil {
		recordFailure(span, err, 0)
		return "", err
	}

	output, err := t.Function(ctx, parsedInput)
	duration := time.Since(start)
	if err != nil {
		recordFailure(span, err, duration)
		return "", err
	}

	rendered, err := render(output)
	if err != nil {
		recordFailure(span, err, duration)
		return "", err
	}

	if span != nil {
		attrs := []observability.Attribute{
			observability.String(observability.AttrToolOutput, utils.TruncateString(rendered, utils.DefaultMaxStringLength)),
			observability.Duration(observability.AttrToolDuration, duration),
		}
		if t.Metrics != nil {
			attrs = append(attrs, observability.String(observability.AttrToolCost, t.Metrics.String()))
			if t.Metrics.AverageDurationInMillis > 0 {
				attrs = append(attrs, observability.Int64("tool.metrics.avg_duration_ms", t.Metrics.AverageDurationInMillis))
			}
		}
		span.SetAttributes(attrs...)
	}

	return rendered, nil
}

// GetMetrics returns the metrics of the tool, if any.
func (t *Tool[I, O]) GetMetrics() *cost.ToolMetrics {
	return t.Metrics
}

func recordFailure(span observability.Span, err error, duration time.Duration) {
	if span == nil {
		return
	}
	span.RecordError(err)
	attrs := []observability.Attribute{observability.String(observability.AttrToolError, err.Error())}
	if duration > 0 {
		attrs = append(attrs, observability.Duration(observability.AttrToolDuration, duration))
	}
	span.SetAttributes(attrs...)
}

// render returns string outputs as-is so that CSV or JSON produced by a tool
// reaches the caller without a second layer of quoting.
func render(output any) (string, error) {
	if s, ok := output.(string); ok {
		return s, nil
	}

	encoded, err := json.Marshal(output)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tool output: %w", err)
	}
	return string(encoded), nil
}
