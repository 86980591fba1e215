package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/leofalp/tablescrape/providers/observability"
	"github.com/leofalp/tablescrape/providers/tool"
)

const (
	// DefaultName is the server name announced during initialization.
	DefaultName = "tablescrape"
	// DefaultVersion is the server version announced during initialization.
	DefaultVersion = "1.0.0"
)

// Server publishes the tools of a [tool.Catalog] over MCP.
type Server struct {
	mcp      *server.MCPServer
	catalog  *tool.Catalog
	observer observability.Provider
	opts     options
}

type options struct {
	name         string
	version      string
	instructions string
	observer     observability.Provider
	stdio        stdio
}

// Option configures a [Server].
type Option func(*options)

// WithName overrides [DefaultName].
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithVersion overrides [DefaultVersion].
func WithVersion(version string) Option {
	return func(o *options) {
		if version != "" {
			o.version = version
		}
	}
}

// WithInstructions sets the instructions returned to clients on initialize.
func WithInstructions(instructions string) Option {
	return func(o *options) {
		o.instructions = instructions
	}
}

// WithObserver traces every tool call and counts calls and errors.
func WithObserver(observer observability.Provider) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// New registers every tool of catalog on a new MCP server. Each tool's input
// schema is the one derived from its Go input type.
func New(catalog *tool.Catalog, opts ...Option) (*Server, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog cannot be nil")
	}

	o := options{
		name:    DefaultName,
		version: DefaultVersion,
	}
	for _, opt := range opts {
		opt(&o)
	}

	serverOpts := []server.ServerOption{
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	}
	if o.instructions != "" {
		serverOpts = append(serverOpts, server.WithInstructions(o.instructions))
	}

	s := &Server{
		mcp:      server.NewMCPServer(o.name, o.version, serverOpts...),
		catalog:  catalog,
		observer: o.observer,
		opts:     o,
	}

	for _, name := range catalog.Names() {
		t, _ := catalog.Get(name)
		mcpTool, err := toMCPTool(t.ToolInfo())
		if err != nil {
			return nil, err
		}
		s.mcp.AddTool(mcpTool, s.handler(t))
	}
	return s, nil
}

// MCPServer exposes the underlying mcp-go server, e.g. for an in-process client.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ToolCount returns the number of published tools.
func (s *Server) ToolCount() int {
	return s.catalog.Size()
}

func toMCPTool(info tool.ToolDescription) (mcp.Tool, error) {
	schema := json.RawMessage(`{"type":"object"}`)
	if info.Parameters != nil {
		raw, err := info.Parameters.JSON()
		if err != nil {
			return mcp.Tool{}, fmt.Errorf("tool %s: failed to encode input schema: %w", info.Name, err)
		}
		schema = raw
	}
	return mcp.NewToolWithRawSchema(info.Name, info.Description, schema), nil
}

// handler adapts a GenericTool to mcp-go. A failing tool yields an error
// result the client can read; the JSON-RPC call itself succeeds.
func (s *Server) handler(t tool.GenericTool) server.ToolHandlerFunc {
	info := t.ToolInfo()
	name := info.Name
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(request.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		start := time.Now()
		var span observability.Span
		if s.observer != nil {
			ctx = observability.ContextWithObserver(ctx, s.observer)
			ctx, span = s.observer.StartSpan(ctx, observability.SpanToolExecution,
				observability.String(observability.AttrToolName, name),
			)
			ctx = observability.ContextWithSpan(ctx, span)
			defer span.End()
			s.observer.Counter(observability.MetricToolCallCount).Add(ctx, 1,
				observability.String(observability.AttrToolName, name))
		}

		out, callErr := t.Call(ctx, string(args))

		if s.observer != nil {
			s.observer.Histogram(observability.MetricToolCallDuration).Record(ctx,
				float64(time.Since(start).Milliseconds()),
				observability.String(observability.AttrToolName, name))
			if callErr != nil {
				s.observer.Counter(observability.MetricToolErrorCount).Add(ctx, 1,
					observability.String(observability.AttrToolName, name))
				span.SetStatus(observability.StatusError, callErr.Error())
			} else {
				span.SetStatus(observability.StatusOK, "")
			}
		}

		if callErr != nil {
			return mcp.NewToolResultError(callErr.Error()), nil
		}
		if info.MediaOutput {
			return mediaResult(out), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}

// mediaResult sends a [tool.Media] output as an image content block.
func mediaResult(out string) *mcp.CallToolResult {
	m, err := tool.DecodeMedia(out)
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultImage(m.Text, base64.StdEncoding.EncodeToString(m.Data), m.MIMEType)
}
