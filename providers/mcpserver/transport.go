package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/leofalp/tablescrape/providers/observability"
)

// Transport selects how the server talks to clients.
type Transport string

const (
	TransportStdio Transport = "stdio"
	TransportSSE   Transport = "sse"
	TransportHTTP  Transport = "http"
)

// DefaultAddr is the listen address of the network transports.
const DefaultAddr = ":8080"

// ShutdownTimeout bounds the graceful shutdown of network transports.
const ShutdownTimeout = 5 * time.Second

// ParseTransport accepts stdio, sse and http (also "streamable-http"), case-insensitively.
func ParseTransport(s string) (Transport, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stdio":
		return TransportStdio, nil
	case "sse":
		return TransportSSE, nil
	case "http", "streamable-http", "streamable_http":
		return TransportHTTP, nil
	default:
		return "", fmt.Errorf("unknown transport %q (want stdio, sse or http)", s)
	}
}

type stdio struct {
	in  io.Reader
	out io.Writer
}

// WithStdio replaces os.Stdin and os.Stdout for the stdio transport.
func WithStdio(in io.Reader, out io.Writer) Option {
	return func(o *options) {
		o.stdio = stdio{in: in, out: out}
	}
}

// Serve runs the server on transport until ctx is cancelled or the transport
// fails. addr is ignored for stdio. Cancellation is a clean exit.
func (s *Server) Serve(ctx context.Context, transport Transport, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	if s.observer != nil {
		attrs := []observability.Attribute{
			observability.String(observability.AttrMCPTransport, string(transport)),
			observability.Int(observability.AttrMCPToolsCount, s.ToolCount()),
		}
		if transport != TransportStdio {
			attrs = append(attrs, observability.String(observability.AttrMCPAddress, addr))
		}
		s.observer.Info(ctx, "MCP server starting", attrs...)
	}

	switch transport {
	case TransportStdio:
		return s.serveStdio(ctx)
	case TransportSSE, TransportHTTP:
		return serveHTTP(ctx, &http.Server{
			Addr:              addr,
			Handler:           s.Handler(transport),
			ReadHeaderTimeout: 10 * time.Second,
		})
	default:
		return fmt.Errorf("unknown transport %q", transport)
	}
}

func (s *Server) serveStdio(ctx context.Context) error {
	in, out := s.opts.stdio.in, s.opts.stdio.out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	err := server.NewStdioServer(s.mcp).Listen(ctx, in, out)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Handler returns the HTTP handler of a network transport: SSE serves
// /sse and /message, streamable HTTP serves /mcp.
func (s *Server) Handler(transport Transport) http.Handler {
	mux := http.NewServeMux()
	switch transport {
	case TransportSSE:
		mux.Handle("/", server.NewSSEServer(s.mcp))
	default:
		mux.Handle("/mcp", server.NewStreamableHTTPServer(s.mcp))
	}
	return mux
}

// serveHTTP runs srv until it fails or ctx is done, then shuts it down.
func serveHTTP(ctx context.Context, srv *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
