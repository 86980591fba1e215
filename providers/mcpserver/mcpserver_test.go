package mcpserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	slogobs "github.com/leofalp/tablescrape/providers/observability/slog"
	"github.com/leofalp/tablescrape/providers/tool"
	"github.com/leofalp/tablescrape/providers/tool/plot"
	"github.com/leofalp/tablescrape/providers/tool/tableextractor"
)

const competitionTable = `<table><tr><td>Name</td><td>Score</td></tr><tr><td>A. Skater</td><td>55.2</td></tr></table>`

type stubFetcher struct {
	html string
	err  error
}

func (s stubFetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	return s.html, s.err
}

func newTestCatalog(fetcher stubFetcher) *tool.Catalog {
	return tool.NewCatalogWithTools(
		tableextractor.NewTableExtractorTool(fetcher),
		tableextractor.NewListTablesTool(fetcher),
	)
}

func startClient(t *testing.T, srv *Server) *client.Client {
	t.Helper()
	c, err := client.NewInProcessClient(srv.MCPServer())
	if err != nil {
		t.Fatalf("NewInProcessClient: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	initialize(t, c)
	return c
}

func initialize(t *testing.T, c *client.Client) {
	t.Helper()
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: "tablescrape-test", Version: "1.0.0"}
	if _, err := c.Initialize(ctx, req); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
}

func callTool(t *testing.T, c *client.Client, name string, args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := c.CallTool(context.Background(), req)
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if len(result.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(result.Content))
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text, result.IsError
}

func TestNew_NilCatalog(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil catalog")
	}
}

func TestServer_ListTools(t *testing.T) {
	srv, err := New(newTestCatalog(stubFetcher{html: competitionTable}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c := startClient(t, srv)

	result, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(result.Tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(result.Tools))
	}

	byName := map[string]mcp.Tool{}
	for _, tl := range result.Tools {
		byName[tl.Name] = tl
	}
	extract, ok := byName[tableextractor.ToolName]
	if !ok {
		t.Fatalf("missing %s in %v", tableextractor.ToolName, byName)
	}
	if extract.Description == "" {
		t.Error("expected a description")
	}

	schema, err := json.Marshal(extract)
	if err != nil {
		t.Fatalf("marshal tool: %v", err)
	}
	for _, want := range []string{`"url"`, `"table_index"`, `"output_format"`, `"required":["url"]`} {
		if !strings.Contains(string(schema), want) {
			t.Errorf("expected %s in tool schema %s", want, schema)
		}
	}
}

func TestServer_CallTool(t *testing.T) {
	srv, err := New(newTestCatalog(stubFetcher{html: competitionTable}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c := startClient(t, srv)

	text, isError := callTool(t, c, tableextractor.ToolName, map[string]any{
		"url": "https://example.com/results",
	})
	if isError || text != "Name,Score\nA. Skater,55.2\n" {
		t.Errorf("csv call = %q (isError=%v)", text, isError)
	}

	text, isError = callTool(t, c, tableextractor.ToolName, map[string]any{
		"url":           "https://example.com/results",
		"table_index":   0,
		"output_format": "json",
	})
	if isError || text != `[["Name","Score"],["A. Skater","55.2"]]` {
		t.Errorf("json call = %q (isError=%v)", text, isError)
	}
}

func TestServer_ToolErrorsBecomeErrorResults(t *testing.T) {
	tests := []struct {
		name    string
		fetcher stubFetcher
		args    map[string]any
		want    string
	}{
		{
			name:    "unsupported format",
			fetcher: stubFetcher{html: competitionTable},
			args:    map[string]any{"url": "example.com", "output_format": "xml"},
			want:    "invalid argument",
		},
		{
			name:    "missing table",
			fetcher: stubFetcher{html: competitionTable},
			args:    map[string]any{"url": "example.com", "table_index": 5},
			want:    "table not found",
		},
		{
			name:    "fetch failure",
			fetcher: stubFetcher{err: errors.New("connection refused")},
			args:    map[string]any{"url": "example.com"},
			want:    "fetch failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, err := New(newTestCatalog(tt.fetcher))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			c := startClient(t, srv)

			text, isError := callTool(t, c, tableextractor.ToolName, tt.args)
			if !isError {
				t.Fatalf("expected error result, got %q", text)
			}
			if !strings.Contains(text, tt.want) {
				t.Errorf("expected %q in %q", tt.want, text)
			}
		})
	}
}

func TestServer_PlotReturnsImage(t *testing.T) {
	srv, err := New(tool.NewCatalogWithTools(plot.NewPlotTool()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c := startClient(t, srv)

	req := mcp.CallToolRequest{}
	req.Params.Name = plot.ToolName
	req.Params.Arguments = map[string]any{
		"csv_data":  "Name,Score\nA. Skater,55.2\nB. Skater,49\n",
		"plot_type": "bar",
		"x_col":     "Name",
		"y_col":     "Score",
	}
	result, err := c.CallTool(context.Background(), req)
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %+v", result.Content)
	}

	var image *mcp.ImageContent
	var caption string
	for _, content := range result.Content {
		switch v := content.(type) {
		case mcp.ImageContent:
			image = &v
		case mcp.TextContent:
			caption = v.Text
		}
	}
	if image == nil {
		t.Fatalf("expected image content, got %+v", result.Content)
	}
	if image.MIMEType != plot.MIMEType {
		t.Errorf("MIME type = %q", image.MIMEType)
	}
	raw, err := base64.StdEncoding.DecodeString(image.Data)
	if err != nil {
		t.Fatalf("image data is not base64: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(raw)); err != nil {
		t.Errorf("image data is not a PNG: %v", err)
	}
	if caption != "bar chart, 1 series, 2 points" {
		t.Errorf("caption = %q", caption)
	}

	text, isError := callTool(t, c, plot.ToolName, map[string]any{
		"csv_data": "a,b\n1,2\n", "plot_type": "pie", "x_col": "a", "y_col": "b",
	})
	if !isError || !strings.Contains(text, "invalid argument") {
		t.Errorf("expected invalid argument error, got %q (isError=%v)", text, isError)
	}
}

func TestServer_ObserverCountsCalls(t *testing.T) {
	var logs bytes.Buffer
	observer := slogobs.New(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))

	srv, err := New(newTestCatalog(stubFetcher{html: competitionTable}), WithObserver(observer))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c := startClient(t, srv)

	callTool(t, c, tableextractor.ToolName, map[string]any{"url": "example.com"})
	callTool(t, c, tableextractor.ToolName, map[string]any{"url": "example.com", "table_index": 9})

	if got := observer.CounterValue("tablescrape.tool.call.count"); got != 2 {
		t.Errorf("expected 2 calls, got %d", got)
	}
	if got := observer.CounterValue("tablescrape.tool.error.count"); got != 1 {
		t.Errorf("expected 1 error, got %d", got)
	}
	for _, want := range []string{"tool.execution.start", "table.extracted", "span.end"} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("expected %q in logs", want)
		}
	}
}

func TestServer_StreamableHTTP(t *testing.T) {
	srv, err := New(newTestCatalog(stubFetcher{html: competitionTable}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	httpServer := httptest.NewServer(srv.Handler(TransportHTTP))
	defer httpServer.Close()

	c, err := client.NewStreamableHttpClient(httpServer.URL + "/mcp")
	if err != nil {
		t.Fatalf("NewStreamableHttpClient: %v", err)
	}
	defer c.Close()
	initialize(t, c)

	text, isError := callTool(t, c, tableextractor.ToolName, map[string]any{
		"url":           "example.com",
		"output_format": "json",
	})
	if isError || text != `[["Name","Score"],["A. Skater","55.2"]]` {
		t.Errorf("call = %q (isError=%v)", text, isError)
	}
}

func TestServer_StdioTransport(t *testing.T) {
	inReader, inWriter := io.Pipe()
	outReader, outWriter := io.Pipe()

	srv, err := New(newTestCatalog(stubFetcher{html: competitionTable}), WithStdio(inReader, outWriter))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, TransportStdio, "") }()

	responses := bufio.NewReader(outReader)
	send := func(line string) string {
		t.Helper()
		go func() { _, _ = io.WriteString(inWriter, line+"\n") }()
		resp, err := responses.ReadString('\n')
		if err != nil {
			t.Fatalf("read response: %v", err)
		}
		return resp
	}

	initResp := send(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"` + mcp.LATEST_PROTOCOL_VERSION + `","capabilities":{},"clientInfo":{"name":"stdio-test","version":"1.0.0"}}}`)
	if !strings.Contains(initResp, `"id":1`) || !strings.Contains(initResp, `"tablescrape"`) {
		t.Fatalf("unexpected initialize response %s", initResp)
	}

	callResp := send(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"extract_competition_table","arguments":{"url":"example.com","output_format":"json"}}}`)
	if !strings.Contains(callResp, `"id":2`) || !strings.Contains(callResp, `[[\"Name\",\"Score\"],[\"A. Skater\",\"55.2\"]]`) {
		t.Errorf("unexpected response %s", callResp)
	}

	cancel()
	_ = inWriter.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop after cancellation")
	}
}

func TestServe_HTTPStopsOnCancel(t *testing.T) {
	srv, err := New(newTestCatalog(stubFetcher{html: competitionTable}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, transport := range []Transport{TransportHTTP, TransportSSE} {
		t.Run(string(transport), func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- srv.Serve(ctx, transport, "127.0.0.1:0") }()

			time.Sleep(50 * time.Millisecond)
			cancel()

			select {
			case err := <-done:
				if err != nil {
					t.Errorf("Serve returned %v", err)
				}
			case <-time.After(ShutdownTimeout + time.Second):
				t.Fatal("Serve did not stop after cancellation")
			}
		})
	}
}

func TestParseTransport(t *testing.T) {
	tests := []struct {
		in      string
		want    Transport
		wantErr bool
	}{
		{in: "", want: TransportStdio},
		{in: "STDIO", want: TransportStdio},
		{in: "sse", want: TransportSSE},
		{in: "http", want: TransportHTTP},
		{in: "streamable-http", want: TransportHTTP},
		{in: "websocket", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseTransport(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseTransport(%q) = %q, %v", tt.in, got, err)
		}
	}
}
