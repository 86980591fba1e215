package observability

// Semantic conventions for observability attributes.
// Use these keys instead of ad-hoc strings so logs from every component line up.

// --- Tool Execution Attributes ---

const (
	// AttrToolName is the name of the tool being executed
	AttrToolName = "tool.name"

	// AttrToolInput is the tool input (serialized)
	AttrToolInput = "tool.input"

	// AttrToolOutput is the tool output (serialized)
	AttrToolOutput = "tool.output"

	// AttrToolDuration is the execution duration
	AttrToolDuration = "tool.duration"

	// AttrToolError is the error message if tool execution failed
	AttrToolError = "tool.error"

	// AttrToolCost is the human-readable tool cost
	AttrToolCost = "tool.cost"
)

// --- Table Extraction Attributes ---

const (
	// AttrTableIndex is the requested zero-based table position
	AttrTableIndex = "table.index"

	// AttrTableFormat is the requested output format
	AttrTableFormat = "table.format"

	// AttrTableRows is the number of rows in the extracted grid
	AttrTableRows = "table.rows"

	// AttrTableCount is the number of tables found in the document
	AttrTableCount = "table.count"
)

// --- Plot Attributes ---

const (
	// AttrPlotType is the chart kind (line or bar)
	AttrPlotType = "plot.type"

	// AttrPlotSeries is the number of plotted series
	AttrPlotSeries = "plot.series"

	// AttrPlotPoints is the number of rows left after cleaning
	AttrPlotPoints = "plot.points"
)

// --- HTTP Attributes ---

const (
	// AttrHTTPMethod is the HTTP method (GET, POST, etc.)
	AttrHTTPMethod = "http.method"

	// AttrHTTPStatusCode is the HTTP response status code
	AttrHTTPStatusCode = "http.status_code"

	// AttrHTTPURL is the full request URL
	AttrHTTPURL = "http.url"

	// AttrHTTPFinalURL is the URL after redirects
	AttrHTTPFinalURL = "http.final_url"

	// AttrHTTPResponseBodySize is the response body size in bytes
	AttrHTTPResponseBodySize = "http.response.body.size"

	// AttrHTTPContentType is the response Content-Type header
	AttrHTTPContentType = "http.content_type"
)

// --- MCP Server Attributes ---

const (
	// AttrMCPTransport is the transport the server runs on (stdio, sse, http)
	AttrMCPTransport = "mcp.transport"

	// AttrMCPAddress is the listen address of network transports
	AttrMCPAddress = "mcp.address"

	// AttrMCPToolsCount is the number of tools published
	AttrMCPToolsCount = "mcp.tools_count"
)

// --- General Attributes ---

const (
	// AttrError is the error message
	AttrError = "error"

	// AttrDuration is the operation duration
	AttrDuration = "duration"

	// AttrStatus is the operation status
	AttrStatus = "status"

	// AttrStatusDescription is the status description
	AttrStatusDescription = "status_description"
)

// --- Span Names ---

const (
	// SpanToolExecution is the span name for tool executions
	SpanToolExecution = "tool.execution"

	// SpanPageFetch is the span name for page retrieval
	SpanPageFetch = "page.fetch"
)

// --- Event Names ---

const (
	// EventToolExecutionStart marks the start of tool execution
	EventToolExecutionStart = "tool.execution.start"

	// EventToolExecutionEnd marks the end of tool execution
	EventToolExecutionEnd = "tool.execution.end"

	// EventPageFetched marks a completed page download
	EventPageFetched = "page.fetched"

	// EventTableExtracted marks a successful table extraction
	EventTableExtracted = "table.extracted"

	// EventPlotRendered marks a chart rendered to PNG
	EventPlotRendered = "plot.rendered"
)

// --- Metric Names ---

const (
	// MetricToolCallCount counts tool calls received by the server
	MetricToolCallCount = "tablescrape.tool.call.count"

	// MetricToolErrorCount counts tool calls that returned an error
	MetricToolErrorCount = "tablescrape.tool.error.count"

	// MetricToolCallDuration records tool call duration in milliseconds
	MetricToolCallDuration = "tablescrape.tool.call.duration"
)
