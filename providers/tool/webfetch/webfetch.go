package webfetch

import (
	"context"
	"fmt"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/leofalp/tablescrape/core/cost"
	"github.com/leofalp/tablescrape/providers/tool"
)

// ToolName is the name under which the markdown fetch tool is published.
const ToolName = "web_fetch"

// NewWebFetchTool returns a [tool.Tool] that fetches a page with fetcher and
// converts its HTML to Markdown. A nil fetcher means [NewHTTPFetcher] defaults.
//
// Example:
//
//	catalog := tool.NewCatalogWithTools(webfetch.NewWebFetchTool(nil))
func NewWebFetchTool(fetcher *HTTPFetcher) *tool.Tool[Input, Output] {
	if fetcher == nil {
		fetcher = NewHTTPFetcher()
	}
	return tool.NewTool[Input, Output](
		ToolName,
		func(ctx context.Context, req Input) (Output, error) {
			return fetchMarkdown(ctx, fetcher, req)
		},
		tool.WithDescription("Fetches a web page and converts its HTML content to Markdown format. Supports HTTP and HTTPS protocols. Automatically handles partial URLs by adding https:// prefix. Follows redirects and returns the final URL and clean Markdown content."),
		tool.WithMetrics(cost.ToolMetrics{
			Amount:                  0.0,
			Currency:                "USD",
			CostDescription:         "local HTTP request",
			Accuracy:                0.98,
			AverageDurationInMillis: 350,
		}),
	)
}

// Fetch retrieves req.URL with a default [HTTPFetcher] and returns its content as Markdown.
func Fetch(ctx context.Context, req Input) (Output, error) {
	return fetchMarkdown(ctx, NewHTTPFetcher(), req)
}

func fetchMarkdown(ctx context.Context, fetcher *HTTPFetcher, req Input) (Output, error) {
	var overrides []Option
	if req.TimeoutSeconds > 0 {
		overrides = append(overrides, WithTimeout(time.Duration(req.TimeoutSeconds)*time.Second))
	}
	if req.UserAgent != "" {
		overrides = append(overrides, WithUserAgent(req.UserAgent), WithRandomUserAgent(false))
	}
	if len(overrides) > 0 {
		fetcher = fetcher.with(overrides...)
	}

	page, err := fetcher.Fetch(ctx, req.URL)
	if err != nil {
		return Output{}, err
	}

	markdown, err := htmltomarkdown.ConvertString(page.HTML)
	if err != nil {
		return Output{}, fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}

	output := Output{
		URL:      page.URL,
		Markdown: markdown,
	}
	if req.IncludeHTML {
		output.HTML = page.HTML
	}
	return output, nil
}

// Input holds the parameters of the web fetch tool. Only URL is required.
type Input struct {
	// URL is the web page URL to fetch (can be partial like "example.com" or full like "https://example.com")
	URL string `json:"url" jsonschema:"description=The URL of the web page to fetch (supports partial URLs like 'example.com' or full URLs like 'https://example.com'),required"`

	// TimeoutSeconds is the request timeout in seconds (default: 30, max: 300)
	TimeoutSeconds int `json:"timeout_seconds,omitempty" jsonschema:"description=Request timeout in seconds (default: 30 max: 300),minimum=1,maximum=300"`

	// UserAgent is the User-Agent header to send with the request (optional)
	UserAgent string `json:"user_agent,omitempty" jsonschema:"description=Custom User-Agent header for the HTTP request"`

	// IncludeHTML when true includes the raw HTML content in the output alongside Markdown
	IncludeHTML bool `json:"include_html,omitempty" jsonschema:"description=When true includes the raw HTML content in the output"`
}

// Output is the result of the web fetch tool. HTML is only populated when
// [Input.IncludeHTML] is true.
type Output struct {
	// URL is the final URL after following all redirects
	URL string `json:"url" jsonschema:"description=The final URL after following all redirects and normalization"`

	// Markdown is the page content converted from HTML to Markdown format
	Markdown string `json:"markdown" jsonschema:"description=The web page content converted to Markdown format"`

	// HTML is the raw HTML content (only populated when IncludeHTML is true in Input)
	HTML string `json:"html,omitempty" jsonschema:"description=The raw HTML content (only populated when IncludeHTML is true in Input)"`
}
