package tableextractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/leofalp/tablescrape/core/cost"
	"github.com/leofalp/tablescrape/providers/observability"
	"github.com/leofalp/tablescrape/providers/tool"
	"github.com/leofalp/tablescrape/providers/tool/webfetch"
)

// Names under which the tools are published.
const (
	ToolName       = "extract_competition_table"
	ListTablesName = "list_tables"
)

// Input holds the arguments of the extract_competition_table tool.
type Input struct {
	URL          string     `json:"url" jsonschema:"description=URL of the page holding the table (partial URLs get https://),required"`
	TableIndex   TableIndex `json:"table_index,omitempty" jsonschema:"description=Zero-based position of the table among all tables of the page,default=0,minimum=0"`
	OutputFormat string     `json:"output_format,omitempty" jsonschema:"description=Serialization of the table,enum=csv,enum=json,default=csv"`
}

// TableIndex is the zero-based table position sent by a client. It decodes
// from a JSON integer, an integral number such as 2.0, or a string holding
// one. Anything else fails with [ErrInvalidArgument].
type TableIndex int

func (i *TableIndex) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if text == "null" {
		return nil
	}
	if strings.HasPrefix(text, `"`) {
		var quoted string
		if err := json.Unmarshal(data, &quoted); err != nil {
			return invalidIndex(data)
		}
		text = strings.TrimSpace(quoted)
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return invalidIndex(data)
	}
	*i = TableIndex(f)
	return nil
}

func invalidIndex(data []byte) error {
	return fmt.Errorf("%w: table_index must be an integer, got %s", ErrInvalidArgument, data)
}

// ListInput holds the arguments of the list_tables tool.
type ListInput struct {
	URL string `json:"url" jsonschema:"description=URL of the page to inspect,required"`
}

// Extractor ties a [webfetch.Fetcher] to [Extract] and [Serialize].
type Extractor struct {
	fetcher webfetch.Fetcher
}

// New returns an Extractor using fetcher, or a default [webfetch.HTTPFetcher] when nil.
func New(fetcher webfetch.Fetcher) *Extractor {
	if fetcher == nil {
		fetcher = webfetch.NewHTTPFetcher()
	}
	return &Extractor{fetcher: fetcher}
}

// NewTableExtractorTool publishes [Extractor.Run] as extract_competition_table.
func NewTableExtractorTool(fetcher webfetch.Fetcher) *tool.Tool[Input, string] {
	return tool.NewTool[Input, string](
		ToolName,
		New(fetcher).Run,
		tool.WithDescription("Fetches a web page and returns one of its HTML tables, selected by zero-based index in document order, serialized as CSV or as a JSON array of rows. Header and data rows are returned together in document order."),
		tool.WithMetrics(cost.ToolMetrics{
			Amount:                  0.0,
			Currency:                "USD",
			CostDescription:         "local HTTP request and HTML parsing",
			Accuracy:                0.97,
			AverageDurationInMillis: 400,
		}),
	)
}

// NewListTablesTool publishes [Extractor.Tables] as list_tables.
func NewListTablesTool(fetcher webfetch.Fetcher) *tool.Tool[ListInput, []TableSummary] {
	return tool.NewTool[ListInput, []TableSummary](
		ListTablesName,
		New(fetcher).Tables,
		tool.WithDescription("Fetches a web page and lists its HTML tables with index, caption, row count and column count, so the right table_index can be chosen."),
		tool.WithMetrics(cost.ToolMetrics{
			Amount:                  0.0,
			Currency:                "USD",
			CostDescription:         "local HTTP request and HTML parsing",
			Accuracy:                0.97,
			AverageDurationInMillis: 400,
		}),
	)
}

// Run fetches input.URL and returns the selected table in the requested format.
// Arguments are validated before any network access.
func (e *Extractor) Run(ctx context.Context, input Input) (string, error) {
	format, err := ParseFormat(input.OutputFormat)
	if err != nil {
		return "", err
	}

	grid, err := e.Grid(ctx, input.URL, int(input.TableIndex))
	if err != nil {
		return "", err
	}

	out, err := Serialize(grid, format)
	if err != nil {
		return "", err
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventTableExtracted,
			observability.Int(observability.AttrTableIndex, int(input.TableIndex)),
			observability.Int(observability.AttrTableRows, grid.Rows()),
			observability.String(observability.AttrTableFormat, format),
		)
	}
	return out, nil
}

// Grid fetches url and extracts the table at tableIndex.
func (e *Extractor) Grid(ctx context.Context, url string, tableIndex int) (Grid, error) {
	if tableIndex < 0 {
		return nil, fmt.Errorf("%w: table index must be >= 0, got %d", ErrInvalidArgument, tableIndex)
	}

	page, err := e.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return Extract(page, tableIndex)
}

// Tables fetches input.URL and summarises its tables.
func (e *Extractor) Tables(ctx context.Context, input ListInput) ([]TableSummary, error) {
	page, err := e.fetch(ctx, input.URL)
	if err != nil {
		return nil, err
	}

	summaries, err := ListTables(page)
	if err != nil {
		return nil, err
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.SetAttributes(observability.Int(observability.AttrTableCount, len(summaries)))
	}
	return summaries, nil
}

func (e *Extractor) fetch(ctx context.Context, url string) (string, error) {
	page, err := e.fetcher.FetchHTML(ctx, url)
	if err != nil {
		if !errors.Is(err, ErrFetch) {
			err = fmt.Errorf("%w: %w", ErrFetch, err)
		}
		return "", err
	}
	return page, nil
}
