package plot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/leofalp/tablescrape/core/cost"
	"github.com/leofalp/tablescrape/providers/observability"
	"github.com/leofalp/tablescrape/providers/tool"
)

// ToolName is the name under which the chart renderer is published.
const ToolName = "generate_plot"

// MIMEType is the format of every rendered chart.
const MIMEType = "image/png"

var (
	// ErrInvalidArgument reports an unknown plot type, unreadable CSV or a missing column.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoData reports that no row has a numeric Y value.
	ErrNoData = errors.New("no data to plot")

	// ErrRender reports a failure drawing or encoding the chart.
	ErrRender = errors.New("cannot render plot")
)

// Kind is the chart type.
type Kind string

const (
	KindLine Kind = "line"
	KindBar  Kind = "bar"
)

// ParseKind accepts "line" or "bar" in any case.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindLine, KindBar:
		return k, nil
	}
	return "", fmt.Errorf("%w: unsupported plot type %q (want line or bar)", ErrInvalidArgument, s)
}

// Input holds the arguments of the generate_plot tool.
type Input struct {
	CSVData  string `json:"csv_data" jsonschema:"description=CSV text with a header row such as the output of extract_competition_table,required"`
	PlotType string `json:"plot_type" jsonschema:"description=Chart type,enum=line,enum=bar,required"`
	XCol     string `json:"x_col" jsonschema:"description=Column for the X axis,required"`
	YCol     string `json:"y_col" jsonschema:"description=Numeric column for the Y axis; rows where it is not a number are skipped,required"`
	GroupCol string `json:"group_col,omitempty" jsonschema:"description=Optional column splitting the data into one series per value"`
	FilePath string `json:"file_path,omitempty" jsonschema:"description=Optional path where the PNG is also written"`
}

// NewPlotTool publishes [Run] as generate_plot.
func NewPlotTool() *tool.Tool[Input, tool.Media] {
	return tool.NewTool[Input, tool.Media](
		ToolName,
		Run,
		tool.WithDescription("Renders CSV data as a PNG line or bar chart. With group_col each distinct value becomes its own line or bar series. Columns holding lists of records are expanded into one row per record before plotting."),
		tool.WithMetrics(cost.ToolMetrics{
			Amount:                  0.0,
			Currency:                "USD",
			CostDescription:         "local chart rendering",
			Accuracy:                1.0,
			AverageDurationInMillis: 150,
		}),
	)
}

// Run renders input and, when input.FilePath is set, also writes the PNG there.
func Run(ctx context.Context, input Input) (tool.Media, error) {
	chart, err := Generate(input)
	if err != nil {
		return tool.Media{}, err
	}

	if input.FilePath != "" {
		if err := os.WriteFile(input.FilePath, chart.PNG, 0o644); err != nil {
			return tool.Media{}, fmt.Errorf("failed to write plot %s: %w", input.FilePath, err)
		}
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventPlotRendered,
			observability.String(observability.AttrPlotType, string(chart.Kind)),
			observability.Int(observability.AttrPlotSeries, chart.Series),
			observability.Int(observability.AttrPlotPoints, chart.Points),
		)
	}

	return tool.Media{
		MIMEType: MIMEType,
		Data:     chart.PNG,
		Text:     chart.Summary(),
	}, nil
}

// Chart is a rendered plot and what went into it.
type Chart struct {
	Kind   Kind
	Series int
	Points int
	PNG    []byte
}

// Summary describes the chart in one line.
func (c Chart) Summary() string {
	return fmt.Sprintf("%s chart, %d series, %d points", c.Kind, c.Series, c.Points)
}

// Generate parses input.CSVData, cleans it and renders it as a PNG.
// A group column absent from the data is ignored.
func Generate(input Input) (Chart, error) {
	kind, err := ParseKind(input.PlotType)
	if err != nil {
		return Chart{}, err
	}
	if input.XCol == "" || input.YCol == "" {
		return Chart{}, fmt.Errorf("%w: x_col and y_col are required", ErrInvalidArgument)
	}

	t, err := readTable(input.CSVData)
	if err != nil {
		return Chart{}, err
	}
	t.explodeRecordLists()
	for _, column := range []string{input.XCol, input.YCol} {
		if !t.has(column) {
			return Chart{}, fmt.Errorf("%w: column %q not in csv_data (have %s)", ErrInvalidArgument, column, strings.Join(t.columns, ", "))
		}
	}

	grouped := input.GroupCol != "" && t.has(input.GroupCol)
	all := split(t.points(input.XCol, input.YCol, input.GroupCol), grouped)
	if len(all) == 0 {
		return Chart{}, fmt.Errorf("%w: no row has a numeric %q", ErrNoData, input.YCol)
	}

	png, err := render(kind, all, input.XCol, input.YCol)
	if err != nil {
		return Chart{}, err
	}

	points := 0
	for _, s := range all {
		points += len(s.points)
	}
	return Chart{Kind: kind, Series: len(all), Points: points, PNG: png}, nil
}
