package jsondata

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/leofalp/tablescrape/core/cost"
	"github.com/leofalp/tablescrape/providers/tool"
)

// ToolName is the name under which the JSON file converter is published.
const ToolName = "get_json_data"

var (
	// ErrRead reports a file that could not be opened or read.
	ErrRead = errors.New("cannot read JSON file")

	// ErrDecode reports content that is not JSON or not made of objects.
	ErrDecode = errors.New("cannot decode JSON data")
)

// Input holds the arguments of the get_json_data tool.
type Input struct {
	Filepath string `json:"filepath" jsonschema:"description=Path to a JSON file holding an object or an array of objects,required"`
}

// NewJSONDataTool publishes [ReadFile] as get_json_data.
func NewJSONDataTool() *tool.Tool[Input, string] {
	return tool.NewTool[Input, string](
		ToolName,
		func(ctx context.Context, input Input) (string, error) {
			return ReadFile(input.Filepath)
		},
		tool.WithDescription("Reads a local JSON file and returns its content as CSV with a header row. Nested objects become dotted column names; lists are kept as JSON text."),
		tool.WithMetrics(cost.ToolMetrics{
			Amount:                  0.0,
			Currency:                "USD",
			CostDescription:         "local file read",
			Accuracy:                1.0,
			AverageDurationInMillis: 5,
		}),
	)
}

// ReadFile reads path and converts it with [ToCSV].
func ReadFile(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: file path cannot be empty", ErrRead)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRead, err)
	}
	return ToCSV(data)
}

// ToCSV flattens a JSON object, or an array of objects, into CSV.
//
// Nested objects become columns named by their dotted path ("athlete.name").
// Columns appear in the order they are first seen across records; a record
// lacking a column leaves the cell empty. Arrays are written as compact JSON,
// null as an empty cell and numbers exactly as written in the source.
func ToCSV(data []byte) (string, error) {
	columns, records, err := Flatten(data)
	if err != nil {
		return "", err
	}
	if len(columns) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, record := range records {
		row := make([]string, len(columns))
		for i, column := range columns {
			row[i] = record[column]
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write CSV: %w", err)
	}
	return buf.String(), nil
}

// Flatten returns the column names in first-seen order and one map per record.
func Flatten(data []byte) ([]string, []map[string]string, error) {
	if !gjson.ValidBytes(data) {
		return nil, nil, fmt.Errorf("%w: invalid JSON", ErrDecode)
	}

	root := gjson.ParseBytes(data)
	var items []gjson.Result
	switch {
	case root.IsObject():
		items = []gjson.Result{root}
	case root.IsArray():
		items = root.Array()
	default:
		return nil, nil, fmt.Errorf("%w: expected an object or an array of objects, got %s", ErrDecode, root.Type)
	}

	f := &flattener{seen: make(map[string]bool)}
	records := make([]map[string]string, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return nil, nil, fmt.Errorf("%w: element %d is not an object", ErrDecode, i)
		}
		record := make(map[string]string)
		f.walk("", item, record)
		records = append(records, record)
	}
	return f.columns, records, nil
}

type flattener struct {
	columns []string
	seen    map[string]bool
}

func (f *flattener) walk(prefix string, obj gjson.Result, record map[string]string) {
	obj.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if prefix != "" {
			name = prefix + "." + name
		}
		if value.IsObject() {
			f.walk(name, value, record)
			return true
		}
		f.add(name)
		record[name] = cellValue(value)
		return true
	})
}

func (f *flattener) add(column string) {
	if f.seen[column] {
		return
	}
	f.seen[column] = true
	f.columns = append(f.columns, column)
}

func cellValue(value gjson.Result) string {
	switch value.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return value.Str
	case gjson.Number, gjson.True, gjson.False:
		return value.Raw
	default:
		// arrays
		return gjson.Get(value.Raw, "@ugly").Raw
	}
}
