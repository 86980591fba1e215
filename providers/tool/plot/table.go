package plot

import (
	"encoding/csv"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/tidwall/gjson"
)

// table is CSV data keyed by column name. Missing cells read as "".
type table struct {
	columns []string
	rows    []map[string]string
}

func readTable(data string) (*table, error) {
	r := csv.NewReader(strings.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: csv_data is not valid CSV: %w", ErrInvalidArgument, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: csv_data has no header row", ErrInvalidArgument)
	}

	t := &table{}
	for _, name := range records[0] {
		t.addColumn(name)
	}
	for _, record := range records[1:] {
		row := make(map[string]string, len(records[0]))
		for i, name := range records[0] {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func (t *table) has(column string) bool {
	return slices.Contains(t.columns, column)
}

func (t *table) addColumn(column string) {
	if !t.has(column) {
		t.columns = append(t.columns, column)
	}
}

// explodeRecordLists expands every column whose first non-empty cell looks
// like a list of records. Only the columns present before expansion are
// inspected.
func (t *table) explodeRecordLists() {
	for _, column := range slices.Clone(t.columns) {
		if sample := t.sample(column); strings.HasPrefix(sample, "[") && strings.Contains(sample, "{") {
			t.explode(column)
		}
	}
}

func (t *table) sample(column string) string {
	for _, row := range t.rows {
		if v := row[column]; v != "" {
			return v
		}
	}
	return ""
}

// explode replaces each row with one copy per list item, merging the fields
// of record items into the copy. Cells that do not parse as a list leave the
// row untouched; an empty list drops it.
func (t *table) explode(column string) {
	out := make([]map[string]string, 0, len(t.rows))
	for _, row := range t.rows {
		items, ok := parseList(row[column])
		if !ok {
			out = append(out, row)
			continue
		}
		for _, item := range items {
			next := maps.Clone(row)
			if item.IsObject() {
				item.ForEach(func(key, value gjson.Result) bool {
					t.addColumn(key.String())
					next[key.String()] = cellText(value)
					return true
				})
			}
			out = append(out, next)
		}
	}
	t.rows = out
}

// parseList reads a JSON list, tolerating Python literal syntax such as
// single quotes and None.
func parseList(cell string) ([]gjson.Result, bool) {
	if strings.TrimSpace(cell) == "" {
		return nil, false
	}
	repaired, err := jsonrepair.JSONRepair(cell)
	if err != nil {
		return nil, false
	}
	v := gjson.Parse(repaired)
	if !v.IsArray() {
		return nil, false
	}
	return v.Array(), true
}

func cellText(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return v.Str
	default:
		return v.Raw
	}
}

// point is one plottable row.
type point struct {
	x     string
	y     float64
	group string
}

// points returns the rows with a non-empty x and a finite numeric y, in order.
func (t *table) points(x, y, group string) []point {
	var pts []point
	for _, row := range t.rows {
		v, ok := number(row[y])
		if !ok || row[x] == "" {
			continue
		}
		pts = append(pts, point{x: row[x], y: v, group: row[group]})
	}
	return pts
}

func number(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
