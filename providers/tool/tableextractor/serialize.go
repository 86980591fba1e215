package tableextractor

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
)

// Output formats accepted by [Serialize].
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// ParseFormat normalises format and rejects anything but csv and json.
// An empty format selects [FormatCSV].
func ParseFormat(format string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(format))
	switch normalized {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatJSON:
		return normalized, nil
	default:
		return "", unsupportedFormat(format)
	}
}

func unsupportedFormat(format string) error {
	return fmt.Errorf("%w: unsupported output format %q (want %q or %q)", ErrInvalidArgument, format, FormatCSV, FormatJSON)
}

// Serialize renders grid as CSV (RFC 4180 quoting, "\n" line endings) or as a
// compact JSON array of arrays of strings.
//
// In CSV a row with no cells, or a single empty cell, is written as `""` so
// that it still reads back as one record.
func Serialize(grid Grid, format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV:
		return toCSV(grid)
	case FormatJSON:
		return toJSON(grid)
	default:
		return "", unsupportedFormat(format)
	}
}

// blankRecord is written for rows that would otherwise serialize to an empty
// line, which CSV readers skip.
const blankRecord = "\"\"\n"

func toCSV(grid Grid) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range grid {
		if len(row) == 0 || (len(row) == 1 && row[0] == "") {
			w.Flush()
			buf.WriteString(blankRecord)
			continue
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to write CSV: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write CSV: %w", err)
	}
	return buf.String(), nil
}

func toJSON(grid Grid) (string, error) {
	rows := make(Grid, len(grid))
	for i, row := range grid {
		if row == nil {
			row = []string{}
		}
		rows[i] = row
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	// Cell text such as "A&B" or "<5" stays readable.
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rows); err != nil {
		return "", fmt.Errorf("failed to encode JSON: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
