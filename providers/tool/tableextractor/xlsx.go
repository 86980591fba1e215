package tableextractor

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/leofalp/tablescrape/internal/utils"
)

// DefaultSheetName is the worksheet used by [WriteXLSX] when none is given.
const DefaultSheetName = "Table"

// WriteXLSX writes grid as a single-sheet workbook to w. Every cell is stored
// as text, the same as in the CSV and JSON renderings.
func WriteXLSX(w io.Writer, grid Grid, sheet string) error {
	if sheet == "" {
		sheet = DefaultSheetName
	}

	f := excelize.NewFile()
	defer utils.CloseWithLog(f)

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("%w: sheet name %q: %w", ErrInvalidArgument, sheet, err)
	}

	for i, row := range grid {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
