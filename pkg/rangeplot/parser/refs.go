// Package parser reads workbook metadata that the cell grid does not
// expose: chart series declarations and A1-style range references.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/models"
	"github.com/xuri/excelize/v2"
)

// ErrNotColumnRange indicates a reference spanning more than one column.
var ErrNotColumnRange = errors.New("reference must span a single column")

// ParseColumnRef parses a single-column reference such as
// 'My Sheet'!$A$2:$A$10, Sheet1!B2:B5 or A1:A20 into its sheet name
// (empty when the reference is unqualified) and 0-based column range.
// A single cell (A5) yields a one-row range.
func ParseColumnRef(ref string) (string, models.ColumnRange, error) {
	ref = strings.TrimSpace(ref)
	// Chart formulas may wrap the reference in parentheses.
	ref = strings.TrimSuffix(strings.TrimPrefix(ref, "("), ")")

	var sheet string
	if idx := strings.LastIndex(ref, "!"); idx >= 0 {
		sheet = unquoteSheet(ref[:idx])
		ref = ref[idx+1:]
	}

	// Remove $ signs
	ref = strings.ReplaceAll(ref, "$", "")

	parts := strings.Split(ref, ":")
	if len(parts) > 2 {
		return "", models.ColumnRange{}, fmt.Errorf("invalid range reference %q", ref)
	}

	startCol, startRow, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return "", models.ColumnRange{}, err
	}
	endCol, endRow := startCol, startRow
	if len(parts) == 2 {
		endCol, endRow, err = excelize.CellNameToCoordinates(parts[1])
		if err != nil {
			return "", models.ColumnRange{}, err
		}
	}

	if startCol != endCol {
		return "", models.ColumnRange{}, fmt.Errorf("%w: %q", ErrNotColumnRange, ref)
	}

	return sheet, models.ColumnRange{
		Column: startCol - 1,
		Rows:   models.RowRange{Start: startRow - 1, End: endRow - 1},
	}, nil
}

// FormatColumnRef renders a column range as an absolute A1 reference,
// qualified with sheet when it is non-empty.
func FormatColumnRef(sheet string, r models.ColumnRange) (string, error) {
	start, err := excelize.CoordinatesToCellName(r.Column+1, r.Rows.Start+1, true)
	if err != nil {
		return "", err
	}
	end, err := excelize.CoordinatesToCellName(r.Column+1, r.Rows.End+1, true)
	if err != nil {
		return "", err
	}

	ref := start + ":" + end
	if sheet == "" {
		return ref, nil
	}
	return quoteSheet(sheet) + "!" + ref, nil
}

// unquoteSheet strips the quotes around a sheet name, undoing doubled
// apostrophes inside it.
func unquoteSheet(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	return s
}

func quoteSheet(s string) string {
	if strings.ContainsAny(s, " '!-+(),;") {
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
	return s
}
