// Package grid provides read-only cell access over the workbook formats
// the sampler understands. Every backend exposes the same narrow Grid
// capability so range extraction never touches a format library directly.
package grid

import (
	"errors"
	"fmt"

	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/models"
)

// ErrFormat marks a workbook that could not be parsed. Backend parser
// errors are wrapped with it so callers can tell them apart from I/O
// failures.
var ErrFormat = errors.New("invalid workbook format")

// ErrUnsupportedFormat indicates content that is not any recognised
// workbook format. It wraps ErrFormat.
var ErrUnsupportedFormat = fmt.Errorf("%w: unsupported workbook format", ErrFormat)

// ErrSheetNotFound is returned when a sheet name is absent from a workbook.
var ErrSheetNotFound = errors.New("sheet not found")

// Grid is a 2D sheet of cells addressed by 0-based (row, column).
// Lookups outside the populated area resolve to an empty cell.
type Grid interface {
	Cell(row, col int) models.CellValue
	// Dims returns the extent of the populated area: one past the last
	// used row and column.
	Dims() (rows, cols int)
}

// Workbook is an opened spreadsheet document.
type Workbook interface {
	// SheetNames returns sheet names in document order.
	SheetNames() []string
	// Sheet returns the grid for the sheet with the exact given name.
	Sheet(name string) (Grid, error)
	Close() error
}

// Format identifies a workbook container format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLSB Format = "xlsb"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
)
