package grid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/TsubasaBE/go-xlsb"
	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/models"
	"github.com/xuri/excelize/v2"
)

// firstCustomNumFmt is the lowest number format id available to
// workbook-defined formats.
const firstCustomNumFmt = 164

type xlsxWorkbook struct {
	f *excelize.File
}

func openXLSX(path string) (Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return &xlsxWorkbook{f: f}, nil
}

func (w *xlsxWorkbook) SheetNames() []string {
	return w.f.GetSheetList()
}

// Sheet matches the name exactly; excelize itself resolves names
// case-insensitively.
func (w *xlsxWorkbook) Sheet(name string) (Grid, error) {
	for _, n := range w.f.GetSheetList() {
		if n == name {
			return &xlsxSheet{f: w.f, name: name, dateStyles: make(map[int]bool)}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
}

func (w *xlsxWorkbook) Close() error {
	return w.f.Close()
}

type xlsxSheet struct {
	f    *excelize.File
	name string
	// dateStyles caches whether a style index carries a date number format.
	dateStyles map[int]bool
	rows, cols int
	measured   bool
}

func (s *xlsxSheet) Cell(row, col int) models.CellValue {
	if row < 0 || col < 0 {
		return models.Empty()
	}
	ref, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		// Beyond the sheet limits.
		return models.Empty()
	}

	typ, err := s.f.GetCellType(s.name, ref)
	if err != nil {
		return models.Empty()
	}
	raw, err := s.f.GetCellValue(s.name, ref, excelize.Options{RawCellValue: true})
	if err != nil || raw == "" {
		return models.Empty()
	}

	switch typ {
	case excelize.CellTypeBool:
		return models.Bool(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeError:
		return models.Error(raw)
	case excelize.CellTypeDate:
		return models.Date(0, raw)
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return models.Text(raw)
	}

	// Numeric cells carry no type attribute in most writers.
	v := parseValue(raw)
	if v.Kind == models.CellFloat || v.Kind == models.CellInt {
		if s.isDateStyle(ref) {
			serial, _ := strconv.ParseFloat(raw, 64)
			return models.Date(serial, raw)
		}
	}
	return v
}

// isDateStyle reports whether the cell's number format renders a date or time.
func (s *xlsxSheet) isDateStyle(ref string) bool {
	idx, err := s.f.GetCellStyle(s.name, ref)
	if err != nil || idx == 0 {
		return false
	}
	if date, ok := s.dateStyles[idx]; ok {
		return date
	}

	date := false
	if style, err := s.f.GetStyle(idx); err == nil && style != nil {
		id, format := style.NumFmt, ""
		if style.CustomNumFmt != nil {
			format = *style.CustomNumFmt
			if id < firstCustomNumFmt {
				id = firstCustomNumFmt
			}
		}
		date = xlsb.IsDateFormat(id, format)
	}
	s.dateStyles[idx] = date
	return date
}

func (s *xlsxSheet) Dims() (rows, cols int) {
	if s.measured {
		return s.rows, s.cols
	}
	s.measured = true

	all, err := s.f.GetRows(s.name, excelize.Options{RawCellValue: true})
	if err != nil {
		return 0, 0
	}
	for r, row := range all {
		for c := len(row) - 1; c >= 0; c-- {
			if row[c] == "" {
				continue
			}
			s.rows = r + 1
			if c+1 > s.cols {
				s.cols = c + 1
			}
			break
		}
	}
	return s.rows, s.cols
}
