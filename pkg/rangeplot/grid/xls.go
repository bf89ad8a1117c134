package grid

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/extrame/xls"
)

func openXLS(path string, opts Options) (wb Workbook, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	// extrame/xls panics on malformed BIFF records.
	defer func() {
		if r := recover(); r != nil {
			file.Close()
			wb, err = nil, fmt.Errorf("%w: %v", ErrFormat, r)
		}
	}()

	// The decoder renders every cell as a string and drops its style, so
	// date formats and formula results come from a separate record scan.
	styles, err := scanBIFF(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, err
	}

	charset := opts.Charset
	if charset == "" {
		charset = DefaultOptions().Charset
	}
	book, err := xls.OpenReader(file, charset)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if book == nil {
		file.Close()
		return nil, fmt.Errorf("%w: no workbook stream", ErrFormat)
	}

	names := make([]string, 0, book.NumSheets())
	for i := 0; i < book.NumSheets(); i++ {
		if ws := book.GetSheet(i); ws != nil {
			names = append(names, ws.Name)
		}
	}

	return &loadedWorkbook{
		names: names,
		load: func(index int) (g Grid, err error) {
			defer func() {
				if r := recover(); r != nil {
					g, err = nil, fmt.Errorf("%w: %v", ErrFormat, r)
				}
			}()

			ws := book.GetSheet(index)
			if ws == nil {
				return nil, fmt.Errorf("%w: missing sheet %d", ErrFormat, index)
			}
			mg := NewMemGrid()
			for r := 0; r <= int(ws.MaxRow) && r <= math.MaxUint16; r++ {
				row := xlsRow(ws, r)
				if row == nil {
					continue
				}
				for c := row.FirstCol(); c <= row.LastCol(); c++ {
					mg.Set(r, c, parseValue(row.Col(c)))
				}
			}
			if index < len(styles.sheets) {
				for k, v := range styles.sheets[index].cells {
					mg.Set(k.row, k.col, v)
				}
			}
			return mg, nil
		},
		close: file.Close,
	}, nil
}

// xlsRow returns row r of ws, or nil when the sheet has no such row.
// WorkSheet.Row dereferences the missing row and panics.
func xlsRow(ws *xls.WorkSheet, r int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(r)
}
