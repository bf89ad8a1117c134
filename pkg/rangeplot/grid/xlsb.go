package grid

import (
	"fmt"
	"os"
	"time"

	"github.com/TsubasaBE/go-xlsb/workbook"
	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/models"
)

func openXLSB(path string) (Workbook, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	wb, err := workbook.OpenReader(file, info.Size())
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	return &loadedWorkbook{
		names: wb.Sheets(),
		load: func(index int) (Grid, error) {
			// Sheet indices are 1-based in go-xlsb.
			ws, err := wb.Sheet(index + 1)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrFormat, err)
			}
			g := NewMemGrid()
			for row := range ws.Rows(true) {
				for _, c := range row {
					g.Set(c.R, c.C, xlsbValue(c.V, wb.Styles.IsDate(c.Style)))
				}
			}
			return g, nil
		},
		close: func() error {
			wb.Close()
			return file.Close()
		},
	}, nil
}

// xlsbValue converts a decoded BIFF12 cell value. Error cells arrive as
// their display string.
func xlsbValue(v any, dateStyle bool) models.CellValue {
	switch t := v.(type) {
	case nil:
		return models.Empty()
	case float64:
		if dateStyle {
			return models.Date(t, fmt.Sprint(t))
		}
		return models.Float(t)
	case int:
		if dateStyle {
			return models.Date(float64(t), fmt.Sprint(t))
		}
		return models.Int(int64(t))
	case int64:
		if dateStyle {
			return models.Date(float64(t), fmt.Sprint(t))
		}
		return models.Int(t)
	case bool:
		return models.Bool(t)
	case time.Time:
		return models.Date(0, t.Format(time.RFC3339))
	case string:
		if t == "" {
			return models.Empty()
		}
		if errorCodes[t] {
			return models.Error(t)
		}
		return models.Text(t)
	default:
		return models.Text(fmt.Sprint(t))
	}
}
