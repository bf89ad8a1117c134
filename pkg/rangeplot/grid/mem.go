package grid

import (
	"fmt"

	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/models"
)

type cellKey struct {
	row, col int
}

// MemGrid is a sparse in-memory Grid.
type MemGrid struct {
	cells      map[cellKey]models.CellValue
	rows, cols int
}

// NewMemGrid returns an empty MemGrid.
func NewMemGrid() *MemGrid {
	return &MemGrid{cells: make(map[cellKey]models.CellValue)}
}

// FromRows builds a MemGrid from dense rows. Row i, column j of the
// input lands at (i, j).
func FromRows(rows [][]models.CellValue) *MemGrid {
	g := NewMemGrid()
	for r, row := range rows {
		for c, v := range row {
			g.Set(r, c, v)
		}
	}
	return g
}

// Set stores v at (row, col). Empty values and negative coordinates are ignored.
func (g *MemGrid) Set(row, col int, v models.CellValue) {
	if row < 0 || col < 0 || v.Kind == models.CellEmpty {
		return
	}
	g.cells[cellKey{row, col}] = v
	if row >= g.rows {
		g.rows = row + 1
	}
	if col >= g.cols {
		g.cols = col + 1
	}
}

// Cell implements Grid.
func (g *MemGrid) Cell(row, col int) models.CellValue {
	return g.cells[cellKey{row, col}]
}

// Dims implements Grid.
func (g *MemGrid) Dims() (rows, cols int) {
	return g.rows, g.cols
}

// MemWorkbook is an in-memory Workbook holding sheets in insertion order.
type MemWorkbook struct {
	names  []string
	sheets map[string]Grid
}

// NewMemWorkbook returns an empty MemWorkbook.
func NewMemWorkbook() *MemWorkbook {
	return &MemWorkbook{sheets: make(map[string]Grid)}
}

// Add appends a sheet. Adding an existing name replaces its grid in place.
func (w *MemWorkbook) Add(name string, g Grid) *MemWorkbook {
	if _, ok := w.sheets[name]; !ok {
		w.names = append(w.names, name)
	}
	w.sheets[name] = g
	return w
}

// SheetNames implements Workbook.
func (w *MemWorkbook) SheetNames() []string {
	return append([]string(nil), w.names...)
}

// Sheet implements Workbook.
func (w *MemWorkbook) Sheet(name string) (Grid, error) {
	g, ok := w.sheets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	return g, nil
}

// Close implements Workbook.
func (w *MemWorkbook) Close() error {
	return nil
}

// loadedWorkbook backs formats whose sheets are decoded into memory on
// first access.
type loadedWorkbook struct {
	names  []string
	load   func(index int) (Grid, error)
	close  func() error
	loaded map[int]Grid
}

func (w *loadedWorkbook) SheetNames() []string {
	return append([]string(nil), w.names...)
}

func (w *loadedWorkbook) Sheet(name string) (Grid, error) {
	for i, n := range w.names {
		if n != name {
			continue
		}
		if g, ok := w.loaded[i]; ok {
			return g, nil
		}
		g, err := w.load(i)
		if err != nil {
			return nil, err
		}
		if w.loaded == nil {
			w.loaded = make(map[int]Grid)
		}
		w.loaded[i] = g
		return g, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
}

func (w *loadedWorkbook) Close() error {
	if w.close == nil {
		return nil
	}
	return w.close()
}
