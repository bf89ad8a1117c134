// Package sampler extracts paired numeric samples from sheet grids.
//
// The pipeline is split into pure stages that work on the grid.Grid
// capability: sheet resolution, cell coercion and the pairwise
// zip-and-filter over two column ranges.
package sampler

import (
	"errors"
	"fmt"
	"math"

	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/grid"
	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/models"
)

// maxPrealloc bounds the up-front allocation for very long ranges.
const maxPrealloc = 1 << 16

// ErrNoSheets indicates a workbook without any sheet to select.
var ErrNoSheets = errors.New("workbook has no sheets")

// ResolveSheet selects the sheet to sample. A nil selector picks the first
// sheet in document order; otherwise the name must match exactly.
// It returns the grid along with the resolved sheet name.
func ResolveSheet(wb grid.Workbook, selector *string) (grid.Grid, string, error) {
	names := wb.SheetNames()

	name := ""
	if selector != nil {
		name = *selector
		found := false
		for _, n := range names {
			if n == name {
				found = true
				break
			}
		}
		if !found {
			return nil, "", fmt.Errorf("%w: %q", grid.ErrSheetNotFound, name)
		}
	} else {
		if len(names) == 0 {
			return nil, "", ErrNoSheets
		}
		name = names[0]
	}

	g, err := wb.Sheet(name)
	if err != nil {
		return nil, "", err
	}
	return g, name, nil
}

// Coerce converts a cell to a number. Floats pass through, integers are
// widened and text is parsed as a float literal. Every other kind
// (empty, bool, error, date) has no numeric value.
func Coerce(v models.CellValue) (float64, bool) {
	switch v.Kind {
	case models.CellFloat:
		return v.Float, true
	case models.CellInt:
		return float64(v.Int), true
	case models.CellText:
		return grid.ParseFloat(v.Text)
	default:
		return 0, false
	}
}

// Pairs walks the x and y ranges in lockstep and returns a point for every
// offset where both cells coerce to a number. Ranges of unequal length are
// truncated to the shorter one. Points keep the declared row order.
//
// Offsets whose x or y row lies outside the grid's populated rows hold
// empty cells, so only the overlap with the grid is walked.
func Pairs(g grid.Grid, x, y models.ColumnRange) []models.DataPoint {
	rows, _ := g.Dims()
	xlo, xhi := window(x.Rows.Start, rows)
	ylo, yhi := window(y.Rows.Start, rows)
	lo := max(xlo, ylo)
	hi := min(x.Rows.Count(), y.Rows.Count(), xhi, yhi)
	if hi <= lo {
		return []models.DataPoint{}
	}

	points := make([]models.DataPoint, 0, min(hi-lo, maxPrealloc))
	for i := lo; i < hi; i++ {
		xv, ok := Coerce(g.Cell(x.Rows.Start+i, x.Column))
		if !ok {
			continue
		}
		yv, ok := Coerce(g.Cell(y.Rows.Start+i, y.Column))
		if !ok {
			continue
		}
		points = append(points, models.DataPoint{X: xv, Y: yv})
	}
	return points
}

// window returns the offsets [lo, hi) for which start+offset is a row in
// [0, rows).
func window(start, rows int) (lo, hi int) {
	if start >= rows {
		return 0, 0
	}
	if start >= 0 {
		return 0, rows - start
	}
	skip := uint(0) - uint(start)
	if skip > math.MaxInt {
		return 0, 0
	}
	lo = int(skip)
	if rows > math.MaxInt-lo {
		return lo, math.MaxInt
	}
	return lo, lo + rows
}
