package sampler

import (
	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/grid"
	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/models"
)

// DetectionParams holds parameters for numeric column detection.
type DetectionParams struct {
	// MinRun is the fewest consecutive numeric cells that count as a series.
	MinRun int
	// MaxGap is the number of non-numeric cells tolerated inside a run.
	MaxGap int
}

// DefaultDetectionParams returns default detection parameters.
func DefaultDetectionParams() DetectionParams {
	return DetectionParams{
		MinRun: 3,
		MaxGap: 0,
	}
}

// NumericColumns returns, for every column of the populated area, the
// longest run of numeric cells meeting params. Columns without such a
// run are omitted. Results are ordered by column.
func NumericColumns(g grid.Grid, params DetectionParams) []models.ColumnRange {
	rows, cols := g.Dims()

	var result []models.ColumnRange
	for col := 0; col < cols; col++ {
		best, ok := longestRun(g, col, rows, params.MaxGap)
		if !ok || best.Count() < params.MinRun {
			continue
		}
		result = append(result, models.ColumnRange{Column: col, Rows: best})
	}
	return result
}

// longestRun finds the longest stretch of numeric cells in a column,
// bridging at most maxGap non-numeric cells between numeric ones.
func longestRun(g grid.Grid, col, rows, maxGap int) (models.RowRange, bool) {
	var best models.RowRange
	found := false

	start, last, gap := -1, -1, 0
	flush := func() {
		if start < 0 {
			return
		}
		run := models.RowRange{Start: start, End: last}
		if !found || run.Count() > best.Count() {
			best, found = run, true
		}
		start, last, gap = -1, -1, 0
	}

	for row := 0; row < rows; row++ {
		if _, ok := Coerce(g.Cell(row, col)); ok {
			if start < 0 {
				start = row
			}
			last, gap = row, 0
			continue
		}
		if start >= 0 {
			gap++
			if gap > maxGap {
				flush()
			}
		}
	}
	flush()

	return best, found
}

// Suggest proposes x and y ranges from the first two numeric columns,
// restricted to the rows both cover. ok is false when the sheet holds
// fewer than two qualifying columns or their rows do not overlap enough.
func Suggest(g grid.Grid, params DetectionParams) (x, y models.ColumnRange, ok bool) {
	columns := NumericColumns(g, params)
	if len(columns) < 2 {
		return x, y, false
	}

	x, y = columns[0], columns[1]
	common := models.RowRange{
		Start: max(x.Rows.Start, y.Rows.Start),
		End:   min(x.Rows.End, y.Rows.End),
	}
	if common.Count() < params.MinRun {
		return x, y, false
	}
	x.Rows, y.Rows = common, common
	return x, y, true
}
