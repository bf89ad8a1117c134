package rangeplot

import (
	"fmt"

	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/grid"
	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/models"
	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/parser"
	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/sampler"
)

// Sample opens the workbook named by req, selects the requested sheet and
// returns the numeric (x, y) pairs of the two ranges. Offsets where either
// cell is not numeric are skipped. The workbook is closed before returning.
func Sample(req models.SampleRequest, opts Options) ([]models.DataPoint, error) {
	wb, err := open(req.Path, opts)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	g, _, err := sampler.ResolveSheet(wb, req.Sheet)
	if err != nil {
		return nil, NewError(classify(err), "sheet", req.Path, err)
	}

	return sampler.Pairs(g, req.X, req.Y), nil
}

// SheetInfo describes one sheet of a workbook.
type SheetInfo struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
	Cols int    `json:"cols"`
	// Numeric lists the longest numeric run of each column.
	Numeric []models.ColumnRange `json:"numeric,omitempty"`
}

// Inspect lists the sheets of a workbook in document order together with
// their populated extent and numeric columns.
func Inspect(path string, opts Options) ([]SheetInfo, error) {
	wb, err := open(path, opts)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	var sheets []SheetInfo
	for _, name := range wb.SheetNames() {
		g, err := wb.Sheet(name)
		if err != nil {
			return nil, NewError(classify(err), "sheet", path, err)
		}
		rows, cols := g.Dims()
		sheets = append(sheets, SheetInfo{
			Name:    name,
			Rows:    rows,
			Cols:    cols,
			Numeric: sampler.NumericColumns(g, sampler.DefaultDetectionParams()),
		})
	}
	return sheets, nil
}

// Suggest proposes a request for the first two numeric columns of the
// selected sheet.
func Suggest(path string, sheet *string, opts Options) (models.SampleRequest, error) {
	wb, err := open(path, opts)
	if err != nil {
		return models.SampleRequest{}, err
	}
	defer wb.Close()

	g, name, err := sampler.ResolveSheet(wb, sheet)
	if err != nil {
		return models.SampleRequest{}, NewError(classify(err), "sheet", path, err)
	}

	x, y, ok := sampler.Suggest(g, sampler.DefaultDetectionParams())
	if !ok {
		return models.SampleRequest{}, NewError(KindResolution, "suggest", path,
			fmt.Errorf("sheet %q has no pair of numeric columns", name))
	}
	return models.SampleRequest{Path: path, Sheet: &name, X: x, Y: y}, nil
}

// ChartRequests turns the charts embedded in an xlsx workbook into sample
// requests, one per series with single-column x and y ranges on the same
// sheet. Other series are skipped.
func ChartRequests(path string) ([]models.ChartSeries, []models.SampleRequest, error) {
	format, err := grid.Detect(path)
	if err != nil {
		return nil, nil, NewError(classify(err), "open", path, err)
	}
	if format != grid.FormatXLSX {
		return nil, nil, nil
	}

	series, err := parser.ExtractSeries(path)
	if err != nil {
		return nil, nil, NewError(KindFormat, "open", path, fmt.Errorf("%w: %w", grid.ErrFormat, err))
	}

	var kept []models.ChartSeries
	var reqs []models.SampleRequest
	for _, s := range series {
		xSheet, x, err := parser.ParseColumnRef(s.XRange)
		if err != nil {
			continue
		}
		ySheet, y, err := parser.ParseColumnRef(s.YRange)
		if err != nil {
			continue
		}
		if xSheet == "" {
			xSheet = s.Sheet
		}
		if ySheet == "" {
			ySheet = s.Sheet
		}
		if xSheet != ySheet {
			continue
		}
		sheet := xSheet
		kept = append(kept, s)
		reqs = append(reqs, models.SampleRequest{Path: path, Sheet: &sheet, X: x, Y: y})
	}
	return kept, reqs, nil
}

func open(path string, opts Options) (grid.Workbook, error) {
	wb, err := grid.Open(path, opts.GridOptions())
	if err != nil {
		return nil, NewError(classify(err), "open", path, err)
	}
	return wb, nil
}
