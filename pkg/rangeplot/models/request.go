package models

import "math"

// RowRange is a closed interval [Start, End] of 0-based row indices.
type RowRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Count returns the number of rows in the range, saturating at
// math.MaxInt. An inverted range (End < Start) holds zero rows.
func (r RowRange) Count() int {
	if r.End < r.Start {
		return 0
	}
	d := uint(r.End) - uint(r.Start)
	if d >= math.MaxInt {
		return math.MaxInt
	}
	return int(d) + 1
}

// ColumnRange addresses a run of rows in a single 0-based column.
type ColumnRange struct {
	Column int      `json:"column"`
	Rows   RowRange `json:"rows"`
}

// SampleRequest describes one extraction of paired (x, y) samples.
type SampleRequest struct {
	// Path is the workbook location on disk.
	Path string `json:"path"`
	// Sheet selects a sheet by exact name. Nil selects the first sheet.
	Sheet *string `json:"sheet,omitempty"`
	// X is the range supplying x values.
	X ColumnRange `json:"x"`
	// Y is the range supplying y values.
	Y ColumnRange `json:"y"`
}
