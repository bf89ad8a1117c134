package models

import "strconv"

// CellKind is the discriminated kind of a cell's content.
type CellKind int

const (
	// CellEmpty is a blank or missing cell, including out-of-bounds lookups.
	CellEmpty CellKind = iota
	// CellFloat is a floating-point number.
	CellFloat
	// CellInt is an integer number.
	CellInt
	// CellText is a string, including formula string results.
	CellText
	// CellBool is a boolean.
	CellBool
	// CellError is an error value such as #DIV/0!.
	CellError
	// CellDate is a date or time, stored natively or as a date-formatted number.
	CellDate
)

var cellKindNames = map[CellKind]string{
	CellEmpty: "empty",
	CellFloat: "float",
	CellInt:   "int",
	CellText:  "text",
	CellBool:  "bool",
	CellError: "error",
	CellDate:  "date",
}

func (k CellKind) String() string {
	if s, ok := cellKindNames[k]; ok {
		return s
	}
	return "CellKind(" + strconv.Itoa(int(k)) + ")"
}

// CellValue is a single cell read from a sheet grid.
type CellValue struct {
	Kind CellKind
	// Float holds the value of a CellFloat (and the serial of a CellDate
	// when the backend exposes one).
	Float float64
	// Int holds the value of a CellInt.
	Int int64
	// Text holds the value of a CellText, or the raw rendering of a
	// CellBool, CellError or CellDate.
	Text string
}

// Empty returns the blank cell value.
func Empty() CellValue { return CellValue{} }

// Float returns a float cell value.
func Float(f float64) CellValue { return CellValue{Kind: CellFloat, Float: f} }

// Int returns an integer cell value.
func Int(i int64) CellValue { return CellValue{Kind: CellInt, Int: i} }

// Text returns a text cell value.
func Text(s string) CellValue { return CellValue{Kind: CellText, Text: s} }

// Bool returns a boolean cell value.
func Bool(b bool) CellValue {
	return CellValue{Kind: CellBool, Text: strconv.FormatBool(b)}
}

// Error returns an error cell value carrying its display code.
func Error(code string) CellValue { return CellValue{Kind: CellError, Text: code} }

// Date returns a date cell value. serial is the spreadsheet serial number
// when known, raw the textual form stored in the file.
func Date(serial float64, raw string) CellValue {
	return CellValue{Kind: CellDate, Float: serial, Text: raw}
}
