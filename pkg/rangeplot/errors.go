package rangeplot

import (
	"errors"
	"fmt"

	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/grid"
	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/sampler"
)

// ErrSheetNotFound indicates the requested sheet name is absent.
var ErrSheetNotFound = grid.ErrSheetNotFound

// ErrNoSheets indicates the workbook holds no sheet to select.
var ErrNoSheets = sampler.ErrNoSheets

// ErrUnsupportedFormat indicates content that is not a known workbook format.
var ErrUnsupportedFormat = grid.ErrUnsupportedFormat

// Kind classifies a failure.
type Kind string

const (
	// KindIO covers missing files, permission problems and failed writes.
	KindIO Kind = "io"
	// KindFormat covers content that cannot be parsed as a workbook.
	KindFormat Kind = "format"
	// KindResolution covers an absent sheet or a workbook without sheets.
	KindResolution Kind = "resolution"
)

// Error is a failure of a single command, tagged with its kind. The
// underlying cause is kept for errors.Is and errors.As.
type Error struct {
	Kind Kind
	Op   string // "open", "sheet", "read", "write"
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error.
func NewError(kind Kind, op, path string, err error) *Error {
	return &Error{
		Kind: kind,
		Op:   op,
		Path: path,
		Err:  err,
	}
}

// KindOf reports the kind of err. Errors not produced by this package
// are treated as I/O failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return classify(err)
}

// classify maps a cause to its kind.
func classify(err error) Kind {
	switch {
	case errors.Is(err, grid.ErrSheetNotFound), errors.Is(err, sampler.ErrNoSheets):
		return KindResolution
	case errors.Is(err, grid.ErrFormat):
		return KindFormat
	default:
		return KindIO
	}
}
