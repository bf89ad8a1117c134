// Package command implements the synchronous commands invoked by the
// desktop host: greeting, whole-file text and image I/O, and range
// sampling. Each call is independent and shares no mutable state.
package command

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/ukaji3/rangeplot-go/pkg/rangeplot"
	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/models"
)

// ErrInvalidUTF8 is returned when a text file is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("stream did not contain valid UTF-8")

// Options configures a Handler.
type Options struct {
	// Sample configures workbook decoding for ReadExcel.
	Sample rangeplot.Options
	// AtomicWrites makes saves write a temporary file next to the target
	// and rename it into place. When false a save truncates and rewrites
	// the target directly.
	AtomicWrites bool
	// FileMode is the permission used for newly created files.
	FileMode os.FileMode
}

// DefaultOptions returns default handler options.
func DefaultOptions() Options {
	return Options{
		Sample:   rangeplot.DefaultOptions(),
		FileMode: 0644,
	}
}

// Handler executes commands.
type Handler struct {
	opts Options
}

// NewHandler creates a Handler.
func NewHandler(opts Options) *Handler {
	if opts.FileMode == 0 {
		opts.FileMode = DefaultOptions().FileMode
	}
	return &Handler{opts: opts}
}

// Greet returns a greeting for name.
func (h *Handler) Greet(name string) string {
	return fmt.Sprintf("Hello, %s! You've been greeted from Go!", name)
}

// SaveImage writes data to path, replacing any existing file.
func (h *Handler) SaveImage(path string, data []byte) error {
	return h.writeFile(path, data)
}

// SaveTextFile writes content to path, replacing any existing file.
func (h *Handler) SaveTextFile(path, content string) error {
	return h.writeFile(path, []byte(content))
}

// ReadTextFile returns the content of the UTF-8 text file at path.
func (h *Handler) ReadTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", rangeplot.NewError(rangeplot.KindIO, "read", path, err)
	}
	if !utf8.Valid(data) {
		return "", rangeplot.NewError(rangeplot.KindIO, "read", path, ErrInvalidUTF8)
	}
	return string(data), nil
}

// ReadExcelArgs selects two ranges of a workbook. Indices are 0-based.
type ReadExcelArgs struct {
	Path      string  `json:"path"`
	SheetName *string `json:"sheetName"`
	XCol      uint    `json:"xCol"`
	XRowStart uint    `json:"xRowStart"`
	XRowEnd   uint    `json:"xRowEnd"`
	YCol      uint    `json:"yCol"`
	YRowStart uint    `json:"yRowStart"`
	YRowEnd   uint    `json:"yRowEnd"`
}

// Request converts the arguments into a sample request. Indices beyond
// math.MaxInt are clamped to it; they address no cell either way.
func (a ReadExcelArgs) Request() models.SampleRequest {
	return models.SampleRequest{
		Path:  a.Path,
		Sheet: a.SheetName,
		X: models.ColumnRange{
			Column: clampIndex(a.XCol),
			Rows:   models.RowRange{Start: clampIndex(a.XRowStart), End: clampIndex(a.XRowEnd)},
		},
		Y: models.ColumnRange{
			Column: clampIndex(a.YCol),
			Rows:   models.RowRange{Start: clampIndex(a.YRowStart), End: clampIndex(a.YRowEnd)},
		},
	}
}

func clampIndex(u uint) int {
	if u > math.MaxInt {
		return math.MaxInt
	}
	return int(u)
}

// ReadExcel samples the (x, y) pairs selected by args.
func (h *Handler) ReadExcel(args ReadExcelArgs) ([]models.DataPoint, error) {
	return rangeplot.Sample(args.Request(), h.opts.Sample)
}

func (h *Handler) writeFile(path string, data []byte) error {
	var err error
	if h.opts.AtomicWrites {
		err = writeFileAtomic(path, data, h.opts.FileMode)
	} else {
		err = os.WriteFile(path, data, h.opts.FileMode)
	}
	if err != nil {
		return rangeplot.NewError(rangeplot.KindIO, "write", path, err)
	}
	return nil
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it over path.
func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
