// Package rangeplot extracts paired (x, y) samples from spreadsheet
// ranges for plotting.
package rangeplot

import "github.com/ukaji3/rangeplot-go/pkg/rangeplot/grid"

// Options configures workbook decoding.
type Options struct {
	// Charset is the code page handed to the legacy .xls decoder.
	// Empty means UTF-8.
	Charset string
	// TextEncoding names the encoding of delimited text workbooks
	// (e.g., "windows-1252"). Empty means UTF-8.
	TextEncoding string
	// Comma overrides the field delimiter for delimited text workbooks.
	Comma rune
}

// DefaultOptions returns default decoding options.
func DefaultOptions() Options {
	return Options{
		Charset: grid.DefaultOptions().Charset,
	}
}

// GridOptions returns the backend options for o.
func (o Options) GridOptions() grid.Options {
	opts := grid.DefaultOptions()
	if o.Charset != "" {
		opts.Charset = o.Charset
	}
	opts.TextEncoding = o.TextEncoding
	opts.Comma = o.Comma
	return opts
}
