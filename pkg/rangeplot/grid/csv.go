package grid

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// openCSV reads a delimited text file as a single-sheet workbook named
// after the file.
func openCSV(path string, opts Options) (Workbook, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var src io.Reader = file
	if opts.TextEncoding != "" {
		enc, err := lookupCharmap(opts.TextEncoding)
		if err != nil {
			return nil, err
		}
		src = enc.NewDecoder().Reader(file)
	}

	br := bufio.NewReader(src)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.Comma = opts.Comma
	if r.Comma == 0 {
		r.Comma = ','
		if strings.EqualFold(filepath.Ext(path), ".tsv") {
			r.Comma = '\t'
		}
	}

	g := NewMemGrid()
	for row := 0; ; row++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		for col, field := range record {
			g.Set(row, col, parseValue(field))
		}
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &loadedWorkbook{
		names: []string{name},
		load: func(int) (Grid, error) {
			return g, nil
		},
	}, nil
}

// lookupCharmap resolves a single-byte encoding by name, ignoring case
// and separators ("windows-1252" matches "Windows 1252").
func lookupCharmap(name string) (encoding.Encoding, error) {
	want := normalizeEncodingName(name)
	for _, enc := range charmap.All {
		s, ok := enc.(fmt.Stringer)
		if ok && normalizeEncodingName(s.String()) == want {
			return enc, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown text encoding %q", ErrFormat, name)
}

func normalizeEncodingName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(s))
}
