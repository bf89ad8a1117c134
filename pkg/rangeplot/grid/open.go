package grid

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/richardlehane/mscfb"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Options configures how workbooks are decoded.
type Options struct {
	// Charset is the code page name handed to the BIFF (.xls) decoder.
	Charset string
	// TextEncoding names the encoding of delimited text files
	// (e.g., "windows-1252"). Empty means UTF-8.
	TextEncoding string
	// Comma is the field delimiter for delimited text files.
	// Zero selects tab for .tsv files and comma otherwise.
	Comma rune
}

// DefaultOptions returns default decoding options.
func DefaultOptions() Options {
	return Options{
		Charset: "utf-8",
	}
}

// Open opens the workbook at path, detecting its format from content
// and, for delimited text, from the file extension.
// Errors reading the file are returned as is; parse failures wrap ErrFormat.
func Open(path string, opts Options) (Workbook, error) {
	format, err := Detect(path)
	if err != nil {
		return nil, err
	}
	return OpenFormat(path, format, opts)
}

// OpenFormat opens the workbook at path with an explicit format.
func OpenFormat(path string, format Format, opts Options) (Workbook, error) {
	switch format {
	case FormatXLSX:
		return openXLSX(path)
	case FormatXLSB:
		return openXLSB(path)
	case FormatXLS:
		return openXLS(path, opts)
	case FormatCSV:
		return openCSV(path, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Detect inspects the file at path and reports its workbook format.
func Detect(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", &os.PathError{Op: "open", Path: path, Err: errors.New("is a directory")}
	}

	header := make([]byte, len(oleMagic))
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	header = header[:n]

	switch {
	case bytes.HasPrefix(header, zipMagic):
		return detectZip(f, info.Size())
	case bytes.Equal(header, oleMagic):
		return detectCompound(f)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	}
	return "", ErrUnsupportedFormat
}

// detectZip distinguishes OOXML workbooks by their workbook part.
func detectZip(r io.ReaderAt, size int64) (Format, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFormat, err)
	}

	for _, zf := range zr.File {
		switch zf.Name {
		case "xl/workbook.xml":
			return FormatXLSX, nil
		case "xl/workbook.bin":
			return FormatXLSB, nil
		case "mimetype":
			if isODS(zf) {
				return "", fmt.Errorf("%w: OpenDocument spreadsheet", ErrUnsupportedFormat)
			}
		}
	}
	return "", ErrUnsupportedFormat
}

// detectCompound looks for a BIFF workbook stream inside an OLE
// compound file. Encrypted OOXML packages share the container.
func detectCompound(r io.ReaderAt) (Format, error) {
	doc, err := mscfb.New(r)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFormat, err)
	}

	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		switch entry.Name {
		case "Workbook", "Book":
			return FormatXLS, nil
		case "EncryptedPackage":
			return "", fmt.Errorf("%w: encrypted workbook", ErrUnsupportedFormat)
		}
	}
	return "", ErrUnsupportedFormat
}

// isODS reports whether the package mimetype names an OpenDocument
// spreadsheet.
func isODS(zf *zip.File) bool {
	rc, err := zf.Open()
	if err != nil {
		return false
	}
	defer rc.Close()
	mime, err := io.ReadAll(io.LimitReader(rc, 128))
	return err == nil && strings.Contains(string(mime), "opendocument.spreadsheet")
}
