package grid

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf16"

	"github.com/TsubasaBE/go-xlsb"
	"github.com/richardlehane/mscfb"
	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/models"
)

// BIFF8 record identifiers read by the style scan.
const (
	biffEOF        = 0x000A
	biffFormula    = 0x0006
	biffBoundSheet = 0x0085
	biffMulRK      = 0x00BD
	biffXF         = 0x00E0
	biffNumber     = 0x0203
	biffRK         = 0x027E
	biffFormat     = 0x041E
)

// biffSheet holds the cells whose value the xls decoder cannot type:
// numbers carrying a date number format and formulas with a cached
// numeric result.
type biffSheet struct {
	cells map[cellKey]models.CellValue
}

// biffBook is the result of scanning a BIFF8 workbook stream for cell
// number formats. Sheets are in BOUNDSHEET order.
type biffBook struct {
	formats   map[uint16]string
	xfFormats []uint16
	sheets    []biffSheet
}

// scanBIFF reads the workbook stream of the compound file in r and
// collects date-formatted and formula cells of every sheet.
func scanBIFF(r io.ReaderAt) (*biffBook, error) {
	doc, err := mscfb.New(r)
	if err != nil {
		return nil, err
	}

	var data []byte
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name == "Workbook" || entry.Name == "Book" {
			if data, err = io.ReadAll(entry); err != nil {
				return nil, err
			}
			break
		}
	}
	if data == nil {
		return nil, errors.New("no workbook stream")
	}

	book := &biffBook{formats: make(map[uint16]string)}
	var offsets []uint32
	err = walkRecords(data, 0, func(id uint16, body []byte) bool {
		switch id {
		case biffFormat:
			if len(body) >= 2 {
				book.formats[binary.LittleEndian.Uint16(body)] = readXLString(body[2:])
			}
		case biffXF:
			if len(body) >= 4 {
				book.xfFormats = append(book.xfFormats, binary.LittleEndian.Uint16(body[2:]))
			}
		case biffBoundSheet:
			if len(body) >= 4 {
				offsets = append(offsets, binary.LittleEndian.Uint32(body))
			}
		case biffEOF:
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	for _, off := range offsets {
		sheet, err := book.scanSheet(data, int(off))
		if err != nil {
			return nil, err
		}
		book.sheets = append(book.sheets, sheet)
	}
	return book, nil
}

func (b *biffBook) scanSheet(data []byte, off int) (biffSheet, error) {
	sheet := biffSheet{cells: make(map[cellKey]models.CellValue)}
	err := walkRecords(data, off, func(id uint16, body []byte) bool {
		switch id {
		case biffNumber:
			if len(body) >= 14 {
				row, col, xf := cellHeader(body)
				v := math.Float64frombits(binary.LittleEndian.Uint64(body[6:]))
				b.setDate(sheet, row, col, xf, v)
			}
		case biffRK:
			if len(body) >= 10 {
				row, col, xf := cellHeader(body)
				b.setDate(sheet, row, col, xf, rkValue(binary.LittleEndian.Uint32(body[6:])))
			}
		case biffMulRK:
			if len(body) >= 6 {
				row := int(binary.LittleEndian.Uint16(body))
				col := int(binary.LittleEndian.Uint16(body[2:]))
				for p := 4; p+6 <= len(body)-2; p += 6 {
					xf := binary.LittleEndian.Uint16(body[p:])
					b.setDate(sheet, row, col, xf, rkValue(binary.LittleEndian.Uint32(body[p+2:])))
					col++
				}
			}
		case biffFormula:
			// A cached result whose top two bytes are 0xFFFF is a string,
			// bool or error, everything else is an IEEE double.
			if len(body) >= 14 && binary.LittleEndian.Uint16(body[12:]) != 0xFFFF {
				row, col, xf := cellHeader(body)
				v := math.Float64frombits(binary.LittleEndian.Uint64(body[6:]))
				if !b.setDate(sheet, row, col, xf, v) {
					sheet.cells[cellKey{row, col}] = models.Float(v)
				}
			}
		case biffEOF:
			return false
		}
		return true
	})
	return sheet, err
}

// setDate records v as a date when xf carries a date number format.
func (b *biffBook) setDate(sheet biffSheet, row, col int, xf uint16, v float64) bool {
	if !b.isDate(xf) {
		return false
	}
	sheet.cells[cellKey{row, col}] = models.Date(v, fmt.Sprint(v))
	return true
}

func (b *biffBook) isDate(xf uint16) bool {
	if int(xf) >= len(b.xfFormats) {
		return false
	}
	id := b.xfFormats[xf]
	return xlsb.IsDateFormat(int(id), b.formats[id])
}

// walkRecords calls fn for each record from off until fn returns false
// or the stream ends.
func walkRecords(data []byte, off int, fn func(id uint16, body []byte) bool) error {
	if off < 0 || off > len(data) {
		return fmt.Errorf("record offset %d out of range", off)
	}
	for off+4 <= len(data) {
		id := binary.LittleEndian.Uint16(data[off:])
		size := int(binary.LittleEndian.Uint16(data[off+2:]))
		off += 4
		if off+size > len(data) {
			return fmt.Errorf("record 0x%04X truncated", id)
		}
		if !fn(id, data[off:off+size]) {
			return nil
		}
		off += size
	}
	return nil
}

func cellHeader(body []byte) (row, col int, xf uint16) {
	return int(binary.LittleEndian.Uint16(body)),
		int(binary.LittleEndian.Uint16(body[2:])),
		binary.LittleEndian.Uint16(body[4:])
}

// rkValue decodes an RK number: a 30-bit integer or the high 30 bits of
// a double, optionally scaled by 1/100.
func rkValue(rk uint32) float64 {
	var v float64
	if rk&0x02 != 0 {
		v = float64(int32(rk) >> 2)
	} else {
		v = math.Float64frombits(uint64(rk&0xFFFFFFFC) << 32)
	}
	if rk&0x01 != 0 {
		v /= 100
	}
	return v
}

// readXLString decodes an XLUnicodeString (16-bit length, flags, then
// Latin-1 or UTF-16LE characters).
func readXLString(b []byte) string {
	if len(b) < 3 {
		return ""
	}
	n := int(binary.LittleEndian.Uint16(b))
	wide := b[2]&0x01 != 0
	b = b[3:]
	if !wide {
		n = min(n, len(b))
		runes := make([]rune, n)
		for i := range n {
			runes[i] = rune(b[i])
		}
		return string(runes)
	}
	n = min(n, len(b)/2)
	units := make([]uint16, n)
	for i := range n {
		units[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return string(utf16.Decode(units))
}
