package grid

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/models"
)

func le16(v uint16) []byte { return binary.LittleEndian.AppendUint16(nil, v) }
func le32(v uint32) []byte { return binary.LittleEndian.AppendUint32(nil, v) }
func f64(v float64) []byte { return binary.LittleEndian.AppendUint64(nil, math.Float64bits(v)) }

func cat(parts ...[]byte) []byte { return bytes.Join(parts, nil) }

// ── xls (BIFF8 in a compound file) ───────────────────────────────────────────

func biffRec(id uint16, body ...[]byte) []byte {
	b := cat(body...)
	return cat(le16(id), le16(uint16(len(b))), b)
}

func biffBOF(dt uint16) []byte {
	return biffRec(0x0809, le16(0x0600), le16(dt), le16(0x0DBB), le16(0x07CC), le32(0), le32(0x06))
}

func biffRow(row, first, last uint16) []byte {
	return biffRec(0x0208, le16(row), le16(first), le16(last), le16(0x00FF), le16(0), le16(0), le32(0x0100))
}

func biffNumber(row, col, xf uint16, v float64) []byte {
	return biffRec(biffNumber, le16(row), le16(col), le16(xf), f64(v))
}

func rkInt(v int32) uint32 { return uint32(v)<<2 | 0x02 }

func biffRKCell(row, col, xf uint16, rk uint32) []byte {
	return biffRec(biffRK, le16(row), le16(col), le16(xf), le32(rk))
}

func biffLabel(row, col, xf uint16, s string) []byte {
	return biffRec(0x0204, le16(row), le16(col), le16(xf), le16(uint16(len(s))), []byte{0}, []byte(s))
}

func biffXFRec(format uint16) []byte {
	return biffRec(biffXF, le16(0), le16(format), le16(0), make([]byte, 14))
}

func biffSheetRec(pos uint32, name string) []byte {
	return biffRec(biffBoundSheet, le32(pos), []byte{0, 0, byte(len(name)), 0}, []byte(name))
}

// buildXLSStream returns a BIFF8 workbook stream with two sheets:
//
//	Readings: A1=1 B1="10" C1=formula(3.5)
//	          A2=RK 2 B2=20
//	          (row 3 absent)
//	          A4=45285 (m/d/yy) B4=RK 40 (yyyy-mm-dd) C4=TRUE D4:E4=MULRK 5,6
//	Other:    A1=100 B1=200
func buildXLSStream() []byte {
	readings := cat(
		biffBOF(0x0010),
		biffRow(0, 0, 3),
		biffRow(1, 0, 2),
		biffRow(3, 0, 5),
		biffNumber(0, 0, 0, 1),
		biffLabel(0, 1, 0, "10"),
		biffRec(biffFormula, le16(0), le16(2), le16(0), f64(3.5), le16(0), le32(0), le16(0)),
		biffRKCell(1, 0, 0, rkInt(2)),
		biffNumber(1, 1, 0, 20),
		biffNumber(3, 0, 1, 45285),
		biffRKCell(3, 1, 2, rkInt(40)),
		biffRec(0x0205, le16(3), le16(2), le16(0), []byte{1, 0}),
		biffRec(biffMulRK, le16(3), le16(3), le16(0), le32(rkInt(5)), le16(0), le32(rkInt(6)), le16(4)),
		biffRec(biffEOF),
	)
	other := cat(
		biffBOF(0x0010),
		biffRow(0, 0, 2),
		biffNumber(0, 0, 0, 100),
		biffNumber(0, 1, 0, 200),
		biffRec(biffEOF),
	)

	globals := func(first, second uint32) []byte {
		return cat(
			biffBOF(0x0005),
			biffRec(0x0042, le16(1200)),
			biffRec(0x0022, le16(0)),
			biffRec(biffFormat, le16(164), le16(10), []byte{0}, []byte("yyyy-mm-dd")),
			biffXFRec(0),
			biffXFRec(14),
			biffXFRec(164),
			biffSheetRec(first, "Readings"),
			biffSheetRec(second, "Other"),
			biffRec(biffEOF),
		)
	}
	size := uint32(len(globals(0, 0)))
	return cat(globals(size, size+uint32(len(readings))), readings, other)
}

// buildCompoundFile wraps stream as the "Workbook" stream of a version 3
// compound file: header, one FAT sector, one directory sector, then the
// stream sectors.
func buildCompoundFile(stream []byte) []byte {
	const sector = 512
	size := max(4096, (len(stream)+sector-1)/sector*sector)
	stream = append(stream, make([]byte, size-len(stream))...)
	n := size / sector

	header := cat(
		[]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1},
		make([]byte, 16),
		le16(0x003E), le16(0x0003), le16(0xFFFE), le16(0x0009), le16(0x0006),
		make([]byte, 6),
		le32(0),          // directory sectors
		le32(1),          // FAT sectors
		le32(1),          // first directory sector
		le32(0),          // transaction
		le32(4096),       // mini stream cutoff
		le32(0xFFFFFFFE), // first mini FAT sector
		le32(0),          // mini FAT sectors
		le32(0xFFFFFFFE), // first DIFAT sector
		le32(0),          // DIFAT sectors
		le32(0),          // DIFAT[0]: FAT in sector 0
	)
	for len(header) < sector {
		header = append(header, 0xFF, 0xFF, 0xFF, 0xFF)
	}

	fat := cat(le32(0xFFFFFFFD), le32(0xFFFFFFFE))
	for i := 2; i < n+1; i++ {
		fat = append(fat, le32(uint32(i+1))...)
	}
	fat = append(fat, le32(0xFFFFFFFE)...)
	for len(fat) < sector {
		fat = append(fat, 0xFF, 0xFF, 0xFF, 0xFF)
	}

	dirEntry := func(name string, typ byte, child, start, size uint32) []byte {
		e := make([]byte, 128)
		for i, r := range name {
			binary.LittleEndian.PutUint16(e[2*i:], uint16(r))
		}
		binary.LittleEndian.PutUint16(e[64:], uint16(2*(len(name)+1)))
		e[66] = typ
		e[67] = 1 // black
		binary.LittleEndian.PutUint32(e[68:], 0xFFFFFFFF)
		binary.LittleEndian.PutUint32(e[72:], 0xFFFFFFFF)
		binary.LittleEndian.PutUint32(e[76:], child)
		binary.LittleEndian.PutUint32(e[116:], start)
		binary.LittleEndian.PutUint32(e[120:], size)
		return e
	}
	dir := cat(
		dirEntry("Root Entry", 5, 1, 0xFFFFFFFE, 0),
		dirEntry("Workbook", 2, 0xFFFFFFFF, 2, uint32(size)),
		make([]byte, 256),
	)

	return cat(header, fat, dir, stream)
}

func TestXLSBackend(t *testing.T) {
	path := writeFile(t, "legacy.xls", buildCompoundFile(buildXLSStream()))

	format, err := Detect(path)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if format != FormatXLS {
		t.Fatalf("Detect = %q, want %q", format, FormatXLS)
	}

	wb, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer wb.Close()

	names := wb.SheetNames()
	if len(names) != 2 || names[0] != "Readings" || names[1] != "Other" {
		t.Fatalf("SheetNames = %v, want [Readings Other]", names)
	}

	g, err := wb.Sheet("Readings")
	if err != nil {
		t.Fatalf("Sheet failed: %v", err)
	}

	tests := []struct {
		name     string
		row, col int
		kind     models.CellKind
		want     float64
	}{
		{"number", 0, 0, models.CellInt, 1},
		{"label", 0, 1, models.CellInt, 10},
		{"formula result", 0, 2, models.CellFloat, 3.5},
		{"rk integer", 1, 0, models.CellInt, 2},
		{"number", 1, 1, models.CellInt, 20},
		{"missing row", 2, 0, models.CellEmpty, 0},
		{"built-in date format", 3, 0, models.CellDate, 45285},
		{"custom date format", 3, 1, models.CellDate, 40},
		{"boolean", 3, 2, models.CellEmpty, 0},
		{"mulrk first", 3, 3, models.CellInt, 5},
		{"mulrk second", 3, 4, models.CellInt, 6},
		{"beyond last column", 3, 9, models.CellEmpty, 0},
	}
	for _, tt := range tests {
		v := g.Cell(tt.row, tt.col)
		if v.Kind != tt.kind {
			t.Errorf("%s (%d,%d): kind = %s, want %s", tt.name, tt.row, tt.col, v.Kind, tt.kind)
			continue
		}
		var got float64
		switch v.Kind {
		case models.CellInt:
			got = float64(v.Int)
		case models.CellFloat, models.CellDate:
			got = v.Float
		}
		if got != tt.want {
			t.Errorf("%s (%d,%d): value = %v, want %v", tt.name, tt.row, tt.col, got, tt.want)
		}
	}

	other, err := wb.Sheet("Other")
	if err != nil {
		t.Fatalf("Sheet(Other) failed: %v", err)
	}
	if v := other.Cell(0, 1); v.Kind != models.CellInt || v.Int != 200 {
		t.Errorf("Other!B1 = %+v, want Int 200", v)
	}
}

func TestXLSTruncatedRecord(t *testing.T) {
	stream := cat(biffBOF(0x0005), le16(biffXF), le16(0xFFFF))
	path := writeFile(t, "broken.xls", buildCompoundFile(stream))

	_, err := Open(path, DefaultOptions())
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("Open error = %v, want ErrFormat", err)
	}
}

func TestRKValue(t *testing.T) {
	tests := []struct {
		rk   uint32
		want float64
	}{
		{rkInt(42), 42},
		{rkInt(-3), -3},
		{rkInt(1234) | 0x01, 12.34},
		{uint32(math.Float64bits(2.5) >> 32), 2.5},
	}
	for _, tt := range tests {
		if got := rkValue(tt.rk); got != tt.want {
			t.Errorf("rkValue(%#x) = %v, want %v", tt.rk, got, tt.want)
		}
	}
}

// ── xlsb (BIFF12 in a zip package) ───────────────────────────────────────────

func xlsbRec(buf *bytes.Buffer, id int, payload []byte) {
	if id < 0x80 {
		buf.WriteByte(byte(id))
	} else {
		buf.WriteByte(byte(id & 0xFF))
		buf.WriteByte(byte(id >> 8))
	}
	n := len(payload)
	for {
		b := n & 0x7F
		n >>= 7
		if n > 0 {
			buf.WriteByte(byte(b) | 0x80)
		} else {
			buf.WriteByte(byte(b))
			break
		}
	}
	buf.Write(payload)
}

func xlsbStr(s string) []byte {
	units := []rune(s)
	out := le32(uint32(len(units)))
	for _, r := range units {
		out = append(out, le16(uint16(r))...)
	}
	return out
}

func xlsbFloat(buf *bytes.Buffer, col, style uint32, v float64) {
	xlsbRec(buf, 0x0005, cat(le32(col), le32(style), f64(v)))
}

// buildXLSB returns an .xlsb package with two sheets and three cell
// styles (0: m/d/yy, 1: custom yyyy-mm-dd, 2: General):
//
//	Readings: A1=1 B1="10" / A2=45285 (style 0) B2=20 / A3=45286 (style 1) B3=30
//	Other:    A1=100 B1=200
func buildXLSB(t *testing.T) []byte {
	t.Helper()

	var wb bytes.Buffer
	xlsbRec(&wb, 0x0183, nil)
	xlsbRec(&wb, 0x018F, nil)
	xlsbRec(&wb, 0x019C, cat(le32(0), le32(1), xlsbStr("rId1"), xlsbStr("Readings")))
	xlsbRec(&wb, 0x019C, cat(le32(0), le32(2), xlsbStr("rId2"), xlsbStr("Other")))
	xlsbRec(&wb, 0x0190, nil)
	xlsbRec(&wb, 0x0184, nil)

	var sst bytes.Buffer
	xlsbRec(&sst, 0x019F, cat(le32(1), le32(1)))
	xlsbRec(&sst, 0x0013, cat([]byte{0}, xlsbStr("10")))
	xlsbRec(&sst, 0x01A0, nil)

	xf := func(numFmt uint16) []byte { return cat(le16(0), le16(numFmt), make([]byte, 8)) }
	var styles bytes.Buffer
	xlsbRec(&styles, 0x0296, nil)
	xlsbRec(&styles, 0x002C, cat(le16(164), xlsbStr("yyyy-mm-dd")))
	xlsbRec(&styles, 0x04E9, nil)
	xlsbRec(&styles, 0x002F, xf(14))
	xlsbRec(&styles, 0x002F, xf(164))
	xlsbRec(&styles, 0x002F, xf(0))
	xlsbRec(&styles, 0x04EA, nil)
	xlsbRec(&styles, 0x0297, nil)

	sheet := func(rows func(ws *bytes.Buffer)) []byte {
		var ws bytes.Buffer
		xlsbRec(&ws, 0x0181, nil)
		xlsbRec(&ws, 0x0191, nil)
		rows(&ws)
		xlsbRec(&ws, 0x0192, nil)
		xlsbRec(&ws, 0x0182, nil)
		return ws.Bytes()
	}
	readings := sheet(func(ws *bytes.Buffer) {
		xlsbRec(ws, 0x0000, le32(0))
		xlsbFloat(ws, 0, 2, 1)
		xlsbRec(ws, 0x0007, cat(le32(1), le32(2), le32(0)))
		xlsbRec(ws, 0x0000, le32(1))
		xlsbFloat(ws, 0, 0, 45285)
		xlsbFloat(ws, 1, 2, 20)
		xlsbRec(ws, 0x0000, le32(2))
		xlsbFloat(ws, 0, 1, 45286)
		xlsbFloat(ws, 1, 2, 30)
	})
	other := sheet(func(ws *bytes.Buffer) {
		xlsbRec(ws, 0x0000, le32(0))
		xlsbFloat(ws, 0, 2, 100)
		xlsbFloat(ws, 1, 2, 200)
	})

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	add := func(name string, data []byte) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	add("xl/_rels/workbook.bin.rels", []byte(`<?xml version="1.0" encoding="UTF-8"?>`+
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
		`<Relationship Id="rId1" Type="worksheet" Target="worksheets/sheet1.bin"/>`+
		`<Relationship Id="rId2" Type="worksheet" Target="worksheets/sheet2.bin"/>`+
		`</Relationships>`))
	add("xl/workbook.bin", wb.Bytes())
	add("xl/sharedStrings.bin", sst.Bytes())
	add("xl/styles.bin", styles.Bytes())
	add("xl/worksheets/sheet1.bin", readings)
	add("xl/worksheets/sheet2.bin", other)
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return out.Bytes()
}

func TestXLSBBackend(t *testing.T) {
	path := writeFile(t, "book.xlsb", buildXLSB(t))

	format, err := Detect(path)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if format != FormatXLSB {
		t.Fatalf("Detect = %q, want %q", format, FormatXLSB)
	}

	wb, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer wb.Close()

	names := wb.SheetNames()
	if len(names) != 2 || names[0] != "Readings" || names[1] != "Other" {
		t.Fatalf("SheetNames = %v, want [Readings Other]", names)
	}

	// The second sheet resolves to go-xlsb's Sheet(2).
	other, err := wb.Sheet("Other")
	if err != nil {
		t.Fatalf("Sheet(Other) failed: %v", err)
	}
	if v := other.Cell(0, 0); v.Kind != models.CellFloat || v.Float != 100 {
		t.Errorf("Other!A1 = %+v, want Float 100", v)
	}

	g, err := wb.Sheet("Readings")
	if err != nil {
		t.Fatalf("Sheet(Readings) failed: %v", err)
	}
	tests := []struct {
		name     string
		row, col int
		want     models.CellValue
	}{
		{"general number", 0, 0, models.Float(1)},
		{"shared string", 0, 1, models.Text("10")},
		{"general number", 1, 1, models.Float(20)},
		{"general number", 2, 1, models.Float(30)},
		{"out of bounds", 5, 5, models.Empty()},
	}
	for _, tt := range tests {
		if got := g.Cell(tt.row, tt.col); got != tt.want {
			t.Errorf("%s (%d,%d) = %+v, want %+v", tt.name, tt.row, tt.col, got, tt.want)
		}
	}
	for _, pos := range [][2]int{{1, 0}, {2, 0}} {
		if v := g.Cell(pos[0], pos[1]); v.Kind != models.CellDate {
			t.Errorf("(%d,%d) kind = %s, want %s", pos[0], pos[1], v.Kind, models.CellDate)
		}
	}

	if _, err := wb.Sheet("readings"); !errors.Is(err, ErrSheetNotFound) {
		t.Errorf("Sheet(readings) error = %v, want ErrSheetNotFound", err)
	}
}
