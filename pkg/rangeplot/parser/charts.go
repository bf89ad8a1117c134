package parser

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"sort"
	"strings"

	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/models"
)

// ChartTypeMap maps OOXML chart element tags to chart type names.
var ChartTypeMap = map[string]string{
	"lineChart":      "Line",
	"line3DChart":    "3DLine",
	"barChart":       "Bar",
	"bar3DChart":     "3DBar",
	"areaChart":      "Area",
	"area3DChart":    "3DArea",
	"pieChart":       "Pie",
	"pie3DChart":     "3DPie",
	"doughnutChart":  "Doughnut",
	"scatterChart":   "XYScatter",
	"bubbleChart":    "Bubble",
	"radarChart":     "Radar",
	"surfaceChart":   "Surface",
	"surface3DChart": "3DSurface",
	"stockChart":     "Stock",
	"ofPieChart":     "PieOfPie",
}

// chartRef is a chart anchored in a sheet drawing.
type chartRef struct {
	name      string
	chartPath string
}

// ExtractSeries lists the data series of every chart in an xlsx file,
// grouped by hosting sheet in workbook order. Series whose ranges cannot
// be read are returned with empty references rather than dropped.
func ExtractSeries(xlsxPath string) ([]models.ChartSeries, error) {
	r, err := zip.OpenReader(xlsxPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	sheets, err := sheetParts(&r.Reader)
	if err != nil {
		return nil, err
	}

	var result []models.ChartSeries
	for _, sheet := range sheets {
		for _, ref := range sheetCharts(&r.Reader, sheet.path) {
			data, err := readZipFile(&r.Reader, ref.chartPath)
			if err != nil || data == nil {
				continue
			}
			for _, s := range parseChartXML(data) {
				s.Chart = ref.name
				s.Sheet = sheet.name
				result = append(result, s)
			}
		}
	}
	return result, nil
}

type sheetPart struct {
	name  string
	path  string
	order int
}

// sheetParts maps sheet names to their worksheet part paths, in
// workbook order.
func sheetParts(r *zip.Reader) ([]sheetPart, error) {
	workbookXML, err := readZipFile(r, "xl/workbook.xml")
	if err != nil || workbookXML == nil {
		return nil, err
	}
	wbRelsXML, err := readZipFile(r, "xl/_rels/workbook.xml.rels")
	if err != nil || wbRelsXML == nil {
		return nil, err
	}

	sheets := parseWorkbookSheets(workbookXML)
	targets := parseRelationships(wbRelsXML, "worksheet")

	var parts []sheetPart
	for rID, sheet := range sheets {
		if target, ok := targets[rID]; ok {
			parts = append(parts, sheetPart{
				name:  sheet.name,
				path:  resolveRelativePath(target, "xl"),
				order: sheet.order,
			})
		}
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].order < parts[j].order })
	return parts, nil
}

// sheetCharts follows sheet -> drawing -> chart relationships.
func sheetCharts(r *zip.Reader, sheetPath string) []chartRef {
	sheetRelsXML, err := readZipFile(r, relsPathFor(sheetPath))
	if err != nil || sheetRelsXML == nil {
		return nil
	}

	var refs []chartRef
	for _, target := range parseRelationships(sheetRelsXML, "drawing") {
		drawingPath := resolveRelativePath(target, "xl/drawings")

		drawingXML, err := readZipFile(r, drawingPath)
		if err != nil || drawingXML == nil {
			continue
		}
		drawingRelsXML, err := readZipFile(r, relsPathFor(drawingPath))
		if err != nil || drawingRelsXML == nil {
			continue
		}

		chartPaths := parseRelationships(drawingRelsXML, "chart")
		for _, frame := range parseDrawingForCharts(drawingXML) {
			if target, ok := chartPaths[frame.rID]; ok {
				refs = append(refs, chartRef{
					name:      frame.name,
					chartPath: resolveRelativePath(target, "xl/charts"),
				})
			}
		}
	}
	return refs
}

type chartFrame struct {
	rID  string
	name string
}

// parseDrawingForCharts finds graphic frames referencing charts, in
// document order.
func parseDrawingForCharts(data []byte) []chartFrame {
	var frames []chartFrame
	decoder := xml.NewDecoder(strings.NewReader(string(data)))

	var current *chartFrame
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "graphicFrame":
				current = &chartFrame{}
			case "cNvPr":
				if current != nil {
					current.name = attrValue(t, "name")
				}
			case "chart":
				if current != nil {
					current.rID = attrValue(t, "id")
				}
			}
		case xml.EndElement:
			if t.Name.Local == "graphicFrame" && current != nil {
				if current.rID != "" {
					frames = append(frames, *current)
				}
				current = nil
			}
		}
	}
	return frames
}

// parseChartXML returns the series of every plot in a chart part.
func parseChartXML(data []byte) []models.ChartSeries {
	var series []models.ChartSeries
	decoder := xml.NewDecoder(strings.NewReader(string(data)))

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok {
			if chartType, ok := ChartTypeMap[se.Name.Local]; ok {
				for _, s := range parseChartSeries(decoder) {
					s.ChartType = chartType
					series = append(series, s)
				}
			}
		}
	}
	return series
}

// parseChartSeries parses series elements within a chart type.
func parseChartSeries(decoder *xml.Decoder) []models.ChartSeries {
	var series []models.ChartSeries
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "ser" {
				series = append(series, parseSingleSeries(decoder))
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}

	return series
}

// parseSingleSeries parses a single series element. Scatter and bubble
// charts use xVal/yVal, category charts cat/val.
func parseSingleSeries(decoder *xml.Decoder) models.ChartSeries {
	var s models.ChartSeries
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			if depth > 2 {
				// Data labels and trendlines nest their own tx elements.
				continue
			}
			switch t.Name.Local {
			case "tx":
				s.Name = parseSeriesName(decoder)
				depth--
			case "cat", "xVal":
				s.XRange = parseSeriesRange(decoder)
				depth--
			case "val", "yVal":
				s.YRange = parseSeriesRange(decoder)
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}

	return s
}

// parseSeriesName returns the cached series name, falling back to the
// name formula.
func parseSeriesName(decoder *xml.Decoder) string {
	var name, formula string
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "f":
				if txt, err := readElementText(decoder); err == nil {
					formula = strings.TrimSpace(txt)
				}
				depth--
			case "v":
				if txt, err := readElementText(decoder); err == nil {
					name = strings.TrimSpace(txt)
				}
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}

	if name == "" {
		return formula
	}
	return name
}

// parseSeriesRange parses the range formula of a cat/val/xVal/yVal element.
func parseSeriesRange(decoder *xml.Decoder) string {
	var formula string
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "f" && formula == "" {
				if txt, err := readElementText(decoder); err == nil {
					formula = strings.TrimSpace(txt)
				}
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}

	return formula
}

func readZipFile(r *zip.Reader, name string) ([]byte, error) {
	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, nil
}

func readElementText(decoder *xml.Decoder) (string, error) {
	var text string
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return text, err
		}
		switch t := token.(type) {
		case xml.CharData:
			text += string(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return text, nil
}

func attrValue(se xml.StartElement, local string) string {
	for _, attr := range se.Attr {
		if attr.Name.Local == local {
			return attr.Value
		}
	}
	return ""
}

// relsPathFor returns the relationships part of a package part,
// e.g. xl/worksheets/sheet1.xml -> xl/worksheets/_rels/sheet1.xml.rels.
func relsPathFor(part string) string {
	idx := strings.LastIndex(part, "/")
	return part[:idx+1] + "_rels/" + part[idx+1:] + ".rels"
}

func resolveRelativePath(target, baseDir string) string {
	if strings.HasPrefix(target, "../") {
		clean := target
		for strings.HasPrefix(clean, "../") {
			clean = strings.TrimPrefix(clean, "../")
		}
		return "xl/" + clean
	}
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return baseDir + "/" + target
}

type workbookSheet struct {
	name  string
	order int
}

// parseWorkbookSheets maps relationship ids to sheets declared in
// workbook.xml.
func parseWorkbookSheets(data []byte) map[string]workbookSheet {
	result := make(map[string]workbookSheet)
	decoder := xml.NewDecoder(strings.NewReader(string(data)))

	for order := 0; ; {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "sheet" {
			name, rID := attrValue(se, "name"), attrValue(se, "id")
			if name != "" && rID != "" {
				result[rID] = workbookSheet{name: name, order: order}
				order++
			}
		}
	}

	return result
}

// parseRelationships returns relationship targets by id, keeping only
// relationships whose type ends with kind.
func parseRelationships(data []byte, kind string) map[string]string {
	result := make(map[string]string)
	decoder := xml.NewDecoder(strings.NewReader(string(data)))

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "Relationship" {
			relType := attrValue(se, "Type")
			if strings.HasSuffix(strings.ToLower(relType), "/"+kind) {
				result[attrValue(se, "Id")] = attrValue(se, "Target")
			}
		}
	}

	return result
}
