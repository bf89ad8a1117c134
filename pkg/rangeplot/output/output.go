// Package output serialises sampled points and command results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/models"
)

// ToJSON serialises v as JSON, indented when pretty is set.
func ToJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// PointsToJSON serialises points as a JSON array of {"x", "y"} objects.
// A nil slice renders as an empty array.
func PointsToJSON(points []models.DataPoint, pretty bool) ([]byte, error) {
	if points == nil {
		points = []models.DataPoint{}
	}
	return ToJSON(points, pretty)
}

// WriteCSV writes points as two-column CSV with an x,y header.
func WriteCSV(w io.Writer, points []models.DataPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "y"}); err != nil {
		return err
	}
	for _, p := range points {
		record := []string{
			strconv.FormatFloat(p.X, 'g', -1, 64),
			strconv.FormatFloat(p.Y, 'g', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
