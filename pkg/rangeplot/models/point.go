// Package models defines data structures shared by the range sampler,
// the workbook backends and the command surface.
package models

import (
	"encoding/json"
	"math"
)

// DataPoint is one paired (x, y) sample taken from a single row offset
// across the x and y ranges.
type DataPoint struct {
	// X is the coerced value of the x cell.
	X float64 `json:"x"`
	// Y is the coerced value of the y cell.
	Y float64 `json:"y"`
}

// MarshalJSON renders NaN and ±Inf coordinates as null, which JSON
// numbers cannot express.
func (p DataPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}{finite(p.X), finite(p.Y)})
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
