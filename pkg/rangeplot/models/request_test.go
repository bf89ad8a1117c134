package models

import (
	"math"
	"testing"
)

func TestRowRangeCountBounds(t *testing.T) {
	tests := []struct {
		name string
		r    RowRange
		want int
	}{
		{"single", RowRange{Start: 4, End: 4}, 1},
		{"inverted", RowRange{Start: 5, End: 4}, 0},
		{"to max", RowRange{Start: 0, End: math.MaxInt}, math.MaxInt},
		{"near max", RowRange{Start: 1, End: math.MaxInt}, math.MaxInt},
		{"full span", RowRange{Start: math.MinInt, End: math.MaxInt}, math.MaxInt},
		{"negative start", RowRange{Start: -2, End: 1}, 4},
	}
	for _, tt := range tests {
		if got := tt.r.Count(); got != tt.want {
			t.Errorf("%s: Count() = %d, want %d", tt.name, got, tt.want)
		}
	}
}
