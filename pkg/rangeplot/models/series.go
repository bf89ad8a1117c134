package models

// ChartSeries is a data series declared by a chart embedded in a workbook.
type ChartSeries struct {
	// Chart is the drawing name of the owning chart.
	Chart string `json:"chart"`
	// ChartType is the chart type (e.g., XYScatter, Line).
	ChartType string `json:"chart_type"`
	// Name is the series display name.
	Name string `json:"name,omitempty"`
	// Sheet is the sheet hosting the chart.
	Sheet string `json:"sheet"`
	// XRange is the range reference for X values (e.g., Sheet1!$A$2:$A$10).
	XRange string `json:"x_range,omitempty"`
	// YRange is the range reference for Y values.
	YRange string `json:"y_range,omitempty"`
}
