package visualization

import (
	"edaworkspace/domain/filter"
)

// Request is the body of a data-service visualization call.
type Request struct {
	StudyID string     `json:"studyId"`
	Filters filter.Set `json:"filters"`
	Config  any        `json:"config"`
}

// AppOverview describes one data-service computation and the charts it serves.
type AppOverview struct {
	Name           string             `json:"name"`
	DisplayName    string             `json:"displayName"`
	Description    string             `json:"description,omitempty"`
	Visualizations []AppVisualization `json:"visualizations"`
}

// AppVisualization is one chart endpoint offered by an app.
type AppVisualization struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
}

// BarplotSeries is one overlay stratum of a bar plot response.
type BarplotSeries struct {
	OverlayVariableDetails *VariableDetails `json:"overlayVariableDetails,omitempty"`
	Label                  []string         `json:"label"`
	Value                  []float64        `json:"value"`
}

// BarplotResponse is the decoded "barplot" payload.
type BarplotResponse struct {
	Config ResponseConfig  `json:"config"`
	Data   []BarplotSeries `json:"data"`
}

// BinSlider bounds the bin-width control of a histogram.
type BinSlider struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// HistogramSummary is the five-number summary plus mean of the plotted variable.
type HistogramSummary struct {
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Mean   float64 `json:"mean"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// HistogramResponseConfig extends the coverage block with binning details.
type HistogramResponseConfig struct {
	ResponseConfig
	BinSlider BinSlider         `json:"binSlider"`
	BinWidth  float64           `json:"binWidth"`
	Summary   *HistogramSummary `json:"summary,omitempty"`
}

// HistogramSeries is one overlay stratum of a histogram response.
type HistogramSeries struct {
	OverlayVariableDetails *VariableDetails `json:"overlayVariableDetails,omitempty"`
	BinStart               []float64        `json:"binStart"`
	BinEnd                 []float64        `json:"binEnd"`
	BinLabel               []string         `json:"binLabel"`
	Value                  []float64        `json:"value"`
}

// HistogramResponse is the decoded "histogram" payload.
type HistogramResponse struct {
	Config HistogramResponseConfig `json:"config"`
	Data   []HistogramSeries       `json:"data"`
}

// ScatterplotSeries is one overlay stratum of a scatter plot response.
type ScatterplotSeries struct {
	OverlayVariableDetails *VariableDetails `json:"overlayVariableDetails,omitempty"`
	SeriesX                []float64        `json:"seriesX"`
	SeriesY                []float64        `json:"seriesY"`
	SmoothedMeanX          []float64        `json:"smoothedMeanX,omitempty"`
	SmoothedMeanY          []float64        `json:"smoothedMeanY,omitempty"`
	BestFitLineX           []float64        `json:"bestFitLineX,omitempty"`
	BestFitLineY           []float64        `json:"bestFitLineY,omitempty"`
	R2                     *float64         `json:"r2,omitempty"`
}

// ScatterplotResponse is the decoded "scatterplot" payload.
type ScatterplotResponse struct {
	Config ResponseConfig      `json:"config"`
	Data   []ScatterplotSeries `json:"data"`
}

// OverlayName returns the overlay category a series represents, or "" when not stratified.
func OverlayName(d *VariableDetails) string {
	if d == nil {
		return ""
	}
	return d.Value
}
