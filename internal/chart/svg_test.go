package chart

import (
	"encoding/xml"
	"strings"
	"testing"

	vis "edaworkspace/domain/visualization"
	"edaworkspace/internal/visualization"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func barData() *visualization.ChartData {
	return &visualization.ChartData{
		Type:   vis.TypeBarplot,
		XLabel: "Region",
		YLabel: "Count",
		Bars: []vis.Series{
			{Name: "A & B", Labels: []string{"North", "South"}, Values: []*float64{vis.Float(3), nil}, Color: "#4e79a7"},
			{Name: "No data", Labels: []string{"North", "South"}, Values: []*float64{vis.Float(1), vis.Float(0)}, Color: vis.MissingDataColor, Missing: true},
		},
		Legend: []visualization.LegendItem{
			{Name: "A & B", Color: "#4e79a7"},
			{Name: "No data", Color: vis.MissingDataColor, Missing: true},
		},
	}
}

func wellFormed(t *testing.T, doc []byte) {
	t.Helper()
	d := xml.NewDecoder(strings.NewReader(string(doc)))
	for {
		_, err := d.Token()
		if err != nil {
			require.Equal(t, "EOF", err.Error())
			return
		}
	}
}

func TestBarChart(t *testing.T) {
	doc := SVG(barData(), PageOptions)
	wellFormed(t, doc)

	out := string(doc)
	assert.True(t, strings.HasPrefix(out, "<svg"))
	assert.Contains(t, out, "A &amp; B")
	assert.Contains(t, out, ">Region<")
	assert.Contains(t, out, vis.MissingDataColor)
	// background, two bars, two legend swatches; the zero bar has no height
	assert.Equal(t, 5, strings.Count(out, "<rect"))
}

func TestThumbnailHasNoText(t *testing.T) {
	out := Thumbnail(barData())
	wellFormed(t, []byte(out))
	assert.NotContains(t, out, "<text")
	assert.Contains(t, out, `width="120"`)
}

func TestLogScaleSkipsNonPositive(t *testing.T) {
	data := barData()
	data.Config.DependentAxisLogScale = true
	data.Bars[1].Values = []*float64{vis.Float(0), vis.Float(100)}

	out := string(SVG(data, PageOptions))
	assert.Equal(t, 5, strings.Count(out, "<rect"))
	assert.Contains(t, out, ">100<")
}

func TestHistogramAndScatter(t *testing.T) {
	hist := &visualization.ChartData{
		Type: vis.TypeHistogram,
		Histogram: []vis.HistogramSeries{{
			BinStart: []float64{0, 10}, BinEnd: []float64{10, 20}, Value: []float64{2, 4},
		}},
	}
	out := string(SVG(hist, PageOptions))
	wellFormed(t, []byte(out))
	assert.Equal(t, 3, strings.Count(out, "<rect"))

	scatter := &visualization.ChartData{
		Type:   vis.TypeScatterplot,
		Config: visualization.Config{ValueSpec: vis.ValueBestFitLineWithRaw},
		Scatter: []vis.ScatterplotSeries{{
			SeriesX: []float64{1, 2, 3}, SeriesY: []float64{2, 4, 6},
			BestFitLineX: []float64{1, 3}, BestFitLineY: []float64{2, 6},
		}},
	}
	out = string(SVG(scatter, PageOptions))
	wellFormed(t, []byte(out))
	assert.Equal(t, 3, strings.Count(out, "<circle"))
	assert.Equal(t, 1, strings.Count(out, "<polyline"))
}

func TestEmptyChart(t *testing.T) {
	out := string(SVG(&visualization.ChartData{Type: vis.TypeBarplot}, PageOptions))
	assert.Contains(t, out, "No data")
}

func TestNiceTicks(t *testing.T) {
	assert.Equal(t, []float64{0, 2, 4, 6, 8, 10}, niceTicks(0, 10, 5))
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, niceTicks(0, 1, 4))
	assert.Equal(t, []float64{3}, niceTicks(3, 3, 5))
}
