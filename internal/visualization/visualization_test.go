package visualization

import (
	"context"
	stderrors "errors"
	"testing"

	"edaworkspace/domain/analysis"
	"edaworkspace/domain/core"
	"edaworkspace/domain/filter"
	vis "edaworkspace/domain/visualization"
	"edaworkspace/internal/errors"
	"edaworkspace/internal/testkit"
	"edaworkspace/internal/workspace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newWorkspace(count int) (*workspace.Workspace, *testkit.MockDataClient) {
	subsetting := new(testkit.MockSubsettingClient)
	subsetting.On("EntityCount", mock.Anything, core.StudyID(testkit.DemoStudyID), mock.Anything, mock.Anything).Return(count, nil)
	data := new(testkit.MockDataClient)
	return &workspace.Workspace{
		StudyID:    testkit.DemoStudyID,
		Metadata:   testkit.DemoMetadata().SortedCopy(),
		Subsetting: subsetting,
		Data:       data,
	}, data
}

func key(entityID, variableID string) *core.VariableKey {
	return &core.VariableKey{EntityID: entityID, VariableID: variableID}
}

func TestDefaults(t *testing.T) {
	ws, _ := newWorkspace(0)

	assert.Equal(t, key("household", "region"), Barplot.Defaults(ws).XAxisVariable)
	assert.Equal(t, key("household", "household_size"), Histogram.Defaults(ws).XAxisVariable)

	scatter := Scatterplot.Defaults(ws)
	assert.Equal(t, key("observation", "height"), scatter.XAxisVariable)
	assert.Equal(t, key("observation", "temperature"), scatter.YAxisVariable)
	assert.Equal(t, vis.ValueRaw, scatter.ValueSpec)
}

func TestValidate(t *testing.T) {
	ws, _ := newWorkspace(0)

	tests := []struct {
		name   string
		plugin Plugin
		cfg    Config
		want   error
	}{
		{"barplot ok", Barplot, Config{XAxisVariable: key("household", "region"), ValueSpec: vis.ValueCount}, nil},
		{"missing x", Barplot, Config{ValueSpec: vis.ValueCount}, core.ErrMissingRequiredVariable},
		{"unknown variable", Barplot, Config{XAxisVariable: key("household", "nope"), ValueSpec: vis.ValueCount}, core.ErrVariableNotFound},
		{"category as axis", Barplot, Config{XAxisVariable: key("household", "dwelling"), ValueSpec: vis.ValueCount}, core.ErrUnsupportedVariable},
		{"continuous bar axis", Barplot, Config{XAxisVariable: key("participant", "age"), ValueSpec: vis.ValueCount}, core.ErrUnsupportedVariable},
		{"bad value spec", Barplot, Config{XAxisVariable: key("household", "region"), ValueSpec: vis.ValueRaw}, core.ErrInvalidConfig},
		{"overlay on ancestor", Barplot, Config{XAxisVariable: key("participant", "sex"), OverlayVariable: key("household", "region"), ValueSpec: vis.ValueCount}, nil},
		{"overlay on descendant", Barplot, Config{XAxisVariable: key("household", "region"), OverlayVariable: key("participant", "sex"), ValueSpec: vis.ValueCount}, core.ErrInvalidConfig},
		{"continuous overlay", Barplot, Config{XAxisVariable: key("participant", "sex"), OverlayVariable: key("participant", "age"), ValueSpec: vis.ValueCount}, core.ErrUnsupportedVariable},
		{"histogram ok", Histogram, Config{XAxisVariable: key("participant", "age"), ValueSpec: vis.ValueProportion}, nil},
		{"histogram of strings", Histogram, Config{XAxisVariable: key("household", "region"), ValueSpec: vis.ValueCount}, core.ErrUnsupportedVariable},
		{"negative bin width", Histogram, Config{XAxisVariable: key("participant", "age"), BinWidth: -1, ValueSpec: vis.ValueCount}, core.ErrInvalidConfig},
		{"scatter ok", Scatterplot, Config{XAxisVariable: key("observation", "weight"), YAxisVariable: key("observation", "height"), ValueSpec: vis.ValueBestFitLineWithRaw}, nil},
		{"scatter missing y", Scatterplot, Config{XAxisVariable: key("observation", "weight"), ValueSpec: vis.ValueRaw}, core.ErrMissingRequiredVariable},
		{"scatter date axis", Scatterplot, Config{XAxisVariable: key("observation", "visit_date"), YAxisVariable: key("observation", "height"), ValueSpec: vis.ValueRaw}, core.ErrUnsupportedVariable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plugin.Validate(ws, tt.cfg)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBarplotReordersAndMarksMissing(t *testing.T) {
	ws, data := newWorkspace(60)
	data.On("Barplot", mock.Anything, mock.Anything).Return(&vis.BarplotResponse{
		Config: vis.ResponseConfig{CompleteCasesAllVars: 55, CompleteCasesAxesVars: 52},
		Data: []vis.BarplotSeries{
			{
				OverlayVariableDetails: &vis.VariableDetails{EntityID: "household", VariableID: "water_source", Value: "River"},
				Label:                  []string{"South", "North", "Unknown"},
				Value:                  []float64{1, 2, 3},
			},
			{
				OverlayVariableDetails: &vis.VariableDetails{EntityID: "household", VariableID: "water_source", Value: vis.NoDataLabel},
				Label:                  []string{"North"},
				Value:                  []float64{4},
			},
		},
	}, nil)

	cfg := Config{
		XAxisVariable:   key("household", "region"),
		OverlayVariable: key("household", "water_source"),
		ValueSpec:       vis.ValueCount,
		ShowMissingness: true,
	}
	chart, err := NewService(zap.NewNop()).Run(context.Background(), ws, vis.TypeBarplot, filter.Set{}, cfg)
	require.NoError(t, err)

	names := make([]string, len(chart.Bars))
	for i, b := range chart.Bars {
		names[i] = b.Name
		assert.Equal(t, []string{"North", "South", "East", "West"}, b.Labels)
	}
	assert.Equal(t, []string{"Piped", "Well", "River", vis.NoDataLabel}, names)

	river := chart.Bars[2]
	require.NotNil(t, river.Values[0])
	require.NotNil(t, river.Values[1])
	assert.Equal(t, 2.0, *river.Values[0])
	assert.Equal(t, 1.0, *river.Values[1])
	assert.Nil(t, river.Values[2])
	assert.Equal(t, make([]*float64, 4), chart.Bars[0].Values)

	assert.True(t, chart.Bars[3].Missing)
	assert.Equal(t, vis.MissingDataColor, chart.Bars[3].Color)
	assert.Equal(t, []string{"Unknown"}, chart.DroppedLabels)
	require.Len(t, chart.Legend, 4)
	assert.Equal(t, "Region", chart.XLabel)
	assert.Equal(t, 60, chart.Coverage.FilteredCount)
	assert.Equal(t, 8, chart.Coverage.IncompleteCases)

	data.AssertExpectations(t)
}

func TestHistogramSummarizesBins(t *testing.T) {
	ws, data := newWorkspace(10)
	data.On("Histogram", mock.Anything, mock.Anything).Return(&vis.HistogramResponse{
		Config: vis.HistogramResponseConfig{
			ResponseConfig: vis.ResponseConfig{CompleteCasesAxesVars: 10},
			BinWidth:       10,
			BinSlider:      vis.BinSlider{Min: 1, Max: 20, Step: 1},
		},
		Data: []vis.HistogramSeries{{
			BinStart: []float64{0, 10},
			BinEnd:   []float64{10, 20},
			BinLabel: []string{"[0, 10)", "[10, 20)"},
			Value:    []float64{5, 5},
		}},
	}, nil)

	cfg := Config{XAxisVariable: key("participant", "age"), ValueSpec: vis.ValueCount}
	chart, err := NewService(nil).Run(context.Background(), ws, vis.TypeHistogram, filter.Set{}, cfg)
	require.NoError(t, err)

	require.NotNil(t, chart.Summary)
	assert.InDelta(t, 10.0, chart.Summary.Mean, 1e-9)
	assert.Equal(t, 0.0, chart.Summary.Min)
	assert.Equal(t, 20.0, chart.Summary.Max)
	assert.Equal(t, 10.0, chart.BinWidth)
	assert.Equal(t, "Age (years)", chart.XLabel)
	assert.Empty(t, chart.Legend)
}

func TestHistogramOverlayPlaceholders(t *testing.T) {
	ws, data := newWorkspace(10)
	summary := &vis.HistogramSummary{Min: 1, Max: 9}
	data.On("Histogram", mock.Anything, mock.Anything).Return(&vis.HistogramResponse{
		Config: vis.HistogramResponseConfig{Summary: summary},
		Data: []vis.HistogramSeries{{
			OverlayVariableDetails: &vis.VariableDetails{EntityID: "participant", VariableID: "sex", Value: "Male"},
			BinStart:               []float64{0, 5},
			BinEnd:                 []float64{5, 10},
			BinLabel:               []string{"[0, 5)", "[5, 10)"},
			Value:                  []float64{3, 4},
		}},
	}, nil)

	cfg := Config{XAxisVariable: key("participant", "age"), OverlayVariable: key("participant", "sex"), ValueSpec: vis.ValueCount}
	chart, err := NewService(nil).Run(context.Background(), ws, vis.TypeHistogram, filter.Set{}, cfg)
	require.NoError(t, err)

	require.Len(t, chart.Histogram, 2)
	assert.Equal(t, "Female", vis.OverlayName(chart.Histogram[0].OverlayVariableDetails))
	assert.Equal(t, []float64{0, 0}, chart.Histogram[0].Value)
	assert.Equal(t, []float64{0, 5}, chart.Histogram[0].BinStart)
	assert.Equal(t, "Male", vis.OverlayName(chart.Histogram[1].OverlayVariableDetails))
	assert.Same(t, summary, chart.Summary)
	require.Len(t, chart.Legend, 2)
	assert.Equal(t, vis.Palette[0], chart.Legend[0].Color)
}

func TestScatterplotBestFit(t *testing.T) {
	ws, data := newWorkspace(3)
	data.On("Scatterplot", mock.Anything, mock.Anything).Return(&vis.ScatterplotResponse{
		Config: vis.ResponseConfig{CompleteCasesAxesVars: 3},
		Data: []vis.ScatterplotSeries{{
			SeriesX: []float64{1, 2, 3},
			SeriesY: []float64{2, 4, 6},
		}},
	}, nil)

	cfg := Config{XAxisVariable: key("observation", "weight"), YAxisVariable: key("observation", "height"), ValueSpec: vis.ValueBestFitLineWithRaw}
	chart, err := NewService(nil).Run(context.Background(), ws, vis.TypeScatterplot, filter.Set{}, cfg)
	require.NoError(t, err)

	require.Len(t, chart.Scatter, 1)
	s := chart.Scatter[0]
	assert.Equal(t, []float64{1, 3}, s.BestFitLineX)
	require.Len(t, s.BestFitLineY, 2)
	assert.InDelta(t, 2.0, s.BestFitLineY[0], 1e-9)
	assert.InDelta(t, 6.0, s.BestFitLineY[1], 1e-9)
	require.NotNil(t, s.R2)
	assert.InDelta(t, 1.0, *s.R2, 1e-9)

	require.NotNil(t, chart.XSummary)
	assert.Equal(t, 3, chart.XSummary.Count)
	assert.InDelta(t, 4.0, chart.YSummary.Mean, 1e-9)
	assert.Equal(t, "Weight (kg)", chart.XLabel)
}

func TestRunWrapsServiceFailure(t *testing.T) {
	ws, data := newWorkspace(3)
	data.On("Barplot", mock.Anything, mock.Anything).Return(nil, core.ErrServiceUnavailable)

	_, err := NewService(nil).Run(context.Background(), ws, vis.TypeBarplot, filter.Set{}, Barplot.Defaults(ws))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrServiceUnavailable)
	assert.Equal(t, errors.CodeExternalService, errors.GetCode(err))
}

func TestRunAllKeepsErrorsInline(t *testing.T) {
	ws, data := newWorkspace(3)
	data.On("Barplot", mock.Anything, mock.Anything).Return(&vis.BarplotResponse{
		Data: []vis.BarplotSeries{{Label: []string{"North"}, Value: []float64{3}}},
	}, nil)

	a := analysis.New(testkit.DemoStudyID, "charts")
	a.PutVisualization(vis.Visualization{Type: vis.TypeBarplot, Config: Barplot.Defaults(ws).Raw()})
	a.PutVisualization(vis.Visualization{Type: vis.TypeHistogram, Config: Config{ValueSpec: vis.ValueCount}.Raw()})
	a.PutVisualization(vis.Visualization{Type: "pie"})

	results := NewService(nil).RunAll(context.Background(), ws, a)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	require.NotNil(t, results[0].Data)
	assert.Len(t, results[0].Data.Bars, 1)

	assert.Nil(t, results[1].Data)
	assert.True(t, stderrors.Is(results[1].Err, core.ErrMissingRequiredVariable))
	assert.ErrorIs(t, results[2].Err, core.ErrUnknownVisualization)
}

func TestForTypeUnknown(t *testing.T) {
	_, err := ForType("pie")
	assert.ErrorIs(t, err, core.ErrUnknownVisualization)
}
