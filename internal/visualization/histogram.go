package visualization

import (
	"context"
	"fmt"

	"edaworkspace/domain/core"
	"edaworkspace/domain/filter"
	"edaworkspace/domain/study"
	vis "edaworkspace/domain/visualization"
	"edaworkspace/internal/profiling"
	"edaworkspace/internal/workspace"

	"go.uber.org/zap"
)

type histogram struct{}

// Histogram bins a numeric variable, optionally stratified by an overlay
var Histogram Plugin = histogram{}

func (histogram) Type() vis.Type { return vis.TypeHistogram }

func (histogram) Defaults(ws *workspace.Workspace) Config {
	return Config{
		XAxisVariable: firstVariable(ws, func(v study.StudyVariable) bool { return v.Type.IsNumeric() }),
		ValueSpec:     vis.ValueCount,
	}
}

func (histogram) Validate(ws *workspace.Workspace, cfg Config) error {
	x, err := resolve(ws, "x-axis variable", cfg.XAxisVariable)
	if err != nil {
		return err
	}
	if !x.Type.IsNumeric() {
		return fmt.Errorf("%w: histograms need a numeric x-axis variable", core.ErrUnsupportedVariable)
	}
	if cfg.BinWidth < 0 {
		return fmt.Errorf("%w: negative bin width", core.ErrInvalidConfig)
	}
	if _, err := validateOverlay(ws, cfg); err != nil {
		return err
	}
	return validValueSpec(cfg.ValueSpec, vis.ValueCount, vis.ValueProportion)
}

func (histogram) run(ctx context.Context, ws *workspace.Workspace, filters filter.Set, cfg Config, logger *zap.Logger) (*ChartData, error) {
	_, x, _ := ws.Variable(cfg.XAxisVariable.EntityID, cfg.XAxisVariable.VariableID)
	req := vis.Request{StudyID: ws.StudyID.String(), Filters: filters, Config: cfg.request(false, true)}

	resp, count, err := fetchWithCount(ctx, ws, cfg.XAxisVariable.EntityID, filters,
		func(ctx context.Context) (*vis.HistogramResponse, error) { return ws.Data.Histogram(ctx, req) })
	if err != nil {
		return nil, err
	}

	series := resp.Data
	showMissing := cfg.ShowMissingness && cfg.OverlayVariable != nil
	var names []string
	if cfg.OverlayVariable != nil {
		_, overlay, _ := ws.Variable(cfg.OverlayVariable.EntityID, cfg.OverlayVariable.VariableID)
		names = vis.WithNoData(overlay.Vocabulary, showMissing)
		series = vis.OrderByOverlay(series,
			func(s vis.HistogramSeries) string { return vis.OverlayName(s.OverlayVariableDetails) },
			names,
			func(name string) vis.HistogramSeries {
				return emptyHistogramSeries(resp.Data, cfg.OverlayVariable, name)
			})
	}

	data := &ChartData{
		Type:      vis.TypeHistogram,
		Config:    cfg,
		XLabel:    axisLabel(x),
		YLabel:    yLabelFor(cfg.ValueSpec),
		Histogram: series,
		BinWidth:  resp.Config.BinWidth,
		BinSlider: &resp.Config.BinSlider,
		Summary:   resp.Config.Summary,
		Coverage:  vis.Coverage(resp.Config.ResponseConfig, count),
	}
	if names != nil {
		data.Legend = legend(names, showMissing)
	}
	if data.Summary == nil {
		data.Summary = summarizeBins(resp, cfg.ValueSpec, logger)
	}
	return data, nil
}

// emptyHistogramSeries is the placeholder for an overlay value with no data: the shared bins
// with zero counts
func emptyHistogramSeries(existing []vis.HistogramSeries, overlay *core.VariableKey, name string) vis.HistogramSeries {
	s := vis.HistogramSeries{
		OverlayVariableDetails: &vis.VariableDetails{EntityID: overlay.EntityID, VariableID: overlay.VariableID, Value: name},
	}
	if len(existing) > 0 {
		s.BinStart = append([]float64(nil), existing[0].BinStart...)
		s.BinEnd = append([]float64(nil), existing[0].BinEnd...)
		s.BinLabel = append([]string(nil), existing[0].BinLabel...)
		s.Value = make([]float64, len(existing[0].Value))
	}
	return s
}

// summarizeBins approximates the summary from the pooled bins when the service sent none
func summarizeBins(resp *vis.HistogramResponse, spec vis.ValueSpec, logger *zap.Logger) *vis.HistogramSummary {
	if len(resp.Data) == 0 {
		return nil
	}
	first := resp.Data[0]
	counts := make([]float64, len(first.Value))
	total := 0.0
	for _, s := range resp.Data {
		for i := range counts {
			if i < len(s.Value) {
				counts[i] += s.Value[i]
				total += s.Value[i]
			}
		}
	}
	// proportions are turned back into counts using the plotted cases
	if spec == vis.ValueProportion && total > 0 && resp.Config.CompleteCasesAxesVars > 0 {
		for i := range counts {
			counts[i] = counts[i] / total * float64(resp.Config.CompleteCasesAxesVars)
		}
	}

	s, err := profiling.DescribeBins(first.BinStart, first.BinEnd, counts)
	if err != nil {
		logger.Debug("histogram summary unavailable", zap.Error(err))
		return nil
	}
	return &vis.HistogramSummary{Min: s.Min, Q1: s.Q1, Median: s.Median, Mean: s.Mean, Q3: s.Q3, Max: s.Max}
}
