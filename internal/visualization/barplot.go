package visualization

import (
	"context"
	"fmt"

	"edaworkspace/domain/core"
	"edaworkspace/domain/filter"
	"edaworkspace/domain/study"
	vis "edaworkspace/domain/visualization"
	"edaworkspace/internal/workspace"

	"go.uber.org/zap"
)

type barplot struct{}

// Barplot counts a categorical variable, optionally stratified by an overlay
var Barplot Plugin = barplot{}

func (barplot) Type() vis.Type { return vis.TypeBarplot }

func (barplot) Defaults(ws *workspace.Workspace) Config {
	return Config{
		XAxisVariable: firstVariable(ws, func(v study.StudyVariable) bool { return v.IsCategorical() }),
		ValueSpec:     vis.ValueCount,
	}
}

func (barplot) Validate(ws *workspace.Workspace, cfg Config) error {
	x, err := resolve(ws, "x-axis variable", cfg.XAxisVariable)
	if err != nil {
		return err
	}
	if !x.IsCategorical() {
		return fmt.Errorf("%w: bar plots need a categorical x-axis variable", core.ErrUnsupportedVariable)
	}
	if _, err := validateOverlay(ws, cfg); err != nil {
		return err
	}
	return validValueSpec(cfg.ValueSpec, vis.ValueCount, vis.ValueProportion)
}

func (barplot) run(ctx context.Context, ws *workspace.Workspace, filters filter.Set, cfg Config, logger *zap.Logger) (*ChartData, error) {
	_, x, _ := ws.Variable(cfg.XAxisVariable.EntityID, cfg.XAxisVariable.VariableID)
	req := vis.Request{StudyID: ws.StudyID.String(), Filters: filters, Config: cfg.request(false, false)}

	resp, count, err := fetchWithCount(ctx, ws, cfg.XAxisVariable.EntityID, filters,
		func(ctx context.Context) (*vis.BarplotResponse, error) { return ws.Data.Barplot(ctx, req) })
	if err != nil {
		return nil, err
	}

	series := make([]vis.Series, len(resp.Data))
	for i, d := range resp.Data {
		values := make([]*float64, len(d.Value))
		for j := range d.Value {
			values[j] = vis.Float(d.Value[j])
		}
		series[i] = vis.Series{Name: vis.OverlayName(d.OverlayVariableDetails), Labels: d.Label, Values: values}
	}

	xVocabulary := x.Vocabulary
	var overlayVocabulary []string
	showMissing := cfg.ShowMissingness && cfg.OverlayVariable != nil
	if cfg.OverlayVariable != nil {
		_, overlay, _ := ws.Variable(cfg.OverlayVariable.EntityID, cfg.OverlayVariable.VariableID)
		overlayVocabulary = vis.WithNoData(overlay.Vocabulary, showMissing)
	}

	dropped := vis.DroppedLabels(series, xVocabulary)
	if len(dropped) > 0 {
		logger.Debug("labels outside the x vocabulary dropped",
			zap.String("variable", cfg.XAxisVariable.String()),
			zap.Strings("labels", dropped))
	}

	bars := vis.MarkMissingBucket(vis.ReorderBarSeries(series, xVocabulary, overlayVocabulary), showMissing)

	data := &ChartData{
		Type:          vis.TypeBarplot,
		Config:        cfg,
		XLabel:        axisLabel(x),
		YLabel:        yLabelFor(cfg.ValueSpec),
		Bars:          bars,
		DroppedLabels: dropped,
		Coverage:      vis.Coverage(resp.Config, count),
	}
	if cfg.OverlayVariable != nil {
		for _, b := range bars {
			data.Legend = append(data.Legend, LegendItem{Name: b.Name, Color: b.Color, Missing: b.Missing})
		}
	}
	return data, nil
}

func yLabelFor(spec vis.ValueSpec) string {
	if spec == vis.ValueProportion {
		return "Proportion"
	}
	return "Count"
}
