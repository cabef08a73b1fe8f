package visualization

import (
	"context"
	"fmt"

	"edaworkspace/domain/core"
	"edaworkspace/domain/filter"
	vis "edaworkspace/domain/visualization"
	"edaworkspace/internal/profiling"
	"edaworkspace/internal/workspace"

	"go.uber.org/zap"
)

type scatterplot struct{}

// Scatterplot plots two numeric variables of the same entity
var Scatterplot Plugin = scatterplot{}

func (scatterplot) Type() vis.Type { return vis.TypeScatterplot }

// Defaults picks the first two numeric variables of the first entity that has two
func (scatterplot) Defaults(ws *workspace.Workspace) Config {
	cfg := Config{ValueSpec: vis.ValueRaw}
	for _, e := range ws.Metadata.Entities() {
		var keys []*core.VariableKey
		for _, v := range e.Variables {
			if v.IsCategory() || v.IsHidden() || !v.Type.IsNumeric() {
				continue
			}
			keys = append(keys, &core.VariableKey{EntityID: e.ID, VariableID: v.ID})
			if len(keys) == 2 {
				cfg.XAxisVariable, cfg.YAxisVariable = keys[0], keys[1]
				return cfg
			}
		}
	}
	return cfg
}

func (scatterplot) Validate(ws *workspace.Workspace, cfg Config) error {
	x, err := resolve(ws, "x-axis variable", cfg.XAxisVariable)
	if err != nil {
		return err
	}
	y, err := resolve(ws, "y-axis variable", cfg.YAxisVariable)
	if err != nil {
		return err
	}
	if !x.Type.IsNumeric() || !y.Type.IsNumeric() {
		return fmt.Errorf("%w: scatter plots need numeric axes", core.ErrUnsupportedVariable)
	}
	if err := sameOrAncestor(ws, cfg.XAxisVariable.EntityID, cfg.YAxisVariable); err != nil {
		return err
	}
	if _, err := validateOverlay(ws, cfg); err != nil {
		return err
	}
	return validValueSpec(cfg.ValueSpec, vis.ValueRaw, vis.ValueSmoothedMean, vis.ValueSmoothedMeanWithRaw, vis.ValueBestFitLineWithRaw)
}

func (scatterplot) run(ctx context.Context, ws *workspace.Workspace, filters filter.Set, cfg Config, logger *zap.Logger) (*ChartData, error) {
	_, x, _ := ws.Variable(cfg.XAxisVariable.EntityID, cfg.XAxisVariable.VariableID)
	_, y, _ := ws.Variable(cfg.YAxisVariable.EntityID, cfg.YAxisVariable.VariableID)
	req := vis.Request{StudyID: ws.StudyID.String(), Filters: filters, Config: cfg.request(true, false)}

	resp, count, err := fetchWithCount(ctx, ws, cfg.XAxisVariable.EntityID, filters,
		func(ctx context.Context) (*vis.ScatterplotResponse, error) { return ws.Data.Scatterplot(ctx, req) })
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
			func(s vis.ScatterplotSeries) string { return vis.OverlayName(s.OverlayVariableDetails) },
			names,
			func(name string) vis.ScatterplotSeries {
				return vis.ScatterplotSeries{OverlayVariableDetails: &vis.VariableDetails{
					EntityID: cfg.OverlayVariable.EntityID, VariableID: cfg.OverlayVariable.VariableID, Value: name,
				}}
			})
	}

	if cfg.ValueSpec == vis.ValueBestFitLineWithRaw {
		for i := range series {
			if len(series[i].BestFitLineX) == 0 {
				fitLine(&series[i], logger)
			}
		}
	}

	var xs, ys []float64
	for _, s := range series {
		xs = append(xs, s.SeriesX...)
		ys = append(ys, s.SeriesY...)
	}

	data := &ChartData{
		Type:     vis.TypeScatterplot,
		Config:   cfg,
		XLabel:   axisLabel(x),
		YLabel:   axisLabel(y),
		Scatter:  series,
		XSummary: summarizeAxis(xs),
		YSummary: summarizeAxis(ys),
		Coverage: vis.Coverage(resp.Config, count),
	}
	if names != nil {
		data.Legend = legend(names, showMissing)
	}
	return data, nil
}

// fitLine adds a least-squares line spanning the series' x range
func fitLine(s *vis.ScatterplotSeries, logger *zap.Logger) {
	n := len(s.SeriesX)
	if len(s.SeriesY) < n {
		n = len(s.SeriesY)
	}
	line, err := profiling.BestFit(s.SeriesX[:n], s.SeriesY[:n])
	if err != nil {
		logger.Debug("best-fit line unavailable",
			zap.String("overlay", vis.OverlayName(s.OverlayVariableDetails)),
			zap.Error(err))
		return
	}
	lo, hi := s.SeriesX[0], s.SeriesX[0]
	for _, v := range s.SeriesX[:n] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	s.BestFitLineX = []float64{lo, hi}
	s.BestFitLineY = []float64{line.At(lo), line.At(hi)}
	s.R2 = vis.Float(line.R2)
}

func summarizeAxis(values []float64) *AxisSummary {
	s, err := profiling.Describe(values)
	if err != nil {
		return nil
	}
	return &AxisSummary{
		Count:  s.Count,
		Min:    s.Min,
		Max:    s.Max,
		Mean:   s.Mean,
		Median: s.Median,
		StdDev: s.StdDev,
	}
}
