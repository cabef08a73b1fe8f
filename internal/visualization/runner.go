// Package visualization runs bar plots, histograms and scatter plots against the data service
// and reshapes the responses for display.
package visualization

import (
	"context"
	"fmt"

	"edaworkspace/domain/analysis"
	"edaworkspace/domain/core"
	"edaworkspace/domain/filter"
	vis "edaworkspace/domain/visualization"
	"edaworkspace/internal/errors"
	"edaworkspace/internal/workspace"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentCharts bounds RunAll
const maxConcurrentCharts = 4

// LegendItem is one overlay entry of a chart legend
type LegendItem struct {
	Name    string `json:"name"`
	Color   string `json:"color"`
	Missing bool   `json:"missing,omitempty"`
}

// AxisSummary describes the values plotted along one continuous axis
type AxisSummary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stdDev"`
}

// ChartData is a reshaped chart ready for rendering
type ChartData struct {
	Type     vis.Type               `json:"type"`
	Config   Config                 `json:"config"`
	XLabel   string                 `json:"xLabel"`
	YLabel   string                 `json:"yLabel"`
	Legend   []LegendItem           `json:"legend,omitempty"`
	Coverage vis.CoverageStatistics `json:"coverage"`

	Bars          []vis.Series `json:"bars,omitempty"`
	DroppedLabels []string     `json:"droppedLabels,omitempty"`

	Histogram []vis.HistogramSeries `json:"histogram,omitempty"`
	BinWidth  float64               `json:"binWidth,omitempty"`
	BinSlider *vis.BinSlider        `json:"binSlider,omitempty"`
	Summary   *vis.HistogramSummary `json:"summary,omitempty"`

	Scatter  []vis.ScatterplotSeries `json:"scatter,omitempty"`
	XSummary *AxisSummary            `json:"xSummary,omitempty"`
	YSummary *AxisSummary            `json:"ySummary,omitempty"`
}

// Plugin is one chart type
type Plugin interface {
	Type() vis.Type
	// Defaults proposes a starting configuration for the study
	Defaults(ws *workspace.Workspace) Config
	// Validate checks a configuration against the study metadata
	Validate(ws *workspace.Workspace, cfg Config) error
	run(ctx context.Context, ws *workspace.Workspace, filters filter.Set, cfg Config, logger *zap.Logger) (*ChartData, error)
}

var plugins = map[vis.Type]Plugin{
	vis.TypeBarplot:     Barplot,
	vis.TypeHistogram:   Histogram,
	vis.TypeScatterplot: Scatterplot,
}

// ForType returns the plugin of a chart type
func ForType(t vis.Type) (Plugin, error) {
	p, ok := plugins[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownVisualization, t)
	}
	return p, nil
}

// Service runs charts for workspaces
type Service struct {
	logger *zap.Logger
}

func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger.Named("visualization")}
}

// Run validates a configuration and computes the chart
func (s *Service) Run(ctx context.Context, ws *workspace.Workspace, t vis.Type, filters filter.Set, cfg Config) (*ChartData, error) {
	p, err := ForType(t)
	if err != nil {
		return nil, errors.Wrap(err, "unknown chart type")
	}
	if err := p.Validate(ws, cfg); err != nil {
		return nil, errors.Wrapf(err, "invalid %s configuration", t)
	}
	data, err := p.run(ctx, ws, filters, cfg, s.logger)
	if err != nil {
		s.logger.Warn("chart failed",
			zap.String("study_id", ws.StudyID.String()),
			zap.String("type", string(t)),
			zap.Error(err))
		return nil, errors.Wrapf(err, "failed to compute %s", t)
	}
	return data, nil
}

// RunVisualization computes a stored chart
func (s *Service) RunVisualization(ctx context.Context, ws *workspace.Workspace, filters filter.Set, v vis.Visualization) (*ChartData, error) {
	cfg, err := ParseConfig(v.Config)
	if err != nil {
		return nil, errors.Wrap(err, "invalid stored configuration")
	}
	return s.Run(ctx, ws, v.Type, filters, cfg)
}

// Result is one chart of an analysis; Err is set instead of Data when that chart failed
type Result struct {
	Visualization vis.Visualization
	Data          *ChartData
	Err           error
}

// RunAll computes every chart of an analysis concurrently. A failing chart records its
// error in its own Result and does not affect the others.
func (s *Service) RunAll(ctx context.Context, ws *workspace.Workspace, a *analysis.Analysis) []Result {
	results := make([]Result, len(a.Visualizations))
	var g errgroup.Group
	g.SetLimit(maxConcurrentCharts)
	for i, v := range a.Visualizations {
		i, v := i, v
		results[i].Visualization = v
		g.Go(func() error {
			results[i].Data, results[i].Err = s.RunVisualization(ctx, ws, a.Filters, v)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// fetchWithCount issues the chart request and the filtered entity count in parallel
func fetchWithCount[R any](ctx context.Context, ws *workspace.Workspace, entityID string, filters filter.Set, call func(ctx context.Context) (*R, error)) (*R, int, error) {
	g, gctx := errgroup.WithContext(ctx)
	var resp *R
	var count int
	g.Go(func() error {
		var err error
		resp, err = call(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		count, err = ws.Subsetting.EntityCount(gctx, ws.StudyID, entityID, filters)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return resp, count, nil
}

// legend names series after the overlay vocabulary and colours them from the palette, the
// no-data bucket in grey
func legend(names []string, showMissingness bool) []LegendItem {
	items := make([]LegendItem, len(names))
	for i, name := range names {
		items[i] = LegendItem{Name: name, Color: vis.Palette[i%len(vis.Palette)]}
	}
	if showMissingness && len(items) > 0 {
		last := len(items) - 1
		items[last].Missing = true
		items[last].Color = vis.MissingDataColor
	}
	return items
}
