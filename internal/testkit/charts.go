package testkit

import (
	"fmt"
	"sort"
	"strconv"

	"edaworkspace/domain/core"
	"edaworkspace/domain/filter"
	"edaworkspace/domain/visualization"
)

// ChartConfig is the subset of a visualization config the stub data service reads
type ChartConfig struct {
	OutputEntityID  string                  `json:"outputEntityId"`
	XAxisVariable   *core.VariableKey       `json:"xAxisVariable"`
	YAxisVariable   *core.VariableKey       `json:"yAxisVariable,omitempty"`
	OverlayVariable *core.VariableKey       `json:"overlayVariable,omitempty"`
	ValueSpec       visualization.ValueSpec `json:"valueSpec"`
	BinWidth        float64                 `json:"binWidth,omitempty"`
	ShowMissingness bool                    `json:"showMissingness,omitempty"`
}

// stratum is one overlay group of rows
type stratum struct {
	name string
	rows []Row
}

func (d *Dataset) strata(rows []Row, cfg ChartConfig) []stratum {
	if cfg.OverlayVariable == nil {
		return []stratum{{rows: rows}}
	}
	groups := map[string][]Row{}
	var order []string
	var missing []Row
	for _, r := range rows {
		v := d.Value(r, *cfg.OverlayVariable)
		if v == "" {
			missing = append(missing, r)
			continue
		}
		if _, ok := groups[v]; !ok {
			order = append(order, v)
		}
		groups[v] = append(groups[v], r)
	}
	// served in reverse-alphabetical order so clients must reorder by vocabulary
	sort.Sort(sort.Reverse(sort.StringSlice(order)))
	out := make([]stratum, 0, len(order)+1)
	for _, name := range order {
		out = append(out, stratum{name: name, rows: groups[name]})
	}
	if cfg.ShowMissingness && len(missing) > 0 {
		out = append(out, stratum{name: visualization.NoDataLabel, rows: missing})
	}
	return out
}

func (d *Dataset) overlayDetails(cfg ChartConfig, name string) *visualization.VariableDetails {
	if cfg.OverlayVariable == nil {
		return nil
	}
	return &visualization.VariableDetails{
		EntityID:   cfg.OverlayVariable.EntityID,
		VariableID: cfg.OverlayVariable.VariableID,
		Value:      name,
	}
}

func (d *Dataset) coverage(rows []Row, cfg ChartConfig) visualization.ResponseConfig {
	axes := []core.VariableKey{}
	for _, k := range []*core.VariableKey{cfg.XAxisVariable, cfg.YAxisVariable} {
		if k != nil {
			axes = append(axes, *k)
		}
	}
	all := axes
	if cfg.OverlayVariable != nil {
		all = append(append([]core.VariableKey{}, axes...), *cfg.OverlayVariable)
	}

	complete := func(keys []core.VariableKey) int {
		n := 0
		for _, r := range rows {
			ok := true
			for _, k := range keys {
				if d.Value(r, k) == "" {
					ok = false
					break
				}
			}
			if ok {
				n++
			}
		}
		return n
	}

	out := visualization.ResponseConfig{
		CompleteCasesAllVars:  complete(all),
		CompleteCasesAxesVars: complete(axes),
	}
	for _, k := range all {
		out.CompleteCasesTable = append(out.CompleteCasesTable, visualization.CompleteCases{
			VariableDetails: visualization.VariableDetails{EntityID: k.EntityID, VariableID: k.VariableID},
			CompleteCases:   complete([]core.VariableKey{k}),
		})
	}
	return out
}

// Barplot counts x values per overlay stratum; labels are served in data order
func (d *Dataset) Barplot(filters filter.Set, cfg ChartConfig) (*visualization.BarplotResponse, error) {
	if cfg.XAxisVariable == nil {
		return nil, fmt.Errorf("%w: xAxisVariable", core.ErrMissingRequiredVariable)
	}
	rows := d.Subset(cfg.XAxisVariable.EntityID, filters)
	resp := &visualization.BarplotResponse{Config: d.coverage(rows, cfg)}

	for _, s := range d.strata(rows, cfg) {
		counts := map[string]float64{}
		var labels []string
		total := 0.0
		for _, r := range s.rows {
			v := d.Value(r, *cfg.XAxisVariable)
			if v == "" {
				continue
			}
			if _, ok := counts[v]; !ok {
				labels = append(labels, v)
			}
			counts[v]++
			total++
		}
		series := visualization.BarplotSeries{
			OverlayVariableDetails: d.overlayDetails(cfg, s.name),
			Label:                  []string{},
			Value:                  []float64{},
		}
		for _, l := range labels {
			value := counts[l]
			if cfg.ValueSpec == visualization.ValueProportion && total > 0 {
				value /= total
			}
			series.Label = append(series.Label, l)
			series.Value = append(series.Value, value)
		}
		resp.Data = append(resp.Data, series)
	}
	return resp, nil
}

// Histogram bins a numeric x variable per overlay stratum; no summary is served
func (d *Dataset) Histogram(filters filter.Set, cfg ChartConfig) (*visualization.HistogramResponse, error) {
	if cfg.XAxisVariable == nil {
		return nil, fmt.Errorf("%w: xAxisVariable", core.ErrMissingRequiredVariable)
	}
	rows := d.Subset(cfg.XAxisVariable.EntityID, filters)
	all := d.numbers(rows, *cfg.XAxisVariable)

	bins := binNumbers(all, cfg.BinWidth)
	width := cfg.BinWidth
	if len(bins) > 0 {
		width = bins[0].end - bins[0].start
	}
	resp := &visualization.HistogramResponse{
		Config: visualization.HistogramResponseConfig{
			ResponseConfig: d.coverage(rows, cfg),
			BinWidth:       width,
			BinSlider:      visualization.BinSlider{Min: width / 10, Max: width * 5, Step: width / 10},
		},
	}

	for _, s := range d.strata(rows, cfg) {
		counts := make([]float64, len(bins))
		nums := d.numbers(s.rows, *cfg.XAxisVariable)
		for _, n := range nums {
			for i, b := range bins {
				if (n >= b.start && n < b.end) || (i == len(bins)-1 && n == b.end) {
					counts[i]++
					break
				}
			}
		}
		series := visualization.HistogramSeries{OverlayVariableDetails: d.overlayDetails(cfg, s.name)}
		for i, b := range bins {
			value := counts[i]
			if cfg.ValueSpec == visualization.ValueProportion && len(nums) > 0 {
				value /= float64(len(nums))
			}
			series.BinStart = append(series.BinStart, b.start)
			series.BinEnd = append(series.BinEnd, b.end)
			series.BinLabel = append(series.BinLabel, b.label())
			series.Value = append(series.Value, value)
		}
		resp.Data = append(resp.Data, series)
	}
	return resp, nil
}

// Scatterplot pairs x and y per row; smoothed means are a moving average, best-fit lines are
// left for the client
func (d *Dataset) Scatterplot(filters filter.Set, cfg ChartConfig) (*visualization.ScatterplotResponse, error) {
	if cfg.XAxisVariable == nil || cfg.YAxisVariable == nil {
		return nil, fmt.Errorf("%w: xAxisVariable and yAxisVariable", core.ErrMissingRequiredVariable)
	}
	rows := d.Subset(cfg.XAxisVariable.EntityID, filters)
	resp := &visualization.ScatterplotResponse{Config: d.coverage(rows, cfg)}

	for _, s := range d.strata(rows, cfg) {
		series := visualization.ScatterplotSeries{OverlayVariableDetails: d.overlayDetails(cfg, s.name)}
		for _, r := range s.rows {
			x, errX := strconv.ParseFloat(d.Value(r, *cfg.XAxisVariable), 64)
			y, errY := strconv.ParseFloat(d.Value(r, *cfg.YAxisVariable), 64)
			if errX != nil || errY != nil {
				continue
			}
			series.SeriesX = append(series.SeriesX, x)
			series.SeriesY = append(series.SeriesY, y)
		}
		if cfg.ValueSpec == visualization.ValueSmoothedMean || cfg.ValueSpec == visualization.ValueSmoothedMeanWithRaw {
			series.SmoothedMeanX, series.SmoothedMeanY = movingAverage(series.SeriesX, series.SeriesY, 5)
		}
		if cfg.ValueSpec == visualization.ValueSmoothedMean {
			series.SeriesX, series.SeriesY = nil, nil
		}
		resp.Data = append(resp.Data, series)
	}
	return resp, nil
}

func (d *Dataset) numbers(rows []Row, key core.VariableKey) []float64 {
	var values []string
	for _, r := range rows {
		if v := d.Value(r, key); v != "" {
			values = append(values, v)
		}
	}
	return parseFloats(values)
}

func movingAverage(xs, ys []float64, window int) ([]float64, []float64) {
	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })

	var outX, outY []float64
	for i := 0; i+window <= len(idx); i++ {
		sumX, sumY := 0.0, 0.0
		for _, j := range idx[i : i+window] {
			sumX += xs[j]
			sumY += ys[j]
		}
		outX = append(outX, sumX/float64(window))
		outY = append(outY, sumY/float64(window))
	}
	return outX, outY
}
