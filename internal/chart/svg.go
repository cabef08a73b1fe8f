// Package chart draws computed charts as SVG, full size for pages and small for thumbnails.
package chart

import (
	"fmt"
	"html"
	"math"
	"strings"

	vis "edaworkspace/domain/visualization"
	"edaworkspace/internal/visualization"
)

// Options sizes a rendering; thumbnails drop axes, labels and legend
type Options struct {
	Width     int
	Height    int
	Thumbnail bool
}

var (
	// PageOptions is the size of charts embedded in workspace pages
	PageOptions = Options{Width: 640, Height: 400}
	// ThumbnailOptions is the size of stored analysis thumbnails
	ThumbnailOptions = Options{Width: 120, Height: 80, Thumbnail: true}
)

const (
	axisColor = "#444444"
	gridColor = "#e5e5e5"
	fontSize  = 11
	yTicks    = 5
)

// SVG renders chart data as a standalone SVG document
func SVG(data *visualization.ChartData, opts Options) []byte {
	c := newCanvas(opts, len(data.Legend) > 0)
	switch {
	case len(data.Bars) > 0:
		c.bars(data)
	case len(data.Histogram) > 0:
		c.histogram(data)
	case len(data.Scatter) > 0:
		c.scatter(data)
	default:
		c.empty()
	}
	if !opts.Thumbnail {
		c.labels(data.XLabel, data.YLabel)
		c.legend(data.Legend)
	}
	return c.finish()
}

// Thumbnail renders the small preview stored with a saved chart
func Thumbnail(data *visualization.ChartData) string {
	return string(SVG(data, ThumbnailOptions))
}

type canvas struct {
	opts                     Options
	b                        strings.Builder
	left, right, top, bottom float64
}

func newCanvas(opts Options, withLegend bool) *canvas {
	c := &canvas{opts: opts}
	w, h := float64(opts.Width), float64(opts.Height)
	if opts.Thumbnail {
		c.left, c.right, c.top, c.bottom = 4, w-4, 4, h-4
	} else {
		c.left, c.right, c.top, c.bottom = 64, w-16, 16, h-56
		if withLegend {
			c.right = w - 140
		}
	}
	fmt.Fprintf(&c.b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif" font-size="%d">`,
		opts.Width, opts.Height, opts.Width, opts.Height, fontSize)
	fmt.Fprintf(&c.b, `<rect width="%d" height="%d" fill="#ffffff"/>`, opts.Width, opts.Height)
	return c
}

func (c *canvas) finish() []byte {
	c.b.WriteString(`</svg>`)
	return []byte(c.b.String())
}

func (c *canvas) empty() {
	if c.opts.Thumbnail {
		return
	}
	c.text((c.left+c.right)/2, (c.top+c.bottom)/2, "middle", "No data")
}

func (c *canvas) bars(data *visualization.ChartData) {
	labels := data.Bars[0].Labels
	var values []float64
	for _, s := range data.Bars {
		for _, v := range s.Values {
			if v != nil {
				values = append(values, *v)
			}
		}
	}
	y := newScale(values, c.bottom, c.top, data.Config.DependentAxisLogScale, true)
	c.yAxis(y)

	if len(labels) == 0 {
		return
	}
	group := (c.right - c.left) / float64(len(labels))
	width := group * 0.8 / float64(len(data.Bars))
	for i, label := range labels {
		x0 := c.left + group*float64(i) + group*0.1
		for j, s := range data.Bars {
			if i >= len(s.Values) || s.Values[i] == nil {
				continue
			}
			top, ok := y.at(*s.Values[i])
			if !ok {
				continue
			}
			c.rect(x0+width*float64(j), top, width, y.base()-top, colorOr(s.Color, j), 1)
		}
		if !c.opts.Thumbnail {
			c.text(c.left+group*(float64(i)+0.5), c.bottom+16, "middle", truncate(label, int(group/6)))
		}
	}
}

func (c *canvas) histogram(data *visualization.ChartData) {
	lo, hi := math.Inf(1), math.Inf(-1)
	var values []float64
	for _, s := range data.Histogram {
		for i := range s.BinStart {
			lo = math.Min(lo, s.BinStart[i])
			if i < len(s.BinEnd) {
				hi = math.Max(hi, s.BinEnd[i])
			}
		}
		values = append(values, s.Value...)
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) || hi <= lo {
		c.empty()
		return
	}
	x := linear{lo: lo, hi: hi, from: c.left, to: c.right}
	y := newScale(values, c.bottom, c.top, data.Config.DependentAxisLogScale, true)
	c.yAxis(y)
	c.xTicks(x)

	opacity := 1.0
	if len(data.Histogram) > 1 {
		opacity = 0.6
	}
	for j, s := range data.Histogram {
		color := legendColor(data.Legend, j)
		for i := range s.BinStart {
			if i >= len(s.BinEnd) || i >= len(s.Value) {
				break
			}
			top, ok := y.at(s.Value[i])
			if !ok {
				continue
			}
			x0, x1 := x.at(s.BinStart[i]), x.at(s.BinEnd[i])
			c.rect(x0, top, x1-x0, y.base()-top, color, opacity)
		}
	}
}

func (c *canvas) scatter(data *visualization.ChartData) {
	var xs, ys []float64
	for _, s := range data.Scatter {
		xs = append(xs, s.SeriesX...)
		xs = append(xs, s.SmoothedMeanX...)
		ys = append(ys, s.SeriesY...)
		ys = append(ys, s.SmoothedMeanY...)
		ys = append(ys, s.BestFitLineY...)
	}
	if len(xs) == 0 || len(ys) == 0 {
		c.empty()
		return
	}
	xlo, xhi := bounds(xs)
	x := linear{lo: xlo, hi: xhi, from: c.left, to: c.right}
	y := newScale(ys, c.bottom, c.top, data.Config.DependentAxisLogScale, false)
	c.yAxis(y)
	c.xTicks(x)

	radius := 2.5
	if c.opts.Thumbnail {
		radius = 1
	}
	spec := data.Config.ValueSpec
	for j, s := range data.Scatter {
		color := legendColor(data.Legend, j)
		if spec != vis.ValueSmoothedMean {
			for i := range s.SeriesX {
				if i >= len(s.SeriesY) {
					break
				}
				py, ok := y.at(s.SeriesY[i])
				if !ok {
					continue
				}
				fmt.Fprintf(&c.b, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s" fill-opacity="0.7"/>`, x.at(s.SeriesX[i]), py, radius, color)
			}
		}
		c.polyline(x, y, s.SmoothedMeanX, s.SmoothedMeanY, color)
		c.polyline(x, y, s.BestFitLineX, s.BestFitLineY, color)
	}
}

func (c *canvas) polyline(x linear, y scale, xs, ys []float64, color string) {
	var points []string
	for i := range xs {
		if i >= len(ys) {
			break
		}
		py, ok := y.at(ys[i])
		if !ok {
			continue
		}
		points = append(points, fmt.Sprintf("%.1f,%.1f", x.at(xs[i]), py))
	}
	if len(points) < 2 {
		return
	}
	fmt.Fprintf(&c.b, `<polyline points="%s" fill="none" stroke="%s" stroke-width="2"/>`, strings.Join(points, " "), color)
}

func (c *canvas) yAxis(y scale) {
	if c.opts.Thumbnail {
		return
	}
	for _, t := range y.ticks() {
		py, ok := y.at(t)
		if !ok {
			continue
		}
		fmt.Fprintf(&c.b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>`, c.left, py, c.right, py, gridColor)
		c.text(c.left-6, py+4, "end", formatTick(t))
	}
	fmt.Fprintf(&c.b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>`, c.left, c.top, c.left, c.bottom, axisColor)
	fmt.Fprintf(&c.b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>`, c.left, c.bottom, c.right, c.bottom, axisColor)
}

func (c *canvas) xTicks(x linear) {
	if c.opts.Thumbnail {
		return
	}
	for _, t := range niceTicks(x.lo, x.hi, yTicks) {
		px := x.at(t)
		fmt.Fprintf(&c.b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>`, px, c.bottom, px, c.bottom+4, axisColor)
		c.text(px, c.bottom+16, "middle", formatTick(t))
	}
}

func (c *canvas) labels(xLabel, yLabel string) {
	if xLabel != "" {
		c.text((c.left+c.right)/2, c.bottom+40, "middle", xLabel)
	}
	if yLabel != "" {
		cy := (c.top + c.bottom) / 2
		fmt.Fprintf(&c.b, `<text x="14" y="%.1f" text-anchor="middle" transform="rotate(-90 14 %.1f)">%s</text>`, cy, cy, html.EscapeString(yLabel))
	}
}

func (c *canvas) legend(items []visualization.LegendItem) {
	x := c.right + 16
	for i, item := range items {
		y := c.top + float64(i)*18
		c.rect(x, y, 12, 12, item.Color, 1)
		c.text(x+18, y+10, "start", truncate(item.Name, 18))
	}
}

func (c *canvas) rect(x, y, w, h float64, color string, opacity float64) {
	if w <= 0 || h <= 0 {
		return
	}
	fmt.Fprintf(&c.b, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"`, x, y, w, h, color)
	if opacity < 1 {
		fmt.Fprintf(&c.b, ` fill-opacity="%.2f"`, opacity)
	}
	c.b.WriteString(`/>`)
}

func (c *canvas) text(x, y float64, anchor, s string) {
	fmt.Fprintf(&c.b, `<text x="%.1f" y="%.1f" text-anchor="%s" fill="%s">%s</text>`, x, y, anchor, axisColor, html.EscapeString(s))
}

func legendColor(items []visualization.LegendItem, i int) string {
	if i < len(items) {
		return items[i].Color
	}
	return vis.Palette[i%len(vis.Palette)]
}

func colorOr(color string, i int) string {
	if color != "" {
		return color
	}
	return vis.Palette[i%len(vis.Palette)]
}

func truncate(s string, n int) string {
	if n < 4 {
		n = 4
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func formatTick(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e9 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.3g", v)
}
