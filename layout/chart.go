package layout

import (
	"fmt"
	"math"
	"strconv"

	"github.com/ByLCY/quire/content"
)

// 绘图区内部留白，单位 pt。
const (
	axisGutterLeft   = 40.0
	axisGutterBottom = 28.0
	axisGutterTop    = 12.0
	axisGutterRight  = 8.0
	markerRadius     = 2.5
	legendSwatch     = 8.0
)

// ChartFootprint 返回图表占用的固定高度：上边距 + 标题行高 + 绘图区 + 下边距。
// 与图表类型和数据无关。
func ChartFootprint(m TextMeasurer, th *Theme) float64 {
	return ChartMarginTop + LineHeight(m, th.Style(StyleChartTitle)) + ChartPlotHeight + ChartMarginBottom
}

// axisRange 是一条数值轴的范围；min == max 时向上扩展 1，避免除零。
type axisRange struct {
	min, max float64
}

func newAxisRange(lo, hi float64) axisRange {
	if hi == lo {
		hi = lo + 1
	}
	return axisRange{min: lo, max: hi}
}

// scale 将 v 映射到 [0, length]。
func (a axisRange) scale(v, length float64) float64 {
	return (v - a.min) / (a.max - a.min) * length
}

type plotArea struct {
	x, y, w, h float64
}

func (p *Paginator) chart(cur Cursor, c content.Chart) Cursor {
	p.transition(PlacingChart, cur)
	footprint := ChartFootprint(p.m, p.theme)
	cur = p.ensure(cur, footprint)

	titleStyle := p.theme.Style(StyleChartTitle)
	titleH := LineHeight(p.m, titleStyle)
	top := cur.Y + ChartMarginTop
	title := ellipsize(p.m, c.Title, titleStyle, p.theme.ContentWidth())
	p.centeredText(title, titleStyle, p.theme.Margin.Left, p.theme.ContentWidth(), top, titleH)

	area := plotArea{x: p.theme.Margin.Left, y: top + titleH, w: p.theme.ContentWidth(), h: ChartPlotHeight}
	switch c.Type {
	case content.ChartPie:
		p.drawPie(c, area)
	default:
		p.drawAxesChart(c, area)
	}
	cur.Y += footprint
	return cur
}

func (p *Paginator) centeredText(text string, style TextStyle, x, width, top, lineH float64) {
	w := p.m.Measure(text, style)
	ascent, descent := p.m.LineMetrics(style)
	p.sink.Text(TextRun{
		Content: text,
		X:       x + (width-w)/2,
		Y:       top + (lineH-(descent-ascent))/2 - ascent,
		Width:   w,
		Style:   style,
	})
}

func (p *Paginator) labelText(text string, style TextStyle, x, baseline float64) {
	p.sink.Text(TextRun{Content: text, X: x, Y: baseline, Width: p.m.Measure(text, style), Style: style})
}

// drawAxesChart 绘制带坐标轴的图表：bar、line、scatter、bar-line。
func (p *Paginator) drawAxesChart(c content.Chart, area plotArea) {
	label := p.theme.Style(StyleChartLabel)
	axis := p.theme.Color(ColorAxis)
	plot := plotArea{
		x: area.x + axisGutterLeft,
		y: area.y + axisGutterTop,
		w: area.w - axisGutterLeft - axisGutterRight,
		h: area.h - axisGutterTop - axisGutterBottom,
	}
	bottom := plot.y + plot.h

	minX, maxX, minY, maxY := c.Bounds()
	if c.Type == content.ChartBar || c.Type == content.ChartBarLine {
		minY = math.Min(minY, 0)
		maxY = math.Max(maxY, 0)
	}
	yr := newAxisRange(minY, maxY)
	yAt := func(v float64) float64 { return bottom - yr.scale(v, plot.h) }

	// 网格与刻度：最小、中间、最大三档
	grid := p.theme.Color(ColorGrid)
	for _, v := range []float64{yr.min, (yr.min + yr.max) / 2, yr.max} {
		y := yAt(v)
		p.sink.Line(Line{X1: plot.x, Y1: y, X2: plot.x + plot.w, Y2: y, Color: grid, Width: ruleWidth / 2, Dash: true})
		text := formatTick(v)
		p.labelText(text, label, plot.x-4-p.m.Measure(text, label), y+label.Size/3)
	}
	p.sink.Line(Line{X1: plot.x, Y1: plot.y, X2: plot.x, Y2: bottom, Color: axis, Width: ruleWidth})
	p.sink.Line(Line{X1: plot.x, Y1: bottom, X2: plot.x + plot.w, Y2: bottom, Color: axis, Width: ruleWidth})
	if c.YLabel != "" {
		p.labelText(c.YLabel, label, area.x, area.y+label.Size)
	}
	if c.XLabel != "" {
		w := p.m.Measure(c.XLabel, label)
		p.labelText(c.XLabel, label, plot.x+(plot.w-w)/2, area.y+area.h-2)
	}

	if c.Type.Categorical() {
		p.drawCategorical(c, plot, yAt, label)
		return
	}

	xr := newAxisRange(minX, maxX)
	xAt := func(v float64) float64 { return plot.x + xr.scale(v, plot.w) }
	for _, v := range []float64{xr.min, xr.max} {
		text := formatTick(v)
		w := p.m.Measure(text, label)
		p.labelText(text, label, xAt(v)-w/2, bottom+label.Size+4)
	}
	for si, s := range c.Series {
		col := p.theme.SeriesColor(si)
		pts := make([]Point, 0, len(s.Points))
		for _, pt := range s.Points {
			pts = append(pts, Point{X: xAt(pt.X), Y: yAt(pt.Y)})
		}
		if c.Type == content.ChartLine && len(pts) > 1 {
			p.sink.Path(Path{Points: pts, StrokeColor: colorPtr(col), StrokeWidth: 1.5})
		}
		for _, pt := range pts {
			p.sink.Circle(Circle{CX: pt.X, CY: pt.Y, R: markerRadius, FillColor: colorPtr(col)})
		}
	}
}

func (p *Paginator) drawCategorical(c content.Chart, plot plotArea, yAt func(float64) float64, label TextStyle) {
	n := len(c.Labels)
	if n == 0 {
		return
	}
	slot := plot.w / float64(n)
	bottom := plot.y + plot.h
	for i, name := range c.Labels {
		text := ellipsize(p.m, name, label, slot-2)
		w := p.m.Measure(text, label)
		p.labelText(text, label, plot.x+slot*(float64(i)+0.5)-w/2, bottom+label.Size+4)
	}

	bars := c.Series
	var lines []content.Series
	if c.Type == content.ChartBarLine {
		bars, lines = c.Series[:1], c.Series[1:]
	}
	barW := slot * 0.7 / float64(len(bars))
	zero := yAt(0)
	for si, s := range bars {
		col := p.theme.SeriesColor(si)
		for _, pt := range s.Points {
			x := plot.x + slot*pt.X + slot*0.15 + barW*float64(si)
			y := yAt(pt.Y)
			top, h := math.Min(y, zero), math.Abs(zero-y)
			p.sink.Rect(Rect{X: x, Y: top, Width: barW, Height: h, FillColor: colorPtr(col)})
		}
	}
	for li, s := range lines {
		col := p.theme.SeriesColor(len(bars) + li)
		pts := make([]Point, 0, len(s.Points))
		for _, pt := range s.Points {
			pts = append(pts, Point{X: plot.x + slot*(pt.X+0.5), Y: yAt(pt.Y)})
		}
		if len(pts) > 1 {
			p.sink.Path(Path{Points: pts, StrokeColor: colorPtr(col), StrokeWidth: 1.5})
		}
		for _, pt := range pts {
			p.sink.Circle(Circle{CX: pt.X, CY: pt.Y, R: markerRadius, FillColor: colorPtr(col)})
		}
	}
}

// drawPie 绘制饼图：扇形从 12 点方向顺时针排列，右侧为图例。
func (p *Paginator) drawPie(c content.Chart, area plotArea) {
	label := p.theme.Style(StyleChartLabel)
	points := c.Series[0].Points
	total := 0.0
	for _, pt := range points {
		total += pt.Y
	}
	if total <= 0 {
		return
	}
	r := math.Min(area.w*0.6, area.h) / 2 * 0.9
	cx := area.x + area.w*0.3
	cy := area.y + area.h/2
	start := -90.0
	legendX := area.x + area.w*0.62
	legendY := area.y + (area.h-float64(len(points))*legendSwatch*2)/2
	for i, pt := range points {
		sweep := pt.Y / total * 360
		col := p.theme.SeriesColor(i)
		if sweep > 0 {
			p.sink.Arc(Arc{CX: cx, CY: cy, R: r, Start: start, Sweep: sweep, Sector: true, FillColor: colorPtr(col)})
		}
		start += sweep

		name := ""
		if idx := int(pt.X); idx < len(c.Labels) {
			name = c.Labels[idx]
		}
		y := legendY + float64(i)*legendSwatch*2
		p.sink.Rect(Rect{X: legendX, Y: y, Width: legendSwatch, Height: legendSwatch, FillColor: colorPtr(col)})
		text := fmt.Sprintf("%s (%s%%)", name, formatTick(pt.Y/total*100))
		text = ellipsize(p.m, text, label, area.x+area.w-legendX-legendSwatch-4)
		p.labelText(text, label, legendX+legendSwatch+4, y+legendSwatch)
	}
}

func formatTick(v float64) string {
	if math.Abs(v-math.Round(v)) < 1e-9 {
		return strconv.FormatFloat(math.Round(v), 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
