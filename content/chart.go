package content

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/ByLCY/quire/dsl"
)

var chartTypes = map[string]ChartType{
	"bar":      ChartBar,
	"pie":      ChartPie,
	"line":     ChartLine,
	"scatter":  ChartScatter,
	"bar-line": ChartBarLine,
	"barline":  ChartBarLine,
}

// parseChart 解析 [[CHART|kind|title|axis-labels|x-row|series...]]。
// x-row 对分类图表（bar/pie/bar-line）是类别名，对 line/scatter 是数值；
// 其后每一段是一组数值序列。无法解析的数值逐个跳过并记录告警。
func parseChart(d *dsl.Directive, log *slog.Logger) (Chart, error) {
	parts := d.Parts()
	if len(parts) < 5 {
		return Chart{}, fmt.Errorf("chart needs kind, title, axis labels and at least two series parts, got %d part(s)", len(parts))
	}
	kind, ok := chartTypes[strings.ToLower(parts[0])]
	if !ok {
		return Chart{}, fmt.Errorf("unknown chart kind %q", parts[0])
	}
	if kind == ChartBarLine && len(parts) < 6 {
		return Chart{}, fmt.Errorf("bar-line chart needs a bar series and a line series")
	}

	chart := Chart{Type: kind, Title: parts[1]}
	axis := strings.Split(parts[2], ",")
	chart.XLabel = strings.TrimSpace(axis[0])
	if len(axis) > 1 {
		chart.YLabel = strings.TrimSpace(strings.Join(axis[1:], ","))
	}

	xTokens := strings.Split(parts[3], ",")
	skip := func(series int, token, reason string) {
		chart.Skipped++
		log.Warn("chart data point skipped",
			"chart", chart.Title,
			"series", series,
			"token", token,
			"reason", reason,
		)
	}

	var xs []float64
	var xValid []bool
	if kind.Categorical() {
		for _, tok := range xTokens {
			chart.Labels = append(chart.Labels, strings.TrimSpace(tok))
		}
	} else {
		xs = make([]float64, len(xTokens))
		xValid = make([]bool, len(xTokens))
		for i, tok := range xTokens {
			v, err := parseNumber(tok)
			if err != nil {
				skip(0, tok, "x value is not a number")
				continue
			}
			xs[i], xValid[i] = v, true
		}
	}

	for si, raw := range parts[4:] {
		var series Series
		for i, tok := range strings.Split(raw, ",") {
			if kind.Categorical() && i >= len(chart.Labels) {
				skip(si+1, tok, "no category for value")
				continue
			}
			if !kind.Categorical() && i >= len(xs) {
				skip(si+1, tok, "no x value for point")
				continue
			}
			y, err := parseNumber(tok)
			if err != nil {
				skip(si+1, tok, "value is not a number")
				continue
			}
			if kind == ChartPie && y < 0 {
				skip(si+1, tok, "negative pie value")
				continue
			}
			x := float64(i)
			if !kind.Categorical() {
				if !xValid[i] {
					continue
				}
				x = xs[i]
			}
			series.Points = append(series.Points, Point{X: x, Y: y})
		}
		if len(series.Points) == 0 && kind == ChartBarLine && si == 0 {
			// 柱状组整组无效时不能让折线组顶替成柱
			return Chart{}, fmt.Errorf("bar-line chart %q has no valid bar values", chart.Title)
		}
		if len(series.Points) > 0 {
			chart.Series = append(chart.Series, series)
		}
		if kind == ChartPie {
			// 饼图只使用第一组数值
			break
		}
	}

	if chart.PointCount() == 0 {
		return Chart{}, fmt.Errorf("chart %q has no usable data points", chart.Title)
	}
	if kind == ChartBarLine && len(chart.Series) < 2 {
		return Chart{}, fmt.Errorf("bar-line chart %q lost a series to invalid data", chart.Title)
	}
	if kind == ChartPie {
		total := 0.0
		for _, p := range chart.Series[0].Points {
			total += p.Y
		}
		if total <= 0 {
			return Chart{}, fmt.Errorf("pie chart %q values sum to zero", chart.Title)
		}
	}
	return chart, nil
}

func parseNumber(token string) (float64, error) {
	s := strings.TrimSpace(token)
	s = strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite number %q", token)
	}
	return v, nil
}
