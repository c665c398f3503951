package content

import (
	"strconv"
	"strings"
)

// Kind 标识内容块的种类。
type Kind int

const (
	KindParagraph Kind = iota
	KindHeading
	KindListItem
	KindTable
	KindChart
)

func (k Kind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindHeading:
		return "heading"
	case KindListItem:
		return "list-item"
	case KindTable:
		return "table"
	case KindChart:
		return "chart"
	default:
		return "unknown"
	}
}

// Block 是一个语义单元（段落、标题、列表项、表格、图表）。
// RawIndex 返回该块来自第几个原始块（按空行切分），排版时据此决定段间距。
type Block interface {
	Kind() Kind
	RawIndex() int
}

// SpanStyle 是行内样式。
type SpanStyle int

const (
	Plain SpanStyle = iota
	Bold
	Italic
)

func (s SpanStyle) String() string {
	switch s {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	default:
		return "plain"
	}
}

// Span 是一段带样式的文本；同一行的 Span 依次拼接即为去掉强调标记后的原文。
type Span struct {
	Text  string    `json:"text"`
	Style SpanStyle `json:"style"`
}

// SpansText 拼接 spans 的文本。
func SpansText(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Paragraph 普通段落。Err 非空时表示这是一个内联错误块（指令解析失败），
// Spans 中只有一段纯文本错误信息。
type Paragraph struct {
	Spans []Span `json:"spans"`
	Err   string `json:"err,omitempty"`
	Raw   int    `json:"raw"`
}

func (p Paragraph) Kind() Kind    { return KindParagraph }
func (p Paragraph) RawIndex() int { return p.Raw }

// IsError reports whether the paragraph stands in for a failed directive.
func (p Paragraph) IsError() bool { return p.Err != "" }

// Heading 标题，Level 取值 1..3。
type Heading struct {
	Level int    `json:"level"`
	Spans []Span `json:"spans"`
	Raw   int    `json:"raw"`
}

func (h Heading) Kind() Kind    { return KindHeading }
func (h Heading) RawIndex() int { return h.Raw }

// ListItem 列表项；Ordered 为 true 时 Number 为原文中的序号。
type ListItem struct {
	Ordered bool   `json:"ordered"`
	Number  int    `json:"number,omitempty"`
	Spans   []Span `json:"spans"`
	Raw     int    `json:"raw"`
}

func (l ListItem) Kind() Kind    { return KindListItem }
func (l ListItem) RawIndex() int { return l.Raw }

// Marker 返回列表标记文本。
func (l ListItem) Marker() string {
	if l.Ordered {
		return strconv.Itoa(l.Number) + "."
	}
	return "•"
}

// Table 由 [[TABLE|...]] 指令解析得到。每行的单元格数与表头一致。
type Table struct {
	Title   string     `json:"title"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
	Raw     int        `json:"raw"`
}

func (t Table) Kind() Kind    { return KindTable }
func (t Table) RawIndex() int { return t.Raw }

// ChartType 图表类型。
type ChartType string

const (
	ChartBar     ChartType = "bar"
	ChartPie     ChartType = "pie"
	ChartLine    ChartType = "line"
	ChartScatter ChartType = "scatter"
	ChartBarLine ChartType = "bar-line"
)

// Categorical reports whether the x row holds labels rather than numbers.
func (c ChartType) Categorical() bool {
	return c == ChartBar || c == ChartPie || c == ChartBarLine
}

// Point 是一个数据点。分类图表中 X 为类别下标。
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series 是一组数据点。
type Series struct {
	Points []Point `json:"points"`
}

// Chart 由 [[CHART|...]] 指令解析得到。
type Chart struct {
	Type    ChartType `json:"type"`
	Title   string    `json:"title"`
	XLabel  string    `json:"xLabel,omitempty"`
	YLabel  string    `json:"yLabel,omitempty"`
	Labels  []string  `json:"labels,omitempty"`
	Series  []Series  `json:"series"`
	Skipped int       `json:"skipped,omitempty"`
	Raw     int       `json:"raw"`
}

func (c Chart) Kind() Kind    { return KindChart }
func (c Chart) RawIndex() int { return c.Raw }

// Bounds 返回全部数据点的 X/Y 范围。
func (c Chart) Bounds() (minX, maxX, minY, maxY float64) {
	first := true
	for _, s := range c.Series {
		for _, p := range s.Points {
			if first {
				minX, maxX, minY, maxY = p.X, p.X, p.Y, p.Y
				first = false
				continue
			}
			minX = min(minX, p.X)
			maxX = max(maxX, p.X)
			minY = min(minY, p.Y)
			maxY = max(maxY, p.Y)
		}
	}
	return minX, maxX, minY, maxY
}

// PointCount 返回可用数据点总数。
func (c Chart) PointCount() int {
	n := 0
	for _, s := range c.Series {
		n += len(s.Points)
	}
	return n
}
