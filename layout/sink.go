package layout

// Sink 接收排版产生的图元。模拟阶段使用 discardSink，渲染阶段使用 pageCollector；
// 两个阶段走同一套排版代码，区别只在于 Sink。
type Sink interface {
	BeginPage(number int, kind PageKind)
	Text(TextRun)
	Line(Line)
	Rect(Rect)
	Circle(Circle)
	Arc(Arc)
	Path(Path)
}

type discardSink struct{}

func (discardSink) BeginPage(int, PageKind) {}
func (discardSink) Text(TextRun)            {}
func (discardSink) Line(Line)               {}
func (discardSink) Rect(Rect)               {}
func (discardSink) Circle(Circle)           {}
func (discardSink) Arc(Arc)                 {}
func (discardSink) Path(Path)               {}

// pageCollector 按顺序收集页面；图元总是追加到最近打开的页面。
type pageCollector struct {
	width  float64
	height float64
	margin Margin
	pages  []*Page
}

func newPageCollector(th *Theme) *pageCollector {
	return &pageCollector{
		width:  th.Width,
		height: th.Height,
		margin: th.Margin,
	}
}

func (pc *pageCollector) BeginPage(number int, kind PageKind) {
	pc.pages = append(pc.pages, &Page{
		Number: number,
		Kind:   kind,
		Width:  pc.width,
		Height: pc.height,
		Margin: pc.margin,
	})
}

func (pc *pageCollector) curr() *Page {
	if len(pc.pages) == 0 {
		pc.BeginPage(1, PageContent)
	}
	return pc.pages[len(pc.pages)-1]
}

func (pc *pageCollector) Text(t TextRun) {
	p := pc.curr()
	p.Texts = append(p.Texts, t)
}

func (pc *pageCollector) Line(l Line) {
	p := pc.curr()
	p.Lines = append(p.Lines, l)
}

func (pc *pageCollector) Rect(r Rect) {
	p := pc.curr()
	p.Rects = append(p.Rects, r)
}

func (pc *pageCollector) Circle(c Circle) {
	p := pc.curr()
	p.Circles = append(p.Circles, c)
}

func (pc *pageCollector) Arc(a Arc) {
	p := pc.curr()
	p.Arcs = append(p.Arcs, a)
}

func (pc *pageCollector) Path(path Path) {
	p := pc.curr()
	p.Paths = append(p.Paths, path)
}

func (pc *pageCollector) allPages() []Page {
	out := make([]Page, len(pc.pages))
	for i, p := range pc.pages {
		out[i] = *p
	}
	return out
}

// Cursor 是分页过程中唯一的可变状态，在每个排版调用之间按值传入、传出。
type Cursor struct {
	Page    int     `json:"page"`
	Y       float64 `json:"y"`
	Content bool    `json:"content"`
}

// State 是分页状态机的状态，仅用于调试日志。
type State int

const (
	AwaitingBlock State = iota
	PlacingLine
	PlacingTableRow
	PlacingChart
	PageFull
)

func (s State) String() string {
	switch s {
	case AwaitingBlock:
		return "awaiting-block"
	case PlacingLine:
		return "placing-line"
	case PlacingTableRow:
		return "placing-table-row"
	case PlacingChart:
		return "placing-chart"
	case PageFull:
		return "page-full"
	default:
		return "unknown"
	}
}
