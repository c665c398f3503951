package layout

import (
	"log/slog"

	"github.com/ByLCY/quire/content"
)

// 排版常量，单位 pt。
const (
	LineHeightMultiplier = 1.2
	ChartPlotHeight      = 250.0
	HeadingKeepZone      = 100.0
	CellPadding          = 4.0
	ParagraphSpacing     = 6.0
	ListIndent           = 18.0
	ChartMarginTop       = 8.0
	ChartMarginBottom    = 12.0
	ruleWidth            = 0.6
)

// Paginator 依次排版各章节的内容块，维护当前页与纵向偏移。
// 一个 Paginator 只服务于一次排版，不可并发使用。
type Paginator struct {
	theme *Theme
	m     TextMeasurer
	sink  Sink
	log   *slog.Logger
	debug DebugOptions
	state State
}

func newPaginator(th *Theme, m TextMeasurer, sink Sink, log *slog.Logger, debug DebugOptions) *Paginator {
	return &Paginator{theme: th, m: m, sink: sink, log: log, debug: debug}
}

func (p *Paginator) transition(next State, cur Cursor) {
	if p.debug.States && next != p.state {
		p.log.Debug("pagination state",
			"from", p.state.String(),
			"to", next.String(),
			"page", cur.Page,
			"y", cur.Y,
		)
	}
	p.state = next
}

// pageBreak 关闭当前页并打开下一页，纵向偏移回到上边距。
func (p *Paginator) pageBreak(cur Cursor) Cursor {
	p.transition(PageFull, cur)
	cur.Page++
	cur.Y = p.theme.ContentTop()
	cur.Content = true
	p.sink.BeginPage(cur.Page, PageContent)
	return cur
}

// ensure 在放置高度为 h 的内容前检查是否越过下边距，必要时先换页。
// 已在页顶时不再换页，超高内容直接放置，避免死循环。
func (p *Paginator) ensure(cur Cursor, h float64) Cursor {
	if cur.Y+h > p.theme.ContentBottom() && cur.Y > p.theme.ContentTop() {
		return p.pageBreak(cur)
	}
	return cur
}

// keepHeading 标题距离页底不足 HeadingKeepZone 时提前换页。
func (p *Paginator) keepHeading(cur Cursor) Cursor {
	if cur.Y > p.theme.ContentTop() && p.theme.ContentBottom()-cur.Y < HeadingKeepZone {
		return p.pageBreak(cur)
	}
	return cur
}

// Section 排版一个章节：先放置章节标题（只出现一次），再依次排版内容块。
// 返回的 TocEntry 记录标题所在的逻辑页码。
func (p *Paginator) Section(cur Cursor, title string, blocks []content.Block) (Cursor, TocEntry) {
	p.transition(AwaitingBlock, cur)
	cur = p.keepHeading(cur)
	lines := Wrap(p.m, title, p.theme.Style(StyleSection), p.theme.ContentWidth())
	if len(lines) > 0 {
		cur = p.ensure(cur, lines[0].Height)
	}
	entry := TocEntry{Title: title, Page: cur.Page - 2, AnchorY: cur.Y}
	cur = p.placeLines(cur, lines, p.theme.Margin.Left)
	cur.Y += ParagraphSpacing

	prevRaw := -1
	for _, block := range blocks {
		p.transition(AwaitingBlock, cur)
		if prevRaw >= 0 && block.RawIndex() != prevRaw && cur.Y > p.theme.ContentTop() {
			cur.Y = min(cur.Y+ParagraphSpacing, p.theme.ContentBottom())
		}
		prevRaw = block.RawIndex()

		cur = p.block(cur, block)
	}
	return cur, entry
}

func (p *Paginator) block(cur Cursor, block content.Block) Cursor {
	switch b := block.(type) {
	case content.Paragraph:
		if b.IsError() {
			return p.errorLine(cur, content.SpansText(b.Spans))
		}
		return p.styledLines(cur, b.Spans, p.theme.Style(StyleBody), p.theme.Margin.Left, p.theme.ContentWidth())
	case content.Heading:
		cur = p.keepHeading(cur)
		return p.styledLines(cur, b.Spans, p.theme.Style(headingStyle(b.Level)), p.theme.Margin.Left, p.theme.ContentWidth())
	case content.ListItem:
		return p.listItem(cur, b)
	case content.Table:
		return p.table(cur, b)
	case content.Chart:
		return p.chart(cur, b)
	default:
		p.log.Warn("unsupported block", "kind", block.Kind().String())
		return cur
	}
}

func headingStyle(level int) string {
	switch level {
	case 1:
		return StyleH1
	case 2:
		return StyleH2
	default:
		return StyleH3
	}
}

func (p *Paginator) styled(spans []content.Span, base TextStyle) []StyledText {
	out := make([]StyledText, 0, len(spans))
	for _, s := range spans {
		out = append(out, StyledText{Text: s.Text, Style: p.theme.Variant(base, s.Style)})
	}
	return out
}

func (p *Paginator) styledLines(cur Cursor, spans []content.Span, base TextStyle, x, width float64) Cursor {
	return p.placeLines(cur, WrapSpans(p.m, p.styled(spans, base), width), x)
}

// placeLines 逐行放置，每一行单独检查分页。
func (p *Paginator) placeLines(cur Cursor, lines []TextLine, x float64) Cursor {
	for _, line := range lines {
		p.transition(PlacingLine, cur)
		cur = p.ensure(cur, line.Height)
		p.drawLine(line, x, cur.Y)
		cur.Y += line.Height
	}
	return cur
}

func (p *Paginator) drawLine(line TextLine, x, top float64) {
	for _, r := range line.Runs {
		p.sink.Text(TextRun{
			Content: r.Text,
			X:       x + r.X,
			Y:       top + line.Ascent,
			Width:   r.Width,
			Style:   r.Style,
		})
	}
}

func (p *Paginator) listItem(cur Cursor, item content.ListItem) Cursor {
	base := p.theme.Style(StyleBody)
	left := p.theme.Margin.Left
	lines := WrapSpans(p.m, p.styled(item.Spans, base), p.theme.ContentWidth()-ListIndent)
	for i, line := range lines {
		p.transition(PlacingLine, cur)
		cur = p.ensure(cur, line.Height)
		if i == 0 {
			marker := item.Marker()
			w := p.m.Measure(marker, base)
			p.sink.Text(TextRun{
				Content: marker,
				X:       left + ListIndent - w - 4,
				Y:       cur.Y + line.Ascent,
				Width:   w,
				Style:   base,
			})
		}
		p.drawLine(line, left+ListIndent, cur.Y)
		cur.Y += line.Height
	}
	return cur
}

// errorLine 以错误样式放置单行提示，过长时截断。
func (p *Paginator) errorLine(cur Cursor, msg string) Cursor {
	style := p.theme.Style(StyleError)
	msg = ellipsize(p.m, msg, style, p.theme.ContentWidth())
	h := LineHeight(p.m, style)
	p.transition(PlacingLine, cur)
	cur = p.ensure(cur, h)
	ascent, descent := p.m.LineMetrics(style)
	p.sink.Text(TextRun{
		Content: msg,
		X:       p.theme.Margin.Left,
		Y:       cur.Y + (h-(descent-ascent))/2 - ascent,
		Width:   p.m.Measure(msg, style),
		Style:   style,
	})
	cur.Y += h
	return cur
}
