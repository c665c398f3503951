package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/quire/binding"
	"github.com/ByLCY/quire/content"
)

// 正文从第 3 页开始：第 1 页封面，第 2 页目录。
const (
	coverPage        = 1
	tocPage          = 2
	firstContentPage = 3
)

// Assemble 生成完整文档：先以模拟模式排版全部章节得到目录，再输出封面、目录
// 与正文页。渲染结果与目录不一致时返回 ErrTocMismatch。
func Assemble(doc content.Document, opts Options) (*Result, error) {
	if opts.Measurer == nil {
		return nil, ErrNoMeasurer
	}
	if len(doc.Sections) == 0 {
		return nil, ErrEmptyDocument
	}
	th := opts.theme()
	log := opts.logger()

	blocks := parseSections(doc, opts)
	toc, lastPage := simulate(doc, blocks, th, opts)

	collector := newPageCollector(th)
	collector.BeginPage(coverPage, PageCover)
	drawCover(collector, opts.Measurer, th, doc)
	collector.BeginPage(tocPage, PageTOC)
	drawTOC(collector, opts.Measurer, th, toc)

	pag := newPaginator(th, opts.Measurer, collector, log, opts.Debug)
	collector.BeginPage(firstContentPage, PageContent)
	cur := Cursor{Page: firstContentPage, Y: th.ContentTop(), Content: true}
	for i, section := range doc.Sections {
		var entry TocEntry
		cur, entry = pag.Section(cur, section.Title, blocks[i])
		if entry.Page != toc[i].Page {
			return nil, fmt.Errorf("%w: 章节 %q 预测第 %d 页，实际第 %d 页", ErrTocMismatch, section.Title, toc[i].Page, entry.Page)
		}
	}
	if cur.Page != lastPage {
		return nil, fmt.Errorf("%w: 预测共 %d 页，实际 %d 页", ErrTocMismatch, lastPage, cur.Page)
	}

	meta := th.Meta
	meta.Title = doc.Title
	if doc.Author != "" {
		meta.Author = doc.Author
	}
	pages := collector.allPages()
	applyFooters(pages, opts.Measurer, th, meta, lastPage-tocPage)

	return &Result{
		Pages:     pages,
		TOC:       toc,
		Resources: th.Resources,
		Meta:      meta,
	}, nil
}

// PredictTOC 只运行模拟阶段，返回目录与正文总页数（逻辑页）。
func PredictTOC(doc content.Document, opts Options) ([]TocEntry, int, error) {
	if opts.Measurer == nil {
		return nil, 0, ErrNoMeasurer
	}
	if len(doc.Sections) == 0 {
		return nil, 0, ErrEmptyDocument
	}
	toc, lastPage := simulate(doc, parseSections(doc, opts), opts.theme(), opts)
	return toc, lastPage - tocPage, nil
}

func parseSections(doc content.Document, opts Options) [][]content.Block {
	parser := content.NewParser(content.ParseOptions{Logger: opts.logger()})
	out := make([][]content.Block, len(doc.Sections))
	for i, s := range doc.Sections {
		out[i] = parser.Parse(s.Content, s.Title)
	}
	return out
}

// simulate 以丢弃型 Sink 运行分页，得到每章首页与最后一页的物理页码。
func simulate(doc content.Document, blocks [][]content.Block, th *Theme, opts Options) ([]TocEntry, int) {
	pag := newPaginator(th, opts.Measurer, discardSink{}, opts.logger(), opts.Debug)
	cur := Cursor{Page: firstContentPage, Y: th.ContentTop(), Content: true}
	toc := make([]TocEntry, 0, len(doc.Sections))
	for i, section := range doc.Sections {
		var entry TocEntry
		cur, entry = pag.Section(cur, section.Title, blocks[i])
		toc = append(toc, entry)
	}
	return toc, cur.Page
}

// drawCover 标题折行居中，整体在页面上垂直居中；作者/主题在标题下方。
func drawCover(sink Sink, m TextMeasurer, th *Theme, doc content.Document) {
	style := th.Style(StyleCover)
	lines := Wrap(m, doc.Title, style, th.ContentWidth())
	sub := doc.Author
	if sub == "" {
		sub = th.Meta.Author
	}
	if th.Meta.Subject != "" {
		if sub != "" {
			sub += " · "
		}
		sub += th.Meta.Subject
	}
	subStyle := th.Style(StyleCoverSub)
	subH := 0.0
	if sub != "" {
		subH = LineHeight(m, subStyle) + ParagraphSpacing*2
	}

	total := subH
	for _, l := range lines {
		total += l.Height
	}
	y := (th.Height - total) / 2
	for _, l := range lines {
		x := th.Margin.Left + (th.ContentWidth()-l.Width)/2
		for _, r := range l.Runs {
			sink.Text(TextRun{Content: r.Text, X: x + r.X, Y: y + l.Ascent, Width: r.Width, Style: r.Style})
		}
		y += l.Height
	}
	if sub != "" {
		y += ParagraphSpacing * 2
		sub = ellipsize(m, sub, subStyle, th.ContentWidth())
		w := m.Measure(sub, subStyle)
		ascent, _ := m.LineMetrics(subStyle)
		sink.Text(TextRun{Content: sub, X: th.Margin.Left + (th.ContentWidth()-w)/2, Y: y - ascent, Width: w, Style: subStyle})
	}
}

// drawTOC 绘制目录：标题过长时以省略号截断，留出点状引导线与右对齐页码；
// 超出下边距的条目直接丢弃，目录不分页。
func drawTOC(sink Sink, m TextMeasurer, th *Theme, toc []TocEntry) {
	titleStyle := th.Style(StyleTOCTitle)
	y := th.ContentTop()
	for _, l := range Wrap(m, th.TOCTitle, titleStyle, th.ContentWidth()) {
		for _, r := range l.Runs {
			sink.Text(TextRun{Content: r.Text, X: th.Margin.Left + r.X, Y: y + l.Ascent, Width: r.Width, Style: r.Style})
		}
		y += l.Height
	}
	y += ParagraphSpacing * 2

	style := th.Style(StyleTOCEntry)
	lineH := LineHeight(m, style)
	ascent, descent := m.LineMetrics(style)
	baseline := (lineH-(descent-ascent))/2 - ascent
	left, right := th.Margin.Left, th.Width-th.Margin.Right
	dotW := m.Measure(".", style)
	minLeader := dotW * 4

	for _, entry := range toc {
		if y+lineH > th.ContentBottom() {
			break
		}
		num := strconv.Itoa(entry.Page)
		numW := m.Measure(num, style)
		title := ellipsize(m, entry.Title, style, right-left-numW-minLeader)
		titleW := m.Measure(title, style)
		sink.Text(TextRun{Content: title, X: left, Y: y + baseline, Width: titleW, Style: style})
		sink.Text(TextRun{Content: num, X: right - numW, Y: y + baseline, Width: numW, Style: style})

		gap := right - numW - (left + titleW) - dotW
		if dotW > 0 && gap > dotW {
			dots := strings.Repeat(".", int(gap/dotW))
			w := m.Measure(dots, style)
			sink.Text(TextRun{Content: dots, X: right - numW - dotW/2 - w, Y: y + baseline, Width: w, Style: style})
		}
		y += lineH
	}
}

// footerVars 是页脚模板可以引用的变量。
var footerVars = []string{"page", "pages", "title", "author", "subject", "keywords"}

// applyFooters 为正文页填写页脚，页码从 1 开始；封面与目录页没有页脚。
func applyFooters(pages []Page, m TextMeasurer, th *Theme, meta DocumentMeta, total int) {
	if strings.TrimSpace(th.Footer) == "" {
		return
	}
	keywords := make([]any, len(meta.Keywords))
	for i, k := range meta.Keywords {
		keywords[i] = k
	}
	style := th.Style(StyleFooter)
	_, descent := m.LineMetrics(style)
	for i := range pages {
		if !pages[i].IsContent() {
			continue
		}
		text := binding.Interpolate(th.Footer, binding.Vars{
			"page":     pages[i].Number - tocPage,
			"pages":    total,
			"title":    meta.Title,
			"author":   meta.Author,
			"subject":  meta.Subject,
			"keywords": keywords,
		})
		text = ellipsize(m, text, style, th.ContentWidth())
		w := m.Measure(text, style)
		pages[i].Footer = &TextRun{
			Content: text,
			X:       (th.Width - w) / 2,
			Y:       th.Height - th.Margin.Bottom/2 - descent,
			Width:   w,
			Style:   style,
		}
	}
}
