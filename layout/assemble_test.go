package layout

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/ByLCY/quire/content"
)

func sectionDoc() content.Document {
	var sections []content.Section
	for i := 1; i <= 6; i++ {
		var body strings.Builder
		for j := 0; j < i*2; j++ {
			fmt.Fprintf(&body, "Paragraph %d of section %d has a handful of words to wrap around.\n\n", j, i)
		}
		body.WriteString("## Details\n- one\n- two\n1. first\n\n")
		if i%2 == 0 {
			body.WriteString("[[TABLE|Numbers|Name,Value|alpha,1|beta,2|gamma,3|delta,4]]\n\n")
		}
		if i%3 == 0 {
			body.WriteString("[[CHART|bar|Sales|Quarter,USD|Q1,Q2,Q3|10,20,30]]\n\n")
		}
		body.WriteString("Closing *remark*.")
		sections = append(sections, content.Section{Title: fmt.Sprintf("S%d", i), Content: body.String()})
	}
	return content.Document{Title: "Parity", Sections: sections}
}

func mediumTheme() *Theme {
	th := DefaultTheme()
	th.Width = 320
	th.Height = 400
	th.Margin = Margin{Top: 20, Right: 20, Bottom: 20, Left: 20}
	return th
}

// TestAssembleTocParity 校验每章标题在渲染结果中的物理页码等于目录逻辑页码 + 2。
func TestAssembleTocParity(t *testing.T) {
	th := mediumTheme()
	res, err := Assemble(sectionDoc(), Options{Measurer: fixedMeasurer{advance: 6}, Theme: th})
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	if len(res.TOC) != 6 {
		t.Fatalf("期望 6 个目录项，实际 %d", len(res.TOC))
	}
	sectionSize := th.Style(StyleSection).Size
	for _, entry := range res.TOC {
		found := 0
		for _, page := range res.Pages {
			if !page.IsContent() {
				continue
			}
			for _, run := range page.Texts {
				if run.Content == entry.Title && run.Style.Size == sectionSize {
					found = page.Number
					break
				}
			}
			if found != 0 {
				break
			}
		}
		if found != entry.Page+2 {
			t.Fatalf("章节 %s 目录页码 %d，实际出现在物理第 %d 页", entry.Title, entry.Page, found)
		}
	}
	if res.TOC[len(res.TOC)-1].Page <= 1 {
		t.Fatalf("测试文档应跨越多页: %+v", res.TOC)
	}

	predicted, total, err := PredictTOC(sectionDoc(), Options{Measurer: fixedMeasurer{advance: 6}, Theme: th})
	if err != nil {
		t.Fatalf("预测目录失败: %v", err)
	}
	if total != len(res.Pages)-2 {
		t.Fatalf("预测正文页数 %d，实际 %d", total, len(res.Pages)-2)
	}
	for i := range predicted {
		if predicted[i] != res.TOC[i] {
			t.Fatalf("PredictTOC 与 Assemble 不一致: %+v vs %+v", predicted[i], res.TOC[i])
		}
	}
}

func TestAssemblePageOrderAndFooters(t *testing.T) {
	th := smallTheme()
	th.Footer = "${page}/${pages}"
	doc := content.Document{Title: "Tiny", Sections: []content.Section{
		{Title: "Data", Content: "[[TABLE|Stats|A,B|1,2|3,4]]"},
	}}
	res, err := Assemble(doc, Options{Measurer: fixedMeasurer{advance: 10}, Theme: th})
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	kinds := []PageKind{PageCover, PageTOC, PageContent, PageContent}
	if len(res.Pages) != len(kinds) {
		t.Fatalf("期望 %d 页，实际 %d", len(kinds), len(res.Pages))
	}
	for i, page := range res.Pages {
		if page.Number != i+1 || page.Kind != kinds[i] {
			t.Fatalf("第 %d 页编号/类型不正确: %d %s", i+1, page.Number, page.Kind)
		}
	}
	if res.Pages[0].Footer != nil || res.Pages[1].Footer != nil {
		t.Fatalf("封面与目录页不应有页脚")
	}
	if f := res.Pages[2].Footer; f == nil || f.Content != "1/2" {
		t.Fatalf("第一页正文页脚应为 1/2: %+v", f)
	}
	if f := res.Pages[3].Footer; f == nil || f.Content != "2/2" {
		t.Fatalf("第二页正文页脚应为 2/2: %+v", f)
	}
	if res.Meta.Title != "Tiny" {
		t.Fatalf("文档元信息标题不正确: %q", res.Meta.Title)
	}
}

func TestFooterMetaVariables(t *testing.T) {
	th := smallTheme()
	th.Footer = "${author} ${keywords[1]} ${subject:-none}"
	th.Meta.Keywords = []string{"alpha", "beta"}
	doc := content.Document{Title: "T", Author: "Ann", Sections: []content.Section{{Title: "A", Content: "x"}}}
	res, err := Assemble(doc, Options{Measurer: fixedMeasurer{advance: 5}, Theme: th})
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	if f := res.Pages[2].Footer; f == nil || f.Content != "Ann beta none" {
		t.Fatalf("页脚变量替换不正确: %+v", f)
	}
}

// TestTableHeaderRepeats 对应只能容纳表头和一行数据的页面：
// 第二行数据移到下一页，并在其前重复表头。
func TestTableHeaderRepeats(t *testing.T) {
	doc := content.Document{Title: "T", Sections: []content.Section{
		{Title: "Data", Content: "[[TABLE|Stats|A,B|1,2|3,4]]"},
	}}
	res, err := Assemble(doc, Options{Measurer: fixedMeasurer{advance: 10}, Theme: smallTheme()})
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	first, second := textsOn(res.Pages[2]), textsOn(res.Pages[3])
	for _, s := range []string{"Data", "Stats", "A", "B", "1", "2"} {
		if !contains(first, s) {
			t.Fatalf("第 3 页缺少 %q: %v", s, first)
		}
	}
	if contains(first, "3") {
		t.Fatalf("第二行数据不应出现在第 3 页: %v", first)
	}
	for _, s := range []string{"A", "B", "3", "4"} {
		if !contains(second, s) {
			t.Fatalf("第 4 页缺少 %q: %v", s, second)
		}
	}

	headerStyle := smallTheme().Style(StyleTableHeader)
	headers := 0
	for _, page := range res.Pages[2:] {
		perPage := 0
		for _, run := range page.Texts {
			if run.Content == "A" && run.Style == headerStyle {
				perPage++
			}
		}
		if perPage != 1 {
			t.Fatalf("第 %d 页表头数量 %d，期望 1", page.Number, perPage)
		}
		headers += perPage
	}
	if headers != 2 {
		t.Fatalf("跨 2 页的表格应绘制 2 次表头，实际 %d", headers)
	}
}

func TestTableHeaderTooTall(t *testing.T) {
	th := smallTheme()
	th.Height = 30
	doc := content.Document{Title: "T", Sections: []content.Section{
		{Title: "Data", Content: "[[TABLE|Stats|A,B|1,2]]\n\nAfter"},
	}}
	res, err := Assemble(doc, Options{Measurer: fixedMeasurer{advance: 10}, Theme: th})
	if err != nil {
		t.Fatalf("表头过高不应中断整篇文档: %v", err)
	}
	var errRun *TextRun
	sawAfter := false
	for pi := range res.Pages {
		if !res.Pages[pi].IsContent() {
			continue
		}
		for i, run := range res.Pages[pi].Texts {
			if strings.HasPrefix(run.Content, "[Table error:") {
				errRun = &res.Pages[pi].Texts[i]
			}
			if run.Content == "After" {
				sawAfter = true
			}
		}
		if len(res.Pages[pi].Rects) > 0 {
			t.Fatalf("表头放不下时不应绘制任何单元格: 第 %d 页", res.Pages[pi].Number)
		}
	}
	if errRun == nil || errRun.Style.Color != th.Color(ColorError) {
		t.Fatalf("应以错误颜色的单行提示代替表格: %+v", errRun)
	}
	if !sawAfter {
		t.Fatalf("表格之后的段落应正常排版")
	}
}

func TestAdjacentDirectivesNeverDrawnAsText(t *testing.T) {
	doc := content.Document{Title: "T", Sections: []content.Section{
		{Title: "Data", Content: "Figures below:\n[[TABLE|Stats|A,B|1,2]]\n[[CHART|bar|Sales|Q,USD|Q1,Q2|1,2]]"},
	}}
	res, err := Assemble(doc, Options{Measurer: fixedMeasurer{advance: 5}, Theme: DefaultTheme()})
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	page := res.Pages[2]
	for _, run := range page.Texts {
		if strings.Contains(run.Content, "[[") {
			t.Fatalf("指令原文被当作文本绘制: %q", run.Content)
		}
	}
	if !contains(textsOn(page), "Figures below:") || !contains(textsOn(page), "Sales") {
		t.Fatalf("引导行与图表标题都应出现: %v", textsOn(page))
	}
	if len(page.Rects) < 4+2 {
		t.Fatalf("表格单元格与两根柱都应绘制，实际 %d 个矩形", len(page.Rects))
	}
}

// 章节标题只在首页出现一次，续页不重复。
func TestSectionTitleDrawnOnce(t *testing.T) {
	th := smallTheme()
	var body []string
	for i := range 30 {
		body = append(body, fmt.Sprintf("Line %d", i+1))
	}
	doc := content.Document{Title: "T", Sections: []content.Section{
		{Title: "Intro", Content: "Short"},
		{Title: "Long", Content: strings.Join(body, "\n\n")},
	}}
	res, err := Assemble(doc, Options{Measurer: fixedMeasurer{advance: 10}, Theme: th})
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}

	sectionSize := th.Style(StyleSection).Size
	titles := map[string]int{}
	spanned := map[int]bool{}
	for _, page := range res.Pages {
		if !page.IsContent() {
			continue
		}
		for _, run := range page.Texts {
			if run.Style.Size == sectionSize && (run.Content == "Intro" || run.Content == "Long") {
				titles[run.Content]++
			}
			if strings.HasPrefix(run.Content, "Line ") {
				spanned[page.Number] = true
			}
		}
	}
	if len(spanned) < 3 {
		t.Fatalf("章节应跨越多页，实际 %d 页", len(spanned))
	}
	for _, title := range []string{"Intro", "Long"} {
		if titles[title] != 1 {
			t.Fatalf("章节标题 %q 应只绘制一次，实际 %d 次", title, titles[title])
		}
	}
}

func TestMalformedChartBecomesErrorLine(t *testing.T) {
	th := DefaultTheme()
	doc := content.Document{Title: "T", Sections: []content.Section{
		{Title: "Charts", Content: "[[CHART|bar|X|a|1]]\n\nAfter text"},
	}}
	res, err := Assemble(doc, Options{Measurer: fixedMeasurer{advance: 5}, Theme: th})
	if err != nil {
		t.Fatalf("错误的图表不应中断排版: %v", err)
	}
	var errRun *TextRun
	sawAfter := false
	for i, run := range res.Pages[2].Texts {
		if strings.HasPrefix(run.Content, "[Chart error:") {
			errRun = &res.Pages[2].Texts[i]
		}
		if run.Content == "After text" {
			sawAfter = true
		}
	}
	if errRun == nil {
		t.Fatalf("缺少错误提示行: %v", textsOn(res.Pages[2]))
	}
	if errRun.Style.Color != th.Color(ColorError) {
		t.Fatalf("错误提示应使用错误颜色: %+v", errRun.Style.Color)
	}
	if errRun.Width > th.ContentWidth() {
		t.Fatalf("错误提示应为单行: 宽 %g", errRun.Width)
	}
	if !sawAfter {
		t.Fatalf("错误块之后的段落应正常排版: %v", textsOn(res.Pages[2]))
	}
}

// TestDegenerateLineChart 常量序列的折线图：范围扩展后坐标全部有限，且占用标准高度。
func TestDegenerateLineChart(t *testing.T) {
	th := DefaultTheme()
	m := fixedMeasurer{advance: 5}
	blocks := content.Parse("[[CHART|line|Growth|Year,Value|2020,2020|5,5]]", "")
	chart, ok := blocks[0].(content.Chart)
	if !ok {
		t.Fatalf("期望图表块，实际 %#v", blocks[0])
	}
	collector := newPageCollector(th)
	collector.BeginPage(3, PageContent)
	p := newPaginator(th, m, collector, Options{}.logger(), DebugOptions{})
	start := Cursor{Page: 3, Y: th.ContentTop(), Content: true}
	end := p.chart(start, chart)

	want := ChartFootprint(m, th)
	if got := end.Y - start.Y; math.Abs(got-want) > 1e-9 {
		t.Fatalf("图表占用高度 %g，期望 %g", got, want)
	}
	if want != ChartMarginTop+12+ChartPlotHeight+ChartMarginBottom {
		t.Fatalf("图表占用高度公式不正确: %g", want)
	}
	page := collector.allPages()[0]
	finite := func(vs ...float64) bool {
		for _, v := range vs {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
		return true
	}
	if len(page.Circles) != 2 {
		t.Fatalf("期望 2 个数据点标记，实际 %d", len(page.Circles))
	}
	for _, c := range page.Circles {
		if !finite(c.CX, c.CY) {
			t.Fatalf("数据点坐标非有限值: %+v", c)
		}
	}
	for _, path := range page.Paths {
		for _, pt := range path.Points {
			if !finite(pt.X, pt.Y) {
				t.Fatalf("折线坐标非有限值: %+v", pt)
			}
		}
	}
	for _, run := range page.Texts {
		if !finite(run.X, run.Y) {
			t.Fatalf("文本坐标非有限值: %+v", run)
		}
	}
}

func TestHeadingKeepZone(t *testing.T) {
	th := smallTheme()
	th.Height = 300
	sink := &recordingSink{}
	p := newPaginator(th, fixedMeasurer{advance: 10}, sink, Options{}.logger(), DebugOptions{})

	cur := Cursor{Page: 3, Y: 200, Content: true}
	next := p.block(cur, content.Heading{Level: 2, Spans: content.ParseSpans("Late")})
	if next.Page != 4 || next.Y != th.ContentTop()+12 {
		t.Fatalf("距页底不足 %g 的标题应移到下一页: %+v", HeadingKeepZone, next)
	}
	if len(sink.pages) != 1 || sink.pages[0] != 4 {
		t.Fatalf("应只打开第 4 页: %v", sink.pages)
	}

	cur = Cursor{Page: 3, Y: 150, Content: true}
	next = p.block(cur, content.Heading{Level: 2, Spans: content.ParseSpans("Early")})
	if next.Page != 3 {
		t.Fatalf("空间充足时标题不应换页: %+v", next)
	}

	next, entry := p.Section(Cursor{Page: 3, Y: 200, Content: true}, "Next section", nil)
	if entry.Page != 2 || next.Page != 4 {
		t.Fatalf("章节标题同样遵守保留区规则: entry=%+v cursor=%+v", entry, next)
	}
}

func TestTocTruncatesAndElides(t *testing.T) {
	th := smallTheme()
	m := fixedMeasurer{advance: 10}
	var toc []TocEntry
	for i := 1; i <= 10; i++ {
		toc = append(toc, TocEntry{Title: strings.Repeat("Long title ", 5), Page: i})
	}
	collector := newPageCollector(th)
	collector.BeginPage(2, PageTOC)
	drawTOC(collector, m, th, toc)
	page := collector.allPages()[0]

	numbers := 0
	for _, run := range page.Texts {
		if run.Y > th.ContentBottom() {
			t.Fatalf("目录不应越过下边距: %+v", run)
		}
		if strings.HasPrefix(run.Content, "Long") {
			if !strings.HasSuffix(run.Content, "…") {
				t.Fatalf("过长标题应以省略号结尾: %q", run.Content)
			}
		}
		if len(run.Content) <= 2 && run.Content != "" && run.Content[0] >= '0' && run.Content[0] <= '9' {
			numbers++
			if math.Abs(run.X+run.Width-(th.Width-th.Margin.Right)) > 1e-9 {
				t.Fatalf("页码应右对齐: %+v", run)
			}
		}
	}
	if numbers == 0 || numbers >= len(toc) {
		t.Fatalf("目录应被截断，实际绘制 %d 个页码", numbers)
	}
}

// driftingMeasurer 在调用次数超过 after 后把字形高度放大三倍，
// 用来模拟两个阶段度量不一致的后端。
type driftingMeasurer struct {
	fixedMeasurer
	calls *int
	after int
}

func (d driftingMeasurer) LineMetrics(s TextStyle) (float64, float64) {
	*d.calls++
	a, b := d.fixedMeasurer.LineMetrics(s)
	if *d.calls > d.after {
		return a * 3, b * 3
	}
	return a, b
}

func TestAssembleDetectsTocMismatch(t *testing.T) {
	th := mediumTheme()
	counting := 0
	probe := driftingMeasurer{fixedMeasurer: fixedMeasurer{advance: 6}, calls: &counting, after: math.MaxInt}
	if _, _, err := PredictTOC(sectionDoc(), Options{Measurer: probe, Theme: th}); err != nil {
		t.Fatalf("预测目录失败: %v", err)
	}

	calls := 0
	drift := driftingMeasurer{fixedMeasurer: fixedMeasurer{advance: 6}, calls: &calls, after: counting}
	_, err := Assemble(sectionDoc(), Options{Measurer: drift, Theme: th})
	if !errors.Is(err, ErrTocMismatch) {
		t.Fatalf("期望 ErrTocMismatch，实际 %v", err)
	}
}

func TestAssembleRejectsBadInput(t *testing.T) {
	if _, err := Assemble(content.Document{Sections: []content.Section{{Title: "x"}}}, Options{}); !errors.Is(err, ErrNoMeasurer) {
		t.Fatalf("期望 ErrNoMeasurer，实际 %v", err)
	}
	if _, err := Assemble(content.Document{}, Options{Measurer: fixedMeasurer{advance: 1}}); !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("期望 ErrEmptyDocument，实际 %v", err)
	}
}
