package rasterrenderer

import (
	"bytes"
	"image/png"
	"os"
	"testing"

	"github.com/ByLCY/quire/content"
	"github.com/ByLCY/quire/layout"
)

func TestMeasurerMatchesBreaks(t *testing.T) {
	r := NewRenderer(Options{})
	style := layout.DefaultTheme().Style(layout.StyleBody)
	text := "The quick brown fox"
	full := r.Measure(text, style)
	if full <= 0 {
		t.Fatalf("文本宽度应为正数: %g", full)
	}
	if got := r.BreakAtWidth(text, style, full+0.5); got != len(text) {
		t.Fatalf("宽度足够时应返回全文: %d", got)
	}
	cut := r.BreakAtWidth(text, style, full/2)
	if cut <= 0 || cut >= len(text) {
		t.Fatalf("半宽断点不合理: %d", cut)
	}
	ascent, descent := r.LineMetrics(style)
	if ascent >= 0 || descent <= 0 {
		t.Fatalf("度量符号不正确: %g %g", ascent, descent)
	}
}

func assembleSample(t *testing.T, r *Renderer) *layout.Result {
	t.Helper()
	doc := content.Document{Title: "Preview", Sections: []content.Section{
		{Title: "Charts", Content: "[[CHART|bar-line|Mix|Q,Value|Q1,Q2|3,4|1,2]]\n\n[[CHART|pie|Share|A,B|x,y|1,3]]"},
	}}
	res, err := layout.Assemble(doc, layout.Options{Measurer: r})
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	return res
}

func TestRenderContactSheet(t *testing.T) {
	r := NewRenderer(Options{Scale: 1})
	res := assembleSample(t, r)
	data, err := r.Render(res)
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("解码 PNG 失败: %v", err)
	}
	page := res.Pages[0]
	if img.Bounds().Dx() < int(page.Width) {
		t.Fatalf("联系表宽度 %d 小于页宽 %g", img.Bounds().Dx(), page.Width)
	}
	if img.Bounds().Dy() < len(res.Pages)*int(page.Height) {
		t.Fatalf("联系表高度 %d 不足以容纳 %d 页", img.Bounds().Dy(), len(res.Pages))
	}
}

func TestWritePages(t *testing.T) {
	r := NewRenderer(Options{Scale: 0.5})
	res := assembleSample(t, r)
	paths, err := r.WritePages(res, t.TempDir())
	if err != nil {
		t.Fatalf("写入预览失败: %v", err)
	}
	if len(paths) != len(res.Pages) {
		t.Fatalf("期望 %d 个文件，实际 %d", len(res.Pages), len(paths))
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || info.Size() == 0 {
			t.Fatalf("预览文件 %s 无效: %v", p, err)
		}
	}
}

func TestRenderRejectsEmpty(t *testing.T) {
	if _, err := NewRenderer(Options{}).Render(&layout.Result{}); err == nil {
		t.Fatalf("没有页面时应报错")
	}
}
