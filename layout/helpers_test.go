package layout

import (
	"unicode/utf8"
)

// fixedMeasurer 每个字符固定前进 advance，字形高度恒为 10（行高 12）。
// 与样式无关，便于手工推算排版结果。
type fixedMeasurer struct {
	advance float64
}

func (f fixedMeasurer) Measure(text string, _ TextStyle) float64 {
	return float64(utf8.RuneCountInString(text)) * f.advance
}

func (f fixedMeasurer) LineMetrics(TextStyle) (float64, float64) { return -8, 2 }

func (f fixedMeasurer) BreakAtWidth(text string, _ TextStyle, maxWidth float64) int {
	n := int(maxWidth / f.advance)
	for i := range text {
		if n <= 0 {
			return i
		}
		n--
	}
	return len(text)
}

// stuckMeasurer 的断点函数永远返回 0，用于验证强制折行的前进保证。
type stuckMeasurer struct{ fixedMeasurer }

func (stuckMeasurer) BreakAtWidth(string, TextStyle, float64) int { return 0 }

// recordingSink 记录 BeginPage 调用，其余图元丢弃。
type recordingSink struct {
	discardSink
	pages []int
}

func (r *recordingSink) BeginPage(n int, _ PageKind) { r.pages = append(r.pages, n) }

// smallTheme 返回一个小页面主题：内容区宽 280pt、高 80pt。
func smallTheme() *Theme {
	th := DefaultTheme()
	th.Width = 300
	th.Height = 100
	th.Margin = Margin{Top: 10, Right: 10, Bottom: 10, Left: 10}
	return th
}

func textsOn(page Page) []string {
	out := make([]string, 0, len(page.Texts))
	for _, t := range page.Texts {
		out = append(out, t.Content)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
