package layout

import (
	"strings"
	"unicode/utf8"
)

// StyledText 是一段带样式的输入文本。
type StyledText struct {
	Text  string
	Style TextStyle
}

// Run 是一行中的单样式片段，X 为相对行首的偏移。
type Run struct {
	Text  string    `json:"text"`
	Style TextStyle `json:"-"`
	X     float64   `json:"x"`
	Width float64   `json:"width"`
}

// TextLine 表示折行后的一行。Ascent 为行顶到基线的距离。
// Forced 为 true 表示这一行包含被强制拆开的超长单词。
type TextLine struct {
	Content string  `json:"content"`
	Runs    []Run   `json:"runs"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Ascent  float64 `json:"ascent"`
	Forced  bool    `json:"forced,omitempty"`
}

// LineHeight 返回样式的行高：(descent - ascent) × 倍数，或模板指定的绝对值。
func LineHeight(m TextMeasurer, style TextStyle) float64 {
	ascent, descent := m.LineMetrics(style)
	return style.LineHeight.Points(descent - ascent)
}

// Wrap 对单一样式的文本做贪心折行。
func Wrap(m TextMeasurer, text string, style TextStyle, maxWidth float64) []TextLine {
	return WrapSpans(m, []StyledText{{Text: text, Style: style}}, maxWidth)
}

// WrapSpans 对多样式文本做贪心折行：按单个空格切词，候选行宽严格小于
// maxWidth 时追加；单词本身放不下时按 BreakAtWidth 强制拆分，每次至少前进一个字符。
func WrapSpans(m TextMeasurer, spans []StyledText, maxWidth float64) []TextLine {
	b := &lineBuilder{m: m}
	for _, w := range splitWords(spans) {
		if !b.empty() {
			if runs := b.candidate(w); runsWidth(runs) < maxWidth {
				b.runs = runs
				continue
			}
			b.flush()
		}
		if runs := b.candidate(w); runsWidth(runs) < maxWidth {
			b.runs = runs
			continue
		}
		b.hardBreak(w, maxWidth)
	}
	b.flush()
	return b.lines
}

type fragment struct {
	text  string
	style TextStyle
}

// splitWords 按空格切词；一个词可以跨越多个样式片段（例如 **粗**体）。
func splitWords(spans []StyledText) [][]fragment {
	var words [][]fragment
	var cur []fragment
	for _, s := range spans {
		for i, part := range strings.Split(s.Text, " ") {
			if i > 0 && len(cur) > 0 {
				words = append(words, cur)
				cur = nil
			}
			if part != "" {
				cur = append(cur, fragment{text: part, style: s.Style})
			}
		}
	}
	if len(cur) > 0 {
		words = append(words, cur)
	}
	return words
}

type lineBuilder struct {
	m      TextMeasurer
	runs   []Run
	forced bool
	lines  []TextLine
}

func (b *lineBuilder) empty() bool { return len(b.runs) == 0 }

// candidate 返回追加一个词之后的行，不修改 b。
func (b *lineBuilder) candidate(w []fragment) []Run {
	runs := append([]Run(nil), b.runs...)
	if n := len(runs); n > 0 {
		runs = b.add(runs, " ", runs[n-1].Style)
	}
	for _, f := range w {
		runs = b.add(runs, f.text, f.style)
	}
	return runs
}

func (b *lineBuilder) add(runs []Run, text string, style TextStyle) []Run {
	if n := len(runs); n > 0 && runs[n-1].Style == style {
		runs[n-1].Text += text
		runs[n-1].Width = b.m.Measure(runs[n-1].Text, style)
		return runs
	}
	return append(runs, Run{Text: text, Style: style, Width: b.m.Measure(text, style)})
}

func (b *lineBuilder) hardBreak(w []fragment, maxWidth float64) {
	b.forced = true
	for _, f := range w {
		rest := f.text
		for rest != "" {
			off := clampBreak(rest, b.m.BreakAtWidth(rest, f.style, maxWidth-runsWidth(b.runs)))
			if off == 0 {
				if !b.empty() {
					b.flush()
					b.forced = true
					continue
				}
				_, off = utf8.DecodeRuneInString(rest)
			}
			b.runs = b.add(b.runs, rest[:off], f.style)
			rest = rest[off:]
			if rest != "" {
				b.flush()
				b.forced = true
			}
		}
	}
}

// clampBreak 将断点限制在 [0, len(s)] 且落在字符边界上。
func clampBreak(s string, off int) int {
	if off <= 0 {
		return 0
	}
	if off >= len(s) {
		return len(s)
	}
	for off > 0 && !utf8.RuneStart(s[off]) {
		off--
	}
	return off
}

func (b *lineBuilder) flush() {
	if b.empty() {
		return
	}
	line := TextLine{Runs: b.runs, Forced: b.forced}
	var content strings.Builder
	x := 0.0
	for i := range line.Runs {
		r := &line.Runs[i]
		r.X = x
		x += r.Width
		content.WriteString(r.Text)

		lh := LineHeight(b.m, r.Style)
		ascent, descent := b.m.LineMetrics(r.Style)
		baseline := (lh-(descent-ascent))/2 - ascent
		line.Height = max(line.Height, lh)
		line.Ascent = max(line.Ascent, baseline)
	}
	line.Content = content.String()
	line.Width = x
	b.lines = append(b.lines, line)
	b.runs = nil
	b.forced = false
}

func runsWidth(runs []Run) float64 {
	w := 0.0
	for _, r := range runs {
		w += r.Width
	}
	return w
}

// ellipsize 截断文本并追加省略号，使宽度不超过 maxWidth。
func ellipsize(m TextMeasurer, text string, style TextStyle, maxWidth float64) string {
	if m.Measure(text, style) <= maxWidth {
		return text
	}
	const ellipsis = "…"
	avail := maxWidth - m.Measure(ellipsis, style)
	if avail <= 0 {
		return ellipsis
	}
	off := clampBreak(text, m.BreakAtWidth(text, style, avail))
	return strings.TrimRight(text[:off], " ") + ellipsis
}
