package content

import "regexp"

// 行内强调：**粗体** 与 *斜体*，非贪婪、不重叠、自左向右匹配。
// 未闭合的 ** 作为字面量吃掉，斜体内容不含 *，因此未闭合的标记连同剩余文本都按普通文本保留。
var emphasisPattern = regexp.MustCompile(`\*\*(.+?)\*\*|\*\*|\*([^*]+?)\*`)

// ParseSpans 将一行文本拆成带样式的 Span 列表，标记符号被去掉，
// 不产生空 Span。
func ParseSpans(line string) []Span {
	var spans []Span
	emit := func(text string, style SpanStyle) {
		if text == "" {
			return
		}
		if n := len(spans); n > 0 && spans[n-1].Style == style {
			spans[n-1].Text += text
			return
		}
		spans = append(spans, Span{Text: text, Style: style})
	}

	cursor := 0
	for _, m := range emphasisPattern.FindAllStringSubmatchIndex(line, -1) {
		emit(line[cursor:m[0]], Plain)
		switch {
		case m[2] >= 0:
			emit(line[m[2]:m[3]], Bold)
		case m[4] >= 0:
			emit(line[m[4]:m[5]], Italic)
		default:
			emit(line[m[0]:m[1]], Plain)
		}
		cursor = m[1]
	}
	emit(line[cursor:], Plain)
	return spans
}
