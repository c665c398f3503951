package dsl

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// 内联指令语法：[[KIND|part|part|...]]，用于在正文中嵌入表格与图表。
// 词法上只有四种记号；part 内允许出现单个 ']'，但不允许出现 '|'。
var (
	directiveLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Open", Pattern: `\[\[`},
		{Name: "Close", Pattern: `\]\]`},
		{Name: "Pipe", Pattern: `\|`},
		{Name: "Text", Pattern: `[^|\]]+|\]`},
	})

	directiveParser = participle.MustBuild[Directive](
		participle.Lexer(directiveLexer),
	)
)

// Directive is one parsed [[KIND|...]] marker.
type Directive struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Kind   string         `parser:"Open @Text"`
	Fields []*Field       `parser:"@@* Close"`
}

// Field is one pipe-delimited part. Empty parts ("||") are kept so that
// positional grammars do not shift.
type Field struct {
	Sep   bool   `parser:"@Pipe"`
	Value string `parser:"@Text*"`
}

// Name returns the upper-cased directive kind, e.g. "TABLE".
func (d *Directive) Name() string {
	return strings.ToUpper(strings.TrimSpace(d.Kind))
}

// Parts returns the trimmed field values in order.
func (d *Directive) Parts() []string {
	out := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		out = append(out, strings.TrimSpace(f.Value))
	}
	return out
}

// ParseDirective parses a single directive. The input must consist of exactly
// one directive; surrounding whitespace is ignored.
func ParseDirective(input string) (*Directive, error) {
	return directiveParser.ParseString("", strings.TrimSpace(input))
}

// SplitDirective separates a leading directive from whatever follows its
// closing "]]". When no closing marker exists the whole input is returned as
// the directive so that parsing reports the error.
func SplitDirective(input string) (directive, rest string) {
	trimmed := strings.TrimSpace(input)
	idx := strings.Index(trimmed, "]]")
	if idx < 0 {
		return trimmed, ""
	}
	return trimmed[:idx+2], strings.TrimSpace(trimmed[idx+2:])
}

// IsDirective reports whether a raw block starts with a known directive
// marker.
func IsDirective(block string) bool {
	trimmed := strings.TrimSpace(block)
	return strings.HasPrefix(trimmed, "[[TABLE") || strings.HasPrefix(trimmed, "[[CHART")
}

// FindDirective returns the byte offset of the first known directive marker
// that starts a line of text (leading blanks allowed), or -1.
func FindDirective(text string) int {
	off := 0
	for {
		line, _, more := strings.Cut(text[off:], "\n")
		if IsDirective(line) {
			return off + len(line) - len(strings.TrimLeft(line, " \t"))
		}
		if !more {
			return -1
		}
		off += len(line) + 1
	}
}
