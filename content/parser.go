package content

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/ByLCY/quire/dsl"
)

var (
	blockSeparator = regexp.MustCompile(`\n[ \t]*\n`)
	headingLine    = regexp.MustCompile(`^(#{1,3})\s+(.*\S)\s*$`)
	bulletLine     = regexp.MustCompile(`^[*-]\s+(.*)$`)
	numberedLine   = regexp.MustCompile(`^(\d+)\.\s+(.*)$`)
	titleEcho      = regexp.MustCompile(`^#{0,3}\s*`)
)

// ParseOptions 控制解析过程。
type ParseOptions struct {
	// Logger 接收非致命告警（例如图表中被跳过的数据点）。为 nil 时丢弃。
	Logger *slog.Logger
}

// Parser 将一个章节的原始文本切分为有序的内容块。Parser 无状态，可复用。
type Parser struct {
	log *slog.Logger
}

// NewParser 创建解析器。
func NewParser(opts ParseOptions) *Parser {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Parser{log: log}
}

// Parse 解析章节正文。指令解析失败不会返回错误，而是产生一个错误段落，
// 其余内容照常解析。
func (p *Parser) Parse(content, title string) []Block {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	var blocks []Block
	for raw, chunk := range blockSeparator.Split(content, -1) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" || echoesTitle(chunk, title) {
			continue
		}
		blocks = append(blocks, p.parseChunk(chunk, raw)...)
	}
	return blocks
}

// parseChunk 把一个原始块拆成普通行与指令。指令前的引导行、紧挨着的下一条指令、
// 以及同一行 ]] 之后的指令都会被识别。未闭合的指令在下一条指令处截断。
func (p *Parser) parseChunk(chunk string, raw int) []Block {
	var blocks []Block
	for chunk != "" {
		start := dsl.FindDirective(chunk)
		if start < 0 {
			return append(blocks, parseLines(chunk, raw)...)
		}
		blocks = append(blocks, parseLines(chunk[:start], raw)...)
		seg := chunk[start:]

		end := strings.Index(seg, "]]")
		if next := dsl.FindDirective(seg[2:]); next >= 0 && (end < 0 || end > next+2) {
			blocks = append(blocks, p.parseDirective(seg[:next+2], raw))
			chunk = seg[next+2:]
			continue
		}
		directive, rest := dsl.SplitDirective(seg)
		blocks = append(blocks, p.parseDirective(directive, raw))
		chunk = rest
	}
	return blocks
}

// Parse 使用默认选项解析章节正文。
func Parse(content, title string) []Block {
	return NewParser(ParseOptions{}).Parse(content, title)
}

// echoesTitle 判断块是否只是把章节标题重复了一遍（可带 1~3 个 #）。
func echoesTitle(chunk, title string) bool {
	title = strings.TrimSpace(title)
	if title == "" {
		return false
	}
	if chunk == title {
		return true
	}
	if !strings.HasPrefix(chunk, "#") {
		return false
	}
	hashes := len(chunk) - len(strings.TrimLeft(chunk, "#"))
	if hashes > 3 {
		return false
	}
	return strings.TrimSpace(titleEcho.ReplaceAllString(chunk, "")) == title
}

func (p *Parser) parseDirective(text string, raw int) Block {
	d, err := dsl.ParseDirective(text)
	if err != nil {
		return errorBlock("Directive", fmt.Errorf("malformed directive: %w", err), raw)
	}
	switch d.Name() {
	case "TABLE":
		table, err := parseTable(d)
		if err != nil {
			return errorBlock("Table", err, raw)
		}
		table.Raw = raw
		return table
	case "CHART":
		chart, err := parseChart(d, p.log)
		if err != nil {
			return errorBlock("Chart", err, raw)
		}
		chart.Raw = raw
		return chart
	default:
		return errorBlock("Directive", fmt.Errorf("unknown directive %q", d.Name()), raw)
	}
}

func errorBlock(what string, err error, raw int) Paragraph {
	msg := fmt.Sprintf("[%s error: %v]", what, err)
	return Paragraph{Spans: []Span{{Text: msg, Style: Plain}}, Err: err.Error(), Raw: raw}
}

// parseLines 逐行分类：标题、无序列表、有序列表或普通段落。
func parseLines(chunk string, raw int) []Block {
	var blocks []Block
	for _, line := range strings.Split(chunk, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := headingLine.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, Heading{Level: len(m[1]), Spans: ParseSpans(m[2]), Raw: raw})
			continue
		}
		if m := numberedLine.FindStringSubmatch(line); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil {
				blocks = append(blocks, ListItem{Ordered: true, Number: n, Spans: ParseSpans(m[2]), Raw: raw})
				continue
			}
		}
		if m := bulletLine.FindStringSubmatch(line); m != nil && !strings.HasPrefix(line, "**") {
			blocks = append(blocks, ListItem{Spans: ParseSpans(m[1]), Raw: raw})
			continue
		}
		blocks = append(blocks, Paragraph{Spans: ParseSpans(line), Raw: raw})
	}
	return blocks
}
