package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// Document 是排版的输入：标题加有序章节。排版期间不可变。
type Document struct {
	Title    string    `json:"title" yaml:"title"`
	Author   string    `json:"author,omitempty" yaml:"author,omitempty"`
	Sections []Section `json:"sections" yaml:"sections"`
}

// Section 是一个章节：标题与原始正文。
type Section struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// Format 是输入文件格式。
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// ErrUnknownFormat is returned when a document format cannot be determined.
var ErrUnknownFormat = errors.New("unknown document format")

// FormatFromPath 根据扩展名推断格式。
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// LoadDocument 从文件读取文档。Markdown 文件没有显式标题时使用文件名。
func LoadDocument(path string) (Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Document{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("打开文档失败: %w", err)
	}
	defer f.Close()

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return DecodeDocument(f, format, stem)
}

// DecodeDocument 按指定格式解码文档。fallbackTitle 在文档本身没有标题时使用。
func DecodeDocument(r io.Reader, format Format, fallbackTitle string) (Document, error) {
	var doc Document
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return Document{}, fmt.Errorf("解析 JSON 文档失败: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return Document{}, fmt.Errorf("解析 YAML 文档失败: %w", err)
		}
	case FormatMarkdown:
		src, err := io.ReadAll(r)
		if err != nil {
			return Document{}, fmt.Errorf("读取 Markdown 失败: %w", err)
		}
		doc = SplitMarkdown(src, fallbackTitle)
	default:
		return Document{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if strings.TrimSpace(doc.Title) == "" {
		doc.Title = fallbackTitle
	}
	return doc, nil
}

// SplitMarkdown 以一级标题切分章节。第一个一级标题之前的文本被忽略；
// 章节正文保留原始 Markdown，由 Parser 进一步解析。
// 代码块中的 "# " 不会被当成标题。
func SplitMarkdown(src []byte, title string) Document {
	src = bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))
	root := goldmark.New().Parser().Parse(text.NewReader(src))

	type mark struct {
		title      string
		start, end int // 标题所在行的起止偏移
	}
	var marks []mark
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 1 || h.Lines().Len() == 0 {
			continue
		}
		lines := h.Lines()
		first, last := lines.At(0), lines.At(lines.Len()-1)
		start := lineStart(src, first.Start)
		end := lineEnd(src, last.Stop)
		if isSetextUnderline(src, end) {
			end = lineEnd(src, end)
		}
		name := SpansText(ParseSpans(strings.TrimSpace(string(h.Text(src)))))
		marks = append(marks, mark{title: name, start: start, end: end})
	}

	doc := Document{Title: title}
	for i, m := range marks {
		stop := len(src)
		if i+1 < len(marks) {
			stop = marks[i+1].start
		}
		body := ""
		if m.end < stop {
			body = strings.TrimSpace(string(src[m.end:stop]))
		}
		doc.Sections = append(doc.Sections, Section{Title: m.title, Content: body})
	}
	return doc
}

func lineStart(src []byte, pos int) int {
	for pos > 0 && src[pos-1] != '\n' {
		pos--
	}
	return pos
}

// lineEnd 返回 pos 所在行之后下一行的起点。
func lineEnd(src []byte, pos int) int {
	if pos >= len(src) {
		return len(src)
	}
	if i := bytes.IndexByte(src[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(src)
}

func isSetextUnderline(src []byte, pos int) bool {
	if pos >= len(src) {
		return false
	}
	line := src[pos:lineEnd(src, pos)]
	trimmed := bytes.TrimSpace(line)
	return len(trimmed) > 0 && len(bytes.Trim(trimmed, "=")) == 0
}
