package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ByLCY/quire/layout"
	canvasrenderer "github.com/ByLCY/quire/renderer/canvas"
)

func TestRunWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	opts := runOptions{
		input:        filepath.Join("examples", "report.md"),
		templatePath: filepath.Join("examples", "report.qtpl"),
		output:       filepath.Join(dir, "out", "report.pdf"),
		debugPath:    filepath.Join(dir, "debug", "layout.json"),
		previewDir:   filepath.Join(dir, "preview"),
		title:        "Q3 Report",
	}
	if err := run(opts, canvasrenderer.NewRenderer("examples")); err != nil {
		t.Fatalf("run 失败: %v", err)
	}

	pdf, err := os.ReadFile(opts.output)
	if err != nil {
		t.Fatalf("读取 PDF 失败: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("输出不是 PDF")
	}

	raw, err := os.ReadFile(opts.debugPath)
	if err != nil {
		t.Fatalf("读取调试 JSON 失败: %v", err)
	}
	var res layout.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		t.Fatalf("调试 JSON 无法解析: %v", err)
	}
	if res.Meta.Title != "Q3 Report" {
		t.Fatalf("-title 应覆盖文档标题，实际 %q", res.Meta.Title)
	}
	if len(res.TOC) != 3 {
		t.Fatalf("期望 3 个章节，实际 %d", len(res.TOC))
	}
	if f := res.Pages[2].Footer; f == nil || f.Content == "" {
		t.Fatalf("正文页应有页脚")
	}

	previews, err := filepath.Glob(filepath.Join(opts.previewDir, "page-*.png"))
	if err != nil || len(previews) < 3 {
		t.Fatalf("预览 PNG 数量不足: %v %v", previews, err)
	}
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	opts := runOptions{input: path, output: filepath.Join(t.TempDir(), "x.pdf")}
	if err := run(opts, canvasrenderer.NewRenderer("")); err == nil {
		t.Fatalf("未知格式应报错")
	}
}
