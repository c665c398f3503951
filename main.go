package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ByLCY/quire/content"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/renderer"
	canvasrenderer "github.com/ByLCY/quire/renderer/canvas"
	rasterrenderer "github.com/ByLCY/quire/renderer/raster"
)

type runOptions struct {
	input        string
	templatePath string
	output       string
	debugPath    string
	previewDir   string
	title        string
	verbose      bool
}

func main() {
	var opts runOptions
	flag.StringVar(&opts.input, "in", "examples/report.md", "文档路径（.md / .json / .yaml）")
	flag.StringVar(&opts.templatePath, "template", "", "模板文件路径，为空时使用默认主题")
	flag.StringVar(&opts.output, "out", "output/report.pdf", "PDF 输出路径")
	flag.StringVar(&opts.debugPath, "debug", "", "布局调试 JSON 输出路径")
	flag.StringVar(&opts.previewDir, "preview", "", "逐页 PNG 预览输出目录")
	flag.StringVar(&opts.title, "title", "", "文档标题，覆盖文件中的标题")
	flag.BoolVar(&opts.verbose, "v", false, "输出分页状态迁移等调试日志")
	flag.Parse()

	r := canvasrenderer.NewRenderer(filepath.Dir(opts.input))
	if err := run(opts, r); err != nil {
		log.Fatalf("生成 PDF 失败: %v", err)
	}
	fmt.Printf("已生成 PDF：%s\n", opts.output)
}

// run 串联文档加载、模板、排版与渲染。
func run(opts runOptions, r renderer.Backend) error {
	if r == nil {
		return fmt.Errorf("renderer 不能为空")
	}
	doc, err := content.LoadDocument(opts.input)
	if err != nil {
		return fmt.Errorf("读取文档 %s 失败: %w", opts.input, err)
	}
	if strings.TrimSpace(opts.title) != "" {
		doc.Title = opts.title
	}

	theme := layout.DefaultTheme()
	if opts.templatePath != "" {
		theme, err = layout.LoadTheme(opts.templatePath)
		if err != nil {
			return err
		}
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	result, err := layout.Assemble(doc, layout.Options{
		Measurer: r,
		Theme:    theme,
		Logger:   logger,
		Debug:    layout.DebugOptions{States: opts.verbose},
	})
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}

	if opts.debugPath != "" {
		if err := writeDebug(result, opts.debugPath); err != nil {
			return err
		}
	}
	if opts.previewDir != "" {
		if err := writePreview(doc, result, theme, opts); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(opts.output), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	pdfBytes, err := r.Render(result)
	if err != nil {
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := os.WriteFile(opts.output, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	return nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

// writePreview 用栅格后端单独排版后逐页输出 PNG，两个后端的字宽不同，页数可能不一致。
func writePreview(doc content.Document, result *layout.Result, theme *layout.Theme, opts runOptions) error {
	raster := rasterrenderer.NewRenderer(rasterrenderer.Options{BaseDir: filepath.Dir(opts.input)})
	preview, err := layout.Assemble(doc, layout.Options{Measurer: raster, Theme: theme})
	if err != nil {
		return fmt.Errorf("预览排版失败: %w", err)
	}
	if _, err := raster.WritePages(preview, opts.previewDir); err != nil {
		return err
	}
	if len(preview.Pages) != len(result.Pages) {
		fmt.Printf("注意：预览共 %d 页，PDF 共 %d 页\n", len(preview.Pages), len(result.Pages))
	}
	return nil
}
