// Package rasterrenderer 把布局结果栅格化为 PNG，用于预览与截图对比。
// 它同时实现 layout.TextMeasurer：以 72 DPI 创建 truetype 字体面，1px 即 1pt。
package rasterrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/quire/fonts"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/renderer"
)

const (
	defaultScale = 2.0
	pageGap      = 16 // 联系表中页面之间的间隔，px
)

var (
	_ renderer.Renderer   = (*Renderer)(nil)
	_ layout.TextMeasurer = (*Renderer)(nil)
)

// Renderer 基于 fogleman/gg 绘制页面。字体面不是并发安全的，
// 所有测量与绘制都在 mu 保护下进行。
type Renderer struct {
	baseDir string
	scale   float64

	mu    sync.Mutex
	fonts map[string]*truetype.Font
	faces map[string]font.Face
}

// Options configures the raster renderer.
type Options struct {
	BaseDir string
	// Scale 为每 pt 的像素数，<=0 时为 2。
	Scale float64
}

// NewRenderer 创建栅格渲染器。
func NewRenderer(opts Options) *Renderer {
	scale := opts.Scale
	if scale <= 0 {
		scale = defaultScale
	}
	return &Renderer{
		baseDir: opts.BaseDir,
		scale:   scale,
		fonts:   map[string]*truetype.Font{},
		faces:   map[string]font.Face{},
	}
}

// Measure 返回文本宽度（pt）。
func (r *Renderer) Measure(text string, style layout.TextStyle) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fromFixed(font.MeasureString(r.face(style.Font, style.Size, 1), text))
}

// LineMetrics 返回上升部（负值）与下降部，单位 pt。
func (r *Renderer) LineMetrics(style layout.TextStyle) (float64, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.face(style.Font, style.Size, 1).Metrics()
	return -fromFixed(m.Ascent), fromFixed(m.Descent)
}

// BreakAtWidth 返回不超过 maxWidth 的最长前缀的字节偏移，按字形前进宽度累加。
func (r *Renderer) BreakAtWidth(text string, style layout.TextStyle, maxWidth float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	face := r.face(style.Font, style.Size, 1)
	var w fixed.Int26_6
	prev := rune(-1)
	for i, rn := range text {
		if prev >= 0 {
			w += face.Kern(prev, rn)
		}
		adv, ok := face.GlyphAdvance(rn)
		if !ok {
			adv, _ = face.GlyphAdvance('?')
		}
		w += adv
		if fromFixed(w) > maxWidth {
			return i
		}
		prev = rn
	}
	return len(text)
}

// RenderPage 把单页绘制为图像。
func (r *Renderer) RenderPage(page layout.Page) image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.scale
	dc := gg.NewContext(int(math.Ceil(page.Width*s)), int(math.Ceil(page.Height*s)))
	dc.SetColor(color.White)
	dc.Clear()

	for _, ln := range page.Lines {
		dc.SetColor(rgb(ln.Color))
		dc.SetLineWidth(lineWidth(ln.Width) * s)
		if ln.Dash {
			dc.SetDash(2*s, 2*s)
		}
		dc.DrawLine(ln.X1*s, ln.Y1*s, ln.X2*s, ln.Y2*s)
		dc.Stroke()
		dc.SetDash()
	}
	for _, rc := range page.Rects {
		dc.DrawRectangle(rc.X*s, rc.Y*s, rc.Width*s, rc.Height*s)
		paint(dc, rc.FillColor, rc.StrokeColor, rc.StrokeWidth*s)
	}
	for _, a := range page.Arcs {
		start := a.Start * math.Pi / 180
		end := (a.Start + a.Sweep) * math.Pi / 180
		if a.Sector {
			dc.MoveTo(a.CX*s, a.CY*s)
		}
		dc.DrawArc(a.CX*s, a.CY*s, a.R*s, start, end)
		if a.Sector {
			dc.ClosePath()
		}
		paint(dc, a.FillColor, a.StrokeColor, a.StrokeWidth*s)
	}
	for _, p := range page.Paths {
		if len(p.Points) < 2 {
			continue
		}
		dc.MoveTo(p.Points[0].X*s, p.Points[0].Y*s)
		for _, pt := range p.Points[1:] {
			dc.LineTo(pt.X*s, pt.Y*s)
		}
		if p.Closed {
			dc.ClosePath()
		}
		paint(dc, p.FillColor, p.StrokeColor, p.StrokeWidth*s)
	}
	for _, c := range page.Circles {
		dc.DrawCircle(c.CX*s, c.CY*s, c.R*s)
		paint(dc, c.FillColor, c.StrokeColor, c.StrokeWidth*s)
	}

	texts := page.Texts
	if page.Footer != nil {
		texts = append(texts[:len(texts):len(texts)], *page.Footer)
	}
	for _, run := range texts {
		if run.Content == "" {
			continue
		}
		dc.SetFontFace(r.face(run.Style.Font, run.Style.Size, s))
		dc.SetColor(rgb(run.Style.Color))
		dc.DrawString(run.Content, run.X*s, run.Y*s)
	}
	return dc.Image()
}

// Render 把所有页面纵向拼接为一张 PNG 联系表。
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil || len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	images := make([]image.Image, 0, len(result.Pages))
	width, height := 0, 0
	for _, page := range result.Pages {
		img := r.RenderPage(page)
		images = append(images, img)
		width = max(width, img.Bounds().Dx())
		height += img.Bounds().Dy() + pageGap
	}
	sheet := gg.NewContext(width, height-pageGap)
	sheet.SetRGB(0.85, 0.85, 0.85)
	sheet.Clear()
	y := 0
	for _, img := range images {
		sheet.DrawImage(img, 0, y)
		y += img.Bounds().Dy() + pageGap
	}
	var buf bytes.Buffer
	if err := sheet.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// WritePages 在 dir 下为每页写出 page-NNN.png，返回文件路径。
func (r *Renderer) WritePages(result *layout.Result, dir string) ([]string, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建预览目录失败: %w", err)
	}
	paths := make([]string, 0, len(result.Pages))
	for _, page := range result.Pages {
		path := filepath.Join(dir, fmt.Sprintf("page-%03d.png", page.Number))
		if err := gg.SavePNG(path, r.RenderPage(page)); err != nil {
			return paths, fmt.Errorf("写入预览 %s 失败: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// face 返回 size(pt) × scale 的字体面；调用方需持有 mu。
func (r *Renderer) face(res layout.FontResource, size, scale float64) font.Face {
	if size <= 0 {
		size = 11
	}
	key := fmt.Sprintf("%s|%g|%g", res.Src, size, scale)
	if f, ok := r.faces[key]; ok {
		return f
	}
	f := truetype.NewFace(r.font(res), &truetype.Options{
		Size:    size,
		DPI:     72 * scale,
		Hinting: font.HintingNone,
	})
	r.faces[key] = f
	return f
}

func (r *Renderer) font(res layout.FontResource) *truetype.Font {
	if ft, ok := r.fonts[res.Src]; ok {
		return ft
	}
	ft, err := r.parseFont(res.Src)
	if err != nil && res.Fallback != "" {
		ft, err = r.parseFont(res.Fallback)
	}
	if err != nil {
		// 内置字体随二进制编译，解析不会失败
		ft, _ = r.parseFont(fonts.Regular)
	}
	r.fonts[res.Src] = ft
	return ft
}

func (r *Renderer) parseFont(src string) (*truetype.Font, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case src == "":
		return nil, fmt.Errorf("字体缺少 src")
	case strings.HasPrefix(src, "embed:") || !strings.ContainsAny(src, "./\\"):
		data, err = fonts.Load(src)
	default:
		path := src
		if !filepath.IsAbs(path) {
			if r.baseDir == "" {
				return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s", src)
			}
			path = filepath.Join(r.baseDir, path)
		}
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return truetype.Parse(data)
}

func paint(dc *gg.Context, fill, stroke *layout.Color, width float64) {
	switch {
	case fill != nil && stroke != nil:
		dc.SetColor(rgb(*fill))
		dc.FillPreserve()
		dc.SetColor(rgb(*stroke))
		dc.SetLineWidth(math.Max(width, 1))
		dc.Stroke()
	case fill != nil:
		dc.SetColor(rgb(*fill))
		dc.Fill()
	case stroke != nil:
		dc.SetColor(rgb(*stroke))
		dc.SetLineWidth(math.Max(width, 1))
		dc.Stroke()
	default:
		dc.ClearPath()
	}
}

func lineWidth(pt float64) float64 {
	if pt <= 0 {
		return 0.5
	}
	return pt
}

func rgb(c layout.Color) color.Color {
	return color.RGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: 255}
}

func fromFixed(v fixed.Int26_6) float64 { return float64(v) / 64 }
