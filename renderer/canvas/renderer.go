package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/quire/fonts"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/renderer"
)

const (
	defaultStrokeWidth = 0.5 // pt
	dashLength         = 2.0 // pt
	arcStepDegrees     = 2.0
)

// Renderer draws layout results via github.com/tdewolff/canvas and doubles as
// the layout.TextMeasurer, so both passes measure with the faces that end up
// in the PDF. Layout coordinates are pt; canvas works in mm.
type Renderer struct {
	baseDir string

	// injected resources
	fontBlobs map[string][]byte // by unique name

	fontMu         sync.Mutex
	fontFamilies   map[string]*fontFamilyEntry
	faces          map[string]*canvas.FontFace
	fallbackFamily *canvas.FontFamily
}

var (
	_ renderer.Renderer   = (*Renderer)(nil)
	_ renderer.Backend    = (*Renderer)(nil)
	_ layout.TextMeasurer = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	Fonts   map[string]Resource // built-in fonts accessible via built-in:<name>
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving font files.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected fonts and optional baseDir.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		baseDir:      opts.BaseDir,
		fontBlobs:    map[string][]byte{},
		fontFamilies: map[string]*fontFamilyEntry{},
		faces:        map[string]*canvas.FontFace{},
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			data, _ := os.ReadFile(res.Path) // 错误在实际使用该字体时暴露
			if len(data) > 0 {
				r.fontBlobs[name] = data
			}
		}
	}
	return r
}

// Measure 返回文本宽度（pt）。
func (r *Renderer) Measure(text string, style layout.TextStyle) float64 {
	face, err := r.measureFace(style)
	if err != nil {
		return approxWidth(text, style)
	}
	return toPt(face.TextWidth(text))
}

// LineMetrics 返回字体上升部（负值）与下降部，单位 pt。
func (r *Renderer) LineMetrics(style layout.TextStyle) (float64, float64) {
	face, err := r.measureFace(style)
	if err != nil {
		return -style.Size * 0.8, style.Size * 0.2
	}
	m := face.Metrics()
	return -toPt(math.Abs(m.Ascent)), toPt(math.Abs(m.Descent))
}

// BreakAtWidth 逐字累加字宽，返回不超过 maxWidth 的最长前缀的字节偏移。
func (r *Renderer) BreakAtWidth(text string, style layout.TextStyle, maxWidth float64) int {
	face, err := r.measureFace(style)
	w := 0.0
	for i, rn := range text {
		if err != nil {
			w += style.Size * 0.5
		} else {
			w += toPt(face.TextWidth(string(rn)))
		}
		if w > maxWidth {
			return i
		}
	}
	return len(text)
}

func approxWidth(text string, style layout.TextStyle) float64 {
	return float64(utf8.RuneCountInString(text)) * style.Size * 0.5
}

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	first := result.Pages[0]
	writer := pdf.New(&buf, toMm(first.Width), toMm(first.Height), nil)
	r.applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(toMm(page.Width), toMm(page.Height))
		}
		c := canvas.New(toMm(page.Width), toMm(page.Height))
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

		if err := r.drawPage(ctx, page); err != nil {
			return nil, fmt.Errorf("绘制第 %d 页失败: %w", page.Number, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// drawPage 先画背景形状（网格线、单元格、柱、扇形），再画折线与点，最后画文本与页脚。
func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page) error {
	r.drawLines(ctx, page.Lines)
	r.drawRects(ctx, page.Rects)
	r.drawArcs(ctx, page.Arcs)
	r.drawPaths(ctx, page.Paths)
	r.drawCircles(ctx, page.Circles)

	for _, run := range page.Texts {
		if err := r.drawText(ctx, run); err != nil {
			return err
		}
	}
	if page.Footer != nil {
		if err := r.drawText(ctx, *page.Footer); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) drawText(ctx *canvas.Context, run layout.TextRun) error {
	if run.Content == "" {
		return nil
	}
	face, err := r.fontFace(run.Style.Font, run.Style.Size, run.Style.Color)
	if err != nil {
		return err
	}
	// TextRun.Y 已经是基线
	ctx.DrawText(toMm(run.X), toMm(run.Y), canvas.NewTextLine(face, run.Content, canvas.Left))
	return nil
}

func (r *Renderer) drawLines(ctx *canvas.Context, lines []layout.Line) {
	ctx.SetFillColor(transparent)
	for _, ln := range lines {
		ctx.SetStrokeColor(colorFromLayout(ln.Color))
		ctx.SetStrokeWidth(strokeWidth(ln.Width))
		if ln.Dash {
			ctx.SetDashes(0, toMm(dashLength), toMm(dashLength))
		}
		p := &canvas.Path{}
		p.MoveTo(0, 0)
		p.LineTo(toMm(ln.X2-ln.X1), toMm(ln.Y2-ln.Y1))
		ctx.DrawPath(toMm(ln.X1), toMm(ln.Y1), p)
		if ln.Dash {
			ctx.SetDashes(0)
		}
	}
}

func (r *Renderer) drawRects(ctx *canvas.Context, rects []layout.Rect) {
	for _, rc := range rects {
		setPaint(ctx, rc.FillColor, rc.StrokeColor, rc.StrokeWidth)
		ctx.DrawPath(toMm(rc.X), toMm(rc.Y), canvas.Rectangle(toMm(rc.Width), toMm(rc.Height)))
	}
}

func (r *Renderer) drawCircles(ctx *canvas.Context, circles []layout.Circle) {
	for _, c := range circles {
		setPaint(ctx, c.FillColor, c.StrokeColor, c.StrokeWidth)
		// canvas.Circle 以原点为圆心
		ctx.DrawPath(toMm(c.CX), toMm(c.CY), canvas.Circle(toMm(c.R)))
	}
}

func (r *Renderer) drawArcs(ctx *canvas.Context, arcs []layout.Arc) {
	for _, a := range arcs {
		setPaint(ctx, a.FillColor, a.StrokeColor, a.StrokeWidth)
		ctx.DrawPath(toMm(a.CX), toMm(a.CY), arcPath(a))
	}
}

func (r *Renderer) drawPaths(ctx *canvas.Context, paths []layout.Path) {
	for _, path := range paths {
		if len(path.Points) < 2 {
			continue
		}
		setPaint(ctx, path.FillColor, path.StrokeColor, path.StrokeWidth)
		origin := path.Points[0]
		p := &canvas.Path{}
		p.MoveTo(0, 0)
		for _, pt := range path.Points[1:] {
			p.LineTo(toMm(pt.X-origin.X), toMm(pt.Y-origin.Y))
		}
		if path.Closed {
			p.Close()
		}
		ctx.DrawPath(toMm(origin.X), toMm(origin.Y), p)
	}
}

// arcPath 以折线逼近圆弧，坐标相对圆心（mm）。角度为度，顺时针为正。
func arcPath(a layout.Arc) *canvas.Path {
	steps := max(int(math.Ceil(math.Abs(a.Sweep)/arcStepDegrees)), 1)
	p := &canvas.Path{}
	if a.Sector {
		p.MoveTo(0, 0)
	}
	for i := 0; i <= steps; i++ {
		theta := (a.Start + a.Sweep*float64(i)/float64(steps)) * math.Pi / 180
		x, y := toMm(a.R*math.Cos(theta)), toMm(a.R*math.Sin(theta))
		if i == 0 && !a.Sector {
			p.MoveTo(x, y)
			continue
		}
		p.LineTo(x, y)
	}
	if a.Sector {
		p.Close()
	}
	return p
}

var transparent = color.RGBA{0, 0, 0, 0}

func setPaint(ctx *canvas.Context, fill, stroke *layout.Color, width float64) {
	if fill != nil {
		ctx.SetFillColor(colorFromLayout(*fill))
	} else {
		ctx.SetFillColor(transparent)
	}
	if stroke != nil {
		ctx.SetStrokeColor(colorFromLayout(*stroke))
		ctx.SetStrokeWidth(strokeWidth(width))
	} else {
		ctx.SetStrokeColor(transparent)
		ctx.SetStrokeWidth(0)
	}
}

func strokeWidth(pt float64) float64 {
	if pt <= 0 {
		pt = defaultStrokeWidth
	}
	return toMm(pt)
}

// measureFace 返回测量用字体面（颜色无关），按字体与字号缓存。
func (r *Renderer) measureFace(style layout.TextStyle) (*canvas.FontFace, error) {
	size := style.Size
	if size <= 0 {
		size = 11
	}
	key := fmt.Sprintf("%s|%g", fontCacheKey(style.Font), size)
	r.fontMu.Lock()
	face, ok := r.faces[key]
	r.fontMu.Unlock()
	if ok {
		return face, nil
	}
	face, err := r.fontFace(style.Font, size, layout.Color{})
	if err != nil {
		return nil, err
	}
	r.fontMu.Lock()
	r.faces[key] = face
	r.fontMu.Unlock()
	return face, nil
}

// fontFace 创建字体面，size 为 pt。
func (r *Renderer) fontFace(font layout.FontResource, size float64, col layout.Color) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(size, colorFromLayout(col), style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(font layout.FontResource) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(font)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := parseFontStyle(font.Style)
	familyName := font.Family
	if familyName == "" {
		familyName = font.Name
	}
	if familyName == "" {
		familyName = "Body"
	}
	family := canvas.NewFontFamily(familyName)

	err := r.loadFontIntoFamily(family, font.Src, style)
	if err != nil && font.Fallback != "" {
		err = r.loadFontIntoFamily(family, font.Fallback, style)
	}
	if err != nil {
		fallback, fbStyle, fbErr := r.fallback()
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		r.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: fbStyle}
		return fallback, fbStyle, nil
	}

	entry := &fontFamilyEntry{family: family, style: style}
	r.fontFamilies[key] = entry
	return family, style, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, src string, style canvas.FontStyle) error {
	data, err := r.loadFontBytes(src)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, style)
}

func (r *Renderer) loadFontBytes(src string) ([]byte, error) {
	if src == "" {
		return nil, fmt.Errorf("字体缺少 src")
	}
	if strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:") {
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		if blob, ok := r.fontBlobs[name]; ok {
			return blob, nil
		}
		return nil, fmt.Errorf("找不到内置字体资源 built-in:%s", name)
	}
	if strings.HasPrefix(src, "embed:") {
		return fonts.Load(src)
	}
	path := src
	if r.baseDir == "" && !filepath.IsAbs(path) {
		return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 built-in: 或 embed:）", src)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	return os.ReadFile(path)
}

// fallback 在调用方持有 fontMu 时使用。
func (r *Renderer) fallback() (*canvas.FontFamily, canvas.FontStyle, error) {
	if r.fallbackFamily != nil {
		return r.fallbackFamily, canvas.FontRegular, nil
	}
	data, err := fonts.Load(fonts.Regular)
	if err != nil {
		return nil, canvas.FontRegular, err
	}
	family := canvas.NewFontFamily("quire-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, canvas.FontRegular, err
	}
	r.fallbackFamily = family
	return family, canvas.FontRegular, nil
}

func parseFontStyle(style string) canvas.FontStyle {
	if style == "" {
		return canvas.FontRegular
	}
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(font layout.FontResource) string {
	return fmt.Sprintf("%s|%s|%s", font.Name, font.Src, font.Style)
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }

// toMm 将点(pt)转换为毫米(mm)。
func toMm(pt float64) float64 { return pt * layout.PtToMm }
