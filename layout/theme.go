package layout

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/ByLCY/quire/binding"
	"github.com/ByLCY/quire/content"
	"github.com/ByLCY/quire/dsl"
	"github.com/ByLCY/quire/fonts"
)

// 样式名称。模板中的 style 声明按这些名字覆盖默认值。
const (
	StyleBody        = "body"
	StyleH1          = "h1"
	StyleH2          = "h2"
	StyleH3          = "h3"
	StyleSection     = "section"
	StyleCover       = "cover"
	StyleCoverSub    = "cover-sub"
	StyleTOCTitle    = "toc-title"
	StyleTOCEntry    = "toc-entry"
	StyleTableTitle  = "table-title"
	StyleTableHeader = "table-header"
	StyleTableCell   = "table-cell"
	StyleChartTitle  = "chart-title"
	StyleChartLabel  = "chart-label"
	StyleFooter      = "footer"
	StyleError       = "error"
)

// 颜色名称（小写）。
const (
	ColorText       = "text"
	ColorAccent     = "accent"
	ColorMuted      = "muted"
	ColorError      = "error"
	ColorBorder     = "border"
	ColorHeaderFill = "header-fill"
	ColorAxis       = "axis"
	ColorGrid       = "grid"
)

const defaultFontName = "Body"

// Theme 汇总页面几何、字体、颜色与文本样式。Theme 构造完成后只读，
// 可在多个排版任务之间共享。
type Theme struct {
	Width     float64 // pt
	Height    float64 // pt
	Margin    Margin  // pt
	Resources ResourceSet
	Meta      DocumentMeta
	TOCTitle  string
	// Footer 支持 ${page}、${pages}、${title} 占位符。
	Footer  string
	Palette []Color

	styles map[string]TextStyle
}

// ContentWidth 返回左右边距之间的宽度。
func (th *Theme) ContentWidth() float64 {
	return th.Width - th.Margin.Left - th.Margin.Right
}

// ContentTop 返回内容区域顶部。
func (th *Theme) ContentTop() float64 { return th.Margin.Top }

// ContentBottom 返回内容区域底部。
func (th *Theme) ContentBottom() float64 { return th.Height - th.Margin.Bottom }

// Style 返回已解析的文本样式；未知名称回退到 body。
func (th *Theme) Style(name string) TextStyle {
	if s, ok := th.styles[name]; ok {
		return s
	}
	return th.styles[StyleBody]
}

// Color 按名称（不区分大小写）查找颜色。
func (th *Theme) Color(name string) Color {
	if c, ok := th.Resources.Colors[strings.ToLower(name)]; ok {
		return c
	}
	return Color{R: 30, G: 30, B: 30}
}

// SeriesColor 返回第 i 组数据使用的颜色。
func (th *Theme) SeriesColor(i int) Color {
	if len(th.Palette) == 0 {
		return th.Color(ColorAccent)
	}
	return th.Palette[i%len(th.Palette)]
}

// Variant 返回叠加了行内强调后的样式：同一 Family 中寻找对应字重/斜体的字体，
// 找不到时使用内置 Go 字体。
func (th *Theme) Variant(base TextStyle, span content.SpanStyle) TextStyle {
	if span == content.Plain {
		return base
	}
	current := normalizeFontStyle(base.Font.Style)
	bold := strings.Contains(current, "bold") || span == content.Bold
	italic := strings.Contains(current, "italic") || span == content.Italic
	want := composeFontStyle(bold, italic)
	if want == current {
		return base
	}

	for _, f := range th.Resources.Fonts {
		if f.Family == base.Font.Family && normalizeFontStyle(f.Style) == want {
			base.Font = f
			return base
		}
	}
	base.Font = builtinFont(want)
	return base
}

func builtinFont(style string) FontResource {
	src := fonts.Regular
	switch style {
	case "bold":
		src = fonts.Bold
	case "italic":
		src = fonts.Italic
	case "bold-italic":
		src = fonts.BoldItalic
	}
	return FontResource{
		Name:   "Go-" + style,
		Src:    "embed:" + src,
		Style:  style,
		Family: "Go",
	}
}

func normalizeFontStyle(s string) string {
	s = strings.ToLower(s)
	return composeFontStyle(strings.Contains(s, "bold"), strings.Contains(s, "italic") || strings.Contains(s, "oblique"))
}

func composeFontStyle(bold, italic bool) string {
	switch {
	case bold && italic:
		return "bold-italic"
	case bold:
		return "bold"
	case italic:
		return "italic"
	default:
		return "regular"
	}
}

// DefaultTheme 返回 A4 纵向、20mm 边距、Go 字体的默认主题。
func DefaultTheme() *Theme {
	th, err := newTheme(nil)
	if err != nil {
		// 默认样式表不含继承，不会失败
		panic(err)
	}
	return th
}

// LoadTheme 从模板文件读取主题。
func LoadTheme(path string) (*Theme, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开模板失败: %w", err)
	}
	defer f.Close()
	tpl, err := dsl.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("解析模板失败: %w", err)
	}
	return ThemeFromTemplate(tpl)
}

// ThemeFromTemplate 在默认主题之上叠加模板声明的页面、资源与样式。
func ThemeFromTemplate(tpl *dsl.Template) (*Theme, error) {
	if tpl == nil {
		return nil, fmt.Errorf("模板为空")
	}
	return newTheme(tpl)
}

func newTheme(tpl *dsl.Template) (*Theme, error) {
	th := &Theme{
		Width:  pagePresets["A4"][0] * MmToPt,
		Height: pagePresets["A4"][1] * MmToPt,
		Margin: Margin{Top: 20 * MmToPt, Right: 20 * MmToPt, Bottom: 20 * MmToPt, Left: 20 * MmToPt},
		Resources: ResourceSet{
			Fonts:  defaultFonts(),
			Colors: defaultColors(),
			Styles: map[string]Style{},
		},
		Meta:     DocumentMeta{Creator: "Quire"},
		TOCTitle: "Contents",
		Footer:   "${page}",
	}
	th.Palette = []Color{
		th.Color(ColorAccent),
		{R: 36, G: 161, B: 72},
		{R: 255, G: 131, B: 43},
		{R: 138, G: 63, B: 252},
		{R: 0, G: 157, B: 154},
		{R: 250, G: 77, B: 86},
	}
	rawStyles := defaultStyles()

	if tpl != nil {
		if err := th.applyTemplate(tpl, rawStyles); err != nil {
			return nil, err
		}
	}

	resolved, err := resolveStyles(rawStyles)
	if err != nil {
		return nil, err
	}
	th.Resources.Styles = resolved
	th.styles = make(map[string]TextStyle, len(resolved))
	for name, style := range resolved {
		th.styles[name] = compileStyle(style.Props, th.Resources)
	}
	return th, nil
}

func defaultFonts() map[string]FontResource {
	return map[string]FontResource{
		defaultFontName:  {Name: defaultFontName, Src: "embed:" + fonts.Regular, Family: "Go", Style: "regular"},
		"BodyBold":       {Name: "BodyBold", Src: "embed:" + fonts.Bold, Family: "Go", Style: "bold"},
		"BodyItalic":     {Name: "BodyItalic", Src: "embed:" + fonts.Italic, Family: "Go", Style: "italic"},
		"BodyBoldItalic": {Name: "BodyBoldItalic", Src: "embed:" + fonts.BoldItalic, Family: "Go", Style: "bold-italic"},
		"Mono":           {Name: "Mono", Src: "embed:" + fonts.Mono, Family: "GoMono", Style: "regular"},
	}
}

func defaultColors() map[string]Color {
	return map[string]Color{
		ColorText:       {R: 30, G: 30, B: 30},
		ColorAccent:     {R: 15, G: 98, B: 254},
		ColorMuted:      {R: 111, G: 111, B: 111},
		ColorError:      {R: 218, G: 30, B: 40},
		ColorBorder:     {R: 141, G: 141, B: 141},
		ColorHeaderFill: {R: 242, G: 244, B: 248},
		ColorAxis:       {R: 82, G: 82, B: 82},
		ColorGrid:       {R: 224, G: 224, B: 224},
	}
}

func defaultStyles() map[string]Style {
	styles := map[string]Style{}
	add := func(name, extends string, props map[string]string) {
		styles[name] = Style{Name: name, Extends: extends, Props: props}
	}
	add(StyleBody, "", map[string]string{"font": defaultFontName, "size": "11pt", "color": ColorText})
	add(StyleH1, "", map[string]string{"font": "BodyBold", "size": "18pt", "color": ColorText})
	add(StyleH2, "", map[string]string{"font": "BodyBold", "size": "15pt", "color": ColorText})
	add(StyleH3, "", map[string]string{"font": "BodyBold", "size": "13pt", "color": ColorText})
	add(StyleSection, "", map[string]string{"font": "BodyBold", "size": "20pt", "color": ColorAccent})
	add(StyleCover, "", map[string]string{"font": "BodyBold", "size": "28pt", "color": ColorText})
	add(StyleCoverSub, "", map[string]string{"font": "BodyItalic", "size": "14pt", "color": ColorMuted})
	add(StyleTOCTitle, "", map[string]string{"font": "BodyBold", "size": "20pt", "color": ColorText})
	add(StyleTOCEntry, "", map[string]string{"font": defaultFontName, "size": "12pt", "color": ColorText})
	add(StyleTableTitle, "", map[string]string{"font": "BodyBold", "size": "12pt", "color": ColorText})
	add(StyleTableHeader, "", map[string]string{"font": "BodyBold", "size": "10pt", "color": ColorText})
	add(StyleTableCell, "", map[string]string{"font": defaultFontName, "size": "10pt", "color": ColorText})
	add(StyleChartTitle, "", map[string]string{"font": "BodyBold", "size": "12pt", "color": ColorText})
	add(StyleChartLabel, "", map[string]string{"font": defaultFontName, "size": "8pt", "color": ColorAxis})
	add(StyleFooter, "", map[string]string{"font": defaultFontName, "size": "9pt", "color": ColorMuted})
	add(StyleError, "", map[string]string{"font": defaultFontName, "size": "10pt", "color": ColorError})
	return styles
}

func (th *Theme) applyTemplate(tpl *dsl.Template, rawStyles map[string]Style) error {
	if meta := tpl.Meta(); meta != nil && meta.Block != nil {
		for _, st := range meta.Block.Statements {
			if st.Assignment == nil {
				continue
			}
			switch strings.ToLower(st.Assignment.Key) {
			case "title":
				th.Meta.Title = dsl.ValueString(st.Assignment.Value)
			case "author":
				th.Meta.Author = dsl.ValueString(st.Assignment.Value)
			case "subject":
				th.Meta.Subject = dsl.ValueString(st.Assignment.Value)
			case "creator":
				th.Meta.Creator = dsl.ValueString(st.Assignment.Value)
			case "keywords":
				th.Meta.Keywords = dsl.ValueStrings(st.Assignment.Value)
			}
		}
	}

	for _, section := range tpl.Resources() {
		if section.Block == nil {
			continue
		}
		for _, st := range section.Block.Statements {
			if st.Assignment != nil && st.Assignment.Key == "palette" {
				palette, err := parsePalette(dsl.ValueStrings(st.Assignment.Value), th.Resources)
				if err != nil {
					return err
				}
				th.Palette = palette
				continue
			}
			if st.Command == nil {
				continue
			}
			switch st.Command.Name {
			case "font":
				font := parseFontResource(st.Command)
				if font.Name != "" {
					th.Resources.Fonts[font.Name] = font
				}
			case "color":
				name, value := parseColorResource(st.Command)
				if name == "" || value == "" {
					continue
				}
				c, err := parseColor(value)
				if err != nil {
					return err
				}
				th.Resources.Colors[strings.ToLower(name)] = c
			case "style":
				style := parseStyleResource(st.Command)
				if style.Name == "" {
					continue
				}
				// 同名默认样式作为底稿，模板只覆盖声明过的属性
				if base, ok := rawStyles[style.Name]; ok && style.Extends == "" {
					merged := map[string]string{}
					for k, v := range base.Props {
						merged[k] = v
					}
					for k, v := range style.Props {
						merged[k] = v
					}
					style.Props = merged
				}
				rawStyles[style.Name] = style
			}
		}
	}

	if page := tpl.Page(); page != nil {
		width, height, err := resolvePageSize(page.Spec)
		if err != nil {
			return err
		}
		th.Width, th.Height = width*MmToPt, height*MmToPt
		m := resolveMargin(page.Spec.Params)
		th.Margin = Margin{Top: m.Top * MmToPt, Right: m.Right * MmToPt, Bottom: m.Bottom * MmToPt, Left: m.Left * MmToPt}

		if toc := page.Command("toc"); toc != nil {
			if v := toc.Block.Assignments()["title"]; v != "" {
				th.TOCTitle = v
			}
		}
		if footer := page.Command("footer"); footer != nil {
			if v, ok := footer.Block.Assignments()["text"]; ok {
				if err := checkFooter(v); err != nil {
					return err
				}
				th.Footer = v
			}
		}
	}
	if th.ContentWidth() <= 0 || th.ContentBottom() <= th.ContentTop() {
		return fmt.Errorf("页边距超过纸张尺寸")
	}
	return nil
}

// checkFooter 拒绝引用未知变量的页脚模板。
func checkFooter(text string) error {
	for _, path := range binding.Placeholders(text) {
		root := strings.FieldsFunc(path, func(r rune) bool { return r == '.' || r == '[' })
		if len(root) == 0 || !slices.Contains(footerVars, root[0]) {
			return fmt.Errorf("页脚引用了未知变量 ${%s}，可用：%s", path, strings.Join(footerVars, ", "))
		}
	}
	return nil
}

func parsePalette(values []string, res ResourceSet) ([]Color, error) {
	var out []Color
	for _, v := range values {
		if c, ok := res.Colors[strings.ToLower(v)]; ok {
			out = append(out, c)
			continue
		}
		c, err := parseColor(v)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("palette 为空")
	}
	return out, nil
}

func compileStyle(props map[string]string, res ResourceSet) TextStyle {
	font, ok := res.Fonts[props["font"]]
	if !ok {
		font = res.Fonts[defaultFontName]
	}
	if font.Family == "" {
		font.Family = font.Name
	}
	size := 11.0
	if v, ok := lengthPt(props["size"], UnitPT); ok && v > 0 {
		size = v
	}
	return TextStyle{
		Font:       font,
		Size:       size,
		Color:      resolveColor(props["color"], res),
		LineHeight: ParseLineHeight(props["line-height"]),
	}
}

// lengthPt 将带单位的长度转换为 pt；没有单位时按 fallback 解释。
func lengthPt(value string, fallback Unit) (float64, bool) {
	l, err := ParseLength(value, fallback)
	if err != nil {
		return 0, false
	}
	return l.ToPT(), true
}

func parseFontResource(cmd *dsl.Command) FontResource {
	if len(cmd.Args) == 0 {
		return FontResource{}
	}
	font := FontResource{
		Name:   cmd.Args[0].Value,
		Family: cmd.Args[0].Value,
	}
	attrs := cmd.Block.Assignments()
	font.Src = attrs["src"]
	font.Style = attrs["style"]
	font.Fallback = attrs["fallback"]
	if v := attrs["family"]; v != "" {
		font.Family = v
	}
	return font
}

func parseStyleResource(cmd *dsl.Command) Style {
	if len(cmd.Args) == 0 {
		return Style{}
	}
	style := Style{
		Name:  cmd.Args[0].Value,
		Props: cmd.Block.Assignments(),
	}
	if len(cmd.Args) >= 3 && strings.EqualFold(cmd.Args[1].Value, "extends") {
		style.Extends = cmd.Args[2].Value
	}
	return style
}

func resolveStyles(styles map[string]Style) (map[string]Style, error) {
	resolved := map[string]Style{}
	visiting := map[string]bool{}

	var dfs func(name string) (Style, error)
	dfs = func(name string) (Style, error) {
		if style, ok := resolved[name]; ok {
			return style, nil
		}
		style, ok := styles[name]
		if !ok {
			return Style{}, fmt.Errorf("style %s 未定义", name)
		}
		if visiting[name] {
			return Style{}, fmt.Errorf("style 继承存在循环：%s", name)
		}
		visiting[name] = true

		props := map[string]string{}
		if style.Extends != "" {
			parent, err := dfs(style.Extends)
			if err != nil {
				return Style{}, err
			}
			for k, v := range parent.Props {
				props[k] = v
			}
		}
		for k, v := range style.Props {
			props[k] = v
		}
		style.Props = props
		resolved[name] = style
		delete(visiting, name)
		return style, nil
	}

	for name := range styles {
		if _, err := dfs(name); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

func parseColorResource(cmd *dsl.Command) (string, string) {
	if len(cmd.Args) == 0 {
		return "", ""
	}
	name := cmd.Args[0].Value
	value := ""
	if len(cmd.Args) > 1 {
		value = cmd.Args[len(cmd.Args)-1].Value
	}
	return name, value
}

func resolvePageSize(spec dsl.PageSpec) (float64, float64, error) {
	base, ok := pagePresets[strings.ToUpper(spec.Size)]
	if !ok {
		return 0, 0, fmt.Errorf("暂不支持的纸张尺寸：%s", spec.Size)
	}

	width := base[0]
	height := base[1]
	for _, token := range spec.Params {
		if token.Value == "landscape" {
			width, height = height, width
		}
	}
	return width, height, nil
}

// 纸张预设，单位 mm。
var pagePresets = map[string][2]float64{
	"A4":     {210, 297},
	"A5":     {148, 210},
	"LETTER": {215.9, 279.4},
}

// resolveMargin 解析 page 头部的 margin 参数（单位 mm），语义同 CSS：
// 1 个值四边相同；2 个值为上下/左右；3 个值为上/右/下（左为 0）；4 个值为上/右/下/左。
func resolveMargin(params []*dsl.Lexeme) Margin {
	margin := Margin{Top: 20, Right: 20, Bottom: 20, Left: 20}
	for i := 0; i < len(params); i++ {
		if params[i].Value != "margin" {
			continue
		}
		var vals []float64
		for j := i + 1; j < len(params) && len(vals) < 4; j++ {
			num := trimUnit(params[j].Value)
			if _, err := strconv.ParseFloat(num, 64); err != nil {
				break
			}
			vals = append(vals, parseLength(params[j].Value))
		}
		switch len(vals) {
		case 1:
			v := vals[0]
			margin = Margin{Top: v, Right: v, Bottom: v, Left: v}
		case 2:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}
		case 3:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: 0}
		case 4:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}
		}
	}
	return margin
}

func resolveColor(value string, res ResourceSet) Color {
	if value == "" {
		return Color{R: 30, G: 30, B: 30}
	}
	if c, ok := res.Colors[strings.ToLower(value)]; ok {
		return c
	}
	if strings.HasPrefix(value, "#") {
		if c, err := parseColor(value); err == nil {
			return c
		}
	}
	return Color{R: 30, G: 30, B: 30}
}

func parseColor(value string) (Color, error) {
	value = strings.TrimPrefix(value, "#")
	switch len(value) {
	case 3:
		r := strings.Repeat(string(value[0]), 2)
		g := strings.Repeat(string(value[1]), 2)
		b := strings.Repeat(string(value[2]), 2)
		return Color{R: mustHex(r), G: mustHex(g), B: mustHex(b)}, nil
	case 6, 8:
		return Color{
			R: mustHex(value[0:2]),
			G: mustHex(value[2:4]),
			B: mustHex(value[4:6]),
		}, nil
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
}

func mustHex(s string) int {
	v, _ := strconv.ParseInt(s, 16, 64)
	return int(v)
}

// parseLength 返回 mm；没有单位时按 mm 处理。
func parseLength(value string) float64 {
	l, err := ParseLength(value, UnitMM)
	if err != nil {
		return 0
	}
	return l.ToMM()
}

func trimUnit(value string) string {
	for _, suffix := range []string{"pt", "mm", "cm", "in", "%"} {
		if strings.HasSuffix(value, suffix) {
			return strings.TrimSuffix(value, suffix)
		}
	}
	return value
}
