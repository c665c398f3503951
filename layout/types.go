package layout

// 该文件定义布局结果与资源描述，供排版、渲染与调试 JSON 共用。
// 除特别说明外，所有坐标与尺寸均以 pt 为单位，原点在页面左上角，y 向下。

// Result 保存布局后的页面、目录与资源信息。
type Result struct {
	Pages     []Page       `json:"pages"`
	TOC       []TocEntry   `json:"toc"`
	Resources ResourceSet  `json:"resources"`
	Meta      DocumentMeta `json:"meta"`
}

// ResourceSet 记录主题解析出的字体、颜色与样式定义。
type ResourceSet struct {
	Fonts  map[string]FontResource `json:"fonts"`
	Colors map[string]Color        `json:"colors"`
	Styles map[string]Style        `json:"styles"`
}

// FontResource 描述字体资源，src 可以是文件路径或 embed:* 内置字体。
type FontResource struct {
	Name     string `json:"name"`
	Src      string `json:"src"`
	Style    string `json:"style,omitempty"` // regular/bold/italic/bold-italic
	Family   string `json:"family"`          // 渲染器使用的 Family 名称
	Fallback string `json:"fallback,omitempty"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// PageKind 区分封面、目录与正文页。
type PageKind string

const (
	PageCover   PageKind = "cover"
	PageTOC     PageKind = "toc"
	PageContent PageKind = "content"
)

// Page 记录页面尺寸、边距与最终可以直接渲染的图元。
type Page struct {
	Number  int       `json:"number"` // 物理页码，从 1 开始
	Kind    PageKind  `json:"kind"`
	Width   float64   `json:"width"`
	Height  float64   `json:"height"`
	Margin  Margin    `json:"margin"`
	Texts   []TextRun `json:"texts"`
	Lines   []Line    `json:"lines,omitempty"`
	Rects   []Rect    `json:"rects,omitempty"`
	Circles []Circle  `json:"circles,omitempty"`
	Arcs    []Arc     `json:"arcs,omitempty"`
	Paths   []Path    `json:"paths,omitempty"`
	// 页脚只出现在正文页
	Footer *TextRun `json:"footer,omitempty"`
}

// IsContent reports whether the page carries body content (and a footer).
func (p Page) IsContent() bool { return p.Kind == PageContent }

// Margin 以 pt 为单位。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// TextStyle 是不可变的文本样式值，每次使用时按值传递。
type TextStyle struct {
	Font       FontResource   `json:"font"`
	Size       float64        `json:"size"` // pt
	Color      Color          `json:"color"`
	LineHeight LineHeightSpec `json:"lineHeight"`
}

// TextRun 是一段已经定位好的单样式文本，Y 为基线位置。
type TextRun struct {
	Content string    `json:"content"`
	X       float64   `json:"x"`
	Y       float64   `json:"y"`
	Width   float64   `json:"width"`
	Style   TextStyle `json:"style"`
}

// Line 表示一条线段。
type Line struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Color Color   `json:"color"`
	Width float64 `json:"width"` // <=0 时由渲染器给默认值
	Dash  bool    `json:"dash,omitempty"`
}

// Rect 表示一个矩形（不包含圆角）。
type Rect struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	StrokeColor *Color  `json:"strokeColor,omitempty"` // 为空表示不描边
	StrokeWidth float64 `json:"strokeWidth"`
	FillColor   *Color  `json:"fillColor,omitempty"` // 为空表示不填充
}

// Circle 表示一个圆。
type Circle struct {
	CX          float64 `json:"cx"`
	CY          float64 `json:"cy"`
	R           float64 `json:"r"`
	StrokeColor *Color  `json:"strokeColor,omitempty"`
	StrokeWidth float64 `json:"strokeWidth"`
	FillColor   *Color  `json:"fillColor,omitempty"`
}

// Arc 是以 (CX, CY) 为圆心的圆弧。角度单位为度，0 度指向右侧，
// 顺时针为正（与 y 向下的页面坐标一致）。Sector 为 true 时两端连回圆心，构成扇形。
type Arc struct {
	CX          float64 `json:"cx"`
	CY          float64 `json:"cy"`
	R           float64 `json:"r"`
	Start       float64 `json:"start"`
	Sweep       float64 `json:"sweep"`
	Sector      bool    `json:"sector"`
	StrokeColor *Color  `json:"strokeColor,omitempty"`
	StrokeWidth float64 `json:"strokeWidth"`
	FillColor   *Color  `json:"fillColor,omitempty"`
}

// Point 是页面坐标中的一个点。
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Path 是折线（Closed 时为多边形）。
type Path struct {
	Points      []Point `json:"points"`
	Closed      bool    `json:"closed,omitempty"`
	StrokeColor *Color  `json:"strokeColor,omitempty"`
	StrokeWidth float64 `json:"strokeWidth"`
	FillColor   *Color  `json:"fillColor,omitempty"`
}

// TocEntry 是目录中的一项。Page 为逻辑页码（正文第一页为 1）。
type TocEntry struct {
	Title   string  `json:"title"`
	Page    int     `json:"page"`
	AnchorY float64 `json:"anchorY"`
}

// Style 用于描述可继承的文本样式。
type Style struct {
	Name    string            `json:"name"`
	Extends string            `json:"extends,omitempty"`
	Props   map[string]string `json:"props"`
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}

func colorPtr(c Color) *Color { return &c }
