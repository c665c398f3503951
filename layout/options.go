package layout

import (
	"errors"
	"io"
	"log/slog"
)

var (
	// ErrNoMeasurer is returned when Options carries no TextMeasurer.
	ErrNoMeasurer = errors.New("layout: 缺少文本测量后端 TextMeasurer")
	// ErrEmptyDocument is returned for a document without sections.
	ErrEmptyDocument = errors.New("layout: 文档没有章节")
	// ErrTocMismatch means the render pass placed a section title on a page
	// other than the one the simulate pass predicted.
	ErrTocMismatch = errors.New("layout: 目录页码与渲染结果不一致")
)

// Options 配置布局阶段所需的依赖。
type Options struct {
	Measurer TextMeasurer
	// Theme 为 nil 时使用 DefaultTheme()。
	Theme *Theme
	// Logger 接收非致命告警；为 nil 时丢弃。
	Logger *slog.Logger
	Debug  DebugOptions
}

// DebugOptions 控制调试相关输出。
type DebugOptions struct {
	States bool // 以 Debug 级别记录分页状态机的每次迁移
}

// TextMeasurer 由渲染后端提供，所有长度均为 pt。
type TextMeasurer interface {
	// Measure 返回文本的前进宽度。
	Measure(text string, style TextStyle) float64
	// LineMetrics 返回上升部与下降部，上升部为负值（y 向下）。
	LineMetrics(style TextStyle) (ascent, descent float64)
	// BreakAtWidth 返回 text 中宽度不超过 maxWidth 的最长前缀的字节偏移。
	BreakAtWidth(text string, style TextStyle, maxWidth float64) int
}

func (o Options) theme() *Theme {
	if o.Theme != nil {
		return o.Theme
	}
	return DefaultTheme()
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
