package renderer

import "github.com/ByLCY/quire/layout"

// Renderer 将布局结果输出为最终文件，例如 PDF 或图像。
// Render 返回生成的二进制数据（例如 PDF 字节切片）以及可能的错误。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}

// Backend 同时负责测量与绘制。排版与渲染必须使用同一个 Backend，
// 否则模拟阶段预测的页码与实际绘制结果不一致。
type Backend interface {
	Renderer
	layout.TextMeasurer
}
