package fonts

import (
	"fmt"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// 内置字体统一使用 Go 字体族（golang.org/x/image/font/gofont），无需随仓库分发 TTF 文件。
const (
	Regular    = "goregular"
	Bold       = "gobold"
	Italic     = "goitalic"
	BoldItalic = "gobolditalic"
	Mono       = "gomono"
)

var builtin = map[string][]byte{
	Regular:    goregular.TTF,
	Bold:       gobold.TTF,
	Italic:     goitalic.TTF,
	BoldItalic: gobolditalic.TTF,
	Mono:       gomono.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "embed:gobold" 或直接 "gobold"。
// 允许带 .ttf 后缀。
func Load(name string) ([]byte, error) {
	clean := strings.TrimPrefix(name, "embed:")
	clean = strings.TrimSuffix(strings.ToLower(clean), ".ttf")
	data, ok := builtin[clean]
	if !ok {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 未知字体", name)
	}
	return data, nil
}

// Names 列出全部内置字体名称。
func Names() []string {
	return []string{Regular, Bold, Italic, BoldItalic, Mono}
}
