package content

import (
	"fmt"
	"strings"

	"github.com/ByLCY/quire/dsl"
)

// parseTable 解析 [[TABLE|title|h1,h2,...|r1c1,r1c2,...|...]]。
// 去掉包裹记号后至少需要 3 段（标题、表头、至少一行）。
func parseTable(d *dsl.Directive) (Table, error) {
	parts := d.Parts()
	if len(parts) < 3 {
		return Table{}, fmt.Errorf("table needs title, headers and at least one row, got %d part(s)", len(parts))
	}
	headers := splitCells(parts[1])
	if len(headers) == 0 {
		return Table{}, fmt.Errorf("table has no columns")
	}
	table := Table{Title: parts[0], Headers: headers}
	for _, raw := range parts[2:] {
		if raw == "" {
			continue
		}
		table.Rows = append(table.Rows, fitRow(splitCells(raw), len(headers)))
	}
	if len(table.Rows) == 0 {
		return Table{}, fmt.Errorf("table has no rows")
	}
	return table, nil
}

// splitCells 按逗号切分并去掉两端空白；全空时返回 nil。
func splitCells(raw string) []string {
	cells := strings.Split(raw, ",")
	empty := true
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
		if cells[i] != "" {
			empty = false
		}
	}
	if empty {
		return nil
	}
	return cells
}

// fitRow 将一行补齐或折叠到 n 列：多出的单元格并入最后一列，避免丢失内容。
func fitRow(cells []string, n int) []string {
	row := make([]string, n)
	for i := 0; i < n && i < len(cells); i++ {
		row[i] = cells[i]
	}
	if len(cells) > n {
		row[n-1] = strings.Join(cells[n-1:], ", ")
	}
	return row
}
