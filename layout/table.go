package layout

import (
	"fmt"

	"github.com/ByLCY/quire/content"
)

// TableRowLayout 是一行表格的排版结果：每列的折行与整行高度。
type TableRowLayout struct {
	Cells  [][]TextLine
	Height float64
	Header bool
}

// TableLayout 是表格在排版前的度量结果。两个阶段使用同一份度量。
type TableLayout struct {
	Title        []TextLine
	ColumnWidths []float64
	Header       TableRowLayout
	Rows         []TableRowLayout
}

// MeasureTable 计算列宽（按列数平均分配）与每行高度：
// 行高 = max(列内行数 × 行高) + 2 × CellPadding。
func MeasureTable(m TextMeasurer, th *Theme, t content.Table) TableLayout {
	width := th.ContentWidth()
	n := len(t.Headers)
	colW := width / float64(n)
	out := TableLayout{ColumnWidths: make([]float64, n)}
	for i := range out.ColumnWidths {
		out.ColumnWidths[i] = colW
	}
	if t.Title != "" {
		out.Title = Wrap(m, t.Title, th.Style(StyleTableTitle), width)
	}
	out.Header = measureRow(m, t.Headers, th.Style(StyleTableHeader), colW)
	out.Header.Header = true
	for _, row := range t.Rows {
		out.Rows = append(out.Rows, measureRow(m, row, th.Style(StyleTableCell), colW))
	}
	return out
}

func measureRow(m TextMeasurer, cells []string, style TextStyle, colW float64) TableRowLayout {
	row := TableRowLayout{Cells: make([][]TextLine, len(cells))}
	inner := colW - 2*CellPadding
	minH := LineHeight(m, style)
	contentH := minH
	for i, cell := range cells {
		lines := Wrap(m, cell, style, inner)
		row.Cells[i] = lines
		h := 0.0
		for _, l := range lines {
			h += l.Height
		}
		contentH = max(contentH, h)
	}
	row.Height = contentH + 2*CellPadding
	return row
}

// table 排版表格：标题 → 表头 → 数据行。数据行放不下时换页并在新页顶部重复表头。
// 表头只会放在至少还能容纳第一行数据的位置。
func (p *Paginator) table(cur Cursor, t content.Table) Cursor {
	tl := MeasureTable(p.m, p.theme, t)
	avail := p.theme.ContentBottom() - p.theme.ContentTop()
	if tl.Header.Height > avail {
		// 表头在任何一页都放不下，整张表以一行错误提示代替
		p.log.Warn("table header taller than page",
			"table", t.Title,
			"height", tl.Header.Height,
			"available", avail,
			"page", cur.Page,
		)
		return p.errorLine(cur, fmt.Sprintf("[Table error: header of %q is taller than a page]", t.Title))
	}

	cur = p.placeLines(cur, tl.Title, p.theme.Margin.Left)
	if len(tl.Title) > 0 {
		cur.Y += CellPadding
	}

	p.transition(PlacingTableRow, cur)
	first := 0.0
	if len(tl.Rows) > 0 {
		first = tl.Rows[0].Height
	}
	cur = p.ensure(cur, tl.Header.Height+first)
	cur = p.drawRow(cur, tl, tl.Header)

	rowsOnPage := 0
	for i, row := range tl.Rows {
		p.transition(PlacingTableRow, cur)
		if cur.Y+row.Height > p.theme.ContentBottom() && rowsOnPage > 0 {
			cur = p.pageBreak(cur)
			p.transition(PlacingTableRow, cur)
			cur = p.drawRow(cur, tl, tl.Header)
			rowsOnPage = 0
		}
		if cur.Y+row.Height > p.theme.ContentBottom() {
			p.log.Warn("table row taller than page",
				"table", t.Title,
				"row", i+1,
				"height", row.Height,
				"page", cur.Page,
			)
		}
		cur = p.drawRow(cur, tl, row)
		rowsOnPage++
	}
	return cur
}

func (p *Paginator) drawRow(cur Cursor, tl TableLayout, row TableRowLayout) Cursor {
	border := p.theme.Color(ColorBorder)
	x := p.theme.Margin.Left
	for i, lines := range row.Cells {
		w := tl.ColumnWidths[i]
		rect := Rect{
			X:           x,
			Y:           cur.Y,
			Width:       w,
			Height:      row.Height,
			StrokeColor: colorPtr(border),
			StrokeWidth: ruleWidth,
		}
		if row.Header {
			rect.FillColor = colorPtr(p.theme.Color(ColorHeaderFill))
		}
		p.sink.Rect(rect)
		y := cur.Y + CellPadding
		for _, line := range lines {
			p.drawLine(line, x+CellPadding, y)
			y += line.Height
		}
		x += w
	}
	cur.Y += row.Height
	return cur
}
