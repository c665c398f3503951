package layout

import (
	"strings"
	"testing"

	"github.com/ByLCY/quire/content"
)

func TestWrapNarrowWidth(t *testing.T) {
	m := fixedMeasurer{advance: 10}
	blocks := content.Parse("# Intro\n\nHello world", "Intro")
	if len(blocks) != 1 {
		t.Fatalf("期望 1 个块，实际 %d", len(blocks))
	}
	text := content.SpansText(blocks[0].(content.Paragraph).Spans)
	lines := Wrap(m, text, TextStyle{}, 60)
	if len(lines) != 2 || lines[0].Content != "Hello" || lines[1].Content != "world" {
		t.Fatalf("期望两行 Hello/world，实际 %+v", lines)
	}
	for _, l := range lines {
		if l.Height != 12 {
			t.Fatalf("行高应为 (2-(-8))×1.2=12，实际 %g", l.Height)
		}
		if l.Forced {
			t.Fatalf("普通换行不应标记为强制: %+v", l)
		}
	}
}

func TestWrapStrictlyUnderWidth(t *testing.T) {
	m := fixedMeasurer{advance: 10}
	// "ab cd" 宽 50，与 maxWidth 相等时必须换行
	lines := Wrap(m, "ab cd", TextStyle{}, 50)
	if len(lines) != 2 {
		t.Fatalf("宽度等于上限时应换行，实际 %+v", lines)
	}
}

func TestWrapHardBreak(t *testing.T) {
	m := fixedMeasurer{advance: 10}
	lines := Wrap(m, "abcdefghij xy", TextStyle{}, 35)
	want := []string{"abc", "def", "ghi", "j", "xy"}
	if len(lines) != len(want) {
		t.Fatalf("期望 %v，实际 %+v", want, lines)
	}
	for i, l := range lines {
		if l.Content != want[i] {
			t.Fatalf("第 %d 行期望 %q，实际 %q", i, want[i], l.Content)
		}
		if forced := i < 4; l.Forced != forced {
			t.Fatalf("第 %d 行 Forced 期望 %v，实际 %v", i, forced, l.Forced)
		}
	}
}

func TestWrapForwardProgress(t *testing.T) {
	m := stuckMeasurer{fixedMeasurer{advance: 100}}
	lines := Wrap(m, "héllo", TextStyle{}, 50)
	if len(lines) != 5 {
		t.Fatalf("断点为 0 时每行至少一个字符，期望 5 行，实际 %d", len(lines))
	}
	if lines[1].Content != "é" {
		t.Fatalf("强制断点必须落在字符边界: %q", lines[1].Content)
	}
}

// TestWrapProperties 对多组输入检查：非强制行宽度严格小于上限，强制行不超过上限且非空，
// 所有行拼接后与原文（空白归一化）一致。
func TestWrapProperties(t *testing.T) {
	m := fixedMeasurer{advance: 7}
	texts := []string{
		"The quick brown fox jumps over the lazy dog",
		"supercalifragilisticexpialidocious is long",
		"a  b   c    spaced   out",
		"x",
		"一二三四五六七八九十 中文 混排 text",
	}
	for _, text := range texts {
		for _, width := range []float64{15, 30, 64, 100, 1000} {
			lines := Wrap(m, text, TextStyle{}, width)
			var parts []string
			for _, l := range lines {
				w := m.Measure(l.Content, TextStyle{})
				if l.Content == "" {
					t.Fatalf("%q@%g: 出现空行", text, width)
				}
				if !l.Forced && w >= width {
					t.Fatalf("%q@%g: 行 %q 宽 %g 未严格小于上限", text, width, l.Content, w)
				}
				if l.Forced && w > width {
					t.Fatalf("%q@%g: 强制行 %q 宽 %g 超过上限", text, width, l.Content, w)
				}
				parts = append(parts, l.Content)
			}
			got := strings.ReplaceAll(strings.Join(parts, ""), " ", "")
			want := strings.ReplaceAll(text, " ", "")
			if got != want {
				t.Fatalf("%q@%g: 内容丢失，拼接得到 %q", text, width, got)
			}
		}
	}
}

func TestWrapSpansKeepsStyles(t *testing.T) {
	m := fixedMeasurer{advance: 10}
	bold := TextStyle{Size: 11, Font: FontResource{Name: "B", Style: "bold"}}
	plain := TextStyle{Size: 11}
	lines := WrapSpans(m, []StyledText{
		{Text: "plain ", Style: plain},
		{Text: "bold", Style: bold},
		{Text: "er tail", Style: plain},
	}, 1000)
	if len(lines) != 1 {
		t.Fatalf("期望 1 行，实际 %d", len(lines))
	}
	runs := lines[0].Runs
	if len(runs) != 3 || runs[0].Text != "plain " || runs[1].Text != "bold" || runs[2].Text != "er tail" {
		t.Fatalf("样式片段不正确: %+v", runs)
	}
	if runs[1].X != 60 || runs[2].X != 100 {
		t.Fatalf("片段偏移不正确: %+v", runs)
	}
	if lines[0].Content != "plain bolder tail" {
		t.Fatalf("行内容不正确: %q", lines[0].Content)
	}
}

func TestEllipsize(t *testing.T) {
	m := fixedMeasurer{advance: 10}
	if got := ellipsize(m, "short", TextStyle{}, 100); got != "short" {
		t.Fatalf("足够宽时不应截断: %q", got)
	}
	got := ellipsize(m, "a long heading", TextStyle{}, 60)
	if !strings.HasSuffix(got, "…") || m.Measure(got, TextStyle{}) > 60 {
		t.Fatalf("截断结果不正确: %q", got)
	}
}
