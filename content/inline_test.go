package content

import "testing"

func TestParseSpans(t *testing.T) {
	cases := []struct {
		in   string
		want []Span
	}{
		{"plain", []Span{{"plain", Plain}}},
		{"a **b** c", []Span{{"a ", Plain}, {"b", Bold}, {" c", Plain}}},
		{"*i* and **b**", []Span{{"i", Italic}, {" and ", Plain}, {"b", Bold}}},
		{"open *star", []Span{{"open *star", Plain}}},
		{"**x****y**", []Span{{"xy", Bold}}},
		{"**bold*", []Span{{"**bold*", Plain}}},
		{"x **y", []Span{{"x **y", Plain}}},
		{"", nil},
	}
	for _, tc := range cases {
		got := ParseSpans(tc.in)
		if len(got) != len(tc.want) {
			t.Fatalf("%q: 期望 %v，实际 %v", tc.in, tc.want, got)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("%q: 第 %d 段期望 %v，实际 %v", tc.in, i, tc.want[i], got[i])
			}
			if got[i].Text == "" {
				t.Fatalf("%q: 出现空 span", tc.in)
			}
		}
	}
}
