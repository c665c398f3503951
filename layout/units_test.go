package layout

import (
	"math"
	"testing"
)

// TestPtMmRoundTrip 验证 pt↔mm 换算的往返精度（允许极小的浮点误差）。
func TestPtMmRoundTrip(t *testing.T) {
	samples := []float64{0, 0.001, 1, 12, 14.4, 72, 96, 144, 1000}
	for _, pt := range samples {
		mm := pt * PtToMm
		back := mm * MmToPt
		if diff := math.Abs(back - pt); diff > 1e-9 {
			t.Fatalf("pt→mm→pt 往返误差过大: in=%gpt mm=%g back=%g diff=%g", pt, mm, back, diff)
		}
	}
}

// TestLengthConversions 覆盖 Length 在常见单位上的转换。
func TestLengthConversions(t *testing.T) {
	cases := []struct {
		in     Length
		wantMM float64
		wantPT float64
	}{
		{Length{Value: 1, Unit: UnitIN}, 25.4, 25.4 * MmToPt},
		{Length{Value: 2.54, Unit: UnitCM}, 25.4, 25.4 * MmToPt},
		{Length{Value: 12, Unit: UnitPT}, 12 * PtToMm, 12},
		{Length{Value: 10, Unit: UnitMM}, 10, 10 * MmToPt},
	}
	for _, tc := range cases {
		if got := tc.in.ToMM(); math.Abs(got-tc.wantMM) > 1e-9 {
			t.Fatalf("%s 转 mm 期望 %g，实际 %g", tc.in, tc.wantMM, got)
		}
		if got := tc.in.ToPT(); math.Abs(got-tc.wantPT) > 1e-9 {
			t.Fatalf("%s 转 pt 期望 %g，实际 %g", tc.in, tc.wantPT, got)
		}
	}
}

func TestParseLength(t *testing.T) {
	l, err := ParseLength("20mm", UnitPT)
	if err != nil || l.Unit != UnitMM || l.Value != 20 {
		t.Fatalf("解析 20mm 失败: %+v %v", l, err)
	}
	l, err = ParseLength("11", UnitPT)
	if err != nil || l.Unit != UnitPT || l.Value != 11 {
		t.Fatalf("无单位数值应使用 fallback 单位: %+v %v", l, err)
	}
	if _, err := ParseLength("wide", UnitPT); err == nil {
		t.Fatalf("非法长度应返回错误")
	}
}

// TestLineHeightPoints 验证行高：倍数乘以字形高度，绝对值直接换算。
func TestLineHeightPoints(t *testing.T) {
	extent := 10.0
	if got := (LineHeightSpec{}).Points(extent); math.Abs(got-12) > 1e-9 {
		t.Fatalf("缺省倍数应为 1.2，实际 %g", got)
	}
	if got := ParseLineHeight("1.5x").Points(extent); math.Abs(got-15) > 1e-9 {
		t.Fatalf("1.5x 行高错误: %g", got)
	}
	if got := ParseLineHeight("18pt").Points(extent); math.Abs(got-18) > 1e-9 {
		t.Fatalf("18pt 行高错误: %g", got)
	}
	if got := ParseLineHeight("6mm").Points(extent); math.Abs(got-6*MmToPt) > 1e-9 {
		t.Fatalf("6mm 行高错误: %g", got)
	}
	if got := ParseLineHeight("tall"); got.Kind != LineHeightFactor || got.Factor != LineHeightMultiplier {
		t.Fatalf("非法行高应回退到默认倍数: %+v", got)
	}
}
