package shorelib

import (
	"math"
	"testing"
)

func TestMarchingSquaresVerticalContour(t *testing.T) {
	band := gridBand(4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if x < 2 {
				band.Data[y*4+x] = 10
			} else {
				band.Data[y*4+x] = 200
			}
		}
	}
	lines := marchingSquares(band, 105)
	if len(lines) != 1 {
		t.Fatalf("expected 1 contour, got %d", len(lines))
	}
	if len(lines[0]) != 4 {
		t.Fatalf("expected 4 vertices, got %d", len(lines[0]))
	}
	for _, p := range lines[0] {
		// 样点中心1.5与2.5之间的半程插值
		if math.Abs(p[0]-2.0) > 1e-9 {
			t.Fatalf("contour vertex x = %f, want 2.0", p[0])
		}
	}
}

func TestMarchingSquaresSkipsNaN(t *testing.T) {
	band := gridBand(3, 3)
	for i := range band.Data {
		band.Data[i] = 10
	}
	band.Data[4] = math.NaN()
	if lines := marchingSquares(band, 105); len(lines) != 0 {
		t.Fatalf("expected no contours, got %d", len(lines))
	}
}

func TestHausdorffDist(t *testing.T) {
	a := Ring{{0, 0}, {0, 10}}
	b := Ring{{3, 0}, {3, 10}}
	if d := hausdorffDist(a, b); math.Abs(d-3) > 1e-9 {
		t.Fatalf("expected 3, got %f", d)
	}
}

func TestPointInPolysWithHole(t *testing.T) {
	polys := MultiPolyCoords{{
		Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		Ring{{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}},
	}}
	if !pointInPolys([2]float64{2, 2}, polys) {
		t.Fatal("point in shell reported outside")
	}
	if pointInPolys([2]float64{5, 5}, polys) {
		t.Fatal("point in hole reported inside")
	}
	if pointInPolys([2]float64{20, 5}, polys) {
		t.Fatal("point beyond shell reported inside")
	}
}

func TestRefineKeepsCoarseWithoutMatch(t *testing.T) {
	// 无任何等值线穿越的均匀影像：细化应原样保留粗岸线
	band := gridBand(4, 4)
	for i := range band.Data {
		band.Data[i] = 10
	}
	shores := []Shoreline{{
		Kind:   KindCoastline,
		AreaM2: 25,
		Line:   Line{{1, 1}, {3, 1}, {3, 3}, {1, 3}, {1, 1}},
	}}
	inner := MultiPolyCoords{InsetRectOf(0, 0, 4, 4, 0.01)}
	out := RefineShorelines(band, 105, shores, inner, DefaultExtractOptions())
	if len(out) != 1 {
		t.Fatalf("expected 1 shoreline, got %d", len(out))
	}
	if out[0].Refined {
		t.Fatal("shoreline marked refined without any contour")
	}
	for _, p := range out[0].Line {
		if !pointInPolys(p, inner) {
			t.Fatalf("kept vertex %v outside inner buffer", p)
		}
	}
}

// 构造半水半陆4x4波段，等值线位于x=2
func halfSplitBand() *Band {
	band := gridBand(4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if x < 2 {
				band.Data[y*4+x] = 10
			} else {
				band.Data[y*4+x] = 200
			}
		}
	}
	return band
}

func TestRefineRejectsOverLimitMatch(t *testing.T) {
	// 等值线存在且落在检索距离内，但评分超限：应保留粗岸线
	band := halfSplitBand()
	shores := []Shoreline{{
		Kind:   KindCoastline,
		AreaM2: 8,
		Line:   Line{{2.2, 0.5}, {2.2, 3.5}},
	}}
	inner := MultiPolyCoords{InsetRectOf(0, 0, 4, 4, 0.01)}
	opts := DefaultExtractOptions()
	opts.MatchScoreLimit = 1e-6
	out := RefineShorelines(band, 105, shores, inner, opts)
	if len(out) != 1 {
		t.Fatalf("expected 1 shoreline, got %d", len(out))
	}
	if out[0].Refined {
		t.Fatal("shoreline refined despite score over limit")
	}
	for _, p := range out[0].Line {
		if math.Abs(p[0]-2.2) > 1e-9 {
			t.Fatalf("kept vertex x = %f, want coarse 2.2", p[0])
		}
	}
}

func TestRefineNeverWorseThanCoarse(t *testing.T) {
	// 细化后的岸线贴近真实边界的程度不应劣于粗岸线
	band := halfSplitBand()
	coarse := Line{{2.2, 0.5}, {2.2, 3.5}}
	shores := []Shoreline{{Kind: KindCoastline, AreaM2: 8, Line: coarse}}
	inner := MultiPolyCoords{InsetRectOf(0, 0, 4, 4, 0.01)}
	out := RefineShorelines(band, 105, shores, inner, DefaultExtractOptions())
	if len(out) != 1 || !out[0].Refined {
		t.Fatal("expected refined shoreline")
	}
	truth := Ring{{2, 0.5}, {2, 3.5}}
	dRefined := hausdorffDist(out[0].Line, truth)
	dCoarse := hausdorffDist(coarse, truth)
	if dRefined > dCoarse {
		t.Fatalf("refined dist %f worse than coarse %f", dRefined, dCoarse)
	}
	if dRefined > 1e-9 {
		t.Fatalf("refined line off true boundary by %f", dRefined)
	}
}

func TestInsetRectOf(t *testing.T) {
	rect := InsetRectOf(0, 0, 100, 50, 0.02)
	ring := rect[0]
	if len(ring) != 5 {
		t.Fatalf("expected closed rectangle, got %d vertices", len(ring))
	}
	if ring[0][0] != 1 || ring[0][1] != 1 || ring[2][0] != 99 || ring[2][1] != 49 {
		t.Fatalf("unexpected inset corners: %v", ring)
	}
}
