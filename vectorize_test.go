package shorelib

import (
	"errors"
	"testing"
)

// 单位像素的恒等变换波段，便于直接核对像素/地理坐标
func gridBand(w, h int) *Band {
	return &Band{
		Data:      make([]float64, w*h),
		Width:     w,
		Height:    h,
		Transform: [6]float64{0, 1, 0, 0, 0, 1},
	}
}

func TestVectorizeHalfWater(t *testing.T) {
	band := gridBand(10, 10)
	mask := make([]bool, 100)
	for y := 0; y < 10; y++ {
		for x := 0; x < 5; x++ {
			mask[y*10+x] = true
		}
	}
	shores, err := VectorizeMask(mask, band, ExtractOptions{MinSeaAreaM2: 10, MinIslandAreaM2: 20})
	if err != nil {
		t.Fatal(err)
	}
	if len(shores) != 1 {
		t.Fatalf("expected 1 shoreline, got %d", len(shores))
	}
	s := shores[0]
	if s.Kind != KindCoastline {
		t.Fatalf("expected coastline, got %s", s.Kind)
	}
	if s.AreaM2 != 50 {
		t.Fatalf("expected area 50, got %f", s.AreaM2)
	}
	if first, last := s.Line[0], s.Line[len(s.Line)-1]; first != last {
		t.Fatalf("exterior ring not closed: %v vs %v", first, last)
	}
	for _, p := range s.Line {
		if p[0] < 0 || p[0] > 5 || p[1] < 0 || p[1] > 10 {
			t.Fatalf("ring vertex %v outside water extent", p)
		}
	}
}

func TestVectorizeIslandInSea(t *testing.T) {
	band := gridBand(20, 20)
	mask := make([]bool, 400)
	for i := range mask {
		mask[i] = true
	}
	for y := 8; y < 11; y++ {
		for x := 8; x < 11; x++ {
			mask[y*20+x] = false
		}
	}
	shores, err := VectorizeMask(mask, band, ExtractOptions{MinSeaAreaM2: 10, MinIslandAreaM2: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(shores) != 2 {
		t.Fatalf("expected coastline + island, got %d shorelines", len(shores))
	}
	if shores[0].Kind != KindCoastline || shores[1].Kind != KindIsland {
		t.Fatalf("unexpected kinds: %s, %s", shores[0].Kind, shores[1].Kind)
	}
	if shores[1].AreaM2 != 9 {
		t.Fatalf("expected island area 9, got %f", shores[1].AreaM2)
	}
}

func TestVectorizeNoiseFiltered(t *testing.T) {
	// 独立小水塘低于岛屿面积阈值，应被当作噪声丢弃
	band := gridBand(20, 20)
	mask := make([]bool, 400)
	for y := 0; y < 20; y++ {
		for x := 0; x < 10; x++ {
			mask[y*20+x] = true
		}
	}
	mask[15*20+15] = true
	mask[15*20+16] = true
	shores, err := VectorizeMask(mask, band, ExtractOptions{MinSeaAreaM2: 10, MinIslandAreaM2: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(shores) != 1 {
		t.Fatalf("expected only the coastline, got %d shorelines", len(shores))
	}
	if shores[0].AreaM2 != 200 {
		t.Fatalf("expected area 200, got %f", shores[0].AreaM2)
	}
}

func TestVectorizeSeaTooSmall(t *testing.T) {
	band := gridBand(10, 10)
	mask := make([]bool, 100)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			mask[y*10+x] = true
		}
	}
	_, err := VectorizeMask(mask, band, ExtractOptions{MinSeaAreaM2: 10, MinIslandAreaM2: 5})
	if !errors.Is(err, ErrNoShoreline) {
		t.Fatalf("expected ErrNoShoreline, got %v", err)
	}
}

func TestVectorizeEmptyMask(t *testing.T) {
	band := gridBand(5, 5)
	_, err := VectorizeMask(make([]bool, 25), band, DefaultExtractOptions())
	if !errors.Is(err, ErrNoShoreline) {
		t.Fatalf("expected ErrNoShoreline, got %v", err)
	}
}
