package shorelib

import (
	"math"
	"reflect"
	"testing"
)

// 单位正方形AOI内的100×100半水半陆影像（左半值10为水，右半值200为陆）
func halfWaterBand() *Band {
	band := &Band{
		Data:      make([]float64, 100*100),
		Width:     100,
		Height:    100,
		Nodata:    -9999,
		Transform: [6]float64{0, 0.01, 0, 1, 0, -0.01},
		Srid:      UNIVERSAL_SRID,
	}
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if x < 50 {
				band.Data[y*100+x] = 10
			} else {
				band.Data[y*100+x] = 200
			}
		}
	}
	return band
}

func scenarioOptions() ExtractOptions {
	opts := DefaultExtractOptions()
	// 单位正方形场景下的面积以平方度计，调低阈值以适配
	opts.MinSeaAreaM2 = 0.1
	opts.MinIslandAreaM2 = 0.2
	return opts
}

func TestExtractHalfWaterScenario(t *testing.T) {
	shores, threshold, err := ExtractFromBand(halfWaterBand(), scenarioOptions())
	if err != nil {
		t.Fatal(err)
	}
	if threshold <= 10 || threshold >= 200 {
		t.Fatalf("threshold %f out of range", threshold)
	}
	if len(shores) != 1 {
		t.Fatalf("expected exactly one shoreline, got %d", len(shores))
	}
	s := shores[0]
	if s.Kind != KindCoastline {
		t.Fatalf("expected coastline, got %s", s.Kind)
	}
	if len(s.Line) < 2 {
		t.Fatalf("degenerate shoreline: %d vertices", len(s.Line))
	}
	for _, p := range s.Line {
		if math.Abs(p[0]-0.5) > 0.05 {
			t.Fatalf("shoreline vertex x = %f, want ~0.5", p[0])
		}
	}
}

func TestExtractIdempotence(t *testing.T) {
	first, th1, err := ExtractFromBand(halfWaterBand(), scenarioOptions())
	if err != nil {
		t.Fatal(err)
	}
	second, th2, err := ExtractFromBand(halfWaterBand(), scenarioOptions())
	if err != nil {
		t.Fatal(err)
	}
	if th1 != th2 {
		t.Fatalf("thresholds differ: %f vs %f", th1, th2)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("repeated extraction produced different geometries")
	}
}

func TestExtractAllNodata(t *testing.T) {
	band := &Band{
		Data:      make([]float64, 16),
		Width:     4,
		Height:    4,
		Transform: [6]float64{0, 1, 0, 0, 0, 1},
	}
	nan := math.NaN()
	for i := range band.Data {
		band.Data[i] = nan
	}
	if _, _, err := ExtractFromBand(band, DefaultExtractOptions()); err == nil {
		t.Fatal("expected typed failure on all-nodata band")
	}
}
