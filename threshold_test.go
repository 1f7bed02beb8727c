package shorelib

import (
	"errors"
	"math"
	"testing"
)

func TestMinimumThresholdBimodal(t *testing.T) {
	samples := make([]float64, 0, 1000)
	for i := 0; i < 500; i++ {
		samples = append(samples, 10+float64(i%5))
		samples = append(samples, 200+float64(i%5))
	}
	threshold, err := MinimumThreshold(samples)
	if err != nil {
		t.Fatal(err)
	}
	if threshold <= 14 || threshold >= 200 {
		t.Fatalf("threshold %f not between clusters", threshold)
	}
}

func TestMinimumThresholdTwoValues(t *testing.T) {
	// 双值影像：直方图只有首末两个尖峰
	samples := make([]float64, 0, 200)
	for i := 0; i < 100; i++ {
		samples = append(samples, 10, 200)
	}
	threshold, err := MinimumThreshold(samples)
	if err != nil {
		t.Fatal(err)
	}
	if threshold <= 10 || threshold >= 200 {
		t.Fatalf("threshold %f out of range", threshold)
	}
}

func TestMinimumThresholdDegenerate(t *testing.T) {
	uniform := make([]float64, 100)
	for i := range uniform {
		uniform[i] = 42
	}
	if _, err := MinimumThreshold(uniform); !errors.Is(err, ErrThresholdFailure) {
		t.Fatalf("expected ErrThresholdFailure, got %v", err)
	}
}

func TestMinimumThresholdNoValidSamples(t *testing.T) {
	nan := math.NaN()
	samples := []float64{nan, nan, -5, 0}
	if _, err := MinimumThreshold(samples); !errors.Is(err, ErrEmptyTif) {
		t.Fatalf("expected ErrEmptyTif, got %v", err)
	}
}

func TestBuildWaterMask(t *testing.T) {
	band := &Band{Width: 4, Height: 2, Transform: [6]float64{0, 1, 0, 0, 0, 1}}
	band.Data = make([]float64, 8)
	for i := range band.Data {
		if i%4 < 2 {
			band.Data[i] = 10
		} else {
			band.Data[i] = 200
		}
	}
	mask, threshold, err := BuildWaterMask(band)
	if err != nil {
		t.Fatal(err)
	}
	t.Logf("threshold: %f", threshold)
	for i, m := range mask {
		if want := i%4 < 2; m != want {
			t.Fatalf("mask[%d] = %v, want %v", i, m, want)
		}
	}
}
