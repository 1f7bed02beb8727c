package shorelib

import (
	"errors"
	"testing"
)

func TestResolveSceneSrid(t *testing.T) {
	srid, err := ResolveSceneSrid("S2A_MSIL2A_20230801T101031_N0509_R022_T32TMK_20230801T160000.SAFE")
	if err != nil {
		t.Fatal(err)
	}
	if srid != 32632 {
		t.Fatalf("expected 32632, got %d", srid)
	}
}

func TestResolveSceneSridSouthern(t *testing.T) {
	srid, err := ResolveSceneSrid("S2B_MSIL2A_20230105T142049_N0509_R010_T19FDV_20230105T181543.SAFE")
	if err != nil {
		t.Fatal(err)
	}
	if srid != 32719 {
		t.Fatalf("expected 32719, got %d", srid)
	}
}

func TestResolveSceneSridNoMatch(t *testing.T) {
	_, err := ResolveSceneSrid("random_scene_name.tif")
	if !errors.Is(err, ErrCrsUndetermined) {
		t.Fatalf("expected ErrCrsUndetermined, got %v", err)
	}
}

func TestUtmSridOf(t *testing.T) {
	if srid := utmSridOf(9.0, 45.0); srid != 32632 {
		t.Fatalf("expected 32632, got %d", srid)
	}
	if srid := utmSridOf(-69.0, -50.0); srid != 32719 {
		t.Fatalf("expected 32719, got %d", srid)
	}
}
