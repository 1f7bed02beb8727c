package shorelib

import (
	"testing"
	"time"
)

// 2×2象限场景：四个候选各覆盖一个采样点
func quadrantProblem() *coverageProblem {
	return &coverageProblem{
		nPoints: 4,
		covers:  [][]int{{0}, {1}, {2}, {3}},
		costs:   []float64{1, 1, 1, 1},
		target:  4,
	}
}

func TestGreedyQuadrants(t *testing.T) {
	p := quadrantProblem()
	picked, method, optimal := GreedySelector{}.Select(p)
	if method != MethodGreedy || optimal {
		t.Fatalf("unexpected method %s / optimal %v", method, optimal)
	}
	if len(picked) != 4 {
		t.Fatalf("expected 4 picked, got %d", len(picked))
	}
	if coveredCount(p, picked) != 4 {
		t.Fatal("quadrants not fully covered")
	}
}

func TestGreedyMonotonicCoverage(t *testing.T) {
	p := &coverageProblem{
		nPoints: 6,
		covers:  [][]int{{0, 1, 2}, {2, 3}, {3, 4, 5}, {0, 5}},
		costs:   []float64{1, 1, 1, 1},
		target:  6,
	}
	picked, _, _ := GreedySelector{}.Select(p)
	if len(picked) > len(p.covers) {
		t.Fatalf("picked %d of %d candidates", len(picked), len(p.covers))
	}
	prev := 0
	for i := range picked {
		n := coveredCount(p, picked[:i+1])
		if n < prev {
			t.Fatalf("coverage decreased: %d -> %d", prev, n)
		}
		prev = n
	}
	if prev < p.target {
		t.Fatalf("covered %d, target %d", prev, p.target)
	}
}

func TestOptimalQuadrants(t *testing.T) {
	p := quadrantProblem()
	picked, method, optimal := NewOptimalSelector(DefaultCoverageOptions()).Select(p)
	if method != MethodOptimal || !optimal {
		t.Fatalf("unexpected method %s / optimal %v", method, optimal)
	}
	if len(picked) != 4 || coveredCount(p, picked) != 4 {
		t.Fatalf("expected exact cover of 4, got %v", picked)
	}
}

func TestOptimalBeatsGreedy(t *testing.T) {
	// 贪心先吃便宜小景，精确求解则识别单景全覆盖更优
	p := &coverageProblem{
		nPoints: 4,
		covers:  [][]int{{0}, {1}, {0, 1, 2, 3}},
		costs:   []float64{0.05, 0.05, 1},
		target:  4,
	}
	greedyPicked, _, _ := GreedySelector{}.Select(p)
	if len(greedyPicked) != 3 {
		t.Fatalf("expected greedy to pick 3, got %v", greedyPicked)
	}
	picked, method, optimal := NewOptimalSelector(DefaultCoverageOptions()).Select(p)
	if method != MethodOptimal || !optimal {
		t.Fatalf("unexpected method %s / optimal %v", method, optimal)
	}
	if len(picked) != 1 || picked[0] != 2 {
		t.Fatalf("expected [2], got %v", picked)
	}
}

func TestOptimalPartialTarget(t *testing.T) {
	p := &coverageProblem{
		nPoints: 4,
		covers:  [][]int{{0, 1}, {2}, {3}},
		costs:   []float64{0.2, 0.2, 0.2},
		target:  3,
	}
	picked, _, optimal := NewOptimalSelector(DefaultCoverageOptions()).Select(p)
	if !optimal {
		t.Fatal("small instance should be solved to optimality")
	}
	if len(picked) != 2 || coveredCount(p, picked) < 3 {
		t.Fatalf("expected 2 scenes covering 3 points, got %v", picked)
	}
}

func TestOptimalTimeoutFallsBackToGreedy(t *testing.T) {
	p := quadrantProblem()
	sel := &OptimalSelector{Timeout: -time.Second}
	picked, method, optimal := sel.Select(p)
	if method != MethodOptimalFallbackGreedy || optimal {
		t.Fatalf("unexpected method %s / optimal %v", method, optimal)
	}
	if coveredCount(p, picked) != 4 {
		t.Fatal("fallback greedy did not cover the quadrants")
	}
}
