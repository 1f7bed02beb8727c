package shorelib

import (
	"errors"
	"math"
	"time"

	"github.com/wgdzlh/shorelib/log"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// OptimalSelector 以0-1整数规划求最小代价覆盖：对候选取舍做分支定界，
// 每个节点用LP松弛（聚合覆盖约束）给出代价下界。墙钟超时即接受当前
// 最优可行解；限期内无可行解则透明退用贪心结果
type OptimalSelector struct {
	Timeout time.Duration
}

func NewOptimalSelector(opts CoverageOptions) *OptimalSelector {
	return &OptimalSelector{Timeout: opts.SolverTimeout}
}

type bnbState struct {
	p        *coverageProblem
	deadline time.Time
	timedOut bool
	nodes    int

	chosen   []int
	banned   []bool
	covered  []bool
	nCovered int
	cost     float64

	best     []int
	bestCost float64
}

// 聚合覆盖LP松弛：min Σc·x s.t. Σg·x ≥ r, 0 ≤ x ≤ 1。
// 化为标准形（盈余变量u、上界松弛w）交给单纯形法。
// 松弛忽略候选间的点重叠，故其最优值是真实代价的有效下界
func lpLowerBound(costs, gains []float64, r float64) float64 {
	n := len(costs)
	nv := 2*n + 1
	a := mat.NewDense(n+1, nv, nil)
	b := make([]float64, n+1)
	c := make([]float64, nv)
	for j := 0; j < n; j++ {
		a.Set(0, j, gains[j])
		a.Set(j+1, j, 1)
		a.Set(j+1, n+j, 1)
		b[j+1] = 1
		c[j] = costs[j]
	}
	a.Set(0, 2*n, -1)
	b[0] = r
	opt, _, err := lp.Simplex(c, a, b, 1e-10, nil)
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) {
			return math.Inf(1)
		}
		// 数值异常时不剪枝
		return 0
	}
	return opt
}

func (s *bnbState) objective(cost float64, picked int) float64 {
	// 代价相同的解偏好更少的景数
	return cost + CardinalityEpsilon*float64(picked)
}

func (s *bnbState) search() {
	if s.timedOut || time.Now().After(s.deadline) {
		s.timedOut = true
		return
	}
	s.nodes++
	if s.nCovered >= s.p.target {
		if obj := s.objective(s.cost, len(s.chosen)); obj < s.bestCost {
			s.bestCost = obj
			s.best = append(s.best[:0], s.chosen...)
		}
		return
	}
	// 自由候选的新增覆盖增益
	var free []int
	var gains, costs []float64
	sumGain := 0.0
	for i := range s.p.covers {
		if s.banned[i] {
			continue
		}
		gain := 0
		for _, idx := range s.p.covers[i] {
			if !s.covered[idx] {
				gain++
			}
		}
		if gain == 0 {
			continue
		}
		free = append(free, i)
		gains = append(gains, float64(gain))
		costs = append(costs, s.p.costs[i]+CardinalityEpsilon)
		sumGain += float64(gain)
	}
	need := float64(s.p.target - s.nCovered)
	if sumGain < need {
		return
	}
	base := s.objective(s.cost, len(s.chosen))
	if base+lpLowerBound(costs, gains, need) >= s.bestCost {
		return
	}
	// 按增益成本比选分支变量，"选入"分支优先，尽早得到可行解
	branch, bestRatio := -1, -1.0
	for k, i := range free {
		if ratio := gains[k] / costs[k]; ratio > bestRatio {
			branch, bestRatio = i, ratio
		}
	}
	var flipped []int
	for _, idx := range s.p.covers[branch] {
		if !s.covered[idx] {
			s.covered[idx] = true
			flipped = append(flipped, idx)
		}
	}
	s.chosen = append(s.chosen, branch)
	s.nCovered += len(flipped)
	s.cost += s.p.costs[branch]
	s.banned[branch] = true
	s.search()
	s.chosen = s.chosen[:len(s.chosen)-1]
	s.nCovered -= len(flipped)
	s.cost -= s.p.costs[branch]
	for _, idx := range flipped {
		s.covered[idx] = false
	}
	s.search()
	s.banned[branch] = false
}

func (s *OptimalSelector) Select(p *coverageProblem) (picked []int, method string, optimal bool) {
	st := &bnbState{
		p:        p,
		deadline: time.Now().Add(s.Timeout),
		banned:   make([]bool, len(p.covers)),
		covered:  make([]bool, p.nPoints),
		bestCost: math.Inf(1),
	}
	st.search()
	if st.best == nil {
		// 限期内未找到可行解，退用贪心并如实标注
		cause := ErrSolverInfeasible
		if st.timedOut {
			cause = ErrSolverTimeout
		}
		log.Warn("exact solver found no incumbent, falling back to greedy",
			zap.Error(cause), zap.Int("nodes", st.nodes))
		picked, _, _ = GreedySelector{}.Select(p)
		return picked, MethodOptimalFallbackGreedy, false
	}
	if st.timedOut {
		log.Warn("exact solver hit deadline, returning best incumbent",
			zap.Error(ErrSolverTimeout), zap.Int("nodes", st.nodes), zap.Float64("cost", st.bestCost))
	} else {
		log.Info("exact solver finished", zap.Int("nodes", st.nodes),
			zap.Float64("cost", st.bestCost), zap.Int("selected", len(st.best)))
	}
	return st.best, MethodOptimal, !st.timedOut
}
