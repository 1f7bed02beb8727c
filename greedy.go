package shorelib

import (
	"github.com/wgdzlh/shorelib/log"

	"go.uber.org/zap"
)

// GreedySelector 每轮选取"新增覆盖点数/成本"比值最大的候选，
// 直至达到覆盖目标或再无增益。确定性，复杂度O(n²·点数)
type GreedySelector struct{}

func (GreedySelector) Select(p *coverageProblem) (picked []int, method string, optimal bool) {
	method = MethodGreedy
	covered := make([]bool, p.nPoints)
	used := make([]bool, len(p.covers))
	nCovered := 0
	for nCovered < p.target {
		best, bestRatio := -1, 0.0
		for i := range p.covers {
			if used[i] {
				continue
			}
			gain := 0
			for _, idx := range p.covers[i] {
				if !covered[idx] {
					gain++
				}
			}
			if gain == 0 {
				continue
			}
			if ratio := float64(gain) / p.costs[i]; ratio > bestRatio {
				best, bestRatio = i, ratio
			}
		}
		if best < 0 {
			log.Warn("greedy selection exhausted before reaching target",
				zap.Int("covered", nCovered), zap.Int("target", p.target))
			break
		}
		used[best] = true
		picked = append(picked, best)
		for _, idx := range p.covers[best] {
			if !covered[idx] {
				covered[idx] = true
				nCovered++
			}
		}
	}
	return
}
