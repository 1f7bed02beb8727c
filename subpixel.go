package shorelib

import (
	"math"

	"github.com/wgdzlh/shorelib/log"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"
)

// 等值线顶点所在的栅格边（样点间连线），用于拼接时的精确配对
type gridEdge struct {
	x, y int
	vert bool
}

type msSegment struct {
	a, b gridEdge
}

// 在样点连线上做线性插值，得到等值点的像素坐标（像素中心约定）
func edgePoint(e gridEdge, data []float64, w int, level float64) [2]float64 {
	va := data[e.y*w+e.x]
	var vb float64
	if e.vert {
		vb = data[(e.y+1)*w+e.x]
	} else {
		vb = data[e.y*w+e.x+1]
	}
	t := 0.5
	if vb != va {
		t = (level - va) / (vb - va)
	}
	if e.vert {
		return [2]float64{float64(e.x) + 0.5, float64(e.y) + 0.5 + t}
	}
	return [2]float64{float64(e.x) + 0.5 + t, float64(e.y) + 0.5}
}

// Marching Squares 提取亚像素等值线（像素坐标）。含 NaN 的单元格跳过，
// 鞍点按单元格均值消歧，线段经栅格边配对拼成折线
func marchingSquares(band *Band, level float64) (lines []Ring) {
	w, h, data := band.Width, band.Height, band.Data
	var segs []msSegment
	for y := 0; y < h-1; y++ {
		for x := 0; x < w-1; x++ {
			v00 := data[y*w+x]
			v10 := data[y*w+x+1]
			v01 := data[(y+1)*w+x]
			v11 := data[(y+1)*w+x+1]
			if math.IsNaN(v00) || math.IsNaN(v10) || math.IsNaN(v01) || math.IsNaN(v11) {
				continue
			}
			code := 0
			if v00 > level {
				code |= 1
			}
			if v10 > level {
				code |= 2
			}
			if v01 > level {
				code |= 4
			}
			if v11 > level {
				code |= 8
			}
			top := gridEdge{x, y, false}
			bottom := gridEdge{x, y + 1, false}
			left := gridEdge{x, y, true}
			right := gridEdge{x + 1, y, true}
			switch code {
			case 0, 15:
			case 1, 14:
				segs = append(segs, msSegment{left, top})
			case 2, 13:
				segs = append(segs, msSegment{top, right})
			case 4, 11:
				segs = append(segs, msSegment{left, bottom})
			case 8, 7:
				segs = append(segs, msSegment{bottom, right})
			case 3, 12:
				segs = append(segs, msSegment{left, right})
			case 5, 10:
				segs = append(segs, msSegment{top, bottom})
			case 6, 9:
				// 鞍点：以四角均值定中心归属
				avgHigh := (v00+v10+v01+v11)/4 > level
				if (code == 9) == avgHigh {
					segs = append(segs, msSegment{top, right}, msSegment{left, bottom})
				} else {
					segs = append(segs, msSegment{left, top}, msSegment{bottom, right})
				}
			}
		}
	}
	if len(segs) == 0 {
		return
	}
	adj := map[gridEdge][]int{}
	for i, s := range segs {
		adj[s.a] = append(adj[s.a], i)
		adj[s.b] = append(adj[s.b], i)
	}
	used := make([]bool, len(segs))
	walk := func(start int, from gridEdge) Ring {
		ring := Ring{edgePoint(from, data, w, level)}
		cur, at := start, from
		for {
			used[cur] = true
			if segs[cur].a == at {
				at = segs[cur].b
			} else {
				at = segs[cur].a
			}
			ring = append(ring, edgePoint(at, data, w, level))
			next := -1
			for _, j := range adj[at] {
				if !used[j] {
					next = j
					break
				}
			}
			if next < 0 {
				return ring
			}
			cur = next
		}
	}
	// 先走开链（端点度为1），再收剩余闭环
	for i, s := range segs {
		if used[i] {
			continue
		}
		if len(adj[s.a]) == 1 {
			lines = append(lines, walk(i, s.a))
		} else if len(adj[s.b]) == 1 {
			lines = append(lines, walk(i, s.b))
		}
	}
	for i := range segs {
		if !used[i] {
			lines = append(lines, walk(i, segs[i].a))
		}
	}
	return
}

func pointSegDist(p, a, b [2]float64) float64 {
	abx, aby := b[0]-a[0], b[1]-a[1]
	apx, apy := p[0]-a[0], p[1]-a[1]
	den := abx*abx + aby*aby
	t := 0.0
	if den > 0 {
		t = (apx*abx + apy*aby) / den
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}
	dx, dy := p[0]-(a[0]+t*abx), p[1]-(a[1]+t*aby)
	return math.Hypot(dx, dy)
}

func pointLineDist(p [2]float64, line Ring) float64 {
	if len(line) == 1 {
		return math.Hypot(p[0]-line[0][0], p[1]-line[0][1])
	}
	min := math.Inf(1)
	for i := 1; i < len(line); i++ {
		if d := pointSegDist(p, line[i-1], line[i]); d < min {
			min = d
		}
	}
	return min
}

// 单向距离序列经 stats 取最大即为有向 Hausdorff 距离
func directedHausdorff(from, to Ring) float64 {
	dists := make([]float64, len(from))
	for i, p := range from {
		dists[i] = pointLineDist(p, to)
	}
	d, err := stats.Max(dists)
	if err != nil {
		return math.Inf(1)
	}
	return d
}

func hausdorffDist(a, b Ring) float64 {
	return math.Max(directedHausdorff(a, b), directedHausdorff(b, a))
}

func lineLength(line Ring) (sum float64) {
	for i := 1; i < len(line); i++ {
		sum += math.Hypot(line[i][0]-line[i-1][0], line[i][1]-line[i-1][1])
	}
	return
}

// 奇偶规则判断点是否落在（多）多边形内，含内环扣除
func pointInPolys(p [2]float64, polys MultiPolyCoords) bool {
	inside := false
	for _, poly := range polys {
		for _, ring := range poly {
			n := len(ring)
			for i, j := 0, n-1; i < n; j, i = i, i+1 {
				a, b := ring[j], ring[i]
				if (a[1] > p[1]) != (b[1] > p[1]) &&
					p[0] < a[0]+(b[0]-a[0])*(p[1]-a[1])/(b[1]-a[1]) {
					inside = !inside
				}
			}
		}
	}
	return inside
}

// 保留落在内缩多边形内的顶点序列。先按step加密线段再逐点判定，
// 避免共线折叠后的长直段被整段误删
func clipToInner(line Ring, inner MultiPolyCoords, step float64) (kept Ring) {
	push := func(p [2]float64) {
		if pointInPolys(p, inner) {
			kept = append(kept, p)
		}
	}
	for i, p := range line {
		if i > 0 && step > 0 {
			prev := line[i-1]
			dx, dy := p[0]-prev[0], p[1]-prev[1]
			if segLen := math.Hypot(dx, dy); segLen > step {
				n := int(segLen / step)
				for k := 1; k <= n; k++ {
					t := float64(k) / float64(n+1)
					push([2]float64{prev[0] + t*dx, prev[1] + t*dy})
				}
			}
		}
		push(p)
	}
	return
}

// InsetRectOf 按最小边长比例向内收缩包围盒，作为内缩缓冲失败时的兜底矩形
func InsetRectOf(minX, minY, maxX, maxY, pct float64) PolyCoords {
	d := math.Min(maxX-minX, maxY-minY) * pct
	x0, y0, x1, y1 := minX+d, minY+d, maxX-d, maxY-d
	return PolyCoords{Ring{
		{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0},
	}}
}

// RefineShorelines 以阈值等值线对粗提岸线做亚像素细化。
// 参与评分的粗线与候选等值线均先裁至内缩AOI多边形（剔除裁切边缘伪迹），
// 评分为 Hausdorff 距离加长度比罚项，候选须落在检索距离内。
// 无匹配或细化后点数不足时保留原始岸线，仅做内缩裁切。
// 贴近AOI边界的岸线裁切后可能为不闭合线串，由调用方自行容忍
func RefineShorelines(band *Band, level float64, shores []Shoreline, inner MultiPolyCoords, opts ExtractOptions) []Shoreline {
	step := math.Min(math.Abs(band.Transform[1]), math.Abs(band.Transform[5]))
	pixLines := marchingSquares(band, level)
	contours := make([]Ring, 0, len(pixLines))
	for _, pl := range pixLines {
		geo := make(Ring, 0, len(pl))
		for _, p := range pl {
			x, y := band.PixelToGeo(p[0], p[1])
			geo = append(geo, [2]float64{x, y})
		}
		if geo = clipToInner(geo, inner, step); len(geo) >= 2 {
			contours = append(contours, geo)
		}
	}
	log.Info("subpixel contours traced", zap.Int("inInner", len(contours)),
		zap.Float64("level", level))
	out := make([]Shoreline, 0, len(shores))
	refined := 0
	for si, s := range shores {
		coarse := clipToInner(s.Line, inner, step)
		if len(coarse) < 2 {
			log.Debug("shoreline fully outside inner buffer, dropped", zap.Int("shore", si))
			continue
		}
		coarseLen := lineLength(coarse)
		bestIdx, bestScore := -1, math.Inf(1)
		for ci, cand := range contours {
			gate := math.Inf(1)
			for _, p := range coarse {
				if d := pointLineDist(p, cand); d < gate {
					gate = d
				}
			}
			if gate > MatchSearchDistM {
				continue
			}
			ratio := math.Abs(lineLength(cand)-coarseLen) / math.Max(coarseLen, 1)
			score := hausdorffDist(coarse, cand) + 100*ratio
			if score < bestScore {
				bestScore = score
				bestIdx = ci
			}
		}
		if bestIdx >= 0 && bestScore <= opts.MatchScoreLimit {
			s.Line = contours[bestIdx]
			s.Refined = true
			refined++
		} else {
			log.Debug("keeping coarse shoreline", zap.Error(ErrNoContourMatch),
				zap.Int("shore", si), zap.Float64("bestScore", bestScore))
			s.Line = coarse
		}
		out = append(out, s)
	}
	log.Info("subpixel refinement done", zap.Int("refined", refined),
		zap.Int("total", len(out)))
	return out
}
