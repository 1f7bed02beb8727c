package shorelib

import (
	"math"
	"time"

	"github.com/wgdzlh/shorelib/log"

	"go.uber.org/zap"
)

// 覆盖优化问题：采样点全集、各候选景覆盖的点集与成本、最少须覆盖点数
type coverageProblem struct {
	nPoints int
	covers  [][]int
	costs   []float64
	target  int
}

// CoverageSelector 从候选景中挑选覆盖AOI采样点的子集。
// 返回选中候选的下标、所用方法标识，以及结果是否被证明最优
type CoverageSelector interface {
	Select(p *coverageProblem) (picked []int, method string, optimal bool)
}

// 综合云量与质量分的单景成本，floor避免零成本候选吞掉贪心比值
func candidateCost(c SceneCandidate, o CoverageOptions) float64 {
	cost := o.CloudWeight*c.CloudCover + o.QualityWeight*(1-c.QualityScore)
	return math.Max(cost, MinCostFloor)
}

// 在多边形包围盒上铺设间距为spacing的点阵（半间距偏移），保留落在多边形内的点
func sampleGrid(polys MultiPolyCoords, spacing float64) (pts []([2]float64)) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, poly := range polys {
		for _, ring := range poly {
			for _, p := range ring {
				minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
				minY, maxY = math.Min(minY, p[1]), math.Max(maxY, p[1])
			}
		}
	}
	if minX > maxX {
		return
	}
	for y := minY + spacing/2; y < maxY; y += spacing {
		for x := minX + spacing/2; x < maxX; x += spacing {
			p := [2]float64{x, y}
			if pointInPolys(p, polys) {
				pts = append(pts, p)
			}
		}
	}
	return
}

// 各候选景覆盖的采样点下标（先过包围盒再做多边形判定）
func coverageSets(pts [][2]float64, footprints []MultiPolyCoords) [][]int {
	covers := make([][]int, len(footprints))
	for i, fp := range footprints {
		fMinX, fMinY := math.Inf(1), math.Inf(1)
		fMaxX, fMaxY := math.Inf(-1), math.Inf(-1)
		for _, poly := range fp {
			for _, ring := range poly {
				for _, p := range ring {
					fMinX, fMaxX = math.Min(fMinX, p[0]), math.Max(fMaxX, p[0])
					fMinY, fMaxY = math.Min(fMinY, p[1]), math.Max(fMaxY, p[1])
				}
			}
		}
		for j, p := range pts {
			if p[0] < fMinX || p[0] > fMaxX || p[1] < fMinY || p[1] > fMaxY {
				continue
			}
			if pointInPolys(p, fp) {
				covers[i] = append(covers[i], j)
			}
		}
	}
	return covers
}

func coveredCount(p *coverageProblem, picked []int) int {
	covered := make([]bool, p.nPoints)
	n := 0
	for _, i := range picked {
		for _, idx := range p.covers[i] {
			if !covered[idx] {
				covered[idx] = true
				n++
			}
		}
	}
	return n
}

// SelectScenes 按几何集合覆盖从候选景中选出覆盖AOI的最小代价子集。
// AOI为4326坐标的GeoJSON几何，候选景footprint可为GeoJSON或WKT（同为4326），
// 采样在AOI中心所在的UTM带内以米为单位进行。
// 覆盖目标超过候选并集可达上限时自动压到上限
func (g *GdalToolbox) SelectScenes(aoiGeoJson AnyJson, cands []SceneCandidate,
	sel CoverageSelector, opts CoverageOptions) (res SelectionResult, err error) {
	if err = opts.validate(); err != nil {
		return
	}
	if len(cands) == 0 {
		err = ErrNoCandidates
		return
	}
	aoiGeo, err := g.parseGeoJSON(aoiGeoJson, UNIVERSAL_SRID)
	if err != nil {
		return
	}
	defer aoiGeo.Destroy()
	env := aoiGeo.Envelope()
	srid := utmSridOf((env.MinX()+env.MaxX())/2, (env.MinY()+env.MaxY())/2)
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	if err = aoiGeo.TransformTo(ref); err != nil {
		log.Error(g.logTag+"aoi transform for sampling failed", zap.Error(err))
		return
	}
	polys, err := geoPolyRings(aoiGeo)
	if err != nil {
		return
	}
	spacing := opts.gridSpacing(aoiGeo.Area())
	pts := sampleGrid(polys, spacing)
	if len(pts) == 0 {
		err = ErrNoSamplePoints
		return
	}
	log.Info(g.logTag+"coverage grid sampled", zap.Int("points", len(pts)),
		zap.Float64("spacing", spacing), zap.Int("srid", srid))

	footprints := make([]MultiPolyCoords, len(cands))
	for i, c := range cands {
		fGeo, e := g.parseFootprint(c.Footprint, UNIVERSAL_SRID)
		if e != nil {
			err = e
			return
		}
		if err = fGeo.TransformTo(ref); err != nil {
			fGeo.Destroy()
			log.Error(g.logTag+"footprint transform failed", zap.String("id", c.Id), zap.Error(err))
			return
		}
		if footprints[i], err = geoPolyRings(fGeo); err != nil {
			fGeo.Destroy()
			return
		}
		fGeo.Destroy()
	}

	prob := &coverageProblem{
		nPoints: len(pts),
		covers:  coverageSets(pts, footprints),
		costs:   make([]float64, len(cands)),
		target:  int(math.Ceil(opts.MinCoverageFraction * float64(len(pts)))),
	}
	for i, c := range cands {
		prob.costs[i] = candidateCost(c, opts)
	}
	if maxCover := coveredCount(prob, allIndices(len(cands))); maxCover < prob.target {
		log.Warn(g.logTag+"candidate union cannot reach coverage target",
			zap.Int("target", prob.target), zap.Int("achievable", maxCover))
		prob.target = maxCover
	}

	start := time.Now()
	picked, method, optimal := sel.Select(prob)
	res = SelectionResult{
		SelectedIds:      make([]string, len(picked)),
		CoverageFraction: float64(coveredCount(prob, picked)) / float64(prob.nPoints),
		Method:           method,
		Optimal:          optimal,
		SolverSeconds:    time.Since(start).Seconds(),
	}
	for i, idx := range picked {
		res.SelectedIds[i] = cands[idx].Id
	}
	log.Info(g.logTag+"scene selection done", zap.String("method", method),
		zap.Int("selected", len(picked)), zap.Float64("coverage", res.CoverageFraction),
		zap.Float64("seconds", res.SolverSeconds))
	return
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
