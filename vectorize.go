package shorelib

import (
	"math"

	"github.com/wgdzlh/shorelib/log"

	"go.uber.org/zap"
)

// 像素边界有向边（水域在行进方向左侧）
type maskEdge struct {
	x0, y0, x1, y1 int
}

// 4连通域标记，返回标签图（0为非水）与连通域数量
func labelComponents(mask []bool, w, h int) (labels []int32, count int) {
	labels = make([]int32, len(mask))
	queue := make([]int, 0, 256)
	for i := range mask {
		if !mask[i] || labels[i] != 0 {
			continue
		}
		count++
		id := int32(count)
		labels[i] = id
		queue = append(queue[:0], i)
		for len(queue) > 0 {
			cur := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := cur%w, cur/w
			if x > 0 && mask[cur-1] && labels[cur-1] == 0 {
				labels[cur-1] = id
				queue = append(queue, cur-1)
			}
			if x < w-1 && mask[cur+1] && labels[cur+1] == 0 {
				labels[cur+1] = id
				queue = append(queue, cur+1)
			}
			if y > 0 && mask[cur-w] && labels[cur-w] == 0 {
				labels[cur-w] = id
				queue = append(queue, cur-w)
			}
			if y < h-1 && mask[cur+w] && labels[cur+w] == 0 {
				labels[cur+w] = id
				queue = append(queue, cur+w)
			}
		}
	}
	return
}

// 收集各连通域的边界边：与非同标签像素相邻的单元格边
func collectEdges(labels []int32, w, h int) map[int32][]maskEdge {
	edges := map[int32][]maskEdge{}
	same := func(x, y int, id int32) bool {
		return x >= 0 && x < w && y >= 0 && y < h && labels[y*w+x] == id
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			id := labels[y*w+x]
			if id == 0 {
				continue
			}
			if !same(x, y-1, id) {
				edges[id] = append(edges[id], maskEdge{x, y, x + 1, y})
			}
			if !same(x+1, y, id) {
				edges[id] = append(edges[id], maskEdge{x + 1, y, x + 1, y + 1})
			}
			if !same(x, y+1, id) {
				edges[id] = append(edges[id], maskEdge{x + 1, y + 1, x, y + 1})
			}
			if !same(x-1, y, id) {
				edges[id] = append(edges[id], maskEdge{x, y + 1, x, y})
			}
		}
	}
	return edges
}

// 将边界边拼接为闭环（像素坐标，共线点折叠）。
// 对角接触处同一顶点有两条出边，取相对入向转角最左的一条，保持4连通分离。
func stitchRings(edges []maskEdge, w int) (rings []Ring) {
	vw := w + 1
	byStart := map[int][]int{}
	for i, e := range edges {
		k := e.y0*vw + e.x0
		byStart[k] = append(byStart[k], i)
	}
	used := make([]bool, len(edges))
	for start := range edges {
		if used[start] {
			continue
		}
		ring := Ring{}
		push := func(x, y float64) {
			n := len(ring)
			if n >= 2 {
				a, b := ring[n-2], ring[n-1]
				if (b[0]-a[0])*(y-b[1])-(b[1]-a[1])*(x-b[0]) == 0 {
					ring = ring[:n-1]
				}
			}
			ring = append(ring, [2]float64{x, y})
		}
		cur := start
		used[start] = true
		push(float64(edges[start].x0), float64(edges[start].y0))
		for {
			e := edges[cur]
			push(float64(e.x1), float64(e.y1))
			dx, dy := e.x1-e.x0, e.y1-e.y0
			next, bestCross := -1, math.MinInt32
			for _, cand := range byStart[e.y1*vw+e.x1] {
				if used[cand] {
					continue
				}
				c := edges[cand]
				cross := dx*(c.y1-c.y0) - dy*(c.x1-c.x0)
				if cross > bestCross {
					bestCross = cross
					next = cand
				}
			}
			if next < 0 {
				break
			}
			used[next] = true
			cur = next
		}
		if len(ring) >= 4 {
			rings = append(rings, ring)
		}
	}
	return
}

// 鞋带公式（绝对面积，地理单位），参照外环减内环得净面积须由调用方处理
func shoelace(pts Ring) float64 {
	if len(pts) == 0 {
		return 0
	}
	sum := 0.0
	p0 := pts[len(pts)-1]
	for _, p1 := range pts {
		sum += p0[1]*p1[0] - p0[0]*p1[1]
		p0 = p1
	}
	return math.Abs(sum / 2)
}

// 有符号像素面积：正为外环（水域左手缠绕），负为内环
func signedPixelArea(pts Ring) float64 {
	if len(pts) == 0 {
		return 0
	}
	sum := 0.0
	p0 := pts[len(pts)-1]
	for _, p1 := range pts {
		sum += p0[0]*p1[1] - p1[0]*p0[1]
		p0 = p1
	}
	return sum / 2
}

// 水体矢量化结果中的单个多边形
type waterPoly struct {
	exterior Ring    // 地理坐标
	holes    []Ring  // 地理坐标
	areaM2   float64 // 外环面积
}

// 将水体掩膜矢量化为多边形（4连通，像素边沿），并按面积阈值分类岸线：
// 最大水体达标为海，外环记为海岸线；海中岛屿及达标的独立水体边界记为岛屿
func VectorizeMask(mask []bool, band *Band, opts ExtractOptions) (shores []Shoreline, err error) {
	labels, count := labelComponents(mask, band.Width, band.Height)
	if count == 0 {
		log.Warn("vectorization found no water polygons")
		err = ErrNoShoreline
		return
	}
	edgeMap := collectEdges(labels, band.Width, band.Height)
	polys := make([]waterPoly, 0, count)
	for id := int32(1); id <= int32(count); id++ {
		rings := stitchRings(edgeMap[id], band.Width)
		var poly waterPoly
		for _, r := range rings {
			signed := signedPixelArea(r)
			geoRing := make(Ring, len(r))
			for i, p := range r {
				x, y := band.PixelToGeo(p[0], p[1])
				geoRing[i] = [2]float64{x, y}
			}
			if signed > 0 {
				poly.exterior = geoRing
				poly.areaM2 = shoelace(geoRing)
			} else {
				poly.holes = append(poly.holes, geoRing)
			}
		}
		if poly.exterior != nil {
			polys = append(polys, poly)
		}
	}
	log.Info("vectorized water polygons", zap.Int("count", len(polys)))

	seaIdx, maxArea := -1, 0.0
	for i := range polys {
		if polys[i].areaM2 > maxArea {
			maxArea = polys[i].areaM2
			seaIdx = i
		}
	}
	if seaIdx < 0 || maxArea < opts.MinSeaAreaM2 {
		log.Warn("largest water body below sea threshold",
			zap.Float64("maxAreaM2", maxArea), zap.Float64("minSeaAreaM2", opts.MinSeaAreaM2))
		err = ErrNoShoreline
		return
	}
	sea := &polys[seaIdx]
	shores = append(shores, Shoreline{
		Kind:   KindCoastline,
		AreaM2: sea.areaM2,
		Line:   Line(sea.exterior),
	})
	kept, total := 0, len(sea.holes)
	for _, hole := range sea.holes {
		if a := shoelace(hole); a >= opts.MinIslandAreaM2 {
			shores = append(shores, Shoreline{Kind: KindIsland, AreaM2: a, Line: Line(hole)})
			kept++
		}
	}
	// 独立于海域的水体（如潟湖）边界达标的同样按岛屿边界保留
	for i := range polys {
		if i == seaIdx {
			continue
		}
		total++
		if polys[i].areaM2 >= opts.MinIslandAreaM2 {
			shores = append(shores, Shoreline{
				Kind:   KindIsland,
				AreaM2: polys[i].areaM2,
				Line:   Line(polys[i].exterior),
			})
			kept++
		}
	}
	log.Info("island filtering done", zap.Int("candidates", total), zap.Int("kept", kept),
		zap.Float64("minIslandAreaM2", opts.MinIslandAreaM2))
	return
}
