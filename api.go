package shorelib

import "encoding/json"

type AnyJson = json.RawMessage

// 环坐标序列（首尾闭合），与像素/地理坐标通用
type Ring = [][2]float64

// 多边形：第一个环为外环，其余为内环（洞）
type PolyCoords = []Ring

type MultiPolyCoords = []PolyCoords

// 折线顶点序列（可开可闭）
type Line = [][2]float64

type ShorelineKind string

const (
	KindCoastline ShorelineKind = "coastline"
	KindIsland    ShorelineKind = "island"
)

// 岸线要素：由矢量化产生，可能被亚像素细化替换（替换而非修改）
type Shoreline struct {
	Kind    ShorelineKind
	AreaM2  float64 // 来源水体/岛屿面积
	Line    Line    // 地理坐标顶点
	Refined bool
}

// 单波段栅格及其地理参照，读取后不可变
type Band struct {
	Data      []float64  // 行主序采样值，nodata已置为NaN
	Width     int
	Height    int
	Nodata    float64
	Transform [6]float64 // GDAL仿射参数 [x0, dx, rx, y0, ry, dy]
	Srid      int
}

// 像素坐标转地理坐标
func (b *Band) PixelToGeo(px, py float64) (x, y float64) {
	gt := &b.Transform
	x = gt[0] + px*gt[1] + py*gt[2]
	y = gt[3] + px*gt[4] + py*gt[5]
	return
}

// 候选景：覆盖优化的只读输入
type SceneCandidate struct {
	Id           string  `json:"id"`
	Footprint    AnyJson `json:"footprint"`     // GeoJSON geometry或WKT，EPSG:4326
	CloudCover   float64 `json:"cloud_cover"`   // [0,1]
	QualityScore float64 `json:"quality_score"` // [0,1]
}

const (
	MethodGreedy                = "greedy"
	MethodOptimal               = "optimal"
	MethodOptimalFallbackGreedy = "optimal_fallback_greedy"
)

// 选景结果
type SelectionResult struct {
	SelectedIds      []string `json:"selected_ids"`
	CoverageFraction float64  `json:"coverage_fraction"`
	Method           string   `json:"method"`
	Optimal          bool     `json:"optimal"`
	SolverSeconds    float64  `json:"solver_seconds"`
}
