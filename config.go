package shorelib

import (
	"math"
	"time"
)

const (
	FILE_EXT_SHP    = ".shp"
	SHP_DRIVER_NAME = "ESRI Shapefile"
	UNIVERSAL_SRID  = 4326

	// Sentinel-2 UTM波段对应的EPSG前缀
	EPSG_UTM_NORTH = 32600
	EPSG_UTM_SOUTH = 32700

	RepairBufferSegs = 30
	InnerBufferSegs  = 12

	// 亚像素匹配时粗线缓冲搜索半径（米）
	MatchSearchDistM = 50.0

	ThresholdBins      = 256
	ThresholdMaxSmooth = 10000

	MinCostFloor       = 0.01
	CardinalityEpsilon = 1e-6

	TMP_GEOJSON = "aoi_%s.json"
)

// 岸线提取参数，零值无意义，应从DefaultExtractOptions出发修改
type ExtractOptions struct {
	MinSeaAreaM2     float64 // 最大水体面积达标才视作海域
	MinIslandAreaM2  float64 // 岛屿保留的最小面积
	BufferPercentage float64 // AOI内缩比例（相对包围盒短边）
	MatchScoreLimit  float64 // 等值线匹配接受的最大综合评分（+Inf为不限制）
}

func DefaultExtractOptions() ExtractOptions {
	return ExtractOptions{
		MinSeaAreaM2:     10000.0,
		MinIslandAreaM2:  50000.0,
		BufferPercentage: 0.02,
		MatchScoreLimit:  math.Inf(1),
	}
}

// 覆盖优化参数
type CoverageOptions struct {
	MinCoverageFraction float64       // 采样点覆盖率目标
	GridSpacingMeters   float64       // 采样网格间距，0为自动（sqrt(area)/100，限制在[50,200]）
	SolverTimeout       time.Duration // 精确求解的墙钟上限
	CloudWeight         float64       // 云量在成本中的权重
	QualityWeight       float64       // 质量分在成本中的权重
}

func DefaultCoverageOptions() CoverageOptions {
	return CoverageOptions{
		MinCoverageFraction: 0.99,
		GridSpacingMeters:   0,
		SolverTimeout:       300 * time.Second,
		CloudWeight:         0.3,
		QualityWeight:       0.7,
	}
}

func (o CoverageOptions) validate() error {
	if math.Abs(o.CloudWeight+o.QualityWeight-1.0) > 1e-9 {
		return ErrBadCostWeights
	}
	return nil
}

// 自动网格间距：sqrt(AOI面积)/100，夹在[50,200]米
func (o CoverageOptions) gridSpacing(aoiAreaM2 float64) float64 {
	if o.GridSpacingMeters > 0 {
		return o.GridSpacingMeters
	}
	return math.Max(50, math.Min(200, math.Sqrt(aoiAreaM2)/100))
}
