package shorelib

import (
	"math"
	"regexp"

	"github.com/wgdzlh/shorelib/log"

	"go.uber.org/zap"
)

// Sentinel-2产品路径中的瓦片号，如T32TMK
var tileIdPattern = regexp.MustCompile(`T(\d{2})([A-Z]{3})`)

// 北半球纬度带字母集合（UTM瓦片号第一字母）
func isNorthernBand(band byte) bool {
	switch band {
	case 'N', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X':
		return true
	}
	return false
}

// 经纬度所在的UTM带srid（覆盖优化以米为单位采样时选取的工作坐标系）
func utmSridOf(lon, lat float64) int {
	zone := int(math.Floor((lon+180)/6)) + 1
	if zone < 1 {
		zone = 1
	} else if zone > 60 {
		zone = 60
	}
	if lat >= 0 {
		return EPSG_UTM_NORTH + zone
	}
	return EPSG_UTM_SOUTH + zone
}

// 从景文件路径/瓦片号推断UTM坐标系srid。
// 无法匹配瓦片号时返回ErrCrsUndetermined，由调用方回退到栅格内嵌坐标系。
func ResolveSceneSrid(scenePath string) (srid int, err error) {
	m := tileIdPattern.FindStringSubmatch(scenePath)
	if m == nil {
		log.Warn("no utm tile id in scene path", zap.String("path", scenePath))
		err = ErrCrsUndetermined
		return
	}
	zone := int(m[1][0]-'0')*10 + int(m[1][1]-'0')
	if zone < 1 || zone > 60 {
		err = ErrCrsUndetermined
		return
	}
	if isNorthernBand(m[2][0]) {
		srid = EPSG_UTM_NORTH + zone
	} else {
		srid = EPSG_UTM_SOUTH + zone
	}
	log.Info("resolved scene srid from tile id",
		zap.String("tile", m[0]), zap.Int("srid", srid))
	return
}
