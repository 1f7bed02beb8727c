package shorelib

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/wgdzlh/shorelib/log"

	gdal "github.com/airbusgeo/godal"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const TMP_CLIP_TIF = "clip_%s.tif"

type sceneInfo struct {
	srid      int // 0表示栅格未内嵌坐标系
	nodata    float64
	hasNodata bool
	width     int
	height    int
}

// 探测景元数据：内嵌坐标系与nodata，不读像素
func (g *GdalToolbox) probeScene(tif string) (info sceneInfo, err error) {
	sds, err := gdal.Open(tif, gdal.RasterOnly())
	if err != nil {
		log.Error(g.logTag+"open tif failed", zap.String("tif", tif), zap.Error(err))
		err = ErrInvalidTif
		return
	}
	defer sds.Close()
	tifBands := sds.Bands()
	if len(tifBands) == 0 {
		err = ErrWrongTif
		return
	}
	st := tifBands[0].Structure()
	info.width = st.SizeX
	info.height = st.SizeY
	info.nodata, info.hasNodata = tifBands[0].NoData()
	if proj := sds.Projection(); proj != "" {
		if srid, e := g.sridOfProjection(proj); e == nil {
			info.srid = srid
		}
	}
	log.Info(g.logTag+"probed scene", zap.String("tif", tif),
		zap.Int("srid", info.srid), zap.Bool("hasNodata", info.hasNodata),
		zap.Int("width", info.width), zap.Int("height", info.height))
	return
}

// 按AOI几何剪切景影像（cutline为GeoJSON，坐标系由GDAL自行识别，缺省4326），
// 读取首波段为内存Band，nodata统一置为NaN
func (g *GdalToolbox) clipSceneToCutline(tif string, cutline AnyJson, nodata float64, hasNodata bool, extra ...string) (band *Band, err error) {
	tmpGeoJson := filepath.Join(g.tmpDir, fmt.Sprintf(TMP_GEOJSON, uuid.NewString()))
	if err = os.WriteFile(tmpGeoJson, cutline, os.ModePerm); err != nil {
		return
	}
	defer os.Remove(tmpGeoJson)
	nd := 0.0
	if hasNodata {
		nd = nodata
	}
	opts := append([]string{
		"-cutline", tmpGeoJson, "-crop_to_cutline", "-overwrite",
		"-dstnodata", fmt.Sprintf("%g", nd),
	}, extra...)
	return g.warpAndRead(tif, opts, nd)
}

// 按地理范围剪切（重投影降级路径：仅裁剪窗口，不使用cutline）
func (g *GdalToolbox) clipSceneToExtent(tif string, minX, minY, maxX, maxY, nodata float64, hasNodata bool, extra ...string) (band *Band, err error) {
	nd := 0.0
	if hasNodata {
		nd = nodata
	}
	opts := append([]string{
		"-te", fmt.Sprintf("%f", minX), fmt.Sprintf("%f", minY),
		fmt.Sprintf("%f", maxX), fmt.Sprintf("%f", maxY),
		"-overwrite", "-dstnodata", fmt.Sprintf("%g", nd),
	}, extra...)
	return g.warpAndRead(tif, opts, nd)
}

func (g *GdalToolbox) warpAndRead(tif string, opts []string, nodata float64) (band *Band, err error) {
	sds, err := gdal.Open(tif, gdal.RasterOnly())
	if err != nil {
		log.Error(g.logTag+"open tif failed", zap.Error(err))
		err = ErrInvalidTif
		return
	}
	defer sds.Close()
	out := filepath.Join(g.tmpDir, fmt.Sprintf(TMP_CLIP_TIF, uuid.NewString()))
	ods, err := gdal.Warp(out, []*gdal.Dataset{sds}, opts)
	if err != nil {
		log.Error(g.logTag+"failed to clip raster", zap.Error(err))
		err = ErrEmptyTif
		return
	}
	defer os.Remove(out)
	defer ods.Close()
	if band, err = g.readBand(ods, nodata); err != nil {
		return
	}
	if proj := ods.Projection(); proj != "" {
		if srid, e := g.sridOfProjection(proj); e == nil {
			band.Srid = srid
		}
	}
	return
}

// 读取数据集首波段为float64缓冲，nodata替换为NaN
func (g *GdalToolbox) readBand(sds *gdal.Dataset, nodata float64) (band *Band, err error) {
	tifBands := sds.Bands()
	if len(tifBands) == 0 {
		err = ErrWrongTif
		return
	}
	b := tifBands[0]
	st := b.Structure()
	x, y := st.SizeX, st.SizeY
	log.Info(g.logTag+"read tif band", zap.Int("dt", int(st.DataType)),
		zap.Int("width", x), zap.Int("height", y))
	buf := make([]float64, x*y)
	if err = b.IO(gdal.IORead, 0, 0, buf, x, y); err != nil {
		log.Error(g.logTag+"read tif band failed", zap.Error(err))
		err = ErrTifReadFailed
		return
	}
	gt, err := sds.GeoTransform()
	if err != nil {
		log.Error(g.logTag+"no geotransform", zap.Error(err))
		err = ErrWrongTif
		return
	}
	nan := math.NaN()
	for i, v := range buf {
		if v == nodata {
			buf[i] = nan
		}
	}
	band = &Band{
		Data:      buf,
		Width:     x,
		Height:    y,
		Nodata:    nodata,
		Transform: gt,
	}
	return
}
