package shorelib

import (
	"errors"
	"fmt"
	"math"

	"github.com/wgdzlh/shorelib/log"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

// 提取流程状态机，失败时记录原因供上层排查
type ExtractState string

const (
	StateInit          ExtractState = "init"
	StateCrsResolved   ExtractState = "crs_resolved"
	StateAoiLoaded     ExtractState = "aoi_loaded"
	StateRasterClipped ExtractState = "raster_clipped"
	StateMasked        ExtractState = "masked"
	StateVectorized    ExtractState = "vectorized"
	StateRefined       ExtractState = "refined"
	StateSerialized    ExtractState = "serialized"
	StateFailed        ExtractState = "failed"
)

type Extractor struct {
	g          *GdalToolbox
	opts       ExtractOptions
	state      ExtractState
	failReason string
}

func NewExtractor(g *GdalToolbox, opts ...ExtractOptions) *Extractor {
	e := &Extractor{
		g:     g,
		opts:  DefaultExtractOptions(),
		state: StateInit,
	}
	if len(opts) > 0 {
		e.opts = opts[0]
	}
	return e
}

func (e *Extractor) State() ExtractState {
	return e.state
}

func (e *Extractor) FailReason() string {
	return e.failReason
}

func (e *Extractor) advance(s ExtractState) {
	log.Debug("extractor state transition", zap.String("from", string(e.state)),
		zap.String("to", string(s)))
	e.state = s
}

func (e *Extractor) fail(reason string, err error) error {
	e.state = StateFailed
	e.failReason = reason
	log.Error("extraction failed", zap.String("reason", reason), zap.Error(err))
	return err
}

// ExtractFromBand 在内存波段上执行阈值分割、矢量化与亚像素细化，
// 返回岸线（波段坐标系）与所用阈值。内缩范围取波段范围的内缩矩形，
// 不经GDAL，便于独立验证。基于AOI几何的内缩缓冲与最终裁切仅在
// Run流程中进行，本函数不能替代完整提取
func ExtractFromBand(band *Band, opts ExtractOptions) (shores []Shoreline, threshold float64, err error) {
	mask, threshold, err := BuildWaterMask(band)
	if err != nil {
		return
	}
	if shores, err = VectorizeMask(mask, band, opts); err != nil {
		return
	}
	x0, y0 := band.PixelToGeo(0, 0)
	x1, y1 := band.PixelToGeo(float64(band.Width), float64(band.Height))
	inner := MultiPolyCoords{InsetRectOf(math.Min(x0, x1), math.Min(y0, y1),
		math.Max(x0, x1), math.Max(y0, y1), opts.BufferPercentage)}
	shores = RefineShorelines(band, threshold, shores, inner, opts)
	return
}

// Run 执行完整提取流程：解析景坐标系、载入AOI、按AOI剪切影像、
// 阈值分水、矢量化、亚像素细化、裁切至AOI并输出4326坐标的FeatureCollection
func (e *Extractor) Run(scenePath, aoiPath string) (out AnyJson, err error) {
	e.state = StateInit
	e.failReason = ""

	// 优先从景文件名的格网编号推算UTM带，失败时退用内嵌坐标系
	srid, crsErr := ResolveSceneSrid(scenePath)
	info, err := e.g.probeScene(scenePath)
	if err != nil {
		return nil, e.fail("scene probe", err)
	}
	if crsErr != nil {
		if info.srid == 0 {
			return nil, e.fail("crs resolution", ErrCrsUndetermined)
		}
		log.Warn("tile id not recognized, using embedded crs",
			zap.String("scene", scenePath), zap.Int("srid", info.srid))
		srid = info.srid
	}
	e.advance(StateCrsResolved)

	aoi, err := e.g.LoadAoi(aoiPath)
	if err != nil {
		return nil, e.fail("aoi load", err)
	}
	defer aoi.Destroy()
	if aoi.Geo.IsEmpty() {
		return nil, e.fail("aoi load", ErrEmptyAoi)
	}
	e.advance(StateAoiLoaded)

	var extra []string
	if info.srid == 0 {
		extra = append(extra, "-s_srs", fmt.Sprintf("EPSG:%d", srid))
	}
	// cutline落盘为无crs声明的GeoJSON，GDAL按4326读取，故先转换
	cutGeo := aoi.Geo
	if aoi.Srid != UNIVERSAL_SRID {
		cutGeo = aoi.Geo.Clone()
		defer cutGeo.Destroy()
		if ref4326, e4 := e.g.getSridRef(UNIVERSAL_SRID); e4 != nil {
			return nil, e.fail("aoi reprojection", e4)
		} else if e4 = cutGeo.TransformTo(ref4326); e4 != nil {
			return nil, e.fail("aoi reprojection", e4)
		}
	}
	cutline := e.g.geoToGeoJSON(cutGeo)
	band, err := e.g.clipSceneToCutline(scenePath, cutline, info.nodata, info.hasNodata, extra...)
	if err != nil {
		// 降级路径：cutline剪切失败时改用AOI包围盒角点重投影后的范围窗口
		log.Warn("cutline clip failed, falling back to bbox extent", zap.Error(err))
		env := aoi.Geo.Envelope()
		ring, tErr := e.g.TransformBBoxCorners(env.MinX(), env.MinY(), env.MaxX(), env.MaxY(),
			aoi.Srid, srid)
		if tErr != nil {
			return nil, e.fail("raster clip", err)
		}
		minX, minY := math.Inf(1), math.Inf(1)
		maxX, maxY := math.Inf(-1), math.Inf(-1)
		for _, p := range ring {
			minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
			minY, maxY = math.Min(minY, p[1]), math.Max(maxY, p[1])
		}
		if band, err = e.g.clipSceneToExtent(scenePath, minX, minY, maxX, maxY,
			info.nodata, info.hasNodata, extra...); err != nil {
			return nil, e.fail("raster clip", err)
		}
	}
	if band.Srid == 0 {
		band.Srid = srid
	}
	e.advance(StateRasterClipped)

	mask, threshold, err := BuildWaterMask(band)
	if err != nil {
		if errors.Is(err, ErrEmptyTif) {
			return nil, e.fail("no valid samples in clipped raster", err)
		}
		return nil, e.fail("threshold estimation", err)
	}
	e.advance(StateMasked)

	shores, err := VectorizeMask(mask, band, e.opts)
	if err != nil {
		return nil, e.fail("vectorization", err)
	}
	e.advance(StateVectorized)

	// AOI转入波段坐标系，既做内缩匹配范围也做末端裁切区域
	zone := aoi.Geo.Clone()
	defer zone.Destroy()
	ref, err := e.g.getSridRef(band.Srid)
	if err != nil {
		return nil, e.fail("aoi reprojection", err)
	}
	if err = zone.TransformTo(ref); err != nil {
		log.Error("aoi transform to band crs failed", zap.Error(err))
		return nil, e.fail("aoi reprojection", err)
	}
	inner := e.g.innerBufferPolys(zone, e.opts.BufferPercentage)
	shores = RefineShorelines(band, threshold, shores, inner, e.opts)
	e.advance(StateRefined)

	if shores, err = e.clipAndReproject(shores, zone, band.Srid, aoi.Srid); err != nil {
		return nil, e.fail("aoi clipping", err)
	}
	if len(shores) == 0 {
		return nil, e.fail("all shorelines outside aoi", ErrNoShoreline)
	}
	out, err = e.g.ShorelinesToGeoJSON(shores, aoi.Srid)
	if err != nil {
		return nil, e.fail("serialization", err)
	}
	e.advance(StateSerialized)
	return
}

// 将岸线裁切到AOI范围内并转回AOI坐标系。单条岸线被裁成多段时按原属性展开
func (e *Extractor) clipAndReproject(shores []Shoreline, zone gdal.Geometry, srid, tSrid int) (out []Shoreline, err error) {
	out = make([]Shoreline, 0, len(shores))
	for _, s := range shores {
		parts, cErr := e.g.ClipLinesToZone([]Line{s.Line}, zone, srid)
		if cErr != nil {
			err = cErr
			return
		}
		for _, p := range parts {
			line, tErr := e.g.TransformLine(p, srid, tSrid)
			if tErr != nil {
				err = tErr
				return
			}
			if len(line) < 2 {
				continue
			}
			out = append(out, Shoreline{
				Kind:    s.Kind,
				AreaM2:  s.AreaM2,
				Line:    line,
				Refined: s.Refined,
			})
		}
	}
	log.Info("shorelines clipped to aoi", zap.Int("in", len(shores)), zap.Int("out", len(out)))
	return
}
