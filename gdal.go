package shorelib

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/wgdzlh/shorelib/log"
	"github.com/wgdzlh/shorelib/utils"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

type GdalToolbox struct {
	refMap map[int]gdal.SpatialReference
	rLock  sync.Mutex
	tmpDir string
	logTag string
}

// 由GDAL库C语言创建的内存对象，需要手动调用Destroy回收
type destroyable interface {
	Destroy()
}

var (
	emptyGeometry = gdal.Geometry{}
)

// 初始化GDAL工具箱，tmpDir为可选的临时目录路径（未提供的话为当前目录）。
// 在tmpDir下建唯一子目录存放中间文件，多实例互不干扰
func NewGdalToolbox(tmpDir ...string) *GdalToolbox {
	g := &GdalToolbox{
		refMap: map[int]gdal.SpatialReference{},
		logTag: "GdalToolbox:",
	}
	if len(tmpDir) > 0 && tmpDir[0] != "" {
		if sub, err := utils.GetUniqSubDir(tmpDir[0]); err == nil {
			g.tmpDir = sub
		} else {
			log.Warn(g.logTag+"tmp subdir creation failed", zap.Error(err))
			g.tmpDir = tmpDir[0]
		}
	}
	return g
}

// 获取srid对应的坐标系（可复用，故无需回收）
func (g *GdalToolbox) getSridRef(srid int) (ref gdal.SpatialReference, err error) {
	g.rLock.Lock()
	defer g.rLock.Unlock()
	ref, ok := g.refMap[srid]
	if ok {
		return
	}
	ref = gdal.CreateSpatialReference("")
	if err = ref.FromEPSG(srid); err != nil {
		log.Error(g.logTag+"set ref srid failed", zap.Int("srid", srid), zap.Error(err))
		ref.Destroy()
		return
	}
	// 数据轴次序固定为(经度,纬度)传统GIS坐标序，避免转换或转GeoJSON时次序倒置
	ref.SetAxisMappingStrategy(gdal.OAMS_TraditionalGisOrder)
	g.refMap[srid] = ref
	return
}

func (g *GdalToolbox) getSrid(sp gdal.SpatialReference) (srid int, err error) {
	rawId, ok := sp.AttrValue("AUTHORITY", 1)
	if !ok {
		err = ErrVoidSrid
		return
	}
	srid, err = strconv.Atoi(rawId)
	log.Info(g.logTag+"got srid from sp", zap.String("id", rawId))
	return
}

// 从投影WKT解析srid
func (g *GdalToolbox) sridOfProjection(wkt string) (srid int, err error) {
	sp := gdal.CreateSpatialReference(wkt)
	defer sp.Destroy()
	return g.getSrid(sp)
}

func (g *GdalToolbox) parseWKT(wkt string, ref gdal.SpatialReference) (ret gdal.Geometry, err error) {
	ret, err = gdal.CreateFromWKT(wkt, ref)
	if err != nil {
		log.Error(g.logTag+"parse wkt failed", zap.Error(err))
		err = ErrInvalidWKT
	}
	return
}

// footprint是否为GeoJSON形式（否则按WKT处理）
func footprintIsJson(fp AnyJson) bool {
	trimmed := bytes.TrimSpace(fp)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// 解析候选景footprint，兼容GeoJSON与WKT两种形式（影像目录接口常返回WKT）
func (g *GdalToolbox) parseFootprint(fp AnyJson, srid int) (geo gdal.Geometry, err error) {
	if footprintIsJson(fp) {
		return g.parseGeoJSON(fp, srid)
	}
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	return g.parseWKT(strings.TrimSpace(utils.B2S(fp)), ref)
}

// GeoJSON几何转为带坐标系的GDAL几何
func (g *GdalToolbox) parseGeoJSON(geoJson AnyJson, srid int) (geo gdal.Geometry, err error) {
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	geo = gdal.CreateFromJson(utils.B2S(geoJson))
	if geo.WKBSize() == 0 {
		geo.Destroy()
		err = ErrGdalWrongGeoJSON
		return
	}
	geo.SetSpatialReference(ref)
	return
}

// 几何转GeoJSON
func (g *GdalToolbox) geoToGeoJSON(geo gdal.Geometry) AnyJson {
	return utils.S2B(geo.ToJSON())
}

// 折线坐标转为带坐标系的LineString几何
func (g *GdalToolbox) lineToGeo(line Line, srid int) (geo gdal.Geometry, err error) {
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	geo = gdal.Create(gdal.GT_LineString)
	geo.SetSpatialReference(ref)
	for _, p := range line {
		geo.AddPoint2D(p[0], p[1])
	}
	return
}

func geoLineCoords(geo gdal.Geometry) (line Line) {
	np := geo.PointCount()
	line = make(Line, np)
	for i := 0; i < np; i++ {
		x, y, _ := geo.Point(i)
		line[i] = [2]float64{x, y}
	}
	return
}

func geoRingCoords(ring gdal.Geometry) (r Ring) {
	return geoLineCoords(ring)
}

// 提取（多）多边形几何的环坐标，外环在前
func geoPolyRings(geo gdal.Geometry) (ret MultiPolyCoords, err error) {
	switch geo.Type() {
	case gdal.GT_Polygon:
		ng := geo.GeometryCount()
		poly := make(PolyCoords, 0, ng)
		for i := 0; i < ng; i++ {
			poly = append(poly, geoRingCoords(geo.Geometry(i)))
		}
		ret = MultiPolyCoords{poly}
	case gdal.GT_MultiPolygon:
		gNum := geo.GeometryCount()
		ret = make(MultiPolyCoords, 0, gNum)
		var sub MultiPolyCoords
		for i := 0; i < gNum; i++ {
			if sub, err = geoPolyRings(geo.Geometry(i)); err != nil {
				return
			}
			ret = append(ret, sub...)
		}
	default:
		err = ErrGdalWrongGeoType
	}
	return
}

// 转换折线坐标系
func (g *GdalToolbox) TransformLine(line Line, srid, tSrid int) (out Line, err error) {
	if srid == tSrid {
		out = line
		return
	}
	geo, err := g.lineToGeo(line, srid)
	if err != nil {
		return
	}
	defer geo.Destroy()
	tRef, err := g.getSridRef(tSrid)
	if err != nil {
		return
	}
	if err = geo.TransformTo(tRef); err != nil {
		log.Error(g.logTag+"line transform failed", zap.Error(err))
		return
	}
	out = geoLineCoords(geo)
	return
}

// 逐角点转换包围盒（完整几何转换失败时的降级路径）
func (g *GdalToolbox) TransformBBoxCorners(minX, minY, maxX, maxY float64, srid, tSrid int) (ring Ring, err error) {
	corners := Line{
		{minX, minY}, {minX, maxY}, {maxX, maxY}, {maxX, minY}, {minX, minY},
	}
	out, err := g.TransformLine(corners, srid, tSrid)
	if err != nil {
		return
	}
	ring = Ring(out)
	return
}

// 按最小边长比例对区域做负距离缓冲（内缩），缓冲退化时退用包围盒内缩矩形
func (g *GdalToolbox) innerBufferPolys(zone gdal.Geometry, pct float64) (inner MultiPolyCoords) {
	env := zone.Envelope()
	d := math.Min(env.MaxX()-env.MinX(), env.MaxY()-env.MinY()) * pct
	buf := zone.Buffer(-d, InnerBufferSegs)
	defer buf.Destroy()
	if !buf.IsEmpty() {
		if rings, err := geoPolyRings(buf); err == nil {
			return rings
		}
	}
	log.Warn(g.logTag + "inner buffer degenerate, falling back to inset rectangle")
	return MultiPolyCoords{InsetRectOf(env.MinX(), env.MinY(), env.MaxX(), env.MaxY(), pct)}
}

// 将多条岸线裁剪到区域多边形内部，MultiLineString结果逐段展开
func (g *GdalToolbox) ClipLinesToZone(lines []Line, zone gdal.Geometry, srid int) (out []Line, err error) {
	var (
		geo     gdal.Geometry
		clipped gdal.Geometry
		gc      []destroyable
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	for _, line := range lines {
		if geo, err = g.lineToGeo(line, srid); err != nil {
			return
		}
		gc = append(gc, geo)
		clipped = geo.Intersection(zone)
		gc = append(gc, clipped)
		if clipped.IsEmpty() {
			continue
		}
		switch clipped.Type() {
		case gdal.GT_LineString:
			out = append(out, geoLineCoords(clipped))
		case gdal.GT_MultiLineString, gdal.GT_GeometryCollection:
			ng := clipped.GeometryCount()
			for i := 0; i < ng; i++ {
				sub := clipped.Geometry(i)
				if sub.Type() == gdal.GT_LineString && sub.PointCount() > 1 {
					out = append(out, geoLineCoords(sub))
				}
			}
		}
	}
	return
}

// 合并多个几何
func (g *GdalToolbox) unionGeos(gs []gdal.Geometry) (ret gdal.Geometry) {
	var gc []destroyable
	ret = gdal.Create(gdal.GT_Polygon)
	for _, geo := range gs {
		gc = append(gc, ret)
		ret = ret.Union(geo)
	}
	for _, v := range gc {
		v.Destroy()
	}
	return
}
