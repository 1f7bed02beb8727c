package shorelib

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wgdzlh/shorelib/log"
	"github.com/wgdzlh/shorelib/utils"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

const aoiNameField = "name"

// 目标区域：载入时已校验/修复，坐标系已确定
type Aoi struct {
	Geo  gdal.Geometry
	Srid int
	Name string
}

func (a *Aoi) Destroy() {
	if a.Geo != emptyGeometry {
		a.Geo.Destroy()
		a.Geo = emptyGeometry
	}
}

// GeoJSON要素集合的最小解析结构，几何部分原样保留交给GDAL
type geoJsonFeature struct {
	Geometry AnyJson `json:"geometry"`
}

type geoJsonDoc struct {
	Type     string           `json:"type"`
	Geometry AnyJson          `json:"geometry"` // type=Feature时
	Features []geoJsonFeature `json:"features"`
	Crs      *struct {
		Properties struct {
			Name string `json:"name"`
		} `json:"properties"`
	} `json:"crs"`
}

// 解析GeoJSON中的旧式crs声明，缺失时按惯例取EPSG:4326（AOI通常为手绘）
func parseCrsName(name string) (srid int) {
	srid = UNIVERSAL_SRID
	if name == "" || strings.Contains(name, "CRS84") {
		return
	}
	idx := strings.LastIndexByte(name, ':')
	if idx < 0 {
		return
	}
	if id, e := strconv.Atoi(name[idx+1:]); e == nil && id > 0 {
		srid = id
	}
	return
}

// 载入AOI文件（GeoJSON或Shapefile），合并全部要素，校验并修复几何
func (g *GdalToolbox) LoadAoi(path string) (aoi Aoi, err error) {
	log.Info(g.logTag+"loading aoi", zap.String("path", path))
	if strings.EqualFold(filepath.Ext(path), FILE_EXT_SHP) {
		aoi, err = g.loadAoiShp(path)
	} else {
		aoi, err = g.loadAoiGeoJSON(path)
	}
	if err != nil {
		return
	}
	aoi.Name = utils.GetFilenameWithoutExt(path)
	if aoi.Geo, err = g.repairPolygon(aoi.Geo); err != nil {
		aoi.Destroy()
		return
	}
	log.Info(g.logTag+"aoi loaded", zap.String("aoi", aoi.Name), zap.Int("srid", aoi.Srid))
	return
}

func (g *GdalToolbox) loadAoiGeoJSON(path string) (aoi Aoi, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var doc geoJsonDoc
	if err = json.Unmarshal(raw, &doc); err != nil {
		log.Error(g.logTag+"bad aoi geojson", zap.Error(err))
		err = ErrInvalidAoiGeometry
		return
	}
	srid := UNIVERSAL_SRID
	if doc.Crs != nil {
		srid = parseCrsName(doc.Crs.Properties.Name)
	}
	var geoms []AnyJson
	switch doc.Type {
	case "FeatureCollection":
		for _, f := range doc.Features {
			if len(f.Geometry) > 0 {
				geoms = append(geoms, f.Geometry)
			}
		}
	case "Feature":
		if len(doc.Geometry) > 0 {
			geoms = append(geoms, doc.Geometry)
		}
	default: // 裸geometry
		geoms = append(geoms, AnyJson(raw))
	}
	if len(geoms) == 0 {
		err = ErrEmptyAoi
		return
	}
	var (
		geo gdal.Geometry
		gc  []destroyable
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	parsed := make([]gdal.Geometry, 0, len(geoms))
	for _, gj := range geoms {
		if geo, err = g.parseGeoJSON(gj, srid); err != nil {
			return
		}
		gc = append(gc, geo)
		parsed = append(parsed, geo)
	}
	if len(parsed) > 1 {
		log.Info(g.logTag+"aoi has multiple features, combining", zap.Int("count", len(parsed)))
		aoi.Geo = g.unionGeos(parsed)
	} else {
		aoi.Geo = parsed[0].Clone()
	}
	aoi.Srid = srid
	return
}

func (g *GdalToolbox) loadAoiShp(shp string) (aoi Aoi, err error) {
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Open(shp, 0)
	if !ok {
		err = ErrGdalDriverOpen
		return
	}
	defer ds.Destroy()
	var (
		layer   = ds.LayerByIndex(0)
		isUtf8  = utils.ShpEncodingIsUtf8(shp)
		nameIdx = layer.Definition().FieldIndex(aoiNameField)
		feature *gdal.Feature
		gc      []destroyable
	)
	srid, e := g.getSrid(layer.SpatialReference())
	if e != nil {
		log.Warn(g.logTag+"aoi shp has no srid, assuming 4326", zap.String("shp", shp))
		srid = UNIVERSAL_SRID
	}
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	ret := gdal.Create(gdal.GT_Polygon)
	for {
		if feature = layer.NextFeature(); feature == nil {
			break
		}
		gc = append(gc, *feature)
		gc = append(gc, ret)
		ret = ret.Union(feature.Geometry())
		if nameIdx >= 0 && aoi.Name == "" {
			label := feature.FieldAsString(nameIdx)
			if !isUtf8 {
				if fixed, e := utils.GbkToUtf8(utils.S2B(label)); e == nil {
					label = utils.B2S(fixed)
				}
			}
			aoi.Name = utils.PurifyForUtf8(label)
		}
	}
	if ret.IsEmpty() {
		gc = append(gc, ret)
		err = ErrEmptyAoi
		return
	}
	aoi.Geo = ret
	aoi.Srid = srid
	return
}

// 校验（多）多边形，必要时用零距离缓冲修复；修复失败视作致命输入错误
func (g *GdalToolbox) repairPolygon(geo gdal.Geometry) (ret gdal.Geometry, err error) {
	switch geo.Type() {
	case gdal.GT_Polygon, gdal.GT_MultiPolygon:
	default:
		geo.Destroy()
		err = ErrInvalidAoiGeometry
		return
	}
	if geo.IsEmpty() {
		geo.Destroy()
		err = ErrEmptyAoi
		return
	}
	if geo.IsValid() {
		ret = geo
		return
	}
	log.Warn(g.logTag + "aoi geometry invalid, attempting zero buffer repair")
	repaired := geo.Buffer(0, RepairBufferSegs)
	geo.Destroy()
	if !repaired.IsValid() || repaired.IsEmpty() {
		repaired.Destroy()
		err = ErrInvalidAoiGeometry
		return
	}
	ret = repaired
	return
}
