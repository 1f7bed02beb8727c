package shorelib

import (
	"encoding/json"

	"github.com/wgdzlh/shorelib/log"
	"github.com/wgdzlh/shorelib/utils"

	"go.uber.org/zap"
)

type shoreFeature struct {
	Type       string     `json:"type"`
	Geometry   AnyJson    `json:"geometry"`
	Properties shoreProps `json:"properties"`
}

type shoreProps struct {
	Kind    ShorelineKind `json:"kind"`
	AreaM2  float64       `json:"area_m2"`
	Refined bool          `json:"refined"`
}

type shoreCollection struct {
	Type     string         `json:"type"`
	Features []shoreFeature `json:"features"`
}

// ShorelinesToGeoJSON 将岸线序列化为 FeatureCollection（LineString 要素，
// 属性含类别、面积与细化标记）
func (g *GdalToolbox) ShorelinesToGeoJSON(shores []Shoreline, srid int) (out AnyJson, err error) {
	fc := shoreCollection{
		Type:     "FeatureCollection",
		Features: make([]shoreFeature, 0, len(shores)),
	}
	for _, s := range shores {
		geo, e := g.lineToGeo(s.Line, srid)
		if e != nil {
			err = e
			return
		}
		gj := g.geoToGeoJSON(geo)
		geo.Destroy()
		fc.Features = append(fc.Features, shoreFeature{
			Type:     "Feature",
			Geometry: gj,
			Properties: shoreProps{
				Kind:    s.Kind,
				AreaM2:  s.AreaM2,
				Refined: s.Refined,
			},
		})
	}
	buf, err := json.Marshal(fc)
	if err != nil {
		log.Error(g.logTag+"marshal of shoreline features failed", zap.Error(err))
		return
	}
	out = buf
	log.Info(g.logTag+"shorelines serialized", zap.Int("features", len(fc.Features)),
		zap.Int("bytes", len(out)))
	return
}

// SaveShorelineGeoJSON 落盘序列化结果
func (g *GdalToolbox) SaveShorelineGeoJSON(shores []Shoreline, srid int, path string) (err error) {
	out, err := g.ShorelinesToGeoJSON(shores, srid)
	if err != nil {
		return
	}
	return utils.WriteFile(path, out)
}
