package geo

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/sells-group/newsdesk/internal/model"
)

// SRID is the spatial reference of stored geotags (WGS84).
const SRID = 4326

// EncodeGeotag converts a geotag to an EWKB point. A nil geotag encodes to nil.
func EncodeGeotag(g *model.Geotag) ([]byte, error) {
	if g == nil {
		return nil, nil
	}
	pt := geom.NewPointFlat(geom.XY, []float64{g.Lng, g.Lat}).SetSRID(SRID)
	data, err := ewkb.Marshal(pt, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geo: encode geotag")
	}
	return data, nil
}

// DecodeGeotag parses an EWKB point. Empty input decodes to nil.
func DecodeGeotag(data []byte) (*model.Geotag, error) {
	if len(data) == 0 {
		return nil, nil
	}
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "geo: decode geotag")
	}
	pt, ok := g.(*geom.Point)
	if !ok {
		return nil, eris.Errorf("geo: expected point, got %T", g)
	}
	return &model.Geotag{Lat: pt.Y(), Lng: pt.X()}, nil
}
