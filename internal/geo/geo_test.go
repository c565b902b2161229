package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/sells-group/newsdesk/internal/model"
)

func TestLookup(t *testing.T) {
	g := Lookup("Miami")
	require.NotNil(t, g)
	assert.InDelta(t, 25.7617, g.Lat, 1e-6)
	assert.InDelta(t, -80.1918, g.Lng, 1e-6)

	assert.NotNil(t, Lookup("  new york "))
	assert.Nil(t, Lookup("Atlantis"))
	assert.Nil(t, Lookup(""))
}

func TestLookup_ReturnsCopy(t *testing.T) {
	g := Lookup("Tokyo")
	require.NotNil(t, g)
	g.Lat = 0
	assert.InDelta(t, 35.6762, Lookup("Tokyo").Lat, 1e-6)
}

func TestEncodeGeotag_Nil(t *testing.T) {
	data, err := EncodeGeotag(nil)
	require.NoError(t, err)
	assert.Nil(t, data)

	g, err := DecodeGeotag(nil)
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestEncodeGeotag_Point(t *testing.T) {
	data, err := EncodeGeotag(&model.Geotag{Lat: 40.4168, Lng: -3.7038})
	require.NoError(t, err)

	decoded, err := ewkb.Unmarshal(data)
	require.NoError(t, err)
	pt, ok := decoded.(*geom.Point)
	require.True(t, ok)
	assert.Equal(t, SRID, pt.SRID())
	assert.InDelta(t, -3.7038, pt.X(), 1e-9)
	assert.InDelta(t, 40.4168, pt.Y(), 1e-9)

	back, err := DecodeGeotag(data)
	require.NoError(t, err)
	assert.InDelta(t, 40.4168, back.Lat, 1e-9)
}

func TestDecodeGeotag_Garbage(t *testing.T) {
	_, err := DecodeGeotag([]byte{0x01, 0x02})
	assert.Error(t, err)
}
