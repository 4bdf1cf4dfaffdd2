package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSlewApparent(t *testing.T) {
	cmd := Parse("RA:1.2 Dec:0.3 Epoch:2000.0")
	assert.Equal(t, FamilySlewApparent, cmd.Family)
	assert.InDelta(t, 1.2, cmd.RA, 1e-9)
	assert.InDelta(t, 0.3, cmd.Dec, 1e-9)
	assert.True(t, cmd.HasEpoch)
}

func TestParseSlewHorizon(t *testing.T) {
	cmd := Parse("Alt:0.8 Az:1.1")
	assert.Equal(t, FamilySlewHorizon, cmd.Family)
	assert.InDelta(t, 0.8, cmd.Alt, 1e-9)
	assert.InDelta(t, 1.1, cmd.Az, 1e-9)
}

func TestParseSlewEquatorial(t *testing.T) {
	cmd := Parse("HA:0.1 Dec:0.2")
	assert.Equal(t, FamilySlewEquatorial, cmd.Family)
	assert.InDelta(t, 0.1, cmd.HA, 1e-9)
}

func TestParseHomeWithAxes(t *testing.T) {
	cmd := Parse("home HD")
	assert.Equal(t, FamilyHome, cmd.Family)
	assert.Equal(t, "HD", cmd.Axes)
}

func TestParseHomeAllAxes(t *testing.T) {
	cmd := Parse("home")
	assert.Equal(t, FamilyHome, cmd.Family)
	assert.Equal(t, "", cmd.Axes)
}

func TestParseJog(t *testing.T) {
	cmd := Parse("jNe")
	assert.Equal(t, FamilyJog, cmd.Family)
	assert.Equal(t, "jNe", cmd.Jog)
}

func TestParseJogStop(t *testing.T) {
	cmd := Parse("j0")
	assert.Equal(t, FamilyJog, cmd.Family)
}

func TestParseOffset(t *testing.T) {
	cmd := Parse("offset 5.5, -2.25")
	assert.Equal(t, FamilyOffset, cmd.Family)
	assert.InDelta(t, 5.5, cmd.OffsetXArcsec, 1e-9)
	assert.InDelta(t, -2.25, cmd.OffsetYArcsec, 1e-9)
}

func TestParseRaster(t *testing.T) {
	cmd := Parse("raster 4 0.002")
	assert.Equal(t, FamilyRaster, cmd.Family)
	assert.Equal(t, 4, cmd.RasterN)
	assert.InDelta(t, 0.002, cmd.RasterSize, 1e-9)
}

func TestParseRasterDisable(t *testing.T) {
	cmd := Parse("raster")
	assert.Equal(t, FamilyRaster, cmd.Family)
	assert.Equal(t, 0, cmd.RasterN)
}

func TestParseEngMode(t *testing.T) {
	on := Parse("engmode 1")
	assert.Equal(t, FamilyEngMode, on.Family)
	assert.True(t, on.EngModeOn)

	off := Parse("engmode 0")
	assert.False(t, off.EngModeOn)
}

func TestParseDBLine(t *testing.T) {
	cmd := Parse("dRA:1.0 dDec:2.0 # Vega,f,18:36:56,38:47:01,0.03,2000")
	assert.Equal(t, FamilyDBLine, cmd.Family)
	assert.InDelta(t, 1.0, cmd.DeltaRAArcsec, 1e-9)
	assert.Contains(t, cmd.DBLine, "Vega")
}

func TestParseBareDBLine(t *testing.T) {
	cmd := Parse("Vega,f,18:36:56,38:47:01,0.03,2000")
	assert.Equal(t, FamilyDBLine, cmd.Family)
	assert.Equal(t, 0.0, cmd.DeltaRAArcsec)
}

func TestParseStopAndReset(t *testing.T) {
	assert.Equal(t, FamilyStop, Parse("stop").Family)
	assert.Equal(t, FamilyReset, Parse("reset").Family)
	assert.Equal(t, FamilyStow, Parse("stow").Family)

	fast := Parse("stop fast")
	assert.True(t, fast.StopFast)
}

func TestParseGarbageFallsBackToStop(t *testing.T) {
	cmd := Parse("gibberish nonsense")
	assert.Equal(t, FamilyStop, cmd.Family)
}
