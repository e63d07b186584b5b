package zone9

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dts-iab/renderer/config"
)

func TestMatchPattern_RejectsFractionalGain(t *testing.T) {
	gains := [9]float64{0.5, 1, 1, 1, 1, 0, 0, 0, 0}
	_, ok := MatchPattern(gains)
	assert.False(t, ok)
}

func TestMatchPattern_MatchesEveryTableRow(t *testing.T) {
	for pattern, bits := range supportedPatterns {
		var gains [9]float64
		for i, b := range bits {
			gains[i] = float64(b)
		}
		got, ok := MatchPattern(gains)
		require.True(t, ok)
		assert.Equal(t, pattern, got)
	}
}

func TestMapSpeakerPositionToZoneIndex_Screen(t *testing.T) {
	assert.Equal(t, LeftScreen, MapSpeakerPositionToZoneIndex(0.1, 0.0, 0.0))
	assert.Equal(t, CenterScreen, MapSpeakerPositionToZoneIndex(0.5, 0.0, 0.0))
	assert.Equal(t, RightScreen, MapSpeakerPositionToZoneIndex(0.9, 0.0, 0.0))
}

func TestMapSpeakerPositionToZoneIndex_Ceiling(t *testing.T) {
	assert.Equal(t, LeftCeilingFront, MapSpeakerPositionToZoneIndex(0.1, 0.1, 0.5))
	assert.Equal(t, CenterCeilingMid, MapSpeakerPositionToZoneIndex(0.5, 0.5, 0.5))
	assert.Equal(t, RightCeilingRear, MapSpeakerPositionToZoneIndex(0.9, 0.9, 0.5))
}

func buildTestEngine() *Engine {
	speakers := []config.Speaker{
		{Name: "L", IsVBAP: true, Position: cubeToVBAP(0.1, 0, 0)},
		{Name: "C", IsVBAP: true, Position: cubeToVBAP(0.5, 0, 0)},
		{Name: "R", IsVBAP: true, Position: cubeToVBAP(0.9, 0, 0)},
		{Name: "Ls", IsVBAP: true, Position: cubeToVBAP(0.1, 0.5, 0)},
		{Name: "Rs", IsVBAP: true, Position: cubeToVBAP(0.9, 0.5, 0)},
		{Name: "Lrs", IsVBAP: true, Position: cubeToVBAP(0.1, 0.9, 0)},
		{Name: "Rrs", IsVBAP: true, Position: cubeToVBAP(0.9, 0.9, 0)},
	}
	patches := []config.Patch{{S1: 0, S2: 1, S3: 2}}
	cfg, err := config.NewConfig(speakers, patches, "urn:smpte:ul:soundfield:5.1")
	if err != nil {
		panic(err)
	}
	return NewEngine(cfg)
}

// cubeToVBAP is the inverse of coords.VBAPToIAB (which config uses to
// derive each speaker's CubePosition), used only to build test fixtures at known unit-cube coordinates.
func cubeToVBAP(x, y, z float64) r3.Vector {
	return r3.Vector{X: x*2 - 1, Y: 1 - y*2, Z: z}
}

func power(gains []float64) float64 {
	p := 0.0
	for _, g := range gains {
		p += g * g
	}
	return p
}

func TestProcessZoneGains_PreservesPower_NoBack(t *testing.T) {
	e := buildTestEngine()
	gains := []float64{0.3, 0.4, 0.2, 0.1, 0.5, 0.6, 0.7}
	before := power(gains)

	zoneGains := [9]float64{1, 1, 1, 1, 1, 0, 0, 0, 0} // NoBackNoOverhead
	out, matched := e.ProcessZoneGains(true, zoneGains, gains)
	require.True(t, matched)
	after := power(out)
	assert.InDelta(t, before, after, 1e-9)
}

func TestProcessZoneGains_NoOpWithoutObjectZoneControl(t *testing.T) {
	e := buildTestEngine()
	gains := []float64{0.3, 0.4, 0.2, 0.1, 0.5, 0.6, 0.7}
	out, matched := e.ProcessZoneGains(false, [9]float64{}, gains)
	assert.True(t, matched)
	assert.Equal(t, gains, out)
}

func TestProcessZoneGains_PropertyPowerPreservedAcrossPatterns(t *testing.T) {
	e := buildTestEngine()
	patterns := []Pattern{
		NoBackNoOverhead, NoSideNoOverhead, CenterBackNoOverhead,
		ScreenOnlyNoOverhead, SurroundNoOverhead, FloorNoOverhead,
	}

	rapid.Check(t, func(rt *rapid.T) {
		gains := make([]float64, 7)
		for i := range gains {
			gains[i] = rapid.Float64Range(0, 2).Draw(rt, "gain")
		}
		before := power(gains)

		pattern := patterns[rapid.IntRange(0, len(patterns)-1).Draw(rt, "pattern")]
		bits := supportedPatterns[pattern]
		var zoneGains [9]float64
		for i, b := range bits {
			zoneGains[i] = float64(b)
		}

		cp := make([]float64, len(gains))
		copy(cp, gains)
		out, matched := e.ProcessZoneGains(true, zoneGains, cp)
		require.True(rt, matched)

		after := power(out)
		if !math.IsNaN(after) {
			assert.InDelta(rt, before, after, 1e-6)
		}
	})
}
