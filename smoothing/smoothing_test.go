package smoothing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dts-iab/renderer/smoothing"
)

func TestApply_RampsFromZeroOnFirstCall(t *testing.T) {
	hist := smoothing.NewHistory()
	entity := smoothing.EntityID{MetadataID: 1}
	dst := [][]float32{make([]float32, 4)}
	x := []float32{1, 1, 1, 1}

	smoothing.Apply(dst, entity, hist, []float64{1.0}, x, 0, 4, true, true)

	assert.InDelta(t, 0.25, dst[0][0], 1e-6)
	assert.InDelta(t, 0.5, dst[0][1], 1e-6)
	assert.InDelta(t, 0.75, dst[0][2], 1e-6)
	assert.InDelta(t, 1.0, dst[0][3], 1e-6)
}

func TestApply_ContinuesFromPreviousFrameGain(t *testing.T) {
	hist := smoothing.NewHistory()
	entity := smoothing.EntityID{MetadataID: 1}
	x := []float32{1, 1, 1, 1}

	dst1 := [][]float32{make([]float32, 4)}
	smoothing.Apply(dst1, entity, hist, []float64{1.0}, x, 0, 4, true, true)
	require.InDelta(t, 1.0, dst1[0][3], 1e-6)

	dst2 := [][]float32{make([]float32, 4)}
	smoothing.Apply(dst2, entity, hist, []float64{0.0}, x, 0, 4, true, true)
	// Starts at the previous frame's final gain (1.0) and ramps to 0.
	assert.InDelta(t, 0.75, dst2[0][0], 1e-6)
	assert.InDelta(t, 0.0, dst2[0][3], 1e-6)
}

func TestApply_DisabledSmoothingAppliesTargetImmediately(t *testing.T) {
	hist := smoothing.NewHistory()
	entity := smoothing.EntityID{MetadataID: 1}
	x := []float32{1, 1}
	dst := [][]float32{make([]float32, 2)}

	smoothing.Apply(dst, entity, hist, []float64{0.5}, x, 0, 2, false, true)
	assert.InDelta(t, 0.5, dst[0][0], 1e-6)
	assert.InDelta(t, 0.5, dst[0][1], 1e-6)
}

func TestSweep_DropsUntouchedEntities(t *testing.T) {
	hist := smoothing.NewHistory()
	entity := smoothing.EntityID{MetadataID: 1}
	dst := [][]float32{make([]float32, 2)}
	x := []float32{1, 1}

	smoothing.Apply(dst, entity, hist, []float64{1.0}, x, 0, 2, true, true)
	hist.Sweep() // entity was touched, survives
	assert.NotNil(t, hist.Gains(entity))

	hist.Sweep() // not touched since last sweep, dropped
	assert.Nil(t, hist.Gains(entity))
}

func TestApply_IdempotentWhenTargetEqualsHistory(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		hist := smoothing.NewHistory()
		entity := smoothing.EntityID{MetadataID: 1}
		g := rapid.Float64Range(0, 2).Draw(rt, "gain")
		x := []float32{1, 1, 1, 1}

		dst1 := [][]float32{make([]float32, 4)}
		smoothing.Apply(dst1, entity, hist, []float64{g}, x, 0, 4, true, true)

		dst2 := [][]float32{make([]float32, 4)}
		smoothing.Apply(dst2, entity, hist, []float64{g}, x, 0, 4, true, true)

		for i := range dst2[0] {
			assert.InDelta(rt, float64(g), float64(dst2[0][i]), 1e-6)
		}
	})
}
