// Package vbap implements vector-base amplitude panning over a fixed
// set of triangular render patches: solving for the winning patch,
// inverting its basis, and power-summing contributions from multiple
// weighted virtual sources (as produced by package extent).
package vbap

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/dts-iab/renderer/config"
	"github.com/dts-iab/renderer/coords"
	"github.com/dts-iab/renderer/extent"
)

// gainEpsilon is the tolerance below which a solved gain is treated as
// non-negative when selecting the winning patch.
const gainEpsilon = 1e-6

// PreparedPatch is a render patch with its basis inverse precomputed.
type PreparedPatch struct {
	S1, S2, S3 int
	inv        coords.Matrix3
	ok         bool
}

// Prepare inverts the basis of every configured render patch once, up
// front, from the speaker positions referenced by each patch (S1, S2,
// S3 index into speakers). A patch whose three speakers are coplanar
// with the origin (non-invertible basis) is kept but marked unusable.
func Prepare(speakers []config.Speaker, patches []config.Patch) []PreparedPatch {
	prepared := make([]PreparedPatch, len(patches))
	for i, p := range patches {
		m := coords.NewMatrix3FromColumns(speakers[p.S1].Position, speakers[p.S2].Position, speakers[p.S3].Position)
		inv, ok := m.Invert()
		prepared[i] = PreparedPatch{S1: p.S1, S2: p.S2, S3: p.S3, inv: inv, ok: ok}
	}
	return prepared
}

// solveOne finds the best patch for a single point source and returns
// the three triangle gains plus whether a fully non-negative solution
// was found.
func solveOne(patches []PreparedPatch, pos r3.Vector) (best PreparedPatch, g r3.Vector, exact bool) {
	bestScore := math.Inf(-1)
	var bestGains r3.Vector
	var bestPatch PreparedPatch
	found := false

	for _, p := range patches {
		if !p.ok {
			continue
		}
		gains := p.inv.MulVec(pos)
		score := math.Min(gains.X, math.Min(gains.Y, gains.Z))
		if score > bestScore {
			bestScore = score
			bestGains = gains
			bestPatch = p
			found = true
		}
		if gains.X >= -gainEpsilon && gains.Y >= -gainEpsilon && gains.Z >= -gainEpsilon {
			return p, r3.Vector{X: math.Max(gains.X, 0), Y: math.Max(gains.Y, 0), Z: math.Max(gains.Z, 0)}, true
		}
	}

	if !found {
		return PreparedPatch{}, r3.Vector{}, false
	}
	return bestPatch, r3.Vector{X: math.Max(bestGains.X, 0), Y: math.Max(bestGains.Y, 0), Z: math.Max(bestGains.Z, 0)}, false
}

// Pan solves VBAP gains for an object (possibly expanded into several
// weighted virtual sources) across the full output-channel gain vector,
// normalized so the power-summed gain vector has L2 norm objectGain.
// warn is true if any virtual source fell outside every patch and was
// rendered via the least-negative fallback patch.
func Pan(patches []PreparedPatch, numSpeakers int, sources []extent.WeightedSource, objectGain float64) (gains []float64, warn bool) {
	out := make([]float64, numSpeakers)
	if len(patches) == 0 || objectGain == 0 {
		return out, false
	}

	for _, src := range sources {
		patch, g, exact := solveOne(patches, src.Position)
		if !exact {
			warn = true
		}
		w := src.Weight
		out[patch.S1] += w * w * g.X * g.X
		out[patch.S2] += w * w * g.Y * g.Y
		out[patch.S3] += w * w * g.Z * g.Z
	}

	sumSq := 0.0
	for _, v := range out {
		sumSq += v
	}
	if sumSq < 1e-18 {
		return out, warn
	}
	scale := objectGain / math.Sqrt(sumSq)
	for i := range out {
		out[i] = math.Sqrt(out[i]) * scale
	}
	return out, warn
}

// Snap routes an object directly to the single nearest VBAP speaker
// when its position is within tolerance of that speaker's position,
// per the reference renderer's snap-to-speaker optimization. Distance
// is the Chebyshev (L-infinity) norm of the per-axis delta, per the
// format's tolerance definition, not Euclidean distance: a speaker
// qualifies when max(|dx|,|dy|,|dz|) <= tolerance. snapped is false if
// no speaker is within tolerance.
func Snap(speakers []config.Speaker, pos r3.Vector, tolerance, objectGain float64) (gains []float64, snapped bool) {
	out := make([]float64, len(speakers))
	bestIdx := -1
	bestDist := math.Inf(1)
	for i, s := range speakers {
		if !s.IsVBAP {
			continue
		}
		d := chebyshevDistance(s.Position, pos)
		if d < bestDist {
			bestDist = d
			bestIdx = i
		}
	}
	if bestIdx < 0 || bestDist > tolerance {
		return out, false
	}
	out[bestIdx] = objectGain
	return out, true
}

func chebyshevDistance(a, b r3.Vector) float64 {
	dx, dy, dz := math.Abs(a.X-b.X), math.Abs(a.Y-b.Y), math.Abs(a.Z-b.Z)
	return math.Max(dx, math.Max(dy, dz))
}

// Cache memoizes Pan results keyed on quantized panning inputs, reset
// once per frame by the frame renderer that owns it (it is not a
// package-level cache, so concurrent Renderer instances never share
// state).
type Cache struct {
	entries map[cacheKey][]float64
}

type cacheKey struct {
	x, y, z             int64
	aperture, divergence int64
	zoneSnapshot         uint64
	objectGain           int64
}

const cacheQuantum = 1e5

func quantize(v float64) int64 { return int64(math.Round(v * cacheQuantum)) }

// NewCache returns an empty VBAP result cache.
func NewCache() *Cache { return &Cache{entries: make(map[cacheKey][]float64)} }

// Reset clears all cached entries; the frame renderer calls this once
// at the start of every RenderIABFrame.
func (c *Cache) Reset() { c.entries = make(map[cacheKey][]float64) }

// Lookup returns a cached gain vector for the given panning inputs, if
// present.
func (c *Cache) Lookup(pos r3.Vector, aperture, divergence, objectGain float64, zoneSnapshot uint64) ([]float64, bool) {
	key := cacheKey{
		x: quantize(pos.X), y: quantize(pos.Y), z: quantize(pos.Z),
		aperture: quantize(aperture), divergence: quantize(divergence),
		zoneSnapshot: zoneSnapshot, objectGain: quantize(objectGain),
	}
	v, ok := c.entries[key]
	return v, ok
}

// Store records a gain vector for the given panning inputs.
func (c *Cache) Store(pos r3.Vector, aperture, divergence, objectGain float64, zoneSnapshot uint64, gains []float64) {
	key := cacheKey{
		x: quantize(pos.X), y: quantize(pos.Y), z: quantize(pos.Z),
		aperture: quantize(aperture), divergence: quantize(divergence),
		zoneSnapshot: zoneSnapshot, objectGain: quantize(objectGain),
	}
	stored := make([]float64, len(gains))
	copy(stored, gains)
	c.entries[key] = stored
}
