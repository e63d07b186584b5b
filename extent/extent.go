// Package extent expands an IAB object's position plus its
// aperture/divergence interior-extent metadata into a small set of
// weighted point sources suitable for independent VBAP solves.
package extent

import (
	"math"

	"github.com/golang/geo/r3"
)

// WeightedSource is one virtual point source produced by expanding an
// extended object, carrying the power fraction of the original object
// it represents.
type WeightedSource struct {
	Position r3.Vector
	Weight   float64
}

// listenerForward is the reference axis used to build virtual-source
// offsets orthogonal to a source's direction from the origin. Any
// fixed axis not parallel to the source direction works; screen-forward
// matches the reference renderer's convention.
var listenerForward = r3.Vector{X: 0, Y: 1, Z: 0}

// Expand returns the weighted point sources representing pos with the
// given aperture and divergence. Zero aperture and divergence yields a
// single source at pos with weight 1, the degenerate case exercised by
// every object sub-block that carries no interior-extent metadata.
//
// Non-zero aperture widens the source along an axis orthogonal to its
// direction from the origin, producing up to two additional virtual
// sources; divergence blends how far those virtual sources are pushed
// from the primary position. Weights always sum to 1.
func Expand(pos r3.Vector, aperture, divergence float64) []WeightedSource {
	if aperture <= 0 && divergence <= 0 {
		return []WeightedSource{{Position: pos, Weight: 1}}
	}

	dir := pos
	if dir.Norm() < 1e-9 {
		dir = r3.Vector{X: 0, Y: 1, Z: 0}
	} else {
		dir = dir.Normalize()
	}

	axis := dir.Cross(listenerForward)
	if axis.Norm() < 1e-9 {
		axis = dir.Cross(r3.Vector{X: 1, Y: 0, Z: 0})
	}
	axis = axis.Normalize()

	spread := aperture
	if spread <= 0 {
		spread = divergence
	}
	push := spread * (0.5 + 0.5*divergence)

	left := pos.Add(axis.Mul(push))
	right := pos.Sub(axis.Mul(push))

	centerWeight := 1 - math.Min(divergence, 1)
	sideWeight := (1 - centerWeight) / 2

	if centerWeight <= 0 {
		return []WeightedSource{
			{Position: left, Weight: 0.5},
			{Position: right, Weight: 0.5},
		}
	}

	return []WeightedSource{
		{Position: pos, Weight: centerWeight},
		{Position: left, Weight: sideWeight},
		{Position: right, Weight: sideWeight},
	}
}
