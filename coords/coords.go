// Package coords implements the deterministic coordinate transforms
// between the IAB unit-cube authoring space and the VBAP cartesian
// sphere basis, plus the small 3x3 matrix helpers the VBAP solver needs.
package coords

import (
	"math"

	"github.com/golang/geo/r3"
)

// IABToVBAP maps an IAB unit-cube position (x,y,z each in [0,1], y=0 at
// the screen plane, y=1 at the rear wall, z=0 at floor, z=1 at ceiling)
// to the VBAP cartesian basis used by the speaker table and panner
// (right-handed, y forward from the listener toward the screen, z up).
// x and y are recentered from [0,1] to the symmetric [-1,1] range VBAP
// cartesian positions occupy (x=0.5/y=0.5 is the listener position at
// the room centre); z is height above the floor and maps directly, since VBAP
// Z = sin(elevation) is itself zero at the floor and grows toward 1 at
// the zenith.
func IABToVBAP(x, y, z float64) r3.Vector {
	return r3.Vector{X: 2*x - 1, Y: 1 - 2*y, Z: z}
}

// VBAPToIAB is the inverse of IABToVBAP.
func VBAPToIAB(v r3.Vector) (x, y, z float64) {
	return (v.X + 1) / 2, (1 - v.Y) / 2, v.Z
}

// PolarToCartesian converts a unit-radius polar position (degrees) into
// the VBAP cartesian basis: x = sin(az)cos(el), y = cos(az)cos(el),
// z = sin(el).
func PolarToCartesian(azimuthDeg, elevationDeg float64) r3.Vector {
	az := azimuthDeg * math.Pi / 180
	el := elevationDeg * math.Pi / 180
	return r3.Vector{
		X: math.Sin(az) * math.Cos(el),
		Y: math.Cos(az) * math.Cos(el),
		Z: math.Sin(el),
	}
}

// Matrix3 is a row-major 3x3 matrix whose columns are three speaker
// basis vectors, used to solve VBAP gains by inversion.
type Matrix3 struct {
	M [3][3]float64
}

// NewMatrix3FromColumns builds a matrix whose three columns are the
// given vectors, matching the reference renderer's RenderPatch basis
// convention (each render patch stores the 3x3 matrix formed from its
// three speaker cartesian positions).
func NewMatrix3FromColumns(c1, c2, c3 r3.Vector) Matrix3 {
	return Matrix3{M: [3][3]float64{
		{c1.X, c2.X, c3.X},
		{c1.Y, c2.Y, c3.Y},
		{c1.Z, c2.Z, c3.Z},
	}}
}

// MulVec multiplies the matrix by a column vector.
func (m Matrix3) MulVec(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: m.M[0][0]*v.X + m.M[0][1]*v.Y + m.M[0][2]*v.Z,
		Y: m.M[1][0]*v.X + m.M[1][1]*v.Y + m.M[1][2]*v.Z,
		Z: m.M[2][0]*v.X + m.M[2][1]*v.Y + m.M[2][2]*v.Z,
	}
}

// Determinant returns the matrix determinant via cofactor expansion.
func (m Matrix3) Determinant() float64 {
	a := m.M
	return a[0][0]*(a[1][1]*a[2][2]-a[1][2]*a[2][1]) -
		a[0][1]*(a[1][0]*a[2][2]-a[1][2]*a[2][0]) +
		a[0][2]*(a[1][0]*a[2][1]-a[1][1]*a[2][0])
}

// Invert returns the matrix inverse and whether the matrix was
// invertible (determinant non-zero within a small epsilon), using the
// same cofactor-expansion approach as the reference implementation's
// Matrix3::invert.
func (m Matrix3) Invert() (Matrix3, bool) {
	det := m.Determinant()
	if math.Abs(det) < 1e-9 {
		return Matrix3{}, false
	}
	a := m.M
	invDet := 1.0 / det

	var r Matrix3
	r.M[0][0] = (a[1][1]*a[2][2] - a[1][2]*a[2][1]) * invDet
	r.M[0][1] = (a[0][2]*a[2][1] - a[0][1]*a[2][2]) * invDet
	r.M[0][2] = (a[0][1]*a[1][2] - a[0][2]*a[1][1]) * invDet
	r.M[1][0] = (a[1][2]*a[2][0] - a[1][0]*a[2][2]) * invDet
	r.M[1][1] = (a[0][0]*a[2][2] - a[0][2]*a[2][0]) * invDet
	r.M[1][2] = (a[0][2]*a[1][0] - a[0][0]*a[1][2]) * invDet
	r.M[2][0] = (a[1][0]*a[2][1] - a[1][1]*a[2][0]) * invDet
	r.M[2][1] = (a[0][1]*a[2][0] - a[0][0]*a[2][1]) * invDet
	r.M[2][2] = (a[0][0]*a[1][1] - a[0][1]*a[1][0]) * invDet
	return r, true
}
