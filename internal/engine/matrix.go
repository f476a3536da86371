package engine

import "math"

// Matrix2D is a 2D affine transform laid out as [a, b, c, d, e, f]:
//
//	| a  c  e |
//	| b  d  f |
//	| 0  0  1 |
//
// Nodes keep the linear part transposed (ta=a, tb=c, tc=b, td=d) so that
// x' = ta*x + tb*y + px.
type Matrix2D [6]float64

func Identity() Matrix2D { return Matrix2D{1, 0, 0, 1, 0, 0} }

func Translate(tx, ty float64) Matrix2D { return Matrix2D{1, 0, 0, 1, tx, ty} }

func Scale(sx, sy float64) Matrix2D { return Matrix2D{sx, 0, 0, sy, 0, 0} }

// Rotate returns a rotation by radians, clockwise in screen space.
func Rotate(radians float64) Matrix2D {
	sin, cos := math.Sincos(radians)
	return Matrix2D{cos, sin, -sin, cos, 0, 0}
}

// Skew returns a shear by the given angles in degrees.
func Skew(xDegrees, yDegrees float64) Matrix2D {
	return Matrix2D{1, math.Tan(radians(yDegrees)), math.Tan(radians(xDegrees)), 1, 0, 0}
}

// matrixOf builds a Matrix2D from a node's linear part and translation.
func matrixOf(ta, tb, tc, td, px, py float64) Matrix2D {
	return Matrix2D{ta, tc, tb, td, px, py}
}

// linear returns m's 2x2 part in node order (ta, tb, tc, td).
func (m Matrix2D) linear() (ta, tb, tc, td float64) {
	return m[0], m[2], m[1], m[3]
}

// Multiply returns m * o: o is applied first.
func (m Matrix2D) Multiply(o Matrix2D) Matrix2D {
	ta, tb, tc, td := m.linear()
	return Matrix2D{
		ta*o[0] + tb*o[1],
		tc*o[0] + td*o[1],
		ta*o[2] + tb*o[3],
		tc*o[2] + td*o[3],
		ta*o[4] + tb*o[5] + m[4],
		tc*o[4] + td*o[5] + m[5],
	}
}

func (m Matrix2D) TransformPoint(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

func (m Matrix2D) Determinant() float64 { return m[0]*m[3] - m[1]*m[2] }

// Invert returns the inverse of m, or false when m is singular.
func (m Matrix2D) Invert() (Matrix2D, bool) {
	det := m.Determinant()
	if det == 0 || math.IsNaN(det) {
		return Matrix2D{}, false
	}
	inv := 1 / det
	return Matrix2D{
		m[3] * inv,
		-m[1] * inv,
		-m[2] * inv,
		m[0] * inv,
		(m[2]*m[5] - m[3]*m[4]) * inv,
		(m[1]*m[4] - m[0]*m[5]) * inv,
	}, true
}

// FromTransform composes a document transform:
// Translate(x, y) * Rotate(r) * Skew(kx, ky) * Scale(sx, sy) * Translate(-ax, -ay).
// The anchor (ax, ay) is the pivot in local coordinates.
func FromTransform(x, y, sx, sy, rDegrees, skewX, skewY, ax, ay float64) Matrix2D {
	m := Translate(x, y).Multiply(Rotate(radians(rDegrees)))
	if skewX != 0 || skewY != 0 {
		m = m.Multiply(Skew(skewX, skewY))
	}
	return m.Multiply(Scale(sx, sy)).Multiply(Translate(-ax, -ay))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
