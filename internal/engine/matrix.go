package engine

import "github.com/archcanvas/archcanvas/backend-go/internal/document"

// Matrix2D is an affine transform laid out as [a, b, c, d, e, f]:
// | a  c  e |
// | b  d  f |
// | 0  0  1 |
type Matrix2D [6]float64

func Identity() Matrix2D {
	return Matrix2D{1, 0, 0, 1, 0, 0}
}

func Translate(tx, ty float64) Matrix2D {
	return Matrix2D{1, 0, 0, 1, tx, ty}
}

func Scale(sx, sy float64) Matrix2D {
	return Matrix2D{sx, 0, 0, sy, 0, 0}
}

// ViewMatrix maps world coordinates to screen coordinates for vp:
// Translate(pan) * Scale(zoom).
func ViewMatrix(vp document.Viewport) Matrix2D {
	return Translate(vp.Pan.X, vp.Pan.Y).Multiply(Scale(vp.Zoom, vp.Zoom))
}

// Multiply returns m * other, which applies other first.
func (m Matrix2D) Multiply(other Matrix2D) Matrix2D {
	return Matrix2D{
		m[0]*other[0] + m[2]*other[1],
		m[1]*other[0] + m[3]*other[1],
		m[0]*other[2] + m[2]*other[3],
		m[1]*other[2] + m[3]*other[3],
		m[0]*other[4] + m[2]*other[5] + m[4],
		m[1]*other[4] + m[3]*other[5] + m[5],
	}
}

func (m Matrix2D) Apply(p document.Point) document.Point {
	return document.Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// Invert returns the inverse of m. A singular matrix (zoom 0) yields Identity.
func (m Matrix2D) Invert() Matrix2D {
	det := m[0]*m[3] - m[1]*m[2]
	if det == 0 {
		return Identity()
	}

	inv := 1.0 / det
	return Matrix2D{
		m[3] * inv,
		-m[1] * inv,
		-m[2] * inv,
		m[0] * inv,
		(m[2]*m[5] - m[3]*m[4]) * inv,
		(m[1]*m[4] - m[0]*m[5]) * inv,
	}
}

// ToSlice returns the matrix in Canvas2D setTransform order.
func (m Matrix2D) ToSlice() []float64 {
	return []float64{m[0], m[1], m[2], m[3], m[4], m[5]}
}
