package tracking

import "math"

// Vector3 is a point or direction in world space, in meters.
type Vector3 [3]float32

// Matrix4 is a column-major 4x4 transform.
type Matrix4 [16]float32

// Identity returns the identity transform.
func Identity() Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translation returns a transform that moves the origin to (x, y, z).
func Translation(x, y, z float32) Matrix4 {
	m := Identity()
	m[12], m[13], m[14] = x, y, z
	return m
}

// Position is the translation column of m.
func (m Matrix4) Position() Vector3 {
	return Vector3{m[12], m[13], m[14]}
}

func finite(vs ...float32) bool {
	for _, v := range vs {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// IsFinite reports whether every element is a finite number.
func (m Matrix4) IsFinite() bool {
	return finite(m[:]...)
}

func (v Vector3) IsFinite() bool {
	return finite(v[:]...)
}

// Point is a location on the viewing surface.
type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}
