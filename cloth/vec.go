package cloth

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec3 is the vector type used throughout the simulator.
type Vec3 = r3.Vec

// epsilon guards divisions by near-zero lengths.
const epsilon = 1e-12

// V3 builds a vector from components.
func V3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// madd returns a + b*s.
func madd(a, b Vec3, s float64) Vec3 {
	return Vec3{X: a.X + b.X*s, Y: a.Y + b.Y*s, Z: a.Z + b.Z*s}
}

// unitOr normalizes v, returning fallback when v has no usable length.
func unitOr(v, fallback Vec3) Vec3 {
	n := r3.Norm(v)
	if n < epsilon || math.IsNaN(n) {
		return fallback
	}
	return r3.Scale(1/n, v)
}
