// Package mesh turns a row-major particle grid into renderable triangles.
package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/drape/cloth"
)

// Indices returns two triangles per grid cell, indexing a width x height
// row-major vertex array. Triangles wind counter-clockwise seen from +Z for a
// vertical sheet and from +Y for a horizontal one. Grids thinner than two particles in
// either direction have no triangles.
func Indices(width, height int) []int32 {
	if width < 2 || height < 2 {
		return nil
	}
	out := make([]int32, 0, 6*(width-1)*(height-1))
	for y := 0; y < height-1; y++ {
		for x := 0; x < width-1; x++ {
			a := int32(y*width + x)
			b := a + 1
			c := a + int32(width)
			d := c + 1
			out = append(out, a, c, b, b, c, d)
		}
	}
	return out
}

// Normals writes an angle-weighted vertex normal for every position into dst,
// growing it as needed, and returns it. Each triangle contributes its unit
// face normal scaled by the corner angle, so the result does not depend on
// which diagonal splits a cell. Vertices touching no triangle, or only
// degenerate ones, get the zero vector.
func Normals(dst []cloth.Vec3, positions []cloth.Vec3, indices []int32) []cloth.Vec3 {
	if cap(dst) < len(positions) {
		dst = make([]cloth.Vec3, len(positions))
	}
	dst = dst[:len(positions)]
	clear(dst)

	for i := 0; i+2 < len(indices); i += 3 {
		tri := [3]int32{indices[i], indices[i+1], indices[i+2]}
		pa, pb, pc := positions[tri[0]], positions[tri[1]], positions[tri[2]]
		n := r3.Cross(r3.Sub(pb, pa), r3.Sub(pc, pa))
		l := r3.Norm(n)
		if l <= 1e-12 {
			continue
		}
		n = r3.Scale(1/l, n)
		for k, v := range tri {
			p := positions[v]
			e1 := r3.Sub(positions[tri[(k+1)%3]], p)
			e2 := r3.Sub(positions[tri[(k+2)%3]], p)
			dst[v] = r3.Add(dst[v], r3.Scale(cornerAngle(e1, e2), n))
		}
	}
	for i, n := range dst {
		if l := r3.Norm(n); l > 1e-12 {
			dst[i] = r3.Scale(1/l, n)
		} else {
			dst[i] = cloth.Vec3{}
		}
	}
	return dst
}

// cornerAngle is the angle between two edges leaving the same vertex.
func cornerAngle(e1, e2 cloth.Vec3) float64 {
	l := r3.Norm(e1) * r3.Norm(e2)
	if l <= 1e-24 {
		return 0
	}
	return math.Acos(math.Max(-1, math.Min(1, r3.Dot(e1, e2)/l)))
}

// Shade returns the Lambert factor of normal n lit from direction light, with
// both faces lit, in [ambient, 1].
func Shade(n, light cloth.Vec3, ambient float64) float64 {
	l := r3.Norm(light)
	if l == 0 {
		return 1
	}
	d := r3.Dot(n, light) / l
	if d < 0 {
		d = -d
	}
	return ambient + (1-ambient)*d
}
