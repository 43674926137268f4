package mesh

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/drape/cloth"
)

func grid(width, height int, at func(x, y int) cloth.Vec3) []cloth.Vec3 {
	out := make([]cloth.Vec3, 0, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out = append(out, at(x, y))
		}
	}
	return out
}

func TestIndices(t *testing.T) {
	tests := []struct {
		w, h int
		want int
	}{
		{1, 5, 0},
		{5, 1, 0},
		{2, 2, 6},
		{3, 3, 24},
		{10, 4, 6 * 9 * 3},
	}
	for _, tt := range tests {
		idx := Indices(tt.w, tt.h)
		if len(idx) != tt.want {
			t.Errorf("%dx%d: %d indices, want %d", tt.w, tt.h, len(idx), tt.want)
		}
		for _, i := range idx {
			if i < 0 || int(i) >= tt.w*tt.h {
				t.Fatalf("%dx%d: index %d out of range", tt.w, tt.h, i)
			}
		}
	}

	if got := Indices(2, 2); got[0] != 0 || got[1] != 2 || got[2] != 1 || got[5] != 3 {
		t.Errorf("2x2 indices %v", got)
	}
}

func TestNormalsFlatSheet(t *testing.T) {
	// Horizontal layout: rows extend toward +z and the sheet faces up.
	pos := grid(4, 3, func(x, y int) cloth.Vec3 { return cloth.V3(float64(x), 0, float64(y)) })
	normals := Normals(nil, pos, Indices(4, 3))
	if len(normals) != len(pos) {
		t.Fatalf("%d normals for %d vertices", len(normals), len(pos))
	}
	for i, n := range normals {
		if math.Abs(n.Y-1) > 1e-12 || math.Abs(n.X) > 1e-12 || math.Abs(n.Z) > 1e-12 {
			t.Errorf("vertex %d normal %v, want +Y", i, n)
		}
	}
}

func TestNormalsFoldedSheet(t *testing.T) {
	// Folded along the middle column like a tent: the crease normal points
	// straight up while the slopes lean outward.
	pos := grid(3, 2, func(x, y int) cloth.Vec3 {
		h := 1 - math.Abs(float64(x)-1)
		return cloth.V3(float64(x), h, float64(y))
	})
	normals := Normals(nil, pos, Indices(3, 2))
	for i, n := range normals {
		if math.Abs(r3.Norm(n)-1) > 1e-12 {
			t.Errorf("vertex %d normal %v not unit length", i, n)
		}
	}
	if math.Abs(normals[1].X) > 1e-12 || normals[1].Y <= 0 {
		t.Errorf("crease normal %v, want +Y", normals[1])
	}
	if normals[0].X >= 0 || normals[2].X <= 0 {
		t.Errorf("slope normals %v %v should lean outward", normals[0], normals[2])
	}
	// Both rows of the crease agree even though the cells split differently at each end.
	if math.Abs(normals[4].X) > 1e-12 || normals[4].Y <= 0 {
		t.Errorf("far crease normal %v, want +Y", normals[4])
	}
	want := 1 / math.Sqrt2
	for _, i := range []int{0, 3} {
		if math.Abs(normals[i].X+want) > 1e-12 || math.Abs(normals[i].Y-want) > 1e-12 {
			t.Errorf("left slope vertex %d normal %v, want (-1,1,0)/sqrt2", i, normals[i])
		}
	}
}

func TestNormalsDegenerateAndReuse(t *testing.T) {
	pos := make([]cloth.Vec3, 4) // all at the origin
	dst := make([]cloth.Vec3, 1, 8)
	dst[0] = cloth.V3(9, 9, 9)
	got := Normals(dst, pos, Indices(2, 2))
	for i, n := range got {
		if n != (cloth.Vec3{}) {
			t.Errorf("degenerate vertex %d normal %v, want zero", i, n)
		}
	}
	if &got[0] != &dst[0] {
		t.Error("Normals should reuse dst when it has capacity")
	}
}

func TestShade(t *testing.T) {
	up := cloth.V3(0, 1, 0)
	tests := []struct {
		name  string
		n     cloth.Vec3
		light cloth.Vec3
		want  float64
	}{
		{"facing", up, cloth.V3(0, 2, 0), 1},
		{"back face", cloth.V3(0, -1, 0), up, 1},
		{"grazing", cloth.V3(1, 0, 0), up, 0.2},
		{"no light", up, cloth.Vec3{}, 1},
	}
	for _, tt := range tests {
		if got := Shade(tt.n, tt.light, 0.2); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%s: shade %g, want %g", tt.name, got, tt.want)
		}
	}
}
