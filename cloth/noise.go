package cloth

import (
	"math"
	"math/rand"
)

// turbulenceField is a seeded gradient noise source. Nearby samples in space and
// time return nearby values, so gusts sweep across the sheet instead of flickering.
type turbulenceField struct {
	perm [512]uint8
}

// newTurbulenceField builds the permutation table from seed.
func newTurbulenceField(seed int64) *turbulenceField {
	f := &turbulenceField{}
	rng := rand.New(rand.NewSource(seed))

	var base [256]uint8
	for i := range base {
		base[i] = uint8(i)
	}
	rng.Shuffle(len(base), func(i, j int) {
		base[i], base[j] = base[j], base[i]
	})

	for i := 0; i < 512; i++ {
		f.perm[i] = base[i&255]
	}
	return f
}

// sample returns gradient noise in roughly [-1, 1] at (x, y, z).
func (f *turbulenceField) sample(x, y, z float64) float64 {
	fx, fy, fz := math.Floor(x), math.Floor(y), math.Floor(z)
	xi, yi, zi := int(fx)&255, int(fy)&255, int(fz)&255
	x, y, z = x-fx, y-fy, z-fz

	u, v, w := smootherstep(x), smootherstep(y), smootherstep(z)

	p := &f.perm
	a := int(p[xi]) + yi
	aa := int(p[a]) + zi
	ab := int(p[a+1]) + zi
	b := int(p[xi+1]) + yi
	ba := int(p[b]) + zi
	bb := int(p[b+1]) + zi

	near := mix(v,
		mix(u, gradient(p[aa], x, y, z), gradient(p[ba], x-1, y, z)),
		mix(u, gradient(p[ab], x, y-1, z), gradient(p[bb], x-1, y-1, z)))
	far := mix(v,
		mix(u, gradient(p[aa+1], x, y, z-1), gradient(p[ba+1], x-1, y, z-1)),
		mix(u, gradient(p[ab+1], x, y-1, z-1), gradient(p[bb+1], x-1, y-1, z-1)))
	return mix(w, near, far)
}

// sampleVec returns three decorrelated noise channels at p, animated by t.
func (f *turbulenceField) sampleVec(p Vec3, t float64) Vec3 {
	return Vec3{
		X: f.sample(p.X+t, p.Y, p.Z),
		Y: f.sample(p.X+31.416, p.Y+t, p.Z+47.853),
		Z: f.sample(p.X+73.156, p.Y+19.27, p.Z+t),
	}
}

func smootherstep(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func mix(t, a, b float64) float64 {
	return a + t*(b-a)
}

func gradient(hash uint8, x, y, z float64) float64 {
	h := hash & 15
	u := x
	if h >= 8 {
		u = y
	}
	v := y
	if h >= 4 {
		if h == 12 || h == 14 {
			v = x
		} else {
			v = z
		}
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -v
	}
	return u + v
}
