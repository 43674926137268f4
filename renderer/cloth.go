package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/drape/cloth"
	"github.com/pthm-cable/drape/mesh"
)

// DrawOptions selects what ClothRenderer draws for a body.
type DrawOptions struct {
	BodyColors bool // Tint by body index instead of one cloth color
	Stretch    bool // Color triangles by strain
	Wireframe  bool
	Pins       bool
	Normals    bool
}

// stretchScale is the strain drawn fully red.
const stretchScale = 0.25

var bodyPalette = []rl.Color{
	{R: 200, G: 70, B: 70, A: 255},
	{R: 70, G: 140, B: 210, A: 255},
	{R: 90, G: 180, B: 100, A: 255},
	{R: 220, G: 170, B: 60, A: 255},
	{R: 160, G: 90, B: 200, A: 255},
}

var (
	clothColor   = rl.Color{R: 190, G: 80, B: 70, A: 255}
	relaxedColor = rl.Color{R: 60, G: 110, B: 220, A: 255}
	strainColor  = rl.Color{R: 230, G: 50, B: 40, A: 255}
	wireColor    = rl.Color{R: 20, G: 20, B: 25, A: 160}
	pinColor     = rl.Orange
	normalColor  = rl.Color{R: 120, G: 230, B: 120, A: 255}
)

// ClothRenderer draws cloth sheets as shaded two-sided triangle meshes.
type ClothRenderer struct {
	Light   cloth.Vec3 // Direction toward the light
	Ambient float64

	indices   map[[2]int][]int32
	positions []cloth.Vec3
	normals   []cloth.Vec3
}

// NewClothRenderer creates a cloth renderer lit from the upper front.
func NewClothRenderer() *ClothRenderer {
	return &ClothRenderer{
		Light:   r3.Unit(cloth.V3(0.4, 1, 0.6)),
		Ambient: 0.25,
		indices: make(map[[2]int][]int32),
	}
}

// indicesFor returns the cached triangle indices for a grid size.
func (r *ClothRenderer) indicesFor(w, h int) []int32 {
	key := [2]int{w, h}
	idx, ok := r.indices[key]
	if !ok {
		idx = mesh.Indices(w, h)
		r.indices[key] = idx
	}
	return idx
}

// Draw renders one body. index picks the palette color with BodyColors.
// Must be called between BeginMode3D and EndMode3D.
func (r *ClothRenderer) Draw(sim *cloth.Simulator, index int, opts DrawOptions) {
	if !sim.Initialized() {
		return
	}
	w, h := sim.Width(), sim.Height()
	r.positions = sim.PositionsInto(r.positions[:0])
	pos := r.positions
	idx := r.indicesFor(w, h)
	r.normals = mesh.Normals(r.normals, pos, idx)

	base := clothColor
	if opts.BodyColors {
		base = bodyPalette[index%len(bodyPalette)]
	}
	spacing := sim.Spacing()

	rl.DisableBackfaceCulling()
	for t := 0; t+2 < len(idx); t += 3 {
		a, b, c := idx[t], idx[t+1], idx[t+2]
		n := r3.Add(r3.Add(r.normals[a], r.normals[b]), r.normals[c])
		if norm := r3.Norm(n); norm > 0 {
			n = r3.Scale(1/norm, n)
		}
		color := base
		if opts.Stretch {
			// Even triangles meet their grid edges at the first vertex, odd ones at the last.
			corner, u, v := pos[a], pos[b], pos[c]
			if (t/3)%2 == 1 {
				corner, u, v = pos[c], pos[a], pos[b]
			}
			color = lerpColor(relaxedColor, strainColor, triangleStrain(corner, u, v, spacing)/stretchScale)
		}
		rl.DrawTriangle3D(vec(pos[a]), vec(pos[b]), vec(pos[c]), scale(color, mesh.Shade(n, r.Light, r.Ambient)))
	}
	rl.EnableBackfaceCulling()

	if opts.Wireframe && w > 0 {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				if x+1 < w {
					rl.DrawLine3D(vec(pos[i]), vec(pos[i+1]), wireColor)
				}
				if y+1 < h {
					rl.DrawLine3D(vec(pos[i]), vec(pos[i+w]), wireColor)
				}
			}
		}
	}

	if opts.Pins {
		radius := float32(spacing * 0.25)
		for i, p := range pos {
			if fixed, _ := sim.IsParticleFixed(i); fixed {
				rl.DrawSphere(vec(p), radius, pinColor)
			}
		}
	}

	if opts.Normals {
		length := spacing * 0.8
		for i, p := range pos {
			rl.DrawLine3D(vec(p), vec(r3.Add(p, r3.Scale(length, r.normals[i]))), normalColor)
		}
	}
}

// triangleStrain returns the larger strain of the two grid edges meeting at
// corner a, each spacing long at rest.
func triangleStrain(a, b, c cloth.Vec3, spacing float64) float64 {
	if spacing <= 0 {
		return 0
	}
	ab := math.Abs(r3.Norm(r3.Sub(b, a))/spacing - 1)
	ac := math.Abs(r3.Norm(r3.Sub(c, a))/spacing - 1)
	return math.Max(ab, ac)
}
