package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/drape/cloth"
)

var (
	colliderFill  = rl.Color{R: 150, G: 155, B: 165, A: 255}
	colliderWire  = rl.Color{R: 40, G: 45, B: 55, A: 255}
	floorFill     = rl.Color{R: 55, G: 60, B: 68, A: 255}
	floorGrid     = rl.Color{R: 90, G: 95, B: 105, A: 255}
	windColor     = rl.SkyBlue
	planeHalfSize = float32(4)
)

// DrawColliders renders every primitive. Must be called in 3D mode.
func DrawColliders(prims []cloth.CollisionPrimitive) {
	for i := range prims {
		drawPrimitive(&prims[i])
	}
}

func drawPrimitive(p *cloth.CollisionPrimitive) {
	switch p.Kind {
	case cloth.Sphere:
		r := float32(p.Size.X)
		rl.DrawSphere(vec(p.Position), r*0.99, colliderFill)
		rl.DrawSphereWires(vec(p.Position), r, 12, 16, colliderWire)

	case cloth.Box:
		rl.PushMatrix()
		rl.Translatef(float32(p.Position.X), float32(p.Position.Y), float32(p.Position.Z))
		if p.Angle != 0 && r3.Norm(p.Axis) > 0 {
			rl.Rotatef(float32(p.Angle*180/math.Pi), float32(p.Axis.X), float32(p.Axis.Y), float32(p.Axis.Z))
		}
		sx, sy, sz := float32(p.Size.X), float32(p.Size.Y), float32(p.Size.Z)
		rl.DrawCube(rl.Vector3{}, sx, sy, sz, colliderFill)
		rl.DrawCubeWires(rl.Vector3{}, sx, sy, sz, colliderWire)
		rl.PopMatrix()

	case cloth.Plane:
		drawPlane(p.Position, p.Size)

	case cloth.Mesh:
		rl.DisableBackfaceCulling()
		for t := 0; t+2 < len(p.Vertices); t += 3 {
			a := vec(r3.Add(p.Position, p.Vertices[t]))
			b := vec(r3.Add(p.Position, p.Vertices[t+1]))
			c := vec(r3.Add(p.Position, p.Vertices[t+2]))
			rl.DrawTriangle3D(a, b, c, colliderFill)
			rl.DrawLine3D(a, b, colliderWire)
			rl.DrawLine3D(b, c, colliderWire)
			rl.DrawLine3D(c, a, colliderWire)
		}
		rl.EnableBackfaceCulling()
	}
}

// drawPlane draws a finite patch of the plane through point with the given
// normal, rotated from raylib's +Y ground plane.
func drawPlane(point, normal cloth.Vec3) {
	n := normal
	if norm := r3.Norm(n); norm > 0 {
		n = r3.Scale(1/norm, n)
	} else {
		n = cloth.V3(0, 1, 0)
	}
	up := cloth.V3(0, 1, 0)

	rl.PushMatrix()
	rl.Translatef(float32(point.X), float32(point.Y), float32(point.Z))
	axis := r3.Cross(up, n)
	if s := r3.Norm(axis); s > 1e-9 {
		angle := math.Atan2(s, r3.Dot(up, n)) * 180 / math.Pi
		rl.Rotatef(float32(angle), float32(axis.X/s), float32(axis.Y/s), float32(axis.Z/s))
	} else if n.Y < 0 {
		rl.Rotatef(180, 1, 0, 0)
	}
	rl.DrawPlane(rl.Vector3{Y: -0.001}, rl.Vector2{X: 2 * planeHalfSize, Y: 2 * planeHalfSize}, floorFill)
	drawGrid(planeHalfSize, 0.25)
	rl.PopMatrix()
}

// drawGrid draws lines on the local XZ plane in [-half, half].
func drawGrid(half, step float32) {
	for v := -half; v <= half+1e-4; v += step {
		rl.DrawLine3D(rl.Vector3{X: v, Z: -half}, rl.Vector3{X: v, Z: half}, floorGrid)
		rl.DrawLine3D(rl.Vector3{X: -half, Z: v}, rl.Vector3{X: half, Z: v}, floorGrid)
	}
}

// DrawWind draws an arrow from origin along each wind direction, its length
// proportional to the current strength.
func DrawWind(origin cloth.Vec3, winds []cloth.WindForce) {
	for i, w := range winds {
		dir := w.Direction
		norm := r3.Norm(dir)
		if norm == 0 || w.Strength <= 0 {
			continue
		}
		start := r3.Add(origin, cloth.V3(0, 0.1*float64(i), 0))
		end := r3.Add(start, r3.Scale(0.15*w.Strength/norm, dir))
		rl.DrawLine3D(vec(start), vec(end), windColor)
		rl.DrawSphere(vec(end), 0.02, windColor)
	}
}
