// Package renderer draws cloth bodies and colliders with raylib.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/drape/camera"
	"github.com/pthm-cable/drape/cloth"
)

// vec converts a simulator vector to raylib's float32 vector.
func vec(v cloth.Vec3) rl.Vector3 {
	return rl.Vector3{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}

// Camera3D converts the orbit camera to a raylib perspective camera.
func Camera3D(c *camera.Camera) rl.Camera3D {
	return rl.Camera3D{
		Position:   vec(c.Position()),
		Target:     vec(c.Target),
		Up:         vec(c.Up()),
		Fovy:       float32(c.FOV),
		Projection: rl.CameraPerspective,
	}
}

// scale returns c with its RGB channels multiplied by k in [0, 1].
func scale(c rl.Color, k float64) rl.Color {
	k = min(1, max(0, k))
	return rl.Color{
		R: uint8(float64(c.R) * k),
		G: uint8(float64(c.G) * k),
		B: uint8(float64(c.B) * k),
		A: c.A,
	}
}

// lerpColor blends a toward b by t in [0, 1].
func lerpColor(a, b rl.Color, t float64) rl.Color {
	t = min(1, max(0, t))
	mix := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t) }
	return rl.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
