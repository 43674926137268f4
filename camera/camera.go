// Package camera provides an orbit camera for viewing the cloth scene.
package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera orbits a target point. Yaw turns around +Y, pitch tilts toward it.
type Camera struct {
	// Target is the point the camera looks at, in world coordinates
	Target r3.Vec

	// Orbit angles in radians
	Yaw, Pitch float64

	// Distance from target
	Distance float64

	// Vertical field of view in degrees
	FOV float64

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float64

	// Distance constraints
	MinDistance, MaxDistance float64

	home struct {
		target          r3.Vec
		yaw, pitch, dst float64
	}
}

// maxPitch keeps the view off the poles where the up vector degenerates.
const maxPitch = 89 * math.Pi / 180

// New creates a camera looking at target from distance along +Z.
func New(viewportW, viewportH float64, target r3.Vec, distance float64) *Camera {
	c := &Camera{
		Target:      target,
		Distance:    distance,
		FOV:         45,
		ViewportW:   viewportW,
		ViewportH:   viewportH,
		MinDistance: 0.2,
		MaxDistance: 50,
	}
	c.Distance = clamp(distance, c.MinDistance, c.MaxDistance)
	c.home.target, c.home.dst = target, c.Distance
	return c
}

// Position returns the eye position in world coordinates.
func (c *Camera) Position() r3.Vec {
	return r3.Add(c.Target, r3.Scale(c.Distance, c.offsetDir()))
}

// offsetDir is the unit vector from target to eye.
func (c *Camera) offsetDir() r3.Vec {
	sy, cy := math.Sincos(c.Yaw)
	sp, cp := math.Sincos(c.Pitch)
	return r3.Vec{X: sy * cp, Y: sp, Z: cy * cp}
}

// Forward returns the unit view direction.
func (c *Camera) Forward() r3.Vec {
	return r3.Scale(-1, c.offsetDir())
}

// Right returns the unit screen-right direction, always horizontal.
func (c *Camera) Right() r3.Vec {
	sy, cy := math.Sincos(c.Yaw)
	return r3.Vec{X: cy, Y: 0, Z: -sy}
}

// Up returns the unit screen-up direction.
func (c *Camera) Up() r3.Vec {
	return r3.Cross(c.Right(), c.Forward())
}

// Orbit rotates the camera around the target by the given angles in radians.
// Pitch is clamped short of straight up or down.
func (c *Camera) Orbit(dyaw, dpitch float64) {
	c.Yaw = math.Remainder(c.Yaw+dyaw, 2*math.Pi)
	c.Pitch = clamp(c.Pitch+dpitch, -maxPitch, maxPitch)
}

// Pan moves the target by the given delta in screen pixels, scaled so a
// point on the target plane follows the cursor.
func (c *Camera) Pan(dx, dy float64) {
	perPixel := c.worldPerPixel()
	move := r3.Add(r3.Scale(-dx*perPixel, c.Right()), r3.Scale(dy*perPixel, c.Up()))
	c.Target = r3.Add(c.Target, move)
}

// worldPerPixel is the world size of one pixel at the target distance.
func (c *Camera) worldPerPixel() float64 {
	if c.ViewportH <= 0 {
		return 0
	}
	return 2 * c.Distance * math.Tan(c.FOV*math.Pi/360) / c.ViewportH
}

// SetDistance sets the orbit distance, clamped to min/max.
func (c *Camera) SetDistance(d float64) {
	c.Distance = clamp(d, c.MinDistance, c.MaxDistance)
}

// ZoomBy divides the distance by factor; factors above 1 move closer.
func (c *Camera) ZoomBy(factor float64) {
	if factor <= 0 {
		return
	}
	c.SetDistance(c.Distance / factor)
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float64) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Reset returns the camera to the pose it was created with.
func (c *Camera) Reset() {
	c.Target = c.home.target
	c.Yaw, c.Pitch = c.home.yaw, c.home.pitch
	c.Distance = c.home.dst
}

// SetHome makes the current pose the one Reset returns to.
func (c *Camera) SetHome() {
	c.home.target = c.Target
	c.home.yaw, c.home.pitch, c.home.dst = c.Yaw, c.Pitch, c.Distance
}

// WorldToScreen projects a world point to screen coordinates.
// ok is false for points behind the camera.
func (c *Camera) WorldToScreen(p r3.Vec) (sx, sy float64, ok bool) {
	rel := r3.Sub(p, c.Position())
	z := r3.Dot(rel, c.Forward())
	if z <= 1e-6 || c.ViewportH <= 0 {
		return 0, 0, false
	}
	f := c.ViewportH / 2 / math.Tan(c.FOV*math.Pi/360)
	sx = c.ViewportW/2 + f*r3.Dot(rel, c.Right())/z
	sy = c.ViewportH/2 - f*r3.Dot(rel, c.Up())/z
	return sx, sy, true
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
