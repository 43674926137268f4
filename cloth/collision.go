package cloth

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// PrimitiveKind tags the shape of a collision primitive.
type PrimitiveKind uint8

const (
	Sphere PrimitiveKind = iota
	Box
	Plane
	Mesh
)

var primitiveKindNames = [...]string{"sphere", "box", "plane", "mesh"}

func (k PrimitiveKind) String() string {
	if int(k) < len(primitiveKindNames) {
		return primitiveKindNames[k]
	}
	return fmt.Sprintf("primitive(%d)", k)
}

// ParsePrimitiveKind converts a shape name (case-insensitive) to a PrimitiveKind.
func ParsePrimitiveKind(s string) (PrimitiveKind, error) {
	for i, name := range primitiveKindNames {
		if strings.EqualFold(s, name) {
			return PrimitiveKind(i), nil
		}
	}
	return Sphere, fmt.Errorf("%w: unknown collision primitive %q", ErrConfiguration, s)
}

func (k PrimitiveKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *PrimitiveKind) UnmarshalText(b []byte) error {
	parsed, err := ParsePrimitiveKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// contactSkin is the separation left between a resolved particle and the surface.
const contactSkin = 1e-7

var up = V3(0, 1, 0)

// CollisionPrimitive is a static shape the sheet must not penetrate. The meaning
// of Size depends on Kind:
//
//	Sphere: Size.X is the radius
//	Box:    Size is the full extent along each local axis
//	Plane:  Size is the surface normal; the solid side is behind it
//	Mesh:   Size.X is the surface thickness
//
// Boxes rotate by Angle radians about Axis when Angle is non-zero. Mesh vertices
// are triangle triples relative to Position, wound counter-clockwise seen from
// the outside.
type CollisionPrimitive struct {
	Kind     PrimitiveKind `json:"kind"`
	Position Vec3          `json:"position"`
	Size     Vec3          `json:"size"`
	Axis     Vec3          `json:"axis,omitempty"`
	Angle    float64       `json:"angle,omitempty"`
	Vertices []Vec3        `json:"vertices,omitempty"`
	Static   bool          `json:"static"`
}

// NewSphere returns a static sphere primitive.
func NewSphere(center Vec3, radius float64) CollisionPrimitive {
	return CollisionPrimitive{Kind: Sphere, Position: center, Size: V3(radius, radius, radius), Static: true}
}

// NewBox returns a static axis-aligned box with the given full extents.
func NewBox(center, extents Vec3) CollisionPrimitive {
	return CollisionPrimitive{Kind: Box, Position: center, Size: extents, Static: true}
}

// NewPlane returns a static plane through point facing normal.
func NewPlane(point, normal Vec3) CollisionPrimitive {
	return CollisionPrimitive{Kind: Plane, Position: point, Size: normal, Static: true}
}

// NewMesh returns a static triangle mesh. len(vertices) must be a multiple of 3.
func NewMesh(position Vec3, vertices []Vec3, thickness float64) CollisionPrimitive {
	return CollisionPrimitive{
		Kind:     Mesh,
		Position: position,
		Size:     V3(thickness, thickness, thickness),
		Vertices: append([]Vec3(nil), vertices...),
		Static:   true,
	}
}

// clone copies the primitive including its vertex slice.
func (c CollisionPrimitive) clone() CollisionPrimitive {
	if c.Vertices != nil {
		c.Vertices = append([]Vec3(nil), c.Vertices...)
	}
	return c
}

// Validate reports malformed primitives.
func (c CollisionPrimitive) Validate() error {
	switch c.Kind {
	case Sphere:
		if !(c.Size.X > 0) {
			return fmt.Errorf("%w: sphere radius must be positive", ErrConfiguration)
		}
	case Box:
		if c.Size.X < 0 || c.Size.Y < 0 || c.Size.Z < 0 {
			return fmt.Errorf("%w: box extents must not be negative", ErrConfiguration)
		}
	case Plane:
		if r3.Norm(c.Size) < epsilon {
			return fmt.Errorf("%w: plane normal must be non-zero", ErrConfiguration)
		}
	case Mesh:
		if len(c.Vertices)%3 != 0 {
			return fmt.Errorf("%w: mesh has %d vertices, want a multiple of 3", ErrConfiguration, len(c.Vertices))
		}
		if c.Size.X < 0 {
			return fmt.Errorf("%w: mesh thickness must not be negative", ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown collision primitive %d", ErrConfiguration, c.Kind)
	}
	return nil
}

// Contact reports whether p penetrates the primitive. On contact it returns the
// surface point p must be moved to and the outward normal there.
func (c *CollisionPrimitive) Contact(p Vec3) (surface, normal Vec3, hit bool) {
	switch c.Kind {
	case Sphere:
		return c.sphereContact(p)
	case Box:
		return c.boxContact(p)
	case Plane:
		return c.planeContact(p)
	case Mesh:
		return c.meshContact(p)
	}
	return Vec3{}, Vec3{}, false
}

func (c *CollisionPrimitive) sphereContact(p Vec3) (Vec3, Vec3, bool) {
	radius := c.Size.X
	d := r3.Sub(p, c.Position)
	if r3.Norm2(d) >= radius*radius {
		return Vec3{}, Vec3{}, false
	}
	n := unitOr(d, up)
	return madd(c.Position, n, radius), n, true
}

func (c *CollisionPrimitive) planeContact(p Vec3) (Vec3, Vec3, bool) {
	n := unitOr(c.Size, up)
	dist := r3.Dot(r3.Sub(p, c.Position), n)
	if dist >= 0 {
		return Vec3{}, Vec3{}, false
	}
	return madd(p, n, -dist), n, true
}

func (c *CollisionPrimitive) boxContact(p Vec3) (Vec3, Vec3, bool) {
	half := r3.Scale(0.5, V3(math.Abs(c.Size.X), math.Abs(c.Size.Y), math.Abs(c.Size.Z)))
	oriented := c.Angle != 0 && r3.Norm(c.Axis) > epsilon

	local := r3.Sub(p, c.Position)
	if oriented {
		local = r3.NewRotation(-c.Angle, unitOr(c.Axis, up)).Rotate(local)
	}

	lp := [3]float64{local.X, local.Y, local.Z}
	hp := [3]float64{half.X, half.Y, half.Z}
	axis, depth := -1, math.Inf(1)
	for i := range lp {
		pen := hp[i] - math.Abs(lp[i])
		if pen <= 0 {
			return Vec3{}, Vec3{}, false
		}
		if pen < depth {
			axis, depth = i, pen
		}
	}

	sign := 1.0
	if lp[axis] < 0 {
		sign = -1
	}
	var ln [3]float64
	ln[axis] = sign
	lp[axis] = sign * hp[axis]

	surface := V3(lp[0], lp[1], lp[2])
	normal := V3(ln[0], ln[1], ln[2])
	if oriented {
		rot := r3.NewRotation(c.Angle, unitOr(c.Axis, up))
		surface = rot.Rotate(surface)
		normal = rot.Rotate(normal)
	}
	return r3.Add(c.Position, surface), normal, true
}

// meshContact finds the closest point on the triangle surface. A particle behind
// the nearest face, or within the thickness band in front of it, is pushed out
// along that face's normal.
func (c *CollisionPrimitive) meshContact(p Vec3) (Vec3, Vec3, bool) {
	best := math.Inf(1)
	var closest, faceNormal Vec3
	found := false
	for t := 0; t+2 < len(c.Vertices); t += 3 {
		a := r3.Add(c.Position, c.Vertices[t])
		b := r3.Add(c.Position, c.Vertices[t+1])
		v := r3.Add(c.Position, c.Vertices[t+2])
		n := r3.Cross(r3.Sub(b, a), r3.Sub(v, a))
		if r3.Norm2(n) < epsilon*epsilon {
			continue
		}
		q := closestOnTriangle(p, a, b, v)
		if d := r3.Norm2(r3.Sub(p, q)); d < best {
			best, closest, faceNormal, found = d, q, r3.Unit(n), true
		}
	}
	if !found {
		return Vec3{}, Vec3{}, false
	}

	thickness := math.Max(0, c.Size.X)
	behind := r3.Dot(r3.Sub(p, closest), faceNormal) < 0
	if !behind && best >= thickness*thickness {
		return Vec3{}, Vec3{}, false
	}
	return madd(closest, faceNormal, thickness), faceNormal, true
}

// closestOnTriangle returns the point of triangle abc nearest to p, walking the
// Voronoi regions of the vertices and edges before falling back to the face.
func closestOnTriangle(p, a, b, c Vec3) Vec3 {
	ab, ac, ap := r3.Sub(b, a), r3.Sub(c, a), r3.Sub(p, a)
	d1, d2 := r3.Dot(ab, ap), r3.Dot(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := r3.Sub(p, b)
	d3, d4 := r3.Dot(ab, bp), r3.Dot(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return madd(a, ab, d1/(d1-d3))
	}

	cp := r3.Sub(p, c)
	d5, d6 := r3.Dot(ab, cp), r3.Dot(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return madd(a, ac, d2/(d2-d6))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		return madd(b, r3.Sub(c, b), (d4-d3)/((d4-d3)+(d5-d6)))
	}

	denom := 1 / (va + vb + vc)
	return r3.Add(a, r3.Add(r3.Scale(vb*denom, ab), r3.Scale(vc*denom, ac)))
}

// collide projects every free particle out of every primitive. Inward velocity
// is removed and tangential velocity is damped by friction, both through
// PreviousPosition. Returns the number of contacts resolved.
func (s *Simulator) collide() int {
	if len(s.colliders) == 0 {
		return 0
	}
	friction := clamp01(s.material.Friction)
	contacts := 0
	for i := range s.particles {
		p := &s.particles[i]
		if p.Fixed {
			continue
		}
		for j := range s.colliders {
			if resolveContact(p, &s.colliders[j], friction) {
				contacts++
			}
		}
	}
	return contacts
}

func resolveContact(p *Particle, prim *CollisionPrimitive, friction float64) bool {
	surface, n, hit := prim.Contact(p.Position)
	if !hit {
		return false
	}

	vel := r3.Sub(p.Position, p.PreviousPosition)
	p.Position = madd(surface, n, contactSkin)

	vn := r3.Dot(vel, n)
	tangential := madd(vel, n, -vn)
	if vn < 0 {
		vn = 0
	}
	vel = madd(r3.Scale(1-friction, tangential), n, vn)
	p.PreviousPosition = r3.Sub(p.Position, vel)
	return true
}

// AddCollisionObject stores a copy of prim.
func (s *Simulator) AddCollisionObject(prim CollisionPrimitive) error {
	if err := prim.Validate(); err != nil {
		return err
	}
	s.colliders = append(s.colliders, prim.clone())
	return nil
}

// RemoveCollisionObject deletes the primitive at index.
func (s *Simulator) RemoveCollisionObject(index int) error {
	if index < 0 || index >= len(s.colliders) {
		return fmt.Errorf("%w: collision object %d of %d", ErrIndexOutOfRange, index, len(s.colliders))
	}
	s.colliders = append(s.colliders[:index], s.colliders[index+1:]...)
	return nil
}

// ClearCollisionObjects removes every primitive.
func (s *Simulator) ClearCollisionObjects() {
	s.colliders = s.colliders[:0]
}

// SetCollisionObjects replaces the primitive list with copies of prims. Nothing
// changes if any primitive is invalid.
func (s *Simulator) SetCollisionObjects(prims []CollisionPrimitive) error {
	for i := range prims {
		if err := prims[i].Validate(); err != nil {
			return fmt.Errorf("collision object %d: %w", i, err)
		}
	}
	s.colliders = s.colliders[:0]
	for _, prim := range prims {
		s.colliders = append(s.colliders, prim.clone())
	}
	return nil
}

// CollisionObjects returns copies of the registered primitives.
func (s *Simulator) CollisionObjects() []CollisionPrimitive {
	out := make([]CollisionPrimitive, len(s.colliders))
	for i, c := range s.colliders {
		out[i] = c.clone()
	}
	return out
}
