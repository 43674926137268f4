package cloth

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Connectivity is the neighbour count used for adjacency and structural links.
type Connectivity int

const (
	Connect4 Connectivity = 4
	Connect8 Connectivity = 8
)

// Orientation selects the plane the sheet is laid out in.
type Orientation string

const (
	// Vertical lays the grid in the XY plane; row 0 is on top and rows extend toward -Y.
	Vertical Orientation = "vertical"
	// Horizontal lays the grid in the XZ plane; rows extend toward +Z.
	Horizontal Orientation = "horizontal"
)

// Topology controls which particles are linked when the grid is built.
type Topology struct {
	Connectivity Connectivity `json:"connectivity"`
	Orientation  Orientation  `json:"orientation"`
	Origin       Vec3         `json:"origin"`
	Bend         bool         `json:"bend"`   // Link particles two apart
	Volume       bool         `json:"volume"` // One area constraint per cell
	// StrandsOnly drops horizontal links, leaving independent vertical strands (hair).
	StrandsOnly bool `json:"strands_only"`
}

// DefaultTopology returns an 8-connected vertical sheet with bend links.
func DefaultTopology() Topology {
	return Topology{
		Connectivity: Connect8,
		Orientation:  Vertical,
		Bend:         true,
	}
}

func (t Topology) validate() error {
	if t.Connectivity != Connect4 && t.Connectivity != Connect8 {
		return fmt.Errorf("%w: connectivity must be 4 or 8, got %d", ErrConfiguration, t.Connectivity)
	}
	if t.Orientation != Vertical && t.Orientation != Horizontal {
		return fmt.Errorf("%w: unknown orientation %q", ErrConfiguration, t.Orientation)
	}
	return nil
}

// gridPosition returns the rest-layout position of grid cell (x, y).
func (t Topology) gridPosition(x, y int, spacing float64) Vec3 {
	offset := V3(float64(x)*spacing, -float64(y)*spacing, 0)
	if t.Orientation == Horizontal {
		offset = V3(float64(x)*spacing, 0, float64(y)*spacing)
	}
	return r3.Add(t.Origin, offset)
}

// neighborOffsets returns the adjacency stencil for the connectivity.
func (t Topology) neighborOffsets() [][2]int {
	four := [][2]int{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}
	if t.Connectivity == Connect4 {
		return four
	}
	return [][2]int{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}
}

// buildNeighbors fills each particle's neighbour list in stencil order.
func buildNeighbors(particles []Particle, width, height int, t Topology) {
	offsets := t.neighborOffsets()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := &particles[y*width+x]
			p.Neighbors = p.Neighbors[:0]
			for _, o := range offsets {
				nx, ny := x+o[0], y+o[1]
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				if t.StrandsOnly && o[0] != 0 {
					continue
				}
				p.Neighbors = append(p.Neighbors, ny*width+nx)
			}
		}
	}
}

// buildConstraints generates the structural, shear, bend and volume links for a
// freshly laid out grid. Rest values come from the current particle positions.
// Generated links keep their full correction; material damping belongs to the
// integrator only.
func buildConstraints(particles []Particle, width, height int, t Topology, m Material) []Constraint {
	var out []Constraint
	link := func(kind ConstraintKind, a, b int, stiffness float64) {
		out = append(out, Constraint{
			A:          a,
			B:          b,
			Kind:       kind,
			RestLength: r3.Norm(r3.Sub(particles[b].Position, particles[a].Position)),
			Stiffness:  stiffness,
			Damping:    1,
		})
	}
	at := func(x, y int) int { return y*width + x }

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x+1 < width && !t.StrandsOnly {
				link(Distance, at(x, y), at(x+1, y), m.Stiffness)
			}
			if y+1 < height {
				link(Distance, at(x, y), at(x, y+1), m.Stiffness)
			}
			if t.Connectivity == Connect8 && !t.StrandsOnly && x+1 < width && y+1 < height {
				link(Distance, at(x, y), at(x+1, y+1), m.Stiffness)
				link(Distance, at(x+1, y), at(x, y+1), m.Stiffness)
			}
		}
	}

	if t.Bend {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				if x+2 < width && !t.StrandsOnly {
					link(Bend, at(x, y), at(x+2, y), m.BendStiffness)
				}
				if y+2 < height {
					link(Bend, at(x, y), at(x, y+2), m.BendStiffness)
				}
			}
		}
	}

	if t.Volume && !t.StrandsOnly {
		for y := 0; y+1 < height; y++ {
			for x := 0; x+1 < width; x++ {
				a, b := at(x, y), at(x+1, y+1)
				out = append(out, Constraint{
					A:          a,
					B:          b,
					Kind:       Volume,
					RestLength: cellArea(particles, width, a, b),
					Stiffness:  m.Stiffness,
					Damping:    1,
				})
			}
		}
	}
	return out
}

// ClothType names a preset topology and anchoring.
type ClothType string

const (
	SoftBody   ClothType = "softbody"
	Hair       ClothType = "hair"
	Fabric     ClothType = "fabric"
	Flag       ClothType = "flag"
	CustomType ClothType = "custom"
)

// ParseClothType converts a preset name (case-insensitive) to a ClothType.
func ParseClothType(s string) (ClothType, error) {
	switch ct := ClothType(strings.ToLower(s)); ct {
	case SoftBody, Hair, Fabric, Flag, CustomType:
		return ct, nil
	case "":
		return CustomType, nil
	}
	return CustomType, fmt.Errorf("%w: unknown cloth type %q", ErrConfiguration, s)
}

// PresetTopology returns the topology used by a preset. CustomType returns base unchanged.
func PresetTopology(ct ClothType, base Topology) Topology {
	t := base
	switch ct {
	case SoftBody:
		t.Connectivity, t.Bend, t.Volume, t.StrandsOnly = Connect8, true, true, false
	case Hair:
		t.Connectivity, t.Bend, t.Volume, t.StrandsOnly = Connect4, true, false, true
	case Fabric:
		t.Connectivity, t.Bend, t.Volume, t.StrandsOnly = Connect8, true, false, false
	case Flag:
		t.Connectivity, t.Bend, t.Volume, t.StrandsOnly = Connect8, false, false, false
	}
	return t
}

// PresetAnchors returns the grid cells a preset pins: the pole column for flags,
// the top row for hair and fabric, nothing for soft bodies.
func PresetAnchors(ct ClothType, width, height int) [][2]int {
	var cells [][2]int
	switch ct {
	case Flag:
		for y := 0; y < height; y++ {
			cells = append(cells, [2]int{0, y})
		}
	case Hair, Fabric:
		for x := 0; x < width; x++ {
			cells = append(cells, [2]int{x, 0})
		}
	}
	return cells
}
