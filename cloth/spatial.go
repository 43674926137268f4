package cloth

import "math"

// cellKey addresses one cell of the spatial hash.
type cellKey struct {
	X, Y, Z int32
}

// spatialHash buckets particle indices into uniform cubic cells. It is unbounded,
// so the sheet can travel anywhere. Buckets hold indices in insertion order,
// which keeps queries deterministic.
type spatialHash struct {
	cellSize float64
	cells    map[cellKey][]int
}

// newSpatialHash creates a hash with the given cell edge length.
func newSpatialHash(cellSize float64) *spatialHash {
	return &spatialHash{
		cellSize: cellSize,
		cells:    make(map[cellKey][]int),
	}
}

// Clear empties every bucket.
func (h *spatialHash) Clear() {
	clear(h.cells)
}

func (h *spatialHash) key(p Vec3) cellKey {
	inv := 1 / h.cellSize
	return cellKey{
		X: int32(math.Floor(p.X * inv)),
		Y: int32(math.Floor(p.Y * inv)),
		Z: int32(math.Floor(p.Z * inv)),
	}
}

// Insert adds particle index i at position p.
func (h *spatialHash) Insert(i int, p Vec3) {
	k := h.key(p)
	h.cells[k] = append(h.cells[k], i)
}

// QueryInto appends to dst every index stored in the 27 cells around p and
// returns the extended slice. Reuse dst across calls to avoid allocations.
func (h *spatialHash) QueryInto(dst []int, p Vec3) []int {
	c := h.key(p)
	for dz := int32(-1); dz <= 1; dz++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dx := int32(-1); dx <= 1; dx++ {
				dst = append(dst, h.cells[cellKey{c.X + dx, c.Y + dy, c.Z + dz}]...)
			}
		}
	}
	return dst
}
