package geometry

import "math"

// CellKey addresses one cell of the ground occupancy grid.
type CellKey struct {
	X int
	Z int
}

// Bounds is the fixed axis-aligned world rectangle pieces may occupy.
type Bounds struct {
	MinX float64 `mapstructure:"min_x"`
	MaxX float64 `mapstructure:"max_x"`
	MinZ float64 `mapstructure:"min_z"`
	MaxZ float64 `mapstructure:"max_z"`
}

func (b Bounds) Contains(p Vec3) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Z >= b.MinZ && p.Z <= b.MaxZ
}

// CellOf discretizes a world position onto the grid. Cell size must be
// positive; callers own that invariant via config validation.
func CellOf(p Vec3, cellSize float64) CellKey {
	return CellKey{
		X: int(math.Round(p.X / cellSize)),
		Z: int(math.Round(p.Z / cellSize)),
	}
}

// CellCenter is the inverse of CellOf for the X/Z plane.
func CellCenter(c CellKey, cellSize float64) Vec2 {
	return Vec2{X: float64(c.X) * cellSize, Z: float64(c.Z) * cellSize}
}

// ringDirections is the fixed angular scan order of the nearest-free-cell
// search: east first, then counter-clockwise. Placement tie-breaking depends
// on this order, so saved rooms resolve identically across restarts.
var ringDirections = [8]CellKey{
	{X: 1, Z: 0},
	{X: 1, Z: -1},
	{X: 0, Z: -1},
	{X: -1, Z: -1},
	{X: -1, Z: 0},
	{X: -1, Z: 1},
	{X: 0, Z: 1},
	{X: 1, Z: 1},
}

// RingScan visits the target cell, then the 8 compass samples of each
// concentric ring out to maxRadius, calling visit until it returns true.
// It reports whether any visit accepted a cell, and which one.
func RingScan(target CellKey, maxRadius int, visit func(CellKey) bool) (CellKey, bool) {
	if visit(target) {
		return target, true
	}
	for r := 1; r <= maxRadius; r++ {
		for _, d := range ringDirections {
			c := CellKey{X: target.X + d.X*r, Z: target.Z + d.Z*r}
			if visit(c) {
				return c, true
			}
		}
	}
	return CellKey{}, false
}

// LineCells rasterizes the segment between two cells with a Bresenham walk,
// visiting every cell once from start to end inclusive.
func LineCells(start, end CellKey) []CellKey {
	dx := abs(end.X - start.X)
	dz := abs(end.Z - start.Z)
	sx := sign(end.X - start.X)
	sz := sign(end.Z - start.Z)

	cells := make([]CellKey, 0, dx+dz+1)
	x, z := start.X, start.Z
	err := dx - dz
	for {
		cells = append(cells, CellKey{X: x, Z: z})
		if x == end.X && z == end.Z {
			return cells
		}
		e2 := 2 * err
		if e2 > -dz {
			err -= dz
			x += sx
		}
		if e2 < dx {
			err += dx
			z += sz
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}
