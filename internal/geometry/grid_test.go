package geometry_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovenbird/gingerhaus/internal/geometry"
)

func TestCellOfRoundsToNearest(t *testing.T) {
	assert.Equal(t, geometry.CellKey{X: 0, Z: 0}, geometry.CellOf(geometry.Vec3{X: 0.4, Z: -0.4}, 1.0))
	assert.Equal(t, geometry.CellKey{X: 1, Z: -1}, geometry.CellOf(geometry.Vec3{X: 0.6, Z: -0.6}, 1.0))
	assert.Equal(t, geometry.CellKey{X: 3, Z: 2}, geometry.CellOf(geometry.Vec3{X: 1.5, Z: 1.1}, 0.5))
}

func TestCellCenterInvertsCellOf(t *testing.T) {
	c := geometry.CellOf(geometry.Vec3{X: 2.2, Z: -3.4}, 1.0)
	center := geometry.CellCenter(c, 1.0)
	assert.Equal(t, c, geometry.CellOf(geometry.Vec3{X: center.X, Z: center.Z}, 1.0))
}

func TestRingScanVisitsTargetFirst(t *testing.T) {
	target := geometry.CellKey{X: 3, Z: 3}
	got, ok := geometry.RingScan(target, 5, func(c geometry.CellKey) bool { return true })
	require.True(t, ok)
	assert.Equal(t, target, got)
}

func TestRingScanPrefersEastNeighbor(t *testing.T) {
	target := geometry.CellKey{X: 0, Z: 0}
	got, ok := geometry.RingScan(target, 5, func(c geometry.CellKey) bool { return c != target })
	require.True(t, ok)
	assert.Equal(t, geometry.CellKey{X: 1, Z: 0}, got)
}

func TestRingScanExpandsRadius(t *testing.T) {
	// accept nothing within radius 1; the first radius-2 sample is east at
	// distance 2
	accept := geometry.CellKey{X: 2, Z: 0}
	got, ok := geometry.RingScan(geometry.CellKey{}, 5, func(c geometry.CellKey) bool { return c == accept })
	require.True(t, ok)
	assert.Equal(t, accept, got)
}

func TestRingScanGivesUpPastMaxRadius(t *testing.T) {
	_, ok := geometry.RingScan(geometry.CellKey{}, 2, func(c geometry.CellKey) bool { return false })
	assert.False(t, ok)
}

func TestLineCellsEndpointsInclusive(t *testing.T) {
	cells := geometry.LineCells(geometry.CellKey{X: 0, Z: 0}, geometry.CellKey{X: 4, Z: 2})
	require.NotEmpty(t, cells)
	assert.Equal(t, geometry.CellKey{X: 0, Z: 0}, cells[0])
	assert.Equal(t, geometry.CellKey{X: 4, Z: 2}, cells[len(cells)-1])

	seen := make(map[geometry.CellKey]bool)
	for _, c := range cells {
		assert.False(t, seen[c], "cell %v visited twice", c)
		seen[c] = true
	}
}

func TestLineCellsDegenerate(t *testing.T) {
	cells := geometry.LineCells(geometry.CellKey{X: 2, Z: 2}, geometry.CellKey{X: 2, Z: 2})
	assert.Equal(t, []geometry.CellKey{{X: 2, Z: 2}}, cells)
}

func TestBoundsContains(t *testing.T) {
	b := geometry.Bounds{MinX: -20, MaxX: 20, MinZ: -20, MaxZ: 20}
	assert.True(t, b.Contains(geometry.Vec3{X: 20, Z: -20}))
	assert.False(t, b.Contains(geometry.Vec3{X: 20.01, Z: 0}))
}

func TestVecFinite(t *testing.T) {
	assert.False(t, geometry.Vec3{X: math.NaN()}.Finite())
	assert.False(t, geometry.Vec3{Z: math.Inf(1)}.Finite())
	assert.True(t, geometry.Vec3{X: 1, Y: 2, Z: 3}.Finite())
	assert.False(t, geometry.Vec2{X: math.NaN()}.Finite())
}
