package geometry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovenbird/gingerhaus/internal/geometry"
)

func square(x0, z0, size float64) []geometry.Segment {
	a := geometry.Vec2{X: x0, Z: z0}
	b := geometry.Vec2{X: x0 + size, Z: z0}
	c := geometry.Vec2{X: x0 + size, Z: z0 + size}
	d := geometry.Vec2{X: x0, Z: z0 + size}
	return []geometry.Segment{{A: a, B: b}, {A: b, B: c}, {A: c, B: d}, {A: d, B: a}}
}

func TestSolveRoofsClosedSquare(t *testing.T) {
	roofs := geometry.SolveRoofs(square(0, 0, 4), 0.25, 12)
	require.Len(t, roofs, 1)
	assert.Len(t, roofs[0].Points, 4)
}

func TestSolveRoofsOpenLoopIsNoRoof(t *testing.T) {
	segs := square(0, 0, 4)[:3] // one side missing
	assert.Empty(t, geometry.SolveRoofs(segs, 0.25, 12))
}

func TestSolveRoofsToleratesEndpointSlop(t *testing.T) {
	segs := square(0, 0, 4)
	// nudge one endpoint within the clustering epsilon
	segs[3].B = geometry.Vec2{X: 0.1, Z: 0.05}
	roofs := geometry.SolveRoofs(segs, 0.25, 12)
	assert.Len(t, roofs, 1)
}

func TestSolveRoofsSlopBeyondEpsilonBreaksLoop(t *testing.T) {
	segs := square(0, 0, 4)
	segs[3].B = geometry.Vec2{X: 0.5, Z: 0}
	assert.Empty(t, geometry.SolveRoofs(segs, 0.25, 12))
}

func TestSolveRoofsAdjacentSquaresShareEdge(t *testing.T) {
	// two 4x4 squares sharing the x=4 edge: seven distinct walls
	segs := []geometry.Segment{
		{A: geometry.Vec2{X: 0, Z: 0}, B: geometry.Vec2{X: 4, Z: 0}},
		{A: geometry.Vec2{X: 4, Z: 0}, B: geometry.Vec2{X: 4, Z: 4}},
		{A: geometry.Vec2{X: 4, Z: 4}, B: geometry.Vec2{X: 0, Z: 4}},
		{A: geometry.Vec2{X: 0, Z: 4}, B: geometry.Vec2{X: 0, Z: 0}},
		{A: geometry.Vec2{X: 4, Z: 0}, B: geometry.Vec2{X: 8, Z: 0}},
		{A: geometry.Vec2{X: 8, Z: 0}, B: geometry.Vec2{X: 8, Z: 4}},
		{A: geometry.Vec2{X: 8, Z: 4}, B: geometry.Vec2{X: 4, Z: 4}},
	}
	roofs := geometry.SolveRoofs(segs, 0.25, 12)
	// each square plus the outer rectangle around both
	require.Len(t, roofs, 3)

	sigs := make(map[string]bool, len(roofs))
	for _, r := range roofs {
		sigs[r.Signature()] = true
	}
	assert.Len(t, sigs, 3, "signatures must be distinct")
}

func TestSolveRoofsDegenerateWallIgnored(t *testing.T) {
	segs := append(square(0, 0, 4), geometry.Segment{
		A: geometry.Vec2{X: 2, Z: 2},
		B: geometry.Vec2{X: 2.01, Z: 2},
	})
	// the tiny wall collapses into one cluster node and adds no edge
	assert.Len(t, geometry.SolveRoofs(segs, 0.25, 12), 1)
}

func TestSolveRoofsMaxCycleCap(t *testing.T) {
	roofs := geometry.SolveRoofs(square(0, 0, 4), 0.25, 3)
	assert.Empty(t, roofs, "a 4-node loop must not fit a 3-node cap")
}

func TestPointInRoof(t *testing.T) {
	roofs := geometry.SolveRoofs(square(0, 0, 4), 0.25, 12)
	require.Len(t, roofs, 1)
	roof := roofs[0]

	assert.True(t, geometry.PointInRoof(roof, geometry.Vec2{X: 2, Z: 2}, 0))
	assert.False(t, geometry.PointInRoof(roof, geometry.Vec2{X: 7, Z: 2}, 0))
	// overhang extends the footprint past the corner
	assert.True(t, geometry.PointInRoof(roof, geometry.Vec2{X: -0.3, Z: -0.3}, 0.6))
	assert.False(t, geometry.PointInRoof(roof, geometry.Vec2{X: -0.3, Z: -0.3}, 0))
}

func TestPointOnEdgeIsInside(t *testing.T) {
	roofs := geometry.SolveRoofs(square(0, 0, 4), 0.25, 12)
	require.Len(t, roofs, 1)
	assert.True(t, geometry.PointInRoof(roofs[0], geometry.Vec2{X: 2, Z: 0}, 0))
}

func TestPolygonExpandMovesAwayFromCentroid(t *testing.T) {
	roofs := geometry.SolveRoofs(square(0, 0, 4), 0.25, 12)
	require.Len(t, roofs, 1)
	grown := roofs[0].Expand(1.0)
	c := roofs[0].Centroid()
	for i, pt := range roofs[0].Points {
		assert.Greater(t, grown.Points[i].Dist(c), pt.Dist(c))
	}
}
