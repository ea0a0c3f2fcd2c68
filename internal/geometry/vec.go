// Package geometry holds the grid and roof math shared by the room engine.
// Everything here is pure: no entity knowledge, no clocks, no locks.
package geometry

import "math"

type Vec2 struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) XZ() Vec2 { return Vec2{X: v.X, Z: v.Z} }

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Z: v.Z - o.Z} }

func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Z) }

func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Len() }

// Finite reports whether every component is a real number. Wire payloads can
// smuggle NaN/Inf through JSON-adjacent encoders, so entities validate with
// this before any mutation.
func (v Vec3) Finite() bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

func (v Vec2) Finite() bool { return finite(v.X) && finite(v.Z) }

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
