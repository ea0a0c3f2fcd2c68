package geometry

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Segment is one wall projected onto the ground plane.
type Segment struct {
	A Vec2
	B Vec2
}

// Polygon is a closed loop of clustered wall endpoints, in world coordinates.
// Nodes keeps the cluster ids so loops can be compared structurally.
type Polygon struct {
	Nodes  []int
	Points []Vec2
}

// Signature is the canonical identity of a loop: its sorted node ids.
// Two loops over the same node set collapse to one signature.
func (p Polygon) Signature() string {
	ids := make([]int, len(p.Nodes))
	copy(ids, p.Nodes)
	sort.Ints(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}

func (p Polygon) Centroid() Vec2 {
	var c Vec2
	if len(p.Points) == 0 {
		return c
	}
	for _, pt := range p.Points {
		c.X += pt.X
		c.Z += pt.Z
	}
	c.X /= float64(len(p.Points))
	c.Z /= float64(len(p.Points))
	return c
}

// SolveRoofs derives the closed wall loops of the current wall set. It is a
// pure recomputation: cluster endpoints within eps, build the undirected
// segment graph, enumerate simple cycles longer than two nodes with an
// explicit-stack DFS capped at maxCycle nodes, and keep one polygon per
// distinct node-set signature.
func SolveRoofs(segments []Segment, eps float64, maxCycle int) []Polygon {
	nodes, edges := clusterGraph(segments, eps)
	if len(nodes) < 3 {
		return nil
	}

	adj := make(map[int][]int, len(nodes))
	for e := range edges {
		adj[e.a] = append(adj[e.a], e.b)
		adj[e.b] = append(adj[e.b], e.a)
	}
	for n := range adj {
		sort.Ints(adj[n])
	}

	seen := make(map[string]bool)
	var roofs []Polygon
	for start := range nodes {
		for _, cycle := range cyclesFrom(start, adj, maxCycle) {
			poly := Polygon{Nodes: cycle}
			sig := poly.Signature()
			if seen[sig] {
				continue
			}
			seen[sig] = true
			poly.Points = make([]Vec2, len(cycle))
			for i, id := range cycle {
				poly.Points[i] = nodes[id]
			}
			roofs = append(roofs, poly)
		}
	}
	return roofs
}

type edgeKey struct {
	a int
	b int
}

func clusterGraph(segments []Segment, eps float64) ([]Vec2, map[edgeKey]bool) {
	var nodes []Vec2
	cluster := func(p Vec2) int {
		for i, n := range nodes {
			if n.Dist(p) <= eps {
				return i
			}
		}
		nodes = append(nodes, p)
		return len(nodes) - 1
	}

	edges := make(map[edgeKey]bool, len(segments))
	for _, s := range segments {
		a := cluster(s.A)
		b := cluster(s.B)
		if a == b {
			continue // degenerate wall collapsed into one node
		}
		if a > b {
			a, b = b, a
		}
		edges[edgeKey{a: a, b: b}] = true
	}
	return nodes, edges
}

type dfsFrame struct {
	node int
	next int
}

// cyclesFrom enumerates simple cycles through start. The visited set is local
// to the walk (path membership), so concurrent or repeated calls never share
// state.
func cyclesFrom(start int, adj map[int][]int, maxCycle int) [][]int {
	var cycles [][]int
	path := []int{start}
	onPath := map[int]bool{start: true}
	stack := []dfsFrame{{node: start}}

	for len(stack) > 0 {
		frame := &stack[len(stack)-1]
		neighbors := adj[frame.node]
		if frame.next >= len(neighbors) {
			stack = stack[:len(stack)-1]
			delete(onPath, frame.node)
			path = path[:len(path)-1]
			continue
		}
		nb := neighbors[frame.next]
		frame.next++

		if nb == start {
			if len(path) > 2 {
				cycle := make([]int, len(path))
				copy(cycle, path)
				cycles = append(cycles, cycle)
			}
			continue
		}
		if onPath[nb] || len(path) >= maxCycle {
			continue
		}
		onPath[nb] = true
		path = append(path, nb)
		stack = append(stack, dfsFrame{node: nb})
	}
	return cycles
}

// Expand grows the polygon outward from its centroid by the given overhang,
// matching how roofs visually extend past the walls that carry them.
func (p Polygon) Expand(overhang float64) Polygon {
	c := p.Centroid()
	out := Polygon{Nodes: p.Nodes, Points: make([]Vec2, len(p.Points))}
	for i, pt := range p.Points {
		d := pt.Sub(c)
		l := d.Len()
		if l == 0 {
			out.Points[i] = pt
			continue
		}
		out.Points[i] = Vec2{X: pt.X + d.X/l*overhang, Z: pt.Z + d.Z/l*overhang}
	}
	return out
}

// PointInRoof reports whether pt lies under the roof polygon expanded by
// overhang. Points exactly on an edge count as inside.
func PointInRoof(p Polygon, pt Vec2, overhang float64) bool {
	return p.Expand(overhang).contains(pt)
}

func (p Polygon) contains(pt Vec2) bool {
	n := len(p.Points)
	if n < 3 {
		return false
	}
	const edgeEps = 1e-9
	inside := false
	for i := 0; i < n; i++ {
		a := p.Points[i]
		b := p.Points[(i+1)%n]
		if distToSegment(pt, a, b) <= edgeEps {
			return true
		}
		if (a.Z > pt.Z) != (b.Z > pt.Z) {
			x := a.X + (pt.Z-a.Z)/(b.Z-a.Z)*(b.X-a.X)
			if pt.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

func distToSegment(p, a, b Vec2) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Z*ab.Z
	if l2 == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*ab.X + (p.Z-a.Z)*ab.Z) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Dist(Vec2{X: a.X + t*ab.X, Z: a.Z + t*ab.Z})
}
