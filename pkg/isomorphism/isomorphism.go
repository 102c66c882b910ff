// Package isomorphism decides whether two flow graphs have the same
// topology, ignoring every attribute value.
//
// The search is a backtracking vertex correspondence. Before it starts,
// cheap invariants reject most non-isomorphic pairs: vertex and edge
// counts, the degree sequence, connected component sizes and a joint
// colour refinement of both graphs. Refined colours also restrict which
// vertices may be paired during the search.
package isomorphism

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/ritzau/graphcompare/pkg/graph"
	"github.com/ritzau/graphcompare/pkg/logging"
	"gonum.org/v1/gonum/graph/topo"
)

var logger = logging.New("isomorphism")

// Mapping pairs each vertex of the first graph with a vertex of the second
type Mapping map[*graph.Vertex]*graph.Vertex

// Isomorphic reports whether a and b are isomorphic as undirected
// multigraphs. Parallel edges and self-loops must correspond one to one.
func Isomorphic(a, b *graph.DotGraph) bool {
	_, ok := Match(a, b)
	return ok
}

// Match returns a vertex bijection between a and b that preserves
// adjacency and edge multiplicity, or false if none exists
func Match(a, b *graph.DotGraph) (Mapping, bool) {
	if reason := rejectByCounts(a, b); reason != "" {
		logger.Debug("not isomorphic", "reason", reason, "a", a.Name(), "b", b.Name())
		return nil, false
	}

	sa, sb := newShape(a), newShape(b)
	if !slices.Equal(sa.degreeSequence(), sb.degreeSequence()) {
		logger.Debug("not isomorphic", "reason", "degree sequence", "a", a.Name(), "b", b.Name())
		return nil, false
	}
	if !slices.Equal(componentSizes(a), componentSizes(b)) {
		logger.Debug("not isomorphic", "reason", "component sizes", "a", a.Name(), "b", b.Name())
		return nil, false
	}
	if !refine(sa, sb) {
		logger.Debug("not isomorphic", "reason", "colour refinement", "a", a.Name(), "b", b.Name())
		return nil, false
	}

	s := newSearch(sa, sb)
	if !s.run() {
		logger.Debug("not isomorphic", "reason", "no correspondence", "a", a.Name(), "b", b.Name())
		return nil, false
	}

	mapping := make(Mapping, len(s.forward))
	for x, y := range s.forward {
		mapping[sa.vertices[x]] = sb.vertices[y]
	}
	return mapping, true
}

func rejectByCounts(a, b *graph.DotGraph) string {
	switch {
	case a.Order() != b.Order():
		return "vertex count"
	case a.Size() != b.Size():
		return "edge count"
	}
	return ""
}

// componentSizes returns the sorted sizes of the connected components
func componentSizes(g *graph.DotGraph) []int {
	components := topo.ConnectedComponents(g.Graph())
	sizes := make([]int, len(components))
	for i, c := range components {
		sizes[i] = len(c)
	}
	slices.Sort(sizes)
	return sizes
}

// shape is a dense, attribute-free view of a graph. Vertices are numbered
// 0..n-1 in ID order.
type shape struct {
	vertices []*graph.Vertex
	adj      []map[int]int // neighbour index -> parallel edge count, loops excluded
	loops    []int
	colour   []int
}

func newShape(g *graph.DotGraph) *shape {
	vertices := g.Vertices()
	index := make(map[int64]int, len(vertices))
	for i, v := range vertices {
		index[v.ID()] = i
	}

	s := &shape{
		vertices: vertices,
		adj:      make([]map[int]int, len(vertices)),
		loops:    make([]int, len(vertices)),
		colour:   make([]int, len(vertices)),
	}
	for i, v := range vertices {
		s.adj[i] = make(map[int]int)
		for _, e := range g.Incident(v) {
			u := e.Opposite(v)
			if u.ID() == v.ID() {
				s.loops[i]++
				continue
			}
			s.adj[i][index[u.ID()]]++
		}
	}
	return s
}

func (s *shape) degree(i int) int {
	d := 2 * s.loops[i]
	for _, n := range s.adj[i] {
		d += n
	}
	return d
}

func (s *shape) degreeSequence() []int {
	seq := make([]int, len(s.vertices))
	for i := range s.vertices {
		seq[i] = s.degree(i)
	}
	slices.Sort(seq)
	return seq
}

// neighbours returns the neighbour indices of i in ascending order
func (s *shape) neighbours(i int) []int {
	result := make([]int, 0, len(s.adj[i]))
	for j := range s.adj[i] {
		result = append(result, j)
	}
	slices.Sort(result)
	return result
}

// signature is a vertex's colour together with the multiset of
// (neighbour colour, multiplicity) pairs around it
type signature struct {
	colour    int
	neighbour string
}

type colourCount struct {
	colour, count int
}

// refine runs colour refinement on both shapes with a shared palette, so
// equal colours mean equal local structure across the two graphs. It
// returns false as soon as the colour histograms differ.
func refine(a, b *shape) bool {
	palette := make(map[signature]int)
	initial := func(s *shape, i int) signature {
		return signature{colour: s.degree(i), neighbour: strconv.Itoa(s.loops[i])}
	}
	classes := recolour(palette, a, b, initial)
	if !sameHistogram(a, b) {
		return false
	}

	for {
		palette = make(map[signature]int)
		next := recolour(palette, a, b, func(s *shape, i int) signature {
			pairs := make([]colourCount, 0, len(s.adj[i]))
			for j, n := range s.adj[i] {
				pairs = append(pairs, colourCount{s.colour[j], n})
			}
			slices.SortFunc(pairs, func(x, y colourCount) int {
				if c := cmp.Compare(x.colour, y.colour); c != 0 {
					return c
				}
				return cmp.Compare(x.count, y.count)
			})
			return signature{colour: s.colour[i], neighbour: encodePairs(pairs)}
		})
		if !sameHistogram(a, b) {
			return false
		}
		if next == classes {
			return true
		}
		classes = next
	}
}

// recolour assigns palette colours to every vertex of both shapes and
// returns the number of colours in use
func recolour(palette map[signature]int, a, b *shape, sig func(*shape, int) signature) int {
	ca, cb := make([]int, len(a.vertices)), make([]int, len(b.vertices))
	for _, side := range []struct {
		s   *shape
		out []int
	}{{a, ca}, {b, cb}} {
		for i := range side.s.vertices {
			key := sig(side.s, i)
			c, ok := palette[key]
			if !ok {
				c = len(palette)
				palette[key] = c
			}
			side.out[i] = c
		}
	}
	a.colour, b.colour = ca, cb
	return len(palette)
}

func encodePairs(pairs []colourCount) string {
	buf := make([]byte, 0, 8*len(pairs))
	for _, p := range pairs {
		buf = strconv.AppendInt(buf, int64(p.colour), 10)
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, int64(p.count), 10)
		buf = append(buf, ',')
	}
	return string(buf)
}

func sameHistogram(a, b *shape) bool {
	ha, hb := make(map[int]int), make(map[int]int)
	for _, c := range a.colour {
		ha[c]++
	}
	for _, c := range b.colour {
		hb[c]++
	}
	if len(ha) != len(hb) {
		return false
	}
	for c, n := range ha {
		if hb[c] != n {
			return false
		}
	}
	return true
}
