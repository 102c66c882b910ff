package graph

import (
	"cmp"
	"slices"

	"github.com/ritzau/graphcompare/pkg/model"
	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/multi"
)

// Vertex is a flow-graph node carrying its DOT attributes
type Vertex struct {
	id int64
	model.VertexAttrs
}

// ID implements gonum's graph.Node
func (v *Vertex) ID() int64 {
	return v.id
}

func (v *Vertex) String() string {
	return v.Name
}

// Edge is an undirected flow-graph line carrying its DOT attributes.
// Parallel edges between the same vertices are distinct Edge values.
type Edge struct {
	id       int64 // gonum line ID, unique only between one vertex pair
	serial   int64 // graph-wide creation order
	from, to *Vertex
	model.EdgeAttrs
}

// ID implements gonum's graph.Line
func (e *Edge) ID() int64 {
	return e.id
}

// Serial returns the edge's position in declaration order. Unlike ID it
// is unique across the whole graph.
func (e *Edge) Serial() int64 {
	return e.serial
}

// From implements gonum's graph.Line
func (e *Edge) From() gonum.Node {
	return e.from
}

// To implements gonum's graph.Line
func (e *Edge) To() gonum.Node {
	return e.to
}

// ReversedLine implements gonum's graph.Line
func (e *Edge) ReversedLine() gonum.Line {
	return reversedEdge{e}
}

// reversedEdge is the view of an Edge that gonum hands out when a line is
// walked against its declared direction
type reversedEdge struct {
	*Edge
}

func (r reversedEdge) From() gonum.Node         { return r.Edge.to }
func (r reversedEdge) To() gonum.Node           { return r.Edge.from }
func (r reversedEdge) ReversedLine() gonum.Line { return r.Edge }

// asEdge recovers the declared Edge from a line returned by gonum
func asEdge(l gonum.Line) *Edge {
	switch e := l.(type) {
	case *Edge:
		return e
	case reversedEdge:
		return e.Edge
	}
	return nil
}

// Endpoints returns the two vertices the edge joins, in declaration order
func (e *Edge) Endpoints() (*Vertex, *Vertex) {
	return e.from, e.to
}

// Opposite returns the endpoint of e that is not v. For a self-loop it returns v.
func (e *Edge) Opposite(v *Vertex) *Vertex {
	if e.from.id == v.id {
		return e.to
	}
	return e.from
}

// DotGraph is an attributed flow-topology graph. It is built once by a
// Builder and is read-only afterwards, so it can be shared by any number of
// sequential or concurrent comparisons.
type DotGraph struct {
	graph    *multi.UndirectedGraph
	attrs    model.GraphAttrs
	vertices []*Vertex          // sorted by ID
	edges    []*Edge            // sorted by serial
	byID     map[int64]*Vertex  // vertex ID -> vertex
	byName   map[string]*Vertex // DOT node ID -> vertex
	incident map[int64][]*Edge  // vertex ID -> incident edges, sorted by serial
}

// Name returns the DOT graph ID
func (g *DotGraph) Name() string {
	return g.attrs.Name
}

// Attrs returns the graph-level attributes
func (g *DotGraph) Attrs() model.GraphAttrs {
	return g.attrs
}

// Order returns the number of vertices
func (g *DotGraph) Order() int {
	return len(g.vertices)
}

// Size returns the number of edges, counting parallel edges separately
func (g *DotGraph) Size() int {
	return len(g.edges)
}

// Vertices returns all vertices in ID order. The slice must not be modified.
func (g *DotGraph) Vertices() []*Vertex {
	return g.vertices
}

// Edges returns all edges in declaration order. The slice must not be modified.
func (g *DotGraph) Edges() []*Edge {
	return g.edges
}

// Vertex returns the vertex with the given ID, or nil
func (g *DotGraph) Vertex(id int64) *Vertex {
	return g.byID[id]
}

// VertexByName returns the vertex with the given DOT node ID
func (g *DotGraph) VertexByName(name string) (*Vertex, bool) {
	v, ok := g.byName[name]
	return v, ok
}

// Incident returns the edges touching v in declaration order. A self-loop
// appears once.
func (g *DotGraph) Incident(v *Vertex) []*Edge {
	return g.incident[v.id]
}

// VerticesAt returns the vertices on the given hierarchy level in ID order
func (g *DotGraph) VerticesAt(level model.Level) []*Vertex {
	var result []*Vertex
	for _, v := range g.vertices {
		if v.Level == level {
			result = append(result, v)
		}
	}
	return result
}

// Graph returns the underlying gonum multigraph. Callers must not mutate it.
func (g *DotGraph) Graph() *multi.UndirectedGraph {
	return g.graph
}

// index builds the lookup tables from the gonum graph
func (g *DotGraph) index() {
	g.byID = make(map[int64]*Vertex)
	g.byName = make(map[string]*Vertex)
	g.incident = make(map[int64][]*Edge)

	nodes := g.graph.Nodes()
	for nodes.Next() {
		v := nodes.Node().(*Vertex)
		g.vertices = append(g.vertices, v)
		g.byID[v.id] = v
		g.byName[v.Name] = v
	}
	slices.SortFunc(g.vertices, func(a, b *Vertex) int { return cmp.Compare(a.id, b.id) })

	seen := make(map[int64]bool)
	for _, v := range g.vertices {
		neighbors := g.graph.From(v.id)
		for neighbors.Next() {
			lines := g.graph.Lines(v.id, neighbors.Node().ID())
			for lines.Next() {
				e := asEdge(lines.Line())
				if e == nil {
					continue
				}
				g.incident[v.id] = append(g.incident[v.id], e)
				if !seen[e.serial] {
					seen[e.serial] = true
					g.edges = append(g.edges, e)
				}
			}
		}
		slices.SortFunc(g.incident[v.id], bySerial)
	}
	slices.SortFunc(g.edges, bySerial)
}

func bySerial(a, b *Edge) int {
	return cmp.Compare(a.serial, b.serial)
}
