package graph

import (
	"github.com/ritzau/graphcompare/pkg/model"
	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/multi"
)

// Builder assembles a DotGraph. It satisfies gonum's encoding.MultiBuilder
// together with the DOT decoder's attribute and ID setter hooks, so it can
// be handed straight to dot.UnmarshalMulti, and it also offers a small
// programmatic API (AddVertex/Connect) for constructing graphs in code.
type Builder struct {
	*multi.UndirectedGraph
	attrs model.GraphAttrs
	names map[string]*Vertex
	lines int64
}

// NewBuilder creates an empty graph builder
func NewBuilder() *Builder {
	return &Builder{
		UndirectedGraph: multi.NewUndirectedGraph(),
		names:           make(map[string]*Vertex),
	}
}

// NewNode returns an empty vertex
func (b *Builder) NewNode() gonum.Node {
	return &Vertex{id: b.UndirectedGraph.NewNode().ID()}
}

// NewLine returns an edge between two vertices of the builder
func (b *Builder) NewLine(from, to gonum.Node) gonum.Line {
	b.lines++
	e := &Edge{
		id:     b.UndirectedGraph.NewLine(from, to).ID(),
		serial: b.lines,
		from:   b.vertexFor(from),
		to:     b.vertexFor(to),
	}
	return e
}

// SetDOTID records the DOT graph ID
func (b *Builder) SetDOTID(id string) {
	b.attrs.Name = id
}

// DOTAttributeSetters returns the setter for graph attributes. Node and edge
// default statements are resolved before decoding, so there are no setters
// for them.
func (b *Builder) DOTAttributeSetters() (graph, node, edge encoding.AttributeSetter) {
	return graphAttrSetter{&b.attrs}, nil, nil
}

// SetGraphAttr sets a graph-level attribute
func (b *Builder) SetGraphAttr(key, value string) error {
	return b.attrs.Set(key, value)
}

// AddVertex adds a named vertex. If the name already exists the existing
// vertex is returned unchanged.
func (b *Builder) AddVertex(name string, attrs model.VertexAttrs) *Vertex {
	if v, exists := b.names[name]; exists {
		return v
	}
	v := b.NewNode().(*Vertex)
	v.VertexAttrs = attrs
	v.SetName(name)
	b.AddNode(v)
	return v
}

// AddNode implements gonum's graph.NodeAdder and indexes named vertices
func (b *Builder) AddNode(n gonum.Node) {
	b.UndirectedGraph.AddNode(n)
	if v, ok := n.(*Vertex); ok && v.Name != "" {
		b.names[v.Name] = v
	}
}

// Connect adds an edge between two named vertices, creating missing
// vertices with empty attributes
func (b *Builder) Connect(from, to string, attrs model.EdgeAttrs) *Edge {
	u := b.AddVertex(from, model.VertexAttrs{})
	v := b.AddVertex(to, model.VertexAttrs{})
	e := b.NewLine(u, v).(*Edge)
	e.EdgeAttrs = attrs
	b.SetLine(e)
	return e
}

// Build freezes the builder's contents into a DotGraph. The builder is
// reset and must not be used to extend the returned graph.
func (b *Builder) Build() *DotGraph {
	g := &DotGraph{
		graph: b.UndirectedGraph,
		attrs: b.attrs,
	}
	g.index()

	*b = *NewBuilder()
	return g
}

// vertexFor maps a gonum node handed to NewLine back to its Vertex
func (b *Builder) vertexFor(n gonum.Node) *Vertex {
	if v, ok := n.(*Vertex); ok {
		return v
	}
	if v, ok := b.Node(n.ID()).(*Vertex); ok {
		return v
	}
	return &Vertex{id: n.ID()}
}

// SetDOTID implements the DOT decoder's node ID hook
func (v *Vertex) SetDOTID(id string) {
	v.SetName(id)
}

// SetAttribute implements encoding.AttributeSetter
func (v *Vertex) SetAttribute(a encoding.Attribute) error {
	return v.Set(a.Key, a.Value)
}

// SetAttribute implements encoding.AttributeSetter
func (e *Edge) SetAttribute(a encoding.Attribute) error {
	return e.Set(a.Key, a.Value)
}

type graphAttrSetter struct {
	attrs *model.GraphAttrs
}

func (s graphAttrSetter) SetAttribute(a encoding.Attribute) error {
	return s.attrs.Set(a.Key, a.Value)
}
