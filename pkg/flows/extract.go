package flows

import (
	"context"
	"fmt"

	"github.com/ritzau/graphcompare/pkg/graph"
	"github.com/ritzau/graphcompare/pkg/logging"
	"github.com/ritzau/graphcompare/pkg/model"
)

var logger = logging.New("flows")

// Extractor collects the flow records of a graph by walking the
// localIP -> remoteIP hierarchy from the root
type Extractor struct {
	levels int
}

// Option configures an Extractor
type Option func(*Extractor)

// WithLevels sets the hierarchy depth. The default is model.FlowLevels;
// smaller values treat a shallower level as the leaf.
func WithLevels(levels int) Option {
	return func(e *Extractor) {
		e.levels = levels
	}
}

// NewExtractor creates an extractor for complete five-level hierarchies
// unless overridden by options
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{levels: model.FlowLevels}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Levels returns the configured hierarchy depth
func (e *Extractor) Levels() int {
	return e.levels
}

// Extract locates the graph's unique localIP vertex and collects every
// flow below it. A missing or duplicated root is a *graph.StructuralError.
func (e *Extractor) Extract(g *graph.DotGraph) (*Set, error) {
	root, err := g.LocalRoot()
	if err != nil {
		return nil, err
	}
	return e.ExtractFrom(g, root)
}

// ExtractFrom collects every flow below root. root is treated as level 1
// whatever its name.
func (e *Extractor) ExtractFrom(g *graph.DotGraph, root *graph.Vertex) (*Set, error) {
	if e.levels < 1 || e.levels > model.FlowLevels {
		return nil, fmt.Errorf("hierarchy depth %d out of range 1..%d", e.levels, model.FlowLevels)
	}

	w := &walk{graph: g, leaf: model.Level(e.levels), result: NewSet()}
	w.visit(root, model.LevelLocalIP, Record{})

	logger.Debug("extracted flows", "graph", g.Name(), "root", root.Name, "flows", w.result.Len(), "distinct", w.result.Distinct())
	return w.result, nil
}

// walk holds the state of one extraction
type walk struct {
	graph  *graph.DotGraph
	leaf   model.Level
	result *Set
}

// visit fills in v's fields for level and descends into next-level
// neighbours. rec is passed by value so sibling branches never share state.
// Each step goes exactly one level down and stops at the leaf, so the walk
// ends after at most w.leaf calls deep even on cyclic input.
func (w *walk) visit(v *graph.Vertex, level model.Level, rec Record) {
	rec.setVertex(level, v.VertexAttrs)
	if level == w.leaf {
		logger.Log(context.Background(), logging.LevelTrace, "flow", "record", rec.String())
		w.result.Add(rec)
		return
	}

	next := level.Next()
	for _, e := range w.graph.Incident(v) {
		u := e.Opposite(v)
		if u.Level != next {
			continue
		}

		branch := rec
		branch.setEdge(level, e.EdgeAttrs)
		w.visit(u, next, branch)
	}
}
