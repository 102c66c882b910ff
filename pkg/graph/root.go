package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ritzau/graphcompare/pkg/model"
)

var (
	// ErrNoLocalRoot is returned when a graph has no level-1 vertex
	ErrNoLocalRoot = errors.New("no local IP vertex")
	// ErrMultipleLocalRoots is returned when a graph has more than one level-1 vertex
	ErrMultipleLocalRoots = errors.New("multiple local IP vertices")
)

// StructuralError reports a violation of the single-root invariant.
// It matches ErrNoLocalRoot or ErrMultipleLocalRoots with errors.Is.
type StructuralError struct {
	Graph      string   // DOT graph name, may be empty
	Prefix     string   // the root prefix that was searched for
	Candidates []string // names of the matching vertices
}

func (e *StructuralError) Error() string {
	name := e.Graph
	if name == "" {
		name = "<unnamed>"
	}
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("structural invariant violation in graph %s: no vertex named %s*", name, e.Prefix)
	}
	return fmt.Sprintf("structural invariant violation in graph %s: %d vertices named %s* (%s), expected exactly one",
		name, len(e.Candidates), e.Prefix, strings.Join(e.Candidates, ", "))
}

func (e *StructuralError) Is(target error) bool {
	switch target {
	case ErrNoLocalRoot:
		return len(e.Candidates) == 0
	case ErrMultipleLocalRoots:
		return len(e.Candidates) > 1
	}
	return false
}

// LocalRoot returns the unique localIP (k1_) vertex. Zero or several
// candidates yield a *StructuralError; no candidate is ever picked arbitrarily.
func (g *DotGraph) LocalRoot() (*Vertex, error) {
	roots := g.VerticesAt(model.LevelLocalIP)
	if len(roots) == 1 {
		return roots[0], nil
	}

	names := make([]string, 0, len(roots))
	for _, v := range roots {
		names = append(names, v.Name)
	}
	return nil, &StructuralError{
		Graph:      g.Name(),
		Prefix:     model.LevelLocalIP.Prefix(),
		Candidates: names,
	}
}
