package dotfile

import (
	"fmt"
	"io"
	"os"

	"github.com/ritzau/graphcompare/pkg/graph"
	"github.com/ritzau/graphcompare/pkg/logging"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	dotsyntax "gonum.org/v1/gonum/graph/formats/dot"
)

// StdinPath is the path argument that selects standard input
const StdinPath = "-"

var (
	_ encoding.MultiBuilder    = (*graph.Builder)(nil)
	_ dot.AttributeSetters     = (*graph.Builder)(nil)
	_ dot.DOTIDSetter          = (*graph.Builder)(nil)
	_ dot.DOTIDSetter          = (*graph.Vertex)(nil)
	_ encoding.AttributeSetter = (*graph.Vertex)(nil)
	_ encoding.AttributeSetter = (*graph.Edge)(nil)
)

// ParseError reports DOT input that could not be turned into a graph.
// Err carries the underlying parser diagnostic.
type ParseError struct {
	Source string // file path or "<stdin>"
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("error while importing graphviz dot graph %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse decodes DOT text into a graph. source names the input in errors.
// The decoder reports problems only through the returned error; nothing is
// written to the process's standard streams.
func Parse(source string, data []byte) (*graph.DotGraph, error) {
	file, err := dotsyntax.ParseBytes(data)
	if err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}
	if len(file.Graphs) != 1 {
		return nil, &ParseError{Source: source, Err: fmt.Errorf("expected 1 graph, got %d", len(file.Graphs))}
	}
	if err := normalize(file.Graphs[0]); err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}

	b := graph.NewBuilder()
	if err := dot.UnmarshalMulti([]byte(file.Graphs[0].String()), b); err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}

	g := b.Build()
	logging.Trace("parsed dot graph", "source", source, "name", g.Name(), "vertices", g.Order(), "edges", g.Size())
	return g, nil
}

// Load reads a DOT graph from r until EOF. The reader is not retained.
func Load(source string, r io.Reader) (*graph.DotGraph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Source: source, Err: fmt.Errorf("reading input: %w", err)}
	}
	return Parse(source, data)
}

// Loader opens DOT graphs by path, mapping StdinPath to its stdin reader
type Loader struct {
	stdin io.Reader
}

// NewLoader creates a loader that serves StdinPath from stdin
func NewLoader(stdin io.Reader) *Loader {
	return &Loader{stdin: stdin}
}

// LoadFile reads the graph at path, or from stdin when path is StdinPath
func (l *Loader) LoadFile(path string) (*graph.DotGraph, error) {
	if path == StdinPath {
		if l.stdin == nil {
			return nil, fmt.Errorf("no standard input available")
		}
		return Load("<stdin>", l.stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dot graph: %w", err)
	}
	defer func() { _ = file.Close() }()

	return Load(path, file)
}

// LoadFile reads the graph at path, or from os.Stdin when path is StdinPath
func LoadFile(path string) (*graph.DotGraph, error) {
	return NewLoader(os.Stdin).LoadFile(path)
}
