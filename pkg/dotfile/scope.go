package dotfile

import (
	"slices"
	"strconv"
	"strings"

	"github.com/ritzau/graphcompare/pkg/model"
	"gonum.org/v1/gonum/graph/formats/dot/ast"
)

// scope holds the node and edge defaults in effect for a graph or subgraph
type scope struct {
	node []*ast.Attr
	edge []*ast.Attr
}

func (s *scope) child() *scope {
	return &scope{node: slices.Clone(s.node), edge: slices.Clone(s.edge)}
}

// normalizer rewrites a parsed graph into the subset the decoder handles
// like Graphviz does. Node IDs that unquote to the same name are spelled
// the same way, and "node [...]"/"edge [...]" statements are replaced by
// explicit attributes on the nodes and edges created in their scope.
type normalizer struct {
	// unquoted node name -> first spelling seen
	ids map[string]string
	// spellings of nodes already created
	created map[string]bool
}

func normalize(g *ast.Graph) error {
	n := &normalizer{
		ids:     make(map[string]string),
		created: make(map[string]bool),
	}
	stmts, err := n.stmts(g.Stmts, &scope{}, true)
	if err != nil {
		return err
	}
	g.Stmts = stmts
	return nil
}

func (n *normalizer) stmts(stmts []ast.Stmt, sc *scope, root bool) ([]ast.Stmt, error) {
	out := make([]ast.Stmt, 0, len(stmts))
	for _, stmt := range stmts {
		switch stmt := stmt.(type) {
		case *ast.NodeStmt:
			id := n.id(stmt.Node)
			if !n.created[id] {
				n.created[id] = true
				stmt.Attrs = append(slices.Clone(sc.node), stmt.Attrs...)
			}
			out = append(out, stmt)

		case *ast.EdgeStmt:
			var err error
			if out, err = n.vertex(out, stmt.From, sc); err != nil {
				return nil, err
			}
			for e := stmt.To; e != nil; e = e.To {
				if out, err = n.vertex(out, e.Vertex, sc); err != nil {
					return nil, err
				}
			}
			stmt.Attrs = append(slices.Clone(sc.edge), stmt.Attrs...)
			out = append(out, stmt)

		case *ast.AttrStmt:
			switch stmt.Kind {
			case ast.NodeKind:
				if err := setDefaults(&sc.node, stmt.Attrs, validateNode); err != nil {
					return nil, err
				}
			case ast.EdgeKind:
				if err := setDefaults(&sc.edge, stmt.Attrs, validateEdge); err != nil {
					return nil, err
				}
			case ast.GraphKind:
				// subgraph attributes describe the subgraph only
				if root {
					out = append(out, stmt)
				}
			}

		case *ast.Subgraph:
			inner, err := n.stmts(stmt.Stmts, sc.child(), false)
			if err != nil {
				return nil, err
			}
			stmt.Stmts = inner
			out = append(out, stmt)

		default:
			out = append(out, stmt)
		}
	}
	return out, nil
}

// vertex prepares one end of an edge statement. A node seen for the first
// time is declared ahead of the edge so it picks up the current defaults.
func (n *normalizer) vertex(out []ast.Stmt, v ast.Vertex, sc *scope) ([]ast.Stmt, error) {
	switch v := v.(type) {
	case *ast.Node:
		id := n.id(v)
		if !n.created[id] {
			n.created[id] = true
			out = append(out, &ast.NodeStmt{
				Node:  &ast.Node{ID: id},
				Attrs: slices.Clone(sc.node),
			})
		}
	case *ast.Subgraph:
		inner, err := n.stmts(v.Stmts, sc.child(), false)
		if err != nil {
			return nil, err
		}
		v.Stmts = inner
	}
	return out, nil
}

// id rewrites node's ID to the first spelling of its name and returns it
func (n *normalizer) id(node *ast.Node) string {
	name := unquote(node.ID)
	if first, ok := n.ids[name]; ok {
		node.ID = first
	} else {
		n.ids[name] = node.ID
	}
	return node.ID
}

// unquote mirrors how the decoder turns an ID token into a name
func unquote(id string) string {
	if len(id) >= 4 && strings.HasPrefix(id, `"<`) && strings.HasSuffix(id, `>"`) {
		return id
	}
	if s, err := strconv.Unquote(id); err == nil {
		return s
	}
	return id
}

func setDefaults(defaults *[]*ast.Attr, attrs []*ast.Attr, validate func(key, value string) error) error {
	for _, attr := range attrs {
		if err := validate(unquote(attr.Key), unquote(attr.Val)); err != nil {
			return err
		}
		i := slices.IndexFunc(*defaults, func(a *ast.Attr) bool { return a.Key == attr.Key })
		if i >= 0 {
			(*defaults)[i] = attr
		} else {
			*defaults = append(*defaults, attr)
		}
	}
	return nil
}

func validateNode(key, value string) error {
	var scratch model.VertexAttrs
	return scratch.Set(key, value)
}

func validateEdge(key, value string) error {
	var scratch model.EdgeAttrs
	return scratch.Set(key, value)
}
