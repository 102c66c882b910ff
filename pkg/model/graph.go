package model

// Graph is a presentation view of a loaded flow graph: plain nodes and
// edges that the web UI can lay out without knowing the DOT schema.
type Graph struct {
	Name  string           `json:"name"`
	Nodes map[string]*Node `json:"nodes"`
	Edges []*Edge          `json:"edges"`
}

// NewGraph creates a new empty view.
func NewGraph(name string) *Graph {
	return &Graph{
		Name:  name,
		Nodes: make(map[string]*Node),
		Edges: make([]*Edge, 0),
	}
}

// Node is one vertex of the view.
type Node struct {
	ID       string            `json:"id"`
	Label    string            `json:"label"`
	Type     string            `json:"type"`             // hierarchy level name, e.g. "localPort"
	Parent   string            `json:"parent,omitempty"` // ID of the previous-level neighbour
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Edge is one undirected connection of the view.
type Edge struct {
	Source   string            `json:"source"`
	Target   string            `json:"target"`
	Type     string            `json:"type"` // "flow" between adjacent levels, otherwise "other"
	Metadata map[string]string `json:"metadata,omitempty"`
}

// AddNode adds a node to the view. If a node with the same ID exists, it is replaced.
func (g *Graph) AddNode(node *Node) {
	if node.Metadata == nil {
		node.Metadata = make(map[string]string)
	}
	g.Nodes[node.ID] = node
}

// AddEdge adds an edge to the view.
func (g *Graph) AddEdge(edge *Edge) {
	if edge.Metadata == nil {
		edge.Metadata = make(map[string]string)
	}
	g.Edges = append(g.Edges, edge)
}
