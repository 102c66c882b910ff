package graph

import (
	"github.com/ritzau/graphcompare/pkg/model"
)

// Edge types in a view
const (
	EdgeTypeFlow  = "flow"
	EdgeTypeOther = "other"
)

// View converts the graph into a presentation model. Each vertex below the
// root names its first previous-level neighbour as parent.
func (g *DotGraph) View() *model.Graph {
	view := model.NewGraph(g.Name())

	for _, v := range g.Vertices() {
		node := &model.Node{
			ID:    v.Name,
			Label: v.Label,
			Type:  v.Level.String(),
		}
		if node.Label == "" {
			node.Label = v.Name
		}
		if v.Level > model.LevelLocalIP {
			for _, e := range g.Incident(v) {
				if u := e.Opposite(v); u.Level == v.Level-1 {
					node.Parent = u.Name
					break
				}
			}
		}
		view.AddNode(node)
		setIfPresent(node.Metadata, "shape", v.Shape)
		setIfPresent(node.Metadata, "ip", v.IP)
		setIfPresent(node.Metadata, "url", v.URL)
	}

	for _, e := range g.Edges() {
		from, to := e.Endpoints()
		edge := &model.Edge{
			Source: from.Name,
			Target: to.Name,
			Type:   EdgeTypeOther,
		}
		if from.Level != model.LevelNone && to.Level != model.LevelNone &&
			(to.Level == from.Level+1 || from.Level == to.Level+1) {
			edge.Type = EdgeTypeFlow
		}
		view.AddEdge(edge)
		setIfPresent(edge.Metadata, "color", e.Color)
		setIfPresent(edge.Metadata, "dir", e.Dir)
		setIfPresent(edge.Metadata, "label", e.Label)
	}

	return view
}

func setIfPresent(m map[string]string, key, value string) {
	if value != "" {
		m[key] = value
	}
}
