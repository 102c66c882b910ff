package flows

import (
	"cmp"
	"strings"

	"github.com/ritzau/graphcompare/pkg/model"
)

// Record describes one complete localIP -> remoteIP path. It is a plain
// comparable value: records are used directly as multiset keys and are
// never modified once added to a Set.
type Record struct {
	LocalIPLabel    string `json:"localIPLabel" yaml:"localIPLabel"`
	LocalIPShape    string `json:"localIPShape" yaml:"localIPShape"`
	ProtocolLabel   string `json:"protocolLabel" yaml:"protocolLabel"`
	ProtocolShape   string `json:"protocolShape" yaml:"protocolShape"`
	LocalPortLabel  string `json:"localPortLabel" yaml:"localPortLabel"`
	LocalPortShape  string `json:"localPortShape" yaml:"localPortShape"`
	PortEdgeLabel   string `json:"portEdgeLabel" yaml:"portEdgeLabel"`
	PortEdgeDir     string `json:"portEdgeDir" yaml:"portEdgeDir"`
	PortEdgeColor   string `json:"portEdgeColor" yaml:"portEdgeColor"`
	RemotePortLabel string `json:"remotePortLabel" yaml:"remotePortLabel"`
	RemotePortShape string `json:"remotePortShape" yaml:"remotePortShape"`
	RemoteEdgeLabel string `json:"remoteEdgeLabel" yaml:"remoteEdgeLabel"`
	RemoteEdgeColor string `json:"remoteEdgeColor" yaml:"remoteEdgeColor"`
	RemoteIPLabel   string `json:"remoteIPLabel" yaml:"remoteIPLabel"`
	RemoteIPShape   string `json:"remoteIPShape" yaml:"remoteIPShape"`
}

// Field is a named record value, in record order
type Field struct {
	Name  string
	Value string
}

var fieldNames = [...]string{
	"localIPLabel",
	"localIPShape",
	"protocolLabel",
	"protocolShape",
	"localPortLabel",
	"localPortShape",
	"portEdgeLabel",
	"portEdgeDir",
	"portEdgeColor",
	"remotePortLabel",
	"remotePortShape",
	"remoteEdgeLabel",
	"remoteEdgeColor",
	"remoteIPLabel",
	"remoteIPShape",
}

func (r Record) values() [len(fieldNames)]string {
	return [...]string{
		r.LocalIPLabel,
		r.LocalIPShape,
		r.ProtocolLabel,
		r.ProtocolShape,
		r.LocalPortLabel,
		r.LocalPortShape,
		r.PortEdgeLabel,
		r.PortEdgeDir,
		r.PortEdgeColor,
		r.RemotePortLabel,
		r.RemotePortShape,
		r.RemoteEdgeLabel,
		r.RemoteEdgeColor,
		r.RemoteIPLabel,
		r.RemoteIPShape,
	}
}

// Fields returns the fifteen record values with their names, in order
func (r Record) Fields() []Field {
	values := r.values()
	fields := make([]Field, len(values))
	for i, v := range values {
		fields[i] = Field{Name: fieldNames[i], Value: v}
	}
	return fields
}

// Compare orders records lexicographically over all fields.
// It returns -1, 0 or +1 like cmp.Compare.
func (r Record) Compare(other Record) int {
	a, b := r.values(), other.values()
	for i := range a {
		if c := cmp.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

// Less reports whether r sorts before other
func (r Record) Less(other Record) bool {
	return r.Compare(other) < 0
}

// Equal reports whether every field matches
func (r Record) Equal(other Record) bool {
	return r == other
}

// String renders the path labels, e.g. "10.0.0.1 > tcp > 80 > 12345 > 8.8.8.8"
func (r Record) String() string {
	return strings.Join([]string{
		r.LocalIPLabel, r.ProtocolLabel, r.LocalPortLabel, r.RemotePortLabel, r.RemoteIPLabel,
	}, " > ")
}

// setVertex writes the label and shape owned by level
func (r *Record) setVertex(level model.Level, attrs model.VertexAttrs) {
	switch level {
	case model.LevelLocalIP:
		r.LocalIPLabel, r.LocalIPShape = attrs.Label, attrs.Shape
	case model.LevelProtocol:
		r.ProtocolLabel, r.ProtocolShape = attrs.Label, attrs.Shape
	case model.LevelLocalPort:
		r.LocalPortLabel, r.LocalPortShape = attrs.Label, attrs.Shape
	case model.LevelRemotePort:
		r.RemotePortLabel, r.RemotePortShape = attrs.Label, attrs.Shape
	case model.LevelRemoteIP:
		r.RemoteIPLabel, r.RemoteIPShape = attrs.Label, attrs.Shape
	}
}

// setEdge captures the edge leaving level. Only the localPort->remotePort
// and remotePort->remoteIP hops carry record fields.
func (r *Record) setEdge(from model.Level, attrs model.EdgeAttrs) {
	switch from {
	case model.LevelLocalPort:
		r.PortEdgeColor, r.PortEdgeDir, r.PortEdgeLabel = attrs.Color, attrs.Dir, attrs.Label
	case model.LevelRemotePort:
		r.RemoteEdgeColor, r.RemoteEdgeLabel = attrs.Color, attrs.Label
	}
}
