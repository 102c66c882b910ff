package flows

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ritzau/graphcompare/pkg/model"
)

func TestRecordCompare(t *testing.T) {
	base := Record{LocalIPLabel: "10.0.0.1", ProtocolLabel: "tcp", RemoteIPLabel: "8.8.8.8"}

	tests := []struct {
		name  string
		a, b  Record
		want  int
		equal bool
	}{
		{"identical", base, base, 0, true},
		{"first field decides", Record{LocalIPLabel: "10.0.0.1"}, Record{LocalIPLabel: "10.0.0.2", ProtocolLabel: "a"}, -1, false},
		{"last field decides", Record{RemoteIPShape: "box"}, Record{}, 1, false},
		{"shape is significant", Record{LocalIPShape: "box"}, Record{LocalIPShape: "ellipse"}, -1, false},
		{"edge dir is significant", Record{PortEdgeDir: "forward"}, Record{PortEdgeDir: "back"}, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("Compare() = %d, want %d", got, tt.want)
			}
			if got := tt.b.Compare(tt.a); got != -tt.want {
				t.Errorf("reverse Compare() = %d, want %d", got, -tt.want)
			}
			if got := tt.a.Equal(tt.b); got != tt.equal {
				t.Errorf("Equal() = %v, want %v", got, tt.equal)
			}
			if got := tt.a.Less(tt.b); got != (tt.want < 0) {
				t.Errorf("Less() = %v, want %v", got, tt.want < 0)
			}
		})
	}
}

func TestRecordSortIsTotal(t *testing.T) {
	records := []Record{
		{LocalIPLabel: "b"},
		{LocalIPLabel: "a", RemoteIPLabel: "z"},
		{LocalIPLabel: "a", RemoteIPLabel: "y"},
		{LocalIPLabel: "a", ProtocolLabel: "udp"},
	}
	slices.SortFunc(records, Record.Compare)

	want := []Record{
		{LocalIPLabel: "a", RemoteIPLabel: "y"},
		{LocalIPLabel: "a", RemoteIPLabel: "z"},
		{LocalIPLabel: "a", ProtocolLabel: "udp"},
		{LocalIPLabel: "b"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("sorted records mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordFields(t *testing.T) {
	r := Record{LocalIPLabel: "10.0.0.1", PortEdgeColor: "black", RemoteIPShape: "box"}
	fields := r.Fields()

	if len(fields) != 15 {
		t.Fatalf("Fields() returned %d fields, want 15", len(fields))
	}
	if fields[0] != (Field{Name: "localIPLabel", Value: "10.0.0.1"}) {
		t.Errorf("first field = %+v", fields[0])
	}
	if fields[8] != (Field{Name: "portEdgeColor", Value: "black"}) {
		t.Errorf("ninth field = %+v", fields[8])
	}
	if fields[14] != (Field{Name: "remoteIPShape", Value: "box"}) {
		t.Errorf("last field = %+v", fields[14])
	}
}

func TestRecordSetters(t *testing.T) {
	var r Record
	r.setVertex(model.LevelLocalIP, model.VertexAttrs{Label: "10.0.0.1", Shape: "box"})
	r.setVertex(model.LevelRemotePort, model.VertexAttrs{Label: "12345", Shape: "circle"})
	r.setVertex(model.LevelNone, model.VertexAttrs{Label: "ignored"})
	r.setEdge(model.LevelProtocol, model.EdgeAttrs{Color: "red", Label: "ignored"})
	r.setEdge(model.LevelLocalPort, model.EdgeAttrs{Color: "black", Dir: "forward", Label: "p"})
	r.setEdge(model.LevelRemotePort, model.EdgeAttrs{Color: "blue", Dir: "back", Label: "r"})

	want := Record{
		LocalIPLabel:    "10.0.0.1",
		LocalIPShape:    "box",
		RemotePortLabel: "12345",
		RemotePortShape: "circle",
		PortEdgeColor:   "black",
		PortEdgeDir:     "forward",
		PortEdgeLabel:   "p",
		RemoteEdgeColor: "blue",
		RemoteEdgeLabel: "r",
	}
	if diff := cmp.Diff(want, r); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordString(t *testing.T) {
	r := Record{LocalIPLabel: "10.0.0.1", ProtocolLabel: "tcp", LocalPortLabel: "80", RemotePortLabel: "12345", RemoteIPLabel: "8.8.8.8"}
	if got, want := r.String(), "10.0.0.1 > tcp > 80 > 12345 > 8.8.8.8"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
