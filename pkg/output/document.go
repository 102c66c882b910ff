package output

import (
	"github.com/ritzau/graphcompare/pkg/analysis"
	"github.com/ritzau/graphcompare/pkg/compare"
	"github.com/ritzau/graphcompare/pkg/flows"
)

// Document is the serialisable form of a comparison report
type Document struct {
	Revision string         `json:"revision" yaml:"revision"`
	Equal    bool           `json:"equal" yaml:"equal"`
	Summary  Summary        `json:"summary" yaml:"summary"`
	Pairs    []PairDocument `json:"pairs" yaml:"pairs"`
	OnlyA    []string       `json:"onlyA,omitempty" yaml:"onlyA,omitempty"`
	OnlyB    []string       `json:"onlyB,omitempty" yaml:"onlyB,omitempty"`
}

// Summary counts pairs by verdict
type Summary struct {
	Pairs     int `json:"pairs" yaml:"pairs"`
	Equal     int `json:"equal" yaml:"equal"`
	Different int `json:"different" yaml:"different"`
	Failed    int `json:"failed" yaml:"failed"`
}

// PairDocument describes the comparison of one pair of graphs
type PairDocument struct {
	Name       string            `json:"name" yaml:"name"`
	A          string            `json:"a" yaml:"a"`
	B          string            `json:"b" yaml:"b"`
	Equal      bool              `json:"equal" yaml:"equal"`
	Isomorphic bool              `json:"isomorphic" yaml:"isomorphic"`
	Extracted  bool              `json:"extracted" yaml:"extracted"`
	RootA      string            `json:"rootA,omitempty" yaml:"rootA,omitempty"`
	RootB      string            `json:"rootB,omitempty" yaml:"rootB,omitempty"`
	FlowsA     int               `json:"flowsA" yaml:"flowsA"`
	FlowsB     int               `json:"flowsB" yaml:"flowsB"`
	UnmatchedA int               `json:"unmatchedA" yaml:"unmatchedA"`
	UnmatchedB int               `json:"unmatchedB" yaml:"unmatchedB"`
	Unmatched  []UnmatchedRecord `json:"unmatched,omitempty" yaml:"unmatched,omitempty"`
	Error      string            `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorKind  string            `json:"errorKind,omitempty" yaml:"errorKind,omitempty"`
	DurationMs int64             `json:"durationMs" yaml:"durationMs"`
}

// UnmatchedRecord is a flow found in only one graph
type UnmatchedRecord struct {
	Side   compare.Side `json:"side" yaml:"side"`
	Record flows.Record `json:"record" yaml:"record"`
}

// NewDocument converts a report for serialisation
func NewDocument(report *analysis.Report) *Document {
	s := report.Summary()
	doc := &Document{
		Revision: report.Revision,
		Equal:    report.Equal(),
		Summary:  Summary{Pairs: s.Pairs, Equal: s.Equal, Different: s.Different, Failed: s.Failed},
		Pairs:    make([]PairDocument, 0, len(report.Outcomes)),
		OnlyA:    report.OnlyA,
		OnlyB:    report.OnlyB,
	}
	for _, o := range report.Outcomes {
		doc.Pairs = append(doc.Pairs, NewPairDocument(o))
	}
	return doc
}

// NewPairDocument converts one outcome for serialisation
func NewPairDocument(o *analysis.Outcome) PairDocument {
	p := PairDocument{
		Name:       o.Pair.Name,
		A:          o.Pair.A,
		B:          o.Pair.B,
		Equal:      o.Equal(),
		DurationMs: o.Duration.Milliseconds(),
	}
	if o.Err != nil {
		p.Error = o.Err.Error()
		p.ErrorKind = string(o.Kind())
		return p
	}

	r := o.Result
	p.Isomorphic = r.Isomorphic
	p.Extracted = r.Extracted
	p.RootA, p.RootB = r.RootA, r.RootB
	p.FlowsA, p.FlowsB = r.FlowsA.Len(), r.FlowsB.Len()
	p.UnmatchedA, p.UnmatchedB = r.UnmatchedA.Len(), r.UnmatchedB.Len()
	for _, u := range r.Unmatched() {
		p.Unmatched = append(p.Unmatched, UnmatchedRecord{Side: u.Side, Record: u.Record})
	}
	return p
}
