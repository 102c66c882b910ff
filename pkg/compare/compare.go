// Package compare decides whether two flow graphs describe the same flows.
//
// A comparison first checks that the graphs share a skeleton, then extracts
// each graph's flow-set and takes their multiset symmetric difference. The
// graphs are equal when both differences are empty. Graphs are only read,
// so one loaded graph can take part in any number of comparisons.
package compare

import (
	"github.com/ritzau/graphcompare/pkg/flows"
	"github.com/ritzau/graphcompare/pkg/graph"
	"github.com/ritzau/graphcompare/pkg/isomorphism"
	"github.com/ritzau/graphcompare/pkg/logging"
	"github.com/ritzau/graphcompare/pkg/model"
)

var logger = logging.New("compare")

// Side names the graph an unmatched record came from
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// Options tunes a Comparator
type Options struct {
	// AlwaysExtract extracts and diffs the flow-sets even when the graphs
	// are not isomorphic. The verdict is unequal either way.
	AlwaysExtract bool
	// Levels is the hierarchy depth; zero means model.FlowLevels.
	Levels int
}

// Result is the outcome of one comparison
type Result struct {
	Equal      bool
	Isomorphic bool
	// Extracted is false when the flow-sets were skipped because the
	// skeletons differ. The flow fields below are then nil.
	Extracted  bool
	RootA      string
	RootB      string
	FlowsA     *flows.Set
	FlowsB     *flows.Set
	UnmatchedA *flows.Set
	UnmatchedB *flows.Set
}

// Unmatched is one record left over after matching, tagged with its graph
type Unmatched struct {
	Side   Side
	Record flows.Record
}

// Unmatched lists the leftover records of A followed by those of B, each
// side in record order
func (r *Result) Unmatched() []Unmatched {
	var result []Unmatched
	for _, rec := range r.UnmatchedA.Records() {
		result = append(result, Unmatched{Side: SideA, Record: rec})
	}
	for _, rec := range r.UnmatchedB.Records() {
		result = append(result, Unmatched{Side: SideB, Record: rec})
	}
	return result
}

// Comparator compares pairs of loaded graphs. It keeps no state between
// comparisons.
type Comparator struct {
	opts      Options
	extractor *flows.Extractor
}

// New creates a comparator
func New(opts Options) *Comparator {
	if opts.Levels == 0 {
		opts.Levels = model.FlowLevels
	}
	return &Comparator{
		opts:      opts,
		extractor: flows.NewExtractor(flows.WithLevels(opts.Levels)),
	}
}

// Options returns the effective options
func (c *Comparator) Options() Options {
	return c.opts
}

// Compare reports whether a and b hold the same flows. A missing or
// duplicated root is an error even when the skeletons already differ.
func (c *Comparator) Compare(a, b *graph.DotGraph) (bool, error) {
	result, err := c.compare(a, b, false)
	if err != nil {
		return false, err
	}
	return result.Equal, nil
}

// CompareVerbose runs the same comparison as Compare and returns the full
// diagnostics. Unless AlwaysExtract is set, non-isomorphic graphs return
// early with Extracted false.
func (c *Comparator) CompareVerbose(a, b *graph.DotGraph) (*Result, error) {
	return c.compare(a, b, c.opts.AlwaysExtract)
}

func (c *Comparator) compare(a, b *graph.DotGraph, alwaysExtract bool) (*Result, error) {
	// both graphs must have a valid root whatever their shape
	rootA, err := a.LocalRoot()
	if err != nil {
		return nil, err
	}
	rootB, err := b.LocalRoot()
	if err != nil {
		return nil, err
	}

	result := &Result{
		Isomorphic: isomorphism.Isomorphic(a, b),
		RootA:      rootA.Name,
		RootB:      rootB.Name,
	}
	if !result.Isomorphic && !alwaysExtract {
		logger.Debug("skeletons differ, skipping flow extraction", "a", a.Name(), "b", b.Name())
		return result, nil
	}

	if result.FlowsA, err = c.extractor.ExtractFrom(a, rootA); err != nil {
		return nil, err
	}
	if result.FlowsB, err = c.extractor.ExtractFrom(b, rootB); err != nil {
		return nil, err
	}
	result.Extracted = true

	result.UnmatchedA, result.UnmatchedB = flows.Difference(result.FlowsA, result.FlowsB)
	result.Equal = result.Isomorphic && result.UnmatchedA.Empty() && result.UnmatchedB.Empty()

	logger.Debug("compared flow-sets",
		"rootA", result.RootA, "rootB", result.RootB,
		"flowsA", result.FlowsA.Len(), "flowsB", result.FlowsB.Len(),
		"unmatchedA", result.UnmatchedA.Len(), "unmatchedB", result.UnmatchedB.Len(),
		"equal", result.Equal)
	return result, nil
}

// Compare reports whether a and b hold the same flows using default options
func Compare(a, b *graph.DotGraph) (bool, error) {
	return New(Options{}).Compare(a, b)
}

// CompareVerbose compares a and b with default options and returns the
// full diagnostics
func CompareVerbose(a, b *graph.DotGraph) (*Result, error) {
	return New(Options{}).CompareVerbose(a, b)
}
