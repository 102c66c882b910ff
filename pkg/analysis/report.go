package analysis

import (
	"errors"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/ritzau/graphcompare/pkg/compare"
	"github.com/ritzau/graphcompare/pkg/dotfile"
	"github.com/ritzau/graphcompare/pkg/finder"
	"github.com/ritzau/graphcompare/pkg/graph"
	"github.com/ritzau/graphcompare/pkg/pubsub"
)

// ErrorKind classifies why a pair could not be compared
type ErrorKind string

const (
	ErrorNone       ErrorKind = ""
	ErrorIO         ErrorKind = "io"
	ErrorParse      ErrorKind = "parse"
	ErrorStructural ErrorKind = "structural"
	ErrorInternal   ErrorKind = "internal"
)

// Classify maps a comparison error onto its kind
func Classify(err error) ErrorKind {
	var parseErr *dotfile.ParseError
	var structErr *graph.StructuralError
	switch {
	case err == nil:
		return ErrorNone
	case errors.As(err, &parseErr):
		return ErrorParse
	case errors.As(err, &structErr):
		return ErrorStructural
	case errors.Is(err, os.ErrNotExist), errors.Is(err, os.ErrPermission):
		return ErrorIO
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return ErrorIO
	}
	return ErrorInternal
}

// Outcome is the result of comparing one pair of graphs
type Outcome struct {
	Pair     finder.Pair
	Result   *compare.Result
	Err      error
	Duration time.Duration

	// Loaded graphs, kept for graph views; nil when loading failed
	GraphA *graph.DotGraph
	GraphB *graph.DotGraph
}

// Equal reports whether the pair compared equal
func (o *Outcome) Equal() bool {
	return o.Err == nil && o.Result != nil && o.Result.Equal
}

// Kind classifies the outcome's error
func (o *Outcome) Kind() ErrorKind {
	return Classify(o.Err)
}

// Report collects the outcomes of one comparison run
type Report struct {
	Revision string // ULID; later runs sort after earlier ones
	Reason   string
	Started  time.Time
	Finished time.Time
	Outcomes []*Outcome
	OnlyA    []string // files without a counterpart in B
	OnlyB    []string // files without a counterpart in A
}

// Equal reports whether every pair compared equal and nothing was unpaired
func (r *Report) Equal() bool {
	if len(r.OnlyA) > 0 || len(r.OnlyB) > 0 {
		return false
	}
	for _, o := range r.Outcomes {
		if !o.Equal() {
			return false
		}
	}
	return true
}

// Failed returns the outcomes that ended in an error
func (r *Report) Failed() []*Outcome {
	var failed []*Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Find returns the outcome for the pair with the given name
func (r *Report) Find(name string) (*Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Pair.Name == name {
			return o, true
		}
	}
	return nil, false
}

// Summary condenses the report into the published event payload
func (r *Report) Summary() pubsub.ReportSummary {
	s := pubsub.ReportSummary{Revision: r.Revision, Pairs: len(r.Outcomes)}
	for _, o := range r.Outcomes {
		switch {
		case o.Err != nil:
			s.Failed++
		case o.Equal():
			s.Equal++
		default:
			s.Different++
		}
	}
	s.Different += len(r.OnlyA) + len(r.OnlyB)
	return s
}

// mergeOutcomes returns base with the outcomes in updates replacing those
// of the same pair, sorted by pair name. base is not modified.
func mergeOutcomes(base, updates []*Outcome) []*Outcome {
	merged := slices.Clone(base)
	for _, u := range updates {
		i := slices.IndexFunc(merged, func(o *Outcome) bool { return o.Pair.Name == u.Pair.Name })
		if i >= 0 {
			merged[i] = u
		} else {
			merged = append(merged, u)
		}
	}
	slices.SortFunc(merged, func(a, b *Outcome) int { return strings.Compare(a.Pair.Name, b.Pair.Name) })
	return merged
}
