package analysis

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ritzau/graphcompare/pkg/compare"
	"github.com/ritzau/graphcompare/pkg/dotfile"
	"github.com/ritzau/graphcompare/pkg/finder"
	"github.com/ritzau/graphcompare/pkg/logging"
	"github.com/ritzau/graphcompare/pkg/pubsub"
)

var logger = logging.New("analysis")

// Status states published on pubsub.TopicStatus
const (
	StateComparing = "comparing"
	StateReady     = "ready"
	StateFailed    = "failed"
)

// Runner orchestrates loading and comparing graph pairs. Runs are
// serialised; the pairs within one run are compared in parallel.
type Runner struct {
	loader     *dotfile.Loader
	comparator *compare.Comparator
	publisher  pubsub.Publisher
	jobs       int

	mu     sync.Mutex // Prevent concurrent runs
	latest atomic.Pointer[Report]
}

// Option configures a Runner
type Option func(*Runner)

// WithPublisher publishes run status and report summaries to p
func WithPublisher(p pubsub.Publisher) Option {
	return func(r *Runner) { r.publisher = p }
}

// WithJobs bounds how many pairs are compared at once
func WithJobs(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.jobs = n
		}
	}
}

// WithLoader replaces the default loader, which reads "-" from os.Stdin
func WithLoader(l *dotfile.Loader) Option {
	return func(r *Runner) { r.loader = l }
}

// NewRunner creates a runner that compares with comparator
func NewRunner(comparator *compare.Comparator, opts ...Option) *Runner {
	r := &Runner{
		loader:     dotfile.NewLoader(os.Stdin),
		comparator: comparator,
		jobs:       1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Latest returns the most recent report, or nil before the first run
func (r *Runner) Latest() *Report {
	return r.latest.Load()
}

// ComparePair loads both graphs of pair and compares them. Load and
// structural errors end up in the outcome, not in a panic or exit.
func (r *Runner) ComparePair(pair finder.Pair) *Outcome {
	start := time.Now()
	outcome := &Outcome{Pair: pair}
	defer func() { outcome.Duration = time.Since(start) }()

	a, err := r.loader.LoadFile(pair.A)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	b, err := r.loader.LoadFile(pair.B)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.GraphA, outcome.GraphB = a, b

	outcome.Result, outcome.Err = r.comparator.CompareVerbose(a, b)
	return outcome
}

// Run compares every pair of pairing and stores the result as the latest
// report. It fails only when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, pairing *finder.Pairing, reason string) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report := &Report{
		Revision: ulid.Make().String(),
		Reason:   reason,
		Started:  time.Now(),
		OnlyA:    pairing.OnlyA,
		OnlyB:    pairing.OnlyB,
	}
	logger.Info("starting comparison", "reason", reason, "pairs", len(pairing.Pairs), "revision", report.Revision)

	outcomes, err := r.compareAll(ctx, report.Revision, pairing.Pairs)
	if err != nil {
		return nil, err
	}
	report.Outcomes = mergeOutcomes(nil, outcomes)

	return r.finish(report), nil
}

// Rerun compares only the given pairs and merges their outcomes into the
// latest report under a new revision
func (r *Runner) Rerun(ctx context.Context, pairs []finder.Pair, reason string) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.latest.Load()
	if previous == nil {
		previous = &Report{}
	}

	report := &Report{
		Revision: ulid.Make().String(),
		Reason:   reason,
		Started:  time.Now(),
		OnlyA:    previous.OnlyA,
		OnlyB:    previous.OnlyB,
	}
	logger.Info("re-running comparison", "reason", reason, "pairs", len(pairs), "revision", report.Revision)

	outcomes, err := r.compareAll(ctx, report.Revision, pairs)
	if err != nil {
		return nil, err
	}
	report.Outcomes = mergeOutcomes(previous.Outcomes, outcomes)

	return r.finish(report), nil
}

func (r *Runner) compareAll(ctx context.Context, revision string, pairs []finder.Pair) ([]*Outcome, error) {
	outcomes := make([]*Outcome, len(pairs))
	var done atomic.Int32

	r.publishStatus(StateComparing, fmt.Sprintf("Comparing %d pair(s)...", len(pairs)), revision, 0, len(pairs))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.jobs)
	for i, pair := range pairs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcome := r.ComparePair(pair)
			outcomes[i] = outcome

			step := int(done.Add(1))
			logOutcome(outcome, step, len(pairs))
			r.publishStatus(StateComparing, "Compared "+pair.Name, revision, step, len(pairs))
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		r.publishStatus(StateFailed, fmt.Sprintf("Comparison cancelled: %v", err), revision, int(done.Load()), len(pairs))
		return nil, fmt.Errorf("comparison cancelled: %w", err)
	}
	return outcomes, nil
}

func (r *Runner) finish(report *Report) *Report {
	report.Finished = time.Now()
	r.latest.Store(report)

	summary := report.Summary()
	logger.Info("comparison finished",
		"revision", report.Revision,
		"equal", summary.Equal,
		"different", summary.Different,
		"failed", summary.Failed,
		"durationMs", report.Finished.Sub(report.Started).Milliseconds())

	r.publishStatus(StateReady, fmt.Sprintf("%d equal, %d different, %d failed", summary.Equal, summary.Different, summary.Failed),
		report.Revision, summary.Pairs, summary.Pairs)
	r.publish(pubsub.TopicReport, "report", summary)
	return report
}

func logOutcome(o *Outcome, step, total int) {
	switch {
	case o.Err != nil:
		logger.Warn("comparison failed", "pair", o.Pair.Name, "kind", o.Kind(), "error", o.Err, "step", step, "total", total)
	case o.Equal():
		logger.Debug("graphs are equal", "pair", o.Pair.Name, "step", step, "total", total)
	default:
		logger.Debug("graphs differ", "pair", o.Pair.Name, "isomorphic", o.Result.Isomorphic, "step", step, "total", total)
	}
}

func (r *Runner) publishStatus(state, message, revision string, step, total int) {
	r.publish(pubsub.TopicStatus, state, pubsub.ComparisonStatus{
		State:    state,
		Message:  message,
		Revision: revision,
		Step:     step,
		Total:    total,
	})
}

func (r *Runner) publish(topic, eventType string, data any) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(topic, eventType, data); err != nil {
		logger.Warn("failed to publish event", "topic", topic, "error", err)
	}
}
