package watcher

import (
	"context"
	"slices"
	"time"
)

// Debouncer batches rapid change events so a burst of saves triggers a
// single re-comparison
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer. Events are released once the
// input has been quiet for quietPeriod, or maxWait after the first event of
// a burst, whichever comes first.
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	var (
		quietTimer  = time.NewTimer(d.quietPeriod)
		maxTimer    = time.NewTimer(d.maxWait)
		quiet       <-chan time.Time
		deadline    <-chan time.Time
		accumulated = make(map[ChangeType][]string)
		eventCount  int
	)
	quietTimer.Stop()
	maxTimer.Stop()

	flush := func() {
		quietTimer.Stop()
		maxTimer.Stop()
		quiet, deadline = nil, nil

		if eventCount == 0 {
			return
		}
		logger.Debug("flushing accumulated events", "count", eventCount)

		// Removals first: they may invalidate pairs the other events refer to
		for _, t := range []ChangeType{ChangeTypeRemoved, ChangeTypeCreated, ChangeTypeModified} {
			if paths := accumulated[t]; len(paths) > 0 {
				d.output <- ChangeEvent{Type: t, Paths: paths, Timestamp: time.Now()}
			}
		}

		clear(accumulated)
		eventCount = 0
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}

			for _, path := range event.Paths {
				if !slices.Contains(accumulated[event.Type], path) {
					accumulated[event.Type] = append(accumulated[event.Type], path)
				}
			}
			eventCount++

			quietTimer.Reset(d.quietPeriod)
			quiet = quietTimer.C
			if deadline == nil {
				maxTimer.Reset(d.maxWait)
				deadline = maxTimer.C
			}

		case <-quiet:
			flush()

		case <-deadline:
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
