package watcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/ritzau/scc-analyzer/pkg/logging"
)

// Debouncer coalesces bursts of change events into one batch per kind.
//
// A batch is released after quietPeriod without new events, or maxWait
// after the first event of a burst, whichever comes first. Config
// changes are released before input changes so settings reload before
// anything re-runs.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
	log         *slog.Logger
}

// NewDebouncer wraps an event stream with debouncing.
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
		log:         logging.New("watcher.debounce"),
	}
}

// Start begins debouncing until ctx is canceled or the input closes.
// The output channel closes when done, flushing any held batch first.
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

// Output returns the debounced event stream.
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}

func (d *Debouncer) run(ctx context.Context) {
	accumulated := make(map[ChangeKind][]string)
	pending := 0

	quiet := time.NewTimer(d.quietPeriod)
	stopTimer(quiet)
	deadline := time.NewTimer(d.maxWait)
	stopTimer(deadline)

	flush := func() {
		if pending == 0 {
			return
		}
		d.log.Debug("flushing change batch", "events", pending)
		for _, kind := range []ChangeKind{ChangeConfig, ChangeInput} {
			paths := accumulated[kind]
			if len(paths) == 0 {
				continue
			}
			d.output <- ChangeEvent{Kind: kind, Paths: dedupe(paths), Timestamp: time.Now()}
		}
		clear(accumulated)
		pending = 0
		stopTimer(quiet)
		stopTimer(deadline)
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			close(d.output)
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				close(d.output)
				return
			}
			accumulated[event.Kind] = append(accumulated[event.Kind], event.Paths...)
			if pending == 0 {
				resetTimer(deadline, d.maxWait)
			}
			pending++
			resetTimer(quiet, d.quietPeriod)

		case <-quiet.C:
			flush()

		case <-deadline.C:
			flush()
		}
	}
}

// dedupe drops repeated paths, keeping first-seen order. A single save
// often delivers the same file several times within one burst.
func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
