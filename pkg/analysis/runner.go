// Package analysis orchestrates a full analysis run: load the dependency
// graph, condense it, and turn the result into a report.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ritzau/scc-analyzer/pkg/config"
	"github.com/ritzau/scc-analyzer/pkg/deps"
	"github.com/ritzau/scc-analyzer/pkg/logging"
	"github.com/ritzau/scc-analyzer/pkg/model"
)

// Sink receives analysis results as they happen. The web server implements
// it; a nil sink runs the analysis headless.
type Sink interface {
	// SetReport stores the finished report and announces it to clients.
	SetReport(rep *model.Report)
	// PublishStatus announces progress while a run is underway.
	PublishStatus(state, message string, step, total int)
}

// Options configures a single analysis run.
type Options struct {
	Reason string // e.g. "initial analysis", "input changed"
}

// Runner executes analysis runs one at a time.
type Runner struct {
	cfg  *config.Config
	sink Sink
	log  *slog.Logger
	mu   sync.Mutex // prevents concurrent runs
}

// NewRunner returns a runner for the given configuration. sink may be nil.
func NewRunner(cfg *config.Config, sink Sink) *Runner {
	return &Runner{
		cfg:  cfg,
		sink: sink,
		log:  logging.New("analysis.runner"),
	}
}

// SetConfig swaps the configuration used by subsequent runs. A run in
// progress finishes with the config it started with.
func (r *Runner) SetConfig(cfg *config.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = cfg
}

// Run loads the dependency graph, condenses it, and builds the report.
// The report goes to the sink and back to the caller.
func (r *Runner) Run(ctx context.Context, opts Options) (*model.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.Info("starting analysis", "reason", opts.Reason)
	start := time.Now()

	src, err := deps.ForConfig(r.cfg)
	if err != nil {
		return nil, err
	}

	r.publishStatus("loading", fmt.Sprintf("Loading dependencies via %s", src.Name()), 1, 3)
	dg, err := src.Load(ctx, r.cfg)
	if err != nil {
		r.publishStatus("failed", fmt.Sprintf("Load failed: %v", err), 1, 3)
		return nil, fmt.Errorf("load %s: %w", src.Name(), err)
	}
	if dg.NodeCount() == 0 {
		r.log.Warn("dependency graph is empty", "source", src.Name())
	}

	r.publishStatus("analyzing", "Condensing dependency graph", 2, 3)
	comps := dg.SCC()
	rep := model.BuildReport(dg, comps, time.Since(start))
	rep.Source = describe(r.cfg)

	if r.sink != nil {
		r.sink.SetReport(rep)
	}
	r.publishStatus("ready", "Analysis complete", 3, 3)

	r.log.Info("analysis complete",
		"reason", opts.Reason,
		"nodes", rep.NodeCount,
		"edges", rep.EdgeCount,
		"components", rep.ComponentCount,
		"cycles", rep.CycleCount,
		"durationMs", rep.DurationMs,
	)
	return rep, nil
}

func (r *Runner) publishStatus(state, message string, step, total int) {
	if r.sink == nil {
		return
	}
	r.sink.PublishStatus(state, message, step, total)
}

// describe names the input for the report header.
func describe(cfg *config.Config) string {
	if cfg.Command != "" {
		return cfg.Command
	}
	return cfg.Input
}
