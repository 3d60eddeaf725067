package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ritzau/scc-analyzer/pkg/analysis"
	"github.com/ritzau/scc-analyzer/pkg/config"
	"github.com/ritzau/scc-analyzer/pkg/logging"
	"github.com/ritzau/scc-analyzer/pkg/model"
	"github.com/ritzau/scc-analyzer/pkg/output"
	"github.com/ritzau/scc-analyzer/pkg/watcher"
	"github.com/ritzau/scc-analyzer/pkg/web"
)

// configFile is also loaded by config.Load and watched in watch mode.
const configFile = "scc-analyzer.toml"

func main() {
	flags := pflag.NewFlagSet("scc-analyzer", pflag.ExitOnError)
	config.DefineFlags(flags)
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\nFlags:\n", err)
		flags.PrintDefaults()
		os.Exit(1)
	}

	logging.SetLevel(logging.LevelFromVerbosity(cfg.Verbosity))
	if cfg.JSONLogs {
		logging.SetJSONOutput()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case cfg.WebMode:
		err = runWeb(ctx, cfg, flags)
	case cfg.Watch:
		err = runWatch(ctx, cfg, flags)
	default:
		err = runOnce(ctx, cfg)
	}
	if err != nil {
		logging.Fatal("analyzer failed", "error", err)
	}
}

// runOnce analyzes, prints, and in check mode exits 2 on cycles.
func runOnce(ctx context.Context, cfg *config.Config) error {
	runner := analysis.NewRunner(cfg, nil)
	rep, err := runner.Run(ctx, analysis.Options{Reason: "startup"})
	if err != nil {
		return err
	}

	formatter := output.NewFormatter(os.Stdout, cfg.Verbosity == "quiet")
	if cfg.Check {
		formatter.PrintCycles(rep)
		if rep.HasCycles() {
			os.Exit(2)
		}
		return nil
	}
	formatter.PrintReport(rep)
	return nil
}

// runWatch analyzes once, then re-analyzes and re-prints on every change.
func runWatch(ctx context.Context, cfg *config.Config, flags *pflag.FlagSet) error {
	runner := analysis.NewRunner(cfg, nil)
	formatter := output.NewFormatter(os.Stdout, cfg.Verbosity == "quiet")

	rep, err := runner.Run(ctx, analysis.Options{Reason: "startup"})
	if err != nil {
		return err
	}
	formatter.PrintReport(rep)

	return watchLoop(ctx, cfg, flags, runner, func(rep *model.Report) {
		formatter.PrintReport(rep)
	})
}

// runWeb serves the explorer and runs the first analysis in the background
// so the UI can show progress from the start.
func runWeb(ctx context.Context, cfg *config.Config, flags *pflag.FlagSet) error {
	server := web.NewServer()
	runner := analysis.NewRunner(cfg, server)

	go func() {
		if _, err := runner.Run(ctx, analysis.Options{Reason: "startup"}); err != nil {
			logging.Error("analysis failed", "error", err)
		}
	}()

	if cfg.Watch {
		go func() {
			if err := watchLoop(ctx, cfg, flags, runner, nil); err != nil {
				logging.Error("watch failed", "error", err)
			}
		}()
	}

	if cfg.OpenBrowser {
		url := fmt.Sprintf("http://localhost:%d", cfg.Port)
		go func() {
			// Give the listener a moment before pointing a browser at it.
			time.Sleep(500 * time.Millisecond)
			openBrowser(url)
		}()
	}

	return server.Start(ctx, cfg.Port)
}

// watchLoop re-runs the analysis for every debounced change batch until
// ctx is canceled. Config changes reload settings first; a reload that
// fails keeps the previous settings.
func watchLoop(ctx context.Context, cfg *config.Config, flags *pflag.FlagSet, runner *analysis.Runner, onReport func(*model.Report)) error {
	fw, err := watcher.New(cfg.Input, configFile)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), 200*time.Millisecond, 2*time.Second)
	debouncer.Start(ctx)

	for event := range debouncer.Output() {
		plan := watcher.PlanFor(event)

		if plan.ReloadConfig {
			fresh, err := config.Load(flags)
			if err == nil {
				err = fresh.Validate()
			}
			if err != nil {
				logging.Warn("config reload failed, keeping previous settings", "error", err)
			} else {
				runner.SetConfig(fresh)
				logging.Info("configuration reloaded")
			}
		}

		if !plan.Reanalyze {
			continue
		}
		rep, err := runner.Run(ctx, analysis.Options{Reason: event.Reason()})
		if err != nil {
			logging.Error("re-analysis failed", "error", err)
			continue
		}
		if onReport != nil {
			onReport(rep)
		}
	}

	logging.Info("watch stopped")
	return nil
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		logging.Warn("cannot open a browser on this platform", "os", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		logging.Warn("failed to open browser", "error", err)
	}
}
