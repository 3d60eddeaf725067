// Package watcher re-runs the analysis when watched files change.
//
// The input file's directory is watched rather than the file itself, so
// editors that save by renaming a temp file over the original stay
// tracked. Raw notifications are batched over a short window, then the
// Debouncer coalesces bursts before anything re-runs.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/scc-analyzer/pkg/logging"
)

// ChangeKind classifies which watched file changed.
type ChangeKind int

const (
	// ChangeInput means the dependency input file changed.
	ChangeInput ChangeKind = iota
	// ChangeConfig means the configuration file changed.
	ChangeConfig
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeInput:
		return "input"
	case ChangeConfig:
		return "config"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// ChangeEvent is a batch of changes of one kind.
type ChangeEvent struct {
	Kind      ChangeKind
	Paths     []string
	Timestamp time.Time
}

// Reason describes the batch for log lines and status updates.
func (e ChangeEvent) Reason() string {
	if len(e.Paths) == 1 {
		return fmt.Sprintf("%s changed (%s)", e.Kind, filepath.Base(e.Paths[0]))
	}
	return fmt.Sprintf("%s changed (%d files)", e.Kind, len(e.Paths))
}

// flushInterval batches raw notifications, which arrive several per save.
const flushInterval = 100 * time.Millisecond

// FileWatcher turns raw file system notifications into ChangeEvents.
type FileWatcher struct {
	watcher    *fsnotify.Watcher
	inputPath  string
	configPath string
	events     chan ChangeEvent
	log        *slog.Logger
}

// New prepares a watcher for the input file and an optional config file.
// Paths are made absolute up front so events can be matched by name.
func New(inputPath, configPath string) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	absInput, err := filepath.Abs(inputPath)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("resolve %s: %w", inputPath, err)
	}
	fw := &FileWatcher{
		watcher:   w,
		inputPath: absInput,
		events:    make(chan ChangeEvent, 100),
		log:       logging.New("watcher"),
	}
	if configPath != "" {
		if fw.configPath, err = filepath.Abs(configPath); err != nil {
			w.Close()
			return nil, fmt.Errorf("resolve %s: %w", configPath, err)
		}
	}
	return fw, nil
}

// Start adds the watch directories and delivers events until ctx is
// canceled, at which point the Events channel closes.
func (fw *FileWatcher) Start(ctx context.Context) error {
	dirs := map[string]bool{filepath.Dir(fw.inputPath): true}
	if fw.configPath != "" {
		dirs[filepath.Dir(fw.configPath)] = true
	}
	for dir := range dirs {
		if err := fw.watcher.Add(dir); err != nil {
			fw.watcher.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		fw.log.Debug("watching directory", "path", dir)
	}

	fw.log.Info("watching for changes", "input", fw.inputPath)
	go fw.run(ctx)
	return nil
}

// Events returns the stream of batched changes.
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// classify maps a notification path to a change kind. The second return
// is false for files nobody asked about.
func (fw *FileWatcher) classify(name string) (ChangeKind, bool) {
	switch filepath.Clean(name) {
	case fw.inputPath:
		return ChangeInput, true
	case fw.configPath:
		return ChangeConfig, true
	default:
		return 0, false
	}
}

func (fw *FileWatcher) run(ctx context.Context) {
	batches := make(map[ChangeKind][]string)

	flushTimer := time.NewTimer(flushInterval)
	stopTimer(flushTimer)

	flush := func() {
		for _, kind := range []ChangeKind{ChangeConfig, ChangeInput} {
			paths := batches[kind]
			if len(paths) == 0 {
				continue
			}
			fw.events <- ChangeEvent{Kind: kind, Paths: paths, Timestamp: time.Now()}
		}
		clear(batches)
	}

	for {
		select {
		case <-ctx.Done():
			fw.watcher.Close()
			close(fw.events)
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				close(fw.events)
				return
			}
			// A rename-style save shows up as Create or Rename on the
			// final name; Chmod is noise.
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			kind, ok := fw.classify(event.Name)
			if !ok {
				continue
			}
			fw.log.Debug("file changed", "path", event.Name, "op", event.Op.String())
			path := filepath.Clean(event.Name)
			if !slices.Contains(batches[kind], path) {
				batches[kind] = append(batches[kind], path)
			}
			resetTimer(flushTimer, flushInterval)

		case <-flushTimer.C:
			flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				close(fw.events)
				return
			}
			fw.log.Error("watch error", "error", err)
		}
	}
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	stopTimer(t)
	t.Reset(d)
}
