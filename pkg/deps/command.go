package deps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ritzau/scc-analyzer/pkg/config"
	"github.com/ritzau/scc-analyzer/pkg/graph"
	"github.com/ritzau/scc-analyzer/pkg/logging"
)

// Executor runs the external command a CommandSource feeds on. It exists so
// tests can substitute canned output.
type Executor interface {
	Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
}

// DefaultExecutor runs actual commands.
type DefaultExecutor struct{}

// Run executes the command in dir and returns its stdout. It respects the
// provided context for cancellation.
func (DefaultExecutor) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%s failed: %w\nstderr: %s", name, err, bytes.TrimSpace(exitErr.Stderr))
		}
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}
	return out, nil
}

// CommandSource builds the graph from the pair output of a command, such as
// go mod graph.
type CommandSource struct {
	executor Executor
}

// NewCommandSource creates a command source backed by the real executor.
func NewCommandSource() *CommandSource {
	return &CommandSource{executor: DefaultExecutor{}}
}

func (s *CommandSource) Name() string {
	return "command"
}

// Load runs the configured command and parses its output as pairs. The
// command string is split on whitespace, there is no shell involved.
func (s *CommandSource) Load(ctx context.Context, cfg *config.Config) (*graph.DepGraph, error) {
	logger := logging.New("source.command")

	argv := strings.Fields(cfg.Command)
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	logger.Info("Running dependency command", "command", cfg.Command, "dir", cfg.Dir)
	out, err := s.executor.Run(ctx, cfg.Dir, argv[0], argv[1:]...)
	if err != nil {
		return nil, err
	}

	dg, err := ParsePairs(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("parsing output of %q: %w", cfg.Command, err)
	}

	logger.Info("Parsed command output",
		"command", argv[0], "nodes", dg.NodeCount(), "edges", dg.EdgeCount())
	return dg, nil
}
