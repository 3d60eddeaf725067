package deps

import (
	"context"
	"fmt"

	"github.com/ritzau/scc-analyzer/pkg/config"
	"github.com/ritzau/scc-analyzer/pkg/graph"
)

// Source produces a dependency graph from some input. Implementations
// encapsulate where the edges come from (a file on disk, a command's output)
// and hand back the unified graph the analysis runs on.
type Source interface {
	// Name returns the short name of the source, e.g. "depfile".
	Name() string

	// Load reads the input and builds the graph. It should respect the
	// context for cancellation.
	Load(ctx context.Context, cfg *config.Config) (*graph.DepGraph, error)
}

// ForConfig picks the source matching the configuration: a command when one
// is set, otherwise the input file.
func ForConfig(cfg *config.Config) (Source, error) {
	if cfg.Command != "" {
		return NewCommandSource(), nil
	}
	if cfg.Input != "" {
		return FileSource{}, nil
	}
	return nil, fmt.Errorf("no input file or command configured")
}
