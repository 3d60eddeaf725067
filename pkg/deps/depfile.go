package deps

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ritzau/scc-analyzer/pkg/config"
	"github.com/ritzau/scc-analyzer/pkg/graph"
	"github.com/ritzau/scc-analyzer/pkg/logging"
)

// FileSource loads a dependency graph from the configured input file.
type FileSource struct{}

func (FileSource) Name() string {
	return "depfile"
}

func (FileSource) Load(ctx context.Context, cfg *config.Config) (*graph.DepGraph, error) {
	logger := logging.New("source.depfile")

	f, err := os.Open(cfg.Input)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", cfg.Input, err)
	}
	defer func() { _ = f.Close() }()

	var dg *graph.DepGraph
	switch cfg.Format {
	case config.FormatPairs:
		dg, err = ParsePairs(f)
	default:
		dg, err = Parse(f)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", cfg.Input, err)
	}

	logger.Info("Parsed dependency file",
		"path", cfg.Input, "nodes", dg.NodeCount(), "edges", dg.EdgeCount())
	return dg, nil
}

// Parse reads the deps format. Each logical line is one of:
//
//	target: dep dep ...     makefile style record
//	a -> b c                arrow record, chains like a -> b -> c work too
//	lone                    a vertex without dependencies
//	# ...                   comment
//
// A trailing backslash continues the line. Malformed lines fail with their
// line number.
func Parse(r io.Reader) (*graph.DepGraph, error) {
	dg := graph.NewDepGraph()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var pending strings.Builder
	lineno, start := 0, 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()

		// Handle line continuations (backslash at end)
		if trimmed := strings.TrimSpace(line); strings.HasSuffix(trimmed, "\\") {
			if pending.Len() == 0 {
				start = lineno
			}
			pending.WriteString(strings.TrimSuffix(trimmed, "\\"))
			pending.WriteString(" ")
			continue
		}

		at := lineno
		if pending.Len() > 0 {
			at = start
		}
		pending.WriteString(line)
		full := pending.String()
		pending.Reset()

		if err := parseLine(dg, full); err != nil {
			return nil, fmt.Errorf("line %d: %w", at, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if pending.Len() > 0 {
		if err := parseLine(dg, pending.String()); err != nil {
			return nil, fmt.Errorf("line %d: %w", start, err)
		}
	}
	return dg, nil
}

func parseLine(dg *graph.DepGraph, line string) error {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil
	}

	// Arrow records. Every name left of an arrow depends on every name
	// right of it, segment by segment.
	if strings.Contains(trimmed, "->") {
		segments := strings.Split(trimmed, "->")
		lists := make([][]string, len(segments))
		for i, seg := range segments {
			lists[i] = strings.Fields(seg)
			if len(lists[i]) == 0 {
				return fmt.Errorf("empty side of arrow in %q", trimmed)
			}
		}
		for i := 0; i+1 < len(lists); i++ {
			for _, from := range lists[i] {
				for _, to := range lists[i+1] {
					dg.AddEdge(from, to)
				}
			}
		}
		return nil
	}

	// Makefile style records.
	if target, rest, found := strings.Cut(trimmed, ":"); found {
		target = strings.TrimSpace(target)
		if target == "" || len(strings.Fields(target)) != 1 {
			return fmt.Errorf("malformed target in %q", trimmed)
		}
		dg.AddNode(target)
		for _, dep := range strings.Fields(rest) {
			dg.AddEdge(target, dep)
		}
		return nil
	}

	// A bare vertex.
	if fields := strings.Fields(trimmed); len(fields) == 1 {
		dg.AddNode(fields[0])
		return nil
	}
	return fmt.Errorf("cannot parse %q", trimmed)
}

// ParsePairs reads one edge per line as whitespace separated names, the
// shape go mod graph emits. A line with a single name declares a vertex,
// and extra names fan out from the first.
func ParsePairs(r io.Reader) (*graph.DepGraph, error) {
	dg := graph.NewDepGraph()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 1 {
			dg.AddNode(fields[0])
			continue
		}
		for _, to := range fields[1:] {
			dg.AddEdge(fields[0], to)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", lineno, err)
	}
	return dg, nil
}
