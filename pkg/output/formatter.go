package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ritzau/scc-analyzer/pkg/model"
)

// Formatter renders an analysis report for the terminal. In quiet mode
// only cycles and the closing summary are printed.
type Formatter struct {
	w     io.Writer
	quiet bool
}

// NewFormatter writes to w, which is stdout in the CLI.
func NewFormatter(w io.Writer, quiet bool) *Formatter {
	return &Formatter{w: w, quiet: quiet}
}

// PrintReport prints the full console report.
func (f *Formatter) PrintReport(rep *model.Report) {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	red := color.New(color.FgRed)

	if !f.quiet {
		bold.Fprintln(f.w, "SCC Analyzer - Dependency Report")
		bold.Fprintln(f.w, "================================")
		if rep.Source != "" {
			fmt.Fprintf(f.w, "Source: %s\n", rep.Source)
		}
		fmt.Fprintf(f.w, "Nodes: %d, edges: %d\n", rep.NodeCount, rep.EdgeCount)
		fmt.Fprintf(f.w, "Components: %d\n", rep.ComponentCount)
		fmt.Fprintln(f.w)
	}

	f.printCycles(rep)

	if !f.quiet {
		bold.Fprintln(f.w, "PROCESSING STAGES:")
		for i, stage := range rep.Stages {
			cyan.Fprintf(f.w, "  stage %d (depth %d): ", i+1, stage.Depth)
			fmt.Fprintf(f.w, "%d component(s), %d node(s)\n", len(stage.Components), stage.Members)
		}
		fmt.Fprintln(f.w)

		bold.Fprintln(f.w, "COMPONENTS:")
		for _, comp := range rep.Components {
			fmt.Fprintf(f.w, "  #%d [depth %d] %s", comp.Index, comp.Depth, strings.Join(comp.Members, ", "))
			if len(comp.DirectSuccessors) > 0 {
				refs := make([]string, len(comp.DirectSuccessors))
				for i, s := range comp.DirectSuccessors {
					refs[i] = fmt.Sprintf("#%d", s)
				}
				fmt.Fprintf(f.w, " -> %s", strings.Join(refs, ", "))
			}
			if comp.Cyclic {
				red.Fprint(f.w, "  (cycle)")
			}
			fmt.Fprintln(f.w)
		}
		fmt.Fprintln(f.w)
	}

	f.printSummary(rep)
}

// PrintCycles lists only the cycle groups, for check runs.
func (f *Formatter) PrintCycles(rep *model.Report) {
	f.printCycles(rep)
	f.printSummary(rep)
}

func (f *Formatter) printCycles(rep *model.Report) {
	if !rep.HasCycles() {
		return
	}
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	red.Fprintln(f.w, "CYCLES:")
	for _, cycle := range rep.Cycles {
		yellow.Fprintf(f.w, "  #%d: %s\n", cycle.Index, strings.Join(cycle.Members, " <-> "))
	}
	fmt.Fprintln(f.w)
}

func (f *Formatter) printSummary(rep *model.Report) {
	if !rep.HasCycles() {
		green := color.New(color.FgGreen)
		green.Fprintln(f.w, "✓ No dependency cycles")
		return
	}

	nodes := 0
	for _, cycle := range rep.Cycles {
		nodes += len(cycle.Members)
	}
	red := color.New(color.FgRed)
	red.Fprintf(f.w, "Summary: %d cycle(s) involving %d node(s)\n", rep.CycleCount, nodes)
}
