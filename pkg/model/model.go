// Package model defines the JSON report shared by the web API, SSE
// payloads, and console output.
package model

import (
	"sort"
	"time"

	"github.com/ritzau/scc-analyzer/pkg/cycles"
	"github.com/ritzau/scc-analyzer/pkg/graph"
	"github.com/ritzau/scc-analyzer/pkg/scc"
	"github.com/ritzau/scc-analyzer/pkg/schedule"
)

// Report is the complete result of one analysis run.
type Report struct {
	GeneratedAt    time.Time    `json:"generatedAt"`
	Source         string       `json:"source,omitempty"` // input descriptor, e.g. file path or command line
	NodeCount      int          `json:"nodeCount"`
	EdgeCount      int          `json:"edgeCount"`
	ComponentCount int          `json:"componentCount"`
	CycleCount     int          `json:"cycleCount"`
	Components     []Component  `json:"components"`
	Stages         []Stage      `json:"stages"`
	Cycles         []CycleGroup `json:"cycles"`
	DurationMs     int64        `json:"durationMs"`
}

// Component is one strongly connected component of the input graph.
type Component struct {
	Index   int      `json:"index"`
	Members []string `json:"members"` // node labels, sorted
	Cyclic  bool     `json:"cyclic"`
	Depth   int      `json:"depth"`
	// Successors lists the components this one depends on, self edges
	// omitted; the Cyclic flag already covers those.
	Successors []int `json:"successors"`
	// DirectSuccessors is the transitive reduction of Successors: the
	// minimal prerequisite set.
	DirectSuccessors []int `json:"directSuccessors"`
}

// Stage is one batch of the processing schedule. Stages appear in
// processing order, prerequisites first.
type Stage struct {
	Depth      int   `json:"depth"`
	Components []int `json:"components"`
	Members    int   `json:"members"` // total nodes across the stage
}

// CycleGroup is one cyclic component, resolved to sorted node labels.
type CycleGroup struct {
	Index   int      `json:"index"`
	Members []string `json:"members"`
}

// BuildReport assembles the full analysis result from a dependency graph
// and its condensation. Source is left empty for the caller to stamp.
func BuildReport(dg *graph.DepGraph, comps *scc.Components[int64], elapsed time.Duration) *Report {
	depths := comps.Depths()

	components := make([]Component, 0, comps.Len())
	for i, members := range comps.All() {
		labels := dg.Labels(members)
		sort.Strings(labels)

		succs := make([]int, 0)
		if seq, ok := comps.Successors(i); ok {
			for s := range seq {
				if s != i {
					succs = append(succs, s)
				}
			}
		}
		sort.Ints(succs)

		direct, _ := schedule.EffectiveDeps(comps, i)
		if direct == nil {
			direct = make([]int, 0)
		}

		components = append(components, Component{
			Index:            i,
			Members:          labels,
			Cyclic:           comps.IsCyclic(i),
			Depth:            depths[i],
			Successors:       succs,
			DirectSuccessors: direct,
		})
	}

	stages := make([]Stage, 0)
	for _, st := range schedule.Stages(comps) {
		total := 0
		for _, comp := range st.Components {
			if m, ok := comps.Component(comp); ok {
				total += len(m)
			}
		}
		stages = append(stages, Stage{Depth: st.Depth, Components: st.Components, Members: total})
	}

	groups := make([]CycleGroup, 0)
	for _, c := range cycles.Collect(dg, comps) {
		groups = append(groups, CycleGroup{Index: c.Component, Members: c.Members})
	}

	return &Report{
		GeneratedAt:    time.Now().UTC(),
		NodeCount:      dg.NodeCount(),
		EdgeCount:      dg.EdgeCount(),
		ComponentCount: comps.Len(),
		CycleCount:     len(groups),
		Components:     components,
		Stages:         stages,
		Cycles:         groups,
		DurationMs:     elapsed.Milliseconds(),
	}
}

// HasCycles reports whether any component is cyclic.
func (r *Report) HasCycles() bool {
	return r.CycleCount > 0
}

// ComponentFor returns the component containing the given node label.
func (r *Report) ComponentFor(label string) (*Component, bool) {
	for i := range r.Components {
		for _, member := range r.Components[i].Members {
			if member == label {
				return &r.Components[i], true
			}
		}
	}
	return nil, false
}
