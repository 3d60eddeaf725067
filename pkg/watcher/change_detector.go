package watcher

// Plan says what must happen in response to a change batch.
type Plan struct {
	ReloadConfig bool
	Reanalyze    bool
	ChangedFiles []string
}

// PlanFor maps a change batch to the work it requires. Config changes
// reload settings and then re-run; input changes only re-run.
func PlanFor(event ChangeEvent) *Plan {
	plan := &Plan{ChangedFiles: event.Paths}

	switch event.Kind {
	case ChangeConfig:
		plan.ReloadConfig = true
		plan.Reanalyze = true
	case ChangeInput:
		plan.Reanalyze = true
	}

	return plan
}
