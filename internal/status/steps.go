package status

// Step is a position on the fixed visual progress track.
type Step struct {
	Index int `json:"step_index"`
	Total int `json:"total_steps"`
}

// Resolve maps a status code onto the track. Unknown codes land on step 0,
// and step-inheriting codes (cancelled, refunded) also resolve to 0 when no
// history is available; use ResolveWithHistory for those.
func (t *Taxonomy) Resolve(code string) Step {
	s, _ := t.StatusFor(code)
	return Step{Index: t.StepIndexOf(s), Total: t.totalSteps}
}

// ResolveWithHistory maps the current code onto the track, carrying the last
// productive step forward for cancelled/refunded projects. history is the
// ordered sequence of codes the project has passed through (oldest first);
// the newest entry with a fixed track position wins. A project cancelled at
// "quoted" therefore keeps the quoted step instead of snapping back to 0.
func (t *Taxonomy) ResolveWithHistory(current string, history []string) Step {
	s, _ := t.StatusFor(current)
	if !s.InheritsStep {
		return Step{Index: s.StepIndex, Total: t.totalSteps}
	}
	for i := len(history) - 1; i >= 0; i-- {
		prev, err := t.StatusFor(history[i])
		if err != nil || prev.InheritsStep {
			continue
		}
		return Step{Index: prev.StepIndex, Total: t.totalSteps}
	}
	return Step{Index: 0, Total: t.totalSteps}
}
