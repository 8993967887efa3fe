// Package status defines the closed set of project lifecycle states and maps
// them onto the fixed visual progress track shared by the doer app, the
// supervisor app, and the client portal. The taxonomy is data: it is loaded
// once from an embedded YAML table at process start and never mutated.
package status

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var taxonomyYAML []byte

// ErrUnknownStatus marks a status code the backend sent that is absent from
// the taxonomy. Callers that only render may ignore it: StatusFor always
// returns a usable sentinel value alongside the error.
var ErrUnknownStatus = errors.New("unknown project status")

// Emphasis classifies how a status-change card is rendered in the feed.
type Emphasis string

const (
	EmphasisNotice    Emphasis = "notice"
	EmphasisCelebrate Emphasis = "celebrate"
	EmphasisAlert     Emphasis = "alert"
)

// ProjectStatus is one discrete lifecycle state. Several codes may share a
// StepIndex; InheritsStep marks terminal-but-abnormal codes (cancelled,
// refunded) whose visual position is carried forward from the last
// productive state rather than fixed here.
type ProjectStatus struct {
	Code           string
	DisplayLabel   string
	StepIndex      int
	InheritsStep   bool
	Active         bool
	RequiresAction bool
	Terminal       bool
}

type taxonomyFile struct {
	TotalSteps int `yaml:"total_steps"`
	Statuses   []struct {
		Code           string   `yaml:"code"`
		Label          string   `yaml:"label"`
		Step           int      `yaml:"step"`
		InheritStep    bool     `yaml:"inherit_step"`
		RequiresAction bool     `yaml:"requires_action"`
		Terminal       bool     `yaml:"terminal"`
		Next           []string `yaml:"next"`
	} `yaml:"statuses"`
	Salience map[string]Emphasis `yaml:"salience"`
}

// Taxonomy is the immutable lookup table behind every status decision.
type Taxonomy struct {
	byCode     map[string]ProjectStatus
	next       map[string][]string
	salience   map[string]Emphasis
	totalSteps int
}

// Load parses and validates the embedded taxonomy table.
func Load() (*Taxonomy, error) {
	var file taxonomyFile
	if err := yaml.Unmarshal(taxonomyYAML, &file); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy: %w", err)
	}
	if file.TotalSteps <= 0 {
		return nil, fmt.Errorf("taxonomy total_steps must be positive, got %d", file.TotalSteps)
	}

	t := &Taxonomy{
		byCode:     make(map[string]ProjectStatus, len(file.Statuses)),
		next:       make(map[string][]string, len(file.Statuses)),
		salience:   file.Salience,
		totalSteps: file.TotalSteps,
	}
	if t.salience == nil {
		t.salience = map[string]Emphasis{}
	}

	for _, entry := range file.Statuses {
		if entry.Code == "" {
			return nil, errors.New("taxonomy entry without a code")
		}
		if _, dup := t.byCode[entry.Code]; dup {
			return nil, fmt.Errorf("duplicate taxonomy code %q", entry.Code)
		}
		if !entry.InheritStep && (entry.Step < 0 || entry.Step >= file.TotalSteps) {
			return nil, fmt.Errorf("status %q step %d outside track of %d steps", entry.Code, entry.Step, file.TotalSteps)
		}
		if entry.Terminal && len(entry.Next) > 0 {
			return nil, fmt.Errorf("terminal status %q must not list outgoing transitions", entry.Code)
		}
		t.byCode[entry.Code] = ProjectStatus{
			Code:           entry.Code,
			DisplayLabel:   entry.Label,
			StepIndex:      entry.Step,
			InheritsStep:   entry.InheritStep,
			Active:         !entry.Terminal,
			RequiresAction: entry.RequiresAction,
			Terminal:       entry.Terminal,
		}
		t.next[entry.Code] = entry.Next
	}

	// Transition targets must themselves be defined.
	for code, targets := range t.next {
		for _, target := range targets {
			if _, ok := t.byCode[target]; !ok {
				return nil, fmt.Errorf("status %q lists unknown transition target %q", code, target)
			}
		}
	}

	return t, nil
}

var defaultTaxonomy = sync.OnceValue(func() *Taxonomy {
	t, err := Load()
	if err != nil {
		panic(fmt.Sprintf("embedded taxonomy is invalid: %v", err))
	}
	return t
})

// Default returns the process-wide taxonomy loaded from the embedded table.
func Default() *Taxonomy {
	return defaultTaxonomy()
}

// StatusFor looks up a code. Unknown codes return a usable sentinel status
// (step 0, humanized label, no action required) together with
// ErrUnknownStatus, so a backend addition of a new code degrades to a
// generic rendering instead of a hard client failure.
func (t *Taxonomy) StatusFor(code string) (ProjectStatus, error) {
	if s, ok := t.byCode[code]; ok {
		return s, nil
	}
	return ProjectStatus{
		Code:         code,
		DisplayLabel: Humanize(code),
		StepIndex:    0,
		Active:       true,
	}, fmt.Errorf("%w: %q", ErrUnknownStatus, code)
}

// Known reports whether code is part of the closed set.
func (t *Taxonomy) Known(code string) bool {
	_, ok := t.byCode[code]
	return ok
}

// StepIndexOf is total: unknown and step-inheriting codes resolve to 0
// absent any history (see ResolveWithHistory).
func (t *Taxonomy) StepIndexOf(s ProjectStatus) int {
	if s.InheritsStep {
		return 0
	}
	return s.StepIndex
}

// IsVisuallyEquivalent reports whether a transition between the two codes
// lands on the same track position, meaning the progress bar should not
// animate.
func (t *Taxonomy) IsVisuallyEquivalent(a, b string) bool {
	return t.Resolve(a).Index == t.Resolve(b).Index
}

// CanTransition reports whether the taxonomy allows moving from one code
// directly to another. Terminal codes allow nothing.
func (t *Taxonomy) CanTransition(from, to string) bool {
	for _, target := range t.next[from] {
		if target == to {
			return true
		}
	}
	return false
}

// Salience returns the feed card emphasis for a status code.
func (t *Taxonomy) Salience(code string) Emphasis {
	if e, ok := t.salience[code]; ok {
		return e
	}
	return EmphasisNotice
}

// TotalSteps is the fixed cardinality of the visual progress track.
func (t *Taxonomy) TotalSteps() int {
	return t.totalSteps
}

// Humanize turns a raw status code into a displayable label:
// "submitted_for_qc" becomes "Submitted For Qc".
func Humanize(code string) string {
	words := strings.Split(code, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
