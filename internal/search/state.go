package search

import (
	"slices"

	"github.com/spigell/hire-labor/internal/filtering"
	"github.com/spigell/hire-labor/internal/registry"
)

// Mode tells which path produced the applied result.
type Mode string

const (
	// ModeAll is an empty query: the full snapshot.
	ModeAll Mode = "all"
	// ModeClassified filters by the categories the classifier extracted.
	ModeClassified Mode = "classified"
	// ModeLocal filters by substring match on the raw query.
	ModeLocal Mode = "local"
)

// State is what the presentation layer renders. Results keep snapshot order.
type State struct {
	Query      string            `json:"query"`
	Generation uint64            `json:"generation"`
	Results    []registry.Worker `json:"results"`
	NoResults  bool              `json:"no_results"`
	Loading    bool              `json:"loading"`

	// Applied is the generation whose result is currently shown.
	Applied    uint64             `json:"applied_generation"`
	Mode       Mode               `json:"mode,omitempty"`
	Categories []string           `json:"categories,omitempty"`
	Filters    []filtering.Status `json:"filters,omitempty"`
}

// CountBySkill counts the shown workers per skill.
func (s State) CountBySkill() map[string]int {
	counts := make(map[string]int)
	for _, w := range s.Results {
		counts[w.Skill]++
	}
	return counts
}

func (s State) clone() State {
	s.Results = slices.Clone(s.Results)
	s.Categories = slices.Clone(s.Categories)
	s.Filters = slices.Clone(s.Filters)
	return s
}
