package filtering

import (
	"context"
	"strconv"
	"strings"

	"github.com/spigell/hire-labor/internal/registry"
	"github.com/spigell/hire-labor/internal/taxonomy"
)

type categoriesFilter struct {
	names []string
}

// NewCategories creates a filter that keeps workers whose skill matches any of the categories.
// An empty category list keeps nobody.
func NewCategories(categories []taxonomy.Category) Filter {
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return &categoriesFilter{names: names}
}

func (f *categoriesFilter) Name() string { return "categories" }

func (f *categoriesFilter) IsEnabled() bool { return true }

func (f *categoriesFilter) Apply(_ context.Context, workers []registry.Worker) ([]registry.Worker, Step, error) {
	out, step := keep(workers, func(w registry.Worker) bool {
		for _, name := range f.names {
			if MatchesCategory(name, w) {
				return true
			}
		}
		return false
	})
	return out, step, nil
}

func (f *categoriesFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: true,
		Details: map[string]string{"categories": strings.Join(f.names, ",")},
	}
}

type queryFilter struct {
	query string
}

// NewQuery creates a filter that keeps workers whose name or skill contains the raw query text.
func NewQuery(query string) Filter {
	return &queryFilter{query: strings.TrimSpace(query)}
}

func (f *queryFilter) Name() string { return "query" }

func (f *queryFilter) IsEnabled() bool { return true }

func (f *queryFilter) Apply(_ context.Context, workers []registry.Worker) ([]registry.Worker, Step, error) {
	out, step := keep(workers, func(w registry.Worker) bool {
		return MatchesQuery(f.query, w)
	})
	return out, step, nil
}

func (f *queryFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: true, Details: map[string]string{"query": f.query}}
}

type availableFilter struct {
	enabled bool
	reason  string
}

// NewAvailableOnly creates a filter that hides busy workers. It does nothing unless enabled.
func NewAvailableOnly(enabled bool) Filter {
	f := &availableFilter{enabled: enabled}
	if !enabled {
		f.reason = "available-only is not set"
	}
	return f
}

func (f *availableFilter) Name() string { return "available_only" }

func (f *availableFilter) IsEnabled() bool { return f.enabled }

func (f *availableFilter) Apply(_ context.Context, workers []registry.Worker) ([]registry.Worker, Step, error) {
	out, step := keep(workers, func(w registry.Worker) bool { return w.Available })
	return out, step, nil
}

func (f *availableFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.enabled,
		Reason:  f.reason,
		Details: map[string]string{"available_only": strconv.FormatBool(f.enabled)},
	}
}
