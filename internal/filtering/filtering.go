package filtering

import (
	"context"
	"fmt"

	"github.com/spigell/hire-labor/internal/registry"
	"go.uber.org/zap"
)

// Filter represents a single filtering step applied to workers.
// Apply must not modify the slice it receives: it is a shared snapshot.
type Filter interface {
	Name() string
	IsEnabled() bool

	Apply(ctx context.Context, workers []registry.Worker) ([]registry.Worker, Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// Run executes the supplied filters sequentially and returns the surviving workers
// in their original order.
func Run(ctx context.Context, logger *zap.Logger, steps []Filter, workers []registry.Worker) ([]registry.Worker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, workers)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		logger.Debug("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		workers = next
	}

	return workers, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// keep returns a new slice with the workers accepted by match.
func keep(workers []registry.Worker, match func(registry.Worker) bool) ([]registry.Worker, Step) {
	out := make([]registry.Worker, 0, len(workers))
	for _, w := range workers {
		if match(w) {
			out = append(out, w)
		}
	}
	return out, Step{Initial: len(workers), Dropped: len(workers) - len(out), Left: len(out)}
}
