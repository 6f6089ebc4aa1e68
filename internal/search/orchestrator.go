// Package search runs free-text worker searches against the registry snapshot
// and publishes only the result of the most recently issued query.
package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/hire-labor/internal/ai"
	"github.com/spigell/hire-labor/internal/filtering"
	"github.com/spigell/hire-labor/internal/logger"
	"github.com/spigell/hire-labor/internal/registry"
	"github.com/spigell/hire-labor/internal/taxonomy"
)

// Options tune an Orchestrator.
type Options struct {
	// AvailableOnly hides busy workers from every result.
	AvailableOnly bool
}

// plan is the filter recipe of one search. Refresh re-runs the last applied plan.
type plan struct {
	generation uint64
	query      string
	mode       Mode
	categories []taxonomy.Category
}

// Orchestrator is the single writer of the search State.
type Orchestrator struct {
	// ctx bounds classification calls; they outlive the Search call that started them.
	ctx        context.Context
	cache      *registry.Cache
	classifier ai.Classifier
	logger     *zap.Logger
	opts       Options

	mu         sync.Mutex
	generation uint64
	state      State
	last       *plan
	cancel     context.CancelFunc

	pending int
	idle    chan struct{}

	subscribers map[int]chan State
	nextSubID   int
}

// New creates an Orchestrator. A nil classifier sends every query to the local matcher.
func New(ctx context.Context, cache *registry.Cache, classifier ai.Classifier, log *zap.Logger, opts Options) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}

	idle := make(chan struct{})
	close(idle)

	return &Orchestrator{
		ctx:         ctx,
		cache:       cache,
		classifier:  classifier,
		logger:      log,
		opts:        opts,
		idle:        idle,
		subscribers: make(map[int]chan State),
	}
}

// Search issues a new query and returns its generation. It never waits for the
// classifier: completion is observed through State, Wait or Subscribe.
// An empty or whitespace query shows the whole snapshot.
func (o *Orchestrator) Search(query string) uint64 {
	o.mu.Lock()

	o.generation++
	g := o.generation

	// The older call can no longer be applied; stop paying for it.
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}

	o.state.Query = query
	o.state.Generation = g
	o.state.Loading = true

	trimmed := strings.TrimSpace(query)
	o.logger.Info("search issued", logger.SearchFields(g, trimmed)...)

	switch {
	case trimmed == "":
		o.applyLocked(plan{generation: g, mode: ModeAll})
		o.mu.Unlock()
		return g
	case o.classifier == nil:
		o.applyLocked(plan{generation: g, query: trimmed, mode: ModeLocal})
		o.mu.Unlock()
		return g
	}

	ctx, cancel := context.WithCancel(o.ctx)
	o.cancel = cancel
	o.beginLocked()
	o.mu.Unlock()

	go o.classify(ctx, cancel, g, trimmed)

	return g
}

// Clear is Search("").
func (o *Orchestrator) Clear() uint64 {
	return o.Search("")
}

// Refresh reloads the registry and re-applies the last applied filter to the new
// snapshot without calling the classifier. A failed reload keeps the current
// snapshot and result and returns an error wrapping registry.ErrStoreUnavailable.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	if err := o.cache.Refresh(ctx); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case o.last == nil && o.generation == 0:
		o.applyLocked(plan{mode: ModeAll})
	case o.last == nil || o.last.generation != o.generation:
		// The newest search is still classifying; it filters the fresh snapshot when it resolves.
		o.logger.Debug("refresh leaves re-filtering to the in-flight search",
			zap.Uint64(logger.FieldGeneration, o.generation),
		)
	default:
		o.logger.Debug("re-applying last search to refreshed snapshot",
			logger.SearchFields(o.last.generation, o.last.query)...,
		)
		o.applyLocked(*o.last)
	}

	return nil
}

// Ready reports whether the registry was loaded from its store at least once.
func (o *Orchestrator) Ready() bool {
	return o.cache.Loaded()
}

// State returns a copy of the current search state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.clone()
}

// Wait blocks until no classification is in flight or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context) error {
	o.mu.Lock()
	idle := o.idle
	o.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe delivers every applied State. Slow readers only see the latest one.
// The returned function unsubscribes and closes the channel.
func (o *Orchestrator) Subscribe() (<-chan State, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextSubID
	o.nextSubID++
	ch := make(chan State, 1)
	o.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			delete(o.subscribers, id)
			close(ch)
		})
	}
}

func (o *Orchestrator) classify(ctx context.Context, cancel context.CancelFunc, g uint64, query string) {
	defer o.end()
	defer cancel()

	p := plan{generation: g, query: query}

	categories, err := o.extract(ctx, query)
	if err != nil {
		if !ai.IsUnavailable(err) {
			err = ai.Unavailable(err)
		}
		p.mode = ModeLocal
	} else {
		p.mode = ModeClassified
		p.categories = categories
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if g != o.generation {
		o.logger.Debug("discarding superseded search",
			append(logger.SearchFields(g, query), zap.Uint64("current_generation", o.generation))...,
		)
		return
	}
	o.cancel = nil

	if err != nil {
		o.logger.Warn("classifier unavailable, falling back to local matching",
			append(logger.SearchFields(g, query), zap.Error(err))...,
		)
	}

	o.applyLocked(p)
}

// extract keeps classifier panics from escaping the search goroutine.
func (o *Orchestrator) extract(ctx context.Context, query string) (categories []taxonomy.Category, err error) {
	defer func() {
		if r := recover(); r != nil {
			categories, err = nil, ai.Unavailable(fmt.Errorf("classifier panic: %v", r))
		}
	}()
	return o.classifier.ExtractCategories(ctx, query)
}

func (o *Orchestrator) steps(p plan) []filtering.Filter {
	var steps []filtering.Filter
	switch p.mode {
	case ModeClassified:
		steps = append(steps, filtering.NewCategories(p.categories))
	case ModeLocal:
		steps = append(steps, filtering.NewQuery(p.query))
	}
	return append(steps, filtering.NewAvailableOnly(o.opts.AvailableOnly))
}

// applyLocked publishes the result of p. The caller holds o.mu.
func (o *Orchestrator) applyLocked(p plan) {
	snapshot := o.cache.Current()
	steps := o.steps(p)

	results, err := filtering.Run(o.ctx, o.logger, steps, snapshot.Workers)
	if err != nil {
		// Built-in filters do not fail; an empty result is the safe answer.
		o.logger.Error("filtering failed", append(logger.SearchFields(p.generation, p.query), zap.Error(err))...)
		results = []registry.Worker{}
	}

	names := make([]string, 0, len(p.categories))
	for _, c := range p.categories {
		names = append(names, c.Name)
	}

	o.state.Results = results
	o.state.NoResults = p.query != "" && len(results) == 0
	o.state.Loading = false
	o.state.Applied = p.generation
	o.state.Mode = p.mode
	o.state.Categories = names
	o.state.Filters = filtering.Describe(steps)
	o.last = &p

	o.logger.Info("search applied",
		append(logger.SearchFields(p.generation, p.query),
			zap.String("mode", string(p.mode)),
			zap.Strings("categories", names),
			zap.Int("results", len(results)),
			zap.Int("snapshot", snapshot.Len()),
		)...,
	)

	o.publishLocked()
}

func (o *Orchestrator) publishLocked() {
	if len(o.subscribers) == 0 {
		return
	}
	for _, ch := range o.subscribers {
		s := o.state.clone()
		// Single sender under o.mu: after draining, the send cannot block.
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

func (o *Orchestrator) beginLocked() {
	if o.pending == 0 {
		o.idle = make(chan struct{})
	}
	o.pending++
}

func (o *Orchestrator) end() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending--
	if o.pending == 0 {
		close(o.idle)
	}
}
