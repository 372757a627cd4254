package stepwise

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/flows"
	"github.com/aretw0/stepwise/pkg/graph"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/aretw0/stepwise/pkg/recommend"
	"github.com/aretw0/stepwise/pkg/schema"
	"github.com/aretw0/stepwise/pkg/submit"
	"github.com/aretw0/stepwise/pkg/wizard"
)

// Engine is the high-level entry point for the stepwise library.
// It loads flow definitions, compiles them once and opens wizard sessions.
// An Engine is safe for concurrent use.
type Engine struct {
	loader    ports.FlowLoader
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	submitter ports.Submitter
	store     ports.ResultStore
	evaluator graph.ConditionEvaluator
	timeout   time.Duration
	now       func() time.Time

	mu    sync.RWMutex
	cache map[string]*compiled
}

// compiled is the immutable, shareable form of one flow.
type compiled struct {
	graph     *graph.Graph
	resolvers []*recommend.Resolver
	schema    schema.Schema
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLoader injects a custom FlowLoader instead of the built-in catalog.
func WithLoader(l ports.FlowLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithLogger sets a custom structured logger for the engine and its wizards.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks on every opened wizard.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithSubmitter replaces the default packager for every wizard.
func WithSubmitter(s ports.Submitter) Option {
	return func(e *Engine) {
		e.submitter = s
	}
}

// WithResultStore makes the default packager save each result before completing.
// It has no effect when WithSubmitter is used.
func WithResultStore(store ports.ResultStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithConditionEvaluator sets a custom evaluator for transition conditions.
func WithConditionEvaluator(eval graph.ConditionEvaluator) Option {
	return func(e *Engine) {
		e.evaluator = eval
	}
}

// WithSubmitTimeout bounds every submission attempt.
func WithSubmitTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithClock sets the time source stamped on results.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New initializes an Engine. Without WithLoader it serves the built-in catalog.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:  logging.NewNop(),
		timeout: wizard.DefaultSubmitTimeout,
		now:     time.Now,
		cache:   make(map[string]*compiled),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.loader == nil {
		e.loader = flows.Loader()
	}
	return e, nil
}

// Loader returns the underlying FlowLoader.
func (e *Engine) Loader() ports.FlowLoader {
	return e.loader
}

// Flows lists the available flow IDs.
func (e *Engine) Flows() ([]string, error) {
	return e.loader.ListFlows()
}

// Flow returns the definition of a flow.
func (e *Engine) Flow(id string) (domain.Flow, error) {
	c, err := e.compile(id)
	if err != nil {
		return domain.Flow{}, err
	}
	return c.graph.Flow(), nil
}

// Graph returns the compiled step graph of a flow.
func (e *Engine) Graph(id string) (*graph.Graph, error) {
	c, err := e.compile(id)
	if err != nil {
		return nil, err
	}
	return c.graph, nil
}

// Open starts a wizard session on flowID. Options given here override the
// engine defaults.
func (e *Engine) Open(ctx context.Context, flowID string, opts ...wizard.Option) (*wizard.Controller, error) {
	c, err := e.compile(flowID)
	if err != nil {
		return nil, err
	}

	submitter := e.submitter
	if submitter == nil {
		submitter = submit.New(
			submit.WithSchema(c.schema),
			submit.WithStore(e.store),
			submit.WithClock(e.now),
			submit.WithLogger(e.logger),
		)
	}

	base := []wizard.Option{
		wizard.WithResolvers(c.resolvers...),
		wizard.WithSchema(c.schema),
		wizard.WithSubmitter(submitter),
		wizard.WithLifecycleHooks(e.hooks),
		wizard.WithLogger(e.logger),
		wizard.WithSubmitTimeout(e.timeout),
		wizard.WithClock(e.now),
	}
	return wizard.Start(ctx, c.graph, append(base, opts...)...)
}

// Invalidate drops cached compilations so the next Open reloads them.
// With no IDs the whole cache is cleared.
func (e *Engine) Invalidate(ids ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(ids) == 0 {
		e.cache = make(map[string]*compiled)
		return
	}
	for _, id := range ids {
		delete(e.cache, id)
	}
}

// Watch forwards change notifications from the loader and invalidates the
// affected flows. Returns an error if the loader does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	w, ok := e.loader.(ports.Watchable)
	if !ok {
		return nil, fmt.Errorf("current loader does not support watching")
	}
	events, err := w.Watch(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan string, 1)
	go func() {
		defer close(out)
		for id := range events {
			e.Invalidate(id)
			e.logger.Info("flow changed", "flow_id", id)
			select {
			case out <- id:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (e *Engine) compile(id string) (*compiled, error) {
	e.mu.RLock()
	c, ok := e.cache[id]
	e.mu.RUnlock()
	if ok {
		return c, nil
	}

	flow, err := e.loader.GetFlow(id)
	if err != nil {
		if errors.Is(err, domain.ErrFlowNotFound) {
			return nil, e.suggest(id, err)
		}
		return nil, err
	}

	var gopts []graph.Option
	if e.evaluator != nil {
		gopts = append(gopts, graph.WithConditionEvaluator(e.evaluator))
	}
	g, err := graph.New(*flow, gopts...)
	if err != nil {
		return nil, fmt.Errorf("flow %s: %w", id, err)
	}
	resolvers, err := recommend.Compile(flow.Recommendations)
	if err != nil {
		return nil, fmt.Errorf("flow %s: %w", id, err)
	}
	s, err := schema.FromFields(g.Fields())
	if err != nil {
		return nil, fmt.Errorf("flow %s: %w", id, err)
	}

	c = &compiled{graph: g, resolvers: resolvers, schema: s}
	e.mu.Lock()
	e.cache[id] = c
	e.mu.Unlock()

	e.logger.Debug("flow compiled", "flow_id", id, "steps", len(flow.Steps), "tables", len(resolvers))
	return c, nil
}

// suggest decorates a not-found error with the closest known flow ID.
func (e *Engine) suggest(id string, err error) error {
	ids, listErr := e.loader.ListFlows()
	if listErr != nil {
		return err
	}
	if best, ok := Closest(id, ids); ok {
		return fmt.Errorf("%w (did you mean %q?)", err, best)
	}
	return err
}

// Closest returns the candidate nearest to s by edit distance, if any is
// close enough to be a plausible typo.
func Closest(s string, candidates []string) (string, bool) {
	best, bestDist := "", -1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(s, c)
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist < 0 || bestDist > max(2, len(s)/3) {
		return "", false
	}
	return best, true
}
