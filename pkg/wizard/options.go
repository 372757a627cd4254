package wizard

import (
	"log/slog"
	"time"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/aretw0/stepwise/pkg/recommend"
	"github.com/aretw0/stepwise/pkg/schema"
)

// DefaultSubmitTimeout bounds a submission when no timeout is configured.
const DefaultSubmitTimeout = 10 * time.Second

// Option configures a Controller.
type Option func(*Controller)

// WithSessionID sets the session identifier. A UUID is generated otherwise.
func WithSessionID(id string) Option {
	return func(c *Controller) {
		c.sessionID = id
	}
}

// WithResolvers sets the compiled rule tables. The first one is primary.
// Without this option the tables of the flow are compiled at Start.
func WithResolvers(resolvers ...*recommend.Resolver) Option {
	return func(c *Controller) {
		c.resolvers = resolvers
		c.resolversSet = true
	}
}

// WithSchema sets the answer schema. It is derived from the flow otherwise.
func WithSchema(s schema.Schema) Option {
	return func(c *Controller) {
		c.schema = s
	}
}

// WithSubmitter sets the packaging collaborator. Defaults to submit.New().
func WithSubmitter(s ports.Submitter) Option {
	return func(c *Controller) {
		c.submitter = s
	}
}

// WithHandler sets the completion handler.
func WithHandler(h domain.CompletionHandler) Option {
	return func(c *Controller) {
		c.handler = h
	}
}

// WithLifecycleHooks registers observability callbacks. Hooks run
// synchronously while the controller is locked and must not call back into it.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithSubmitTimeout bounds each submission attempt.
func WithSubmitTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock sets the time source for submission timestamps and events.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}
