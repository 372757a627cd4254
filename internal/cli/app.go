package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"

	"github.com/aretw0/stepwise"
	"github.com/aretw0/stepwise/internal/config"
	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/pkg/adapters/file"
	loamadapter "github.com/aretw0/stepwise/pkg/adapters/loam"
	"github.com/aretw0/stepwise/pkg/adapters/memory"
	redisadapter "github.com/aretw0/stepwise/pkg/adapters/redis"
	"github.com/aretw0/stepwise/pkg/adapters/sqlite"
	"github.com/aretw0/stepwise/pkg/adapters/yamlflow"
	"github.com/aretw0/stepwise/pkg/flows"
	"github.com/aretw0/stepwise/pkg/observability"
	"github.com/aretw0/stepwise/pkg/persistence/middleware"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/aretw0/stepwise/pkg/session"
)

// App is the set of collaborators every command is built from.
type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Loader  ports.FlowLoader
	Results ports.ResultStore
	Metrics *observability.Metrics
	Engine  *stepwise.Engine

	redis   *redisadapter.ResultStore
	closers []func() error
}

// NewApp wires loader, result store, metrics and engine from cfg.
func NewApp(cfg config.Config) (*App, error) {
	logger, err := createLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Logger: logger}

	if app.Loader, err = createLoader(cfg.Flows); err != nil {
		return nil, err
	}
	if err := app.openResults(); err != nil {
		_ = app.Close()
		return nil, err
	}

	app.Metrics = observability.NewMetrics("stepwise")
	hooks := observability.MergeHooks(observability.LoggingHooks(logger), app.Metrics.Hooks())

	app.Engine, err = stepwise.New(
		stepwise.WithLoader(app.Loader),
		stepwise.WithLogger(logger),
		stepwise.WithLifecycleHooks(hooks),
		stepwise.WithResultStore(app.Results),
		stepwise.WithSubmitTimeout(cfg.Submit.Timeout),
	)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return app, nil
}

// Manager hosts sessions for the network adapters. With the redis backend,
// session events are serialized across replicas through a redis lock.
func (a *App) Manager(opts ...session.Option) *session.Manager {
	opts = append([]session.Option{session.WithLogger(a.Logger)}, opts...)
	if a.redis != nil {
		opts = append(opts, session.WithLocker(redisadapter.NewLocker(a.redis.Client(), "stepwise:lock:")))
	}
	return session.NewManager(a.Engine, opts...)
}

// Close releases stores opened by NewApp.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func createLogger(cfg config.LogConfig) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewWithFormat(os.Stderr, cfg.Format, level), nil
}

func createLoader(cfg config.FlowsConfig) (ports.FlowLoader, error) {
	switch cfg.Source {
	case config.SourceYAML:
		return yamlflow.NewDir(cfg.Dir), nil
	case config.SourceLoam:
		l, err := loamadapter.Open(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("open flow repository %s: %w", cfg.Dir, err)
		}
		return l, nil
	default:
		return flows.Loader(), nil
	}
}

func (a *App) openResults() error {
	cfg := a.Config
	var store ports.ResultStore

	switch cfg.Results.Backend {
	case config.BackendFile:
		store = file.New(cfg.Results.Path)
	case config.BackendRedis:
		var opts []redisadapter.Option
		if cfg.Results.TTL > 0 {
			opts = append(opts, redisadapter.WithTTL(cfg.Results.TTL))
		}
		a.redis = redisadapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		a.closers = append(a.closers, a.redis.Close)
		store = a.redis
	case config.BackendSQLite:
		s, err := sqlite.New(cfg.Results.Path)
		if err != nil {
			return fmt.Errorf("open sqlite results: %w", err)
		}
		a.closers = append(a.closers, s.Close)
		store = s
	default:
		store = memory.NewResultStore()
	}

	var mws []middleware.Middleware
	if len(cfg.Results.PIIPatterns) > 0 {
		for _, p := range cfg.Results.PIIPatterns {
			if _, err := regexp.Compile(p); err != nil {
				return fmt.Errorf("results.pii_patterns: %w", err)
			}
		}
		mws = append(mws, middleware.NewPIIMiddleware(cfg.Results.PIIPatterns))
	}
	if cfg.Results.EncryptionKey != "" {
		key, err := middleware.ParseKey(cfg.Results.EncryptionKey)
		if err != nil {
			return fmt.Errorf("results.encryption_key: %w", err)
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}

	a.Results = middleware.Chain(store, mws...)
	return nil
}
