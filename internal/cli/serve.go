package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/stepwise"
	httpadapter "github.com/aretw0/stepwise/pkg/adapters/http"
	mcpadapter "github.com/aretw0/stepwise/pkg/adapters/mcp"
	"github.com/aretw0/stepwise/pkg/session"
)

// ServeOptions configures the network front ends.
type ServeOptions struct {
	Port        int
	IdleTimeout time.Duration
}

// Serve runs the HTTP API until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, app *App, opts ServeOptions) error {
	manager := app.Manager(opts.sessionOptions()...)
	defer manager.Close()

	go manager.RunSweeper(ctx, sweepInterval(opts.IdleTimeout))
	watchFlows(ctx, app.Engine, app.Logger)

	handler := httpadapter.NewHandler(manager, app.Engine,
		httpadapter.WithResultStore(app.Results),
		httpadapter.WithMetrics(app.Metrics.Handler()),
		httpadapter.WithVersion(stepwise.Version),
		httpadapter.WithLogger(app.Logger),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		app.Logger.Info("starting HTTP server", "address", srv.Addr, "flows", app.Config.Flows.Source)
		serverErrors <- srv.ListenAndServe()
		return nil
	})

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.Logger.Info("shutting down HTTP server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Warn("graceful shutdown did not complete", "err", err)
			return srv.Close()
		}
		return nil
	}
}

// ServeMCP runs the MCP server on stdio or SSE.
func ServeMCP(ctx context.Context, app *App, transport string, opts ServeOptions) error {
	manager := app.Manager(opts.sessionOptions()...)
	defer manager.Close()

	go manager.RunSweeper(ctx, sweepInterval(opts.IdleTimeout))
	watchFlows(ctx, app.Engine, app.Logger)

	srv := mcpadapter.NewServer(manager, app.Engine, app.Logger)
	switch transport {
	case "stdio":
		app.Logger.Info("starting MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		err := srv.ServeSSE(ctx, opts.Port)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	default:
		return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
	}
}

func (o ServeOptions) sessionOptions() []session.Option {
	if o.IdleTimeout <= 0 {
		return nil
	}
	return []session.Option{session.WithIdleTimeout(o.IdleTimeout)}
}

func sweepInterval(idle time.Duration) time.Duration {
	if idle <= 0 {
		return time.Minute
	}
	return max(idle/4, time.Second)
}
