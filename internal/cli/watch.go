package cli

import (
	"context"
	"log/slog"

	"github.com/aretw0/stepwise"
)

// watchFlows invalidates changed flows for as long as ctx lives. Loaders
// without change notification are served as loaded.
func watchFlows(ctx context.Context, engine *stepwise.Engine, logger *slog.Logger) {
	events, err := engine.Watch(ctx)
	if err != nil {
		logger.Debug("flow hot reload disabled", "err", err)
		return
	}
	go func() {
		for id := range events {
			logger.Debug("flow reload picked up", "flow_id", id)
		}
	}()
}
