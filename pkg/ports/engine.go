package ports

import (
	"context"

	"github.com/aretw0/stepwise/pkg/domain"
)

// WizardHost is what network adapters (HTTP, MCP) drive. It owns many live
// wizard sessions and addresses them by session ID.
type WizardHost interface {
	// Open starts a new session of flowID and returns its first view.
	Open(ctx context.Context, flowID string) (domain.View, error)

	// View returns the current view of a live session.
	View(ctx context.Context, sessionID string) (domain.View, error)

	// Dispatch applies one user event and returns the resulting view.
	// The view is returned alongside rejection errors so callers can re-render.
	Dispatch(ctx context.Context, sessionID string, cmd domain.Command) (domain.View, error)

	// Cancel dismisses a session.
	Cancel(ctx context.Context, sessionID string) (domain.View, error)

	// Sessions lists the IDs of live sessions.
	Sessions() []string
}
