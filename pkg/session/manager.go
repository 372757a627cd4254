package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/aretw0/stepwise/pkg/wizard"
	"github.com/google/uuid"
)

// Opener starts wizard sessions. *stepwise.Engine implements it.
type Opener interface {
	Open(ctx context.Context, flowID string, opts ...wizard.Option) (*wizard.Controller, error)
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

type hosted struct {
	ctrl     *wizard.Controller
	lastSeen time.Time
	subs     map[int]chan domain.View
}

type finished struct {
	view domain.View
	at   time.Time
}

// Manager orchestrates wizard sessions, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	opener Opener

	mu       sync.Mutex            // guards every map below
	locks    map[string]*lockEntry // per-session event locks
	sessions map[string]*hosted
	done     map[string]finished
	nextSub  int

	locker  ports.DistributedLocker
	lockTTL time.Duration
	idleTTL time.Duration
	handler domain.CompletionHandler
	opts    []wizard.Option
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks. Defaults to 30s.
func WithLockTTL(d time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = d
	}
}

// WithIdleTimeout sets how long an untouched session survives a Sweep.
// Defaults to 30 minutes.
func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.idleTTL = d
	}
}

// WithCompletionHandler receives every outcome of every hosted wizard.
func WithCompletionHandler(h domain.CompletionHandler) Option {
	return func(m *Manager) {
		m.handler = h
	}
}

// WithWizardOptions appends options to every opened wizard.
func WithWizardOptions(opts ...wizard.Option) Option {
	return func(m *Manager) {
		m.opts = append(m.opts, opts...)
	}
}

// WithClock sets the time source used for idle tracking.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager opening wizards through opener.
func NewManager(opener Opener, opts ...Option) *Manager {
	m := &Manager{
		opener:   opener,
		locks:    make(map[string]*lockEntry),
		sessions: make(map[string]*hosted),
		done:     make(map[string]finished),
		lockTTL:  30 * time.Second,
		idleTTL:  30 * time.Minute,
		now:      time.Now,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ ports.WizardHost = (*Manager)(nil)

// Open starts a wizard of flowID under a fresh session ID.
// The wizard outlives ctx; only an explicit Cancel or the idle sweep ends it.
func (m *Manager) Open(ctx context.Context, flowID string) (domain.View, error) {
	id := uuid.NewString()

	opts := append([]wizard.Option{}, m.opts...)
	opts = append(opts,
		wizard.WithSessionID(id),
		wizard.WithHandler(m.onOutcome),
	)
	ctrl, err := m.opener.Open(context.WithoutCancel(ctx), flowID, opts...)
	if err != nil {
		return domain.View{}, err
	}

	m.mu.Lock()
	m.sessions[id] = &hosted{ctrl: ctrl, lastSeen: m.now(), subs: make(map[int]chan domain.View)}
	m.mu.Unlock()

	m.logger.Info("session opened", "session_id", id, "flow_id", flowID)
	return ctrl.View(), nil
}

// View returns the current view of a session, or the final view of a
// recently finished one.
func (m *Manager) View(ctx context.Context, sessionID string) (domain.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.sessions[sessionID]; ok {
		return h.ctrl.View(), nil
	}
	if f, ok := m.done[sessionID]; ok {
		return f.view, nil
	}
	return domain.View{}, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
}

// Dispatch applies cmd to the session and returns the resulting view. On a
// rejected event the unchanged view is returned together with the error.
func (m *Manager) Dispatch(ctx context.Context, sessionID string, cmd domain.Command) (domain.View, error) {
	var view domain.View
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		ctrl, err := m.touch(sessionID, cmd.Event)
		if err != nil {
			return err
		}
		dispatchErr := ctrl.Dispatch(cmd)
		view = ctrl.View()
		if dispatchErr == nil {
			m.publish(sessionID, view)
		}
		return dispatchErr
	})
	if err != nil && view.SessionID == "" {
		if v, vErr := m.View(ctx, sessionID); vErr == nil {
			view = v
		}
	}
	return view, err
}

// Cancel dismisses a session.
func (m *Manager) Cancel(ctx context.Context, sessionID string) (domain.View, error) {
	return m.Dispatch(ctx, sessionID, domain.Command{Event: domain.EventCancel})
}

// Sessions lists live session IDs in lexical order.
func (m *Manager) Sessions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Subscribe streams views of a live session after each accepted event and
// on completion. The channel is closed when the session finishes or when
// the returned cancel function is called.
func (m *Manager) Subscribe(sessionID string) (<-chan domain.View, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	m.nextSub++
	subID := m.nextSub
	ch := make(chan domain.View, 8)
	h.subs[subID] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if h, ok := m.sessions[sessionID]; ok {
			if c, ok := h.subs[subID]; ok {
				delete(h.subs, subID)
				close(c)
			}
		}
	}
	return ch, cancel, nil
}

// Sweep closes sessions idle for longer than the idle timeout and forgets
// finished ones older than it. It returns how many live sessions it closed.
func (m *Manager) Sweep(ctx context.Context) int {
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.Lock()
	var idle []*wizard.Controller
	for _, h := range m.sessions {
		if h.lastSeen.Before(cutoff) {
			idle = append(idle, h.ctrl)
		}
	}
	for id, f := range m.done {
		if f.at.Before(cutoff) {
			delete(m.done, id)
		}
	}
	m.mu.Unlock()

	for _, ctrl := range idle {
		m.logger.Info("closing idle session", "session_id", ctrl.SessionID())
		_ = ctrl.Close()
	}
	return len(idle)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Close cancels every live session.
func (m *Manager) Close() {
	m.mu.Lock()
	ctrls := make([]*wizard.Controller, 0, len(m.sessions))
	for _, h := range m.sessions {
		ctrls = append(ctrls, h.ctrl)
	}
	m.mu.Unlock()

	for _, c := range ctrls {
		_ = c.Close()
	}
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, "wizard:"+sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func (m *Manager) touch(sessionID string, event domain.Event) (*wizard.Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.sessions[sessionID]
	if !ok {
		if f, finished := m.done[sessionID]; finished {
			return nil, &domain.TransitionError{Event: event, Status: f.view.Status}
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	h.lastSeen = m.now()
	return h.ctrl, nil
}

// publish fans a view out without blocking; slow subscribers miss updates.
func (m *Manager) publish(sessionID string, v domain.View) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.sessions[sessionID]
	if !ok {
		return
	}
	for _, ch := range h.subs {
		select {
		case ch <- v:
		default:
		}
	}
}

func (m *Manager) onOutcome(o domain.Outcome) {
	m.mu.Lock()
	h, ok := m.sessions[o.SessionID]
	m.mu.Unlock()
	if !ok {
		return
	}

	view := h.ctrl.View()
	m.publish(o.SessionID, view)

	if view.Status.IsTerminal() {
		m.mu.Lock()
		for id, ch := range h.subs {
			delete(h.subs, id)
			close(ch)
		}
		delete(m.sessions, o.SessionID)
		m.done[o.SessionID] = finished{view: view, at: m.now()}
		m.mu.Unlock()
		m.logger.Info("session finished", "session_id", o.SessionID, "flow_id", o.FlowID, "outcome", o.Kind)
	}

	if m.handler != nil {
		m.handler(o)
	}
}
