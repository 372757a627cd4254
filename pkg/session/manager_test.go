package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/stepwise"
	"github.com/aretw0/stepwise/pkg/adapters/memory"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/aretw0/stepwise/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, opts ...stepwise.Option) *stepwise.Engine {
	t.Helper()
	loader := memory.MustLoader(domain.Flow{
		ID: "checkin",
		Steps: []domain.Step{
			{
				ID:       "mood",
				Inputs:   []domain.Field{{Name: "mood", Kind: domain.FieldSingle, Options: []string{"ok", "low"}}},
				Required: []string{"mood"},
				Next:     "note",
			},
			{
				ID:        "note",
				Inputs:    []domain.Field{{Name: "note", Kind: domain.FieldText}},
				Skippable: true,
			},
		},
		Recommendations: []domain.RuleTable{{
			Name:     "checkin",
			Tiers:    []domain.Tier{{Fields: []string{"mood"}}},
			Rules:    []domain.Rule{{Key: []string{"low"}, Text: "Be kind to yourself."}},
			Fallback: "Thanks for checking in.",
		}},
	})
	eng, err := stepwise.New(append([]stepwise.Option{stepwise.WithLoader(loader)}, opts...)...)
	require.NoError(t, err)
	return eng
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

func TestManager_Lifecycle(t *testing.T) {
	var outcomes atomic.Int32
	mgr := session.NewManager(newEngine(t), session.WithCompletionHandler(func(domain.Outcome) {
		outcomes.Add(1)
	}))
	ctx := context.Background()

	v, err := mgr.Open(ctx, "checkin")
	require.NoError(t, err)
	id := v.SessionID
	assert.Equal(t, "mood", v.CurrentStepID)
	assert.Equal(t, []string{id}, mgr.Sessions())

	v, err = mgr.Dispatch(ctx, id, domain.Command{Event: domain.EventAdvance})
	assert.ErrorIs(t, err, domain.ErrValidationBlocked)
	assert.Equal(t, "mood", v.CurrentStepID, "view is returned with rejections")

	_, err = mgr.Dispatch(ctx, id, domain.Command{Event: domain.EventSelect, Field: "mood", Value: "low"})
	require.NoError(t, err)
	v, err = mgr.Dispatch(ctx, id, domain.Command{Event: domain.EventAdvance})
	require.NoError(t, err)
	assert.Equal(t, "Be kind to yourself.", v.Recommendation)

	_, err = mgr.Dispatch(ctx, id, domain.Command{Event: domain.EventSkip})
	require.NoError(t, err)

	waitFor(t, func() bool { return len(mgr.Sessions()) == 0 })
	final, err := mgr.View(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, final.Status)
	assert.Equal(t, int32(1), outcomes.Load())

	_, err = mgr.Dispatch(ctx, id, domain.Command{Event: domain.EventBack})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestManager_UnknownSession(t *testing.T) {
	mgr := session.NewManager(newEngine(t))
	ctx := context.Background()

	_, err := mgr.View(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = mgr.Dispatch(ctx, "nope", domain.Command{Event: domain.EventAdvance})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, _, err = mgr.Subscribe("nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_UnknownFlow(t *testing.T) {
	mgr := session.NewManager(newEngine(t))
	_, err := mgr.Open(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
	assert.Empty(t, mgr.Sessions())
}

func TestManager_Cancel(t *testing.T) {
	mgr := session.NewManager(newEngine(t))
	ctx := context.Background()

	v, err := mgr.Open(ctx, "checkin")
	require.NoError(t, err)

	v, err = mgr.Cancel(ctx, v.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, v.Status)
	assert.Empty(t, mgr.Sessions())
}

func TestManager_OpenOutlivesRequestContext(t *testing.T) {
	mgr := session.NewManager(newEngine(t))
	ctx, cancel := context.WithCancel(context.Background())
	v, err := mgr.Open(ctx, "checkin")
	require.NoError(t, err)
	cancel()

	bg := context.Background()
	_, err = mgr.Dispatch(bg, v.SessionID, domain.Command{Event: domain.EventSelect, Field: "mood", Value: "ok"})
	require.NoError(t, err)
	_, err = mgr.Dispatch(bg, v.SessionID, domain.Command{Event: domain.EventAdvance})
	require.NoError(t, err)
	_, err = mgr.Dispatch(bg, v.SessionID, domain.Command{Event: domain.EventAdvance})
	require.NoError(t, err)

	waitFor(t, func() bool {
		final, err := mgr.View(bg, v.SessionID)
		return err == nil && final.Status == domain.StatusCompleted
	})
}

func TestManager_Subscribe(t *testing.T) {
	mgr := session.NewManager(newEngine(t))
	ctx := context.Background()

	v, err := mgr.Open(ctx, "checkin")
	require.NoError(t, err)
	updates, stop, err := mgr.Subscribe(v.SessionID)
	require.NoError(t, err)
	defer stop()

	_, err = mgr.Dispatch(ctx, v.SessionID, domain.Command{Event: domain.EventSelect, Field: "mood", Value: "ok"})
	require.NoError(t, err)

	got := <-updates
	assert.Equal(t, "ok", got.Answers.Text("mood"))

	_, err = mgr.Cancel(ctx, v.SessionID)
	require.NoError(t, err)

	var last domain.View
	for u := range updates {
		last = u
	}
	assert.Equal(t, domain.StatusCancelled, last.Status, "channel closes after the final view")
}

func TestManager_SweepClosesIdleSessions(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	mgr := session.NewManager(newEngine(t), session.WithClock(clock), session.WithIdleTimeout(time.Minute))
	ctx := context.Background()

	stale, err := mgr.Open(ctx, "checkin")
	require.NoError(t, err)
	advance(45 * time.Second)
	fresh, err := mgr.Open(ctx, "checkin")
	require.NoError(t, err)
	advance(30 * time.Second)

	assert.Equal(t, 1, mgr.Sweep(ctx))
	assert.Equal(t, []string{fresh.SessionID}, mgr.Sessions())

	v, err := mgr.View(ctx, stale.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, v.Status)

	advance(2 * time.Minute)
	mgr.Sweep(ctx)
	_, err = mgr.View(ctx, stale.SessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound, "finished views expire too")
}

type countingLocker struct {
	locks, unlocks atomic.Int32
	fail           bool
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if l.fail {
		return nil, errors.New("lock busy")
	}
	l.locks.Add(1)
	return func(context.Context) error {
		l.unlocks.Add(1)
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &countingLocker{}
	mgr := session.NewManager(newEngine(t), session.WithLocker(locker))
	ctx := context.Background()

	v, err := mgr.Open(ctx, "checkin")
	require.NoError(t, err)
	_, err = mgr.Dispatch(ctx, v.SessionID, domain.Command{Event: domain.EventSelect, Field: "mood", Value: "ok"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), locker.locks.Load())
	assert.Equal(t, int32(1), locker.unlocks.Load())

	locker.fail = true
	_, err = mgr.Dispatch(ctx, v.SessionID, domain.Command{Event: domain.EventBack})
	assert.ErrorContains(t, err, "distributed lock")
}

func TestManager_ConcurrentDispatch(t *testing.T) {
	mgr := session.NewManager(newEngine(t))
	ctx := context.Background()
	v, err := mgr.Open(ctx, "checkin")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			value := "ok"
			if i%2 == 0 {
				value = "low"
			}
			_, err := mgr.Dispatch(ctx, v.SessionID, domain.Command{Event: domain.EventSelect, Field: "mood", Value: value})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	final, err := mgr.View(ctx, v.SessionID)
	require.NoError(t, err)
	assert.Contains(t, []string{"ok", "low"}, final.Answers.Text("mood"))
}
