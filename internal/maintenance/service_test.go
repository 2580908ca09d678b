package maintenance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/tabtriage/internal/config"
)

type pruneCall struct {
	cutoff time.Time
	keep   int
}

type fakePruner struct {
	err     error
	calls   []pruneCall
	removed int
	mu      sync.Mutex
}

func (f *fakePruner) PruneSessions(_ context.Context, cutoff time.Time, keep int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, pruneCall{cutoff: cutoff, keep: keep})
	return f.removed, f.err
}

func (f *fakePruner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestService(p SessionPruner, cfg *config.Config) *Service {
	s := NewService(p, cfg, zerolog.Nop())
	s.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }
	s.initialDelay = time.Millisecond
	return s
}

func TestRunOnce(t *testing.T) {
	cfg := &config.Config{MaintenanceEnabled: true, SessionRetentionDays: 30, MaxSessions: 10}
	p := &fakePruner{removed: 3}
	s := newTestService(p, cfg)

	assert.Equal(t, 3, s.RunOnce(context.Background()))
	require.Len(t, p.calls, 1)
	assert.Equal(t, time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC), p.calls[0].cutoff)
	assert.Equal(t, 10, p.calls[0].keep)

	stats := s.Stats()
	assert.Equal(t, int64(3), stats["total_pruned"])
	assert.Equal(t, int64(1), stats["total_runs"])
}

func TestRunOnce_NoRules(t *testing.T) {
	p := &fakePruner{}
	s := newTestService(p, &config.Config{MaintenanceEnabled: true})

	assert.Zero(t, s.RunOnce(context.Background()))
	assert.Empty(t, p.calls, "nothing to prune without retention or cap")
}

func TestRunOnce_CountOnly(t *testing.T) {
	p := &fakePruner{}
	s := newTestService(p, &config.Config{MaintenanceEnabled: true, MaxSessions: 5})

	s.RunOnce(context.Background())
	require.Len(t, p.calls, 1)
	assert.True(t, p.calls[0].cutoff.IsZero())
	assert.Equal(t, 5, p.calls[0].keep)
}

func TestRunOnce_PrunerError(t *testing.T) {
	p := &fakePruner{removed: 2, err: errors.New("store down")}
	s := newTestService(p, &config.Config{MaintenanceEnabled: true, MaxSessions: 1})

	assert.Zero(t, s.RunOnce(context.Background()))
	assert.Equal(t, int64(0), s.Stats()["total_pruned"])
}

func TestStart_Disabled(t *testing.T) {
	p := &fakePruner{}
	s := newTestService(p, &config.Config{MaintenanceEnabled: false, MaxSessions: 1})

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return for disabled maintenance")
	}
	assert.Zero(t, p.callCount())
}

func TestStart_RunsAndStops(t *testing.T) {
	p := &fakePruner{}
	s := newTestService(p, &config.Config{MaintenanceEnabled: true, MaintenanceIntervalHours: 1, MaxSessions: 1})

	go s.Start(context.Background())
	require.Eventually(t, func() bool { return p.callCount() == 1 }, time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop()
	s.Wait()
	assert.Equal(t, false, s.Stats()["running"])
}

func TestStart_ContextCancel(t *testing.T) {
	p := &fakePruner{}
	s := newTestService(p, &config.Config{MaintenanceEnabled: true, MaxSessions: 1})
	s.initialDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go s.Start(ctx)
	cancel()
	s.Wait()
	assert.Zero(t, p.callCount())
}
