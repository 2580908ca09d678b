// Package maintenance provides scheduled maintenance tasks for tabtriage.
package maintenance

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/thebtf/tabtriage/internal/config"
)

// DefaultInitialDelay postpones the first run after startup.
const DefaultInitialDelay = 5 * time.Minute

// SessionPruner removes archived sessions by age and count.
type SessionPruner interface {
	PruneSessions(ctx context.Context, cutoff time.Time, keep int) (int, error)
}

// Service runs session retention on a schedule.
type Service struct {
	log             zerolog.Logger
	lastRunTime     time.Time
	pruner          SessionPruner
	config          *config.Config
	now             func() time.Time
	stopCh          chan struct{}
	doneCh          chan struct{}
	initialDelay    time.Duration
	lastRunDuration time.Duration
	totalPruned     int64
	totalRuns       int64
	mu              sync.Mutex
	running         bool
	stopped         bool
}

// NewService creates a maintenance service pruning through pruner.
func NewService(pruner SessionPruner, cfg *config.Config, log zerolog.Logger) *Service {
	return &Service{
		pruner:       pruner,
		config:       cfg,
		now:          time.Now,
		initialDelay: DefaultInitialDelay,
		log:          log.With().Str("component", "maintenance").Logger(),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Start runs the maintenance loop until ctx is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		close(s.doneCh)
	}()

	if !s.config.MaintenanceEnabled {
		s.log.Info().Msg("Maintenance disabled, not starting scheduler")
		return
	}

	interval := max(time.Duration(s.config.MaintenanceIntervalHours)*time.Hour, time.Hour)

	s.log.Info().
		Dur("interval", interval).
		Int("retention_days", s.config.SessionRetentionDays).
		Int("max_sessions", s.config.MaxSessions).
		Msg("Starting maintenance scheduler")

	// Initial run once the worker has settled
	select {
	case <-ctx.Done():
		return
	case <-s.stopCh:
		return
	case <-time.After(s.initialDelay):
	}
	s.RunOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Maintenance shutting down due to context cancellation")
			return
		case <-s.stopCh:
			s.log.Info().Msg("Maintenance shutting down due to stop signal")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// Stop signals the maintenance loop to stop.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true
	close(s.stopCh)
}

// Wait waits for Start to return.
func (s *Service) Wait() {
	<-s.doneCh
}

// RunOnce applies the retention rules now and returns the number of sessions removed.
func (s *Service) RunOnce(ctx context.Context) int {
	start := time.Now()

	var cutoff time.Time
	if days := s.config.SessionRetentionDays; days > 0 {
		cutoff = s.now().AddDate(0, 0, -days)
	}

	var pruned int
	if !cutoff.IsZero() || s.config.MaxSessions > 0 {
		n, err := s.pruner.PruneSessions(ctx, cutoff, s.config.MaxSessions)
		if err != nil {
			s.log.Error().Err(err).Msg("Failed to prune sessions")
		} else {
			pruned = n
		}
	}

	s.mu.Lock()
	s.lastRunTime = s.now()
	s.lastRunDuration = time.Since(start)
	s.totalPruned += int64(pruned)
	s.totalRuns++
	s.mu.Unlock()

	s.log.Debug().
		Dur("duration", time.Since(start)).
		Int("sessions_pruned", pruned).
		Msg("Maintenance run completed")
	return pruned
}

// Stats returns maintenance statistics.
func (s *Service) Stats() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]any{
		"enabled":          s.config.MaintenanceEnabled,
		"interval_hours":   s.config.MaintenanceIntervalHours,
		"retention_days":   s.config.SessionRetentionDays,
		"max_sessions":     s.config.MaxSessions,
		"last_run":         s.lastRunTime,
		"last_duration_ms": s.lastRunDuration.Milliseconds(),
		"total_pruned":     s.totalPruned,
		"total_runs":       s.totalRuns,
		"running":          s.running,
	}
}
