package triage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/thebtf/tabtriage/internal/i18n"
	"github.com/thebtf/tabtriage/internal/kv"
	"github.com/thebtf/tabtriage/internal/privacy"
	"github.com/thebtf/tabtriage/pkg/models"
)

// SessionsKey is the kv key holding the archived sessions.
const SessionsKey = "sessions"

const sessionDateLayout = "2006-01-02 15:04:05"

// Sessions returns the archived sessions, oldest first.
func (s *Service) Sessions(ctx context.Context) ([]models.Session, error) {
	sessions := []models.Session{}
	if _, err := kv.GetJSON(ctx, s.kv, SessionsKey, &sessions); err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	return sessions, nil
}

// SaveSession archives tabs under name. An empty name is replaced by a
// timestamped default. Tabs that fail ValidateTab are left out of the archive,
// and credentials are redacted from the archived URLs and titles.
func (s *Service) SaveSession(ctx context.Context, name string, tabs []models.TabRecord) (models.Session, error) {
	now := s.now()
	if name == "" {
		name = s.defaultSessionName(now.Format(sessionDateLayout))
	}
	name, err := ValidateSessionName(name)
	if err != nil {
		return models.Session{}, err
	}

	session := models.Session{
		ID:        uuid.NewString(),
		Name:      name,
		Tabs:      make([]models.SessionTab, 0, len(tabs)),
		Timestamp: now.UnixMilli(),
	}
	skipped := 0
	for _, tab := range tabs {
		if err := ValidateTab(tab); err != nil {
			skipped++
			continue
		}
		session.Tabs = append(session.Tabs, models.SessionTab{
			URL:        privacy.RedactURL(tab.URL),
			Title:      privacy.RedactSecrets(tab.Title),
			FavIconURL: tab.FavIconURL,
		})
	}

	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	sessions, err := s.Sessions(ctx)
	if err != nil {
		return models.Session{}, err
	}
	sessions = append(sessions, session)
	if err := kv.SetJSON(ctx, s.kv, SessionsKey, sessions); err != nil {
		return models.Session{}, fmt.Errorf("persist sessions: %w", err)
	}

	s.metrics.sessionsSaved.Add(ctx, 1)
	s.log.Info().
		Str("session_id", session.ID).
		Int("tabs", len(session.Tabs)).
		Int("skipped", skipped).
		Msg("Saved session")
	return session, nil
}

// RenameSession changes the name of an archived session.
func (s *Service) RenameSession(ctx context.Context, id, name string) (models.Session, error) {
	name, err := ValidateSessionName(name)
	if err != nil {
		return models.Session{}, err
	}

	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	sessions, err := s.Sessions(ctx)
	if err != nil {
		return models.Session{}, err
	}
	for i := range sessions {
		if sessions[i].ID != id {
			continue
		}
		sessions[i].Name = name
		if err := kv.SetJSON(ctx, s.kv, SessionsKey, sessions); err != nil {
			return models.Session{}, fmt.Errorf("persist sessions: %w", err)
		}
		return sessions[i], nil
	}
	return models.Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
}

// DeleteSession removes an archived session.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	sessions, err := s.Sessions(ctx)
	if err != nil {
		return err
	}
	kept := make([]models.Session, 0, len(sessions))
	for _, sess := range sessions {
		if sess.ID != id {
			kept = append(kept, sess)
		}
	}
	if len(kept) == len(sessions) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err := kv.SetJSON(ctx, s.kv, SessionsKey, kept); err != nil {
		return fmt.Errorf("persist sessions: %w", err)
	}
	s.log.Info().Str("session_id", id).Msg("Deleted session")
	return nil
}

// PruneSessions drops sessions saved before cutoff, then the oldest sessions
// beyond keep. A zero cutoff or a keep of 0 disables that rule. It returns the
// number of sessions removed.
func (s *Service) PruneSessions(ctx context.Context, cutoff time.Time, keep int) (int, error) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	sessions, err := s.Sessions(ctx)
	if err != nil {
		return 0, err
	}

	kept := sessions
	if !cutoff.IsZero() {
		minEpoch := cutoff.UnixMilli()
		kept = make([]models.Session, 0, len(sessions))
		for _, sess := range sessions {
			if sess.Timestamp >= minEpoch {
				kept = append(kept, sess)
			}
		}
	}
	if keep > 0 && len(kept) > keep {
		kept = kept[len(kept)-keep:]
	}

	removed := len(sessions) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := kv.SetJSON(ctx, s.kv, SessionsKey, kept); err != nil {
		return 0, fmt.Errorf("persist sessions: %w", err)
	}
	s.log.Info().Int("removed", removed).Int("kept", len(kept)).Msg("Pruned sessions")
	return removed, nil
}

func (s *Service) defaultSessionName(date string) string {
	if s.localizer == nil {
		return "Session " + date
	}
	return s.localizer.Translate(i18n.KeySessionDefaultName, map[string]any{"date": date})
}
