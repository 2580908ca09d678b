package triage

import (
	"context"
	"fmt"
	"strings"

	"github.com/thebtf/tabtriage/internal/kv"
)

// TitlesKey is the kv key holding custom tab titles by tab id.
const TitlesKey = "customTabTitles"

// loadTitles returns the custom titles, or none when they cannot be read.
func (s *Service) loadTitles(ctx context.Context) map[int64]string {
	titles, err := s.CustomTitles(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to load custom titles, using browser titles")
		return nil
	}
	return titles
}

// CustomTitles returns the custom display titles keyed by tab id.
func (s *Service) CustomTitles(ctx context.Context) (map[int64]string, error) {
	titles := map[int64]string{}
	if _, err := kv.GetJSON(ctx, s.kv, TitlesKey, &titles); err != nil {
		return nil, fmt.Errorf("load titles: %w", err)
	}
	return titles, nil
}

// SetCustomTitle overrides the display title of a tab. A blank title clears it.
func (s *Service) SetCustomTitle(ctx context.Context, tabID int64, title string) error {
	if tabID <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTabID, tabID)
	}
	title = strings.TrimSpace(title)

	s.titlesMu.Lock()
	defer s.titlesMu.Unlock()

	titles, err := s.CustomTitles(ctx)
	if err != nil {
		return err
	}
	if title == "" {
		delete(titles, tabID)
	} else {
		titles[tabID] = title
	}
	if err := kv.SetJSON(ctx, s.kv, TitlesKey, titles); err != nil {
		return fmt.Errorf("persist titles: %w", err)
	}
	return nil
}

// ClearCustomTitle restores the browser title of a tab.
func (s *Service) ClearCustomTitle(ctx context.Context, tabID int64) error {
	return s.SetCustomTitle(ctx, tabID, "")
}
