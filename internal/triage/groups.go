package triage

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/thebtf/tabtriage/internal/i18n"
	"github.com/thebtf/tabtriage/pkg/models"
)

// GroupProvider enumerates the browser's tab groups.
type GroupProvider interface {
	QueryGroups(ctx context.Context) ([]models.TabGroupInfo, error)
}

// StaticGroups is a GroupProvider over a fixed list.
type StaticGroups []models.TabGroupInfo

// QueryGroups returns a copy of the list.
func (g StaticGroups) QueryGroups(_ context.Context) ([]models.TabGroupInfo, error) {
	return append([]models.TabGroupInfo(nil), g...), nil
}

// lookupGroups queries the configured provider. A missing provider or a
// failed query yields no metadata; tabs then fall back to "Group N" names.
func (s *Service) lookupGroups(ctx context.Context) map[int64]models.TabGroupInfo {
	if s.groups == nil {
		return nil
	}
	groups, err := s.groups.QueryGroups(ctx)
	if err != nil {
		s.log.Debug().Err(err).Msg("Tab group lookup failed")
		return nil
	}
	return indexGroups(groups)
}

// indexGroups maps groups by id, defaulting the color.
func indexGroups(groups []models.TabGroupInfo) map[int64]models.TabGroupInfo {
	if len(groups) == 0 {
		return nil
	}
	out := make(map[int64]models.TabGroupInfo, len(groups))
	for _, g := range groups {
		if !models.InGroup(g.ID) {
			continue
		}
		if g.Color == "" {
			g.Color = models.DefaultGroupColor
		}
		out[g.ID] = g
	}
	return out
}

// GroupByTabGroup groups enriched tabs by browser tab group with the total and
// rounded average anxiety of each group. Ungrouped tabs share the "ungrouped"
// bucket. Groups without a title are named "Group N". Tabs keep their input order.
func GroupByTabGroup(tabs []models.ScoredTab, l i18n.Localizer) map[string]*models.TabGroup {
	groups := make(map[string]*models.TabGroup)
	for _, tab := range tabs {
		key := models.GroupKey(tab.GroupID)
		g, ok := groups[key]
		if !ok {
			g = newTabGroup(key, tab, l)
			groups[key] = g
		}
		g.Tabs = append(g.Tabs, tab)
		g.TotalAnxiety += tab.AnxietyScore
	}
	for _, g := range groups {
		g.AvgAnxiety = int(math.Floor(float64(g.TotalAnxiety)/float64(len(g.Tabs)) + 0.5))
	}
	return groups
}

func newTabGroup(key string, first models.ScoredTab, l i18n.Localizer) *models.TabGroup {
	g := &models.TabGroup{ID: key, Color: models.DefaultGroupColor, Tabs: []models.ScoredTab{}}
	if key == models.UngroupedKey {
		g.Name = i18n.Translate(l, i18n.KeyNoGroup, "Ungrouped")
		return g
	}
	if info := first.GroupInfo; info != nil {
		if info.Color != "" {
			g.Color = info.Color
		}
		if title := strings.TrimSpace(info.Title); title != "" {
			g.Name = title
			return g
		}
	}
	g.Name = groupName(first.GroupID, l)
	return g
}

func groupName(id int64, l i18n.Localizer) string {
	if l == nil {
		return fmt.Sprintf("Group %d", id)
	}
	return l.Translate(i18n.KeyGroupName, map[string]any{"id": id})
}
