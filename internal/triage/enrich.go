package triage

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/thebtf/tabtriage/internal/i18n"
	"github.com/thebtf/tabtriage/internal/scoring"
	"github.com/thebtf/tabtriage/pkg/models"
)

// TabProvider enumerates the browser's open tabs.
type TabProvider interface {
	QueryAll(ctx context.Context) ([]models.TabRecord, error)
}

// StaticTabs is a TabProvider over a fixed snapshot.
type StaticTabs []models.TabRecord

// QueryAll returns a copy of the snapshot.
func (t StaticTabs) QueryAll(_ context.Context) ([]models.TabRecord, error) {
	return append([]models.TabRecord(nil), t...), nil
}

// Enrich scores, levels and classifies every tab against one snapshot and the
// active weights and rules. Custom titles replace the display title while the
// browser title is kept in OriginalTitle. Tabs in a known tab group carry its
// metadata. The result is sorted by score descending; equal scores keep input order.
func (s *Service) Enrich(ctx context.Context, tabs []models.TabRecord, states models.TabStates) []models.ScoredTab {
	return s.enrich(ctx, tabs, states, s.lookupGroups(ctx))
}

// EnrichWithGroups is Enrich with group metadata supplied by the caller
// instead of the configured GroupProvider.
func (s *Service) EnrichWithGroups(ctx context.Context, tabs []models.TabRecord, states models.TabStates, groups []models.TabGroupInfo) []models.ScoredTab {
	return s.enrich(ctx, tabs, states, indexGroups(groups))
}

func (s *Service) enrich(ctx context.Context, tabs []models.TabRecord, states models.TabStates, groups map[int64]models.TabGroupInfo) []models.ScoredTab {
	titles := s.loadTitles(ctx)
	now := s.now()
	scores := s.scorer.BatchScore(tabs, states, now)

	out := make([]models.ScoredTab, 0, len(tabs))
	for i, tab := range tabs {
		score := scores[i]
		category := s.classifier.Classify(tab)

		st := models.ScoredTab{
			TabRecord:     tab,
			AnxietyScore:  score,
			AnxietyLevel:  scoring.Level(score, s.localizer),
			Category:      category,
			CategoryName:  s.classifier.CategoryName(category, s.localizer),
			Domain:        scoring.ExtractDomain(tab.URL),
			OriginalTitle: tab.Title,
		}
		if custom, ok := titles[tab.ID]; ok && custom != "" {
			st.CustomTitle = custom
			st.Title = custom
		}
		if strings.TrimSpace(st.Title) == "" {
			st.Title = i18n.Translate(s.localizer, i18n.KeyNoTitle, "No Title")
		}
		if models.InGroup(tab.GroupID) {
			if info, ok := groups[tab.GroupID]; ok {
				st.GroupInfo = &info
			}
		} else {
			st.GroupID = models.NoGroupID
		}
		out = append(out, st)
		s.metrics.recordScore(ctx, score, category)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AnxietyScore > out[j].AnxietyScore
	})
	return out
}

// EnrichFrom queries provider and enriches the result.
func (s *Service) EnrichFrom(ctx context.Context, provider TabProvider, states models.TabStates) ([]models.ScoredTab, error) {
	tabs, err := provider.QueryAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.Enrich(ctx, tabs, states), nil
}

// Suggestions buckets already-enriched tabs by recommended action.
func (s *Service) Suggestions(ctx context.Context, tabs []models.ScoredTab) models.SuggestionBuckets {
	b := s.engine.Derive(tabs)
	s.metrics.recordBucket(ctx, string(models.BucketClose), len(b.Close))
	s.metrics.recordBucket(ctx, string(models.BucketArchive), len(b.Archive))
	s.metrics.recordBucket(ctx, string(models.BucketSuspend), len(b.Suspend))
	s.metrics.recordBucket(ctx, string(models.BucketKeep), len(b.Keep))
	if n := len(b.Unbucketed); n > 0 {
		s.log.Debug().Int("count", n).Msg("Tabs matched no suggestion rule")
	}
	return b
}

// GroupByCategory groups enriched tabs by category id with the total and
// rounded average anxiety of each group. Tabs keep their input order.
func GroupByCategory(tabs []models.ScoredTab) map[string]*models.CategoryGroup {
	groups := make(map[string]*models.CategoryGroup)
	for _, tab := range tabs {
		g, ok := groups[tab.Category]
		if !ok {
			g = &models.CategoryGroup{Name: tab.CategoryName, Tabs: []models.ScoredTab{}}
			groups[tab.Category] = g
		}
		g.Tabs = append(g.Tabs, tab)
		g.TotalAnxiety += tab.AnxietyScore
	}
	for _, g := range groups {
		g.AvgAnxiety = int(math.Floor(float64(g.TotalAnxiety)/float64(len(g.Tabs)) + 0.5))
	}
	return groups
}

// Stats summarizes an enriched snapshot.
type Stats struct {
	Total         int `json:"total"`
	HighAnxiety   int `json:"highAnxiety"`
	MediumAnxiety int `json:"mediumAnxiety"`
	Domains       int `json:"domains"`
	AverageScore  int `json:"averageScore"`
}

// ComputeStats counts tabs per level and distinct domains.
func ComputeStats(tabs []models.ScoredTab) Stats {
	st := Stats{Total: len(tabs)}
	domains := make(map[string]struct{})
	sum := 0
	for _, tab := range tabs {
		switch tab.AnxietyLevel.Level {
		case models.LevelHigh:
			st.HighAnxiety++
		case models.LevelMedium:
			st.MediumAnxiety++
		}
		if tab.Domain != "" {
			domains[tab.Domain] = struct{}{}
		}
		sum += tab.AnxietyScore
	}
	st.Domains = len(domains)
	if len(tabs) > 0 {
		st.AverageScore = int(math.Floor(float64(sum)/float64(len(tabs)) + 0.5))
	}
	return st
}
