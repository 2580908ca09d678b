// Package suggest derives per-tab remediation suggestions from scored tabs.
package suggest

import (
	"github.com/thebtf/tabtriage/internal/scoring"
	"github.com/thebtf/tabtriage/pkg/models"
)

// Decision table thresholds.
const (
	DuplicateCloseScore  = 60
	LearningArchiveScore = 50
	ReadingSuspendScore  = 40
	IdleKeepScore        = 30
)

// Engine buckets scored tabs by recommended action.
type Engine struct{}

// New creates an Engine.
func New() *Engine {
	return &Engine{}
}

// Derive places each tab in exactly one bucket. The first matching row of the
// decision table wins; tabs matching no row go to Unbucketed. Input order is
// preserved within each bucket.
func (e *Engine) Derive(tabs []models.ScoredTab) models.SuggestionBuckets {
	domains := countDomains(tabs)

	out := models.NewSuggestionBuckets()
	for _, tab := range tabs {
		others := max(domains[domainOf(tab)]-1, 0)
		out.Add(Decide(tab, others), tab)
	}
	return out
}

// Decide returns the bucket for tab given how many other tabs share its domain.
func Decide(tab models.ScoredTab, duplicates int) models.Bucket {
	switch {
	case scoring.IsSearchPage(tab.URL):
		return models.BucketClose
	case tab.AnxietyScore >= DuplicateCloseScore && duplicates > 0:
		return models.BucketClose
	case tab.Category == "learning" && tab.AnxietyScore >= LearningArchiveScore && !tab.Active:
		return models.BucketArchive
	case tab.Category == "shopping",
		tab.Category == "reading" && tab.AnxietyScore >= ReadingSuspendScore:
		return models.BucketSuspend
	case tab.Active:
		return models.BucketKeep
	case tab.AnxietyScore < IdleKeepScore:
		return models.BucketKeep
	default:
		return models.BucketNone
	}
}

// domainOf prefers the domain computed during enrichment.
func domainOf(tab models.ScoredTab) string {
	if tab.Domain != "" {
		return tab.Domain
	}
	return scoring.ExtractDomain(tab.URL)
}

// countDomains counts distinct tab ids per domain. Tabs without a domain are
// not counted.
func countDomains(tabs []models.ScoredTab) map[string]int {
	seen := make(map[string]map[int64]struct{})
	for _, t := range tabs {
		d := domainOf(t)
		if d == "" {
			continue
		}
		if seen[d] == nil {
			seen[d] = make(map[int64]struct{})
		}
		seen[d][t.ID] = struct{}{}
	}
	counts := make(map[string]int, len(seen))
	for d, ids := range seen {
		counts[d] = len(ids)
	}
	return counts
}
