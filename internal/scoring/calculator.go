// Package scoring computes the anxiety score of a browser tab.
package scoring

import (
	"math"
	"time"

	"github.com/thebtf/tabtriage/pkg/models"
)

// Thresholds and per-factor raw caps. Raw contributions are multiplied by the
// factor weight before summing.
const (
	LongOpenThreshold     = 2 * time.Hour
	InactiveThreshold     = 30 * time.Minute
	UnreadScrollThreshold = 300.0

	OpenDurationCap    = 30.0
	DuplicateDomainCap = 25.0
	InactiveTimeCap    = 20.0
	SearchPagePoints   = 15.0
	UnreadPoints       = 10.0

	duplicatePointsEach = 10.0

	MinScore = 0
	MaxScore = 100
)

// WeightSource supplies the active weight set.
type WeightSource interface {
	Weights() models.WeightSet
}

// StaticWeights is a fixed WeightSource.
type StaticWeights models.WeightSet

// Weights returns the fixed set.
func (w StaticWeights) Weights() models.WeightSet {
	return models.WeightSet(w)
}

// Calculator computes anxiety scores for tabs.
type Calculator struct {
	weights WeightSource
	now     func() time.Time
}

// NewCalculator creates a calculator reading weights from source.
// If source is nil, the default weights are used.
func NewCalculator(source WeightSource) *Calculator {
	if source == nil {
		source = StaticWeights(models.DefaultWeightSet())
	}
	return &Calculator{weights: source, now: time.Now}
}

// WithClock replaces the clock used by Score. Intended for deterministic callers.
func (c *Calculator) WithClock(now func() time.Time) *Calculator {
	c.now = now
	return c
}

// Score computes the anxiety score of tab at the current time.
func (c *Calculator) Score(tab models.TabRecord, all []models.TabRecord, states models.TabStates) int {
	return c.ScoreAt(tab, all, states, c.now())
}

// ScoreAt computes the anxiety score of tab at now. The result is an integer in [0,100].
func (c *Calculator) ScoreAt(tab models.TabRecord, all []models.TabRecord, states models.TabStates, now time.Time) int {
	return c.calculate(tab, newDomainIndex(all), states, now, c.weights.Weights()).Score
}

// CalculateComponents returns the per-factor breakdown of a score.
// Useful for debugging and explaining scores to users.
func (c *Calculator) CalculateComponents(tab models.TabRecord, all []models.TabRecord, states models.TabStates, now time.Time) ScoreComponents {
	return c.calculate(tab, newDomainIndex(all), states, now, c.weights.Weights())
}

// BatchScore scores every tab in all against the same snapshot and weights.
// Scores are returned in input order, so tabs sharing an ID keep their own score.
func (c *Calculator) BatchScore(all []models.TabRecord, states models.TabStates, now time.Time) []int {
	idx := newDomainIndex(all)
	weights := c.weights.Weights()

	scores := make([]int, len(all))
	for i, tab := range all {
		scores[i] = c.calculate(tab, idx, states, now, weights).Score
	}
	return scores
}

// calculate is the core scoring method. Each factor's raw contribution is
// capped, multiplied by its weight and summed; only the total is rounded and
// clamped. Weights are not renormalized.
func (c *Calculator) calculate(tab models.TabRecord, idx domainIndex, states models.TabStates, now time.Time, w models.WeightSet) ScoreComponents {
	var comp ScoreComponents

	age := tabAge(tab, now)
	comp.AgeMinutes = age.Minutes()

	// 1. Open duration
	if age > LongOpenThreshold {
		comp.OpenDuration.Raw = math.Min(age.Hours()/10*100, OpenDurationCap)
	}

	// 2. Duplicate domain
	comp.Domain = ExtractDomain(tab.URL)
	if comp.Domain != "" {
		comp.DuplicateCount = idx.others(comp.Domain, tab.ID)
		if comp.DuplicateCount > 0 {
			comp.DuplicateDomain.Raw = math.Min(float64(comp.DuplicateCount)*duplicatePointsEach, DuplicateDomainCap)
		}
	}

	// 3. Inactive time, only for background tabs
	if !tab.Active && age > InactiveThreshold {
		comp.InactiveTime.Raw = math.Min(age.Minutes()/60*100, InactiveTimeCap)
	}

	// 4. Search results page
	if IsSearchPage(tab.URL) {
		comp.SearchPage.Raw = SearchPagePoints
	}

	// 5. Unread article, requires a scroll offset from the content script
	if state, ok := states[tab.ID]; ok && state.ScrollTop != nil && *state.ScrollTop < UnreadScrollThreshold {
		comp.UnreadArticle.Raw = UnreadPoints
	}

	comp.OpenDuration.Weighted = comp.OpenDuration.Raw * w.OpenDuration
	comp.DuplicateDomain.Weighted = comp.DuplicateDomain.Raw * w.DuplicateDomain
	comp.InactiveTime.Weighted = comp.InactiveTime.Raw * w.InactiveTime
	comp.SearchPage.Weighted = comp.SearchPage.Raw * w.IsSearchPage
	comp.UnreadArticle.Weighted = comp.UnreadArticle.Raw * w.UnreadArticle

	comp.Total = comp.OpenDuration.Weighted +
		comp.DuplicateDomain.Weighted +
		comp.InactiveTime.Weighted +
		comp.SearchPage.Weighted +
		comp.UnreadArticle.Weighted
	comp.Score = clampScore(comp.Total)
	return comp
}

// tabAge returns how long ago the tab was last accessed. Unknown or future
// timestamps yield zero.
func tabAge(tab models.TabRecord, now time.Time) time.Duration {
	if tab.LastAccessedEpoch <= 0 {
		return 0
	}
	age := now.Sub(time.UnixMilli(tab.LastAccessedEpoch))
	if age < 0 {
		return 0
	}
	return age
}

// clampScore rounds half up and clamps into [MinScore, MaxScore].
func clampScore(total float64) int {
	if math.IsNaN(total) {
		return MinScore
	}
	rounded := math.Floor(total + 0.5)
	if rounded < MinScore {
		return MinScore
	}
	if rounded > MaxScore {
		return MaxScore
	}
	return int(rounded)
}

// FactorContribution is one factor's raw points and weighted contribution.
type FactorContribution struct {
	Raw      float64 `json:"raw"`
	Weighted float64 `json:"weighted"`
}

// ScoreComponents contains the breakdown of an anxiety score calculation.
type ScoreComponents struct {
	Domain          string             `json:"domain,omitempty"`
	OpenDuration    FactorContribution `json:"open_duration"`
	DuplicateDomain FactorContribution `json:"duplicate_domain"`
	InactiveTime    FactorContribution `json:"inactive_time"`
	SearchPage      FactorContribution `json:"search_page"`
	UnreadArticle   FactorContribution `json:"unread_article"`
	AgeMinutes      float64            `json:"age_minutes"`
	Total           float64            `json:"total"`
	DuplicateCount  int                `json:"duplicate_count"`
	Score           int                `json:"score"`
}

// domainIndex maps a domain to the ids of the tabs on it.
type domainIndex map[string][]int64

func newDomainIndex(all []models.TabRecord) domainIndex {
	idx := make(domainIndex, len(all))
	for _, t := range all {
		if d := ExtractDomain(t.URL); d != "" {
			idx[d] = append(idx[d], t.ID)
		}
	}
	return idx
}

// others counts tabs on domain whose id differs from self.
func (idx domainIndex) others(domain string, self int64) int {
	n := 0
	for _, id := range idx[domain] {
		if id != self {
			n++
		}
	}
	return n
}

// DuplicateCount returns how many other tabs in all share tab's domain.
func DuplicateCount(tab models.TabRecord, all []models.TabRecord) int {
	d := ExtractDomain(tab.URL)
	if d == "" {
		return 0
	}
	return newDomainIndex(all).others(d, tab.ID)
}
