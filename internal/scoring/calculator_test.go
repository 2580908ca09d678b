package scoring

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/thebtf/tabtriage/pkg/models"
)

// CalculatorSuite is a test suite for the Calculator.
type CalculatorSuite struct {
	suite.Suite
	calc *Calculator
	now  time.Time
}

func (s *CalculatorSuite) SetupTest() {
	s.now = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	s.calc = NewCalculator(nil).WithClock(func() time.Time { return s.now })
}

func TestCalculatorSuite(t *testing.T) {
	suite.Run(t, new(CalculatorSuite))
}

func (s *CalculatorSuite) ago(d time.Duration) int64 {
	return s.now.Add(-d).UnixMilli()
}

func scroll(v float64) models.TabState {
	return models.TabState{ScrollTop: &v}
}

// =============================================================================
// SCENARIOS
// =============================================================================

func (s *CalculatorSuite) TestScore_ThreeHourOldBackgroundTab() {
	tab := models.TabRecord{ID: 1, URL: "https://news.example.com", LastAccessedEpoch: s.ago(3 * time.Hour)}

	comp := s.calc.CalculateComponents(tab, []models.TabRecord{tab}, nil, s.now)

	// open duration: min(3/10*100, 30) * 0.30 = 9
	s.InDelta(9.0, comp.OpenDuration.Weighted, 0.0001)
	// inactive: min(180/60*100, 20) * 0.20 = 4
	s.InDelta(4.0, comp.InactiveTime.Weighted, 0.0001)
	s.Equal(13, comp.Score)
	s.Equal(models.LevelLow, Level(comp.Score, nil).Level)
	s.Equal(13, s.calc.Score(tab, []models.TabRecord{tab}, nil))
}

func (s *CalculatorSuite) TestScore_FreshActiveTab() {
	tab := models.TabRecord{ID: 1, URL: "https://example.com", Active: true, LastAccessedEpoch: s.ago(time.Minute)}
	s.Equal(0, s.calc.ScoreAt(tab, []models.TabRecord{tab}, nil, s.now))
}

func (s *CalculatorSuite) TestScore_OpenDurationBelowThreshold() {
	tab := models.TabRecord{ID: 1, URL: "https://example.com", Active: true, LastAccessedEpoch: s.ago(90 * time.Minute)}
	comp := s.calc.CalculateComponents(tab, nil, nil, s.now)
	s.Zero(comp.OpenDuration.Raw)
	s.Zero(comp.InactiveTime.Raw, "active tabs never accrue inactive time")
}

func (s *CalculatorSuite) TestScore_OpenDurationIsScaledBelowCap() {
	// 2.5h -> 25 raw, 7.5 weighted
	tab := models.TabRecord{ID: 1, URL: "https://example.com", Active: true, LastAccessedEpoch: s.ago(150 * time.Minute)}
	comp := s.calc.CalculateComponents(tab, nil, nil, s.now)
	s.InDelta(25.0, comp.OpenDuration.Raw, 0.0001)
	s.Equal(8, comp.Score, "7.5 rounds half up")
}

func (s *CalculatorSuite) TestScore_InactiveTimeAlwaysCapped() {
	// 35 minutes, background: min(35/60*100, 20) = 20
	tab := models.TabRecord{ID: 1, URL: "https://example.com", LastAccessedEpoch: s.ago(35 * time.Minute)}
	comp := s.calc.CalculateComponents(tab, nil, nil, s.now)
	s.InDelta(20.0, comp.InactiveTime.Raw, 0.0001)
	s.Equal(4, comp.Score)

	// 29 minutes is below the threshold
	tab.LastAccessedEpoch = s.ago(29 * time.Minute)
	s.Zero(s.calc.ScoreAt(tab, nil, nil, s.now))
}

func (s *CalculatorSuite) TestScore_DuplicateDomain() {
	tabs := []models.TabRecord{
		{ID: 1, URL: "https://shop.example.com/a", Active: true},
		{ID: 2, URL: "https://shop.example.com/b", Active: true},
		{ID: 3, URL: "https://shop.example.com/c", Active: true},
		{ID: 4, URL: "https://other.example.com", Active: true},
	}

	comp := s.calc.CalculateComponents(tabs[0], tabs, nil, s.now)
	s.Equal(2, comp.DuplicateCount)
	s.InDelta(20.0, comp.DuplicateDomain.Raw, 0.0001)
	s.Equal(5, comp.Score) // 20 * 0.25

	s.Zero(s.calc.ScoreAt(tabs[3], tabs, nil, s.now), "unique domain contributes nothing")
}

func (s *CalculatorSuite) TestScore_DuplicateDomainCap() {
	var tabs []models.TabRecord
	for i := int64(1); i <= 6; i++ {
		tabs = append(tabs, models.TabRecord{ID: i, URL: "https://docs.example.com/p", Active: true})
	}
	comp := s.calc.CalculateComponents(tabs[0], tabs, nil, s.now)
	s.Equal(5, comp.DuplicateCount)
	s.InDelta(25.0, comp.DuplicateDomain.Raw, 0.0001)
}

func (s *CalculatorSuite) TestScore_DuplicateExcludesSelfOnly() {
	tab := models.TabRecord{ID: 7, URL: "https://example.com"}
	comp := s.calc.CalculateComponents(tab, []models.TabRecord{tab}, nil, s.now)
	s.Zero(comp.DuplicateCount)
}

func (s *CalculatorSuite) TestScore_InternalURLsHaveNoDomain() {
	tabs := []models.TabRecord{
		{ID: 1, URL: "chrome://settings", Active: true},
		{ID: 2, URL: "chrome://settings", Active: true},
	}
	comp := s.calc.CalculateComponents(tabs[0], tabs, nil, s.now)
	s.Empty(comp.Domain)
	s.Zero(comp.DuplicateCount)
}

func (s *CalculatorSuite) TestScore_SearchPage() {
	tab := models.TabRecord{ID: 1, URL: "https://www.google.com/search?q=golang", Active: true}
	comp := s.calc.CalculateComponents(tab, nil, nil, s.now)
	s.Equal(SearchPagePoints, comp.SearchPage.Raw)
	s.Equal(2, comp.Score) // 15 * 0.15 = 2.25
}

func (s *CalculatorSuite) TestScore_UnreadArticle() {
	tab := models.TabRecord{ID: 1, URL: "https://medium.com/post", Active: true}

	comp := s.calc.CalculateComponents(tab, nil, models.TabStates{1: scroll(120)}, s.now)
	s.Equal(UnreadPoints, comp.UnreadArticle.Raw)
	s.Equal(1, comp.Score)

	comp = s.calc.CalculateComponents(tab, nil, models.TabStates{1: scroll(300)}, s.now)
	s.Zero(comp.UnreadArticle.Raw, "300px counts as read")

	comp = s.calc.CalculateComponents(tab, nil, models.TabStates{1: {}}, s.now)
	s.Zero(comp.UnreadArticle.Raw, "state without scroll offset is ignored")

	comp = s.calc.CalculateComponents(tab, nil, models.TabStates{2: scroll(0)}, s.now)
	s.Zero(comp.UnreadArticle.Raw, "state for another tab is ignored")
}

func (s *CalculatorSuite) TestScore_MissingLastAccessedTreatedAsFresh() {
	tab := models.TabRecord{ID: 1, URL: "https://example.com"}
	comp := s.calc.CalculateComponents(tab, nil, nil, s.now)
	s.Zero(comp.AgeMinutes)
	s.Zero(comp.Score)
}

func (s *CalculatorSuite) TestScore_FutureTimestamp() {
	tab := models.TabRecord{ID: 1, URL: "https://example.com", LastAccessedEpoch: s.now.Add(time.Hour).UnixMilli()}
	s.Zero(s.calc.ScoreAt(tab, nil, nil, s.now))
}

// =============================================================================
// WEIGHTS
// =============================================================================

func (s *CalculatorSuite) TestScore_UnreadWeightIrrelevantWithoutState() {
	tab := models.TabRecord{ID: 1, URL: "https://blog.example.com/?q=x", LastAccessedEpoch: s.ago(5 * time.Hour)}
	all := []models.TabRecord{tab, {ID: 2, URL: "https://blog.example.com/other"}}

	w := models.DefaultWeightSet()
	before := NewCalculator(StaticWeights(w)).ScoreAt(tab, all, nil, s.now)
	w.UnreadArticle = 0
	after := NewCalculator(StaticWeights(w)).ScoreAt(tab, all, nil, s.now)

	s.Equal(before, after)
}

func (s *CalculatorSuite) TestScore_UnnormalizedWeightsClampAtOutput() {
	w := models.WeightSet{OpenDuration: 10, DuplicateDomain: 10, InactiveTime: 10, IsSearchPage: 10, UnreadArticle: 10}
	calc := NewCalculator(StaticWeights(w))

	tabs := []models.TabRecord{
		{ID: 1, URL: "https://a.example.com/?q=1", LastAccessedEpoch: s.ago(24 * time.Hour)},
		{ID: 2, URL: "https://a.example.com/?q=2"},
	}
	comp := calc.CalculateComponents(tabs[0], tabs, models.TabStates{1: scroll(0)}, s.now)
	s.Greater(comp.Total, 100.0)
	s.Equal(MaxScore, comp.Score)
}

func (s *CalculatorSuite) TestScore_NegativeWeightsClampToZero() {
	w := models.WeightSet{OpenDuration: -1}
	calc := NewCalculator(StaticWeights(w))
	tab := models.TabRecord{ID: 1, URL: "https://example.com", LastAccessedEpoch: s.ago(10 * time.Hour)}
	s.Equal(MinScore, calc.ScoreAt(tab, nil, nil, s.now))
}

func (s *CalculatorSuite) TestScore_ReadsWeightsOnEveryCall() {
	src := &mutableWeights{w: models.DefaultWeightSet()}
	calc := NewCalculator(src)
	tab := models.TabRecord{ID: 1, URL: "https://x.com/?q=1", Active: true}

	s.Equal(2, calc.ScoreAt(tab, nil, nil, s.now))
	src.w.IsSearchPage = 1
	s.Equal(15, calc.ScoreAt(tab, nil, nil, s.now))
}

// =============================================================================
// BATCH + PROPERTIES
// =============================================================================

func (s *CalculatorSuite) TestBatchScore_MatchesSingle() {
	tabs := []models.TabRecord{
		{ID: 1, URL: "https://a.com/?q=1", LastAccessedEpoch: s.ago(4 * time.Hour)},
		{ID: 2, URL: "https://a.com/x", LastAccessedEpoch: s.ago(40 * time.Minute)},
		{ID: 3, URL: "chrome://newtab", Active: true},
	}
	scores := s.calc.BatchScore(tabs, nil, s.now)
	s.Len(scores, 3)
	for i, tab := range tabs {
		s.Equal(s.calc.ScoreAt(tab, tabs, nil, s.now), scores[i])
	}
}

func (s *CalculatorSuite) TestBatchScore_DuplicateIDsKeepOwnScore() {
	// Snapshots without ids decode every tab as ID 0.
	tabs := []models.TabRecord{
		{URL: "https://a.com/?q=1", LastAccessedEpoch: s.ago(4 * time.Hour)},
		{URL: "https://b.com/x", Active: true},
	}
	scores := s.calc.BatchScore(tabs, nil, s.now)
	s.Require().Len(scores, 2)
	s.Equal(s.calc.ScoreAt(tabs[0], tabs, nil, s.now), scores[0])
	s.Equal(s.calc.ScoreAt(tabs[1], tabs, nil, s.now), scores[1])
	s.NotEqual(scores[0], scores[1])
}

func (s *CalculatorSuite) TestScore_BoundedAndDeterministic() {
	rng := rand.New(rand.NewSource(42))
	urls := []string{
		"https://a.example.com/?q=1", "https://a.example.com/x", "https://b.example.com",
		"chrome://settings", "", "::not a url", "https://medium.com/p?search",
	}

	var tabs []models.TabRecord
	states := models.TabStates{}
	for i := int64(1); i <= 40; i++ {
		tabs = append(tabs, models.TabRecord{
			ID:                i,
			URL:               urls[rng.Intn(len(urls))],
			Active:            rng.Intn(4) == 0,
			LastAccessedEpoch: s.ago(time.Duration(rng.Intn(72*60)) * time.Minute),
		})
		if rng.Intn(2) == 0 {
			states[i] = scroll(float64(rng.Intn(1000)))
		}
	}

	for _, w := range []models.WeightSet{models.DefaultWeightSet(), {OpenDuration: 3, DuplicateDomain: 3, InactiveTime: 3, IsSearchPage: 3, UnreadArticle: 3}} {
		calc := NewCalculator(StaticWeights(w))
		for _, tab := range tabs {
			first := calc.ScoreAt(tab, tabs, states, s.now)
			s.GreaterOrEqual(first, MinScore)
			s.LessOrEqual(first, MaxScore)
			s.Equal(first, calc.ScoreAt(tab, tabs, states, s.now))
		}
	}
}

type mutableWeights struct {
	w models.WeightSet
}

func (m *mutableWeights) Weights() models.WeightSet {
	return m.w
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{0.49, 0},
		{0.5, 1},
		{12.5, 13},
		{99.6, 100},
		{250, 100},
		{-4, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, clampScore(tt.in), "clampScore(%v)", tt.in)
	}
}
