package triage

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/thebtf/tabtriage/internal/i18n"
	"github.com/thebtf/tabtriage/pkg/models"
)

// failingGroups fails every lookup.
type failingGroups struct{}

func (failingGroups) QueryGroups(context.Context) ([]models.TabGroupInfo, error) {
	return nil, errBackend
}

func (s *ServiceSuite) withGroups(p GroupProvider) *Service {
	svc, err := NewService(Config{
		Store:  s.store,
		Groups: p,
		Meter:  noop.NewMeterProvider().Meter("test"),
		Clock:  func() time.Time { return s.now },
	}, zerolog.Nop())
	s.Require().NoError(err)
	return svc
}

func (s *ServiceSuite) groupedSnapshot() []models.TabRecord {
	tabs := s.snapshot()
	tabs[0].GroupID = 11 // A, 13
	tabs[1].GroupID = 11 // B, 16
	tabs[2].GroupID = 12 // C, 12
	tabs[3].GroupID = models.NoGroupID
	return tabs
}

func (s *ServiceSuite) TestEnrich_AttachesGroupInfo() {
	svc := s.withGroups(StaticGroups{
		{ID: 11, Title: "Go", Color: "cyan", Collapsed: true},
		{ID: 12},
	})
	got := svc.Enrich(s.ctx, s.groupedSnapshot(), nil)

	byID := map[int64]models.ScoredTab{}
	for _, t := range got {
		byID[t.ID] = t
	}
	s.Require().NotNil(byID[1].GroupInfo)
	s.Equal("Go", byID[1].GroupInfo.Title)
	s.True(byID[1].GroupInfo.Collapsed)
	s.Require().NotNil(byID[3].GroupInfo)
	s.Equal(models.DefaultGroupColor, byID[3].GroupInfo.Color)

	s.Nil(byID[4].GroupInfo)
	s.Equal(models.NoGroupID, byID[4].GroupID)
	// Snapshots without the field are ungrouped too.
	s.Equal(models.NoGroupID, byID[5].GroupID)
}

func (s *ServiceSuite) TestEnrich_GroupLookupFailure() {
	got := s.withGroups(failingGroups{}).Enrich(s.ctx, s.groupedSnapshot(), nil)
	s.Len(got, 5)
	for _, t := range got {
		s.Nil(t.GroupInfo)
	}
}

func (s *ServiceSuite) TestEnrich_EmptyTitleUsesPlaceholder() {
	tabs := []models.TabRecord{
		{ID: 1, URL: "https://a.example", Title: "  "},
		{ID: 2, URL: "https://b.example"},
	}
	got := s.newService(s.store, i18n.New("zh-CN")).Enrich(s.ctx, tabs, nil)
	s.Equal("无标题", got[0].Title)
	s.Equal("  ", got[0].OriginalTitle)

	got = s.svc.Enrich(s.ctx, tabs, nil)
	s.Equal("No Title", got[1].Title)
	s.Empty(got[1].OriginalTitle)
}

func (s *ServiceSuite) TestGroupByTabGroup() {
	enriched := s.svc.EnrichWithGroups(s.ctx, s.groupedSnapshot(), nil, []models.TabGroupInfo{
		{ID: 11, Title: " Go ", Color: "cyan"},
	})
	groups := GroupByTabGroup(enriched, nil)
	s.Require().Len(groups, 3)

	titled := groups["11"]
	s.Require().NotNil(titled)
	s.Equal("11", titled.ID)
	s.Equal("Go", titled.Name)
	s.Equal("cyan", titled.Color)
	s.Equal([]int64{2, 1}, idsOf(titled.Tabs))
	s.Equal(29, titled.TotalAnxiety)
	s.Equal(15, titled.AvgAnxiety)

	untitled := groups["12"]
	s.Require().NotNil(untitled)
	s.Equal("Group 12", untitled.Name)
	s.Equal(models.DefaultGroupColor, untitled.Color)
	s.Equal(12, untitled.AvgAnxiety)

	ungrouped := groups[models.UngroupedKey]
	s.Require().NotNil(ungrouped)
	s.Equal("Ungrouped", ungrouped.Name)
	s.Equal(models.DefaultGroupColor, ungrouped.Color)
	s.Equal([]int64{4, 5}, idsOf(ungrouped.Tabs))
	s.Equal(2, ungrouped.TotalAnxiety)
	s.Equal(1, ungrouped.AvgAnxiety)
}

func (s *ServiceSuite) TestGroupByTabGroup_Localized() {
	tabs := s.groupedSnapshot()
	tabs[0].GroupID = 12
	tabs[1].GroupID = 12
	enriched := s.svc.EnrichWithGroups(s.ctx, tabs, nil, []models.TabGroupInfo{{ID: 12, Title: "   "}})

	groups := GroupByTabGroup(enriched, i18n.New("zh-CN"))
	s.Require().Len(groups, 2)
	s.Equal("分组 12", groups["12"].Name)
	s.Equal("未分组", groups[models.UngroupedKey].Name)
	s.Empty(GroupByTabGroup(nil, nil))
}
