package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thebtf/tabtriage/pkg/models"
)

func scored(id int64, url, category string, score int, active bool) models.ScoredTab {
	return models.ScoredTab{
		TabRecord:    models.TabRecord{ID: id, URL: url, Active: active},
		Category:     category,
		AnxietyScore: score,
	}
}

func bucketIDs(tabs []models.ScoredTab) []int64 {
	ids := make([]int64, 0, len(tabs))
	for _, t := range tabs {
		ids = append(ids, t.ID)
	}
	return ids
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name       string
		tab        models.ScoredTab
		duplicates int
		want       models.Bucket
	}{
		{name: "search page closes", tab: scored(1, "https://www.google.com/search?q=go", "search", 5, true), want: models.BucketClose},
		{name: "search page wins over shopping", tab: scored(1, "https://shop.example.com/?query=x", "shopping", 0, false), want: models.BucketClose},
		{name: "high score duplicate closes", tab: scored(1, "https://a.com", "work", 60, false), duplicates: 1, want: models.BucketClose},
		{name: "high score without duplicate", tab: scored(1, "https://a.com", "work", 90, false), want: models.BucketNone},
		{name: "duplicate below threshold", tab: scored(1, "https://a.com", "work", 59, false), duplicates: 3, want: models.BucketNone},
		{name: "learning archives", tab: scored(1, "https://docs.a.com", "learning", 50, false), want: models.BucketArchive},
		{name: "active learning keeps", tab: scored(1, "https://docs.a.com", "learning", 55, true), want: models.BucketKeep},
		{name: "learning below threshold", tab: scored(1, "https://docs.a.com", "learning", 49, false), want: models.BucketNone},
		{name: "shopping suspends at any score", tab: scored(1, "https://shop.a.com", "shopping", 0, true), want: models.BucketSuspend},
		{name: "reading suspends at 40", tab: scored(1, "https://medium.com/x", "reading", 40, false), want: models.BucketSuspend},
		{name: "reading below 40 idle keeps", tab: scored(1, "https://medium.com/x", "reading", 20, false), want: models.BucketKeep},
		{name: "active keeps", tab: scored(1, "https://a.com", "other", 55, true), want: models.BucketKeep},
		{name: "low score keeps", tab: scored(1, "https://a.com", "other", 29, false), want: models.BucketKeep},
		{name: "gap", tab: scored(1, "https://a.com", "other", 30, false), want: models.BucketNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.tab, tt.duplicates))
		})
	}
}

func TestDerive_ShoppingExample(t *testing.T) {
	tabs := []models.ScoredTab{
		scored(1, "https://shop.example.com/cart", "shopping", 62, false),
		scored(2, "https://shop.example.com/item/2", "shopping", 40, false),
	}

	got := New().Derive(tabs)

	assert.Equal(t, []int64{1}, bucketIDs(got.Close), "score >= 60 with a same-domain sibling closes")
	assert.Equal(t, []int64{2}, bucketIDs(got.Suspend))
	assert.Empty(t, got.Archive)
	assert.Empty(t, got.Keep)
	assert.Empty(t, got.Unbucketed)
}

func TestDerive_DisjointAndOrdered(t *testing.T) {
	tabs := []models.ScoredTab{
		scored(1, "https://www.bing.com/search?q=a", "search", 10, false),
		scored(2, "https://docs.go.dev/a", "learning", 55, false),
		scored(3, "https://a.com/1", "other", 65, false),
		scored(4, "https://a.com/2", "other", 10, false),
		scored(5, "https://medium.com/p", "reading", 45, false),
		scored(6, "https://b.com", "work", 35, true),
		scored(7, "https://c.com", "work", 35, false),
		scored(8, "https://docs.go.dev/b", "learning", 58, false),
		scored(9, "chrome://settings", "other", 0, false),
	}

	got := New().Derive(tabs)

	assert.Equal(t, []int64{1, 3}, bucketIDs(got.Close))
	assert.Equal(t, []int64{2, 8}, bucketIDs(got.Archive), "learning duplicates reach archive only below the close threshold")
	assert.Equal(t, []int64{5}, bucketIDs(got.Suspend))
	assert.Equal(t, []int64{4, 6, 9}, bucketIDs(got.Keep))
	assert.Equal(t, []int64{7}, bucketIDs(got.Unbucketed))

	seen := map[int64]int{}
	for _, list := range [][]models.ScoredTab{got.Close, got.Archive, got.Suspend, got.Keep, got.Unbucketed} {
		for _, tab := range list {
			seen[tab.ID]++
		}
	}
	assert.Len(t, seen, len(tabs))
	for id, n := range seen {
		assert.Equal(t, 1, n, "tab %d placed in %d buckets", id, n)
	}
	assert.Equal(t, len(tabs)-1, got.Actionable())
}

func TestDerive_UsesEnrichedDomain(t *testing.T) {
	a := scored(1, "https://one.example", "other", 70, false)
	a.Domain = "shared"
	b := scored(2, "https://two.example", "other", 10, false)
	b.Domain = "shared"

	got := New().Derive([]models.ScoredTab{a, b})
	assert.Equal(t, []int64{1}, bucketIDs(got.Close))
}

func TestDerive_SameIDIsNotADuplicate(t *testing.T) {
	tabs := []models.ScoredTab{
		scored(1, "https://a.com/x", "other", 80, false),
		scored(1, "https://a.com/x", "other", 80, false),
	}
	got := New().Derive(tabs)
	assert.Empty(t, got.Close)
	assert.Len(t, got.Unbucketed, 2)
}

func TestDerive_Empty(t *testing.T) {
	got := New().Derive(nil)
	assert.NotNil(t, got.Close)
	assert.NotNil(t, got.Keep)
	assert.Zero(t, got.Actionable())
}
