package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/tabtriage/internal/config"
	"github.com/thebtf/tabtriage/internal/kv"
	"github.com/thebtf/tabtriage/internal/rules"
	"github.com/thebtf/tabtriage/internal/weights"
	"github.com/thebtf/tabtriage/pkg/models"
)

// run executes the command line against store and returns stdout.
func run(t *testing.T, store kv.Store, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cfg := config.Default()
	cfg.Backend = kv.BackendMemory
	root := NewRootCmd(Options{
		Open:   func(*config.Config) (kv.Store, error) { return store, nil },
		Out:    &out,
		Err:    &errOut,
		Config: cfg,
	})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeSnapshot(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "tabs.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func sampleTabs() []models.TabRecord {
	now := time.Now()
	return []models.TabRecord{
		{ID: 1, URL: "https://github.com/a", Title: "Repo A", LastAccessedEpoch: now.Add(-5 * time.Hour).UnixMilli()},
		{ID: 2, URL: "https://www.google.com/search?q=go", Title: "go - Google Search", LastAccessedEpoch: now.UnixMilli(), Active: true},
		{ID: 3, URL: "chrome://settings", Title: "Settings"},
	}
}

func TestReadSnapshot(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		snap, err := readSnapshot("-", strings.NewReader(`[{"id": 1, "url": "https://a.com", "title": "A"}]`))
		require.NoError(t, err)
		require.Len(t, snap.Tabs, 1)
		assert.Equal(t, int64(1), snap.Tabs[0].ID)
		assert.Nil(t, snap.States)
	})

	t.Run("object with states", func(t *testing.T) {
		snap, err := readSnapshot("-", strings.NewReader(`{"tabs": [{"id": 4, "url": "https://b.com"}], "states": {"4": {"scrollTop": 12}}}`))
		require.NoError(t, err)
		require.Len(t, snap.Tabs, 1)
		require.Contains(t, snap.States, int64(4))
		require.NotNil(t, snap.States[4].ScrollTop)
		assert.InDelta(t, 12.0, *snap.States[4].ScrollTop, 1e-9)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := readSnapshot("-", strings.NewReader(`{"tabs": [`))
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readSnapshot(filepath.Join(t.TempDir(), "nope.json"), nil)
		assert.Error(t, err)
	})
}

func TestScoreCmd(t *testing.T) {
	path := writeSnapshot(t, sampleTabs())

	out, err := run(t, kv.NewMemory(), "score", path)
	require.NoError(t, err)
	assert.Contains(t, out, "SCORE")
	assert.Contains(t, out, "Repo A")
	assert.Contains(t, out, "github.com")
	assert.Contains(t, out, "3 tabs")
	assert.Less(t, strings.Index(out, "Repo A"), strings.Index(out, "Settings"), "highest score first")
}

func TestScoreCmd_JSON(t *testing.T) {
	path := writeSnapshot(t, Snapshot{Tabs: sampleTabs()})

	out, err := run(t, kv.NewMemory(), "score", "--json", path)
	require.NoError(t, err)

	var tabs []models.ScoredTab
	require.NoError(t, json.Unmarshal([]byte(out), &tabs))
	require.Len(t, tabs, 3)
	assert.Equal(t, int64(1), tabs[0].ID)
	assert.Equal(t, "work", tabs[0].Category)
}

func TestScoreCmd_Groups(t *testing.T) {
	path := writeSnapshot(t, Snapshot{
		Tabs: []models.TabRecord{
			{ID: 1, URL: "https://a.example", Title: "A", GroupID: 5},
			{ID: 2, URL: "https://b.example", GroupID: models.NoGroupID},
		},
		Groups: []models.TabGroupInfo{{ID: 5, Title: "Research", Color: "blue"}},
	})

	out, err := run(t, kv.NewMemory(), "score", "--json", path)
	require.NoError(t, err)

	var tabs []models.ScoredTab
	require.NoError(t, json.Unmarshal([]byte(out), &tabs))
	require.Len(t, tabs, 2)
	byID := map[int64]models.ScoredTab{tabs[0].ID: tabs[0], tabs[1].ID: tabs[1]}
	require.NotNil(t, byID[1].GroupInfo)
	assert.Equal(t, "Research", byID[1].GroupInfo.Title)
	assert.Nil(t, byID[2].GroupInfo)
	assert.Equal(t, "No Title", byID[2].Title)
	assert.Empty(t, byID[2].OriginalTitle)
}

func TestScoreCmd_Locale(t *testing.T) {
	path := writeSnapshot(t, sampleTabs())

	out, err := run(t, kv.NewMemory(), "score", "--locale", "zh-CN", "--json", path)
	require.NoError(t, err)

	var tabs []models.ScoredTab
	require.NoError(t, json.Unmarshal([]byte(out), &tabs))
	assert.NotEqual(t, "Work", tabs[0].CategoryName)
}

func TestSuggestCmd(t *testing.T) {
	path := writeSnapshot(t, sampleTabs())

	out, err := run(t, kv.NewMemory(), "suggest", "--json", path)
	require.NoError(t, err)

	var buckets models.SuggestionBuckets
	require.NoError(t, json.Unmarshal([]byte(out), &buckets))
	require.Len(t, buckets.Close, 1)
	assert.Equal(t, int64(2), buckets.Close[0].ID)

	out, err = run(t, kv.NewMemory(), "suggest", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Safe to close (1)")
	assert.Contains(t, out, "Keep open (2)")
}

func TestWeightsCmds(t *testing.T) {
	store := kv.NewMemory()

	out, err := run(t, store, "weights", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Weights (defaults)")

	_, err = run(t, store, "weights", "set")
	assert.Error(t, err, "no flags given")

	out, err = run(t, store, "weights", "set", "--open-duration", "0.5", "--search-page", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Weights (custom)")
	assert.Contains(t, out, "0.50")

	// Persisted for the next invocation, clamped to [0,1].
	ws := weights.NewStore(store, zerolog.Nop())
	_, err = ws.Load(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.5, ws.Weights().OpenDuration, 1e-9)
	assert.InDelta(t, 1.0, ws.Weights().IsSearchPage, 1e-9)

	_, err = run(t, store, "weights", "preset", "bogus")
	assert.ErrorIs(t, err, weights.ErrUnknownPreset)

	out, err = run(t, store, "weights", "preset", weights.PresetAggressive)
	require.NoError(t, err)
	assert.Contains(t, out, "0.40")

	out, err = run(t, store, "weights", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Weights (defaults)")
}

func TestRulesCmds(t *testing.T) {
	store := kv.NewMemory()

	out, err := run(t, store, "rules", "add", "News", "--id", "news", "--domain", "news.ycombinator.com", "--priority", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Added rule news")

	_, err = run(t, store, "rules", "add", "Broken", "--pattern", "(")
	assert.ErrorIs(t, err, rules.ErrInvalidPattern)

	out, err = run(t, store, "rules", "list")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "news"), strings.Index(out, "shopping"), "priority 5 before defaults")

	out, err = run(t, store, "rules", "list", "--custom")
	require.NoError(t, err)
	assert.NotContains(t, out, "shopping")

	exported := filepath.Join(t.TempDir(), "rules.yaml")
	_, err = run(t, store, "rules", "export", exported)
	require.NoError(t, err)
	data, err := os.ReadFile(exported)
	require.NoError(t, err)
	assert.Contains(t, string(data), "news.ycombinator.com")

	out, err = run(t, store, "rules", "delete", "news")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted rule news")

	_, err = run(t, store, "rules", "delete", "work")
	assert.ErrorIs(t, err, rules.ErrNotCustom)

	out, err = run(t, store, "rules", "import", exported)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 rules")

	out, err = run(t, store, "rules", "export")
	require.NoError(t, err)
	assert.Contains(t, out, "id: news")
}

func TestSessionsCmds(t *testing.T) {
	store := kv.NewMemory()
	path := writeSnapshot(t, sampleTabs())

	out, err := run(t, store, "sessions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No archived sessions")

	out, err = run(t, store, "sessions", "save", "--name", "Friday", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"Friday"`)
	assert.Contains(t, out, "with 2 tabs")

	var sessions []models.Session
	_, err = kv.GetJSON(context.Background(), store, "sessions", &sessions)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	id := sessions[0].ID

	out, err = run(t, store, "sessions", "rename", id, "Monday")
	require.NoError(t, err)
	assert.Contains(t, out, `"Monday"`)

	out, err = run(t, store, "sessions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Monday")

	_, err = run(t, store, "sessions", "delete", id)
	require.NoError(t, err)
	_, err = run(t, store, "sessions", "delete", id)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 8, "this is…"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncate(tt.in, tt.n))
	}
}

func TestStatusCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"ready","version":"v0.1.0","backend":"sqlite","uptime":"3s","clients":1}`))
	}))
	defer srv.Close()

	out, err := run(t, kv.NewMemory(), "status", "--url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "ready")
	assert.Contains(t, out, "v0.1.0")
	assert.Contains(t, out, "sqlite")
	assert.NotContains(t, out, "warning", "dev builds match any worker")

	prev := Version
	Version = "v0.2.0"
	t.Cleanup(func() { Version = prev })
	out, err = run(t, kv.NewMemory(), "status", "--url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "does not match tabtriage v0.2.0")

	Version = "v0.1.0-3-gabcdef"
	out, err = run(t, kv.NewMemory(), "status", "--url", srv.URL)
	require.NoError(t, err)
	assert.NotContains(t, out, "warning")

	srv.Close()
	out, err = run(t, kv.NewMemory(), "status", "--url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Worker not running")
}

func TestScoreAndSuggest_OnWorker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Auth-Token"))
		var req struct {
			Tabs   []models.TabRecord    `json:"tabs"`
			Groups []models.TabGroupInfo `json:"groups"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		assert.Len(t, req.Tabs, 1)
		assert.Len(t, req.Groups, 1)

		tab := models.ScoredTab{
			TabRecord:    models.TabRecord{ID: 7, Title: "Remote tab"},
			AnxietyScore: 81,
			CategoryName: "Work",
		}
		switch r.URL.Path {
		case "/api/tabs/enrich":
			_ = json.NewEncoder(w).Encode(map[string]any{"tabs": []models.ScoredTab{tab}})
		case "/api/tabs/suggestions":
			b := models.NewSuggestionBuckets()
			b.Add(models.BucketArchive, tab)
			_ = json.NewEncoder(w).Encode(b)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	path := writeSnapshot(t, Snapshot{
		Tabs:   []models.TabRecord{{ID: 7, URL: "https://github.com/x", Title: "Remote tab", GroupID: 2}},
		Groups: []models.TabGroupInfo{{ID: 2, Title: "Work"}},
	})
	failing := func(*config.Config) (kv.Store, error) {
		t.Fatal("store must not be opened for remote commands")
		return nil, nil
	}

	var out bytes.Buffer
	root := NewRootCmd(Options{Open: failing, Out: &out, Err: &out, Config: config.Default()})
	root.SetArgs([]string{"score", "--worker", srv.URL, "--token", "secret", path})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "81")
	assert.Contains(t, out.String(), "Remote tab")

	out.Reset()
	root = NewRootCmd(Options{Open: failing, Out: &out, Err: &out, Config: config.Default()})
	root.SetArgs([]string{"suggest", "--worker", srv.URL, "--token", "secret", path})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "Archive for later (1)")

	srv.Close()
	root = NewRootCmd(Options{Open: failing, Out: &out, Err: &out, Config: config.Default()})
	root.SetArgs([]string{"score", "--worker", srv.URL, path})
	assert.Error(t, root.ExecuteContext(context.Background()))
}
