package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/thebtf/tabtriage/internal/i18n"
	"github.com/thebtf/tabtriage/internal/triage"
	"github.com/thebtf/tabtriage/pkg/models"
)

// Snapshot is a tab snapshot file: either a bare array of tabs or an object
// with tabs, optional per-tab states and optional tab-group metadata.
type Snapshot struct {
	States models.TabStates      `json:"states,omitempty"`
	Tabs   []models.TabRecord    `json:"tabs"`
	Groups []models.TabGroupInfo `json:"groups,omitempty"`
}

// readSnapshot reads a snapshot from path, or from in when path is "-".
func readSnapshot(path string, in io.Reader) (Snapshot, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	var snap Snapshot
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &snap.Tabs)
	} else {
		err = json.Unmarshal(trimmed, &snap)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return snap, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newScoreCmd(a *app) *cobra.Command {
	var asJSON bool
	var remote workerFlags
	cmd := &cobra.Command{
		Use:     "score <snapshot.json>",
		Short:   "Score and classify the tabs in a snapshot",
		GroupID: groupTriage,
		Long: `Score every tab in a snapshot file, highest anxiety first.

The file holds a JSON array of tabs, or an object {"tabs": [...], "states": {...}, "groups": [...]}.
Use - to read from stdin. With --worker the running worker scores the tabs
with its own weights and rules.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := readSnapshot(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			render := func(tabs []models.ScoredTab) error {
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), tabs)
				}
				printScores(cmd.OutOrStdout(), tabs)
				printStats(cmd.OutOrStdout(), triage.ComputeStats(tabs))
				return nil
			}

			if remote.url != "" {
				client, _, err := a.client(remote)
				if err != nil {
					return err
				}
				tabs, err := client.Enrich(cmd.Context(), snap.Tabs, snap.States, snap.Groups)
				if err != nil {
					return fmt.Errorf("score on worker: %w", err)
				}
				return render(tabs)
			}
			return a.with(cmd, func(ctx context.Context, svc *triage.Service) error {
				return render(svc.EnrichWithGroups(ctx, snap.Tabs, snap.States, snap.Groups))
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print enriched tabs as JSON")
	remote.register(cmd, "worker", "Score on the worker at this base URL instead of locally")
	return cmd
}

func printScores(w io.Writer, tabs []models.ScoredTab) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%5s  %-14s  %-20s  %-24s  %s", "SCORE", "LEVEL", "CATEGORY", "DOMAIN", "TITLE")))
	for _, tab := range tabs {
		level := levelStyle(tab.AnxietyLevel).Render(fmt.Sprintf("%-14s", truncate(tab.AnxietyLevel.Label, 14)))
		fmt.Fprintf(w, "%5d  %s  %-20s  %-24s  %s\n",
			tab.AnxietyScore,
			level,
			truncate(tab.CategoryName, 20),
			truncate(tab.Domain, 24),
			truncate(tab.Title, 60),
		)
	}
}

func printStats(w io.Writer, st triage.Stats) {
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%d tabs, %d high, %d medium, %d domains, average %d",
		st.Total, st.HighAnxiety, st.MediumAnxiety, st.Domains, st.AverageScore)))
}

func newSuggestCmd(a *app) *cobra.Command {
	var asJSON bool
	var remote workerFlags
	cmd := &cobra.Command{
		Use:     "suggest <snapshot.json>",
		Short:   "Suggest which tabs to close, archive, suspend or keep",
		GroupID: groupTriage,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := readSnapshot(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			render := func(b models.SuggestionBuckets, l i18n.Localizer) error {
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), b)
				}
				printBuckets(cmd.OutOrStdout(), b, l)
				return nil
			}

			if remote.url != "" {
				client, _, err := a.client(remote)
				if err != nil {
					return err
				}
				cfg, err := a.config()
				if err != nil {
					return err
				}
				b, err := client.Suggestions(cmd.Context(), snap.Tabs, snap.States, snap.Groups)
				if err != nil {
					return fmt.Errorf("suggest on worker: %w", err)
				}
				return render(b, a.localizer(cfg))
			}
			return a.with(cmd, func(ctx context.Context, svc *triage.Service) error {
				return render(svc.Suggestions(ctx, svc.EnrichWithGroups(ctx, snap.Tabs, snap.States, snap.Groups)), a.l)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print buckets as JSON")
	remote.register(cmd, "worker", "Suggest on the worker at this base URL instead of locally")
	return cmd
}

func printBuckets(w io.Writer, b models.SuggestionBuckets, l i18n.Localizer) {
	sections := []struct {
		key  string
		tabs []models.ScoredTab
	}{
		{i18n.KeySuggestionClose, b.Close},
		{i18n.KeySuggestionArchive, b.Archive},
		{i18n.KeySuggestionSuspend, b.Suspend},
		{i18n.KeySuggestionKeep, b.Keep},
	}
	for _, s := range sections {
		if len(s.tabs) == 0 {
			continue
		}
		fmt.Fprintln(w, bucketStyle.Render(fmt.Sprintf("%s (%d)", l.Translate(s.key, nil), len(s.tabs))))
		for _, tab := range s.tabs {
			fmt.Fprintf(w, "  %s  %s\n", levelStyle(tab.AnxietyLevel).Render(fmt.Sprintf("%3d", tab.AnxietyScore)), truncate(tab.Title, 70))
		}
	}
	if n := len(b.Unbucketed); n > 0 {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%d tabs without a suggestion", n)))
	}
}
