package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thebtf/tabtriage/internal/triage"
	"github.com/thebtf/tabtriage/internal/weights"
	"github.com/thebtf/tabtriage/pkg/models"
)

func newWeightsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "weights",
		Short:   "Show or change the scoring factor weights",
		GroupID: groupManage,
	}
	cmd.AddCommand(
		newWeightsShowCmd(a),
		newWeightsSetCmd(a),
		newWeightsPresetCmd(a),
		newWeightsResetCmd(a),
	)
	return cmd
}

func newWeightsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active weights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.with(cmd, func(_ context.Context, svc *triage.Service) error {
				printWeights(cmd.OutOrStdout(), svc.Weights())
				return nil
			})
		},
	}
}

// weightFlags maps flag names to the PartialWeights field they set.
var weightFlags = []struct {
	name  string
	usage string
	field func(p *models.PartialWeights) **float64
}{
	{"open-duration", "Weight of time since last access", func(p *models.PartialWeights) **float64 { return &p.OpenDuration }},
	{"duplicate-domain", "Weight of other tabs on the same domain", func(p *models.PartialWeights) **float64 { return &p.DuplicateDomain }},
	{"inactive-time", "Weight of background inactivity", func(p *models.PartialWeights) **float64 { return &p.InactiveTime }},
	{"search-page", "Weight of search result pages", func(p *models.PartialWeights) **float64 { return &p.IsSearchPage }},
	{"unread-article", "Weight of unread articles", func(p *models.PartialWeights) **float64 { return &p.UnreadArticle }},
}

func newWeightsSetCmd(a *app) *cobra.Command {
	values := make([]float64, len(weightFlags))
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Override individual weights",
		Long: `Override individual weights. Unset factors keep their current value.
Values are clamped to [0,1].

Examples:
  tabtriage weights set --open-duration 0.5
  tabtriage weights set --search-page 0 --unread-article 0.2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var partial models.PartialWeights
			changed := 0
			for i, f := range weightFlags {
				if cmd.Flags().Changed(f.name) {
					v := values[i]
					*f.field(&partial) = &v
					changed++
				}
			}
			if changed == 0 {
				return fmt.Errorf("no weights given, see --help")
			}
			return a.with(cmd, func(ctx context.Context, svc *triage.Service) error {
				if _, err := svc.Weights().Save(ctx, partial); err != nil {
					return err
				}
				printWeights(cmd.OutOrStdout(), svc.Weights())
				return nil
			})
		},
	}
	for i, f := range weightFlags {
		cmd.Flags().Float64Var(&values[i], f.name, 0, f.usage)
	}
	return cmd
}

func newWeightsPresetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "preset <name>",
		Short:     "Apply a named weight preset",
		Args:      cobra.ExactArgs(1),
		ValidArgs: weights.Presets(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.with(cmd, func(ctx context.Context, svc *triage.Service) error {
				if _, err := svc.Weights().ApplyPreset(ctx, args[0]); err != nil {
					return fmt.Errorf("%w (available: %v)", err, weights.Presets())
				}
				printWeights(cmd.OutOrStdout(), svc.Weights())
				return nil
			})
		},
	}
}

func newWeightsResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard custom weights and restore the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.with(cmd, func(ctx context.Context, svc *triage.Service) error {
				if err := svc.Weights().Reset(ctx); err != nil {
					return err
				}
				printWeights(cmd.OutOrStdout(), svc.Weights())
				return nil
			})
		},
	}
}

func printWeights(w io.Writer, store *weights.Store) {
	ws := store.Weights()
	source := "defaults"
	if store.IsCustom() {
		source = "custom"
	}
	fmt.Fprintln(w, headerStyle.Render("Weights ("+source+")"))
	rows := []struct {
		name  string
		value float64
	}{
		{"openDuration", ws.OpenDuration},
		{"duplicateDomain", ws.DuplicateDomain},
		{"inactiveTime", ws.InactiveTime},
		{"isSearchPage", ws.IsSearchPage},
		{"unreadArticle", ws.UnreadArticle},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %-16s %.2f\n", r.name, r.value)
	}
}
