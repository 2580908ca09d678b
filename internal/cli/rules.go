package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thebtf/tabtriage/internal/triage"
	"github.com/thebtf/tabtriage/pkg/models"
)

func newRulesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rules",
		Short:   "Manage category rules",
		GroupID: groupManage,
	}
	cmd.AddCommand(
		newRulesListCmd(a),
		newRulesAddCmd(a),
		newRulesDeleteCmd(a),
		newRulesExportCmd(a),
		newRulesImportCmd(a),
	)
	return cmd
}

func newRulesListCmd(a *app) *cobra.Command {
	var customOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.with(cmd, func(_ context.Context, svc *triage.Service) error {
				w := cmd.OutOrStdout()
				fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-20s  %-20s  %8s  %s", "ID", "NAME", "PRIORITY", "MATCHES")))
				for _, r := range svc.Rules().Ordered() {
					if customOnly && !r.IsCustom {
						continue
					}
					name := truncate(svc.Classifier().CategoryName(r.ID, a.l), 20)
					line := fmt.Sprintf("%-20s  %-20s  %8d  %s", truncate(r.ID, 20), name, r.Priority, describeRule(r.CategoryRule))
					if !r.IsCustom {
						line = dimStyle.Render(line)
					}
					fmt.Fprintln(w, line)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&customOnly, "custom", false, "Only list custom rules")
	return cmd
}

func describeRule(r models.CategoryRule) string {
	var parts []string
	if len(r.Domains) > 0 {
		parts = append(parts, "domains="+strings.Join(r.Domains, ","))
	}
	if len(r.Keywords) > 0 {
		parts = append(parts, "keywords="+strings.Join(r.Keywords, ","))
	}
	if r.URLPattern != "" {
		parts = append(parts, "pattern="+r.URLPattern)
	}
	if len(parts) == 0 {
		return "-"
	}
	return truncate(strings.Join(parts, " "), 80)
}

func newRulesAddCmd(a *app) *cobra.Command {
	var rule models.CategoryRule
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a custom rule",
		Long: `Add a custom category rule. A tab matches when its hostname contains a
domain, its title or URL contains a keyword, or the pattern matches its URL.
Higher priorities are evaluated first.

Examples:
  tabtriage rules add News --domain news.ycombinator.com --domain lobste.rs --priority 10
  tabtriage rules add Tickets --id tickets --pattern '/browse/[A-Z]+-\d+'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rule.Name = args[0]
			return a.with(cmd, func(ctx context.Context, svc *triage.Service) error {
				added, err := svc.Rules().AddCustomRule(ctx, rule)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added rule %s\n", added.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&rule.ID, "id", "", "Rule id (generated when empty)")
	cmd.Flags().StringSliceVar(&rule.Domains, "domain", nil, "Hostname substring to match (repeatable)")
	cmd.Flags().StringSliceVar(&rule.Keywords, "keyword", nil, "Title or URL substring to match (repeatable)")
	cmd.Flags().StringVar(&rule.URLPattern, "pattern", "", "Regular expression matched against the full URL")
	cmd.Flags().IntVar(&rule.Priority, "priority", 0, "Evaluation priority, higher first")
	return cmd
}

func newRulesDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a custom rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.with(cmd, func(ctx context.Context, svc *triage.Service) error {
				if err := svc.Rules().DeleteCustomRule(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted rule %s\n", args[0])
				return nil
			})
		},
	}
}

func newRulesExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write custom rules as YAML to a file or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.with(cmd, func(_ context.Context, svc *triage.Service) error {
				if len(args) == 0 || args[0] == "-" {
					return svc.Rules().ExportYAML(cmd.OutOrStdout())
				}
				f, err := os.Create(args[0])
				if err != nil {
					return err
				}
				if err := svc.Rules().ExportYAML(f); err != nil {
					f.Close()
					return err
				}
				return f.Close()
			})
		},
	}
}

func newRulesImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace custom rules with those in a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return a.with(cmd, func(ctx context.Context, svc *triage.Service) error {
				imported, err := svc.Rules().ImportYAML(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rules\n", len(imported))
				return nil
			})
		},
	}
}
