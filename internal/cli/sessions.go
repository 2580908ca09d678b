package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/thebtf/tabtriage/internal/triage"
)

func newSessionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Short:   "Manage archived tab sessions",
		GroupID: groupManage,
	}
	cmd.AddCommand(
		newSessionsListCmd(a),
		newSessionsSaveCmd(a),
		newSessionsRenameCmd(a),
		newSessionsDeleteCmd(a),
	)
	return cmd
}

func newSessionsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archived sessions, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.with(cmd, func(ctx context.Context, svc *triage.Service) error {
				sessions, err := svc.Sessions(ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if len(sessions) == 0 {
					fmt.Fprintln(w, dimStyle.Render("No archived sessions"))
					return nil
				}
				for _, s := range sessions {
					saved := time.UnixMilli(s.Timestamp).Format("2006-01-02 15:04")
					fmt.Fprintf(w, "%s  %s  %-30s  %d tabs\n", s.ID, dimStyle.Render(saved), truncate(s.Name, 30), len(s.Tabs))
				}
				return nil
			})
		},
	}
}

func newSessionsSaveCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "save <snapshot.json>",
		Short: "Archive the http(s) tabs of a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := readSnapshot(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			return a.with(cmd, func(ctx context.Context, svc *triage.Service) error {
				session, err := svc.SaveSession(ctx, name, snap.Tabs)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved session %q (%s) with %d tabs\n", session.Name, session.ID, len(session.Tabs))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Session name (defaults to a timestamped name)")
	return cmd
}

func newSessionsRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename an archived session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.with(cmd, func(ctx context.Context, svc *triage.Service) error {
				session, err := svc.RenameSession(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed session %s to %q\n", session.ID, session.Name)
				return nil
			})
		},
	}
}

func newSessionsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an archived session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.with(cmd, func(ctx context.Context, svc *triage.Service) error {
				if err := svc.DeleteSession(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
				return nil
			})
		},
	}
}
