package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thebtf/tabtriage/pkg/workerclient"
)

func newStatusCmd(a *app) *cobra.Command {
	var wf workerFlags
	cmd := &cobra.Command{
		Use:     "status",
		Short:   "Show whether the worker is running",
		GroupID: groupManage,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, url, err := a.client(wf)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			health, err := client.Health(cmd.Context())
			if err != nil {
				fmt.Fprintln(w, dimStyle.Render("Worker not running at "+url))
				return nil
			}
			fmt.Fprintf(w, "Worker %s at %s\n", bucketStyle.Render(health.Status), url)
			fmt.Fprintf(w, "  version  %s\n", health.Version)
			fmt.Fprintf(w, "  backend  %s\n", health.Backend)
			fmt.Fprintf(w, "  uptime   %s\n", health.Uptime)
			fmt.Fprintf(w, "  clients  %d\n", health.Clients)
			if !workerclient.VersionsCompatible(Version, health.Version) {
				fmt.Fprintln(w, warnStyle.Render(
					fmt.Sprintf("  warning  worker %s does not match tabtriage %s, restart the worker", health.Version, Version)))
			}
			return nil
		},
	}
	wf.register(cmd, "url", "Worker base URL (defaults to the configured port on localhost)")
	return cmd
}
