package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thebtf/tabtriage/pkg/workerclient"
)

// workerFlags select a running worker for commands that can run remotely.
type workerFlags struct {
	url   string
	token string
}

func (f *workerFlags) register(cmd *cobra.Command, urlFlag, urlUsage string) {
	cmd.Flags().StringVar(&f.url, urlFlag, "", urlUsage)
	cmd.Flags().StringVar(&f.token, "token", "", "API token when the worker requires one")
}

// client returns a client for the chosen worker, defaulting to the configured
// port on localhost, and the base URL it talks to.
func (a *app) client(f workerFlags) (*workerclient.Client, string, error) {
	if f.url != "" {
		return workerclient.NewWithBaseURL(f.url, f.token), f.url, nil
	}
	cfg, err := a.config()
	if err != nil {
		return nil, "", err
	}
	return workerclient.New(cfg.WorkerPort, f.token), fmt.Sprintf("http://127.0.0.1:%d", cfg.WorkerPort), nil
}
