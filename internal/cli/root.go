// Package cli implements the tabtriage command line: scoring and suggestions
// for a tab snapshot file, and management of weights, rules and sessions.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/thebtf/tabtriage/internal/config"
	"github.com/thebtf/tabtriage/internal/i18n"
	"github.com/thebtf/tabtriage/internal/kv"
	"github.com/thebtf/tabtriage/internal/triage"
)

// Version is the CLI build version, set with -ldflags "-X".
var Version = "dev"

// Command groups.
const (
	groupTriage = "triage"
	groupManage = "manage"
)

// Options configures the root command. Zero values use the settings file.
type Options struct {
	// Open returns the backing store. Defaults to kv.Open over the loaded config.
	Open   func(cfg *config.Config) (kv.Store, error)
	Out    io.Writer
	Err    io.Writer
	Config *config.Config
}

// app holds the state shared by subcommands for one invocation.
type app struct {
	opts   Options
	cfg    *config.Config
	locale string
	l      i18n.Localizer
	store  kv.Store
	triage *triage.Service
}

// NewRootCmd builds the tabtriage command tree.
func NewRootCmd(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.Open == nil {
		opts.Open = func(cfg *config.Config) (kv.Store, error) {
			if err := config.EnsureDataDir(); err != nil {
				return nil, err
			}
			return kv.Open(cfg.StoreOptions())
		}
	}
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:   "tabtriage",
		Short: "Score and triage browser tabs",
		Long: `tabtriage - anxiety scores for your open tabs
  - score and classify a tab snapshot
  - suggest which tabs to close, archive, suspend or keep
  - tune the factor weights and category rules`,
		Version:      Version,
		SilenceUsage: true,
	}
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)
	root.PersistentFlags().StringVar(&a.locale, "locale", "", "Label language, e.g. en or zh-CN (defaults to settings)")

	root.AddGroup(
		&cobra.Group{ID: groupTriage, Title: "Triage:"},
		&cobra.Group{ID: groupManage, Title: "Manage:"},
	)
	root.AddCommand(
		newScoreCmd(a),
		newSuggestCmd(a),
		newWeightsCmd(a),
		newRulesCmd(a),
		newSessionsCmd(a),
		newStatusCmd(a),
	)
	return root
}

// Execute runs the command line with the default options.
func Execute() error {
	return NewRootCmd(Options{}).Execute()
}

// with runs fn against the triage service and closes the store afterwards.
func (a *app) with(cmd *cobra.Command, fn func(ctx context.Context, svc *triage.Service) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, err := a.service(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(); err == nil {
			err = cerr
		}
	}()
	return fn(ctx, svc)
}

// service opens the store and loads persisted weights and rules on first use.
func (a *app) service(ctx context.Context) (*triage.Service, error) {
	if a.triage != nil {
		return a.triage, nil
	}

	cfg, err := a.config()
	if err != nil {
		return nil, err
	}

	store, err := a.opts.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}

	a.l = a.localizer(cfg)
	svc, err := triage.NewService(triage.Config{
		Store:     store,
		Localizer: a.l,
	}, zerolog.Nop())
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if err := svc.Load(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	a.store = store
	a.triage = svc
	return svc, nil
}

// config returns the configured settings, loading the settings file when no
// config was injected.
func (a *app) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg := a.opts.Config
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	a.cfg = cfg
	return cfg, nil
}

// localizer resolves --locale over the configured locale.
func (a *app) localizer(cfg *config.Config) i18n.Localizer {
	if a.locale != "" {
		return i18n.New(a.locale)
	}
	return i18n.New(cfg.Locale)
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	a.triage = nil
	return err
}
