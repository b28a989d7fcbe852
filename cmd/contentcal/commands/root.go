package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"contentcal/internal/config"
	appLog "contentcal/internal/log"
	"contentcal/internal/planner"
	"contentcal/internal/store"
)

var (
	// Version and Commit are set at build time via ldflags.
	Version = "dev"
	Commit  = "none"
)

// app carries what every subcommand needs once the config is loaded.
type app struct {
	configPath string
	verbose    bool
	cfg        *config.Config
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "contentcal",
		Short:         "Content calendar planner with weekly platform quotas",
		Long:          "contentcal plans social and blog content by day, groups it into weeks and\nreports how each platform tracks against its weekly quota.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "contentcal.yaml", "path to the config file (created on first run)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(
		newServeCmd(a),
		newReportCmd(a),
		newExportCmd(a),
		newEventsCmd(a),
		newQuotasCmd(a),
	)
	return root
}

func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config %s: %w", a.configPath, err)
	}

	level := appLog.ParseLevel(cfg.Log.Level)
	if a.verbose {
		level = appLog.LevelDebug
	}
	if err := appLog.Init(appLog.Options{Level: level, Dir: cfg.Log.Dir}); err != nil {
		return err
	}
	appLog.Debug("config loaded",
		"path", a.configPath,
		"version", Version,
		"commit", Commit,
		"store", cfg.Store.Driver,
		"cache", cfg.Cache.Driver,
		"week_policy", cfg.WeekPolicy,
		"feeds", len(cfg.OccasionFeeds),
	)
	a.cfg = cfg
	return nil
}

// service opens the configured store and builds the planner on top of it.
// The returned close func releases the store.
func (a *app) service(ctx context.Context) (*planner.Service, func(), error) {
	st, err := store.Open(ctx, a.cfg)
	if err != nil {
		return nil, nil, err
	}
	svc, err := planner.NewFromConfig(a.cfg, st)
	if err != nil {
		_ = store.Close(st)
		return nil, nil, err
	}
	closeFn := func() {
		if err := store.Close(st); err != nil {
			appLog.Error("failed to close store", err)
		}
	}
	return svc, closeFn, nil
}
