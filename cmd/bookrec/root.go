package main

import (
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/bookrec/internal/config"
	"github.com/listenupapp/bookrec/internal/di"
	"github.com/listenupapp/bookrec/internal/logger"
)

// app carries the container built from the global flags.
type app struct {
	configPath string
	logLevel   string
	dataDir    string

	injector *do.RootScope
}

// newRootCmd builds the command tree. The caller must call shutdown on the returned app once the command
// has finished.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:           "bookrec",
		Short:         "Semantic book recommendations with category and emotion filters",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.injector = di.NewContainer(a.loadOptions(cmd))
			// Resolve config eagerly so bad flags fail before any work starts.
			_, err := do.Invoke[*config.Config](a.injector)
			return err
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML config file (default $"+config.ConfigPathEnvVar+")")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&a.dataDir, "data-dir", "", "data directory")

	root.AddCommand(
		newRecommendCmd(a),
		newSearchCmd(a),
		newServeCmd(a),
		newPipelineCmd(a),
		newEvaluateCmd(a),
		newStatsCmd(a),
	)
	for _, cmd := range newStageCmds(a) {
		root.AddCommand(cmd)
	}
	return root, a
}

// loadOptions passes only explicitly set flags as overrides, so they beat env and file values without
// masking them with empty defaults.
func (a *app) loadOptions(cmd *cobra.Command) config.LoadOptions {
	overrides := map[string]any{}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		overrides["logger.level"] = a.logLevel
	}
	if flags.Changed("data-dir") {
		overrides["data.dir"] = a.dataDir
	}
	return config.LoadOptions{Path: a.configPath, Overrides: overrides}
}

func (a *app) config() *config.Config {
	return do.MustInvoke[*config.Config](a.injector)
}

func (a *app) logger() *logger.Logger {
	return do.MustInvoke[*logger.Logger](a.injector)
}

func (a *app) shutdown() error {
	if a.injector == nil {
		return nil
	}
	if report := a.injector.Shutdown(); report != nil && !report.Succeed {
		return report
	}
	return nil
}
