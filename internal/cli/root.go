// Package cli contains the wikitrends command tree.
package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"WikiTrends/internal/app"
	"WikiTrends/internal/config"
	"WikiTrends/internal/logging"
)

var version = "dev"

// SetVersion sets the version string printed by "wikitrends version".
func SetVersion(v string) {
	version = v
}

// Factory builds the application once flags and configuration are resolved.
type Factory func(cfg config.Config, logger *slog.Logger) *app.Application

type rootOptions struct {
	cfgFile  string
	logLevel string
	factory  Factory
	app      *app.Application
}

// NewRootCommand assembles the command tree. A nil factory uses app.New.
func NewRootCommand(factory Factory) *cobra.Command {
	if factory == nil {
		factory = app.New
	}
	opts := &rootOptions{factory: factory}

	root := &cobra.Command{
		Use:   "wikitrends",
		Short: "Trending Wikipedia articles and search",
		Long: `wikitrends resolves the most viewed Wikipedia articles of a day,
enriches them with page summaries and caches the result.

Example usage:
  wikitrends featured                      # today's list in the default language
  wikitrends featured --date 2024-04-02 --lang de
  wikitrends search "solar eclipse" --lang pt
  wikitrends warm                          # pre-fill the cache for every language
  wikitrends cache clear
  wikitrends serve                         # run the warmer and metrics endpoint`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "YAML config file (default $WIKITRENDS_CONFIG)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newFeaturedCommand(opts),
		newSearchCommand(opts),
		newWarmCommand(opts),
		newCacheCommand(opts),
		newServeCommand(opts),
		newVersionCommand(),
	)
	return root
}

func (o *rootOptions) init(cmd *cobra.Command) error {
	if cmd.Annotations["skipApp"] == "true" {
		return nil
	}

	cfg := config.Load()
	if o.cfgFile != "" {
		cfg = config.LoadFile(o.cfgFile)
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}

	logger := logging.NewWithFormat(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	o.app = o.factory(cfg, logger)
	if o.app == nil {
		return fmt.Errorf("application could not be built")
	}
	return nil
}

// withApp wraps a command body so the application is closed whether or not
// the body fails. Cobra skips post-run hooks after a RunE error.
func (o *rootOptions) withApp(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			err = errors.Join(err, o.close())
		}()
		return fn(cmd, args)
	}
}

func (o *rootOptions) close() error {
	if o.app == nil {
		return nil
	}
	err := o.app.Close()
	o.app = nil
	return err
}
