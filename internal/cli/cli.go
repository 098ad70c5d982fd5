// Package cli implements the figcomp command-line interface.
//
// The root command composes a figure:
//
//	figcomp figure.yaml figure.png
//
// Subcommands inspect a figure without rendering it:
//   - layout: export the solved geometry as JSON
//   - tree: draw the layout tree as DOT or SVG
//   - inspect: browse the leaves in a terminal table
//   - cache: manage the render cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// attached to the command context and handed to the pipeline runner.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/figcomp/pkg/buildinfo"
	"github.com/matzehuels/figcomp/pkg/cache"
	"github.com/matzehuels/figcomp/pkg/pipeline"
	"github.com/matzehuels/figcomp/pkg/settings"
)

// appName is the application name used for directories and display.
const appName = "figcomp"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	settingsPath string
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := c.renderCommand()
	root.SetVersionTemplate(buildinfo.Template())
	root.Version = buildinfo.Version
	root.SilenceUsage = true
	root.SilenceErrors = true

	root.PersistentFlags().StringVar(&c.settingsPath, "settings", "", "settings file (default: $XDG_CONFIG_HOME/figcomp/config.toml)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		c.Logger.Debug("starting", "version", buildinfo.Version, "commit", buildinfo.Commit)
		return nil
	}

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadSettings reads the settings file named by --settings, or the default one.
func (c *CLI) loadSettings() (settings.Settings, error) {
	s, err := settings.Load(c.settingsPath)
	if err != nil {
		return s, err
	}
	if s.Path != "" {
		c.Logger.Debug("loaded settings", "file", s.Path)
	}
	return s, nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(s settings.Settings, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(s, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ch, c.Logger), nil
}

func (c *CLI) newCache(s settings.Settings, noCache bool) (cache.Cache, error) {
	if noCache || !s.CacheEnabled() {
		return cache.NewNullCache(), nil
	}
	dir, err := s.CacheDir()
	if err != nil {
		c.Logger.Debug("no cache directory, caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}
