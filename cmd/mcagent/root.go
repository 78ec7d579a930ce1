package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/HendryAvila/mcagent/internal/behavior"
	"github.com/HendryAvila/mcagent/internal/config"
	"github.com/HendryAvila/mcagent/internal/logging"
	"github.com/HendryAvila/mcagent/internal/server"
)

// app carries state shared by every subcommand.
type app struct {
	v       *viper.Viper
	cfgFile string
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:   "mcagent",
		Short: "Behavior mining MCP server for MineContext",
		Long: `mcagent reads activity records from a local MineContext instance, clusters
them into recurring behaviors and exports evidence-backed PRD bundles that a
coding agent can turn into automation.

Configuration is read from flags, MCAGENT_* environment variables (a .env
file is honoured), an optional mcagent.{yaml,json,toml} file and defaults.`,
		Version:       server.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return config.LoadEnv()
		},
	}
	root.SetVersionTemplate("mcagent v{{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: mcagent.* in . or the data dir)")
	pf.String("data-dir", "", "directory holding the activity cache")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("base-url", "", "MineContext base URL")
	pf.String("samples", "", "sample activities file used when MineContext is unreachable")
	pf.Bool("no-cache", false, "disable the activity cache")
	for key, name := range map[string]string{
		"data_dir":             "data-dir",
		"log_level":            "log-level",
		"minecontext.base_url": "base-url",
		"samples_path":         "samples",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(name))
	}

	root.AddCommand(
		a.serveCmd(),
		a.httpCmd(),
		a.mineCmd(),
		a.evidenceCmd(),
		a.exportCmd(),
		a.cacheCmd(),
		a.inspectCmd(),
		versionCmd(),
	)
	return root
}

// load resolves configuration and a logger writing to the command's stderr.
func (a *app) load(cmd *cobra.Command) (*config.Config, *log.Logger, error) {
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		a.v.Set("cache.enabled", false)
	}
	cfg, err := config.FromViper(a.v, a.cfgFile)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Writer: cmd.ErrOrStderr()})
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// service builds the behavior service for one-shot commands.
func (a *app) service(cmd *cobra.Command) (*behavior.Service, func(), error) {
	cfg, logger, err := a.load(cmd)
	if err != nil {
		return nil, nil, err
	}
	return server.NewService(cfg, logger)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the mcagent version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mcagent v%s\n", server.Version)
		},
	}
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// commandContext returns the command's context, or Background when run
// outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
