// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package main implements the kairos-weaviate CLI: it serves the plugin
// actions over MCP and exposes the collection admin operations.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jllopis/kairos-weaviate/pkg/config"
	"github.com/jllopis/kairos-weaviate/pkg/plugin"
	"github.com/jllopis/kairos-weaviate/pkg/telemetry"
)

const (
	appName = "kairos-weaviate"
	version = "dev"
)

type globalFlags struct {
	ConfigPath string
	Profile    string
	Sets       []string
	JSON       bool
}

// app carries what every subcommand needs once the configuration is loaded.
type app struct {
	flags    globalFlags
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *telemetry.PipelineMetrics
	shutdown telemetry.ShutdownFunc
	stdout   io.Writer
	stderr   io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if cerr := a.close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		printError(stderr, err, a.flags.JSON)
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Weaviate vector store plugin for Kairos",
		Long:          rootLongDesc,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context())
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.flags.ConfigPath, "config", "", "Path to the YAML configuration file")
	flags.StringVar(&a.flags.Profile, "profile", "", "Configuration profile overlay (config.<profile>.yaml)")
	flags.StringArrayVar(&a.flags.Sets, "set", nil, "Override a configuration key (key=value, repeatable)")
	flags.BoolVar(&a.flags.JSON, "json", false, "JSON output")

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newIndexCmd(a))
	cmd.AddCommand(newRetrieveCmd(a))
	cmd.AddCommand(newStatsCmd(a))
	cmd.AddCommand(newDeleteCmd(a))
	cmd.AddCommand(newDropCmd(a))
	cmd.AddCommand(newHealthCmd(a))
	cmd.AddCommand(newAdaptersCmd(a))
	return cmd
}

const rootLongDesc = `kairos-weaviate stores and retrieves embedding vectors for the Kairos
agent framework. Each configured collection gets an indexer and a retriever.

Configuration is read from --config, then the profile overlay, then
KAIROS_WEAVIATE_* environment variables (use __ between nesting levels,
e.g. KAIROS_WEAVIATE_CLIENT_PARAMS__API_KEY), then --set overrides.`

func (a *app) init(ctx context.Context) error {
	cfg, err := config.LoadWithOverrides(a.flags.ConfigPath, a.flags.Profile, a.flags.Sets)
	if err != nil {
		return err
	}
	a.cfg = cfg
	// stdout may carry protocol traffic, so logs always go to stderr.
	a.logger = telemetry.ConfigureSlog(a.stderr, cfg.Log.Level, cfg.Log.Format)

	shutdown, err := telemetry.InitWithConfig(appName, version, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	a.shutdown = shutdown
	if a.metrics, err = telemetry.NewPipelineMetrics(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}

func (a *app) close(ctx context.Context) error {
	if a.shutdown == nil {
		return nil
	}
	return a.shutdown(context.WithoutCancel(ctx))
}

// openPlugin builds the plugin from the loaded configuration.
func (a *app) openPlugin() (*plugin.Plugin, error) {
	pc, err := a.cfg.PluginConfig(a.logger, a.metrics)
	if err != nil {
		return nil, err
	}
	return plugin.New(pc)
}

// collection resolves a configured collection or fails with a hint.
func (a *app) collection(p *plugin.Plugin, name string) error {
	if _, ok := p.Indexer(name); ok {
		return nil
	}
	return unknownCollectionError(name, p.Collections())
}
