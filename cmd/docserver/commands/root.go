// Package commands wires docserver's cobra CLI: a shared Registry built
// from on-disk configuration, plus the browse/search/view/tool-schema/
// init/serve/version subcommands operating on it.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nota-kb/docserver/internal/address"
	"github.com/nota-kb/docserver/internal/applog"
	"github.com/nota-kb/docserver/internal/cache"
	"github.com/nota-kb/docserver/internal/config"
	"github.com/nota-kb/docserver/internal/docmanager"
	"github.com/nota-kb/docserver/internal/fsio"
	"github.com/nota-kb/docserver/internal/reference"
	"github.com/nota-kb/docserver/internal/tools"
	"github.com/nota-kb/docserver/internal/workflow"
)

// configKey is the context key the root command's PersistentPreRun stashes
// the loaded CLI config under.
type configKey struct{}

// CLIConfig holds the flags every subcommand reads from the command
// context.
type CLIConfig struct {
	ConfigPath string
	Namespace  string
}

// ConfigFromContext retrieves the CLI config stashed on ctx.
func ConfigFromContext(ctx context.Context) *CLIConfig {
	if cfg, ok := ctx.Value(configKey{}).(*CLIConfig); ok {
		return cfg
	}
	return &CLIConfig{}
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cfg := &CLIConfig{}

	cmd := &cobra.Command{
		Use:   "docserver",
		Short: "A structured Markdown knowledge-base server for AI collaborators",
		Long: `docserver serves a corpus of structured Markdown documents over MCP and
a local CLI: addressable documents, sections, and tasks; cross-document
@-references resolved into bounded reference trees; and a workflow prompt
directory loaded at startup.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			cmd.SetContext(ctx)
		},
	}

	cmd.PersistentFlags().StringVar(&cfg.ConfigPath, "config", "docserver.yml", "Path to the docserver config file")
	cmd.PersistentFlags().StringVar(&cfg.Namespace, "namespace", "", "Restrict browse/search to this namespace")

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())
	cmd.AddCommand(NewBrowseCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewViewCmd())
	cmd.AddCommand(NewToolSchemaCmd())
	cmd.AddCommand(NewServeCmd())

	return cmd
}

// Execute runs the root command, printing errors to stderr and exiting 1.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRegistry loads the config file at cfg.ConfigPath (docserver.yml by
// default; its defaults if absent), then wires
// fsio, cache, docmanager, addressing, and the reference loader into a
// tools.Registry — the same dependency graph the MCP transport and every
// CLI subcommand share.
func buildRegistry(cfg *CLIConfig) (*tools.Registry, error) {
	c, err := loadConfig(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}

	logger, err := applog.New(applog.Level(c.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	return wireRegistry(c, logger)
}

func loadConfig(path string) (config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cwd, err := os.Getwd()
			if err != nil {
				return config.Config{}, err
			}
			return config.Default(cwd), nil
		}
		return config.Config{}, err
	}
	return config.Load(path)
}

func wireRegistry(c config.Config, logger *zap.Logger) (*tools.Registry, error) {
	afs := afero.NewOsFs()
	io := fsio.New(afs, c.DocumentsRoot, c.MaxFileBytes)

	ch, err := cache.New(io, logger, c.MaxCachedDocuments, c.MaxCachedHeadings)
	if err != nil {
		return nil, fmt.Errorf("building document cache: %w", err)
	}
	manager := docmanager.New(io, ch, logger)

	addrs, err := address.NewCache()
	if err != nil {
		return nil, fmt.Errorf("building address cache: %w", err)
	}

	budget := time.Duration(c.ReferenceBudgetSeconds) * time.Second
	loader := reference.NewLoader(manager.ForReferenceLoader(), c.ReferenceDepth, c.MaxReferenceNodes, budget)

	return tools.New(manager, addrs, loader, logger), nil
}

// loadWorkflows loads the prompt directory from "workflows" and "guides"
// beneath documentsRoot, logging (never failing the process) on a missing
// or partially malformed directory.
func loadWorkflows(documentsRoot string, logger *zap.Logger) (*workflow.Directory, error) {
	afs := afero.NewOsFs()
	return workflow.Load(afs, documentsRoot, []string{"workflows", "guides"}, logger)
}

func abs(p string) string {
	a, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return a
}
