package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nota-kb/docserver/internal/transport/mcpserver"
)

// NewServeCmd creates the serve command: the MCP stdio transport every
// connected agent actually talks to.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the corpus over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ConfigFromContext(cmd.Context())
			r, err := buildRegistry(cfg)
			if err != nil {
				return err
			}
			c, err := loadConfig(cfg.ConfigPath)
			if err != nil {
				return err
			}
			dir, err := loadWorkflows(c.DocumentsRoot, r.Logger)
			if err != nil {
				r.Logger.Warn("loading workflow prompt directory failed, continuing without it", zap.Error(err))
				dir = nil
			}
			s := mcpserver.New("docserver", buildVersion, r, dir, r.Logger)
			if err := mcpserver.Serve(s); err != nil {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		},
	}
}
