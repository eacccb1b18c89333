package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nota-kb/docserver/internal/config"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	var documentsRoot string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default docserver config file",
		Long:  `Creates a docserver.yml with a commented default configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ConfigFromContext(cmd.Context())
			root := documentsRoot
			if root == "" {
				root = abs(".")
			}
			if err := config.WriteDefault(cfg.ConfigPath, root); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}
			fmt.Printf("Created %s\n", cfg.ConfigPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&documentsRoot, "documents-root", "", "Absolute directory documents resolve against (defaults to the current directory)")
	return cmd
}
