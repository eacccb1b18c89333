package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// buildVersion is overwritten at release build time via -ldflags.
var buildVersion = "dev"

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the docserver version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("docserver " + buildVersion)
			return nil
		},
	}
}
