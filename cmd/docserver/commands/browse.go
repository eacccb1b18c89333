package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewBrowseCmd creates the browse command: browse_documents from a
// terminal, for operating on a corpus without a connected agent.
func NewBrowseCmd() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "List documents in the corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ConfigFromContext(cmd.Context())
			r, err := buildRegistry(cfg)
			if err != nil {
				return err
			}
			summaries, errResp := r.BrowseDocumentsFiltered(cfg.Namespace, filter)
			if errResp != nil {
				return fmt.Errorf("%s: %s", errResp.Code, errResp.Message)
			}
			if len(summaries) == 0 {
				fmt.Println("No documents found")
				return nil
			}
			for _, s := range summaries {
				color.New(color.FgCyan).Printf("%-40s", s.Path)
				fmt.Printf("  %-20s  %s (%d headings, %s)\n", s.Namespace, s.Title, s.Headings, s.SizeHuman)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", `Expr-lang filter, e.g. "headings > 5 && namespace == \"guides\""`)
	return cmd
}
