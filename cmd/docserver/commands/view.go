package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewViewCmd creates the view command: view_document from a terminal.
func NewViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view <document>",
		Short: "Print a document's content and statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ConfigFromContext(cmd.Context())
			r, err := buildRegistry(cfg)
			if err != nil {
				return err
			}
			result, errResp := r.ViewDocument(args[0])
			if errResp != nil {
				return fmt.Errorf("%s: %s", errResp.Code, errResp.Message)
			}
			fmt.Println(result.Content)
			color.New(color.Faint).Printf("\n--- %d headings, %d words, %d links, %s, tasks by status: %v\n",
				result.Stats.HeadingCount, result.Stats.WordCount, result.Stats.LinkCount, result.Stats.SizeHuman, result.Stats.TaskCountsByStat)
			return nil
		},
	}
}
