package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nota-kb/docserver/internal/tools"
)

// NewSearchCmd creates the search command: search_documents from a
// terminal.
func NewSearchCmd() *cobra.Command {
	var useRegex bool
	var contextLines int
	var filter string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the corpus for a term or regex",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ConfigFromContext(cmd.Context())
			r, err := buildRegistry(cfg)
			if err != nil {
				return err
			}
			results, errResp := r.SearchDocuments(tools.SearchParams{
				Query: args[0], Regex: useRegex, ContextLines: contextLines, Namespace: cfg.Namespace, Filter: filter,
			})
			if errResp != nil {
				return fmt.Errorf("%s: %s", errResp.Code, errResp.Message)
			}
			if len(results) == 0 {
				fmt.Println("No matches")
				return nil
			}
			for _, res := range results {
				color.New(color.FgCyan, color.Bold).Printf("%s", res.Path)
				fmt.Printf("  (score %.1f, %d matches)\n", res.Score, len(res.Matches))
				for _, m := range res.Matches {
					fmt.Printf("  %d: %s\n", m.LineNumber, m.Line)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&useRegex, "regex", false, "Treat query as a regular expression")
	cmd.Flags().IntVar(&contextLines, "context", 0, "Lines of context around each match")
	cmd.Flags().StringVar(&filter, "filter", "", "Expr-lang filter over path/namespace/title/headings")
	return cmd
}
