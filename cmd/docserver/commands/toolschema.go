package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nota-kb/docserver/internal/toolschema"
	"github.com/nota-kb/docserver/internal/transport/mcpserver"
)

// NewToolSchemaCmd creates the tool-schema command: prints every MCP tool
// definition as JSON (the default) or, with --json-schema, a JSON Schema
// document describing the tool parameter structs.
func NewToolSchemaCmd() *cobra.Command {
	var asJSONSchema bool

	cmd := &cobra.Command{
		Use:   "tool-schema",
		Short: "Print the tool schemas",
		RunE: func(cmd *cobra.Command, args []string) error {
			var v any = mcpserver.Tools()
			if asJSONSchema {
				v = toolschema.Generate()
			}
			data, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling tool schema: %w", err)
			}
			fmt.Println(string(data))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSONSchema, "json-schema", false, "Print a JSON Schema document for the tool parameter structs instead of the MCP tool definitions")
	return cmd
}
