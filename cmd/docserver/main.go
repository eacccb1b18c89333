// Command docserver serves a corpus of structured Markdown documents over
// MCP stdio, with a local CLI for operating on the corpus directly.
package main

import (
	"github.com/nota-kb/docserver/cmd/docserver/commands"
)

func main() {
	commands.Execute()
}
