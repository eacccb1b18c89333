package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/nota-kb/docserver/internal/tools"
	"github.com/nota-kb/docserver/internal/workflow"
)

// Tools returns every tool definition docserver registers, in a stable
// order — also used by the `tool-schema` CLI command to print the schema
// without starting a server.
func Tools() []mcp.Tool {
	return []mcp.Tool{
		createCreateDocumentTool(),
		createBrowseDocumentsTool(),
		createSearchDocumentsTool(),
		createSectionTool(),
		createTaskTool(),
		createStartTaskTool(),
		createCompleteTaskTool(),
		createViewDocumentTool(),
		createViewSectionTool(),
		createViewTaskTool(),
		createEditDocumentTool(),
		createDeleteDocumentTool(),
		createMoveTool(),
		createMoveDocumentTool(),
	}
}

// New builds the MCP server with every tool wired to r. dir may be nil —
// start_task/complete_task simply skip the unknown-workflow warning.
func New(name, version string, r *tools.Registry, dir *workflow.Directory, logger *zap.Logger) *server.MCPServer {
	s := server.NewMCPServer(name, version, server.WithToolCapabilities(true))

	s.AddTool(createCreateDocumentTool(), handleCreateDocument(r, logger))
	s.AddTool(createBrowseDocumentsTool(), handleBrowseDocuments(r))
	s.AddTool(createSearchDocumentsTool(), handleSearchDocuments(r))
	s.AddTool(createSectionTool(), handleSection(r))
	s.AddTool(createTaskTool(), handleTask(r))
	s.AddTool(createStartTaskTool(), handleStartTask(r, dir, logger))
	s.AddTool(createCompleteTaskTool(), handleCompleteTask(r, dir, logger))
	s.AddTool(createViewDocumentTool(), handleViewDocument(r))
	s.AddTool(createViewSectionTool(), handleViewSection(r))
	s.AddTool(createViewTaskTool(), handleViewTask(r))
	s.AddTool(createEditDocumentTool(), handleEditDocument(r))
	s.AddTool(createDeleteDocumentTool(), handleDeleteDocument(r))
	s.AddTool(createMoveTool(), handleMove(r))
	s.AddTool(createMoveDocumentTool(), handleMoveDocument(r))

	return s
}

// Serve blocks, serving s over stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
