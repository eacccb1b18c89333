// Package mcpserver exposes the 14 tool operations in internal/tools over
// an MCP stdio transport built on mark3labs/mcp-go.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func createCreateDocumentTool() mcp.Tool {
	return mcp.NewTool("create_document",
		mcp.WithDescription("Create a new document from a named template"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Logical document path, e.g. /guides/setup.md")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Document title")),
		mcp.WithString("overview", mcp.Description("Overview section content")),
		mcp.WithString("template", mcp.Description("Template name: blank, guide, reference, task-list")),
		mcp.WithBoolean("overwrite", mcp.Description("Overwrite an existing document at path")),
	)
}

func createBrowseDocumentsTool() mcp.Tool {
	return mcp.NewTool("browse_documents",
		mcp.WithDescription("List documents in the corpus, optionally restricted to a namespace"),
		mcp.WithString("namespace", mcp.Description("Restrict to this namespace; empty lists the whole corpus")),
	)
}

func createSearchDocumentsTool() mcp.Tool {
	return mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search across the corpus, case-insensitive substring or regex"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search term or, with regex=true, a regular expression")),
		mcp.WithBoolean("regex", mcp.Description("Treat query as a regular expression")),
		mcp.WithNumber("context_lines", mcp.Description("Lines of context to include around each match")),
		mcp.WithString("namespace", mcp.Description("Restrict to this namespace")),
	)
}

func createSectionTool() mcp.Tool {
	return mcp.NewTool("section",
		mcp.WithDescription("Apply a batch of section edits (replace, append, prepend, insert_before, insert_after, append_child, remove)"),
		mcp.WithString("default_document", mcp.Description("Document path used for any operation that omits its own document")),
		mcp.WithArray("operations", mcp.Required(), mcp.Description(
			"Array of {document?, section, operation, content?, title?} objects, applied in order")),
	)
}

func createTaskTool() mcp.Tool {
	return mcp.NewTool("task",
		mcp.WithDescription("Apply a batch of task operations: create, edit, list"),
		mcp.WithString("default_document", mcp.Description("Document path used for any operation that omits its own document")),
		mcp.WithArray("operations", mcp.Required(), mcp.Description(
			"Array of {document?, task?, operation, title?, content?, status?} objects, applied in order")),
	)
}

func createStartTaskTool() mcp.Tool {
	return mcp.NewTool("start_task",
		mcp.WithDescription("Read a task and, optionally, locate the next pending task and/or load its reference tree"),
		mcp.WithString("document", mcp.Required(), mcp.Description("Document containing the task")),
		mcp.WithString("task", mcp.Required(), mcp.Description("Task slug or hierarchical section path")),
		mcp.WithBoolean("find_next", mcp.Description("Also locate the next pending task in the same document")),
		mcp.WithBoolean("load_references", mcp.Description("Also load the task's @-reference tree")),
	)
}

func createCompleteTaskTool() mcp.Tool {
	return mcp.NewTool("complete_task",
		mcp.WithDescription("Mark a task completed, optionally with a timestamped note, then behave like start_task"),
		mcp.WithString("document", mcp.Required(), mcp.Description("Document containing the task")),
		mcp.WithString("task", mcp.Required(), mcp.Description("Task slug or hierarchical section path")),
		mcp.WithString("note", mcp.Description("Completion note, appended with a timestamp")),
		mcp.WithBoolean("find_next", mcp.Description("Also locate the next pending task in the same document")),
		mcp.WithBoolean("load_references", mcp.Description("Also load the completed task's @-reference tree")),
	)
}

func createViewDocumentTool() mcp.Tool {
	return mcp.NewTool("view_document",
		mcp.WithDescription("Return a document's full content plus heading/task/link/word statistics"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Logical document path")),
	)
}

func createViewSectionTool() mcp.Tool {
	return mcp.NewTool("view_section",
		mcp.WithDescription("Return one section's content plus the @-reference tokens it contains"),
		mcp.WithString("document", mcp.Required(), mcp.Description("Document path")),
		mcp.WithString("section", mcp.Required(), mcp.Description("Section slug or hierarchical path")),
	)
}

func createViewTaskTool() mcp.Tool {
	return mcp.NewTool("view_task",
		mcp.WithDescription("Return one task's metadata, status, and body"),
		mcp.WithString("document", mcp.Required(), mcp.Description("Document path")),
		mcp.WithString("task", mcp.Required(), mcp.Description("Task slug or hierarchical section path")),
	)
}

func createEditDocumentTool() mcp.Tool {
	return mcp.NewTool("edit_document",
		mcp.WithDescription("Rewrite a document's title and/or overview (not section content)"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Logical document path")),
		mcp.WithString("title", mcp.Description("New title; omit to leave unchanged")),
		mcp.WithString("overview", mcp.Description("New overview content; omit to leave unchanged")),
	)
}

func createDeleteDocumentTool() mcp.Tool {
	return mcp.NewTool("delete_document",
		mcp.WithDescription("Delete a document, archiving it first unless archive is set to false"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Logical document path")),
		mcp.WithBoolean("archive", mcp.Description("Archive before deleting (default true)")),
	)
}

func createMoveTool() mcp.Tool {
	return mcp.NewTool("move",
		mcp.WithDescription("Relocate a section from one document to a position relative to a section in another (or the same) document"),
		mcp.WithString("from_document", mcp.Required(), mcp.Description("Source document path")),
		mcp.WithString("from_section", mcp.Required(), mcp.Description("Source section slug or hierarchical path")),
		mcp.WithString("to_document", mcp.Required(), mcp.Description("Destination document path")),
		mcp.WithString("to_section", mcp.Required(), mcp.Description("Destination section slug or hierarchical path")),
		mcp.WithString("position", mcp.Description("before, after, or append_child (default after)")),
	)
}

func createMoveDocumentTool() mcp.Tool {
	return mcp.NewTool("move_document",
		mcp.WithDescription("Rename or relocate a whole document"),
		mcp.WithString("from", mcp.Required(), mcp.Description("Current logical document path")),
		mcp.WithString("to", mcp.Required(), mcp.Description("New logical document path")),
	)
}
