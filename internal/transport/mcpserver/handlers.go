package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/nota-kb/docserver/internal/tools"
	"github.com/nota-kb/docserver/internal/workflow"
)

// warnUnknownWorkflow logs (never fails) when a task names a workflow the
// loaded prompt directory doesn't have: a missing prompt is a session-layer
// concern, not a tool error.
func warnUnknownWorkflow(dir *workflow.Directory, logger *zap.Logger, info tools.TaskInfo) {
	if dir == nil || info.Workflow == "" {
		return
	}
	if _, ok := dir.Get(info.Workflow); !ok {
		logger.Warn("task names a workflow prompt that isn't loaded",
			zap.String("document", info.Document), zap.String("task", info.Slug), zap.String("workflow", info.Workflow))
	}
}

// jsonResult renders v as the tool's sole text content, or an MCP-level
// error result if it can't be marshaled — a handler's own business-logic
// errors are reported as ErrorResponse JSON, not as MCP errors, so the
// calling agent can branch on the typed code.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshaling result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func errResult(e *tools.ErrorResponse) (*mcp.CallToolResult, error) {
	return jsonResult(e)
}

// objectArray decodes an "operations"-shaped array argument into concrete
// structs via a JSON round-trip — mcp-go's typed array helpers cover only
// scalar element types, so a batch of operation objects is decoded this
// way instead.
func objectArray[T any](request mcp.CallToolRequest, name string) ([]T, error) {
	raw, ok := request.GetArguments()[name]
	if !ok {
		return nil, fmt.Errorf("%s is required", name)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

func handleCreateDocument(r *tools.Registry, logger *zap.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := request.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		title, err := request.RequireString("title")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		result, errResp := r.CreateDocument(tools.CreateDocumentParams{
			Path:      path,
			Title:     title,
			Overview:  request.GetString("overview", ""),
			Template:  request.GetString("template", "blank"),
			Overwrite: request.GetBool("overwrite", false),
		})
		if errResp != nil {
			logger.Warn("create_document failed", zap.String("path", path), zap.String("code", errResp.Code))
			return errResult(errResp)
		}
		return jsonResult(result)
	}
}

func handleBrowseDocuments(r *tools.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		summaries, errResp := r.BrowseDocuments(request.GetString("namespace", ""))
		if errResp != nil {
			return errResult(errResp)
		}
		return jsonResult(summaries)
	}
}

func handleSearchDocuments(r *tools.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		results, errResp := r.SearchDocuments(tools.SearchParams{
			Query:        query,
			Regex:        request.GetBool("regex", false),
			ContextLines: request.GetInt("context_lines", 0),
			Namespace:    request.GetString("namespace", ""),
		})
		if errResp != nil {
			return errResult(errResp)
		}
		return jsonResult(results)
	}
}

func handleSection(r *tools.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ops, err := objectArray[tools.SectionOp](request, "operations")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		results := r.Section(request.GetString("default_document", ""), ops)
		return jsonResult(results)
	}
}

func handleTask(r *tools.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ops, err := objectArray[tools.TaskOp](request, "operations")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		results := r.Task(request.GetString("default_document", ""), ops)
		return jsonResult(results)
	}
}

func handleStartTask(r *tools.Registry, dir *workflow.Directory, logger *zap.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		document, err := request.RequireString("document")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		task, err := request.RequireString("task")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		result, errResp := r.StartTask(ctx, tools.StartTaskParams{
			Document: document, Task: task,
			FindNext: request.GetBool("find_next", false), LoadReferences: request.GetBool("load_references", false),
		})
		if errResp != nil {
			return errResult(errResp)
		}
		warnUnknownWorkflow(dir, logger, result.Task)
		return jsonResult(result)
	}
}

func handleCompleteTask(r *tools.Registry, dir *workflow.Directory, logger *zap.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		document, err := request.RequireString("document")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		task, err := request.RequireString("task")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		result, errResp := r.CompleteTask(ctx, tools.CompleteTaskParams{
			Document: document, Task: task, Note: request.GetString("note", ""),
			FindNext: request.GetBool("find_next", false), LoadReferences: request.GetBool("load_references", false),
		})
		if errResp != nil {
			return errResult(errResp)
		}
		if result.NextPending != nil {
			warnUnknownWorkflow(dir, logger, *result.NextPending)
		}
		return jsonResult(result)
	}
}

func handleViewDocument(r *tools.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := request.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		result, errResp := r.ViewDocument(path)
		if errResp != nil {
			return errResult(errResp)
		}
		return jsonResult(result)
	}
}

func handleViewSection(r *tools.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		document, err := request.RequireString("document")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		section, err := request.RequireString("section")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		result, errResp := r.ViewSection(document, section)
		if errResp != nil {
			return errResult(errResp)
		}
		return jsonResult(result)
	}
}

func handleViewTask(r *tools.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		document, err := request.RequireString("document")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		task, err := request.RequireString("task")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		result, errResp := r.ViewTask(document, task)
		if errResp != nil {
			return errResult(errResp)
		}
		return jsonResult(result)
	}
}

func handleEditDocument(r *tools.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := request.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		params := tools.EditDocumentParams{Path: path}
		if title := request.GetString("title", ""); title != "" {
			params.Title = &title
		}
		if overview := request.GetString("overview", ""); overview != "" {
			params.Overview = &overview
		}
		result, errResp := r.EditDocument(params)
		if errResp != nil {
			return errResult(errResp)
		}
		return jsonResult(result)
	}
}

func handleDeleteDocument(r *tools.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := request.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		result, errResp := r.DeleteDocument(path, request.GetBool("archive", true))
		if errResp != nil {
			return errResult(errResp)
		}
		return jsonResult(result)
	}
}

func handleMove(r *tools.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fromDoc, err := request.RequireString("from_document")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		fromSec, err := request.RequireString("from_section")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		toDoc, err := request.RequireString("to_document")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		toSec, err := request.RequireString("to_section")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		result, errResp := r.Move(tools.MoveSectionParams{
			FromDocument: fromDoc, FromSection: fromSec, ToDocument: toDoc, ToSection: toSec,
			Position: request.GetString("position", "after"),
		})
		if errResp != nil {
			return errResult(errResp)
		}
		return jsonResult(result)
	}
}

func handleMoveDocument(r *tools.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		from, err := request.RequireString("from")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		to, err := request.RequireString("to")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		result, errResp := r.MoveDocument(from, to)
		if errResp != nil {
			return errResult(errResp)
		}
		return jsonResult(result)
	}
}
