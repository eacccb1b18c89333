package tools

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/nota-kb/docserver/internal/apperrors"
	"github.com/nota-kb/docserver/internal/markdown"
	"github.com/nota-kb/docserver/internal/reference"
)

// TaskInfo is the metadata view_task, the task batch's list operation, and
// start_task/complete_task all share: a task heading plus its structurally
// derived status and workflow pointer.
type TaskInfo struct {
	Document     string              `json:"document"`
	Slug         string              `json:"slug"`
	Title        string              `json:"title"`
	Status       markdown.TaskStatus `json:"status"`
	Workflow     string              `json:"workflow,omitempty"`
	IsMainWorkflow bool              `json:"is_main_workflow,omitempty"`
	Body         string              `json:"body"`
}

// TaskOp is one entry in a task batch: create, edit, or list.
type TaskOp struct {
	Document  string
	Task      string // required for edit; ignored for create/list
	Operation string // create, edit, list
	Title     string // for create: the new task's title
	Content   string // for create/edit: the task body
	Status    string // for edit: new status value, "" leaves it unchanged
}

// TaskOpResult is one batch entry's outcome.
type TaskOpResult struct {
	Document string         `json:"document"`
	Task     *TaskInfo      `json:"task,omitempty"`
	Tasks    []TaskInfo     `json:"tasks,omitempty"`
	NewSlug  string         `json:"new_slug,omitempty"`
	Error    *ErrorResponse `json:"error,omitempty"`
}

// Task runs a batch of task operations sequentially, identical in batching
// model to Section: partial failure reports per-operation status without
// rolling back prior successes.
func (r *Registry) Task(defaultDocument string, ops []TaskOp) []TaskOpResult {
	results := make([]TaskOpResult, len(ops))
	for i, op := range ops {
		results[i] = r.runTaskOp(defaultDocument, op)
	}
	return results
}

func (r *Registry) runTaskOp(defaultDocument string, op TaskOp) TaskOpResult {
	docRaw := op.Document
	if docRaw == "" {
		docRaw = defaultDocument
	}
	docAddr, err := r.Addresses.Document(docRaw)
	if err != nil {
		e := asErrorResponse(err)
		return TaskOpResult{Document: docRaw, Error: &e}
	}

	switch op.Operation {
	case "create":
		return r.createTask(docAddr.Path, op)
	case "edit":
		return r.editTask(docAddr.Path, op)
	case "list":
		return r.listTasks(docAddr.Path)
	default:
		e := asErrorResponse(apperrors.New(apperrors.CodeUnknownOperation, fmt.Sprintf("unknown task operation %q", op.Operation)))
		return TaskOpResult{Document: docAddr.Path, Error: &e}
	}
}

// createTask inserts a new task heading as the last child of the
// document's "Tasks" heading.
func (r *Registry) createTask(docPath string, op TaskOp) TaskOpResult {
	result, err := r.Manager.EditSection(docPath, "tasks", "append_child", op.Content, op.Title)
	if err != nil {
		e := asErrorResponse(err)
		return TaskOpResult{Document: docPath, Error: &e}
	}
	return TaskOpResult{Document: docPath, NewSlug: result.NewSlug}
}

// editTask rewrites a task's body content and/or status line.
func (r *Registry) editTask(docPath string, op TaskOp) TaskOpResult {
	taskAddr, err := r.Addresses.Task(op.Task, docPath)
	if err != nil {
		e := asErrorResponse(err)
		return TaskOpResult{Document: docPath, Error: &e}
	}

	newBody := op.Content
	if op.Status != "" {
		current, cerr := r.taskInfo(docPath, taskAddr.Section.Slug)
		if cerr != nil {
			e := asErrorResponse(cerr)
			return TaskOpResult{Document: docPath, Error: &e}
		}
		base := op.Content
		if base == "" {
			base = current.Body
		}
		newBody = setStatusLine(base, op.Status)
	}
	if newBody == "" {
		e := asErrorResponse(apperrors.New(apperrors.CodeMissingParameter, "edit requires content and/or status"))
		return TaskOpResult{Document: docPath, Error: &e}
	}

	if _, err := r.Manager.EditSection(docPath, taskAddr.Section.Slug, "replace", newBody, ""); err != nil {
		e := asErrorResponse(err)
		return TaskOpResult{Document: docPath, Error: &e}
	}

	info, err := r.taskInfo(docPath, taskAddr.Section.Slug)
	if err != nil {
		e := asErrorResponse(err)
		return TaskOpResult{Document: docPath, Error: &e}
	}
	return TaskOpResult{Document: docPath, Task: &info}
}

func (r *Registry) listTasks(docPath string) TaskOpResult {
	doc, err := r.Manager.GetDocument(docPath)
	if err != nil {
		e := asErrorResponse(err)
		return TaskOpResult{Document: docPath, Error: &e}
	}
	if doc == nil {
		e := asErrorResponse(notFoundErr(docPath))
		return TaskOpResult{Document: docPath, Error: &e}
	}

	var tasks []TaskInfo
	for i, h := range doc.Headings {
		if !markdown.IsTask(doc.Headings, i) {
			continue
		}
		body := h.Body(doc.Content)
		workflow, isMain, _ := markdown.ParseWorkflowRef(body)
		tasks = append(tasks, TaskInfo{
			Document: docPath, Slug: h.PrimarySlug, Title: h.Title,
			Status: markdown.ParseTaskStatus(body), Workflow: workflow, IsMainWorkflow: isMain,
			Body: string(body),
		})
	}
	return TaskOpResult{Document: docPath, Tasks: tasks}
}

var statusLineReplacePattern = regexp.MustCompile(`(?im)^\s*[-*]?\s*\*{0,2}Status\*{0,2}:\s*[a-zA-Z_]+\s*$`)

// setStatusLine replaces an existing "Status:" line in body, or appends one
// if none exists.
func setStatusLine(body, status string) string {
	replacement := fmt.Sprintf("Status: %s", status)
	if statusLineReplacePattern.MatchString(body) {
		return statusLineReplacePattern.ReplaceAllString(body, replacement)
	}
	if body != "" {
		return body + "\n\n" + replacement + "\n"
	}
	return replacement + "\n"
}

// taskInfo loads path's single task addressed by slug.
func (r *Registry) taskInfo(docPath, slug string) (TaskInfo, error) {
	doc, err := r.Manager.GetDocument(docPath)
	if err != nil {
		return TaskInfo{}, err
	}
	if doc == nil {
		return TaskInfo{}, notFoundErr(docPath)
	}
	parsed, err := markdown.Parse(docPath, doc.Content)
	if err != nil {
		return TaskInfo{}, err
	}
	h, err := parsed.Resolve(slug)
	if err != nil {
		return TaskInfo{}, err
	}
	body := h.Body(doc.Content)
	workflow, isMain, _ := markdown.ParseWorkflowRef(body)
	return TaskInfo{
		Document: docPath, Slug: h.PrimarySlug, Title: h.Title,
		Status: markdown.ParseTaskStatus(body), Workflow: workflow, IsMainWorkflow: isMain,
		Body: string(body),
	}, nil
}

// ViewTask returns a single task's content plus its extracted references.
func (r *Registry) ViewTask(rawDocument, rawTask string) (TaskInfo, *ErrorResponse) {
	docAddr, err := r.Addresses.Document(rawDocument)
	if err != nil {
		e := asErrorResponse(err)
		return TaskInfo{}, &e
	}
	taskAddr, err := r.Addresses.Task(rawTask, docAddr.Path)
	if err != nil {
		e := asErrorResponse(err)
		return TaskInfo{}, &e
	}
	info, err := r.taskInfo(docAddr.Path, taskAddr.Section.Slug)
	if err != nil {
		e := asErrorResponse(err)
		return TaskInfo{}, &e
	}
	return info, nil
}

// StartTaskParams carries start_task's core-owned inputs; FindNext and
// LoadReferences are both optional — the caller decides whether it wants
// the next-pending lookup and the reference tree assembled in the same
// round trip.
type StartTaskParams struct {
	Document       string
	Task           string
	FindNext       bool
	LoadReferences bool
}

// StartTaskResult is the core-owned half of start_task's response — it
// carries no opinion on workflow re-injection, which is a session-state
// decision made by the caller.
type StartTaskResult struct {
	Task          TaskInfo        `json:"task"`
	NextPending   *TaskInfo       `json:"next_pending,omitempty"`
	ReferenceTree *reference.Tree `json:"reference_tree,omitempty"`
}

// StartTask reads a task and, per the caller's flags, locates the next
// pending task in the same document and/or loads its reference tree.
func (r *Registry) StartTask(ctx context.Context, p StartTaskParams) (StartTaskResult, *ErrorResponse) {
	info, errResp := r.ViewTask(p.Document, p.Task)
	if errResp != nil {
		return StartTaskResult{}, errResp
	}
	result := StartTaskResult{Task: info}

	if p.FindNext {
		next, err := r.nextPendingTask(info.Document, info.Slug)
		if err != nil {
			e := asErrorResponse(err)
			return StartTaskResult{}, &e
		}
		result.NextPending = next
	}

	if p.LoadReferences && r.Loader != nil {
		tree, err := r.Loader.Load(ctx, info.Document, info.Slug)
		if err != nil {
			e := asErrorResponse(err)
			return StartTaskResult{}, &e
		}
		result.ReferenceTree = &tree
	}

	return result, nil
}

// CompleteTaskParams carries complete_task's core-owned inputs.
type CompleteTaskParams struct {
	Document       string
	Task           string
	Note           string
	FindNext       bool
	LoadReferences bool
}

// CompleteTask marks a task's status completed, optionally appending a
// timestamped note, then behaves exactly like StartTask for the
// find-next/load-references half of the contract.
func (r *Registry) CompleteTask(ctx context.Context, p CompleteTaskParams) (StartTaskResult, *ErrorResponse) {
	docAddr, err := r.Addresses.Document(p.Document)
	if err != nil {
		e := asErrorResponse(err)
		return StartTaskResult{}, &e
	}
	taskAddr, err := r.Addresses.Task(p.Task, docAddr.Path)
	if err != nil {
		e := asErrorResponse(err)
		return StartTaskResult{}, &e
	}

	current, err := r.taskInfo(docAddr.Path, taskAddr.Section.Slug)
	if err != nil {
		e := asErrorResponse(err)
		return StartTaskResult{}, &e
	}
	body := setStatusLine(current.Body, string(markdown.StatusCompleted))
	if p.Note != "" {
		body += fmt.Sprintf("\n**Completed:** %s (%s)\n", p.Note, timeNow().UTC().Format(time.RFC3339))
	}
	if _, err := r.Manager.EditSection(docAddr.Path, taskAddr.Section.Slug, "replace", body, ""); err != nil {
		e := asErrorResponse(err)
		return StartTaskResult{}, &e
	}

	return r.StartTask(ctx, StartTaskParams{
		Document: docAddr.Path, Task: taskAddr.Section.Slug, FindNext: p.FindNext, LoadReferences: p.LoadReferences,
	})
}

// timeNow is overridable in tests, mirroring docmanager's archive timestamp
// pattern.
var timeNow = time.Now

// nextPendingTask scans path's tasks in document order starting after
// afterSlug and returns the first one still pending.
func (r *Registry) nextPendingTask(path, afterSlug string) (*TaskInfo, error) {
	doc, err := r.Manager.GetDocument(path)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, notFoundErr(path)
	}

	foundCurrent := false
	for i, h := range doc.Headings {
		if !markdown.IsTask(doc.Headings, i) {
			continue
		}
		if !foundCurrent {
			if h.PrimarySlug == afterSlug {
				foundCurrent = true
			}
			continue
		}
		if markdown.ParseTaskStatus(h.Body(doc.Content)) == markdown.StatusPending {
			info, err := r.taskInfo(path, h.PrimarySlug)
			if err != nil {
				return nil, err
			}
			return &info, nil
		}
	}
	return nil, nil
}
