package markdown

import (
	"regexp"
	"strings"
)

// TaskStatus is one of the recognized values a task heading's body may
// declare via a "Status: <value>" metadata line.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusBlocked    TaskStatus = "blocked"
)

// Parent returns the nearest preceding heading with a strictly smaller
// depth than headings[index] — its structural parent — or nil if index is
// a top-level heading. This is the sole traversal primitive IsTask and its
// callers use, so "is this heading a task" is never answered two
// different ways in two different places.
func Parent(headings []Heading, index int) *Heading {
	depth := headings[index].Depth
	for i := index - 1; i >= 0; i-- {
		if headings[i].Depth < depth {
			return &headings[i]
		}
	}
	return nil
}

// IsTask reports whether headings[index] is a task: a heading whose
// structural parent's normalized title is exactly "tasks" (case-insensitive,
// not by slug or naming convention).
func IsTask(headings []Heading, index int) bool {
	parent := Parent(headings, index)
	if parent == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(parent.Title), "tasks")
}

var statusLinePattern = regexp.MustCompile(`(?im)^\s*[-*]?\s*\*{0,2}Status\*{0,2}:\s*([a-zA-Z_]+)\s*$`)

// ParseTaskStatus scans a task's body for a "Status: <value>" metadata
// line (optionally bold or dash/star-prefixed) and returns the recognized
// status, defaulting to pending when absent or unrecognized.
func ParseTaskStatus(body []byte) TaskStatus {
	m := statusLinePattern.FindSubmatch(body)
	if m == nil {
		return StatusPending
	}
	switch strings.ToLower(string(m[1])) {
	case "pending":
		return StatusPending
	case "in_progress", "in-progress":
		return StatusInProgress
	case "completed", "complete", "done":
		return StatusCompleted
	case "blocked":
		return StatusBlocked
	default:
		return StatusPending
	}
}

var workflowLinePattern = regexp.MustCompile(`(?im)^\s*[-*]?\s*\*{0,2}(Main-)?Workflow\*{0,2}:\s*(\S.*?)\s*$`)

// ParseWorkflowRef scans a task's body for a "Workflow:" or
// "Main-Workflow:" metadata line, returning the named prompt and whether it
// was declared as the document's main workflow.
func ParseWorkflowRef(body []byte) (name string, isMain bool, found bool) {
	m := workflowLinePattern.FindSubmatch(body)
	if m == nil {
		return "", false, false
	}
	return string(m[2]), len(m[1]) > 0, true
}
