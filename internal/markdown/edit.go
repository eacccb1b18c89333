package markdown

import (
	"bytes"
	"strings"

	"github.com/nota-kb/docserver/internal/apperrors"
)

// EditMode selects how ReplaceSectionBody combines new content with what a
// section's body already holds.
type EditMode string

const (
	ModeReplace EditMode = "replace"
	ModeAppend  EditMode = "append"
	ModePrepend EditMode = "prepend"
)

// RelativePosition selects where InsertRelative places a new heading
// relative to an existing one.
type RelativePosition string

const (
	PositionBefore      RelativePosition = "before"
	PositionAfter       RelativePosition = "after"
	PositionAppendChild RelativePosition = "append_child"
)

const maxHeadingDepth = 6

// ReplaceSectionBody rewrites target's body (everything after its heading
// line, including nested subsections) according to mode, and returns the
// spliced document content. Callers must re-Parse the result: byte offsets
// past the edit point shift and stale Heading values must not be reused.
func ReplaceSectionBody(content []byte, target Heading, newBody string, mode EditMode) ([]byte, error) {
	var body []byte
	existing := target.Body(content)

	switch mode {
	case ModeReplace:
		body = normalizeBody(newBody)
	case ModeAppend:
		body = append(normalizeBody(string(existing)), normalizeBody(newBody)...)
	case ModePrepend:
		body = append(normalizeBody(newBody), normalizeBody(string(existing))...)
	default:
		return nil, apperrors.Newf(apperrors.CodeInvalidParameterValue, "unknown edit mode %q", mode)
	}

	out := make([]byte, 0, len(content)-len(existing)+len(body))
	out = append(out, content[:target.BodyStart]...)
	out = append(out, body...)
	out = append(out, content[target.End:]...)
	return out, nil
}

// normalizeBody trims surrounding blank lines from a caller-supplied body
// fragment and ends it with a newline followed by exactly one blank line,
// so repeated edits don't accumulate blank-line drift.
func normalizeBody(s string) []byte {
	trimmed := strings.Trim(s, "\n")
	if trimmed == "" {
		return nil
	}
	return []byte(trimmed + "\n\n")
}

// InsertRelative inserts a new heading of the given title and body before
// or after reference (at reference's own depth), or as its last child
// (inserted at reference.End, at reference.Depth+1, clamped to depth 6). The new heading's depth
// determines how many leading '#' characters are written.
func InsertRelative(content []byte, reference Heading, title, body string, position RelativePosition) ([]byte, error) {
	var depth, insertAt int

	switch position {
	case PositionBefore:
		depth, insertAt = reference.Depth, reference.LineStart
	case PositionAfter:
		depth, insertAt = reference.Depth, reference.End
	case PositionAppendChild:
		depth = reference.Depth + 1
		if depth > maxHeadingDepth {
			depth = maxHeadingDepth
		}
		insertAt = reference.End
	default:
		return nil, apperrors.Newf(apperrors.CodeInvalidParameterValue, "unknown insert position %q", position)
	}

	var block bytes.Buffer
	block.WriteString(strings.Repeat("#", depth))
	block.WriteByte(' ')
	block.WriteString(title)
	block.WriteString("\n\n")
	if b := normalizeBody(body); b != nil {
		block.Write(b)
	}

	out := make([]byte, 0, len(content)+block.Len())
	out = append(out, content[:insertAt]...)
	out = append(out, block.Bytes()...)
	out = append(out, content[insertAt:]...)
	return out, nil
}

// DeleteSection removes target's entire section — its heading line, body,
// and nested subsections — and returns the edited content along with the
// exact bytes that were removed, so a caller can report precisely what
// was deleted.
func DeleteSection(content []byte, target Heading) (edited []byte, removed []byte) {
	removed = append([]byte(nil), content[target.LineStart:target.End]...)
	out := make([]byte, 0, len(content)-len(removed))
	out = append(out, content[:target.LineStart]...)
	out = append(out, content[target.End:]...)
	return out, removed
}

// RenameHeading rewrites target's title text in place, preserving an
// explicit {#anchor} suffix (and therefore the slug) if one is present.
// If target has no explicit anchor, the caller is expected to have
// already recomputed the new slug and confirmed it doesn't collide with
// another heading's PrimarySlug in the document (RenameHeading itself
// performs no collision check — it only splices text).
func RenameHeading(content []byte, target Heading, newTitle string) []byte {
	line := content[target.LineStart:target.LineEnd]
	suffix := line[target.TitleEnd-target.LineStart:]

	out := make([]byte, 0, len(content)-len(line)+len(newTitle)+len(suffix)+1)
	out = append(out, content[:target.LineStart]...)
	out = append(out, []byte(strings.Repeat("#", target.Depth))...)
	out = append(out, ' ')
	out = append(out, []byte(newTitle)...)
	out = append(out, suffix...)
	out = append(out, content[target.LineEnd:]...)
	return out
}
