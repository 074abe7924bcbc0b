// Package anchor re-attaches comment anchors that were stored as plain
// excerpt text rather than as comment marks in the transcript.
package anchor

import (
	"html"
	"strings"

	"interviewnotes/api/internal/notes"
	"interviewnotes/api/internal/transcript"
)

// HasAnchor reports whether rendered contains a comment span for commentID.
func HasAnchor(rendered, commentID string) bool {
	return strings.Contains(rendered, `data-comment-id="`+html.EscapeString(commentID)+`"`)
}

// Reconcile wraps the first unclaimed occurrence of each note's anchor text in
// a comment span. Notes are applied in order against the progressively edited
// HTML, so when two notes share anchor text the earlier note claims it and the
// later one stays unhighlighted. Notes without a comment id or anchor text, or
// whose span is already present, are left alone. Misses are silent.
func Reconcile(rendered string, items []notes.Note) string {
	out := rendered
	for _, note := range items {
		if note.CommentID == "" || strings.TrimSpace(note.AnchorText) == "" {
			continue
		}
		if HasAnchor(out, note.CommentID) {
			continue
		}
		start, end, ok := firstUnclaimed(out, html.EscapeString(note.AnchorText))
		if !ok {
			continue
		}
		out = out[:start] + transcript.CommentSpan(note.CommentID, note.ID, out[start:end]) + out[end:]
	}
	return out
}

// firstUnclaimed scans rendered HTML for needle inside a single text run. Runs
// inside a comment span are claimed, and so is any run that ends right at a
// closing span.
func firstUnclaimed(s, needle string) (int, int, bool) {
	if needle == "" {
		return 0, 0, false
	}
	var spans []bool
	claimed := 0

	i := 0
	for i < len(s) {
		if s[i] == '<' {
			end := strings.IndexByte(s[i:], '>')
			if end < 0 {
				return 0, 0, false
			}
			tag := s[i : i+end+1]
			switch {
			case isClose(tag, "span"):
				if n := len(spans); n > 0 {
					if spans[n-1] {
						claimed--
					}
					spans = spans[:n-1]
				}
			case isOpen(tag, "span"):
				comment := strings.Contains(tag, "data-comment-id=")
				spans = append(spans, comment)
				if comment {
					claimed++
				}
			}
			i += end + 1
			continue
		}

		runEnd := len(s)
		if next := strings.IndexByte(s[i:], '<'); next >= 0 {
			runEnd = i + next
		}
		if claimed == 0 && !strings.HasPrefix(s[runEnd:], "</span>") {
			if idx := strings.Index(s[i:runEnd], needle); idx >= 0 {
				return i + idx, i + idx + len(needle), true
			}
		}
		i = runEnd
	}
	return 0, 0, false
}

func isOpen(tag, name string) bool {
	if !strings.HasPrefix(tag, "<"+name) || len(tag) <= len(name)+1 {
		return false
	}
	switch tag[len(name)+1] {
	case ' ', '>', '\t', '\n', '/':
		return !strings.HasSuffix(tag, "/>")
	}
	return false
}

func isClose(tag, name string) bool {
	return strings.HasPrefix(tag, "</"+name) && len(tag) > len(name)+2 &&
		(tag[len(name)+2] == '>' || tag[len(name)+2] == ' ')
}
