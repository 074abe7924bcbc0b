// Package notes holds interview notes: anchored comments on a transcript,
// general notes, and their one level of replies.
package notes

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// MaxAnchorRunes caps how much of a selection is stored as anchor text.
const MaxAnchorRunes = 200

var (
	// ErrEmptyContent is returned when a note or reply has no body.
	ErrEmptyContent = errors.New("note content is required")
	// ErrNotFound is returned by collaborators for unknown note ids.
	ErrNotFound = errors.New("note not found")
)

// Note is a persisted annotation. A note with a CommentID or AnchorText is
// anchored to transcript text; any other top-level note is general. Replies
// reference their parent through ParentID.
type Note struct {
	ID          string    `json:"id"`
	InterviewID string    `json:"interview_id"`
	CommentID   string    `json:"comment_id,omitempty"`
	AnchorText  string    `json:"anchor_text,omitempty"`
	Content     string    `json:"content"`
	ParentID    string    `json:"parent_id,omitempty"`
	Author      string    `json:"author,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsAnchored reports whether the note points at transcript text.
func (n Note) IsAnchored() bool {
	return strings.TrimSpace(n.CommentID) != "" || strings.TrimSpace(n.AnchorText) != ""
}

// IsReply reports whether the note answers another note.
func (n Note) IsReply() bool {
	return n.ParentID != ""
}

// NewNote is the input for creating a note or reply.
type NewNote struct {
	InterviewID string `json:"interview_id"`
	Content     string `json:"content"`
	CommentID   string `json:"comment_id,omitempty"`
	AnchorText  string `json:"anchor_text,omitempty"`
	ParentID    string `json:"parent_id,omitempty"`
	Author      string `json:"author,omitempty"`
}

// Collaborator persists notes. Implementations own cascade semantics for
// deleted parents.
type Collaborator interface {
	ListNotes(ctx context.Context, interviewID string) ([]Note, error)
	AddNote(ctx context.Context, input NewNote) (Note, error)
	UpdateNote(ctx context.Context, noteID, content string) (Note, error)
	DeleteNote(ctx context.Context, noteID string) error
}

// Partition splits notes into anchored and general notes. Every input note
// lands in exactly one list.
func Partition(all []Note) (anchored, general []Note) {
	anchored = make([]Note, 0)
	general = make([]Note, 0)
	for _, note := range all {
		if note.IsAnchored() {
			anchored = append(anchored, note)
		} else {
			general = append(general, note)
		}
	}
	return anchored, general
}

// TopLevel drops replies.
func TopLevel(all []Note) []Note {
	out := make([]Note, 0, len(all))
	for _, note := range all {
		if !note.IsReply() {
			out = append(out, note)
		}
	}
	return out
}

// Replies groups replies by parent id, keeping input order.
func Replies(all []Note) map[string][]Note {
	out := make(map[string][]Note)
	for _, note := range all {
		if note.IsReply() {
			out[note.ParentID] = append(out[note.ParentID], note)
		}
	}
	return out
}

// CommentNoteMap maps comment ids to the first top-level note carrying them.
func CommentNoteMap(all []Note) map[string]string {
	out := make(map[string]string)
	for _, note := range all {
		if note.IsReply() || note.CommentID == "" {
			continue
		}
		if _, ok := out[note.CommentID]; !ok {
			out[note.CommentID] = note.ID
		}
	}
	return out
}

// WithoutNote drops the note and, when it is a parent, its replies.
func WithoutNote(all []Note, noteID string) []Note {
	out := make([]Note, 0, len(all))
	for _, note := range all {
		if note.ID == noteID || note.ParentID == noteID {
			continue
		}
		out = append(out, note)
	}
	return out
}

// NormalizeAnchorText collapses whitespace and caps the excerpt length.
func NormalizeAnchorText(text string) string {
	normalized := strings.Join(strings.FieldsFunc(text, unicode.IsSpace), " ")
	runes := []rune(normalized)
	if len(runes) > MaxAnchorRunes {
		normalized = strings.TrimSpace(string(runes[:MaxAnchorRunes]))
	}
	return normalized
}

// NewCommentID returns a fresh client-side comment id.
func NewCommentID() string {
	return uuid.NewString()
}
