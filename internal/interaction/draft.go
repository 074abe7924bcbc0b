package interaction

import (
	"errors"

	"interviewnotes/api/internal/notes"
)

// ErrEmptySelection is returned when a comment is started on blank text.
var ErrEmptySelection = errors.New("selection is empty")

// DraftKind is the kind of in-progress note.
type DraftKind int

const (
	DraftNone DraftKind = iota
	DraftPending
	DraftGeneral
)

func (k DraftKind) String() string {
	switch k {
	case DraftPending:
		return "pending"
	case DraftGeneral:
		return "general"
	default:
		return "none"
	}
}

// Point is an anchor position relative to the transcript container.
type Point struct {
	Top  float64 `json:"top"`
	Left float64 `json:"left"`
}

// Draft is the single comment-creation flow of a view. Starting a pending
// comment replaces a general note draft and vice versa.
type Draft struct {
	Kind      DraftKind `json:"kind"`
	Text      string    `json:"text,omitempty"`
	CommentID string    `json:"commentId,omitempty"`
	Anchor    Point     `json:"anchor"`
}

// StartPending opens a comment on selected text with a fresh comment id.
func (d *Draft) StartPending(selected string, at Point) (string, error) {
	text := notes.NormalizeAnchorText(selected)
	if text == "" {
		return "", ErrEmptySelection
	}
	*d = Draft{
		Kind:      DraftPending,
		Text:      text,
		CommentID: notes.NewCommentID(),
		Anchor:    at,
	}
	return d.CommentID, nil
}

// StartGeneral opens an unanchored note.
func (d *Draft) StartGeneral() {
	*d = Draft{Kind: DraftGeneral}
}

// Cancel drops the draft. Nothing already submitted is affected.
func (d *Draft) Cancel() {
	*d = Draft{}
}

// Active reports whether any draft is open.
func (d Draft) Active() bool {
	return d.Kind != DraftNone
}

// Pending reports whether an anchored comment draft is open.
func (d Draft) Pending() bool {
	return d.Kind == DraftPending
}
