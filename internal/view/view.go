// Package view is the controller for one open interview transcript. It owns
// the rendered HTML, the notes, the highlight state, the comment draft and
// the last card layout. Views share nothing with each other.
package view

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"interviewnotes/api/internal/anchor"
	"interviewnotes/api/internal/interaction"
	"interviewnotes/api/internal/layout"
	"interviewnotes/api/internal/notes"
	"interviewnotes/api/internal/transcript"
)

var (
	// ErrBusy is returned while another note mutation is in flight.
	ErrBusy = errors.New("a note action is already in progress")
	// ErrNoDraft is returned by Submit when nothing is being written.
	ErrNoDraft = errors.New("no comment draft to submit")
	// ErrAnchorNotInTranscript is returned when a new note's anchor text does
	// not occur in the transcript.
	ErrAnchorNotInTranscript = errors.New("anchor text does not occur in the transcript")
)

// RenderFunc produces the transcript HTML for a set of notes.
type RenderFunc func(doc *transcript.Node, all []notes.Note) string

// RenderAnnotated renders doc and re-attaches anchors that only exist as
// stored excerpt text.
func RenderAnnotated(doc *transcript.Node, all []notes.Note) string {
	anchored, _ := notes.Partition(notes.TopLevel(all))
	rendered := transcript.Render(doc, notes.CommentNoteMap(anchored))
	return anchor.Reconcile(rendered, anchored)
}

// Snapshot is a read-only copy of the view state.
type Snapshot struct {
	InterviewID    string                  `json:"interviewId"`
	HTML           string                  `json:"html"`
	Empty          bool                    `json:"empty"`
	AnchoredNotes  []notes.Note            `json:"anchoredNotes"`
	GeneralNotes   []notes.Note            `json:"generalNotes"`
	Replies        map[string][]notes.Note `json:"replies"`
	CommentNoteMap map[string]string       `json:"commentNoteMap"`
	Interaction    interaction.State       `json:"interaction"`
	ActiveNoteID   string                  `json:"activeNoteId,omitempty"`
	Draft          interaction.Draft       `json:"draft"`
	Submitting     bool                    `json:"submitting"`
	Layout         layout.Result           `json:"layout"`
}

// View is safe for concurrent use; mutations are serialized and the
// collaborator is never called with the lock held.
type View struct {
	mu           sync.Mutex
	interviewID  string
	doc          *transcript.Node
	collab       notes.Collaborator
	render       RenderFunc
	log          zerolog.Logger
	all          []notes.Note
	html         string
	anchored     []notes.Note
	general      []notes.Note
	commentNotes map[string]string
	machine      interaction.Machine
	draft        interaction.Draft
	positions    layout.Result
	submitting   bool
}

// Option customizes a View.
type Option func(*View)

// WithRenderFunc replaces RenderAnnotated, e.g. with a cached variant.
func WithRenderFunc(fn RenderFunc) Option {
	return func(v *View) {
		if fn != nil {
			v.render = fn
		}
	}
}

// New creates a view over doc. Call Load or SetNotes before reading it.
func New(interviewID string, doc *transcript.Node, collab notes.Collaborator, opts ...Option) *View {
	v := &View{
		interviewID:  interviewID,
		doc:          doc,
		collab:       collab,
		render:       RenderAnnotated,
		log:          log.With().Str("interview_id", interviewID).Logger(),
		commentNotes: map[string]string{},
	}
	for _, opt := range opts {
		opt(v)
	}
	v.refreshLocked()
	return v
}

// Load fetches the notes from the collaborator and re-renders.
func (v *View) Load(ctx context.Context) error {
	items, err := v.collab.ListNotes(ctx, v.interviewID)
	if err != nil {
		return fmt.Errorf("list notes: %w", err)
	}
	v.SetNotes(items)
	return nil
}

// SetNotes replaces the notes and re-renders.
func (v *View) SetNotes(items []notes.Note) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.all = append([]notes.Note(nil), items...)
	v.refreshLocked()
}

func (v *View) refreshLocked() {
	v.anchored, v.general = notes.Partition(notes.TopLevel(v.all))
	v.commentNotes = notes.CommentNoteMap(v.anchored)
	v.html = v.render(v.doc, v.all)
}

// HTML returns the annotated transcript.
func (v *View) HTML() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.html
}

// Snapshot copies the current state.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	commentNotes := make(map[string]string, len(v.commentNotes))
	for k, val := range v.commentNotes {
		commentNotes[k] = val
	}
	return Snapshot{
		InterviewID:    v.interviewID,
		HTML:           v.html,
		Empty:          transcript.IsEmpty(v.doc),
		AnchoredNotes:  append([]notes.Note{}, v.anchored...),
		GeneralNotes:   append([]notes.Note{}, v.general...),
		Replies:        notes.Replies(v.all),
		CommentNoteMap: commentNotes,
		Interaction:    v.machine.Current(),
		ActiveNoteID:   v.machine.ActiveNoteID(v.commentNotes),
		Draft:          v.draft,
		Submitting:     v.submitting,
		Layout:         v.positions,
	}
}

// HoverEnter highlights a comment anchor or card.
func (v *View) HoverEnter(commentID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.machine.HoverEnter(commentID)
}

// HoverLeave clears a hover on commentID.
func (v *View) HoverLeave(commentID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.machine.HoverLeave(commentID)
}

// Focus pins a comment; an empty id clears focus.
func (v *View) Focus(commentID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.machine.Focus(commentID)
}

// Activate handles Enter/Space on a focusable comment span.
func (v *View) Activate(commentID, key string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.machine.Activate(commentID, key)
}

// SetSelecting records an active text selection gesture.
func (v *View) SetSelecting(selecting bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.machine.SetSelecting(selecting)
}

// Interaction returns the highlight state.
func (v *View) Interaction() interaction.State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.machine.Current()
}

// ActiveNoteID is the note bound to the focused comment, if any.
func (v *View) ActiveNoteID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.machine.ActiveNoteID(v.commentNotes)
}

// StartComment opens a draft on selected text and returns its comment id.
func (v *View) StartComment(selected string, at interaction.Point) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.draft.StartPending(selected, at)
}

// StartGeneralNote opens an unanchored note draft.
func (v *View) StartGeneralNote() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.draft.StartGeneral()
}

// CancelDraft discards the draft.
func (v *View) CancelDraft() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.draft.Cancel()
}

// Draft returns the current draft.
func (v *View) Draft() interaction.Draft {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.draft
}

// Submitting reports whether a mutation is in flight.
func (v *View) Submitting() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.submitting
}

// Layout recomputes card positions for the anchored notes and the pending
// draft. The caller re-invokes it when the page geometry changes.
func (v *View) Layout(m layout.Measurer) layout.Result {
	v.mu.Lock()
	defer v.mu.Unlock()
	var pending *layout.Pending
	if v.draft.Pending() {
		pending = &layout.Pending{Top: v.draft.Anchor.Top, Left: v.draft.Anchor.Left}
	}
	result := layout.Compute(m, v.anchored, pending)
	if result.Ready {
		v.positions = result
	}
	return result
}

func (v *View) begin() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.submitting {
		return ErrBusy
	}
	v.submitting = true
	return nil
}

func (v *View) finish() {
	v.mu.Lock()
	v.submitting = false
	v.mu.Unlock()
}

// Submit saves the open draft. A pending comment carries its comment id and
// anchor text; a general note carries neither. The draft is cleared only on
// success.
func (v *View) Submit(ctx context.Context, content, author string) (notes.Note, error) {
	if strings.TrimSpace(content) == "" {
		return notes.Note{}, notes.ErrEmptyContent
	}

	v.mu.Lock()
	draft := v.draft
	v.mu.Unlock()
	if !draft.Active() {
		return notes.Note{}, ErrNoDraft
	}

	input := notes.NewNote{Content: content, Author: author}
	if draft.Pending() {
		input.CommentID = draft.CommentID
		input.AnchorText = draft.Text
	}
	created, err := v.Create(ctx, input)
	if err != nil {
		return notes.Note{}, err
	}

	v.mu.Lock()
	if v.draft == draft {
		v.draft.Cancel()
	}
	v.mu.Unlock()
	return created, nil
}

// Reply adds a reply under parentID.
func (v *View) Reply(ctx context.Context, parentID, content, author string) (notes.Note, error) {
	return v.Create(ctx, notes.NewNote{Content: content, ParentID: parentID, Author: author})
}

// Create adds a note for this interview. Anchor text without a comment id
// gets a fresh id so the note can be bound to its excerpt.
func (v *View) Create(ctx context.Context, input notes.NewNote) (notes.Note, error) {
	input.InterviewID = v.interviewID
	input.Content = strings.TrimSpace(input.Content)
	if input.Content == "" {
		return notes.Note{}, notes.ErrEmptyContent
	}
	if input.ParentID == "" {
		input.CommentID = strings.TrimSpace(input.CommentID)
		input.AnchorText = notes.NormalizeAnchorText(input.AnchorText)
		if input.AnchorText != "" && !transcript.ContainsText(v.doc, input.AnchorText) {
			return notes.Note{}, ErrAnchorNotInTranscript
		}
		if input.AnchorText != "" && input.CommentID == "" {
			input.CommentID = notes.NewCommentID()
		}
	}

	if err := v.begin(); err != nil {
		return notes.Note{}, err
	}
	defer v.finish()

	created, err := v.collab.AddNote(ctx, input)
	if err != nil {
		v.log.Warn().Err(err).Str("comment_id", input.CommentID).Str("parent_id", input.ParentID).Msg("add note failed")
		return notes.Note{}, fmt.Errorf("add note: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.all = append(v.all, created)
	v.refreshLocked()
	return created, nil
}

// Notes returns every note of the view, replies included.
func (v *View) Notes() []notes.Note {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]notes.Note(nil), v.all...)
}

// Edit replaces a note's content.
func (v *View) Edit(ctx context.Context, noteID, content string) (notes.Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return notes.Note{}, notes.ErrEmptyContent
	}
	if err := v.begin(); err != nil {
		return notes.Note{}, err
	}
	defer v.finish()

	updated, err := v.collab.UpdateNote(ctx, noteID, content)
	if err != nil {
		return notes.Note{}, fmt.Errorf("update note: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.all {
		if v.all[i].ID == noteID {
			v.all[i] = updated
		}
	}
	v.refreshLocked()
	return updated, nil
}

// Delete removes a note. Its replies leave the view with it; whether the
// collaborator also deletes them is up to the collaborator.
func (v *View) Delete(ctx context.Context, noteID string) error {
	if err := v.begin(); err != nil {
		return err
	}
	defer v.finish()

	if err := v.collab.DeleteNote(ctx, noteID); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.machine.ActiveNoteID(v.commentNotes) == noteID {
		v.machine.Clear()
	}
	v.all = notes.WithoutNote(v.all, noteID)
	v.refreshLocked()
	return nil
}
