// Package interaction tracks which comment is hovered or focused in one
// transcript view, and the single in-progress comment draft.
package interaction

// Mode is the highlight state of a transcript view.
type Mode int

const (
	Idle Mode = iota
	Hovering
	Focused
)

func (m Mode) String() string {
	switch m {
	case Hovering:
		return "hovering"
	case Focused:
		return "focused"
	default:
		return "idle"
	}
}

// State is a snapshot of the machine. CommentID is empty when idle.
type State struct {
	Mode      Mode   `json:"mode"`
	CommentID string `json:"commentId,omitempty"`
}

// Machine holds one highlight pointer for a whole view, so at most one
// comment is ever hovered or focused. The zero value is idle.
type Machine struct {
	state     State
	selecting bool
}

// Current returns the current state.
func (m *Machine) Current() State {
	return m.state
}

// SetSelecting marks an active text-selection gesture. Hover changes are
// ignored while it is set.
func (m *Machine) SetSelecting(selecting bool) {
	m.selecting = selecting
}

// Selecting reports whether a selection gesture is in progress.
func (m *Machine) Selecting() bool {
	return m.selecting
}

// HoverEnter highlights commentID unless a selection is in progress or a
// comment is focused.
func (m *Machine) HoverEnter(commentID string) {
	if commentID == "" || m.selecting || m.state.Mode == Focused {
		return
	}
	m.state = State{Mode: Hovering, CommentID: commentID}
}

// HoverLeave returns to idle only when leaving the hovered comment.
func (m *Machine) HoverLeave(commentID string) {
	if m.state.Mode == Hovering && m.state.CommentID == commentID {
		m.state = State{}
	}
}

// Focus pins commentID. An empty id clears focus.
func (m *Machine) Focus(commentID string) {
	if commentID == "" {
		m.state = State{}
		return
	}
	m.state = State{Mode: Focused, CommentID: commentID}
}

// Activate handles keyboard activation on a focusable comment span. Only
// Enter and Space focus; it reports whether the key was consumed.
func (m *Machine) Activate(commentID, key string) bool {
	switch key {
	case "Enter", " ", "Space", "Spacebar":
		m.Focus(commentID)
		return commentID != ""
	}
	return false
}

// Clear returns to idle.
func (m *Machine) Clear() {
	m.state = State{}
}

// ActiveNoteID resolves the focused comment to its note id through
// commentNotes. Hovering never yields an active note.
func (m *Machine) ActiveNoteID(commentNotes map[string]string) string {
	if m.state.Mode != Focused {
		return ""
	}
	return commentNotes[m.state.CommentID]
}
