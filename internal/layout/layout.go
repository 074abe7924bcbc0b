// Package layout stacks comment cards beside a transcript so they never
// overlap while staying as close as possible to their anchors.
package layout

import (
	"math"
	"sort"

	"interviewnotes/api/internal/notes"
)

const (
	// MinAnchorInset keeps connector start points off the container edge.
	MinAnchorInset = 12.0
	// FallbackStep offsets a note whose anchor cannot be found from the previous entry.
	FallbackStep = 24.0
	// DefaultCardHeight is used until a card has been measured.
	DefaultCardHeight = 140.0
	// CardGap is the minimum vertical space between two cards.
	CardGap = 12.0
	// TrailingMargin is added below the lowest card.
	TrailingMargin = 40.0
	// MinContainerHeight floors the scroll container.
	MinContainerHeight = 200.0
	// CardLeft is the horizontal offset of cards inside the sidebar.
	CardLeft = 16.0
	// PendingNoteID identifies the placeholder card of an unsaved comment.
	PendingNoteID = "new-comment"
)

// Rect is an element box in viewport coordinates.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Container describes the scrolling transcript container.
type Container struct {
	Rect         Rect    `json:"rect"`
	ScrollTop    float64 `json:"scrollTop"`
	ScrollHeight float64 `json:"scrollHeight"`
}

// Measurer reads live element geometry. Container reports false until the
// transcript is mounted.
type Measurer interface {
	Container() (Container, bool)
	AnchorRect(commentID string) (Rect, bool)
	CardHeight(noteID string) (float64, bool)
}

// Pending is the anchor of an unsaved comment, already relative to the
// transcript container.
type Pending struct {
	Top  float64 `json:"top"`
	Left float64 `json:"left"`
}

// Position is where one card goes.
type Position struct {
	NoteID     string  `json:"noteId"`
	Top        float64 `json:"top"`
	AnchorTop  float64 `json:"anchorTop"`
	AnchorLeft float64 `json:"anchorLeft"`
	CardLeft   float64 `json:"cardLeft"`
	Height     float64 `json:"height"`
}

// Bottom is the lower edge of the card.
func (p Position) Bottom() float64 {
	return p.Top + p.Height
}

// Result is a full layout pass. Ready is false when the container was not
// mounted; nothing else is set in that case.
type Result struct {
	Ready           bool       `json:"ready"`
	Positions       []Position `json:"positions"`
	SidebarHeight   float64    `json:"sidebarHeight"`
	ContainerHeight float64    `json:"containerHeight"`
}

// Compute lays out one card per anchored note plus the pending placeholder.
// It recalculates from scratch on every call.
func Compute(m Measurer, anchored []notes.Note, pending *Pending) Result {
	if m == nil {
		return Result{}
	}
	container, ok := m.Container()
	if !ok {
		return Result{}
	}

	positions := make([]Position, 0, len(anchored)+1)
	lastTop := 0.0
	for _, note := range anchored {
		pos := Position{NoteID: note.ID, CardLeft: CardLeft, AnchorLeft: MinAnchorInset}
		rect, found := Rect{}, false
		if note.CommentID != "" {
			rect, found = m.AnchorRect(note.CommentID)
		}
		if found {
			pos.AnchorTop = rect.Top - container.Rect.Top + container.ScrollTop
			pos.AnchorLeft = math.Max(MinAnchorInset, rect.Left-container.Rect.Left)
		} else {
			pos.AnchorTop = lastTop + FallbackStep
		}
		pos.Top = pos.AnchorTop
		lastTop = pos.AnchorTop
		positions = append(positions, pos)
	}

	if pending != nil {
		positions = append(positions, Position{
			NoteID:     PendingNoteID,
			Top:        pending.Top,
			AnchorTop:  pending.Top,
			AnchorLeft: math.Max(MinAnchorInset, pending.Left),
			CardLeft:   CardLeft,
		})
	}

	for i := range positions {
		height, ok := m.CardHeight(positions[i].NoteID)
		if !ok || height <= 0 {
			height = DefaultCardHeight
		}
		positions[i].Height = height
	}

	Stack(positions)

	sidebar := 0.0
	for _, pos := range positions {
		sidebar = math.Max(sidebar, pos.Bottom())
	}
	sidebar += TrailingMargin

	return Result{
		Ready:           true,
		Positions:       positions,
		SidebarHeight:   sidebar,
		ContainerHeight: math.Max(MinContainerHeight, math.Max(sidebar, container.ScrollHeight)),
	}
}

// Stack sorts positions by anchor offset (note id breaks ties) and pushes
// each card down until it clears the one above by CardGap. Cards are never
// pulled back up.
func Stack(positions []Position) {
	sort.SliceStable(positions, func(i, j int) bool {
		if positions[i].AnchorTop != positions[j].AnchorTop {
			return positions[i].AnchorTop < positions[j].AnchorTop
		}
		return positions[i].NoteID < positions[j].NoteID
	})
	for i := 1; i < len(positions); i++ {
		minTop := positions[i-1].Bottom() + CardGap
		if positions[i].Top < minTop {
			positions[i].Top = minTop
		}
	}
}

// Line is an SVG connector from an anchor to its card.
type Line struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Connector joins the anchor point to the card's left edge. sidebarLeft is
// the sidebar's horizontal offset from the transcript container.
func Connector(p Position, sidebarLeft float64) Line {
	return Line{
		X1: p.AnchorLeft,
		Y1: p.AnchorTop,
		X2: sidebarLeft + p.CardLeft,
		Y2: p.Top + math.Min(p.Height/2, 20),
	}
}
