package search

import (
	"interviewnotes/api/internal/notes"
)

// ResultType identifies the kind of note in a search result.
type ResultType string

const (
	ResultNote  ResultType = "note"
	ResultReply ResultType = "reply"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type        ResultType `json:"type"`
	ID          string     `json:"id"`
	InterviewID string     `json:"interviewId"`
	CommentID   string     `json:"commentId,omitempty"`
	ParentID    string     `json:"parentId,omitempty"`
	Title       string     `json:"title"`
	Snippet     string     `json:"snippet"`
	Author      string     `json:"author,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text        string
	InterviewID string // empty = all interviews
	Limit       int
	Offset      int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// NoteRecord is the data we index for a note.
type NoteRecord struct {
	ID          string `json:"id"`
	InterviewID string `json:"interviewId"`
	CommentID   string `json:"commentId"`
	ParentID    string `json:"parentId"`
	AnchorText  string `json:"anchorText"`
	Content     string `json:"content"`
	Author      string `json:"author"`
}

// RecordFromNote maps a stored note to its index record.
func RecordFromNote(n notes.Note) NoteRecord {
	return NoteRecord{
		ID:          n.ID,
		InterviewID: n.InterviewID,
		CommentID:   n.CommentID,
		ParentID:    n.ParentID,
		AnchorText:  n.AnchorText,
		Content:     n.Content,
		Author:      n.Author,
	}
}

// ResultFromNote builds an unhighlighted result.
func ResultFromNote(n notes.Note) Result {
	r := Result{
		Type:        ResultNote,
		ID:          n.ID,
		InterviewID: n.InterviewID,
		CommentID:   n.CommentID,
		ParentID:    n.ParentID,
		Title:       n.AnchorText,
		Snippet:     n.Content,
		Author:      n.Author,
	}
	if n.IsReply() {
		r.Type = ResultReply
	}
	return r
}
