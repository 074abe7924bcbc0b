package export

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"interviewnotes/api/internal/notes"
	"interviewnotes/api/internal/transcript"
	"interviewnotes/api/internal/view"
)

// DataStore defines the interface for data access
type DataStore interface {
	LoadTranscript(ctx context.Context, interviewID string) (*transcript.Node, error)
	ListNotes(ctx context.Context, interviewID string) ([]notes.Note, error)
}

// Service provides transcript export functionality
type Service struct {
	store DataStore
	pdf   func(ctx context.Context, job printJob) (*Result, error)
	now   func() time.Time
}

// NewService creates a new export service
func NewService(store DataStore) *Service {
	return &Service{store: store, pdf: exportPDF, now: time.Now}
}

// Export generates an export in the requested format
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	doc, err := s.store.LoadTranscript(ctx, req.InterviewID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentUnavailable, err)
	}
	all, err := s.store.ListNotes(ctx, req.InterviewID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Interview " + req.InterviewID
	}
	data := BuildTemplateData(req.InterviewID, title, doc, all)
	data.GeneratedAt = s.now()

	html, err := RenderHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch req.Format {
	case FormatPDF, "":
		return s.pdf(ctx, printJob{HTML: html, Title: title, InterviewID: req.InterviewID})
	case FormatHTML:
		return &Result{
			Data:     []byte(html),
			Filename: exportFilename(title, req.InterviewID) + ".html",
			MimeType: "text/html; charset=utf-8",
		}, nil
	default:
		return nil, errors.New("unsupported format: " + string(req.Format))
	}
}

// BuildTemplateData renders the annotated transcript and groups notes with
// their replies. Comments follow the order they appear in the transcript.
func BuildTemplateData(interviewID, title string, doc *transcript.Node, all []notes.Note) TemplateData {
	anchored, general := notes.Partition(notes.TopLevel(all))
	replies := notes.Replies(all)

	data := TemplateData{
		Title:        title,
		InterviewID:  interviewID,
		ContentHTML:  template.HTML(view.RenderAnnotated(doc, all)),
		Empty:        transcript.IsEmpty(doc),
		Comments:     make([]TemplateNote, 0, len(anchored)),
		GeneralNotes: make([]TemplateNote, 0, len(general)),
	}

	order := map[string]int{}
	for i, id := range transcript.CommentIDs(doc) {
		order[id] = i
	}
	position := func(n notes.Note) int {
		if i, ok := order[n.CommentID]; ok {
			return i
		}
		return len(order)
	}
	sorted := append([]notes.Note(nil), anchored...)
	sort.SliceStable(sorted, func(i, j int) bool { return position(sorted[i]) < position(sorted[j]) })

	for _, n := range sorted {
		data.Comments = append(data.Comments, templateNote(n, replies[n.ID]))
	}
	for _, n := range general {
		data.GeneralNotes = append(data.GeneralNotes, templateNote(n, replies[n.ID]))
	}
	return data
}

func templateNote(n notes.Note, replies []notes.Note) TemplateNote {
	item := TemplateNote{
		CommentID: n.CommentID,
		Anchor:    n.AnchorText,
		Text:      n.Content,
		Author:    n.Author,
		Replies:   make([]TemplateReply, 0, len(replies)),
	}
	for _, r := range replies {
		item.Replies = append(item.Replies, TemplateReply{Author: r.Author, Body: r.Content})
	}
	return item
}
