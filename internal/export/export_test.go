package export

import (
	"context"
	"errors"
	"html/template"
	"strings"
	"testing"
	"time"

	"interviewnotes/api/internal/notes"
	"interviewnotes/api/internal/transcript"
)

type fakeStore struct {
	doc     *transcript.Node
	docErr  error
	items   []notes.Note
	listErr error
}

func (f fakeStore) LoadTranscript(context.Context, string) (*transcript.Node, error) {
	return f.doc, f.docErr
}

func (f fakeStore) ListNotes(context.Context, string) ([]notes.Note, error) {
	return f.items, f.listErr
}

func sampleDoc(t *testing.T) *transcript.Node {
	t.Helper()
	doc, err := transcript.Parse([]byte(`{"type":"doc","content":[
		{"type":"paragraph","content":[{"type":"text","text":"First the fees were discussed."}]},
		{"type":"paragraph","content":[{"type":"text","text":"Then travel","marks":[{"type":"comment","attrs":{"commentId":"c-travel"}}]}]}
	]}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return doc
}

func sampleNotes() []notes.Note {
	return []notes.Note{
		{ID: "n-travel", CommentID: "c-travel", AnchorText: "Then travel", Content: "Ask about flights", Author: "Ana"},
		{ID: "n-fees", CommentID: "c-fees", AnchorText: "fees were discussed", Content: "Confirm <amount>"},
		{ID: "n-general", Content: "Strong candidate"},
		{ID: "r1", ParentID: "n-travel", Content: "Booked", Author: "Bo"},
	}
}

func TestBuildTemplateData(t *testing.T) {
	data := BuildTemplateData("iv1", "Intake", sampleDoc(t), sampleNotes())

	if data.Empty {
		t.Fatal("document should not be empty")
	}
	if len(data.Comments) != 2 || len(data.GeneralNotes) != 1 {
		t.Fatalf("comments=%d general=%d", len(data.Comments), len(data.GeneralNotes))
	}
	// Comments present as marks come first; reconciled ones follow.
	if data.Comments[0].CommentID != "c-travel" || data.Comments[1].CommentID != "c-fees" {
		t.Fatalf("unexpected comment order %+v", data.Comments)
	}
	if got := data.Comments[0].Replies; len(got) != 1 || got[0].Body != "Booked" {
		t.Fatalf("replies = %+v", got)
	}

	html := string(data.ContentHTML)
	for _, want := range []string{
		`data-comment-id="c-travel" data-note-id="n-travel"`,
		`data-comment-id="c-fees" data-note-id="n-fees"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("content missing %s: %s", want, html)
		}
	}
}

func TestServiceExportHTML(t *testing.T) {
	svc := NewService(fakeStore{doc: sampleDoc(t), items: sampleNotes()})
	svc.now = func() time.Time { return time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC) }

	result, err := svc.Export(context.Background(), Request{InterviewID: "iv1", Title: "Intake call", Format: FormatHTML})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if result.Filename != "Intake-call.html" || !strings.HasPrefix(result.MimeType, "text/html") {
		t.Fatalf("unexpected result metadata %+v", result)
	}
	html := string(result.Data)
	for _, want := range []string{"Intake call", "Mar 4, 2026 10:30", "Comments", "General notes", "Confirm &lt;amount&gt;", "Booked"} {
		if !strings.Contains(html, want) {
			t.Errorf("export missing %q", want)
		}
	}
}

func TestServiceExportPDFUsesRenderer(t *testing.T) {
	svc := NewService(fakeStore{doc: sampleDoc(t)})
	var got printJob
	svc.pdf = func(_ context.Context, job printJob) (*Result, error) {
		got = job
		return &Result{Data: []byte("%PDF"), Filename: exportFilename(job.Title, job.InterviewID) + ".pdf", MimeType: "application/pdf"}, nil
	}

	result, err := svc.Export(context.Background(), Request{InterviewID: "iv9"})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if got.Title != "Interview iv9" || got.InterviewID != "iv9" || result.Filename != "Interview-iv9.pdf" {
		t.Fatalf("job=%+v filename=%q", got, result.Filename)
	}
	if !strings.Contains(got.HTML, "<h1>Interview iv9</h1>") {
		t.Fatalf("printed html lacks the title heading the printer waits on: %s", got.HTML)
	}
}

func TestServiceExportErrors(t *testing.T) {
	svc := NewService(fakeStore{docErr: errors.New("missing")})
	if _, err := svc.Export(context.Background(), Request{InterviewID: "iv1"}); !errors.Is(err, ErrContentUnavailable) {
		t.Fatalf("expected ErrContentUnavailable, got %v", err)
	}

	svc = NewService(fakeStore{doc: sampleDoc(t)})
	if _, err := svc.Export(context.Background(), Request{InterviewID: "iv1", Format: "docx"}); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestExportFilename(t *testing.T) {
	tests := []struct {
		title       string
		interviewID string
		expected    string
	}{
		{"Hello World", "iv1", "Hello-World"},
		{"Intake v1.2", "iv1", "Intake-v12"},
		{"Special!@#$%Chars", "iv1", "SpecialChars"},
		{"  Follow - up  call ", "iv1", "Follow-up-call"},
		{"Café résumé", "iv1", "Caf-rsum"},
		{"", "iv 42", "interview-iv-42"},
		{"!!!", "", "interview"},
		{"Very Long Title That Exceeds The Sixty Character Filename Limit For Sure", "iv1", "Very-Long-Title-That-Exceeds-The-Sixty-Character-Filename-Li"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			result := exportFilename(tt.title, tt.interviewID)
			if result != tt.expected {
				t.Errorf("exportFilename(%q, %q) = %q, want %q", tt.title, tt.interviewID, result, tt.expected)
			}
		})
	}
}

func TestPageHeaderEscapesTitle(t *testing.T) {
	header := pageHeader(printJob{Title: "Q&A <draft>", InterviewID: "iv7"})
	if !strings.Contains(header, "Q&amp;A &lt;draft&gt; &middot; Interview iv7") {
		t.Fatalf("header = %s", header)
	}
	if strings.Contains(pageHeader(printJob{Title: "Solo"}), "Interview") {
		t.Fatal("header should omit the interview label without an id")
	}
	for _, class := range []string{`class="pageNumber"`, `class="totalPages"`} {
		if !strings.Contains(pageFooter, class) {
			t.Errorf("footer missing %s", class)
		}
	}
}

func TestRenderHTMLWrapsNotesInAppendix(t *testing.T) {
	html, err := RenderHTML(TemplateData{
		Title:        "Notes",
		InterviewID:  "iv1",
		GeneralNotes: []TemplateNote{{Text: "Follow up"}},
	})
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	if !strings.Contains(html, `<div class="appendix">`) {
		t.Fatalf("notes should start a print appendix: %s", html)
	}

	bare, err := RenderHTML(TemplateData{Title: "Empty", InterviewID: "iv2"})
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	if strings.Contains(bare, `class="appendix"`) {
		t.Fatal("appendix rendered without notes")
	}
}

func TestRenderHTMLKeepsTranscriptMarkup(t *testing.T) {
	html, err := RenderHTML(TemplateData{
		Title:       "Test Interview",
		InterviewID: "iv1",
		ContentHTML: template.HTML(`<p class="mb-3 leading-relaxed">This is the content.</p>`),
	})
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	if strings.Contains(html, "&lt;p") {
		t.Error("transcript HTML was escaped")
	}
	if !strings.Contains(html, "This is the content.") {
		t.Error("HTML missing content")
	}
	if strings.Contains(html, "<h2>Comments</h2>") {
		t.Error("comments section should be omitted without comments")
	}

	empty, err := RenderHTML(TemplateData{Title: "Empty", Empty: true})
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	if !strings.Contains(empty, "No transcript content.") {
		t.Error("empty transcript notice missing")
	}
}
