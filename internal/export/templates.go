package export

import (
	"bytes"
	"html/template"
	"time"
)

var documentTemplate = template.Must(template.New("transcript").Funcs(template.FuncMap{
	"formatDate": func(t time.Time, layout string) string {
		return t.Format(layout)
	},
}).Parse(transcriptTemplate))

// TemplateData holds data for transcript template rendering
type TemplateData struct {
	Title        string
	InterviewID  string
	GeneratedAt  time.Time
	ContentHTML  template.HTML
	Empty        bool
	Comments     []TemplateNote
	GeneralNotes []TemplateNote
}

// TemplateNote holds one top-level note and its replies.
type TemplateNote struct {
	CommentID string
	Anchor    string
	Text      string
	Author    string
	Replies   []TemplateReply
}

// TemplateReply holds reply data for template
type TemplateReply struct {
	Author string
	Body   string
}

// RenderHTML renders the transcript template with provided data
func RenderHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const transcriptTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    .comment-highlight { background: #fef3c7; }
    .comment-draft { background: #e0e7ff; }
    .note { background: #f5f5f5; padding: 1rem; margin: 1rem 0; border-left: 3px solid #333; }
    .anchor { font-style: italic; color: #555; }
    .reply { margin-left: 1.5rem; border-left: 2px solid #ccc; padding-left: 0.75rem; }
    @media print {
      body { margin: 0; max-width: none; }
      .comment-highlight, .comment-draft { -webkit-print-color-adjust: exact; print-color-adjust: exact; }
      .appendix { break-before: page; }
      .note { break-inside: avoid; }
    }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <div class="meta">Interview {{.InterviewID}} | Exported {{formatDate .GeneratedAt "Jan 2, 2006 15:04"}}</div>
  {{if .Empty}}<p class="meta">No transcript content.</p>{{else}}<div class="transcript">{{.ContentHTML}}</div>{{end}}
  {{if or .Comments .GeneralNotes}}<div class="appendix">{{end}}
  {{if .Comments}}
  <h2>Comments</h2>
  {{range .Comments}}<div class="note" id="note-{{.CommentID}}">
    <div class="anchor">&ldquo;{{.Anchor}}&rdquo;</div>
    <p>{{.Text}}</p>{{if .Author}}<div class="meta">{{.Author}}</div>{{end}}
    {{range .Replies}}<div class="reply"><p>{{.Body}}</p>{{if .Author}}<div class="meta">{{.Author}}</div>{{end}}</div>{{end}}
  </div>{{end}}
  {{end}}
  {{if .GeneralNotes}}
  <h2>General notes</h2>
  {{range .GeneralNotes}}<div class="note">
    <p>{{.Text}}</p>{{if .Author}}<div class="meta">{{.Author}}</div>{{end}}
    {{range .Replies}}<div class="reply"><p>{{.Body}}</p>{{if .Author}}<div class="meta">{{.Author}}</div>{{end}}</div>{{end}}
  </div>{{end}}
  {{end}}
  {{if or .Comments .GeneralNotes}}</div>{{end}}
</body>
</html>`
