package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"interviewnotes/api/internal/blob"
	"interviewnotes/api/internal/config"
	"interviewnotes/api/internal/export"
	"interviewnotes/api/internal/interaction"
	"interviewnotes/api/internal/layout"
	"interviewnotes/api/internal/notes"
	"interviewnotes/api/internal/search"
	"interviewnotes/api/internal/store"
	"interviewnotes/api/internal/transcript"
	"interviewnotes/api/internal/view"
)

type CreateNoteInput struct {
	Content    string `json:"content"`
	CommentID  string `json:"commentId"`
	AnchorText string `json:"anchorText"`
	ParentID   string `json:"parentId"`
}

type UpdateNoteInput struct {
	Content string `json:"content"`
}

type PendingInput struct {
	Text string  `json:"text"`
	Top  float64 `json:"top"`
	Left float64 `json:"left"`
}

// LayoutInput is the geometry a client measured for one layout pass.
type LayoutInput struct {
	layout.StaticMeasurer
	SidebarLeft float64       `json:"sidebarLeft"`
	Pending     *PendingInput `json:"pending,omitempty"`
}

type LayoutResponse struct {
	layout.Result
	Connectors []layout.Line `json:"connectors"`
}

type dataStore interface {
	notes.Collaborator
	GetNote(context.Context, string) (notes.Note, error)
	GetTranscript(context.Context, string) (store.Transcript, error)
	SaveTranscript(context.Context, store.Transcript) (store.Transcript, error)
	SearchNotes(context.Context, string, string, int) ([]notes.Note, error)
	ListAllNotes(context.Context) ([]notes.Note, error)
	Ping(context.Context) error
}

type renderCache interface {
	Key(interviewID string, doc *transcript.Node, all []notes.Note) (string, error)
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, html string) error
	Ping(ctx context.Context) error
}

type transcriptSource interface {
	FetchRaw(ctx context.Context, interviewID string) ([]byte, error)
}

type exporter interface {
	Export(ctx context.Context, req export.Request) (*export.Result, error)
}

type Service struct {
	cfg    config.Config
	store  dataStore
	search *search.Service
	cache  renderCache
	blobs  transcriptSource
	export exporter
}

type Option func(*Service)

// WithRenderCache caches rendered transcripts.
func WithRenderCache(cache renderCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithTranscriptSource imports transcripts missing from the database.
func WithTranscriptSource(source transcriptSource) Option {
	return func(s *Service) { s.blobs = source }
}

func New(cfg config.Config, dataStore dataStore, searchService *search.Service, opts ...Option) *Service {
	s := &Service{
		cfg:    cfg,
		store:  dataStore,
		search: searchService,
	}
	if s.search == nil {
		s.search = search.NewService(nil, dataStore)
	}
	for _, opt := range opts {
		opt(s)
	}
	s.export = export.NewService(s)
	return s
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Checks reports optional dependencies for the readiness endpoint.
func (s *Service) Checks(ctx context.Context) map[string]any {
	checks := map[string]any{}
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["redis"] = map[string]any{"status": "error", "error": err.Error()}
		} else {
			checks["redis"] = map[string]any{"status": "ok"}
		}
	}
	if s.search.Healthy() {
		checks["search"] = map[string]any{"status": "ok"}
	} else {
		checks["search"] = map[string]any{"status": "fallback"}
	}
	return checks
}

// LoadTranscript returns the parsed document of an interview, importing it
// from object storage on first access.
func (s *Service) LoadTranscript(ctx context.Context, interviewID string) (*transcript.Node, error) {
	item, err := s.store.GetTranscript(ctx, interviewID)
	if err == nil {
		doc, parseErr := transcript.Parse(item.Document)
		if parseErr != nil {
			return nil, fmt.Errorf("parse transcript %s: %w", interviewID, parseErr)
		}
		return doc, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get transcript: %w", err)
	}
	if s.blobs == nil {
		return nil, transcriptNotFound(interviewID)
	}

	raw, err := s.blobs.FetchRaw(ctx, interviewID)
	if errors.Is(err, blob.ErrNotFound) {
		return nil, transcriptNotFound(interviewID)
	}
	if err != nil {
		return nil, fmt.Errorf("import transcript: %w", err)
	}
	doc, err := transcript.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse imported transcript %s: %w", interviewID, err)
	}
	if _, err := s.store.SaveTranscript(ctx, store.Transcript{InterviewID: interviewID, Document: raw, UpdatedBy: "import"}); err != nil {
		log.Warn().Err(err).Str("interview_id", interviewID).Msg("persist imported transcript")
	} else {
		log.Info().Str("interview_id", interviewID).Msg("imported transcript from object storage")
	}
	return doc, nil
}

func (s *Service) ListNotes(ctx context.Context, interviewID string) ([]notes.Note, error) {
	return s.store.ListNotes(ctx, interviewID)
}

// OpenView builds a fresh per-request view of an interview.
func (s *Service) OpenView(ctx context.Context, interviewID string) (*view.View, error) {
	interviewID = strings.TrimSpace(interviewID)
	if interviewID == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "interview id is required", nil)
	}
	doc, err := s.LoadTranscript(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	v := view.New(interviewID, doc, indexedNotes{store: s.store, search: s.search}, view.WithRenderFunc(s.renderFunc(ctx, interviewID)))
	if err := v.Load(ctx); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) Transcript(ctx context.Context, interviewID string) (view.Snapshot, error) {
	v, err := s.OpenView(ctx, interviewID)
	if err != nil {
		return view.Snapshot{}, err
	}
	return v.Snapshot(), nil
}

func (s *Service) SaveTranscript(ctx context.Context, interviewID string, raw json.RawMessage, actor string) (store.Transcript, error) {
	interviewID = strings.TrimSpace(interviewID)
	if interviewID == "" {
		return store.Transcript{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "interview id is required", nil)
	}
	doc, err := transcript.Parse(raw)
	if err != nil {
		return store.Transcript{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "document must be a rich-text JSON tree", nil)
	}
	if doc != nil && doc.Type != transcript.NodeDoc {
		return store.Transcript{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "document root must be of type doc", nil)
	}
	if doc == nil {
		raw = json.RawMessage(`{"type":"doc","content":[]}`)
	}
	return s.store.SaveTranscript(ctx, store.Transcript{InterviewID: interviewID, Document: raw, UpdatedBy: actor})
}

func (s *Service) CreateNote(ctx context.Context, interviewID string, input CreateNoteInput, actor string) (notes.Note, error) {
	if strings.TrimSpace(input.Content) == "" {
		return notes.Note{}, notes.ErrEmptyContent
	}
	v, err := s.OpenView(ctx, interviewID)
	if err != nil {
		return notes.Note{}, err
	}
	return v.Create(ctx, notes.NewNote{
		Content:    input.Content,
		CommentID:  input.CommentID,
		AnchorText: input.AnchorText,
		ParentID:   strings.TrimSpace(input.ParentID),
		Author:     actor,
	})
}

func (s *Service) UpdateNote(ctx context.Context, noteID string, input UpdateNoteInput) (notes.Note, error) {
	if strings.TrimSpace(input.Content) == "" {
		return notes.Note{}, notes.ErrEmptyContent
	}
	v, err := s.viewForNote(ctx, noteID)
	if err != nil {
		return notes.Note{}, err
	}
	return v.Edit(ctx, noteID, input.Content)
}

func (s *Service) DeleteNote(ctx context.Context, noteID string) error {
	v, err := s.viewForNote(ctx, noteID)
	if err != nil {
		return err
	}
	return v.Delete(ctx, noteID)
}

func (s *Service) viewForNote(ctx context.Context, noteID string) (*view.View, error) {
	note, err := s.store.GetNote(ctx, noteID)
	if err != nil {
		return nil, err
	}
	return s.OpenView(ctx, note.InterviewID)
}

// Layout runs one layout pass over measurements posted by the client.
func (s *Service) Layout(ctx context.Context, interviewID string, input LayoutInput) (LayoutResponse, error) {
	v, err := s.OpenView(ctx, interviewID)
	if err != nil {
		return LayoutResponse{}, err
	}
	if input.Pending != nil {
		if _, err := v.StartComment(input.Pending.Text, interaction.Point{Top: input.Pending.Top, Left: input.Pending.Left}); err != nil {
			return LayoutResponse{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
		}
	}
	result := v.Layout(input.StaticMeasurer)
	response := LayoutResponse{Result: result, Connectors: make([]layout.Line, 0, len(result.Positions))}
	for _, pos := range result.Positions {
		response.Connectors = append(response.Connectors, layout.Connector(pos, input.SidebarLeft))
	}
	return response, nil
}

func (s *Service) Export(ctx context.Context, req export.Request) (*export.Result, error) {
	return s.export.Export(ctx, req)
}

func (s *Service) Search(ctx context.Context, q search.Query) search.Response {
	return s.search.Search(ctx, q)
}

func (s *Service) renderFunc(ctx context.Context, interviewID string) view.RenderFunc {
	if s.cache == nil {
		return view.RenderAnnotated
	}
	return func(doc *transcript.Node, all []notes.Note) string {
		key, err := s.cache.Key(interviewID, doc, all)
		if err != nil {
			log.Warn().Err(err).Str("interview_id", interviewID).Msg("render cache key")
			return view.RenderAnnotated(doc, all)
		}
		if html, ok, err := s.cache.Get(ctx, key); err != nil {
			log.Warn().Err(err).Str("interview_id", interviewID).Msg("render cache read")
		} else if ok {
			return html
		}
		html := view.RenderAnnotated(doc, all)
		if err := s.cache.Set(ctx, key, html); err != nil {
			log.Warn().Err(err).Str("interview_id", interviewID).Msg("render cache write")
		}
		return html
	}
}

func transcriptNotFound(interviewID string) error {
	return domainError(http.StatusNotFound, "TRANSCRIPT_NOT_FOUND", "No transcript for interview "+interviewID, nil)
}

// indexedNotes keeps the search index in step with note mutations.
type indexedNotes struct {
	store  dataStore
	search *search.Service
}

func (n indexedNotes) ListNotes(ctx context.Context, interviewID string) ([]notes.Note, error) {
	return n.store.ListNotes(ctx, interviewID)
}

func (n indexedNotes) AddNote(ctx context.Context, input notes.NewNote) (notes.Note, error) {
	created, err := n.store.AddNote(ctx, input)
	if err != nil {
		return notes.Note{}, err
	}
	n.search.IndexNote(created)
	return created, nil
}

func (n indexedNotes) UpdateNote(ctx context.Context, noteID, content string) (notes.Note, error) {
	updated, err := n.store.UpdateNote(ctx, noteID, content)
	if err != nil {
		return notes.Note{}, err
	}
	n.search.IndexNote(updated)
	return updated, nil
}

func (n indexedNotes) DeleteNote(ctx context.Context, noteID string) error {
	ids := []string{noteID}
	if note, err := n.store.GetNote(ctx, noteID); err == nil {
		if siblings, err := n.store.ListNotes(ctx, note.InterviewID); err == nil {
			for _, reply := range notes.Replies(siblings)[noteID] {
				ids = append(ids, reply.ID)
			}
		}
	}
	if err := n.store.DeleteNote(ctx, noteID); err != nil {
		return err
	}
	n.search.DeleteNotes(ids...)
	return nil
}
