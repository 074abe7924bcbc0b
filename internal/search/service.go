package search

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"interviewnotes/api/internal/notes"
)

// NoteFinder is the database fallback used when Meilisearch is not available.
// It is also the source of full reindexes.
type NoteFinder interface {
	SearchNotes(ctx context.Context, interviewID, query string, limit int) ([]notes.Note, error)
	ListAllNotes(ctx context.Context) ([]notes.Note, error)
}

// noteIndex is the primary search backend; *Meili implements it.
type noteIndex interface {
	Healthy() bool
	Search(q Query) ([]Result, int, error)
	IndexNotes(records []NoteRecord) error
	DeleteNote(id string) error
	OnRecover(fn func())
}

// Service is the facade that tries Meilisearch first and falls back to the database.
type Service struct {
	meili    noteIndex
	fallback NoteFinder
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
// When Meilisearch comes back after an outage the index is rebuilt from the database,
// since notes written meanwhile were never indexed.
func NewService(meili *Meili, fallback NoteFinder) *Service {
	if meili == nil {
		return newService(nil, fallback)
	}
	return newService(meili, fallback)
}

func newService(index noteIndex, fallback NoteFinder) *Service {
	s := &Service{meili: index, fallback: fallback}
	if index != nil {
		index.OnRecover(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			s.ReindexAll(ctx)
		})
	}
	return s
}

// Search tries Meilisearch if healthy, otherwise falls back to the database.
func (s *Service) Search(ctx context.Context, q Query) Response {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}

	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Warn().Err(err).Msg("search: meilisearch error, falling back to database")
	}

	if s.fallback == nil {
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	found, err := s.fallback.SearchNotes(ctx, q.InterviewID, q.Text, normalizeLimit(q.Limit))
	if err != nil {
		log.Error().Err(err).Msg("search: database fallback error")
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	results := make([]Result, 0, len(found))
	for _, n := range found {
		results = append(results, ResultFromNote(n))
	}
	return Response{Results: results, Total: len(results), Query: q.Text}
}

// IndexNote indexes a note (fire-and-forget to Meilisearch).
func (s *Service) IndexNote(n notes.Note) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	record := RecordFromNote(n)
	go func() {
		if err := s.meili.IndexNotes([]NoteRecord{record}); err != nil {
			log.Warn().Err(err).Str("note_id", record.ID).Msg("search: index note")
		}
	}()
}

// DeleteNotes removes notes from the search index (fire-and-forget).
func (s *Service) DeleteNotes(ids ...string) {
	if s.meili == nil || !s.meili.Healthy() || len(ids) == 0 {
		return
	}
	go func() {
		for _, id := range ids {
			if err := s.meili.DeleteNote(id); err != nil {
				log.Warn().Err(err).Str("note_id", id).Msg("search: delete note")
			}
		}
	}()
}

// Reindex pushes notes into Meilisearch.
func (s *Service) Reindex(items []notes.Note) {
	if s.meili == nil || !s.meili.Healthy() || len(items) == 0 {
		return
	}
	records := make([]NoteRecord, 0, len(items))
	for _, n := range items {
		records = append(records, RecordFromNote(n))
	}
	if err := s.meili.IndexNotes(records); err != nil {
		log.Warn().Err(err).Int("count", len(records)).Msg("search: reindex notes")
	}
}

// ReindexAll rebuilds the index from every note in the database.
func (s *Service) ReindexAll(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() || s.fallback == nil {
		return
	}
	items, err := s.fallback.ListAllNotes(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("search: reindex load failed")
		return
	}
	s.Reindex(items)
	log.Info().Int("count", len(items)).Msg("search: reindexed notes")
}

// Healthy reports whether the primary index is reachable.
func (s *Service) Healthy() bool {
	return s.meili != nil && s.meili.Healthy()
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
