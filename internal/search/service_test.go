package search

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	meili "github.com/meilisearch/meilisearch-go"

	"interviewnotes/api/internal/notes"
)

type fakeFinder struct {
	gotInterview string
	gotQuery     string
	gotLimit     int
	items        []notes.Note
	err          error
}

func (f *fakeFinder) SearchNotes(_ context.Context, interviewID, query string, limit int) ([]notes.Note, error) {
	f.gotInterview, f.gotQuery, f.gotLimit = interviewID, query, limit
	return f.items, f.err
}

func (f *fakeFinder) ListAllNotes(context.Context) ([]notes.Note, error) {
	return f.items, f.err
}

type fakeIndex struct {
	mu        sync.Mutex
	healthy   bool
	indexed   []NoteRecord
	onRecover func()
}

func (f *fakeIndex) Healthy() bool { return f.healthy }

func (f *fakeIndex) Search(Query) ([]Result, int, error) { return nil, 0, nil }

func (f *fakeIndex) IndexNotes(records []NoteRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, records...)
	return nil
}

func (f *fakeIndex) DeleteNote(string) error { return nil }

func (f *fakeIndex) OnRecover(fn func()) { f.onRecover = fn }

func (f *fakeIndex) indexedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.indexed))
	for _, r := range f.indexed {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestSearchFallsBackToDatabase(t *testing.T) {
	finder := &fakeFinder{items: []notes.Note{
		{ID: "n1", InterviewID: "iv1", CommentID: "c1", AnchorText: "weekly check-ins", Content: "confirm"},
		{ID: "r1", InterviewID: "iv1", ParentID: "n1", Content: "confirmed"},
	}}
	svc := NewService(nil, finder)

	got := svc.Search(context.Background(), Query{Text: "  confirm ", InterviewID: "iv1"})

	want := Response{
		Query: "confirm",
		Total: 2,
		Results: []Result{
			{Type: ResultNote, ID: "n1", InterviewID: "iv1", CommentID: "c1", Title: "weekly check-ins", Snippet: "confirm"},
			{Type: ResultReply, ID: "r1", InterviewID: "iv1", ParentID: "n1", Snippet: "confirmed"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}
	if finder.gotInterview != "iv1" || finder.gotQuery != "confirm" || finder.gotLimit != 20 {
		t.Errorf("finder called with %q %q %d", finder.gotInterview, finder.gotQuery, finder.gotLimit)
	}
}

func TestSearchBlankAndErrors(t *testing.T) {
	finder := &fakeFinder{err: errors.New("db down")}
	svc := NewService(nil, finder)

	if got := svc.Search(context.Background(), Query{Text: "   "}); len(got.Results) != 0 || finder.gotQuery != "" {
		t.Fatalf("blank query should not hit the database: %+v", got)
	}
	got := svc.Search(context.Background(), Query{Text: "x"})
	if got.Results == nil || len(got.Results) != 0 {
		t.Fatalf("errors should produce an empty, non-nil result list: %+v", got)
	}
	if svc.Healthy() {
		t.Error("service without meilisearch is not healthy")
	}

	// Index calls are no-ops without Meilisearch.
	svc.IndexNote(notes.Note{ID: "n1"})
	svc.DeleteNotes("n1")
	svc.Reindex([]notes.Note{{ID: "n1"}})
}

func TestHitToResultPrefersHighlights(t *testing.T) {
	raw := func(v any) json.RawMessage {
		b, _ := json.Marshal(v)
		return b
	}
	hit := meili.Hit{
		"id":          raw("r1"),
		"interviewId": raw("iv1"),
		"parentId":    raw("n1"),
		"content":     raw("confirmed the schedule"),
		"anchorText":  raw(""),
		"_formatted":  raw(map[string]any{"content": "<mark>confirmed</mark> the schedule", "anchorText": ""}),
	}

	got := hitToResult(hit)
	want := Result{
		Type:        ResultReply,
		ID:          "r1",
		InterviewID: "iv1",
		ParentID:    "n1",
		Snippet:     "<mark>confirmed</mark> the schedule",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeLimit(t *testing.T) {
	for input, want := range map[int]int{0: 20, -1: 20, 5: 5, 100: 100, 101: 20} {
		if got := normalizeLimit(input); got != want {
			t.Errorf("normalizeLimit(%d) = %d, want %d", input, got, want)
		}
	}
}

func TestRecoveryReindexesNotesWrittenDuringOutage(t *testing.T) {
	finder := &fakeFinder{items: []notes.Note{
		{ID: "n1", InterviewID: "iv1", Content: "before outage"},
		{ID: "n2", InterviewID: "iv2", Content: "during outage"},
	}}
	index := &fakeIndex{}
	svc := newService(index, finder)
	if index.onRecover == nil {
		t.Fatal("service should register a recovery hook")
	}

	svc.IndexNote(finder.items[1])
	if got := index.indexedIDs(); len(got) != 0 {
		t.Fatalf("unhealthy index should not receive writes, got %v", got)
	}

	index.healthy = true
	index.onRecover()

	if diff := cmp.Diff([]string{"n1", "n2"}, index.indexedIDs()); diff != "" {
		t.Errorf("reindexed ids mismatch (-want +got):\n%s", diff)
	}
}

func TestReindexAllSkipsOnLoadError(t *testing.T) {
	index := &fakeIndex{healthy: true}
	svc := newService(index, &fakeFinder{err: errors.New("db down")})

	svc.ReindexAll(context.Background())
	if got := index.indexedIDs(); len(got) != 0 {
		t.Fatalf("nothing should be indexed when loading fails, got %v", got)
	}

	NewService(nil, nil).ReindexAll(context.Background())
}
